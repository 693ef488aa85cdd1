// Copyright (c) 2019 Siemens AG
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
// the Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
// FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
// COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
// IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
// CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
//
// Author(s): Jonas Plum

// Package imagemeta recovers the original capture time of images. It
// never fails: every problem with a file degrades to an unknown Date and a
// log line.
package imagemeta

import (
	"encoding/json"
	"fmt"
	"image"
	"io"
	"strings"
	"time"

	// decoders for image.DecodeConfig
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Unknown is the presentation value of a missing capture date.
const Unknown = "Unknown"

// exifLayout is the DateTimeOriginal format of EXIF 2.3.
const exifLayout = "2006:01:02 15:04:05"

// Date is the capture date of an image. Raw is the value as stored in the
// metadata block. Time is set if Raw could be parsed; EXIF stores local
// wall clock time without zone, so Time carries UTC as a placeholder zone.
type Date struct {
	Raw   string
	Time  time.Time
	Valid bool
}

// String returns the raw value or "Unknown".
func (d Date) String() string {
	if !d.Valid {
		return Unknown
	}
	return d.Raw
}

// Parsed reports whether Time holds the parsed value of Raw.
func (d Date) Parsed() bool {
	return d.Valid && !d.Time.IsZero()
}

// MarshalJSON renders the raw value or null.
func (d Date) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(d.Raw)
}

// UnmarshalJSON accepts null, "Unknown" and raw EXIF values.
func (d *Date) UnmarshalJSON(b []byte) error {
	var raw *string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw == nil || *raw == Unknown {
		*d = Date{}
		return nil
	}
	*d = NewDate(*raw)
	return nil
}

// NewDate creates a valid Date from a raw metadata value.
func NewDate(raw string) Date {
	raw = strings.TrimRight(strings.TrimSpace(raw), "\x00")
	d := Date{Raw: raw, Valid: true}
	if t, err := time.ParseInLocation(exifLayout, raw, time.UTC); err == nil {
		d.Time = t
	}
	return d
}

// CaptureDate returns the original capture date stored in the image at
// name on fs.
func CaptureDate(fs afero.Fs, name string) (date Date) {
	defer func() {
		if r := recover(); r != nil {
			zap.S().Warnw("image decoder panicked", "path", name, "panic", fmt.Sprint(r))
			date = Date{}
		}
	}()

	f, err := fs.Open(name)
	if err != nil {
		zap.S().Warnw("could not open image", "path", name, "error", err)
		return Date{}
	}
	defer f.Close()

	return captureDate(f, name)
}

func captureDate(r io.ReadSeeker, name string) Date {
	_, format, err := image.DecodeConfig(r)
	if err != nil {
		zap.S().Debugw("not a decodable image", "path", name, "error", err)
		return Date{}
	}
	zap.S().Debugw("decodable image", "path", name, "format", format)

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		zap.S().Warnw("could not rewind image", "path", name, "error", err)
		return Date{}
	}

	x, err := exif.Decode(r)
	if err != nil && (x == nil || exif.IsCriticalError(err)) {
		zap.S().Debugw("no exif metadata", "path", name, "error", err)
		return Date{}
	}
	if err != nil {
		zap.S().Debugw("partial exif metadata", "path", name, "error", err)
	}

	tag, err := x.Get(exif.DateTimeOriginal)
	if err != nil {
		zap.S().Debugw("no original capture date", "path", name, "error", err)
		return Date{}
	}
	raw, err := tag.StringVal()
	if err != nil || strings.TrimSpace(raw) == "" {
		zap.S().Debugw("invalid original capture date", "path", name, "error", err)
		return Date{}
	}
	return NewDate(raw)
}
