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

// Package classify sorts the files of an extracted dump into images and
// audio. Images are recognized by content, audio by file extension.
package classify

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Kind is the class assigned to a file.
type Kind string

const (
	KindImage Kind = "image"
	KindAudio Kind = "audio"
	KindOther Kind = ""
)

var audioExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".m4a":  true,
	".aac":  true,
	".ogg":  true,
	".flac": true,
}

// File is a classified file. Path is relative to the walked root and
// uses forward slashes.
type File struct {
	Path string
	MIME string
	Kind Kind
}

// Result holds the classified files in traversal order.
type Result struct {
	Images []File
	Audio  []File
}

// Walk classifies every regular file below root. Files that cannot be read
// or match neither class are left out.
func Walk(fs afero.Fs, root string) (*Result, error) {
	if _, err := fs.Stat(root); err != nil {
		return nil, errors.Wrap(err, "could not classify")
	}

	result := &Result{}
	err := afero.Walk(fs, root, func(name string, info os.FileInfo, err error) error {
		if err != nil {
			zap.S().Warnw("could not walk", "path", name, "error", err)
			return nil
		}
		if info == nil || !info.Mode().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, name)
		if err != nil {
			return err
		}
		file := File{Path: filepath.ToSlash(rel)}

		file.Kind, file.MIME, err = Classify(fs, name)
		if err != nil {
			zap.S().Warnw("could not classify", "path", name, "error", err)
			return nil
		}

		switch file.Kind {
		case KindImage:
			result.Images = append(result.Images, file)
		case KindAudio:
			result.Audio = append(result.Audio, file)
		default:
			zap.S().Debugw("unrecognized file", "path", file.Path, "mime", file.MIME)
		}
		return nil
	})
	return result, err
}

// Classify sniffs the content of a single file. Content decides for images
// regardless of the extension, audio is only recognized by extension.
func Classify(fs afero.Fs, name string) (kind Kind, mime string, err error) {
	f, err := fs.Open(name)
	if err != nil {
		return KindOther, "", err
	}
	defer f.Close()

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return KindOther, "", err
	}
	mime = mtype.String()

	if IsImage(mtype) {
		return KindImage, mime, nil
	}
	if IsAudioName(name) {
		return KindAudio, mime, nil
	}
	return KindOther, mime, nil
}

// IsImage reports whether the sniffed type or one of its parents is an
// image type.
func IsImage(mtype *mimetype.MIME) bool {
	for m := mtype; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "image/") {
			return true
		}
	}
	return false
}

// IsAudioName reports whether name carries one of the audio extensions,
// ignoring case.
func IsAudioName(name string) bool {
	return audioExtensions[strings.ToLower(filepath.Ext(name))]
}
