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

// Package archive unpacks device dumps (zip, tar, tar.gz and SQLite
// Archives) into a destination tree. Unpacking is bounded by Limits and
// never writes outside the destination directory.
package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/forensicanalysis/mobiletriage/sqlar"
)

// Supported archive formats.
const (
	FormatZip   = "zip"
	FormatTar   = "tar"
	FormatTarGz = "tar.gz"
	FormatSQLAR = "sqlar"
)

// ErrLimitExceeded is returned if an archive exceeds the configured Limits.
var ErrLimitExceeded = errors.New("archive limit exceeded")

// ErrUnsafePath marks entries whose names would escape the destination.
var ErrUnsafePath = errors.New("unsafe path")

var errTooDeep = errors.New("path too deep")

// Limits bound the resources used by a single Unpack. Zero values disable
// the corresponding check.
type Limits struct {
	MaxTotalBytes int64 `yaml:"max_total_bytes" json:"max_total_bytes"`
	MaxEntries    int   `yaml:"max_entries" json:"max_entries"`
	MaxDepth      int   `yaml:"max_depth" json:"max_depth"`
}

// DefaultLimits returns the limits used when nothing is configured.
func DefaultLimits() Limits {
	return Limits{
		MaxTotalBytes: 2 << 30,
		MaxEntries:    100000,
		MaxDepth:      64,
	}
}

// Stats describe what an Unpack wrote.
type Stats struct {
	Format  string   `json:"format"`
	Entries int      `json:"entries"`
	Bytes   int64    `json:"bytes"`
	Skipped []string `json:"skipped,omitempty"`
}

// Format returns the archive format derived from the file name or "" if
// the extension is not supported.
func Format(name string) string {
	name = strings.ToLower(name)
	switch {
	case strings.HasSuffix(name, ".zip"):
		return FormatZip
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return FormatTarGz
	case strings.HasSuffix(name, ".tar"):
		return FormatTar
	case strings.HasSuffix(name, ".sqlar"):
		return FormatSQLAR
	}
	return ""
}

// Unpack decompresses the archive at srcPath into destDir on dest. Files
// with an unsupported extension are ignored. On error the content written
// so far stays in place and the returned Stats describe it.
func Unpack(srcPath string, dest afero.Fs, destDir string, limits Limits) (*Stats, error) {
	x := &extractor{
		dest:    dest,
		destDir: destDir,
		limits:  limits,
		stats:   &Stats{Format: Format(srcPath)},
	}

	var err error
	switch x.stats.Format {
	case FormatZip:
		err = x.unzip(srcPath)
	case FormatTar:
		err = x.untar(srcPath, false)
	case FormatTarGz:
		err = x.untar(srcPath, true)
	case FormatSQLAR:
		err = x.unsqlar(srcPath)
	default:
		zap.S().Infow("not an archive, skipping unpack", "path", srcPath)
		return x.stats, nil
	}
	if err != nil {
		return x.stats, errors.Wrapf(err, "could not unpack %s", filepath.Base(srcPath))
	}

	zap.S().Infow("unpacked archive", "path", srcPath, "format", x.stats.Format,
		"entries", x.stats.Entries, "bytes", x.stats.Bytes, "skipped", len(x.stats.Skipped))
	return x.stats, nil
}

type extractor struct {
	dest    afero.Fs
	destDir string
	limits  Limits
	stats   *Stats
	seen    int
}

func (x *extractor) unzip(srcPath string) error {
	r, err := zip.OpenReader(srcPath)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		info := f.FileInfo()
		switch {
		case info.IsDir():
			err = x.dir(f.Name)
		case info.Mode().IsRegular():
			err = x.zipFile(f)
		default:
			err = x.skip(f.Name, "not a regular file")
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (x *extractor) zipFile(f *zip.File) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	return x.file(f.Name, f.Mode(), rc)
}

func (x *extractor) untar(srcPath string, gzipped bool) error {
	f, err := os.Open(srcPath) // #nosec
	if err != nil {
		return err
	}
	defer f.Close()

	var r io.Reader = f
	if gzipped {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return err
		}
		defer gz.Close()
		r = gz
	}

	tr := tar.NewReader(r)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			err = x.dir(header.Name)
		case tar.TypeReg, tar.TypeRegA: // nolint:staticcheck
			err = x.file(header.Name, header.FileInfo().Mode(), tr)
		default:
			err = x.skip(header.Name, "not a regular file")
		}
		if err != nil {
			return err
		}
	}
}

func (x *extractor) unsqlar(srcPath string) error {
	a, err := sqlar.Open(srcPath)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.Walk(func(entry *sqlar.Entry) error {
		switch {
		case entry.IsDir():
			return x.dir(entry.Name)
		case entry.IsSymlink():
			return x.skip(entry.Name, "symlink")
		}

		rc, err := entry.Open()
		if err != nil {
			return err
		}
		defer rc.Close()
		return x.file(entry.Name, entry.Mode, rc)
	})
}

func (x *extractor) dir(name string) error {
	target, err := x.target(name)
	if err != nil || target == "" {
		return err
	}
	if err := x.dest.MkdirAll(target, 0755); err != nil {
		return err
	}
	x.stats.Entries++
	return nil
}

func (x *extractor) file(name string, mode os.FileMode, r io.Reader) error {
	target, err := x.target(name)
	if err != nil || target == "" {
		return err
	}
	zap.S().Debugw("unpack", "entry", name, "target", target)

	if err := x.dest.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	f, err := x.dest.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm()|0600)
	if err != nil {
		return err
	}

	if x.limits.MaxTotalBytes > 0 {
		r = io.LimitReader(r, x.limits.MaxTotalBytes-x.stats.Bytes+1)
	}
	n, err := io.Copy(f, r)
	x.stats.Bytes += n
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	x.stats.Entries++

	if x.limits.MaxTotalBytes > 0 && x.stats.Bytes > x.limits.MaxTotalBytes {
		_ = x.dest.Remove(target)
		return errors.Wrapf(ErrLimitExceeded, "more than %d bytes", x.limits.MaxTotalBytes)
	}
	return nil
}

func (x *extractor) skip(name, reason string) error {
	x.seen++
	if x.limits.MaxEntries > 0 && x.seen > x.limits.MaxEntries {
		return errors.Wrapf(ErrLimitExceeded, "more than %d entries", x.limits.MaxEntries)
	}
	zap.S().Warnw("skipping archive entry", "entry", name, "reason", reason)
	x.stats.Skipped = append(x.stats.Skipped, name)
	return nil
}

// target maps an entry name to its location below destDir. Unsafe or too
// deep entries are recorded as skipped and yield an empty target.
func (x *extractor) target(name string) (string, error) {
	x.seen++
	if x.limits.MaxEntries > 0 && x.seen > x.limits.MaxEntries {
		return "", errors.Wrapf(ErrLimitExceeded, "more than %d entries", x.limits.MaxEntries)
	}

	clean, err := sanitize(name, x.limits.MaxDepth)
	if err != nil {
		zap.S().Warnw("skipping archive entry", "entry", name, "reason", err)
		x.stats.Skipped = append(x.stats.Skipped, name)
		return "", nil
	}
	if clean == "." {
		return "", nil
	}
	return filepath.Join(x.destDir, filepath.FromSlash(clean)), nil
}

// sanitize cleans an archive entry name and rejects absolute names, names
// that leave the destination and names nested deeper than maxDepth.
func sanitize(name string, maxDepth int) (string, error) {
	name = strings.ReplaceAll(name, "\\", "/")
	if name == "" || path.IsAbs(name) || filepath.VolumeName(name) != "" || hasDriveLetter(name) {
		return "", errors.Wrap(ErrUnsafePath, fmt.Sprintf("absolute path %q", name))
	}

	clean := path.Clean(name)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", errors.Wrap(ErrUnsafePath, fmt.Sprintf("%q leaves the destination", name))
	}
	if maxDepth > 0 && strings.Count(clean, "/")+1 > maxDepth {
		return "", errors.Wrap(errTooDeep, clean)
	}
	return clean, nil
}

func hasDriveLetter(name string) bool {
	return len(name) >= 2 && name[1] == ':' &&
		(('a' <= name[0] && name[0] <= 'z') || ('A' <= name[0] && name[0] <= 'Z'))
}
