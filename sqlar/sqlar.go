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

// Package sqlar reads SQLite Archive files (https://sqlite.org/sqlar.html).
// Archives are opened read-only.
package sqlar

import (
	"bytes"
	"compress/zlib"
	"io"
	"os"
	"time"

	"crawshaw.io/sqlite"
	"github.com/pkg/errors"
)

const (
	modeType    = 0170000
	modeDir     = 0040000
	modeSymlink = 0120000
)

// ErrNotSQLAR is returned if the database has no sqlar table.
var ErrNotSQLAR = errors.New("database contains no sqlar table")

// Archive is an open SQLite Archive.
type Archive struct {
	cursor *sqlite.Conn
}

// Entry is a single row of the sqlar table.
type Entry struct {
	Name    string
	Mode    os.FileMode
	ModTime time.Time
	Size    int64

	archive *Archive
	rowid   int64
	stored  int64
	dir     bool
	symlink bool
}

// Open opens the archive at url read-only.
func Open(url string) (*Archive, error) {
	cursor, err := sqlite.OpenConn(url, sqlite.SQLITE_OPEN_READONLY|sqlite.SQLITE_OPEN_NOMUTEX)
	if err != nil {
		return nil, err
	}

	a := &Archive{cursor: cursor}
	ok, err := a.hasTable()
	if err != nil {
		cursor.Close() // nolint:errcheck
		return nil, err
	}
	if !ok {
		cursor.Close() // nolint:errcheck
		return nil, ErrNotSQLAR
	}
	return a, nil
}

func (a *Archive) hasTable() (bool, error) {
	stmt, err := a.cursor.Prepare("SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'sqlar'")
	if err != nil {
		return false, err
	}
	hasRow, err := stmt.Step()
	if err != nil {
		return false, err
	}
	return hasRow, stmt.Reset()
}

// Walk calls fn for every entry ordered by name. Iteration stops at the
// first error returned by fn.
func (a *Archive) Walk(fn func(entry *Entry) error) error {
	stmt, err := a.cursor.Prepare(`SELECT rowid, name, mode, mtime, sz, CASE WHEN data IS NULL THEN -1 ELSE length(data) END stored FROM sqlar ORDER BY name`)
	if err != nil {
		return err
	}

	var entries []*Entry
	for {
		if hasRow, err := stmt.Step(); err != nil {
			return err
		} else if !hasRow {
			break
		}

		mode := stmt.GetInt64("mode")
		entry := &Entry{
			Name:    stmt.GetText("name"),
			Mode:    os.FileMode(mode & 0777),
			ModTime: time.Unix(stmt.GetInt64("mtime"), 0),
			Size:    stmt.GetInt64("sz"),
			archive: a,
			rowid:   stmt.GetInt64("rowid"),
			stored:  stmt.GetInt64("stored"),
		}
		switch mode & modeType {
		case modeDir:
			entry.dir = true
		case modeSymlink:
			entry.symlink = true
		case 0:
			// archives written without type bits
			entry.dir = entry.Size == 0 && entry.stored < 0
		}
		if entry.dir {
			entry.Mode |= os.ModeDir
		}
		if entry.symlink {
			entry.Mode |= os.ModeSymlink
		}
		entries = append(entries, entry)
	}
	if err := stmt.Reset(); err != nil {
		return err
	}

	for _, entry := range entries {
		if err := fn(entry); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying database.
func (a *Archive) Close() error {
	return a.cursor.Close()
}

// IsDir reports whether the entry is a directory.
func (e *Entry) IsDir() bool {
	return e.dir
}

// IsSymlink reports whether the entry is a symbolic link. The link
// target is stored as data.
func (e *Entry) IsSymlink() bool {
	return e.symlink
}

// Open returns the decompressed content of the entry. Content is stored
// uncompressed when its stored length equals its size, otherwise it is
// zlib compressed.
func (e *Entry) Open() (io.ReadCloser, error) {
	if e.dir || e.stored <= 0 {
		return io.NopCloser(&bytes.Reader{}), nil
	}

	blob, err := e.archive.cursor.OpenBlob("", "sqlar", "data", e.rowid, false)
	if err != nil {
		return nil, err
	}
	if e.stored == e.Size {
		return blob, nil
	}

	r, err := zlib.NewReader(blob)
	if err != nil {
		blob.Close() // nolint:errcheck
		return nil, err
	}
	return &item{reader: r, data: blob}, nil
}

type item struct {
	reader io.ReadCloser
	data   io.Closer
}

func (i *item) Read(p []byte) (n int, err error) {
	return i.reader.Read(p)
}

func (i *item) Close() error {
	if err := i.reader.Close(); err != nil {
		i.data.Close() // nolint:errcheck
		return err
	}
	return i.data.Close()
}
