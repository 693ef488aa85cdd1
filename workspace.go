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

package mobiletriage

import (
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// Workspace is the private extraction directory of one analysis request.
type Workspace struct {
	ID  string
	Dir string

	// Fs is jailed to Dir.
	Fs afero.Fs

	base afero.Fs
}

// NewWorkspace creates a uniquely named workspace below base.
func NewWorkspace(fs afero.Fs, base string) (*Workspace, error) {
	id := uuid.New().String()
	dir := filepath.Join(base, "analysis-"+id)
	if err := fs.MkdirAll(dir, 0750); err != nil {
		return nil, errors.Wrap(err, "could not create workspace")
	}
	return &Workspace{
		ID:   id,
		Dir:  dir,
		Fs:   afero.NewBasePathFs(fs, dir),
		base: fs,
	}, nil
}

// OSPath returns the operating system path of name. It only succeeds if the
// workspace lives on the OS filesystem.
func (w *Workspace) OSPath(name string) (string, bool) {
	if _, ok := w.base.(*afero.OsFs); !ok {
		return "", false
	}
	return filepath.Join(w.Dir, filepath.FromSlash(name)), true
}

// Remove deletes the workspace and everything extracted into it.
func (w *Workspace) Remove() error {
	return w.base.RemoveAll(w.Dir)
}
