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
	"context"
	"path"
	"path/filepath"
	"sort"

	"github.com/forensicanalysis/fsdoublestar"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/forensicanalysis/mobiletriage/archive"
	"github.com/forensicanalysis/mobiletriage/relational"
)

// ErrNoInputs is returned if a request names neither a database nor a dump.
var ErrNoInputs = errors.New("no valid files given")

var (
	smsPatterns   = []string{"**/mmssms.db"}
	callsPatterns = []string{"**/calllog.db", "**/contacts2.db"}
)

// Request names the inputs of one analysis. Empty paths are not analyzed.
type Request struct {
	SMSPath   string
	CallsPath string
	DumpPath  string
}

// Analyzer runs the extractors for analysis requests.
type Analyzer struct {
	fs     afero.Fs
	config Config
}

// New creates an Analyzer that extracts dumps to the OS filesystem.
func New(config Config) *Analyzer {
	return NewWithFs(afero.NewOsFs(), config)
}

// NewWithFs creates an Analyzer that extracts dumps to fs.
func NewWithFs(fs afero.Fs, config Config) *Analyzer {
	return &Analyzer{fs: fs, config: config}
}

type dumpResult struct {
	summary   *DumpSummary
	workspace *Workspace
	images    []ImageArtifact
	audio     []AudioArtifact
}

var errNotOnOsFs = errors.New("database is not on the os filesystem")

// osPath resolves a discovered database. Databases on other filesystems
// cannot be opened by sqlite.
func (d *dumpResult) osPath(name string) (string, error) {
	p, ok := d.workspace.OSPath(name)
	if !ok {
		zap.S().Warnw("discovered database is not on the os filesystem", "path", name)
		return "", errors.Wrap(errNotOnOsFs, name)
	}
	return p, nil
}

// Analyze extracts all sections of req. Sections without input are empty.
// The workspace of a dump is removed unless the config keeps it.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*Report, error) {
	if req.SMSPath == "" && req.CallsPath == "" && req.DumpPath == "" {
		return nil, ErrNoInputs
	}

	messages := relational.Success[relational.Message](nil)
	calls := relational.Success[relational.Call](nil)
	var dump *dumpResult

	g, gctx := errgroup.WithContext(ctx)
	if req.SMSPath != "" {
		g.Go(func() error {
			messages = relational.Messages(req.SMSPath)
			return nil
		})
	}
	if req.CallsPath != "" {
		g.Go(func() error {
			calls = relational.Calls(req.CallsPath)
			return nil
		})
	}
	if req.DumpPath != "" {
		g.Go(func() error {
			dump = a.analyzeDump(gctx, req.DumpPath)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if dump == nil {
		return Assemble(messages, calls, nil, nil), nil
	}

	if req.SMSPath == "" && dump.summary.SMSDatabase != "" {
		p, err := dump.osPath(dump.summary.SMSDatabase)
		if err != nil {
			messages = relational.Fail[relational.Message](relational.KindRead, "Error reading SMS database: %s", err)
		} else {
			messages = relational.Messages(p)
		}
	}
	if req.CallsPath == "" && dump.summary.CallsDatabase != "" {
		p, err := dump.osPath(dump.summary.CallsDatabase)
		if err != nil {
			calls = relational.Fail[relational.Call](relational.KindRead, "Error reading Call Logs database: %s", err)
		} else {
			calls = relational.Calls(p)
		}
	}

	if dump.workspace != nil && !a.config.KeepWorkspace {
		if err := dump.workspace.Remove(); err != nil {
			zap.S().Warnw("could not remove workspace", "workspace", dump.workspace.Dir, "error", err)
		}
	}

	report := Assemble(messages, calls, dump.images, dump.audio)
	report.Dump = dump.summary
	return report, nil
}

// analyzeDump unpacks and classifies a dump. Failures are recorded in the
// summary, the other sections of the report are not affected.
func (a *Analyzer) analyzeDump(ctx context.Context, dumpPath string) *dumpResult {
	summary := &DumpSummary{Source: filepath.Base(dumpPath)}
	result := &dumpResult{summary: summary}

	workspace, err := NewWorkspace(a.fs, a.config.WorkDir)
	if err != nil {
		zap.S().Warnw("could not analyze dump", "dump", dumpPath, "error", err)
		summary.Error = err.Error()
		return result
	}
	summary.Workspace = workspace.ID

	log := zap.S().With("dump", dumpPath, "workspace", workspace.Dir)
	log.Infow("unpack dump")

	stats, err := archive.Unpack(dumpPath, workspace.Fs, "/", a.config.Limits)
	summary.Stats = stats
	if err != nil {
		log.Warnw("could not unpack dump completely", "error", err)
		summary.Error = err.Error()
	}

	images, audio, err := ClassifyTree(ctx, workspace.Fs, "/", a.config.Workers)
	if err != nil {
		log.Warnw("could not classify dump", "error", err)
		summary.Error = errors.Wrap(err, "could not classify dump").Error()
		if !a.config.KeepWorkspace {
			_ = workspace.Remove()
		}
		return result
	}
	log.Infow("classified dump", "images", len(images), "audio", len(audio))

	summary.SMSDatabase = discover(workspace.Fs, smsPatterns)
	summary.CallsDatabase = discover(workspace.Fs, callsPatterns)

	result.workspace = workspace
	result.images = images
	result.audio = audio
	return result
}

// discover returns the first match of the first pattern that matches
// anything in fs as an absolute slash path.
func discover(fs afero.Fs, patterns []string) string {
	fsys := afero.NewIOFS(fs)
	for _, pattern := range patterns {
		matches, err := fsdoublestar.Glob(fsys, pattern)
		if err != nil {
			zap.S().Warnw("could not search dump", "pattern", pattern, "error", err)
			continue
		}
		if len(matches) > 0 {
			sort.Strings(matches)
			found := path.Join("/", filepath.ToSlash(matches[0]))
			zap.S().Infow("discovered database", "path", found)
			return found
		}
	}
	return ""
}
