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
	"path/filepath"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/forensicanalysis/mobiletriage/archive"
	"github.com/forensicanalysis/mobiletriage/classify"
	"github.com/forensicanalysis/mobiletriage/imagemeta"
	"github.com/forensicanalysis/mobiletriage/relational"
)

// ImageArtifact is an image found in a dump.
type ImageArtifact struct {
	Path         string         `json:"path"`
	MIME         string         `json:"mime"`
	CreationDate imagemeta.Date `json:"creation_date"`
}

// AudioArtifact is an audio file found in a dump.
type AudioArtifact struct {
	Path string `json:"path"`
}

// DumpSummary describes the unpacking of a dump archive.
type DumpSummary struct {
	Source        string         `json:"source"`
	Workspace     string         `json:"workspace"`
	Stats         *archive.Stats `json:"stats,omitempty"`
	SMSDatabase   string         `json:"sms_database,omitempty"`
	CallsDatabase string         `json:"calls_database,omitempty"`
	Error         string         `json:"error,omitempty"`
}

// Report is the result of one analysis request.
type Report struct {
	Messages relational.Result[relational.Message] `json:"messages"`
	Calls    relational.Result[relational.Call]    `json:"calls"`
	Images   []ImageArtifact                       `json:"images"`
	Audio    []AudioArtifact                       `json:"audio"`
	Dump     *DumpSummary                          `json:"dump,omitempty"`
}

// Assemble combines the section results into a report.
func Assemble(
	messages relational.Result[relational.Message],
	calls relational.Result[relational.Call],
	images []ImageArtifact,
	audio []AudioArtifact,
) *Report {
	if images == nil {
		images = []ImageArtifact{}
	}
	if audio == nil {
		audio = []AudioArtifact{}
	}
	return &Report{
		Messages: messages,
		Calls:    calls,
		Images:   images,
		Audio:    audio,
	}
}

// ClassifyTree lists the images and audio files below root and extracts the
// capture date of every image. At most workers dates are read in parallel;
// zero means no bound.
func ClassifyTree(ctx context.Context, fs afero.Fs, root string, workers int) ([]ImageArtifact, []AudioArtifact, error) {
	result, err := classify.Walk(fs, root)
	if err != nil {
		return nil, nil, err
	}

	images := make([]ImageArtifact, len(result.Images))
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, file := range result.Images {
		i, file := i, file
		images[i] = ImageArtifact{Path: file.Path, MIME: file.MIME}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			images[i].CreationDate = imagemeta.CaptureDate(fs, filepath.Join(root, filepath.FromSlash(file.Path)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	audio := make([]AudioArtifact, 0, len(result.Audio))
	for _, file := range result.Audio {
		audio = append(audio, AudioArtifact{Path: file.Path})
	}
	return images, audio, nil
}
