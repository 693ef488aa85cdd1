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

package cmd

import (
	"io"

	"github.com/fatih/color"

	"github.com/forensicanalysis/mobiletriage"
	"github.com/forensicanalysis/mobiletriage/relational"
)

func printSummary(w io.Writer, report *mobiletriage.Report) {
	title := color.New(color.Bold)
	ok := color.New(color.FgGreen)
	failed := color.New(color.FgRed)

	section := func(name string, count int, failure *relational.Failure) {
		title.Fprintf(w, "%-10s", name) // nolint:errcheck
		if failure != nil {
			failed.Fprintf(w, "%s (%s)\n", failure.Message, failure.Kind) // nolint:errcheck
			return
		}
		ok.Fprintf(w, "%d\n", count) // nolint:errcheck
	}

	section("messages", len(report.Messages.Records), report.Messages.Failure)
	section("calls", len(report.Calls.Records), report.Calls.Failure)
	section("images", len(report.Images), nil)
	section("audio", len(report.Audio), nil)

	if report.Dump == nil {
		return
	}
	title.Fprintf(w, "%-10s", "dump") // nolint:errcheck
	if report.Dump.Error != "" {
		failed.Fprintln(w, report.Dump.Error) // nolint:errcheck
	} else {
		ok.Fprintln(w, report.Dump.Source) // nolint:errcheck
	}
	if report.Dump.Stats != nil {
		for _, skipped := range report.Dump.Stats.Skipped {
			color.New(color.FgYellow).Fprintf(w, "  skipped %s\n", skipped) // nolint:errcheck
		}
	}
	for _, found := range []string{report.Dump.SMSDatabase, report.Dump.CallsDatabase} {
		if found != "" {
			color.New(color.FgCyan).Fprintf(w, "  found %s\n", found) // nolint:errcheck
		}
	}
}
