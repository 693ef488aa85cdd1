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

// Package mobiletriage implements the mobiletriage command line tool with
// subcommands to triage mobile device backups.
//     analyze   Analyze sms and call databases and a device dump
//     unpack    Extract a zip, tar, tar.gz or sqlite archive
//     ls        List the entries of a sqlite archive
//     classify  List images and audio files of a directory
//     validate  Validate a report
//
// Usage
//
// Analyze databases and a dump
//     mobiletriage analyze --sms mmssms.db --calls calllog.db --dump dump.zip > report.json
// Search the dump for databases and print a summary
//     mobiletriage analyze --dump dump.tar.gz --summary
// Print only the capture dates
//     mobiletriage analyze --dump dump.zip --path 'images.#.creation_date'
// Validate a report
//     mobiletriage validate report.json
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/forensicanalysis/mobiletriage/cmd"
)

func main() {
	var verbose bool
	rootCmd := &cobra.Command{
		Use:   "mobiletriage",
		Short: "Triage mobile device backups",
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return cmd.SetupLogging(verbose)
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	rootCmd.AddCommand(cmd.Analyze(), cmd.Unpack(), cmd.Ls(), cmd.Classify(), cmd.Validate())

	err := rootCmd.ExecuteContext(context.Background())
	_ = zap.L().Sync()
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}
