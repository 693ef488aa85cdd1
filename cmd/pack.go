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
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/forensicanalysis/mobiletriage/archive"
	"github.com/forensicanalysis/mobiletriage/sqlar"
)

// Unpack is the mobiletriage unpack commandline subcommand
func Unpack() *cobra.Command {
	limits := archive.DefaultLimits()
	unpackCmd := &cobra.Command{
		Use:   "unpack <archive> <dest>",
		Short: "Extract a zip, tar, tar.gz or sqlite archive",
		Args:  cobra.ExactArgs(2), //nolint:gomnd
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireExisting(args[:1]); err != nil {
				return err
			}
			stats, err := archive.Unpack(args[0], afero.NewOsFs(), args[1], limits)
			for _, skipped := range stats.Skipped {
				fmt.Printf("skipped '%s'\n", skipped)
			}
			if err != nil {
				return err
			}
			if stats.Format == "" {
				fmt.Printf("'%s' is not a supported archive\n", args[0])
				return nil
			}
			fmt.Printf("unpacked %d entries (%d bytes) from '%s' to '%s'\n", stats.Entries, stats.Bytes, args[0], args[1])
			return nil
		},
	}
	unpackCmd.Flags().Int64Var(&limits.MaxTotalBytes, "max-bytes", limits.MaxTotalBytes, "maximal number of bytes to extract, 0 for no limit")
	unpackCmd.Flags().IntVar(&limits.MaxEntries, "max-entries", limits.MaxEntries, "maximal number of archive entries, 0 for no limit")
	unpackCmd.Flags().IntVar(&limits.MaxDepth, "max-depth", limits.MaxDepth, "maximal directory depth, 0 for no limit")
	return unpackCmd
}

// Ls is the mobiletriage ls commandline subcommand
func Ls() *cobra.Command {
	return &cobra.Command{
		Use:   "ls <archive.sqlar>",
		Short: "List the entries of a sqlite archive",
		Args:  requireOneFile,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := sqlar.Open(args[0])
			if err != nil {
				return err
			}
			defer a.Close()

			return a.Walk(func(entry *sqlar.Entry) error {
				fmt.Printf("%s %10d %s %s\n", entry.Mode, entry.Size, entry.ModTime.UTC().Format("2006-01-02 15:04:05"), entry.Name)
				return nil
			})
		},
	}
}
