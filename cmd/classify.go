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
	"encoding/json"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/forensicanalysis/mobiletriage"
)

// Classify is the mobiletriage classify commandline subcommand
func Classify() *cobra.Command {
	var workers int
	classifyCmd := &cobra.Command{
		Use:   "classify <dir>",
		Short: "List images with their capture date and audio files of a directory",
		Args:  requireOneFile,
		RunE: func(cmd *cobra.Command, args []string) error {
			images, audio, err := mobiletriage.ClassifyTree(commandContext(cmd), afero.NewOsFs(), args[0], workers)
			if err != nil {
				return err
			}
			b, err := json.MarshalIndent(map[string]interface{}{
				"images": images,
				"audio":  audio,
			}, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(b))
			return nil
		},
	}
	classifyCmd.Flags().IntVar(&workers, "workers", mobiletriage.DefaultConfig().Workers, "parallel image reads")
	return classifyCmd
}
