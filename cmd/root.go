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
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/forensicanalysis/mobiletriage"
)

// SetupLogging installs the global logger. Only warnings are printed
// unless verbose is set.
func SetupLogging(verbose bool) error {
	config := zap.NewProductionConfig()
	config.Encoding = "console"
	config.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	if verbose {
		config = zap.NewDevelopmentConfig()
	}
	logger, err := config.Build()
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(logger)
	return nil
}

// Analyze is the mobiletriage analyze commandline subcommand
func Analyze() *cobra.Command {
	var req mobiletriage.Request
	var configPath, workDir, jsonPath string
	var keepWorkspace, summary bool
	analyzeCommand := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze sms and call databases and a device dump",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := mobiletriage.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if workDir != "" {
				config.WorkDir = workDir
			}
			if keepWorkspace {
				config.KeepWorkspace = true
			}

			report, err := mobiletriage.New(config).Analyze(commandContext(cmd), req)
			if err != nil {
				return err
			}

			if summary {
				printSummary(os.Stdout, report)
				return nil
			}

			b, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			if jsonPath != "" {
				result := gjson.GetBytes(b, jsonPath)
				if !result.Exists() {
					return errors.Errorf("nothing found at %s", jsonPath)
				}
				fmt.Println(result.Raw)
				return nil
			}
			fmt.Println(string(b))
			return nil
		},
	}
	analyzeCommand.Flags().StringVar(&req.SMSPath, "sms", "", "sms database (mmssms.db)")
	analyzeCommand.Flags().StringVar(&req.CallsPath, "calls", "", "call log database (calllog.db)")
	analyzeCommand.Flags().StringVar(&req.DumpPath, "dump", "", "device dump archive (zip, tar, tar.gz, sqlar)")
	analyzeCommand.Flags().StringVar(&configPath, "config", "", "yaml config file")
	analyzeCommand.Flags().StringVar(&workDir, "workdir", "", "directory for extracted dumps")
	analyzeCommand.Flags().BoolVar(&keepWorkspace, "keep-workspace", false, "keep the extracted dump")
	analyzeCommand.Flags().StringVar(&jsonPath, "path", "", "print only this gjson path of the report")
	analyzeCommand.Flags().BoolVar(&summary, "summary", false, "print a short summary instead of json")
	return analyzeCommand
}

// Validate is the mobiletriage validate commandline subcommand
func Validate() *cobra.Command {
	var noFail bool
	validateCommand := &cobra.Command{
		Use:   "validate <report.json>",
		Short: "Validate a report",
		Args:  requireOneFile,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			flaws, err := mobiletriage.ValidateReport(b)
			if err != nil {
				return err
			}
			if len(flaws) > 0 {
				for i, v := range flaws {
					flaws[i] = strings.Replace(v, "\"", "\\\"", -1)
				}
				fmt.Printf("[\"%s\"]\n", strings.Join(flaws, "\", \""))
				if noFail {
					return nil
				}
				return errors.Errorf("%d flaws in %s", len(flaws), args[0])
			}
			return nil
		},
	}
	validateCommand.Flags().BoolVar(&noFail, "no-fail", false, "return exit code 0")
	return validateCommand
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func requireOneFile(_ *cobra.Command, args []string) error {
	if len(args) != 1 {
		return errors.New("requires exactly one file")
	}
	return requireExisting(args)
}

func requireExisting(args []string) error {
	for _, arg := range args {
		if _, err := os.Stat(arg); os.IsNotExist(err) {
			return errors.Wrap(os.ErrNotExist, arg)
		}
	}
	return nil
}
