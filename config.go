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
	"os"
	"path/filepath"
	"runtime"

	"github.com/imdario/mergo"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/forensicanalysis/mobiletriage/archive"
)

// Config configures an Analyzer.
type Config struct {
	WorkDir       string         `yaml:"work_dir"`
	Workers       int            `yaml:"workers"`
	Limits        archive.Limits `yaml:"limits"`
	KeepWorkspace bool           `yaml:"keep_workspace"`
}

// DefaultConfig returns the configuration used for unset fields.
func DefaultConfig() Config {
	return Config{
		WorkDir: filepath.Join(os.TempDir(), "mobiletriage"),
		Workers: runtime.NumCPU(),
		Limits:  archive.DefaultLimits(),
	}
}

// LoadConfig reads a YAML config file. An empty path yields the defaults.
func LoadConfig(path string) (Config, error) {
	config := Config{}
	if path != "" {
		b, err := os.ReadFile(path) // #nosec
		if err != nil {
			return config, errors.Wrap(err, "could not read config")
		}
		if err := yaml.Unmarshal(b, &config); err != nil {
			return config, errors.Wrapf(err, "could not parse config %s", path)
		}
	}
	if err := mergo.Merge(&config, DefaultConfig()); err != nil {
		return config, errors.Wrap(err, "could not apply config defaults")
	}
	return config, nil
}
