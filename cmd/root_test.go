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
	"archive/zip"
	"bytes"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"crawshaw.io/sqlite"
	"crawshaw.io/sqlite/sqlitex"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func stdout(f func()) []byte {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	outC := make(chan []byte)
	go func() {
		var buf bytes.Buffer
		io.Copy(&buf, r) // nolint
		outC <- buf.Bytes()
	}()

	f()

	w.Close()
	os.Stdout = old
	return <-outC
}

func pngBytes(t *testing.T) []byte {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}

func setup(t *testing.T) (smsDB, callsDB, dump string) {
	dir := t.TempDir()

	smsDB = filepath.Join(dir, "mmssms.db")
	callsDB = filepath.Join(dir, "calllog.db")
	for url, script := range map[string]string{
		smsDB: `CREATE TABLE sms (address TEXT, date INTEGER, body TEXT);
			INSERT INTO sms VALUES ('+4915112345', 1600000000000, 'Hello');
			INSERT INTO sms VALUES ('+4915112345', 1600000060000, 'Bye');`,
		callsDB: `CREATE TABLE calls (number TEXT, date INTEGER, duration INTEGER, type INTEGER);
			INSERT INTO calls VALUES ('110', 1600000000000, 12, 2);`,
	} {
		conn, err := sqlite.OpenConn(url, sqlite.SQLITE_OPEN_READWRITE|sqlite.SQLITE_OPEN_CREATE)
		require.NoError(t, err)
		require.NoError(t, sqlitex.ExecScript(conn, script))
		require.NoError(t, conn.Close())
	}

	dump = filepath.Join(dir, "dump.zip")
	f, err := os.Create(dump)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, content := range map[string][]byte{
		"sdcard/DCIM/a.png":      pngBytes(t),
		"sdcard/Music/b.mp3":     []byte("ID3"),
		"sdcard/Documents/c.txt": []byte("text"),
	} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return smsDB, callsDB, dump
}

func TestAnalyze(t *testing.T) {
	color.NoColor = true
	smsDB, callsDB, dump := setup(t)
	workDir := t.TempDir()

	tests := []struct {
		name    string
		args    []string
		check   func(t *testing.T, output string)
		wantErr bool
	}{
		{"report", []string{"--sms", smsDB, "--calls", callsDB, "--dump", dump, "--workdir", workDir}, func(t *testing.T, output string) {
			assert.Len(t, gjson.Get(output, "messages.records").Array(), 2)
			assert.Equal(t, "110", gjson.Get(output, "calls.records.0.number").String())
			assert.Equal(t, "sdcard/DCIM/a.png", gjson.Get(output, "images.0.path").String())
			assert.Equal(t, "sdcard/Music/b.mp3", gjson.Get(output, "audio.0.path").String())
			assert.Equal(t, "zip", gjson.Get(output, "dump.stats.format").String())
		}, false},
		{"path", []string{"--sms", smsDB, "--path", "messages.records.#.body"}, func(t *testing.T, output string) {
			assert.JSONEq(t, `["Hello", "Bye"]`, output)
		}, false},
		{"missing calls", []string{"--calls", filepath.Join(workDir, "missing.db"), "--path", "calls.failure.kind"}, func(t *testing.T, output string) {
			assert.Equal(t, "\"not_found\"\n", output)
		}, false},
		{"summary", []string{"--sms", smsDB, "--dump", dump, "--workdir", workDir, "--summary"}, func(t *testing.T, output string) {
			assert.Contains(t, output, "messages  2")
			assert.Contains(t, output, "calls     0")
			assert.Contains(t, output, "images    1")
			assert.Contains(t, output, "dump      dump.zip")
		}, false},
		{"no inputs", []string{}, nil, true},
		{"bad path", []string{"--sms", smsDB, "--path", "nothing.here"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := Analyze()
			require.NoError(t, cmd.Flags().Parse(tt.args))

			var err error
			output := stdout(func() {
				err = cmd.RunE(cmd, cmd.Flags().Args())
			})
			if (err != nil) != tt.wantErr {
				t.Errorf("Analyze() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.check != nil {
				tt.check(t, string(output))
			}
		})
	}

	entries, err := os.ReadDir(workDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAnalyzeKeepWorkspace(t *testing.T) {
	_, _, dump := setup(t)
	workDir := t.TempDir()

	cmd := Analyze()
	require.NoError(t, cmd.Flags().Parse([]string{"--dump", dump, "--workdir", workDir, "--keep-workspace", "--path", "dump.workspace"}))
	output := stdout(func() {
		require.NoError(t, cmd.RunE(cmd, nil))
	})

	id := strings.Trim(strings.TrimSpace(string(output)), "\"")
	assert.FileExists(t, filepath.Join(workDir, "analysis-"+id, "sdcard", "DCIM", "a.png"))
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	valid := filepath.Join(dir, "valid.json")
	require.NoError(t, os.WriteFile(valid, []byte(`{"messages": {"records": []}, "calls": {"records": []}, "images": [], "audio": []}`), 0600))
	invalid := filepath.Join(dir, "invalid.json")
	require.NoError(t, os.WriteFile(invalid, []byte(`{"messages": {"records": []}}`), 0600))

	tests := []struct {
		name      string
		args      []string
		wantFlaws bool
		wantErr   bool
	}{
		{"valid", []string{valid}, false, false},
		{"invalid", []string{invalid}, true, true},
		{"invalid no fail", []string{"--no-fail", invalid}, true, false},
		{"missing", []string{filepath.Join(dir, "missing.json")}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := Validate()
			require.NoError(t, cmd.Flags().Parse(tt.args))

			var err error
			output := stdout(func() {
				err = cmd.RunE(cmd, cmd.Flags().Args())
			})
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			assert.Equal(t, tt.wantFlaws, len(output) > 0, string(output))
		})
	}
}
