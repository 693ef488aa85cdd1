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
	"archive/zip"
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"crawshaw.io/sqlite"
	"crawshaw.io/sqlite/sqlitex"
	"github.com/stretchr/testify/require"
)

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	img.Set(3, 3, color.RGBA{B: 255, A: 255})
	return img
}

func pngBytes(t *testing.T) []byte {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage()))
	return buf.Bytes()
}

// exifJPEG returns a JPEG carrying only the EXIF DateTimeOriginal tag.
func exifJPEG(t *testing.T, dateTimeOriginal string) []byte {
	require.Len(t, dateTimeOriginal, 19)

	var tiff bytes.Buffer
	w := func(v interface{}) {
		require.NoError(t, binary.Write(&tiff, binary.LittleEndian, v))
	}
	tiff.WriteString("II")
	w(uint16(42))
	w(uint32(8))
	w(uint16(1))
	w([]uint16{0x8769, 4})
	w([]uint32{1, 26})
	w(uint32(0))
	w(uint16(1))
	w([]uint16{0x9003, 2})
	w([]uint32{20, 44})
	w(uint32(0))
	tiff.WriteString(dateTimeOriginal)
	tiff.WriteByte(0)
	payload := append([]byte("Exif\x00\x00"), tiff.Bytes()...)

	var img bytes.Buffer
	require.NoError(t, jpeg.Encode(&img, testImage(), nil))

	var out bytes.Buffer
	out.Write(img.Bytes()[:2])
	out.Write([]byte{0xFF, 0xE1})
	require.NoError(t, binary.Write(&out, binary.BigEndian, uint16(len(payload)+2)))
	out.Write(payload)
	out.Write(img.Bytes()[2:])
	return out.Bytes()
}

// createDB writes a SQLite database at dir/name and returns its path.
func createDB(t *testing.T, dir, name, script string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	url := filepath.Join(dir, name)
	conn, err := sqlite.OpenConn(url, sqlite.SQLITE_OPEN_READWRITE|sqlite.SQLITE_OPEN_CREATE)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, sqlitex.ExecScript(conn, script))
	return url
}

const smsScript = `CREATE TABLE sms (_id INTEGER PRIMARY KEY, address TEXT, date INTEGER, body TEXT);
INSERT INTO sms (address, date, body) VALUES ('+4915112345', 1600000000000, 'Hello');
INSERT INTO sms (address, date, body) VALUES ('+4915112345', 1600000060000, 'Are you there?');
INSERT INTO sms (address, date, body) VALUES ('1234', 1600000120000, NULL);`

const callsScript = `CREATE TABLE calls (_id INTEGER PRIMARY KEY, number TEXT, date INTEGER, duration INTEGER, type INTEGER);
INSERT INTO calls (number, date, duration, type) VALUES ('+4915112345', 1600000000000, 42, 1);
INSERT INTO calls (number, date, duration, type) VALUES ('110', 1600000300000, 0, 3);`

// createDump writes a zip archive with the given files.
func createDump(t *testing.T, files map[string][]byte) string {
	t.Helper()
	url := filepath.Join(t.TempDir(), "dump.zip")
	f, err := os.Create(url)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return url
}

func readFile(t *testing.T, name string) []byte {
	b, err := os.ReadFile(name)
	require.NoError(t, err)
	return b
}
