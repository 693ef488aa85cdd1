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

// Package mobiletriage triages mobile device backups. It reads the SMS and
// call log databases of a device and unpacks a file system dump to list the
// pictures and audio recordings it contains.
//
// Analysis
//
// An analysis request names up to three inputs:
//     - an SMS database (mmssms.db) with an sms table
//     - a call log database (calllog.db or contacts2.db) with a calls table
//     - a dump archive (zip, tar, tar.gz or sqlar)
// The dump is unpacked into a private workspace below the configured work
// directory, so concurrent requests never share files. Images are detected
// by content and annotated with their EXIF capture date, audio files are
// detected by extension. If no database is given, the unpacked dump is
// searched for one.
//
// Report
//
// Each section of the report is independent: a missing or broken database
// turns into a failure value of its section and does not stop the others.
//     {
//       "messages": {"records": [{"address": "...", "date": 1600000000000, "body": "..."}]},
//       "calls": {"records": null, "failure": {"kind": "not_found", "message": "Call log database not found"}},
//       "images": [{"path": "sdcard/DCIM/a.jpg", "mime": "image/jpeg", "creation_date": "2021:06:15 13:45:02"}],
//       "audio": [{"path": "sdcard/Music/a.mp3"}],
//       "dump": {"source": "dump.zip", "workspace": "...", "stats": {...}}
//     }
package mobiletriage
