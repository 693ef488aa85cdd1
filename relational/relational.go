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

// Package relational reads communication records from SQLite databases
// recovered from a mobile device backup. Every extraction yields a Result
// that either holds the records or a Failure; callers never get a Go error.
package relational

import (
	"fmt"
	"os"

	"crawshaw.io/sqlite"
	"go.uber.org/zap"
)

const (
	messagesQuery = "SELECT address, date, body FROM sms"
	callsQuery    = "SELECT number, date, duration, type FROM calls"
)

// ErrorKind classifies a Failure.
type ErrorKind string

const (
	// KindNotFound means the database file does not exist.
	KindNotFound ErrorKind = "not_found"
	// KindRead means the database could not be opened or queried.
	KindRead ErrorKind = "read"
)

// Failure describes why a section could not be extracted. Message is
// human readable and carries the database engine error text verbatim.
type Failure struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (f *Failure) Error() string {
	return f.Message
}

// Result is either a list of records or a Failure, never both.
type Result[T any] struct {
	Records []T      `json:"records"`
	Failure *Failure `json:"failure,omitempty"`
}

// OK reports whether the extraction succeeded. An empty record list is a
// success.
func (r Result[T]) OK() bool {
	return r.Failure == nil
}

// Success wraps records into a successful Result.
func Success[T any](records []T) Result[T] {
	if records == nil {
		records = []T{}
	}
	return Result[T]{Records: records}
}

// Fail creates a failed Result.
func Fail[T any](kind ErrorKind, format string, a ...interface{}) Result[T] {
	return Result[T]{Failure: &Failure{Kind: kind, Message: fmt.Sprintf(format, a...)}}
}

// Message is a single row of the sms table.
type Message struct {
	Address string `json:"address"`
	Date    int64  `json:"date"`
	Body    string `json:"body"`
}

// Call is a single row of the calls table.
type Call struct {
	Number   string `json:"number"`
	Date     int64  `json:"date"`
	Duration int64  `json:"duration"`
	Type     int64  `json:"type"`
}

// Messages extracts all rows of the sms table of the database at dbPath.
func Messages(dbPath string) Result[Message] {
	if !exists(dbPath) {
		return Fail[Message](KindNotFound, "SMS database not found")
	}

	var messages []Message
	err := query(dbPath, messagesQuery, func(stmt *sqlite.Stmt) {
		messages = append(messages, Message{
			Address: stmt.ColumnText(0),
			Date:    stmt.ColumnInt64(1),
			Body:    stmt.ColumnText(2),
		})
	})
	if err != nil {
		zap.S().Warnw("could not read sms database", "path", dbPath, "error", err)
		return Fail[Message](KindRead, "Error reading SMS database: %s", err)
	}
	return Success(messages)
}

// Calls extracts all rows of the calls table of the database at dbPath.
func Calls(dbPath string) Result[Call] {
	if !exists(dbPath) {
		return Fail[Call](KindNotFound, "Call log database not found")
	}

	var calls []Call
	err := query(dbPath, callsQuery, func(stmt *sqlite.Stmt) {
		calls = append(calls, Call{
			Number:   stmt.ColumnText(0),
			Date:     stmt.ColumnInt64(1),
			Duration: stmt.ColumnInt64(2),
			Type:     stmt.ColumnInt64(3),
		})
	})
	if err != nil {
		zap.S().Warnw("could not read call log database", "path", dbPath, "error", err)
		return Fail[Call](KindRead, "Error reading Call Logs database: %s", err)
	}
	return Success(calls)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// query opens dbPath read-only, runs q and calls fn once per row. The
// connection is closed on every return path.
func query(dbPath, q string, fn func(stmt *sqlite.Stmt)) (err error) {
	conn, err := sqlite.OpenConn(dbPath, sqlite.SQLITE_OPEN_READONLY|sqlite.SQLITE_OPEN_NOMUTEX)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	stmt, err := conn.Prepare(q)
	if err != nil {
		return err
	}

	for {
		if hasRow, err := stmt.Step(); err != nil {
			return err
		} else if !hasRow {
			break
		}
		fn(stmt)
	}
	return stmt.Reset()
}
