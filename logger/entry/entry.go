/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package entry is the one-record-at-a-time carrier passed from a Logger
// down to its appenders, adapted from the teacher's logger/entry package
// but shaped around spec.md §3's Logger entities instead of logrus.Entry:
// level, file/line, captured stack, and the already-interpolated message,
// rendered by a pattern.Pattern only once it reaches an appender.
package entry

import (
	"time"

	"github.com/sabouaram/cmutil/logger/level"
	"github.com/sabouaram/cmutil/logger/pattern"
)

// Entry is one log record, captured at the call site and handed unrendered
// to every appender that accepts it; each appender renders it against its
// own compiled pattern, so the same Entry can look different at two
// appenders with two patterns.
type Entry struct {
	Time       time.Time
	LoggerName string
	Level      level.Level
	File       string
	Line       int
	Message    string
	Stack      []string
	Thread     string
}

// New captures the current time and wraps the call-site data the Logger
// already resolved (file/line, optional stack) into an Entry.
func New(loggerName string, lvl level.Level, file string, line int, message string, stack []string, thread string) Entry {
	return Entry{
		Time:       time.Now(),
		LoggerName: loggerName,
		Level:      lvl,
		File:       file,
		Line:       line,
		Message:    message,
		Stack:      stack,
		Thread:     thread,
	}
}

// Render formats the entry against p, the appender's compiled pattern.
func (e Entry) Render(p pattern.Pattern) string {
	return pattern.Format(p, pattern.Record{
		Time:       e.Time,
		LoggerName: e.LoggerName,
		Thread:     e.Thread,
		Level:      e.Level.String(),
		File:       e.File,
		Line:       e.Line,
		Message:    e.Message,
		Stack:      e.Stack,
	})
}
