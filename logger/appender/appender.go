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

// Package appender implements the four named log sinks of spec.md §4.6.4
// (console, file, rolling file, socket), each adapted from the teacher's
// corresponding logrus hook (logger/hookstdout, logger/hookstderr,
// logger/hookfile, logger/hooksyslog) but rebuilt around a compiled
// pattern.Pattern instead of a logrus.Formatter, and a shared double-
// buffered async pipeline instead of logrus's synchronous hook dispatch.
package appender

import (
	"github.com/sabouaram/cmutil/logger/entry"
)

// Appender is a named sink a ConfLogger writes rendered records to.
type Appender interface {
	// Name returns the appender's configured name, unique within a
	// configuration.
	Name() string

	// Append renders e against the appender's compiled pattern and either
	// writes it inline (synchronous mode) or buffers it for the async
	// writer (spec.md §4.6.4).
	Append(e entry.Entry) error

	// Flush drains any buffered records to the sink.
	Flush() error

	// SetAsync switches the appender into asynchronous mode with the given
	// buffer size, spawning a background writer goroutine. Calling it
	// twice replaces the previous buffer size.
	SetAsync(bufferSize int) error

	// Close stops the async writer (if any), drains pending buffers, and
	// releases any held resource (open file, listening socket).
	Close() error
}
