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

// Package level is the six-severity Level type the rest of the logger
// package is built on, adapted from the teacher's logger/level package but
// reduced to exactly the six names spec.md §6 exports, in ascending order
// of severity.
package level

import "strings"

// Level is a log severity, ascending from TraceLevel (least severe) to
// FatalLevel (most severe).
type Level uint8

const (
	TraceLevel Level = iota
	DebugLevel
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

// names is indexed by Level and holds the canonical, uppercase name used
// by the %p pattern token and by JSON configuration.
var names = [...]string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR", "FATAL"}

// String returns the canonical uppercase level name, e.g. "INFO".
func (l Level) String() string {
	if int(l) < len(names) {
		return names[l]
	}
	return "UNKNOWN"
}

// Parse resolves a level name case-insensitively. An unrecognized name
// returns (0, false) rather than defaulting silently, so callers (e.g. the
// configuration loader) can decide how to degrade.
func Parse(s string) (Level, bool) {
	u := strings.ToUpper(strings.TrimSpace(s))
	for i, n := range names {
		if n == u {
			return Level(i), true
		}
	}
	return 0, false
}

// All returns every level in ascending severity order.
func All() []Level {
	out := make([]Level, len(names))
	for i := range names {
		out[i] = Level(i)
	}
	return out
}
