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

package logger

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/sabouaram/cmutil/conc/thread"
	"github.com/sabouaram/cmutil/logger/entry"
	"github.com/sabouaram/cmutil/logger/level"
)

// Logger is the object user code holds, per spec.md §3: a full dotted
// name, a precomputed minimum effective level, and the ordered
// (longest-prefix-first) ConfLogger entries that apply to it.
type Logger struct {
	name  string
	path  []string
	min   level.Level
	confs []*ConfLogger // longest name first
}

func newLogger(name string, confs []*ConfLogger) *Logger {
	applicable := make([]*ConfLogger, 0, len(confs))
	min := level.FatalLevel
	for _, c := range confs {
		if !isPrefix(c.name, name) {
			continue
		}
		applicable = append(applicable, c)
		if c.level < min {
			min = c.level
		}
	}

	// Longest-prefix-first, ties broken by configuration order (stable
	// sort preserves the original, already-configuration-ordered slice
	// for equal-length names), per spec.md §9's resolved open question.
	sortByNameLengthDesc(applicable)

	return &Logger{
		name:  name,
		path:  strings.Split(name, "."),
		min:   min,
		confs: applicable,
	}
}

func isPrefix(confName, loggerName string) bool {
	if confName == "" {
		return true
	}
	if confName == loggerName {
		return true
	}
	return strings.HasPrefix(loggerName, confName+".")
}

func sortByNameLengthDesc(confs []*ConfLogger) {
	// Stable insertion sort: small N (appenders per logger hierarchy is
	// always small), and stability is the point — it is what preserves
	// "ties broken by configuration order".
	for i := 1; i < len(confs); i++ {
		j := i
		for j > 0 && len(confs[j-1].name) < len(confs[j].name) {
			confs[j-1], confs[j] = confs[j], confs[j-1]
			j--
		}
	}
}

// Name returns the logger's full dotted name.
func (l *Logger) Name() string { return l.name }

// IsEnabled reports whether a record at lvl would produce any output.
func (l *Logger) IsEnabled(lvl level.Level) bool {
	return lvl >= l.min
}

// LogEx renders the message once, optionally captures the call stack, and
// dispatches to every applicable ConfLogger in longest-prefix-first order,
// stopping early at the first non-additive ConfLogger that produced
// output, exactly per spec.md §4.6.3.
func (l *Logger) LogEx(lvl level.Level, file string, line int, captureStack bool, format string, args ...interface{}) {
	if lvl < l.min {
		return
	}

	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}

	var stack []string
	if captureStack {
		stack = captureFrames(3)
	}

	e := entry.New(l.name, lvl, file, line, msg, stack, currentThreadName())

	for _, c := range l.confs {
		if lvl < c.Level() {
			continue
		}
		produced := c.Log(e)
		if produced && !c.Additive() {
			break
		}
	}
}

func (l *Logger) Trace(file string, line int, format string, args ...interface{}) {
	l.LogEx(level.TraceLevel, file, line, false, format, args...)
}

func (l *Logger) Debug(file string, line int, format string, args ...interface{}) {
	l.LogEx(level.DebugLevel, file, line, false, format, args...)
}

func (l *Logger) Info(file string, line int, format string, args ...interface{}) {
	l.LogEx(level.InfoLevel, file, line, false, format, args...)
}

func (l *Logger) Warn(file string, line int, format string, args ...interface{}) {
	l.LogEx(level.WarnLevel, file, line, true, format, args...)
}

func (l *Logger) Error(file string, line int, format string, args ...interface{}) {
	l.LogEx(level.ErrorLevel, file, line, true, format, args...)
}

func (l *Logger) Fatal(file string, line int, format string, args ...interface{}) {
	l.LogEx(level.FatalLevel, file, line, true, format, args...)
}

// captureFrames walks the call stack, skipping runtime.Callers, itself and
// LogEx (skip 3), so a call through Warn/Error/Fatal keeps that method as
// the first frame; each entry is rendered as "function (file:line)", newest
// first.
func captureFrames(skip int) []string {
	pc := make([]uintptr, 32)
	n := runtime.Callers(skip, pc)
	if n == 0 {
		return nil
	}

	frames := runtime.CallersFrames(pc[:n])
	out := make([]string, 0, n)
	for {
		f, more := frames.Next()
		out = append(out, f.Function+" ("+f.File+":"+strconv.Itoa(f.Line)+")")
		if !more {
			break
		}
	}
	return out
}

// currentThreadName resolves the calling goroutine's name by looking it up
// in conc/thread's registry ("main" for the goroutine that ran package
// init), falling back to the literal "unknown" for any other goroutine that
// was never started through conc/thread.New/Start, exactly
// per spec.md §4.6.2 ("name of the calling thread looked up in the
// registry; if missing, literal \"unknown\"").
func currentThreadName() string {
	if name, ok := thread.SelfName(); ok {
		return name
	}
	return "unknown"
}
