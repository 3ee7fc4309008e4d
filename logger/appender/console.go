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

package appender

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/sabouaram/cmutil/logger/level"
	"github.com/sabouaram/cmutil/logger/pattern"
)

// levelColor returns the fatih/color SprintFunc for a level name, adapted
// from the teacher's logger/hookstdout coloring of logrus levels onto the
// six names this package's level package exports.
var levelColor = map[string]func(a ...interface{}) string{
	level.TraceLevel.String(): color.New(color.FgWhite).SprintFunc(),
	level.DebugLevel.String(): color.New(color.FgCyan).SprintFunc(),
	level.InfoLevel.String():  color.New(color.FgGreen).SprintFunc(),
	level.WarnLevel.String():  color.New(color.FgYellow).SprintFunc(),
	level.ErrorLevel.String(): color.New(color.FgRed).SprintFunc(),
	level.FatalLevel.String(): color.New(color.FgRed, color.Bold).SprintFunc(),
}

// Console is the appender.Appender writing to os.Stdout or os.Stderr,
// adapted from the teacher's logger/hookstdout and logger/hookstderr
// hooks, generalized to pick either stream at construction instead of
// being two separate hook types.
type Console struct {
	base
	out      io.Writer
	colorize bool
}

// NewConsole builds a Console appender. useStderr selects os.Stderr in
// place of os.Stdout, per the JSON configuration's "useStderr" key
// (spec.md §6).
func NewConsole(name string, p pattern.Pattern, useStderr bool, colorize bool) *Console {
	c := &Console{out: os.Stdout, colorize: colorize}
	if useStderr {
		c.out = os.Stderr
	}
	c.base = newBase(name, p, c.write)
	return c
}

// write is the sink a Console's base flushes rendered records through; it
// colorizes the level name when enabled and flushes the stream after every
// write, matching the "flushes after each sync write" rule of spec.md
// §4.6.4 item 1 (os.Stdout/os.Stderr have no explicit Flush, so the write
// itself is the flush).
func (c *Console) write(text string) error {
	if c.colorize {
		text = colorizeLevel(text)
	}
	_, err := fmt.Fprint(c.out, text)
	return err
}

// colorizeLevel wraps the first recognized level name it finds in the
// rendered line with the matching ANSI color, a best-effort post-process
// since the pattern itself has already rendered plain text by this point.
func colorizeLevel(text string) string {
	for name, fn := range levelColor {
		if strings.Contains(text, name) {
			return strings.Replace(text, name, fn(name), 1)
		}
	}
	return text
}
