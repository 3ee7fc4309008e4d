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

package pattern

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Record is everything Format needs to render one log line: the data model
// of spec.md §3's Logger entities, flattened for formatting rather than
// carrying the Logger/ConfLogger objects themselves.
type Record struct {
	Time       time.Time
	LoggerName string
	Thread     string
	Level      string // canonical uppercase name, e.g. "INFO"
	File       string
	Line       int
	Message    string
	Stack      []string // one entry per frame, innermost (newest) first
}

// Format renders rec against the compiled pattern, token by token, per
// spec.md §4.6.2.
func Format(p Pattern, rec Record) string {
	var out strings.Builder
	for _, tok := range p.Tokens {
		out.WriteString(formatToken(tok, rec))
	}
	return out.String()
}

func formatToken(tok Token, rec Record) string {
	switch tok.Kind {
	case KindLiteral:
		return tok.Literal
	case KindPercent:
		return "%"
	case KindDate:
		return pad(tok, strftime(tok.DateLayout, rec.Time))
	case KindMillis:
		return pad(tok, fmt.Sprintf("%03d", rec.Time.Nanosecond()/1e6))
	case KindLogger:
		return pad(tok, formatLoggerName(tok, rec.LoggerName))
	case KindThread:
		return pad(tok, rec.Thread)
	case KindProcess:
		return pad(tok, strconv.Itoa(os.Getpid()))
	case KindFile:
		return pad(tok, filepath.Base(rec.File))
	case KindLine:
		s := strconv.Itoa(rec.Line)
		if tok.ZeroPad && tok.Width > len(s) {
			s = strings.Repeat("0", tok.Width-len(s)) + s
			return s
		}
		return pad(tok, s)
	case KindLevel:
		return pad(tok, formatLevel(tok, rec.Level))
	case KindMessage:
		return rec.Message
	case KindEnv:
		return pad(tok, os.Getenv(tok.EnvName))
	case KindStack:
		return formatStack(tok, rec.Stack)
	case KindLineSep:
		return "\n"
	}
	return ""
}

// pad applies the shared padding/truncation rule of spec.md §4.6.1: pad
// with spaces on the left (right-justify) or the right (left-justify) to
// reach Width; if MaxWidth is set and the string is longer, truncate,
// keeping the right side when right-padding and the left side when
// left-padding.
func pad(tok Token, s string) string {
	if tok.HasMaxSpec && len(s) > tok.MaxWidth {
		if tok.LeftPad {
			s = s[:tok.MaxWidth]
		} else {
			s = s[len(s)-tok.MaxWidth:]
		}
	}
	if tok.Width > len(s) {
		fill := strings.Repeat(" ", tok.Width-len(s))
		if tok.LeftPad {
			return s + fill
		}
		return fill + s
	}
	return s
}

func formatLoggerName(tok Token, name string) string {
	if tok.LoggerFull || len(tok.LoggerPrecision) == 0 {
		return name
	}
	parts := strings.Split(name, ".")
	if len(tok.LoggerPrecision) == 1 {
		n := tok.LoggerPrecision[0]
		if n <= 0 || n >= len(parts) {
			return name
		}
		return strings.Join(parts[len(parts)-n:], ".")
	}

	// Two or more entries: per-component truncation width, keeping the
	// last component whole, per spec.md §4.6.1.
	out := make([]string, len(parts))
	copy(out, parts)
	for i := 0; i < len(out)-1 && i < len(tok.LoggerPrecision); i++ {
		w := tok.LoggerPrecision[i]
		if w > 0 && len(out[i]) > w {
			out[i] = out[i][:w]
		}
	}
	return strings.Join(out, ".")
}

func formatLevel(tok Token, name string) string {
	if tok.LevelOverride != nil {
		if v, ok := tok.LevelOverride[name]; ok {
			name = v
		}
		if v, ok := tok.LevelOverride["lowerCase"]; ok && v == "true" {
			name = strings.ToLower(name)
		}
		if v, ok := tok.LevelOverride["length"]; ok {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n < len(name) {
				name = name[:n]
			}
		}
	}
	return name
}

func formatStack(tok Token, frames []string) string {
	n := len(frames)
	if tok.StackFrames > 0 && tok.StackFrames < n {
		n = tok.StackFrames
	}
	if n == 0 {
		return ""
	}
	var b strings.Builder
	for _, f := range frames[:n] {
		b.WriteString("\n\t")
		b.WriteString(f)
	}
	return b.String()
}

// Strftime exports the strftime-style formatter for callers outside this
// package that need it directly, such as the rolling file appender
// building its roll-target name from a configured file pattern.
func Strftime(layout string, t time.Time) string {
	return strftime(layout, t)
}

// strftime renders t against a strftime-style layout. The Go standard
// library only exposes its reference-time layout (time.Format), not
// strftime verbs, and no library in the retrieved corpus implements a
// strftime formatter, so this is hand-written against the standard
// library directly; see DESIGN.md.
//
// %q/%Q (three-digit milliseconds) are handled inline rather than split
// into a separate segment as the spec's reference implementation does,
// since Go's single-pass rune scan makes the split unnecessary for
// correctness; behavior is identical.
func strftime(layout string, t time.Time) string {
	var b strings.Builder
	r := []rune(layout)
	for i := 0; i < len(r); i++ {
		if r[i] != '%' || i+1 >= len(r) {
			b.WriteRune(r[i])
			continue
		}
		i++
		switch r[i] {
		case 'Y':
			fmt.Fprintf(&b, "%04d", t.Year())
		case 'y':
			fmt.Fprintf(&b, "%02d", t.Year()%100)
		case 'm':
			fmt.Fprintf(&b, "%02d", int(t.Month()))
		case 'd':
			fmt.Fprintf(&b, "%02d", t.Day())
		case 'H':
			fmt.Fprintf(&b, "%02d", t.Hour())
		case 'M':
			fmt.Fprintf(&b, "%02d", t.Minute())
		case 'S':
			fmt.Fprintf(&b, "%02d", t.Second())
		case 'q', 'Q':
			fmt.Fprintf(&b, "%03d", t.Nanosecond()/1e6)
		case 'z':
			b.WriteString(t.Format("-0700"))
		case 'b':
			b.WriteString(t.Month().String()[:3])
		case 'B':
			b.WriteString(t.Month().String())
		case 'a':
			b.WriteString(t.Weekday().String()[:3])
		case 'A':
			b.WriteString(t.Weekday().String())
		case 's':
			fmt.Fprintf(&b, "%d", t.Unix())
		case '%':
			b.WriteByte('%')
		default:
			b.WriteByte('%')
			b.WriteRune(r[i])
		}
	}
	return b.String()
}
