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

// Package pattern compiles a %-escape log pattern string into an ordered
// token list, per spec.md §4.6.1, and formats a record against a compiled
// pattern, per spec.md §4.6.2. It replaces the teacher's logrus-formatter
// model (one Formatter per appender) with a tagged-union token list, the
// re-architecture spec.md §9 calls for ("dynamic dispatch via function-
// pointer tables ... the compiled pattern token table ... maps to a tagged
// union whose formatter is a match over variants").
package pattern

import (
	"fmt"
	"strconv"
	"strings"

	liberr "github.com/sabouaram/cmutil/cerrors"
)

const (
	ErrorUnterminatedEscape liberr.CodeError = iota + liberr.MinPkgLogger
	ErrorUnknownToken
	ErrorBadExtension
)

func init() {
	liberr.RegisterIdFctMessage(ErrorUnterminatedEscape, getMessage)
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case liberr.UnknownError:
		return ""
	case ErrorUnterminatedEscape:
		return "pattern ends with an unterminated %-escape"
	case ErrorUnknownToken:
		return "pattern references an unknown token name"
	case ErrorBadExtension:
		return "pattern token has a malformed {extension}"
	}
	return ""
}

// DefaultPattern is the pattern used when no configuration names one,
// exactly as spec.md §6 specifies.
const DefaultPattern = `%d %P-[%-10.10t] (%-15.15F:%04L) [%-5p] %c - %m%ex%n`

// Kind tags the variant a Token carries.
type Kind int

const (
	KindLiteral Kind = iota
	KindDate
	KindMillis
	KindLogger
	KindThread
	KindProcess
	KindFile
	KindLine
	KindLevel
	KindMessage
	KindEnv
	KindStack
	KindLineSep
	KindPercent
)

// Token is one element of a compiled Pattern: a tagged variant describing
// a slice of formatted output, plus the padding/truncation spec shared by
// every token kind that produces text.
type Token struct {
	Kind Kind

	Literal string // KindLiteral

	DateLayout string // KindDate: strftime-style layout

	// Logger precision: empty means full dotted name; a single entry N
	// means "last N components"; two or more entries give a per-component
	// truncation width, per spec.md §4.6.1.
	LoggerPrecision []int
	LoggerFull      bool

	LevelOverride map[string]string // KindLevel {key=val,...} extension

	StackFrames int // KindStack {N}; 0 means unlimited

	EnvName string // KindEnv {NAME}

	// Padding/truncation, shared by every text-producing token.
	Width      int
	LeftPad    bool // '-' was given: left-justify (pad on the right)
	ZeroPad    bool
	MaxWidth   int
	HasMaxSpec bool
}

// Pattern is a compiled, ready-to-format token list.
type Pattern struct {
	Tokens []Token
	Source string
}

// tokenAliases maps every accepted token name (spec.md Glossary "Pattern
// token aliases") to its canonical Kind.
var tokenAliases = map[string]Kind{
	"d": KindDate, "date": KindDate,
	"c": KindLogger, "logger": KindLogger,
	"t": KindThread, "tid": KindThread, "thread": KindThread,
	"P": KindProcess, "pid": KindProcess, "process": KindProcess,
	"F": KindFile, "file": KindFile,
	"L": KindLine, "line": KindLine,
	"p": KindLevel, "level": KindLevel,
	"m": KindMessage, "msg": KindMessage, "message": KindMessage,
	"e": KindEnv, "env": KindEnv, "environment": KindEnv,
	"s": KindStack, "ex": KindStack, "stack": KindStack,
	"n": KindLineSep,
	"%": KindPercent,
}

// Compile parses a pattern string into an ordered token list. Literal runs
// between escapes become KindLiteral tokens; each %-escape becomes one
// tagged token per spec.md §4.6.1's grammar: '%' [pad-spec] name
// ['{' extension '}'].
func Compile(s string) (Pattern, error) {
	p := Pattern{Source: s}
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			p.Tokens = append(p.Tokens, Token{Kind: KindLiteral, Literal: lit.String()})
			lit.Reset()
		}
	}

	r := []rune(s)
	i := 0
	for i < len(r) {
		if r[i] != '%' {
			lit.WriteRune(r[i])
			i++
			continue
		}

		// '%' found; must have at least one more rune.
		if i+1 >= len(r) {
			return Pattern{}, ErrorUnterminatedEscape.Error(nil)
		}

		flush()

		j := i + 1
		// Default (no sign) left-justifies (pads on the right), matching
		// testable scenario S2: "%5p" alone renders "INFO " not " INFO".
		// '+' is the only way to get the opposite, right-justified fill.
		leftPad := true
		zeroPad := false

		if r[j] == '+' {
			leftPad = false
			j++
		} else if r[j] == '-' {
			leftPad = true
			j++
		}
		if j < len(r) && r[j] == '0' {
			zeroPad = true
			j++
		}

		widthStart := j
		for j < len(r) && r[j] >= '0' && r[j] <= '9' {
			j++
		}
		width := 0
		if j > widthStart {
			width, _ = strconv.Atoi(string(r[widthStart:j]))
		}

		hasMax := false
		maxWidth := 0
		if j < len(r) && r[j] == '.' {
			hasMax = true
			j++
			maxStart := j
			for j < len(r) && r[j] >= '0' && r[j] <= '9' {
				j++
			}
			maxWidth, _ = strconv.Atoi(string(r[maxStart:j]))
		}

		// token name: either a single '%' (literal percent) or a run of
		// letters.
		if r[j] == '%' {
			p.Tokens = append(p.Tokens, Token{Kind: KindPercent, Literal: "%"})
			i = j + 1
			continue
		}

		nameStart := j
		for j < len(r) && (r[j] >= 'a' && r[j] <= 'z' || r[j] >= 'A' && r[j] <= 'Z') {
			j++
		}
		name := string(r[nameStart:j])
		kind, ok := tokenAliases[name]
		if !ok {
			return Pattern{}, ErrorUnknownToken.Error(fmt.Errorf("token %q", name))
		}

		var ext string
		hasExt := false
		if j < len(r) && r[j] == '{' {
			hasExt = true
			close := strings.IndexRune(string(r[j:]), '}')
			if close < 0 {
				return Pattern{}, ErrorBadExtension.Error(fmt.Errorf("token %q", name))
			}
			ext = string(r[j+1 : j+close])
			j += close + 1
		}

		tok := Token{
			Kind:       kind,
			Width:      width,
			LeftPad:    leftPad,
			ZeroPad:    zeroPad,
			MaxWidth:   maxWidth,
			HasMaxSpec: hasMax,
		}

		switch kind {
		case KindDate:
			if hasExt {
				tok.DateLayout = resolveDatePreset(ext)
			} else {
				tok.DateLayout = resolveDatePreset("DEFAULT")
			}
		case KindLogger:
			tok.LoggerFull = !hasExt || ext == ""
			if hasExt && ext != "" {
				for _, part := range strings.Split(ext, ".") {
					n, err := strconv.Atoi(part)
					if err != nil {
						return Pattern{}, ErrorBadExtension.Error(err)
					}
					tok.LoggerPrecision = append(tok.LoggerPrecision, n)
				}
			}
		case KindLevel:
			if hasExt {
				m, err := parseLevelExtension(ext)
				if err != nil {
					return Pattern{}, err
				}
				tok.LevelOverride = m
			}
		case KindStack:
			if hasExt {
				n, err := strconv.Atoi(strings.TrimSpace(ext))
				if err != nil {
					return Pattern{}, ErrorBadExtension.Error(err)
				}
				tok.StackFrames = n
			}
		case KindEnv:
			tok.EnvName = ext
		}

		p.Tokens = append(p.Tokens, tok)
		i = j
	}

	flush()
	return p, nil
}

// parseLevelExtension parses a level{length=N,lowerCase=true,<raw>=<repl>,...}
// extension into a flat override map; "length" and "lowerCase" are applied
// by the formatter as pseudo-keys alongside literal level-name overrides.
func parseLevelExtension(ext string) (map[string]string, error) {
	m := make(map[string]string)
	if strings.TrimSpace(ext) == "" {
		return m, nil
	}
	for _, kv := range strings.Split(ext, ",") {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			return nil, ErrorBadExtension.Error(fmt.Errorf("entry %q", kv))
		}
		m[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	return m, nil
}

// datePresets maps the named presets spec.md §4.6.1 lists to strftime-style
// layouts consumed by Format.
var datePresets = map[string]string{
	"DEFAULT":       "%Y-%m-%d %H:%M:%S,%q",
	"ISO8601":       "%Y-%m-%dT%H:%M:%S%z",
	"ISO8601_BASIC": "%Y%m%dT%H%M%S%z",
	"ABSOLUTE":      "%H:%M:%S,%q",
	"DATE":          "%Y-%m-%d",
	"COMPACT":       "%Y%m%d%H%M%S",
	"GENERAL":       "%d %b %Y %H:%M:%S",
	"UNIX":          "%s",
}

func resolveDatePreset(s string) string {
	if layout, ok := datePresets[s]; ok {
		return layout
	}
	return s
}
