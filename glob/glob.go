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

// Package glob implements the shell-style pattern matcher of spec.md §4.7:
// '?', '*', '[...]' character classes, backslash/backtick quoting, and a
// top-level '!' negation, matched against a delimiter ('/') that '*' and
// '?' never cross. No example repo in the retrieved pack ships a matcher
// with this exact negation-at-top-level-plus-backtick-quoting combination
// (the closest fit, doublestar, covers '**' and POSIX classes but not
// either of those two), so this package is hand-rolled against spec.md's
// grammar rather than adapted from a library.
package glob

import "strings"

const delimiter = '/'

// IsValid statically validates pat: every '[' has a matching ']', and a
// trailing quote character ('\\' or '`') is not left dangling.
func IsValid(pat string) bool {
	depth := 0
	i := 0
	for i < len(pat) {
		c := pat[i]
		switch {
		case c == '\\' || c == '`':
			if i+1 >= len(pat) {
				return false
			}
			i += 2
			continue
		case c == '[':
			depth++
		case c == ']':
			if depth == 0 {
				return false
			}
			depth--
		}
		i++
	}
	return depth == 0
}

// Match reports whether name matches pat under the grammar of spec.md
// §4.7. caseSensitive selects Unix-style (case-sensitive) comparison; the
// case-insensitive port policy lower-folds both sides before matching.
func Match(pat, name string, caseSensitive bool) bool {
	if !caseSensitive {
		pat = strings.ToLower(pat)
		name = strings.ToLower(name)
	}

	if strings.HasPrefix(pat, "!") {
		return !match(pat[1:], name)
	}

	return match(pat, name)
}

// match is the backtracking core: it matches pat against name one token at
// a time, recursing (not looping) at '*' so it can retry shorter matches
// when the remainder of the pattern fails, per spec.md's "backtracks
// greedily" rule.
func match(pat, name string) bool {
	for len(pat) > 0 {
		switch pat[0] {
		case '*':
			pat = pat[1:]

			limit := strings.IndexByte(name, delimiter)
			if limit < 0 {
				limit = len(name)
			}

			// Greedy backtracking: try consuming the longest run first,
			// then progressively shorter ones, per spec.md's "backtracks
			// greedily" rule. '*' never consumes the delimiter itself.
			for i := limit; i >= 0; i-- {
				if match(pat, name[i:]) {
					return true
				}
			}
			return false

		case '?':
			if len(name) == 0 || name[0] == delimiter {
				return false
			}
			pat = pat[1:]
			name = name[1:]

		case '[':
			end, ok := classEnd(pat)
			if !ok {
				return false
			}
			if len(name) == 0 {
				return false
			}
			if !matchClass(pat[1:end], name[0]) {
				return false
			}
			pat = pat[end+1:]
			name = name[1:]

		case '\\', '`':
			if len(pat) < 2 {
				return false
			}
			if len(name) == 0 || name[0] != pat[1] {
				return false
			}
			pat = pat[2:]
			name = name[1:]

		default:
			if len(name) == 0 || name[0] != pat[0] {
				return false
			}
			pat = pat[1:]
			name = name[1:]
		}
	}

	return len(name) == 0
}

// classEnd returns the index of the ']' closing the class that starts at
// pat[0] == '[', accounting for '\\'/'`' quoting inside the class.
func classEnd(pat string) (int, bool) {
	i := 1
	if i < len(pat) && pat[i] == '!' {
		i++
	}
	for i < len(pat) {
		switch pat[i] {
		case '\\', '`':
			i += 2
			continue
		case ']':
			return i, true
		}
		i++
	}
	return 0, false
}

// matchClass matches c against the body of a "[...]" class (without the
// brackets): an optional leading '!' negates, '-' defines a range, '\\'
// or '`' quotes the following character literally.
func matchClass(body string, c byte) bool {
	negate := false
	if len(body) > 0 && body[0] == '!' {
		negate = true
		body = body[1:]
	}

	matched := false
	i := 0
	for i < len(body) {
		var lo byte
		if body[i] == '\\' || body[i] == '`' {
			if i+1 >= len(body) {
				break
			}
			lo = body[i+1]
			i += 2
		} else {
			lo = body[i]
			i++
		}

		if i < len(body) && body[i] == '-' && i+1 < len(body) {
			hi := body[i+1]
			i += 2
			if lo <= c && c <= hi {
				matched = true
			}
			continue
		}

		if lo == c {
			matched = true
		}
	}

	if negate {
		return !matched
	}
	return matched
}
