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

package errors

import "sort"

// CodeError is a small numeric error classification, scoped to one of the
// package ranges declared in modules.go so codes never collide once errors
// from different packages are chained together.
type CodeError uint16

const (
	// UnknownError is the fallback code for an error with no registered
	// classification.
	UnknownError CodeError = 0

	// UnknownMessage is returned by Message for an unregistered code.
	UnknownMessage = "unknown error"

	// NullMessage is the empty message a registered Message func may
	// return to signal "no message for this exact code".
	NullMessage = ""
)

// Message renders a human-readable string for a CodeError. Packages
// register one covering their whole code range with RegisterIdFctMessage.
type Message func(code CodeError) (message string)

// registry maps the minimum code of a package's range to the Message func
// that covers it. The map is unordered; findOwner sorts its keys on each
// lookup to find the floor (the registered code nearest-below the queried
// one).
var registry = make(map[CodeError]Message)

// RegisterIdFctMessage associates fct with every code from minCode upward,
// until the next registered range begins. Call once per package, in an
// init func, with that package's MinPkg* constant.
func RegisterIdFctMessage(minCode CodeError, fct Message) {
	registry[minCode] = fct
}

// ExistInMapMessage reports whether code falls within a registered range
// and that range's Message func produces non-empty text for it.
func ExistInMapMessage(code CodeError) bool {
	fct, ok := registry[findOwner(code)]
	return ok && fct(code) != NullMessage
}

// Uint16 returns the CodeError as a uint16.
func (c CodeError) Uint16() uint16 { return uint16(c) }

// Message resolves the text registered for c's owning range, or
// UnknownMessage if none covers it.
func (c CodeError) Message() string {
	if c == UnknownError {
		return UnknownMessage
	}
	if fct, ok := registry[findOwner(c)]; ok {
		if m := fct(c); m != NullMessage {
			return m
		}
	}
	return UnknownMessage
}

// Error builds an Error carrying this code, its resolved message, and the
// given parent errors.
func (c CodeError) Error(parent ...error) Error {
	return New(c.Uint16(), c.Message(), parent...)
}

func rangeStarts() []CodeError {
	keys := make([]CodeError, 0, len(registry))
	for k := range registry {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// findOwner returns the largest registered range-start that is <= code, or
// 0 (UnknownError) if code precedes every registered range.
func findOwner(code CodeError) CodeError {
	var owner CodeError
	for _, start := range rangeStarts() {
		if start <= code && start >= owner {
			owner = start
		}
	}
	return owner
}
