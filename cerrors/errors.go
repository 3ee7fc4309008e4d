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

// Package errors is a small coded-error type used throughout this module in
// place of bare fmt.Errorf: every exported failure carries a CodeError from
// its producing package's range (see modules.go) so a caller can match on
// the code rather than the message string, while still chaining to
// whatever error actually caused it.
package errors

import "fmt"

// Error extends the standard error with a numeric code and an optional
// parent chain.
type Error interface {
	error

	// IsCode reports whether this error's own code equals code (parents
	// are not considered).
	IsCode(code CodeError) bool

	// Code returns the numeric code as a uint16.
	Code() uint16

	// Unwrap exposes the parent chain to errors.Is / errors.As.
	Unwrap() []error
}

type codedError struct {
	code    CodeError
	message string
	parents []error
}

// New builds an Error with the given code, message, and parent errors. Nil
// parents are dropped.
func New(code uint16, message string, parent ...error) Error {
	return &codedError{
		code:    CodeError(code),
		message: message,
		parents: filterNil(parent),
	}
}

func filterNil(in []error) []error {
	out := make([]error, 0, len(in))
	for _, e := range in {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

func (e *codedError) Error() string {
	if e.message == "" {
		return UnknownMessage
	}
	if e.code == UnknownError {
		return e.message
	}
	return fmt.Sprintf("[%d] %s", e.code.Uint16(), e.message)
}

func (e *codedError) IsCode(code CodeError) bool { return e.code == code }

func (e *codedError) Code() uint16 { return e.code.Uint16() }

func (e *codedError) Unwrap() []error { return e.parents }

// IsCode reports whether err, or any error reachable through its Unwrap
// chain (single or multi), carries the given code.
func IsCode(err error, code CodeError) bool {
	if err == nil {
		return false
	}
	if ce, ok := err.(Error); ok && ce.IsCode(code) {
		return true
	}

	switch u := err.(type) {
	case interface{ Unwrap() error }:
		return IsCode(u.Unwrap(), code)
	case interface{ Unwrap() []error }:
		for _, p := range u.Unwrap() {
			if IsCode(p, code) {
				return true
			}
		}
	}
	return false
}
