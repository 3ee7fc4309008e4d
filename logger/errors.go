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
	liberr "github.com/sabouaram/cmutil/cerrors"
)

const (
	ErrorUnknownAppenderType liberr.CodeError = iota + liberr.MinPkgLogger + 20
	ErrorUnknownAppenderRef
	ErrorDuplicateAppenderName
	ErrorSocketListen
)

func init() {
	liberr.RegisterIdFctMessage(ErrorUnknownAppenderType, getMessage)
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case liberr.UnknownError:
		return ""
	case ErrorUnknownAppenderType:
		return "configuration references an unknown appender type"
	case ErrorUnknownAppenderRef:
		return "configuration references an undefined appender name"
	case ErrorDuplicateAppenderName:
		return "configuration declares the same appender name twice"
	case ErrorSocketListen:
		return "socket appender failed to start listening"
	}
	return ""
}
