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
	"os"
	"path/filepath"

	"github.com/sabouaram/cmutil/ioutils"
	"github.com/sabouaram/cmutil/logger/pattern"
)

const (
	defaultFileMode os.FileMode = 0644
	defaultDirMode  os.FileMode = 0755
)

// File is the appender.Appender that appends to a fixed path, adapted from
// the teacher's logger/hookfile hook but opening/closing the file on every
// synchronous write rather than holding it open behind an aggregator, per
// spec.md §4.6.4 item 2 ("opens in append mode, writes, closes; retries
// once after creating the parent directory on the first failure").
type File struct {
	base
	path string
}

// NewFile builds a File appender writing to path.
func NewFile(name string, p pattern.Pattern, path string) *File {
	f := &File{path: path}
	f.base = newBase(name, p, f.write)
	return f
}

func (f *File) write(text string) error {
	err := f.writeOnce(text)
	if err == nil {
		return nil
	}

	// Retry once after ensuring the parent directory exists, per spec.md
	// §4.6.4 and §7's filesystem-error recovery policy.
	if mkErr := ioutils.PathCheckCreate(false, filepath.Dir(f.path), defaultFileMode, defaultDirMode); mkErr != nil {
		fmt.Fprintf(os.Stdout, "cmutil logger: cannot create directory for %s: %v\n", f.path, mkErr)
		return err
	}
	return f.writeOnce(text)
}

func (f *File) writeOnce(text string) error {
	fh, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, defaultFileMode)
	if err != nil {
		return err
	}
	defer fh.Close()

	_, err = fh.WriteString(text)
	return err
}
