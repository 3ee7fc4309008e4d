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

// Package fswalk implements the recursive, glob-filtered directory walker
// of spec.md §4.8, built directly on glob.Match and os.ReadDir. The
// doublestar-backed convenience listed in SPEC_FULL.md §4.7 sits alongside
// it for '**'-aware callers.
package fswalk

import (
	"os"
	"path/filepath"

	liberr "github.com/sabouaram/cmutil/cerrors"
	"github.com/sabouaram/cmutil/glob"
)

const (
	ErrorStatFailed liberr.CodeError = iota + liberr.MinPkgFSWalk
	ErrorReadDirFailed
)

func init() {
	liberr.RegisterIdFctMessage(ErrorStatFailed, getMessage)
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case liberr.UnknownError:
		return ""
	case ErrorStatFailed:
		return "stat failed while walking directory"
	case ErrorReadDirFailed:
		return "read directory failed while walking"
	}
	return ""
}

// File is a located filesystem entry. Weak marks an entry owned by an
// enclosing listing (the caller should not attempt to release it
// independently of the slice it came from), mirroring spec.md §3's
// "weak reference" file handle.
type File struct {
	Path string
	Name string
	Weak bool
}

// Find walks root recursively (if recursive is true) and returns every
// entry, file or directory, whose base name matches pattern, per spec.md
// §4.8. A
// directory that fails to stat is logged and skipped rather than aborting
// the walk.
func Find(root, pattern string, recursive bool) ([]*File, error) {
	var out []*File

	entries, err := os.ReadDir(root)
	if err != nil {
		pkgLog.WithField("root", root).WithError(err).Error(getMessage(ErrorReadDirFailed))
		return nil, ErrorReadDirFailed.Error(err)
	}

	for _, e := range entries {
		name := e.Name()
		if name == "." || name == ".." {
			continue
		}

		full := filepath.Join(root, name)

		info, err := e.Info()
		if err != nil {
			pkgLog.WithField("path", full).WithError(err).Warn(getMessage(ErrorStatFailed))
			continue
		}

		if glob.Match(pattern, name, true) {
			out = append(out, &File{Path: full, Name: name, Weak: true})
		}

		if info.IsDir() && recursive {
			children, err := Find(full, pattern, recursive)
			if err != nil {
				continue
			}
			out = append(out, children...)
		}
	}

	return out, nil
}

// Children is Find with glob "*" and recursive=false: it lists every
// direct child of root regardless of kind.
func Children(root string) ([]*File, error) {
	return Find(root, "*", false)
}
