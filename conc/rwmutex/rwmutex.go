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

// Package rwmutex implements a recursive read-write lock: a writer may also
// take the read lock it already implicitly holds, and readers composed from
// a shared counter plus a manual-reset condition let the last reader out
// wake a waiting writer.
package rwmutex

import (
	"github.com/sabouaram/cmutil/conc/cond"
	"github.com/sabouaram/cmutil/conc/mutex"
)

// Recursive is a recursive, writer-preferring read-write lock.
type Recursive interface {
	RLock(owner uint64)
	RUnlock(owner uint64)
	Lock(owner uint64)
	Unlock(owner uint64)
}

type rw struct {
	readers  mutex.Recursive // guards the count below
	writer   mutex.Recursive // held for the duration of a write lock
	noReader cond.Cond       // manual-reset, signaled while count == 0

	count int
}

// New creates an unlocked recursive read-write lock.
func New() Recursive {
	r := &rw{
		readers:  mutex.New(),
		writer:   mutex.New(),
		noReader: cond.New(false),
	}
	r.noReader.Set()
	return r
}

func (r *rw) RLock(owner uint64) {
	// Block any new reader while a writer holds the lock.
	r.writer.Lock(owner)
	r.writer.Unlock(owner)

	r.readers.Lock(owner)
	r.count++
	if r.count == 1 {
		r.noReader.Reset()
	}
	r.readers.Unlock(owner)
}

func (r *rw) RUnlock(owner uint64) {
	r.readers.Lock(owner)
	if r.count > 0 {
		r.count--
	}
	if r.count == 0 {
		r.noReader.Set()
	}
	r.readers.Unlock(owner)
}

func (r *rw) Lock(owner uint64) {
	r.writer.Lock(owner)
	r.noReader.Wait()
}

func (r *rw) Unlock(owner uint64) {
	r.writer.Unlock(owner)
}
