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

// Package alloc is the allocator capability every other package in this
// module routes its allocations through: a System implementation that
// delegates straight to Go's own allocator, and a Tracking implementation
// that recycles size-classed blocks behind guard bytes and an optional
// captured stack, so a debug build can substitute one for the other without
// any caller code changing.
package alloc

import "sync/atomic"

// Allocator is the capability object every allocating call in this module
// is routed through.
type Allocator interface {
	// Alloc returns a freshly allocated, zero-length-respecting buffer of n
	// bytes. An n above the class limit (2^44) is a resource-exhaustion
	// error.
	Alloc(n uintptr) ([]byte, error)

	// Calloc allocates n*size bytes, zeroed.
	Calloc(n, size uintptr) ([]byte, error)

	// Realloc resizes b to n bytes, preserving the shared prefix. b may be
	// nil, in which case Realloc behaves like Alloc.
	Realloc(b []byte, n uintptr) ([]byte, error)

	// Strdup duplicates s into a newly allocated buffer. It never aborts on
	// empty input; it returns a nil handle only if the underlying
	// allocation fails.
	Strdup(s string) (*string, error)

	// Free releases b back to the allocator. Freeing a buffer this
	// allocator never produced, or one already freed, is reported as an
	// error (Tracking) or silently accepted (System).
	Free(b []byte) error
}

var defaultAllocator atomic.Value

func init() {
	defaultAllocator.Store(Allocator(NewSystem()))
}

// Default returns the process-wide default allocator.
func Default() Allocator {
	return defaultAllocator.Load().(Allocator)
}

// SetDefault replaces the process-wide default allocator, e.g. to install a
// Tracking allocator for a debug build.
func SetDefault(a Allocator) {
	if a == nil {
		return
	}
	defaultAllocator.Store(a)
}
