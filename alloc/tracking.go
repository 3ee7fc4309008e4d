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

package alloc

import (
	"math/bits"
	"runtime"
	"unsafe"

	libatm "github.com/sabouaram/cmutil/atomicx"
	liberr "github.com/sabouaram/cmutil/cerrors"
	"github.com/sabouaram/cmutil/conc/mutex"
)

const (
	// numClasses is the number of size classes, k in [0,44].
	numClasses = 45
	// maxClassBytes is the largest single allocation a class can serve
	// (2^44), matching the spec's clamp-as-fatal ceiling.
	maxClassBytes = uintptr(1) << (numClasses - 1)
)

const (
	ErrorExceedsClassLimit liberr.CodeError = iota + liberr.MinPkgAlloc
	ErrorFreeUnknown
	ErrorGuardCorrupt
	ErrorDoubleFree
)

func init() {
	liberr.RegisterIdFctMessage(ErrorExceedsClassLimit, getMessage)
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case liberr.UnknownError:
		return ""
	case ErrorExceedsClassLimit:
		return "allocation size exceeds the tracking allocator's class limit"
	case ErrorFreeUnknown:
		return "free of a pointer the tracking allocator never allocated"
	case ErrorGuardCorrupt:
		return "guard byte corrupted: buffer was written out of bounds"
	case ErrorDoubleFree:
		return "double free of an already-freed buffer"
	}
	return ""
}

// header is the per-allocation bookkeeping record. slab is the full
// backing buffer: one pre-guard byte, the class capacity, one post-guard
// byte. The guard actually checked at Free time sits at slab[1+size], not
// necessarily at the end of the class capacity, matching the spec's
// "post-guard byte at user+size" placement.
type header struct {
	slab  []byte
	size  uintptr
	class int
	stack string
}

// Tracking is the size-classed, guard-byte, leak-tracking allocator of
// spec.md §4.1. It satisfies Allocator and adds a handful of debug-only
// affordances (stack capture, simulated corruption, leak reporting) that
// have no equivalent on System.
type Tracking struct {
	mu    mutex.Recursive
	free  [numClasses][]*header

	used libatm.MapTyped[uintptr, *header]

	captureStack bool
}

// NewTracking creates a Tracking allocator. captureStack enables
// runtime.Stack capture on every allocation, at a real cost, matching the
// spec's "optional per-allocation stack capture" mode.
func NewTracking(captureStack bool) *Tracking {
	return &Tracking{
		mu:           mutex.New(),
		used:         libatm.NewMapTyped[uintptr, *header](),
		captureStack: captureStack,
	}
}

func classFor(n uintptr) int {
	if n <= 1 {
		return 0
	}
	return bits.Len64(uint64(n - 1))
}

func captureCurrentStack() string {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}

func addrOf(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b[0]))
}

func (t *Tracking) popFree(class int) *header {
	t.mu.Lock(mutex.CurrentOwner())
	defer t.mu.Unlock(mutex.CurrentOwner())

	n := len(t.free[class])
	if n == 0 {
		return nil
	}

	h := t.free[class][n-1]
	t.free[class] = t.free[class][:n-1]
	return h
}

func (t *Tracking) pushFree(h *header) {
	t.mu.Lock(mutex.CurrentOwner())
	defer t.mu.Unlock(mutex.CurrentOwner())
	t.free[h.class] = append(t.free[h.class], h)
}

func (t *Tracking) alloc(n uintptr) (*header, error) {
	if n > maxClassBytes {
		pkgLog.WithField("size", n).Error("allocation size exceeds class limit")
		return nil, ErrorExceedsClassLimit.Error(nil)
	}

	class := classFor(n)

	h := t.popFree(class)
	if h == nil {
		capacity := uintptr(1) << class
		h = &header{
			slab:  make([]byte, capacity+2),
			class: class,
		}
	}

	h.size = n
	h.slab[0] = 0xFF
	h.slab[1+n] = 0xFF

	if t.captureStack {
		h.stack = captureCurrentStack()
	} else {
		h.stack = ""
	}

	return h, nil
}

func (t *Tracking) userSlice(h *header) []byte {
	cap1 := len(h.slab) - 1 // leave the trailing guard byte out of cap
	return h.slab[1 : 1+h.size : cap1]
}

func (t *Tracking) Alloc(n uintptr) ([]byte, error) {
	h, err := t.alloc(n)
	if err != nil {
		return nil, err
	}

	b := t.userSlice(h)
	t.used.Store(addrOf(b), h)
	return b, nil
}

func (t *Tracking) Calloc(n, size uintptr) ([]byte, error) {
	return t.Alloc(n * size)
}

func (t *Tracking) Realloc(b []byte, n uintptr) ([]byte, error) {
	if b == nil {
		return t.Alloc(n)
	}

	addr := addrOf(b)
	h, ok := t.used.Load(addr)
	if !ok {
		pkgLog.WithField("addr", addr).Error(getMessage(ErrorFreeUnknown))
		return nil, ErrorFreeUnknown.Error(nil)
	}

	if err := t.checkGuards(h); err != nil {
		return nil, err
	}

	newClass := classFor(n)
	if newClass == h.class {
		t.used.Delete(addr)
		h.size = n
		h.slab[0] = 0xFF
		h.slab[1+n] = 0xFF
		if t.captureStack {
			h.stack = captureCurrentStack()
		}
		out := t.userSlice(h)
		t.used.Store(addrOf(out), h)
		return out, nil
	}

	out, err := t.Alloc(n)
	if err != nil {
		return nil, err
	}

	m := len(b)
	if int(n) < m {
		m = int(n)
	}
	copy(out, b[:m])

	_ = t.Free(b)
	return out, nil
}

func (t *Tracking) Strdup(s string) (*string, error) {
	b, err := t.Alloc(uintptr(len(s)))
	if err != nil {
		pkgLog.Error(getMessage(ErrorExceedsClassLimit))
		return nil, err
	}
	copy(b, s)
	out := ""
	if len(b) > 0 {
		out = unsafe.String(&b[0], len(b))
	}
	return &out, nil
}

func (t *Tracking) checkGuards(h *header) error {
	if h.slab[0] != 0xFF || h.slab[1+h.size] != 0xFF {
		fields := pkgLog
		if h.stack != "" {
			fields = fields.WithField("alloc_stack", h.stack)
		}
		fields.WithField("free_stack", captureCurrentStack()).Error(getMessage(ErrorGuardCorrupt))
		return ErrorGuardCorrupt.Error(nil)
	}
	return nil
}

func (t *Tracking) Free(b []byte) error {
	if len(b) == 0 {
		return nil
	}

	addr := addrOf(b)
	h, ok := t.used.Load(addr)
	if !ok {
		pkgLog.WithField("addr", addr).WithField("free_stack", captureCurrentStack()).
			Error(getMessage(ErrorFreeUnknown))
		return ErrorFreeUnknown.Error(nil)
	}

	if err := t.checkGuards(h); err != nil {
		return err
	}

	t.used.Delete(addr)
	h.stack = ""
	t.pushFree(h)
	return nil
}

// FreeString releases the buffer backing a Strdup result. Strdup returns a
// *string rather than the []byte Free expects, since Go strings are not
// addressable the way a C char* is; this method bridges the gap for callers
// that duplicate strings through this allocator. The string shares the
// allocator's buffer, so it must not be used after FreeString.
func (t *Tracking) FreeString(s *string) error {
	if s == nil {
		return nil
	}
	return t.Free(unsafe.Slice(unsafe.StringData(*s), len(*s)))
}

// Leaks returns every allocation still outstanding, most useful at process
// shutdown to report leaks the way spec.md §4.1 describes: "each surviving
// entry is reported as a leak, with the captured stack if available".
func (t *Tracking) Leaks() []string {
	var out []string
	t.used.Range(func(_ uintptr, h *header) bool {
		if h.stack != "" {
			out = append(out, h.stack)
		} else {
			out = append(out, "")
		}
		return true
	})
	return out
}

// Close logs every surviving allocation as a leak and returns how many were
// found, the Go equivalent of the process-shutdown leak walk.
func (t *Tracking) Close() int {
	n := 0
	t.used.Range(func(addr uintptr, h *header) bool {
		n++
		entry := pkgLog.WithField("addr", addr).WithField("size", h.size)
		if h.stack != "" {
			entry = entry.WithField("stack", h.stack)
		}
		entry.Error("leaked allocation at shutdown")
		return true
	})
	return n
}

// DebugCorruptGuard simulates an out-of-bounds write into b's guard byte,
// for tests exercising the corruption-detection path (spec.md testable
// property 2 / scenario S6). Go's slice bounds checking makes a genuine
// b[-1] or b[len(b)] write impossible without unsafe, so this is the
// allocator's own escape hatch rather than something ordinary callers can
// reach by accident.
func (t *Tracking) DebugCorruptGuard(b []byte, underflow bool) {
	if len(b) == 0 {
		return
	}

	h, ok := t.used.Load(addrOf(b))
	if !ok {
		return
	}

	if underflow {
		h.slab[0] = 0x00
	} else {
		h.slab[1+h.size] = 0x00
	}
}
