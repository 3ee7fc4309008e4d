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

// Package mutex implements a recursive mutex: the same logical owner (a
// caller-supplied owner token, normally CurrentOwner's goroutine-derived
// value) may lock it more than once without deadlocking itself, and must
// unlock the same number of times to release it.
package mutex

import (
	"sync"

	liberr "github.com/sabouaram/cmutil/cerrors"
	"github.com/sabouaram/cmutil/conc/gid"
	"github.com/sirupsen/logrus"
)

const (
	ErrorClosedLocked liberr.CodeError = iota + liberr.MinPkgConc
	ErrorUnlockNotOwner
)

func init() {
	liberr.RegisterIdFctMessage(ErrorClosedLocked, getMessage)
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case liberr.UnknownError:
		return ""
	case ErrorClosedLocked:
		return "cannot close a mutex that is still locked"
	case ErrorUnlockNotOwner:
		return "unlock called by a goroutine that does not own the lock"
	}
	return ""
}

// Recursive is a mutex that the current owner may re-enter without
// deadlocking, tracked by an opaque owner token. Pass CurrentOwner()'s
// result, not a value shared across goroutines: two Lock calls presenting
// the same token are indistinguishable from the same goroutine re-entering
// and neither blocks the other.
type Recursive interface {
	// Lock acquires the mutex for owner, blocking if another owner holds it.
	// Re-entrant: the same owner may call Lock again and must call Unlock
	// the same number of times.
	Lock(owner uint64)

	// TryLock attempts to acquire the mutex without blocking.
	TryLock(owner uint64) bool

	// Unlock releases one level of ownership. Panics-free: calling Unlock
	// from a non-owner is a caller bug reported via the ambient logger, not
	// a panic.
	Unlock(owner uint64)

	// Close reports an error if the mutex is still locked by anyone.
	Close() error
}

type recur struct {
	mu    sync.Mutex
	gate  sync.Mutex
	owner uint64
	held  bool
	depth int
}

// New creates an unlocked recursive mutex.
func New() Recursive {
	return &recur{}
}

// CurrentOwner derives an owner token from the calling goroutine's runtime
// identity (conc/gid), the same identity conc/thread's registry is keyed
// on. Every production lock site calls this fresh at each Lock/Unlock
// rather than caching one constant token, so two different goroutines
// never collide on the same token and take the reentrant fast path for
// each other's critical sections.
func CurrentOwner() uint64 {
	return gid.Current()
}

func (r *recur) Lock(owner uint64) {
	r.mu.Lock()
	if r.held && r.owner == owner {
		r.depth++
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	r.gate.Lock()

	r.mu.Lock()
	r.held = true
	r.owner = owner
	r.depth = 1
	r.mu.Unlock()
}

func (r *recur) TryLock(owner uint64) bool {
	r.mu.Lock()
	if r.held && r.owner == owner {
		r.depth++
		r.mu.Unlock()
		return true
	}
	r.mu.Unlock()

	if !r.gate.TryLock() {
		return false
	}

	r.mu.Lock()
	r.held = true
	r.owner = owner
	r.depth = 1
	r.mu.Unlock()
	return true
}

func (r *recur) Unlock(owner uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.held || r.owner != owner {
		logrus.WithField("pkg", "conc/mutex").WithField("owner", owner).
			Error(getMessage(ErrorUnlockNotOwner))
		return
	}

	r.depth--
	if r.depth > 0 {
		return
	}

	r.held = false
	r.owner = 0
	r.gate.Unlock()
}

func (r *recur) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.held {
		return ErrorClosedLocked.Error(nil)
	}

	return nil
}
