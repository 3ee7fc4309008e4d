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

// Package thread models the spec's thread descriptor as a supervised
// goroutine, since Go has no addressable OS-thread handle at the language
// level. Each Thread is assigned a library-scoped ID and registered in a
// process-wide Registry for its lifetime, the idiomatic substitute for the
// "OS thread identity" question the original design leaves open.
//
// The lifecycle (Start/Stop/Restart/IsRunning/Uptime/ErrorsLast/ErrorsList)
// is adapted from the teacher's runner/startStop package.
package thread

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	libatm "github.com/sabouaram/cmutil/atomicx"
	"github.com/sabouaram/cmutil/conc/gid"
)

// Func is the body a Thread runs. It receives the context passed to Start
// and may return a result value alongside an error.
type Func func(ctx context.Context) (any, error)

// Thread is a supervised goroutine with a library-assigned ID.
type Thread interface {
	// ID returns the library-assigned identity, valid only while running.
	ID() uint32

	// Name returns the human-readable name given at construction.
	Name() string

	// Start launches the thread's function in a new goroutine. Starting an
	// already-running thread stops the previous run first.
	Start(ctx context.Context) error

	// Stop cancels the running function and waits for it to return.
	Stop(ctx context.Context) error

	// Restart is Stop followed by Start.
	Restart(ctx context.Context) error

	// Join blocks until the thread finishes, returning its result.
	Join(ctx context.Context) (any, error)

	// IsRunning reports whether the thread is currently executing.
	IsRunning() bool

	// Uptime returns how long the thread has been running, or zero if it
	// is not running.
	Uptime() time.Duration

	// ErrorsLast returns the most recent error captured from the function.
	ErrorsLast() error

	// ErrorsList returns all errors captured since the last Start.
	ErrorsList() []error
}

type thread struct {
	name string
	fn   Func

	mu      sync.Mutex
	id      uint32
	running bool
	started time.Time
	cancel  context.CancelFunc
	done    chan struct{}
	result  any
	errs    []error

	errMu sync.Mutex
}

func init() {
	// The goroutine running package init is the closest Go equivalent to
	// "the main thread", registered at library init with name "main" per
	// spec.md §4.3. It never runs a Func and is never started/stopped;
	// it exists only so SelfName/SelfByGoroutine resolve for code that
	// logs or locks from that goroutine without going through New/Start
	// first. Self(ctx) does not see it: no context carries this entry.
	main := &thread{name: "main", running: true, started: time.Now(), done: make(chan struct{})}
	registry.store(0, gid.Current(), main)
}

// New builds a Thread bound to fn. The thread is not started.
func New(fn Func, name string) Thread {
	return &thread{
		name: name,
		fn:   fn,
		done: make(chan struct{}),
	}
}

func (t *thread) ID() uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.id
}

func (t *thread) Name() string {
	return t.name
}

func (t *thread) Start(ctx context.Context) error {
	if t.IsRunning() {
		_ = t.Stop(ctx)
	}

	cctx, cancel := context.WithCancel(ctx)

	t.mu.Lock()
	t.cancel = cancel
	t.running = true
	t.started = time.Now()
	t.done = make(chan struct{})
	done := t.done
	t.mu.Unlock()

	t.errMu.Lock()
	t.errs = nil
	t.errMu.Unlock()

	id := nextID()
	t.mu.Lock()
	t.id = id
	t.mu.Unlock()

	go func() {
		gr := gid.Current()

		defer close(done)
		defer registry.delete(id, gr)
		defer func() {
			t.mu.Lock()
			t.running = false
			t.started = time.Time{}
			t.mu.Unlock()
		}()

		registry.store(id, gr, t)

		if t.fn == nil {
			t.pushErr(fmt.Errorf("invalid start function: thread %q has no function", t.name))
			return
		}

		res, err := t.fn(withSelf(cctx, t))

		t.mu.Lock()
		t.result = res
		t.mu.Unlock()

		if err != nil {
			t.pushErr(err)
		}
	}()

	return nil
}

func (t *thread) Stop(ctx context.Context) error {
	t.mu.Lock()
	cancel := t.cancel
	done := t.done
	running := t.running
	t.mu.Unlock()

	if !running || cancel == nil {
		return nil
	}

	cancel()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	return nil
}

func (t *thread) Restart(ctx context.Context) error {
	_ = t.Stop(ctx)
	return t.Start(ctx)
}

func (t *thread) Join(ctx context.Context) (any, error) {
	t.mu.Lock()
	done := t.done
	t.mu.Unlock()

	select {
	case <-done:
		t.mu.Lock()
		defer t.mu.Unlock()
		return t.result, t.ErrorsLast()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *thread) IsRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

func (t *thread) Uptime() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running || t.started.IsZero() {
		return 0
	}

	return time.Since(t.started)
}

func (t *thread) pushErr(err error) {
	t.errMu.Lock()
	defer t.errMu.Unlock()
	t.errs = append(t.errs, err)
}

func (t *thread) ErrorsLast() error {
	t.errMu.Lock()
	defer t.errMu.Unlock()

	if len(t.errs) == 0 {
		return nil
	}

	return t.errs[len(t.errs)-1]
}

func (t *thread) ErrorsList() []error {
	t.errMu.Lock()
	defer t.errMu.Unlock()

	out := make([]error, len(t.errs))
	copy(out, t.errs)
	return out
}

var idCounter atomic.Uint32

// nextID returns the next library-assigned thread ID, wrapping
// math.MaxUint32 back to 0 as the spec's identity space requires, and
// skipping 0 (the "main" entry registered at init) on that single wrap step.
func nextID() uint32 {
	id := idCounter.Add(1)
	if id == 0 {
		id = idCounter.Add(1)
	}
	return id
}

type registryType struct {
	m    libatm.MapTyped[uint32, Thread]
	byGR libatm.MapTyped[uint64, Thread]
}

var registry = &registryType{
	m:    libatm.NewMapTyped[uint32, Thread](),
	byGR: libatm.NewMapTyped[uint64, Thread](),
}

// store registers t under both its library ID and the OS-level identity of
// the goroutine that runs it (gid.Current(), the nearest Go equivalent to
// the spec's native thread identity), so a caller with no context in hand
// can still resolve "the thread I'm running as" by its own goroutine ID.
func (r *registryType) store(id uint32, gr uint64, t Thread) {
	r.m.Store(id, t)
	r.byGR.Store(gr, t)
}

func (r *registryType) delete(id uint32, gr uint64) {
	r.m.Delete(id)
	r.byGR.Delete(gr)
}

// Lookup resolves a registered thread by its library-assigned ID.
func Lookup(id uint32) (Thread, bool) {
	return registry.m.Load(id)
}

// SelfByGoroutine resolves the Thread running as the calling goroutine by
// its OS-level identity, for call paths with no context.Context to carry
// the value Self(ctx) reads. Returns false for any goroutine that was
// never started through this package's New/Start (a bare "go func"),
// except the goroutine that ran package init, which resolves to "main".
func SelfByGoroutine() (Thread, bool) {
	return registry.byGR.Load(gid.Current())
}

// SelfName resolves the calling goroutine's registered thread name, for
// the logger's %t pattern token per spec.md §4.6.2 ("name of the calling
// thread looked up in the registry; if missing, literal \"unknown\"").
// Callers render the "unknown" fallback themselves; this returns false on
// a miss rather than guessing a default.
func SelfName() (string, bool) {
	t, ok := SelfByGoroutine()
	if !ok {
		return "", false
	}
	return t.Name(), true
}

type selfKey struct{}

func withSelf(ctx context.Context, t Thread) context.Context {
	return context.WithValue(ctx, selfKey{}, t)
}

// Self resolves the Thread the calling goroutine is running as, when called
// from inside a Func body started through this package.
func Self(ctx context.Context) (Thread, bool) {
	t, ok := ctx.Value(selfKey{}).(Thread)
	return t, ok
}
