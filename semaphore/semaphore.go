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

// Package semaphore is a progress-aware worker gate, separate from conc/sem's
// counting semaphore: it offers a weighted acquire/release model
// (golang.org/x/sync/semaphore.Weighted, for callers who need to reserve
// more than one slot per worker) and an optional github.com/vbauerster/mpb/v8
// progress bar that tracks completed-vs-total work, so a conc/pool.Pool or
// a timer.Timer's worker fleet can report visual progress without either
// package taking a hard dependency on a terminal UI library.
package semaphore

import (
	"context"
	"sync/atomic"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	xsem "golang.org/x/sync/semaphore"

	liberr "github.com/sabouaram/cmutil/cerrors"
)

const (
	ErrorAcquireFailed liberr.CodeError = iota + liberr.MinPkgSemGate
)

func init() {
	liberr.RegisterIdFctMessage(ErrorAcquireFailed, getMessage)
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case liberr.UnknownError:
		return ""
	case ErrorAcquireFailed:
		return "semaphore acquire failed"
	}
	return ""
}

// Semaphore gates concurrent work to a fixed total weight, optionally
// rendering a progress bar as weight is completed.
type Semaphore struct {
	weighted *xsem.Weighted
	total    int64
	done     atomic.Int64

	progress *mpb.Progress
	bar      *mpb.Bar
}

// New creates a Semaphore admitting at most weight units of concurrent
// work.
func New(weight int64) *Semaphore {
	if weight <= 0 {
		weight = 1
	}
	return &Semaphore{weighted: xsem.NewWeighted(weight), total: weight}
}

// WithProgress attaches an mpb progress bar tracking total units of work
// (independent of the gate's weight) under the given description. Safe to
// call at most once; a second call replaces the previous bar.
func (s *Semaphore) WithProgress(total int64, description string) *Semaphore {
	s.progress = mpb.New(mpb.WithWidth(60))
	s.bar = s.progress.AddBar(total,
		mpb.PrependDecorators(decor.Name(description)),
		mpb.AppendDecorators(decor.CountersNoUnit("%d / %d")),
	)
	return s
}

// Acquire blocks until n units of weight are available or ctx is canceled.
func (s *Semaphore) Acquire(ctx context.Context, n int64) error {
	if err := s.weighted.Acquire(ctx, n); err != nil {
		return ErrorAcquireFailed.Error(err)
	}
	return nil
}

// TryAcquire attempts to acquire n units of weight without blocking.
func (s *Semaphore) TryAcquire(n int64) bool {
	return s.weighted.TryAcquire(n)
}

// Release returns n units of weight to the gate and, if a progress bar is
// attached, advances it by n and marks it complete once every released
// unit has been accounted for.
func (s *Semaphore) Release(n int64) {
	s.weighted.Release(n)
	if s.bar != nil {
		s.bar.IncrBy(int(n))
	}
	if s.done.Add(n) >= s.total && s.progress != nil {
		s.progress.Wait()
	}
}

// Weight returns the gate's total admissible weight.
func (s *Semaphore) Weight() int64 { return s.total }

// Advance reports n units of work as completed without touching the
// underlying weighted gate, for callers (such as conc/pool) that already
// enforce their own concurrency limit and only want this Semaphore's
// progress-bar bookkeeping.
func (s *Semaphore) Advance(n int64) {
	if s.bar != nil {
		s.bar.IncrBy(int(n))
	}
	if s.done.Add(n) >= s.total && s.progress != nil {
		s.progress.Wait()
	}
}

// Worker is a single acquired unit of weight; Done releases it.
type Worker struct {
	sem *Semaphore
	n   int64
}

// NewWorker acquires one unit of weight and returns a handle whose Done
// releases it, for the common case of gating one goroutine at a time.
func (s *Semaphore) NewWorker(ctx context.Context) (*Worker, error) {
	if err := s.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return &Worker{sem: s, n: 1}, nil
}

// Done releases the worker's held weight. Safe to call at most once.
func (w *Worker) Done() {
	if w == nil || w.sem == nil {
		return
	}
	w.sem.Release(w.n)
	w.sem = nil
}
