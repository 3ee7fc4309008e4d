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

// Package timer implements a scheduled-task timer: one main-loop thread
// scans a sorted task list for due work and hands it to a conc/pool.Pool of
// workers, in the lifecycle idiom adapted from the teacher's runner/ticker
// package.
package timer

import (
	"context"
	"sort"
	"time"

	libatm "github.com/sabouaram/cmutil/atomicx"
	"github.com/sabouaram/cmutil/conc/mutex"
	"github.com/sabouaram/cmutil/conc/pool"
	"github.com/sabouaram/cmutil/conc/thread"
)

// Status is the outcome of a Cancel call.
type Status int

const (
	// StatusFreed means the task was removed before it ever ran again.
	StatusFreed Status = iota
	// StatusDeferred means the task was running or queued; a running task
	// completes its current invocation, a queued one is skipped, and either
	// is freed afterward.
	StatusDeferred
	// StatusAlreadyCanceled means the task was already canceled.
	StatusAlreadyCanceled
	// StatusNotFound means the task handle is unknown to this timer.
	StatusNotFound
)

// Func is a task's callback, receiving the argument it was scheduled with.
type Func func(ctx context.Context, arg any)

// Task is an opaque handle to a scheduled unit of work.
type Task struct {
	id       uint64
	fn       Func
	arg      any
	repeat   bool
	period   time.Duration
	nextRun  time.Time
	canceled bool
	queued   bool
	running  bool
}

// Timer is a scheduler plus worker pool executing scheduled tasks.
type Timer interface {
	// ScheduleAt schedules fn to run once at t.
	ScheduleAt(t time.Time, fn Func, arg any) *Task
	// ScheduleDelay schedules fn to run once after delay.
	ScheduleDelay(delay time.Duration, fn Func, arg any) *Task
	// ScheduleAtRepeat schedules fn to run first at t, then every period.
	ScheduleAtRepeat(t time.Time, period time.Duration, fn Func, arg any) *Task
	// ScheduleDelayRepeat schedules fn to run first after delay, then every period.
	ScheduleDelayRepeat(delay, period time.Duration, fn Func, arg any) *Task

	// Cancel cancels a scheduled or running task.
	Cancel(tsk *Task) Status
	// Purge cancels every task currently known to the timer.
	Purge()

	// Close stops the main loop and every worker, purging remaining tasks.
	Close() error
}

type timer struct {
	mu  mutex.Recursive
	ctx context.Context

	scheduled []*Task
	finished  libatm.MapTyped[uint64, *Task]
	all       libatm.MapTyped[uint64, *Task]

	main    thread.Thread
	workers pool.Pool

	nextID uint64
}

// New creates a Timer whose main loop wakes every tick and dispatches due
// tasks to a conc/pool.Pool of workers workers (workers <= 0 is treated as
// 1, auto-growing to absorb bursts).
func New(ctx context.Context, tick time.Duration, workers int) Timer {
	if tick <= 0 {
		tick = 100 * time.Millisecond
	}

	t := &timer{
		mu:       mutex.New(),
		ctx:      ctx,
		finished: libatm.NewMapTyped[uint64, *Task](),
		all:      libatm.NewMapTyped[uint64, *Task](),
		workers:  pool.New(ctx, workers, "timer-worker"),
	}

	t.main = thread.New(t.mainLoop(tick), "timer-main")
	_ = t.main.Start(ctx)

	return t
}

func (t *timer) mainLoop(tick time.Duration) thread.Func {
	return func(ctx context.Context) (any, error) {
		ticker := time.NewTicker(tick)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil, nil
			case <-ticker.C:
				t.dispatchDue()
			}
		}
	}
}

func (t *timer) dispatchDue() {
	now := time.Now()

	t.mu.Lock(mutex.CurrentOwner())
	var due []*Task
	for len(t.scheduled) > 0 && !t.scheduled[0].nextRun.After(now) {
		tsk := t.scheduled[0]
		t.scheduled = t.scheduled[1:]
		tsk.queued = true
		due = append(due, tsk)
	}
	t.mu.Unlock(mutex.CurrentOwner())

	for _, tsk := range due {
		tsk := tsk
		t.workers.Execute(func() { t.runTask(tsk) })
	}
}

// runTask executes one task's callback on a conc/pool.Pool worker and files
// the task into its post-run position (rescheduled, finished, or dropped if
// canceled while queued or while running).
func (t *timer) runTask(tsk *Task) {
	t.mu.Lock(mutex.CurrentOwner())
	tsk.queued = false
	canceledBefore := tsk.canceled
	if !canceledBefore {
		tsk.running = true
	}
	t.mu.Unlock(mutex.CurrentOwner())

	if !canceledBefore && tsk.fn != nil {
		tsk.fn(t.ctx, tsk.arg)
	}

	t.mu.Lock(mutex.CurrentOwner())
	tsk.running = false
	switch {
	case tsk.canceled:
		t.all.Delete(tsk.id)
	case tsk.repeat:
		tsk.nextRun = tsk.nextRun.Add(tsk.period)
		t.insertScheduled(tsk)
	default:
		t.finished.Store(tsk.id, tsk)
	}
	t.mu.Unlock(mutex.CurrentOwner())
}

// insertScheduled inserts tsk into t.scheduled keeping it sorted by nextRun
// ascending, ties broken by insertion (stable) order. Must be called with
// t.mu held.
func (t *timer) insertScheduled(tsk *Task) {
	idx := sort.Search(len(t.scheduled), func(i int) bool {
		return t.scheduled[i].nextRun.After(tsk.nextRun)
	})
	t.scheduled = append(t.scheduled, nil)
	copy(t.scheduled[idx+1:], t.scheduled[idx:])
	t.scheduled[idx] = tsk
}

func (t *timer) schedule(first time.Time, period time.Duration, repeat bool, fn Func, arg any) *Task {
	t.mu.Lock(mutex.CurrentOwner())
	t.nextID++
	tsk := &Task{
		id:      t.nextID,
		fn:      fn,
		arg:     arg,
		repeat:  repeat,
		period:  period,
		nextRun: first,
	}
	t.all.Store(tsk.id, tsk)
	t.insertScheduled(tsk)
	t.mu.Unlock(mutex.CurrentOwner())

	return tsk
}

func (t *timer) ScheduleAt(tm time.Time, fn Func, arg any) *Task {
	return t.schedule(tm, 0, false, fn, arg)
}

func (t *timer) ScheduleDelay(delay time.Duration, fn Func, arg any) *Task {
	return t.schedule(time.Now().Add(delay), 0, false, fn, arg)
}

func (t *timer) ScheduleAtRepeat(tm time.Time, period time.Duration, fn Func, arg any) *Task {
	return t.schedule(tm, period, true, fn, arg)
}

func (t *timer) ScheduleDelayRepeat(delay, period time.Duration, fn Func, arg any) *Task {
	return t.schedule(time.Now().Add(delay), period, true, fn, arg)
}

func (t *timer) Cancel(tsk *Task) Status {
	if tsk == nil {
		return StatusNotFound
	}

	t.mu.Lock(mutex.CurrentOwner())
	defer t.mu.Unlock(mutex.CurrentOwner())

	if tsk.canceled {
		return StatusAlreadyCanceled
	}

	if _, ok := t.all.Load(tsk.id); !ok {
		return StatusNotFound
	}

	if tsk.running {
		tsk.canceled = true
		return StatusDeferred
	}

	for i, s := range t.scheduled {
		if s.id == tsk.id {
			t.scheduled = append(t.scheduled[:i], t.scheduled[i+1:]...)
			t.all.Delete(tsk.id)
			tsk.canceled = true
			return StatusFreed
		}
	}

	if tsk.queued {
		tsk.canceled = true
		return StatusDeferred
	}

	if _, ok := t.finished.Load(tsk.id); ok {
		t.finished.Delete(tsk.id)
		t.all.Delete(tsk.id)
		tsk.canceled = true
		return StatusFreed
	}

	tsk.canceled = true
	return StatusDeferred
}

func (t *timer) Purge() {
	t.mu.Lock(mutex.CurrentOwner())
	ids := make([]uint64, 0, len(t.scheduled))
	for _, s := range t.scheduled {
		ids = append(ids, s.id)
	}
	t.scheduled = nil

	// Tasks already handed to the worker pool (queued or running) cannot be
	// pulled back; mark them canceled so runTask frees them on completion
	// instead of rescheduling a repeat.
	t.all.Range(func(_ uint64, s *Task) bool {
		if s.queued || s.running {
			s.canceled = true
		}
		return true
	})
	t.mu.Unlock(mutex.CurrentOwner())

	for _, id := range ids {
		t.all.Delete(id)
	}

	t.finished.Range(func(id uint64, _ *Task) bool {
		t.finished.Delete(id)
		t.all.Delete(id)
		return true
	})
}

func (t *timer) Close() error {
	t.Purge()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_ = t.main.Stop(ctx)

	return t.workers.Close()
}
