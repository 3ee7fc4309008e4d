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

// Package pool implements a fixed or auto-growing thread pool whose workers
// are conc/thread.Thread values gated by a conc/sem.Semaphore feed, in the
// idiom of the teacher's runner/startStop-based workers.
package pool

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sabouaram/cmutil/conc/cond"
	"github.com/sabouaram/cmutil/conc/mutex"
	"github.com/sabouaram/cmutil/conc/sem"
	"github.com/sabouaram/cmutil/conc/thread"
	"github.com/sabouaram/cmutil/semaphore"
)

// Job is a unit of work submitted to a Pool.
type Job func()

// Pool is a pool of worker goroutines consuming a FIFO job queue.
type Pool interface {
	// Execute submits fn for execution by the next free worker, growing the
	// pool by one worker if auto-grow is enabled and every worker is busy.
	Execute(fn Job)

	// Wait blocks until every worker is idle and the queue is empty.
	Wait()

	// Len returns the current number of workers.
	Len() int

	// Close stops every worker, draining (and logging) any job left in the
	// queue, and waits for all workers to return.
	Close() error

	// WithProgress attaches a visual progress bar tracking total jobs
	// completed against the given total, for callers that know their job
	// count in advance. Optional; a Pool with no progress bar attached
	// behaves exactly as before.
	WithProgress(total int64, description string) Pool
}

type pool struct {
	name     string
	autoGrow bool

	mu      mutex.Recursive
	queue   []Job
	workers []thread.Thread

	idle     atomic.Int32
	idleCond cond.Cond

	gate sem.Semaphore

	running atomic.Bool

	progress *semaphore.Semaphore
}

// New creates a pool of size workers (size <= 0 starts at 1 worker and
// auto-grows as load demands it).
func New(ctx context.Context, size int, name string) Pool {
	autoGrow := size <= 0
	if size <= 0 {
		size = 1
	}

	p := &pool{
		name:     name,
		autoGrow: autoGrow,
		mu:       mutex.New(),
		gate:     sem.New(1<<20, 0),
		idleCond: cond.New(false),
	}
	p.idleCond.Set()
	p.running.Store(true)

	for i := 0; i < size; i++ {
		p.spawn(ctx, i)
	}

	return p
}

func (p *pool) spawn(ctx context.Context, idx int) {
	w := thread.New(p.workerLoop, fmt.Sprintf("%s-worker-%d", p.name, idx))

	p.mu.Lock(mutex.CurrentOwner())
	p.workers = append(p.workers, w)
	p.idle.Add(1)
	p.mu.Unlock(mutex.CurrentOwner())

	_ = w.Start(ctx)
}

func (p *pool) workerLoop(ctx context.Context) (any, error) {
	for {
		if !p.running.Load() {
			return nil, nil
		}

		if !p.gate.Acquire(time.Second) {
			continue
		}

		if !p.running.Load() {
			return nil, nil
		}

		p.mu.Lock(mutex.CurrentOwner())
		var job Job
		if len(p.queue) > 0 {
			job = p.queue[0]
			p.queue = p.queue[1:]
		}
		p.mu.Unlock(mutex.CurrentOwner())

		if job != nil {
			job()
			if p.progress != nil {
				p.progress.Advance(1)
			}
		}

		p.mu.Lock(mutex.CurrentOwner())
		n := p.idle.Add(1)
		total := len(p.workers)
		p.mu.Unlock(mutex.CurrentOwner())

		if int(n) == total {
			p.idleCond.Set()
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
	}
}

func (p *pool) Execute(fn Job) {
	if fn == nil {
		return
	}

	p.idleCond.Reset()

	p.mu.Lock(mutex.CurrentOwner())
	p.queue = append(p.queue, fn)
	idle := p.idle.Add(-1)
	total := len(p.workers)
	p.mu.Unlock(mutex.CurrentOwner())

	p.gate.Release()

	if p.autoGrow && idle <= 0 {
		p.spawn(context.Background(), total)
	}
}

func (p *pool) Wait() {
	p.idleCond.Wait()
}

func (p *pool) WithProgress(total int64, description string) Pool {
	p.progress = semaphore.New(total).WithProgress(total, description)
	return p
}

func (p *pool) Len() int {
	p.mu.Lock(mutex.CurrentOwner())
	defer p.mu.Unlock(mutex.CurrentOwner())
	return len(p.workers)
}

func (p *pool) Close() error {
	p.running.Store(false)

	p.mu.Lock(mutex.CurrentOwner())
	workers := append([]thread.Thread(nil), p.workers...)
	dropped := len(p.queue)
	p.queue = nil
	p.mu.Unlock(mutex.CurrentOwner())

	for range workers {
		p.gate.Release()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, w := range workers {
		_ = w.Stop(ctx)
	}

	if dropped > 0 {
		logDroppedJobs(p.name, dropped)
	}

	return nil
}
