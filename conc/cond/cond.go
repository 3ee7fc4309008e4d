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

// Package cond implements a condition variable with two reset disciplines:
// manual-reset (stays signaled until Reset is called) and auto-reset
// (wakes exactly one waiter per Set, then re-arms itself), built on
// sync.Mutex and sync.Cond rather than channels so Set/Reset/Wait compose
// the way the spec's condition variable does.
package cond

import (
	"sync"
	"time"
)

// Cond is a condition variable supporting both reset disciplines.
type Cond interface {
	// Wait blocks until the condition is signaled.
	Wait()

	// TimedWait blocks until the condition is signaled or d elapses,
	// returning true if it was signaled.
	TimedWait(d time.Duration) bool

	// Set signals the condition. Manual-reset conditions stay signaled for
	// every waiter (current and future) until Reset; auto-reset conditions
	// wake exactly one waiter then clear themselves.
	Set()

	// Reset clears the signaled state.
	Reset()
}

type cond struct {
	mu        sync.Mutex
	cv        *sync.Cond
	auto      bool
	signaled  bool
	seq       uint64
	lastWoken uint64
}

// New creates a condition variable. auto selects auto-reset semantics;
// false selects manual-reset semantics.
func New(auto bool) Cond {
	c := &cond{auto: auto}
	c.cv = sync.NewCond(&c.mu)
	return c
}

func (c *cond) Wait() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.signaled {
		c.consume()
		return
	}

	mySeq := c.seq
	for !c.signaled && c.seq == mySeq {
		c.cv.Wait()
	}
	c.consume()
}

// consume applies auto-reset semantics after a wakeup; must be called with
// c.mu held.
func (c *cond) consume() {
	if c.auto && c.signaled {
		c.signaled = false
	}
}

func (c *cond) TimedWait(d time.Duration) bool {
	done := make(chan struct{})
	result := make(chan bool, 1)

	go func() {
		c.Wait()
		select {
		case result <- true:
		default:
		}
		close(done)
	}()

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-done:
		return <-result
	case <-t.C:
		// The waiting goroutine may still be blocked in Wait; bump seq and
		// broadcast so its wait loop sees the new seq and returns right
		// away, preventing a goroutine leak.
		c.mu.Lock()
		c.seq++
		c.cv.Broadcast()
		c.mu.Unlock()
		return false
	}
}

func (c *cond) Set() {
	c.mu.Lock()
	c.signaled = true
	c.seq++
	c.mu.Unlock()

	if c.auto {
		c.cv.Signal()
	} else {
		c.cv.Broadcast()
	}
}

func (c *cond) Reset() {
	c.mu.Lock()
	c.signaled = false
	c.mu.Unlock()
}
