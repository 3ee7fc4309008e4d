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

// Package sem implements a counting semaphore over a buffered channel, the
// primitive the timer and the thread pool gate work on.
package sem

import "time"

// Semaphore is a counting semaphore: Release adds one permit, Acquire
// consumes one, blocking (optionally with a timeout) when none are free.
type Semaphore interface {
	// Acquire waits for a permit. timeout < 0 waits forever, timeout == 0
	// polls without blocking, timeout > 0 waits up to that duration.
	// Returns false if the timeout elapsed before a permit was available.
	Acquire(timeout time.Duration) bool

	// Release adds one permit. Release on an already-full semaphore (more
	// releases than capacity) is dropped silently, matching a plain
	// counting semaphore's saturating behavior.
	Release()

	// Len returns the number of permits currently available.
	Len() int

	// Cap returns the maximum number of permits the semaphore can hold.
	Cap() int
}

type sema struct {
	c chan struct{}
}

// New creates a counting semaphore with the given capacity and initial
// permit count. A capacity <= 0 is treated as 1.
func New(capacity, initial int) Semaphore {
	if capacity <= 0 {
		capacity = 1
	}

	if initial < 0 {
		initial = 0
	} else if initial > capacity {
		initial = capacity
	}

	s := &sema{c: make(chan struct{}, capacity)}

	for i := 0; i < initial; i++ {
		s.c <- struct{}{}
	}

	return s
}

func (s *sema) Acquire(timeout time.Duration) bool {
	if timeout < 0 {
		<-s.c
		return true
	}

	if timeout == 0 {
		select {
		case <-s.c:
			return true
		default:
			return false
		}
	}

	t := time.NewTimer(timeout)
	defer t.Stop()

	select {
	case <-s.c:
		return true
	case <-t.C:
		return false
	}
}

func (s *sema) Release() {
	select {
	case s.c <- struct{}{}:
	default:
	}
}

func (s *sema) Len() int {
	return len(s.c)
}

func (s *sema) Cap() int {
	return cap(s.c)
}
