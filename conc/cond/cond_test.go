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

package cond_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sabouaram/cmutil/conc/cond"
)

func TestAutoResetWakesExactlyOneWaiter(t *testing.T) {
	c := cond.New(true)

	var woken atomic.Int32
	done := make(chan struct{}, 3)
	for i := 0; i < 3; i++ {
		go func() {
			c.Wait()
			woken.Add(1)
			done <- struct{}{}
		}()
	}

	time.Sleep(30 * time.Millisecond)
	c.Set()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("no waiter woke")
	}

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(1), woken.Load())

	c.Set()
	c.Set()
	<-done
	<-done
	assert.Equal(t, int32(3), woken.Load())
}

func TestManualResetWakesAllWaitersUntilReset(t *testing.T) {
	c := cond.New(false)

	var woken atomic.Int32
	done := make(chan struct{}, 5)
	for i := 0; i < 5; i++ {
		go func() {
			c.Wait()
			woken.Add(1)
			done <- struct{}{}
		}()
	}

	time.Sleep(30 * time.Millisecond)
	c.Set()

	for i := 0; i < 5; i++ {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("not all waiters woke on manual-reset signal")
		}
	}
	assert.Equal(t, int32(5), woken.Load())

	// New waiters after Set should not block since it stays signaled.
	waitReturned := make(chan struct{})
	go func() {
		c.Wait()
		close(waitReturned)
	}()
	select {
	case <-waitReturned:
	case <-time.After(time.Second):
		t.Fatal("manual-reset condition did not stay signaled for new waiter")
	}

	c.Reset()
	blockedAfterReset := make(chan struct{})
	go func() {
		c.Wait()
		close(blockedAfterReset)
	}()
	select {
	case <-blockedAfterReset:
		t.Fatal("waiter returned after Reset with no new Set")
	case <-time.After(50 * time.Millisecond):
	}
	c.Set()
	<-blockedAfterReset
}

func TestTimedWaitTimesOut(t *testing.T) {
	c := cond.New(true)
	require.False(t, c.TimedWait(20*time.Millisecond))
}

func TestTimedWaitSignaled(t *testing.T) {
	c := cond.New(true)
	go func() {
		time.Sleep(10 * time.Millisecond)
		c.Set()
	}()
	require.True(t, c.TimedWait(time.Second))
}
