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

package mutex_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sabouaram/cmutil/conc/mutex"
)

func TestRecursiveLockBalancesDepth(t *testing.T) {
	m := mutex.New()

	m.Lock(1)
	m.Lock(1)
	m.Lock(1)

	// A second owner must not be able to acquire while depth > 0.
	acquired := make(chan struct{})
	go func() {
		m.Lock(2)
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("owner 2 acquired the lock while owner 1 still held it")
	case <-time.After(50 * time.Millisecond):
	}

	m.Unlock(1)
	m.Unlock(1)

	select {
	case <-acquired:
		t.Fatal("owner 2 acquired before owner 1's final unlock")
	case <-time.After(20 * time.Millisecond):
	}

	m.Unlock(1)

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("owner 2 never acquired after owner 1 released fully")
	}
	m.Unlock(2)
}

func TestTryLockNonBlocking(t *testing.T) {
	m := mutex.New()
	require.True(t, m.TryLock(1))
	require.False(t, m.TryLock(2))
	require.True(t, m.TryLock(1)) // reentrant
	m.Unlock(1)
	m.Unlock(1)
}

func TestCloseLockedMutexErrors(t *testing.T) {
	m := mutex.New()
	m.Lock(1)
	assert.Error(t, m.Close())
	m.Unlock(1)
	assert.NoError(t, m.Close())
}

// TestSharedOwnerTokenGivesNoExclusion documents why every production lock
// site (conc/pool, timer, alloc, logger/appender, logger) derives its
// owner fresh per call via mutex.CurrentOwner() instead of a single stored
// constant: two goroutines that present the same owner token both take the
// reentrant fast path and run "inside" the critical section at once. A
// second Lock call with a token distinct from the holder's (as
// TestRecursiveLockBalancesDepth shows with owner 2 against owner 1)
// blocks until Unlock; the same token never blocks at all.
func TestSharedOwnerTokenGivesNoExclusion(t *testing.T) {
	m := mutex.New()
	const sharedOwner = 1

	m.Lock(sharedOwner)

	entered := make(chan struct{})
	go func() {
		m.Lock(sharedOwner) // same token as the holder: fast path, no block
		close(entered)
		m.Unlock(sharedOwner)
	}()

	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("second goroutine blocked on a shared owner token: recursive fast path regressed")
	}

	m.Unlock(sharedOwner)
}

func TestMutualExclusionUnderContention(t *testing.T) {
	m := mutex.New()
	var counter int
	var wg sync.WaitGroup
	var races atomic.Int32

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(owner uint64) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				m.Lock(owner)
				counter++
				m.Unlock(owner)
			}
		}(uint64(i + 1))
	}

	wg.Wait()
	assert.Equal(t, 1000, counter)
	assert.Equal(t, int32(0), races.Load())
}

// TestMutualExclusionUnderContentionWithCurrentOwner is
// TestMutualExclusionUnderContention against mutex.CurrentOwner(), the
// call pattern every production lock site now uses in place of a stored
// constant field.
func TestMutualExclusionUnderContentionWithCurrentOwner(t *testing.T) {
	m := mutex.New()
	var counter int
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				m.Lock(mutex.CurrentOwner())
				counter++
				m.Unlock(mutex.CurrentOwner())
			}
		}()
	}

	wg.Wait()
	assert.Equal(t, 1000, counter)
}
