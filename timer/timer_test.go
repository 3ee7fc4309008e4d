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

package timer_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sabouaram/cmutil/timer"
)

// TestScenarioS3DelayedOneShot matches spec scenario S3: a task scheduled
// 200ms out has not fired at 195ms and has fired exactly once at 260ms.
func TestScenarioS3DelayedOneShot(t *testing.T) {
	ctx := context.Background()
	tm := timer.New(ctx, 10*time.Millisecond, 2)
	defer tm.Close()

	var calls atomic.Int32
	tm.ScheduleDelay(200*time.Millisecond, func(ctx context.Context, arg any) {
		calls.Add(1)
	}, nil)

	time.Sleep(195 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())

	time.Sleep(65 * time.Millisecond) // total ~260ms
	assert.Equal(t, int32(1), calls.Load())
}

// TestScenarioS4RepeatingCancelAfterTwoFires matches spec scenario S4: a
// repeating task with a 100ms period, canceled at 250ms, completes exactly
// two invocations.
func TestScenarioS4RepeatingCancelAfterTwoFires(t *testing.T) {
	ctx := context.Background()
	tm := timer.New(ctx, 10*time.Millisecond, 2)
	defer tm.Close()

	var calls atomic.Int32
	tsk := tm.ScheduleDelayRepeat(100*time.Millisecond, 100*time.Millisecond, func(ctx context.Context, arg any) {
		calls.Add(1)
	}, nil)

	time.Sleep(250 * time.Millisecond)
	tm.Cancel(tsk)

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(2), calls.Load())
}

// TestNonReorderingAcrossTasks verifies testable property 9: for t1 < t2,
// the earlier task's callback starts no later than the later one's.
func TestNonReorderingAcrossTasks(t *testing.T) {
	ctx := context.Background()
	tm := timer.New(ctx, 5*time.Millisecond, 4)
	defer tm.Close()

	var firstAt, secondAt atomic.Int64
	start := time.Now()

	tm.ScheduleDelay(120*time.Millisecond, func(ctx context.Context, arg any) {
		secondAt.Store(time.Since(start).Milliseconds())
	}, nil)
	tm.ScheduleDelay(40*time.Millisecond, func(ctx context.Context, arg any) {
		firstAt.Store(time.Since(start).Milliseconds())
	}, nil)

	require.Eventually(t, func() bool {
		return secondAt.Load() != 0
	}, 2*time.Second, 5*time.Millisecond)

	assert.LessOrEqual(t, firstAt.Load(), secondAt.Load())
}

// TestCancelIdempotence verifies testable property 10: canceling a task
// twice succeeds once and no-ops the second time; the task is never freed
// twice.
func TestCancelIdempotence(t *testing.T) {
	ctx := context.Background()
	tm := timer.New(ctx, 50*time.Millisecond, 1)
	defer tm.Close()

	tsk := tm.ScheduleDelay(time.Hour, func(ctx context.Context, arg any) {}, nil)

	first := tm.Cancel(tsk)
	second := tm.Cancel(tsk)

	assert.Equal(t, timer.StatusFreed, first)
	assert.Equal(t, timer.StatusAlreadyCanceled, second)
}

func TestCancelDuringExecutionDefers(t *testing.T) {
	ctx := context.Background()
	tm := timer.New(ctx, 5*time.Millisecond, 1)
	defer tm.Close()

	started := make(chan struct{})
	release := make(chan struct{})

	tsk := tm.ScheduleDelay(10*time.Millisecond, func(ctx context.Context, arg any) {
		close(started)
		<-release
	}, nil)

	<-started
	status := tm.Cancel(tsk)
	assert.Equal(t, timer.StatusDeferred, status)
	close(release)
}

func TestPurgeCancelsEverything(t *testing.T) {
	ctx := context.Background()
	tm := timer.New(ctx, 10*time.Millisecond, 2)
	defer tm.Close()

	var calls atomic.Int32
	for i := 0; i < 5; i++ {
		tm.ScheduleDelay(time.Hour, func(ctx context.Context, arg any) {
			calls.Add(1)
		}, nil)
	}

	tm.Purge()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}
