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

package appender

import (
	"context"
	"fmt"
	"time"

	"github.com/sabouaram/cmutil/conc/mutex"
	"github.com/sabouaram/cmutil/conc/thread"
	"github.com/sabouaram/cmutil/logger/entry"
	"github.com/sabouaram/cmutil/logger/pattern"
)

const flushInterval = 100 * time.Millisecond

// record is one buffered (rendered string, captured local time) pair, per
// spec.md §4.6.4's async buffer contents.
type record struct {
	text string
	at   time.Time
}

// sinkFunc performs the concrete I/O a base delegates to: writing one
// already-rendered record to the real destination (stdout, a file, a
// socket's connected clients).
type sinkFunc func(text string) error

// base is the async pipeline every concrete appender embeds: a compiled
// pattern, a mutex-guarded buffer list, a double-buffered flush list, and
// an optional background writer thread, exactly per spec.md §4.6.4.
type base struct {
	name    string
	pattern pattern.Pattern
	sink    sinkFunc

	mu mutex.Recursive

	bufferSize int
	buffer     []record
	flushBuf   []record

	async  bool
	writer thread.Thread
	cancel context.CancelFunc
}

func newBase(name string, p pattern.Pattern, sink sinkFunc) base {
	return base{
		name:    name,
		pattern: p,
		sink:    sink,
		mu:      mutex.New(),
	}
}

func (b *base) Name() string { return b.name }

// Append renders e and either flushes it inline (sync mode) or buffers it,
// flushing immediately if the buffer reached bufferSize, per spec.md
// §4.6.4.
func (b *base) Append(e entry.Entry) error {
	text := e.Render(b.pattern)

	b.mu.Lock(mutex.CurrentOwner())
	defer b.mu.Unlock(mutex.CurrentOwner())

	if !b.async {
		return b.sink(text)
	}

	b.buffer = append(b.buffer, record{text: text, at: e.Time})
	if b.bufferSize > 0 && len(b.buffer) >= b.bufferSize {
		return b.flushLocked()
	}
	return nil
}

// Flush drains any buffered records to the sink.
func (b *base) Flush() error {
	b.mu.Lock(mutex.CurrentOwner())
	defer b.mu.Unlock(mutex.CurrentOwner())
	return b.flushLocked()
}

// flushLocked assumes b.mu is already held by the caller. It swaps the
// live buffer out before draining it; b.mu stays held for the whole drain,
// so Append calls wait until the sink has taken every record.
func (b *base) flushLocked() error {
	if len(b.buffer) == 0 {
		return nil
	}
	b.flushBuf, b.buffer = b.buffer, b.flushBuf[:0]

	var firstErr error
	for _, rec := range b.flushBuf {
		if err := b.sink(rec.text); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	b.flushBuf = b.flushBuf[:0]
	return firstErr
}

// SetAsync switches the appender into async mode and spawns the
// <name>-AsyncWriter thread that wakes every 100ms to flush, per spec.md
// §4.6.4.
func (b *base) SetAsync(bufferSize int) error {
	b.mu.Lock(mutex.CurrentOwner())
	b.async = true
	b.bufferSize = bufferSize
	if b.buffer == nil {
		b.buffer = make([]record, 0, bufferSize)
	}
	if b.flushBuf == nil {
		b.flushBuf = make([]record, 0, bufferSize)
	}
	alreadyRunning := b.writer != nil && b.writer.IsRunning()
	b.mu.Unlock(mutex.CurrentOwner())

	if alreadyRunning {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	b.writer = thread.New(func(ctx context.Context) (any, error) {
		ticker := time.NewTicker(flushInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = b.Flush()
				return nil, nil
			case <-ticker.C:
				_ = b.Flush()
			}
		}
	}, fmt.Sprintf("%s-AsyncWriter", b.name))

	return b.writer.Start(ctx)
}

// Close stops the writer thread (if any) and drains any pending buffer.
func (b *base) Close() error {
	if b.cancel != nil {
		b.cancel()
	}
	if b.writer != nil {
		_, _ = b.writer.Join(context.Background())
	}
	return b.Flush()
}
