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

package logger

import (
	"sync"

	"github.com/sabouaram/cmutil/logger/appender"
	"github.com/sabouaram/cmutil/logger/entry"
	"github.com/sabouaram/cmutil/logger/level"
)

// ConfLogger is a configured logger entry, produced from a configuration
// file per spec.md §3: a dotted name (empty means root), a level,
// additivity, and per-level appender lists. The per-level appender lists
// are a plain map guarded by a mutex, since nothing about this storage is
// shared across a request's context the way the teacher's config maps are.
type ConfLogger struct {
	name     string
	level    level.Level
	additive bool

	mu        sync.Mutex
	appenders map[level.Level][]appender.Appender
}

// NewConfLogger builds an empty ConfLogger; use AddAppenderRef to attach
// appenders at a threshold level.
func NewConfLogger(name string, lvl level.Level, additive bool) *ConfLogger {
	return &ConfLogger{
		name:      name,
		level:     lvl,
		additive:  additive,
		appenders: make(map[level.Level][]appender.Appender),
	}
}

// Name returns the configured logger's dotted name ("" for root).
func (c *ConfLogger) Name() string { return c.name }

// Level returns the configured threshold.
func (c *ConfLogger) Level() level.Level { return c.level }

// Additive reports whether parent ConfLogger entries still run after this
// one produces output.
func (c *ConfLogger) Additive() bool { return c.additive }

// AddAppenderRef registers a to fire for every level from threshold up to
// FatalLevel, per spec.md §6's appenderref {ref, level?} override: when no
// per-ref override is given, threshold defaults to this ConfLogger's own
// level.
func (c *ConfLogger) AddAppenderRef(a appender.Appender, threshold level.Level) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for lvl := threshold; lvl <= level.FatalLevel; lvl++ {
		c.appenders[lvl] = append(c.appenders[lvl], a)
	}
}

// Log walks the appenders registered for e.Level and appends e to each,
// returning whether at least one appender accepted it, per spec.md
// §4.6.3's "produced any output" additivity check.
func (c *ConfLogger) Log(e entry.Entry) bool {
	if e.Level < c.level {
		return false
	}

	c.mu.Lock()
	list := c.appenders[e.Level]
	c.mu.Unlock()

	if len(list) == 0 {
		return false
	}

	for _, a := range list {
		if err := a.Append(e); err != nil {
			pkgLog.WithError(err).WithField("appender", a.Name()).Error("appender write failed")
		}
	}
	return true
}

// Appenders returns the distinct appenders registered anywhere in this
// ConfLogger, each listed once.
func (c *ConfLogger) Appenders() []appender.Appender {
	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[string]appender.Appender)
	for _, list := range c.appenders {
		for _, a := range list {
			seen[a.Name()] = a
		}
	}

	out := make([]appender.Appender, 0, len(seen))
	for _, a := range seen {
		out = append(out, a)
	}
	return out
}
