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
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sabouaram/cmutil/logger/appender"
	"github.com/sabouaram/cmutil/logger/level"
	"github.com/sabouaram/cmutil/logger/pattern"
)

func mustFileAppender(t *testing.T, name, path string) appender.Appender {
	t.Helper()
	p, err := pattern.Compile("%m%n")
	require.NoError(t, err)
	return appender.NewFile(name, p, path)
}

func TestLoggerFiltersBelowMinimumLevel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.log")
	a := mustFileAppender(t, "f", path)
	defer a.Close()

	root := NewConfLogger("", level.WarnLevel, true)
	root.AddAppenderRef(a, level.WarnLevel)

	l := newLogger("app", []*ConfLogger{root})
	assert.False(t, l.IsEnabled(level.InfoLevel))
	assert.True(t, l.IsEnabled(level.WarnLevel))

	l.Info("f.go", 1, "should not appear")
	l.Warn("f.go", 2, "should appear")

	require.Eventually(t, func() bool {
		content, _ := os.ReadFile(path)
		return strings.Contains(string(content), "should appear")
	}, time.Second, 5*time.Millisecond)

	content, _ := os.ReadFile(path)
	assert.NotContains(t, string(content), "should not appear")
	assert.Contains(t, string(content), "should appear")
}

func TestNonAdditiveConfLoggerStopsPropagation(t *testing.T) {
	dir := t.TempDir()
	rootPath := filepath.Join(dir, "root.log")
	childPath := filepath.Join(dir, "child.log")

	rootAppender := mustFileAppender(t, "root-appender", rootPath)
	childAppender := mustFileAppender(t, "child-appender", childPath)
	defer rootAppender.Close()
	defer childAppender.Close()

	root := NewConfLogger("", level.InfoLevel, true)
	root.AddAppenderRef(rootAppender, level.InfoLevel)

	child := NewConfLogger("app.child", level.InfoLevel, false)
	child.AddAppenderRef(childAppender, level.InfoLevel)

	l := newLogger("app.child", []*ConfLogger{root, child})
	l.Info("f.go", 1, "only in child")

	require.Eventually(t, func() bool {
		content, _ := os.ReadFile(childPath)
		return strings.Contains(string(content), "only in child")
	}, time.Second, 5*time.Millisecond)

	rootContent, _ := os.ReadFile(rootPath)
	assert.NotContains(t, string(rootContent), "only in child")
}

func TestLongestPrefixAppliesFirstButAdditiveStillFansOut(t *testing.T) {
	dir := t.TempDir()
	rootPath := filepath.Join(dir, "root.log")
	childPath := filepath.Join(dir, "child.log")

	rootAppender := mustFileAppender(t, "root-appender", rootPath)
	childAppender := mustFileAppender(t, "child-appender", childPath)
	defer rootAppender.Close()
	defer childAppender.Close()

	root := NewConfLogger("", level.InfoLevel, true)
	root.AddAppenderRef(rootAppender, level.InfoLevel)

	child := NewConfLogger("app", level.InfoLevel, true)
	child.AddAppenderRef(childAppender, level.InfoLevel)

	l := newLogger("app.sub", []*ConfLogger{root, child})

	// Longest-prefix-first ordering: "app" must be applied before "".
	require.Len(t, l.confs, 2)
	assert.Equal(t, "app", l.confs[0].Name())
	assert.Equal(t, "", l.confs[1].Name())

	l.Info("f.go", 1, "additive fan-out")

	require.Eventually(t, func() bool {
		c1, _ := os.ReadFile(rootPath)
		c2, _ := os.ReadFile(childPath)
		return strings.Contains(string(c1), "additive fan-out") &&
			strings.Contains(string(c2), "additive fan-out")
	}, time.Second, 5*time.Millisecond)
}

func TestConfLoggerNotAPrefixIsExcluded(t *testing.T) {
	sibling := NewConfLogger("other", level.InfoLevel, true)
	l := newLogger("app.sub", []*ConfLogger{sibling})
	assert.Empty(t, l.confs)
}
