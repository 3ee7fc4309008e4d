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

package appender_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sabouaram/cmutil/logger/appender"
	"github.com/sabouaram/cmutil/logger/entry"
	"github.com/sabouaram/cmutil/logger/level"
	"github.com/sabouaram/cmutil/logger/pattern"
)

func TestConsoleSyncAppendWritesImmediately(t *testing.T) {
	p, err := pattern.Compile("%m%n")
	require.NoError(t, err)

	c := appender.NewConsole("stdout", p, false, false)
	defer c.Close()

	assert.Equal(t, "stdout", c.Name())
	assert.NoError(t, c.Append(entry.New("app", level.InfoLevel, "f.go", 1, "hello", nil, "main")))
}

func TestConsoleAsyncFlush(t *testing.T) {
	p, err := pattern.Compile("%m%n")
	require.NoError(t, err)

	c := appender.NewConsole("stdout-async", p, false, false)
	defer c.Close()

	require.NoError(t, c.SetAsync(10))
	require.NoError(t, c.Append(entry.New("app", level.InfoLevel, "f.go", 1, "buffered", nil, "main")))
	require.NoError(t, c.Flush())
}
