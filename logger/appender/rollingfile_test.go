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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sabouaram/cmutil/logger/appender"
	"github.com/sabouaram/cmutil/logger/entry"
	"github.com/sabouaram/cmutil/logger/level"
	"github.com/sabouaram/cmutil/logger/pattern"
)

func TestDefaultRollPatternByTerm(t *testing.T) {
	assert.Equal(t, "app.log.%Y", appender.DefaultRollPattern("app.log", appender.RollYear))
	assert.Equal(t, "app.log.%Y-%m", appender.DefaultRollPattern("app.log", appender.RollMonth))
	assert.Equal(t, "app.log.%Y-%m-%d", appender.DefaultRollPattern("app.log", appender.RollDate))
	assert.Equal(t, "app.log.%Y-%m-%d_%H", appender.DefaultRollPattern("app.log", appender.RollHour))
	assert.Equal(t, "app.log.%Y-%m-%d_%H%M", appender.DefaultRollPattern("app.log", appender.RollMinute))
}

func TestRollingFileWritesToTarget(t *testing.T) {
	p, err := pattern.Compile("%m%n")
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")

	r := appender.NewRollingFile("rolling", p, path, appender.RollDate, "")
	require.NoError(t, r.Append(entry.New("app", level.InfoLevel, "f.go", 1, "one", nil, "main")))
	require.NoError(t, r.Append(entry.New("app", level.InfoLevel, "f.go", 2, "two", nil, "main")))
	require.NoError(t, r.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(data))
}
