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

package alloc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sabouaram/cmutil/alloc"
	liberr "github.com/sabouaram/cmutil/cerrors"
)

func TestSystem_RoundTrip(t *testing.T) {
	a := alloc.NewSystem()

	b, err := a.Alloc(40)
	require.NoError(t, err)
	require.Len(t, b, 40)

	require.NoError(t, a.Free(b))
}

func TestTracking_AllocFreeRoundTrip(t *testing.T) {
	a := alloc.NewTracking(true)

	var bufs [][]byte
	for i := 0; i < 64; i++ {
		b, err := a.Alloc(uintptr(8 + i))
		require.NoError(t, err)
		require.Len(t, b, 8+i)
		bufs = append(bufs, b)
	}

	assert.Len(t, a.Leaks(), 64)

	for _, b := range bufs {
		require.NoError(t, a.Free(b))
	}

	assert.Empty(t, a.Leaks())
}

func TestTracking_ReuseFreedBlock(t *testing.T) {
	a := alloc.NewTracking(false)

	b1, err := a.Alloc(40)
	require.NoError(t, err)
	require.NoError(t, a.Free(b1))

	b2, err := a.Alloc(40)
	require.NoError(t, err)
	require.Len(t, b2, 40)
	require.NoError(t, a.Free(b2))
}

func TestTracking_GuardOverflowDetected(t *testing.T) {
	a := alloc.NewTracking(true)

	b, err := a.Alloc(40)
	require.NoError(t, err)

	a.DebugCorruptGuard(b, false)

	err = a.Free(b)
	require.True(t, liberr.IsCode(err, alloc.ErrorGuardCorrupt))
}

func TestTracking_GuardUnderflowDetected(t *testing.T) {
	a := alloc.NewTracking(true)

	b, err := a.Alloc(40)
	require.NoError(t, err)

	a.DebugCorruptGuard(b, true)

	err = a.Free(b)
	require.True(t, liberr.IsCode(err, alloc.ErrorGuardCorrupt))
}

func TestTracking_FreeUnknownPointer(t *testing.T) {
	a := alloc.NewTracking(false)

	stray := make([]byte, 8)
	err := a.Free(stray)
	require.True(t, liberr.IsCode(err, alloc.ErrorFreeUnknown))
}

func TestTracking_DoubleFreeRejected(t *testing.T) {
	a := alloc.NewTracking(false)

	b, err := a.Alloc(16)
	require.NoError(t, err)

	require.NoError(t, a.Free(b))

	err = a.Free(b)
	require.True(t, liberr.IsCode(err, alloc.ErrorFreeUnknown))
}

func TestTracking_ExceedsClassLimit(t *testing.T) {
	a := alloc.NewTracking(false)

	_, err := a.Alloc(uintptr(1) << 50)
	require.True(t, liberr.IsCode(err, alloc.ErrorExceedsClassLimit))
}

func TestTracking_ReallocSameClassInPlace(t *testing.T) {
	a := alloc.NewTracking(false)

	b, err := a.Alloc(10)
	require.NoError(t, err)
	copy(b, []byte("0123456789"))

	b2, err := a.Realloc(b, 12)
	require.NoError(t, err)
	require.Len(t, b2, 12)
	assert.Equal(t, []byte("0123456789"), b2[:10])

	require.NoError(t, a.Free(b2))
}

func TestTracking_ReallocCrossClass(t *testing.T) {
	a := alloc.NewTracking(false)

	b, err := a.Alloc(4)
	require.NoError(t, err)
	copy(b, []byte("abcd"))

	b2, err := a.Realloc(b, 4096)
	require.NoError(t, err)
	require.Len(t, b2, 4096)
	assert.Equal(t, []byte("abcd"), b2[:4])

	require.NoError(t, a.Free(b2))
}

func TestTracking_Strdup(t *testing.T) {
	a := alloc.NewTracking(false)

	s, err := a.Strdup("hello")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "hello", *s)

	require.NoError(t, a.FreeString(s))
}

func TestDefaultAllocator(t *testing.T) {
	assert.NotNil(t, alloc.Default())

	tr := alloc.NewTracking(false)
	alloc.SetDefault(tr)

	got, ok := alloc.Default().(*alloc.Tracking)
	require.True(t, ok)
	assert.Same(t, tr, got)
}
