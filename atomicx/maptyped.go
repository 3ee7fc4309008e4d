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

// Package atomicx provides a type-safe, generic wrapper around sync.Map for
// the handful of package-internal registries (allocation headers, resolved
// loggers, thread descriptors, scheduled tasks) that need a map shared
// across goroutines without a caller-held lock.
package atomicx

import "sync"

// MapTyped is a concurrency-safe map from K to V. The zero value is an
// empty map ready for use; NewMapTyped returns one.
type MapTyped[K comparable, V any] struct {
	raw sync.Map
}

// NewMapTyped returns an empty MapTyped ready for use.
func NewMapTyped[K comparable, V any]() MapTyped[K, V] {
	return MapTyped[K, V]{}
}

// Load returns the value stored for key, if any.
func (m *MapTyped[K, V]) Load(key K) (value V, ok bool) {
	raw, ok := m.raw.Load(key)
	if !ok {
		var zero V
		return zero, false
	}
	return raw.(V), true
}

// Store sets the value for key, overwriting any previous value.
func (m *MapTyped[K, V]) Store(key K, value V) {
	m.raw.Store(key, value)
}

// LoadOrStore returns the existing value for key if present, otherwise
// stores and returns value.
func (m *MapTyped[K, V]) LoadOrStore(key K, value V) (actual V, loaded bool) {
	raw, loaded := m.raw.LoadOrStore(key, value)
	return raw.(V), loaded
}

// Delete removes key from the map, if present.
func (m *MapTyped[K, V]) Delete(key K) {
	m.raw.Delete(key)
}

// Range calls f for every entry in the map until f returns false, in the
// same no-ordering-guarantee, safe-under-concurrent-mutation terms as
// sync.Map.Range.
func (m *MapTyped[K, V]) Range(f func(key K, value V) bool) {
	m.raw.Range(func(k, v any) bool {
		return f(k.(K), v.(V))
	})
}
