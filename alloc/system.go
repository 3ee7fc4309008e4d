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

package alloc

// system is the pass-through allocator: every call delegates to Go's own
// allocator and Free is a no-op, since the garbage collector owns
// reclamation. It exists so production builds pay no tracking overhead
// while still satisfying the Allocator interface every package consumes.
type system struct{}

// NewSystem creates the pass-through Allocator.
func NewSystem() Allocator {
	return system{}
}

func (system) Alloc(n uintptr) ([]byte, error) {
	return make([]byte, n), nil
}

func (system) Calloc(n, size uintptr) ([]byte, error) {
	return make([]byte, n*size), nil
}

func (system) Realloc(b []byte, n uintptr) ([]byte, error) {
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

func (system) Strdup(s string) (*string, error) {
	out := s
	return &out, nil
}

func (system) Free([]byte) error {
	return nil
}
