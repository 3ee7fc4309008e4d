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
	"net"
	"sync"

	"github.com/sabouaram/cmutil/conc/thread"
	"github.com/sabouaram/cmutil/logger/pattern"
)

// Socket is the appender.Appender that broadcasts rendered records to every
// client currently connected to a listening TCP socket, adapted from the
// teacher's logger/hooksyslog transport idiom. Sockets are an out-of-scope
// collaborator per spec.md §1, so this uses stdlib net.Listen directly
// rather than gaining its own socket abstraction package.
type Socket struct {
	base

	ln       net.Listener
	accepter thread.Thread
	cancel   context.CancelFunc

	mu      sync.Mutex
	clients map[net.Conn]struct{}
}

// NewSocket starts listening on host:port and returns a Socket appender
// that accepts clients in a background goroutine. host may be empty for
// INADDR_ANY, per spec.md §6's "accepthost" default.
func NewSocket(name string, p pattern.Pattern, host string, port int) (*Socket, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return nil, err
	}

	s := &Socket{ln: ln, clients: make(map[net.Conn]struct{})}
	s.base = newBase(name, p, s.write)

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.accepter = thread.New(func(ctx context.Context) (any, error) {
		s.acceptLoop(ctx)
		return nil, nil
	}, fmt.Sprintf("%s-Accept", name))
	_ = s.accepter.Start(ctx)

	return s, nil
}

func (s *Socket) acceptLoop(ctx context.Context) {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				return
			}
		}

		s.mu.Lock()
		s.clients[conn] = struct{}{}
		s.mu.Unlock()
	}
}

// write sends text to every connected client, closing and dropping any
// client whose send fails, per spec.md §4.6.4 item 4.
func (s *Socket) write(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for c := range s.clients {
		if _, err := c.Write([]byte(text)); err != nil {
			_ = c.Close()
			delete(s.clients, c)
		}
	}
	return nil
}

// Close stops accepting new clients, closes every connected client, and
// releases the listener.
func (s *Socket) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	_ = s.ln.Close()
	if s.accepter != nil {
		_, _ = s.accepter.Join(context.Background())
	}

	s.mu.Lock()
	for c := range s.clients {
		_ = c.Close()
		delete(s.clients, c)
	}
	s.mu.Unlock()

	return s.base.Close()
}
