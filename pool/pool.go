// Copyright 2025 The packetd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package pool implements a bounded connection pool of live byte streams:
// check-out via Acquire, check-in via Release, and permanent eviction via
// Drop. Unlike the packet-capture connection registries this pool's
// design is grounded on, which key connections by a socket tuple and
// serve a decode-in-place pipeline, this pool checks out whole streams
// to one caller at a time and hands them back.
package pool

import (
	"context"
	"net"
	"strconv"
	"sync"

	"github.com/pkg/errors"

	"github.com/packetd/resp3/common"
)

// ErrPoolClosed is returned by Acquire once Close has been called.
var ErrPoolClosed = errors.New("pool: closed")

// ByteStream is the minimal capability an acquired connection exposes to
// the engine: ordinary stream reads/writes plus a Close for Drop.
type ByteStream interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

// ConnectFunc dials a new ByteStream against host/port. The default,
// DialTCP, wraps net.Dial; tests inject a fake in-process implementation.
type ConnectFunc func(ctx context.Context, host string, port int) (ByteStream, error)

// DialTCP is the default ConnectFunc, an ordinary OS TCP connect.
func DialTCP(ctx context.Context, host string, port int) (ByteStream, error) {
	var d net.Dialer
	return d.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
}

// Pool is a bounded pool of ByteStreams checked out to at most one caller
// each. The zero value is not usable; construct one with New.
//
// |in_use| + |idle| never exceeds MaxConnections; mutations to either
// collection happen only inside Pool methods, under mut, and Acquire
// blocks on cond rather than busy-polling when the pool is at capacity
// and idle is empty.
type Pool struct {
	host           string
	port           int
	maxConnections int
	connect        ConnectFunc

	mut     sync.Mutex
	cond    *sync.Cond
	idle    []ByteStream
	inUse   map[ByteStream]struct{}
	dialing int // in-flight Acquire dials, counted toward capacity
	closed  bool
}

// Options configures New. A zero Options uses MaxConnections = 50 and
// DialTCP.
type Options struct {
	MaxConnections int
	Connect        ConnectFunc
}

// New returns a Pool bound to host:port. No connections are created until
// the first Acquire.
func New(host string, port int, opts Options) *Pool {
	if opts.MaxConnections <= 0 {
		opts.MaxConnections = common.DefaultMaxConnections
	}
	if opts.Connect == nil {
		opts.Connect = DialTCP
	}

	p := &Pool{
		host:           host,
		port:           port,
		maxConnections: opts.MaxConnections,
		connect:        opts.Connect,
		inUse:          make(map[ByteStream]struct{}),
	}
	p.cond = sync.NewCond(&p.mut)
	return p
}

// Acquire returns an idle stream if one is available, dials a new one if
// the pool has spare capacity, or blocks until a release/drop/Close
// unblocks it. It respects ctx cancellation while waiting.
func (p *Pool) Acquire(ctx context.Context) (ByteStream, error) {
	p.mut.Lock()
	for {
		if p.closed {
			p.mut.Unlock()
			return nil, ErrPoolClosed
		}

		if n := len(p.idle); n > 0 {
			s := p.idle[n-1]
			p.idle = p.idle[:n-1]
			p.inUse[s] = struct{}{}
			p.mut.Unlock()
			return s, nil
		}

		if len(p.inUse)+len(p.idle)+p.dialing < p.maxConnections {
			p.dialing++ // reserve a capacity slot while dialing
			p.mut.Unlock()

			s, err := p.connect(ctx, p.host, p.port)

			p.mut.Lock()
			p.dialing--
			if err != nil {
				p.cond.Broadcast()
				p.mut.Unlock()
				return nil, errors.Wrap(err, "pool: connect")
			}
			p.inUse[s] = struct{}{}
			p.mut.Unlock()
			return s, nil
		}

		if !p.waitOrCancel(ctx) {
			p.mut.Unlock()
			return nil, ctx.Err()
		}
	}
}

// waitOrCancel blocks on cond until woken or ctx is done, returning false
// in the latter case. mut must be held on entry; it is held again on
// return.
func (p *Pool) waitOrCancel(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}

	done := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		close(done)
		// Taking mut orders this Broadcast after Wait has registered the
		// waiter, so a cancellation cannot be missed.
		p.mut.Lock()
		p.cond.Broadcast()
		p.mut.Unlock()
	})
	defer stop()

	p.cond.Wait()

	select {
	case <-done:
		return ctx.Err() == nil
	default:
		return true
	}
}

// Release returns stream to idle for reuse. It panics if stream was not
// obtained from this pool via Acquire, surfaced to the caller as an
// ArgumentError per the engine's error-handling contract, since releasing
// an untracked stream is a programmer bug, not a runtime condition.
func (p *Pool) Release(stream ByteStream) {
	p.mut.Lock()
	defer p.mut.Unlock()

	if _, ok := p.inUse[stream]; !ok {
		panic("pool: release of stream not checked out from this pool")
	}
	delete(p.inUse, stream)
	p.idle = append(p.idle, stream)
	p.cond.Broadcast()
}

// Drop permanently removes stream from the pool and closes it. It is
// absent-tolerant: dropping a stream already gone from both idle and
// in_use (e.g. dropped twice) is a no-op.
func (p *Pool) Drop(stream ByteStream) {
	p.mut.Lock()
	defer p.mut.Unlock()

	if _, ok := p.inUse[stream]; ok {
		delete(p.inUse, stream)
		// Already closed out from under a cancelled read is fine here:
		// Close on an already-closed net.Conn just returns an error,
		// which is discarded, not a second attempt at live teardown.
		_ = stream.Close()
		p.cond.Broadcast()
		return
	}

	for i, s := range p.idle {
		if s == stream {
			p.idle = append(p.idle[:i], p.idle[i+1:]...)
			_ = stream.Close()
			p.cond.Broadcast()
			return
		}
	}
}

// Close marks the pool closed, unblocks every pending Acquire with
// ErrPoolClosed, and closes every currently idle stream. Streams still
// checked out are left to their callers to Drop.
func (p *Pool) Close() error {
	p.mut.Lock()
	defer p.mut.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	for _, s := range p.idle {
		_ = s.Close()
	}
	p.idle = nil
	p.cond.Broadcast()
	return nil
}

// Len returns the current |in_use| and |idle| counts, for metrics and
// tests.
func (p *Pool) Len() (inUse, idle int) {
	p.mut.Lock()
	defer p.mut.Unlock()

	return len(p.inUse), len(p.idle)
}
