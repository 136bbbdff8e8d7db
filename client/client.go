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

// Package client implements the request/reply engine tying the
// connection pool, the per-connection decoder and the push-callback
// registry together. Callers issue commands through Call; Send and
// Receive are exposed separately for callers that need to pipeline a
// write against a later read on the same connection.
package client

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/packetd/resp3/common"
	"github.com/packetd/resp3/internal/pubsub"
	"github.com/packetd/resp3/internal/rescue"
	"github.com/packetd/resp3/logger"
	"github.com/packetd/resp3/pool"
	"github.com/packetd/resp3/resp3"
)

// ErrArgument reports a caller misuse of the Engine API, e.g. calling
// Receive on a stream the Engine did not hand out.
var ErrArgument = errors.New("client: argument error")

// pushCommands is the set of push-inducing command words: a call whose
// command is one of these only ever expects a push in reply, never a
// plain value, so receive is invoked with pushOnly set.
var pushCommands = map[string]struct{}{
	"SUBSCRIBE":    {},
	"PSUBSCRIBE":   {},
	"UNSUBSCRIBE":  {},
	"PUNSUBSCRIBE": {},
}

var tracer = otel.Tracer("github.com/packetd/resp3/client")

// Options configures New. A zero Options dials plain TCP with the
// default pool capacity and no tracing/metrics overrides beyond the
// package defaults.
type Options struct {
	MaxConnections int
	Connect        pool.ConnectFunc
	ReadBufferSize int

	// Extra carries forward-compatible, loosely-typed tuning knobs for
	// callers that construct an Engine from a parsed config document
	// rather than Go literals (the CLI's --read-buffer-size flag fills
	// it). A "readBufferSize" int entry overrides
	// ReadBufferSize; unrecognized keys are ignored.
	Extra common.Options
}

// Engine is the request/reply core of the client: it owns a connection
// pool and a push-callback registry, and implements Call, Send and
// Receive against connections it checks out of the pool.
type Engine struct {
	host string
	port int

	pool    *pool.Pool
	push    *pubsub.Registry
	readBuf int

	helloOnce   sync.Once
	helloResult error
}

// New returns an Engine bound to host:port. No connection is dialed until
// the first call.
func New(host string, port int, opts Options) *Engine {
	if opts.ReadBufferSize <= 0 {
		opts.ReadBufferSize = common.ReadWriteBlockSize
	}
	if opts.Extra != nil {
		if n, err := opts.Extra.GetInt("readBufferSize"); err == nil && n > 0 {
			opts.ReadBufferSize = n
		}
	}
	connect := opts.Connect
	if connect == nil {
		connect = pool.DialTCP
	}

	e := &Engine{
		host:    host,
		port:    port,
		pool:    pool.New(host, port, pool.Options{MaxConnections: opts.MaxConnections, Connect: wrapConnect(connect)}),
		push:    pubsub.New(),
		readBuf: opts.ReadBufferSize,
	}
	return e
}

// RegisterPushCallback appends fn to the ordered list of callbacks
// invoked whenever a Push value with the given kind arrives. There is no
// removal, matching the source this engine is modeled on.
func (e *Engine) RegisterPushCallback(kind []byte, fn func(*resp3.Value)) {
	e.push.Subscribe(string(kind), func(msg any) {
		fn(msg.(*resp3.Value))
	})
}

// Close releases the underlying pool, closing every idle connection.
// Connections still checked out by in-flight calls are left for their
// callers to finish and release or drop.
func (e *Engine) Close() error {
	return e.pool.Close()
}

// Call acquires a connection, writes the encoded command, reads until a
// non-push reply is produced (or, for a push-inducing command, until the
// first push), releases the connection and returns the result.
//
// On a TransportError or ProtocolError the connection is dropped instead
// of released, and the error is returned; the caller owns retry policy.
func (e *Engine) Call(ctx context.Context, cmd []byte, args ...[]byte) (result *resp3.Value, err error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "resp3.Call", trace.WithAttributes(
		attribute.String("resp3.command", string(cmd)),
	))
	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		callDuration.WithLabelValues(string(cmd)).Observe(time.Since(start).Seconds())
		callsTotal.WithLabelValues(string(cmd), outcomeLabel(err)).Inc()
	}()

	if err := e.ensureHello(ctx); err != nil {
		return nil, err
	}

	c, err := e.sendRaw(ctx, cmd, args...)
	if err != nil {
		return nil, err
	}

	pushOnly := isPushCommand(cmd)
	result, err = e.Receive(ctx, c, pushOnly)
	if err != nil {
		e.dropConnection(c)
		return nil, err
	}

	e.pool.Release(c)
	return result, nil
}

func (e *Engine) dropConnection(stream pool.ByteStream) {
	connectionsDropped.Inc()
	e.pool.Drop(stream)
}

// Drop permanently evicts a connection obtained via Send from the pool,
// closing it. Callers that pair a raw Send/Receive (rather than Call) use
// this instead of Release whenever a read was interrupted mid-value, for
// instance a long-lived subscription connection torn down by context
// cancellation, since the decoder's in-flight continuation state must not
// be handed to a future caller.
func (e *Engine) Drop(stream pool.ByteStream) {
	e.dropConnection(stream)
}

// Release returns a connection obtained via Send to the pool for reuse.
// Callers must only call Release after a clean, value-boundary-aligned
// read; see Drop for the mid-value case.
func (e *Engine) Release(stream pool.ByteStream) {
	e.pool.Release(stream)
}

func outcomeLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func isPushCommand(cmd []byte) bool {
	_, ok := pushCommands[strings.ToUpper(string(cmd))]
	return ok
}

// Send acquires a connection, writes the encoded request to it, and
// returns the connection used so the caller can pair it with Receive. On
// a write failure the connection is dropped before the error is
// returned.
//
// Send runs the HELLO 3 handshake first if it has not yet run on this
// Engine, same as Call, since it is this engine's only acquire-and-write
// entry point onto the pool.
func (e *Engine) Send(ctx context.Context, cmd []byte, args ...[]byte) (pool.ByteStream, error) {
	if err := e.ensureHello(ctx); err != nil {
		return nil, err
	}
	return e.sendRaw(ctx, cmd, args...)
}

// sendRaw is Send without the handshake gate, used internally by the
// handshake itself so doHello's own HELLO request does not recurse back
// into ensureHello.
func (e *Engine) sendRaw(ctx context.Context, cmd []byte, args ...[]byte) (pool.ByteStream, error) {
	c, err := e.pool.Acquire(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "client: acquire connection")
	}

	wire := resp3.Encode(cmd, args...)
	if _, err := c.Write(wire); err != nil {
		e.dropConnection(c)
		return nil, errors.Wrap(err, "client: write request")
	}
	return c, nil
}

// Receive reads from conn's decoder until a complete value is produced,
// routing every Push value encountered along the way to its registered
// callbacks before continuing. If pushOnly is true, Receive returns nil
// as soon as the first Push is dispatched rather than reading further.
//
// Receive never releases or drops conn; the caller decides its fate.
func (e *Engine) Receive(ctx context.Context, stream pool.ByteStream, pushOnly bool) (*resp3.Value, error) {
	c, ok := stream.(*conn)
	if !ok {
		return nil, errors.Wrap(ErrArgument, "client: receive on a stream this engine did not hand out")
	}

	buf := make([]byte, e.readBuf)
	for {
		v, err := c.decoder.GetObject()
		switch {
		case err == nil:
			if v.Kind == resp3.KindPush {
				e.dispatchPush(v)
				if pushOnly {
					return nil, nil
				}
				continue
			}
			return v, nil

		case errors.Is(err, resp3.ErrIncomplete):
			n, rerr := readWithCancel(ctx, stream, buf)
			if n > 0 {
				c.decoder.Feed(buf[:n])
			}
			if rerr != nil {
				logger.Warnf("client[%s]: read failed on conn %s: %v", e.host, c.tag, rerr)
				return nil, errors.Wrap(rerr, "client: read reply")
			}
			continue

		default:
			logger.Warnf("client[%s]: decode failed on conn %s: %v", e.host, c.tag, err)
			return nil, err
		}
	}
}

// readWithCancel reads from stream, but closes it and returns ctx.Err()
// if ctx is done before the read completes: stream.Read has no notion of
// context, so the only way to unblock it early is to close the underlying
// connection out from under it. Per the cancellation discipline, the
// caller always drops a connection readWithCancel closed this way, which
// means Close is called a second time from Pool.Drop; a double close on
// a net.Conn just returns an already-closed error that is discarded, so
// this is harmless.
func readWithCancel(ctx context.Context, stream pool.ByteStream, buf []byte) (int, error) {
	type result struct {
		n   int
		err error
	}
	resCh := make(chan result, 1)
	go func() {
		defer rescue.HandleCrash()
		n, err := stream.Read(buf)
		resCh <- result{n, err}
	}()

	select {
	case r := <-resCh:
		return r.n, r.err
	case <-ctx.Done():
		_ = stream.Close()
		return 0, ctx.Err()
	}
}

func (e *Engine) dispatchPush(v *resp3.Value) {
	kind := v.PushKind()
	if kind == nil {
		logger.Warnf("client[%s]: push value with no recognizable kind, dropping", e.host)
		return
	}
	pushesDispatched.WithLabelValues(string(kind)).Inc()
	e.push.Publish(string(kind), v)
}

// ensureHello performs the HELLO 3 handshake exactly once per Engine,
// gating both Call and Send so no command reaches the server ahead of
// it. Subsequent calls observe the cached result.
func (e *Engine) ensureHello(ctx context.Context) error {
	e.helloOnce.Do(func() {
		e.helloResult = e.doHello(ctx)
	})
	return e.helloResult
}

func (e *Engine) doHello(ctx context.Context) error {
	c, err := e.sendRaw(ctx, helloCmd, helloArg3)
	if err != nil {
		return err
	}

	reply, err := e.Receive(ctx, c, false)
	if err != nil {
		e.dropConnection(c)
		return err
	}

	info, err := decodeHello(reply)
	if err != nil {
		e.dropConnection(c)
		return err
	}

	logger.Infof("client[%s:%d]: handshake complete, server=%s version=%s proto=%d mode=%s",
		e.host, e.port, info.Server, info.Version, info.Proto, info.Mode)

	e.pool.Release(c)
	return nil
}
