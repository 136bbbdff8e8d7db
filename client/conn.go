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

package client

import (
	"context"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"

	"github.com/packetd/resp3/pool"
	"github.com/packetd/resp3/resp3"
)

// conn pairs a checked-out byte stream with the decoder that owns its
// in-flight parse state. One decoder is created per connection and lives
// for the connection's whole lifetime; it is never shared across
// connections or touched by any task other than the one currently holding
// the connection, per the engine's single-owner discipline.
type conn struct {
	stream  pool.ByteStream
	decoder *resp3.Decoder
	tag     string // short correlation id for log lines, derived from a counter via xxhash
}

// Read and Write satisfy pool.ByteStream so *conn can itself be handed
// back to the pool as the checked-out value.
func (c *conn) Read(p []byte) (int, error)  { return c.stream.Read(p) }
func (c *conn) Write(p []byte) (int, error) { return c.stream.Write(p) }
func (c *conn) Close() error                { return c.stream.Close() }

var connSeq atomic.Uint64

// wrapConnect adapts a pool.ConnectFunc so every dialed stream is wrapped
// in a *conn carrying a fresh decoder and a log-correlation tag.
func wrapConnect(dial pool.ConnectFunc) pool.ConnectFunc {
	return func(ctx context.Context, host string, port int) (pool.ByteStream, error) {
		stream, err := dial(ctx, host, port)
		if err != nil {
			return nil, err
		}
		sum := xxhash.Sum64String(host) ^ connSeq.Add(1)
		return &conn{
			stream:  stream,
			decoder: resp3.NewDecoder(),
			tag:     tagFromSum(sum),
		}, nil
	}
}

const hexDigits = "0123456789abcdef"

// tagFromSum renders the low 32 bits of sum as an 8-character hex tag,
// avoiding a fmt.Sprintf allocation on what is a per-connection, not
// per-call, hot path.
func tagFromSum(sum uint64) string {
	var buf [8]byte
	for i := 7; i >= 0; i-- {
		buf[i] = hexDigits[sum&0xf]
		sum >>= 4
	}
	return string(buf[:])
}
