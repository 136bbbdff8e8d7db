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

// Package bufbytes implements an append-only tail, consume-from-head byte
// queue. It backs the RESP3 decoder, which must be able to feed bytes in
// and pull a variable number of them back out without ever copying more
// than necessary.
package bufbytes

import (
	"bytes"

	"github.com/pkg/errors"
)

// ErrUnderflow is returned by Consume when fewer than n bytes are buffered.
var ErrUnderflow = errors.New("bufbytes: underflow")

// compactThreshold bounds how much dead space (already-consumed bytes) is
// allowed to accumulate at the head of buf before Append pays to slide the
// live region back down to index 0.
const compactThreshold = 4096

// Bytes is a FIFO byte queue. The zero value is ready to use. It is not
// safe for concurrent use; callers serialize access (the decoder owns one
// per connection).
type Bytes struct {
	buf  []byte
	head int // index of the first unconsumed byte
}

// New returns an empty queue. The size hint preallocates backing capacity
// but places no upper bound on how much may be appended.
func New(size int) *Bytes {
	if size < 0 {
		size = 0
	}
	return &Bytes{buf: make([]byte, 0, size)}
}

// Append copies p onto the tail of the queue.
func (b *Bytes) Append(p []byte) {
	if len(p) == 0 {
		return
	}
	b.compactIfWorthwhile()
	b.buf = append(b.buf, p...)
}

// Len returns the number of unconsumed bytes currently buffered.
func (b *Bytes) Len() int {
	return len(b.buf) - b.head
}

// Consume removes and returns exactly the first n bytes. It fails with
// ErrUnderflow, leaving the queue untouched, if fewer than n bytes are
// available.
func (b *Bytes) Consume(n int) ([]byte, error) {
	if n < 0 {
		return nil, errors.Errorf("bufbytes: negative consume %d", n)
	}
	if n > b.Len() {
		return nil, ErrUnderflow
	}

	out := make([]byte, n)
	copy(out, b.buf[b.head:b.head+n])
	b.head += n
	return out, nil
}

// Peek returns a read-only view of the first n unconsumed bytes without
// removing them. The slice aliases the internal buffer and is only valid
// until the next Append/Consume call.
func (b *Bytes) Peek(n int) ([]byte, error) {
	if n < 0 || n > b.Len() {
		return nil, ErrUnderflow
	}
	return b.buf[b.head : b.head+n], nil
}

// IndexOf returns the offset of the first occurrence of needle within the
// unconsumed region, or -1 if it is not present.
func (b *Bytes) IndexOf(needle []byte) int {
	return bytes.Index(b.buf[b.head:], needle)
}

// compactIfWorthwhile slides the live region back to index 0 once the dead
// space at the head grows large enough to matter, keeping Append amortized
// O(1) without holding onto an ever-growing backing array.
func (b *Bytes) compactIfWorthwhile() {
	if b.head == 0 {
		return
	}
	if b.head < compactThreshold && b.head < len(b.buf)/2 {
		return
	}
	n := copy(b.buf, b.buf[b.head:])
	b.buf = b.buf[:n]
	b.head = 0
}
