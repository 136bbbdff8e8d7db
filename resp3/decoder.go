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

package resp3

import "github.com/packetd/resp3/internal/bufbytes"

// Decoder is a resumable RESP3 parser. It turns bytes fed to it via Feed
// into complete Values, regardless of how the underlying stream happened
// to chunk them: a read may end mid-length-header, mid-payload, or
// between elements of an aggregate. One Decoder is owned by exactly one
// connection for its whole lifetime; it is never shared or reused across
// connections.
type Decoder struct {
	buf *bufbytes.Bytes
}

// NewDecoder returns a Decoder with an empty internal buffer.
func NewDecoder() *Decoder {
	return &Decoder{buf: bufbytes.New(4096)}
}

// Feed appends newly read bytes to the decoder's internal buffer. It
// never fails and never blocks.
func (d *Decoder) Feed(b []byte) {
	d.buf.Append(b)
}

// GetObject consumes as many buffered bytes as needed to produce the next
// complete value.
//
// If the buffer does not yet contain a complete value, it returns
// (nil, ErrIncomplete) and leaves every buffered byte untouched: the
// caller feeds more bytes and calls GetObject again, which resumes
// exactly where the previous attempt left off. Any other non-nil error
// is a *ProtocolError and is fatal for the connection this decoder
// belongs to; the decoder must not be reused afterwards.
//
// On success, exactly the bytes comprising the returned value (type tag,
// content, and any trailing CRLFs) are consumed; everything else remains
// buffered for the next call.
func (d *Decoder) GetObject() (*Value, error) {
	snapshot, err := d.buf.Peek(d.buf.Len())
	if err != nil {
		// Len() bytes are always available to Peek by construction.
		return nil, err
	}

	cur := &cursor{b: snapshot}
	v, perr := cur.parseValue(0)
	if perr != nil {
		return nil, perr
	}

	if _, cerr := d.buf.Consume(cur.pos); cerr != nil {
		return nil, cerr
	}
	return v, nil
}

// Buffered returns the number of bytes currently held but not yet
// consumed into a value. Exposed for tests asserting buffer conservation.
func (d *Decoder) Buffered() int {
	return d.buf.Len()
}
