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

package bufbytes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendConsume(t *testing.T) {
	b := New(0)
	b.Append([]byte("hello"))
	b.Append([]byte("world"))
	assert.Equal(t, 10, b.Len())

	got, err := b.Consume(5)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)
	assert.Equal(t, 5, b.Len())

	got, err = b.Consume(5)
	require.NoError(t, err)
	assert.Equal(t, []byte("world"), got)
	assert.Equal(t, 0, b.Len())
}

func TestConsumeUnderflow(t *testing.T) {
	b := New(0)
	b.Append([]byte("ab"))

	_, err := b.Consume(3)
	assert.ErrorIs(t, err, ErrUnderflow)
	// A failed Consume must not perturb the buffer.
	assert.Equal(t, 2, b.Len())

	got, err := b.Consume(2)
	require.NoError(t, err)
	assert.Equal(t, []byte("ab"), got)
}

func TestIndexOf(t *testing.T) {
	b := New(0)
	b.Append([]byte("foo\r\nbar"))

	assert.Equal(t, 3, b.IndexOf([]byte("\r\n")))
	assert.Equal(t, -1, b.IndexOf([]byte("\n\r")))

	_, err := b.Consume(5)
	require.NoError(t, err)
	// IndexOf only searches the unconsumed region.
	assert.Equal(t, -1, b.IndexOf([]byte("\r\n")))
	assert.Equal(t, 1, b.IndexOf([]byte("ar")))
}

func TestAppendAfterConsumeCompacts(t *testing.T) {
	b := New(0)
	b.Append([]byte("aaaaaaaaaa"))
	_, err := b.Consume(9)
	require.NoError(t, err)

	// The next Append slides the one live byte back to index 0, and the
	// queue keeps its FIFO order across the compaction.
	for i := 0; i < 10000; i++ {
		b.Append([]byte("b"))
	}
	assert.Equal(t, 10001, b.Len())
	assert.Zero(t, b.head)

	got, err := b.Consume(b.Len())
	require.NoError(t, err)
	assert.Equal(t, byte('a'), got[0])
	assert.Equal(t, byte('b'), got[1])
}

func TestPeekDoesNotConsume(t *testing.T) {
	b := New(0)
	b.Append([]byte("hello"))

	got, err := b.Peek(3)
	require.NoError(t, err)
	assert.Equal(t, []byte("hel"), got)
	assert.Equal(t, 5, b.Len())
}
