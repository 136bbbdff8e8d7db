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

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// decodeAllAtOnce feeds the whole message in a single Feed call and
// returns the first decoded value.
func decodeAllAtOnce(t *testing.T, msg string) *Value {
	t.Helper()
	d := NewDecoder()
	d.Feed([]byte(msg))
	v, err := d.GetObject()
	require.NoError(t, err)
	require.NotNil(t, v)
	return v
}

func TestDecodeSimpleString(t *testing.T) {
	v := decodeAllAtOnce(t, "+PONG\r\n")
	assert.Equal(t, KindSimpleString, v.Kind)
	assert.Equal(t, []byte("PONG"), v.Str)
}

func TestDecodeSimpleError(t *testing.T) {
	msg := "-ERR unknown command `NOT`, with args beginning with: `A`, `COMMAND`, \r\n"
	v := decodeAllAtOnce(t, msg)
	assert.Equal(t, KindSimpleError, v.Kind)
	assert.Equal(t, []byte("ERR"), v.ErrCode)
	assert.Equal(t, []byte("unknown command `NOT`, with args beginning with: `A`, `COMMAND`, "), v.ErrMsg)
}

func TestDecodeInteger(t *testing.T) {
	v := decodeAllAtOnce(t, ":1000\r\n")
	assert.Equal(t, KindInteger, v.Kind)
	assert.EqualValues(t, 1000, v.Int)

	v = decodeAllAtOnce(t, ":-7\r\n")
	assert.EqualValues(t, -7, v.Int)
}

func TestDecodeBlobString(t *testing.T) {
	v := decodeAllAtOnce(t, "$6\r\nfoobar\r\n")
	assert.Equal(t, KindBlobString, v.Kind)
	assert.Equal(t, []byte("foobar"), v.Str)
}

func TestDecodeBlobError(t *testing.T) {
	v := decodeAllAtOnce(t, "!21\r\nSYNTAX invalid syntax\r\n")
	assert.Equal(t, KindBlobError, v.Kind)
	assert.Equal(t, []byte("SYNTAX"), v.ErrCode)
	assert.Equal(t, []byte("invalid syntax"), v.ErrMsg)
}

func TestDecodeVerbatimString(t *testing.T) {
	v := decodeAllAtOnce(t, "=15\r\ntxt:Some string\r\n")
	assert.Equal(t, KindVerbatimString, v.Kind)
	assert.Equal(t, "txt", v.Format)
	assert.Equal(t, []byte("Some string"), v.Str)
}

func TestDecodeBigNumber(t *testing.T) {
	v := decodeAllAtOnce(t, "(3492890328409238509324850943850943825024385\r\n")
	assert.Equal(t, KindBigNumber, v.Kind)
	require.NotNil(t, v.Big)
	assert.Equal(t, "3492890328409238509324850943850943825024385", v.Big.String())
}

func TestDecodeDouble(t *testing.T) {
	v := decodeAllAtOnce(t, ",1.2\r\n")
	assert.Equal(t, KindDouble, v.Kind)
	assert.InDelta(t, 1.2, v.Double, 1e-9)

	v = decodeAllAtOnce(t, ",inf\r\n")
	assert.True(t, math.IsInf(v.Double, 1))

	v = decodeAllAtOnce(t, ",-inf\r\n")
	assert.True(t, math.IsInf(v.Double, -1))

	v = decodeAllAtOnce(t, ",nan\r\n")
	assert.True(t, math.IsNaN(v.Double))
}

func TestDecodeBoolean(t *testing.T) {
	v := decodeAllAtOnce(t, "#t\r\n")
	assert.True(t, v.Bool)

	v = decodeAllAtOnce(t, "#f\r\n")
	assert.False(t, v.Bool)

	d := NewDecoder()
	d.Feed([]byte("#x\r\n"))
	_, err := d.GetObject()
	assert.True(t, IsProtocolError(err))
}

func TestDecodeNull(t *testing.T) {
	v := decodeAllAtOnce(t, "_\r\n")
	assert.True(t, v.IsNull())
}

func TestDecodeArray(t *testing.T) {
	v := decodeAllAtOnce(t, "*2\r\n$3\r\nfoo\r\n$3\r\nbar\r\n")
	assert.Equal(t, KindArray, v.Kind)
	require.Len(t, v.Array, 2)
	assert.Equal(t, []byte("foo"), v.Array[0].Str)
	assert.Equal(t, []byte("bar"), v.Array[1].Str)
}

func TestDecodeNestedArray(t *testing.T) {
	msg := "*2\r\n*2\r\n:1\r\n:2\r\n*2\r\n+a\r\n+b\r\n"
	v := decodeAllAtOnce(t, msg)
	require.Len(t, v.Array, 2)
	assert.EqualValues(t, 1, v.Array[0].Array[0].Int)
	assert.EqualValues(t, 2, v.Array[0].Array[1].Int)
	assert.Equal(t, []byte("a"), v.Array[1].Array[0].Str)
}

func TestDecodeSet(t *testing.T) {
	v := decodeAllAtOnce(t, "~3\r\n:1\r\n:2\r\n:3\r\n")
	assert.Equal(t, KindSet, v.Kind)
	assert.Len(t, v.Array, 3)
}

func TestDecodeMap(t *testing.T) {
	msg := "%7\r\n" +
		"$6\r\nserver\r\n$5\r\nredis\r\n" +
		"$7\r\nversion\r\n$5\r\n6.0.5\r\n" +
		"$5\r\nproto\r\n:3\r\n" +
		"$2\r\nid\r\n:628\r\n" +
		"$4\r\nmode\r\n$10\r\nstandalone\r\n" +
		"$4\r\nrole\r\n$6\r\nmaster\r\n" +
		"$7\r\nmodules\r\n*0\r\n"

	v := decodeAllAtOnce(t, msg)
	assert.Equal(t, KindMap, v.Kind)
	require.Len(t, v.Map, 7)

	byKey := map[string]*Value{}
	for _, e := range v.Map {
		byKey[string(e.Key.Str)] = e.Val
	}
	require.Contains(t, byKey, "proto")
	assert.EqualValues(t, 3, byKey["proto"].Int)
	require.Contains(t, byKey, "modules")
	assert.Empty(t, byKey["modules"].Array)
}

func TestDecodePush(t *testing.T) {
	v := decodeAllAtOnce(t, "*3\r\n$9\r\nsubscribe\r\n$12\r\ntest_channel\r\n:1\r\n")
	// A Push is wire-identical to an Array; the distinguishing tag is '>'.
	assert.Equal(t, KindArray, v.Kind)

	v = decodeAllAtOnce(t, ">3\r\n$9\r\nsubscribe\r\n$12\r\ntest_channel\r\n:1\r\n")
	assert.Equal(t, KindPush, v.Kind)
	assert.Equal(t, []byte("subscribe"), v.PushKind())
}

func TestDecodeNegativeLengthIsProtocolError(t *testing.T) {
	d := NewDecoder()
	d.Feed([]byte("$-1\r\n"))
	_, err := d.GetObject()
	assert.True(t, IsProtocolError(err))
}

func TestDecodeUnknownTagIsProtocolError(t *testing.T) {
	d := NewDecoder()
	d.Feed([]byte("@foo\r\n"))
	_, err := d.GetObject()
	assert.True(t, IsProtocolError(err))
}

// TestProperty1StreamAgnosticDecoding is Property 1 from the testable
// properties: feeding a valid message one byte at a time yields
// Incomplete until the last byte, then the same value as feeding it
// whole.
func TestProperty1StreamAgnosticDecoding(t *testing.T) {
	messages := []string{
		"+OK\r\n",
		"-ERR bad thing happened\r\n",
		":42\r\n",
		"$6\r\nfoobar\r\n",
		"*3\r\n$3\r\nSET\r\n$4\r\nkey1\r\n$5\r\nvalue\r\n",
		"%2\r\n+a\r\n:1\r\n+b\r\n:2\r\n",
		">2\r\n$7\r\nmessage\r\n$5\r\nhello\r\n",
	}

	for _, msg := range messages {
		msg := msg
		t.Run(msg, func(t *testing.T) {
			whole := decodeAllAtOnce(t, msg)

			// k = len(msg) single-byte chunks.
			d := NewDecoder()
			var v *Value
			for i := 0; i < len(msg); i++ {
				d.Feed([]byte{msg[i]})
				got, err := d.GetObject()
				if i < len(msg)-1 {
					// Every proper prefix of a single value is incomplete.
					require.ErrorIs(t, err, ErrIncomplete)
					continue
				}
				require.NoError(t, err)
				v = got
			}
			require.NotNil(t, v)
			assertValueEqual(t, whole, v)
		})
	}
}

// TestProperty2BufferConservation is Property 2: after GetObject returns a
// Value, the remaining buffered bytes equal the input minus exactly the
// encoding of that value.
func TestProperty2BufferConservation(t *testing.T) {
	first := "+OK\r\n"
	second := "$5\r\nhello\r\n"

	d := NewDecoder()
	d.Feed([]byte(first + second))

	v, err := d.GetObject()
	require.NoError(t, err)
	assert.Equal(t, KindSimpleString, v.Kind)
	assert.Equal(t, len(second), d.Buffered())

	v, err = d.GetObject()
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), v.Str)
	assert.Equal(t, 0, d.Buffered())
}

func TestGetObjectResumesAfterIncomplete(t *testing.T) {
	d := NewDecoder()
	d.Feed([]byte("$5\r\nhel"))
	_, err := d.GetObject()
	require.ErrorIs(t, err, ErrIncomplete)

	d.Feed([]byte("lo\r\n"))
	v, err := d.GetObject()
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), v.Str)
}

func assertValueEqual(t *testing.T, want, got *Value) {
	t.Helper()
	require.Equal(t, want.Kind, got.Kind)
	assert.Equal(t, want.Str, got.Str)
	assert.Equal(t, want.ErrCode, got.ErrCode)
	assert.Equal(t, want.ErrMsg, got.ErrMsg)
	assert.Equal(t, want.Int, got.Int)
	require.Equal(t, len(want.Array), len(got.Array))
	for i := range want.Array {
		assertValueEqual(t, want.Array[i], got.Array[i])
	}
	require.Equal(t, len(want.Map), len(got.Map))
	for i := range want.Map {
		assertValueEqual(t, want.Map[i].Key, got.Map[i].Key)
		assertValueEqual(t, want.Map[i].Val, got.Map[i].Val)
	}
}

func TestDecodeErrorIsNotGoError(t *testing.T) {
	// The decoder must hand back a *Value for a server error, never turn
	// it into a Go error return from GetObject.
	d := NewDecoder()
	d.Feed([]byte("-ERR nope\r\n"))
	v, err := d.GetObject()
	require.NoError(t, err)
	assert.True(t, v.IsError())
	assert.False(t, errors.As(err, new(*ProtocolError)))
}
