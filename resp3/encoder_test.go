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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeNoArgs(t *testing.T) {
	got := Encode([]byte("PING"))
	assert.Equal(t, "*1\r\n$4\r\nPING\r\n", string(got))
}

func TestEncodeWithArgs(t *testing.T) {
	got := Encode([]byte("SET"), []byte("key1"), []byte("value"))
	assert.Equal(t, "*3\r\n$3\r\nSET\r\n$4\r\nkey1\r\n$5\r\nvalue\r\n", string(got))
}

func TestEncodeBinarySafeArg(t *testing.T) {
	arg := []byte{0x00, '\r', '\n', 0xff}
	got := Encode([]byte("SET"), []byte("k"), arg)
	assert.Equal(t, "*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$4\r\n\x00\r\n\xff\r\n", string(got))
}

func TestEncodeHelloThree(t *testing.T) {
	got := Encode([]byte("HELLO"), []byte("3"))
	assert.Equal(t, "*2\r\n$5\r\nHELLO\r\n$1\r\n3\r\n", string(got))
}

// TestProperty3EncodeDecodeRoundTrip is Property 3: encoding a command and
// feeding the bytes back through a Decoder reconstructs the same command
// as an Array of BlobStrings.
func TestProperty3EncodeDecodeRoundTrip(t *testing.T) {
	cases := []struct {
		cmd  string
		args []string
	}{
		{"PING", nil},
		{"GET", []string{"key1"}},
		{"SET", []string{"key1", "value"}},
		{"HELLO", []string{"3"}},
		{"SUBSCRIBE", []string{"chan1", "chan2"}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.cmd, func(t *testing.T) {
			args := make([][]byte, len(tc.args))
			for i, a := range tc.args {
				args[i] = []byte(a)
			}
			wire := Encode([]byte(tc.cmd), args...)

			d := NewDecoder()
			d.Feed(wire)
			v, err := d.GetObject()
			require.NoError(t, err)

			require.Equal(t, KindArray, v.Kind)
			require.Len(t, v.Array, len(tc.args)+1)
			assert.Equal(t, tc.cmd, string(v.Array[0].Str))
			for i, a := range tc.args {
				assert.Equal(t, a, string(v.Array[i+1].Str))
			}
			assert.Equal(t, 0, d.Buffered())
		})
	}
}
