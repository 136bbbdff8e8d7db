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
	"strconv"

	"github.com/valyala/bytebufferpool"
)

// Encode serializes a command and its arguments as a RESP3 array of bulk
// strings:
//
//	*<N+1>\r\n$<len(cmd)>\r\n<cmd>\r\n$<len(arg0)>\r\n<arg0>\r\n ...
//
// where N is len(args). Encode is a pure, total function: any byte
// sequence is a valid command or argument. Multi-word server commands
// (e.g. "CLIENT GETNAME") are sent as a command plus leading argument(s);
// Encode never splits cmd itself.
func Encode(cmd []byte, args ...[]byte) []byte {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	writeArrayHeader(buf, len(args)+1)
	writeBulkString(buf, cmd)
	for _, arg := range args {
		writeBulkString(buf, arg)
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out
}

func writeArrayHeader(buf *bytebufferpool.ByteBuffer, n int) {
	buf.WriteByte('*')
	buf.WriteString(strconv.Itoa(n))
	buf.Write(crlf)
}

func writeBulkString(buf *bytebufferpool.ByteBuffer, b []byte) {
	buf.WriteByte('$')
	buf.WriteString(strconv.Itoa(len(b)))
	buf.Write(crlf)
	buf.Write(b)
	buf.Write(crlf)
}
