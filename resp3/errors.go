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

import "github.com/pkg/errors"

// ErrIncomplete is returned by Decoder.GetObject when the buffered bytes
// do not yet contain a complete value. It is never returned alongside a
// non-nil Value and never surfaces past the engine: callers feed more
// bytes and call GetObject again.
var ErrIncomplete = errors.New("resp3: incomplete")

// ProtocolError reports a byte sequence that cannot be part of a valid
// RESP3 stream: an unknown type tag, a malformed boolean or length, a
// non-numeric integer, and so on. It is fatal for the connection it was
// produced on.
type ProtocolError struct {
	msg string
}

func (e *ProtocolError) Error() string {
	return "resp3: protocol error: " + e.msg
}

func newProtocolError(format string, args ...any) error {
	return &ProtocolError{msg: errors.Errorf(format, args...).Error()}
}

// IsProtocolError reports whether err is (or wraps) a *ProtocolError.
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}
