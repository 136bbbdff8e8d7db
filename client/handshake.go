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
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"

	"github.com/packetd/resp3/resp3"
)

// ServerInfo is the decoded reply of a HELLO 3 handshake.
type ServerInfo struct {
	Server  string   `mapstructure:"server"`
	Version string   `mapstructure:"version"`
	Proto   int64    `mapstructure:"proto"`
	ID      int64    `mapstructure:"id"`
	Mode    string   `mapstructure:"mode"`
	Role    string   `mapstructure:"role"`
	Modules []string `mapstructure:"modules"`
}

var helloCmd = []byte("HELLO")
var helloArg3 = []byte("3")

// decodeHello converts the Map value returned by HELLO 3 into a ServerInfo.
func decodeHello(v *resp3.Value) (ServerInfo, error) {
	if v == nil || v.Kind != resp3.KindMap {
		return ServerInfo{}, errors.Errorf("client: HELLO reply is not a map (got %v)", kindOf(v))
	}

	raw := make(map[string]any, len(v.Map))
	for _, entry := range v.Map {
		key := valueAsAny(entry.Key)
		k, ok := key.(string)
		if !ok {
			continue
		}
		raw[k] = valueAsAny(entry.Val)
	}

	var info ServerInfo
	if err := mapstructure.Decode(raw, &info); err != nil {
		return ServerInfo{}, errors.Wrap(err, "client: decode HELLO reply")
	}
	return info, nil
}

func kindOf(v *resp3.Value) resp3.Kind {
	if v == nil {
		return 0
	}
	return v.Kind
}

// valueAsAny unwraps a decoded resp3.Value into a plain Go value suitable
// for mapstructure. Aggregate kinds recurse; scalar kinds reduce to their
// natural Go representation.
func valueAsAny(v *resp3.Value) any {
	if v == nil {
		return nil
	}
	switch v.Kind {
	case resp3.KindSimpleString, resp3.KindBlobString, resp3.KindVerbatimString:
		return string(v.Str)
	case resp3.KindInteger:
		return v.Int
	case resp3.KindDouble:
		return v.Double
	case resp3.KindBoolean:
		return v.Bool
	case resp3.KindBigNumber:
		return string(v.Str)
	case resp3.KindNull:
		return nil
	case resp3.KindArray, resp3.KindSet, resp3.KindPush:
		out := make([]any, len(v.Array))
		for i, child := range v.Array {
			out[i] = valueAsAny(child)
		}
		return out
	case resp3.KindMap:
		out := make(map[string]any, len(v.Map))
		for _, entry := range v.Map {
			if k, ok := valueAsAny(entry.Key).(string); ok {
				out[k] = valueAsAny(entry.Val)
			}
		}
		return out
	case resp3.KindSimpleError, resp3.KindBlobError:
		return v.Error()
	default:
		return nil
	}
}
