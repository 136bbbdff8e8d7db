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

package cmd

import (
	"fmt"
	"strings"

	"github.com/packetd/resp3/resp3"
)

// formatValue renders a decoded resp3.Value as human-readable text for
// terminal output. Scalars render on one line; aggregates put each child
// on its own line, recursing with indentation.
func formatValue(v *resp3.Value, depth int) string {
	if v == nil {
		return "(nil)"
	}
	indent := strings.Repeat("  ", depth)
	switch v.Kind {
	case resp3.KindSimpleString, resp3.KindBlobString, resp3.KindVerbatimString:
		return string(v.Str)
	case resp3.KindSimpleError, resp3.KindBlobError:
		return fmt.Sprintf("(error) %s", v.Error())
	case resp3.KindInteger:
		return fmt.Sprintf("(integer) %d", v.Int)
	case resp3.KindDouble:
		return fmt.Sprintf("(double) %v", v.Double)
	case resp3.KindBoolean:
		return fmt.Sprintf("(boolean) %v", v.Bool)
	case resp3.KindBigNumber:
		return fmt.Sprintf("(big number) %s", string(v.Str))
	case resp3.KindNull:
		return "(nil)"
	case resp3.KindArray, resp3.KindSet, resp3.KindPush:
		if len(v.Array) == 0 {
			return "(empty array)"
		}
		var b strings.Builder
		fmt.Fprintf(&b, "%s)", kindLabel(v.Kind))
		for i, child := range v.Array {
			fmt.Fprintf(&b, "\n%s%d) %s", indent+"  ", i+1, formatValue(child, depth+1))
		}
		return b.String()
	case resp3.KindMap:
		if len(v.Map) == 0 {
			return "(empty map)"
		}
		var b strings.Builder
		b.WriteString("(map)")
		for _, entry := range v.Map {
			fmt.Fprintf(&b, "\n%s%s => %s", indent+"  ", formatValue(entry.Key, 0), formatValue(entry.Val, depth+1))
		}
		return b.String()
	default:
		return fmt.Sprintf("(unknown kind %v)", v.Kind)
	}
}

func kindLabel(k resp3.Kind) string {
	switch k {
	case resp3.KindSet:
		return "(set"
	case resp3.KindPush:
		return "(push"
	default:
		return "(array"
	}
}
