// Copyright 2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package heap

import (
	"fmt"
	"strings"
)

// Dump renders the chunk list, one chunk per line, for debugging and for
// test failure messages. It allocates; never call it on a release path.
func (h *Heap) Dump() string {
	var sb strings.Builder
	for c := h.head; !c.IsNil(); c = c.AssertValid().next {
		hdr := c.AssertValid()

		state := "used"
		switch {
		case c == h.tail:
			state = "tail"
		case hdr.free:
			state = "free"
		}

		fmt.Fprintf(&sb, "%v: %s size=%#x\n", c, state, hdr.size)
	}
	return sb.String()
}
