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
	"os"
	"strconv"

	"golang.org/x/sys/unix"

	"github.com/zlatistiv/qalloc/internal/debug"
	"github.com/zlatistiv/qalloc/internal/xunsafe"
)

// check verifies the full chunk-store invariant set after a mutation. It
// compiles down to nothing unless the debug build tag is set.
func (h *Heap) check() {
	if !debug.Enabled {
		return
	}

	forward := 0
	prev := xunsafe.Addr[chunk](0)
	for c := h.head; !c.IsNil(); c = c.AssertValid().next {
		hdr := c.AssertValid()
		forward++

		if hdr.prev != prev {
			fatalCorrupt("asymmetric links", prev, c)
		}
		if !prev.IsNil() {
			if end(prev) != xunsafe.Recast[byte](c) {
				fatalCorrupt("adjacency breach", prev, c)
			}
			if prev.AssertValid().free && hdr.free {
				fatalCorrupt("adjacent free chunks", prev, c)
			}
		}
		if payload(c).Misaligned(Quantum) || hdr.size%Quantum != 0 || hdr.size < 0 {
			fatalCorrupt("misaligned chunk", prev, c)
		}
		if hdr.next.IsNil() && c != h.tail {
			fatalCorrupt("unterminated list", prev, c)
		}
		prev = c
	}

	th := h.tail.AssertValid()
	if th.size != 0 || th.free || !th.next.IsNil() {
		fatalCorrupt("malformed sentinel", th.prev, h.tail)
	}
	if payload(h.tail) != h.brk.Current() {
		fatalCorrupt("sentinel adrift from break", th.prev, h.tail)
	}

	backward := 0
	for c := h.tail; !c.IsNil(); c = c.AssertValid().prev {
		backward++
	}
	if forward != backward {
		fatalCorrupt("traversal mismatch", h.head, h.tail)
	}
}

// fatalCorrupt reports an invariant breach between two adjacent chunks
// and aborts the process.
//
// This allocator may be serving as the process allocator, so the fatal
// path cannot itself allocate: it formats into a fixed buffer and writes
// straight to fd 2.
func fatalCorrupt(what string, c, d xunsafe.Addr[chunk]) {
	var buf [192]byte
	b := append(buf[:0], "qalloc: corrupt heap: "...)
	b = append(b, what...)
	b = appendChunk(b, c)
	b = appendChunk(b, d)
	b = append(b, '\n')
	_, _ = unix.Write(2, b)
	os.Exit(134)
}

func appendChunk(b []byte, c xunsafe.Addr[chunk]) []byte {
	b = append(b, " 0x"...)
	b = strconv.AppendUint(b, uint64(uintptr(c)), 16)
	if c.IsNil() {
		return b
	}

	hdr := c.AssertValid()
	b = append(b, '/')
	b = strconv.AppendUint(b, uint64(uint(hdr.size)), 16)
	if hdr.free {
		b = append(b, " free"...)
	}
	return b
}
