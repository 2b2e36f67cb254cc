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
	"github.com/zlatistiv/qalloc/internal/xunsafe"
	"github.com/zlatistiv/qalloc/internal/xunsafe/layout"
)

// Quantum is the allocation granule. Every payload address and every
// payload size is a multiple of it.
const Quantum = 16

// chunk is the boundary tag written immediately before every payload.
//
// Chunks tile the arena: the header of a chunk's successor starts exactly
// size bytes past its own payload. The list is bracketed by the heap's
// head (prev is none) and a zero-size sentinel tail (next is none, never
// free) that sits one header below the current break.
type chunk struct {
	next, prev xunsafe.Addr[chunk]
	size       int
	free       bool
}

// headerSize is the size of a chunk header, padded out to the quantum so
// that a header placed on a quantum boundary puts its payload on one too.
var headerSize = layout.RoundUp(layout.Size[chunk](), Quantum)

// payload returns the address of c's payload.
func payload(c xunsafe.Addr[chunk]) xunsafe.Addr[byte] {
	return xunsafe.Recast[byte](c).ByteAdd(headerSize)
}

// chunkOf recovers the chunk whose payload starts at p.
//
// p must have been produced by this heap; there is no validation.
func chunkOf(p *byte) xunsafe.Addr[chunk] {
	return xunsafe.Recast[chunk](xunsafe.AddrOf(p).ByteAdd(-headerSize))
}

// end returns the address one past c's payload, which is also the address
// of c's in-memory successor.
func end(c xunsafe.Addr[chunk]) xunsafe.Addr[byte] {
	return payload(c).ByteAdd(c.AssertValid().size)
}
