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

package brk

import (
	"golang.org/x/sys/unix"

	"github.com/zlatistiv/qalloc/internal/debug"
	"github.com/zlatistiv/qalloc/internal/xunsafe"
	"github.com/zlatistiv/qalloc/internal/xunsafe/layout"
)

// DefaultReserve is how much contiguous address space [NewMap] reserves
// when the caller does not say otherwise.
//
// The reservation is address space, not memory: untouched pages cost
// nothing until the first write faults them in.
const DefaultReserve = 1 << 30

// Map simulates a break inside a single anonymous mapping reserved up
// front. The mapping is never unmapped; the kernel reclaims it on exit.
type Map struct {
	region   []byte
	brk      int
	pagesize int
}

// NewMap reserves n bytes of address space and returns a [Break] whose
// break starts at the reservation's base.
func NewMap(n int) (*Map, error) {
	pagesize := unix.Getpagesize()
	n = layout.RoundUp(n, pagesize)

	region, err := unix.Mmap(-1, 0, n,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, err
	}

	return &Map{region: region, pagesize: pagesize}, nil
}

// Current implements [Break].
func (m *Map) Current() xunsafe.Addr[byte] {
	return xunsafe.AddrOf(&m.region[0]).ByteAdd(m.brk)
}

// Extend implements [Break].
func (m *Map) Extend(n int) (xunsafe.Addr[byte], error) {
	debug.Assert(n > 0 && n%m.pagesize == 0, "bad extension size %d", n)

	if n > len(m.region)-m.brk {
		return 0, ErrExhausted
	}

	old := m.Current()
	m.brk += n
	return old, nil
}

// Pagesize implements [Break].
func (m *Map) Pagesize() int {
	return m.pagesize
}
