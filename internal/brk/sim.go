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
	"github.com/zlatistiv/qalloc/internal/debug"
	"github.com/zlatistiv/qalloc/internal/xunsafe"
)

// Sim is a break backed by ordinary Go memory, for tests.
//
// Its page size is whatever the test asks for, so scenarios written
// against a 4096-byte page behave identically on every platform. The
// backing slice pins the region for the garbage collector; a Sim must
// stay reachable for as long as any chunk address derived from it.
type Sim struct {
	region   []byte
	base     xunsafe.Addr[byte]
	brk      int
	pagesize int
}

// NewSim returns a simulated break over reserve bytes with the given page
// size. The base is aligned to a page boundary.
func NewSim(reserve, pagesize int) *Sim {
	backing := make([]byte, reserve+pagesize)
	base := xunsafe.AddrOf(&backing[0]).RoundUpTo(pagesize)

	return &Sim{
		region:   backing,
		base:     base,
		pagesize: pagesize,
	}
}

// Current implements [Break].
func (s *Sim) Current() xunsafe.Addr[byte] {
	return s.base.ByteAdd(s.brk)
}

// Extend implements [Break].
func (s *Sim) Extend(n int) (xunsafe.Addr[byte], error) {
	debug.Assert(n > 0 && n%s.pagesize == 0, "bad extension size %d", n)

	// The backing slice is reserve bytes plus one page of slack for
	// aligning the base; the break never passes base+reserve.
	if s.brk+n > len(s.region)-s.pagesize {
		return 0, ErrExhausted
	}

	old := s.Current()
	s.brk += n
	return old, nil
}

// Pagesize implements [Break].
func (s *Sim) Pagesize() int {
	return s.pagesize
}
