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

//go:build linux

package brk

import (
	"golang.org/x/sys/unix"

	"github.com/zlatistiv/qalloc/internal/debug"
	"github.com/zlatistiv/qalloc/internal/xunsafe"
)

// Sys moves the real program break.
//
// The Go runtime allocates through mmap and never touches the break, so
// the segment between the initial break and wherever we push it belongs to
// this allocator alone.
type Sys struct {
	pagesize int
}

// NewSys returns a [Break] over the process's brk segment.
func NewSys() *Sys {
	return &Sys{pagesize: unix.Getpagesize()}
}

// Current implements [Break].
func (s *Sys) Current() xunsafe.Addr[byte] {
	// brk(0) is the portable way to query: the kernel clamps an impossible
	// request and hands back the break as it stands.
	cur, _, _ := unix.Syscall(unix.SYS_BRK, 0, 0, 0)
	return xunsafe.Addr[byte](cur)
}

// Extend implements [Break].
func (s *Sys) Extend(n int) (xunsafe.Addr[byte], error) {
	debug.Assert(n > 0 && n%s.pagesize == 0, "bad extension size %d", n)

	old := s.Current()
	want := uintptr(old.ByteAdd(n))
	got, _, _ := unix.Syscall(unix.SYS_BRK, want, 0, 0)
	if got < want {
		// The kernel reports failure by returning the unmoved break.
		return 0, ErrExhausted
	}

	s.log("extend", "%v+%#x -> %v", old, n, xunsafe.Addr[byte](got))
	return old, nil
}

// Pagesize implements [Break].
func (s *Sys) Pagesize() int {
	return s.pagesize
}

func (s *Sys) log(op, format string, args ...any) {
	debug.Log([]any{"brk"}, op, format, args...)
}
