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

// Package brk abstracts the program break: a contiguous region of the
// process address space that grows by whole-page increments and never
// shrinks.
//
// Three implementations are provided. [Sys] moves the real program break
// with the brk syscall and is the default on Linux. [Map] reserves one
// anonymous mapping up front and treats an offset into it as the break;
// it is the default everywhere else. [Sim] is [Map] without the syscalls,
// backed by ordinary Go memory with a configurable page size, for
// deterministic tests.
package brk

import (
	"errors"

	"github.com/zlatistiv/qalloc/internal/xunsafe"
)

// ErrExhausted is returned by [Break.Extend] when the break cannot move.
var ErrExhausted = errors.New("qalloc: cannot extend program break")

// Break is the program-break interface.
//
// Implementations are not goroutine-safe; the caller serializes every
// query and extension together with its own bookkeeping.
type Break interface {
	// Current returns the current break. Memory below the break, and at or
	// above the region base, is owned by the caller.
	Current() xunsafe.Addr[byte]

	// Extend grows the region by n bytes, which must be a positive
	// whole-page multiple, and returns the old break. On failure it
	// returns [ErrExhausted] and the region is unchanged.
	Extend(n int) (xunsafe.Addr[byte], error)

	// Pagesize returns the page size all extensions are quantized to.
	Pagesize() int
}
