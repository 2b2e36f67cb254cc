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

package qalloc

import (
	"math"
	"math/bits"
	"sync"
	"unsafe"

	"github.com/zlatistiv/qalloc/internal/brk"
	"github.com/zlatistiv/qalloc/internal/heap"
	"github.com/zlatistiv/qalloc/internal/xunsafe"
)

// The process-wide heap, built on first use. The mutex serializes every
// chunk-store mutation and every trip into the break. It is not
// recursive: no entry point may call another while holding it, which is
// why relocation in [Realloc] is stitched together from locked probes
// rather than done under one big lock.
var (
	mu     sync.Mutex
	once   sync.Once
	global *heap.Heap
)

// ensure returns the process heap, constructing it on first call. If the
// initial region cannot be claimed, every subsequent call fails with
// ENOMEM.
func ensure() *heap.Heap {
	once.Do(func() {
		b, err := brk.Default()
		if err != nil {
			return
		}
		global, _ = heap.New(b)
	})
	if global == nil {
		setErrno(ENOMEM)
	}
	return global
}

// Malloc returns a 16-byte-aligned pointer to at least size usable bytes
// of indeterminate content. A zero size returns a unique minimal block.
// On failure it returns nil and records ENOMEM.
func Malloc(size int) unsafe.Pointer {
	h := ensure()
	if h == nil {
		return nil
	}

	mu.Lock()
	p, err := h.Malloc(size)
	mu.Unlock()
	if err != nil {
		setErrno(errnoOf(err))
		return nil
	}
	return unsafe.Pointer(p)
}

// Free releases a block produced by this package. Free of nil is a
// no-op. Anything else, a foreign pointer or a block already released,
// is undefined behavior.
func Free(p unsafe.Pointer) {
	if p == nil {
		return
	}
	h := ensure()
	if h == nil {
		return
	}

	mu.Lock()
	h.Free((*byte)(p))
	mu.Unlock()
}

// Calloc allocates room for count values of size bytes each, zeroed.
// Overflow of count*size fails with ENOMEM.
func Calloc(count, size int) unsafe.Pointer {
	n, ok := mulSize(count, size)
	if !ok {
		setErrno(ENOMEM)
		return nil
	}

	p := Malloc(n)
	if p != nil && n > 0 {
		// Payload bytes belong to the caller from the moment the lock was
		// dropped, so zeroing needs no lock.
		xunsafe.Clear((*byte)(p), n)
	}
	return p
}

// Realloc resizes p's block to size: in place when a shrink or a free
// neighbor permits, otherwise by relocating and copying. A nil p behaves
// like [Malloc]; a zero size behaves like [Free] and returns nil. On
// failure it returns nil and the original block remains valid.
func Realloc(p unsafe.Pointer, size int) unsafe.Pointer {
	if p == nil {
		return Malloc(size)
	}
	if size == 0 {
		Free(p)
		return nil
	}

	h := ensure()
	if h == nil {
		return nil
	}

	b := (*byte)(p)
	mu.Lock()
	old := h.UsableSize(b)
	ok, err := h.ResizeInPlace(b, size)
	mu.Unlock()
	if err != nil {
		setErrno(errnoOf(err))
		return nil
	}
	if ok {
		return p
	}

	q := Malloc(size)
	if q == nil {
		return nil
	}
	xunsafe.Copy((*byte)(q), b, min(old, size))
	Free(p)
	return q
}

// ReallocArray is [Realloc] for count values of size bytes each, failing
// on overflow before touching the block.
func ReallocArray(p unsafe.Pointer, count, size int) unsafe.Pointer {
	n, ok := mulSize(count, size)
	if !ok {
		setErrno(ENOMEM)
		return nil
	}
	return Realloc(p, n)
}

// UsableSize reports the capacity of p's block, which is at least the
// requested size rounded up to the quantum. UsableSize of nil is zero.
func UsableSize(p unsafe.Pointer) int {
	if p == nil {
		return 0
	}
	h := ensure()
	if h == nil {
		return 0
	}

	mu.Lock()
	defer mu.Unlock()
	return h.UsableSize((*byte)(p))
}

// AlignedAlloc allocates size bytes aligned to align, which must be a
// power of two no larger than the page size. An invalid alignment
// records EINVAL; exhaustion records ENOMEM.
func AlignedAlloc(align, size int) unsafe.Pointer {
	h := ensure()
	if h == nil {
		return nil
	}

	mu.Lock()
	p, err := h.AlignedMalloc(align, size)
	mu.Unlock()
	if err != nil {
		setErrno(errnoOf(err))
		return nil
	}
	return unsafe.Pointer(p)
}

// PosixMemalign is [AlignedAlloc] with posix_memalign's calling
// convention: the result lands in *out and failures surface as the
// returned status code.
func PosixMemalign(out *unsafe.Pointer, align, size int) Errno {
	h := ensure()
	if h == nil {
		return ENOMEM
	}

	mu.Lock()
	p, err := h.AlignedMalloc(align, size)
	mu.Unlock()
	if err != nil {
		e := errnoOf(err)
		setErrno(e)
		return e
	}

	*out = unsafe.Pointer(p)
	return OK
}

// mulSize multiplies two element counts the way calloc must: reporting
// overflow instead of wrapping.
func mulSize(count, size int) (int, bool) {
	if count < 0 || size < 0 {
		return 0, false
	}
	hi, lo := bits.Mul64(uint64(count), uint64(size))
	if hi != 0 || lo > math.MaxInt {
		return 0, false
	}
	return int(lo), true
}
