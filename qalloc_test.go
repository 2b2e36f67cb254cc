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

package qalloc_test

import (
	"os"
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zlatistiv/qalloc"
)

// These tests all run against the one process-wide heap, so none of them
// may assume anything about its shape, only about the blocks they own.

func bytesOf(p unsafe.Pointer, n int) []byte {
	return unsafe.Slice((*byte)(p), n)
}

func TestMallocFree(t *testing.T) {
	t.Parallel()

	p := qalloc.Malloc(100)
	require.NotNil(t, p)
	assert.Zero(t, uintptr(p)%16)

	b := bytesOf(p, 100)
	for i := range b {
		b[i] = byte(i)
	}
	for i := range b {
		require.Equal(t, byte(i), b[i])
	}

	qalloc.Free(p)
}

func TestMallocZero(t *testing.T) {
	t.Parallel()

	p := qalloc.Malloc(0)
	q := qalloc.Malloc(0)
	require.NotNil(t, p)
	require.NotNil(t, q)
	assert.NotEqual(t, p, q, "zero-size blocks are unique")

	qalloc.Free(p)
	qalloc.Free(q)
}

func TestFreeNil(t *testing.T) {
	t.Parallel()

	qalloc.Free(nil) // must not crash
}

func TestUsableSize(t *testing.T) {
	t.Parallel()

	p := qalloc.Malloc(100)
	require.NotNil(t, p)
	defer qalloc.Free(p)

	n := qalloc.UsableSize(p)
	assert.GreaterOrEqual(t, n, 112, "capacity rounds up to the quantum")
	assert.Zero(t, n%16)
	assert.Zero(t, qalloc.UsableSize(nil))
}

func TestCalloc(t *testing.T) {
	t.Parallel()

	p := qalloc.Calloc(16, 32)
	require.NotNil(t, p)
	defer qalloc.Free(p)

	for i, b := range bytesOf(p, 16*32) {
		require.Zero(t, b, "calloc left byte %d dirty", i)
	}
}

func TestCallocOverflow(t *testing.T) {
	t.Parallel()

	const half = 1 << 62
	assert.Nil(t, qalloc.Calloc(half, half))
	assert.Equal(t, qalloc.ENOMEM, qalloc.LastErrno())
	assert.Nil(t, qalloc.Calloc(-1, 8))
}

func TestReallocNilAndZero(t *testing.T) {
	t.Parallel()

	p := qalloc.Realloc(nil, 64)
	require.NotNil(t, p, "realloc(nil, n) is malloc(n)")

	assert.Nil(t, qalloc.Realloc(p, 0), "realloc(p, 0) is free(p)")
}

func TestReallocIdentity(t *testing.T) {
	t.Parallel()

	p := qalloc.Malloc(100)
	require.NotNil(t, p)
	defer qalloc.Free(p)

	q := qalloc.Realloc(p, qalloc.UsableSize(p))
	assert.Equal(t, p, q, "resizing to the usable size must not move")
}

func TestReallocPreservesContents(t *testing.T) {
	t.Parallel()

	p := qalloc.Malloc(64)
	require.NotNil(t, p)
	for i := range bytesOf(p, 64) {
		bytesOf(p, 64)[i] = byte(i ^ 0x5A)
	}

	// Grow far enough that relocation is plausible either way.
	q := qalloc.Realloc(p, 64<<10)
	require.NotNil(t, q)
	defer qalloc.Free(q)

	for i, b := range bytesOf(q, 64) {
		require.Equal(t, byte(i^0x5A), b, "byte %d lost in realloc", i)
	}
}

func TestReallocArrayOverflow(t *testing.T) {
	t.Parallel()

	p := qalloc.Malloc(16)
	require.NotNil(t, p)
	defer qalloc.Free(p)

	const half = 1 << 62
	assert.Nil(t, qalloc.ReallocArray(p, half, half))
	assert.Equal(t, qalloc.ENOMEM, qalloc.LastErrno())
	// The original block survives a failed resize.
	assert.GreaterOrEqual(t, qalloc.UsableSize(p), 16)
}

func TestAlignedAlloc(t *testing.T) {
	t.Parallel()

	for _, align := range []int{16, 32, 64, 256, 1024, os.Getpagesize()} {
		p := qalloc.AlignedAlloc(align, 100)
		require.NotNil(t, p, "align=%d", align)
		assert.Zero(t, uintptr(p)%uintptr(align), "align=%d", align)
		qalloc.Free(p)
	}
}

func TestAlignedAllocInvalid(t *testing.T) {
	t.Parallel()

	for _, align := range []int{0, 3, 24, -64, 2 * os.Getpagesize()} {
		assert.Nil(t, qalloc.AlignedAlloc(align, 100), "align=%d", align)
		assert.Equal(t, qalloc.EINVAL, qalloc.LastErrno(), "align=%d", align)
	}
}

func TestPosixMemalign(t *testing.T) {
	t.Parallel()

	var p unsafe.Pointer
	require.Equal(t, qalloc.OK, qalloc.PosixMemalign(&p, 64, 100))
	require.NotNil(t, p)
	assert.Zero(t, uintptr(p)%64)
	qalloc.Free(p)

	assert.Equal(t, qalloc.EINVAL, qalloc.PosixMemalign(&p, 3, 100))
}

func TestErrnoMessages(t *testing.T) {
	t.Parallel()

	assert.NotEmpty(t, qalloc.ENOMEM.Error())
	assert.NotEmpty(t, qalloc.EINVAL.Error())
}

// Every goroutine hammers its own blocks; the lock has to keep the
// chunk store coherent across all of them.
func TestConcurrentHammer(t *testing.T) {
	t.Parallel()

	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()

			var blocks []unsafe.Pointer
			for i := range 500 {
				n := (g*31+i*17)%1024 + 1
				p := qalloc.Malloc(n)
				if p == nil {
					continue
				}
				bytesOf(p, n)[0] = byte(g)
				bytesOf(p, n)[n-1] = byte(i)
				blocks = append(blocks, p)

				if len(blocks) > 32 {
					qalloc.Free(blocks[0])
					blocks = blocks[1:]
				}
			}
			for _, p := range blocks {
				qalloc.Free(p)
			}
		}()
	}
	wg.Wait()
}
