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
	"testing"
	"unsafe"

	"github.com/zlatistiv/qalloc"
)

// FuzzRoundTrip drives one allocation through its whole lifecycle with
// fuzzer-chosen sizes and alignment. The interesting outcomes, heap
// corruption or a bogus pointer, surface as crashes or as the content
// checks below.
func FuzzRoundTrip(f *testing.F) {
	f.Add(0, 16, 1)
	f.Add(100, 4096, 64)
	f.Add(1, 1, 4096)
	f.Add(1<<20, 32, 0)

	f.Fuzz(func(t *testing.T, size, resize, align int) {
		if size < 0 || size > 1<<24 || resize < 0 || resize > 1<<24 {
			t.Skip()
		}

		var p unsafe.Pointer
		if align > 0 {
			p = qalloc.AlignedAlloc(align, size)
		} else {
			p = qalloc.Malloc(size)
		}
		if p == nil {
			// Rejected alignment or exhaustion; either way errno is set.
			if qalloc.LastErrno() == qalloc.OK {
				t.Fatal("nil result with no errno")
			}
			return
		}

		n := qalloc.UsableSize(p)
		if n < size {
			t.Fatalf("usable size %d below request %d", n, size)
		}

		b := unsafe.Slice((*byte)(p), n)
		for i := range b {
			b[i] = byte(i)
		}

		q := qalloc.Realloc(p, resize)
		if resize == 0 {
			if q != nil {
				t.Fatal("realloc to zero must free")
			}
			return
		}
		if q == nil {
			qalloc.Free(p)
			return
		}

		keep := min(n, resize)
		c := unsafe.Slice((*byte)(q), keep)
		for i := range c {
			if c[i] != byte(i) {
				t.Fatalf("byte %d lost across realloc", i)
			}
		}

		qalloc.Free(q)
	})
}
