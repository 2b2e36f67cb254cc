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

// Command libqalloc builds the allocator as a preloadable shared object,
// so that every dynamically resolved allocation call in a target program
// binds here instead of to the system allocator:
//
//	go build -buildmode=c-shared -o libqalloc.so ./cmd/libqalloc
//	LD_PRELOAD=$PWD/libqalloc.so some-program
//
// The exported symbols carry the standard C contracts; failures store
// into the caller's errno.
package main

/*
#include <stddef.h>
#include <errno.h>

static void qalloc_seterrno(int e) { errno = e; }
*/
import "C"

import (
	"unsafe"

	"github.com/zlatistiv/qalloc"
)

func fail() {
	C.qalloc_seterrno(C.int(qalloc.LastErrno()))
}

//export malloc
func malloc(size C.size_t) unsafe.Pointer {
	p := qalloc.Malloc(int(size))
	if p == nil {
		fail()
	}
	return p
}

//export free
func free(p unsafe.Pointer) {
	qalloc.Free(p)
}

//export calloc
func calloc(nmemb, size C.size_t) unsafe.Pointer {
	p := qalloc.Calloc(int(nmemb), int(size))
	if p == nil {
		fail()
	}
	return p
}

//export realloc
func realloc(p unsafe.Pointer, size C.size_t) unsafe.Pointer {
	q := qalloc.Realloc(p, int(size))
	if q == nil && size != 0 {
		fail()
	}
	return q
}

//export reallocarray
func reallocarray(p unsafe.Pointer, nmemb, size C.size_t) unsafe.Pointer {
	q := qalloc.ReallocArray(p, int(nmemb), int(size))
	if q == nil && nmemb != 0 && size != 0 {
		fail()
	}
	return q
}

//export malloc_usable_size
func malloc_usable_size(p unsafe.Pointer) C.size_t {
	return C.size_t(qalloc.UsableSize(p))
}

//export aligned_alloc
func aligned_alloc(align, size C.size_t) unsafe.Pointer {
	p := qalloc.AlignedAlloc(int(align), int(size))
	if p == nil {
		fail()
	}
	return p
}

//export memalign
func memalign(align, size C.size_t) unsafe.Pointer {
	p := qalloc.AlignedAlloc(int(align), int(size))
	if p == nil {
		fail()
	}
	return p
}

//export posix_memalign
func posix_memalign(out *unsafe.Pointer, align, size C.size_t) C.int {
	// posix_memalign reports through its return value and leaves errno
	// alone.
	return C.int(qalloc.PosixMemalign(out, int(align), int(size)))
}

func main() {}
