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

// Package xunsafe provides a more convenient interface for performing unsafe
// operations than Go's built-in package unsafe.
//
// Every raw-address operation the allocator performs lives behind this
// package. Outside of it, package unsafe appears only where pointers cross
// an API boundary as unsafe.Pointer: the public façade and the cgo shim.
package xunsafe

import (
	"sync"
	"unsafe"

	"github.com/zlatistiv/qalloc/internal/xunsafe/layout"
)

// NoCopy is a type that go vet will complain about having been moved.
//
// It does so by being an array of [sync.Mutex], which vet's copylocks
// check treats as a lock.
type NoCopy [0]sync.Mutex

// Int is any integer type.
type Int = layout.Int

// Cast performs an unchecked pointer cast.
func Cast[To, From any](p *From) *To {
	return (*To)(unsafe.Pointer(p))
}

// Slice constructs a slice of length n over the memory starting at *p.
func Slice[P ~*E, E any, I Int](p P, n I) []E {
	return unsafe.Slice((*E)(p), n)
}

// Copy copies n values from *src to *dst, which may not overlap.
func Copy[P ~*E, E any, I Int](dst, src P, n I) {
	copy(Slice(dst, n), Slice(src, n))
}

// Clear zeroes n values starting at *p.
func Clear[P ~*E, E any, I Int](p P, n I) {
	clear(Slice(p, n))
}
