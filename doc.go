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

// Package qalloc is a drop-in replacement for the process heap allocator.
//
// It provides the conventional allocation entry points, [Malloc], [Free],
// [Calloc], [Realloc], [AlignedAlloc] and friends, over a single
// boundary-tagged arena grown by moving the program break. Placement is
// best-fit with eager coalescing; every operation is serialized through
// one process-wide mutex, so the package behaves like a conforming system
// allocator for single-threaded programs and for multi-threaded programs
// whose allocation traffic tolerates a single lock.
//
// The arena is claimed lazily on the first allocation and handed back to
// the kernel only at process exit; the heap never shrinks.
//
// # Deployment
//
// To interpose on an arbitrary dynamically linked program, build the cgo
// shim as a shared object and preload it:
//
//	go build -buildmode=c-shared -o libqalloc.so ./cmd/libqalloc
//	LD_PRELOAD=$PWD/libqalloc.so some-program
//
// Go programs can also call the package directly, but memory returned
// here is invisible to the Go garbage collector: it must not hold Go
// pointers, and every block must be released explicitly.
//
// # Errors
//
// Failed operations return nil and record a C-style error code, readable
// with [LastErrno]. There is no detection of double frees, overruns or
// foreign pointers; misuse is undefined behavior, as it is for the
// allocator this package replaces.
package qalloc
