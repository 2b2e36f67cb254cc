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
	"errors"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/zlatistiv/qalloc/internal/heap"
)

// Errno is a C-compatible error code. The zero value means success.
type Errno int32

// The codes this package can record. Values come from the platform's C
// library so the cgo shim can store them into errno unmodified.
const (
	OK     Errno = 0
	ENOMEM Errno = Errno(unix.ENOMEM)
	EINVAL Errno = Errno(unix.EINVAL)
)

// Error implements [error].
func (e Errno) Error() string {
	return unix.Errno(e).Error()
}

// indicator is the process-wide error indicator, set by every failing
// entry point and never cleared by a successful one, mirroring errno.
var indicator atomic.Int32

// LastErrno returns the code recorded by the most recent failing
// operation, or [OK] if nothing has failed yet.
func LastErrno() Errno {
	return Errno(indicator.Load())
}

func setErrno(e Errno) {
	indicator.Store(int32(e))
}

// errnoOf translates an internal heap error.
func errnoOf(err error) Errno {
	switch {
	case errors.Is(err, heap.ErrBadAlign):
		return EINVAL
	default:
		return ENOMEM
	}
}
