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

package heap

import "errors"

var (
	// ErrNoMemory is returned when the arena cannot satisfy a request and
	// cannot be grown, or when a request's rounded size would leave the
	// signed range. The arena stays consistent either way.
	ErrNoMemory = errors.New("qalloc: out of memory")

	// ErrBadAlign is returned for an alignment that is not a power of two
	// or exceeds the page size.
	ErrBadAlign = errors.New("qalloc: unsupported alignment")
)
