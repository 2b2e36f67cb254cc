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

import "github.com/zlatistiv/qalloc/internal/stats"

// Stats counts heap operations since construction.
//
// Reads are safe at any time; a counter read concurrently with the
// operation it counts may be one behind.
type Stats struct {
	Mallocs   stats.Counter // successful placements, aligned or not
	Frees     stats.Counter // releases of a non-nil pointer
	Extends   stats.Counter // trips into the break
	Splits    stats.Counter // crops and alignment carves
	Coalesces stats.Counter // merges of two adjacent chunks

	RequestSize stats.Mean // pre-rounding request sizes, in bytes
}
