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

const (
	// InitialPages is how many pages [New] claims by default.
	InitialPages = 256

	// ExtendMinPages is the default floor on every arena extension, so a
	// run of small misses does not degenerate into one syscall each.
	ExtendMinPages = 16
)

// Option is a configuration setting for [New].
type Option struct{ apply func(*Heap) }

// WithInitialPages overrides how many pages the heap claims up front.
//
// Mostly useful in tests, which want a small arena they can exhaust.
func WithInitialPages(pages int) Option {
	return Option{func(h *Heap) { h.initialPages = pages }}
}

// WithExtendMinPages overrides the minimum number of pages added per
// extension.
func WithExtendMinPages(pages int) Option {
	return Option{func(h *Heap) { h.extendMinPages = pages }}
}
