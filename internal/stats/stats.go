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

// Package stats provides instrumentation counter primitives.
//
// Counters record what the heap has done (how many placements, splits,
// extensions), never how fragmented it is; they exist so that callers and
// tests can tell whether an operation went to the operating system.
package stats

import (
	"math"
	"sync/atomic"
)

// Counter is a monotonic operation counter.
//
// The zero value is ready to use. Concurrent increments are safe.
type Counter struct {
	n atomic.Int64
}

// Inc adds one to the counter.
func (c *Counter) Inc() {
	c.n.Add(1)
}

// Get returns the current count.
func (c *Counter) Get() int64 {
	return c.n.Load()
}

// Mean tracks an average statistic.
//
// The zero value is ready to use. Concurrent writes are safe, but calling
// [Mean.Get] concurrently with other operations may result in torn reads
// (and thus inaccuracy).
type Mean struct {
	total, samples atomicFloat64
}

// Record records a sample.
func (m *Mean) Record(sample float64) {
	m.total.add(sample)
	m.samples.add(1)
}

// Get returns the mean value of this statistic.
func (m *Mean) Get() float64 {
	total, samples := m.total.load(), m.samples.load()
	if samples == 0 {
		return 0
	}
	return total / samples
}

// atomicFloat64 is an atomic float64 variable.
type atomicFloat64 atomic.Uint64

func (x *atomicFloat64) load() float64 {
	return math.Float64frombits((*atomic.Uint64)(x).Load())
}

// add atomically adds delta to this value and returns the result.
//
// This will not compile down to a single instruction, because no one
// provides that. Instead, this just does a CAS loop.
func (x *atomicFloat64) add(delta float64) (new float64) {
retry:
	old := (*atomic.Uint64)(x).Load()
	new = math.Float64frombits(old) + delta
	if !(*atomic.Uint64)(x).CompareAndSwap(old, math.Float64bits(new)) {
		goto retry
	}

	return new
}
