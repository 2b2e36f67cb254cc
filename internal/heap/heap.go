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

// Package heap implements a single-arena, boundary-tagged heap manager
// over a break-grown region.
//
// # Design
//
// The arena is one contiguous region claimed from a [brk.Break] and grown
// only at the top. It is tiled by chunks: a header followed by payload,
// threaded into a doubly linked list in ascending address order. The last
// chunk is a zero-size sentinel pinned one header below the break; it is
// never free, which lets the right-coalesce in [Heap.Free] dereference a
// successor unconditionally, and lets extension rebuild the arena top by
// rewriting the old sentinel in place.
//
// Placement is best-fit: the smallest free chunk that can hold the
// request wins, earliest address on ties. A winning chunk larger than the
// request by at least a header plus one quantum is cropped, and freed
// chunks eagerly merge with free neighbors, so no two free chunks are
// ever adjacent.
//
// A Heap is not goroutine-safe. The public façade serializes every
// operation, and every call into the break, through one process-wide
// mutex; nothing here blocks, yields or allocates on the Go heap.
package heap

import (
	"math"

	"github.com/zlatistiv/qalloc/internal/brk"
	"github.com/zlatistiv/qalloc/internal/debug"
	"github.com/zlatistiv/qalloc/internal/xunsafe"
	"github.com/zlatistiv/qalloc/internal/xunsafe/layout"
)

// Heap is a boundary-tagged heap over a single break-grown arena.
type Heap struct {
	_ xunsafe.NoCopy

	brk      brk.Break
	pagesize int

	// The list endpoints. head's identity is fixed at construction; tail
	// is re-seated by every extension.
	head, tail xunsafe.Addr[chunk]

	initialPages, extendMinPages int

	stats Stats
}

// New claims the initial region from b and installs the chunk list: one
// free chunk spanning the whole region, then the tail sentinel.
func New(b brk.Break, opts ...Option) (*Heap, error) {
	h := &Heap{
		brk:            b,
		pagesize:       b.Pagesize(),
		initialPages:   InitialPages,
		extendMinPages: ExtendMinPages,
	}
	for _, opt := range opts {
		opt.apply(h)
	}

	region := h.initialPages * h.pagesize
	base, err := b.Extend(region)
	if err != nil {
		return nil, ErrNoMemory
	}
	debug.Assert(!base.Misaligned(Quantum), "unaligned arena base %v", base)

	h.head = xunsafe.Recast[chunk](base)
	h.tail = xunsafe.Recast[chunk](base.ByteAdd(region - headerSize))

	head := h.head.AssertValid()
	head.size = region - 2*headerSize
	head.free = true
	head.next = h.tail
	head.prev = 0

	tail := h.tail.AssertValid()
	tail.size = 0
	tail.free = false
	tail.next = 0
	tail.prev = h.head

	h.log("init", "[%v, %v), %d pages of %d", base, b.Current(), h.initialPages, h.pagesize)
	h.check()
	return h, nil
}

// Malloc returns a pointer to size usable bytes of indeterminate content,
// aligned to the quantum. A zero size yields a minimal unique block.
func (h *Heap) Malloc(size int) (*byte, error) {
	n, err := h.normalize(size)
	if err != nil {
		return nil, err
	}

	c, err := h.place(n, Quantum)
	if err != nil {
		return nil, err
	}

	h.stats.Mallocs.Inc()
	h.stats.RequestSize.Record(float64(size))
	return payload(c).AssertValid(), nil
}

// AlignedMalloc is Malloc with a caller-chosen alignment, which must be a
// power of two no larger than the page size.
func (h *Heap) AlignedMalloc(align, size int) (*byte, error) {
	if !layout.IsPow2(align) || align > h.pagesize {
		return nil, ErrBadAlign
	}

	n, err := h.normalize(size)
	if err != nil {
		return nil, err
	}

	c, err := h.place(n, max(align, Quantum))
	if err != nil {
		return nil, err
	}

	h.stats.Mallocs.Inc()
	h.stats.RequestSize.Record(float64(size))
	return payload(c).AssertValid(), nil
}

// Free releases p's chunk and eagerly merges it with free neighbors.
// Free of nil is a no-op. p must be live and must have come from this
// heap; there is no misuse detection.
func (h *Heap) Free(p *byte) {
	if p == nil {
		return
	}

	c := chunkOf(p)
	hdr := c.AssertValid()
	debug.Assert(!hdr.free, "free of free chunk %v", c)
	hdr.free = true

	if !hdr.prev.IsNil() && hdr.prev.AssertValid().free {
		c = hdr.prev
		h.absorbNext(c)
		hdr = c.AssertValid()
	}
	// The successor always exists: at worst it is the tail, which is never
	// free, so no nil check is needed.
	if hdr.next.AssertValid().free {
		h.absorbNext(c)
	}

	h.stats.Frees.Inc()
	h.log("free", "%v:%#x", c, hdr.size)
	h.check()
}

// UsableSize returns the capacity of p's chunk: at least the requested
// size rounded up to the quantum, and more when the chunk was too small
// to crop, in which case it keeps its whole size.
func (h *Heap) UsableSize(p *byte) int {
	return chunkOf(p).AssertValid().size
}

// ResizeInPlace resizes p's chunk without moving it when possible: by
// cropping for a shrink, or by absorbing a free successor for a growth
// that fits. It reports false when the caller has to relocate instead.
func (h *Heap) ResizeInPlace(p *byte, size int) (bool, error) {
	n, err := h.normalize(size)
	if err != nil {
		return false, err
	}

	c := chunkOf(p)
	hdr := c.AssertValid()
	next := hdr.next.AssertValid()

	switch delta := n - hdr.size; {
	case delta <= 0:
		h.crop(c, n)
	case next.free && headerSize+next.size >= delta:
		h.absorbNext(c)
		h.crop(c, n)
	default:
		return false, nil
	}

	h.log("resize", "%v:%#x", c, c.AssertValid().size)
	h.check()
	return true, nil
}

// Stats returns the heap's operation counters.
func (h *Heap) Stats() *Stats {
	return &h.stats
}

// normalize rounds a request up to the quantum, rejecting sizes whose
// rounding would leave the signed range.
func (h *Heap) normalize(size int) (int, error) {
	if size < 0 || size > math.MaxInt-(Quantum-1) {
		return 0, ErrNoMemory
	}
	return max(Quantum, layout.RoundUp(size, Quantum)), nil
}

// place picks a chunk for an (align, size) request, carving and cropping
// as needed, and marks it allocated.
func (h *Heap) place(size, align int) (xunsafe.Addr[chunk], error) {
	c, shift := h.bestFit(size, align)
	if c.IsNil() {
		var err error
		c, err = h.extend(size)
		if err != nil {
			return 0, err
		}
		// The extension chunk's payload sits at the old break, which is
		// page-aligned, so it satisfies any permitted alignment as-is.
		shift = alignShift(c, align)
		debug.Assert(shift == 0, "extension payload misaligned for %d", align)
	}

	if shift > 0 {
		c = h.carve(c, shift)
	}
	h.crop(c, size)
	c.AssertValid().free = false

	h.log("place", "%v:%#x align=%d", c, size, align)
	h.check()
	return c, nil
}

// bestFit scans the whole list for the smallest free chunk that can hold
// an align-placed block of the given size. Ties break on lowest address
// because only strict improvements displace the running best.
func (h *Heap) bestFit(size, align int) (best xunsafe.Addr[chunk], shift int) {
	for c := h.head; !c.IsNil(); c = c.AssertValid().next {
		hdr := c.AssertValid()
		if !hdr.free {
			continue
		}
		s := alignShift(c, align)
		if hdr.size < size+s {
			continue
		}
		if best.IsNil() || hdr.size < best.AssertValid().size {
			best, shift = c, s
		}
	}
	return best, shift
}

// alignShift returns how much of c's payload must be ceded to a leading
// fragment for the remainder's payload to land on an align boundary.
// Zero means c works as-is. A nonzero shift is always big enough for the
// leading fragment to be a well-formed free chunk.
func alignShift(c xunsafe.Addr[chunk], align int) int {
	shift := payload(c).Padding(align)
	if shift == 0 {
		return 0
	}
	for shift < headerSize+Quantum {
		shift += align
	}
	return shift
}

// carve splits c at shift bytes into its payload and returns the trailing
// chunk. The leading remainder keeps c's place in the list and stays
// free.
func (h *Heap) carve(c xunsafe.Addr[chunk], shift int) xunsafe.Addr[chunk] {
	hdr := c.AssertValid()
	debug.Assert(shift >= headerSize+Quantum && shift%Quantum == 0, "bad carve %d", shift)

	d := xunsafe.Recast[chunk](payload(c).ByteAdd(shift - headerSize))
	dh := d.AssertValid()
	dh.size = hdr.size - shift
	dh.free = true
	dh.prev = c
	dh.next = hdr.next
	dh.next.AssertValid().prev = d

	hdr.next = d
	hdr.size = shift - headerSize

	h.stats.Splits.Inc()
	return d
}

// crop trims c down to size, carving the leftover into a free chunk
// spliced in after it. If the leftover cannot hold a header plus a
// minimal payload, c keeps its full size. Callable on free and allocated
// chunks alike; a cropped-off fragment merges with a free successor so
// that two free neighbors never touch.
func (h *Heap) crop(c xunsafe.Addr[chunk], size int) {
	hdr := c.AssertValid()
	leftover := hdr.size - size - headerSize
	if leftover < Quantum {
		return
	}

	d := xunsafe.Recast[chunk](payload(c).ByteAdd(size))
	dh := d.AssertValid()
	dh.size = leftover
	dh.free = true
	dh.prev = c
	dh.next = hdr.next
	dh.next.AssertValid().prev = d

	hdr.next = d
	hdr.size = size

	h.stats.Splits.Inc()

	if dh.next.AssertValid().free {
		h.absorbNext(d)
	}
}

// absorbNext merges c's successor into c. The successor must exist and
// must not be the tail sentinel.
func (h *Heap) absorbNext(c xunsafe.Addr[chunk]) {
	hdr := c.AssertValid()
	next := hdr.next.AssertValid()
	debug.Assert(hdr.next != h.tail, "coalesce across the sentinel")

	hdr.size += headerSize + next.size
	hdr.next = next.next
	hdr.next.AssertValid().prev = c

	h.stats.Coalesces.Inc()
}

// extend grows the arena when no candidate fits. The old sentinel is
// reborn as a free chunk covering the fresh bytes, and a new sentinel is
// seated one header below the new break. Neighboring free chunks are left
// alone; the next release merges them.
func (h *Heap) extend(size int) (xunsafe.Addr[chunk], error) {
	if size > math.MaxInt-headerSize-h.pagesize {
		return 0, ErrNoMemory
	}
	n := layout.RoundUp(max(size, h.extendMinPages*h.pagesize)+headerSize, h.pagesize)
	if _, err := h.brk.Extend(n); err != nil {
		return 0, ErrNoMemory
	}

	c := h.tail
	tail := xunsafe.Recast[chunk](xunsafe.Recast[byte](c).ByteAdd(n))

	hdr := c.AssertValid()
	hdr.size = n - headerSize
	hdr.free = true
	hdr.next = tail

	th := tail.AssertValid()
	th.size = 0
	th.free = false
	th.next = 0
	th.prev = c

	h.tail = tail
	h.stats.Extends.Inc()
	h.log("extend", "%v:%#x, break=%v", c, hdr.size, h.brk.Current())
	return c, nil
}

func (h *Heap) log(op, format string, args ...any) {
	debug.Log([]any{"heap %v:%v", h.head, h.brk.Current()}, op, format, args...)
}
