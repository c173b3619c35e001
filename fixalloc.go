/*
 * Copyright 2020 Dgraph Labs, Inc. and Contributors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package fixalloc implements a fixed-capacity, single-threaded memory
// allocator. It serves arbitrary-sized allocations out of one caller-supplied
// contiguous buffer, and the serving paths never touch the Go heap: every
// bookkeeping structure, including free-list and tree nodes, is carved out of
// the same buffer, inside memory the caller has freed.
//
// Allocate consults an exact-size slot table, then a size-keyed red-black
// tree of large free blocks, then a bump arena, in that order. Free is the
// reverse: a block that trails the arena cursor is reclaimed by retreating
// the cursor, anything else is parked in the slot table or the tree by size.
//
// The allocator is NOT goroutine-safe. Returned slices alias the backing
// buffer and are safe to unsafe cast to Go struct pointers, the same way
// chunk-allocator packages in this lineage hand out memory.
package fixalloc

import (
	"unsafe"

	"github.com/pkg/errors"
)

// splitMin is the smallest leftover usable size worth splitting off a
// tree-retrieved block. Below this the whole oversized block goes to the
// caller: carving the tail would manufacture a fragment at or under the slot
// ceiling out of a tree-class block, which costs more to track than it is
// worth.
const splitMin = slotCeiling + alignment

// Allocator hands out aligned memory from one fixed buffer. The zero value
// is ready for Init; all other methods require a successful Init first.
type Allocator struct {
	buf   []byte
	base  uintptr
	arena arena
	slots slotTable
	tree  freeTree

	metrics metrics
}

// New is a convenience constructor wrapping Init.
func New(buf []byte) (*Allocator, error) {
	a := new(Allocator)
	if !a.Init(buf) {
		return nil, errors.Errorf("fixalloc: buffer of size %d has no usable aligned range", len(buf))
	}
	return a, nil
}

// Init adopts buf as the backing buffer. The usable range is the largest
// aligned sub-range of buf (aligned by machine address, not slice offset).
// Returns false, without mutation, when the allocator is already initialized
// or the aligned range is empty. Must be called exactly once before any
// other method.
//
// The allocator owns every byte of the aligned range until it is discarded;
// the caller must keep buf alive and must not touch it except through
// returned slices.
func (a *Allocator) Init(buf []byte) bool {
	if a.buf != nil || len(buf) == 0 {
		return false
	}
	base := uintptr(unsafe.Pointer(&buf[0]))
	begin, end := alignRange(uint64(base), uint64(base)+uint64(len(buf)))
	if begin >= end {
		return false
	}
	a.buf = buf
	a.base = base
	a.arena.init(begin-uint64(base), end-uint64(base))
	a.slots.init(buf)
	a.tree.init(buf)
	a.metrics.init()
	return true
}

// Allocate returns a slice of at least size bytes aliasing the backing
// buffer, aligned to the alignment unit, or nil when size <= 0 or the
// allocator is exhausted. The slice length is the block's full usable size,
// which can exceed the request on the tree path.
func (a *Allocator) Allocate(size int) []byte {
	if a.buf == nil || size <= 0 {
		return nil
	}
	n := alignUp(uint64(size))

	if idx := slotIndex(n); idx < numSlots {
		if off, ok := a.slots.pop(idx); ok {
			a.metrics.hit(slotHit, n)
			return a.usable(off, n)
		}
	} else if off, ok := a.tree.retrieveLowerBound(n); ok {
		off = a.split(off, n)
		got := header(a.buf, off).size
		a.metrics.hit(treeHit, got)
		return a.usable(off, got)
	}

	off, ok := a.arena.cut(headerSize + n)
	if !ok {
		a.metrics.count(allocFail)
		return nil
	}
	header(a.buf, off).size = n
	a.metrics.hit(arenaCut, n)
	return a.usable(off, n)
}

// Free returns the block backing b to the allocator. A nil slice is a no-op.
// Passing a slice not obtained from this allocator, or freeing the same
// block twice, is undefined behavior and is not checked.
func (a *Allocator) Free(b []byte) {
	if a.buf == nil || b == nil {
		return
	}
	off := a.headerOffset(b)
	size := header(a.buf, off).size
	a.metrics.freed(size)
	if a.arena.shrinkIfTrailing(off, size) {
		a.metrics.count(freeShrink)
		return
	}
	a.park(off, size)
}

// Realloc resizes the block backing b. A nil b behaves as Allocate; a
// newSize <= 0 behaves as Free and returns nil. The block is resized in
// place when the rounded size is unchanged or when it trails the arena
// cursor; otherwise the contents move to a fresh block. When the fallback
// allocation fails, nil is returned and b remains valid and untouched.
func (a *Allocator) Realloc(b []byte, newSize int) []byte {
	if a.buf == nil {
		return nil
	}
	if b == nil {
		return a.Allocate(newSize)
	}
	if newSize <= 0 {
		a.Free(b)
		return nil
	}

	n := alignUp(uint64(newSize))
	off := a.headerOffset(b)
	hdr := header(a.buf, off)
	old := hdr.size
	if n == old {
		return a.usable(off, old)
	}

	if a.arena.trailing(off, old) {
		if n < old {
			a.arena.retreat(old - n)
			hdr.size = n
			a.metrics.count(reallocInPlace)
			a.metrics.freed(old - n)
			return a.usable(off, n)
		}
		if _, ok := a.arena.cut(n - old); ok {
			hdr.size = n
			a.metrics.count(reallocInPlace)
			a.metrics.hit(arenaCut, n-old)
			return a.usable(off, n)
		}
	}

	nb := a.Allocate(newSize)
	if nb == nil {
		return nil
	}
	copy(nb, b[:min(old, n)])
	a.Free(b)
	a.metrics.count(reallocMove)
	return nb
}

// Capacity returns the total number of bytes between the aligned bounds.
func (a *Allocator) Capacity() uint64 {
	return a.arena.capacity()
}

// Remaining returns the number of never-carved bytes left in the arena.
// Freed blocks parked in the slot table or the tree are not counted.
func (a *Allocator) Remaining() uint64 {
	return a.arena.remaining()
}

// InUse returns the usable byte count of all currently live blocks.
func (a *Allocator) InUse() uint64 {
	return a.metrics.inUse
}

// split truncates a tree-retrieved block to the rounded request n when the
// leftover is big enough to stay useful, filing the remainder as a free
// block of its own. Otherwise the block is handed out whole.
func (a *Allocator) split(off, n uint64) uint64 {
	hdr := header(a.buf, off)
	total := hdr.size
	if total == n || total-n-headerSize < splitMin {
		return off
	}
	rest := off + headerSize + n
	header(a.buf, rest).size = total - n - headerSize
	hdr.size = n
	a.park(rest, total-n-headerSize)
	a.metrics.count(splits)
	return off
}

// park files a free block into the slot table or the tree by its size.
func (a *Allocator) park(off, size uint64) {
	if idx := slotIndex(size); idx < numSlots {
		a.slots.push(idx, off)
		a.metrics.count(freeSlot)
		return
	}
	a.tree.insert(off)
	a.metrics.count(freeTreeIns)
}

// usable returns the caller-visible slice of the block at off.
func (a *Allocator) usable(off, size uint64) []byte {
	start := off + headerSize
	return a.buf[start : start+size : start+size]
}

// headerOffset recovers the header offset of the block backing b from the
// slice's own address.
func (a *Allocator) headerOffset(b []byte) uint64 {
	return uint64(uintptr(unsafe.Pointer(&b[0]))-a.base) - headerSize
}
