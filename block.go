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

package fixalloc

import "unsafe"

// headerSize is the number of bytes prefixed to every block. It equals one
// alignment unit so the usable region following the header stays aligned.
const headerSize = alignment

// nilOff is the null value for block links. Offset zero is a legal header
// address (the aligned begin of the buffer can be offset zero), so zero
// cannot serve as the sentinel.
const nilOff = ^uint64(0)

// blockHeader sits at the front of every block, live or free. While the
// block is live the caller owns the usable bytes after it; the header itself
// is allocator-private. size is the usable byte count and stays valid for
// the whole life of the block, across any number of free/reuse cycles.
type blockHeader struct {
	size uint64
	_    uint64 // pad to one alignment unit
}

// slotNode is the free-list link constructed inside the usable bytes of a
// block parked in the slot table.
type slotNode struct {
	next uint64 // header offset of the next free block, nilOff terminates
}

// treeNode is the red-black node constructed inside the usable bytes of a
// block parked in the free tree. All links are header offsets into the
// backing buffer, never Go pointers, so the garbage collector never sees
// them. The node's key is the size field of the header in front of it.
//
// Blocks hanging off the same chain share the exact size of the tree node
// that owns them; only their same field is meaningful.
type treeNode struct {
	left   uint64
	right  uint64
	parent uint64
	same   uint64
	red    bool
}

// header reinterprets the buffer bytes at off as a block header. off must be
// a header offset previously produced by the arena.
func header(buf []byte, off uint64) *blockHeader {
	return (*blockHeader)(unsafe.Pointer(&buf[off]))
}
