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

// numSlots is the number of exact size classes tracked by the slot table.
// With 16-byte alignment this covers sizes up to slotCeiling (16 KiB);
// anything bigger goes to the free tree.
const (
	numSlots    = 1024
	slotCeiling = numSlots * alignment
)

// slotIndex maps a block size to its class index. Valid only for sizes that
// are positive multiples of the alignment unit.
func slotIndex(size uint64) uint64 {
	return size/alignment - 1
}

// slotTable is an array of singly linked free lists, one per exact size
// class. List nodes live inside the usable bytes of the parked blocks, so
// the table itself is nothing but the head offsets.
type slotTable struct {
	buf   []byte
	heads [numSlots]uint64
}

func (s *slotTable) init(buf []byte) {
	s.buf = buf
	for i := range s.heads {
		s.heads[i] = nilOff
	}
}

func (s *slotTable) node(hdrOff uint64) *slotNode {
	return (*slotNode)(unsafe.Pointer(&s.buf[hdrOff+headerSize]))
}

// push links the block at hdrOff as the new head of list idx.
func (s *slotTable) push(idx uint64, hdrOff uint64) {
	s.node(hdrOff).next = s.heads[idx]
	s.heads[idx] = hdrOff
}

// pop detaches and returns the head block of list idx.
func (s *slotTable) pop(idx uint64) (uint64, bool) {
	head := s.heads[idx]
	if head == nilOff {
		return 0, false
	}
	s.heads[idx] = s.node(head).next
	return head, true
}
