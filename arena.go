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

// arena is the primary source of fresh memory: a bump cursor between two
// fixed bounds. All three fields are byte offsets into the backing buffer,
// aligned to the alignment unit. begin <= cur <= end at all times.
type arena struct {
	begin uint64
	end   uint64
	cur   uint64
}

func (ar *arena) init(begin, end uint64) {
	ar.begin = begin
	ar.end = end
	ar.cur = begin
}

// cut advances the cursor by n bytes and returns the pre-advance offset.
// Returns false with no mutation when fewer than n bytes remain.
func (ar *arena) cut(n uint64) (uint64, bool) {
	if ar.cur+n > ar.end {
		return 0, false
	}
	off := ar.cur
	ar.cur += n
	return off, true
}

// trailing reports whether the block at hdrOff with the given usable size is
// the most recently carved block, i.e. its usable end coincides with the
// cursor.
func (ar *arena) trailing(hdrOff, size uint64) bool {
	return hdrOff+headerSize+size == ar.cur
}

// shrinkIfTrailing retreats the cursor over the block at hdrOff when it is
// trailing, reclaiming header and usable bytes in one step. Returns false
// with no mutation otherwise.
func (ar *arena) shrinkIfTrailing(hdrOff, size uint64) bool {
	if !ar.trailing(hdrOff, size) {
		return false
	}
	ar.cur = hdrOff
	return true
}

// retreat moves the cursor back by n bytes. Callers must only ever give back
// bytes they obtained from cut.
func (ar *arena) retreat(n uint64) {
	ar.cur -= n
}

// remaining returns the number of uncarved bytes.
func (ar *arena) remaining() uint64 {
	return ar.end - ar.cur
}

// capacity returns the total number of usable bytes between the bounds.
func (ar *arena) capacity() uint64 {
	return ar.end - ar.begin
}
