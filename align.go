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

// alignment is the unit every address handed out by the allocator is a
// multiple of, and the granularity of every stored block size. Must be a
// power of two.
const alignment = 16

// alignUp returns the smallest multiple of alignment that is >= n.
func alignUp(n uint64) uint64 {
	return (n + alignment - 1) &^ (alignment - 1)
}

// alignDown returns the largest multiple of alignment that is <= n.
func alignDown(n uint64) uint64 {
	return n &^ (alignment - 1)
}

// alignRange shrinks [begin, end) to the aligned range it contains. The
// result may be empty; callers must check begin < end themselves.
func alignRange(begin, end uint64) (uint64, uint64) {
	return alignUp(begin), alignDown(end)
}
