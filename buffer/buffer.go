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

// Package buffer sources backing buffers for fixalloc allocators. The
// allocator itself never allocates or frees its buffer; these helpers cover
// the common ways of getting one.
package buffer

import "unsafe"

// Aligned returns a heap-backed slice of exactly size bytes whose first byte
// sits on an address aligned to align. It over-allocates by one alignment
// unit and slides the start forward to the next boundary.
func Aligned(size, align int) []byte {
	if align <= 0 || align&(align-1) != 0 {
		panic("buffer: alignment must be a power of two")
	}
	raw := make([]byte, size+align)
	ptr := uintptr(unsafe.Pointer(&raw[0]))
	off := int((ptr+uintptr(align-1))&^uintptr(align-1) - ptr)
	return raw[off : off+size : off+size]
}
