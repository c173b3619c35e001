/*
 * Copyright 2019 Dgraph Labs, Inc. and Contributors
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

//go:build !linux

package buffer

// Provides versions of Mmap and Munmap for platforms without the anonymous
// mmap path. The buffer comes from the Go heap instead; page alignment is
// approximated with a 4 KiB boundary.

func Mmap(size int) ([]byte, error) {
	return Aligned(size, 4096), nil
}

func Munmap(b []byte) error {
	return nil
}
