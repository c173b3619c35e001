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

package buffer

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Mmap returns an anonymous page-aligned mapping of size bytes, suitable as
// an allocator backing buffer that never touches the Go heap. Release it
// with Munmap once the allocator is discarded.
func Mmap(size int) ([]byte, error) {
	b, err := unix.Mmap(-1, 0, size,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, errors.Wrapf(err, "while mmapping %d bytes", size)
	}
	return b, nil
}

// Munmap unmaps a buffer returned by Mmap.
func Munmap(b []byte) error {
	if err := unix.Munmap(b); err != nil {
		return errors.Wrap(err, "while munmapping buffer")
	}
	return nil
}
