/*
 * Copyright 2021 Dgraph Labs, Inc. and Contributors
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

// global is the process-wide instance used when interposing a single
// allocation entry point. Everything else should take an *Allocator
// explicitly; this exists only for that interception boundary.
var global Allocator

// InitGlobal initializes the process-wide allocator instance. Same
// once-semantics as Init: the first successful call wins, later calls return
// false. Like everything else in this package it is not goroutine-safe; call
// it before any other goroutine can reach Global.
func InitGlobal(buf []byte) bool {
	return global.Init(buf)
}

// Global returns the process-wide allocator instance. Using it before a
// successful InitGlobal yields an uninitialized allocator whose Allocate
// always returns nil.
func Global() *Allocator {
	return &global
}
