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

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dgraph-io/fixalloc/buffer"
)

func TestGlobal(t *testing.T) {
	// Before initialization the global instance serves nothing.
	require.Nil(t, Global().Allocate(16))

	require.True(t, InitGlobal(buffer.Aligned(4096, alignment)))
	require.False(t, InitGlobal(buffer.Aligned(4096, alignment)), "second init must fail")

	b := Global().Allocate(16)
	require.NotNil(t, b)
	Global().Free(b)
}
