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
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMetricsPaths(t *testing.T) {
	a := newTestAllocator(t, 1<<20)

	b1 := a.Allocate(64)
	b2 := a.Allocate(64)
	m := a.Metrics()
	require.Equal(t, uint64(2), m.ArenaCuts())
	require.Zero(t, m.SlotHits())

	a.Free(b1) // slot (b2 trails it)
	a.Free(b2) // arena shrink
	b3 := a.Allocate(64)
	m = a.Metrics()
	require.Equal(t, uint64(1), m.SlotHits())
	a.Free(b3)

	big := a.Allocate(20000)
	a.Allocate(16) // barrier
	a.Free(big)
	a.Allocate(20000)
	m = a.Metrics()
	require.Equal(t, uint64(1), m.TreeHits())
}

func TestMetricsReuseRatio(t *testing.T) {
	a := newTestAllocator(t, 1<<20)
	require.Zero(t, a.Metrics().ReuseRatio())

	b := a.Allocate(64)
	a.Allocate(64)
	a.Free(b)
	a.Allocate(64)

	// One slot hit out of three served allocations.
	require.InDelta(t, 1.0/3.0, a.Metrics().ReuseRatio(), 1e-9)
}

func TestMetricsString(t *testing.T) {
	a := newTestAllocator(t, 1<<20)
	b := a.Allocate(1024)
	a.Free(b)

	s := a.Metrics().String()
	require.Contains(t, s, "slot-hits")
	require.Contains(t, s, "arena-cuts")
	require.Contains(t, s, "in-use: 0 B")
	require.Contains(t, s, "peak: 1.0 KiB")

	h := a.Metrics().SizeHistogram()
	require.True(t, strings.Contains(h, "Range"), h)
}

func TestMetricsSnapshotIsolated(t *testing.T) {
	a := newTestAllocator(t, 1<<20)
	a.Allocate(64)
	m := a.Metrics()
	a.Allocate(64)
	// The snapshot does not move with the allocator.
	require.Equal(t, uint64(1), m.ArenaCuts())
	require.Equal(t, uint64(2), a.Metrics().ArenaCuts())
}
