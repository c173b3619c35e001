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
	"bytes"
	"fmt"

	"github.com/dustin/go-humanize"
)

type metricType int

const (
	// The following 3 keep track of where allocations were served from.
	slotHit = iota
	treeHit
	arenaCut
	// Allocations that found no memory anywhere.
	allocFail
	// The following 3 keep track of where frees ended up.
	freeShrink
	freeSlot
	freeTreeIns
	// Oversized tree blocks truncated on retrieval.
	splits
	// The following 2 keep track of how reallocations were satisfied.
	reallocInPlace
	reallocMove
	// This should be the final enum. Other enums should be set before this.
	doNotUse
)

func stringFor(t metricType) string {
	switch t {
	case slotHit:
		return "slot-hits"
	case treeHit:
		return "tree-hits"
	case arenaCut:
		return "arena-cuts"
	case allocFail:
		return "alloc-failures"
	case freeShrink:
		return "frees-arena-shrink"
	case freeSlot:
		return "frees-slot"
	case freeTreeIns:
		return "frees-tree"
	case splits:
		return "splits"
	case reallocInPlace:
		return "reallocs-in-place"
	case reallocMove:
		return "reallocs-moved"
	default:
		return "unidentified"
	}
}

// metrics is the live counter state. Plain integers on purpose: the
// allocator is single-threaded and must not touch atomics or locks.
type metrics struct {
	all   [doNotUse]uint64
	inUse uint64
	peak  uint64
	sizes *histogramData
}

func (m *metrics) init() {
	m.sizes = newHistogramData(histogramBounds(4, 30))
}

func (m *metrics) count(t metricType) {
	m.all[t]++
}

func (m *metrics) hit(t metricType, size uint64) {
	m.all[t]++
	m.inUse += size
	if m.inUse > m.peak {
		m.peak = m.inUse
	}
	m.sizes.update(int64(size))
}

func (m *metrics) freed(size uint64) {
	m.inUse -= size
}

// Metrics is a point-in-time snapshot of allocator statistics.
type Metrics struct {
	all   [doNotUse]uint64
	inUse uint64
	peak  uint64
	sizes histogramData
}

// Metrics returns a snapshot of performance statistics for the lifetime of
// the allocator instance.
func (a *Allocator) Metrics() *Metrics {
	m := &Metrics{
		all:   a.metrics.all,
		inUse: a.metrics.inUse,
		peak:  a.metrics.peak,
		sizes: a.metrics.sizes.clone(),
	}
	return m
}

// SlotHits is the number of allocations served by the slot table.
func (m *Metrics) SlotHits() uint64 { return m.all[slotHit] }

// TreeHits is the number of allocations served by the free tree.
func (m *Metrics) TreeHits() uint64 { return m.all[treeHit] }

// ArenaCuts is the number of allocations served by bumping the arena cursor.
func (m *Metrics) ArenaCuts() uint64 { return m.all[arenaCut] }

// Failures is the number of allocations that returned nil on exhaustion.
func (m *Metrics) Failures() uint64 { return m.all[allocFail] }

// Splits is the number of tree blocks truncated on retrieval.
func (m *Metrics) Splits() uint64 { return m.all[splits] }

// BytesInUse is the usable byte count of all currently live blocks.
func (m *Metrics) BytesInUse() uint64 { return m.inUse }

// PeakBytesInUse is the high-water mark of BytesInUse.
func (m *Metrics) PeakBytesInUse() uint64 { return m.peak }

// ReuseRatio is the fraction of allocations served from freed memory rather
// than fresh arena cuts.
func (m *Metrics) ReuseRatio() float64 {
	reused := m.all[slotHit] + m.all[treeHit]
	total := reused + m.all[arenaCut]
	if total == 0 {
		return 0.0
	}
	return float64(reused) / float64(total)
}

// SizeHistogram returns the distribution of served allocation sizes across
// power-of-two buckets.
func (m *Metrics) SizeHistogram() string {
	return m.sizes.String()
}

func (m *Metrics) String() string {
	var buf bytes.Buffer
	for i := range m.all {
		t := metricType(i)
		fmt.Fprintf(&buf, "%s: %d ", stringFor(t), m.all[i])
	}
	fmt.Fprintf(&buf, "in-use: %s ", humanize.IBytes(m.inUse))
	fmt.Fprintf(&buf, "peak: %s ", humanize.IBytes(m.peak))
	fmt.Fprintf(&buf, "reuse-ratio: %.2f", m.ReuseRatio())
	return buf.String()
}
