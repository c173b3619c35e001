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

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

// makeBlocks lays the given usable sizes out back to back in a fresh buffer,
// writes their headers, and returns a tree over that buffer plus the header
// offsets.
func makeBlocks(sizes []uint64) (*freeTree, []uint64) {
	var total uint64
	for _, sz := range sizes {
		total += headerSize + sz
	}
	buf := make([]byte, total)
	offs := make([]uint64, len(sizes))
	var off uint64
	for i, sz := range sizes {
		header(buf, off).size = sz
		offs[i] = off
		off += headerSize + sz
	}
	tr := new(freeTree)
	tr.init(buf)
	return tr, offs
}

// checkSubtree walks the subtree at off checking the binary-search-tree
// order, the parent links, and the red-black invariants. Returns the black
// height.
func checkSubtree(t *testing.T, tr *freeTree, off, lo, hi uint64) int {
	if off == nilOff {
		return 1
	}
	n := tr.node(off)
	k := tr.key(off)
	require.True(t, k > lo && k < hi, "key %d outside (%d, %d)", k, lo, hi)
	if n.red {
		require.False(t, tr.isRed(n.left), "red node %d has red left child", k)
		require.False(t, tr.isRed(n.right), "red node %d has red right child", k)
	}
	if n.left != nilOff {
		require.Equal(t, off, tr.node(n.left).parent)
	}
	if n.right != nilOff {
		require.Equal(t, off, tr.node(n.right).parent)
	}
	lh := checkSubtree(t, tr, n.left, lo, k)
	rh := checkSubtree(t, tr, n.right, k, hi)
	require.Equal(t, lh, rh, "black height mismatch under key %d", k)
	if !n.red {
		lh++
	}
	return lh
}

func validateTree(t *testing.T, tr *freeTree) {
	if tr.root == nilOff {
		return
	}
	require.False(t, tr.node(tr.root).red, "root must be black")
	require.Equal(t, nilOff, tr.node(tr.root).parent)
	checkSubtree(t, tr, tr.root, 0, math.MaxUint64)
}

func TestTreeInsertRetrieve(t *testing.T) {
	var sizes []uint64
	for i := 0; i < 64; i++ {
		sizes = append(sizes, uint64(slotCeiling+alignment*(i+1)))
	}
	tr, offs := makeBlocks(sizes)

	for _, off := range offs {
		tr.insert(off)
		validateTree(t, tr)
	}

	// Exact retrieval, largest first so the lower bound is always unique.
	for i := len(sizes) - 1; i >= 0; i-- {
		off, ok := tr.retrieveLowerBound(sizes[i])
		require.True(t, ok)
		require.Equal(t, sizes[i], tr.key(off))
		validateTree(t, tr)
	}
	require.Equal(t, nilOff, tr.root)

	_, ok := tr.retrieveLowerBound(alignment)
	require.False(t, ok)
}

func TestTreeLowerBound(t *testing.T) {
	tr, offs := makeBlocks([]uint64{1 << 20, 10 << 20})
	tr.insert(offs[0])
	tr.insert(offs[1])

	// 2 MiB fits only the 10 MiB block; the lower bound must skip past the
	// smaller one even though it was filed first.
	off, ok := tr.retrieveLowerBound(2 << 20)
	require.True(t, ok)
	require.Equal(t, offs[1], off)
	require.Equal(t, uint64(10<<20), tr.key(off))

	// Nothing at or above 2 MiB remains.
	_, ok = tr.retrieveLowerBound(2 << 20)
	require.False(t, ok)

	off, ok = tr.retrieveLowerBound(1 << 20)
	require.True(t, ok)
	require.Equal(t, offs[0], off)
}

func TestTreeSameSizeChain(t *testing.T) {
	const sz = uint64(slotCeiling + alignment)
	tr, offs := makeBlocks([]uint64{sz, sz, sz})
	for _, off := range offs {
		tr.insert(off)
	}

	// One tree node, two chained siblings.
	require.Equal(t, offs[0], tr.root)
	require.Equal(t, nilOff, tr.node(tr.root).left)
	require.Equal(t, nilOff, tr.node(tr.root).right)

	// Chained blocks come back first, leaving the tree shape untouched.
	got := map[uint64]bool{}
	for i := 0; i < 2; i++ {
		off, ok := tr.retrieveLowerBound(sz)
		require.True(t, ok)
		require.NotEqual(t, offs[0], off)
		got[off] = true
	}
	require.Len(t, got, 2)
	require.Equal(t, offs[0], tr.root)

	// The third retrieval takes the tree node itself.
	off, ok := tr.retrieveLowerBound(sz)
	require.True(t, ok)
	require.Equal(t, offs[0], off)
	require.Equal(t, nilOff, tr.root)
}

func TestTreeRandom(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	var sizes []uint64
	for i := 0; i < 300; i++ {
		// Duplicates on purpose, to mix chain pops with structural deletes.
		sizes = append(sizes, uint64(slotCeiling+alignment*(1+r.Intn(80))))
	}
	tr, offs := makeBlocks(sizes)

	model := map[uint64]int{}
	for i, off := range offs {
		tr.insert(off)
		model[sizes[i]]++
		if i%37 == 0 {
			validateTree(t, tr)
		}
	}
	validateTree(t, tr)

	lowerBound := func(want uint64) (uint64, bool) {
		keys := make([]uint64, 0, len(model))
		for k := range model {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
		for _, k := range keys {
			if k >= want {
				return k, true
			}
		}
		return 0, false
	}

	for len(model) > 0 {
		want := uint64(slotCeiling + alignment*(1+r.Intn(90)))
		expect, ok := lowerBound(want)
		off, got := tr.retrieveLowerBound(want)
		require.Equal(t, ok, got, "lower bound for %d", want)
		if !ok {
			continue
		}
		require.Equal(t, expect, tr.key(off))
		model[expect]--
		if model[expect] == 0 {
			delete(model, expect)
		}
		validateTree(t, tr)
	}
	require.Equal(t, nilOff, tr.root)
}
