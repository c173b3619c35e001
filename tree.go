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

import "unsafe"

// freeTree is a red-black tree over free blocks, keyed by block size. Node
// state lives inside the usable bytes of the free blocks themselves and all
// links are buffer offsets, so the tree costs no memory beyond the blocks it
// tracks.
//
// The tree holds at most one node per distinct size: further blocks of the
// same size chain off that node's same list. Tree height is therefore
// bounded by the number of distinct free sizes, not the number of free
// blocks.
type freeTree struct {
	buf  []byte
	root uint64
}

func (t *freeTree) init(buf []byte) {
	t.buf = buf
	t.root = nilOff
}

func (t *freeTree) node(hdrOff uint64) *treeNode {
	return (*treeNode)(unsafe.Pointer(&t.buf[hdrOff+headerSize]))
}

// key returns the node's search key: the usable size recorded in the block
// header in front of it.
func (t *freeTree) key(hdrOff uint64) uint64 {
	return header(t.buf, hdrOff).size
}

func (t *freeTree) isRed(off uint64) bool {
	return off != nilOff && t.node(off).red
}

func (t *freeTree) setBlack(off uint64) {
	if off != nilOff {
		t.node(off).red = false
	}
}

// insert files the block at hdrOff into the tree. A block whose size is
// already present is pushed onto that node's same-size chain; otherwise the
// block becomes a fresh red leaf and the usual fixup restores the red-black
// invariants.
func (t *freeTree) insert(hdrOff uint64) {
	n := t.node(hdrOff)
	*n = treeNode{left: nilOff, right: nilOff, parent: nilOff, same: nilOff}

	if t.root == nilOff {
		t.root = hdrOff
		return
	}
	key := t.key(hdrOff)
	cur := t.root
	for {
		cn := t.node(cur)
		csz := t.key(cur)
		if key == csz {
			// Same size already tracked. Chain instead of growing the tree.
			n.same = cn.same
			cn.same = hdrOff
			return
		}
		if key < csz {
			if cn.left == nilOff {
				cn.left = hdrOff
				break
			}
			cur = cn.left
		} else {
			if cn.right == nilOff {
				cn.right = hdrOff
				break
			}
			cur = cn.right
		}
	}
	n.parent = cur
	n.red = true
	t.insertFixup(hdrOff)
}

func (t *freeTree) insertFixup(z uint64) {
	for z != t.root && t.isRed(t.node(z).parent) {
		parent := t.node(z).parent
		grand := t.node(parent).parent
		if parent == t.node(grand).left {
			uncle := t.node(grand).right
			if t.isRed(uncle) {
				t.node(parent).red = false
				t.node(uncle).red = false
				t.node(grand).red = true
				z = grand
				continue
			}
			if z == t.node(parent).right {
				z = parent
				t.rotateLeft(z)
				parent = t.node(z).parent
				grand = t.node(parent).parent
			}
			t.node(parent).red = false
			t.node(grand).red = true
			t.rotateRight(grand)
		} else {
			uncle := t.node(grand).left
			if t.isRed(uncle) {
				t.node(parent).red = false
				t.node(uncle).red = false
				t.node(grand).red = true
				z = grand
				continue
			}
			if z == t.node(parent).left {
				z = parent
				t.rotateRight(z)
				parent = t.node(z).parent
				grand = t.node(parent).parent
			}
			t.node(parent).red = false
			t.node(grand).red = true
			t.rotateLeft(grand)
		}
	}
	t.node(t.root).red = false
}

// retrieveLowerBound detaches and returns the smallest free block whose size
// is >= size. When the matching node has chained same-size blocks, one of
// those is popped instead and the tree shape is untouched.
func (t *freeTree) retrieveLowerBound(size uint64) (uint64, bool) {
	best := nilOff
	cur := t.root
	for cur != nilOff {
		if t.key(cur) >= size {
			best = cur
			cur = t.node(cur).left
		} else {
			cur = t.node(cur).right
		}
	}
	if best == nilOff {
		return 0, false
	}
	bn := t.node(best)
	if bn.same != nilOff {
		off := bn.same
		bn.same = t.node(off).same
		return off, true
	}
	t.remove(best)
	return best, true
}

func (t *freeTree) minimum(off uint64) uint64 {
	for t.node(off).left != nilOff {
		off = t.node(off).left
	}
	return off
}

// transplant replaces the subtree rooted at u with the subtree rooted at v.
func (t *freeTree) transplant(u, v uint64) {
	up := t.node(u).parent
	if up == nilOff {
		t.root = v
	} else if t.node(up).left == u {
		t.node(up).left = v
	} else {
		t.node(up).right = v
	}
	if v != nilOff {
		t.node(v).parent = up
	}
}

// remove detaches the tree node at z. Because the key lives in the block
// header, nodes are spliced structurally (successor swap for two children)
// rather than by copying keys.
func (t *freeTree) remove(z uint64) {
	zn := t.node(z)
	y := z
	yWasRed := zn.red
	var x, xParent uint64

	switch {
	case zn.left == nilOff:
		x = zn.right
		xParent = zn.parent
		t.transplant(z, zn.right)
	case zn.right == nilOff:
		x = zn.left
		xParent = zn.parent
		t.transplant(z, zn.left)
	default:
		y = t.minimum(zn.right)
		yn := t.node(y)
		yWasRed = yn.red
		x = yn.right
		if yn.parent == z {
			xParent = y
		} else {
			xParent = yn.parent
			t.transplant(y, yn.right)
			yn.right = zn.right
			t.node(yn.right).parent = y
		}
		t.transplant(z, y)
		yn.left = zn.left
		t.node(yn.left).parent = y
		yn.red = zn.red
	}

	if !yWasRed {
		t.removeFixup(x, xParent)
	}
}

// removeFixup restores the red-black invariants after splicing out a black
// node. x may be nilOff (a leaf), which is why the parent is tracked
// separately instead of through the node.
func (t *freeTree) removeFixup(x, parent uint64) {
	for x != t.root && !t.isRed(x) {
		pn := t.node(parent)
		if x == pn.left {
			w := pn.right
			if t.isRed(w) {
				t.node(w).red = false
				pn.red = true
				t.rotateLeft(parent)
				w = pn.right
			}
			wn := t.node(w)
			if !t.isRed(wn.left) && !t.isRed(wn.right) {
				wn.red = true
				x = parent
				parent = t.node(x).parent
				continue
			}
			if !t.isRed(wn.right) {
				t.setBlack(wn.left)
				wn.red = true
				t.rotateRight(w)
				w = pn.right
				wn = t.node(w)
			}
			wn.red = pn.red
			pn.red = false
			t.setBlack(wn.right)
			t.rotateLeft(parent)
			x = t.root
			parent = nilOff
		} else {
			w := pn.left
			if t.isRed(w) {
				t.node(w).red = false
				pn.red = true
				t.rotateRight(parent)
				w = pn.left
			}
			wn := t.node(w)
			if !t.isRed(wn.left) && !t.isRed(wn.right) {
				wn.red = true
				x = parent
				parent = t.node(x).parent
				continue
			}
			if !t.isRed(wn.left) {
				t.setBlack(wn.right)
				wn.red = true
				t.rotateLeft(w)
				w = pn.left
				wn = t.node(w)
			}
			wn.red = pn.red
			pn.red = false
			t.setBlack(wn.left)
			t.rotateRight(parent)
			x = t.root
			parent = nilOff
		}
	}
	t.setBlack(x)
}

func (t *freeTree) rotateLeft(x uint64) {
	xn := t.node(x)
	y := xn.right
	yn := t.node(y)

	xn.right = yn.left
	if yn.left != nilOff {
		t.node(yn.left).parent = x
	}
	yn.parent = xn.parent
	if xn.parent == nilOff {
		t.root = y
	} else if t.node(xn.parent).left == x {
		t.node(xn.parent).left = y
	} else {
		t.node(xn.parent).right = y
	}
	yn.left = x
	xn.parent = y
}

func (t *freeTree) rotateRight(x uint64) {
	xn := t.node(x)
	y := xn.left
	yn := t.node(y)

	xn.left = yn.right
	if yn.right != nilOff {
		t.node(yn.right).parent = x
	}
	yn.parent = xn.parent
	if xn.parent == nilOff {
		t.root = y
	} else if t.node(xn.parent).right == x {
		t.node(xn.parent).right = y
	} else {
		t.node(xn.parent).left = y
	}
	yn.right = x
	xn.parent = y
}
