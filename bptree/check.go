// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

package bptree

import (
	"fmt"

	"github.com/dacapoday/grove"
)

// Check walks the whole tree and verifies its structural invariants:
// strictly ascending keys, separator bounds, minimum occupancy on every
// non-root node, all leaves at the same depth, and an intact sibling
// chain. It reports the first violation found, wrapped in ErrCorrupted.
//
// Check exists for tests and offline inspection; the engine itself never
// attempts to repair a violated invariant.
func (tree *Tree) Check() error {
	walk := checker{tree: tree}
	lastLeaf, err := walk.page(tree.root, tree.root, 0, nil, nil)
	if err != nil {
		return err
	}
	if next := walk.nextLeaf; next != 0 {
		return errCorruptedPage(lastLeaf, fmt.Sprintf("rightmost leaf links to page %d", next))
	}
	return nil
}

type checker struct {
	tree      *Tree
	leafDepth int          // depth of the first leaf seen, valid once seenLeaf
	nextLeaf  grove.PageID // sibling link the previous leaf promised
	prevKey   []byte
	seenLeaf  bool
	seenKey   bool
}

// page validates the subtree under id at the given depth, with lo/hi the
// exclusive/inclusive key bounds inherited from ancestor separators.
// Returns the id of the last leaf visited.
func (walk *checker) page(id, root grove.PageID, depth int, lo, hi []byte) (lastLeaf grove.PageID, err error) {
	tree := walk.tree
	n, err := tree.loadNode(id)
	if err != nil {
		return
	}

	if id != root && len(n.keys) < tree.minKeys {
		err = errCorruptedPage(id, fmt.Sprintf("%d keys, minimum %d", len(n.keys), tree.minKeys))
		return
	}
	if len(n.keys) > tree.order-1 {
		err = errCorruptedPage(id, fmt.Sprintf("%d keys, maximum %d", len(n.keys), tree.order-1))
		return
	}
	for i, key := range n.keys {
		if i > 0 && tree.cmp(n.keys[i-1], key) >= 0 {
			err = errCorruptedPage(id, "keys out of order")
			return
		}
		if lo != nil && tree.cmp(key, lo) < 0 {
			err = errCorruptedPage(id, "key below ancestor separator")
			return
		}
		if hi != nil && tree.cmp(key, hi) >= 0 {
			err = errCorruptedPage(id, "key not below ancestor separator")
			return
		}
	}

	switch n.kind {
	case leafKind:
		if !walk.seenLeaf {
			walk.seenLeaf = true
			walk.leafDepth = depth
		} else {
			if depth != walk.leafDepth {
				err = errCorruptedPage(id, fmt.Sprintf("leaf at depth %d, expected %d", depth, walk.leafDepth))
				return
			}
			if walk.nextLeaf != id {
				err = errCorruptedPage(id, fmt.Sprintf("broken sibling chain, expected link to %d", walk.nextLeaf))
				return
			}
		}
		for _, key := range n.keys {
			if walk.seenKey && tree.cmp(walk.prevKey, key) >= 0 {
				err = errCorruptedPage(id, "leaf traversal not strictly ascending")
				return
			}
			walk.prevKey = append(walk.prevKey[:0], key...)
			walk.seenKey = true
		}
		walk.nextLeaf = n.next
		lastLeaf = id

	case branchKind:
		for i, child := range n.children {
			childLo, childHi := lo, hi
			if i > 0 {
				childLo = n.keys[i-1]
			}
			if i < len(n.keys) {
				childHi = n.keys[i]
			}
			lastLeaf, err = walk.page(child, root, depth+1, childLo, childHi)
			if err != nil {
				return
			}
		}
	}
	return
}
