// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

package bptree

import (
	"fmt"

	"github.com/dacapoday/grove"
)

// Insert stores a new key-value pair. A key already present yields
// ErrDuplicateKey and leaves the tree untouched.
//
// A page store failure aborts the operation where it stands; completed
// sub-steps (such as an allocated but unlinked sibling) are not rolled
// back. Recovery from torn mutations belongs to a surrounding
// write-ahead-log or transaction layer.
func (tree *Tree) Insert(key, val []byte) (err error) {
	if err = tree.checkEntry(key, val); err != nil {
		return
	}

	var trail path
	leafID, err := tree.descend(key, &trail)
	if err != nil {
		return
	}

	leaf, err := tree.loadNode(leafID)
	if err != nil {
		return
	}
	if leaf.kind != leafKind {
		return errCorruptedPage(leafID, "descent ended on a branch")
	}

	index, found := searchKeys(tree.cmp, leaf.keys, key)
	if found {
		return ErrDuplicateKey
	}
	leaf.insertLeafEntry(index, key, val)

	if len(leaf.keys) < tree.order {
		return tree.writeNode(leafID, leaf)
	}

	// The leaf holds m entries, one over capacity. Split at the midpoint
	// by entry count so both halves satisfy the minimum occupancy, link
	// the new right sibling into the leaf chain, and push its first key
	// up as the separator.
	mid := (len(leaf.keys) + 1) / 2
	right := &node{
		kind: leafKind,
		keys: splitSuffix(leaf.keys, mid),
		vals: splitSuffix(leaf.vals, mid),
		next: leaf.next,
	}
	leaf.keys = leaf.keys[:mid]
	leaf.vals = leaf.vals[:mid]

	rightID, err := tree.store.Allocate()
	if err != nil {
		return fmt.Errorf("allocate leaf: %w", err)
	}
	leaf.next = rightID

	if err = tree.writeNode(rightID, right); err != nil {
		return
	}
	if err = tree.writeNode(leafID, leaf); err != nil {
		return
	}

	return tree.propagateSplit(trail, right.keys[0], rightID)
}

// propagateSplit bubbles a separator and its new right child up the
// captured path, splitting ancestors as needed. Reaching past the root
// allocates a fresh root and grows the tree by one level.
func (tree *Tree) propagateSplit(trail path, sep []byte, rightID grove.PageID) (err error) {
	sep = append([]byte(nil), sep...)

	for {
		c, ok := trail.pop()
		if !ok {
			break
		}

		parent, err := tree.loadNode(c.id)
		if err != nil {
			return err
		}
		if parent.kind != branchKind {
			return errCorruptedPage(c.id, "leaf on branch path")
		}
		parent.insertSeparator(c.index, sep, rightID)

		if len(parent.keys) < tree.order {
			return tree.writeNode(c.id, parent)
		}

		// m separators: the middle one moves up, children divide evenly.
		mid := len(parent.keys) / 2
		up := parent.keys[mid]
		right := &node{
			kind:     branchKind,
			keys:     splitSuffix(parent.keys, mid+1),
			children: splitSuffixID(parent.children, mid+1),
		}
		parent.keys = parent.keys[:mid]
		parent.children = parent.children[:mid+1]

		newID, err := tree.store.Allocate()
		if err != nil {
			return fmt.Errorf("allocate branch: %w", err)
		}
		if err = tree.writeNode(newID, right); err != nil {
			return err
		}
		if err = tree.writeNode(c.id, parent); err != nil {
			return err
		}

		sep = up
		rightID = newID
	}

	// The root itself split: the old root keeps its id as the left half,
	// a brand-new root holds the single separator over both halves.
	newRoot := &node{
		kind:     branchKind,
		keys:     [][]byte{sep},
		children: []grove.PageID{tree.root, rightID},
	}
	rootID, err := tree.store.Allocate()
	if err != nil {
		return fmt.Errorf("allocate root: %w", err)
	}
	if err = tree.writeNode(rootID, newRoot); err != nil {
		return
	}
	tree.root = rootID
	tree.height++
	return
}

// searchKeys locates key in a sorted key slice.
func searchKeys(cmp grove.Compare, keys [][]byte, key []byte) (int, bool) {
	i, j := 0, len(keys)
	for i < j {
		h := (i + j) >> 1
		if cmp(keys[h], key) < 0 {
			i = h + 1
		} else {
			j = h
		}
	}
	return i, i < len(keys) && cmp(keys[i], key) == 0
}

// splitSuffix copies s[mid:] into a fresh slice so truncating the left
// half cannot alias the right.
func splitSuffix(s [][]byte, mid int) [][]byte {
	return append([][]byte(nil), s[mid:]...)
}

func splitSuffixID(s []grove.PageID, mid int) []grove.PageID {
	return append([]grove.PageID(nil), s[mid:]...)
}
