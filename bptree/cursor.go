// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

package bptree

import "iter"

// Scan returns a cursor positioned before the first entry with a key not
// less than low, yielding entries in ascending order while key <= high.
// A nil low starts at the first entry; a nil high scans to the end.
//
// The cursor walks the leaf sibling chain without re-descending the tree.
// It reads a snapshot one leaf at a time: abandoning it early has no side
// effects, but it must not straddle a concurrent structural mutation
// unless the caller's latch discipline prevents one.
func (tree *Tree) Scan(low, high []byte) *Cursor {
	cursor := &Cursor{tree: tree, high: high}
	cursor.seek(low)
	return cursor
}

// Cursor iterates leaf entries in key order. Next must be called before
// the first Key/Val access. Key and Val return slices that are only valid
// until the following Next; copy to retain.
type Cursor struct {
	tree  *Tree
	page  Page
	high  []byte
	err   error
	index int
	done  bool
}

func (cursor *Cursor) seek(low []byte) {
	tree := cursor.tree
	page := Page(tree.acquirePage())

	id := tree.root
	for {
		if err := tree.store.Read(id, page); err != nil {
			cursor.fail(page, errReadPage(id, err))
			return
		}
		if page.IsLeaf() {
			break
		}
		if page.Count() == 0 {
			cursor.fail(page, errCorruptedPage(id, "branch without keys"))
			return
		}
		if low == nil {
			id = page.Aux()
		} else {
			id = page.child(page.searchBranch(tree.cmp, low))
		}
	}

	index := 0
	if low != nil {
		index, _ = page.searchLeaf(tree.cmp, low)
	}
	cursor.page = page
	cursor.index = index - 1
}

// Next advances to the following entry, reporting whether one is
// available. It returns false at the end of the range or on error.
func (cursor *Cursor) Next() bool {
	if cursor.done {
		return false
	}
	cursor.index++
	for cursor.index >= cursor.page.Count() {
		next := cursor.page.Aux()
		if next == 0 {
			cursor.stop()
			return false
		}
		if err := cursor.tree.store.Read(next, cursor.page); err != nil {
			cursor.fail(cursor.page, errReadPage(next, err))
			return false
		}
		if !cursor.page.IsLeaf() {
			cursor.fail(cursor.page, errCorruptedPage(next, "branch on leaf chain"))
			return false
		}
		cursor.index = 0
	}
	if cursor.high != nil && cursor.tree.cmp(cursor.Key(), cursor.high) > 0 {
		cursor.stop()
		return false
	}
	return true
}

// Key returns the current key.
func (cursor *Cursor) Key() []byte {
	return cursor.page.LeafKey(cursor.index)
}

// Val returns the current value.
func (cursor *Cursor) Val() []byte {
	return cursor.page.LeafVal(cursor.index)
}

// Err reports the first page store or corruption error the cursor hit.
// A range that simply ran out is not an error.
func (cursor *Cursor) Err() error {
	return cursor.err
}

// Seq adapts the cursor to a range-over-func iterator. Check Err after
// the loop.
func (cursor *Cursor) Seq() iter.Seq2[[]byte, []byte] {
	return func(yield func([]byte, []byte) bool) {
		for cursor.Next() {
			if !yield(cursor.Key(), cursor.Val()) {
				cursor.stop()
				return
			}
		}
	}
}

func (cursor *Cursor) stop() {
	if cursor.done {
		return
	}
	cursor.done = true
	if cursor.page != nil {
		cursor.tree.releasePage(cursor.page)
		cursor.page = nil
	}
}

// Close releases the cursor's page buffer. It is safe to call at any
// point and after exhaustion.
func (cursor *Cursor) Close() {
	cursor.stop()
}

func (cursor *Cursor) fail(page Page, err error) {
	cursor.err = err
	cursor.page = page
	cursor.stop()
}
