// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

package bptree

import "github.com/dacapoday/grove"

// Drop frees every page of the tree back to the store, root included.
// The tree must not be used afterwards.
func (tree *Tree) Drop() (err error) {
	page := tree.acquirePage()
	defer tree.releasePage(page)

	pending := []grove.PageID{tree.root}
	for len(pending) > 0 {
		id := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		if err = tree.store.Read(id, page); err != nil {
			return errReadPage(id, err)
		}
		if p := Page(page); !p.IsLeaf() {
			pending = append(pending, p.Aux())
			for i := range p.Count() {
				pending = append(pending, p.BranchChild(i))
			}
		}
		if err = tree.store.Free(id); err != nil {
			return
		}
	}

	tree.root = 0
	tree.height = 0
	return
}
