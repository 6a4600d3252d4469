// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

package bptree

import "github.com/dacapoday/grove"

// crumb records one branch page visited on the way down and the child
// index the descent followed.
type crumb struct {
	id    grove.PageID
	index int
}

// path is the root-to-leaf trail of branch crumbs captured by a mutating
// descent. Split and merge propagation walks it back upward explicitly,
// keeping stack depth at the tree height and making the order in which
// ancestor pages are revisited (and external latches may be released)
// deterministic.
type path []crumb

func (p *path) push(id grove.PageID, index int) {
	*p = append(*p, crumb{id: id, index: index})
}

func (p *path) pop() (c crumb, ok bool) {
	n := len(*p)
	if n == 0 {
		return
	}
	c = (*p)[n-1]
	*p = (*p)[:n-1]
	ok = true
	return
}

// descend walks from the root to the leaf responsible for key, filling the
// path with the branch crumbs it passed. Returns the leaf page id.
func (tree *Tree) descend(key []byte, trail *path) (id grove.PageID, err error) {
	page := tree.acquirePage()
	defer tree.releasePage(page)

	id = tree.root
	for {
		if err = tree.store.Read(id, page); err != nil {
			err = errReadPage(id, err)
			return
		}
		p := Page(page)
		if p.IsLeaf() {
			return
		}
		if p.Count() == 0 {
			err = errCorruptedPage(id, "branch without keys")
			return
		}
		index := p.searchBranch(tree.cmp, key)
		trail.push(id, index)
		id = p.child(index)
	}
}
