// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

package bptree

import "github.com/dacapoday/grove"

// Delete removes key from the tree, or returns ErrKeyNotFound.
//
// An underfull leaf first borrows from a sibling with surplus — the left
// one when both qualify — and otherwise merges with a sibling, removing the
// redundant separator from the parent and repeating the underflow check at
// each ancestor. A root branch left holding a single child is freed and
// replaced by that child, shrinking the tree by one level.
func (tree *Tree) Delete(key []byte) (err error) {
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
	if !found {
		return ErrKeyNotFound
	}
	leaf.removeLeafEntry(index)

	if len(leaf.keys) >= tree.minKeys || leafID == tree.root {
		return tree.writeNode(leafID, leaf)
	}
	return tree.rebalance(trail, leafID, leaf)
}

// rebalance restores the occupancy invariant for cur, an underfull
// non-root node, walking the captured path upward as merges cascade.
func (tree *Tree) rebalance(trail path, curID grove.PageID, cur *node) (err error) {
	for {
		c, ok := trail.pop()
		if !ok {
			return errCorruptedPage(curID, "underflow without parent")
		}

		parent, err := tree.loadNode(c.id)
		if err != nil {
			return err
		}
		if parent.kind != branchKind {
			return errCorruptedPage(c.id, "leaf on branch path")
		}

		var left, right *node
		var leftID, rightID grove.PageID
		if c.index > 0 {
			leftID = parent.children[c.index-1]
			if left, err = tree.loadNode(leftID); err != nil {
				return err
			}
		}

		if left != nil && len(left.keys) > tree.minKeys {
			tree.borrowLeft(parent, c.index, left, cur)
			return tree.writeAll(leftID, left, curID, cur, c.id, parent)
		}

		if c.index < len(parent.children)-1 {
			rightID = parent.children[c.index+1]
			if right, err = tree.loadNode(rightID); err != nil {
				return err
			}
		}

		if right != nil && len(right.keys) > tree.minKeys {
			tree.borrowRight(parent, c.index, cur, right)
			return tree.writeAll(curID, cur, rightID, right, c.id, parent)
		}

		// No surplus anywhere: merge into the left sibling when one
		// exists, otherwise absorb the right sibling.
		freed := curID
		if left != nil {
			merge(parent, c.index-1, left, cur)
			if err = tree.writeNode(leftID, left); err != nil {
				return err
			}
		} else {
			merge(parent, c.index, cur, right)
			freed = rightID
			if err = tree.writeNode(curID, cur); err != nil {
				return err
			}
		}

		if c.id == tree.root {
			if len(parent.keys) == 0 {
				// The root drained: its single child takes over.
				tree.root = parent.children[0]
				tree.height--
				if err = tree.store.Free(c.id); err != nil {
					return err
				}
				return tree.store.Free(freed)
			}
			if err = tree.writeNode(c.id, parent); err != nil {
				return err
			}
			return tree.store.Free(freed)
		}

		if len(parent.keys) >= tree.minKeys {
			if err = tree.writeNode(c.id, parent); err != nil {
				return err
			}
			return tree.store.Free(freed)
		}
		if err = tree.writeNode(c.id, parent); err != nil {
			return err
		}
		if err = tree.store.Free(freed); err != nil {
			return err
		}
		curID, cur = c.id, parent
	}
}

// borrowLeft moves the left sibling's last entry into cur and refreshes
// the separator between them.
func (tree *Tree) borrowLeft(parent *node, index int, left, cur *node) {
	last := len(left.keys) - 1
	switch cur.kind {
	case leafKind:
		cur.insertLeafEntry(0, left.keys[last], left.vals[last])
		left.keys = left.keys[:last]
		left.vals = left.vals[:last]
		parent.keys[index-1] = cur.keys[0]
	case branchKind:
		// Rotate through the parent: the separator comes down, the
		// sibling's last key goes up.
		cur.keys = prepend(cur.keys, parent.keys[index-1])
		cur.children = prependID(cur.children, left.children[len(left.children)-1])
		parent.keys[index-1] = left.keys[last]
		left.keys = left.keys[:last]
		left.children = left.children[:len(left.children)-1]
	}
}

// borrowRight moves the right sibling's first entry into cur and refreshes
// the separator between them.
func (tree *Tree) borrowRight(parent *node, index int, cur, right *node) {
	switch cur.kind {
	case leafKind:
		cur.keys = append(cur.keys, right.keys[0])
		cur.vals = append(cur.vals, right.vals[0])
		right.removeLeafEntry(0)
		parent.keys[index] = right.keys[0]
	case branchKind:
		cur.keys = append(cur.keys, parent.keys[index])
		cur.children = append(cur.children, right.children[0])
		parent.keys[index] = right.keys[0]
		right.keys = right.keys[1:]
		right.children = right.children[1:]
	}
}

// merge absorbs right into left, dropping the separator at sep from the
// parent. Leaf merges splice the sibling chain; branch merges pull the
// separator down between the two key runs.
func merge(parent *node, sep int, left, right *node) {
	switch left.kind {
	case leafKind:
		left.keys = append(left.keys, right.keys...)
		left.vals = append(left.vals, right.vals...)
		left.next = right.next
	case branchKind:
		left.keys = append(left.keys, parent.keys[sep])
		left.keys = append(left.keys, right.keys...)
		left.children = append(left.children, right.children...)
	}
	parent.removeSeparator(sep)
}

func (tree *Tree) writeAll(aID grove.PageID, a *node, bID grove.PageID, b *node, cID grove.PageID, c *node) (err error) {
	if err = tree.writeNode(aID, a); err != nil {
		return
	}
	if err = tree.writeNode(bID, b); err != nil {
		return
	}
	return tree.writeNode(cID, c)
}

func prepend(s [][]byte, v []byte) [][]byte {
	s = append(s, nil)
	copy(s[1:], s)
	s[0] = v
	return s
}

func prependID(s []grove.PageID, v grove.PageID) []grove.PageID {
	s = append(s, 0)
	copy(s[1:], s)
	s[0] = v
	return s
}
