// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

// Package bptree implements a disk-oriented ordered index: a B+ tree of
// fixed order m over an abstract page store, with point lookup, ordered
// range scans over leaf sibling links, insertion with split propagation
// and deletion with borrow/merge rebalancing.
//
// The tree is a passive structure: it starts no goroutines, takes no locks
// and retains no node contents between operations. Callers that share a
// tree across goroutines must latch externally — read latches for Search
// and Scan, write latches from leaf to root for Insert and Delete.
package bptree

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/dacapoday/grove"
)

// Config fixes the shape of a tree at creation time.
type Config struct {
	// Order is m, the maximum number of children of a branch node.
	// Every node holds at most m-1 keys, and every non-root node holds
	// at least ⌈m/2⌉-1. Minimum 3.
	Order int

	// Compare supplies the total order over keys.
	// Nil means grove.CompareBytes.
	Compare grove.Compare

	// MaxKeySize bounds key length in bytes. 0 means 64.
	MaxKeySize int

	// MaxValSize bounds value length in bytes.
	// 0 derives the largest value that still lets a full node fit a page.
	MaxValSize int
}

// Tree is an ordered index rooted at a single page of a grove.PageStore.
type Tree struct {
	store   grove.PageStore
	cmp     grove.Compare
	pool    sync.Pool
	root    grove.PageID
	height  int // branch levels above the leaves; 0 means the root is a leaf
	order   int
	minKeys int
	maxKey  int
	maxVal  int
}

// Create initializes a new empty tree: a root leaf with zero entries.
func Create(store grove.PageStore, config Config) (tree *Tree, err error) {
	tree, err = prepare(store, config)
	if err != nil {
		return
	}

	root, err := store.Allocate()
	if err != nil {
		err = fmt.Errorf("allocate root: %w", err)
		tree = nil
		return
	}

	page := tree.acquirePage()
	defer tree.releasePage(page)

	empty := node{kind: leafKind}
	if err = empty.encode(page); err != nil {
		tree = nil
		return
	}
	if err = store.Write(root, page); err != nil {
		err = errWritePage(root, err)
		tree = nil
		return
	}

	tree.root = root
	return
}

// Open loads an existing tree by its root page id. The config must carry
// the same Order and Compare the tree was created with.
func Open(store grove.PageStore, root grove.PageID, config Config) (tree *Tree, err error) {
	tree, err = prepare(store, config)
	if err != nil {
		return
	}
	tree.root = root

	tree.height, err = measure(tree, root)
	if err != nil {
		tree = nil
	}
	return
}

// MetaSize is the encoded size of a tree's Meta blob.
const MetaSize = 8

// Meta encodes the root page id and order for reopening the tree later,
// typically stored in a page store's meta entry. The blob must be saved
// again after any mutation, since splits and collapses replace the root.
func (tree *Tree) Meta() []byte {
	meta := make([]byte, MetaSize)
	binary.LittleEndian.PutUint32(meta, tree.root)
	binary.LittleEndian.PutUint16(meta[4:], uint16(tree.order))
	return meta
}

// Load reopens a tree from a Meta blob. The config's Order is taken from
// the blob and must be zero or matching.
func Load(store grove.PageStore, meta []byte, config Config) (tree *Tree, err error) {
	if len(meta) != MetaSize {
		err = fmt.Errorf("meta size %d: %w", len(meta), ErrBadMeta)
		return
	}
	root := binary.LittleEndian.Uint32(meta)
	order := int(binary.LittleEndian.Uint16(meta[4:]))
	if config.Order != 0 && config.Order != order {
		err = fmt.Errorf("meta order %d, config order %d: %w", order, config.Order, ErrBadMeta)
		return
	}
	config.Order = order
	return Open(store, root, config)
}

func prepare(store grove.PageStore, config Config) (tree *Tree, err error) {
	order := config.Order
	if order < 3 || order > math.MaxUint16 {
		err = fmt.Errorf("order %d: %w", order, ErrInvalidOrder)
		return
	}

	// Item offsets and the end-of-items field are uint16, relative to
	// HeadSize. A larger page would wrap them silently.
	pageSize := store.PageSize()
	if pageSize-HeadSize > math.MaxUint16 {
		err = fmt.Errorf("page size %d exceeds %d: %w",
			pageSize, math.MaxUint16+HeadSize, grove.ErrInvalidPageSize)
		return
	}
	maxKey := config.MaxKeySize
	if maxKey == 0 {
		maxKey = 64
	}

	// A full node of m-1 maximum-size entries must fit one page.
	itemBudget := (pageSize - HeadSize) / (order - 1)
	valBudget := itemBudget - 2 - sizeUvarint(maxKey) - maxKey
	maxVal := config.MaxValSize
	if maxVal == 0 {
		maxVal = valBudget
	}
	if maxVal > valBudget || valBudget <= 0 || branchItemSize(maxKey) > itemBudget {
		err = fmt.Errorf("order %d with key %d and val %d exceeds page size %d: %w",
			order, maxKey, maxVal, pageSize, grove.ErrInvalidPageSize)
		return
	}

	cmp := config.Compare
	if cmp == nil {
		cmp = grove.CompareBytes
	}

	tree = &Tree{
		store:   store,
		cmp:     cmp,
		order:   order,
		minKeys: (order+1)/2 - 1,
		maxKey:  maxKey,
		maxVal:  maxVal,
	}
	tree.pool.New = func() any { return make([]byte, pageSize) }
	return
}

// measure walks the leftmost path, counting branch levels above the leaves.
func measure(tree *Tree, root grove.PageID) (height int, err error) {
	page := tree.acquirePage()
	defer tree.releasePage(page)

	id := root
	for {
		if err = tree.store.Read(id, page); err != nil {
			err = errReadPage(id, err)
			return
		}
		if Page(page).IsLeaf() {
			return
		}
		if Page(page).Count() == 0 {
			err = errCorruptedPage(id, "branch without keys")
			return
		}
		height++
		id = Page(page).Aux()
	}
}

// Root returns the current root page id.
func (tree *Tree) Root() grove.PageID {
	return tree.root
}

// Height returns the number of branch levels above the leaves.
// A root-only tree has height 0.
func (tree *Tree) Height() int {
	return tree.height
}

// Order returns m.
func (tree *Tree) Order() int {
	return tree.order
}

// Search returns the value stored under key, or ErrKeyNotFound.
// The returned slice is a copy, safe to retain and modify.
func (tree *Tree) Search(key []byte) (val []byte, err error) {
	page := tree.acquirePage()
	defer tree.releasePage(page)

	id := tree.root
	for {
		if err = tree.store.Read(id, page); err != nil {
			err = errReadPage(id, err)
			return
		}
		p := Page(page)
		if p.IsLeaf() {
			index, found := p.searchLeaf(tree.cmp, key)
			if !found {
				err = ErrKeyNotFound
				return
			}
			val = append([]byte(nil), p.LeafVal(index)...)
			return
		}
		id = p.child(p.searchBranch(tree.cmp, key))
	}
}

func (tree *Tree) checkEntry(key, val []byte) error {
	if len(key) > tree.maxKey {
		return fmt.Errorf("key length %d > %d: %w", len(key), tree.maxKey, ErrKeyTooLarge)
	}
	if len(val) > tree.maxVal {
		return fmt.Errorf("value length %d > %d: %w", len(val), tree.maxVal, ErrValTooLarge)
	}
	return nil
}

func (tree *Tree) acquirePage() []byte {
	return tree.pool.Get().([]byte)
}

func (tree *Tree) releasePage(page []byte) {
	tree.pool.Put(page)
}

// loadNode reads and decodes one page into a transient node.
func (tree *Tree) loadNode(id grove.PageID) (n *node, err error) {
	page := tree.acquirePage()
	defer tree.releasePage(page)

	if err = tree.store.Read(id, page); err != nil {
		err = errReadPage(id, err)
		return
	}
	n, err = decodePage(id, clonePage(page))
	return
}

// writeNode encodes and persists one node under id.
func (tree *Tree) writeNode(id grove.PageID, n *node) (err error) {
	page := tree.acquirePage()
	defer tree.releasePage(page)

	if err = n.encode(page); err != nil {
		return
	}
	if err = tree.store.Write(id, page); err != nil {
		err = errWritePage(id, err)
	}
	return
}

func clonePage(page []byte) Page {
	return append(Page(nil), page...)
}
