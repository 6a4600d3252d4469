// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/dacapoday/grove/block"
	"github.com/dacapoday/grove/bptree"
	"github.com/dacapoday/grove/mem"
)

// engine is the surface the workloads drive, implemented by the grove
// index over each store and by the pebble baseline.
type engine interface {
	Insert(key uint64, val []byte) error
	Get(key uint64) ([]byte, error)
	Range(low, high uint64) (count int, err error)
	Close() error
}

// encodeKey is big-endian so byte order matches numeric order.
func encodeKey(k uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, k)
	return b
}

type groveEngine struct {
	tree  *bptree.Tree
	store *block.Store // nil for the in-memory store
}

var magicCode = [4]byte{'g', 'r', 'v', '1'}

type fileOption struct {
	pageSize int
}

func (o fileOption) MagicCode() [4]byte { return magicCode }
func (o fileOption) PageSize() int      { return o.pageSize }
func (o fileOption) ReadOnly() bool     { return false }

func treeConfig(order int) bptree.Config {
	return bptree.Config{Order: order, MaxKeySize: 8, MaxValSize: 16}
}

func openGroveMem(pageSize, order int) (*groveEngine, error) {
	tree, err := bptree.Create(mem.NewStore(pageSize), treeConfig(order))
	if err != nil {
		return nil, err
	}
	return &groveEngine{tree: tree}, nil
}

func openGroveFile(path string, pageSize, order int) (*groveEngine, error) {
	store, err := block.Open(path, fileOption{pageSize: pageSize})
	if err != nil {
		return nil, err
	}
	tree, err := bptree.Create(store, treeConfig(order))
	if err != nil {
		store.Close()
		return nil, err
	}
	return &groveEngine{tree: tree, store: store}, nil
}

func (e *groveEngine) Insert(key uint64, val []byte) error {
	err := e.tree.Insert(encodeKey(key), val)
	if errors.Is(err, bptree.ErrDuplicateKey) {
		return nil // workloads re-draw keys; overwrites are not the subject
	}
	return err
}

func (e *groveEngine) Get(key uint64) ([]byte, error) {
	val, err := e.tree.Search(encodeKey(key))
	if errors.Is(err, bptree.ErrKeyNotFound) {
		return nil, nil
	}
	return val, err
}

func (e *groveEngine) Range(low, high uint64) (count int, err error) {
	cursor := e.tree.Scan(encodeKey(low), encodeKey(high))
	defer cursor.Close()
	for cursor.Next() {
		count++
	}
	return count, cursor.Err()
}

func (e *groveEngine) Close() error {
	if e.store == nil {
		return nil
	}
	if err := e.store.SetEntry(e.tree.Meta()); err != nil {
		return err
	}
	return e.store.Close()
}

// pebbleEngine wraps Pebble (CockroachDB's LSM storage engine) so the
// same workloads can run against an off-the-shelf baseline.
type pebbleEngine struct {
	db *pebble.DB
}

func openPebble(dir string) (*pebbleEngine, error) {
	opts := &pebble.Options{
		MemTableSize:                16 << 20,
		MemTableStopWritesThreshold: 4,
		L0CompactionThreshold:       4,
		L0StopWritesThreshold:       12,
	}
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("pebble open: %w", err)
	}
	return &pebbleEngine{db: db}, nil
}

func (e *pebbleEngine) Insert(key uint64, val []byte) error {
	return e.db.Set(encodeKey(key), val, pebble.NoSync)
}

func (e *pebbleEngine) Get(key uint64) ([]byte, error) {
	val, closer, err := e.db.Get(encodeKey(key))
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := append([]byte(nil), val...)
	closer.Close()
	return out, nil
}

func (e *pebbleEngine) Range(low, high uint64) (count int, err error) {
	iter, err := e.db.NewIter(&pebble.IterOptions{
		LowerBound: encodeKey(low),
		UpperBound: encodeKey(high + 1),
	})
	if err != nil {
		return 0, err
	}
	for valid := iter.First(); valid; valid = iter.Next() {
		count++
	}
	err = iter.Error()
	if cerr := iter.Close(); err == nil {
		err = cerr
	}
	return count, err
}

func (e *pebbleEngine) Close() error {
	return e.db.Close()
}
