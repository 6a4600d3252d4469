package bptree_test

import (
	"math/rand/v2"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dacapoday/grove/block"
	"github.com/dacapoday/grove/bptree"
)

type fileOption struct{}

func (fileOption) MagicCode() [4]byte { return [4]byte{'g', 'r', 'v', '1'} }
func (fileOption) PageSize() int      { return 512 }
func (fileOption) ReadOnly() bool     { return false }

// TestPersistence writes a tree through a file-backed store, reopens the
// file, and verifies contents and structure survive the round trip.
func TestPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grove.db")

	store, err := block.Open(path, fileOption{})
	require.NoError(t, err)

	tree, err := bptree.Create(store, bptree.Config{Order: 8, MaxKeySize: 16})
	require.NoError(t, err)

	perm := rand.Perm(300)
	for _, k := range perm {
		require.NoError(t, tree.Insert(key(k), val(k)))
	}
	for _, k := range perm[:100] {
		require.NoError(t, tree.Delete(key(k)))
	}

	require.NoError(t, store.SetEntry(tree.Meta()))
	require.NoError(t, store.Close())

	store, err = block.Open(path, fileOption{})
	require.NoError(t, err)
	defer store.Close()

	tree, err = bptree.Load(store, store.Entry(), bptree.Config{Order: 8, MaxKeySize: 16})
	require.NoError(t, err)
	require.NoError(t, tree.Check())

	for _, k := range perm[:100] {
		_, err := tree.Search(key(k))
		require.ErrorIs(t, err, bptree.ErrKeyNotFound)
	}
	for _, k := range perm[100:] {
		got, err := tree.Search(key(k))
		require.NoError(t, err)
		require.Equal(t, string(val(k)), string(got))
	}

	// The reopened tree accepts further mutations.
	for _, k := range perm[:50] {
		require.NoError(t, tree.Insert(key(k), val(k)))
	}
	require.NoError(t, tree.Check())
}

// TestLoadOrderMismatch rejects metadata written by a tree of a different
// order.
func TestLoadOrderMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grove.db")

	store, err := block.Open(path, fileOption{})
	require.NoError(t, err)
	defer store.Close()

	tree, err := bptree.Create(store, bptree.Config{Order: 8, MaxKeySize: 16})
	require.NoError(t, err)
	require.NoError(t, store.SetEntry(tree.Meta()))

	_, err = bptree.Load(store, store.Entry(), bptree.Config{Order: 4, MaxKeySize: 16})
	require.ErrorIs(t, err, bptree.ErrBadMeta)
}
