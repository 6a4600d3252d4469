package bptree_test

import (
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dacapoday/grove/bptree"
	"github.com/dacapoday/grove/mem"
)

// TestRandomOperations runs a mixed insert/delete workload against a map
// reference model, verifying the structural invariants after every step
// and the full ordered contents at the end.
func TestRandomOperations(t *testing.T) {
	for _, order := range []int{3, 4, 7, 16} {
		t.Run("", func(t *testing.T) {
			store := mem.NewStore(1024)
			tree, err := bptree.Create(store, bptree.Config{Order: order, MaxKeySize: 16})
			require.NoError(t, err)

			model := map[string]string{}
			for range 2000 {
				k := rand.IntN(300)
				if rand.IntN(3) == 0 {
					err := tree.Delete(key(k))
					if _, ok := model[string(key(k))]; ok {
						require.NoError(t, err, "Delete(%d)", k)
						delete(model, string(key(k)))
					} else {
						require.ErrorIs(t, err, bptree.ErrKeyNotFound, "Delete(%d)", k)
					}
				} else {
					err := tree.Insert(key(k), val(k))
					if _, ok := model[string(key(k))]; ok {
						require.ErrorIs(t, err, bptree.ErrDuplicateKey, "Insert(%d)", k)
					} else {
						require.NoError(t, err, "Insert(%d)", k)
						model[string(key(k))] = string(val(k))
					}
				}
				require.NoError(t, tree.Check())
			}

			keys := make([]string, 0, len(model))
			for k := range model {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			cursor := tree.Scan(nil, nil)
			defer cursor.Close()
			for _, k := range keys {
				require.True(t, cursor.Next(), "scan ended before key %q", k)
				require.Equal(t, k, string(cursor.Key()))
				require.Equal(t, model[k], string(cursor.Val()))
			}
			require.False(t, cursor.Next())
			require.NoError(t, cursor.Err())

			for k, v := range model {
				got, err := tree.Search([]byte(k))
				require.NoError(t, err)
				require.Equal(t, v, string(got))
			}
		})
	}
}

// TestNoPageLeak inserts and fully deletes a large key set; every page
// except the root leaf must have returned to the store.
func TestNoPageLeak(t *testing.T) {
	store := mem.NewStore(1024)
	tree, err := bptree.Create(store, bptree.Config{Order: 5})
	require.NoError(t, err)

	perm := rand.Perm(500)
	for _, k := range perm {
		require.NoError(t, tree.Insert(key(k), val(k)))
	}
	for _, k := range rand.Perm(500) {
		require.NoError(t, tree.Delete(key(k)))
	}

	require.NoError(t, tree.Check())
	require.Equal(t, 0, tree.Height())
	require.Equal(t, 1, store.Len())
}
