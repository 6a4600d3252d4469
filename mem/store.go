// Package mem provides an in-memory grove.PageStore, used by tests and
// benchmarks as a stand-in for a disk-backed store.
package mem

import (
	"fmt"
	"sync"

	"github.com/dacapoday/grove"
)

// Store keeps pages in memory. Freed ids go on a freelist and are reused
// before new ids are handed out.
//
// Store requires no initialization beyond NewStore and is safe for
// concurrent use; it serializes its own bookkeeping only, per the page
// store contract.
type Store struct {
	mu       sync.RWMutex
	pages    map[grove.PageID][]byte
	free     []grove.PageID
	next     grove.PageID
	pageSize int
}

// NewStore creates a store of fixed page size.
func NewStore(pageSize int) *Store {
	return &Store{
		pages:    make(map[grove.PageID][]byte),
		next:     1, // PageID 0 is reserved
		pageSize: pageSize,
	}
}

// PageSize returns the usable payload size of every page.
func (store *Store) PageSize() int {
	return store.pageSize
}

// Allocate reserves a new page id, preferring recycled ids.
func (store *Store) Allocate() (id grove.PageID, err error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	if n := len(store.free); n > 0 {
		id = store.free[n-1]
		store.free = store.free[:n-1]
	} else {
		id = store.next
		store.next++
	}
	store.pages[id] = make([]byte, store.pageSize)
	return
}

// Read copies the contents of id into page.
func (store *Store) Read(id grove.PageID, page []byte) error {
	store.mu.RLock()
	defer store.mu.RUnlock()

	data, ok := store.pages[id]
	if !ok {
		return fmt.Errorf("page(%v) is %w", id, grove.ErrOutOfRange)
	}
	copy(page, data)
	return nil
}

// Write stores a copy of page under id.
func (store *Store) Write(id grove.PageID, page []byte) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	data, ok := store.pages[id]
	if !ok {
		return fmt.Errorf("page(%v) is %w", id, grove.ErrOutOfRange)
	}
	copy(data, page)
	return nil
}

// Free recycles id. Freeing a page that is not allocated is a no-op.
func (store *Store) Free(id grove.PageID) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if _, ok := store.pages[id]; !ok {
		return nil
	}
	delete(store.pages, id)
	store.free = append(store.free, id)
	return nil
}

// Len returns the number of live pages.
func (store *Store) Len() int {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return len(store.pages)
}

// Reset drops all pages and recycled ids.
func (store *Store) Reset() {
	store.mu.Lock()
	store.pages = make(map[grove.PageID][]byte)
	store.free = nil
	store.next = 1
	store.mu.Unlock()
}

var _ grove.PageStore = (*Store)(nil)
