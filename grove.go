// Package grove defines the interfaces shared by the ordered-index engine
// and its page-store backends.
package grove

import (
	"bytes"
	"io"
)

// PageID identifies a fixed-size page inside a PageStore.
//
// The zero PageID is reserved: it is never handed out by Allocate and is
// used by the index as the nil sibling link.
type PageID = uint32

// PageStore allocates, reads, writes and frees fixed-size pages.
// It is the only collaborator the index engine depends on; page lifetime
// is owned by the store, never by the index.
//
// A PageStore must serialize its own internal state, but it does not
// coordinate concurrent tree operations. Callers that share one tree
// across goroutines are expected to latch nodes externally: read latches
// for lookups and scans, write latches from leaf to root for mutations.
type PageStore interface {
	// PageSize returns the usable payload size of every page, in bytes.
	PageSize() int

	// Allocate reserves a new page and returns its id.
	Allocate() (PageID, error)

	// Read fills page (a PageSize buffer) with the contents of id.
	Read(id PageID, page []byte) error

	// Write persists page (a PageSize buffer) under id.
	Write(id PageID, page []byte) error

	// Free returns id to the store. Freeing an already-free page is a no-op.
	Free(id PageID) error
}

// Compare imposes a total order on keys, returning a negative number when
// a sorts before b, zero when equal, positive otherwise.
type Compare func(a, b []byte) int

// CompareBytes is the default key order, plain lexicographic comparison.
func CompareBytes(a, b []byte) int {
	return bytes.Compare(a, b)
}

// File provides access to a storage backend for a file-backed page store.
//
// The *os.File type satisfies this interface.
type File interface {
	io.ReaderAt
	io.WriterAt
	io.Closer

	// Truncate changes the size of the file.
	Truncate(size int64) error

	// Sync commits the current contents of the file to stable storage.
	Sync() error
}
