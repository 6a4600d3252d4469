// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

package block

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// Store is a grove.PageStore over a single file. Page 0 holds the meta
// record (magic code, geometry, freelist head and the caller's entry
// blob); data pages start at id 1.
type Store struct {
	mu        sync.Mutex
	file      File
	cache     *lru
	freeSet   map[PageID]struct{}
	entry     []byte
	magic     [4]byte
	raw       int // on-disk page size
	size      int // usable payload size, raw minus the checksum trailer
	pageCount uint32
	freeHead  PageID
	readOnly  bool
	closed    bool
}

// Open opens (or creates) a file-backed store at path.
func Open(path string, opt Option) (store *Store, err error) {
	flag := os.O_RDWR | os.O_CREATE
	if opt.ReadOnly() {
		flag = os.O_RDONLY
	}
	file, err := os.OpenFile(path, flag, 0600)
	if err != nil {
		return
	}

	store = new(Store)
	if err = store.Load(file, opt); err != nil {
		file.Close()
		store = nil
	}
	return
}

// Load initializes the store over file. An empty file is formatted; an
// existing one must match the option's magic code and page size.
func (store *Store) Load(file File, opt Option) (err error) {
	raw := opt.PageSize()
	if raw < minPageSize {
		return fmt.Errorf("page size %d: %w", raw, ErrInvalidPageSize)
	}

	store.file = file
	store.magic = opt.MagicCode()
	store.raw = raw
	store.size = raw - 4
	store.readOnly = opt.ReadOnly()
	store.freeSet = make(map[PageID]struct{})

	cacheSize := defaultCacheSize
	if o, ok := opt.(CacheSize); ok && o.CacheSize() > 0 {
		cacheSize = o.CacheSize()
	}
	store.cache = newLRU(cacheSize)

	head := make([]byte, raw)
	n, err := file.ReadAt(head, 0)
	switch {
	case err == io.EOF && n == 0:
		// Empty file: format it. A partial meta page is a torn write,
		// never something to silently reinitialize.
		if store.readOnly {
			return fmt.Errorf("empty file: %w", ErrBadMeta)
		}
		store.pageCount = 1
		store.freeHead = 0
		store.entry = nil
		err = store.writeMeta()
	case err == io.EOF || errors.Is(err, io.ErrUnexpectedEOF):
		return fmt.Errorf("meta page: %w", ErrFileTruncated)
	case err == nil:
		err = store.readMeta(head)
	}
	if err != nil {
		return
	}
	return store.loadFreelist()
}

// PageSize returns the usable payload size of every page.
func (store *Store) PageSize() int {
	return store.size
}

// File returns the underlying backend.
func (store *Store) File() File {
	return store.file
}

// Allocate reserves a page, reusing the freelist before growing the file.
func (store *Store) Allocate() (id PageID, err error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if err = store.writable(); err != nil {
		return
	}

	if store.freeHead != 0 {
		id = store.freeHead
		payload, err2 := store.load(id)
		if err2 != nil {
			err = err2
			id = 0
			return
		}
		store.freeHead = readPageID(payload)
		delete(store.freeSet, id)
		err = store.writeMeta()
		return
	}

	if store.pageCount == ^uint32(0) {
		err = ErrNoSpace
		return
	}
	id = store.pageCount
	store.pageCount++
	if err = store.store(id, make([]byte, store.size)); err != nil {
		id = 0
		return
	}
	err = store.writeMeta()
	return
}

// Read copies the contents of id into page, verifying its checksum.
func (store *Store) Read(id PageID, page []byte) (err error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.closed {
		return ErrClosed
	}
	if err = store.validate(id); err != nil {
		return
	}

	payload, err := store.load(id)
	if err != nil {
		return
	}
	copy(page, payload)
	return
}

// Write persists page under id with a fresh checksum.
func (store *Store) Write(id PageID, page []byte) (err error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if err = store.writable(); err != nil {
		return
	}
	if err = store.validate(id); err != nil {
		return
	}
	return store.store(id, page)
}

// Free pushes id onto the freelist. Freeing a free page is a no-op.
func (store *Store) Free(id PageID) (err error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if err = store.writable(); err != nil {
		return
	}
	if id == 0 || id >= store.pageCount {
		return errPage(id, ErrOutOfRange)
	}
	if _, free := store.freeSet[id]; free {
		return nil
	}

	payload := make([]byte, store.size)
	writePageID(payload, store.freeHead)
	if err = store.store(id, payload); err != nil {
		return
	}
	store.freeHead = id
	store.freeSet[id] = struct{}{}
	store.cache.drop(id)
	return store.writeMeta()
}

// Entry returns a copy of the caller's meta blob.
func (store *Store) Entry() []byte {
	store.mu.Lock()
	defer store.mu.Unlock()
	return append([]byte(nil), store.entry...)
}

// SetEntry persists the caller's meta blob, at most MaxEntrySize bytes.
func (store *Store) SetEntry(entry []byte) (err error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if err = store.writable(); err != nil {
		return
	}
	if len(entry) > MaxEntrySize {
		return fmt.Errorf("entry size %d: %w", len(entry), ErrBadMeta)
	}
	store.entry = append(store.entry[:0], entry...)
	return store.writeMeta()
}

// Sync flushes the backend.
func (store *Store) Sync() error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.closed {
		return ErrClosed
	}
	return store.file.Sync()
}

// Close releases the store and closes the backend.
func (store *Store) Close() (err error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.closed {
		return ErrClosed
	}
	store.closed = true
	store.cache = nil
	return store.file.Close()
}

// PageCount returns the number of pages in the file, meta page included.
func (store *Store) PageCount() int {
	store.mu.Lock()
	defer store.mu.Unlock()
	return int(store.pageCount)
}

func (store *Store) writable() error {
	if store.closed {
		return ErrClosed
	}
	if store.readOnly {
		return ErrReadOnly
	}
	return nil
}

func (store *Store) validate(id PageID) error {
	if id == 0 || id >= store.pageCount {
		return errPage(id, ErrOutOfRange)
	}
	if _, free := store.freeSet[id]; free {
		return errPage(id, ErrOutOfRange)
	}
	return nil
}

// load returns the cached payload of id, reading and verifying it from
// the file on a miss. The returned slice is owned by the cache.
func (store *Store) load(id PageID) (payload []byte, err error) {
	if payload = store.cache.get(id); payload != nil {
		return
	}

	buffer := make([]byte, store.raw)
	if _, err = store.file.ReadAt(buffer, int64(id)*int64(store.raw)); err != nil {
		if err == io.EOF || errors.Is(err, io.ErrUnexpectedEOF) {
			err = errPage(id, ErrFileTruncated)
		} else {
			err = fmt.Errorf("read page(%v) failed: %w", id, err)
		}
		return
	}
	if readUint32(buffer[store.size:]) != checksum(buffer[:store.size]) {
		err = errPage(id, ErrBadChecksum)
		return
	}

	payload = buffer[:store.size]
	store.cache.put(id, payload)
	return
}

func (store *Store) store(id PageID, payload []byte) (err error) {
	buffer := make([]byte, store.raw)
	copy(buffer, payload)
	writeUint32(buffer[store.size:], checksum(buffer[:store.size]))
	if _, err = store.file.WriteAt(buffer, int64(id)*int64(store.raw)); err != nil {
		return fmt.Errorf("write page(%v) failed: %w", id, err)
	}
	store.cache.put(id, buffer[:store.size])
	return
}

// loadFreelist walks the on-disk free chain so double frees and reads of
// free pages can be rejected.
func (store *Store) loadFreelist() (err error) {
	id := store.freeHead
	for id != 0 {
		if id >= store.pageCount {
			return errPage(id, ErrOutOfRange)
		}
		if _, seen := store.freeSet[id]; seen {
			return fmt.Errorf("freelist cycle at page(%v): %w", id, ErrBadMeta)
		}
		store.freeSet[id] = struct{}{}
		payload, err := store.load(id)
		if err != nil {
			return err
		}
		id = readPageID(payload)
	}
	return
}
