// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

// Package block provides a file-backed grove.PageStore. Every page carries
// a CRC32 (Castagnoli) trailer, freed pages form an on-disk freelist, and
// a small LRU cache fronts the file.
package block

import (
	"hash/crc32"

	"github.com/dacapoday/grove"
)

type File = grove.File
type PageID = grove.PageID

// Option configures a Store at load time.
type Option interface {
	// MagicCode identifies the file format owner.
	MagicCode() [4]byte

	// PageSize is the raw on-disk page size, checksum trailer included.
	// The usable payload is four bytes smaller.
	PageSize() int

	// ReadOnly rejects Allocate, Write, Free and SetEntry.
	ReadOnly() bool
}

// CacheSize optionally overrides the number of pages the LRU cache holds.
type CacheSize interface {
	CacheSize() int
}

const defaultCacheSize = 256

var castagnoliCrcTable = crc32.MakeTable(crc32.Castagnoli)

func checksum(data []byte) uint32 {
	return crc32.Checksum(data, castagnoliCrcTable)
}

var _ grove.PageStore = (*Store)(nil)
