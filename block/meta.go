// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

package block

import (
	"encoding/binary"
	"fmt"
)

// Meta payload layout inside page 0:
//
//	byte[0:4]   magic code
//	byte[4:6]   format version
//	byte[6:8]   entry length
//	byte[8:12]  raw page size
//	byte[12:16] page count
//	byte[16:20] freelist head
//	byte[20:]   entry blob
const (
	metaVersion   = 1
	metaFixedSize = 20

	// MaxEntrySize bounds the caller blob stored in the meta page.
	MaxEntrySize = 64

	minPageSize = metaFixedSize + MaxEntrySize + 4
)

func (store *Store) readMeta(head []byte) error {
	payload := head[:store.size]
	if readUint32(head[store.size:]) != checksum(payload) {
		return fmt.Errorf("meta page has %w", ErrBadChecksum)
	}
	if [4]byte(payload[:4]) != store.magic {
		return fmt.Errorf("%w %q", ErrUnknownMagicCode, payload[:4])
	}
	if v := binary.LittleEndian.Uint16(payload[4:]); v != metaVersion {
		return fmt.Errorf("format version %d: %w", v, ErrBadMeta)
	}
	entryLen := int(binary.LittleEndian.Uint16(payload[6:]))
	if entryLen > MaxEntrySize {
		return fmt.Errorf("entry size %d: %w", entryLen, ErrBadMeta)
	}
	if raw := int(readUint32(payload[8:])); raw != store.raw {
		return fmt.Errorf("page size %d, expected %d: %w", raw, store.raw, ErrInvalidPageSize)
	}
	store.pageCount = readUint32(payload[12:])
	store.freeHead = readUint32(payload[16:])
	if store.pageCount == 0 {
		return fmt.Errorf("zero page count: %w", ErrBadMeta)
	}
	store.entry = append([]byte(nil), payload[metaFixedSize:metaFixedSize+entryLen]...)
	return nil
}

func (store *Store) writeMeta() (err error) {
	buffer := make([]byte, store.raw)
	payload := buffer[:store.size]
	copy(payload, store.magic[:])
	binary.LittleEndian.PutUint16(payload[4:], metaVersion)
	binary.LittleEndian.PutUint16(payload[6:], uint16(len(store.entry)))
	writeUint32(payload[8:], uint32(store.raw))
	writeUint32(payload[12:], store.pageCount)
	writeUint32(payload[16:], store.freeHead)
	copy(payload[metaFixedSize:], store.entry)

	writeUint32(buffer[store.size:], checksum(payload))
	if _, err = store.file.WriteAt(buffer, 0); err != nil {
		err = fmt.Errorf("write meta page failed: %w", err)
	}
	return
}

func readUint32(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b)
}

func writeUint32(b []byte, v uint32) {
	binary.LittleEndian.PutUint32(b, v)
}

func readPageID(b []byte) PageID {
	return readUint32(b)
}

func writePageID(b []byte, id PageID) {
	writeUint32(b, id)
}
