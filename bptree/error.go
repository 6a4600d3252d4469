package bptree

import (
	"fmt"

	"github.com/dacapoday/grove"
)

var (
	ErrDuplicateKey = grove.ErrDuplicateKey
	ErrKeyNotFound  = grove.ErrKeyNotFound
	ErrCorrupted    = grove.ErrCorrupted
	ErrInvalidOrder = grove.ErrInvalidOrder
	ErrBadMeta      = grove.ErrBadMeta
	ErrKeyTooLarge  = grove.ErrKeyTooLarge
	ErrValTooLarge  = grove.ErrValTooLarge
)

var errNodeOverflow = fmt.Errorf("%w: node exceeds page size", ErrCorrupted)

func errCorruptedPage(id PageID, detail string) error {
	return fmt.Errorf("page(%v) is %w: %s", id, ErrCorrupted, detail)
}

func errReadPage(id PageID, err error) error {
	return fmt.Errorf("read page(%v) failed: %w", id, err)
}

func errWritePage(id PageID, err error) error {
	return fmt.Errorf("write page(%v) failed: %w", id, err)
}
