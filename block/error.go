package block

import (
	"fmt"

	"github.com/dacapoday/grove"
)

var (
	ErrClosed           = grove.ErrClosed
	ErrReadOnly         = grove.ErrReadOnly
	ErrInvalidPageSize  = grove.ErrInvalidPageSize
	ErrBadChecksum      = grove.ErrBadChecksum
	ErrBadMeta          = grove.ErrBadMeta
	ErrUnknownMagicCode = grove.ErrUnknownMagicCode
	ErrFileTruncated    = grove.ErrFileTruncated
	ErrOutOfRange       = grove.ErrOutOfRange
	ErrNoSpace          = grove.ErrNoSpace
)

func errPage(id PageID, err error) error {
	return fmt.Errorf("page(%v) is %w", id, err)
}
