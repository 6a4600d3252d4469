package grove

import "errors"

var (
	ErrClosed           = errors.New("closed")
	ErrReadOnly         = errors.New("read-only")
	ErrInvalidPageSize  = errors.New("invalid page size")
	ErrInvalidOrder     = errors.New("invalid order")
	ErrBadChecksum      = errors.New("bad checksum")
	ErrBadMeta          = errors.New("bad meta")
	ErrUnknownMagicCode = errors.New("unknown magic code")
	ErrFileTruncated    = errors.New("file truncated")
	ErrNoSpace          = errors.New("no space")
	ErrOutOfRange       = errors.New("out of range")
	ErrDuplicateKey     = errors.New("duplicate key")
	ErrKeyNotFound      = errors.New("key not found")
	ErrKeyTooLarge      = errors.New("key too large")
	ErrValTooLarge      = errors.New("value too large")
	ErrCorrupted        = errors.New("corrupted")
)
