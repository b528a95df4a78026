package wire

import (
	"errors"
	"fmt"
)

// Decoding errors.
var (
	ErrUnexpectedEOF = errors.New("unexpected end of data")
	ErrNonMinimal    = errors.New("non-minimal compact size")
	ErrTooLarge      = errors.New("length exceeds limit")
	ErrTrailingBytes = errors.New("trailing bytes after value")
	ErrVersion       = errors.New("unsupported encoding version")
	ErrInvalidValue  = errors.New("invalid value")
)

// CodecError reports a malformed byte sequence. Entity names what was being
// decoded and Offset is the byte position where decoding stopped.
type CodecError struct {
	Entity string
	Offset int
	Err    error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("decode %s at offset %d: %v", e.Entity, e.Offset, e.Err)
}

func (e *CodecError) Unwrap() error { return e.Err }
