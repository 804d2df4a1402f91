package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrSerialization is returned when a payload cannot be canonically encoded.
	ErrSerialization = errors.New("payload serialization failed")
	// ErrEmptyChain is returned by operations that need at least one block.
	ErrEmptyChain = errors.New("blockchain is empty")
	// ErrIndexOutOfRange is returned by GetByIndex for unknown positions.
	ErrIndexOutOfRange = errors.New("index out of range")
)

// IntegrityViolation describes the first block that breaks the chain.
// Validate reports it as a value; Verify returns it as an error.
type IntegrityViolation struct {
	Index  int
	Reason string
}

func (v *IntegrityViolation) Error() string {
	return fmt.Sprintf("block %d has been tampered with: %s", v.Index, v.Reason)
}
