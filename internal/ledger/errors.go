package ledger

import (
	"errors"
)

var (
	// ErrInvalidAddress means the queried string is not a well-formed
	// Baseline address.
	ErrInvalidAddress = errors.New("ledger: invalid address")
	// ErrNotFound means the entity does not resolve on the node.
	ErrNotFound = errors.New("ledger: not found")
)
