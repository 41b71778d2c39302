package decoder

import (
	"errors"
	"fmt"
)

var errTruncated = errors.New("unexpected end of data")

// ErrUnresolvedInput means a non-coinbase input references a funding
// transaction the node cannot produce. The transaction cannot be decoded.
var ErrUnresolvedInput = errors.New("decoder: input funding transaction not found")

// MalformedError reports a structural violation in a block or transaction
// payload: a missing required field, a bad shape, or a value-conservation
// failure. The entity is unusable and must be omitted from aggregate views.
type MalformedError struct {
	Entity string // "block" or "transaction"
	ID     string // hash or txid when known
	Reason string
}

func (e *MalformedError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("malformed %s: %s", e.Entity, e.Reason)
	}
	return fmt.Sprintf("malformed %s %s: %s", e.Entity, e.ID, e.Reason)
}

func malformedBlock(id, reason string) error {
	return &MalformedError{Entity: "block", ID: id, Reason: reason}
}

func malformedTx(id, reason string) error {
	return &MalformedError{Entity: "transaction", ID: id, Reason: reason}
}

// IsMalformed reports whether err is a decode-time structural violation.
func IsMalformed(err error) bool {
	var me *MalformedError
	return errors.As(err, &me)
}
