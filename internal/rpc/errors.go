package rpc

import (
	"errors"
	"fmt"
)

// Transport-level failures. These are retried with bounded backoff before
// being surfaced.
var (
	// ErrUnreachable means the node could not be reached at all.
	ErrUnreachable = errors.New("baseline rpc: node unreachable")
	// ErrTimeout means the node did not answer within the call deadline.
	ErrTimeout = errors.New("baseline rpc: call timed out")
)

// Error is a well-formed rejection returned by the node. It is never
// retried: the node understood the request and refused it.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (code %d)", e.Message, e.Code)
}

// IsNodeError reports whether err is a node rejection and returns it.
func IsNodeError(err error) (*Error, bool) {
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr, true
	}
	return nil, false
}

// IsTransport reports whether err is a transport-level failure
// (unreachable or timed out).
func IsTransport(err error) bool {
	return errors.Is(err, ErrUnreachable) || errors.Is(err, ErrTimeout)
}
