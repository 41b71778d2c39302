package models

import (
	"time"
)

// Block represents a confirmed Baseline block. Confirmed blocks are
// immutable; Confirmations is the only field derived from the request's
// tip snapshot rather than the block itself.
type Block struct {
	Hash          string    `json:"hash"`
	Height        int64     `json:"height"`
	Version       int32     `json:"version"`
	PreviousHash  string    `json:"previous_hash"`
	NextHash      string    `json:"next_hash,omitempty"`
	MerkleRoot    string    `json:"merkle_root"`
	Timestamp     time.Time `json:"timestamp"`
	Bits          string    `json:"bits"`
	Nonce         uint32    `json:"nonce"`
	Size          int       `json:"size"`
	TxIDs         []string  `json:"txids"`
	Confirmations int64     `json:"confirmations"`
}

// TxCount returns the number of transactions in the block.
func (b *Block) TxCount() int {
	return len(b.TxIDs)
}
