package models

import (
	"time"
)

// TxInput is a transaction input with its funding output resolved. Value
// and Address come from the funding transaction's output; they are looked
// up at decode time, never stored redundantly.
type TxInput struct {
	PrevTxID    string `json:"prev_txid"`
	PrevVoutIdx int    `json:"prev_vout_index"`
	Value       int64  `json:"value"` // liners; 0 for coinbase inputs
	Address     string `json:"address,omitempty"`
	Sequence    uint32 `json:"sequence"`
	IsCoinbase  bool   `json:"is_coinbase"`
}

// TxOutput is a transaction output.
type TxOutput struct {
	Index        int    `json:"index"`
	Value        int64  `json:"value"` // liners
	Address      string `json:"address,omitempty"`
	ScriptPubKey string `json:"script_pubkey"`
	Spent        bool   `json:"spent"`
}

// Transaction is a fully decoded Baseline transaction. BlockHash is empty
// while the transaction is still in the mempool.
type Transaction struct {
	TxID          string     `json:"txid"`
	BlockHash     string     `json:"block_hash,omitempty"`
	BlockHeight   int64      `json:"block_height"` // -1 while unconfirmed
	Version       int32      `json:"version"`
	LockTime      uint32     `json:"lock_time"`
	Size          int        `json:"size"`
	Timestamp     time.Time  `json:"timestamp"`
	Inputs        []TxInput  `json:"inputs"`
	Outputs       []TxOutput `json:"outputs"`
	Fee           int64      `json:"fee"` // liners; 0 for coinbase
	IsCoinbase    bool       `json:"is_coinbase"`
	Confirmations int64      `json:"confirmations"`
}

// Confirmed reports whether the transaction is included in a block.
func (t *Transaction) Confirmed() bool {
	return t.BlockHash != ""
}

// InputSum returns the total value of resolved inputs in liners.
func (t *Transaction) InputSum() int64 {
	var sum int64
	for _, in := range t.Inputs {
		sum += in.Value
	}
	return sum
}

// OutputSum returns the total output value in liners.
func (t *Transaction) OutputSum() int64 {
	var sum int64
	for _, out := range t.Outputs {
		sum += out.Value
	}
	return sum
}
