package models

import (
	"time"
)

// UTXO is an unspent output attributed to an address.
type UTXO struct {
	TxID      string `json:"txid"`
	VoutIndex int    `json:"vout_index"`
	Value     int64  `json:"value"`  // liners
	Height    int64  `json:"height"` // -1 while unconfirmed
}

// HistoryEntry is one transaction in an address's history with the
// address-relative flows already computed.
type HistoryEntry struct {
	TxID          string    `json:"txid"`
	BlockHash     string    `json:"block_hash,omitempty"`
	BlockHeight   int64     `json:"block_height"` // -1 while unconfirmed
	Timestamp     time.Time `json:"timestamp"`
	Received      int64     `json:"received"` // liners into this address
	Sent          int64     `json:"sent"`     // liners out of this address
	Net           int64     `json:"net"`
	Confirmations int64     `json:"confirmations"`
	Pending       bool      `json:"pending"`
}

// AddressView is the paginated projection of a single address: balance,
// UTXO set, and transaction history. Balance always equals the sum of the
// UTXO set's values.
type AddressView struct {
	Address  string         `json:"address"`
	Balance  int64          `json:"balance"` // liners
	UTXOs    []UTXO         `json:"utxos"`
	History  []HistoryEntry `json:"history"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
	HasNext  bool           `json:"has_next"`
	HasPrev  bool           `json:"has_prev"`
}
