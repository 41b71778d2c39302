package rpc

import (
	"context"
	"encoding/json"
	"fmt"
)

// ChainInfo is the result of getblockchaininfo.
type ChainInfo struct {
	Chain         string  `json:"chain"`
	Blocks        int64   `json:"blocks"`
	Headers       int64   `json:"headers"`
	BestBlockHash string  `json:"bestblockhash"`
	Difficulty    float64 `json:"difficulty"`
}

// MempoolInfo is the result of getmempoolinfo.
type MempoolInfo struct {
	Size  int64 `json:"size"`
	Bytes int64 `json:"bytes"`
	Usage int64 `json:"usage"`
}

// MempoolEntry is one entry of getrawmempool verbose output. Fee is in
// liners, Size in bytes.
type MempoolEntry struct {
	Size int64 `json:"size"`
	Fee  int64 `json:"fee"`
	Time int64 `json:"time"`
}

// MiningInfo is the result of getmininginfo.
type MiningInfo struct {
	Blocks        int64   `json:"blocks"`
	Difficulty    float64 `json:"difficulty"`
	NetworkHashPS float64 `json:"networkhashps"`
}

// ChainTip is one entry of getchaintips.
type ChainTip struct {
	Height    int64  `json:"height"`
	Hash      string `json:"hash"`
	BranchLen int64  `json:"branchlen"`
	Status    string `json:"status"`
}

// AddressBalance is the result of getaddressbalance.
type AddressBalance struct {
	Balance  int64 `json:"balance"`
	Received int64 `json:"received"`
}

// AddressTxRef is one entry of getaddresstxids. The node returns either a
// bare txid string or an object carrying the containing block.
type AddressTxRef struct {
	TxID      string `json:"txid"`
	Height    int64  `json:"height"`
	BlockHash string `json:"blockhash"`
}

// UnmarshalJSON accepts both the bare-string and the object forms.
func (r *AddressTxRef) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		r.Height = -1
		return json.Unmarshal(data, &r.TxID)
	}
	type ref struct {
		TxID      string `json:"txid"`
		Height    *int64 `json:"height"`
		BlockHash string `json:"blockhash"`
	}
	var obj ref
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	r.TxID = obj.TxID
	r.BlockHash = obj.BlockHash
	r.Height = -1
	if obj.Height != nil {
		r.Height = *obj.Height
	}
	return nil
}

// AddressUTXO is one entry of getaddressutxos.
type AddressUTXO struct {
	TxID        string `json:"txid"`
	OutputIndex int    `json:"outputIndex"`
	Value       int64  `json:"value"`
	Height      int64  `json:"height"`
}

// RichEntry is one entry of the node's native getrichlist.
type RichEntry struct {
	Address string `json:"address"`
	Balance int64  `json:"balance_liners"`
}

// GetBlockCount returns the current tip height.
func (c *Client) GetBlockCount(ctx context.Context) (int64, error) {
	var count int64
	return count, c.call(ctx, &count, "getblockcount")
}

// GetBestBlockHash returns the hash of the tip block.
func (c *Client) GetBestBlockHash(ctx context.Context) (string, error) {
	var hash string
	return hash, c.call(ctx, &hash, "getbestblockhash")
}

// GetBlockHash returns the block hash at the given height.
func (c *Client) GetBlockHash(ctx context.Context, height int64) (string, error) {
	var hash string
	return hash, c.call(ctx, &hash, "getblockhash", height)
}

// GetBlockVerbose returns the undecoded verbose block payload. The decode
// layer owns validation of its shape.
func (c *Client) GetBlockVerbose(ctx context.Context, hash string) (json.RawMessage, error) {
	return c.Call(ctx, "getblock", hash, true)
}

// GetBlockRaw returns the block serialized as hex.
func (c *Client) GetBlockRaw(ctx context.Context, hash string) (string, error) {
	var raw string
	return raw, c.call(ctx, &raw, "getblock", hash, false)
}

// GetRawTransactionVerbose returns the undecoded verbose transaction
// payload. A non-empty blockHash hints the node at the containing block.
func (c *Client) GetRawTransactionVerbose(ctx context.Context, txid, blockHash string) (json.RawMessage, error) {
	if blockHash != "" {
		return c.Call(ctx, "getrawtransaction", txid, true, blockHash)
	}
	return c.Call(ctx, "getrawtransaction", txid, true)
}

// GetBlockchainInfo returns the chain status summary.
func (c *Client) GetBlockchainInfo(ctx context.Context) (*ChainInfo, error) {
	var info ChainInfo
	return &info, c.call(ctx, &info, "getblockchaininfo")
}

// GetMempoolInfo returns the mempool size summary.
func (c *Client) GetMempoolInfo(ctx context.Context) (*MempoolInfo, error) {
	var info MempoolInfo
	return &info, c.call(ctx, &info, "getmempoolinfo")
}

// GetRawMempoolVerbose returns per-transaction mempool entries keyed by txid.
func (c *Client) GetRawMempoolVerbose(ctx context.Context) (map[string]MempoolEntry, error) {
	entries := make(map[string]MempoolEntry)
	return entries, c.call(ctx, &entries, "getrawmempool", true)
}

// GetRawMempool returns the txids currently pending.
func (c *Client) GetRawMempool(ctx context.Context) ([]string, error) {
	var txids []string
	return txids, c.call(ctx, &txids, "getrawmempool")
}

// GetMiningInfo returns the mining status summary.
func (c *Client) GetMiningInfo(ctx context.Context) (*MiningInfo, error) {
	var info MiningInfo
	return &info, c.call(ctx, &info, "getmininginfo")
}

// GetCirculatingSupply returns the supply in liners.
func (c *Client) GetCirculatingSupply(ctx context.Context) (int64, error) {
	var supply int64
	return supply, c.call(ctx, &supply, "getcirculatingsupply")
}

// GetChainTips returns all known chain tips, including orphaned branches.
func (c *Client) GetChainTips(ctx context.Context) ([]ChainTip, error) {
	var tips []ChainTip
	return tips, c.call(ctx, &tips, "getchaintips")
}

// GetAddressBalance returns the node-tracked balance of an address.
func (c *Client) GetAddressBalance(ctx context.Context, address string) (*AddressBalance, error) {
	var bal AddressBalance
	return &bal, c.call(ctx, &bal, "getaddressbalance", map[string]any{"addresses": []string{address}})
}

// GetAddressTxIDs returns a window of the address's transaction references,
// newest first. limit/offset page the node-side listing.
func (c *Client) GetAddressTxIDs(ctx context.Context, address string, limit, offset int) ([]AddressTxRef, error) {
	var refs []AddressTxRef
	params := map[string]any{
		"addresses":      []string{address},
		"include_height": true,
		"limit":          limit,
		"offset":         offset,
	}
	return refs, c.call(ctx, &refs, "getaddresstxids", params)
}

// GetAddressUTXOs returns the address's current unspent outputs.
func (c *Client) GetAddressUTXOs(ctx context.Context, address string) ([]AddressUTXO, error) {
	var utxos []AddressUTXO
	return utxos, c.call(ctx, &utxos, "getaddressutxos", map[string]any{"addresses": []string{address}})
}

// GetRichList returns the node's native ranked balances window.
func (c *Client) GetRichList(ctx context.Context, limit, offset int) ([]RichEntry, error) {
	var entries []RichEntry
	return entries, c.call(ctx, &entries, "getrichlist", limit, offset)
}

// call invokes the method and decodes the result into out.
func (c *Client) call(ctx context.Context, out any, method string, params ...any) error {
	raw, err := c.Call(ctx, method, params...)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s result: %w", method, err)
	}
	return nil
}
