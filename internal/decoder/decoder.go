package decoder

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/thanhnp/baseline-explorer/internal/models"
	"github.com/thanhnp/baseline-explorer/internal/rpc"
)

// NodeClient is the slice of the RPC surface the decoder needs.
type NodeClient interface {
	GetBlockHash(ctx context.Context, height int64) (string, error)
	GetBlockVerbose(ctx context.Context, hash string) (json.RawMessage, error)
	GetBlockRaw(ctx context.Context, hash string) (string, error)
	GetRawTransactionVerbose(ctx context.Context, txid, blockHash string) (json.RawMessage, error)
}

// ResolveFunc looks up the funding output for an input. Implementations
// are expected to be backed by the RPC client plus a cache.
type ResolveFunc func(ctx context.Context, txid string, vout int) (models.TxOutput, error)

// Decoder turns raw node payloads into the typed entities, resolving each
// input against its funding output and enforcing value conservation.
type Decoder struct {
	node           NodeClient
	cache          *Cache
	addressVersion byte
	log            *zap.Logger
}

// New constructs a Decoder.
func New(node NodeClient, cache *Cache, addressVersion byte, log *zap.Logger) *Decoder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Decoder{
		node:           node,
		cache:          cache,
		addressVersion: addressVersion,
		log:            log,
	}
}

// Cache exposes the decoder's cache for tip observation by request entry
// points.
func (d *Decoder) Cache() *Cache {
	return d.cache
}

// DecodeBlock validates a verbose block payload into a Block. Any missing
// required field is a MalformedError, never a silent default.
func (d *Decoder) DecodeBlock(raw json.RawMessage) (*models.Block, error) {
	var env blockEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, malformedBlock("", "undecodable payload: "+err.Error())
	}
	if env.Hash == "" {
		return nil, malformedBlock("", "missing hash")
	}
	if env.Height == nil {
		return nil, malformedBlock(env.Hash, "missing height")
	}
	if env.Time == nil {
		return nil, malformedBlock(env.Hash, "missing time")
	}
	if env.Tx == nil {
		return nil, malformedBlock(env.Hash, "missing transaction list")
	}
	return &models.Block{
		Hash:          env.Hash,
		Height:        *env.Height,
		Version:       env.Version,
		PreviousHash:  env.PreviousHash,
		NextHash:      env.NextHash,
		MerkleRoot:    env.MerkleRoot,
		Timestamp:     time.Unix(*env.Time, 0).UTC(),
		Bits:          env.Bits,
		Nonce:         env.Nonce,
		Size:          env.Size,
		TxIDs:         env.Tx,
		Confirmations: env.Confirmations,
	}, nil
}

// DecodeTransaction validates a verbose transaction payload, resolving
// every input through resolve. Non-coinbase transactions must conserve
// value: sum(inputs) = sum(outputs) + fee with fee >= 0, exact integer
// equality in liners. Coinbase transactions have fee 0 by definition and
// are exempt.
func (d *Decoder) DecodeTransaction(ctx context.Context, raw json.RawMessage, resolve ResolveFunc) (*models.Transaction, error) {
	var env txEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, malformedTx("", "undecodable payload: "+err.Error())
	}
	return d.decodeEnvelope(ctx, env, resolve)
}

func (d *Decoder) decodeEnvelope(ctx context.Context, env txEnvelope, resolve ResolveFunc) (*models.Transaction, error) {
	if env.TxID == "" {
		return nil, malformedTx("", "missing txid")
	}
	if len(env.Vout) == 0 {
		return nil, malformedTx(env.TxID, "no outputs")
	}

	tx := &models.Transaction{
		TxID:        env.TxID,
		BlockHash:   env.BlockHash,
		BlockHeight: -1,
		Version:     env.Version,
		LockTime:    env.LockTime,
		Size:        env.Size,
	}
	if env.Time > 0 {
		tx.Timestamp = time.Unix(env.Time, 0).UTC()
	}

	for i, vin := range env.Vin {
		if vin.isCoinbase() {
			if i != 0 || len(env.Vin) != 1 {
				return nil, malformedTx(env.TxID, "coinbase input beside real inputs")
			}
			tx.IsCoinbase = true
			tx.Inputs = append(tx.Inputs, models.TxInput{
				PrevTxID:    "",
				PrevVoutIdx: -1,
				Sequence:    vin.Sequence,
				IsCoinbase:  true,
			})
			continue
		}
		funding, err := resolve(ctx, vin.TxID, vin.Vout)
		if err != nil {
			return nil, err
		}
		tx.Inputs = append(tx.Inputs, models.TxInput{
			PrevTxID:    vin.TxID,
			PrevVoutIdx: vin.Vout,
			Value:       funding.Value,
			Address:     funding.Address,
			Sequence:    vin.Sequence,
		})
	}

	for _, vout := range env.Vout {
		if vout.N == nil || vout.Value == nil {
			return nil, malformedTx(env.TxID, "output missing index or value")
		}
		if *vout.Value < 0 {
			return nil, malformedTx(env.TxID, "negative output value")
		}
		out := models.TxOutput{
			Index:        *vout.N,
			Value:        *vout.Value,
			ScriptPubKey: vout.ScriptPubKey,
		}
		if addr, ok := AddressFromScript(vout.ScriptPubKey, d.addressVersion); ok {
			out.Address = addr
		}
		tx.Outputs = append(tx.Outputs, out)
	}

	if tx.IsCoinbase {
		tx.Fee = 0
	} else {
		fee := tx.InputSum() - tx.OutputSum()
		if fee < 0 {
			return nil, malformedTx(env.TxID, "value conservation violated: outputs exceed inputs")
		}
		tx.Fee = fee
	}
	return tx, nil
}

// BlockByHash fetches, decodes, and caches a block.
func (d *Decoder) BlockByHash(ctx context.Context, hash string) (*models.Block, error) {
	if b, ok := d.cache.Block(hash); ok {
		return b, nil
	}
	raw, err := d.node.GetBlockVerbose(ctx, hash)
	if err != nil {
		return nil, err
	}
	b, err := d.DecodeBlock(raw)
	if err != nil {
		return nil, err
	}
	d.cache.PutBlock(b)
	return b, nil
}

// BlockByHeight resolves a height to its hash and fetches the block.
func (d *Decoder) BlockByHeight(ctx context.Context, height int64) (*models.Block, error) {
	if hash, ok := d.cache.BlockHashAtHeight(height); ok {
		if b, okB := d.cache.Block(hash); okB {
			return b, nil
		}
	}
	hash, err := d.node.GetBlockHash(ctx, height)
	if err != nil {
		return nil, err
	}
	return d.BlockByHash(ctx, hash)
}

// Transaction fetches and fully decodes a transaction, inputs resolved.
// blockHash, when known, is passed to the node and enables the raw-block
// fallback for transactions the node refuses to serve individually.
func (d *Decoder) Transaction(ctx context.Context, txid, blockHash string) (*models.Transaction, error) {
	env, err := d.fetchEnvelope(ctx, txid, blockHash)
	if err != nil {
		return nil, err
	}
	tx, err := d.decodeEnvelope(ctx, env, d.ResolveOutput)
	if err != nil {
		return nil, err
	}
	d.fillBlockRef(ctx, tx)
	return tx, nil
}

// fillBlockRef attaches height and timestamp from the containing block.
func (d *Decoder) fillBlockRef(ctx context.Context, tx *models.Transaction) {
	if tx.BlockHash == "" {
		return
	}
	block, err := d.BlockByHash(ctx, tx.BlockHash)
	if err != nil {
		d.log.Warn("containing block lookup failed",
			zap.String("txid", tx.TxID), zap.String("block", tx.BlockHash), zap.Error(err))
		return
	}
	tx.BlockHeight = block.Height
	if tx.Timestamp.IsZero() {
		tx.Timestamp = block.Timestamp
	}
}

// ResolveOutput is the decoder's own ResolveFunc: it fetches the funding
// transaction (through the cache) and extracts the referenced output. A
// node "not found" rejection becomes ErrUnresolvedInput.
func (d *Decoder) ResolveOutput(ctx context.Context, txid string, vout int) (models.TxOutput, error) {
	env, err := d.fetchEnvelope(ctx, txid, "")
	if err != nil {
		if _, ok := rpc.IsNodeError(err); ok {
			return models.TxOutput{}, ErrUnresolvedInput
		}
		return models.TxOutput{}, err
	}
	if vout < 0 || vout >= len(env.Vout) {
		return models.TxOutput{}, malformedTx(txid, "input references nonexistent output index")
	}
	v := env.Vout[vout]
	if v.Value == nil {
		return models.TxOutput{}, malformedTx(txid, "funding output missing value")
	}
	out := models.TxOutput{
		Index:        vout,
		Value:        *v.Value,
		ScriptPubKey: v.ScriptPubKey,
	}
	if addr, ok := AddressFromScript(v.ScriptPubKey, d.addressVersion); ok {
		out.Address = addr
	}
	return out, nil
}

// fetchEnvelope returns the raw verbose payload for a txid, consulting the
// cache first. When the node rejects the lookup and a containing block is
// known, the transaction is re-derived from the raw block.
func (d *Decoder) fetchEnvelope(ctx context.Context, txid, blockHash string) (txEnvelope, error) {
	var env txEnvelope
	if raw, ok := d.cache.RawTx(txid); ok {
		if err := json.Unmarshal(raw, &env); err != nil {
			return env, malformedTx(txid, "cached payload undecodable: "+err.Error())
		}
		return env, nil
	}

	raw, err := d.node.GetRawTransactionVerbose(ctx, txid, blockHash)
	if err != nil {
		if _, ok := rpc.IsNodeError(err); ok && blockHash != "" {
			return d.envelopeFromRawBlock(ctx, txid, blockHash)
		}
		return env, err
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return env, malformedTx(txid, "undecodable payload: "+err.Error())
	}
	d.cache.PutRawTx(txid, raw, env.BlockHash != "")
	return env, nil
}

// envelopeFromRawBlock scans the hex-serialized block for txid.
func (d *Decoder) envelopeFromRawBlock(ctx context.Context, txid, blockHash string) (txEnvelope, error) {
	var env txEnvelope
	meta, err := d.BlockByHash(ctx, blockHash)
	if err != nil {
		return env, err
	}
	blockHex, err := d.node.GetBlockRaw(ctx, blockHash)
	if err != nil {
		return env, err
	}
	txs, err := parseRawBlockTxs(blockHex)
	if err != nil {
		return env, err
	}
	for _, tx := range txs {
		if tx.TxID != txid {
			continue
		}
		tx.BlockHash = blockHash
		tx.Time = meta.Timestamp.Unix()
		tx.Confirmations = meta.Confirmations
		raw, marshalErr := json.Marshal(tx)
		if marshalErr == nil {
			d.cache.PutRawTx(txid, raw, true)
		}
		return tx, nil
	}
	return env, &rpc.Error{Code: -5, Message: "transaction " + txid + " not found in block " + blockHash}
}
