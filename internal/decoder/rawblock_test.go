package decoder

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thanhnp/baseline-explorer/internal/rpc"
)

// buildCoinbaseTx serializes a minimal one-input one-output coinbase
// transaction in wire format.
func buildCoinbaseTx(value int64, pkScript []byte) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint32(1)) // version
	buf.WriteByte(1)                                   // input count
	buf.Write(make([]byte, 32))                        // null prev hash
	binary.Write(&buf, binary.LittleEndian, uint32(0xffffffff))
	script := []byte{0x04, 0xde, 0xad, 0xbe, 0xef}
	buf.WriteByte(byte(len(script)))
	buf.Write(script)
	binary.Write(&buf, binary.LittleEndian, uint32(0xffffffff)) // sequence
	buf.WriteByte(1)                                            // output count
	binary.Write(&buf, binary.LittleEndian, uint64(value))
	buf.WriteByte(byte(len(pkScript)))
	buf.Write(pkScript)
	binary.Write(&buf, binary.LittleEndian, uint32(0)) // lock time
	return buf.Bytes()
}

// buildSpendTx serializes a one-input one-output transaction spending the
// given outpoint.
func buildSpendTx(prevHash []byte, prevVout uint32, value int64, pkScript []byte) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint32(1)) // version
	buf.WriteByte(1)                                   // input count
	buf.Write(prevHash)
	binary.Write(&buf, binary.LittleEndian, prevVout)
	buf.WriteByte(0)                                            // empty signature script
	binary.Write(&buf, binary.LittleEndian, uint32(0xfffffffe)) // sequence
	buf.WriteByte(1)                                            // output count
	binary.Write(&buf, binary.LittleEndian, uint64(value))
	buf.WriteByte(byte(len(pkScript)))
	buf.Write(pkScript)
	binary.Write(&buf, binary.LittleEndian, uint32(0)) // lock time
	return buf.Bytes()
}

func p2pkhScript(hash160 []byte) []byte {
	script := []byte{0x76, 0xa9, 0x14}
	script = append(script, hash160...)
	return append(script, 0x88, 0xac)
}

func buildRawBlock(txs ...[]byte) string {
	var buf bytes.Buffer
	buf.Write(make([]byte, blockHeaderSize))
	buf.WriteByte(byte(len(txs)))
	for _, tx := range txs {
		buf.Write(tx)
	}
	return hex.EncodeToString(buf.Bytes())
}

func TestParseRawBlockTxs(t *testing.T) {
	hash160 := bytes.Repeat([]byte{0x11}, 20)
	cbBytes := buildCoinbaseTx(5_000_000_000, p2pkhScript(hash160))
	cbHash := chainhash.DoubleHashH(cbBytes)
	spendBytes := buildSpendTx(cbHash[:], 0, 4_999_999_000, p2pkhScript(hash160))
	wantSpendTxID := chainhash.DoubleHashH(spendBytes).String()

	txs, err := parseRawBlockTxs(buildRawBlock(cbBytes, spendBytes))
	require.NoError(t, err)
	require.Len(t, txs, 2)

	cb := txs[0]
	assert.Equal(t, cbHash.String(), cb.TxID)
	assert.Equal(t, int32(1), cb.Version)
	assert.Equal(t, len(cbBytes), cb.Size)
	require.Len(t, cb.Vin, 1)
	assert.True(t, cb.Vin[0].isCoinbase())
	require.Len(t, cb.Vout, 1)
	assert.Equal(t, int64(5_000_000_000), *cb.Vout[0].Value)
	assert.Equal(t, hex.EncodeToString(p2pkhScript(hash160)), cb.Vout[0].ScriptPubKey)

	spend := txs[1]
	assert.Equal(t, wantSpendTxID, spend.TxID)
	require.Len(t, spend.Vin, 1)
	assert.False(t, spend.Vin[0].isCoinbase())
	assert.Equal(t, cbHash.String(), spend.Vin[0].TxID, "outpoint hash is byte-reversed to txid form")
	assert.Equal(t, 0, spend.Vin[0].Vout)
	require.Len(t, spend.Vout, 1)
	assert.Equal(t, int64(4_999_999_000), *spend.Vout[0].Value)
}

func TestParseRawBlockTxsTruncated(t *testing.T) {
	hash160 := bytes.Repeat([]byte{0x11}, 20)
	txBytes := buildCoinbaseTx(100, p2pkhScript(hash160))
	full := buildRawBlock(txBytes)

	tests := []struct {
		name string
		raw  string
	}{
		{"not hex", "zz"},
		{"shorter than header", "00"},
		{"truncated transaction", full[:len(full)-10]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseRawBlockTxs(tt.raw)
			require.Error(t, err)
			assert.True(t, IsMalformed(err))
		})
	}
}

func TestParseRawBlockTxsHostileLengths(t *testing.T) {
	hugeCountBlock := func() string {
		var buf bytes.Buffer
		buf.Write(make([]byte, blockHeaderSize))
		buf.WriteByte(0xff)
		buf.Write(bytes.Repeat([]byte{0xff}, 8)) // tx count far beyond the payload
		return hex.EncodeToString(buf.Bytes())
	}()

	hugeInputScriptBlock := func() string {
		var tx bytes.Buffer
		binary.Write(&tx, binary.LittleEndian, uint32(1)) // version
		tx.WriteByte(1)                                   // input count
		tx.Write(make([]byte, 32))                        // null prev hash
		binary.Write(&tx, binary.LittleEndian, uint32(0xffffffff))
		tx.WriteByte(0xff)
		tx.Write(bytes.Repeat([]byte{0xff}, 8)) // script length with the top bit set
		return buildRawBlock(tx.Bytes())
	}()

	hugeOutputScriptBlock := func() string {
		var tx bytes.Buffer
		binary.Write(&tx, binary.LittleEndian, uint32(1)) // version
		tx.WriteByte(0)                                   // no inputs
		tx.WriteByte(1)                                   // output count
		binary.Write(&tx, binary.LittleEndian, uint64(100))
		tx.WriteByte(0xff)
		tx.Write(bytes.Repeat([]byte{0xff}, 8))
		return buildRawBlock(tx.Bytes())
	}()

	tests := []struct {
		name string
		raw  string
	}{
		{"transaction count beyond payload", hugeCountBlock},
		{"input script length beyond payload", hugeInputScriptBlock},
		{"output script length beyond payload", hugeOutputScriptBlock},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotPanics(t, func() {
				_, err := parseRawBlockTxs(tt.raw)
				require.Error(t, err)
				assert.True(t, IsMalformed(err))
			})
		})
	}
}

func TestReadVarint(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
		want uint64
		next int
	}{
		{"small", []byte{0x2a}, 42, 1},
		{"uint16", []byte{0xfd, 0x01, 0x02}, 0x0201, 3},
		{"uint32", []byte{0xfe, 0x01, 0x02, 0x03, 0x04}, 0x04030201, 5},
		{"uint64", []byte{0xff, 1, 0, 0, 0, 0, 0, 0, 0}, 1, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, next, err := readVarint(tt.buf, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.next, next)
		})
	}

	_, _, err := readVarint([]byte{0xfd, 0x01}, 0)
	assert.Error(t, err)
	_, _, err = readVarint(nil, 0)
	assert.Error(t, err)
}

func TestTransactionRawBlockFallback(t *testing.T) {
	hash160 := bytes.Repeat([]byte{0x22}, 20)
	txBytes := buildCoinbaseTx(5_000_000_000, p2pkhScript(hash160))
	txid := chainhash.DoubleHashH(txBytes).String()
	blockHash := "feed"

	node := &fakeNode{
		blocks: map[string]string{
			blockHash: `{"hash":"feed","height":9,"time":1700000000,"tx":["` + txid + `"]}`,
		},
		rawBlocks: map[string]string{
			blockHash: buildRawBlock(txBytes),
		},
		txErrs: map[string]error{
			txid: &rpc.Error{Code: -5, Message: "no such mempool or blockchain transaction"},
		},
	}
	d := newTestDecoder(node)

	tx, err := d.Transaction(context.Background(), txid, blockHash)
	require.NoError(t, err)
	assert.Equal(t, txid, tx.TxID)
	assert.True(t, tx.IsCoinbase)
	assert.Equal(t, int64(0), tx.Fee)
	assert.Equal(t, int64(9), tx.BlockHeight)
	require.Len(t, tx.Outputs, 1)
	assert.Equal(t, int64(5_000_000_000), tx.Outputs[0].Value)
	assert.NotEmpty(t, tx.Outputs[0].Address)
}

func TestTransactionRawBlockFallbackMissingTx(t *testing.T) {
	hash160 := bytes.Repeat([]byte{0x22}, 20)
	txBytes := buildCoinbaseTx(100, p2pkhScript(hash160))
	blockHash := "feed"

	node := &fakeNode{
		blocks: map[string]string{
			blockHash: `{"hash":"feed","height":9,"time":1700000000,"tx":["other"]}`,
		},
		rawBlocks: map[string]string{
			blockHash: buildRawBlock(txBytes),
		},
		txErrs: map[string]error{
			"other": &rpc.Error{Code: -5, Message: "not found"},
		},
	}
	d := newTestDecoder(node)

	_, err := d.Transaction(context.Background(), "other", blockHash)
	require.Error(t, err)
	nodeErr, ok := rpc.IsNodeError(err)
	require.True(t, ok)
	assert.Equal(t, -5, nodeErr.Code)
}
