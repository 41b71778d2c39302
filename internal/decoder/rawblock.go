package decoder

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

const blockHeaderSize = 80

// parseRawBlockTxs parses every transaction out of a hex-serialized block.
// This is the fallback for transactions the node refuses to serve
// individually (coinbase lookups without a transaction index).
func parseRawBlockTxs(blockHex string) ([]txEnvelope, error) {
	buf, err := hex.DecodeString(blockHex)
	if err != nil {
		return nil, malformedBlock("", "block hex undecodable: "+err.Error())
	}
	if len(buf) < blockHeaderSize {
		return nil, malformedBlock("", "raw block shorter than header")
	}

	offset := blockHeaderSize
	txCount, offset, err := readVarint(buf, offset)
	if err != nil {
		return nil, malformedBlock("", "transaction count: "+err.Error())
	}
	// Every transaction occupies at least several bytes, so a count larger
	// than the remaining payload is garbage, not merely truncated data.
	if txCount > uint64(len(buf)-offset) {
		return nil, malformedBlock("", "transaction count exceeds block size")
	}

	txs := make([]txEnvelope, 0, txCount)
	for i := uint64(0); i < txCount; i++ {
		var tx txEnvelope
		tx, offset, err = parseTransactionAt(buf, offset)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// parseTransactionAt decodes the wire-format transaction starting at
// offset and returns it together with the offset past its end. The txid is
// the byte-reversed double SHA-256 of the transaction bytes.
func parseTransactionAt(buf []byte, offset int) (txEnvelope, int, error) {
	var tx txEnvelope
	start := offset

	version, offset, err := readUint32(buf, offset)
	if err != nil {
		return tx, 0, malformedTx("", "version: "+err.Error())
	}
	tx.Version = int32(version)

	vinCount, offset, err := readVarint(buf, offset)
	if err != nil {
		return tx, 0, malformedTx("", "input count: "+err.Error())
	}
	for i := uint64(0); i < vinCount; i++ {
		if offset+36 > len(buf) {
			return tx, 0, malformedTx("", "truncated input outpoint")
		}
		prevHash, err := chainhash.NewHash(buf[offset : offset+32])
		if err != nil {
			return tx, 0, malformedTx("", "input outpoint: "+err.Error())
		}
		offset += 32
		prevVout := binary.LittleEndian.Uint32(buf[offset : offset+4])
		offset += 4

		scriptLen, next, err := readVarint(buf, offset)
		if err != nil {
			return tx, 0, malformedTx("", "input script length: "+err.Error())
		}
		offset = next
		// Compare in uint64 space before converting: a hostile length
		// would wrap negative through int and defeat the bounds check.
		if scriptLen > uint64(len(buf)-offset) {
			return tx, 0, malformedTx("", "truncated input script")
		}
		script := buf[offset : offset+int(scriptLen)]
		offset += int(scriptLen)

		sequence, next, err := readUint32(buf, offset)
		if err != nil {
			return tx, 0, malformedTx("", "input sequence: "+err.Error())
		}
		offset = next

		if isZeroHash(prevHash) && prevVout == 0xffffffff {
			tx.Vin = append(tx.Vin, vinEnvelope{
				Coinbase: hex.EncodeToString(script),
				Sequence: sequence,
			})
		} else {
			tx.Vin = append(tx.Vin, vinEnvelope{
				TxID:     prevHash.String(),
				Vout:     int(prevVout),
				Sequence: sequence,
			})
		}
	}

	voutCount, offset, err := readVarint(buf, offset)
	if err != nil {
		return tx, 0, malformedTx("", "output count: "+err.Error())
	}
	for n := uint64(0); n < voutCount; n++ {
		if offset+8 > len(buf) {
			return tx, 0, malformedTx("", "truncated output value")
		}
		value := int64(binary.LittleEndian.Uint64(buf[offset : offset+8]))
		offset += 8

		scriptLen, next, err := readVarint(buf, offset)
		if err != nil {
			return tx, 0, malformedTx("", "output script length: "+err.Error())
		}
		offset = next
		if scriptLen > uint64(len(buf)-offset) {
			return tx, 0, malformedTx("", "truncated output script")
		}
		script := buf[offset : offset+int(scriptLen)]
		offset += int(scriptLen)

		idx := int(n)
		v := value
		tx.Vout = append(tx.Vout, voutEnvelope{
			N:            &idx,
			Value:        &v,
			ScriptPubKey: hex.EncodeToString(script),
		})
	}

	lockTime, offset, err := readUint32(buf, offset)
	if err != nil {
		return tx, 0, malformedTx("", "lock time: "+err.Error())
	}
	tx.LockTime = lockTime

	raw := buf[start:offset]
	tx.Size = len(raw)
	tx.TxID = chainhash.DoubleHashH(raw).String()
	return tx, offset, nil
}

func isZeroHash(h *chainhash.Hash) bool {
	for _, b := range h {
		if b != 0 {
			return false
		}
	}
	return true
}

func readUint32(buf []byte, offset int) (uint32, int, error) {
	if offset+4 > len(buf) {
		return 0, 0, errTruncated
	}
	return binary.LittleEndian.Uint32(buf[offset : offset+4]), offset + 4, nil
}

// readVarint decodes a Bitcoin-style compact size integer.
func readVarint(buf []byte, offset int) (uint64, int, error) {
	if offset >= len(buf) {
		return 0, 0, errTruncated
	}
	prefix := buf[offset]
	offset++
	switch {
	case prefix < 0xfd:
		return uint64(prefix), offset, nil
	case prefix == 0xfd:
		if offset+2 > len(buf) {
			return 0, 0, errTruncated
		}
		return uint64(binary.LittleEndian.Uint16(buf[offset : offset+2])), offset + 2, nil
	case prefix == 0xfe:
		if offset+4 > len(buf) {
			return 0, 0, errTruncated
		}
		return uint64(binary.LittleEndian.Uint32(buf[offset : offset+4])), offset + 4, nil
	default:
		if offset+8 > len(buf) {
			return 0, 0, errTruncated
		}
		return binary.LittleEndian.Uint64(buf[offset : offset+8]), offset + 8, nil
	}
}
