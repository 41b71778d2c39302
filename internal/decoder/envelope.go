package decoder

// txEnvelope is the node's verbose transaction shape. Both the JSON decode
// path and the raw-block fallback parser produce this form before
// validation.
type txEnvelope struct {
	TxID          string         `json:"txid"`
	Version       int32          `json:"version"`
	LockTime      uint32         `json:"locktime"`
	Size          int            `json:"size"`
	Time          int64          `json:"time"`
	BlockHash     string         `json:"blockhash"`
	Confirmations int64          `json:"confirmations"`
	Vin           []vinEnvelope  `json:"vin"`
	Vout          []voutEnvelope `json:"vout"`
}

type vinEnvelope struct {
	Coinbase string `json:"coinbase"`
	TxID     string `json:"txid"`
	Vout     int    `json:"vout"`
	Sequence uint32 `json:"sequence"`
}

func (v vinEnvelope) isCoinbase() bool {
	return v.Coinbase != "" || v.TxID == ""
}

type voutEnvelope struct {
	N            *int   `json:"n"`
	Value        *int64 `json:"value"`
	ScriptPubKey string `json:"scriptPubKey"`
}

// blockEnvelope is the node's verbose block shape.
type blockEnvelope struct {
	Hash          string   `json:"hash"`
	Height        *int64   `json:"height"`
	Version       int32    `json:"version"`
	PreviousHash  string   `json:"previousblockhash"`
	NextHash      string   `json:"nextblockhash"`
	MerkleRoot    string   `json:"merkleroot"`
	Time          *int64   `json:"time"`
	Bits          string   `json:"bits"`
	Nonce         uint32   `json:"nonce"`
	Size          int      `json:"size"`
	Tx            []string `json:"tx"`
	Confirmations int64    `json:"confirmations"`
}
