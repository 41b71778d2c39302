package decoder

import (
	"encoding/hex"

	"github.com/btcsuite/btcd/btcutil/base58"
)

// AddressFromScript derives the destination address of a P2PKH output
// script (OP_DUP OP_HASH160 <20 bytes> OP_EQUALVERIFY OP_CHECKSIG) using
// the configured address version byte. Scripts of any other shape carry no
// address and return ok=false.
func AddressFromScript(scriptHex string, version byte) (string, bool) {
	script, err := hex.DecodeString(scriptHex)
	if err != nil {
		return "", false
	}
	if len(script) != 25 ||
		script[0] != 0x76 || // OP_DUP
		script[1] != 0xa9 || // OP_HASH160
		script[2] != 0x14 || // push 20
		script[23] != 0x88 || // OP_EQUALVERIFY
		script[24] != 0xac { // OP_CHECKSIG
		return "", false
	}
	return base58.CheckEncode(script[3:23], version), true
}

// ValidAddress reports whether addr is a well-formed base58check address
// for the given version byte with a 20-byte payload.
func ValidAddress(addr string, version byte) bool {
	payload, ver, err := base58.CheckDecode(addr)
	if err != nil {
		return false
	}
	return ver == version && len(payload) == 20
}
