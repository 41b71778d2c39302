package rpc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressTxRefUnmarshal(t *testing.T) {
	t.Run("bare string", func(t *testing.T) {
		var ref AddressTxRef
		require.NoError(t, json.Unmarshal([]byte(`"abc123"`), &ref))
		assert.Equal(t, "abc123", ref.TxID)
		assert.Equal(t, int64(-1), ref.Height)
		assert.Empty(t, ref.BlockHash)
	})

	t.Run("object", func(t *testing.T) {
		var ref AddressTxRef
		require.NoError(t, json.Unmarshal(
			[]byte(`{"txid":"abc123","height":88,"blockhash":"bb"}`), &ref))
		assert.Equal(t, "abc123", ref.TxID)
		assert.Equal(t, int64(88), ref.Height)
		assert.Equal(t, "bb", ref.BlockHash)
	})

	t.Run("object without height", func(t *testing.T) {
		var ref AddressTxRef
		require.NoError(t, json.Unmarshal([]byte(`{"txid":"abc123"}`), &ref))
		assert.Equal(t, int64(-1), ref.Height)
	})

	t.Run("mixed list", func(t *testing.T) {
		var refs []AddressTxRef
		require.NoError(t, json.Unmarshal(
			[]byte(`["tx1",{"txid":"tx2","height":3}]`), &refs))
		require.Len(t, refs, 2)
		assert.Equal(t, "tx1", refs[0].TxID)
		assert.Equal(t, int64(3), refs[1].Height)
	})
}
