package decoder

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/thanhnp/baseline-explorer/internal/models"
)

const (
	blockCacheCapacity = 2048
	txCacheCapacity    = 8192
	mempoolTTL         = 5 * time.Second
)

// Cache holds decoded confirmed entities and raw mempool payloads.
// Confirmed blocks and transactions are immutable, so they are kept without
// expiry (capacity-bounded, LRU eviction); mempool payloads carry a short
// TTL and are flushed whenever the observed tip height advances. Population
// is idempotent: two concurrent callers deriving the same key write
// identical values, so no dedup is needed.
type Cache struct {
	blocks  *ttlcache.Cache[string, *models.Block]
	heights *ttlcache.Cache[int64, string]
	txs     *ttlcache.Cache[string, json.RawMessage]
	mempool *ttlcache.Cache[string, json.RawMessage]
	tip     atomic.Int64

	mu       sync.Mutex
	bestHash string
}

// NewCache constructs an empty cache.
func NewCache() *Cache {
	c := &Cache{
		blocks: ttlcache.New[string, *models.Block](
			ttlcache.WithCapacity[string, *models.Block](blockCacheCapacity),
		),
		heights: ttlcache.New[int64, string](
			ttlcache.WithCapacity[int64, string](blockCacheCapacity),
		),
		txs: ttlcache.New[string, json.RawMessage](
			ttlcache.WithCapacity[string, json.RawMessage](txCacheCapacity),
		),
		mempool: ttlcache.New[string, json.RawMessage](
			ttlcache.WithTTL[string, json.RawMessage](mempoolTTL),
		),
	}
	c.tip.Store(-1)
	return c
}

// Start runs the expiry loops. Stop with Stop.
func (c *Cache) Start() {
	go c.mempool.Start()
}

// Stop halts the expiry loops.
func (c *Cache) Stop() {
	c.mempool.Stop()
}

// ObserveTip records the tip seen at the start of a request. When the tip
// advances, every mempool-cached payload is invalidated: any of those
// transactions may have confirmed. When the best hash changes while the
// height holds still, a reorg replaced the tip block, so the orphaned
// block and the whole height mapping are dropped as well. Lower heights
// are stale observations from slow requests and are ignored.
func (c *Cache) ObserveTip(height int64, bestHash string) {
	for {
		prev := c.tip.Load()
		if height < prev {
			return
		}
		if height == prev {
			if old, reorged := c.swapBestHash(bestHash); reorged {
				c.EvictBlock(old, height)
				c.heights.DeleteAll()
				c.mempool.DeleteAll()
			}
			return
		}
		if c.tip.CompareAndSwap(prev, height) {
			c.swapBestHash(bestHash)
			c.mempool.DeleteAll()
			return
		}
	}
}

// swapBestHash records the observed best hash and reports whether a
// non-empty hash replaced a different non-empty one.
func (c *Cache) swapBestHash(hash string) (string, bool) {
	if hash == "" {
		return "", false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	old := c.bestHash
	if hash == old {
		return "", false
	}
	c.bestHash = hash
	return old, old != ""
}

// TipHeight returns the highest tip observed so far, or -1.
func (c *Cache) TipHeight() int64 {
	return c.tip.Load()
}

// Block returns a cached confirmed block by hash.
func (c *Cache) Block(hash string) (*models.Block, bool) {
	if item := c.blocks.Get(hash); item != nil {
		return item.Value(), true
	}
	return nil, false
}

// BlockHashAtHeight returns the cached hash of the confirmed block at height.
func (c *Cache) BlockHashAtHeight(height int64) (string, bool) {
	if item := c.heights.Get(height); item != nil {
		return item.Value(), true
	}
	return "", false
}

// PutBlock stores a confirmed block under both its hash and height.
func (c *Cache) PutBlock(b *models.Block) {
	c.blocks.Set(b.Hash, b, ttlcache.NoTTL)
	c.heights.Set(b.Height, b.Hash, ttlcache.NoTTL)
}

// EvictBlock drops a block from both maps after a reorg invalidates it.
func (c *Cache) EvictBlock(hash string, height int64) {
	c.blocks.Delete(hash)
	c.heights.Delete(height)
}

// RawTx returns a cached raw transaction payload, confirmed or mempool.
func (c *Cache) RawTx(txid string) (json.RawMessage, bool) {
	if item := c.txs.Get(txid); item != nil {
		return item.Value(), true
	}
	if item := c.mempool.Get(txid); item != nil {
		return item.Value(), true
	}
	return nil, false
}

// PutRawTx stores a raw transaction payload. Confirmed payloads are kept
// without expiry; unconfirmed ones go to the short-TTL mempool cache.
func (c *Cache) PutRawTx(txid string, raw json.RawMessage, confirmed bool) {
	if confirmed {
		c.txs.Set(txid, raw, ttlcache.NoTTL)
		c.mempool.Delete(txid)
		return
	}
	c.mempool.Set(txid, raw, ttlcache.DefaultTTL)
}
