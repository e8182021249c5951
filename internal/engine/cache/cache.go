// Package cache buffers candle history per symbol and timeframe for the
// orchestration engine. Series stay sorted ascending by timestamp, hold at
// most Capacity candles, and never contain two candles with the same
// timestamp: a re-delivered candle replaces the buffered one in place.
package cache

import (
	"sort"
	"sync"

	"github.com/meridian-lab/meridian-trading/internal/types"
)

// Capacity is the maximum number of candles buffered per symbol/timeframe
// series; older candles are evicted first.
const Capacity = 300

type seriesKey struct {
	symbol    string
	timeframe types.Timeframe
}

// MultiTimeframeCache is a concurrency-safe candle buffer keyed by symbol
// and timeframe.
type MultiTimeframeCache struct {
	mu     sync.RWMutex
	series map[seriesKey][]types.Candle
}

// NewMultiTimeframeCache creates an empty cache.
func NewMultiTimeframeCache() *MultiTimeframeCache {
	return &MultiTimeframeCache{
		series: make(map[seriesKey][]types.Candle),
	}
}

// Upsert merges candles into the series for symbol/timeframe. Candles whose
// timestamp is already buffered replace the existing entry; new candles are
// inserted in timestamp order. When the series exceeds Capacity the oldest
// candles are dropped.
func (c *MultiTimeframeCache) Upsert(symbol string, timeframe types.Timeframe, candles []types.Candle) {
	if len(candles) == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := seriesKey{symbol: symbol, timeframe: timeframe}
	merged := c.series[key]

	for _, candle := range candles {
		idx := sort.Search(len(merged), func(i int) bool {
			return !merged[i].Timestamp.Before(candle.Timestamp)
		})
		if idx < len(merged) && merged[idx].Timestamp.Equal(candle.Timestamp) {
			merged[idx] = candle
			continue
		}
		merged = append(merged, types.Candle{})
		copy(merged[idx+1:], merged[idx:])
		merged[idx] = candle
	}

	if len(merged) > Capacity {
		overflow := len(merged) - Capacity
		merged = append([]types.Candle(nil), merged[overflow:]...)
	}

	c.series[key] = merged
}

// Get returns a copy of the buffered series for symbol/timeframe, oldest
// first. The returned slice is safe to retain.
func (c *MultiTimeframeCache) Get(symbol string, timeframe types.Timeframe) []types.Candle {
	c.mu.RLock()
	defer c.mu.RUnlock()

	buffered := c.series[seriesKey{symbol: symbol, timeframe: timeframe}]
	if len(buffered) == 0 {
		return nil
	}

	return append([]types.Candle(nil), buffered...)
}

// Len returns the buffered candle count for symbol/timeframe.
func (c *MultiTimeframeCache) Len(symbol string, timeframe types.Timeframe) int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.series[seriesKey{symbol: symbol, timeframe: timeframe}])
}

// Snapshot assembles the multi-timeframe view for one symbol across the
// given timeframes. Timeframes with no buffered candles appear with a nil
// series so callers can distinguish "empty" from "absent key".
func (c *MultiTimeframeCache) Snapshot(symbol string, timeframes []types.Timeframe) types.MultiTimeframeData {
	data := types.MultiTimeframeData{
		Symbol:  symbol,
		Candles: make(map[types.Timeframe][]types.Candle, len(timeframes)),
	}
	for _, tf := range timeframes {
		data.Candles[tf] = c.Get(symbol, tf)
	}

	return data
}

// DropSymbol removes every series buffered for symbol, in any timeframe.
func (c *MultiTimeframeCache) DropSymbol(symbol string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.series {
		if key.symbol == symbol {
			delete(c.series, key)
		}
	}
}

// Reset empties the cache.
func (c *MultiTimeframeCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.series = make(map[seriesKey][]types.Candle)
}
