package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/meridian-lab/meridian-trading/internal/types"
)

// refreshFetchCount is how many recent candles each refresh re-fetches per
// series. Enough to cover gaps from brief outages without re-pulling full
// history.
const refreshFetchCount = 50

// runRefreshLoop periodically re-fetches recent candles and merges them into
// the cache.
func (e *Engine) runRefreshLoop(ctx context.Context, interval time.Duration) {
	defer e.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.runRefreshSweep(ctx)
		}
	}
}

// runRefreshSweep updates every symbol's buffers sequentially with the same
// static inter-call delay warm-up uses. The running flag is checked before
// each symbol so Stop takes effect promptly rather than after a full sweep.
func (e *Engine) runRefreshSweep(ctx context.Context) {
	cfg := *e.cfg.Load()

	timeframes := e.strat.Config().Timeframes
	if len(timeframes) == 0 {
		timeframes = []types.Timeframe{types.TimeframeM15}
	}

	for _, symbol := range cfg.Symbols {
		if !e.running.Load() || ctx.Err() != nil {
			return
		}

		for _, timeframe := range timeframes {
			candles, err := e.adapter.GetCandleHistory(ctx, symbol, timeframe, refreshFetchCount)
			if err != nil {
				e.setLastError(err)
				e.log.Warn("refresh fetch failed",
					zap.String("symbol", symbol),
					zap.String("timeframe", string(timeframe)),
					zap.Error(err))

				continue
			}
			e.cache.Upsert(symbol, timeframe, candles)

			if !sleepCtx(ctx, e.delays.interRequest) {
				return
			}
		}
	}
}
