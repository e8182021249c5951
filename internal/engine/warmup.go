package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/meridian-lab/meridian-trading/internal/engine/cache"
	"github.com/meridian-lab/meridian-trading/internal/tradelog"
	"github.com/meridian-lab/meridian-trading/internal/types"
	"github.com/meridian-lab/meridian-trading/pkg/errors"
)

const (
	// warmupMaxRetries bounds fetch attempts per symbol/timeframe series.
	warmupMaxRetries = 3
	// warmupMargin is the safety margin fetched above the strategy's
	// minimum candle requirement.
	warmupMargin = 50
	// defaultMinCandles applies when the strategy config carries no minimum.
	defaultMinCandles = 50
)

// backoffDelays is the static backpressure schedule against provider
// throttling. Held as engine state so tests can compress it.
type backoffDelays struct {
	interRequest time.Duration
	interSymbol  time.Duration
	retry        time.Duration
	rateLimit    time.Duration
}

func defaultBackoffDelays() backoffDelays {
	return backoffDelays{
		interRequest: 500 * time.Millisecond,
		interSymbol:  time.Second,
		retry:        2 * time.Second,
		rateLimit:    30 * time.Second,
	}
}

// warmUp preloads candle buffers for every configured symbol, sequentially
// to respect provider rate limits. Returns the symbols whose warm-up failed
// on every series; one symbol's failure never blocks the others.
func (e *Engine) warmUp(ctx context.Context, cfg Config) []string {
	timeframes := cfg.Strategy.Timeframes
	minCandles := cfg.Strategy.MinCandles
	if minCandles <= 0 {
		minCandles = defaultMinCandles
	}
	target := minCandles + warmupMargin
	if target > cache.Capacity {
		target = cache.Capacity
	}

	var failed []string

	for i, symbol := range cfg.Symbols {
		if ctx.Err() != nil {
			break
		}

		loadedAny := false
		for j, timeframe := range timeframes {
			candles, err := e.fetchWithRetry(ctx, symbol, timeframe, target)
			if err != nil {
				e.setLastError(err)
				e.log.Error("warm-up series unavailable after all retries",
					zap.String("symbol", symbol),
					zap.String("timeframe", string(timeframe)),
					zap.Int("attempts", warmupMaxRetries),
					zap.Error(err))
			} else if len(candles) > 0 {
				e.cache.Upsert(symbol, timeframe, candles)
				loadedAny = true

				switch {
				case len(candles) >= target:
					e.log.Info("warm-up series loaded",
						zap.String("symbol", symbol),
						zap.String("timeframe", string(timeframe)),
						zap.Int("candles", len(candles)))
				case len(candles) >= minCandles:
					e.log.Warn("warm-up series below target, proceeding",
						zap.String("symbol", symbol),
						zap.String("timeframe", string(timeframe)),
						zap.Int("candles", len(candles)),
						zap.Int("target", target))
				default:
					// Partial data below the strict minimum is still
					// accepted; the analysis scheduler will hold the symbol
					// back until refresh fills the gap.
					partial := errors.Newf(errors.ErrCodePartialData,
						"%s %s warm-up returned %d candles, minimum is %d",
						symbol, string(timeframe), len(candles), minCandles)
					e.setLastError(partial)
					e.log.Warn("warm-up series below minimum, trading availability over completeness",
						zap.String("symbol", symbol),
						zap.String("timeframe", string(timeframe)),
						zap.Int("candles", len(candles)),
						zap.Int("minimum", minCandles))
				}
			} else {
				// An empty series is a successful fetch with nothing in
				// it; record it like any other shortfall so a symbol
				// failing on empty responses stays diagnosable.
				empty := errors.Newf(errors.ErrCodePartialData,
					"%s %s warm-up returned no candles", symbol, string(timeframe))
				e.setLastError(empty)
				e.log.Warn("warm-up series empty",
					zap.String("symbol", symbol),
					zap.String("timeframe", string(timeframe)),
					zap.Int("target", target))
			}

			if j < len(timeframes)-1 && !sleepCtx(ctx, e.delays.interRequest) {
				return failed
			}
		}

		if !loadedAny {
			failed = append(failed, symbol)
			e.tradeLog.Record(tradelog.Entry{
				Category: tradelog.CategorySystem,
				Level:    tradelog.LevelWarning,
				Symbol:   symbol,
				Message:  "warm-up failed, symbol excluded from analysis until refreshed",
			})
		}

		if i < len(cfg.Symbols)-1 && !sleepCtx(ctx, e.delays.interSymbol) {
			return failed
		}
	}

	return failed
}

// fetchWithRetry fetches one candle series with the warm-up retry policy:
// rate-limit failures back off materially longer than other failures.
func (e *Engine) fetchWithRetry(ctx context.Context, symbol string, timeframe types.Timeframe, count int) ([]types.Candle, error) {
	var lastErr error

	for attempt := 1; attempt <= warmupMaxRetries; attempt++ {
		candles, err := e.adapter.GetCandleHistory(ctx, symbol, timeframe, count)
		if err == nil {
			return candles, nil
		}
		lastErr = err

		if attempt == warmupMaxRetries {
			break
		}

		backoff := e.delays.retry
		if errors.HasCode(err, errors.ErrCodeRateLimited) {
			backoff = e.delays.rateLimit
			e.log.Warn("provider rate limit hit during warm-up, backing off",
				zap.String("symbol", symbol),
				zap.String("timeframe", string(timeframe)),
				zap.Duration("backoff", backoff))
		} else {
			e.log.Warn("warm-up fetch failed, retrying",
				zap.String("symbol", symbol),
				zap.String("timeframe", string(timeframe)),
				zap.Int("attempt", attempt),
				zap.Error(err))
		}

		if !sleepCtx(ctx, backoff) {
			return nil, errors.Wrap(errors.ErrCodeHistoryFetchFailed, "warm-up cancelled", ctx.Err())
		}
	}

	return nil, errors.Wrapf(errors.ErrCodeHistoryFetchFailed, lastErr,
		"%s %s: all %d warm-up attempts failed", symbol, string(timeframe), warmupMaxRetries)
}
