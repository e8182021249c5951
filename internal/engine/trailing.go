package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/meridian-lab/meridian-trading/internal/tradelog"
	"github.com/meridian-lab/meridian-trading/internal/types"
)

// runTrailingLoop periodically trails the protective stop of open positions.
// It runs on a shorter interval than analysis so stops track price promptly.
func (e *Engine) runTrailingLoop(ctx context.Context, interval time.Duration) {
	defer e.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.runTrailingSweep(ctx)
		}
	}
}

// runTrailingSweep evaluates every monitored open position. Transient errors
// are swallowed at debug level: a quote hiccup here must not threaten engine
// stability.
func (e *Engine) runTrailingSweep(ctx context.Context) {
	if !e.running.Load() {
		return
	}
	if !e.strat.Config().TrailingEnabled {
		return
	}

	cfg := *e.cfg.Load()
	monitored := make(map[string]struct{}, len(cfg.Symbols))
	for _, s := range cfg.Symbols {
		monitored[s] = struct{}{}
	}

	positions, err := e.adapter.GetOpenPositions(ctx)
	if err != nil {
		e.log.Debug("trailing sweep could not read positions", zap.Error(err))

		return
	}

	for _, position := range positions {
		if !e.running.Load() {
			return
		}
		if _, ok := monitored[position.Symbol]; !ok {
			continue
		}

		e.trailPosition(ctx, position)
	}
}

func (e *Engine) trailPosition(ctx context.Context, position types.Position) {
	// Positions reconciled from balances have no known entry price; there
	// is nothing meaningful to trail against.
	if position.EntryPrice <= 0 {
		return
	}

	quoteOpt, err := e.adapter.GetQuote(ctx, position.Symbol)
	if err != nil || quoteOpt.IsNone() {
		e.log.Debug("trailing skipped, quote unavailable",
			zap.String("symbol", position.Symbol),
			zap.Error(err))

		return
	}
	quote := quoteOpt.Unwrap()

	// Direction-correct side: a long exits at the bid, a short at the ask.
	current := quote.Bid
	if position.Side == types.DirectionSell {
		current = quote.Ask
	}

	decision, err := e.strat.ComputeTrailingStop(
		position.EntryPrice, current, position.StopLoss, position.Side, e.pipSize(position.Symbol))
	if err != nil {
		e.log.Debug("trailing computation failed",
			zap.String("symbol", position.Symbol),
			zap.Error(err))

		return
	}
	if !decision.ShouldUpdate {
		return
	}

	applied, err := e.adapter.ModifyPosition(ctx, types.PositionModify{
		PositionID: position.ID,
		StopLoss:   decision.NewStopLoss,
	})
	if err != nil || !applied {
		e.log.Debug("trailing stop modification not applied",
			zap.String("symbol", position.Symbol),
			zap.String("position_id", position.ID),
			zap.Error(err))

		return
	}

	e.log.Info("trailing stop moved",
		zap.String("symbol", position.Symbol),
		zap.String("position_id", position.ID),
		zap.Float64("new_stop_loss", decision.NewStopLoss),
		zap.Float64("profit_pips", decision.ProfitPips))
	e.tradeLog.Record(tradelog.Entry{
		Category: tradelog.CategoryExit,
		Level:    tradelog.LevelInfo,
		Symbol:   position.Symbol,
		Message:  "trailing stop moved",
		Fields: map[string]string{
			"position_id":   position.ID,
			"new_stop_loss": fmt.Sprintf("%.5f", decision.NewStopLoss),
			"profit_pips":   fmt.Sprintf("%.1f", decision.ProfitPips),
		},
	})
}
