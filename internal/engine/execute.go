package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meridian-lab/meridian-trading/internal/tradelog"
	"github.com/meridian-lab/meridian-trading/internal/types"
	"github.com/meridian-lab/meridian-trading/pkg/errors"
)

// executeSignal runs the gated execution pipeline for one qualifying signal.
// Every gating rejection is a soft drop with no side effect beyond logging;
// the per-symbol lock is released in a deferred cleanup regardless of which
// step the sequence exits from.
func (e *Engine) executeSignal(ctx context.Context, cfg Config, signal types.Signal) {
	symbol := signal.Symbol

	// The locked check, cooldown check and lock set execute as one critical
	// section: no suspension point may separate them, or two
	// near-simultaneous signals could both pass before either sets the flag.
	acquired, reason := e.symbols.tryAcquire(symbol, cfg.Cooldown, time.Now())
	if !acquired {
		e.rejectSignal(symbol, signal, reason)

		return
	}
	defer e.symbols.release(symbol)

	if !e.running.Load() {
		e.rejectSignal(symbol, signal, types.RejectReasonNotRunning)

		return
	}

	// Re-validate global admission now that the lock is held.
	allowed, gateReason, err := e.gate.CanOpenPosition(ctx, symbol)
	if err != nil {
		e.executionError(symbol, "risk gate admission check failed", err)

		return
	}
	if !allowed {
		e.rejectSignal(symbol, signal, gateReason)

		return
	}

	// Count open positions through two independent sources and reject if
	// either is at the per-symbol cap; the broker view and the gate's own
	// count can disagree during settlement lag.
	positions, err := e.adapter.GetOpenPositions(ctx)
	if err != nil {
		e.executionError(symbol, "failed to read open positions", err)

		return
	}
	brokerCount := 0
	for _, p := range positions {
		if p.Symbol == symbol {
			brokerCount++
		}
	}
	gateCount, err := e.gate.OpenTradeCount(ctx, symbol)
	if err != nil {
		e.executionError(symbol, "failed to read gate trade count", err)

		return
	}
	if brokerCount >= cfg.MaxTradesPerSymbol || gateCount >= cfg.MaxTradesPerSymbol {
		e.rejectSignal(symbol, signal, types.RejectReasonPositionExists)

		return
	}

	// A fresh quote for exactly this symbol; a cached tick might be stale
	// or belong to another instrument.
	quoteOpt, err := e.adapter.GetQuote(ctx, symbol)
	if err != nil {
		e.executionError(symbol, "failed to fetch quote", err)

		return
	}
	if quoteOpt.IsNone() {
		e.rejectSignal(symbol, signal, types.RejectReasonQuoteUnavailable)

		return
	}
	quote := quoteOpt.Unwrap()

	pipSize := e.pipSize(symbol)
	spreadPips := quote.SpreadPips(pipSize)
	if spreadPips > cfg.MaxSpreadPips {
		e.rejectSignal(symbol, signal, types.RejectReasonSpread)

		return
	}

	entry := quote.Ask
	if signal.Direction == types.DirectionSell {
		entry = quote.Bid
	}

	metadata := make(map[string]any, len(signal.Metadata)+1)
	for k, v := range signal.Metadata {
		metadata[k] = v
	}
	metadata["spread_pips"] = spreadPips

	stopTarget, err := e.strat.ComputeStopTarget(entry, signal.Direction, pipSize, metadata)
	if err != nil {
		e.executionError(symbol, "stop/target computation failed", err)

		return
	}

	volume := cfg.FixedLot
	if volume <= 0 {
		volume, err = e.gate.SizePosition(ctx, symbol, stopTarget.StopLossPips)
		if err != nil {
			// No fallback size is ever substituted.
			e.setLastError(err)
			e.log.Warn("position sizing failed, trade aborted",
				zap.String("symbol", symbol),
				zap.Float64("stop_pips", stopTarget.StopLossPips),
				zap.Error(err))
			e.rejectSignal(symbol, signal, types.RejectReasonSizing)

			return
		}
	}

	order := types.OrderRequest{
		ID:         uuid.NewString(),
		Symbol:     symbol,
		Side:       signal.Direction,
		Volume:     volume,
		StopLoss:   stopTarget.StopLoss,
		TakeProfit: stopTarget.TakeProfit,
		Comment:    e.strat.Name(),
	}
	if err := order.Validate(); err != nil {
		e.executionError(symbol, "order request invalid", err)

		return
	}

	result, err := e.adapter.PlaceOrder(ctx, order, cfg.MaxSpreadPips)
	if err != nil {
		e.executionError(symbol, "order submission failed", err)

		return
	}
	if !result.Success {
		e.setLastError(errors.Newf(errors.ErrCodeOrderRejected,
			"order rejected: %s", result.ErrorMessage.TakeOr("no reason given")))
		e.log.Error("order rejected by broker",
			zap.String("symbol", symbol),
			zap.String("side", string(signal.Direction)),
			zap.Float64("volume", volume),
			zap.String("error", result.ErrorMessage.TakeOr("")))
		e.tradeLog.Record(tradelog.Entry{
			Category: tradelog.CategoryTrade,
			Level:    tradelog.LevelError,
			Symbol:   symbol,
			Message:  "order rejected",
			Fields: map[string]string{
				"side":   string(signal.Direction),
				"volume": fmt.Sprintf("%.4f", volume),
				"error":  result.ErrorMessage.TakeOr(""),
			},
		})

		return
	}

	now := time.Now()
	e.symbols.recordTrade(symbol, now)
	e.tradesExecuted.Add(1)

	executionPrice := result.ExecutionPrice.TakeOr(entry)
	orderID := result.OrderID.TakeOr("")

	e.log.Info("trade executed",
		zap.String("symbol", symbol),
		zap.String("side", string(signal.Direction)),
		zap.Float64("volume", volume),
		zap.Float64("execution_price", executionPrice),
		zap.Float64("stop_loss", stopTarget.StopLoss),
		zap.Float64("take_profit", stopTarget.TakeProfit),
		zap.String("order_id", orderID))
	e.tradeLog.Record(tradelog.Entry{
		Category: tradelog.CategoryEntry,
		Level:    tradelog.LevelInfo,
		Symbol:   symbol,
		Message:  "position opened",
		Fields: map[string]string{
			"side":            string(signal.Direction),
			"volume":          fmt.Sprintf("%.4f", volume),
			"execution_price": fmt.Sprintf("%.5f", executionPrice),
			"stop_loss":       fmt.Sprintf("%.5f", stopTarget.StopLoss),
			"take_profit":     fmt.Sprintf("%.5f", stopTarget.TakeProfit),
			"order_id":        orderID,
		},
	})
	e.emitTrade(types.TradeEvent{
		Symbol:         symbol,
		Side:           signal.Direction,
		Volume:         volume,
		ExecutionPrice: executionPrice,
		StopLoss:       stopTarget.StopLoss,
		TakeProfit:     stopTarget.TakeProfit,
		OrderID:        orderID,
		Time:           now,
	})
}

// rejectSignal logs a gating rejection. Rejections are normal control flow:
// the signal is dropped, never queued or retried.
func (e *Engine) rejectSignal(symbol string, signal types.Signal, reason types.RejectReason) {
	e.log.Info("signal rejected",
		zap.String("symbol", symbol),
		zap.String("direction", string(signal.Direction)),
		zap.String("reason", string(reason)))
	e.tradeLog.Record(tradelog.Entry{
		Category: tradelog.CategoryFilter,
		Level:    tradelog.LevelInfo,
		Symbol:   symbol,
		Message:  "signal rejected",
		Fields: map[string]string{
			"direction": string(signal.Direction),
			"reason":    string(reason),
		},
	})
}

// executionError logs a pipeline failure with full context. The signal is
// not retried; the deferred lock release still runs.
func (e *Engine) executionError(symbol, message string, err error) {
	e.setLastError(err)
	e.log.Error(message,
		zap.String("symbol", symbol),
		zap.Error(err))
	e.tradeLog.Record(tradelog.Entry{
		Category: tradelog.CategoryTrade,
		Level:    tradelog.LevelError,
		Symbol:   symbol,
		Message:  message,
		Fields:   map[string]string{"error": err.Error()},
	})
}
