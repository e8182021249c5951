package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/meridian-lab/meridian-trading/internal/strategy"
	"github.com/meridian-lab/meridian-trading/internal/tradelog"
	"github.com/meridian-lab/meridian-trading/internal/types"
)

// runAnalysisLoop fires one cycle immediately, then on the configured
// interval until the context is cancelled.
func (e *Engine) runAnalysisLoop(ctx context.Context, interval time.Duration) {
	defer e.wg.Done()

	e.runAnalysisCycle(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.runAnalysisCycle(ctx)
		}
	}
}

// runAnalysisCycle analyzes every symbol with sufficient buffered data and
// hands qualifying signals to the execution pipeline. Errors never escape
// into the scheduler; each is logged and the loop continues next tick.
func (e *Engine) runAnalysisCycle(ctx context.Context) {
	if !e.running.Load() {
		return
	}

	started := time.Now()
	cfg := *e.cfg.Load()

	blocked, err := e.admissionBlocked(ctx, cfg)
	if err != nil {
		e.setLastError(err)
		e.log.Error("analysis admission check failed", zap.Error(err))

		return
	}
	if blocked {
		// Rate-limited so a blocked gate does not flood the log, but still
		// emitted periodically so "why is nothing happening" stays
		// answerable.
		if n := e.blockedCycles.Add(1); n == 1 || n%blockedCycleLogEvery == 0 {
			e.log.Info("analysis blocked by risk gate admission",
				zap.Int64("blocked_cycles", n),
				zap.Int("max_open_trades", cfg.Risk.MaxOpenTrades))
		}

		return
	}
	e.blockedCycles.Store(0)

	stratCfg := e.strat.Config()
	minCandles := stratCfg.MinCandles
	if minCandles <= 0 {
		minCandles = defaultMinCandles
	}
	timeframes := stratCfg.Timeframes
	if len(timeframes) == 0 {
		timeframes = []types.Timeframe{types.TimeframeM15}
	}

	event := types.AnalysisEvent{}
	var insufficient []string

	for _, symbol := range cfg.Symbols {
		if !e.running.Load() {
			return
		}

		if !e.hasSufficientData(symbol, timeframes, minCandles) {
			insufficient = append(insufficient, symbol)
			event.SymbolsSkipped++

			continue
		}

		signal := e.analyzeSymbol(symbol, timeframes)
		event.SymbolsAnalyzed++
		if signal == nil {
			continue
		}
		event.Signals = append(event.Signals, *signal)

		if signal.Direction != types.DirectionNone && signal.Confidence >= cfg.ConfidenceThreshold {
			e.signalsDetected.Add(1)
			e.log.Info("signal detected",
				zap.String("symbol", symbol),
				zap.String("direction", string(signal.Direction)),
				zap.Float64("confidence", signal.Confidence),
				zap.String("reason", signal.Reason))
			e.tradeLog.Record(tradelog.Entry{
				Category: tradelog.CategorySignal,
				Level:    tradelog.LevelInfo,
				Symbol:   symbol,
				Message:  "signal detected",
				Fields: map[string]string{
					"direction":  string(signal.Direction),
					"confidence": fmt.Sprintf("%.1f", signal.Confidence),
					"reason":     signal.Reason,
				},
			})

			e.executeSignal(ctx, cfg, *signal)
		}
	}

	// One batched diagnostic instead of a per-symbol log line every cycle.
	if len(insufficient) > 0 {
		e.log.Debug("symbols skipped, insufficient buffered candles",
			zap.Strings("symbols", insufficient),
			zap.Int("min_candles", minCandles))
	}

	e.analysisCycles.Add(1)

	elapsed := time.Since(started)
	slow := e.analysisPerf.Record(elapsed)
	event.Elapsed = elapsed
	e.emitAnalysis(event)

	if slow {
		e.log.Warn("slow analysis cycle",
			zap.Duration("elapsed", elapsed),
			zap.Duration("threshold", e.analysisPerf.Threshold()))
		e.emitPerformance(types.PerformanceEvent{
			Loop:      "analysis",
			Elapsed:   elapsed,
			Threshold: e.analysisPerf.Threshold(),
			Snapshot:  e.analysisPerf.Snapshot(),
		})
	}
}

// admissionBlocked consults the risk gate's global admission: when the
// account-wide open trade cap is reached the whole cycle is skipped.
func (e *Engine) admissionBlocked(ctx context.Context, cfg Config) (bool, error) {
	state, err := e.gate.Snapshot(ctx)
	if err != nil {
		return false, err
	}

	return state.OpenTrades >= cfg.Risk.MaxOpenTrades, nil
}

func (e *Engine) hasSufficientData(symbol string, timeframes []types.Timeframe, minCandles int) bool {
	for _, tf := range timeframes {
		if e.cache.Len(symbol, tf) < minCandles {
			return false
		}
	}

	return true
}

// analyzeSymbol assembles the multi-timeframe snapshot and invokes the
// strategy. Returns nil when analysis failed; the latest signal is recorded
// regardless of outcome.
func (e *Engine) analyzeSymbol(symbol string, timeframes []types.Timeframe) *types.Signal {
	data := e.cache.Snapshot(symbol, timeframes)
	if tick := e.symbols.lastTick(symbol); tick != nil {
		if pip := e.pipSize(symbol); pip > 0 {
			data.SpreadPips = (tick.Ask - tick.Bid) / pip
		}
	}

	// Capability dispatch is by interface implementation, never runtime
	// reflection.
	if scoped, ok := e.strat.(strategy.SymbolScoped); ok {
		scoped.SetActiveSymbol(symbol)
	}
	if ingestor, ok := e.strat.(strategy.TimeframeIngestor); ok {
		for _, tf := range timeframes {
			ingestor.IngestTimeframeData(tf, data.Candles[tf])
		}
	}

	signal, err := e.strat.AnalyzeSignal(data)
	signal.Symbol = symbol
	if signal.Time.IsZero() {
		signal.Time = time.Now()
	}
	e.setLastSignal(signal)

	if err != nil {
		e.setLastError(err)
		e.log.Warn("signal analysis failed",
			zap.String("symbol", symbol),
			zap.Error(err))

		return nil
	}

	return &signal
}
