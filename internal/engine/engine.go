// Package engine implements the real-time orchestration core: lifecycle
// management, per-symbol execution gating, candle warm-up and refresh, and
// the analysis/refresh/trailing schedulers that turn strategy signals into
// gated order submissions.
package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/meridian-lab/meridian-trading/internal/adapter"
	"github.com/meridian-lab/meridian-trading/internal/engine/cache"
	"github.com/meridian-lab/meridian-trading/internal/engine/perf"
	"github.com/meridian-lab/meridian-trading/internal/logger"
	"github.com/meridian-lab/meridian-trading/internal/risk"
	"github.com/meridian-lab/meridian-trading/internal/strategy"
	"github.com/meridian-lab/meridian-trading/internal/tradelog"
	"github.com/meridian-lab/meridian-trading/internal/types"
	"github.com/meridian-lab/meridian-trading/pkg/errors"
)

const (
	// slowTickThreshold and slowAnalysisThreshold trigger one-off warnings
	// plus a performance event when a loop iteration runs long.
	slowTickThreshold     = 250 * time.Millisecond
	slowAnalysisThreshold = 2 * time.Second

	// blockedCycleLogEvery rate-limits the "analysis blocked by risk gate"
	// diagnostic to one log per this many blocked cycles.
	blockedCycleLogEvery = 10
)

// Engine is the orchestration core. One instance serves one (owner, bot)
// pair and owns all per-symbol mutable state; instances are never shared.
type Engine struct {
	cfg       atomic.Pointer[Config]
	adapter   adapter.TradingAdapter
	gate      risk.Gate
	log       *logger.Logger
	tradeLog  tradelog.TradeLog
	callbacks Callbacks

	cache   *cache.MultiTimeframeCache
	symbols *symbolTable

	// strat and specs are assigned during start, before any scheduler
	// goroutine launches, and are not mutated while running.
	strat strategy.Strategy
	specs map[string]types.SymbolSpecs

	// newStrategy builds the strategy at start; a seam for tests.
	newStrategy func(strategy.Type, strategy.Config, *logger.Logger) (strategy.Strategy, error)

	delays backoffDelays

	running    atomic.Bool
	lifecycle  sync.Mutex
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	subscribed []string

	tickPerf     *perf.Tracker
	analysisPerf *perf.Tracker

	ticksProcessed  atomic.Int64
	analysisCycles  atomic.Int64
	signalsDetected atomic.Int64
	tradesExecuted  atomic.Int64
	blockedCycles   atomic.Int64

	statusMu     sync.Mutex
	state        types.EngineState
	startedAt    time.Time
	strategyName string
	lastSignal   *types.Signal
	lastError    string
	warmupFailed []string
}

// New creates a stopped engine with the given configuration and
// collaborators.
func New(cfg Config, tradingAdapter adapter.TradingAdapter, gate risk.Gate, log *logger.Logger, tradeLog tradelog.TradeLog, callbacks Callbacks) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		adapter:      tradingAdapter,
		gate:         gate,
		log:          log,
		tradeLog:     tradeLog,
		callbacks:    callbacks,
		cache:        cache.NewMultiTimeframeCache(),
		symbols:      newSymbolTable(),
		delays:       defaultBackoffDelays(),
		tickPerf:     perf.NewTracker(slowTickThreshold),
		analysisPerf: perf.NewTracker(slowAnalysisThreshold),
		state:        types.EngineStateStopped,
	}
	e.newStrategy = strategy.New
	e.cfg.Store(&cfg)

	return e, nil
}

// Start brings the engine live: binds the broker session, reconciles
// positions, builds the strategy, initializes the risk gate, warms up candle
// buffers, subscribes live prices, and launches the schedulers. A second
// Start while running is a no-op. Any step failing aborts the sequence and
// leaves the engine not running.
func (e *Engine) Start(ctx context.Context) error {
	e.lifecycle.Lock()
	defer e.lifecycle.Unlock()

	return e.startLocked(ctx)
}

func (e *Engine) startLocked(ctx context.Context) error {
	if e.running.Load() {
		e.log.Info("engine already running, start is a no-op")

		return nil
	}

	cfg := *e.cfg.Load()
	if err := cfg.Validate(); err != nil {
		return e.failStart(err)
	}

	if !e.adapter.IsConnected() {
		return e.failStart(errors.Wrap(errors.ErrCodeStartAborted, "start aborted",
			errors.New(errors.ErrCodeNotConnected, "trading adapter is not connected")))
	}

	if err := e.adapter.BindOwnerContext(cfg.OwnerID, cfg.BotID); err != nil {
		return e.failStart(errors.Wrap(errors.ErrCodeStartAborted, "failed to bind owner context", err))
	}

	reconciled, err := e.adapter.ReconcilePositions(ctx)
	if err != nil {
		return e.failStart(errors.Wrap(errors.ErrCodeStartAborted, "failed to reconcile positions", err))
	}
	e.log.Info("reconciled existing positions", zap.Int("count", reconciled))

	strat, err := e.newStrategy(cfg.StrategyType, cfg.Strategy, e.log)
	if err != nil {
		return e.failStart(errors.Wrap(errors.ErrCodeStartAborted, "failed to construct strategy", err))
	}
	e.strat = strat

	specs := make(map[string]types.SymbolSpecs, len(cfg.Symbols))
	for _, symbol := range cfg.Symbols {
		s, specErr := e.adapter.GetSymbolSpecs(ctx, symbol)
		if specErr != nil {
			return e.failStart(errors.Wrapf(errors.ErrCodeStartAborted, specErr, "failed to load specs for %s", symbol))
		}
		specs[symbol] = s
	}
	e.specs = specs

	if err := e.gate.Initialize(ctx, cfg.Symbols); err != nil {
		return e.failStart(errors.Wrap(errors.ErrCodeStartAborted, "risk gate initialization failed", err))
	}

	e.setState(types.EngineStateWarmingUp)

	failed := e.warmUp(ctx, cfg)
	e.statusMu.Lock()
	e.warmupFailed = failed
	e.statusMu.Unlock()

	for _, symbol := range cfg.Symbols {
		if err := e.adapter.SubscribePrice(ctx, symbol, e.onTick); err != nil {
			e.unsubscribeAll()
			e.setState(types.EngineStateStopped)

			return e.failStart(errors.Wrapf(errors.ErrCodeStartAborted, err, "failed to subscribe %s", symbol))
		}
		e.subscribed = append(e.subscribed, symbol)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel

	e.wg.Add(3)
	go e.runAnalysisLoop(runCtx, cfg.AnalysisInterval)
	go e.runRefreshLoop(runCtx, cfg.RefreshInterval)
	go e.runTrailingLoop(runCtx, cfg.TrailingInterval)

	e.statusMu.Lock()
	e.state = types.EngineStateRunning
	e.startedAt = time.Now()
	e.strategyName = strat.Name()
	e.statusMu.Unlock()
	e.running.Store(true)

	e.log.Info("engine started",
		zap.String("owner_id", cfg.OwnerID),
		zap.String("bot_id", cfg.BotID),
		zap.String("strategy", strat.Name()),
		zap.Strings("symbols", cfg.Symbols),
		zap.Strings("warmup_failed", failed))
	e.tradeLog.Record(tradelog.Entry{
		Category: tradelog.CategorySystem,
		Level:    tradelog.LevelInfo,
		Message:  "engine started",
	})
	e.emitStarted()

	return nil
}

// failStart records the abort reason and leaves the engine stopped.
func (e *Engine) failStart(err error) error {
	e.setLastError(err)
	e.setState(types.EngineStateStopped)
	e.log.Error("engine start aborted", zap.Error(err))

	return err
}

// Stop halts the schedulers, unsubscribes live prices, and discards candle
// buffers. Idempotent. In-flight adapter calls are not aborted; their
// callbacks check the running flag and become no-ops.
func (e *Engine) Stop() error {
	e.lifecycle.Lock()
	defer e.lifecycle.Unlock()

	e.stopLocked(false)

	return nil
}

func (e *Engine) stopLocked(preserveBuffers bool) {
	if !e.running.Load() {
		return
	}

	e.running.Store(false)
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.wg.Wait()

	e.unsubscribeAll()

	if !preserveBuffers {
		e.cache.Reset()
	}

	e.setState(types.EngineStateStopped)
	e.log.Info("engine stopped", zap.Bool("buffers_preserved", preserveBuffers))
	e.tradeLog.Record(tradelog.Entry{
		Category: tradelog.CategorySystem,
		Level:    tradelog.LevelInfo,
		Message:  "engine stopped",
	})
	e.emitStopped()
}

func (e *Engine) unsubscribeAll() {
	for _, symbol := range e.subscribed {
		if err := e.adapter.UnsubscribePrice(symbol); err != nil {
			e.log.Warn("failed to unsubscribe price feed",
				zap.String("symbol", symbol),
				zap.Error(err))
		}
	}
	e.subscribed = nil
}

// Reload applies a partial configuration update. When running, the engine
// stops, swaps the snapshot wholesale, and starts again so subscriptions and
// schedulers are rebuilt consistently; candle buffers survive when the
// symbol set is unchanged. When stopped, only the snapshot is replaced.
func (e *Engine) Reload(ctx context.Context, patch ConfigPatch) error {
	e.lifecycle.Lock()
	defer e.lifecycle.Unlock()

	current := *e.cfg.Load()
	next := patch.Apply(current)
	if err := next.Validate(); err != nil {
		return err
	}

	if !e.running.Load() {
		e.cfg.Store(&next)

		return nil
	}

	e.stopLocked(next.SymbolsEqual(current))
	e.cfg.Store(&next)

	return e.startLocked(ctx)
}

// Config returns the active configuration snapshot.
func (e *Engine) Config() Config {
	return *e.cfg.Load()
}

// Status assembles a read-only snapshot of the engine's counters and
// latest observations. It performs no I/O and never blocks on the network.
func (e *Engine) Status() types.EngineStatus {
	cfg := *e.cfg.Load()

	e.statusMu.Lock()
	defer e.statusMu.Unlock()

	status := types.EngineStatus{
		State:           e.state,
		StartedAt:       e.startedAt,
		Symbols:         append([]string(nil), cfg.Symbols...),
		StrategyName:    e.strategyName,
		TicksProcessed:  e.ticksProcessed.Load(),
		AnalysisCycles:  e.analysisCycles.Load(),
		SignalsDetected: e.signalsDetected.Load(),
		TradesExecuted:  e.tradesExecuted.Load(),
		WarmupFailed:    append([]string(nil), e.warmupFailed...),
		LastSignal:      e.lastSignal,
		LastError:       e.lastError,
		TickPerf:        e.tickPerf.Snapshot(),
		AnalysisPerf:    e.analysisPerf.Snapshot(),
	}

	for _, symbol := range cfg.Symbols {
		if tick := e.symbols.lastTick(symbol); tick != nil {
			if status.LastTick == nil || tick.Time.After(status.LastTick.Time) {
				status.LastTick = tick
			}
		}
	}

	return status
}

// onTick is the live-price callback registered with the adapter. Late ticks
// arriving after Stop are dropped by the running-flag check.
func (e *Engine) onTick(tick types.Tick) {
	if !e.running.Load() {
		return
	}

	started := time.Now()

	e.symbols.recordTick(tick)
	e.ticksProcessed.Add(1)

	elapsed := time.Since(started)
	slow := e.tickPerf.Record(elapsed)
	e.emitTick(types.TickEvent{Tick: tick, Elapsed: elapsed})

	if slow {
		e.log.Warn("slow tick processing",
			zap.String("symbol", tick.Symbol),
			zap.Duration("elapsed", elapsed),
			zap.Duration("threshold", e.tickPerf.Threshold()))
		e.emitPerformance(types.PerformanceEvent{
			Loop:      "tick",
			Elapsed:   elapsed,
			Threshold: e.tickPerf.Threshold(),
			Snapshot:  e.tickPerf.Snapshot(),
		})
	}
}

func (e *Engine) setState(state types.EngineState) {
	e.statusMu.Lock()
	e.state = state
	e.statusMu.Unlock()
}

func (e *Engine) setLastError(err error) {
	e.statusMu.Lock()
	e.lastError = err.Error()
	e.statusMu.Unlock()
}

func (e *Engine) setLastSignal(signal types.Signal) {
	e.statusMu.Lock()
	e.lastSignal = &signal
	e.statusMu.Unlock()
}

// pipSize returns the pip geometry for symbol from the specs loaded at
// start; zero when unknown.
func (e *Engine) pipSize(symbol string) float64 {
	if specs, ok := e.specs[symbol]; ok {
		return specs.PipSize
	}

	return 0
}

func (e *Engine) emitStarted() {
	if e.callbacks.OnStarted == nil {
		return
	}
	if err := (*e.callbacks.OnStarted)(e.Status()); err != nil {
		e.log.Warn("OnStarted callback failed", zap.Error(err))
	}
}

func (e *Engine) emitStopped() {
	if e.callbacks.OnStopped == nil {
		return
	}
	if err := (*e.callbacks.OnStopped)(e.Status()); err != nil {
		e.log.Warn("OnStopped callback failed", zap.Error(err))
	}
}

func (e *Engine) emitTick(event types.TickEvent) {
	if e.callbacks.OnTick == nil {
		return
	}
	if err := (*e.callbacks.OnTick)(event); err != nil {
		e.log.Warn("OnTick callback failed", zap.Error(err))
	}
}

func (e *Engine) emitAnalysis(event types.AnalysisEvent) {
	if e.callbacks.OnAnalysis == nil {
		return
	}
	if err := (*e.callbacks.OnAnalysis)(event); err != nil {
		e.log.Warn("OnAnalysis callback failed", zap.Error(err))
	}
}

func (e *Engine) emitTrade(event types.TradeEvent) {
	if e.callbacks.OnTrade == nil {
		return
	}
	if err := (*e.callbacks.OnTrade)(event); err != nil {
		e.log.Warn("OnTrade callback failed", zap.Error(err))
	}
}

func (e *Engine) emitPerformance(event types.PerformanceEvent) {
	if e.callbacks.OnPerformance == nil {
		return
	}
	if err := (*e.callbacks.OnPerformance)(event); err != nil {
		e.log.Warn("OnPerformance callback failed", zap.Error(err))
	}
}

// sleepCtx pauses for d unless ctx is cancelled first. Returns false when
// the context ended the wait.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
