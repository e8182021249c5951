package engine

import "github.com/meridian-lab/meridian-trading/internal/types"

// OnStartedCallback is called once the engine has fully started.
type OnStartedCallback func(status types.EngineStatus) error

// OnStoppedCallback is called after the engine has stopped.
type OnStoppedCallback func(status types.EngineStatus) error

// OnTickCallback is called for every processed live tick.
type OnTickCallback func(event types.TickEvent) error

// OnAnalysisCallback is called after every completed analysis cycle.
type OnAnalysisCallback func(event types.AnalysisEvent) error

// OnTradeCallback is called after a successful order submission.
type OnTradeCallback func(event types.TradeEvent) error

// OnPerformanceCallback is called when a loop duration crosses its slow
// threshold.
type OnPerformanceCallback func(event types.PerformanceEvent) error

// Callbacks holds the engine's observer hooks. All fields are optional;
// a callback returning an error is logged and never affects engine control
// flow.
type Callbacks struct {
	// OnStarted is called once the engine has fully started.
	OnStarted *OnStartedCallback

	// OnStopped is called after the engine has stopped.
	OnStopped *OnStoppedCallback

	// OnTick is called for every processed live tick.
	OnTick *OnTickCallback

	// OnAnalysis is called after every completed analysis cycle.
	OnAnalysis *OnAnalysisCallback

	// OnTrade is called after a successful order submission.
	OnTrade *OnTradeCallback

	// OnPerformance is called when a loop crosses its slow threshold.
	OnPerformance *OnPerformanceCallback
}
