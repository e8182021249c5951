package types

import "time"

// EngineState represents the lifecycle state of the orchestration engine.
type EngineState string

const (
	// EngineStateStopped indicates the engine is not running.
	EngineStateStopped EngineState = "stopped"

	// EngineStateWarmingUp indicates the engine is preloading historical candles.
	EngineStateWarmingUp EngineState = "warming_up"

	// EngineStateRunning indicates the schedulers are live.
	EngineStateRunning EngineState = "running"
)

// PerfSnapshot summarizes a bounded window of duration samples.
type PerfSnapshot struct {
	Count int           `json:"count" yaml:"count"`
	Min   time.Duration `json:"min" yaml:"min"`
	Max   time.Duration `json:"max" yaml:"max"`
	Avg   time.Duration `json:"avg" yaml:"avg"`
	Last  time.Duration `json:"last" yaml:"last"`
}

// EngineStatus is the read-only snapshot returned by the engine's status
// query. Assembling it performs no I/O and never blocks on the network.
type EngineStatus struct {
	State           EngineState `json:"state" yaml:"state"`
	StartedAt       time.Time   `json:"started_at" yaml:"started_at"`
	Symbols         []string    `json:"symbols" yaml:"symbols"`
	StrategyName    string      `json:"strategy_name" yaml:"strategy_name"`
	TicksProcessed  int64       `json:"ticks_processed" yaml:"ticks_processed"`
	AnalysisCycles  int64       `json:"analysis_cycles" yaml:"analysis_cycles"`
	SignalsDetected int64       `json:"signals_detected" yaml:"signals_detected"`
	TradesExecuted  int64       `json:"trades_executed" yaml:"trades_executed"`
	// WarmupFailed lists symbols whose warm-up exhausted all retries.
	WarmupFailed []string `json:"warmup_failed" yaml:"warmup_failed"`
	// LastTick is the most recent live tick seen, if any.
	LastTick *Tick `json:"last_tick,omitempty" yaml:"last_tick,omitempty"`
	// LastSignal is the most recent signal produced, qualifying or not.
	LastSignal *Signal `json:"last_signal,omitempty" yaml:"last_signal,omitempty"`
	// LastError is the most recent recovered error message, if any.
	LastError    string       `json:"last_error,omitempty" yaml:"last_error,omitempty"`
	TickPerf     PerfSnapshot `json:"tick_perf" yaml:"tick_perf"`
	AnalysisPerf PerfSnapshot `json:"analysis_perf" yaml:"analysis_perf"`
}

// TickEvent is emitted for every processed live tick.
type TickEvent struct {
	Tick    Tick          `json:"tick" yaml:"tick"`
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`
}

// AnalysisEvent is emitted after every completed analysis cycle.
type AnalysisEvent struct {
	SymbolsAnalyzed int           `json:"symbols_analyzed" yaml:"symbols_analyzed"`
	SymbolsSkipped  int           `json:"symbols_skipped" yaml:"symbols_skipped"`
	Signals         []Signal      `json:"signals" yaml:"signals"`
	Elapsed         time.Duration `json:"elapsed" yaml:"elapsed"`
}

// TradeEvent is emitted after a successful order submission.
type TradeEvent struct {
	Symbol         string    `json:"symbol" yaml:"symbol"`
	Side           Direction `json:"side" yaml:"side"`
	Volume         float64   `json:"volume" yaml:"volume"`
	ExecutionPrice float64   `json:"execution_price" yaml:"execution_price"`
	StopLoss       float64   `json:"stop_loss" yaml:"stop_loss"`
	TakeProfit     float64   `json:"take_profit" yaml:"take_profit"`
	OrderID        string    `json:"order_id" yaml:"order_id"`
	Time           time.Time `json:"time" yaml:"time"`
}

// PerformanceEvent is emitted when a measured duration crosses the slow-path
// threshold for its loop.
type PerformanceEvent struct {
	// Loop names the measured loop: "tick" or "analysis".
	Loop      string        `json:"loop" yaml:"loop"`
	Elapsed   time.Duration `json:"elapsed" yaml:"elapsed"`
	Threshold time.Duration `json:"threshold" yaml:"threshold"`
	Snapshot  PerfSnapshot  `json:"snapshot" yaml:"snapshot"`
}
