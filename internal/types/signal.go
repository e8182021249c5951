package types

import "time"

// Direction is the trade direction carried by a signal.
type Direction string

const (
	// DirectionBuy is a long entry signal.
	DirectionBuy Direction = "BUY"
	// DirectionSell is a short entry signal.
	DirectionSell Direction = "SELL"
	// DirectionNone means the strategy found no qualifying setup.
	DirectionNone Direction = "NONE"
)

// Signal is the transient output of one analysis cycle for one symbol.
// It is produced per cycle and never persisted by the engine.
type Signal struct {
	// Symbol is the instrument the signal applies to.
	Symbol string `json:"symbol" yaml:"symbol"`
	// Direction is BUY, SELL or NONE.
	Direction Direction `json:"direction" yaml:"direction"`
	// Confidence is the strategy's conviction, 0-100.
	Confidence float64 `json:"confidence" yaml:"confidence"`
	// Reason is a human-readable explanation for the signal.
	Reason string `json:"reason" yaml:"reason"`
	// Indicators holds the indicator values that produced the signal.
	Indicators map[string]float64 `json:"indicators" yaml:"indicators"`
	// Metadata carries strategy-specific values consumed by stop/target
	// computation (e.g. swing levels, live spread).
	Metadata map[string]any `json:"metadata" yaml:"metadata"`
	// Time is when the signal was produced.
	Time time.Time `json:"time" yaml:"time"`
}

// StopTarget is the stop-loss/take-profit pair computed by a strategy for an entry.
type StopTarget struct {
	StopLoss       float64 `json:"stop_loss" yaml:"stop_loss"`
	TakeProfit     float64 `json:"take_profit" yaml:"take_profit"`
	StopLossPips   float64 `json:"stop_loss_pips" yaml:"stop_loss_pips"`
	TakeProfitPips float64 `json:"take_profit_pips" yaml:"take_profit_pips"`
}

// TrailingDecision is the outcome of a strategy's trailing-stop evaluation.
type TrailingDecision struct {
	// ShouldUpdate is true when the stop should be moved to NewStopLoss.
	ShouldUpdate bool `json:"should_update" yaml:"should_update"`
	// NewStopLoss is the proposed stop level; meaningful only when ShouldUpdate is true.
	NewStopLoss float64 `json:"new_stop_loss" yaml:"new_stop_loss"`
	// ProfitPips is the current open profit in pips, for diagnostics.
	ProfitPips float64 `json:"profit_pips" yaml:"profit_pips"`
}

// RejectReason classifies a gating rejection. Gating rejections are normal
// control flow, not errors: they are logged and the signal is dropped.
type RejectReason string

const (
	RejectReasonLocked           RejectReason = "LOCKED"
	RejectReasonCooldown         RejectReason = "COOLDOWN"
	RejectReasonRiskBlocked      RejectReason = "RISK_BLOCKED"
	RejectReasonPositionExists   RejectReason = "POSITION_EXISTS"
	RejectReasonQuoteUnavailable RejectReason = "QUOTE_UNAVAILABLE"
	RejectReasonSpread           RejectReason = "SPREAD"
	RejectReasonSizing           RejectReason = "SIZING"
	RejectReasonNotRunning       RejectReason = "NOT_RUNNING"
)
