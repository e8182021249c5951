// Package risk gates trade admission and sizes positions against account
// equity. The engine consults the gate before every entry; a gate that
// cannot produce a confident answer fails closed.
package risk

import (
	"context"

	"github.com/meridian-lab/meridian-trading/internal/types"
)

// Config holds the risk limits enforced by the gate.
type Config struct {
	// RiskPercent is the fraction of account balance risked per trade,
	// expressed as a percentage.
	RiskPercent float64 `json:"risk_percent" yaml:"risk_percent" validate:"gt=0,lte=10"`
	// MaxOpenTrades caps concurrently open positions across all symbols.
	MaxOpenTrades int `json:"max_open_trades" yaml:"max_open_trades" validate:"gte=1"`
	// MaxSpreadPips rejects entries when the live spread exceeds this value.
	MaxSpreadPips float64 `json:"max_spread_pips" yaml:"max_spread_pips" validate:"gt=0"`
}

// DefaultConfig returns conservative limits.
func DefaultConfig() Config {
	return Config{
		RiskPercent:   1.0,
		MaxOpenTrades: 3,
		MaxSpreadPips: 3.0,
	}
}

// State is a point-in-time snapshot of the gate's view, exposed through the
// engine status surface.
type State struct {
	Balance       float64 `json:"balance"`
	Equity        float64 `json:"equity"`
	Currency      string  `json:"currency"`
	OpenTrades    int     `json:"open_trades"`
	MaxOpenTrades int     `json:"max_open_trades"`
	RiskPercent   float64 `json:"risk_percent"`
}

// Gate decides whether a new position may be opened and how large it may be.
type Gate interface {
	// Initialize primes the gate with account and instrument data. A failed
	// initialization must abort engine start.
	Initialize(ctx context.Context, symbols []string) error
	// CanOpenPosition reports whether a new position on symbol is currently
	// admissible. When not, the returned reason identifies the rejection.
	CanOpenPosition(ctx context.Context, symbol string) (bool, types.RejectReason, error)
	// SizePosition computes the order volume for a stop at the given pip
	// distance. There is no fallback volume: a sizing failure is an error.
	SizePosition(ctx context.Context, symbol string, stopPips float64) (float64, error)
	// OpenTradeCount returns the gate's own count of open positions for
	// symbol. The execution pipeline cross-checks it against the adapter's
	// live view.
	OpenTradeCount(ctx context.Context, symbol string) (int, error)
	// UpdateConfig swaps in new limits.
	UpdateConfig(cfg Config)
	// Snapshot returns the gate's current view for status reporting.
	Snapshot(ctx context.Context) (State, error)
}
