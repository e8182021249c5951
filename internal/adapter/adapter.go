// Package adapter defines the brokerage abstraction consumed by the
// orchestration engine. Implementations wrap a real broker connection
// (binance) or an in-memory substitute for backtesting (paper).
package adapter

import (
	"context"

	"github.com/moznion/go-optional"

	"github.com/meridian-lab/meridian-trading/internal/types"
)

// OnTick is invoked for every live price update of a subscribed symbol.
type OnTick func(tick types.Tick)

// TradingAdapter abstracts the brokerage/protocol layer. All network-bound
// methods take a context; the engine treats every call as a suspension point.
//
//nolint:interfacebloat // the broker surface is a core interface that naturally requires multiple methods
type TradingAdapter interface {
	// IsConnected reports whether the underlying broker session is usable.
	IsConnected() bool
	// BindOwnerContext scopes the session to one (owner, bot) pair.
	BindOwnerContext(ownerID, botID string) error
	// ReconcilePositions folds existing broker positions into the account
	// view and returns how many were found.
	ReconcilePositions(ctx context.Context) (int, error)
	// GetQuote returns the live bid/ask for a symbol, or None when the
	// broker has no current quote.
	GetQuote(ctx context.Context, symbol string) (optional.Option[types.Quote], error)
	// GetCandleHistory fetches up to count most-recent candles for the
	// symbol and timeframe, oldest first.
	GetCandleHistory(ctx context.Context, symbol string, timeframe types.Timeframe, count int) ([]types.Candle, error)
	// SubscribePrice registers a live tick callback for the symbol.
	SubscribePrice(ctx context.Context, symbol string, onTick OnTick) error
	// UnsubscribePrice removes the live tick callback for the symbol.
	UnsubscribePrice(symbol string) error
	// GetOpenPositions returns all open positions on the bound account.
	GetOpenPositions(ctx context.Context) ([]types.Position, error)
	// GetAccountInfo returns the current balance and equity.
	GetAccountInfo(ctx context.Context) (types.AccountInfo, error)
	// GetSymbolSpecs returns the broker's volume constraints and pip
	// geometry for a symbol.
	GetSymbolSpecs(ctx context.Context, symbol string) (types.SymbolSpecs, error)
	// GetDetectedMinVolume returns the effective minimum order size in
	// lots, probed from the broker when specs understate it.
	GetDetectedMinVolume(ctx context.Context, symbol string) (float64, error)
	// GetConversionRate returns the cross rate from one currency to
	// another, used for sizing instruments not quoted in the account
	// currency.
	GetConversionRate(ctx context.Context, from, to string) (float64, error)
	// PlaceOrder submits a market order. The order is rejected broker-side
	// when the live spread exceeds maxSpreadPips.
	PlaceOrder(ctx context.Context, order types.OrderRequest, maxSpreadPips float64) (types.OrderResult, error)
	// ModifyPosition moves an open position's stop-loss. Returns whether
	// the broker applied the change.
	ModifyPosition(ctx context.Context, modify types.PositionModify) (bool, error)
}
