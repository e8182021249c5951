package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"

	"github.com/meridian-lab/meridian-trading/pkg/errors"
)

// OrderRequest describes a market order submission to the trading adapter.
type OrderRequest struct {
	// ID is a client-generated UUID used for idempotent submission.
	ID     string    `json:"id" yaml:"id" validate:"required,uuid"`
	Symbol string    `json:"symbol" yaml:"symbol" validate:"required"`
	Side   Direction `json:"side" yaml:"side" validate:"required,oneof=BUY SELL"`
	// Volume is the order size in lots.
	Volume float64 `json:"volume" yaml:"volume" validate:"required,gt=0"`
	// StopLoss and TakeProfit are absolute price levels attached to the order.
	StopLoss   float64 `json:"stop_loss" yaml:"stop_loss" validate:"gte=0"`
	TakeProfit float64 `json:"take_profit" yaml:"take_profit" validate:"gte=0"`
	// Comment tags the order with the producing strategy for broker-side audit.
	Comment string `json:"comment" yaml:"comment"`
}

// Validate validates the OrderRequest struct.
func (r *OrderRequest) Validate() error {
	validate := validator.New()

	if err := validate.Struct(r); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidParameter, "invalid order request", err)
	}

	return nil
}

// OrderResult is the adapter's response to an order submission.
type OrderResult struct {
	// Success is true when the broker accepted and filled the order.
	Success bool `json:"success" yaml:"success"`
	// OrderID is the broker-assigned identifier. Absent on failure.
	OrderID optional.Option[string] `json:"order_id" yaml:"order_id"`
	// ExecutionPrice is the fill price. Absent on failure.
	ExecutionPrice optional.Option[float64] `json:"execution_price" yaml:"execution_price"`
	// ErrorMessage carries the broker's rejection text. Absent on success.
	ErrorMessage optional.Option[string] `json:"error_message" yaml:"error_message"`
}

// Position is an open position as reported by the broker.
type Position struct {
	ID         string    `json:"id" yaml:"id"`
	Symbol     string    `json:"symbol" yaml:"symbol"`
	Side       Direction `json:"side" yaml:"side"`
	Volume     float64   `json:"volume" yaml:"volume"`
	EntryPrice float64   `json:"entry_price" yaml:"entry_price"`
	StopLoss   float64   `json:"stop_loss" yaml:"stop_loss"`
	TakeProfit float64   `json:"take_profit" yaml:"take_profit"`
	OpenTime   time.Time `json:"open_time" yaml:"open_time"`
}

// PositionModify is a request to move an open position's protective stop.
type PositionModify struct {
	PositionID string  `json:"position_id" yaml:"position_id" validate:"required"`
	StopLoss   float64 `json:"stop_loss" yaml:"stop_loss" validate:"gt=0"`
}

// SymbolSpecs describes the broker's volume constraints and pip geometry for
// one instrument.
type SymbolSpecs struct {
	Symbol string `json:"symbol" yaml:"symbol"`
	// MinVolume is the smallest tradable size, in lots.
	MinVolume float64 `json:"min_volume" yaml:"min_volume"`
	// MaxVolume is the largest tradable size, in lots.
	MaxVolume float64 `json:"max_volume" yaml:"max_volume"`
	// StepVolume is the volume increment, in lots.
	StepVolume float64 `json:"step_volume" yaml:"step_volume"`
	// PipSize is the price increment of one pip for this instrument.
	PipSize float64 `json:"pip_size" yaml:"pip_size"`
	// PipValue is the account-currency value of one pip per lot.
	PipValue float64 `json:"pip_value" yaml:"pip_value"`
	// QuoteCurrency is the currency prices are quoted in, used for
	// cross-rate conversion when sizing.
	QuoteCurrency string `json:"quote_currency" yaml:"quote_currency"`
}

// AccountInfo represents the current account state.
type AccountInfo struct {
	// Balance is the current cash balance (excluding unrealized P&L).
	Balance float64 `json:"balance" yaml:"balance"`
	// Equity is the total account value (balance + unrealized P&L).
	Equity float64 `json:"equity" yaml:"equity"`
	// Currency is the account's base currency.
	Currency string `json:"currency" yaml:"currency"`
}
