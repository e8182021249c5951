// Package indicator provides technical indicator primitives computed over
// in-memory candle slices. Indicators are pure functions: they never touch
// the network or the candle cache directly.
package indicator

import (
	"github.com/meridian-lab/meridian-trading/internal/types"
	"github.com/meridian-lab/meridian-trading/pkg/errors"
)

// closes extracts the close series from a candle slice.
func closes(candles []types.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}

	return out
}

// validatePeriod checks that the period is positive and the series is long enough.
func validatePeriod(name string, period, available int) error {
	if period <= 0 {
		return errors.Newf(errors.ErrCodeInvalidParameter, "%s period must be positive, got %d", name, period)
	}

	if available < period {
		return errors.Newf(errors.ErrCodeInvalidParameter,
			"%s requires at least %d candles, got %d", name, period, available)
	}

	return nil
}
