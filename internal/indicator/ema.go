package indicator

import "github.com/meridian-lab/meridian-trading/internal/types"

// EMA computes the exponential moving average of the close series and
// returns the value for the most recent candle.
func EMA(candles []types.Candle, period int) (float64, error) {
	if err := validatePeriod("EMA", period, len(candles)); err != nil {
		return 0, err
	}

	series := closes(candles)

	// Seed with the SMA of the first period, then apply the smoothing factor.
	var seed float64
	for _, v := range series[:period] {
		seed += v
	}

	ema := seed / float64(period)
	multiplier := 2.0 / float64(period+1)

	for _, v := range series[period:] {
		ema = (v-ema)*multiplier + ema
	}

	return ema, nil
}
