package indicator

import (
	"math"

	"github.com/meridian-lab/meridian-trading/internal/types"
)

// ATR computes the Average True Range using Wilder's smoothing and returns
// the value for the most recent candle.
func ATR(candles []types.Candle, period int) (float64, error) {
	if err := validatePeriod("ATR", period+1, len(candles)); err != nil {
		return 0, err
	}

	trueRanges := make([]float64, 0, len(candles)-1)

	for i := 1; i < len(candles); i++ {
		high := candles[i].High
		low := candles[i].Low
		prevClose := candles[i-1].Close

		tr := math.Max(high-low, math.Max(math.Abs(high-prevClose), math.Abs(low-prevClose)))
		trueRanges = append(trueRanges, tr)
	}

	var atr float64
	for _, tr := range trueRanges[:period] {
		atr += tr
	}

	atr /= float64(period)

	for _, tr := range trueRanges[period:] {
		atr = (atr*float64(period-1) + tr) / float64(period)
	}

	return atr, nil
}
