package indicator

import "github.com/meridian-lab/meridian-trading/internal/types"

// RSI computes the Relative Strength Index of the close series using
// Wilder's smoothing and returns the value for the most recent candle.
func RSI(candles []types.Candle, period int) (float64, error) {
	// One extra candle is needed to form the first price change.
	if err := validatePeriod("RSI", period+1, len(candles)); err != nil {
		return 0, err
	}

	series := closes(candles)

	var avgGain, avgLoss float64

	for i := 1; i <= period; i++ {
		change := series[i] - series[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}

	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(series); i++ {
		change := series[i] - series[i-1]

		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}

		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100, nil
	}

	rs := avgGain / avgLoss

	return 100 - 100/(1+rs), nil
}
