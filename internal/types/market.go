package types

import (
	"time"

	"github.com/meridian-lab/meridian-trading/pkg/errors"
)

// Timeframe identifies a candle aggregation period.
type Timeframe string

const (
	TimeframeM1  Timeframe = "M1"
	TimeframeM5  Timeframe = "M5"
	TimeframeM15 Timeframe = "M15"
	TimeframeM30 Timeframe = "M30"
	TimeframeH1  Timeframe = "H1"
	TimeframeH4  Timeframe = "H4"
	TimeframeD1  Timeframe = "D1"
)

// Duration returns the wall-clock length of one candle of this timeframe.
func (tf Timeframe) Duration() (time.Duration, error) {
	switch tf {
	case TimeframeM1:
		return time.Minute, nil
	case TimeframeM5:
		return 5 * time.Minute, nil
	case TimeframeM15:
		return 15 * time.Minute, nil
	case TimeframeM30:
		return 30 * time.Minute, nil
	case TimeframeH1:
		return time.Hour, nil
	case TimeframeH4:
		return 4 * time.Hour, nil
	case TimeframeD1:
		return 24 * time.Hour, nil
	default:
		return 0, errors.Newf(errors.ErrCodeInvalidTimeframe, "unknown timeframe %q", string(tf))
	}
}

// Candle is a single OHLCV bar for one symbol and timeframe.
type Candle struct {
	// Timestamp is the open time of the bar.
	Timestamp time.Time `json:"timestamp" yaml:"timestamp" validate:"required"`
	Open      float64   `json:"open" yaml:"open" validate:"gt=0"`
	High      float64   `json:"high" yaml:"high" validate:"gt=0"`
	Low       float64   `json:"low" yaml:"low" validate:"gt=0"`
	Close     float64   `json:"close" yaml:"close" validate:"gt=0"`
	Volume    float64   `json:"volume" yaml:"volume" validate:"gte=0"`
}

// Quote is a live bid/ask pair for one symbol.
type Quote struct {
	Symbol string    `json:"symbol" yaml:"symbol"`
	Bid    float64   `json:"bid" yaml:"bid"`
	Ask    float64   `json:"ask" yaml:"ask"`
	Time   time.Time `json:"time" yaml:"time"`
}

// Spread returns the raw bid/ask spread in price units.
func (q Quote) Spread() float64 {
	return q.Ask - q.Bid
}

// SpreadPips converts the spread into pips given the symbol's pip size.
func (q Quote) SpreadPips(pipSize float64) float64 {
	if pipSize <= 0 {
		return 0
	}

	return q.Spread() / pipSize
}

// Mid returns the bid/ask midpoint.
func (q Quote) Mid() float64 {
	return (q.Bid + q.Ask) / 2
}

// Tick is a live price update delivered to a price subscription.
type Tick struct {
	Symbol string    `json:"symbol" yaml:"symbol"`
	Bid    float64   `json:"bid" yaml:"bid"`
	Ask    float64   `json:"ask" yaml:"ask"`
	Last   float64   `json:"last" yaml:"last"`
	Time   time.Time `json:"time" yaml:"time"`
}

// MultiTimeframeData is the per-symbol snapshot handed to a strategy for analysis:
// all buffered candles keyed by timeframe plus the live spread in pips.
type MultiTimeframeData struct {
	Symbol     string                `json:"symbol" yaml:"symbol"`
	Candles    map[Timeframe][]Candle `json:"candles" yaml:"candles"`
	SpreadPips float64               `json:"spread_pips" yaml:"spread_pips"`
}
