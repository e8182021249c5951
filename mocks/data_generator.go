package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/meridian-lab/meridian-trading/internal/types"
)

// DataGenerator produces realistic candle and tick series for testing.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how market data is generated.
type GeneratorConfig struct {
	// Symbol is the trading symbol (e.g., "EURUSD", "BTCUSDT")
	Symbol string
	// Timeframe labels the generated series and sets the bar interval
	Timeframe types.Timeframe
	// StartTime is the beginning of the data series
	StartTime time.Time
	// Count is the number of candles to generate
	Count int
	// InitialPrice is the starting price
	InitialPrice float64
	// Volatility controls price movement per bar (0.002 = 0.2%)
	Volatility float64
	// Trend is the total drift across the series (-0.01 to 0.01 for bearish to bullish)
	Trend float64
	// VolumeBase is the average volume per bar
	VolumeBase float64
	// VolumeVariance is the variance in volume (0.0 to 1.0)
	VolumeVariance float64
}

// DefaultGeneratorConfig returns a sensible default configuration.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Symbol:         "EURUSD",
		Timeframe:      types.TimeframeM15,
		StartTime:      time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		Count:          300,
		InitialPrice:   1.1000,
		Volatility:     0.002,
		Trend:          0.0,
		VolumeBase:     10000,
		VolumeVariance: 0.3,
	}
}

// GenerateCandles creates a candle series following a geometric Brownian
// motion model, timestamps ascending at the timeframe's interval.
func (g *DataGenerator) GenerateCandles(config GeneratorConfig) []types.Candle {
	interval, err := config.Timeframe.Duration()
	if err != nil {
		interval = 15 * time.Minute
	}

	candles := make([]types.Candle, config.Count)
	currentPrice := config.InitialPrice
	currentTime := config.StartTime

	for i := 0; i < config.Count; i++ {
		open := currentPrice

		// Box-Muller transform for normally distributed returns.
		u1 := g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		priceChange := config.Volatility * z
		drift := config.Trend / float64(config.Count)

		close := open * (1 + priceChange + drift)
		if close <= 0 {
			close = open * 0.99
		}

		highExtension := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)
		lowExtension := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)

		high := math.Max(open, close) + highExtension
		low := math.Min(open, close) - lowExtension
		if low <= 0 {
			low = math.Min(open, close) * 0.99
		}

		volumeVariation := 1.0 + (g.rng.Float64()*2-1)*config.VolumeVariance
		volume := config.VolumeBase * volumeVariation
		if volume < 0 {
			volume = config.VolumeBase * 0.1
		}

		candles[i] = types.Candle{
			Timestamp: currentTime,
			Open:      roundToDecimals(open, 5),
			High:      roundToDecimals(high, 5),
			Low:       roundToDecimals(low, 5),
			Close:     roundToDecimals(close, 5),
			Volume:    roundToDecimals(volume, 2),
		}

		currentPrice = close
		currentTime = currentTime.Add(interval)
	}

	return candles
}

// GenerateTicks derives a tick stream from a candle series, one tick per
// candle close with a fixed half-spread around it.
func (g *DataGenerator) GenerateTicks(symbol string, candles []types.Candle, halfSpread float64) []types.Tick {
	ticks := make([]types.Tick, len(candles))
	for i, c := range candles {
		ticks[i] = types.Tick{
			Symbol: symbol,
			Bid:    roundToDecimals(c.Close-halfSpread, 5),
			Ask:    roundToDecimals(c.Close+halfSpread, 5),
			Last:   c.Close,
			Time:   c.Timestamp,
		}
	}

	return ticks
}

// GenerateMultiTimeframe generates aligned candle series for several
// timeframes of one symbol, varying volatility slightly per timeframe.
func (g *DataGenerator) GenerateMultiTimeframe(timeframes []types.Timeframe, baseConfig GeneratorConfig) map[types.Timeframe][]types.Candle {
	out := make(map[types.Timeframe][]types.Candle, len(timeframes))
	for _, tf := range timeframes {
		config := baseConfig
		config.Timeframe = tf
		config.Volatility = baseConfig.Volatility * (0.8 + g.rng.Float64()*0.4)
		out[tf] = g.GenerateCandles(config)
	}

	return out
}

// roundToDecimals rounds a float64 to the specified number of decimal places.
func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(val*pow) / pow
}
