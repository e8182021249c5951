package strategy

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/meridian-lab/meridian-trading/internal/indicator"
	"github.com/meridian-lab/meridian-trading/internal/logger"
	"github.com/meridian-lab/meridian-trading/internal/types"
	"github.com/meridian-lab/meridian-trading/pkg/errors"
)

// atrStopMultiple scales the ATR into a protective stop distance.
const atrStopMultiple = 1.5

// Trend is an EMA-cross trend-following strategy. The fast/slow EMA
// relationship on the primary timeframe sets the direction, a higher
// timeframe (when configured) acts as a trend filter, and the ATR sizes
// the protective stop.
type Trend struct {
	mu           sync.Mutex
	cfg          Config
	logger       *logger.Logger
	activeSymbol string
	ingested     map[types.Timeframe][]types.Candle
}

var (
	_ Strategy          = (*Trend)(nil)
	_ SymbolScoped      = (*Trend)(nil)
	_ TimeframeIngestor = (*Trend)(nil)
)

// NewTrend creates a trend strategy with the given configuration.
func NewTrend(cfg Config, log *logger.Logger) *Trend {
	return &Trend{
		cfg:      cfg,
		logger:   log,
		ingested: make(map[types.Timeframe][]types.Candle),
	}
}

// Name implements Strategy.
func (t *Trend) Name() string {
	return "trend"
}

// SetActiveSymbol implements SymbolScoped. Switching symbols discards any
// candle series ingested for the previous one.
func (t *Trend) SetActiveSymbol(symbol string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if symbol != t.activeSymbol {
		t.ingested = make(map[types.Timeframe][]types.Candle)
	}
	t.activeSymbol = symbol
}

// IngestTimeframeData implements TimeframeIngestor.
func (t *Trend) IngestTimeframeData(timeframe types.Timeframe, candles []types.Candle) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ingested[timeframe] = candles
}

// AnalyzeSignal implements Strategy.
func (t *Trend) AnalyzeSignal(data types.MultiTimeframeData) (types.Signal, error) {
	t.mu.Lock()
	cfg := t.cfg
	candles := t.seriesLocked(data)
	t.mu.Unlock()

	signal := types.Signal{
		Symbol:     data.Symbol,
		Direction:  types.DirectionNone,
		Indicators: make(map[string]float64),
		Metadata:   make(map[string]any),
		Time:       time.Now(),
	}

	if len(cfg.Timeframes) == 0 {
		return signal, errors.New(errors.ErrCodeInvalidConfiguration, "trend strategy requires at least one timeframe")
	}
	primary := cfg.Timeframes[0]

	series := candles[primary]
	if len(series) < cfg.MinCandles {
		return signal, errors.Newf(errors.ErrCodePartialData, "%s %s: %d candles buffered, need %d",
			data.Symbol, string(primary), len(series), cfg.MinCandles)
	}

	fast, err := indicator.EMA(series, cfg.FastPeriod)
	if err != nil {
		return signal, err
	}
	slow, err := indicator.EMA(series, cfg.SlowPeriod)
	if err != nil {
		return signal, err
	}
	atr, err := indicator.ATR(series, cfg.ATRPeriod)
	if err != nil {
		return signal, err
	}

	signal.Indicators["ema_fast"] = fast
	signal.Indicators["ema_slow"] = slow
	signal.Indicators["atr"] = atr
	signal.Metadata["atr"] = atr
	signal.Metadata["timeframe"] = string(primary)

	if atr <= 0 {
		return signal, nil
	}

	separation := (fast - slow) / atr
	switch {
	case separation > 0:
		signal.Direction = types.DirectionBuy
	case separation < 0:
		signal.Direction = types.DirectionSell
	default:
		return signal, nil
	}

	confidence := 55 + absFloat(separation)*25
	if confidence > 95 {
		confidence = 95
	}

	// A configured higher timeframe acts as a trend filter: signals that
	// fight the larger trend are demoted below actionable confidence.
	if len(cfg.Timeframes) > 1 {
		aligned, filterErr := t.higherTimeframeAligned(cfg, candles, signal.Direction)
		if filterErr != nil {
			t.logger.Debug("higher timeframe filter unavailable",
				zap.String("symbol", data.Symbol),
				zap.Error(filterErr))
		} else if !aligned {
			confidence -= 30
			signal.Metadata["htf_conflict"] = true
		}
	}

	if confidence < 0 {
		confidence = 0
	}
	signal.Confidence = confidence
	signal.Reason = fmt.Sprintf("ema%d/%d cross on %s, separation %.2f atr",
		cfg.FastPeriod, cfg.SlowPeriod, string(primary), separation)

	return signal, nil
}

// seriesLocked overlays ingested candle series on top of the snapshot the
// engine passed in; ingested data wins because it is at least as fresh.
func (t *Trend) seriesLocked(data types.MultiTimeframeData) map[types.Timeframe][]types.Candle {
	merged := make(map[types.Timeframe][]types.Candle, len(data.Candles))
	for tf, cs := range data.Candles {
		merged[tf] = cs
	}
	for tf, cs := range t.ingested {
		if len(cs) > 0 {
			merged[tf] = cs
		}
	}

	return merged
}

func (t *Trend) higherTimeframeAligned(cfg Config, candles map[types.Timeframe][]types.Candle, side types.Direction) (bool, error) {
	higher := cfg.Timeframes[1]
	series := candles[higher]
	if len(series) < cfg.SlowPeriod {
		return false, errors.Newf(errors.ErrCodePartialData, "%s: %d candles buffered, need %d",
			string(higher), len(series), cfg.SlowPeriod)
	}

	fast, err := indicator.EMA(series, cfg.FastPeriod)
	if err != nil {
		return false, err
	}
	slow, err := indicator.EMA(series, cfg.SlowPeriod)
	if err != nil {
		return false, err
	}

	if side == types.DirectionBuy {
		return fast >= slow, nil
	}

	return fast <= slow, nil
}

// ComputeStopTarget implements Strategy. The stop distance is the larger of
// the configured floor and an ATR multiple taken from the signal metadata.
func (t *Trend) ComputeStopTarget(entry float64, side types.Direction, pipSize float64, metadata map[string]any) (types.StopTarget, error) {
	t.mu.Lock()
	cfg := t.cfg
	t.mu.Unlock()

	stopPips := cfg.StopLossPips
	if atr, ok := metadata["atr"].(float64); ok && atr > 0 && pipSize > 0 {
		if atrPips := atr * atrStopMultiple / pipSize; atrPips > stopPips {
			stopPips = atrPips
		}
	}

	return stopTargetFromPips(entry, side, pipSize, stopPips, cfg.RiskReward)
}

// ComputeTrailingStop implements Strategy.
func (t *Trend) ComputeTrailingStop(entry, current, currentStop float64, side types.Direction, pipSize float64) (types.TrailingDecision, error) {
	t.mu.Lock()
	cfg := t.cfg
	t.mu.Unlock()

	if !cfg.TrailingEnabled {
		return types.TrailingDecision{}, nil
	}

	return trailStop(entry, current, currentStop, side, pipSize, cfg.TrailingActivatePips, cfg.TrailingDistancePips)
}

// Config implements Strategy.
func (t *Trend) Config() Config {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.cfg
}

// UpdateConfig implements Strategy.
func (t *Trend) UpdateConfig(patch ConfigPatch) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cfg = patch.Apply(t.cfg)
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}

	return v
}
