package strategy

import (
	"fmt"
	"sync"
	"time"

	"github.com/meridian-lab/meridian-trading/internal/indicator"
	"github.com/meridian-lab/meridian-trading/internal/logger"
	"github.com/meridian-lab/meridian-trading/internal/types"
	"github.com/meridian-lab/meridian-trading/pkg/errors"
)

// MeanReversion trades RSI extremes on the primary timeframe: oversold
// readings produce buys, overbought readings produce sells. It keeps no
// per-symbol state, so it deliberately implements none of the optional
// capability interfaces.
type MeanReversion struct {
	mu     sync.Mutex
	cfg    Config
	logger *logger.Logger
}

var _ Strategy = (*MeanReversion)(nil)

// NewMeanReversion creates a mean-reversion strategy with the given configuration.
func NewMeanReversion(cfg Config, log *logger.Logger) *MeanReversion {
	return &MeanReversion{cfg: cfg, logger: log}
}

// Name implements Strategy.
func (m *MeanReversion) Name() string {
	return "mean_reversion"
}

// AnalyzeSignal implements Strategy.
func (m *MeanReversion) AnalyzeSignal(data types.MultiTimeframeData) (types.Signal, error) {
	m.mu.Lock()
	cfg := m.cfg
	m.mu.Unlock()

	signal := types.Signal{
		Symbol:     data.Symbol,
		Direction:  types.DirectionNone,
		Indicators: make(map[string]float64),
		Metadata:   make(map[string]any),
		Time:       time.Now(),
	}

	if len(cfg.Timeframes) == 0 {
		return signal, errors.New(errors.ErrCodeInvalidConfiguration, "mean-reversion strategy requires at least one timeframe")
	}
	primary := cfg.Timeframes[0]

	series := data.Candles[primary]
	if len(series) < cfg.MinCandles {
		return signal, errors.Newf(errors.ErrCodePartialData, "%s %s: %d candles buffered, need %d",
			data.Symbol, string(primary), len(series), cfg.MinCandles)
	}

	rsi, err := indicator.RSI(series, cfg.RSIPeriod)
	if err != nil {
		return signal, err
	}
	atr, err := indicator.ATR(series, cfg.ATRPeriod)
	if err != nil {
		return signal, err
	}

	signal.Indicators["rsi"] = rsi
	signal.Indicators["atr"] = atr
	signal.Metadata["atr"] = atr
	signal.Metadata["timeframe"] = string(primary)

	// Confidence grows with the distance past the threshold; fully pinned
	// RSI maps to the ceiling.
	switch {
	case rsi <= cfg.Oversold:
		signal.Direction = types.DirectionBuy
		signal.Confidence = scaleExtreme(cfg.Oversold-rsi, cfg.Oversold)
	case rsi >= cfg.Overbought:
		signal.Direction = types.DirectionSell
		signal.Confidence = scaleExtreme(rsi-cfg.Overbought, 100-cfg.Overbought)
	default:
		return signal, nil
	}

	signal.Reason = fmt.Sprintf("rsi%d at %.1f on %s", cfg.RSIPeriod, rsi, string(primary))

	return signal, nil
}

// scaleExtreme maps how far the RSI sits past its threshold onto a 70..95
// confidence band. span is the maximum possible overshoot.
func scaleExtreme(overshoot, span float64) float64 {
	if span <= 0 {
		return 70
	}
	frac := overshoot / span
	if frac > 1 {
		frac = 1
	}

	return 70 + frac*25
}

// ComputeStopTarget implements Strategy. Mean-reversion stops stay at the
// configured fixed distance; ATR widening would defeat the tight-stop premise.
func (m *MeanReversion) ComputeStopTarget(entry float64, side types.Direction, pipSize float64, _ map[string]any) (types.StopTarget, error) {
	m.mu.Lock()
	cfg := m.cfg
	m.mu.Unlock()

	return stopTargetFromPips(entry, side, pipSize, cfg.StopLossPips, cfg.RiskReward)
}

// ComputeTrailingStop implements Strategy.
func (m *MeanReversion) ComputeTrailingStop(entry, current, currentStop float64, side types.Direction, pipSize float64) (types.TrailingDecision, error) {
	m.mu.Lock()
	cfg := m.cfg
	m.mu.Unlock()

	if !cfg.TrailingEnabled {
		return types.TrailingDecision{}, nil
	}

	return trailStop(entry, current, currentStop, side, pipSize, cfg.TrailingActivatePips, cfg.TrailingDistancePips)
}

// Config implements Strategy.
func (m *MeanReversion) Config() Config {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.cfg
}

// UpdateConfig implements Strategy.
func (m *MeanReversion) UpdateConfig(patch ConfigPatch) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cfg = patch.Apply(m.cfg)
}
