// Package strategy defines the pluggable signal-generation interface
// consumed by the orchestration engine, plus the bundled built-in
// strategies. Strategies are selected through a factory keyed on Type;
// optional capabilities are declared through compile-time interfaces and
// dispatched by interface assertion, never by runtime reflection.
package strategy

import (
	"github.com/moznion/go-optional"

	"github.com/meridian-lab/meridian-trading/internal/logger"
	"github.com/meridian-lab/meridian-trading/internal/types"
	"github.com/meridian-lab/meridian-trading/pkg/errors"
)

// Type identifies a bundled strategy implementation.
type Type string

const (
	// TypeTrend is the EMA-cross trend-following strategy.
	TypeTrend Type = "trend"
	// TypeMeanReversion is the RSI mean-reversion strategy.
	TypeMeanReversion Type = "mean_reversion"
)

// Config holds the knobs shared by all bundled strategies. Individual
// strategies ignore fields they have no use for.
type Config struct {
	// Timeframes lists the candle series the strategy wants buffered,
	// primary first.
	Timeframes []types.Timeframe `json:"timeframes" yaml:"timeframes"`
	// MinCandles is the minimum buffered candle count per timeframe
	// required before analysis may run.
	MinCandles int `json:"min_candles" yaml:"min_candles"`
	// FastPeriod and SlowPeriod drive the EMA cross.
	FastPeriod int `json:"fast_period" yaml:"fast_period"`
	SlowPeriod int `json:"slow_period" yaml:"slow_period"`
	// RSIPeriod, Oversold and Overbought drive mean reversion.
	RSIPeriod  int     `json:"rsi_period" yaml:"rsi_period"`
	Oversold   float64 `json:"oversold" yaml:"oversold"`
	Overbought float64 `json:"overbought" yaml:"overbought"`
	// ATRPeriod sizes the volatility estimate used for stops.
	ATRPeriod int `json:"atr_period" yaml:"atr_period"`
	// StopLossPips is the protective stop distance when no volatility
	// estimate is available.
	StopLossPips float64 `json:"stop_loss_pips" yaml:"stop_loss_pips"`
	// RiskReward is the take-profit distance as a multiple of the stop distance.
	RiskReward float64 `json:"risk_reward" yaml:"risk_reward"`
	// TrailingEnabled turns the trailing-stop loop on for this strategy.
	TrailingEnabled bool `json:"trailing_enabled" yaml:"trailing_enabled"`
	// TrailingActivatePips is the open profit required before the stop starts trailing.
	TrailingActivatePips float64 `json:"trailing_activate_pips" yaml:"trailing_activate_pips"`
	// TrailingDistancePips is the gap kept between price and the trailed stop.
	TrailingDistancePips float64 `json:"trailing_distance_pips" yaml:"trailing_distance_pips"`
}

// DefaultConfig returns the conservative defaults used when a caller
// supplies no configuration.
func DefaultConfig() Config {
	return Config{
		Timeframes:           []types.Timeframe{types.TimeframeM15, types.TimeframeH1},
		MinCandles:           50,
		FastPeriod:           9,
		SlowPeriod:           21,
		RSIPeriod:            14,
		Oversold:             30,
		Overbought:           70,
		ATRPeriod:            14,
		StopLossPips:         20,
		RiskReward:           2,
		TrailingEnabled:      true,
		TrailingActivatePips: 15,
		TrailingDistancePips: 10,
	}
}

// ConfigPatch is a partial configuration update. Fields left as None keep
// their current value; a Some carrying a zero value is applied as-is, so an
// explicit zero is never confused with "not provided".
type ConfigPatch struct {
	Timeframes           optional.Option[[]types.Timeframe] `json:"timeframes" yaml:"timeframes"`
	MinCandles           optional.Option[int]               `json:"min_candles" yaml:"min_candles"`
	FastPeriod           optional.Option[int]               `json:"fast_period" yaml:"fast_period"`
	SlowPeriod           optional.Option[int]               `json:"slow_period" yaml:"slow_period"`
	RSIPeriod            optional.Option[int]               `json:"rsi_period" yaml:"rsi_period"`
	Oversold             optional.Option[float64]           `json:"oversold" yaml:"oversold"`
	Overbought           optional.Option[float64]           `json:"overbought" yaml:"overbought"`
	ATRPeriod            optional.Option[int]               `json:"atr_period" yaml:"atr_period"`
	StopLossPips         optional.Option[float64]           `json:"stop_loss_pips" yaml:"stop_loss_pips"`
	RiskReward           optional.Option[float64]           `json:"risk_reward" yaml:"risk_reward"`
	TrailingEnabled      optional.Option[bool]              `json:"trailing_enabled" yaml:"trailing_enabled"`
	TrailingActivatePips optional.Option[float64]           `json:"trailing_activate_pips" yaml:"trailing_activate_pips"`
	TrailingDistancePips optional.Option[float64]           `json:"trailing_distance_pips" yaml:"trailing_distance_pips"`
}

// Apply merges the patch onto a copy of cfg and returns the result.
func (p ConfigPatch) Apply(cfg Config) Config {
	if p.Timeframes.IsSome() {
		cfg.Timeframes = p.Timeframes.Unwrap()
	}
	if p.MinCandles.IsSome() {
		cfg.MinCandles = p.MinCandles.Unwrap()
	}
	if p.FastPeriod.IsSome() {
		cfg.FastPeriod = p.FastPeriod.Unwrap()
	}
	if p.SlowPeriod.IsSome() {
		cfg.SlowPeriod = p.SlowPeriod.Unwrap()
	}
	if p.RSIPeriod.IsSome() {
		cfg.RSIPeriod = p.RSIPeriod.Unwrap()
	}
	if p.Oversold.IsSome() {
		cfg.Oversold = p.Oversold.Unwrap()
	}
	if p.Overbought.IsSome() {
		cfg.Overbought = p.Overbought.Unwrap()
	}
	if p.ATRPeriod.IsSome() {
		cfg.ATRPeriod = p.ATRPeriod.Unwrap()
	}
	if p.StopLossPips.IsSome() {
		cfg.StopLossPips = p.StopLossPips.Unwrap()
	}
	if p.RiskReward.IsSome() {
		cfg.RiskReward = p.RiskReward.Unwrap()
	}
	if p.TrailingEnabled.IsSome() {
		cfg.TrailingEnabled = p.TrailingEnabled.Unwrap()
	}
	if p.TrailingActivatePips.IsSome() {
		cfg.TrailingActivatePips = p.TrailingActivatePips.Unwrap()
	}
	if p.TrailingDistancePips.IsSome() {
		cfg.TrailingDistancePips = p.TrailingDistancePips.Unwrap()
	}

	return cfg
}

// Strategy produces trading signals and protective levels for the engine.
// Implementations must be safe to call from the engine's scheduler
// callbacks; they are never called concurrently for the same instance.
type Strategy interface {
	// Name returns the strategy's display name.
	Name() string
	// AnalyzeSignal inspects a multi-timeframe snapshot and produces a
	// signal. A Direction of NONE means no qualifying setup.
	AnalyzeSignal(data types.MultiTimeframeData) (types.Signal, error)
	// ComputeStopTarget derives stop-loss/take-profit levels for an entry
	// at the given price. metadata carries the originating signal's
	// Metadata augmented with the live spread in pips.
	ComputeStopTarget(entry float64, side types.Direction, pipSize float64, metadata map[string]any) (types.StopTarget, error)
	// ComputeTrailingStop decides whether an open position's stop should move.
	ComputeTrailingStop(entry, current, currentStop float64, side types.Direction, pipSize float64) (types.TrailingDecision, error)
	// Config returns the active configuration snapshot.
	Config() Config
	// UpdateConfig applies a partial configuration update.
	UpdateConfig(patch ConfigPatch)
}

// SymbolScoped is an optional capability: strategies that keep per-symbol
// state implement it so the engine can set the active symbol before analysis.
type SymbolScoped interface {
	SetActiveSymbol(symbol string)
}

// TimeframeIngestor is an optional capability: multi-timeframe strategies
// implement it to receive raw candle series ahead of AnalyzeSignal.
type TimeframeIngestor interface {
	IngestTimeframeData(timeframe types.Timeframe, candles []types.Candle)
}

// New constructs a bundled strategy by type. An unknown type is a
// configuration error surfaced to the engine's start sequence.
func New(strategyType Type, cfg Config, log *logger.Logger) (Strategy, error) {
	switch strategyType {
	case TypeTrend:
		return NewTrend(cfg, log), nil
	case TypeMeanReversion:
		return NewMeanReversion(cfg, log), nil
	default:
		return nil, errors.Newf(errors.ErrCodeUnsupportedStrategy, "unsupported strategy type %q", string(strategyType))
	}
}
