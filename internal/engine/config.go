package engine

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"gopkg.in/yaml.v3"

	"github.com/meridian-lab/meridian-trading/internal/risk"
	"github.com/meridian-lab/meridian-trading/internal/strategy"
	"github.com/meridian-lab/meridian-trading/pkg/errors"
)

// Config is the engine's single mutable snapshot. It is replaced wholesale
// on reload and never field-mutated in place, so a reader holding a snapshot
// sees either the old or the new configuration, never a mix.
type Config struct {
	// OwnerID and BotID scope the broker session; one engine instance
	// serves exactly one (owner, bot) pair.
	OwnerID string `json:"owner_id" yaml:"owner_id" validate:"required"`
	BotID   string `json:"bot_id" yaml:"bot_id" validate:"required"`
	// StrategyType selects the strategy via the factory.
	StrategyType strategy.Type `json:"strategy_type" yaml:"strategy_type" validate:"required"`
	// Symbols is the traded symbol set. There is no built-in default.
	Symbols []string `json:"symbols" yaml:"symbols" validate:"required,min=1,dive,required"`
	// FixedLot, when positive, bypasses risk-based sizing with a fixed
	// order size in lots.
	FixedLot float64 `json:"fixed_lot" yaml:"fixed_lot" validate:"gte=0"`
	// MaxTradesPerSymbol caps open positions per instrument.
	MaxTradesPerSymbol int `json:"max_trades_per_symbol" yaml:"max_trades_per_symbol" validate:"gte=1"`
	// Cooldown is the minimum gap between trades on the same symbol.
	Cooldown time.Duration `json:"cooldown" yaml:"cooldown" validate:"gte=0"`
	// MaxSpreadPips rejects entries when the live spread is wider.
	MaxSpreadPips float64 `json:"max_spread_pips" yaml:"max_spread_pips" validate:"gt=0"`
	// ConfidenceThreshold is the minimum signal confidence handed to the
	// execution pipeline.
	ConfidenceThreshold float64 `json:"confidence_threshold" yaml:"confidence_threshold" validate:"gte=0,lte=100"`
	// AnalysisInterval, RefreshInterval and TrailingInterval drive the
	// three schedulers.
	AnalysisInterval time.Duration `json:"analysis_interval" yaml:"analysis_interval" validate:"gt=0"`
	RefreshInterval  time.Duration `json:"refresh_interval" yaml:"refresh_interval" validate:"gt=0"`
	TrailingInterval time.Duration `json:"trailing_interval" yaml:"trailing_interval" validate:"gt=0"`
	// Risk holds the admission and sizing limits.
	Risk risk.Config `json:"risk" yaml:"risk"`
	// Strategy holds the strategy knobs passed to the factory.
	Strategy strategy.Config `json:"strategy" yaml:"strategy"`
}

// DefaultConfig returns the engine defaults. Symbols, OwnerID and BotID have
// no defaults and must come from the caller's configuration.
func DefaultConfig() Config {
	return Config{
		StrategyType:        strategy.TypeTrend,
		MaxTradesPerSymbol:  1,
		Cooldown:            60 * time.Second,
		MaxSpreadPips:       3.0,
		ConfidenceThreshold: 70,
		AnalysisInterval:    30 * time.Second,
		RefreshInterval:     60 * time.Second,
		TrailingInterval:    10 * time.Second,
		Risk:                risk.DefaultConfig(),
		Strategy:            strategy.DefaultConfig(),
	}
}

// Validate checks the configuration for completeness.
func (c Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid engine configuration", err)
	}

	return nil
}

// SymbolsEqual reports whether the config trades exactly the same symbol set
// as other, order-insensitively. Reload preserves candle buffers when true.
func (c Config) SymbolsEqual(other Config) bool {
	if len(c.Symbols) != len(other.Symbols) {
		return false
	}
	set := make(map[string]struct{}, len(c.Symbols))
	for _, s := range c.Symbols {
		set[s] = struct{}{}
	}
	for _, s := range other.Symbols {
		if _, ok := set[s]; !ok {
			return false
		}
	}

	return true
}

// ConfigPatch is a partial engine configuration update. Fields left as None
// keep their current value; a Some carrying a zero value is applied as-is,
// so explicitly configuring zero is never mistaken for "use the default".
type ConfigPatch struct {
	OwnerID             optional.Option[string]               `json:"owner_id" yaml:"owner_id"`
	BotID               optional.Option[string]               `json:"bot_id" yaml:"bot_id"`
	StrategyType        optional.Option[strategy.Type]        `json:"strategy_type" yaml:"strategy_type"`
	Symbols             optional.Option[[]string]             `json:"symbols" yaml:"symbols"`
	FixedLot            optional.Option[float64]              `json:"fixed_lot" yaml:"fixed_lot"`
	MaxTradesPerSymbol  optional.Option[int]                  `json:"max_trades_per_symbol" yaml:"max_trades_per_symbol"`
	Cooldown            optional.Option[time.Duration]        `json:"cooldown" yaml:"cooldown"`
	MaxSpreadPips       optional.Option[float64]              `json:"max_spread_pips" yaml:"max_spread_pips"`
	ConfidenceThreshold optional.Option[float64]              `json:"confidence_threshold" yaml:"confidence_threshold"`
	AnalysisInterval    optional.Option[time.Duration]        `json:"analysis_interval" yaml:"analysis_interval"`
	RefreshInterval     optional.Option[time.Duration]        `json:"refresh_interval" yaml:"refresh_interval"`
	TrailingInterval    optional.Option[time.Duration]        `json:"trailing_interval" yaml:"trailing_interval"`
	Risk                optional.Option[risk.Config]          `json:"risk" yaml:"risk"`
	Strategy            optional.Option[strategy.ConfigPatch] `json:"strategy" yaml:"strategy"`
}

// Apply merges the patch onto a copy of cfg and returns the result.
func (p ConfigPatch) Apply(cfg Config) Config {
	if p.OwnerID.IsSome() {
		cfg.OwnerID = p.OwnerID.Unwrap()
	}
	if p.BotID.IsSome() {
		cfg.BotID = p.BotID.Unwrap()
	}
	if p.StrategyType.IsSome() {
		cfg.StrategyType = p.StrategyType.Unwrap()
	}
	if p.Symbols.IsSome() {
		cfg.Symbols = p.Symbols.Unwrap()
	}
	if p.FixedLot.IsSome() {
		cfg.FixedLot = p.FixedLot.Unwrap()
	}
	if p.MaxTradesPerSymbol.IsSome() {
		cfg.MaxTradesPerSymbol = p.MaxTradesPerSymbol.Unwrap()
	}
	if p.Cooldown.IsSome() {
		cfg.Cooldown = p.Cooldown.Unwrap()
	}
	if p.MaxSpreadPips.IsSome() {
		cfg.MaxSpreadPips = p.MaxSpreadPips.Unwrap()
	}
	if p.ConfidenceThreshold.IsSome() {
		cfg.ConfidenceThreshold = p.ConfidenceThreshold.Unwrap()
	}
	if p.AnalysisInterval.IsSome() {
		cfg.AnalysisInterval = p.AnalysisInterval.Unwrap()
	}
	if p.RefreshInterval.IsSome() {
		cfg.RefreshInterval = p.RefreshInterval.Unwrap()
	}
	if p.TrailingInterval.IsSome() {
		cfg.TrailingInterval = p.TrailingInterval.Unwrap()
	}
	if p.Risk.IsSome() {
		cfg.Risk = p.Risk.Unwrap()
	}
	if p.Strategy.IsSome() {
		cfg.Strategy = p.Strategy.Unwrap().Apply(cfg.Strategy)
	}

	return cfg
}

// ParseConfig decodes a YAML engine configuration over the defaults.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse engine configuration", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// GetConfigSchema returns the JSON schema of the engine configuration.
func GetConfigSchema() (string, error) {
	schema := jsonschema.Reflect(&Config{})

	schemaJSON, err := schema.MarshalJSON()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeUnknown, "failed to marshal config schema", err)
	}

	return string(schemaJSON), nil
}
