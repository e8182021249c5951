package risk

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/meridian-lab/meridian-trading/internal/adapter"
	"github.com/meridian-lab/meridian-trading/internal/logger"
	"github.com/meridian-lab/meridian-trading/internal/types"
	"github.com/meridian-lab/meridian-trading/pkg/errors"
)

// symbolSpecs pairs the broker's published contract specs with the minimum
// volume the adapter actually observed being accepted.
type symbolSpecs struct {
	specs       types.SymbolSpecs
	detectedMin float64
}

// BasicGate is the standard Gate: balance-fraction sizing with broker
// specs cached at initialization, and a hard cap on open trades.
type BasicGate struct {
	mu      sync.Mutex
	cfg     Config
	adapter adapter.TradingAdapter
	logger  *logger.Logger
	specs   map[string]symbolSpecs
}

var _ Gate = (*BasicGate)(nil)

// NewBasicGate creates an uninitialized gate; call Initialize before use.
func NewBasicGate(cfg Config, tradingAdapter adapter.TradingAdapter, log *logger.Logger) *BasicGate {
	return &BasicGate{
		cfg:     cfg,
		adapter: tradingAdapter,
		logger:  log,
		specs:   make(map[string]symbolSpecs),
	}
}

// Initialize implements Gate. It loads and caches contract specs for every
// traded symbol; any miss aborts, because sizing without specs would have to
// guess.
func (g *BasicGate) Initialize(ctx context.Context, symbols []string) error {
	if !g.adapter.IsConnected() {
		return errors.New(errors.ErrCodeRiskInitFailed, "adapter is not connected")
	}

	account, err := g.adapter.GetAccountInfo(ctx)
	if err != nil {
		return errors.Wrap(errors.ErrCodeRiskInitFailed, "failed to read account info", err)
	}
	if account.Balance <= 0 {
		return errors.Newf(errors.ErrCodeRiskInitFailed, "account balance %.2f %s is not tradeable", account.Balance, account.Currency)
	}

	loaded := make(map[string]symbolSpecs, len(symbols))
	for _, symbol := range symbols {
		specs, specErr := g.adapter.GetSymbolSpecs(ctx, symbol)
		if specErr != nil {
			return errors.Wrapf(errors.ErrCodeRiskInitFailed, specErr, "failed to load specs for %s", symbol)
		}
		if specs.PipSize <= 0 || specs.PipValue <= 0 || specs.StepVolume <= 0 {
			return errors.Newf(errors.ErrCodeRiskInitFailed, "specs for %s are unusable: pip_size=%f pip_value=%f step=%f",
				symbol, specs.PipSize, specs.PipValue, specs.StepVolume)
		}

		detectedMin, minErr := g.adapter.GetDetectedMinVolume(ctx, symbol)
		if minErr != nil {
			g.logger.Warn("min volume detection failed, using published minimum",
				zap.String("symbol", symbol),
				zap.Error(minErr))
			detectedMin = specs.MinVolume
		}

		loaded[symbol] = symbolSpecs{specs: specs, detectedMin: detectedMin}
	}

	g.mu.Lock()
	g.specs = loaded
	g.mu.Unlock()

	g.logger.Info("risk gate initialized",
		zap.Int("symbols", len(loaded)),
		zap.Float64("balance", account.Balance),
		zap.String("currency", account.Currency))

	return nil
}

// CanOpenPosition implements Gate. It enforces the account-wide open trade
// cap only; per-symbol capping is the execution pipeline's dual-source
// check, driven by the engine's MaxTradesPerSymbol.
func (g *BasicGate) CanOpenPosition(ctx context.Context, _ string) (bool, types.RejectReason, error) {
	g.mu.Lock()
	maxOpen := g.cfg.MaxOpenTrades
	g.mu.Unlock()

	positions, err := g.adapter.GetOpenPositions(ctx)
	if err != nil {
		return false, types.RejectReasonRiskBlocked, errors.Wrap(errors.ErrCodeNotConnected, "failed to read open positions", err)
	}

	if len(positions) >= maxOpen {
		return false, types.RejectReasonRiskBlocked, nil
	}

	return true, "", nil
}

// SizePosition implements Gate. Volume is rounded DOWN to the instrument's
// volume step; a result below the effective minimum is an error, never a
// silently substituted minimum lot.
func (g *BasicGate) SizePosition(ctx context.Context, symbol string, stopPips float64) (float64, error) {
	if stopPips <= 0 {
		return 0, errors.Newf(errors.ErrCodeSizingFailed, "stop distance must be positive, got %f pips", stopPips)
	}

	g.mu.Lock()
	riskPercent := g.cfg.RiskPercent
	cached, ok := g.specs[symbol]
	g.mu.Unlock()
	if !ok {
		return 0, errors.Newf(errors.ErrCodeSizingFailed, "no specs cached for %s", symbol)
	}

	account, err := g.adapter.GetAccountInfo(ctx)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeSizingFailed, "failed to read account info", err)
	}

	pipValue := cached.specs.PipValue
	if cached.specs.QuoteCurrency != "" && cached.specs.QuoteCurrency != account.Currency {
		rate, rateErr := g.adapter.GetConversionRate(ctx, cached.specs.QuoteCurrency, account.Currency)
		if rateErr != nil {
			return 0, errors.Wrapf(errors.ErrCodeSizingFailed, rateErr,
				"failed to convert pip value from %s to %s", cached.specs.QuoteCurrency, account.Currency)
		}
		pipValue *= rate
	}
	if pipValue <= 0 {
		return 0, errors.Newf(errors.ErrCodeSizingFailed, "pip value for %s resolved to %f", symbol, pipValue)
	}

	riskAmount := account.Balance * riskPercent / 100
	rawVolume := riskAmount / (stopPips * pipValue)

	// Broker volume steps are decimal quantities; float division then
	// flooring in decimal space avoids 0.06999... style artifacts.
	step := decimal.NewFromFloat(cached.specs.StepVolume)
	volume, _ := decimal.NewFromFloat(rawVolume).Div(step).Floor().Mul(step).Float64()

	effectiveMin := cached.specs.MinVolume
	if cached.detectedMin > effectiveMin {
		effectiveMin = cached.detectedMin
	}
	if volume < effectiveMin {
		return 0, errors.Newf(errors.ErrCodeSizingFailed,
			"%s: computed volume %.4f below minimum %.4f (risk %.2f%%, stop %.1f pips)",
			symbol, volume, effectiveMin, riskPercent, stopPips)
	}
	if cached.specs.MaxVolume > 0 && volume > cached.specs.MaxVolume {
		volume = cached.specs.MaxVolume
	}

	return volume, nil
}

// OpenTradeCount implements Gate.
func (g *BasicGate) OpenTradeCount(ctx context.Context, symbol string) (int, error) {
	positions, err := g.adapter.GetOpenPositions(ctx)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeNotConnected, "failed to read open positions", err)
	}

	count := 0
	for _, p := range positions {
		if p.Symbol == symbol {
			count++
		}
	}

	return count, nil
}

// UpdateConfig implements Gate.
func (g *BasicGate) UpdateConfig(cfg Config) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.cfg = cfg
}

// Config returns the active limits.
func (g *BasicGate) Config() Config {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.cfg
}

// Snapshot implements Gate.
func (g *BasicGate) Snapshot(ctx context.Context) (State, error) {
	g.mu.Lock()
	cfg := g.cfg
	g.mu.Unlock()

	account, err := g.adapter.GetAccountInfo(ctx)
	if err != nil {
		return State{}, errors.Wrap(errors.ErrCodeNotConnected, "failed to read account info", err)
	}
	positions, err := g.adapter.GetOpenPositions(ctx)
	if err != nil {
		return State{}, errors.Wrap(errors.ErrCodeNotConnected, "failed to read open positions", err)
	}

	return State{
		Balance:       account.Balance,
		Equity:        account.Equity,
		Currency:      account.Currency,
		OpenTrades:    len(positions),
		MaxOpenTrades: cfg.MaxOpenTrades,
		RiskPercent:   cfg.RiskPercent,
	}, nil
}
