// Package paper provides an in-memory TradingAdapter with instant fills and
// seeded market data. It substitutes for a live broker in backtests and in
// integration-style engine tests.
package paper

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/moznion/go-optional"

	"github.com/meridian-lab/meridian-trading/internal/adapter"
	"github.com/meridian-lab/meridian-trading/internal/types"
	"github.com/meridian-lab/meridian-trading/pkg/errors"
)

// Adapter is a deterministic broker substitute. Market data is whatever the
// caller seeds, orders fill instantly at the seeded quote, and any operation
// can be made to fail on demand.
type Adapter struct {
	mu sync.Mutex

	connected bool
	ownerID   string
	botID     string

	balance  float64
	currency string

	specs       map[string]types.SymbolSpecs
	candles     map[string]map[types.Timeframe][]types.Candle
	quotes      map[string]types.Quote
	rates       map[string]float64
	subscribers map[string]adapter.OnTick
	positions   map[string]types.Position
	nextID      int

	failures map[string]error
}

var _ adapter.TradingAdapter = (*Adapter)(nil)

// New creates a connected paper adapter with the given starting balance.
func New(balance float64, currency string) *Adapter {
	return &Adapter{
		connected:   true,
		balance:     balance,
		currency:    currency,
		specs:       make(map[string]types.SymbolSpecs),
		candles:     make(map[string]map[types.Timeframe][]types.Candle),
		quotes:      make(map[string]types.Quote),
		rates:       make(map[string]float64),
		subscribers: make(map[string]adapter.OnTick),
		positions:   make(map[string]types.Position),
		failures:    make(map[string]error),
	}
}

// Seeding and control surface, used by tests and the backtest runner.

// SetConnected toggles the simulated session state.
func (a *Adapter) SetConnected(connected bool) {
	a.mu.Lock()
	a.connected = connected
	a.mu.Unlock()
}

// SetSpecs seeds the trading rules for a symbol.
func (a *Adapter) SetSpecs(specs types.SymbolSpecs) {
	a.mu.Lock()
	a.specs[specs.Symbol] = specs
	a.mu.Unlock()
}

// SeedCandles replaces the seeded history for one symbol and timeframe.
func (a *Adapter) SeedCandles(symbol string, timeframe types.Timeframe, candles []types.Candle) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.candles[symbol] == nil {
		a.candles[symbol] = make(map[types.Timeframe][]types.Candle)
	}
	a.candles[symbol][timeframe] = candles
}

// SetQuote seeds the live quote for a symbol.
func (a *Adapter) SetQuote(quote types.Quote) {
	a.mu.Lock()
	a.quotes[quote.Symbol] = quote
	a.mu.Unlock()
}

// SetConversionRate seeds the cross rate for a currency pair.
func (a *Adapter) SetConversionRate(from, to string, rate float64) {
	a.mu.Lock()
	a.rates[from+to] = rate
	a.mu.Unlock()
}

// FailWith makes the named operation return err until cleared with nil.
// Operation names match the TradingAdapter method names.
func (a *Adapter) FailWith(operation string, err error) {
	a.mu.Lock()
	if err == nil {
		delete(a.failures, operation)
	} else {
		a.failures[operation] = err
	}
	a.mu.Unlock()
}

// PushTick updates the seeded quote and delivers the tick to the symbol's
// subscriber, if any.
func (a *Adapter) PushTick(tick types.Tick) {
	a.mu.Lock()
	a.quotes[tick.Symbol] = types.Quote{
		Symbol: tick.Symbol,
		Bid:    tick.Bid,
		Ask:    tick.Ask,
		Time:   tick.Time,
	}
	onTick := a.subscribers[tick.Symbol]
	a.mu.Unlock()

	if onTick != nil {
		onTick(tick)
	}
}

// AddPosition seeds a pre-existing open position.
func (a *Adapter) AddPosition(position types.Position) {
	a.mu.Lock()
	a.positions[position.ID] = position
	a.mu.Unlock()
}

func (a *Adapter) failure(operation string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.failures[operation]
}

// TradingAdapter implementation.

func (a *Adapter) IsConnected() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.connected
}

func (a *Adapter) BindOwnerContext(ownerID, botID string) error {
	if err := a.failure("BindOwnerContext"); err != nil {
		return err
	}
	if ownerID == "" || botID == "" {
		return errors.New(errors.ErrCodeMissingParameter, "owner id and bot id are required")
	}

	a.mu.Lock()
	a.ownerID = ownerID
	a.botID = botID
	a.mu.Unlock()

	return nil
}

func (a *Adapter) ReconcilePositions(_ context.Context) (int, error) {
	if err := a.failure("ReconcilePositions"); err != nil {
		return 0, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	return len(a.positions), nil
}

func (a *Adapter) GetQuote(_ context.Context, symbol string) (optional.Option[types.Quote], error) {
	if err := a.failure("GetQuote"); err != nil {
		return optional.None[types.Quote](), err
	}

	a.mu.Lock()
	quote, ok := a.quotes[symbol]
	a.mu.Unlock()

	if !ok {
		return optional.None[types.Quote](), nil
	}

	return optional.Some(quote), nil
}

func (a *Adapter) GetCandleHistory(_ context.Context, symbol string, timeframe types.Timeframe, count int) ([]types.Candle, error) {
	if err := a.failure("GetCandleHistory"); err != nil {
		return nil, err
	}

	a.mu.Lock()
	seeded := a.candles[symbol][timeframe]
	a.mu.Unlock()

	if len(seeded) == 0 {
		return nil, errors.Newf(errors.ErrCodeDataUnavailable, "no seeded candles for %s %s", symbol, string(timeframe))
	}

	if count < len(seeded) {
		seeded = seeded[len(seeded)-count:]
	}

	out := make([]types.Candle, len(seeded))
	copy(out, seeded)

	return out, nil
}

func (a *Adapter) SubscribePrice(_ context.Context, symbol string, onTick adapter.OnTick) error {
	if err := a.failure("SubscribePrice"); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.subscribers[symbol]; exists {
		return errors.Newf(errors.ErrCodeSubscriptionFailed, "already subscribed to %s", symbol)
	}
	a.subscribers[symbol] = onTick

	return nil
}

func (a *Adapter) UnsubscribePrice(symbol string) error {
	a.mu.Lock()
	delete(a.subscribers, symbol)
	a.mu.Unlock()

	return nil
}

func (a *Adapter) GetOpenPositions(_ context.Context) ([]types.Position, error) {
	if err := a.failure("GetOpenPositions"); err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	positions := make([]types.Position, 0, len(a.positions))
	for _, p := range a.positions {
		positions = append(positions, p)
	}

	return positions, nil
}

func (a *Adapter) GetAccountInfo(_ context.Context) (types.AccountInfo, error) {
	if err := a.failure("GetAccountInfo"); err != nil {
		return types.AccountInfo{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	return types.AccountInfo{
		Balance:  a.balance,
		Equity:   a.balance,
		Currency: a.currency,
	}, nil
}

func (a *Adapter) GetSymbolSpecs(_ context.Context, symbol string) (types.SymbolSpecs, error) {
	if err := a.failure("GetSymbolSpecs"); err != nil {
		return types.SymbolSpecs{}, err
	}

	a.mu.Lock()
	specs, ok := a.specs[symbol]
	a.mu.Unlock()

	if !ok {
		return types.SymbolSpecs{}, errors.Newf(errors.ErrCodeInvalidSymbol, "no seeded specs for %s", symbol)
	}

	return specs, nil
}

func (a *Adapter) GetDetectedMinVolume(ctx context.Context, symbol string) (float64, error) {
	specs, err := a.GetSymbolSpecs(ctx, symbol)
	if err != nil {
		return 0, err
	}

	return specs.MinVolume, nil
}

func (a *Adapter) GetConversionRate(_ context.Context, from, to string) (float64, error) {
	if err := a.failure("GetConversionRate"); err != nil {
		return 0, err
	}
	if from == to {
		return 1, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if rate, ok := a.rates[from+to]; ok {
		return rate, nil
	}
	if rate, ok := a.rates[to+from]; ok && rate > 0 {
		return 1 / rate, nil
	}

	return 0, errors.Newf(errors.ErrCodeQuoteUnavailable, "no seeded rate for %s/%s", from, to)
}

func (a *Adapter) PlaceOrder(ctx context.Context, order types.OrderRequest, maxSpreadPips float64) (types.OrderResult, error) {
	if err := a.failure("PlaceOrder"); err != nil {
		return types.OrderResult{}, err
	}

	specs, err := a.GetSymbolSpecs(ctx, order.Symbol)
	if err != nil {
		return types.OrderResult{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	quote, ok := a.quotes[order.Symbol]
	if !ok {
		return types.OrderResult{
			Success:      false,
			ErrorMessage: optional.Some("no quote at submission time"),
		}, nil
	}

	if spread := quote.SpreadPips(specs.PipSize); spread > maxSpreadPips {
		return types.OrderResult{
			Success:      false,
			ErrorMessage: optional.Some(fmt.Sprintf("spread %.1f pips exceeds limit %.1f", spread, maxSpreadPips)),
		}, nil
	}

	executionPrice := quote.Ask
	if order.Side == types.DirectionSell {
		executionPrice = quote.Bid
	}

	a.nextID++
	id := strconv.Itoa(a.nextID)
	a.positions[id] = types.Position{
		ID:         id,
		Symbol:     order.Symbol,
		Side:       order.Side,
		Volume:     order.Volume,
		EntryPrice: executionPrice,
		StopLoss:   order.StopLoss,
		TakeProfit: order.TakeProfit,
		OpenTime:   time.Now(),
	}

	return types.OrderResult{
		Success:        true,
		OrderID:        optional.Some(id),
		ExecutionPrice: optional.Some(executionPrice),
	}, nil
}

func (a *Adapter) ModifyPosition(_ context.Context, modify types.PositionModify) (bool, error) {
	if err := a.failure("ModifyPosition"); err != nil {
		return false, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	position, ok := a.positions[modify.PositionID]
	if !ok {
		return false, errors.Newf(errors.ErrCodeModifyFailed, "unknown position %s", modify.PositionID)
	}

	position.StopLoss = modify.StopLoss
	a.positions[modify.PositionID] = position

	return true, nil
}
