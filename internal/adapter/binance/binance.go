// Package binance implements the live TradingAdapter on the Binance spot
// API. REST calls are throttled through a shared rate limiter and exchange
// rate-limit responses map onto ErrCodeRateLimited so callers can back off
// appropriately.
package binance

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/meridian-lab/meridian-trading/internal/adapter"
	"github.com/meridian-lab/meridian-trading/internal/logger"
	"github.com/meridian-lab/meridian-trading/internal/types"
	"github.com/meridian-lab/meridian-trading/pkg/errors"
)

const pingTimeout = 5 * time.Second

// wsServeFunc matches binance.WsBookTickerServe; a seam for tests.
type wsServeFunc func(symbol string, handler binance.WsBookTickerHandler, errHandler binance.ErrHandler) (doneC, stopC chan struct{}, err error)

// Adapter implements adapter.TradingAdapter against Binance spot. Spot has
// no native position object, so the adapter keeps its own registry: entries
// are created on fills, seeded from balances by ReconcilePositions, and
// protective stops are carried as working STOP_LOSS_LIMIT orders.
type Adapter struct {
	cfg     Config
	client  Client
	limiter *rate.Limiter
	log     *logger.Logger
	wsServe wsServeFunc

	mu         sync.Mutex
	ownerID    string
	botID      string
	specs      map[string]types.SymbolSpecs
	positions  map[string]types.Position
	stopOrders map[string]string
	streams    map[string]chan struct{}
}

var _ adapter.TradingAdapter = (*Adapter)(nil)

// New creates a live adapter for the configured Binance session.
func New(cfg Config, log *logger.Logger) (*Adapter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.UseTestnet {
		binance.UseTestnet = true
	}

	client := binance.NewClient(cfg.APIKey, cfg.SecretKey)
	if cfg.BaseURL != "" {
		client.BaseURL = cfg.BaseURL
	}

	return newWithClient(cfg, &realClient{client: client}, log), nil
}

// newWithClient wires a custom client; used by tests.
func newWithClient(cfg Config, client Client, log *logger.Logger) *Adapter {
	return &Adapter{
		cfg:        cfg,
		client:     client,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		log:        log,
		wsServe:    binance.WsBookTickerServe,
		specs:      make(map[string]types.SymbolSpecs),
		positions:  make(map[string]types.Position),
		stopOrders: make(map[string]string),
		streams:    make(map[string]chan struct{}),
	}
}

// IsConnected probes the REST endpoint.
func (a *Adapter) IsConnected() bool {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	return a.client.NewPingService().Do(ctx) == nil
}

// BindOwnerContext scopes the session. Binance has no server-side notion of
// an owner; the pair tags logs and client order ids for audit.
func (a *Adapter) BindOwnerContext(ownerID, botID string) error {
	if ownerID == "" || botID == "" {
		return errors.New(errors.ErrCodeMissingParameter, "owner id and bot id are required")
	}

	a.mu.Lock()
	a.ownerID = ownerID
	a.botID = botID
	a.mu.Unlock()

	return nil
}

// ReconcilePositions seeds the position registry from spot balances: every
// non-cash asset held is treated as an open long against the account
// currency. Entry price and stops are unknown for pre-existing holdings.
func (a *Adapter) ReconcilePositions(ctx context.Context) (int, error) {
	if err := a.throttle(ctx); err != nil {
		return 0, err
	}

	account, err := a.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return 0, a.mapErr(errors.ErrCodeReconcileFailed, "failed to fetch account for reconciliation", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	count := 0
	for _, balance := range account.Balances {
		if balance.Asset == a.cfg.AccountCurrency {
			continue
		}

		free, _ := strconv.ParseFloat(balance.Free, 64)
		locked, _ := strconv.ParseFloat(balance.Locked, 64)
		total := free + locked
		if total <= 0 {
			continue
		}

		id := "bal-" + balance.Asset
		a.positions[id] = types.Position{
			ID:     id,
			Symbol: balance.Asset + a.cfg.AccountCurrency,
			Side:   types.DirectionBuy,
			Volume: total,
		}
		count++
	}

	return count, nil
}

// GetQuote returns the live best bid/ask for a symbol.
func (a *Adapter) GetQuote(ctx context.Context, symbol string) (optional.Option[types.Quote], error) {
	if err := a.throttle(ctx); err != nil {
		return optional.None[types.Quote](), err
	}

	tickers, err := a.client.NewListBookTickersService().Symbol(symbol).Do(ctx)
	if err != nil {
		return optional.None[types.Quote](), a.mapErr(errors.ErrCodeQuoteUnavailable, "failed to fetch book ticker", err)
	}
	if len(tickers) == 0 {
		return optional.None[types.Quote](), nil
	}

	bid, _ := strconv.ParseFloat(tickers[0].BidPrice, 64)
	ask, _ := strconv.ParseFloat(tickers[0].AskPrice, 64)
	if bid <= 0 || ask <= 0 {
		return optional.None[types.Quote](), nil
	}

	return optional.Some(types.Quote{
		Symbol: symbol,
		Bid:    bid,
		Ask:    ask,
		Time:   time.Now(),
	}), nil
}

// GetCandleHistory fetches up to count most-recent candles, oldest first.
func (a *Adapter) GetCandleHistory(ctx context.Context, symbol string, timeframe types.Timeframe, count int) ([]types.Candle, error) {
	interval, err := toInterval(timeframe)
	if err != nil {
		return nil, err
	}

	if err := a.throttle(ctx); err != nil {
		return nil, err
	}

	klines, err := a.client.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		Limit(count).
		Do(ctx)
	if err != nil {
		return nil, a.mapErr(errors.ErrCodeHistoryFetchFailed, "failed to fetch klines", err)
	}

	candles := make([]types.Candle, 0, len(klines))
	for _, k := range klines {
		open, _ := strconv.ParseFloat(k.Open, 64)
		high, _ := strconv.ParseFloat(k.High, 64)
		low, _ := strconv.ParseFloat(k.Low, 64)
		closePrice, _ := strconv.ParseFloat(k.Close, 64)
		volume, _ := strconv.ParseFloat(k.Volume, 64)

		candles = append(candles, types.Candle{
			Timestamp: time.UnixMilli(k.OpenTime),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePrice,
			Volume:    volume,
		})
	}

	return candles, nil
}

// SubscribePrice attaches a live book-ticker stream for the symbol.
func (a *Adapter) SubscribePrice(ctx context.Context, symbol string, onTick adapter.OnTick) error {
	a.mu.Lock()
	if _, exists := a.streams[symbol]; exists {
		a.mu.Unlock()

		return errors.Newf(errors.ErrCodeSubscriptionFailed, "already subscribed to %s", symbol)
	}
	a.mu.Unlock()

	handler := func(event *binance.WsBookTickerEvent) {
		bid, _ := strconv.ParseFloat(event.BestBidPrice, 64)
		ask, _ := strconv.ParseFloat(event.BestAskPrice, 64)
		if bid <= 0 || ask <= 0 {
			return
		}
		onTick(types.Tick{
			Symbol: symbol,
			Bid:    bid,
			Ask:    ask,
			Last:   (bid + ask) / 2,
			Time:   time.Now(),
		})
	}
	errHandler := func(err error) {
		a.log.Warn("book ticker stream error",
			zap.String("symbol", symbol),
			zap.Error(err))
	}

	_, stopC, err := a.wsServe(symbol, handler, errHandler)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeSubscriptionFailed, err, "failed to open book ticker stream for %s", symbol)
	}

	a.mu.Lock()
	a.streams[symbol] = stopC
	a.mu.Unlock()

	return nil
}

// UnsubscribePrice stops the live stream for the symbol.
func (a *Adapter) UnsubscribePrice(symbol string) error {
	a.mu.Lock()
	stopC, ok := a.streams[symbol]
	delete(a.streams, symbol)
	a.mu.Unlock()

	if !ok {
		return nil
	}
	close(stopC)

	return nil
}

// GetOpenPositions returns a snapshot of the position registry.
func (a *Adapter) GetOpenPositions(ctx context.Context) ([]types.Position, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	positions := make([]types.Position, 0, len(a.positions))
	for _, p := range a.positions {
		positions = append(positions, p)
	}

	return positions, nil
}

// GetAccountInfo reports the cash balance in the configured account
// currency. On spot that balance is the equity; unrealized P&L lives in the
// asset balances themselves.
func (a *Adapter) GetAccountInfo(ctx context.Context) (types.AccountInfo, error) {
	if err := a.throttle(ctx); err != nil {
		return types.AccountInfo{}, err
	}

	account, err := a.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return types.AccountInfo{}, a.mapErr(errors.ErrCodeDataUnavailable, "failed to fetch account info", err)
	}

	var balance float64
	for _, b := range account.Balances {
		if b.Asset != a.cfg.AccountCurrency {
			continue
		}
		free, _ := strconv.ParseFloat(b.Free, 64)
		locked, _ := strconv.ParseFloat(b.Locked, 64)
		balance = free + locked
	}

	return types.AccountInfo{
		Balance:  balance,
		Equity:   balance,
		Currency: a.cfg.AccountCurrency,
	}, nil
}

// GetSymbolSpecs maps the exchange's trading rules onto symbol specs. The
// price tick doubles as the pip: one tick on one unit of base asset is worth
// one tick of the quote currency.
func (a *Adapter) GetSymbolSpecs(ctx context.Context, symbol string) (types.SymbolSpecs, error) {
	a.mu.Lock()
	if specs, ok := a.specs[symbol]; ok {
		a.mu.Unlock()

		return specs, nil
	}
	a.mu.Unlock()

	info, err := a.exchangeSymbol(ctx, symbol)
	if err != nil {
		return types.SymbolSpecs{}, err
	}

	lot := info.LotSizeFilter()
	price := info.PriceFilter()
	if lot == nil || price == nil {
		return types.SymbolSpecs{}, errors.Newf(errors.ErrCodeInvalidSymbol, "%s is missing lot size or price filters", symbol)
	}

	minQty, _ := strconv.ParseFloat(lot.MinQuantity, 64)
	maxQty, _ := strconv.ParseFloat(lot.MaxQuantity, 64)
	step, _ := strconv.ParseFloat(lot.StepSize, 64)
	tick, _ := strconv.ParseFloat(price.TickSize, 64)
	if minQty <= 0 || step <= 0 || tick <= 0 {
		return types.SymbolSpecs{}, errors.Newf(errors.ErrCodeInvalidSymbol, "%s has unusable trading rules", symbol)
	}

	specs := types.SymbolSpecs{
		Symbol:        symbol,
		MinVolume:     minQty,
		MaxVolume:     maxQty,
		StepVolume:    step,
		PipSize:       tick,
		PipValue:      tick,
		QuoteCurrency: info.QuoteAsset,
	}

	a.mu.Lock()
	a.specs[symbol] = specs
	a.mu.Unlock()

	return specs, nil
}

// GetDetectedMinVolume derives the effective minimum order size: the larger
// of the published LOT_SIZE minimum and the MIN_NOTIONAL floor at the
// current price. Exchanges routinely reject orders that satisfy LOT_SIZE
// but miss the notional floor.
func (a *Adapter) GetDetectedMinVolume(ctx context.Context, symbol string) (float64, error) {
	specs, err := a.GetSymbolSpecs(ctx, symbol)
	if err != nil {
		return 0, err
	}

	info, err := a.exchangeSymbol(ctx, symbol)
	if err != nil {
		return 0, err
	}

	minNotional := minNotionalOf(info)
	if minNotional <= 0 {
		return specs.MinVolume, nil
	}

	quoteOpt, err := a.GetQuote(ctx, symbol)
	if err != nil || quoteOpt.IsNone() {
		return specs.MinVolume, nil
	}

	mid := quoteOpt.Unwrap().Mid()
	if mid <= 0 {
		return specs.MinVolume, nil
	}

	// Round the notional-derived quantity up to the volume step.
	notionalQty := decimal.NewFromFloat(minNotional).
		Div(decimal.NewFromFloat(mid)).
		Div(decimal.NewFromFloat(specs.StepVolume)).
		Ceil().
		Mul(decimal.NewFromFloat(specs.StepVolume))

	detected, _ := notionalQty.Float64()
	if detected < specs.MinVolume {
		return specs.MinVolume, nil
	}

	return detected, nil
}

// GetConversionRate returns the cross rate between two currencies using the
// direct pair's mid price, falling back to the inverted pair.
func (a *Adapter) GetConversionRate(ctx context.Context, from, to string) (float64, error) {
	if from == to {
		return 1, nil
	}

	if quote, err := a.GetQuote(ctx, from+to); err == nil && quote.IsSome() {
		return quote.Unwrap().Mid(), nil
	}

	quote, err := a.GetQuote(ctx, to+from)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrCodeQuoteUnavailable, err, "no conversion pair for %s/%s", from, to)
	}
	if quote.IsNone() {
		return 0, errors.Newf(errors.ErrCodeQuoteUnavailable, "no conversion pair for %s/%s", from, to)
	}

	mid := quote.Unwrap().Mid()
	if mid <= 0 {
		return 0, errors.Newf(errors.ErrCodeQuoteUnavailable, "conversion pair %s%s has no price", to, from)
	}

	return 1 / mid, nil
}

// PlaceOrder submits a market order with a final broker-side spread check,
// then registers the fill and parks the protective stop as a working
// STOP_LOSS_LIMIT order.
func (a *Adapter) PlaceOrder(ctx context.Context, order types.OrderRequest, maxSpreadPips float64) (types.OrderResult, error) {
	specs, err := a.GetSymbolSpecs(ctx, order.Symbol)
	if err != nil {
		return types.OrderResult{}, err
	}

	quoteOpt, err := a.GetQuote(ctx, order.Symbol)
	if err != nil {
		return types.OrderResult{}, err
	}
	if quoteOpt.IsNone() {
		return types.OrderResult{
			Success:      false,
			ErrorMessage: optional.Some("no live quote at submission time"),
		}, nil
	}
	quote := quoteOpt.Unwrap()

	if spread := quote.SpreadPips(specs.PipSize); spread > maxSpreadPips {
		return types.OrderResult{
			Success:      false,
			ErrorMessage: optional.Some(fmt.Sprintf("spread %.1f pips exceeds limit %.1f", spread, maxSpreadPips)),
		}, nil
	}

	side := binance.SideTypeBuy
	if order.Side == types.DirectionSell {
		side = binance.SideTypeSell
	}

	if err := a.throttle(ctx); err != nil {
		return types.OrderResult{}, err
	}

	resp, err := a.client.NewCreateOrderService().
		Symbol(order.Symbol).
		Side(side).
		Type(binance.OrderTypeMarket).
		Quantity(formatVolume(order.Volume, specs.StepVolume)).
		NewClientOrderID(order.ID).
		Do(ctx)
	if err != nil {
		return types.OrderResult{}, a.mapErr(errors.ErrCodeOrderFailed, "order submission failed", err)
	}

	executionPrice := fillPrice(resp)
	if executionPrice <= 0 {
		executionPrice = quote.Ask
		if order.Side == types.DirectionSell {
			executionPrice = quote.Bid
		}
	}

	positionID := strconv.FormatInt(resp.OrderID, 10)
	position := types.Position{
		ID:         positionID,
		Symbol:     order.Symbol,
		Side:       order.Side,
		Volume:     order.Volume,
		EntryPrice: executionPrice,
		StopLoss:   order.StopLoss,
		TakeProfit: order.TakeProfit,
		OpenTime:   time.Now(),
	}

	a.mu.Lock()
	a.positions[positionID] = position
	a.mu.Unlock()

	if order.StopLoss > 0 {
		if stopErr := a.placeStopOrder(ctx, position, specs); stopErr != nil {
			// The entry already filled; a missing stop is reported but
			// does not undo the trade.
			a.log.Warn("protective stop could not be placed",
				zap.String("symbol", order.Symbol),
				zap.String("position_id", positionID),
				zap.Error(stopErr))
		}
	}

	return types.OrderResult{
		Success:        true,
		OrderID:        optional.Some(positionID),
		ExecutionPrice: optional.Some(executionPrice),
	}, nil
}

// ModifyPosition replaces the working protective stop with one at the new
// level.
func (a *Adapter) ModifyPosition(ctx context.Context, modify types.PositionModify) (bool, error) {
	a.mu.Lock()
	position, ok := a.positions[modify.PositionID]
	stopOrderID := a.stopOrders[modify.PositionID]
	a.mu.Unlock()

	if !ok {
		return false, errors.Newf(errors.ErrCodeModifyFailed, "unknown position %s", modify.PositionID)
	}

	specs, err := a.GetSymbolSpecs(ctx, position.Symbol)
	if err != nil {
		return false, err
	}

	if stopOrderID != "" {
		if err := a.throttle(ctx); err != nil {
			return false, err
		}
		if _, err := a.client.NewCancelOrderService().
			Symbol(position.Symbol).
			OrigClientOrderID(stopOrderID).
			Do(ctx); err != nil {
			// The old stop may have triggered or expired already.
			a.log.Warn("failed to cancel previous stop order",
				zap.String("symbol", position.Symbol),
				zap.String("stop_order_id", stopOrderID),
				zap.Error(err))
		}
	}

	position.StopLoss = modify.StopLoss
	if err := a.placeStopOrder(ctx, position, specs); err != nil {
		return false, err
	}

	a.mu.Lock()
	a.positions[modify.PositionID] = position
	a.mu.Unlock()

	return true, nil
}

// placeStopOrder parks a STOP_LOSS_LIMIT on the opposite side of position.
func (a *Adapter) placeStopOrder(ctx context.Context, position types.Position, specs types.SymbolSpecs) error {
	side := binance.SideTypeSell
	if position.Side == types.DirectionSell {
		side = binance.SideTypeBuy
	}

	if err := a.throttle(ctx); err != nil {
		return err
	}

	stopPrice := strconv.FormatFloat(position.StopLoss, 'f', -1, 64)
	stopOrderID := "stop-" + position.ID

	_, err := a.client.NewCreateOrderService().
		Symbol(position.Symbol).
		Side(side).
		Type(binance.OrderTypeStopLossLimit).
		Quantity(formatVolume(position.Volume, specs.StepVolume)).
		StopPrice(stopPrice).
		Price(stopPrice).
		TimeInForce(binance.TimeInForceTypeGTC).
		NewClientOrderID(stopOrderID).
		Do(ctx)
	if err != nil {
		return a.mapErr(errors.ErrCodeOrderFailed, "failed to place stop order", err)
	}

	a.mu.Lock()
	a.stopOrders[position.ID] = stopOrderID
	a.mu.Unlock()

	return nil
}

func (a *Adapter) exchangeSymbol(ctx context.Context, symbol string) (*binance.Symbol, error) {
	if err := a.throttle(ctx); err != nil {
		return nil, err
	}

	info, err := a.client.NewExchangeInfoService().Symbol(symbol).Do(ctx)
	if err != nil {
		return nil, a.mapErr(errors.ErrCodeDataUnavailable, "failed to fetch exchange info", err)
	}

	for i := range info.Symbols {
		if info.Symbols[i].Symbol == symbol {
			return &info.Symbols[i], nil
		}
	}

	return nil, errors.Newf(errors.ErrCodeInvalidSymbol, "symbol %s is not listed", symbol)
}

// throttle blocks until the limiter admits one more REST call.
func (a *Adapter) throttle(ctx context.Context) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeDataUnavailable, "request cancelled while throttled", err)
	}

	return nil
}

// mapErr wraps an API failure, promoting exchange throttling responses to
// ErrCodeRateLimited so warm-up applies its extended backoff.
func (a *Adapter) mapErr(code errors.ErrorCode, message string, err error) error {
	var apiErr *common.APIError
	if stderrors.As(err, &apiErr) {
		// -1003 TOO_MANY_REQUESTS, -1015 TOO_MANY_ORDERS.
		if apiErr.Code == -1003 || apiErr.Code == -1015 {
			return errors.Wrap(errors.ErrCodeRateLimited, message, err)
		}
	}

	return errors.Wrap(code, message, err)
}

// minNotionalOf reads the notional floor from the raw filter list; the
// filter was renamed from MIN_NOTIONAL to NOTIONAL, so both spellings are
// honored.
func minNotionalOf(info *binance.Symbol) float64 {
	for _, filter := range info.Filters {
		filterType, _ := filter["filterType"].(string)
		if filterType != "MIN_NOTIONAL" && filterType != "NOTIONAL" {
			continue
		}
		raw, _ := filter["minNotional"].(string)
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0
		}

		return value
	}

	return 0
}

// formatVolume renders a quantity floored to the symbol's volume step.
func formatVolume(volume, step float64) string {
	d := decimal.NewFromFloat(volume)
	if step > 0 {
		stepD := decimal.NewFromFloat(step)
		d = d.Div(stepD).Floor().Mul(stepD)
	}

	return d.String()
}

// fillPrice derives the average execution price from the order response.
func fillPrice(resp *binance.CreateOrderResponse) float64 {
	var notional, quantity float64
	for _, fill := range resp.Fills {
		price, _ := strconv.ParseFloat(fill.Price, 64)
		qty, _ := strconv.ParseFloat(fill.Quantity, 64)
		notional += price * qty
		quantity += qty
	}
	if quantity > 0 {
		return notional / quantity
	}

	executed, _ := strconv.ParseFloat(resp.ExecutedQuantity, 64)
	cumQuote, _ := strconv.ParseFloat(resp.CummulativeQuoteQuantity, 64)
	if executed > 0 && cumQuote > 0 {
		return cumQuote / executed
	}

	return 0
}

// toInterval maps a timeframe onto a Binance kline interval.
func toInterval(timeframe types.Timeframe) (string, error) {
	switch timeframe {
	case types.TimeframeM1:
		return "1m", nil
	case types.TimeframeM5:
		return "5m", nil
	case types.TimeframeM15:
		return "15m", nil
	case types.TimeframeM30:
		return "30m", nil
	case types.TimeframeH1:
		return "1h", nil
	case types.TimeframeH4:
		return "4h", nil
	case types.TimeframeD1:
		return "1d", nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidTimeframe, "unsupported timeframe %q", string(timeframe))
	}
}
