package engine

import (
	"context"
	"sync"
	"time"

	"github.com/moznion/go-optional"
	"go.uber.org/mock/gomock"

	"github.com/meridian-lab/meridian-trading/internal/tradelog"
	"github.com/meridian-lab/meridian-trading/internal/types"
	"github.com/meridian-lab/meridian-trading/pkg/errors"
)

func buySignal(symbol string) types.Signal {
	return types.Signal{
		Symbol:     symbol,
		Direction:  types.DirectionBuy,
		Confidence: 82,
		Reason:     "ema crossover",
		Time:       time.Now(),
	}
}

func tightQuote() types.Quote {
	// One pip of spread against the default 3-pip ceiling.
	return types.Quote{Symbol: "EURUSD", Bid: 1.1000, Ask: 1.1001, Time: time.Now()}
}

// expectAdmission wires the gate and position checks up to the quote fetch.
func (s *EngineTestSuite) expectAdmission(quote types.Quote) {
	s.gate.EXPECT().CanOpenPosition(gomock.Any(), "EURUSD").Return(true, types.RejectReason(""), nil)
	s.adapter.EXPECT().GetOpenPositions(gomock.Any()).Return(nil, nil)
	s.gate.EXPECT().OpenTradeCount(gomock.Any(), "EURUSD").Return(0, nil)
	s.adapter.EXPECT().GetQuote(gomock.Any(), "EURUSD").Return(optional.Some(quote), nil)
}

func (s *EngineTestSuite) expectStopTarget(entry float64) types.StopTarget {
	target := types.StopTarget{
		StopLoss:       entry - 0.0020,
		TakeProfit:     entry + 0.0040,
		StopLossPips:   20,
		TakeProfitPips: 40,
	}
	s.strat.EXPECT().ComputeStopTarget(entry, types.DirectionBuy, 0.0001, gomock.Any()).
		Return(target, nil)

	return target
}

// lastRejection returns the reason of the most recent filter entry.
func (s *EngineTestSuite) lastRejection() string {
	entries := s.tradeLog.Entries()
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Category == tradelog.CategoryFilter {
			return entries[i].Fields["reason"]
		}
	}

	return ""
}

func (s *EngineTestSuite) TestSignalDroppedWhileSymbolLocked() {
	e := s.newRunningEngine(testEngineConfig())

	acquired, _ := e.symbols.tryAcquire("EURUSD", 0, time.Now())
	s.Require().True(acquired)

	// No mock expectations: any adapter or gate call fails the test.
	e.executeSignal(context.Background(), e.Config(), buySignal("EURUSD"))

	s.Equal(string(types.RejectReasonLocked), s.lastRejection())
	s.True(e.symbols.isLocked("EURUSD"), "the holder's lock survives the rejected signal")
}

func (s *EngineTestSuite) TestCooldownRejectsRecentTradeAndAdmitsAfterExpiry() {
	e := s.newRunningEngine(testEngineConfig())
	cfg := e.Config()
	s.Require().Equal(60*time.Second, cfg.Cooldown)

	// 30s after the last trade: inside the window, dropped before any
	// adapter interaction.
	e.symbols.recordTrade("EURUSD", time.Now().Add(-30*time.Second))
	e.executeSignal(context.Background(), cfg, buySignal("EURUSD"))
	s.Equal(string(types.RejectReasonCooldown), s.lastRejection())
	s.False(e.symbols.isLocked("EURUSD"))

	// 65s after: past the window, the pipeline reaches the risk gate.
	e.symbols.recordTrade("EURUSD", time.Now().Add(-65*time.Second))
	s.gate.EXPECT().CanOpenPosition(gomock.Any(), "EURUSD").
		Return(false, types.RejectReasonRiskBlocked, nil)
	e.executeSignal(context.Background(), cfg, buySignal("EURUSD"))
	s.Equal(string(types.RejectReasonRiskBlocked), s.lastRejection())
	s.False(e.symbols.isLocked("EURUSD"))
}

func (s *EngineTestSuite) TestNotRunningDropsSignalAfterAcquire() {
	e := s.newRunningEngine(testEngineConfig())
	e.running.Store(false)

	e.executeSignal(context.Background(), e.Config(), buySignal("EURUSD"))

	s.Equal(string(types.RejectReasonNotRunning), s.lastRejection())
	s.False(e.symbols.isLocked("EURUSD"))
}

func (s *EngineTestSuite) TestPositionExistsWhenBrokerReportsOne() {
	e := s.newRunningEngine(testEngineConfig())
	s.Require().Equal(1, e.Config().MaxTradesPerSymbol)

	s.gate.EXPECT().CanOpenPosition(gomock.Any(), "EURUSD").Return(true, types.RejectReason(""), nil)
	s.adapter.EXPECT().GetOpenPositions(gomock.Any()).Return([]types.Position{
		{ID: "pos-1", Symbol: "EURUSD", Side: types.DirectionBuy, Volume: 0.1},
		{ID: "pos-2", Symbol: "GBPUSD", Side: types.DirectionSell, Volume: 0.1},
	}, nil)
	s.gate.EXPECT().OpenTradeCount(gomock.Any(), "EURUSD").Return(0, nil)

	// PlaceOrder has no expectation: reaching it fails the test.
	e.executeSignal(context.Background(), e.Config(), buySignal("EURUSD"))

	s.Equal(string(types.RejectReasonPositionExists), s.lastRejection())
	s.False(e.symbols.isLocked("EURUSD"))
}

func (s *EngineTestSuite) TestPositionExistsWhenGateCountDisagreesWithBroker() {
	e := s.newRunningEngine(testEngineConfig())

	// The broker sees nothing yet; the gate's own count is already at the
	// cap. Either source at the cap rejects.
	s.gate.EXPECT().CanOpenPosition(gomock.Any(), "EURUSD").Return(true, types.RejectReason(""), nil)
	s.adapter.EXPECT().GetOpenPositions(gomock.Any()).Return(nil, nil)
	s.gate.EXPECT().OpenTradeCount(gomock.Any(), "EURUSD").Return(1, nil)

	e.executeSignal(context.Background(), e.Config(), buySignal("EURUSD"))

	s.Equal(string(types.RejectReasonPositionExists), s.lastRejection())
	s.False(e.symbols.isLocked("EURUSD"))
}

func (s *EngineTestSuite) TestQuoteUnavailableDropsSignal() {
	e := s.newRunningEngine(testEngineConfig())

	s.gate.EXPECT().CanOpenPosition(gomock.Any(), "EURUSD").Return(true, types.RejectReason(""), nil)
	s.adapter.EXPECT().GetOpenPositions(gomock.Any()).Return(nil, nil)
	s.gate.EXPECT().OpenTradeCount(gomock.Any(), "EURUSD").Return(0, nil)
	s.adapter.EXPECT().GetQuote(gomock.Any(), "EURUSD").Return(optional.None[types.Quote](), nil)

	e.executeSignal(context.Background(), e.Config(), buySignal("EURUSD"))

	s.Equal(string(types.RejectReasonQuoteUnavailable), s.lastRejection())
	s.False(e.symbols.isLocked("EURUSD"))
}

func (s *EngineTestSuite) TestWideSpreadDropsSignal() {
	e := s.newRunningEngine(testEngineConfig())
	s.Require().Equal(3.0, e.Config().MaxSpreadPips)

	// 5 pips of spread against the 3-pip ceiling.
	s.expectAdmission(types.Quote{Symbol: "EURUSD", Bid: 1.1000, Ask: 1.1005, Time: time.Now()})

	e.executeSignal(context.Background(), e.Config(), buySignal("EURUSD"))

	s.Equal(string(types.RejectReasonSpread), s.lastRejection())
	s.False(e.symbols.isLocked("EURUSD"))
}

func (s *EngineTestSuite) TestSizingFailureAbortsWithoutFallback() {
	e := s.newRunningEngine(testEngineConfig())
	quote := tightQuote()

	s.expectAdmission(quote)
	s.expectStopTarget(quote.Ask)
	s.gate.EXPECT().SizePosition(gomock.Any(), "EURUSD", 20.0).
		Return(0.0, errors.New(errors.ErrCodeSizingFailed, "below broker minimum"))

	// No substitute size is ever used; PlaceOrder stays unexpected.
	e.executeSignal(context.Background(), e.Config(), buySignal("EURUSD"))

	s.Equal(string(types.RejectReasonSizing), s.lastRejection())
	s.False(e.symbols.isLocked("EURUSD"))
	s.NotEmpty(e.Status().LastError)
	s.Zero(e.Status().TradesExecuted)
}

func (s *EngineTestSuite) TestFixedLotBypassesRiskSizing() {
	cfg := testEngineConfig()
	cfg.FixedLot = 0.10
	e := s.newRunningEngine(cfg)
	quote := tightQuote()

	s.strat.EXPECT().Name().Return("trend").AnyTimes()
	s.expectAdmission(quote)
	s.expectStopTarget(quote.Ask)
	s.adapter.EXPECT().PlaceOrder(gomock.Any(), gomock.Any(), cfg.MaxSpreadPips).
		DoAndReturn(func(_ context.Context, order types.OrderRequest, _ float64) (types.OrderResult, error) {
			s.Equal(0.10, order.Volume)

			return types.OrderResult{
				Success:        true,
				OrderID:        optional.Some("ord-1"),
				ExecutionPrice: optional.Some(quote.Ask),
			}, nil
		})

	e.executeSignal(context.Background(), cfg, buySignal("EURUSD"))

	s.Equal(int64(1), e.Status().TradesExecuted)
}

func (s *EngineTestSuite) TestSuccessfulTradeStartsCooldownAndReleasesLock() {
	tradeCh := make(chan types.TradeEvent, 1)
	onTrade := OnTradeCallback(func(event types.TradeEvent) error {
		tradeCh <- event

		return nil
	})

	cfg := testEngineConfig()
	e := s.newRunningEngineWithCallbacks(cfg, Callbacks{OnTrade: &onTrade})
	quote := tightQuote()

	s.strat.EXPECT().Name().Return("trend").AnyTimes()
	s.expectAdmission(quote)
	target := s.expectStopTarget(quote.Ask)
	s.gate.EXPECT().SizePosition(gomock.Any(), "EURUSD", 20.0).Return(0.5, nil)
	s.adapter.EXPECT().PlaceOrder(gomock.Any(), gomock.Any(), cfg.MaxSpreadPips).
		DoAndReturn(func(_ context.Context, order types.OrderRequest, _ float64) (types.OrderResult, error) {
			s.Require().NoError(order.Validate())
			s.Equal("EURUSD", order.Symbol)
			s.Equal(types.DirectionBuy, order.Side)
			s.Equal(0.5, order.Volume)
			s.Equal(target.StopLoss, order.StopLoss)
			s.Equal(target.TakeProfit, order.TakeProfit)
			s.Equal("trend", order.Comment)

			return types.OrderResult{
				Success:        true,
				OrderID:        optional.Some("ord-42"),
				ExecutionPrice: optional.Some(1.10012),
			}, nil
		})

	e.executeSignal(context.Background(), cfg, buySignal("EURUSD"))

	event := <-tradeCh
	s.Equal("EURUSD", event.Symbol)
	s.Equal(0.5, event.Volume)
	s.Equal(1.10012, event.ExecutionPrice)
	s.Equal("ord-42", event.OrderID)

	s.Equal(int64(1), e.Status().TradesExecuted)
	s.False(e.symbols.isLocked("EURUSD"))

	// The fill timestamp starts the cooldown window immediately.
	e.executeSignal(context.Background(), cfg, buySignal("EURUSD"))
	s.Equal(string(types.RejectReasonCooldown), s.lastRejection())
}

func (s *EngineTestSuite) TestSecondPositionAdmittedUnderCapOfTwo() {
	cfg := testEngineConfig()
	cfg.MaxTradesPerSymbol = 2
	e := s.newRunningEngine(cfg)
	quote := tightQuote()

	// One open EURUSD position on both sources: below the cap of two, so
	// the pipeline must run through to order submission.
	s.strat.EXPECT().Name().Return("trend").AnyTimes()
	s.gate.EXPECT().CanOpenPosition(gomock.Any(), "EURUSD").Return(true, types.RejectReason(""), nil)
	s.adapter.EXPECT().GetOpenPositions(gomock.Any()).Return([]types.Position{
		{ID: "pos-1", Symbol: "EURUSD", Side: types.DirectionBuy, Volume: 0.1},
	}, nil)
	s.gate.EXPECT().OpenTradeCount(gomock.Any(), "EURUSD").Return(1, nil)
	s.adapter.EXPECT().GetQuote(gomock.Any(), "EURUSD").Return(optional.Some(quote), nil)
	s.expectStopTarget(quote.Ask)
	s.gate.EXPECT().SizePosition(gomock.Any(), "EURUSD", 20.0).Return(0.5, nil)
	s.adapter.EXPECT().PlaceOrder(gomock.Any(), gomock.Any(), cfg.MaxSpreadPips).
		Return(types.OrderResult{
			Success:        true,
			OrderID:        optional.Some("ord-7"),
			ExecutionPrice: optional.Some(quote.Ask),
		}, nil)

	e.executeSignal(context.Background(), cfg, buySignal("EURUSD"))

	s.Equal(int64(1), e.Status().TradesExecuted)
	s.False(e.symbols.isLocked("EURUSD"))
}

func (s *EngineTestSuite) TestBrokerRejectionLeavesNoCooldown() {
	cfg := testEngineConfig()
	e := s.newRunningEngine(cfg)
	quote := tightQuote()

	s.strat.EXPECT().Name().Return("trend").AnyTimes()
	s.expectAdmission(quote)
	s.expectStopTarget(quote.Ask)
	s.gate.EXPECT().SizePosition(gomock.Any(), "EURUSD", 20.0).Return(0.5, nil)
	s.adapter.EXPECT().PlaceOrder(gomock.Any(), gomock.Any(), cfg.MaxSpreadPips).
		Return(types.OrderResult{
			Success:      false,
			ErrorMessage: optional.Some("insufficient margin"),
		}, nil)

	e.executeSignal(context.Background(), cfg, buySignal("EURUSD"))

	s.Zero(e.Status().TradesExecuted)
	s.False(e.symbols.isLocked("EURUSD"))
	s.Contains(e.Status().LastError, "order rejected: insufficient margin")

	// The rejected submission left no trade timestamp, so the next signal
	// passes the cooldown gate and reaches the risk check again.
	s.gate.EXPECT().CanOpenPosition(gomock.Any(), "EURUSD").
		Return(false, types.RejectReasonRiskBlocked, nil)
	e.executeSignal(context.Background(), cfg, buySignal("EURUSD"))
	s.Equal(string(types.RejectReasonRiskBlocked), s.lastRejection())
}

func (s *EngineTestSuite) TestLockReleasedWhenAdapterFailsMidPipeline() {
	e := s.newRunningEngine(testEngineConfig())

	s.gate.EXPECT().CanOpenPosition(gomock.Any(), "EURUSD").Return(true, types.RejectReason(""), nil)
	s.adapter.EXPECT().GetOpenPositions(gomock.Any()).
		Return(nil, errors.New(errors.ErrCodeNotConnected, "session dropped"))

	e.executeSignal(context.Background(), e.Config(), buySignal("EURUSD"))

	s.False(e.symbols.isLocked("EURUSD"), "deferred release runs on the error path")
	s.NotEmpty(e.Status().LastError)
}

func (s *EngineTestSuite) TestConcurrentSignalsPlaceExactlyOneOrder() {
	cfg := testEngineConfig()
	e := s.newRunningEngine(cfg)
	quote := tightQuote()

	s.strat.EXPECT().Name().Return("trend").AnyTimes()
	s.gate.EXPECT().CanOpenPosition(gomock.Any(), "EURUSD").
		Return(true, types.RejectReason(""), nil).AnyTimes()
	s.adapter.EXPECT().GetOpenPositions(gomock.Any()).Return(nil, nil).AnyTimes()
	s.gate.EXPECT().OpenTradeCount(gomock.Any(), "EURUSD").Return(0, nil).AnyTimes()
	s.adapter.EXPECT().GetQuote(gomock.Any(), "EURUSD").
		Return(optional.Some(quote), nil).AnyTimes()
	s.strat.EXPECT().ComputeStopTarget(quote.Ask, types.DirectionBuy, 0.0001, gomock.Any()).
		Return(types.StopTarget{StopLoss: 1.0981, TakeProfit: 1.1041, StopLossPips: 20, TakeProfitPips: 40}, nil).
		AnyTimes()
	s.gate.EXPECT().SizePosition(gomock.Any(), "EURUSD", 20.0).Return(0.5, nil).AnyTimes()

	// Exactly one submission may happen; it dwells long enough that the
	// second signal arrives while the lock is held.
	s.adapter.EXPECT().PlaceOrder(gomock.Any(), gomock.Any(), cfg.MaxSpreadPips).
		DoAndReturn(func(context.Context, types.OrderRequest, float64) (types.OrderResult, error) {
			time.Sleep(100 * time.Millisecond)

			return types.OrderResult{
				Success:        true,
				OrderID:        optional.Some("ord-1"),
				ExecutionPrice: optional.Some(quote.Ask),
			}, nil
		}).Times(1)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		e.executeSignal(context.Background(), cfg, buySignal("EURUSD"))
	}()
	time.Sleep(20 * time.Millisecond)
	go func() {
		defer wg.Done()
		e.executeSignal(context.Background(), cfg, buySignal("EURUSD"))
	}()
	wg.Wait()

	s.Equal(int64(1), e.Status().TradesExecuted)
	s.False(e.symbols.isLocked("EURUSD"))
}
