package engine

import (
	"context"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/meridian-lab/meridian-trading/internal/logger"
	"github.com/meridian-lab/meridian-trading/internal/risk"
	"github.com/meridian-lab/meridian-trading/internal/strategy"
	"github.com/meridian-lab/meridian-trading/internal/tradelog"
	"github.com/meridian-lab/meridian-trading/internal/types"
	"github.com/meridian-lab/meridian-trading/mocks"
	"github.com/meridian-lab/meridian-trading/pkg/errors"
)

type EngineTestSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	adapter  *mocks.MockTradingAdapter
	gate     *mocks.MockGate
	strat    *mocks.MockStrategy
	tradeLog *tradelog.MemoryTradeLog
}

func TestEngineTestSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func (s *EngineTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.adapter = mocks.NewMockTradingAdapter(s.ctrl)
	s.gate = mocks.NewMockGate(s.ctrl)
	s.strat = mocks.NewMockStrategy(s.ctrl)
	s.tradeLog = tradelog.NewMemoryTradeLog(logger.NewTestLogger())
}

func (s *EngineTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

// testEngineConfig returns a valid configuration with scheduler intervals
// long enough that only the immediate analysis cycle ever fires in a test.
func testEngineConfig(symbols ...string) Config {
	if len(symbols) == 0 {
		symbols = []string{"EURUSD"}
	}

	cfg := DefaultConfig()
	cfg.OwnerID = "owner-1"
	cfg.BotID = "bot-1"
	cfg.Symbols = symbols
	cfg.AnalysisInterval = time.Hour
	cfg.RefreshInterval = time.Hour
	cfg.TrailingInterval = time.Hour
	cfg.Strategy = strategy.Config{
		Timeframes: []types.Timeframe{types.TimeframeM15},
		MinCandles: 30,
	}

	return cfg
}

func testSpecs(symbol string) types.SymbolSpecs {
	return types.SymbolSpecs{
		Symbol:        symbol,
		MinVolume:     0.01,
		MaxVolume:     100,
		StepVolume:    0.01,
		PipSize:       0.0001,
		PipValue:      10,
		QuoteCurrency: "USD",
	}
}

// seriesCandles builds n ascending M15 bars ending near now.
func seriesCandles(n int) []types.Candle {
	start := time.Now().Add(-time.Duration(n) * 15 * time.Minute).Truncate(time.Minute)
	candles := make([]types.Candle, 0, n)
	for i := 0; i < n; i++ {
		price := 1.1000 + float64(i)*0.0001
		candles = append(candles, types.Candle{
			Timestamp: start.Add(time.Duration(i) * 15 * time.Minute),
			Open:      price,
			High:      price + 0.0005,
			Low:       price - 0.0005,
			Close:     price + 0.0002,
			Volume:    1000,
		})
	}

	return candles
}

// newEngine builds an engine wired to the suite's mocks, with the strategy
// factory bypassed and the warm-up backoff schedule compressed.
func (s *EngineTestSuite) newEngine(cfg Config, callbacks Callbacks) *Engine {
	e, err := New(cfg, s.adapter, s.gate, logger.NewTestLogger(), s.tradeLog, callbacks)
	s.Require().NoError(err)

	e.newStrategy = func(strategy.Type, strategy.Config, *logger.Logger) (strategy.Strategy, error) {
		return s.strat, nil
	}
	e.delays = backoffDelays{
		interRequest: time.Millisecond,
		interSymbol:  time.Millisecond,
		retry:        time.Millisecond,
		rateLimit:    5 * time.Millisecond,
	}

	return e
}

// newRunningEngine builds an engine suitable for direct pipeline-level
// calls: strategy and specs injected, running flag set, no schedulers.
func (s *EngineTestSuite) newRunningEngine(cfg Config) *Engine {
	return s.newRunningEngineWithCallbacks(cfg, Callbacks{})
}

func (s *EngineTestSuite) newRunningEngineWithCallbacks(cfg Config, callbacks Callbacks) *Engine {
	e := s.newEngine(cfg, callbacks)
	e.strat = s.strat
	e.specs = make(map[string]types.SymbolSpecs, len(cfg.Symbols))
	for _, symbol := range cfg.Symbols {
		e.specs[symbol] = testSpecs(symbol)
	}
	e.running.Store(true)

	return e
}

// expectStart wires the happy-path start sequence for cfg. The immediate
// analysis cycle is absorbed by AnyTimes expectations producing no signal.
func (s *EngineTestSuite) expectStart(cfg Config, warmupCandles int) {
	target := cfg.Strategy.MinCandles + warmupMargin

	s.adapter.EXPECT().IsConnected().Return(true)
	s.adapter.EXPECT().BindOwnerContext(cfg.OwnerID, cfg.BotID).Return(nil)
	s.adapter.EXPECT().ReconcilePositions(gomock.Any()).Return(0, nil)
	for _, symbol := range cfg.Symbols {
		s.adapter.EXPECT().GetSymbolSpecs(gomock.Any(), symbol).Return(testSpecs(symbol), nil)
		s.adapter.EXPECT().GetCandleHistory(gomock.Any(), symbol, types.TimeframeM15, target).
			Return(seriesCandles(warmupCandles), nil)
		s.adapter.EXPECT().SubscribePrice(gomock.Any(), symbol, gomock.Any()).Return(nil)
	}
	s.gate.EXPECT().Initialize(gomock.Any(), cfg.Symbols).Return(nil)
	s.gate.EXPECT().Snapshot(gomock.Any()).
		Return(risk.State{OpenTrades: 0, MaxOpenTrades: cfg.Risk.MaxOpenTrades}, nil).AnyTimes()
	s.strat.EXPECT().Name().Return("trend").AnyTimes()
	s.strat.EXPECT().Config().Return(cfg.Strategy).AnyTimes()
	s.strat.EXPECT().AnalyzeSignal(gomock.Any()).
		Return(types.Signal{Direction: types.DirectionNone}, nil).AnyTimes()
}

func (s *EngineTestSuite) expectStop(cfg Config) {
	for _, symbol := range cfg.Symbols {
		s.adapter.EXPECT().UnsubscribePrice(symbol).Return(nil)
	}
}

func (s *EngineTestSuite) TestStartStopLifecycle() {
	cfg := testEngineConfig()

	startedCh := make(chan types.EngineStatus, 1)
	stoppedCh := make(chan types.EngineStatus, 1)
	onStarted := OnStartedCallback(func(status types.EngineStatus) error {
		startedCh <- status

		return nil
	})
	onStopped := OnStoppedCallback(func(status types.EngineStatus) error {
		stoppedCh <- status

		return nil
	})

	e := s.newEngine(cfg, Callbacks{OnStarted: &onStarted, OnStopped: &onStopped})

	s.expectStart(cfg, 80)
	s.Require().NoError(e.Start(context.Background()))

	started := <-startedCh
	s.Equal(types.EngineStateRunning, started.State)

	status := e.Status()
	s.Equal(types.EngineStateRunning, status.State)
	s.Equal("trend", status.StrategyName)
	s.Equal([]string{"EURUSD"}, status.Symbols)
	s.Empty(status.WarmupFailed)
	s.Equal(80, e.cache.Len("EURUSD", types.TimeframeM15))

	s.expectStop(cfg)
	s.Require().NoError(e.Stop())

	stopped := <-stoppedCh
	s.Equal(types.EngineStateStopped, stopped.State)
	s.Equal(types.EngineStateStopped, e.Status().State)
	s.Zero(e.cache.Len("EURUSD", types.TimeframeM15), "candle buffers are discarded on stop")
}

func (s *EngineTestSuite) TestStartIsIdempotent() {
	cfg := testEngineConfig()
	e := s.newEngine(cfg, Callbacks{})

	// Expectations are Times(1): a second Start while running must not
	// touch the adapter again.
	s.expectStart(cfg, 80)
	s.Require().NoError(e.Start(context.Background()))
	s.Require().NoError(e.Start(context.Background()))

	s.expectStop(cfg)
	s.Require().NoError(e.Stop())
}

func (s *EngineTestSuite) TestStopIsIdempotent() {
	e := s.newEngine(testEngineConfig(), Callbacks{})

	// Never started: no adapter interaction at all.
	s.Require().NoError(e.Stop())
	s.Require().NoError(e.Stop())
	s.Equal(types.EngineStateStopped, e.Status().State)
}

func (s *EngineTestSuite) TestStartAbortsWhenAdapterDisconnected() {
	e := s.newEngine(testEngineConfig(), Callbacks{})

	s.adapter.EXPECT().IsConnected().Return(false)

	err := e.Start(context.Background())
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeStartAborted))
	s.True(errors.HasCode(err, errors.ErrCodeNotConnected))

	status := e.Status()
	s.Equal(types.EngineStateStopped, status.State)
	s.NotEmpty(status.LastError)
	s.False(e.running.Load())
}

func (s *EngineTestSuite) TestStartAbortsWhenGateInitFails() {
	cfg := testEngineConfig()
	e := s.newEngine(cfg, Callbacks{})

	s.adapter.EXPECT().IsConnected().Return(true)
	s.adapter.EXPECT().BindOwnerContext(cfg.OwnerID, cfg.BotID).Return(nil)
	s.adapter.EXPECT().ReconcilePositions(gomock.Any()).Return(0, nil)
	s.adapter.EXPECT().GetSymbolSpecs(gomock.Any(), "EURUSD").Return(testSpecs("EURUSD"), nil)
	s.gate.EXPECT().Initialize(gomock.Any(), cfg.Symbols).
		Return(errors.New(errors.ErrCodeRiskInitFailed, "no account data"))

	err := e.Start(context.Background())
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeStartAborted))
	s.True(errors.HasCode(err, errors.ErrCodeRiskInitFailed))
	s.Equal(types.EngineStateStopped, e.Status().State)
}

func (s *EngineTestSuite) TestStartRollsBackSubscriptionsOnFailure() {
	cfg := testEngineConfig("EURUSD", "GBPUSD")
	e := s.newEngine(cfg, Callbacks{})

	s.adapter.EXPECT().IsConnected().Return(true)
	s.adapter.EXPECT().BindOwnerContext(cfg.OwnerID, cfg.BotID).Return(nil)
	s.adapter.EXPECT().ReconcilePositions(gomock.Any()).Return(0, nil)
	s.adapter.EXPECT().GetSymbolSpecs(gomock.Any(), gomock.Any()).
		Return(testSpecs("EURUSD"), nil).Times(2)
	s.gate.EXPECT().Initialize(gomock.Any(), cfg.Symbols).Return(nil)
	s.adapter.EXPECT().GetCandleHistory(gomock.Any(), gomock.Any(), types.TimeframeM15, 80).
		Return(seriesCandles(80), nil).Times(2)
	s.adapter.EXPECT().SubscribePrice(gomock.Any(), "EURUSD", gomock.Any()).Return(nil)
	s.adapter.EXPECT().SubscribePrice(gomock.Any(), "GBPUSD", gomock.Any()).
		Return(errors.New(errors.ErrCodeSubscriptionFailed, "stream refused"))
	// The already-established feed is torn down before the abort returns.
	s.adapter.EXPECT().UnsubscribePrice("EURUSD").Return(nil)

	err := e.Start(context.Background())
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeStartAborted))
	s.False(e.running.Load())
}

func (s *EngineTestSuite) TestReloadWhileStoppedOnlySwapsConfig() {
	e := s.newEngine(testEngineConfig(), Callbacks{})

	patch := ConfigPatch{Cooldown: optional.Some(30 * time.Second)}
	s.Require().NoError(e.Reload(context.Background(), patch))

	s.Equal(30*time.Second, e.Config().Cooldown)
	s.Equal(types.EngineStateStopped, e.Status().State)
}

func (s *EngineTestSuite) TestReloadRejectsInvalidPatchUntouched() {
	cfg := testEngineConfig()
	e := s.newEngine(cfg, Callbacks{})

	patch := ConfigPatch{MaxSpreadPips: optional.Some(-1.0)}
	err := e.Reload(context.Background(), patch)
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
	s.Equal(cfg.MaxSpreadPips, e.Config().MaxSpreadPips, "failed reload leaves the snapshot untouched")
}

func (s *EngineTestSuite) TestReloadPreservesBuffersWhenSymbolsUnchanged() {
	cfg := testEngineConfig()
	e := s.newEngine(cfg, Callbacks{})

	s.expectStart(cfg, 80)
	s.Require().NoError(e.Start(context.Background()))
	s.Require().Equal(80, e.cache.Len("EURUSD", types.TimeframeM15))

	// Restart sequence inside Reload; warm-up finds nothing this time, so
	// any surviving candles can only come from the preserved buffers.
	s.expectStop(cfg)
	next := cfg
	next.Cooldown = 45 * time.Second
	s.expectStart(next, 0)

	patch := ConfigPatch{Cooldown: optional.Some(45 * time.Second)}
	s.Require().NoError(e.Reload(context.Background(), patch))

	s.Equal(45*time.Second, e.Config().Cooldown)
	s.Equal(types.EngineStateRunning, e.Status().State)
	s.Equal(80, e.cache.Len("EURUSD", types.TimeframeM15), "same symbol set keeps warm buffers")

	s.expectStop(next)
	s.Require().NoError(e.Stop())
}

func (s *EngineTestSuite) TestReloadResetsBuffersWhenSymbolsChange() {
	cfg := testEngineConfig()
	e := s.newEngine(cfg, Callbacks{})

	s.expectStart(cfg, 80)
	s.Require().NoError(e.Start(context.Background()))

	s.expectStop(cfg)
	next := testEngineConfig("GBPUSD")
	s.expectStart(next, 40)

	patch := ConfigPatch{Symbols: optional.Some([]string{"GBPUSD"})}
	s.Require().NoError(e.Reload(context.Background(), patch))

	s.Zero(e.cache.Len("EURUSD", types.TimeframeM15), "old symbol buffers are discarded")
	s.Equal(40, e.cache.Len("GBPUSD", types.TimeframeM15))
	s.Equal([]string{"GBPUSD"}, e.Config().Symbols)

	s.expectStop(next)
	s.Require().NoError(e.Stop())
}

func (s *EngineTestSuite) TestConfigPatchExplicitZeroIsApplied() {
	cfg := testEngineConfig()
	s.Equal(60*time.Second, cfg.Cooldown)

	// Some(0) must win over the current value; None must keep it.
	applied := ConfigPatch{Cooldown: optional.Some(time.Duration(0))}.Apply(cfg)
	s.Zero(applied.Cooldown)

	kept := ConfigPatch{MaxSpreadPips: optional.Some(5.0)}.Apply(cfg)
	s.Equal(60*time.Second, kept.Cooldown)
	s.Equal(5.0, kept.MaxSpreadPips)
}

func (s *EngineTestSuite) TestSymbolsEqualIsOrderInsensitive() {
	a := testEngineConfig("EURUSD", "GBPUSD")
	b := testEngineConfig("GBPUSD", "EURUSD")
	c := testEngineConfig("GBPUSD", "USDJPY")

	s.True(a.SymbolsEqual(b))
	s.False(a.SymbolsEqual(c))
	s.False(a.SymbolsEqual(testEngineConfig("EURUSD")))
}

func (s *EngineTestSuite) TestOnTickUpdatesCountersAndStatus() {
	e := s.newRunningEngine(testEngineConfig())

	tick := types.Tick{Symbol: "EURUSD", Bid: 1.1000, Ask: 1.1001, Time: time.Now()}
	e.onTick(tick)
	e.onTick(types.Tick{Symbol: "EURUSD", Bid: 1.1002, Ask: 1.1003, Time: tick.Time.Add(time.Second)})

	status := e.Status()
	s.Equal(int64(2), status.TicksProcessed)
	s.Require().NotNil(status.LastTick)
	s.Equal(1.1002, status.LastTick.Bid)
	s.Equal(2, status.TickPerf.Count)
}

func (s *EngineTestSuite) TestLateTicksAfterStopAreDropped() {
	e := s.newRunningEngine(testEngineConfig())
	e.running.Store(false)

	e.onTick(types.Tick{Symbol: "EURUSD", Bid: 1.1000, Ask: 1.1001, Time: time.Now()})

	status := e.Status()
	s.Zero(status.TicksProcessed)
	s.Nil(status.LastTick)
}

func (s *EngineTestSuite) TestNewRejectsInvalidConfig() {
	cfg := testEngineConfig()
	cfg.Symbols = nil

	_, err := New(cfg, s.adapter, s.gate, logger.NewTestLogger(), s.tradeLog, Callbacks{})
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}
