package engine

import (
	"context"
	"fmt"

	"go.uber.org/mock/gomock"

	"github.com/meridian-lab/meridian-trading/internal/risk"
	"github.com/meridian-lab/meridian-trading/internal/types"
	"github.com/meridian-lab/meridian-trading/mocks"
	"github.com/meridian-lab/meridian-trading/pkg/errors"
)

// capabilityStrategy layers the optional per-symbol and multi-timeframe
// capabilities over the mocked strategy, recording the order the engine
// drives them in.
type capabilityStrategy struct {
	*mocks.MockStrategy

	calls []string
}

func (c *capabilityStrategy) SetActiveSymbol(symbol string) {
	c.calls = append(c.calls, "scope "+symbol)
}

func (c *capabilityStrategy) IngestTimeframeData(timeframe types.Timeframe, candles []types.Candle) {
	c.calls = append(c.calls, fmt.Sprintf("ingest %s %d", timeframe, len(candles)))
}

func (c *capabilityStrategy) AnalyzeSignal(data types.MultiTimeframeData) (types.Signal, error) {
	c.calls = append(c.calls, "analyze")

	return c.MockStrategy.AnalyzeSignal(data)
}

func (s *EngineTestSuite) TestAnalysisCycleSkipsSymbolsWithInsufficientData() {
	analysisCh := make(chan types.AnalysisEvent, 1)
	onAnalysis := OnAnalysisCallback(func(event types.AnalysisEvent) error {
		analysisCh <- event

		return nil
	})

	cfg := testEngineConfig()
	e := s.newRunningEngineWithCallbacks(cfg, Callbacks{OnAnalysis: &onAnalysis})
	e.cache.Upsert("EURUSD", types.TimeframeM15, seriesCandles(10))

	s.gate.EXPECT().Snapshot(gomock.Any()).
		Return(risk.State{OpenTrades: 0, MaxOpenTrades: 3}, nil)
	s.strat.EXPECT().Config().Return(cfg.Strategy)

	// AnalyzeSignal is never expected: 10 buffered candles stay below the
	// strategy's 30-candle minimum.
	e.runAnalysisCycle(context.Background())

	event := <-analysisCh
	s.Zero(event.SymbolsAnalyzed)
	s.Equal(1, event.SymbolsSkipped)
	s.Equal(int64(1), e.Status().AnalysisCycles)
}

func (s *EngineTestSuite) TestAnalysisCycleBlockedByGlobalAdmission() {
	cfg := testEngineConfig()
	e := s.newRunningEngine(cfg)
	e.cache.Upsert("EURUSD", types.TimeframeM15, seriesCandles(80))

	s.gate.EXPECT().Snapshot(gomock.Any()).
		Return(risk.State{OpenTrades: 3, MaxOpenTrades: 3}, nil)

	// The whole cycle is skipped: no strategy call, no counted cycle.
	e.runAnalysisCycle(context.Background())

	s.Zero(e.Status().AnalysisCycles)
	s.Equal(int64(1), e.blockedCycles.Load())
}

func (s *EngineTestSuite) TestAnalysisCycleResetsBlockedCounterOnceAdmitted() {
	cfg := testEngineConfig()
	e := s.newRunningEngine(cfg)
	e.cache.Upsert("EURUSD", types.TimeframeM15, seriesCandles(80))
	e.blockedCycles.Store(7)

	s.gate.EXPECT().Snapshot(gomock.Any()).
		Return(risk.State{OpenTrades: 1, MaxOpenTrades: 3}, nil)
	s.strat.EXPECT().Config().Return(cfg.Strategy)
	s.strat.EXPECT().AnalyzeSignal(gomock.Any()).
		Return(types.Signal{Direction: types.DirectionNone}, nil)

	e.runAnalysisCycle(context.Background())

	s.Zero(e.blockedCycles.Load())
	s.Equal(int64(1), e.Status().AnalysisCycles)
}

func (s *EngineTestSuite) TestAnalysisCycleExecutesQualifyingSignal() {
	cfg := testEngineConfig()
	e := s.newRunningEngine(cfg)
	e.cache.Upsert("EURUSD", types.TimeframeM15, seriesCandles(80))

	s.gate.EXPECT().Snapshot(gomock.Any()).
		Return(risk.State{OpenTrades: 0, MaxOpenTrades: 3}, nil)
	s.strat.EXPECT().Config().Return(cfg.Strategy)
	s.strat.EXPECT().AnalyzeSignal(gomock.Any()).
		DoAndReturn(func(data types.MultiTimeframeData) (types.Signal, error) {
			s.Len(data.Candles[types.TimeframeM15], 80)

			return types.Signal{
				Direction:  types.DirectionBuy,
				Confidence: 85,
				Reason:     "ema crossover",
			}, nil
		})
	// The qualifying signal enters the execution pipeline; ending it at the
	// risk gate keeps the test focused on the hand-off.
	s.gate.EXPECT().CanOpenPosition(gomock.Any(), "EURUSD").
		Return(false, types.RejectReasonRiskBlocked, nil)

	e.runAnalysisCycle(context.Background())

	status := e.Status()
	s.Equal(int64(1), status.SignalsDetected)
	s.Require().NotNil(status.LastSignal)
	s.Equal("EURUSD", status.LastSignal.Symbol)
	s.Equal(types.DirectionBuy, status.LastSignal.Direction)
}

func (s *EngineTestSuite) TestAnalysisCycleIgnoresLowConfidenceSignal() {
	cfg := testEngineConfig()
	s.Require().Equal(70.0, cfg.ConfidenceThreshold)
	e := s.newRunningEngine(cfg)
	e.cache.Upsert("EURUSD", types.TimeframeM15, seriesCandles(80))

	s.gate.EXPECT().Snapshot(gomock.Any()).
		Return(risk.State{OpenTrades: 0, MaxOpenTrades: 3}, nil)
	s.strat.EXPECT().Config().Return(cfg.Strategy)
	s.strat.EXPECT().AnalyzeSignal(gomock.Any()).
		Return(types.Signal{Direction: types.DirectionBuy, Confidence: 55, Reason: "weak setup"}, nil)

	// Below the threshold nothing reaches the gate or the adapter.
	e.runAnalysisCycle(context.Background())

	status := e.Status()
	s.Zero(status.SignalsDetected)
	s.Require().NotNil(status.LastSignal, "even sub-threshold signals are recorded for status")
	s.Equal(55.0, status.LastSignal.Confidence)
}

func (s *EngineTestSuite) TestAnalysisCycleSurvivesStrategyError() {
	cfg := testEngineConfig()
	e := s.newRunningEngine(cfg)
	e.cache.Upsert("EURUSD", types.TimeframeM15, seriesCandles(80))

	s.gate.EXPECT().Snapshot(gomock.Any()).
		Return(risk.State{OpenTrades: 0, MaxOpenTrades: 3}, nil)
	s.strat.EXPECT().Config().Return(cfg.Strategy)
	s.strat.EXPECT().AnalyzeSignal(gomock.Any()).
		Return(types.Signal{}, errors.New(errors.ErrCodeStrategyFailed, "indicator window empty"))

	e.runAnalysisCycle(context.Background())

	status := e.Status()
	s.Equal(int64(1), status.AnalysisCycles, "a failed symbol does not abort the cycle")
	s.NotEmpty(status.LastError)
	s.Zero(status.SignalsDetected)
}

func (s *EngineTestSuite) TestAnalysisCycleAttachesLiveSpread() {
	cfg := testEngineConfig()
	e := s.newRunningEngine(cfg)
	e.cache.Upsert("EURUSD", types.TimeframeM15, seriesCandles(80))
	e.symbols.recordTick(types.Tick{Symbol: "EURUSD", Bid: 1.1000, Ask: 1.1002})

	s.gate.EXPECT().Snapshot(gomock.Any()).
		Return(risk.State{OpenTrades: 0, MaxOpenTrades: 3}, nil)
	s.strat.EXPECT().Config().Return(cfg.Strategy)
	s.strat.EXPECT().AnalyzeSignal(gomock.Any()).
		DoAndReturn(func(data types.MultiTimeframeData) (types.Signal, error) {
			s.InDelta(2.0, data.SpreadPips, 1e-9)

			return types.Signal{Direction: types.DirectionNone}, nil
		})

	e.runAnalysisCycle(context.Background())
}

func (s *EngineTestSuite) TestAnalysisCycleDrivesStrategyCapabilities() {
	cfg := testEngineConfig()
	e := s.newRunningEngine(cfg)
	wrapped := &capabilityStrategy{MockStrategy: s.strat}
	e.strat = wrapped
	e.cache.Upsert("EURUSD", types.TimeframeM15, seriesCandles(80))

	s.gate.EXPECT().Snapshot(gomock.Any()).
		Return(risk.State{OpenTrades: 0, MaxOpenTrades: 3}, nil)
	s.strat.EXPECT().Config().Return(cfg.Strategy)
	s.strat.EXPECT().AnalyzeSignal(gomock.Any()).
		Return(types.Signal{Direction: types.DirectionNone}, nil)

	e.runAnalysisCycle(context.Background())

	// The active symbol is scoped and every configured timeframe ingested
	// before analysis runs.
	s.Equal([]string{
		"scope EURUSD",
		fmt.Sprintf("ingest %s 80", types.TimeframeM15),
		"analyze",
	}, wrapped.calls)
}

func (s *EngineTestSuite) TestAnalysisCycleNoOpWhenStopped() {
	e := s.newRunningEngine(testEngineConfig())
	e.running.Store(false)

	// No expectations: a stopped engine analyzes nothing.
	e.runAnalysisCycle(context.Background())

	s.Zero(e.Status().AnalysisCycles)
}
