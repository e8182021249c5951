package engine

import (
	"context"

	"github.com/moznion/go-optional"
	"go.uber.org/mock/gomock"

	"github.com/meridian-lab/meridian-trading/internal/strategy"
	"github.com/meridian-lab/meridian-trading/internal/types"
	"github.com/meridian-lab/meridian-trading/pkg/errors"
)

func trailingStrategyConfig(enabled bool) strategy.Config {
	cfg := strategy.Config{
		Timeframes:      []types.Timeframe{types.TimeframeM15},
		MinCandles:      30,
		TrailingEnabled: enabled,
	}

	return cfg
}

func longPosition() types.Position {
	return types.Position{
		ID:         "pos-1",
		Symbol:     "EURUSD",
		Side:       types.DirectionBuy,
		Volume:     0.5,
		EntryPrice: 1.1000,
		StopLoss:   1.0980,
	}
}

func (s *EngineTestSuite) TestTrailingSweepMovesStopForLongUsingBid() {
	e := s.newRunningEngine(testEngineConfig())

	s.strat.EXPECT().Config().Return(trailingStrategyConfig(true))
	s.adapter.EXPECT().GetOpenPositions(gomock.Any()).Return([]types.Position{longPosition()}, nil)
	s.adapter.EXPECT().GetQuote(gomock.Any(), "EURUSD").
		Return(optional.Some(types.Quote{Symbol: "EURUSD", Bid: 1.1030, Ask: 1.1032}), nil)
	// A long exits at the bid, so the bid drives the trailing math.
	s.strat.EXPECT().ComputeTrailingStop(1.1000, 1.1030, 1.0980, types.DirectionBuy, 0.0001).
		Return(types.TrailingDecision{ShouldUpdate: true, NewStopLoss: 1.1020, ProfitPips: 30}, nil)
	s.adapter.EXPECT().ModifyPosition(gomock.Any(), types.PositionModify{
		PositionID: "pos-1",
		StopLoss:   1.1020,
	}).Return(true, nil)

	e.runTrailingSweep(context.Background())
}

func (s *EngineTestSuite) TestTrailingSweepUsesAskForShort() {
	e := s.newRunningEngine(testEngineConfig())

	short := types.Position{
		ID:         "pos-2",
		Symbol:     "EURUSD",
		Side:       types.DirectionSell,
		Volume:     0.5,
		EntryPrice: 1.1000,
		StopLoss:   1.1020,
	}

	s.strat.EXPECT().Config().Return(trailingStrategyConfig(true))
	s.adapter.EXPECT().GetOpenPositions(gomock.Any()).Return([]types.Position{short}, nil)
	s.adapter.EXPECT().GetQuote(gomock.Any(), "EURUSD").
		Return(optional.Some(types.Quote{Symbol: "EURUSD", Bid: 1.0968, Ask: 1.0970}), nil)
	s.strat.EXPECT().ComputeTrailingStop(1.1000, 1.0970, 1.1020, types.DirectionSell, 0.0001).
		Return(types.TrailingDecision{ShouldUpdate: false}, nil)

	e.runTrailingSweep(context.Background())
}

func (s *EngineTestSuite) TestTrailingSweepDisabledByStrategyConfig() {
	e := s.newRunningEngine(testEngineConfig())

	// Trailing disabled: the sweep ends before touching the adapter.
	s.strat.EXPECT().Config().Return(trailingStrategyConfig(false))

	e.runTrailingSweep(context.Background())
}

func (s *EngineTestSuite) TestTrailingSweepIgnoresUnmonitoredSymbols() {
	e := s.newRunningEngine(testEngineConfig())

	other := longPosition()
	other.ID = "pos-9"
	other.Symbol = "USDJPY"

	s.strat.EXPECT().Config().Return(trailingStrategyConfig(true))
	s.adapter.EXPECT().GetOpenPositions(gomock.Any()).Return([]types.Position{other}, nil)

	// USDJPY is not in the configured symbol set; no quote is fetched.
	e.runTrailingSweep(context.Background())
}

func (s *EngineTestSuite) TestTrailingSweepSwallowsQuoteFailures() {
	e := s.newRunningEngine(testEngineConfig())

	s.strat.EXPECT().Config().Return(trailingStrategyConfig(true))
	s.adapter.EXPECT().GetOpenPositions(gomock.Any()).Return([]types.Position{longPosition()}, nil)
	s.adapter.EXPECT().GetQuote(gomock.Any(), "EURUSD").
		Return(optional.None[types.Quote](), errors.New(errors.ErrCodeQuoteUnavailable, "stream stale"))

	// The failure is swallowed; the engine keeps running.
	e.runTrailingSweep(context.Background())
	s.True(e.running.Load())
}

func (s *EngineTestSuite) TestTrailingSweepKeepsStopWhenDecisionSaysHold() {
	e := s.newRunningEngine(testEngineConfig())

	s.strat.EXPECT().Config().Return(trailingStrategyConfig(true))
	s.adapter.EXPECT().GetOpenPositions(gomock.Any()).Return([]types.Position{longPosition()}, nil)
	s.adapter.EXPECT().GetQuote(gomock.Any(), "EURUSD").
		Return(optional.Some(types.Quote{Symbol: "EURUSD", Bid: 1.1005, Ask: 1.1007}), nil)
	s.strat.EXPECT().ComputeTrailingStop(1.1000, 1.1005, 1.0980, types.DirectionBuy, 0.0001).
		Return(types.TrailingDecision{ShouldUpdate: false, ProfitPips: 5}, nil)

	// No ModifyPosition expectation: the stop stays where it is.
	e.runTrailingSweep(context.Background())
}
