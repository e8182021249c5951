package engine

import (
	"context"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/meridian-lab/meridian-trading/internal/types"
	"github.com/meridian-lab/meridian-trading/pkg/errors"
)

func (s *EngineTestSuite) TestRefreshSweepMergesRecentCandles() {
	cfg := testEngineConfig()
	e := s.newRunningEngine(cfg)

	warm := seriesCandles(80)
	e.cache.Upsert("EURUSD", types.TimeframeM15, warm)

	// The refresh window overlaps the tail of the warm buffer: re-delivered
	// bars replace in place, only genuinely new ones grow the series.
	last := warm[len(warm)-1]
	fresh := []types.Candle{
		last,
		{
			Timestamp: last.Timestamp.Add(15 * time.Minute),
			Open:      last.Close,
			High:      last.Close + 0.0005,
			Low:       last.Close - 0.0005,
			Close:     last.Close + 0.0001,
			Volume:    900,
		},
	}

	s.strat.EXPECT().Config().Return(cfg.Strategy)
	s.adapter.EXPECT().GetCandleHistory(gomock.Any(), "EURUSD", types.TimeframeM15, refreshFetchCount).
		Return(fresh, nil)

	e.runRefreshSweep(context.Background())

	s.Equal(81, e.cache.Len("EURUSD", types.TimeframeM15))
}

func (s *EngineTestSuite) TestRefreshSweepContinuesPastFetchFailure() {
	cfg := testEngineConfig("EURUSD", "GBPUSD")
	e := s.newRunningEngine(cfg)

	s.strat.EXPECT().Config().Return(cfg.Strategy)
	s.adapter.EXPECT().GetCandleHistory(gomock.Any(), "EURUSD", types.TimeframeM15, refreshFetchCount).
		Return(nil, errors.New(errors.ErrCodeDataUnavailable, "timeout"))
	s.adapter.EXPECT().GetCandleHistory(gomock.Any(), "GBPUSD", types.TimeframeM15, refreshFetchCount).
		Return(seriesCandles(50), nil)

	e.runRefreshSweep(context.Background())

	s.Zero(e.cache.Len("EURUSD", types.TimeframeM15))
	s.Equal(50, e.cache.Len("GBPUSD", types.TimeframeM15))
	s.NotEmpty(e.Status().LastError)
}

func (s *EngineTestSuite) TestRefreshSweepStopsPromptlyWhenEngineStops() {
	cfg := testEngineConfig("EURUSD", "GBPUSD")
	e := s.newRunningEngine(cfg)

	s.strat.EXPECT().Config().Return(cfg.Strategy)
	s.adapter.EXPECT().GetCandleHistory(gomock.Any(), "EURUSD", types.TimeframeM15, refreshFetchCount).
		DoAndReturn(func(context.Context, string, types.Timeframe, int) ([]types.Candle, error) {
			e.running.Store(false)

			return seriesCandles(50), nil
		})

	// GBPUSD is never fetched: the running flag is re-checked per symbol.
	e.runRefreshSweep(context.Background())

	s.Equal(50, e.cache.Len("EURUSD", types.TimeframeM15))
	s.Zero(e.cache.Len("GBPUSD", types.TimeframeM15))
}
