package mocks

//go:generate mockgen -destination=./mock_adapter.go -package=mocks github.com/meridian-lab/meridian-trading/internal/adapter TradingAdapter
//go:generate mockgen -destination=./mock_risk.go -package=mocks github.com/meridian-lab/meridian-trading/internal/risk Gate
//go:generate mockgen -destination=./mock_strategy.go -package=mocks github.com/meridian-lab/meridian-trading/internal/strategy Strategy
