package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/meridian-lab/meridian-trading/internal/adapter"
	binanceadapter "github.com/meridian-lab/meridian-trading/internal/adapter/binance"
	"github.com/meridian-lab/meridian-trading/internal/adapter/paper"
	"github.com/meridian-lab/meridian-trading/internal/api"
	"github.com/meridian-lab/meridian-trading/internal/engine"
	"github.com/meridian-lab/meridian-trading/internal/logger"
	"github.com/meridian-lab/meridian-trading/internal/risk"
	"github.com/meridian-lab/meridian-trading/internal/tradelog"
	"github.com/meridian-lab/meridian-trading/internal/types"
	"github.com/meridian-lab/meridian-trading/mocks"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

// runAction wires the engine together and runs it until interrupted.
func runAction(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	adapterFlag := cmd.String("adapter")
	apiAddress := cmd.String("api-address")
	useTestnet := cmd.Bool("testnet")

	configBytes, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := engine.ParseConfig(configBytes)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	appLogger, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer appLogger.Sync() //nolint:errcheck // stdout sync failure on exit is harmless

	tradingAdapter, err := buildAdapter(adapterFlag, useTestnet, cfg, appLogger)
	if err != nil {
		return err
	}

	tradeLog := tradelog.NewMemoryTradeLog(appLogger)
	gate := risk.NewBasicGate(cfg.Risk, tradingAdapter, appLogger)

	// Console observers, mirroring what the status API exposes.
	onStarted := engine.OnStartedCallback(func(status types.EngineStatus) error {
		fmt.Printf("Engine started: strategy=%s symbols=%v\n", status.StrategyName, status.Symbols)
		return nil
	})
	onStopped := engine.OnStoppedCallback(func(status types.EngineStatus) error {
		fmt.Printf("Engine stopped: ticks=%d trades=%d\n", status.TicksProcessed, status.TradesExecuted)
		return nil
	})
	onTrade := engine.OnTradeCallback(func(event types.TradeEvent) error {
		fmt.Printf("Trade: %s %s %.4f @ %.5f (sl=%.5f tp=%.5f)\n",
			event.Side, event.Symbol, event.Volume,
			event.ExecutionPrice, event.StopLoss, event.TakeProfit)
		return nil
	})
	callbacks := engine.Callbacks{
		OnStarted: &onStarted,
		OnStopped: &onStopped,
		OnTrade:   &onTrade,
	}

	eng, err := engine.New(cfg, tradingAdapter, gate, appLogger, tradeLog, callbacks)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	statusServer := api.NewServer(eng, appLogger)
	if err := statusServer.Start(apiAddress); err != nil {
		return fmt.Errorf("failed to start status server: %w", err)
	}
	fmt.Printf("Status API listening on %s\n", statusServer.Address())

	if err := eng.Start(ctx); err != nil {
		_ = statusServer.Stop()
		return fmt.Errorf("failed to start engine: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	fmt.Println("\nReceived interrupt signal, stopping...")

	if err := eng.Stop(); err != nil {
		fmt.Printf("Engine stop failed: %v\n", err)
	}

	return statusServer.Stop()
}

// buildAdapter constructs the trading adapter named by the flag. The paper
// adapter is seeded with generated history so the engine can run a full dry
// cycle with no network access.
func buildAdapter(name string, useTestnet bool, cfg engine.Config, appLogger *logger.Logger) (adapter.TradingAdapter, error) {
	switch name {
	case "binance":
		adapterConfig := binanceadapter.DefaultConfig()
		adapterConfig.APIKey = os.Getenv("BINANCE_API_KEY")
		adapterConfig.SecretKey = os.Getenv("BINANCE_SECRET_KEY")
		adapterConfig.UseTestnet = useTestnet

		return binanceadapter.New(adapterConfig, appLogger)
	case "paper":
		return buildPaperAdapter(cfg), nil
	default:
		return nil, fmt.Errorf("unknown adapter %q: expected binance or paper", name)
	}
}

func buildPaperAdapter(cfg engine.Config) *paper.Adapter {
	paperAdapter := paper.New(10000, "USD")
	generator := mocks.NewDataGenerator(time.Now().UnixNano())

	for _, symbol := range cfg.Symbols {
		paperAdapter.SetSpecs(types.SymbolSpecs{
			Symbol:        symbol,
			MinVolume:     0.01,
			MaxVolume:     100,
			StepVolume:    0.01,
			PipSize:       0.0001,
			PipValue:      10,
			QuoteCurrency: "USD",
		})

		var lastClose float64
		for _, timeframe := range cfg.Strategy.Timeframes {
			generatorConfig := mocks.DefaultGeneratorConfig()
			generatorConfig.Symbol = symbol
			generatorConfig.Timeframe = timeframe
			candles := generator.GenerateCandles(generatorConfig)
			paperAdapter.SeedCandles(symbol, timeframe, candles)
			lastClose = candles[len(candles)-1].Close
		}

		halfSpread := 0.00005
		paperAdapter.SetQuote(types.Quote{
			Symbol: symbol,
			Bid:    lastClose - halfSpread,
			Ask:    lastClose + halfSpread,
			Time:   time.Now(),
		})
	}

	return paperAdapter
}

// schemaAction prints the JSON schema of the engine configuration.
func schemaAction(_ context.Context, _ *cli.Command) error {
	schema, err := engine.GetConfigSchema()
	if err != nil {
		return err
	}
	fmt.Println(schema)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "meridian",
		Usage: "Multi-symbol live trading orchestrator",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run the trading engine",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "config",
						Aliases:  []string{"c"},
						Usage:    "Path to the YAML engine configuration",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "adapter",
						Aliases: []string{"a"},
						Usage:   "Trading adapter: binance or paper",
						Value:   "binance",
					},
					&cli.StringFlag{
						Name:  "api-address",
						Usage: "Listen address of the status API",
						Value: ":8080",
					},
					&cli.BoolFlag{
						Name:  "testnet",
						Usage: "Connect the binance adapter to the spot testnet",
					},
				},
				Action: runAction,
			},
			{
				Name:   "config-schema",
				Usage:  "Print the JSON schema of the engine configuration",
				Action: schemaAction,
			},
			{
				Name:  "version",
				Usage: "Print the build version",
				Action: func(_ context.Context, _ *cli.Command) error {
					fmt.Println(version)
					return nil
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
