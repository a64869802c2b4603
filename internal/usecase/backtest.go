package usecase

import (
	"context"
	"fmt"
	"time"

	"RangePulse/internal/domain/models"
	domrepo "RangePulse/internal/domain/repository"
	"RangePulse/internal/services/backtest"
	"RangePulse/internal/services/indicators"
	"RangePulse/internal/services/sideways"
	"RangePulse/pkg/config"
	applogger "RangePulse/pkg/logger"
)

// BacktestUseCase replays the detection pipeline over a historical window and
// simulates the resulting trades.
type BacktestUseCase struct {
	cfg      *config.Config
	store    domrepo.CandleStore
	metrics  domrepo.Metrics
	detector *sideways.Detector
	engine   *sideways.Engine
	log      *applogger.Logger
}

func NewBacktestUseCase(cfg *config.Config, store domrepo.CandleStore, metrics domrepo.Metrics, log *applogger.Logger) *BacktestUseCase {
	return &BacktestUseCase{
		cfg:      cfg,
		store:    store,
		metrics:  metrics,
		detector: sideways.NewDetector(cfg.Strategy, log),
		engine:   sideways.NewEngine(cfg.Strategy, log),
		log:      log,
	}
}

type RunBacktestParams struct {
	Symbol    string
	From      time.Time
	To        time.Time
	Timeframe domrepo.Timeframe
}

func (uc *BacktestUseCase) Run(ctx context.Context, p RunBacktestParams) (*models.BacktestReport, error) {
	if p.Symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if p.From.After(p.To) {
		return nil, fmt.Errorf("from must be <= to")
	}

	candles, err := uc.store.GetCandles(ctx, p.Symbol, p.From, p.To, p.Timeframe)
	if err != nil {
		return nil, fmt.Errorf("load candles: %w", err)
	}
	if err := models.ValidateSeries(candles); err != nil {
		return nil, err
	}

	frame, err := indicators.Build(candles, uc.cfg.Strategy)
	if err != nil {
		return nil, err
	}
	periods := uc.detector.DetectSidewaysMarket(frame)
	signals := uc.engine.GenerateSignals(p.Symbol, frame, periods)

	sim := backtest.New(backtest.Config{
		InitialBalance: uc.cfg.Backtest.InitialBalance,
		RiskPercent:    uc.cfg.Backtest.RiskPercent,
		FeePercent:     uc.cfg.Backtest.FeePercent,
	}, uc.cfg.Strategy, uc.log)

	report := sim.Run(p.Symbol, frame, signals, periods)
	uc.metrics.RecordBacktestPnL(p.Symbol, report.NetProfitPct)

	uc.log.Info("backtest complete",
		applogger.String("symbol", p.Symbol),
		applogger.String("tf", string(p.Timeframe)),
		applogger.Int("candles", len(candles)),
		applogger.Int("signals", len(signals)),
		applogger.Int("trades", report.Trades),
		applogger.Float64("net_profit_pct", report.NetProfitPct),
	)
	return report, nil
}
