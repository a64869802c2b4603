package usecase

import (
	"context"
	"fmt"
	"time"

	"RangePulse/internal/domain/models"
	domrepo "RangePulse/internal/domain/repository"
	"RangePulse/internal/services/indicators"
	"RangePulse/internal/services/sideways"
	"RangePulse/pkg/cache"
	"RangePulse/pkg/config"
	applogger "RangePulse/pkg/logger"
)

// ScanUseCase runs the full detection pipeline for one symbol: load candles,
// build the indicator frame, detect sideways periods, evaluate confirmations
// and emit signals to storage and Kafka.
type ScanUseCase struct {
	cfg      *config.Config
	store    domrepo.CandleStore
	signals  domrepo.SignalStore
	pub      domrepo.SignalPublisher
	cache    cache.Service
	metrics  domrepo.Metrics
	detector *sideways.Detector
	engine   *sideways.Engine
	log      *applogger.Logger
}

func NewScanUseCase(
	cfg *config.Config,
	store domrepo.CandleStore,
	signals domrepo.SignalStore,
	pub domrepo.SignalPublisher,
	cacheSvc cache.Service,
	metrics domrepo.Metrics,
	log *applogger.Logger,
) *ScanUseCase {
	return &ScanUseCase{
		cfg:      cfg,
		store:    store,
		signals:  signals,
		pub:      pub,
		cache:    cacheSvc,
		metrics:  metrics,
		detector: sideways.NewDetector(cfg.Strategy, log),
		engine:   sideways.NewEngine(cfg.Strategy, log),
		log:      log,
	}
}

// ScanResult is one symbol's pipeline output.
type ScanResult struct {
	Symbol  string                `json:"symbol"`
	TF      string                `json:"tf"`
	Periods []models.RangePeriod  `json:"periods"`
	Signals []models.SignalRecord `json:"signals"`
}

// Scan runs the pipeline for a single symbol over the latest n candles.
// Fired signals are persisted and published; detection metrics are recorded.
func (uc *ScanUseCase) Scan(ctx context.Context, symbol string, tf domrepo.Timeframe, n int) (*ScanResult, error) {
	start := time.Now()
	defer func() { uc.metrics.RecordScanDuration(time.Since(start).Seconds()) }()

	frame, periods, err := uc.frameAndPeriods(ctx, symbol, tf, n)
	if err != nil {
		uc.metrics.RecordError("scan")
		return nil, err
	}
	for range periods {
		uc.metrics.RecordSidewaysWindow(symbol)
	}

	sigs := uc.engine.GenerateSignals(symbol, frame, periods)
	for _, s := range sigs {
		uc.metrics.RecordSignal(s.Symbol, string(s.Type))
	}

	if len(sigs) > 0 {
		if err := uc.signals.StoreSignals(ctx, tf, sigs); err != nil {
			uc.metrics.RecordError("signal_store")
			uc.log.Error("store signals failed",
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
		}
		if err := uc.pub.PublishSignals(ctx, tf, sigs); err != nil {
			uc.metrics.RecordError("signal_publish")
			uc.log.Error("publish signals failed",
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
		}
	}

	res := &ScanResult{Symbol: symbol, TF: string(tf), Periods: periods, Signals: sigs}
	uc.cacheSet(ctx, scanCacheKey(symbol, tf, n), res)

	uc.log.Info("scan complete",
		applogger.String("symbol", symbol),
		applogger.String("tf", string(tf)),
		applogger.Int("periods", len(periods)),
		applogger.Int("signals", len(sigs)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return res, nil
}

// Regime classifies the most recent detection window for a symbol.
func (uc *ScanUseCase) Regime(ctx context.Context, symbol string, n int, tf domrepo.Timeframe) (models.RangeState, error) {
	key := fmt.Sprintf("regime:%s:%s:%d", symbol, tf, n)
	var cached models.RangeState
	if uc.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	frame, err := uc.latestFrame(ctx, symbol, tf, n)
	if err != nil {
		return models.RangeState{}, err
	}
	rs, err := uc.detector.DetectWindow(frame, frame.Len()-1)
	if err != nil {
		return models.RangeState{}, err
	}
	uc.cacheSet(ctx, key, rs)
	return rs, nil
}

// Signals returns the signals fired over the latest n candles. The result is
// computed in memory and not persisted; persistence is the scanner's job.
func (uc *ScanUseCase) Signals(ctx context.Context, symbol string, n int, tf domrepo.Timeframe) ([]models.SignalRecord, error) {
	key := fmt.Sprintf("signals:%s:%s:%d", symbol, tf, n)
	var cached []models.SignalRecord
	if uc.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	frame, periods, err := uc.frameAndPeriods(ctx, symbol, tf, n)
	if err != nil {
		return nil, err
	}
	sigs := uc.engine.GenerateSignals(symbol, frame, periods)
	uc.cacheSet(ctx, key, sigs)
	return sigs, nil
}

// Levels computes the stop/target ladder for a hypothetical entry at the
// current range state and ATR.
func (uc *ScanUseCase) Levels(ctx context.Context, symbol string, side models.SignalType, entry float64, n int, tf domrepo.Timeframe) (models.Levels, error) {
	frame, err := uc.latestFrame(ctx, symbol, tf, n)
	if err != nil {
		return models.Levels{}, err
	}
	rs, err := uc.detector.DetectWindow(frame, frame.Len()-1)
	if err != nil {
		return models.Levels{}, err
	}
	snap := frame.At(frame.Len() - 1)
	return sideways.CalculateEntryExitLevels(entry, side, snap.ATR, rs, uc.cfg.Strategy), nil
}

func (uc *ScanUseCase) latestFrame(ctx context.Context, symbol string, tf domrepo.Timeframe, n int) (*models.IndicatorFrame, error) {
	if min := uc.detector.MinBars(); n < min {
		n = min
	}
	candles, err := uc.store.GetLatestNCandles(ctx, symbol, n, tf)
	if err != nil {
		return nil, fmt.Errorf("load candles: %w", err)
	}
	if err := models.ValidateSeries(candles); err != nil {
		return nil, err
	}
	return indicators.Build(candles, uc.cfg.Strategy)
}

func (uc *ScanUseCase) frameAndPeriods(ctx context.Context, symbol string, tf domrepo.Timeframe, n int) (*models.IndicatorFrame, []models.RangePeriod, error) {
	frame, err := uc.latestFrame(ctx, symbol, tf, n)
	if err != nil {
		return nil, nil, err
	}
	return frame, uc.detector.DetectSidewaysMarket(frame), nil
}

func (uc *ScanUseCase) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if uc.cache == nil {
		return false
	}
	return uc.cache.Get(ctx, key, dest) == nil
}

func (uc *ScanUseCase) cacheSet(ctx context.Context, key string, v interface{}) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Set(ctx, key, v, uc.cfg.Cache.TTL); err != nil {
		uc.log.Warn("cache set failed", applogger.String("key", key), applogger.Error(err))
	}
}

func scanCacheKey(symbol string, tf domrepo.Timeframe, n int) string {
	return fmt.Sprintf("scan:%s:%s:%d", symbol, tf, n)
}
