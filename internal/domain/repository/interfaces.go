package repository

import (
	"context"
	"time"

	"RangePulse/internal/domain/models"
)

// CandleStore provides read-only access to historical candles.
type CandleStore interface {
	GetCandles(ctx context.Context, symbol string, from, to time.Time, tf Timeframe) ([]models.Candle, error)
	GetLatestNCandles(ctx context.Context, symbol string, n int, tf Timeframe) ([]models.Candle, error)
}

// SignalStore persists emitted signal records.
type SignalStore interface {
	StoreSignals(ctx context.Context, tf Timeframe, signals []models.SignalRecord) error
	Health(ctx context.Context) error
}

// SignalPublisher publishes fired signals to downstream consumers.
type SignalPublisher interface {
	PublishSignals(ctx context.Context, tf Timeframe, signals []models.SignalRecord) error
	Close() error
}

// Metrics records operational metrics for the signal pipeline.
type Metrics interface {
	RecordSignal(symbol, side string)
	RecordSidewaysWindow(symbol string)
	RecordError(kind string)
	RecordScanDuration(seconds float64)
	RecordBacktestPnL(symbol string, pnlPct float64)
}
