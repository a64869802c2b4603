package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"RangePulse/internal/domain/models"
	domrepo "RangePulse/internal/domain/repository"
	pkgch "RangePulse/pkg/clickhouse"
)

// CHSignalStore implements SignalStore backed by ClickHouse.
type CHSignalStore struct {
	db *sql.DB
}

func NewCHSignalStore(ch *pkgch.Client) *CHSignalStore {
	return &CHSignalStore{db: ch.DB()}
}

func (s *CHSignalStore) StoreSignals(ctx context.Context, tf domrepo.Timeframe, signals []models.SignalRecord) error {
	if len(signals) == 0 {
		return nil
	}
	// Batch insert using a multi-row VALUES list to reduce round-trips.
	const chunkSize = 1000
	for start := 0; start < len(signals); start += chunkSize {
		end := start + chunkSize
		if end > len(signals) {
			end = len(signals)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*13)
		for _, sig := range signals[start:end] {
			if sig.ID == "" || sig.Symbol == "" {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				sig.ID,
				sig.Timestamp,
				sig.Symbol,
				string(tf),
				string(sig.Type),
				sig.EntryPrice,
				sig.StopLoss,
				sig.TP1,
				sig.TP2,
				sig.TP3,
				sig.Confidence,
				strings.Join(sig.Reasons, "|"),
				sig.Regime,
			)
		}
		if len(values) == 0 {
			continue
		}
		q := "INSERT INTO rangepulse.signals (id, ts, symbol, tf, side, entry, stop_loss, tp1, tp2, tp3, confidence, reasons, regime) VALUES " +
			strings.Join(values, ",")
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("store signals: %w", err)
		}
	}
	return nil
}

func (s *CHSignalStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SchemaStatements returns idempotent DDL for the signal pipeline tables.
// Candle tables are created per timeframe; signals share one table.
func SchemaStatements() []string {
	stmts := []string{"CREATE DATABASE IF NOT EXISTS rangepulse"}
	for _, tf := range []string{"1m", "5m", "15m", "1h", "4h", "1d"} {
		stmts = append(stmts, fmt.Sprintf(`
            CREATE TABLE IF NOT EXISTS rangepulse.candles_%s (
                ts      DateTime64(3),
                symbol  LowCardinality(String),
                open    Float64,
                high    Float64,
                low     Float64,
                close   Float64,
                volume  Float64
            ) ENGINE = ReplacingMergeTree
            PARTITION BY toYYYYMM(ts)
            ORDER BY (symbol, ts)
        `, tf))
	}
	stmts = append(stmts, `
        CREATE TABLE IF NOT EXISTS rangepulse.signals (
            id          String,
            ts          DateTime64(3),
            symbol      LowCardinality(String),
            tf          LowCardinality(String),
            side        LowCardinality(String),
            entry       Float64,
            stop_loss   Float64,
            tp1         Float64,
            tp2         Float64,
            tp3         Float64,
            confidence  Int32,
            reasons     String,
            regime      LowCardinality(String)
        ) ENGINE = ReplacingMergeTree
        PARTITION BY toYYYYMM(ts)
        ORDER BY (symbol, tf, ts, id)
    `)
	return stmts
}
