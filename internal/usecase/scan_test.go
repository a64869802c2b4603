package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"RangePulse/internal/domain/models"
	domrepo "RangePulse/internal/domain/repository"
	"RangePulse/pkg/cache"
	"RangePulse/pkg/config"
	applogger "RangePulse/pkg/logger"
)

type fakeCandleStore struct {
	candles []models.Candle
	calls   int
	err     error
}

func (f *fakeCandleStore) GetCandles(_ context.Context, _ string, from, to time.Time, _ domrepo.Timeframe) ([]models.Candle, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Candle
	for _, c := range f.candles {
		if !c.Timestamp.Before(from) && !c.Timestamp.After(to) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCandleStore) GetLatestNCandles(_ context.Context, _ string, n int, _ domrepo.Timeframe) ([]models.Candle, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if n >= len(f.candles) {
		return f.candles, nil
	}
	return f.candles[len(f.candles)-n:], nil
}

type fakeSignalStore struct {
	stored []models.SignalRecord
	err    error
}

func (f *fakeSignalStore) StoreSignals(_ context.Context, _ domrepo.Timeframe, sigs []models.SignalRecord) error {
	if f.err != nil {
		return f.err
	}
	f.stored = append(f.stored, sigs...)
	return nil
}

func (f *fakeSignalStore) Health(context.Context) error { return nil }

type fakePublisher struct {
	published []models.SignalRecord
}

func (f *fakePublisher) PublishSignals(_ context.Context, _ domrepo.Timeframe, sigs []models.SignalRecord) error {
	f.published = append(f.published, sigs...)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

type fakeMetrics struct {
	signals  int
	windows  int
	errors   map[string]int
	scans    int
	backtest int
}

func (m *fakeMetrics) RecordSignal(string, string) { m.signals++ }
func (m *fakeMetrics) RecordSidewaysWindow(string) { m.windows++ }
func (m *fakeMetrics) RecordError(kind string) {
	if m.errors == nil {
		m.errors = map[string]int{}
	}
	m.errors[kind]++
}
func (m *fakeMetrics) RecordScanDuration(float64)          { m.scans++ }
func (m *fakeMetrics) RecordBacktestPnL(string, float64)   { m.backtest++ }

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

// syntheticCandles yields a deterministic choppy series with both gains and
// losses so every indicator is defined past warm-up.
func syntheticCandles(n int) []models.Candle {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Candle, n)
	for i := 0; i < n; i++ {
		wiggle := float64((i*7)%13-6) * 0.1
		close := 100 + wiggle
		out[i] = models.Candle{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Symbol:    "BTCUSDT",
			Open:      close - 0.05,
			High:      close + 0.3,
			Low:       close - 0.3,
			Close:     close,
			Volume:    100 + float64(i%5),
		}
	}
	return out
}

func newScanFixture(t *testing.T, store *fakeCandleStore, c cache.Service) (*ScanUseCase, *fakeSignalStore, *fakePublisher, *fakeMetrics) {
	t.Helper()
	cfg, err := config.Default()
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	sigStore := &fakeSignalStore{}
	pub := &fakePublisher{}
	m := &fakeMetrics{}
	uc := NewScanUseCase(cfg, store, sigStore, pub, c, m, testLogger(t))
	return uc, sigStore, pub, m
}

func TestScanPropagatesStoreError(t *testing.T) {
	store := &fakeCandleStore{err: errors.New("clickhouse down")}
	uc, _, _, m := newScanFixture(t, store, nil)

	if _, err := uc.Scan(context.Background(), "BTCUSDT", domrepo.TF1h, 200); err == nil {
		t.Fatalf("expected error from failing store")
	}
	if m.errors["scan"] != 1 {
		t.Fatalf("expected scan error metric, got %v", m.errors)
	}
	if m.scans != 1 {
		t.Fatalf("scan duration must be recorded even on failure, got %d", m.scans)
	}
}

func TestScanPipelineConsistency(t *testing.T) {
	store := &fakeCandleStore{candles: syntheticCandles(200)}
	uc, sigStore, pub, m := newScanFixture(t, store, nil)

	res, err := uc.Scan(context.Background(), "BTCUSDT", domrepo.TF1h, 200)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if res.Symbol != "BTCUSDT" || res.TF != "1h" {
		t.Fatalf("unexpected result identity: %+v", res)
	}
	if len(sigStore.stored) != len(res.Signals) {
		t.Fatalf("stored %d signals, result has %d", len(sigStore.stored), len(res.Signals))
	}
	if len(pub.published) != len(res.Signals) {
		t.Fatalf("published %d signals, result has %d", len(pub.published), len(res.Signals))
	}
	if m.windows != len(res.Periods) {
		t.Fatalf("recorded %d windows, result has %d periods", m.windows, len(res.Periods))
	}
	if m.signals != len(res.Signals) {
		t.Fatalf("recorded %d signal metrics, result has %d", m.signals, len(res.Signals))
	}
	for _, sig := range res.Signals {
		if sig.Type == models.SignalNeutral {
			t.Fatalf("neutral evaluations must not be emitted: %+v", sig)
		}
	}
}

func TestRegimeServedFromCache(t *testing.T) {
	store := &fakeCandleStore{candles: syntheticCandles(200)}
	uc, _, _, _ := newScanFixture(t, store, cache.NewMemoryCache())

	first, err := uc.Regime(context.Background(), "BTCUSDT", 100, domrepo.TF1h)
	if err != nil {
		t.Fatalf("regime: %v", err)
	}
	callsAfterFirst := store.calls

	second, err := uc.Regime(context.Background(), "BTCUSDT", 100, domrepo.TF1h)
	if err != nil {
		t.Fatalf("regime (cached): %v", err)
	}
	if store.calls != callsAfterFirst {
		t.Fatalf("second call must be served from cache, store calls went %d -> %d", callsAfterFirst, store.calls)
	}
	if first != second {
		t.Fatalf("cached regime differs: %+v vs %+v", first, second)
	}
	if first.Low > first.High {
		t.Fatalf("inverted range state: %+v", first)
	}
}

func TestLevelsLadderFromLiveState(t *testing.T) {
	store := &fakeCandleStore{candles: syntheticCandles(200)}
	uc, _, _, _ := newScanFixture(t, store, nil)

	lv, err := uc.Levels(context.Background(), "BTCUSDT", models.SignalLong, 100, 100, domrepo.TF1h)
	if err != nil {
		t.Fatalf("levels: %v", err)
	}
	if !(lv.StopLoss < 100 && 100 < lv.TP1 && lv.TP1 < lv.TP2 && lv.TP2 < lv.TP3) {
		t.Fatalf("level ladder out of order: %+v", lv)
	}
}
