package sideways

import (
	"testing"

	"RangePulse/internal/domain/models"
)

func TestGenerateSignalsEmitsFullRecord(t *testing.T) {
	cfg := strategyDefaults(t)
	e := NewEngine(cfg, nil)
	rs := sidewaysState(95, 105)

	frame := frameFromCloses([]float64{100, 100, 95.5, 100, 100})
	// rig bar 2 into a long confluence: oversold rsi on the lower band at
	// the range floor
	row := frame.Rows[2]
	row.RSI = 22
	row.BBLower = 95.4
	row.BBWidth = row.BBUpper - row.BBLower
	row.KeltUpper, row.KeltLower = 105, 86
	frame.Rows[2] = row

	periods := []models.RangePeriod{{Start: 1, End: 3, State: rs}}
	sigs := e.GenerateSignals("BTCUSDT", frame, periods)
	if len(sigs) != 1 {
		t.Fatalf("expected exactly one signal, got %d: %+v", len(sigs), sigs)
	}

	sig := sigs[0]
	if sig.ID == "" {
		t.Fatalf("signal must carry an id")
	}
	if sig.Symbol != "BTCUSDT" || sig.Index != 2 || sig.Type != models.SignalLong {
		t.Fatalf("unexpected signal identity: %+v", sig)
	}
	if sig.EntryPrice != 95.5 {
		t.Fatalf("entry must be the candle close, got %v", sig.EntryPrice)
	}
	if !sig.Timestamp.Equal(frame.At(2).Timestamp) {
		t.Fatalf("timestamp must match the candle, got %v", sig.Timestamp)
	}
	if sig.Confidence != 7 || sig.LongScore != 7 || sig.ShortScore != 0 {
		t.Fatalf("unexpected scores: %+v", sig)
	}
	if sig.Regime != "sideways" {
		t.Fatalf("unexpected regime: %q", sig.Regime)
	}
	if !(sig.StopLoss < sig.EntryPrice && sig.EntryPrice < sig.TP1 && sig.TP1 < sig.TP2 && sig.TP2 < sig.TP3) {
		t.Fatalf("level ladder out of order: %+v", sig)
	}
	if sig.TP3 > rs.High {
		t.Fatalf("tp3 %v must stay inside the range high %v", sig.TP3, rs.High)
	}
	if len(sig.Reasons) == 0 {
		t.Fatalf("fired signal must carry reasons")
	}
}

func TestGenerateSignalsSkipsWarmupBars(t *testing.T) {
	cfg := strategyDefaults(t)
	e := NewEngine(cfg, nil)
	rs := sidewaysState(95, 105)

	frame := frameFromCloses([]float64{95.5, 95.5, 100, 100})
	frame.Warmup = 2 // bars 0-1 have no previous defined row

	for i := 0; i < 2; i++ {
		row := frame.Rows[i]
		row.RSI = 22
		row.BBLower = 95.4
		frame.Rows[i] = row
	}

	periods := []models.RangePeriod{{Start: 0, End: 3, State: rs}}
	if sigs := e.GenerateSignals("ETHUSDT", frame, periods); len(sigs) != 0 {
		t.Fatalf("warm-up bars must not emit signals, got %+v", sigs)
	}
}
