package sideways

import (
	"errors"
	"math"
	"testing"
	"time"

	"RangePulse/internal/domain/models"
	"RangePulse/pkg/config"
)

func strategyDefaults(t *testing.T) config.Strategy {
	t.Helper()
	c, err := config.Default()
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	return c.Strategy
}

// testSnapshot returns a fully defined row so Valid() passes.
func testSnapshot(ts time.Time, open, high, low, close float64) models.IndicatorSnapshot {
	return models.IndicatorSnapshot{
		Timestamp: ts,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     close,
		Volume:    100,
		ATR:       0.5,
		RSI:       50,
		StochK:    50,
		StochD:    50,
		CCI:       0,
		BBUpper:   close + 2,
		BBMiddle:  close,
		BBLower:   close - 2,
		BBWidth:   4,
		KeltUpper: close + 2,
		KeltMid:   close,
		KeltLower: close - 2,
		FisherRSI: 0,
		VolumeSMA: 100,
		Momentum:  0,
	}
}

// frameFromCloses builds a frame with no warm-up prefix, one bar per close.
func frameFromCloses(closes []float64) *models.IndicatorFrame {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	f := &models.IndicatorFrame{
		Candles: make([]models.Candle, len(closes)),
		Rows:    make([]models.IndicatorSnapshot, len(closes)),
	}
	for i, c := range closes {
		ts := base.Add(time.Duration(i) * time.Hour)
		f.Candles[i] = models.Candle{Timestamp: ts, Open: c, High: c + 0.2, Low: c - 0.2, Close: c, Volume: 100}
		f.Rows[i] = testSnapshot(ts, c, c+0.2, c-0.2, c)
	}
	return f
}

func flatCloses(n int, price, wiggle float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = price
		if i%2 == 0 {
			out[i] += wiggle
		} else {
			out[i] -= wiggle
		}
	}
	return out
}

func TestDetectWindowFlatIsSideways(t *testing.T) {
	cfg := strategyDefaults(t)
	d := NewDetector(cfg, nil)
	frame := frameFromCloses(flatCloses(60, 100, 0.3))

	rs, err := d.DetectWindow(frame, frame.Len()-1)
	if err != nil {
		t.Fatalf("detect window: %v", err)
	}
	if !rs.IsSideways {
		t.Fatalf("flat window must classify sideways: %+v", rs)
	}
	if rs.RangePercent >= cfg.MaxRangePercent {
		t.Fatalf("range percent %v not below threshold", rs.RangePercent)
	}
	if math.Abs(rs.Slope) >= cfg.TrendSlopeThreshold {
		t.Fatalf("slope %v not below threshold", rs.Slope)
	}
	if rs.Low >= rs.Mid || rs.Mid >= rs.High {
		t.Fatalf("low/mid/high out of order: %+v", rs)
	}
	if rs.Quarter1 <= rs.Low || rs.Quarter3 >= rs.High || rs.Quarter1 >= rs.Quarter3 {
		t.Fatalf("quartiles out of order: %+v", rs)
	}
}

func TestDetectWindowRejectsWideRange(t *testing.T) {
	cfg := strategyDefaults(t)
	d := NewDetector(cfg, nil)
	// alternate between 95 and 105: ~10% range, near-zero slope
	closes := make([]float64, 60)
	for i := range closes {
		if i%2 == 0 {
			closes[i] = 105
		} else {
			closes[i] = 95
		}
	}
	frame := frameFromCloses(closes)

	rs, err := d.DetectWindow(frame, frame.Len()-1)
	if err != nil {
		t.Fatalf("detect window: %v", err)
	}
	if rs.IsSideways {
		t.Fatalf("10%% range must not classify sideways: %+v", rs)
	}
	if rs.RangePercent < cfg.MaxRangePercent {
		t.Fatalf("expected wide range percent, got %v", rs.RangePercent)
	}
}

func TestDetectWindowRejectsTrend(t *testing.T) {
	cfg := strategyDefaults(t)
	d := NewDetector(cfg, nil)
	// steady climb: range stays under 5% but the slope betrays the trend
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)*0.1
	}
	frame := frameFromCloses(closes)

	rs, err := d.DetectWindow(frame, frame.Len()-1)
	if err != nil {
		t.Fatalf("detect window: %v", err)
	}
	if rs.IsSideways {
		t.Fatalf("trending window must not classify sideways: %+v", rs)
	}
	if math.Abs(rs.Slope) < cfg.TrendSlopeThreshold {
		t.Fatalf("expected slope above threshold, got %v", rs.Slope)
	}
}

func TestDetectWindowInsufficientData(t *testing.T) {
	cfg := strategyDefaults(t)
	d := NewDetector(cfg, nil)
	frame := frameFromCloses(flatCloses(10, 100, 0.3))

	_, err := d.DetectWindow(frame, frame.Len()-1)
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestDetectWindowDegenerateInput(t *testing.T) {
	cfg := strategyDefaults(t)
	d := NewDetector(cfg, nil)
	frame := frameFromCloses(flatCloses(60, 100, 0.3))
	frame.Rows[50].RSI = math.NaN()

	_, err := d.DetectWindow(frame, frame.Len()-1)
	if !errors.Is(err, ErrDegenerateInput) {
		t.Fatalf("expected ErrDegenerateInput, got %v", err)
	}
}

func TestDetectWindowIsDeterministic(t *testing.T) {
	cfg := strategyDefaults(t)
	d := NewDetector(cfg, nil)
	frame := frameFromCloses(flatCloses(60, 100, 0.3))

	a, errA := d.DetectWindow(frame, frame.Len()-1)
	b, errB := d.DetectWindow(frame, frame.Len()-1)
	if errA != nil || errB != nil {
		t.Fatalf("detect window: %v %v", errA, errB)
	}
	if a != b {
		t.Fatalf("same window must classify identically: %+v vs %+v", a, b)
	}
}

func TestDetectSidewaysMarketGroupsPeriods(t *testing.T) {
	cfg := strategyDefaults(t)
	d := NewDetector(cfg, nil)
	// 40 flat bars, a 20-bar trend leg, then 40 flat bars at a higher shelf
	closes := flatCloses(40, 100, 0.3)
	for i := 0; i < 20; i++ {
		closes = append(closes, 100+float64(i+1)*0.6)
	}
	closes = append(closes, flatCloses(40, 112, 0.3)...)
	frame := frameFromCloses(closes)

	periods := d.DetectSidewaysMarket(frame)
	if len(periods) < 2 {
		t.Fatalf("expected at least two sideways periods, got %d", len(periods))
	}
	for _, p := range periods {
		if p.Bars() < cfg.MinSidewaysDuration {
			t.Fatalf("period shorter than min duration: %+v", p)
		}
		if !p.State.IsSideways {
			t.Fatalf("period state must be sideways: %+v", p)
		}
	}
	for i := 1; i < len(periods); i++ {
		if periods[i].Start <= periods[i-1].End {
			t.Fatalf("periods must not overlap: %+v", periods)
		}
	}
}

func TestDetectSidewaysMarketShortSeries(t *testing.T) {
	cfg := strategyDefaults(t)
	d := NewDetector(cfg, nil)
	frame := frameFromCloses(flatCloses(5, 100, 0.3))
	if periods := d.DetectSidewaysMarket(frame); periods != nil {
		t.Fatalf("expected no periods for short series, got %v", periods)
	}
}
