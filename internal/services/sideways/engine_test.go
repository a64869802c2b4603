package sideways

import (
	"math"
	"testing"
	"time"

	"RangePulse/internal/domain/models"
)

func sidewaysState(low, high float64) models.RangeState {
	return models.RangeState{
		IsSideways:   true,
		High:         high,
		Low:          low,
		Mid:          (high + low) / 2,
		Quarter1:     low + (high-low)*0.25,
		Quarter3:     low + (high-low)*0.75,
		RangePercent: (high - low) / ((high + low) / 2) * 100,
	}
}

// neutralPair returns cur/prev rows that trigger no confirmation rule at the
// given close price.
func neutralPair(close float64) (cur, prev models.IndicatorSnapshot) {
	ts := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	cur = testSnapshot(ts.Add(time.Hour), close, close+0.2, close-0.2, close)
	prev = testSnapshot(ts, close, close+0.2, close-0.2, close)
	// keep price away from both bollinger bands
	cur.BBUpper, cur.BBMiddle, cur.BBLower = close*1.10, close, close*0.90
	cur.BBWidth = cur.BBUpper - cur.BBLower
	prev.BBUpper, prev.BBMiddle, prev.BBLower = cur.BBUpper, cur.BBMiddle, cur.BBLower
	prev.BBWidth = cur.BBWidth
	// wide keltner channel so no squeeze fires
	cur.KeltUpper, cur.KeltLower = close*1.05, close*0.95
	prev.KeltUpper, prev.KeltLower = cur.KeltUpper, cur.KeltLower
	return cur, prev
}

func TestEvaluateLongConfluence(t *testing.T) {
	cfg := strategyDefaults(t)
	e := NewEngine(cfg, nil)
	rs := sidewaysState(95, 105)

	// close at 5% of the range, oversold RSI, close on the lower band
	cur, prev := neutralPair(95.5)
	cur.RSI = 22
	prev.RSI = 22
	cur.BBLower = 95.4
	cur.BBWidth = cur.BBUpper - cur.BBLower

	ev := e.Evaluate(cur, prev, rs)
	if ev.Signal != models.SignalLong {
		t.Fatalf("expected LONG, got %s (long=%d short=%d reasons=%v)",
			ev.Signal, ev.LongScore, ev.ShortScore, ev.Reasons)
	}
	// rsi extreme (2) + bb proximity (2) + range floor (3)
	if ev.LongScore != 7 {
		t.Fatalf("expected long score 7, got %d (%v)", ev.LongScore, ev.Reasons)
	}
	if ev.ShortScore != 0 {
		t.Fatalf("expected short score 0, got %d (%v)", ev.ShortScore, ev.Reasons)
	}
	if ev.Confidence() != 7 {
		t.Fatalf("confidence must equal winning score, got %d", ev.Confidence())
	}
}

func TestEvaluateShortConfluence(t *testing.T) {
	cfg := strategyDefaults(t)
	e := NewEngine(cfg, nil)
	rs := sidewaysState(95, 105)

	cur, prev := neutralPair(104.5)
	cur.RSI = 78
	prev.RSI = 78
	cur.BBUpper = 104.6
	cur.BBWidth = cur.BBUpper - cur.BBLower

	ev := e.Evaluate(cur, prev, rs)
	if ev.Signal != models.SignalShort {
		t.Fatalf("expected SHORT, got %s (long=%d short=%d reasons=%v)",
			ev.Signal, ev.LongScore, ev.ShortScore, ev.Reasons)
	}
	if ev.ShortScore != 7 {
		t.Fatalf("expected short score 7, got %d (%v)", ev.ShortScore, ev.Reasons)
	}
}

func TestEvaluateTieIsNeutral(t *testing.T) {
	cfg := strategyDefaults(t)
	e := NewEngine(cfg, nil)
	rs := sidewaysState(95, 105)

	// long: range floor (+3); short: bearish rsi divergence (+3)
	cur, prev := neutralPair(95.5)
	cur.High = 105.6
	prev.High = 105.5
	cur.RSI = 55
	prev.RSI = 60

	ev := e.Evaluate(cur, prev, rs)
	if ev.LongScore != 3 || ev.ShortScore != 3 {
		t.Fatalf("expected 3-3 tie, got long=%d short=%d (%v)", ev.LongScore, ev.ShortScore, ev.Reasons)
	}
	if ev.Signal != models.SignalNeutral {
		t.Fatalf("tie must resolve NEUTRAL, got %s", ev.Signal)
	}
	if ev.Confidence() != 0 {
		t.Fatalf("neutral confidence must be 0, got %d", ev.Confidence())
	}
}

func TestEvaluateBelowThresholdIsNeutral(t *testing.T) {
	cfg := strategyDefaults(t)
	e := NewEngine(cfg, nil)
	rs := sidewaysState(95, 105)

	// only the rsi extreme fires: 2 points, below min_confirmation_signals
	cur, prev := neutralPair(100)
	cur.RSI = 22
	prev.RSI = 22

	ev := e.Evaluate(cur, prev, rs)
	if ev.LongScore != 2 {
		t.Fatalf("expected long score 2, got %d (%v)", ev.LongScore, ev.Reasons)
	}
	if ev.Signal != models.SignalNeutral {
		t.Fatalf("under-threshold score must stay NEUTRAL, got %s", ev.Signal)
	}
}

func TestEvaluateNonSidewaysIsNeutral(t *testing.T) {
	cfg := strategyDefaults(t)
	e := NewEngine(cfg, nil)
	rs := sidewaysState(95, 105)
	rs.IsSideways = false

	cur, prev := neutralPair(95.5)
	cur.RSI = 22
	prev.RSI = 22
	cur.BBLower = 95.4

	ev := e.Evaluate(cur, prev, rs)
	if ev.Signal != models.SignalNeutral || ev.LongScore != 0 {
		t.Fatalf("non-sideways regime must evaluate NEUTRAL, got %+v", ev)
	}
}

func TestEvaluateUndefinedRowIsNeutral(t *testing.T) {
	cfg := strategyDefaults(t)
	e := NewEngine(cfg, nil)
	rs := sidewaysState(95, 105)

	cur, prev := neutralPair(95.5)
	cur.ATR = math.NaN()

	ev := e.Evaluate(cur, prev, rs)
	if ev.Signal != models.SignalNeutral || len(ev.Reasons) != 0 {
		t.Fatalf("undefined row must evaluate NEUTRAL, got %+v", ev)
	}
}

func TestEvaluateStochCross(t *testing.T) {
	cfg := strategyDefaults(t)
	e := NewEngine(cfg, nil)
	rs := sidewaysState(95, 105)

	// bullish %K/%D cross below 50 plus the range floor
	cur, prev := neutralPair(95.5)
	prev.StochK, prev.StochD = 18, 22
	cur.StochK, cur.StochD = 25, 21

	ev := e.Evaluate(cur, prev, rs)
	if ev.Signal != models.SignalLong {
		t.Fatalf("expected LONG, got %s (%v)", ev.Signal, ev.Reasons)
	}
	// stoch cross (2) + range floor (3)
	if ev.LongScore != 5 {
		t.Fatalf("expected long score 5, got %d (%v)", ev.LongScore, ev.Reasons)
	}
}

func TestEvaluateZeroWidthRangeSkipsPosition(t *testing.T) {
	cfg := strategyDefaults(t)
	e := NewEngine(cfg, nil)
	rs := sidewaysState(100, 100)
	rs.IsSideways = true

	cur, prev := neutralPair(100)
	cur.RSI = 22
	prev.RSI = 22

	ev := e.Evaluate(cur, prev, rs)
	// only the rsi extreme can fire; position in range is undefined
	if ev.LongScore != 2 {
		t.Fatalf("expected long score 2 with undefined range position, got %d (%v)", ev.LongScore, ev.Reasons)
	}
}
