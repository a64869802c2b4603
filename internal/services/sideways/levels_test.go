package sideways

import (
	"math"
	"testing"

	"RangePulse/internal/domain/models"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestLevelsLongDefaults(t *testing.T) {
	cfg := strategyDefaults(t)
	// entry 100, atr 2: sl 2.4% below, full target 3.6% above
	lv := CalculateEntryExitLevels(100, models.SignalLong, 2, models.RangeState{}, cfg)

	if !almostEqual(lv.StopLoss, 97.6) {
		t.Fatalf("expected stop 97.6, got %v", lv.StopLoss)
	}
	if !almostEqual(lv.TP1, 101.44) || !almostEqual(lv.TP2, 102.52) || !almostEqual(lv.TP3, 103.6) {
		t.Fatalf("unexpected ladder: tp1=%v tp2=%v tp3=%v", lv.TP1, lv.TP2, lv.TP3)
	}
	if !(lv.StopLoss < 100 && 100 < lv.TP1 && lv.TP1 < lv.TP2 && lv.TP2 < lv.TP3) {
		t.Fatalf("ladder ordering violated: %+v", lv)
	}
	if lv.CloseSizes != [3]float64{30, 30, 40} {
		t.Fatalf("unexpected close sizes: %v", lv.CloseSizes)
	}
}

func TestLevelsShortMirror(t *testing.T) {
	cfg := strategyDefaults(t)
	lv := CalculateEntryExitLevels(100, models.SignalShort, 2, models.RangeState{}, cfg)

	if !almostEqual(lv.StopLoss, 102.4) {
		t.Fatalf("expected stop 102.4, got %v", lv.StopLoss)
	}
	if !almostEqual(lv.TP1, 98.56) || !almostEqual(lv.TP2, 97.48) || !almostEqual(lv.TP3, 96.4) {
		t.Fatalf("unexpected ladder: tp1=%v tp2=%v tp3=%v", lv.TP1, lv.TP2, lv.TP3)
	}
	if !(lv.StopLoss > 100 && 100 > lv.TP1 && lv.TP1 > lv.TP2 && lv.TP2 > lv.TP3) {
		t.Fatalf("ladder ordering violated: %+v", lv)
	}
}

func TestLevelsClampedToRangeBoundary(t *testing.T) {
	cfg := strategyDefaults(t)
	rs := sidewaysState(95, 102)

	lv := CalculateEntryExitLevels(100, models.SignalLong, 2, rs, cfg)
	if !almostEqual(lv.TP3, 102) {
		t.Fatalf("tp3 must clamp to range high, got %v", lv.TP3)
	}
	// fraction spacing survives the clamp: tp1 sits at 40% of the tp3 distance
	if !almostEqual(lv.TP1, 100.8) || !almostEqual(lv.TP2, 101.4) {
		t.Fatalf("clamped ladder not rescaled: tp1=%v tp2=%v", lv.TP1, lv.TP2)
	}
	if lv.TP3 > rs.High {
		t.Fatalf("tp3 %v outside range high %v", lv.TP3, rs.High)
	}

	short := CalculateEntryExitLevels(97, models.SignalShort, 2, rs, cfg)
	if short.TP3 < rs.Low {
		t.Fatalf("short tp3 %v outside range low %v", short.TP3, rs.Low)
	}
}

func TestLevelsFallbackStopWithoutATR(t *testing.T) {
	cfg := strategyDefaults(t)
	for _, atr := range []float64{0, -1, math.NaN()} {
		lv := CalculateEntryExitLevels(100, models.SignalLong, atr, models.RangeState{}, cfg)
		if !almostEqual(lv.StopLoss, 99) {
			t.Fatalf("atr=%v: expected 1%% fallback stop, got %v", atr, lv.StopLoss)
		}
	}
}

func TestPositionSizeRiskBudget(t *testing.T) {
	// risking 2% of 10000 with a 2.4% stop: size*entry*dist == 200
	size := CalculatePositionSize(10000, 0.02, 100, 0.024)
	if !almostEqual(size*100*0.024, 200) {
		t.Fatalf("risk budget violated: size=%v", size)
	}
}

func TestPositionSizeStopFloor(t *testing.T) {
	// near-zero stop distance is floored at 0.5%
	size := CalculatePositionSize(10000, 0.02, 100, 0.0001)
	if !almostEqual(size, 400) {
		t.Fatalf("expected floored size 400, got %v", size)
	}
}

func TestPositionSizeInvalidInputs(t *testing.T) {
	if s := CalculatePositionSize(0, 0.02, 100, 0.01); s != 0 {
		t.Fatalf("zero balance must size 0, got %v", s)
	}
	if s := CalculatePositionSize(10000, 0, 100, 0.01); s != 0 {
		t.Fatalf("zero risk must size 0, got %v", s)
	}
	if s := CalculatePositionSize(10000, 0.02, 0, 0.01); s != 0 {
		t.Fatalf("zero entry must size 0, got %v", s)
	}
}
