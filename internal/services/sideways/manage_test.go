package sideways

import (
	"testing"
	"time"

	"RangePulse/internal/domain/models"
)

func openLong() models.Position {
	return models.Position{
		Type:        models.SignalLong,
		EntryTime:   time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		EntryPrice:  100,
		Size:        10,
		InitialSize: 10,
		StopLoss:    97.6,
		TP1:         101.44,
		TP2:         102.52,
		TP3:         103.6,
		CloseSizes:  [3]float64{30, 30, 40},
	}
}

// calmSnapshot carries mid-scale oscillators so no defensive rule fires.
func calmSnapshot(close float64) models.IndicatorSnapshot {
	s, _ := neutralPair(close)
	return s
}

func TestManageTPLadderStrictOrder(t *testing.T) {
	cfg := strategyDefaults(t)
	m := NewManager(cfg)
	pos := openLong()
	rs := sidewaysState(90, 110)

	// price gapped past tp2, but tp1 has not been banked yet: tier 1 first
	act := m.ManagePosition(pos, 102.6, calmSnapshot(102.6), rs)
	if act.Type != models.ActionClosePartial || act.Tier != 1 {
		t.Fatalf("expected tier-1 partial close, got %+v", act)
	}
	if act.ClosePercent != 30 {
		t.Fatalf("expected 30%% close, got %v", act.ClosePercent)
	}

	pos.TP1Hit = true
	act = m.ManagePosition(pos, 102.6, calmSnapshot(102.6), rs)
	if act.Type != models.ActionClosePartial || act.Tier != 2 {
		t.Fatalf("expected tier-2 partial close, got %+v", act)
	}

	pos.TP2Hit = true
	act = m.ManagePosition(pos, 103.7, calmSnapshot(103.7), rs)
	if act.Type != models.ActionCloseFull || act.Tier != 3 {
		t.Fatalf("expected tier-3 full close, got %+v", act)
	}
}

func TestManageRangeExhaustion(t *testing.T) {
	cfg := strategyDefaults(t)
	m := NewManager(cfg)
	pos := openLong()
	rs := sidewaysState(95, 105)

	// 104.8 sits at 98% of the range: exhaustion outranks the tp ladder
	act := m.ManagePosition(pos, 104.8, calmSnapshot(104.8), rs)
	if act.Type != models.ActionCloseFull || act.Tier != 0 {
		t.Fatalf("expected exhaustion full close, got %+v", act)
	}
}

func TestManageOscillatorFlipDeRisks(t *testing.T) {
	cfg := strategyDefaults(t)
	m := NewManager(cfg)
	pos := openLong()
	rs := sidewaysState(90, 110)

	snap := calmSnapshot(100.5)
	snap.RSI = 75
	act := m.ManagePosition(pos, 100.5, snap, rs)
	if act.Type != models.ActionClosePartial || act.ClosePercent != 50 {
		t.Fatalf("expected 50%% defensive close, got %+v", act)
	}
	if act.Tier != 0 {
		t.Fatalf("defensive close must not mark a tp tier, got %+v", act)
	}

	short := openLong()
	short.Type = models.SignalShort
	short.StopLoss, short.TP1, short.TP2, short.TP3 = 102.4, 98.56, 97.48, 96.4
	snap = calmSnapshot(99.5)
	snap.StochK = 15
	act = m.ManagePosition(short, 99.5, snap, rs)
	if act.Type != models.ActionClosePartial || act.ClosePercent != 50 {
		t.Fatalf("expected short-side defensive close, got %+v", act)
	}
}

func TestManageTimeStop(t *testing.T) {
	cfg := strategyDefaults(t)
	m := NewManager(cfg)
	rs := sidewaysState(90, 110)

	pos := openLong()
	pos.BarsInTrade = cfg.ExitAfterBars
	act := m.ManagePosition(pos, 100, calmSnapshot(100), rs)
	if act.Type != models.ActionCloseFull {
		t.Fatalf("expected time stop close, got %+v", act)
	}

	// losing position is exempt: the stop loss owns the downside
	act = m.ManagePosition(pos, 99, calmSnapshot(99), rs)
	if act.Type == models.ActionCloseFull {
		t.Fatalf("time stop must not close a losing trade, got %+v", act)
	}
}

func TestManageTrailingArmsAndTightens(t *testing.T) {
	cfg := strategyDefaults(t)
	m := NewManager(cfg)
	rs := sidewaysState(90, 110)

	pos := openLong()
	// 1.2% profit arms the trail at trail_distance below price
	act := m.ManagePosition(pos, 101.2, calmSnapshot(101.2), rs)
	if act.Type != models.ActionMoveSL {
		t.Fatalf("expected trailing stop move, got %+v", act)
	}
	want := 101.2 * (1 - cfg.TrailDistance/100)
	if !almostEqual(act.NewStopLoss, want) {
		t.Fatalf("expected trail at %v, got %v", want, act.NewStopLoss)
	}

	// a trail already above the candidate never loosens
	pos.TrailingActive = true
	pos.TrailingStop = 101.0
	act = m.ManagePosition(pos, 101.2, calmSnapshot(101.2), rs)
	if act.Type == models.ActionMoveSL {
		t.Fatalf("trailing stop must only tighten, got %+v", act)
	}

	// higher price advances it again (tp1 banked so the ladder stays quiet)
	pos.TP1Hit = true
	act = m.ManagePosition(pos, 101.6, calmSnapshot(101.6), rs)
	if act.Type != models.ActionMoveSL || act.NewStopLoss <= pos.TrailingStop {
		t.Fatalf("expected advanced trail above %v, got %+v", pos.TrailingStop, act)
	}
}

func TestManageHoldByDefault(t *testing.T) {
	cfg := strategyDefaults(t)
	m := NewManager(cfg)
	rs := sidewaysState(90, 110)

	act := m.ManagePosition(openLong(), 100.2, calmSnapshot(100.2), rs)
	if act.Type != models.ActionHold {
		t.Fatalf("expected hold, got %+v", act)
	}
}
