package sideways

import (
	"math"

	"RangePulse/internal/domain/models"
	"RangePulse/pkg/config"
)

// fallbackStopPercent is used when ATR is unavailable or non-positive.
// Sideways trades use tight stops because targets are capped by the range.
const fallbackStopPercent = 0.01

// CalculateEntryExitLevels turns an entry and the current ATR into the
// protective stop and the three partial take-profit prices. TP3 is clamped
// to the opposite range boundary, and TP1/TP2 are rescaled so the configured
// fraction spacing is preserved relative to the clamped TP3: the strategy
// never targets prices outside the range it assumes will hold.
func CalculateEntryExitLevels(entry float64, st models.SignalType, atr float64, rs models.RangeState, cfg config.Strategy) models.Levels {
	slPct := fallbackStopPercent
	if atr > 0 && !math.IsNaN(atr) && entry > 0 {
		slPct = atr * cfg.SLATRMultiplier / entry
	}
	tpPct := slPct * cfg.TPSLRatio

	lv := models.Levels{
		SLPercent:  slPct,
		TPPercent:  tpPct,
		CloseSizes: [3]float64(cfg.PartialTPSizes),
	}
	fr := cfg.PartialTPFracs

	if st == models.SignalShort {
		lv.StopLoss = entry * (1 + slPct)
		lv.TP3 = entry * (1 - tpPct*fr[2])
		if rs.IsSideways && rs.Low > 0 && lv.TP3 < rs.Low {
			lv.TP3 = rs.Low
		}
		d3 := entry - lv.TP3
		lv.TP1 = entry - d3*fr[0]/fr[2]
		lv.TP2 = entry - d3*fr[1]/fr[2]
		return lv
	}

	lv.StopLoss = entry * (1 - slPct)
	lv.TP3 = entry * (1 + tpPct*fr[2])
	if rs.IsSideways && rs.High > 0 && lv.TP3 > rs.High {
		lv.TP3 = rs.High
	}
	d3 := lv.TP3 - entry
	lv.TP1 = entry + d3*fr[0]/fr[2]
	lv.TP2 = entry + d3*fr[1]/fr[2]
	return lv
}

// CalculatePositionSize sizes a position so that hitting the stop loses
// riskFraction of the balance. The stop distance is floored at 0.5% so a
// near-zero stop cannot blow the division up.
func CalculatePositionSize(balance, riskFraction, entry, slDistancePct float64) float64 {
	if balance <= 0 || riskFraction <= 0 || entry <= 0 {
		return 0
	}
	dist := slDistancePct
	if dist < minStopDistance {
		dist = minStopDistance
	}
	return balance * riskFraction / (entry * dist)
}
