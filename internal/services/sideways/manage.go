package sideways

import (
	"fmt"

	"RangePulse/internal/domain/models"
	"RangePulse/pkg/config"
)

// oscillator flip while in-position closes half as an early de-risk,
// distinct from a full exit.
const defensiveClosePercent = 50

// Manager decides position-management actions tick by tick. It never
// mutates the Position; applying the action is the simulator's job.
type Manager struct {
	cfg config.Strategy
}

func NewManager(cfg config.Strategy) *Manager {
	return &Manager{cfg: cfg}
}

// ManagePosition returns exactly one recommended action for the open
// position at the current price. Checks run in priority order: range
// exhaustion, the TP ladder (strictly T1 then T2 then T3), defensive
// oscillator exits, the time stop, then trailing-stop maintenance.
func (m *Manager) ManagePosition(pos models.Position, price float64, snap models.IndicatorSnapshot, rs models.RangeState) models.ManagementAction {
	isLong := pos.Type == models.SignalLong

	// Range exhaustion: price reached the opposite extreme, the range has
	// been used up regardless of the fixed TP ladder.
	if rp, ok := exhausted(rs, price, isLong, m.cfg); ok {
		return models.ManagementAction{
			Type:   models.ActionCloseFull,
			Reason: fmt.Sprintf("range exhausted (position %.0f%%)", rp),
		}
	}

	// TP ladder, strictly ordered: TPn is only checked once TPn-1 is done.
	if !pos.TP1Hit {
		if reached(price, pos.TP1, isLong) {
			return models.ManagementAction{
				Type:         models.ActionClosePartial,
				Reason:       "tp1 reached",
				ClosePercent: pos.CloseSizes[0],
				Tier:         1,
			}
		}
	} else if !pos.TP2Hit {
		if reached(price, pos.TP2, isLong) {
			return models.ManagementAction{
				Type:         models.ActionClosePartial,
				Reason:       "tp2 reached",
				ClosePercent: pos.CloseSizes[1],
				Tier:         2,
			}
		}
	} else if !pos.TP3Hit && reached(price, pos.TP3, isLong) {
		return models.ManagementAction{Type: models.ActionCloseFull, Reason: "tp3 reached", Tier: 3}
	}

	// Opposite oscillator extreme: de-risk half without abandoning the trade.
	if snap.Valid() {
		if isLong && (snap.RSI > m.cfg.RSIOverbought || snap.StochK > m.cfg.StochOverbought) {
			return models.ManagementAction{
				Type:         models.ActionClosePartial,
				Reason:       "oscillator flipped overbought",
				ClosePercent: defensiveClosePercent,
			}
		}
		if !isLong && (snap.RSI < m.cfg.RSIOversold || snap.StochK < m.cfg.StochOversold) {
			return models.ManagementAction{
				Type:         models.ActionClosePartial,
				Reason:       "oscillator flipped oversold",
				ClosePercent: defensiveClosePercent,
			}
		}
	}

	profit := pos.ProfitPercent(price)

	// Time stop: range theses decay; a stale flat-or-positive trade is closed.
	if pos.BarsInTrade >= m.cfg.ExitAfterBars && profit >= 0 {
		return models.ManagementAction{
			Type:   models.ActionCloseFull,
			Reason: fmt.Sprintf("time stop after %d bars", pos.BarsInTrade),
		}
	}

	// Trailing stop: arms once profit reaches the threshold, then only ever
	// tightens in the position's favor.
	if profit >= m.cfg.TrailAfterProfit {
		var trail float64
		if isLong {
			trail = price * (1 - m.cfg.TrailDistance/100)
			if !pos.TrailingActive || trail > pos.TrailingStop {
				return models.ManagementAction{
					Type:        models.ActionMoveSL,
					Reason:      "trailing stop advanced",
					NewStopLoss: trail,
				}
			}
		} else {
			trail = price * (1 + m.cfg.TrailDistance/100)
			if !pos.TrailingActive || trail < pos.TrailingStop {
				return models.ManagementAction{
					Type:        models.ActionMoveSL,
					Reason:      "trailing stop advanced",
					NewStopLoss: trail,
				}
			}
		}
	}

	return models.ManagementAction{Type: models.ActionHold, Reason: "no management trigger"}
}

func reached(price, target float64, isLong bool) bool {
	if isLong {
		return price >= target
	}
	return price <= target
}

// exhausted reports whether price crossed the opposite range extreme.
func exhausted(rs models.RangeState, price float64, isLong bool, cfg config.Strategy) (float64, bool) {
	pos, ok := rs.PositionOf(price)
	if !ok || !rs.IsSideways {
		return 0, false
	}
	if isLong && pos > cfg.RangeCeilingPercent {
		return pos, true
	}
	if !isLong && pos < cfg.RangeFloorPercent {
		return pos, true
	}
	return 0, false
}
