package backtest

import (
	"RangePulse/internal/domain/models"
	"RangePulse/internal/services/sideways"
	"RangePulse/pkg/config"
	"RangePulse/pkg/logger"
)

// Config holds simulator tunables. Fees are charged per side on notional.
type Config struct {
	InitialBalance float64
	RiskPercent    float64 // fraction of balance risked per trade
	FeePercent     float64
}

// Simulator walks candles forward and executes signals against their level
// ladders. It is the single trade-simulation loop in the codebase; every
// strategy run goes through it with a SignalRecord stream and the shared
// management engine, so execution behavior cannot drift between runners.
type Simulator struct {
	cfg   Config
	strat config.Strategy
	mgr   *sideways.Manager
	log   *logger.Logger
}

func New(cfg Config, strat config.Strategy, log *logger.Logger) *Simulator {
	return &Simulator{cfg: cfg, strat: strat, mgr: sideways.NewManager(strat), log: log}
}

// openTrade is a Position plus the bookkeeping the simulator owns.
type openTrade struct {
	pos         models.Position
	signalID    string
	rangeState  models.RangeState
	realizedPnL float64
	lastExit    float64
	lastReason  string
}

// Run simulates the signal stream over the frame and returns the report.
// At most one position is open at a time; signals arriving while a position
// is open are skipped. Each position keeps the range state of the period
// that produced its signal so exhaustion checks stay anchored to that range.
func (s *Simulator) Run(symbol string, frame *models.IndicatorFrame, signals []models.SignalRecord, periods []models.RangePeriod) *models.BacktestReport {
	report := &models.BacktestReport{
		Symbol:         symbol,
		InitialBalance: s.cfg.InitialBalance,
		SignalCount:    len(signals),
	}

	sigByIndex := make(map[int]models.SignalRecord, len(signals))
	for _, sig := range signals {
		if _, exists := sigByIndex[sig.Index]; !exists {
			sigByIndex[sig.Index] = sig
		}
	}

	balance := s.cfg.InitialBalance
	peak := balance
	var trade *openTrade

	for i := frame.Warmup; i < frame.Len(); i++ {
		bar := frame.At(i)

		if trade != nil {
			trade.pos.BarsInTrade++

			if stop, hit := s.stopHit(trade, bar); hit {
				balance += s.closeQty(trade, trade.pos.Size, stop, "stop loss hit")
				report.Results = append(report.Results, s.result(symbol, trade, bar, i))
				trade = nil
			} else {
				act := s.mgr.ManagePosition(trade.pos, bar.Close, bar, trade.rangeState)
				done := s.apply(trade, act, bar.Close, &balance)
				if done {
					report.Results = append(report.Results, s.result(symbol, trade, bar, i))
					trade = nil
				}
			}
		} else if sig, ok := sigByIndex[i]; ok {
			trade = s.open(sig, balance)
			if trade != nil {
				trade.rangeState = stateForIndex(periods, sig.Index)
			}
		}

		equity := balance
		if trade != nil {
			equity += unrealized(trade, bar.Close)
		}
		if equity > peak {
			peak = equity
		}
		if peak > 0 {
			dd := (peak - equity) / peak * 100
			if dd > report.MaxDrawdownPct {
				report.MaxDrawdownPct = dd
			}
		}
	}

	// Force-close anything still open at the end of the series.
	if trade != nil {
		last := frame.At(frame.Len() - 1)
		balance += s.closeQty(trade, trade.pos.Size, last.Close, "end of data")
		report.Results = append(report.Results, s.result(symbol, trade, last, frame.Len()-1))
	}

	report.FinalBalance = balance
	report.NetProfit = balance - s.cfg.InitialBalance
	if s.cfg.InitialBalance > 0 {
		report.NetProfitPct = report.NetProfit / s.cfg.InitialBalance * 100
	}
	report.Trades = len(report.Results)
	for _, r := range report.Results {
		if r.Profit > 0 {
			report.Wins++
		} else {
			report.Losses++
		}
	}
	if report.Trades > 0 {
		report.WinRate = float64(report.Wins) / float64(report.Trades) * 100
	}
	return report
}

func (s *Simulator) open(sig models.SignalRecord, balance float64) *openTrade {
	slDist := (sig.EntryPrice - sig.StopLoss) / sig.EntryPrice
	if sig.Type == models.SignalShort {
		slDist = (sig.StopLoss - sig.EntryPrice) / sig.EntryPrice
	}
	size := sideways.CalculatePositionSize(balance, s.cfg.RiskPercent, sig.EntryPrice, slDist)
	if size <= 0 {
		return nil
	}
	if s.log != nil {
		s.log.Debug("opening position",
			logger.String("signal", sig.ID),
			logger.String("side", string(sig.Type)),
			logger.Float64("entry", sig.EntryPrice),
			logger.Float64("size", size),
		)
	}
	return &openTrade{
		pos: models.Position{
			Type:        sig.Type,
			EntryTime:   sig.Timestamp,
			EntryPrice:  sig.EntryPrice,
			Size:        size,
			InitialSize: size,
			StopLoss:    sig.StopLoss,
			TP1:         sig.TP1,
			TP2:         sig.TP2,
			TP3:         sig.TP3,
			CloseSizes:  [3]float64(s.strat.PartialTPSizes),
		},
		signalID: sig.ID,
	}
}

// apply executes a management recommendation against the trade, returning
// true when the position is fully closed.
func (s *Simulator) apply(t *openTrade, act models.ManagementAction, price float64, balance *float64) bool {
	switch act.Type {
	case models.ActionMoveSL:
		t.pos.TrailingActive = true
		t.pos.TrailingStop = act.NewStopLoss
		return false
	case models.ActionClosePartial:
		qty := t.pos.Size * act.ClosePercent / 100
		*balance += s.closeQty(t, qty, price, act.Reason)
		t.pos.Size -= qty
		s.markTier(t, act.Tier)
		return t.pos.Size <= 0
	case models.ActionCloseFull:
		*balance += s.closeQty(t, t.pos.Size, price, act.Reason)
		t.pos.Size = 0
		s.markTier(t, act.Tier)
		return true
	default:
		return false
	}
}

func (s *Simulator) markTier(t *openTrade, tier int) {
	switch tier {
	case 1:
		t.pos.TP1Hit = true
	case 2:
		t.pos.TP2Hit = true
	case 3:
		t.pos.TP3Hit = true
	}
}

// closeQty realizes PnL for qty units at price, net of both-side fees.
func (s *Simulator) closeQty(t *openTrade, qty, price float64, reason string) float64 {
	var pnl float64
	if t.pos.Type == models.SignalShort {
		pnl = qty * (t.pos.EntryPrice - price)
	} else {
		pnl = qty * (price - t.pos.EntryPrice)
	}
	pnl -= qty * (t.pos.EntryPrice + price) * s.cfg.FeePercent / 100
	t.realizedPnL += pnl
	t.lastExit = price
	t.lastReason = reason
	return pnl
}

// stopHit checks the protective stop against the bar's extreme. The
// trailing stop supersedes the original stop once it is tighter.
func (s *Simulator) stopHit(t *openTrade, bar models.IndicatorSnapshot) (float64, bool) {
	stop := t.pos.StopLoss
	if t.pos.Type == models.SignalLong {
		if t.pos.TrailingActive && t.pos.TrailingStop > stop {
			stop = t.pos.TrailingStop
		}
		if bar.Low <= stop {
			return stop, true
		}
		return 0, false
	}
	if t.pos.TrailingActive && t.pos.TrailingStop < stop {
		stop = t.pos.TrailingStop
	}
	if bar.High >= stop {
		return stop, true
	}
	return 0, false
}

func (s *Simulator) result(symbol string, t *openTrade, bar models.IndicatorSnapshot, idx int) models.TradeResult {
	notional := t.pos.InitialSize * t.pos.EntryPrice
	pct := 0.0
	if notional > 0 {
		pct = t.realizedPnL / notional * 100
	}
	return models.TradeResult{
		SignalID:   t.signalID,
		Symbol:     symbol,
		Type:       t.pos.Type,
		EntryTime:  t.pos.EntryTime,
		ExitTime:   bar.Timestamp,
		EntryPrice: t.pos.EntryPrice,
		ExitPrice:  t.lastExit,
		Profit:     t.realizedPnL,
		ProfitPct:  pct,
		ExitReason: t.lastReason,
		BarsHeld:   t.pos.BarsInTrade,
	}
}

func stateForIndex(periods []models.RangePeriod, idx int) models.RangeState {
	for _, p := range periods {
		if idx >= p.Start && idx <= p.End {
			return p.State
		}
	}
	return models.RangeState{}
}

func unrealized(t *openTrade, price float64) float64 {
	if t.pos.Type == models.SignalShort {
		return t.pos.Size * (t.pos.EntryPrice - price)
	}
	return t.pos.Size * (price - t.pos.EntryPrice)
}
