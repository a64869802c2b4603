package models

import "time"

// Position is simulator-owned state for one open trade. The management engine
// only reads it; mutation is the simulator's responsibility.
type Position struct {
	Type           SignalType
	EntryTime      time.Time
	EntryPrice     float64
	Size           float64 // remaining size in base units
	InitialSize    float64
	StopLoss       float64
	TP1            float64
	TP2            float64
	TP3            float64
	TP1Hit         bool
	TP2Hit         bool
	TP3Hit         bool
	TrailingActive bool
	TrailingStop   float64
	BarsInTrade    int
	CloseSizes     [3]float64
}

// ProfitPercent returns unrealized profit at price, in percent of entry.
func (p Position) ProfitPercent(price float64) float64 {
	if p.EntryPrice <= 0 {
		return 0
	}
	if p.Type == SignalShort {
		return (p.EntryPrice - price) / p.EntryPrice * 100
	}
	return (price - p.EntryPrice) / p.EntryPrice * 100
}

// ActionType enumerates position-management recommendations.
type ActionType string

const (
	ActionHold         ActionType = "hold"
	ActionMoveSL       ActionType = "move_sl"
	ActionClosePartial ActionType = "close_partial"
	ActionCloseFull    ActionType = "close_full"
)

// ManagementAction is the single recommendation returned per management tick.
type ManagementAction struct {
	Type         ActionType
	Reason       string
	NewStopLoss  float64 // set when Type == ActionMoveSL
	ClosePercent float64 // set when Type == ActionClosePartial
	Tier         int     // 1..3 when a take-profit tier triggered, else 0
}

// TradeResult records one closed (or fully unwound) simulated trade.
type TradeResult struct {
	SignalID   string     `json:"signal_id"`
	Symbol     string     `json:"symbol"`
	Type       SignalType `json:"type"`
	EntryTime  time.Time  `json:"entry_time"`
	ExitTime   time.Time  `json:"exit_time"`
	EntryPrice float64    `json:"entry_price"`
	ExitPrice  float64    `json:"exit_price"`
	Profit     float64    `json:"profit"`
	ProfitPct  float64    `json:"profit_pct"`
	ExitReason string     `json:"exit_reason"`
	BarsHeld   int        `json:"bars_held"`
}

// BacktestReport summarizes a simulator run.
type BacktestReport struct {
	Symbol         string        `json:"symbol"`
	InitialBalance float64       `json:"initial_balance"`
	FinalBalance   float64       `json:"final_balance"`
	NetProfit      float64       `json:"net_profit"`
	NetProfitPct   float64       `json:"net_profit_pct"`
	Trades         int           `json:"trades"`
	Wins           int           `json:"wins"`
	Losses         int           `json:"losses"`
	WinRate        float64       `json:"win_rate"`
	MaxDrawdownPct float64       `json:"max_drawdown_pct"`
	SignalCount    int           `json:"signal_count"`
	Results        []TradeResult `json:"results"`
}
