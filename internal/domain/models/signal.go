package models

import "time"

// SignalType is the direction of a trading signal.
type SignalType string

const (
	SignalLong    SignalType = "LONG"
	SignalShort   SignalType = "SHORT"
	SignalNeutral SignalType = "NEUTRAL"
)

// Evaluation is the raw output of the confirmation engine for one candle:
// the weighted tallies for both sides plus the ordered list of conditions
// that fired. Reasons are for audit only, never for decisioning.
type Evaluation struct {
	Signal     SignalType
	LongScore  int
	ShortScore int
	Reasons    []string
}

// Confidence returns the winning side's score (0 for NEUTRAL).
func (e Evaluation) Confidence() int {
	switch e.Signal {
	case SignalLong:
		return e.LongScore
	case SignalShort:
		return e.ShortScore
	default:
		return 0
	}
}

// Levels is the protective/target price ladder for an entry.
type Levels struct {
	StopLoss   float64    `json:"stop_loss"`
	TP1        float64    `json:"tp1"`
	TP2        float64    `json:"tp2"`
	TP3        float64    `json:"tp3"`
	SLPercent  float64    `json:"sl_percent"` // stop distance as a fraction of entry
	TPPercent  float64    `json:"tp_percent"` // full target distance as a fraction of entry
	CloseSizes [3]float64 `json:"close_sizes"` // percent of position closed at each TP
}

// SignalRecord is an emitted range-trading signal. Immutable after creation.
type SignalRecord struct {
	ID         string     `json:"id"`
	Symbol     string     `json:"symbol"`
	Timestamp  time.Time  `json:"timestamp"`
	Index      int        `json:"index"` // frame index of the candle that produced the signal
	Type       SignalType `json:"type"`
	EntryPrice float64    `json:"entry_price"`
	StopLoss   float64    `json:"stop_loss"`
	TP1        float64    `json:"tp1"`
	TP2        float64    `json:"tp2"`
	TP3        float64    `json:"tp3"`
	Confidence int        `json:"confidence"`
	LongScore  int        `json:"long_score"`
	ShortScore int        `json:"short_score"`
	Reasons    []string   `json:"reasons"`
	Regime     string     `json:"regime"`
}
