package models

import (
	"math"
	"time"
)

// IndicatorSnapshot is a single fully-typed row of an IndicatorFrame.
// Indicators are named fields, never a string-keyed bag, so the confirmation
// rules can be enumerated and tested in isolation.
type IndicatorSnapshot struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64

	ATR       float64
	RSI       float64
	StochK    float64
	StochD    float64
	CCI       float64
	BBUpper   float64
	BBMiddle  float64
	BBLower   float64
	BBWidth   float64
	KeltUpper float64
	KeltMid   float64
	KeltLower float64
	FisherRSI float64
	VolumeSMA float64
	Momentum  float64
}

// Valid reports whether every indicator in the row is defined. Warm-up rows
// carry NaN and must never reach decision logic.
func (s IndicatorSnapshot) Valid() bool {
	for _, v := range []float64{
		s.ATR, s.RSI, s.StochK, s.StochD, s.CCI,
		s.BBUpper, s.BBMiddle, s.BBLower, s.BBWidth,
		s.KeltUpper, s.KeltMid, s.KeltLower,
		s.FisherRSI, s.VolumeSMA, s.Momentum,
	} {
		if math.IsNaN(v) {
			return false
		}
	}
	return true
}

// KeltnerWidth returns the Keltner channel width, used for squeeze detection.
func (s IndicatorSnapshot) KeltnerWidth() float64 {
	return s.KeltUpper - s.KeltLower
}

// IndicatorFrame is a candle series plus derived indicator columns, one row
// per candle, aligned by index.
type IndicatorFrame struct {
	Candles []Candle
	Rows    []IndicatorSnapshot
	Warmup  int // first index with a fully defined row
}

// Len returns the number of rows.
func (f *IndicatorFrame) Len() int { return len(f.Rows) }

// At returns the snapshot at index i.
func (f *IndicatorFrame) At(i int) IndicatorSnapshot { return f.Rows[i] }

// ValidAt reports whether index i is in range and past the warm-up prefix.
func (f *IndicatorFrame) ValidAt(i int) bool {
	return i >= 0 && i < len(f.Rows) && i >= f.Warmup && f.Rows[i].Valid()
}
