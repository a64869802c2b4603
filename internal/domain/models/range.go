package models

// RangeState is the authoritative reference for range-relative position
// calculations. It is created whole by the detector on each detection window
// and never partially updated.
type RangeState struct {
	IsSideways    bool    `json:"is_sideways"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Mid           float64 `json:"mid"`
	Quarter1      float64 `json:"quarter1"` // 25% of the range above the low
	Quarter3      float64 `json:"quarter3"` // 75% of the range above the low
	RangePercent  float64 `json:"range_percent"`
	Slope         float64 `json:"slope"` // regression slope normalized by mid, in percent
	AvgATRPercent float64 `json:"avg_atr_percent"`
	Volatile      bool    `json:"volatile"` // avg ATR percent above the configured volatility threshold
}

// PositionOf returns where price sits inside the range as 0-100. The second
// return is false for a zero-width range, where the position is undefined.
func (r RangeState) PositionOf(price float64) (float64, bool) {
	width := r.High - r.Low
	if width <= 0 {
		return 0, false
	}
	return (price - r.Low) / width * 100, true
}

// RangePeriod is a contiguous run of candles classified as sideways.
// Start and End are inclusive frame indexes.
type RangePeriod struct {
	Start int        `json:"start"`
	End   int        `json:"end"`
	State RangeState `json:"state"`
}

// Bars returns the period length in candles.
func (p RangePeriod) Bars() int { return p.End - p.Start + 1 }
