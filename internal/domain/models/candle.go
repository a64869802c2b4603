package models

import (
	"fmt"
	"time"
)

// Candle represents a single OHLCV record.
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Symbol    string    `json:"symbol"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// ValidateSeries checks the ascending-time and no-duplicate invariants of a
// candle series. Raw OHLC is never mutated after loading; everything derived
// lives in the IndicatorFrame.
func ValidateSeries(candles []Candle) error {
	for i := 1; i < len(candles); i++ {
		if !candles[i].Timestamp.After(candles[i-1].Timestamp) {
			return fmt.Errorf("candle series not strictly ascending at index %d (%s >= %s)",
				i, candles[i-1].Timestamp, candles[i].Timestamp)
		}
	}
	return nil
}
