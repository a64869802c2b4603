package sideways

import (
	"errors"

	"RangePulse/internal/domain/models"
	"RangePulse/pkg/config"
	"RangePulse/pkg/logger"
)

// Detector classifies trailing candle windows as range-bound or trending.
// One detector serves one (symbol, timeframe) series at a time; it is not
// safe for concurrent use across pairs.
type Detector struct {
	cfg config.Strategy
	log *logger.Logger
}

func NewDetector(cfg config.Strategy, log *logger.Logger) *Detector {
	return &Detector{cfg: cfg, log: log}
}

// MinBars is the minimum series length before any window can be evaluated.
func (d *Detector) MinBars() int {
	return d.cfg.LookbackPeriod + d.cfg.ATRPeriod
}

// DetectWindow classifies the lookback window ending at index end (inclusive).
// It never panics on valid numeric input; insufficient or degenerate windows
// come back as a not-sideways state plus a typed sentinel error.
func (d *Detector) DetectWindow(frame *models.IndicatorFrame, end int) (models.RangeState, error) {
	var rs models.RangeState

	if end < 0 || end >= frame.Len() || end+1 < d.MinBars() {
		return rs, ErrInsufficientData
	}
	start := end - d.cfg.LookbackPeriod + 1
	if start < frame.Warmup {
		return rs, ErrInsufficientData
	}

	high := frame.At(start).High
	low := frame.At(start).Low
	atrSum := 0.0
	for i := start; i <= end; i++ {
		row := frame.At(i)
		if !row.Valid() {
			return rs, ErrDegenerateInput
		}
		if row.High > high {
			high = row.High
		}
		if row.Low < low {
			low = row.Low
		}
		atrSum += row.ATR
	}

	mid := (high + low) / 2
	if mid <= 0 {
		return rs, ErrDegenerateInput
	}

	n := d.cfg.LookbackPeriod
	rs.High = high
	rs.Low = low
	rs.Mid = mid
	rs.Quarter1 = low + (high-low)*0.25
	rs.Quarter3 = low + (high-low)*0.75
	rs.RangePercent = (high - low) / mid * 100
	rs.Slope = closeSlope(frame, start, end) / mid * 100
	rs.AvgATRPercent = atrSum / float64(n) / mid * 100
	rs.Volatile = rs.AvgATRPercent > d.cfg.ATRVolatilityThreshold

	rs.IsSideways = rs.RangePercent < d.cfg.MaxRangePercent &&
		abs(rs.Slope) < d.cfg.TrendSlopeThreshold
	return rs, nil
}

// DetectSidewaysMarket walks the whole frame and returns the contiguous
// sideways periods of at least min_sideways_duration bars. Each period
// carries the range state of its most recent window. Windows that cannot be
// evaluated count as not-sideways; they never abort the walk.
func (d *Detector) DetectSidewaysMarket(frame *models.IndicatorFrame) []models.RangePeriod {
	if frame.Len() < d.MinBars() {
		if d.log != nil {
			d.log.Debug("sideways detection skipped: series too short",
				logger.Int("bars", frame.Len()),
				logger.Int("required", d.MinBars()),
			)
		}
		return nil
	}

	var periods []models.RangePeriod
	open := false
	var cur models.RangePeriod

	for i := 0; i < frame.Len(); i++ {
		rs, err := d.DetectWindow(frame, i)
		if err != nil || !rs.IsSideways {
			if err != nil && !errors.Is(err, ErrInsufficientData) && d.log != nil {
				d.log.Debug("window not evaluable", logger.Int("index", i), logger.Error(err))
			}
			if open {
				open = false
				if cur.Bars() >= d.cfg.MinSidewaysDuration {
					periods = append(periods, cur)
				}
			}
			continue
		}
		if !open {
			open = true
			cur = models.RangePeriod{Start: i, End: i, State: rs}
			continue
		}
		cur.End = i
		cur.State = rs
	}
	if open && cur.Bars() >= d.cfg.MinSidewaysDuration {
		periods = append(periods, cur)
	}
	return periods
}

// closeSlope fits a least-squares line to closes over [start, end] and
// returns its per-bar slope in price units.
func closeSlope(frame *models.IndicatorFrame, start, end int) float64 {
	n := float64(end - start + 1)
	if n < 2 {
		return 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i := start; i <= end; i++ {
		x := float64(i - start)
		y := frame.At(i).Close
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
