package sideways

import (
	"RangePulse/internal/domain/models"

	"github.com/google/uuid"
)

const regimeSideways = "sideways"

// GenerateSignals evaluates every candle inside the detected sideways
// periods and emits a full SignalRecord for each non-NEUTRAL evaluation.
// Records are immutable once built; the simulator and the API read them
// as-is.
func (e *Engine) GenerateSignals(symbol string, frame *models.IndicatorFrame, periods []models.RangePeriod) []models.SignalRecord {
	var out []models.SignalRecord
	for _, p := range periods {
		start := p.Start
		if start <= frame.Warmup {
			start = frame.Warmup + 1
		}
		for i := start; i <= p.End && i < frame.Len(); i++ {
			cur := frame.At(i)
			prev := frame.At(i - 1)
			ev := e.Evaluate(cur, prev, p.State)
			if ev.Signal == models.SignalNeutral {
				continue
			}

			lv := CalculateEntryExitLevels(cur.Close, ev.Signal, cur.ATR, p.State, e.cfg)
			out = append(out, models.SignalRecord{
				ID:         uuid.NewString(),
				Symbol:     symbol,
				Timestamp:  cur.Timestamp,
				Index:      i,
				Type:       ev.Signal,
				EntryPrice: cur.Close,
				StopLoss:   lv.StopLoss,
				TP1:        lv.TP1,
				TP2:        lv.TP2,
				TP3:        lv.TP3,
				Confidence: ev.Confidence(),
				LongScore:  ev.LongScore,
				ShortScore: ev.ShortScore,
				Reasons:    ev.Reasons,
				Regime:     regimeSideways,
			})
		}
	}
	return out
}
