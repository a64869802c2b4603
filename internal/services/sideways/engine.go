package sideways

import (
	"fmt"

	"RangePulse/internal/domain/models"
	"RangePulse/pkg/config"
	"RangePulse/pkg/logger"
)

// Point weights per evidence source. These are deliberately fixed and
// visible: range position and RSI divergence carry the most weight because
// they best anticipate mean-reversion turns inside a range, while single
// oscillator extremes are weak on their own.
const (
	weightRSIExtreme    = 2
	weightDivergence    = 3
	weightStochExtreme  = 1
	weightStochCross    = 2
	weightCCIExtreme    = 1
	weightBBProximity   = 2
	weightRangePosition = 3
	weightSqueeze       = 1
	weightVolumeSpike   = 1
	weightFisherExtreme = 2
)

// Engine scores independent oscillator and price-action conditions into a
// directional signal for a detected sideways regime. A signal fires only
// when the winning side reaches min_confirmation_signals AND strictly beats
// the opposing side; dropping either condition reintroduces whipsaw.
type Engine struct {
	cfg config.Strategy
	log *logger.Logger
}

func NewEngine(cfg config.Strategy, log *logger.Logger) *Engine {
	return &Engine{cfg: cfg, log: log}
}

// Evaluate scores the current candle against the range state. Undefined
// indicator rows or a non-sideways regime always resolve to NEUTRAL.
func (e *Engine) Evaluate(cur, prev models.IndicatorSnapshot, rs models.RangeState) models.Evaluation {
	ev := models.Evaluation{Signal: models.SignalNeutral}
	if !rs.IsSideways || !cur.Valid() || !prev.Valid() {
		return ev
	}

	long := func(pts int, reason string) {
		ev.LongScore += pts
		ev.Reasons = append(ev.Reasons, reason)
	}
	short := func(pts int, reason string) {
		ev.ShortScore += pts
		ev.Reasons = append(ev.Reasons, reason)
	}

	// RSI extremes
	if cur.RSI < e.cfg.RSIOversold {
		long(weightRSIExtreme, fmt.Sprintf("rsi oversold (%.1f < %.1f)", cur.RSI, e.cfg.RSIOversold))
	} else if cur.RSI > e.cfg.RSIOverbought {
		short(weightRSIExtreme, fmt.Sprintf("rsi overbought (%.1f > %.1f)", cur.RSI, e.cfg.RSIOverbought))
	}

	// RSI divergence: price pushes a fresh extreme while RSI refuses to follow.
	if cur.Low < prev.Low && cur.RSI > prev.RSI && cur.RSI < 50 {
		long(weightDivergence, "bullish rsi divergence")
	} else if cur.High > prev.High && cur.RSI < prev.RSI && cur.RSI > 50 {
		short(weightDivergence, "bearish rsi divergence")
	}

	// Stochastic extremes and %K/%D crossovers
	if cur.StochK < e.cfg.StochOversold && cur.StochD < e.cfg.StochOversold {
		long(weightStochExtreme, fmt.Sprintf("stoch oversold (k=%.1f d=%.1f)", cur.StochK, cur.StochD))
	} else if cur.StochK > e.cfg.StochOverbought && cur.StochD > e.cfg.StochOverbought {
		short(weightStochExtreme, fmt.Sprintf("stoch overbought (k=%.1f d=%.1f)", cur.StochK, cur.StochD))
	}
	if prev.StochK <= prev.StochD && cur.StochK > cur.StochD && cur.StochK < 50 {
		long(weightStochCross, "stoch bullish cross below 50")
	} else if prev.StochK >= prev.StochD && cur.StochK < cur.StochD && cur.StochK > 50 {
		short(weightStochCross, "stoch bearish cross above 50")
	}

	// CCI extremes
	if cur.CCI < -e.cfg.CCIThreshold {
		long(weightCCIExtreme, fmt.Sprintf("cci extreme (%.0f)", cur.CCI))
	} else if cur.CCI > e.cfg.CCIThreshold {
		short(weightCCIExtreme, fmt.Sprintf("cci extreme (%.0f)", cur.CCI))
	}

	// Bollinger band proximity
	if cur.BBLower > 0 && abs(cur.Close-cur.BBLower)/cur.BBLower*100 <= e.cfg.BBProximityPercent {
		long(weightBBProximity, "price at lower bollinger band")
	} else if cur.BBUpper > 0 && abs(cur.Close-cur.BBUpper)/cur.BBUpper*100 <= e.cfg.BBProximityPercent {
		short(weightBBProximity, "price at upper bollinger band")
	}

	// Range position: the regime-specific edge, weighted most heavily.
	// Undefined for a zero-width range, which contributes nothing.
	if pos, ok := rs.PositionOf(cur.Close); ok {
		if pos < e.cfg.RangeFloorPercent {
			long(weightRangePosition, fmt.Sprintf("near range floor (%.0f%%)", pos))
		} else if pos > e.cfg.RangeCeilingPercent {
			short(weightRangePosition, fmt.Sprintf("near range ceiling (%.0f%%)", pos))
		}
	}

	// Bollinger/Keltner squeeze: momentum sign breaks the tie.
	if kw := cur.KeltnerWidth(); kw > 0 && cur.BBWidth < e.cfg.BBSqueezeThreshold*kw {
		if cur.Momentum > 0 {
			long(weightSqueeze, "squeeze with positive momentum")
		} else if cur.Momentum < 0 {
			short(weightSqueeze, "squeeze with negative momentum")
		}
	}

	// Volume spike in the candle's direction
	if cur.VolumeSMA > 0 && cur.Volume > e.cfg.VolumeSpikeThreshold*cur.VolumeSMA {
		if cur.Close > cur.Open {
			long(weightVolumeSpike, "bullish volume spike")
		} else if cur.Close < cur.Open {
			short(weightVolumeSpike, "bearish volume spike")
		}
	}

	// Fisher-transformed RSI extremes fire earlier than raw RSI.
	if cur.FisherRSI < -e.cfg.FisherThreshold {
		long(weightFisherExtreme, fmt.Sprintf("fisher rsi extreme (%.2f)", cur.FisherRSI))
	} else if cur.FisherRSI > e.cfg.FisherThreshold {
		short(weightFisherExtreme, fmt.Sprintf("fisher rsi extreme (%.2f)", cur.FisherRSI))
	}

	ev.Signal = e.decide(ev.LongScore, ev.ShortScore)
	return ev
}

// decide applies the asymmetric veto: the winner needs both the absolute
// minimum score and a strict majority over the opposing side. Ties and
// under-threshold scores always resolve to NEUTRAL.
func (e *Engine) decide(long, short int) models.SignalType {
	switch {
	case long >= e.cfg.MinConfirmationSignals && long > short:
		return models.SignalLong
	case short >= e.cfg.MinConfirmationSignals && short > long:
		return models.SignalShort
	default:
		return models.SignalNeutral
	}
}
