package indicators

import (
	"fmt"
	"math"

	"RangePulse/internal/domain/models"
	"RangePulse/pkg/config"

	talib "github.com/markcheno/go-talib"
)

const stochSlowing = 3

// Build computes the full indicator frame for a candle series. Raw OHLCV is
// copied, never mutated. Rows inside the warm-up prefix carry NaN in every
// indicator column; decision logic must check ValidAt before reading them.
func Build(candles []models.Candle, cfg config.Strategy) (*models.IndicatorFrame, error) {
	if len(candles) == 0 {
		return nil, fmt.Errorf("build frame: empty candle series")
	}
	if err := models.ValidateSeries(candles); err != nil {
		return nil, fmt.Errorf("build frame: %w", err)
	}

	n := len(candles)
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	volumes := make([]float64, n)
	for i, c := range candles {
		highs[i] = c.High
		lows[i] = c.Low
		closes[i] = c.Close
		volumes[i] = c.Volume
	}

	warmup := warmupBars(cfg)
	frame := &models.IndicatorFrame{
		Candles: candles,
		Rows:    make([]models.IndicatorSnapshot, n),
		Warmup:  warmup,
	}
	if n <= warmup {
		// Too short for any defined row; still return the frame so callers
		// can report insufficient data uniformly.
		for i := range frame.Rows {
			frame.Rows[i] = nanRow(candles[i])
		}
		return frame, nil
	}

	atr := talib.Atr(highs, lows, closes, cfg.ATRPeriod)
	rsi := talib.Rsi(closes, cfg.RSIPeriod)
	stochK, stochD := talib.Stoch(highs, lows, closes,
		cfg.StochKPeriod, stochSlowing, talib.SMA, cfg.StochDPeriod, talib.SMA)
	cci := talib.Cci(highs, lows, closes, cfg.CCIPeriod)
	bbUpper, bbMiddle, bbLower := talib.BBands(closes, cfg.BBPeriod, cfg.BBStd, cfg.BBStd, talib.SMA)
	keltMid := talib.Ema(closes, cfg.KeltnerEMAPeriod)
	keltATR := talib.Atr(highs, lows, closes, cfg.KeltnerATRPeriod)
	volSMA := talib.Sma(volumes, cfg.VolumeMAPeriod)

	for i := 0; i < n; i++ {
		if i < warmup {
			frame.Rows[i] = nanRow(candles[i])
			continue
		}
		s := models.IndicatorSnapshot{
			Timestamp: candles[i].Timestamp,
			Open:      candles[i].Open,
			High:      candles[i].High,
			Low:       candles[i].Low,
			Close:     candles[i].Close,
			Volume:    candles[i].Volume,
			ATR:       atr[i],
			RSI:       rsi[i],
			StochK:    stochK[i],
			StochD:    stochD[i],
			CCI:       cci[i],
			BBUpper:   bbUpper[i],
			BBMiddle:  bbMiddle[i],
			BBLower:   bbLower[i],
			BBWidth:   bbUpper[i] - bbLower[i],
			KeltMid:   keltMid[i],
			KeltUpper: keltMid[i] + cfg.KeltnerMultiplier*keltATR[i],
			KeltLower: keltMid[i] - cfg.KeltnerMultiplier*keltATR[i],
			FisherRSI: fisher(rsi[i]),
			VolumeSMA: volSMA[i],
			Momentum:  closes[i] - closes[i-cfg.MomentumPeriod],
		}
		frame.Rows[i] = s
	}
	return frame, nil
}

// warmupBars returns the first index at which every indicator column is a
// genuine value rather than a partially-filled rolling window.
func warmupBars(cfg config.Strategy) int {
	w := cfg.ATRPeriod
	for _, p := range []int{
		cfg.RSIPeriod,
		cfg.StochKPeriod + stochSlowing + cfg.StochDPeriod,
		cfg.CCIPeriod,
		cfg.BBPeriod,
		cfg.KeltnerEMAPeriod,
		cfg.KeltnerATRPeriod,
		cfg.VolumeMAPeriod,
		cfg.MomentumPeriod,
	} {
		if p > w {
			w = p
		}
	}
	return w + 1
}

// fisher applies the Fisher transform to RSI normalized into (-1, 1),
// sharpening turning points at the extremes. Input is clamped short of +-1
// so the transform stays finite for RSI at 0 or 100.
func fisher(rsi float64) float64 {
	x := (rsi - 50) / 50
	if x > 0.999 {
		x = 0.999
	}
	if x < -0.999 {
		x = -0.999
	}
	return 0.5 * math.Log((1+x)/(1-x))
}

func nanRow(c models.Candle) models.IndicatorSnapshot {
	nan := math.NaN()
	return models.IndicatorSnapshot{
		Timestamp: c.Timestamp,
		Open:      c.Open,
		High:      c.High,
		Low:       c.Low,
		Close:     c.Close,
		Volume:    c.Volume,
		ATR:       nan, RSI: nan, StochK: nan, StochD: nan, CCI: nan,
		BBUpper: nan, BBMiddle: nan, BBLower: nan, BBWidth: nan,
		KeltUpper: nan, KeltMid: nan, KeltLower: nan,
		FisherRSI: nan, VolumeSMA: nan, Momentum: nan,
	}
}
