package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain repository.Metrics using Prometheus.
type Recorder struct {
	signalsTotal    *prometheus.CounterVec
	sidewaysWindows *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	scanDuration    prometheus.Histogram
	backtestPnL     *prometheus.GaugeVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		signalsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rangepulse_signals_total",
				Help: "Total range-trading signals emitted",
			},
			[]string{"symbol", "side"},
		),
		sidewaysWindows: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rangepulse_sideways_windows_total",
				Help: "Total windows classified as sideways",
			},
			[]string{"symbol"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rangepulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		scanDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "rangepulse_scan_duration_seconds",
				Help:    "Duration of full scan pipeline runs",
				Buckets: prometheus.DefBuckets,
			},
		),
		backtestPnL: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rangepulse_backtest_pnl_percent",
				Help: "Net profit percent of the last backtest per symbol",
			},
			[]string{"symbol"},
		),
	}
}

// RecordSignal records an emitted signal.
func (r *Recorder) RecordSignal(symbol, side string) {
	r.signalsTotal.WithLabelValues(symbol, side).Inc()
}

// RecordSidewaysWindow records a window classified as sideways.
func (r *Recorder) RecordSidewaysWindow(symbol string) {
	r.sidewaysWindows.WithLabelValues(symbol).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordScanDuration records scan pipeline latency in seconds.
func (r *Recorder) RecordScanDuration(seconds float64) {
	r.scanDuration.Observe(seconds)
}

// RecordBacktestPnL records the net profit percent of a backtest.
func (r *Recorder) RecordBacktestPnL(symbol string, pnlPct float64) {
	r.backtestPnL.WithLabelValues(symbol).Set(pnlPct)
}
