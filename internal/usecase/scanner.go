package usecase

import (
	"context"
	"sync"
	"time"

	domrepo "RangePulse/internal/domain/repository"
	"RangePulse/internal/service/ratelimit"
	"RangePulse/pkg/config"
	applogger "RangePulse/pkg/logger"
)

// scanWorkers bounds concurrent symbol scans per tick.
const scanWorkers = 4

// PeriodicScanner runs the scan pipeline for every configured symbol on a
// fixed interval. Symbols are scanned concurrently with a bounded worker
// pool; a token bucket caps the per-symbol scan rate so a short interval
// cannot hammer ClickHouse.
type PeriodicScanner struct {
	cfg     *config.Config
	scan    *ScanUseCase
	limiter *ratelimit.Limiter
	log     *applogger.Logger

	stopCh  chan struct{}
	stopped sync.Once
	wg      sync.WaitGroup
}

func NewPeriodicScanner(cfg *config.Config, scan *ScanUseCase, log *applogger.Logger) *PeriodicScanner {
	return &PeriodicScanner{
		cfg:     cfg,
		scan:    scan,
		limiter: ratelimit.New(),
		log:     log,
		stopCh:  make(chan struct{}),
	}
}

// Start launches the scan loop. It returns immediately; scanning happens in
// the background until Stop or ctx cancellation.
func (s *PeriodicScanner) Start(ctx context.Context) {
	if !s.cfg.Scanner.Enabled || len(s.cfg.Scanner.Symbols) == 0 {
		s.log.Info("scanner disabled")
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		// first pass right away, then on the ticker
		s.scanAll(ctx)

		ticker := time.NewTicker(s.cfg.Scanner.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopCh:
				return
			case <-ticker.C:
				s.scanAll(ctx)
			}
		}
	}()

	s.log.Info("scanner started",
		applogger.Strings("symbols", s.cfg.Scanner.Symbols),
		applogger.String("tf", s.cfg.Scanner.Timeframe),
		applogger.Duration("interval", s.cfg.Scanner.Interval),
	)
}

// Stop halts the scan loop and waits for in-flight scans to finish.
func (s *PeriodicScanner) Stop() {
	s.stopped.Do(func() { close(s.stopCh) })
	s.wg.Wait()
}

func (s *PeriodicScanner) scanAll(ctx context.Context) {
	tf := domrepo.NormalizeTimeframe(s.cfg.Scanner.Timeframe)
	refill := 1.0 / s.cfg.Scanner.Interval.Seconds()

	sem := make(chan struct{}, scanWorkers)
	var wg sync.WaitGroup
	for _, symbol := range s.cfg.Scanner.Symbols {
		if ctx.Err() != nil {
			break
		}
		// at most one queued scan per symbol per interval
		if !s.limiter.Allow("scan:"+symbol, 2, refill) {
			s.log.Warn("scan throttled", applogger.String("symbol", symbol))
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(symbol string) {
			defer wg.Done()
			defer func() { <-sem }()
			if _, err := s.scan.Scan(ctx, symbol, tf, s.cfg.Scanner.Candles); err != nil {
				s.log.Error("scan failed",
					applogger.String("symbol", symbol),
					applogger.Error(err),
				)
			}
		}(symbol)
	}
	wg.Wait()
}
