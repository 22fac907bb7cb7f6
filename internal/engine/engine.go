// Package engine drives the continuous detection loop: run a cycle,
// deduplicate against recent history, persist qualifying signals, and
// auto-watchlist high-priority ones.
package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"chokepoint-radar/internal/config"
	"chokepoint-radar/internal/detector"
	"chokepoint-radar/internal/domain"
	"chokepoint-radar/internal/observability"
	"chokepoint-radar/internal/report"
	"chokepoint-radar/internal/storage"
)

// Save retry policy. A failed save is retried with linear backoff; after
// the attempts are exhausted the signal is logged and dropped, and the
// cycle continues. Persistence trouble never breaks the polling cadence.
const (
	saveAttempts = 3
	saveBackoff  = 500 * time.Millisecond
	dedupeWindow = 48 * time.Hour
)

// CycleResult summarizes one completed detection cycle.
type CycleResult struct {
	Detected   int // qualifying signals returned by the detector
	Saved      int // new signals persisted
	Duplicates int
	Signals    []domain.Signal // the saved signals, with identities assigned
}

// Engine owns the polling loop.
type Engine struct {
	cfg      config.Config
	detector *detector.Detector
	store    storage.SignalStore
	printer  *report.Printer
	logger   *log.Logger
	onCycle  func(CycleResult)
	sleep    func(ctx context.Context, d time.Duration)
}

// Options contains configuration for creating an Engine.
type Options struct {
	Config   config.Config
	Detector *detector.Detector
	Store    storage.SignalStore
	Printer  *report.Printer
	Logger   *log.Logger

	// OnCycle, when set, is invoked after each completed cycle. The
	// HTTP layer uses it to push results to connected dashboards.
	OnCycle func(CycleResult)
}

// New creates an Engine.
func New(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	printer := opts.Printer
	if printer == nil {
		printer = report.NewPrinter()
	}
	return &Engine{
		cfg:      opts.Config,
		detector: opts.Detector,
		store:    opts.Store,
		printer:  printer,
		logger:   logger,
		onCycle:  opts.OnCycle,
		sleep:    sleepCtx,
	}
}

// Run executes detection cycles until the context is cancelled, sleeping
// the configured scan interval between cycles. On cancellation the
// in-flight cycle finishes its bookkeeping and a final summary is printed.
func (e *Engine) Run(ctx context.Context) error {
	interval := e.cfg.ScanInterval()
	e.printer.Startup(interval)

	cycle := 0
	for {
		cycle++
		e.printer.CycleHeader(cycle, time.Now())

		if _, err := e.RunOnce(ctx); err != nil {
			e.logger.Printf("Cycle %d error: %v", cycle, err)
		}

		if ctx.Err() != nil {
			break
		}

		e.logger.Printf("Waiting %v until next cycle...", interval)
		e.sleep(ctx, interval)
		if ctx.Err() != nil {
			break
		}
	}

	e.finalSummary(context.WithoutCancel(ctx))
	return ctx.Err()
}

// RunOnce executes one complete detection cycle: dashboard, detection,
// dedupe, save, auto-watchlist.
func (e *Engine) RunOnce(ctx context.Context) (CycleResult, error) {
	start := time.Now()

	stats, err := e.store.DashboardStats(ctx)
	if err != nil {
		observability.RecordCycle("error", time.Since(start).Seconds())
		return CycleResult{}, fmt.Errorf("dashboard stats: %w", err)
	}
	e.printer.Dashboard(stats)

	signals := e.detector.RunCycle(ctx)
	result := CycleResult{Detected: len(signals)}
	if len(signals) == 0 {
		e.logger.Println("No new signals detected this cycle")
		observability.RecordCycle("success", time.Since(start).Seconds())
		e.notify(result)
		return result, nil
	}
	e.logger.Printf("Detected %d potential signals", len(signals))

	for _, sig := range signals {
		checkStart := time.Now()
		exists, err := e.store.Exists(ctx, sig.Title, dedupeWindow)
		observability.RecordStoreQuery("exists", time.Since(checkStart).Seconds(), err)
		if err != nil {
			e.logger.Printf("Duplicate check failed for %q: %v", sig.Title, err)
			continue
		}
		if exists {
			result.Duplicates++
			observability.RecordSignalDeduped()
			continue
		}

		id, err := e.saveWithRetry(ctx, &sig)
		if err != nil {
			e.logger.Printf("Dropping signal %q after %d save attempts: %v", sig.Title, saveAttempts, err)
			continue
		}
		sig.ID = id
		sig.Status = domain.StatusActive
		result.Saved++
		result.Signals = append(result.Signals, sig)
		observability.RecordSignalSaved()

		e.printer.Signal(sig)

		if sig.TotalScore >= e.cfg.HighPriorityThreshold {
			if err := e.store.AddToWatchlist(ctx, id, "Auto-added: High priority"); err != nil {
				e.logger.Printf("Auto-watchlist failed for signal %d: %v", id, err)
			} else {
				observability.RecordAutoWatchlisted()
				e.logger.Printf("Auto-added signal %d to watchlist (score: %.1f)", id, sig.TotalScore)
			}
		}
	}

	e.logger.Printf("Saved %d new signals", result.Saved)
	observability.RecordCycle("success", time.Since(start).Seconds())
	e.notify(result)
	return result, nil
}

// saveWithRetry persists one signal with bounded linear backoff.
func (e *Engine) saveWithRetry(ctx context.Context, sig *domain.Signal) (int64, error) {
	var lastErr error
	for attempt := 1; attempt <= saveAttempts; attempt++ {
		saveStart := time.Now()
		id, err := e.store.Save(ctx, sig)
		observability.RecordStoreQuery("save", time.Since(saveStart).Seconds(), err)
		if err == nil {
			return id, nil
		}
		lastErr = err
		if attempt < saveAttempts {
			e.sleep(ctx, time.Duration(attempt)*saveBackoff)
			if ctx.Err() != nil {
				break
			}
		}
	}
	return 0, lastErr
}

// finalSummary prints the closing dashboard, top signals and sector
// breakdown on shutdown.
func (e *Engine) finalSummary(ctx context.Context) {
	stats, err := e.store.DashboardStats(ctx)
	if err != nil {
		e.logger.Printf("Final summary unavailable: %v", err)
		return
	}
	top, err := e.store.GetActive(ctx, 5)
	if err != nil {
		e.logger.Printf("Final summary unavailable: %v", err)
		return
	}
	sectors, err := e.store.SectorStats(ctx)
	if err != nil {
		e.logger.Printf("Final summary unavailable: %v", err)
		return
	}
	e.printer.FinalSummary(stats, top, sectors)
}

func (e *Engine) notify(result CycleResult) {
	if e.onCycle != nil {
		e.onCycle(result)
	}
}

// sleepCtx sleeps for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
