package engine

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"chokepoint-radar/internal/config"
	"chokepoint-radar/internal/detector"
	"chokepoint-radar/internal/domain"
	"chokepoint-radar/internal/report"
	"chokepoint-radar/internal/sources"
	"chokepoint-radar/internal/storage/memory"
)

// stubSource feeds the detector canned items.
type stubSource struct {
	items []domain.RawItem
}

func (s *stubSource) Name() string { return "Stub" }

func (s *stubSource) Fetch(context.Context) ([]domain.RawItem, error) {
	return s.items, nil
}

// flakyStore fails the first N Save calls, then delegates.
type flakyStore struct {
	*memory.SignalStore
	failures int
	attempts int
}

func (s *flakyStore) Save(ctx context.Context, sig *domain.Signal) (int64, error) {
	s.attempts++
	if s.attempts <= s.failures {
		return 0, errors.New("connection reset")
	}
	return s.SignalStore.Save(ctx, sig)
}

func testConfig() config.Config {
	return config.Config{
		DetectionPatterns: map[string][]string{
			"access_control": {"mandatory"},
			"scale":          {"everyone"},
		},
		ScoringWeights:        config.DefaultScoringWeights,
		MinSignalScore:        5.0,
		HighPriorityThreshold: 8.5,
		ScanIntervalMinutes:   1,
	}
}

func newTestEngine(cfg config.Config, opts Options) *Engine {
	opts.Config = cfg
	if opts.Detector == nil {
		opts.Detector = detector.New(detector.Options{
			Config: cfg,
			Sources: []sources.Source{&stubSource{items: []domain.RawItem{
				{Title: "mandatory everyone rollout", Source: "Stub"},
			}}},
			Logger: log.New(io.Discard, "", 0),
		})
	}
	if opts.Printer == nil {
		opts.Printer = report.NewPrinterTo(&bytes.Buffer{})
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	e := New(opts)
	e.sleep = func(context.Context, time.Duration) {}
	return e
}

func TestRunOnce_SaveThenDedupe(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSignalStore()
	e := newTestEngine(testConfig(), Options{Store: store})

	result, err := e.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if result.Detected != 1 || result.Saved != 1 || result.Duplicates != 0 {
		t.Errorf("first cycle = %+v", result)
	}
	if len(result.Signals) != 1 || result.Signals[0].ID == 0 {
		t.Errorf("saved signal missing identity: %+v", result.Signals)
	}

	// Same title inside the 48h window is a duplicate.
	result, err = e.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce (second): %v", err)
	}
	if result.Detected != 1 || result.Saved != 0 || result.Duplicates != 1 {
		t.Errorf("second cycle = %+v", result)
	}

	active, _ := store.GetActive(ctx, 10)
	if len(active) != 1 {
		t.Errorf("len(active) = %d, want 1", len(active))
	}
}

func TestRunOnce_AutoWatchlist(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSignalStore()

	cfg := testConfig()
	cfg.HighPriorityThreshold = 5.0 // every saved signal qualifies
	e := newTestEngine(cfg, Options{Store: store})

	if _, err := e.RunOnce(ctx); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	watched, err := store.GetWatchlist(ctx)
	if err != nil {
		t.Fatalf("GetWatchlist: %v", err)
	}
	if len(watched) != 1 {
		t.Fatalf("len(watched) = %d, want 1", len(watched))
	}
	if watched[0].WatchlistNotes != "Auto-added: High priority" {
		t.Errorf("notes = %q", watched[0].WatchlistNotes)
	}
}

func TestRunOnce_NoAutoWatchlistBelowThreshold(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSignalStore()
	e := newTestEngine(testConfig(), Options{Store: store})

	if _, err := e.RunOnce(ctx); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	watched, _ := store.GetWatchlist(ctx)
	if len(watched) != 0 {
		t.Errorf("len(watched) = %d, want 0", len(watched))
	}
}

func TestSaveWithRetry(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{SignalStore: memory.NewSignalStore(), failures: 2}
	e := newTestEngine(testConfig(), Options{Store: store})

	var slept []time.Duration
	e.sleep = func(_ context.Context, d time.Duration) { slept = append(slept, d) }

	result, err := e.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if result.Saved != 1 {
		t.Errorf("Saved = %d, want 1 after retries", result.Saved)
	}
	if store.attempts != 3 {
		t.Errorf("attempts = %d, want 3", store.attempts)
	}

	// Linear backoff: 500ms then 1s.
	want := []time.Duration{500 * time.Millisecond, time.Second}
	if len(slept) != len(want) || slept[0] != want[0] || slept[1] != want[1] {
		t.Errorf("backoff = %v, want %v", slept, want)
	}
}

func TestSaveWithRetry_Exhausted(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{SignalStore: memory.NewSignalStore(), failures: 99}
	e := newTestEngine(testConfig(), Options{Store: store})

	// A dropped signal does not fail the cycle.
	result, err := e.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if result.Saved != 0 {
		t.Errorf("Saved = %d, want 0", result.Saved)
	}
	if store.attempts != 3 {
		t.Errorf("attempts = %d, want 3", store.attempts)
	}
}

func TestRunOnce_NotifiesOnCycle(t *testing.T) {
	store := memory.NewSignalStore()

	var got *CycleResult
	e := newTestEngine(testConfig(), Options{
		Store:   store,
		OnCycle: func(r CycleResult) { got = &r },
	})

	if _, err := e.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if got == nil {
		t.Fatal("OnCycle not invoked")
	}
	if got.Saved != 1 {
		t.Errorf("OnCycle result = %+v", got)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	store := memory.NewSignalStore()
	e := newTestEngine(testConfig(), Options{Store: store})

	ctx, cancel := context.WithCancel(context.Background())
	e.sleep = func(context.Context, time.Duration) { cancel() }

	err := e.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run = %v, want context.Canceled", err)
	}
}
