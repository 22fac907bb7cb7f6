// Package detector runs one detection cycle: fan out across all enabled
// sources, analyze every fetched item, filter and rank the results.
package detector

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"chokepoint-radar/internal/analyzer"
	"chokepoint-radar/internal/config"
	"chokepoint-radar/internal/domain"
	"chokepoint-radar/internal/observability"
	"chokepoint-radar/internal/sources"
)

// Detector orchestrates detection cycles across registered sources.
type Detector struct {
	cfg      config.Config
	analyzer *analyzer.Analyzer
	sources  []sources.Source
	logger   *log.Logger
}

// Options contains configuration for creating a Detector.
type Options struct {
	Config   config.Config
	Analyzer *analyzer.Analyzer
	Sources  []sources.Source
	Logger   *log.Logger
}

// New creates a Detector. Sources should already be filtered to the
// enabled set; BuildSources does that from configuration.
func New(opts Options) *Detector {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	a := opts.Analyzer
	if a == nil {
		a = analyzer.New(opts.Config)
	}
	return &Detector{
		cfg:      opts.Config,
		analyzer: a,
		sources:  opts.Sources,
		logger:   logger,
	}
}

// BuildSources constructs the enabled source adapters from configuration.
func BuildSources(cfg config.Config, logger *log.Logger) []sources.Source {
	var list []sources.Source
	if cfg.SourceEnabled("hackernews") {
		list = append(list, sources.NewHackerNewsSource(""))
	}
	if cfg.SourceEnabled("github") {
		list = append(list, sources.NewGitHubSource(""))
	}
	if cfg.SourceEnabled("reddit") {
		list = append(list, sources.NewRedditSource("", cfg.Sources["reddit"].Subreddits, logger))
	}
	if cfg.SourceEnabled("arxiv") {
		list = append(list, sources.NewArxivSource("", cfg.Sources["arxiv"].Categories, logger))
	}
	return list
}

// fetchResult is the settled outcome of one source task: items or an error,
// never both. One failure never cancels sibling fetches.
type fetchResult struct {
	source string
	items  []domain.RawItem
	err    error
}

// RunCycle executes one detection cycle and returns qualifying signals
// sorted by total score descending (stable: ties keep fetch order).
// Individual source failures are logged and contribute zero items; the
// cycle itself never fails.
func (d *Detector) RunCycle(ctx context.Context) []domain.Signal {
	results := make([]fetchResult, len(d.sources))

	var wg sync.WaitGroup
	for i, src := range d.sources {
		wg.Add(1)
		go func(i int, src sources.Source) {
			defer wg.Done()
			start := time.Now()
			items, err := src.Fetch(ctx)
			observability.RecordSourceFetch(src.Name(), time.Since(start).Seconds(), err)
			results[i] = fetchResult{source: src.Name(), items: items, err: err}
		}(i, src)
	}
	wg.Wait()

	var signals []domain.Signal
	for _, res := range results {
		if res.err != nil {
			d.logger.Printf("Detection error (%s): %v", res.source, res.err)
			continue
		}
		for _, item := range res.items {
			sig := d.analyzer.Analyze(item)
			if sig == nil {
				continue
			}
			if sig.TotalScore >= d.cfg.MinSignalScore {
				signals = append(signals, *sig)
			}
		}
	}

	sort.SliceStable(signals, func(i, j int) bool {
		return signals[i].TotalScore > signals[j].TotalScore
	})

	observability.RecordSignalsDetected(len(signals))
	return signals
}
