// Package report renders the console dashboard: cycle banners, signal
// cards, top lists, sector breakdowns and the shutdown summary.
package report

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fatih/color"

	"chokepoint-radar/internal/domain"
	"chokepoint-radar/internal/storage"
)

const rule = 80

var (
	header    = color.New(color.FgCyan, color.Bold)
	highlight = color.New(color.FgYellow)
	good      = color.New(color.FgGreen)
	dim       = color.New(color.Faint)
)

// Printer renders views to a writer (stdout by default).
type Printer struct {
	out io.Writer
}

// NewPrinter creates a Printer writing to stdout.
func NewPrinter() *Printer {
	return &Printer{out: os.Stdout}
}

// NewPrinterTo creates a Printer writing to w. Used by tests.
func NewPrinterTo(w io.Writer) *Printer {
	return &Printer{out: w}
}

// Startup prints the engine banner.
func (p *Printer) Startup(interval time.Duration) {
	p.line("=")
	header.Fprintln(p.out, "CHOKEPOINT RADAR - STARTING")
	p.line("=")
	fmt.Fprintln(p.out, "Infrastructure Chokepoint Intelligence Engine")
	fmt.Fprintf(p.out, "Scan Interval: %d minutes\n", int(interval.Minutes()))
	p.line("=")
}

// CycleHeader prints the per-cycle banner.
func (p *Printer) CycleHeader(cycle int, at time.Time) {
	fmt.Fprintln(p.out)
	p.line("#")
	header.Fprintf(p.out, "DETECTION CYCLE %d - %s\n", cycle, at.Format("2006-01-02 15:04:05"))
	p.line("#")
}

// Dashboard prints the aggregate snapshot.
func (p *Printer) Dashboard(stats storage.DashboardStats) {
	fmt.Fprintln(p.out)
	p.line("=")
	header.Fprintln(p.out, "CHOKEPOINT RADAR - DASHBOARD")
	p.line("=")
	fmt.Fprintf(p.out, "Active Signals: %d\n", stats.ActiveSignals)
	fmt.Fprintf(p.out, "Average Score: %.1f\n", stats.AvgScore)
	fmt.Fprintf(p.out, "High Priority: %d\n", stats.HighPriority)
	fmt.Fprintf(p.out, "Hidden Gems: %d\n", stats.HiddenGems)
	fmt.Fprintf(p.out, "New (24h): %d\n", stats.Recent24h)
	p.line("=")
}

// Signal prints one detected signal card.
func (p *Printer) Signal(sig domain.Signal) {
	fmt.Fprintln(p.out)
	p.line("-")
	header.Fprintf(p.out, "SIGNAL #%d: %s\n", sig.ID, clip(sig.Title, 60))
	p.line("-")
	fmt.Fprintf(p.out, "Sector: %s | Source: %s\n", sig.Sector, sig.Source)
	p.scoreLine(sig.TotalScore)
	fmt.Fprintf(p.out, "  - Inevitability: %.0f%%\n", sig.InevitabilityScore)
	fmt.Fprintf(p.out, "  - Moat Potential: %.0f%%\n", sig.MoatScore)
	fmt.Fprintf(p.out, "  - Timing Window: %.0f%%\n", sig.TimingScore)
	fmt.Fprintf(p.out, "Toll Mechanism: %s\n", sig.TollMechanism)

	if len(sig.EarlyMovers) > 0 {
		movers := sig.EarlyMovers
		if len(movers) > 3 {
			movers = movers[:3]
		}
		fmt.Fprintf(p.out, "Early Movers: %s\n", strings.Join(movers, ", "))
	}

	fmt.Fprintln(p.out, "\nBreadcrumbs:")
	crumbs := sig.Breadcrumbs
	if len(crumbs) > 5 {
		crumbs = crumbs[:5]
	}
	for _, crumb := range crumbs {
		dim.Fprintf(p.out, "  - %s\n", crumb)
	}

	fmt.Fprintf(p.out, "\nURL: %s\n", sig.URL)
}

// TopSignals prints the ranked signal list.
func (p *Printer) TopSignals(signals []domain.Signal) {
	fmt.Fprintln(p.out)
	p.line("=")
	header.Fprintf(p.out, "TOP %d SIGNALS\n", len(signals))
	p.line("=")

	for i, sig := range signals {
		fmt.Fprintln(p.out)
		p.rankLine(i+1, sig)
		fmt.Fprintf(p.out, "   Sector: %s | %s\n", sig.Sector, sig.TollMechanism)
		fmt.Fprintf(p.out, "   Source: %s\n", sig.Source)
	}
}

// SectorBreakdown prints per-sector aggregates sorted by average score.
func (p *Printer) SectorBreakdown(stats map[string]storage.SectorStats) {
	fmt.Fprintln(p.out)
	p.line("=")
	header.Fprintln(p.out, "SECTOR BREAKDOWN")
	p.line("=")

	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if stats[names[i]].AvgScore != stats[names[j]].AvgScore {
			return stats[names[i]].AvgScore > stats[names[j]].AvgScore
		}
		return names[i] < names[j]
	})

	for _, name := range names {
		s := stats[name]
		fmt.Fprintf(p.out, "\n%s:\n", name)
		fmt.Fprintf(p.out, "  Signals: %d\n", s.Count)
		fmt.Fprintf(p.out, "  Avg Score: %.1f\n", s.AvgScore)
		fmt.Fprintf(p.out, "  Max Score: %.1f\n", s.MaxScore)
	}
}

// Watchlist prints the watchlist view.
func (p *Printer) Watchlist(entries []domain.WatchedSignal) {
	fmt.Fprintln(p.out)
	p.line("=")
	header.Fprintln(p.out, "WATCHLIST")
	p.line("=")

	if len(entries) == 0 {
		fmt.Fprintln(p.out, "No signals in watchlist")
		return
	}

	for _, ws := range entries {
		fmt.Fprintf(p.out, "\n[%.1f] %s\n", ws.TotalScore, clip(ws.Title, 60))
		fmt.Fprintf(p.out, "  Sector: %s | Added: %s\n", ws.Sector, ws.WatchlistAdded.Format("2006-01-02 15:04"))
		if ws.WatchlistNotes != "" {
			fmt.Fprintf(p.out, "  Notes: %s\n", ws.WatchlistNotes)
		}
	}
}

// FinalSummary prints the shutdown report.
func (p *Printer) FinalSummary(stats storage.DashboardStats, top []domain.Signal, sectors map[string]storage.SectorStats) {
	fmt.Fprintln(p.out)
	p.line("=")
	header.Fprintln(p.out, "FINAL SUMMARY")
	p.line("=")
	p.Dashboard(stats)
	p.TopSignals(top)
	p.SectorBreakdown(sectors)
	fmt.Fprintln(p.out)
	p.line("=")
	fmt.Fprintln(p.out, "Chokepoint Radar stopped")
	p.line("=")
}

func (p *Printer) scoreLine(score float64) {
	switch {
	case score >= 8.5:
		good.Fprintf(p.out, "Score: %.1f/10\n", score)
	case score >= 7.5:
		highlight.Fprintf(p.out, "Score: %.1f/10\n", score)
	default:
		fmt.Fprintf(p.out, "Score: %.1f/10\n", score)
	}
}

func (p *Printer) rankLine(rank int, sig domain.Signal) {
	fmt.Fprintf(p.out, "%d. [%.1f] %s\n", rank, sig.TotalScore, clip(sig.Title, 60))
}

func (p *Printer) line(ch string) {
	fmt.Fprintln(p.out, strings.Repeat(ch, rule))
}

// clip bounds s to n runes, never splitting a rune mid-sequence.
func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
