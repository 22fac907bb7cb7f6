package report

import (
	"bytes"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"chokepoint-radar/internal/domain"
	"chokepoint-radar/internal/storage"
)

func TestPrinter_Signal(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinterTo(&buf)

	p.Signal(domain.Signal{
		ID:                 7,
		Title:              "Mandatory settlement API for everyone",
		Sector:             "Fintech",
		Source:             "HackerNews",
		URL:                "https://example.com",
		TotalScore:         8.7,
		InevitabilityScore: 86,
		MoatScore:          65,
		TimingScore:        50,
		TollMechanism:      domain.TollAPI,
		EarlyMovers:        []string{"Stripe", "Plaid", "Adyen", "Wise"},
		Breadcrumbs:        []string{"access_control: mandatory", "scale: everyone"},
	})

	out := buf.String()
	for _, want := range []string{
		"SIGNAL #7",
		"Sector: Fintech | Source: HackerNews",
		"Score: 8.7/10",
		"Inevitability: 86%",
		"Toll Mechanism: API",
		"access_control: mandatory",
		"URL: https://example.com",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Output missing %q", want)
		}
	}

	// Mover list on the card is capped at three.
	if strings.Contains(out, "Wise") {
		t.Error("Expected early movers capped at 3")
	}
}

func TestPrinter_Dashboard(t *testing.T) {
	var buf bytes.Buffer
	NewPrinterTo(&buf).Dashboard(storage.DashboardStats{
		ActiveSignals: 12,
		AvgScore:      7.4,
		HighPriority:  3,
		HiddenGems:    2,
		Recent24h:     5,
	})

	out := buf.String()
	for _, want := range []string{
		"Active Signals: 12",
		"Average Score: 7.4",
		"High Priority: 3",
		"Hidden Gems: 2",
		"New (24h): 5",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Output missing %q", want)
		}
	}
}

func TestPrinter_SectorBreakdownOrder(t *testing.T) {
	var buf bytes.Buffer
	NewPrinterTo(&buf).SectorBreakdown(map[string]storage.SectorStats{
		"DevTools": {Count: 1, AvgScore: 6.0, MaxScore: 6.0},
		"Fintech":  {Count: 3, AvgScore: 7.7, MaxScore: 9.0},
	})

	out := buf.String()
	if strings.Index(out, "Fintech") > strings.Index(out, "DevTools") {
		t.Error("Expected sectors ordered by average score descending")
	}
}

func TestPrinter_SignalMultibyteTitle(t *testing.T) {
	var buf bytes.Buffer
	NewPrinterTo(&buf).Signal(domain.Signal{
		ID:    1,
		Title: strings.Repeat("é", 80),
	})

	if !utf8.ValidString(buf.String()) {
		t.Error("Clipped title produced invalid UTF-8")
	}
}

func TestPrinter_WatchlistEmpty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinterTo(&buf).Watchlist(nil)

	if !strings.Contains(buf.String(), "No signals in watchlist") {
		t.Error("Expected empty-watchlist message")
	}
}

func TestPrinter_Watchlist(t *testing.T) {
	var buf bytes.Buffer
	NewPrinterTo(&buf).Watchlist([]domain.WatchedSignal{{
		Signal: domain.Signal{
			Title:      "Mandatory settlement API",
			Sector:     "Fintech",
			TotalScore: 9.1,
		},
		WatchlistAdded: time.Date(2026, 8, 1, 10, 30, 0, 0, time.UTC),
		WatchlistNotes: "Auto-added: High priority",
	}})

	out := buf.String()
	if !strings.Contains(out, "[9.1] Mandatory settlement API") {
		t.Errorf("Output missing entry line:\n%s", out)
	}
	if !strings.Contains(out, "Added: 2026-08-01 10:30") {
		t.Errorf("Output missing added timestamp:\n%s", out)
	}
	if !strings.Contains(out, "Notes: Auto-added: High priority") {
		t.Errorf("Output missing notes:\n%s", out)
	}
}
