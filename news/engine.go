package news

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rustyeddy/journalbot/clock"
	"github.com/rustyeddy/journalbot/session"
)

// Engine owns the cached calendar snapshot. Refresh replaces the cache
// wholesale; CheckRisk and DueWithin classify timestamps against it.
// All cache access goes through the engine's mutex, so the periodic
// refresh, the alert tick and the bot handlers can share one instance.
type Engine struct {
	mu      sync.Mutex
	store   *FileStore
	fetcher Fetcher
	clk     clock.Clock
	logger  *slog.Logger

	riskWindow time.Duration
	retention  time.Duration
}

// NewEngine wires the cache store, fetcher and clock together.
// riskWindow is the ± window around an event that flags a trade HIGH
// risk; retention bounds how long stale events survive pruning.
func NewEngine(store *FileStore, fetcher Fetcher, clk clock.Clock, logger *slog.Logger, riskWindow, retention time.Duration) *Engine {
	return &Engine{
		store:      store,
		fetcher:    fetcher,
		clk:        clk,
		logger:     logger,
		riskWindow: riskWindow,
		retention:  retention,
	}
}

// Refresh prunes stale events, fetches today's calendar and overwrites
// the cache. Returns the number of events loaded; a provider failure
// leaves the cache unavailable and returns 0.
func (e *Engine) Refresh(ctx context.Context) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clk.Now()
	if err := e.store.Prune(e.retention, now); err != nil {
		e.logger.Warn("prune news cache", "error", err)
	}

	events, err := e.fetcher.Fetch(ctx, now)
	if err != nil {
		e.logger.Error("news refresh failed", "error", err)
		if err := e.store.Save(nil, false, now); err != nil {
			e.logger.Error("persist unavailable cache", "error", err)
		}
		return 0
	}

	if err := e.store.Save(events, true, now); err != nil {
		e.logger.Error("persist news cache", "error", err)
	}
	e.logger.Info("news cache refreshed", "events", len(events))
	return len(events)
}

// CheckRisk classifies a trade timestamp: HIGH when any cached
// HIGH/MEDIUM event lies within the risk window (boundary inclusive),
// LOW otherwise. An unavailable or empty cache trivially yields LOW.
func (e *Engine) CheckRisk(ts time.Time) Risk {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, ev := range e.store.Load().Events {
		// The fetcher already filters impact; keep the guard for
		// manually edited cache files.
		if !ValidImpact(ev.Impact) {
			continue
		}
		diff := ts.Sub(ev.Time)
		if diff < 0 {
			diff = -diff
		}
		if diff <= e.riskWindow {
			return RiskHigh
		}
	}
	return RiskLow
}

// Tag computes the frozen session and news-risk pair for a trade
// placed at ts. Invoked exactly once, at trade creation.
func (e *Engine) Tag(ts time.Time) (session.Session, Risk) {
	return session.Classify(ts.Hour()), e.CheckRisk(ts)
}

// DueWithin returns cached events whose timestamp falls inside the
// half-open window [now+lead, now+lead+tolerance). The dispatcher polls
// this faster than the window width, so every event lands in at least
// one tick.
func (e *Engine) DueWithin(lead, tolerance time.Duration) []Event {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clk.Now()
	min := now.Add(lead)
	max := min.Add(tolerance)

	var due []Event
	for _, ev := range e.store.Load().Events {
		if !ValidImpact(ev.Impact) {
			continue
		}
		if !ev.Time.Before(min) && ev.Time.Before(max) {
			due = append(due, ev)
		}
	}
	return due
}

// Today returns the cached events inside the current local day, sorted
// ascending, plus whether the last refresh succeeded. Callers use the
// flag to tell "quiet day" apart from "provider down".
func (e *Engine) Today() ([]Event, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c := e.store.Load()
	start, end := clock.DayBounds(e.clk.Now())

	var todays []Event
	for _, ev := range c.Events {
		if !ev.Time.Before(start) && ev.Time.Before(end) {
			todays = append(todays, ev)
		}
	}
	return todays, c.APIAvailable
}

// AddEvent manually inserts a calendar event, keeping the cache sorted
// and the availability flag untouched. Rejects impacts outside
// HIGH/MEDIUM and zero timestamps; no partial mutation on failure.
func (e *Engine) AddEvent(ev Event) error {
	if !ValidImpact(ev.Impact) {
		return fmt.Errorf("impact must be HIGH or MEDIUM, got %q", ev.Impact)
	}
	if ev.Time.IsZero() {
		return fmt.Errorf("event timestamp is required")
	}
	if ev.Title == "" {
		return fmt.Errorf("event title is required")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	c := e.store.Load()
	events := append(c.Events, ev)
	// Save re-sorts and restamps LastRefresh; availability is preserved.
	if err := e.store.Save(events, c.APIAvailable, e.clk.Now()); err != nil {
		return fmt.Errorf("persist manual event: %w", err)
	}
	return nil
}

// RiskWindow exposes the configured window for display purposes.
func (e *Engine) RiskWindow() time.Duration { return e.riskWindow }
