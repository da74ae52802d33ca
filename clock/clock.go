// Package clock provides the timezone-aware clock and the canonical
// timestamp format shared by the journal, news and alert packages.
package clock

import (
	"fmt"
	"time"
)

const (
	// Layout is the canonical storage form for timestamps.
	Layout = "2006-01-02 15:04:05"
	// DateLayout is the day-only form used for calendar lookups.
	DateLayout = "2006-01-02"
	// DisplayLayout is the user-facing form in bot messages.
	DisplayLayout = "02 Jan 2006, 15:04"
)

// Clock yields the current time in a fixed reference location. Engines
// take a Clock so tests can pin "now".
type Clock interface {
	Now() time.Time
	Location() *time.Location
}

// Real is a Clock backed by the system clock.
type Real struct {
	loc *time.Location
}

// NewReal returns a Real clock in the named timezone, e.g. "Europe/London".
func NewReal(tz string) (*Real, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", tz, err)
	}
	return &Real{loc: loc}, nil
}

func (r *Real) Now() time.Time           { return time.Now().In(r.loc) }
func (r *Real) Location() *time.Location { return r.loc }

// Fixed is a Clock pinned to a single instant, for tests.
type Fixed struct {
	T time.Time
}

func (f Fixed) Now() time.Time           { return f.T }
func (f Fixed) Location() *time.Location { return f.T.Location() }

// Format renders t in the canonical storage form.
func Format(t time.Time) string {
	return t.Format(Layout)
}

// Parse reads a canonical timestamp in the given location.
func Parse(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(Layout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// FormatDisplay renders t for bot messages, e.g. "29 Aug 2026, 14:30".
func FormatDisplay(t time.Time) string {
	return t.Format(DisplayLayout)
}

// DayBounds returns [midnight, midnight+24h) around t in t's location.
func DayBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.Add(24 * time.Hour)
}
