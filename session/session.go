// Package session tags trades with the trading session they were
// placed in, based purely on the hour of day in the reference timezone.
package session

// Session is one of the three named trading sessions.
type Session string

const (
	Asia    Session = "Asia"
	London  Session = "London"
	NewYork Session = "New York"
)

// Range is an inclusive hour-of-day range belonging to one session.
type Range struct {
	Session    Session
	Start, End int
}

// DefaultTable partitions the 24-hour day:
//
//	Asia     00:00 - 06:59
//	London   07:00 - 12:59
//	New York 13:00 - 23:59
var DefaultTable = []Range{
	{Asia, 0, 6},
	{London, 7, 12},
	{NewYork, 13, 23},
}

// Classify maps an hour (0-23) to its session. An hour that no range
// claims falls back to New York; that only happens with a broken
// table, which ValidateTable exists to catch.
func Classify(hour int) Session {
	return ClassifyWith(DefaultTable, hour)
}

// ClassifyWith classifies against a custom partition table.
func ClassifyWith(table []Range, hour int) Session {
	for _, r := range table {
		if hour >= r.Start && hour <= r.End {
			return r.Session
		}
	}
	return NewYork
}

// ValidateTable reports whether the ranges cover hours 0..23 exactly
// once. Call it whenever the table is reconfigured.
func ValidateTable(table []Range) bool {
	var seen [24]int
	for _, r := range table {
		if r.Start < 0 || r.End > 23 || r.Start > r.End {
			return false
		}
		for h := r.Start; h <= r.End; h++ {
			seen[h]++
		}
	}
	for _, n := range seen {
		if n != 1 {
			return false
		}
	}
	return true
}

// Emoji returns the flag shown next to a session in bot messages.
func Emoji(s Session) string {
	switch s {
	case Asia:
		return "🌏"
	case London:
		return "🇬🇧"
	case NewYork:
		return "🇺🇸"
	}
	return "📍"
}
