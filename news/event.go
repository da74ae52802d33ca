// Package news is the economic-calendar core: the cached event
// snapshot, the calendar fetcher, and the risk/refresh engine that
// tags trades and feeds the alert dispatcher.
package news

import (
	"fmt"
	"sort"
	"time"
)

// Impact is the provider-assigned severity of a calendar event. LOW
// impact events are discarded at fetch time and never stored.
type Impact string

const (
	High   Impact = "HIGH"
	Medium Impact = "MEDIUM"
)

// ValidImpact reports whether i is an impact level the cache accepts.
func ValidImpact(i Impact) bool {
	return i == High || i == Medium
}

// Risk is the news-risk classification frozen onto a trade at creation.
type Risk string

const (
	RiskHigh Risk = "HIGH"
	RiskLow  Risk = "LOW"
)

// Event is one calendar entry. Immutable once cached; (Time, Title)
// identifies it for alert deduplication.
type Event struct {
	Time     time.Time `json:"time"`
	Title    string    `json:"title"`
	Currency string    `json:"currency,omitempty"`
	Impact   Impact    `json:"impact"`
}

// Key returns the stable identifier used by the alert dedup set.
func (e Event) Key() string {
	return fmt.Sprintf("%s_%s", e.Time.Format("2006-01-02 15:04:05"), e.Title)
}

// sortEvents orders events ascending by timestamp.
func sortEvents(events []Event) {
	sort.Slice(events, func(i, j int) bool {
		return events[i].Time.Before(events[j].Time)
	})
}
