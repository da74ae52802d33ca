package news

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the FCS API economic calendar endpoint.
const DefaultBaseURL = "https://fcsapi.com/api-v3"

// Fetcher retrieves qualifying calendar events for a given day.
// A non-nil error means the provider call failed; a nil error with an
// empty slice means the provider answered and there is genuinely
// nothing scheduled. Callers must treat those differently.
type Fetcher interface {
	Fetch(ctx context.Context, day time.Time) ([]Event, error)
}

// FCSClient fetches the economic calendar from fcsapi.com.
type FCSClient struct {
	baseURL    string
	accessKey  string
	loc        *time.Location
	httpClient *http.Client
	logger     *slog.Logger
}

// NewFCSClient returns a calendar client. Event timestamps from the
// provider carry no zone; they are interpreted in loc.
func NewFCSClient(accessKey string, loc *time.Location, logger *slog.Logger) *FCSClient {
	return &FCSClient{
		baseURL:   DefaultBaseURL,
		accessKey: accessKey,
		loc:       loc,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// SetBaseURL overrides the endpoint, for tests.
func (c *FCSClient) SetBaseURL(u string) { c.baseURL = u }

// calendarEntry is one row of the FCS calendar response.
type calendarEntry struct {
	Date    string `json:"date"`
	Time    string `json:"time"`
	Title   string `json:"title"`
	Country string `json:"country"`
	Impact  string `json:"impact"`
}

// calendarResponse is the FCS API envelope.
type calendarResponse struct {
	Status   bool            `json:"status"`
	Msg      string          `json:"msg"`
	Response []calendarEntry `json:"response"`
}

// Fetch retrieves HIGH and MEDIUM impact events for day. LOW impact
// entries and entries whose timestamp will not parse are dropped here
// and never reach the cache.
func (c *FCSClient) Fetch(ctx context.Context, day time.Time) ([]Event, error) {
	if c.accessKey == "" {
		return nil, fmt.Errorf("fcs: access key not set")
	}

	dateStr := day.Format("2006-01-02")
	params := url.Values{}
	params.Set("access_key", c.accessKey)
	params.Set("date_from", dateStr)
	params.Set("date_to", dateStr)
	params.Set("impact", "high,medium")

	apiURL := fmt.Sprintf("%s/economy/calendar?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fcs: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fcs: execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fcs: API error (status %d): %s", resp.StatusCode, trimForErr(body))
	}

	var cal calendarResponse
	if err := json.NewDecoder(resp.Body).Decode(&cal); err != nil {
		return nil, fmt.Errorf("fcs: decode response: %w", err)
	}
	if !cal.Status {
		return nil, fmt.Errorf("fcs: provider error: %s", cal.Msg)
	}

	events := make([]Event, 0, len(cal.Response))
	for _, entry := range cal.Response {
		impact := Impact(strings.ToUpper(entry.Impact))
		if !ValidImpact(impact) {
			continue
		}

		ts, err := time.ParseInLocation("2006-01-02 15:04:05", entry.Date+" "+entry.Time, c.loc)
		if err != nil {
			// One bad row must not fail the whole fetch.
			c.logger.Warn("skipping event with unparseable timestamp",
				"date", entry.Date, "time", entry.Time, "title", entry.Title)
			continue
		}

		title := entry.Title
		if title == "" {
			title = "Unknown Event"
		}

		events = append(events, Event{
			Time:     ts,
			Title:    title,
			Currency: entry.Country,
			Impact:   impact,
		})
	}

	sortEvents(events)
	return events, nil
}

func trimForErr(b []byte) string {
	const max = 200
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
