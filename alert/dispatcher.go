// Package alert turns cached calendar events into pre-event
// notifications: a periodic poll of the news engine, an in-memory
// dedup set, and a best-effort fan-out to subscribed chats.
package alert

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rustyeddy/journalbot/clock"
	"github.com/rustyeddy/journalbot/news"
)

// Notifier delivers one message to one recipient. Implementations are
// best-effort; the dispatcher isolates per-recipient failures.
type Notifier interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// SubscriberSource yields the chat ids to fan out to on each tick.
type SubscriberSource interface {
	ListSubscribers() ([]int64, error)
}

// Dispatcher polls for events due in the lead window and alerts each
// one at most once per process lifetime. The alerted set is memory
// only: a restart inside a due window can re-alert, which is accepted
// rather than papered over with persistence.
type Dispatcher struct {
	engine   *news.Engine
	notifier Notifier
	subs     SubscriberSource
	logger   *slog.Logger

	lead      time.Duration
	tolerance time.Duration

	mu      sync.Mutex
	alerted map[string]struct{}
}

// NewDispatcher wires the engine, notifier and subscriber source.
// lead is how far ahead of an event the alert fires (default 10m);
// tolerance is the width of the due window and must stay at or below
// the polling period or events can slip between ticks.
func NewDispatcher(engine *news.Engine, notifier Notifier, subs SubscriberSource, logger *slog.Logger, lead, tolerance time.Duration) *Dispatcher {
	return &Dispatcher{
		engine:    engine,
		notifier:  notifier,
		subs:      subs,
		logger:    logger,
		lead:      lead,
		tolerance: tolerance,
		alerted:   make(map[string]struct{}),
	}
}

// Poll runs one dispatcher tick: fetch due events, skip the already
// alerted, deliver the rest to every subscriber. A failing recipient
// is logged and skipped; it never aborts the tick or unmarks the
// event.
func (d *Dispatcher) Poll(ctx context.Context) {
	due := d.engine.DueWithin(d.lead, d.tolerance)
	if len(due) == 0 {
		return
	}

	recipients, err := d.subs.ListSubscribers()
	if err != nil {
		d.logger.Error("list subscribers", "error", err)
		return
	}

	for _, ev := range due {
		key := ev.Key()

		d.mu.Lock()
		_, seen := d.alerted[key]
		if !seen {
			d.alerted[key] = struct{}{}
		}
		d.mu.Unlock()
		if seen {
			continue
		}

		text := FormatAlert(ev)
		delivered := 0
		for _, chatID := range recipients {
			if err := d.notifier.Send(ctx, chatID, text); err != nil {
				d.logger.Warn("alert delivery failed", "chat_id", chatID, "error", err)
				continue
			}
			delivered++
		}
		d.logger.Info("news alert dispatched",
			"event", ev.Title, "time", clock.Format(ev.Time), "recipients", delivered)
	}
}

// Reset clears the dedup set. Called after each cache refresh, since
// a refresh replaces the events the set's keys were minted from.
func (d *Dispatcher) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.alerted = make(map[string]struct{})
}

// FormatAlert renders the pre-event warning sent to subscribers.
func FormatAlert(ev news.Event) string {
	impactEmoji := "🟡"
	if ev.Impact == news.High {
		impactEmoji = "🔴"
	}

	text := fmt.Sprintf(
		"⚠️ <b>NEWS ALERT</b> ⚠️\n\n%s <b>%s</b>\n📅 Time: %s\n⏰ In: <b>~10 minutes</b>\n",
		impactEmoji, ev.Title, clock.FormatDisplay(ev.Time),
	)
	if ev.Currency != "" {
		text += fmt.Sprintf("💱 Currency: %s\n", ev.Currency)
	}
	text += fmt.Sprintf("\n⚡ Impact: <b>%s</b>", ev.Impact)
	return text
}
