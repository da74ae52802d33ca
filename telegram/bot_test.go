package telegram

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/journalbot/clock"
	"github.com/rustyeddy/journalbot/dashboard"
	"github.com/rustyeddy/journalbot/journal"
	"github.com/rustyeddy/journalbot/news"
)

type sentMessage struct {
	chatID int64
	text   string
}

// fakeSender records outbound messages instead of hitting the Bot API.
type fakeSender struct {
	sent []sentMessage
}

func (f *fakeSender) Send(_ context.Context, chatID int64, text string) error {
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

func (f *fakeSender) last(t *testing.T) sentMessage {
	t.Helper()
	require.NotEmpty(t, f.sent)
	return f.sent[len(f.sent)-1]
}

type fakeFetcher struct {
	events []news.Event
	err    error
}

func (f *fakeFetcher) Fetch(context.Context, time.Time) ([]news.Event, error) {
	return f.events, f.err
}

type fakeDispatcher struct {
	resets int
}

func (f *fakeDispatcher) Reset() { f.resets++ }

type botFixture struct {
	bot        *Bot
	sender     *fakeSender
	store      *journal.SQLite
	engine     *news.Engine
	fetcher    *fakeFetcher
	dispatcher *fakeDispatcher
	clk        *clock.Fixed
}

func newBotFixture(t *testing.T) *botFixture {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	dir := t.TempDir()

	store, err := journal.NewSQLite(filepath.Join(dir, "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	clk := &clock.Fixed{T: time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)}
	fetcher := &fakeFetcher{}
	engine := news.NewEngine(
		news.NewFileStore(filepath.Join(dir, "news.json"), logger),
		fetcher, clk, logger,
		10*time.Minute, 24*time.Hour,
	)
	dispatcher := &fakeDispatcher{}
	tokens := dashboard.NewTokenStore(24*time.Hour, time.Hour, clk)

	sender := &fakeSender{}
	b := &Bot{
		sender:       sender,
		store:        store,
		engine:       engine,
		dispatcher:   dispatcher,
		tokens:       tokens,
		dashboardURL: "https://journal.example.com",
		clk:          clk,
		logger:       logger,
	}
	return &botFixture{
		bot:        b,
		sender:     sender,
		store:      store,
		engine:     engine,
		fetcher:    fetcher,
		dispatcher: dispatcher,
		clk:        clk,
	}
}

func update(userID int64, text string) Update {
	return Update{
		UpdateID: 1,
		Message: &Message{
			From: &Peer{ID: userID, Username: "sam", FirstName: "Sam"},
			Chat: Chat{ID: userID},
			Text: text,
		},
	}
}

func (f *botFixture) send(t *testing.T, userID int64, text string) string {
	t.Helper()
	f.bot.HandleUpdate(context.Background(), update(userID, text))
	return f.sender.last(t).text
}

func TestStartCreatesAccountAndSubscribes(t *testing.T) {
	t.Parallel()

	f := newBotFixture(t)
	reply := f.send(t, 7, "/start")
	assert.Contains(t, reply, "Welcome, Sam")
	assert.Contains(t, reply, "Main")

	u, err := f.store.GetUser(7)
	require.NoError(t, err)
	assert.True(t, u.Subscribed)

	accounts, err := f.store.ListAccounts(7)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "Main", accounts[0].Name)
	assert.True(t, accounts[0].Default)
}

func TestStartSecondTimeKeepsAccount(t *testing.T) {
	t.Parallel()

	f := newBotFixture(t)
	f.send(t, 7, "/start Prop Firm")
	reply := f.send(t, 7, "/start")
	assert.Contains(t, reply, "Welcome back")

	accounts, err := f.store.ListAccounts(7)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "Prop Firm", accounts[0].Name)
}

func TestNewTradeLifecycle(t *testing.T) {
	t.Parallel()

	f := newBotFixture(t)
	f.send(t, 7, "/start")

	reply := f.send(t, 7, "/newtrade eurusd buy 1.0850 1.0800 1.0950 london breakout")
	assert.Contains(t, reply, "#1")
	assert.Contains(t, reply, "EURUSD")

	trade, err := f.store.GetTrade(7, 1)
	require.NoError(t, err)
	assert.Equal(t, journal.Buy, trade.Direction)
	assert.Equal(t, "1.0850", trade.Entry.String())
	assert.Equal(t, "london breakout", trade.Notes)
	assert.Equal(t, journal.Open, trade.Status)

	reply = f.send(t, 7, "/updatetrade 1 w")
	assert.Contains(t, reply, "closed as <b>W</b>")

	reply = f.send(t, 7, "/updatetrade 1 l")
	assert.Contains(t, reply, "already closed")
}

func TestNewTradeRejectsBadInput(t *testing.T) {
	t.Parallel()

	f := newBotFixture(t)
	f.send(t, 7, "/start")

	assert.Contains(t, f.send(t, 7, "/newtrade EURUSD LONG 1.08 1.07 1.10"), "BUY or SELL")
	assert.Contains(t, f.send(t, 7, "/newtrade EURUSD BUY abc 1.07 1.10"), "Invalid entry price")
	assert.Contains(t, f.send(t, 7, "/newtrade EURUSD"), "Usage:")
}

func TestNewTradeWithoutAccount(t *testing.T) {
	t.Parallel()

	f := newBotFixture(t)
	reply := f.send(t, 7, "/newtrade EURUSD BUY 1.08 1.07 1.10")
	assert.Contains(t, reply, "No trading account")
}

func TestNewTradeTagsNewsRisk(t *testing.T) {
	t.Parallel()

	f := newBotFixture(t)
	f.send(t, 7, "/start")

	// Event 5 minutes after the fixed clock, inside the risk window.
	f.fetcher.events = []news.Event{{
		Time:   f.clk.T.Add(5 * time.Minute),
		Title:  "CPI",
		Impact: news.High,
	}}
	require.Equal(t, 1, f.engine.Refresh(context.Background()))

	reply := f.send(t, 7, "/newtrade EURUSD BUY 1.08 1.07 1.10")
	assert.Contains(t, reply, "High-impact news")

	trade, err := f.store.GetTrade(7, 1)
	require.NoError(t, err)
	assert.Equal(t, news.RiskHigh, trade.NewsRisk)
}

func TestOpenAndRecentTrades(t *testing.T) {
	t.Parallel()

	f := newBotFixture(t)
	f.send(t, 7, "/start")

	assert.Contains(t, f.send(t, 7, "/opentrades"), "No open trades")
	assert.Contains(t, f.send(t, 7, "/recenttrades"), "No trades yet")

	f.send(t, 7, "/newtrade EURUSD BUY 1.08 1.07 1.10")
	f.send(t, 7, "/newtrade GBPUSD SELL 1.26 1.27 1.24")

	open := f.send(t, 7, "/opentrades")
	assert.Contains(t, open, "#1 EURUSD")
	assert.Contains(t, open, "#2 GBPUSD")

	f.send(t, 7, "/updatetrade 1 W")
	recent := f.send(t, 7, "/recenttrades")
	assert.Contains(t, recent, "CLOSED W")
	assert.Contains(t, recent, "#2 GBPUSD")
}

func TestNewsUnavailableVsEmpty(t *testing.T) {
	t.Parallel()

	f := newBotFixture(t)

	// Cache never written: the feed counts as unavailable.
	assert.Contains(t, f.send(t, 7, "/news"), "unavailable")

	// Successful refresh with zero events is a quiet day, not an outage.
	f.engine.Refresh(context.Background())
	assert.Contains(t, f.send(t, 7, "/news"), "No high or medium impact events")

	f.fetcher.events = []news.Event{{
		Time:     f.clk.T.Add(2 * time.Hour),
		Title:    "FOMC Statement",
		Currency: "USD",
		Impact:   news.High,
	}}
	f.engine.Refresh(context.Background())
	reply := f.send(t, 7, "/news")
	assert.Contains(t, reply, "FOMC Statement")
	assert.Contains(t, reply, "🔴")
	assert.Contains(t, reply, "(USD)")
}

func TestRefreshNewsResetsDispatcher(t *testing.T) {
	t.Parallel()

	f := newBotFixture(t)
	f.fetcher.events = []news.Event{{
		Time:   f.clk.T.Add(time.Hour),
		Title:  "NFP",
		Impact: news.High,
	}}

	reply := f.send(t, 7, "/refreshnews")
	assert.Contains(t, reply, "1 events loaded")
	assert.Equal(t, 1, f.dispatcher.resets)
}

func TestAddNews(t *testing.T) {
	t.Parallel()

	f := newBotFixture(t)
	f.engine.Refresh(context.Background())

	reply := f.send(t, 7, "/addnews 2026-03-10 14:30 HIGH ECB Rate Decision")
	assert.Contains(t, reply, "ECB Rate Decision")

	events, available := f.engine.Today()
	assert.True(t, available)
	require.Len(t, events, 1)
	assert.Equal(t, "ECB Rate Decision", events[0].Title)

	assert.Contains(t, f.send(t, 7, "/addnews yesterday"), "Usage:")
	assert.Contains(t, f.send(t, 7, "/addnews 2026-03-10 14:30 LOW Something"), "Could not add")
}

func TestPairs(t *testing.T) {
	t.Parallel()

	f := newBotFixture(t)

	assert.Contains(t, f.send(t, 7, "/pairs"), "No favourite pairs")
	assert.Contains(t, f.send(t, 7, "/pairs add eurusd"), "EURUSD")
	assert.Contains(t, f.send(t, 7, "/pairs add GBPJPY"), "GBPJPY")

	list := f.send(t, 7, "/pairs list")
	assert.Contains(t, list, "EURUSD")
	assert.Contains(t, list, "GBPJPY")

	assert.Contains(t, f.send(t, 7, "/pairs remove EURUSD"), "Removed")
	assert.Contains(t, f.send(t, 7, "/pairs remove EURUSD"), "not in your pairs")
}

func TestAccountsAddAndRename(t *testing.T) {
	t.Parallel()

	f := newBotFixture(t)
	f.send(t, 7, "/start")
	f.send(t, 7, "/accounts add Funded")

	list := f.send(t, 7, "/accounts")
	assert.Contains(t, list, "Main")
	assert.Contains(t, list, "Funded (default)")

	accounts, err := f.store.ListAccounts(7)
	require.NoError(t, err)
	require.Len(t, accounts, 2)

	var funded journal.Account
	for _, a := range accounts {
		if a.Name == "Funded" {
			funded = a
		}
	}
	reply := f.send(t, 7, "/accounts rename "+funded.AccountID+" Funded 100k")
	assert.Contains(t, reply, "Funded 100k")

	assert.Contains(t, f.send(t, 7, "/accounts rename nope X"), "No account")
}

func TestDashboardIssuesToken(t *testing.T) {
	t.Parallel()

	f := newBotFixture(t)
	assert.Contains(t, f.send(t, 7, "/dashboard"), "Send /start first")

	f.send(t, 7, "/start")
	reply := f.send(t, 7, "/dashboard")
	assert.Contains(t, reply, "https://journal.example.com/api/dashboard/")

	// Same link while the token is still fresh.
	assert.Equal(t, reply, f.send(t, 7, "/dashboard"))
}

func TestAlertsToggle(t *testing.T) {
	t.Parallel()

	f := newBotFixture(t)
	f.send(t, 7, "/start")

	assert.Contains(t, f.send(t, 7, "/alerts off"), "disabled")
	u, err := f.store.GetUser(7)
	require.NoError(t, err)
	assert.False(t, u.Subscribed)

	assert.Contains(t, f.send(t, 7, "/alerts on"), "enabled")
	u, err = f.store.GetUser(7)
	require.NoError(t, err)
	assert.True(t, u.Subscribed)
}

func TestIgnoresNonCommands(t *testing.T) {
	t.Parallel()

	f := newBotFixture(t)
	f.bot.HandleUpdate(context.Background(), update(7, "hello there"))
	f.bot.HandleUpdate(context.Background(), Update{UpdateID: 2})
	assert.Empty(t, f.sender.sent)
}

func TestCommandWithBotSuffix(t *testing.T) {
	t.Parallel()

	f := newBotFixture(t)
	assert.Contains(t, f.send(t, 7, "/help@journal_bot"), "Trading Journal Bot")
}

func TestUnknownCommand(t *testing.T) {
	t.Parallel()

	f := newBotFixture(t)
	assert.Contains(t, f.send(t, 7, "/frobnicate"), "Unknown command")
}
