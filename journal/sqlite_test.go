package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/journalbot/news"
	"github.com/rustyeddy/journalbot/session"
)

func newTestStore(t *testing.T) *SQLite {
	t.Helper()

	s, err := NewSQLite(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func sampleTrade(userID int64) Trade {
	return Trade{
		UserID:    userID,
		AccountID: "main",
		Pair:      "EURUSD",
		Direction: Buy,
		Entry:     d("1.08500"),
		Stop:      d("1.08300"),
		Target:    d("1.08900"),
		Session:   session.London,
		NewsRisk:  news.RiskLow,
		EntryTime: time.Date(2026, 8, 29, 9, 30, 0, 0, time.UTC),
	}
}

func TestInsertTradeAssignsMonotonicIDs(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)

	first, err := s.InsertTrade(sampleTrade(7))
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.TradeID)
	assert.Equal(t, Open, first.Status)

	second, err := s.InsertTrade(sampleTrade(7))
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.TradeID)

	next, err := s.NextTradeID(7)
	require.NoError(t, err)
	assert.Equal(t, int64(3), next)
}

func TestTradeIDsAreScopedPerUser(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)

	a, err := s.InsertTrade(sampleTrade(1))
	require.NoError(t, err)
	b, err := s.InsertTrade(sampleTrade(2))
	require.NoError(t, err)

	assert.Equal(t, int64(1), a.TradeID)
	assert.Equal(t, int64(1), b.TradeID)
}

func TestInsertTradeRejectsBadInput(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)

	bad := sampleTrade(1)
	bad.Direction = "LONG"
	_, err := s.InsertTrade(bad)
	assert.Error(t, err)

	bad = sampleTrade(1)
	bad.Result = "X"
	_, err = s.InsertTrade(bad)
	assert.Error(t, err)
}

func TestGetTradeRoundTrip(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)

	in := sampleTrade(3)
	in.NewsRisk = news.RiskHigh
	in.Notes = "NFP scalp"
	inserted, err := s.InsertTrade(in)
	require.NoError(t, err)

	out, err := s.GetTrade(3, inserted.TradeID)
	require.NoError(t, err)

	assert.Equal(t, "EURUSD", out.Pair)
	assert.Equal(t, Buy, out.Direction)
	assert.True(t, out.Entry.Equal(d("1.08500")))
	assert.True(t, out.Stop.Equal(d("1.08300")))
	assert.True(t, out.Target.Equal(d("1.08900")))
	assert.Equal(t, session.London, out.Session)
	assert.Equal(t, news.RiskHigh, out.NewsRisk)
	assert.Equal(t, Open, out.Status)
	assert.Equal(t, NoResult, out.Result)
	assert.Equal(t, "NFP scalp", out.Notes)
	assert.True(t, out.ExitTime.IsZero())
}

func TestGetTradeNotFound(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	_, err := s.GetTrade(1, 42)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestCloseTradeLifecycle(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)

	inserted, err := s.InsertTrade(sampleTrade(5))
	require.NoError(t, err)
	require.Equal(t, Open, inserted.Status)

	exit := time.Date(2026, 8, 29, 15, 0, 0, 0, time.UTC)
	closed, err := s.CloseTrade(5, inserted.TradeID, BreakEven, exit)
	require.NoError(t, err)
	assert.Equal(t, Closed, closed.Status)
	assert.Equal(t, BreakEven, closed.Result)
	assert.True(t, closed.ExitTime.Equal(exit))

	// A second result must not rewrite the first, and must never
	// flip the trade back to OPEN.
	_, err = s.CloseTrade(5, inserted.TradeID, Win, exit.Add(time.Hour))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already closed")

	again, err := s.GetTrade(5, inserted.TradeID)
	require.NoError(t, err)
	assert.Equal(t, Closed, again.Status)
	assert.Equal(t, BreakEven, again.Result)
}

func TestCloseTradeRejectsUnknownResult(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	inserted, err := s.InsertTrade(sampleTrade(5))
	require.NoError(t, err)

	_, err = s.CloseTrade(5, inserted.TradeID, Result("X"), time.Now())
	assert.Error(t, err)
}

func TestListOpenAndRecent(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)

	for i := 0; i < 5; i++ {
		_, err := s.InsertTrade(sampleTrade(9))
		require.NoError(t, err)
	}
	_, err := s.CloseTrade(9, 2, Win, time.Now())
	require.NoError(t, err)
	_, err = s.CloseTrade(9, 4, Loss, time.Now())
	require.NoError(t, err)

	open, err := s.ListOpen(9)
	require.NoError(t, err)
	require.Len(t, open, 3)
	assert.Equal(t, int64(1), open[0].TradeID)
	assert.Equal(t, int64(5), open[2].TradeID)

	recent, err := s.ListRecent(9, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, int64(5), recent[0].TradeID)
	assert.Equal(t, int64(4), recent[1].TradeID)
}
