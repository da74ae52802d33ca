package dashboard

import (
	"sort"
	"time"

	"github.com/rustyeddy/journalbot/journal"
)

// Summary is the headline statistics block.
type Summary struct {
	TotalTrades   int     `json:"total_trades"`
	OpenTrades    int     `json:"open_trades"`
	ClosedTrades  int     `json:"closed_trades"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	BreakEven     int     `json:"break_even"`
	WinRate       float64 `json:"win_rate"`
	MaxWinStreak  int     `json:"max_win_streak"`
	MaxLossStreak int     `json:"max_loss_streak"`
}

// EquityPoint is one step of the unit-based equity curve: +1 for a
// win, -1 for a loss, 0 for break-even, ordered by exit time.
type EquityPoint struct {
	Date       string    `json:"date"`
	Timestamp  time.Time `json:"timestamp"`
	PnL        int       `json:"pnl"`
	Cumulative int       `json:"cumulative"`
	TradeID    int64     `json:"trade_id"`
}

// GroupStats is a per-pair or per-session breakdown. WinRate counts
// only decided (W/L) trades.
type GroupStats struct {
	Total   int     `json:"total"`
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
	WinRate float64 `json:"win_rate"`
}

// Report is everything the dashboard front-end renders.
type Report struct {
	Summary     Summary               `json:"stats"`
	EquityCurve []EquityPoint         `json:"equity_curve"`
	ByPair      map[string]GroupStats `json:"pair_stats"`
	BySession   map[string]GroupStats `json:"session_stats"`
	ByAccount   map[string]GroupStats `json:"account_stats"`
}

// Compute aggregates a user's trades into a Report. The input order
// does not matter; the equity curve and streaks use exit time.
func Compute(trades []journal.Trade) Report {
	r := Report{
		ByPair:    make(map[string]GroupStats),
		BySession: make(map[string]GroupStats),
		ByAccount: make(map[string]GroupStats),
	}
	r.Summary.TotalTrades = len(trades)

	var closed []journal.Trade
	for _, t := range trades {
		switch t.Status {
		case journal.Closed:
			closed = append(closed, t)
		default:
			r.Summary.OpenTrades++
		}

		tally(r.ByPair, t.Pair, t.Result)
		tally(r.BySession, string(t.Session), t.Result)
		tally(r.ByAccount, t.AccountID, t.Result)
	}
	r.Summary.ClosedTrades = len(closed)

	for _, t := range closed {
		switch t.Result {
		case journal.Win:
			r.Summary.Wins++
		case journal.Loss:
			r.Summary.Losses++
		case journal.BreakEven:
			r.Summary.BreakEven++
		}
	}
	if len(closed) > 0 {
		r.Summary.WinRate = round2(float64(r.Summary.Wins) / float64(len(closed)) * 100)
	}

	sort.Slice(closed, func(i, j int) bool {
		return closed[i].ExitTime.Before(closed[j].ExitTime)
	})

	cumulative := 0
	streak, maxWin, maxLoss := 0, 0, 0
	var streakResult journal.Result

	for _, t := range closed {
		pnl := 0
		switch t.Result {
		case journal.Win:
			pnl = 1
			if streakResult == journal.Win {
				streak++
			} else {
				streak, streakResult = 1, journal.Win
			}
			if streak > maxWin {
				maxWin = streak
			}
		case journal.Loss:
			pnl = -1
			if streakResult == journal.Loss {
				streak++
			} else {
				streak, streakResult = 1, journal.Loss
			}
			if streak > maxLoss {
				maxLoss = streak
			}
		default:
			// Break-even resets the streak.
			streak, streakResult = 0, journal.NoResult
		}

		cumulative += pnl
		r.EquityCurve = append(r.EquityCurve, EquityPoint{
			Date:       t.ExitTime.Format("2006-01-02"),
			Timestamp:  t.ExitTime,
			PnL:        pnl,
			Cumulative: cumulative,
			TradeID:    t.TradeID,
		})
	}
	r.Summary.MaxWinStreak = maxWin
	r.Summary.MaxLossStreak = maxLoss

	finishRates(r.ByPair)
	finishRates(r.BySession)
	finishRates(r.ByAccount)
	return r
}

func tally(m map[string]GroupStats, key string, result journal.Result) {
	g := m[key]
	g.Total++
	switch result {
	case journal.Win:
		g.Wins++
	case journal.Loss:
		g.Losses++
	}
	m[key] = g
}

func finishRates(m map[string]GroupStats) {
	for key, g := range m {
		if decided := g.Wins + g.Losses; decided > 0 {
			g.WinRate = round2(float64(g.Wins) / float64(decided) * 100)
			m[key] = g
		}
	}
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}
