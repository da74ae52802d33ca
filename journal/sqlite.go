package journal

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/rustyeddy/journalbot/news"
	"github.com/rustyeddy/journalbot/session"
)

// SQLite implements Store on a local SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the journal database at path.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

// InsertTrade assigns the next per-user trade id, derives the status
// from the result and persists the record. The assignment and insert
// run in one transaction so concurrent writers cannot share an id.
func (s *SQLite) InsertTrade(t Trade) (Trade, error) {
	if !ValidDirection(t.Direction) {
		return Trade{}, fmt.Errorf("direction must be BUY or SELL, got %q", t.Direction)
	}
	if t.Result != NoResult && !ValidResult(t.Result) {
		return Trade{}, fmt.Errorf("unrecognized result %q", t.Result)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return Trade{}, err
	}
	defer tx.Rollback()

	var next int64
	err = tx.QueryRow(`SELECT COALESCE(MAX(trade_id), 0) + 1 FROM trades WHERE user_id = ?`, t.UserID).Scan(&next)
	if err != nil {
		return Trade{}, fmt.Errorf("next trade id: %w", err)
	}

	t.TradeID = next
	t.Status = StatusForResult(t.Result)
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now

	_, err = tx.Exec(`
		INSERT INTO trades
		(user_id, trade_id, account_id, pair, direction, entry, stop, target,
		 session, news_risk, status, result, notes, entry_time, exit_time, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, t.TradeID, t.AccountID, t.Pair, string(t.Direction),
		t.Entry.String(), t.Stop.String(), t.Target.String(),
		string(t.Session), string(t.NewsRisk), string(t.Status), string(t.Result),
		t.Notes, t.EntryTime, nullTime(t.ExitTime), t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return Trade{}, fmt.Errorf("insert trade: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Trade{}, err
	}
	return t, nil
}

// GetTrade returns one trade by per-user id.
func (s *SQLite) GetTrade(userID, tradeID int64) (Trade, error) {
	row := s.db.QueryRow(selectTrade+` WHERE user_id = ? AND trade_id = ?`, userID, tradeID)
	t, err := scanTrade(row)
	if err == sql.ErrNoRows {
		return Trade{}, fmt.Errorf("trade %d: %w", tradeID, ErrNotFound)
	}
	return t, err
}

// CloseTrade records the terminal result and exit time. A trade that
// is already CLOSED stays closed: the update is rejected rather than
// letting a second result rewrite history.
func (s *SQLite) CloseTrade(userID, tradeID int64, r Result, exitTime time.Time) (Trade, error) {
	if !ValidResult(r) {
		return Trade{}, fmt.Errorf("result must be W, L or BE, got %q", r)
	}

	res, err := s.db.Exec(`
		UPDATE trades
		SET result = ?, status = ?, exit_time = ?, updated_at = ?
		WHERE user_id = ? AND trade_id = ? AND status = ?`,
		string(r), string(Closed), exitTime, time.Now(),
		userID, tradeID, string(Open),
	)
	if err != nil {
		return Trade{}, fmt.Errorf("close trade: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return Trade{}, err
	}
	if n == 0 {
		// Either the trade does not exist or it is already closed.
		if t, err := s.GetTrade(userID, tradeID); err == nil && t.Status == Closed {
			return Trade{}, fmt.Errorf("trade %d (%s): %w", tradeID, t.Result, ErrAlreadyClosed)
		}
		return Trade{}, fmt.Errorf("trade %d: %w", tradeID, ErrNotFound)
	}

	return s.GetTrade(userID, tradeID)
}

// ListOpen returns the user's open trades, oldest first.
func (s *SQLite) ListOpen(userID int64) ([]Trade, error) {
	return s.listTrades(selectTrade+` WHERE user_id = ? AND status = ? ORDER BY trade_id ASC`,
		userID, string(Open))
}

// ListRecent returns the user's most recent trades, newest first.
func (s *SQLite) ListRecent(userID int64, limit int) ([]Trade, error) {
	return s.listTrades(selectTrade+` WHERE user_id = ? ORDER BY trade_id DESC LIMIT ?`,
		userID, limit)
}

// ListAll returns every trade for the user, newest entry first. The
// dashboard aggregator consumes this.
func (s *SQLite) ListAll(userID int64) ([]Trade, error) {
	return s.listTrades(selectTrade+` WHERE user_id = ? ORDER BY entry_time DESC, trade_id DESC`,
		userID)
}

// NextTradeID previews the id the next insert would assign.
func (s *SQLite) NextTradeID(userID int64) (int64, error) {
	var next int64
	err := s.db.QueryRow(`SELECT COALESCE(MAX(trade_id), 0) + 1 FROM trades WHERE user_id = ?`, userID).Scan(&next)
	return next, err
}

const selectTrade = `
	SELECT user_id, trade_id, account_id, pair, direction, entry, stop, target,
	       session, news_risk, status, result, notes, entry_time, exit_time, created_at, updated_at
	FROM trades`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrade(row rowScanner) (Trade, error) {
	var (
		t                    Trade
		direction, sess      string
		risk, status, result string
		entry, stop, target  string
		exit                 sql.NullTime
	)

	err := row.Scan(
		&t.UserID, &t.TradeID, &t.AccountID, &t.Pair, &direction,
		&entry, &stop, &target, &sess, &risk, &status, &result,
		&t.Notes, &t.EntryTime, &exit, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return Trade{}, err
	}

	if t.Entry, err = decimal.NewFromString(entry); err != nil {
		return Trade{}, fmt.Errorf("parse entry price: %w", err)
	}
	if t.Stop, err = decimal.NewFromString(stop); err != nil {
		return Trade{}, fmt.Errorf("parse stop price: %w", err)
	}
	if t.Target, err = decimal.NewFromString(target); err != nil {
		return Trade{}, fmt.Errorf("parse target price: %w", err)
	}

	t.Direction = Direction(direction)
	t.Session = session.Session(sess)
	t.NewsRisk = news.Risk(risk)
	t.Status = Status(status)
	t.Result = Result(result)
	if exit.Valid {
		t.ExitTime = exit.Time
	}
	return t, nil
}

func (s *SQLite) listTrades(query string, args ...any) ([]Trade, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
