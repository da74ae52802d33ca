// Package journal is the durable trade store: per-user trade records
// with frozen session/news-risk tags and the OPEN/CLOSED status rule.
package journal

import (
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/rustyeddy/journalbot/news"
	"github.com/rustyeddy/journalbot/session"
)

// ErrNotFound is returned when a trade, user, account or pair does not
// exist for the requesting user.
var ErrNotFound = errors.New("not found")

// ErrAlreadyClosed is returned when a close is attempted on a trade
// that already carries a terminal result.
var ErrAlreadyClosed = errors.New("already closed")

// Direction of a trade.
type Direction string

const (
	Buy  Direction = "BUY"
	Sell Direction = "SELL"
)

// Result of a closed trade. Empty means the trade is still open.
type Result string

const (
	NoResult  Result = ""
	Win       Result = "W"
	Loss      Result = "L"
	BreakEven Result = "BE"
)

// Status of a trade, derived from its result.
type Status string

const (
	Open   Status = "OPEN"
	Closed Status = "CLOSED"
)

// StatusForResult derives status from a result. Anything that is not a
// recognized terminal result maps to OPEN; callers are expected to
// reject unrecognized results before they reach the store.
func StatusForResult(r Result) Status {
	switch r {
	case Win, Loss, BreakEven:
		return Closed
	}
	return Open
}

// ValidResult reports whether r is a recognized terminal result.
func ValidResult(r Result) bool {
	return r == Win || r == Loss || r == BreakEven
}

// ValidDirection reports whether d is BUY or SELL.
func ValidDirection(d Direction) bool {
	return d == Buy || d == Sell
}

// Trade is one journal entry. TradeID is unique and monotonic per
// user, never reused. Session and NewsRisk are computed once at
// creation and never rewritten by later news refreshes.
type Trade struct {
	TradeID   int64
	UserID    int64
	AccountID string
	Pair      string
	Direction Direction
	Entry     decimal.Decimal
	Stop      decimal.Decimal
	Target    decimal.Decimal
	Session   session.Session
	NewsRisk  news.Risk
	Status    Status
	Result    Result
	Notes     string
	EntryTime time.Time
	ExitTime  time.Time // zero until the trade is closed
	CreatedAt time.Time
	UpdatedAt time.Time
}

// User is a registered bot user. Subscribed users receive news alerts.
type User struct {
	TelegramID int64
	Username   string
	FirstName  string
	Subscribed bool
	CreatedAt  time.Time
}

// NewAccountID returns a fresh opaque account identifier.
func NewAccountID() string {
	return ulid.Make().String()
}

// Account scopes trades for display and filtering; it does not own them.
type Account struct {
	UserID    int64
	AccountID string
	Name      string
	Default   bool
	CreatedAt time.Time
}

// Store is the persistence interface the bot and dashboard consume.
type Store interface {
	InsertTrade(t Trade) (Trade, error)
	GetTrade(userID, tradeID int64) (Trade, error)
	CloseTrade(userID, tradeID int64, r Result, exitTime time.Time) (Trade, error)
	ListOpen(userID int64) ([]Trade, error)
	ListRecent(userID int64, limit int) ([]Trade, error)
	ListAll(userID int64) ([]Trade, error)
	NextTradeID(userID int64) (int64, error)

	UpsertUser(u User) error
	GetUser(telegramID int64) (User, error)
	SetSubscribed(telegramID int64, subscribed bool) error
	ListSubscribers() ([]int64, error)

	AddAccount(a Account) error
	ListAccounts(userID int64) ([]Account, error)
	DefaultAccount(userID int64) (Account, error)
	RenameAccount(userID int64, accountID, name string) error

	AddPair(userID int64, pair string) error
	RemovePair(userID int64, pair string) error
	ListPairs(userID int64) ([]string, error)

	Close() error
}
