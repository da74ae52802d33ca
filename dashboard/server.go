package dashboard

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/rustyeddy/journalbot/journal"
)

// tradeView is the wire form of a trade in the dashboard response.
type tradeView struct {
	ID        int64      `json:"id"`
	Account   string     `json:"account"`
	Pair      string     `json:"pair"`
	Direction string     `json:"direction"`
	Entry     string     `json:"entry_price"`
	Stop      string     `json:"stop_loss"`
	Target    string     `json:"take_profit"`
	Session   string     `json:"session"`
	NewsRisk  string     `json:"news_risk"`
	Status    string     `json:"status"`
	Result    string     `json:"result"`
	Notes     string     `json:"notes,omitempty"`
	EntryTime time.Time  `json:"entry_datetime"`
	ExitTime  *time.Time `json:"exit_datetime,omitempty"`
}

type userView struct {
	TelegramID int64  `json:"telegram_id"`
	Username   string `json:"username"`
	Name       string `json:"name"`
}

type accountView struct {
	AccountID string `json:"account_id"`
	Name      string `json:"account_name"`
	Default   bool   `json:"is_default"`
}

type dashboardResponse struct {
	User     userView      `json:"user"`
	Accounts []accountView `json:"accounts"`
	Report
	RecentTrades []tradeView `json:"recent_trades"`
}

// recentLimit caps the trade listing in the API response.
const recentLimit = 100

// Server exposes the dashboard API over HTTP. It only ever reads the
// trade store.
type Server struct {
	store  journal.Store
	tokens *TokenStore
	logger *slog.Logger
	mux    *http.ServeMux
}

// NewServer builds the handler tree.
func NewServer(store journal.Store, tokens *TokenStore, logger *slog.Logger) *Server {
	s := &Server{store: store, tokens: tokens, logger: logger, mux: http.NewServeMux()}
	s.mux.HandleFunc("GET /api/dashboard/{token}", s.handleDashboard)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.tokens.Verify(r.PathValue("token"))
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid or expired token"})
		return
	}

	user, err := s.store.GetUser(userID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
		return
	}

	trades, err := s.store.ListAll(userID)
	if err != nil {
		s.logger.Error("dashboard: list trades", "user", userID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	accounts, err := s.store.ListAccounts(userID)
	if err != nil {
		s.logger.Error("dashboard: list accounts", "user", userID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := dashboardResponse{
		User: userView{
			TelegramID: user.TelegramID,
			Username:   user.Username,
			Name:       user.FirstName,
		},
		Report: Compute(trades),
	}
	for _, a := range accounts {
		resp.Accounts = append(resp.Accounts, accountView{AccountID: a.AccountID, Name: a.Name, Default: a.Default})
	}

	limit := len(trades)
	if limit > recentLimit {
		limit = recentLimit
	}
	for _, t := range trades[:limit] {
		v := tradeView{
			ID:        t.TradeID,
			Account:   t.AccountID,
			Pair:      t.Pair,
			Direction: string(t.Direction),
			Entry:     t.Entry.String(),
			Stop:      t.Stop.String(),
			Target:    t.Target.String(),
			Session:   string(t.Session),
			NewsRisk:  string(t.NewsRisk),
			Status:    string(t.Status),
			Result:    string(t.Result),
			Notes:     t.Notes,
			EntryTime: t.EntryTime,
		}
		if !t.ExitTime.IsZero() {
			exit := t.ExitTime
			v.ExitTime = &exit
		}
		resp.RecentTrades = append(resp.RecentTrades, v)
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
