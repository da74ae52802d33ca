package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/journalbot/clock"
	"github.com/rustyeddy/journalbot/dashboard"
	"github.com/rustyeddy/journalbot/journal"
	"github.com/rustyeddy/journalbot/news"
	"github.com/rustyeddy/journalbot/session"
)

// Sender delivers outbound messages. *Client satisfies it.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// Poller receives inbound updates. *Client satisfies it.
type Poller interface {
	GetUpdates(ctx context.Context, offset int64, timeout int) ([]Update, error)
}

// Resetter clears alert dedup state after a cache refresh.
type Resetter interface {
	Reset()
}

// pollTimeout is the server-side getUpdates hold in seconds.
const pollTimeout = 30

// Bot routes chat commands to the journal, the news engine and the
// dashboard token store.
type Bot struct {
	sender       Sender
	poller       Poller
	store        journal.Store
	engine       *news.Engine
	dispatcher   Resetter
	tokens       *dashboard.TokenStore
	dashboardURL string
	clk          clock.Clock
	logger       *slog.Logger
}

// NewBot wires the command router. dashboardURL is the public base
// URL the /dashboard command hands out links under.
func NewBot(client *Client, store journal.Store, engine *news.Engine, dispatcher Resetter,
	tokens *dashboard.TokenStore, dashboardURL string, clk clock.Clock, logger *slog.Logger) *Bot {
	return &Bot{
		sender:       client,
		poller:       client,
		store:        store,
		engine:       engine,
		dispatcher:   dispatcher,
		tokens:       tokens,
		dashboardURL: strings.TrimRight(dashboardURL, "/"),
		clk:          clk,
		logger:       logger,
	}
}

// Run long-polls for updates until the context is cancelled. Poll
// errors are logged and retried after a short backoff.
func (b *Bot) Run(ctx context.Context) error {
	var offset int64
	for {
		updates, err := b.poller.GetUpdates(ctx, offset, pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			b.logger.Warn("poll updates", "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(5 * time.Second):
			}
			continue
		}
		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			b.HandleUpdate(ctx, u)
		}
	}
}

// HandleUpdate processes a single inbound update.
func (b *Bot) HandleUpdate(ctx context.Context, u Update) {
	if u.Message == nil || u.Message.From == nil {
		return
	}
	msg := u.Message
	text := strings.TrimSpace(msg.Text)
	if !strings.HasPrefix(text, "/") {
		return
	}

	fields := strings.Fields(text)
	cmd := strings.ToLower(fields[0])
	// Strip the @botname suffix groups append.
	if i := strings.Index(cmd, "@"); i > 0 {
		cmd = cmd[:i]
	}
	args := fields[1:]

	reply, err := b.dispatch(ctx, msg, cmd, args)
	if err != nil {
		b.logger.Error("handle command", "command", cmd, "user", msg.From.ID, "error", err)
		reply = "Something went wrong, please try again."
	}
	if reply == "" {
		return
	}
	if err := b.sender.Send(ctx, msg.Chat.ID, reply); err != nil {
		b.logger.Warn("send reply", "chat", msg.Chat.ID, "error", err)
	}
}

func (b *Bot) dispatch(ctx context.Context, msg *Message, cmd string, args []string) (string, error) {
	switch cmd {
	case "/start":
		return b.handleStart(msg, args)
	case "/help":
		return helpText, nil
	case "/newtrade":
		return b.handleNewTrade(msg.From.ID, args)
	case "/opentrades":
		return b.handleOpenTrades(msg.From.ID)
	case "/recenttrades":
		return b.handleRecentTrades(msg.From.ID)
	case "/updatetrade":
		return b.handleUpdateTrade(msg.From.ID, args)
	case "/news":
		return b.handleNews()
	case "/refreshnews":
		return b.handleRefreshNews(ctx)
	case "/addnews":
		return b.handleAddNews(args)
	case "/pairs":
		return b.handlePairs(msg.From.ID, args)
	case "/accounts":
		return b.handleAccounts(msg.From.ID, args)
	case "/dashboard":
		return b.handleDashboard(msg.From.ID)
	case "/alerts":
		return b.handleAlerts(msg.From.ID, args)
	default:
		return "Unknown command. Send /help for the list.", nil
	}
}

const helpText = `<b>Trading Journal Bot</b>

/newtrade PAIR BUY|SELL ENTRY SL TP [notes] - log a trade
/opentrades - list open trades
/recenttrades - last 5 trades
/updatetrade ID W|L|BE - close a trade
/news - today's high/medium impact events
/refreshnews - force a calendar refresh
/addnews YYYY-MM-DD HH:MM HIGH|MEDIUM title - manual event
/pairs add|remove|list - favourite pairs
/accounts [add NAME | rename ID NAME] - trading accounts
/dashboard - personal stats link
/alerts on|off - news alert subscription`

func (b *Bot) handleStart(msg *Message, args []string) (string, error) {
	u := journal.User{
		TelegramID: msg.From.ID,
		Username:   msg.From.Username,
		FirstName:  msg.From.FirstName,
		Subscribed: true,
	}
	if err := b.store.UpsertUser(u); err != nil {
		return "", err
	}
	if err := b.store.SetSubscribed(u.TelegramID, true); err != nil {
		return "", err
	}

	accounts, err := b.store.ListAccounts(u.TelegramID)
	if err != nil {
		return "", err
	}
	if len(accounts) == 0 {
		name := "Main"
		if len(args) > 0 {
			name = strings.Join(args, " ")
		}
		acct := journal.Account{
			UserID:    u.TelegramID,
			AccountID: journal.NewAccountID(),
			Name:      name,
			Default:   true,
		}
		if err := b.store.AddAccount(acct); err != nil {
			return "", err
		}
		return fmt.Sprintf("Welcome, %s! Created account <b>%s</b> and subscribed you to news alerts.\n\nSend /help to see what I can do.",
			u.FirstName, name), nil
	}
	return fmt.Sprintf("Welcome back, %s! Send /help to see what I can do.", u.FirstName), nil
}

func (b *Bot) handleNewTrade(userID int64, args []string) (string, error) {
	if len(args) < 5 {
		return "Usage: /newtrade PAIR BUY|SELL ENTRY SL TP [notes]", nil
	}

	pair := strings.ToUpper(args[0])
	direction := journal.Direction(strings.ToUpper(args[1]))
	if !journal.ValidDirection(direction) {
		return "Direction must be BUY or SELL.", nil
	}

	prices := make([]decimal.Decimal, 3)
	for i, name := range []string{"entry", "stop loss", "take profit"} {
		d, err := decimal.NewFromString(args[2+i])
		if err != nil {
			return fmt.Sprintf("Invalid %s price: %s", name, args[2+i]), nil
		}
		prices[i] = d
	}

	account, err := b.store.DefaultAccount(userID)
	if err != nil {
		return "No trading account yet. Send /start first.", nil
	}

	now := b.clk.Now()
	sess, risk := b.engine.Tag(now)
	trade := journal.Trade{
		UserID:    userID,
		AccountID: account.AccountID,
		Pair:      pair,
		Direction: direction,
		Entry:     prices[0],
		Stop:      prices[1],
		Target:    prices[2],
		Session:   sess,
		NewsRisk:  risk,
		Notes:     strings.Join(args[5:], " "),
		EntryTime: now,
	}
	saved, err := b.store.InsertTrade(trade)
	if err != nil {
		return "", err
	}

	riskLine := "✅ No high-impact news nearby"
	if risk == news.RiskHigh {
		riskLine = "⚠️ High-impact news within " + formatMinutes(b.engine.RiskWindow())
	}
	return fmt.Sprintf("Trade <b>#%d</b> logged on <b>%s</b>.\n%s %s session\n%s",
		saved.TradeID, saved.Pair, session.Emoji(sess), sess, riskLine), nil
}

func (b *Bot) handleOpenTrades(userID int64) (string, error) {
	trades, err := b.store.ListOpen(userID)
	if err != nil {
		return "", err
	}
	if len(trades) == 0 {
		return "No open trades.", nil
	}
	var sb strings.Builder
	sb.WriteString("<b>Open trades</b>\n")
	for _, t := range trades {
		sb.WriteString(formatTradeLine(t))
	}
	return sb.String(), nil
}

func (b *Bot) handleRecentTrades(userID int64) (string, error) {
	trades, err := b.store.ListRecent(userID, 5)
	if err != nil {
		return "", err
	}
	if len(trades) == 0 {
		return "No trades yet. Log one with /newtrade.", nil
	}
	var sb strings.Builder
	sb.WriteString("<b>Recent trades</b>\n")
	for _, t := range trades {
		sb.WriteString(formatTradeLine(t))
	}
	return sb.String(), nil
}

func (b *Bot) handleUpdateTrade(userID int64, args []string) (string, error) {
	if len(args) < 2 {
		return "Usage: /updatetrade ID W|L|BE", nil
	}
	tradeID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return "Trade id must be a number.", nil
	}
	result := journal.Result(strings.ToUpper(args[1]))
	if !journal.ValidResult(result) {
		return "Result must be W, L or BE.", nil
	}

	closed, err := b.store.CloseTrade(userID, tradeID, result, b.clk.Now())
	if err != nil {
		if errors.Is(err, journal.ErrAlreadyClosed) {
			return fmt.Sprintf("Trade #%d is already closed.", tradeID), nil
		}
		if errors.Is(err, journal.ErrNotFound) {
			return fmt.Sprintf("Trade #%d not found.", tradeID), nil
		}
		return "", err
	}
	return fmt.Sprintf("Trade <b>#%d</b> %s closed as <b>%s</b>.", closed.TradeID, closed.Pair, closed.Result), nil
}

func (b *Bot) handleNews() (string, error) {
	events, available := b.engine.Today()
	if !available {
		return "⚠️ The economic calendar feed is currently unavailable. Showing no data rather than stale guesses - try /refreshnews later.", nil
	}
	if len(events) == 0 {
		return "No high or medium impact events scheduled for today. 🎉", nil
	}
	var sb strings.Builder
	sb.WriteString("<b>Today's events</b>\n")
	for _, e := range events {
		emoji := "🟡"
		if e.Impact == news.High {
			emoji = "🔴"
		}
		sb.WriteString(fmt.Sprintf("%s %s - %s", emoji, e.Time.Format("15:04"), e.Title))
		if e.Currency != "" {
			sb.WriteString(" (" + e.Currency + ")")
		}
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func (b *Bot) handleRefreshNews(ctx context.Context) (string, error) {
	n := b.engine.Refresh(ctx)
	b.dispatcher.Reset()
	if _, available := b.engine.Today(); !available {
		return "Refresh failed - the calendar provider did not respond. The cache was cleared so no stale events linger.", nil
	}
	return fmt.Sprintf("Calendar refreshed: %d events loaded.", n), nil
}

func (b *Bot) handleAddNews(args []string) (string, error) {
	if len(args) < 4 {
		return "Usage: /addnews YYYY-MM-DD HH:MM HIGH|MEDIUM title", nil
	}
	ts, err := time.ParseInLocation("2006-01-02 15:04", args[0]+" "+args[1], b.clk.Location())
	if err != nil {
		return "Invalid date/time. Use YYYY-MM-DD HH:MM.", nil
	}
	impact := news.Impact(strings.ToUpper(args[2]))
	title := strings.Join(args[3:], " ")

	event := news.Event{Time: ts, Title: title, Impact: impact}
	if err := b.engine.AddEvent(event); err != nil {
		return "Could not add event: " + err.Error(), nil
	}
	return fmt.Sprintf("Added <b>%s</b> at %s.", title, clock.FormatDisplay(ts)), nil
}

func (b *Bot) handlePairs(userID int64, args []string) (string, error) {
	sub := "list"
	if len(args) > 0 {
		sub = strings.ToLower(args[0])
	}
	switch sub {
	case "add":
		if len(args) < 2 {
			return "Usage: /pairs add PAIR", nil
		}
		pair := strings.ToUpper(args[1])
		if err := b.store.AddPair(userID, pair); err != nil {
			return "", err
		}
		return fmt.Sprintf("Added <b>%s</b> to your pairs.", pair), nil
	case "remove":
		if len(args) < 2 {
			return "Usage: /pairs remove PAIR", nil
		}
		pair := strings.ToUpper(args[1])
		if err := b.store.RemovePair(userID, pair); err != nil {
			if errors.Is(err, journal.ErrNotFound) {
				return fmt.Sprintf("%s is not in your pairs.", pair), nil
			}
			return "", err
		}
		return fmt.Sprintf("Removed <b>%s</b>.", pair), nil
	case "list":
		pairs, err := b.store.ListPairs(userID)
		if err != nil {
			return "", err
		}
		if len(pairs) == 0 {
			return "No favourite pairs yet. Add one with /pairs add EURUSD.", nil
		}
		return "<b>Your pairs</b>\n" + strings.Join(pairs, "\n"), nil
	default:
		return "Usage: /pairs add|remove|list", nil
	}
}

func (b *Bot) handleAccounts(userID int64, args []string) (string, error) {
	if len(args) > 0 {
		switch strings.ToLower(args[0]) {
		case "add":
			if len(args) < 2 {
				return "Usage: /accounts add NAME", nil
			}
			name := strings.Join(args[1:], " ")
			acct := journal.Account{
				UserID:    userID,
				AccountID: journal.NewAccountID(),
				Name:      name,
				Default:   true,
			}
			if err := b.store.AddAccount(acct); err != nil {
				return "", err
			}
			return fmt.Sprintf("Account <b>%s</b> created and set as default.", name), nil
		case "rename":
			if len(args) < 3 {
				return "Usage: /accounts rename ID NAME", nil
			}
			id := args[1]
			name := strings.Join(args[2:], " ")
			if err := b.store.RenameAccount(userID, id, name); err != nil {
				if errors.Is(err, journal.ErrNotFound) {
					return fmt.Sprintf("No account with id %s.", id), nil
				}
				return "", err
			}
			return fmt.Sprintf("Account renamed to <b>%s</b>.", name), nil
		default:
			return "Usage: /accounts [add NAME | rename ID NAME]", nil
		}
	}

	accounts, err := b.store.ListAccounts(userID)
	if err != nil {
		return "", err
	}
	if len(accounts) == 0 {
		return "No accounts yet. Send /start to set one up.", nil
	}
	var sb strings.Builder
	sb.WriteString("<b>Your accounts</b>\n")
	for _, a := range accounts {
		marker := ""
		if a.Default {
			marker = " (default)"
		}
		sb.WriteString(fmt.Sprintf("%s - %s%s\n", a.AccountID, a.Name, marker))
	}
	return sb.String(), nil
}

func (b *Bot) handleDashboard(userID int64) (string, error) {
	if _, err := b.store.GetUser(userID); err != nil {
		return "Send /start first so I know who you are.", nil
	}
	token := b.tokens.Issue(userID)
	return fmt.Sprintf("Your dashboard (valid 24h):\n%s/api/dashboard/%s", b.dashboardURL, token), nil
}

func (b *Bot) handleAlerts(userID int64, args []string) (string, error) {
	if len(args) < 1 {
		return "Usage: /alerts on|off", nil
	}
	switch strings.ToLower(args[0]) {
	case "on":
		if err := b.store.SetSubscribed(userID, true); err != nil {
			return "", err
		}
		return "News alerts <b>enabled</b>. You'll hear from me 10 minutes before each event.", nil
	case "off":
		if err := b.store.SetSubscribed(userID, false); err != nil {
			return "", err
		}
		return "News alerts <b>disabled</b>.", nil
	default:
		return "Usage: /alerts on|off", nil
	}
}

func formatTradeLine(t journal.Trade) string {
	status := string(t.Status)
	if t.Status == journal.Closed {
		status = fmt.Sprintf("%s %s", t.Status, t.Result)
	}
	return fmt.Sprintf("#%d %s %s @ %s [%s] %s\n",
		t.TradeID, t.Pair, t.Direction, t.Entry.String(), status, clock.FormatDisplay(t.EntryTime))
}

func formatMinutes(d time.Duration) string {
	return fmt.Sprintf("%d minutes", int(d.Minutes()))
}
