package journal

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/rustyeddy/journalbot/clock"
)

// csvHeader mirrors the journal's original flat-file column layout.
var csvHeader = []string{
	"trade_id", "account_id", "datetime", "pair", "direction",
	"entry", "sl", "tp", "session", "status", "news_risk", "result", "notes",
}

// ExportCSV writes every trade for the user to w in the journal's CSV
// layout, newest entry first.
func ExportCSV(store Store, userID int64, w io.Writer) error {
	trades, err := store.ListAll(userID)
	if err != nil {
		return fmt.Errorf("list trades: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, t := range trades {
		row := []string{
			fmt.Sprintf("%d", t.TradeID),
			t.AccountID,
			clock.Format(t.EntryTime),
			t.Pair,
			string(t.Direction),
			t.Entry.String(),
			t.Stop.String(),
			t.Target.String(),
			string(t.Session),
			string(t.Status),
			string(t.NewsRisk),
			string(t.Result),
			t.Notes,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
