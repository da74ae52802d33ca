package journal

// Schema creates the journal tables. Trades are keyed by
// (user_id, trade_id); trade ids are assigned per user, max+1, and
// never reused. Prices are stored as text so decimal values survive
// the round trip exactly.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	telegram_id INTEGER PRIMARY KEY,
	username TEXT NOT NULL DEFAULT '',
	first_name TEXT NOT NULL DEFAULT '',
	subscribed INTEGER NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS accounts (
	user_id INTEGER NOT NULL,
	account_id TEXT NOT NULL,
	name TEXT NOT NULL,
	is_default INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	PRIMARY KEY (user_id, account_id)
);

CREATE TABLE IF NOT EXISTS pairs (
	user_id INTEGER NOT NULL,
	pair TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	PRIMARY KEY (user_id, pair)
);

CREATE TABLE IF NOT EXISTS trades (
	user_id INTEGER NOT NULL,
	trade_id INTEGER NOT NULL,
	account_id TEXT NOT NULL,
	pair TEXT NOT NULL,
	direction TEXT NOT NULL,
	entry TEXT NOT NULL,
	stop TEXT NOT NULL,
	target TEXT NOT NULL,
	session TEXT NOT NULL,
	news_risk TEXT NOT NULL,
	status TEXT NOT NULL,
	result TEXT NOT NULL DEFAULT '',
	notes TEXT NOT NULL DEFAULT '',
	entry_time DATETIME NOT NULL,
	exit_time DATETIME,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	PRIMARY KEY (user_id, trade_id)
);

CREATE INDEX IF NOT EXISTS idx_trades_status ON trades(user_id, status);
CREATE INDEX IF NOT EXISTS idx_trades_entry_time ON trades(user_id, entry_time);
`
