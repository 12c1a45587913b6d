package journal

const Schema = `
CREATE TABLE IF NOT EXISTS orders (
	run_id TEXT NOT NULL,
	ticket INTEGER NOT NULL,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	action TEXT NOT NULL,
	volume REAL NOT NULL,
	fill_price REAL NOT NULL,
	slippage_pips REAL NOT NULL,
	fill_mode TEXT NOT NULL,
	pnl REAL NOT NULL,
	time DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS daily (
	run_id TEXT NOT NULL,
	date DATETIME NOT NULL,
	trades INTEGER NOT NULL,
	pnl REAL NOT NULL,
	closing_equity REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_orders_time ON orders(time);
CREATE INDEX IF NOT EXISTS idx_daily_date ON daily(date);
`
