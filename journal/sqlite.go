package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

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

func (j *SQLite) RecordOrder(r OrderRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO orders
		(run_id, ticket, symbol, side, action, volume, fill_price, slippage_pips, fill_mode, pnl, time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Ticket, r.Symbol, r.Side, r.Action,
		r.Volume, r.FillPrice, r.SlippagePips, r.FillMode, r.PnL, r.Time,
	)
	return err
}

func (j *SQLite) RecordDaily(r DailyRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO daily
		(run_id, date, trades, pnl, closing_equity)
		VALUES (?, ?, ?, ?, ?)`,
		r.RunID, r.Date, r.Trades, r.PnL, r.ClosingEquity,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
