package journal

import (
	"database/sql"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testOrder = OrderRecord{
	RunID:        "01JTEST",
	Ticket:       100001,
	Symbol:       "EURUSD",
	Side:         "BUY",
	Action:       "open",
	Volume:       0.1,
	FillPrice:    1.0851,
	SlippagePips: 0.5,
	FillMode:     "IOC",
	Time:         time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
}

var testDaily = DailyRecord{
	RunID:         "01JTEST",
	Date:          time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
	Trades:        3,
	PnL:           -42.5,
	ClosingEquity: 9957.5,
}

func TestSQLiteRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := NewSQLite(path)
	require.NoError(t, err)

	require.NoError(t, j.RecordOrder(testOrder))
	closeRec := testOrder
	closeRec.Ticket = 100002
	closeRec.Action = "close"
	closeRec.PnL = 12.5
	require.NoError(t, j.RecordOrder(closeRec))
	require.NoError(t, j.RecordDaily(testDaily))
	require.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM orders`).Scan(&n))
	assert.Equal(t, 2, n)

	var symbol, action string
	var pnl float64
	require.NoError(t, db.QueryRow(
		`SELECT symbol, action, pnl FROM orders WHERE ticket = 100002`,
	).Scan(&symbol, &action, &pnl))
	assert.Equal(t, "EURUSD", symbol)
	assert.Equal(t, "close", action)
	assert.InDelta(t, 12.5, pnl, 1e-9)

	var trades int
	var equity float64
	require.NoError(t, db.QueryRow(
		`SELECT trades, closing_equity FROM daily`,
	).Scan(&trades, &equity))
	assert.Equal(t, 3, trades)
	assert.InDelta(t, 9957.5, equity, 1e-9)
}

func TestSQLiteSchemaIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "journal.db")

	j, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, j.RecordOrder(testOrder))
	require.NoError(t, j.Close())

	// Reopening an existing database must not fail or lose rows.
	j, err = NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, j.RecordOrder(testOrder))
	require.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM orders`).Scan(&n))
	assert.Equal(t, 2, n)
}

func TestCSVJournal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ordersPath := filepath.Join(dir, "orders.csv")
	dailyPath := filepath.Join(dir, "daily.csv")

	j, err := NewCSV(ordersPath, dailyPath)
	require.NoError(t, err)
	require.NoError(t, j.RecordOrder(testOrder))
	require.NoError(t, j.RecordDaily(testDaily))
	require.NoError(t, j.Close())

	of, err := os.Open(ordersPath)
	require.NoError(t, err)
	defer of.Close()

	rows, err := csv.NewReader(of).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "ticket", rows[0][1])
	assert.Equal(t, "100001", rows[1][1])
	assert.Equal(t, "EURUSD", rows[1][2])
	assert.Equal(t, "open", rows[1][4])
	assert.Equal(t, "0.1", rows[1][5])
	assert.Equal(t, "2025-03-10T12:00:00Z", rows[1][10])

	df, err := os.Open(dailyPath)
	require.NoError(t, err)
	defer df.Close()

	rows, err = csv.NewReader(df).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "-42.5", rows[1][3])
}

func TestNopDiscards(t *testing.T) {
	t.Parallel()

	var j Journal = Nop{}
	assert.NoError(t, j.RecordOrder(testOrder))
	assert.NoError(t, j.RecordDaily(testDaily))
	assert.NoError(t, j.Close())
}
