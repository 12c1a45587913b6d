package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

type CSVJournal struct {
	orders *csv.Writer
	daily  *csv.Writer
	of, df *os.File
}

func NewCSV(ordersPath, dailyPath string) (*CSVJournal, error) {
	of, err := os.Create(ordersPath)
	if err != nil {
		return nil, err
	}
	df, err := os.Create(dailyPath)
	if err != nil {
		of.Close()
		return nil, err
	}

	ow := csv.NewWriter(of)
	dw := csv.NewWriter(df)

	if err := ow.Write([]string{"run_id", "ticket", "symbol", "side", "action", "volume", "fill_price", "slippage_pips", "fill_mode", "pnl", "time"}); err != nil {
		return nil, err
	}
	if err := dw.Write([]string{"run_id", "date", "trades", "pnl", "closing_equity"}); err != nil {
		return nil, err
	}

	ow.Flush()
	if err := ow.Error(); err != nil {
		return nil, err
	}
	dw.Flush()
	if err := dw.Error(); err != nil {
		return nil, err
	}

	return &CSVJournal{ow, dw, of, df}, nil
}

func (j *CSVJournal) RecordOrder(r OrderRecord) error {
	j.orders.Write([]string{
		r.RunID,
		strconv.FormatUint(r.Ticket, 10),
		r.Symbol,
		r.Side,
		r.Action,
		f(r.Volume),
		f(r.FillPrice),
		f(r.SlippagePips),
		r.FillMode,
		f(r.PnL),
		r.Time.Format(time.RFC3339),
	})
	j.orders.Flush()
	return j.orders.Error()
}

func (j *CSVJournal) RecordDaily(r DailyRecord) error {
	err := j.daily.Write([]string{
		r.RunID,
		r.Date.Format(time.RFC3339),
		strconv.Itoa(r.Trades),
		f(r.PnL),
		f(r.ClosingEquity),
	})
	if err != nil {
		return err
	}
	j.daily.Flush()
	return j.daily.Error()
}

func (j *CSVJournal) Close() error {
	j.orders.Flush()
	if err := j.orders.Error(); err != nil {
		return err
	}
	j.daily.Flush()
	if err := j.daily.Error(); err != nil {
		return err
	}
	if err := j.of.Close(); err != nil {
		return err
	}
	return j.df.Close()
}

func f(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
