// Package journal persists order outcomes and daily session summaries to
// CSV or SQLite. Write-only from the bridge's point of view; analysis
// happens in external tooling.
package journal

import "time"

// OrderRecord is one executed order (open, close, or panic close).
type OrderRecord struct {
	RunID        string
	Ticket       uint64
	Symbol       string
	Side         string
	Action       string // "open", "close", "panic_close"
	Volume       float64
	FillPrice    float64
	SlippagePips float64
	FillMode     string
	PnL          float64 // realized, close actions only
	Time         time.Time
}

// DailyRecord is the closing snapshot written at session rollover.
type DailyRecord struct {
	RunID         string
	Date          time.Time
	Trades        int
	PnL           float64
	ClosingEquity float64
}

type Journal interface {
	RecordOrder(OrderRecord) error
	RecordDaily(DailyRecord) error
	Close() error
}

// Nop discards everything; used when journaling is disabled.
type Nop struct{}

func (Nop) RecordOrder(OrderRecord) error { return nil }
func (Nop) RecordDaily(DailyRecord) error { return nil }
func (Nop) Close() error                  { return nil }
