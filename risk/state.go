package risk

import "time"

// Clock supplies the bridge's notion of now. Injected so rollover logic is
// testable without real time passing.
type Clock func() time.Time

// State holds the daily counters the gate reads. Constructed once at
// process start from the live account snapshot and passed by reference to
// the gate and the executor.
type State struct {
	DailyStartEquity float64
	DailyTrades      int
	LastReset        time.Time
}

func NewState(equity float64, now time.Time) *State {
	return &State{
		DailyStartEquity: equity,
		LastReset:        now,
	}
}

// DailyPnL is today's equity change against the daily starting equity.
func (s *State) DailyPnL(equity float64) float64 {
	return equity - s.DailyStartEquity
}

// RecordTrade counts one successfully submitted order against today's
// trade budget.
func (s *State) RecordTrade() {
	s.DailyTrades++
}

// DaySummary is the closing snapshot taken when a calendar day rolls over.
type DaySummary struct {
	Date   time.Time
	Trades int
	PnL    float64
}

// Rollover resets the daily counters when now falls on a different
// calendar day than the last reset. It fires at most once per day change
// regardless of tick frequency; the returned summary describes the day
// that just closed.
func (s *State) Rollover(equity float64, now time.Time) (DaySummary, bool) {
	ly, lm, ld := s.LastReset.Date()
	ny, nm, nd := now.Date()
	if ly == ny && lm == nm && ld == nd {
		return DaySummary{}, false
	}

	sum := DaySummary{
		Date:   s.LastReset,
		Trades: s.DailyTrades,
		PnL:    s.DailyPnL(equity),
	}

	s.DailyStartEquity = equity
	s.DailyTrades = 0
	s.LastReset = now
	return sum, true
}
