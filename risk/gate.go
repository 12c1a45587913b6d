package risk

import (
	"fmt"
	"time"

	"github.com/rustyeddy/fxbridge/market"
	"github.com/rustyeddy/fxbridge/venue"
)

type Violation struct {
	Code string
	Msg  string
}

// Decision is the gate's answer. Checks run in a fixed order and the first
// failing check ends evaluation, so Violations holds at most one entry;
// its stable reason string travels back to the strategy side unchanged.
type Decision struct {
	Allowed    bool
	Violations []Violation
}

func (d *Decision) deny(code, msg string) {
	d.Violations = append(d.Violations, Violation{Code: code, Msg: msg})
	d.Allowed = false
}

// Reason returns the denial reason, or "" when allowed.
func (d Decision) Reason() string {
	if len(d.Violations) == 0 {
		return ""
	}
	return d.Violations[0].Msg
}

// Code returns the machine-readable denial code, or "" when allowed.
func (d Decision) Code() string {
	if len(d.Violations) == 0 {
		return ""
	}
	return d.Violations[0].Code
}

// Evaluate is the pre-trade gate every order must pass before it reaches
// the venue. Pure read: no counters move here.
func Evaluate(p Policy, acct venue.AccountSnapshot, st *State, usage Usage, now time.Time) Decision {
	d := Decision{Allowed: true}

	if !p.TradingEnabled {
		d.deny("TRADING_DISABLED", "trading disabled")
		return d
	}
	if p.PanicCloseAll {
		d.deny("PANIC_ACTIVE", "panic mode active")
		return d
	}

	pnl := st.DailyPnL(acct.Equity)
	if pnl < -st.DailyStartEquity*p.MaxDailyLossPct/100 {
		d.deny("DAILY_LOSS_LIMIT", "daily loss limit")
		return d
	}
	if pnl > st.DailyStartEquity*p.MaxDailyProfitPct/100 {
		d.deny("DAILY_PROFIT_TARGET", "daily profit target reached")
		return d
	}
	if st.DailyTrades >= p.MaxTradesPerDay {
		d.deny("TRADE_COUNT_LIMIT", "trade count limit")
		return d
	}
	if p.RestrictHours && !withinHours(p, now) {
		d.deny("OUTSIDE_HOURS", "outside trading hours")
		return d
	}
	if usage.OpenPositions >= p.MaxOpenPositions {
		d.deny("POSITION_LIMIT", "position limit")
		return d
	}

	return d
}

func withinHours(p Policy, now time.Time) bool {
	h := now.Hour()
	if h < p.TradingStartHour || h >= p.TradingEndHour {
		return false
	}
	if p.BlockWeekendClose && now.Weekday() == time.Friday && h >= p.WeekendCloseHour {
		return false
	}
	return true
}

// EvaluateOrder validates one specific order after the gate has allowed
// trading in general: position size against balance, cumulative exposure,
// and free margin with a 20% buffer against margin calls. Runs before the
// venue is contacted.
func EvaluateOrder(p Policy, acct venue.AccountSnapshot, usage Usage, meta market.InstrumentMeta, volume float64) Decision {
	d := Decision{Allowed: true}

	margin := volume * meta.MarginPerLot

	if maxMargin := acct.Balance * p.MaxPositionSizePct / 100; margin > maxMargin {
		d.deny("POSITION_SIZE", fmt.Sprintf(
			"position size: margin %.2f exceeds %.2f%% of balance (%.2f)",
			margin, p.MaxPositionSizePct, maxMargin))
		return d
	}
	if usage.ExposureLots+volume > p.MaxTotalExposureLots {
		d.deny("EXPOSURE_LIMIT", fmt.Sprintf(
			"exposure: %.2f + %.2f lots exceeds max %.2f",
			usage.ExposureLots, volume, p.MaxTotalExposureLots))
		return d
	}
	if margin > acct.FreeMargin*0.8 {
		d.deny("INSUFFICIENT_MARGIN", fmt.Sprintf(
			"margin: required %.2f exceeds 80%% of free margin (%.2f)",
			margin, acct.FreeMargin))
		return d
	}

	return d
}
