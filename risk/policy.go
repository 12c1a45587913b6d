package risk

// Policy is the venue-side risk configuration. Fixed at attach time, not
// hot-reloadable: the bridge owns the only copy.
type Policy struct {
	// Master switch. When false every new order is denied.
	TradingEnabled bool

	// Emergency flatten. While set, new orders are denied and the bridge
	// force-closes every position it owns.
	PanicCloseAll bool

	MaxOpenPositions     int
	MaxPositionSizePct   float64 // max margin for one order, % of balance
	MaxTotalExposureLots float64
	MaxDailyLossPct      float64
	MaxDailyProfitPct    float64 // profit lock
	MaxTradesPerDay      int

	// Trading-hours window, evaluated as [StartHour, EndHour) in the
	// bridge clock's location. Only active when RestrictHours is set.
	RestrictHours    bool
	TradingStartHour int
	TradingEndHour   int

	// When set, deny new orders on Friday at/after WeekendCloseHour to
	// avoid carrying fresh risk into the weekend close.
	BlockWeekendClose bool
	WeekendCloseHour  int
}

// Usage is live exposure recomputed on demand from the venue's position
// list; it is never stored across restarts.
type Usage struct {
	OpenPositions int
	ExposureLots  float64
}
