// Package bridge is the venue-side half of the file-mediated strategy
// bridge: a single-threaded, timer-driven actor that polls the command
// channel, gates and executes orders, publishes status, and force-flattens
// positions in panic mode. One Tick runs to completion before the next is
// considered; there is no internal parallelism.
package bridge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/fxbridge/channel"
	"github.com/rustyeddy/fxbridge/id"
	"github.com/rustyeddy/fxbridge/journal"
	"github.com/rustyeddy/fxbridge/market"
	"github.com/rustyeddy/fxbridge/risk"
	"github.com/rustyeddy/fxbridge/venue"
)

// Channel file names, kept compatible with existing strategy-side clients.
const (
	CommandFile  = "mt5_commands.json"
	StatusFile   = "mt5_status.json"
	ResponseFile = "mt5_responses.json"
)

type Options struct {
	Venue   venue.Venue
	Policy  risk.Policy
	Journal journal.Journal
	Logger  *zap.Logger
	Clock   risk.Clock

	// DataDir holds the three shared channel files.
	DataDir string

	// Tag marks positions as owned by this bridge.
	Tag string

	// Watch is the symbol list covered by the status publisher.
	Watch []string

	StatusInterval time.Duration

	DeviationPoints      int
	CloseDeviationPoints int
	PanicDeviationPoints int

	MaxSlippagePips float64
	MaxFillAttempts int
}

type Bridge struct {
	runID string

	vn      venue.Venue
	policy  risk.Policy
	state   *risk.State
	journal journal.Journal
	log     *zap.Logger
	clock   risk.Clock

	cmdCh    *channel.File
	statusCh *channel.File
	respCh   *channel.File

	tag   string
	watch []string

	statusEvery time.Duration
	lastStatus  time.Time

	deviation      int
	closeDeviation int
	panicDeviation int

	maxSlippagePips float64
	maxFillAttempts int
}

// New wires a bridge and initializes its channels and daily risk state
// from the live account. Channel initialization failure is the only
// process-fatal condition.
func New(ctx context.Context, opts Options) (*Bridge, error) {
	if opts.Venue == nil {
		return nil, fmt.Errorf("bridge: venue is required")
	}
	if opts.DataDir == "" {
		return nil, fmt.Errorf("bridge: data dir is required")
	}
	if opts.Tag == "" {
		return nil, fmt.Errorf("bridge: ownership tag is required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Journal == nil {
		opts.Journal = journal.Nop{}
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.StatusInterval <= 0 {
		opts.StatusInterval = 2 * time.Second
	}
	if opts.MaxFillAttempts < 1 || opts.MaxFillAttempts > len(market.AllFillModes) {
		opts.MaxFillAttempts = len(market.AllFillModes)
	}
	if opts.DeviationPoints <= 0 {
		opts.DeviationPoints = 10
	}
	if opts.CloseDeviationPoints <= 0 {
		opts.CloseDeviationPoints = 2 * opts.DeviationPoints
	}
	if opts.PanicDeviationPoints <= 0 {
		opts.PanicDeviationPoints = 5 * opts.DeviationPoints
	}

	if err := os.MkdirAll(opts.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	acct, err := opts.Venue.Account(ctx)
	if err != nil {
		return nil, fmt.Errorf("initial account snapshot: %w", err)
	}

	b := &Bridge{
		runID:           id.New(),
		vn:              opts.Venue,
		policy:          opts.Policy,
		state:           risk.NewState(acct.Equity, opts.Clock()),
		journal:         opts.Journal,
		log:             opts.Logger,
		clock:           opts.Clock,
		cmdCh:           channel.New(filepath.Join(opts.DataDir, CommandFile)),
		statusCh:        channel.New(filepath.Join(opts.DataDir, StatusFile)),
		respCh:          channel.New(filepath.Join(opts.DataDir, ResponseFile)),
		tag:             opts.Tag,
		watch:           opts.Watch,
		statusEvery:     opts.StatusInterval,
		deviation:       opts.DeviationPoints,
		closeDeviation:  opts.CloseDeviationPoints,
		panicDeviation:  opts.PanicDeviationPoints,
		maxSlippagePips: opts.MaxSlippagePips,
		maxFillAttempts: opts.MaxFillAttempts,
	}

	// A command left over from a previous run is stale; mark it seen.
	b.cmdCh.Prime()

	b.log.Info("bridge initialized",
		zap.String("run_id", b.runID),
		zap.String("data_dir", opts.DataDir),
		zap.String("tag", b.tag),
		zap.Float64("daily_start_equity", acct.Equity),
	)

	return b, nil
}

// RunID identifies this bridge process in journal records.
func (b *Bridge) RunID() string { return b.runID }

// Run drives the control loop at the given poll interval until ctx is
// canceled. The current tick always completes before the loop exits.
func (b *Bridge) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.log.Info("bridge stopped")
			return
		case <-ticker.C:
			b.Tick(ctx)
		}
	}
}

// Tick is a single activation of the control loop: session rollover, panic
// check, command dispatch, then a throttled status publish.
func (b *Bridge) Tick(ctx context.Context) {
	now := b.clock()

	b.rollover(ctx, now)

	if b.policy.PanicCloseAll {
		b.panicFlatten(ctx, now)
	}

	b.pollCommands(ctx, now)

	if b.lastStatus.IsZero() || now.Sub(b.lastStatus) >= b.statusEvery {
		b.publishStatus(ctx, now)
		b.lastStatus = now
	}
}

func (b *Bridge) rollover(ctx context.Context, now time.Time) {
	acct, err := b.vn.Account(ctx)
	if err != nil {
		b.log.Warn("rollover: account snapshot failed", zap.Error(err))
		return
	}

	sum, fired := b.state.Rollover(acct.Equity, now)
	if !fired {
		return
	}

	b.log.Info("session rollover",
		zap.Time("closed_day", sum.Date),
		zap.Int("trades", sum.Trades),
		zap.Float64("pnl", sum.PnL),
		zap.Float64("new_start_equity", acct.Equity),
	)

	if err := b.journal.RecordDaily(journal.DailyRecord{
		RunID:         b.runID,
		Date:          sum.Date,
		Trades:        sum.Trades,
		PnL:           sum.PnL,
		ClosingEquity: acct.Equity,
	}); err != nil {
		b.log.Warn("journal daily record failed", zap.Error(err))
	}
}

// usage recomputes live exposure from the venue's position list, counting
// only positions this bridge owns.
func (b *Bridge) usage(ctx context.Context) (risk.Usage, []venue.Position, error) {
	all, err := b.vn.Positions(ctx)
	if err != nil {
		return risk.Usage{}, nil, fmt.Errorf("positions: %w", err)
	}

	var u risk.Usage
	owned := make([]venue.Position, 0, len(all))
	for _, p := range all {
		if p.Tag != b.tag {
			continue
		}
		owned = append(owned, p)
		u.OpenPositions++
		u.ExposureLots += p.Volume
	}
	return u, owned, nil
}
