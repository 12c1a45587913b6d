package bridge

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/fxbridge/journal"
	"github.com/rustyeddy/fxbridge/market"
	"github.com/rustyeddy/fxbridge/risk"
	"github.com/rustyeddy/fxbridge/venue"
	"github.com/rustyeddy/fxbridge/venue/sim"
)

// fixture is a bridge wired to a sim engine over a temp data dir, with a
// manually advanced clock.
type fixture struct {
	b   *Bridge
	eng *sim.Engine
	dir string
	now time.Time
}

func openPolicy() risk.Policy {
	return risk.Policy{
		TradingEnabled:       true,
		MaxOpenPositions:     5,
		MaxPositionSizePct:   50,
		MaxTotalExposureLots: 5.0,
		MaxDailyLossPct:      3.0,
		MaxDailyProfitPct:    50.0,
		MaxTradesPerDay:      20,
	}
}

func newFixture(t *testing.T, mutate func(*Options)) *fixture {
	t.Helper()

	fx := &fixture{
		dir: t.TempDir(),
		now: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
	}

	fx.eng = sim.NewEngine(venue.AccountSnapshot{
		Balance: 10000, FreeMargin: 10000, Currency: "USD", Leverage: 100,
	})
	fx.eng.SetTick(market.Tick{Symbol: "EURUSD", Bid: 1.0849, Ask: 1.0851, Time: fx.now})

	opts := Options{
		Venue:           fx.eng,
		Policy:          openPolicy(),
		DataDir:         fx.dir,
		Tag:             "fxbridge",
		Watch:           []string{"EURUSD"},
		MaxSlippagePips: 2.0,
		Clock:           func() time.Time { return fx.now },
	}
	if mutate != nil {
		mutate(&opts)
	}

	b, err := New(context.Background(), opts)
	require.NoError(t, err)
	fx.b = b
	return fx
}

// send writes raw bytes into the command channel, as the strategy side
// would, and runs one tick.
func (fx *fixture) send(t *testing.T, cmd string) {
	t.Helper()
	fx.now = fx.now.Add(300 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(fx.dir, CommandFile), []byte(cmd), 0o644))
	fx.b.Tick(context.Background())
}

func (fx *fixture) tick() {
	fx.now = fx.now.Add(300 * time.Millisecond)
	fx.b.Tick(context.Background())
}

// lastResponse unmarshals the response channel into out.
func (fx *fixture) lastResponse(t *testing.T, out any) {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(fx.dir, ResponseFile))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, out))
}

func (fx *fixture) responseExists() bool {
	_, err := os.Stat(filepath.Join(fx.dir, ResponseFile))
	return err == nil
}

// memJournal records everything in memory for assertions.
type memJournal struct {
	orders []journal.OrderRecord
	daily  []journal.DailyRecord
}

func (m *memJournal) RecordOrder(r journal.OrderRecord) error {
	m.orders = append(m.orders, r)
	return nil
}

func (m *memJournal) RecordDaily(r journal.DailyRecord) error {
	m.daily = append(m.daily, r)
	return nil
}

func (m *memJournal) Close() error { return nil }

func (fx *fixture) ownedPositions(t *testing.T) []venue.Position {
	t.Helper()
	all, err := fx.eng.Positions(context.Background())
	require.NoError(t, err)
	owned := all[:0:0]
	for _, p := range all {
		if p.Tag == "fxbridge" {
			owned = append(owned, p)
		}
	}
	return owned
}
