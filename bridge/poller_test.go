package bridge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/fxbridge/protocol"
)

// Re-sending byte-identical content must not re-dispatch: identity is
// content equality, there is no sequence number.
func TestPollerDedupesIdenticalCommands(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, nil)
	order := `{"command":"PLACE_ORDER","symbol":"EURUSD","side":"BUY","volume":0.1,"timestamp":1}`

	fx.send(t, order)
	require.Len(t, fx.ownedPositions(t), 1)

	fx.send(t, order)
	fx.tick()
	assert.Len(t, fx.ownedPositions(t), 1, "identical bytes must not execute twice")

	// A distinct timestamp makes the same order byte-distinct again.
	fx.send(t, `{"command":"PLACE_ORDER","symbol":"EURUSD","side":"BUY","volume":0.1,"timestamp":2}`)
	assert.Len(t, fx.ownedPositions(t), 2)
}

// A command written before the bridge started is stale and must never
// replay on startup.
func TestPollerIgnoresStaleStartupCommand(t *testing.T) {
	t.Parallel()

	stale := `{"command":"PLACE_ORDER","symbol":"EURUSD","side":"BUY","volume":0.1,"timestamp":1}`
	fx := newFixture(t, func(o *Options) {
		// Options are applied before New primes the channel, so the file
		// is already on disk when the bridge comes up.
		require.NoError(t, os.WriteFile(filepath.Join(o.DataDir, CommandFile), []byte(stale), 0o644))
	})

	fx.tick()
	fx.tick()
	assert.Empty(t, fx.ownedPositions(t))
}

func TestPollerIgnoresMalformedCommand(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, nil)

	fx.send(t, `not json at all`)
	assert.False(t, fx.responseExists(), "noise gets no response")

	fx.send(t, `{"command":"SELF_DESTRUCT"}`)
	assert.False(t, fx.responseExists(), "unrecognized commands get no response")

	// The bridge keeps working after noise.
	fx.send(t, `{"command":"HEARTBEAT","timestamp":1}`)
	var resp protocol.HeartbeatResponse
	fx.lastResponse(t, &resp)
	assert.Equal(t, protocol.StatusAlive, resp.Status)
	assert.Equal(t, protocol.CmdHeartbeat, resp.Command)
}

func TestPollerResponseNamesCommand(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, nil)

	fx.send(t, `{"command":"GET_ACCOUNT_INFO","timestamp":1}`)
	var acct protocol.AccountInfoResponse
	fx.lastResponse(t, &acct)
	assert.Equal(t, protocol.CmdGetAccountInfo, acct.Command)
	assert.InDelta(t, 10000.0, acct.Balance, 1e-9)
	assert.NotEmpty(t, acct.ServerTime)

	// The next command's response replaces the previous one wholesale.
	fx.send(t, `{"command":"GET_POSITIONS","timestamp":2}`)
	var pos protocol.PositionsResponse
	fx.lastResponse(t, &pos)
	assert.Equal(t, protocol.CmdGetPositions, pos.Command)
	assert.Empty(t, pos.Positions)
}

func TestPollerLimitsResponse(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, nil)

	fx.send(t, `{"command":"PLACE_ORDER","symbol":"EURUSD","side":"BUY","volume":0.1,"timestamp":1}`)
	fx.send(t, `{"command":"GET_LIMITS","timestamp":2}`)

	var resp protocol.LimitsResponse
	fx.lastResponse(t, &resp)
	assert.True(t, resp.TradingEnabled)
	assert.Equal(t, 1, resp.OpenPositions)
	assert.InDelta(t, 0.1, resp.ExposureLots, 1e-9)
	assert.Equal(t, 1, resp.DailyTrades)
	assert.Equal(t, 20, resp.MaxTradesPerDay)
	// 3% of the 10000 starting equity, less the spread paid on the open
	// (0.1 lots * 2 points = 2.00 unrealized).
	assert.InDelta(t, 298.0, resp.DailyLossRemaining, 1e-6)
	assert.InDelta(t, -2.0, resp.DailyPnL, 1e-6)
}
