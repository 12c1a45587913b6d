package bridge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/fxbridge/market"
	"github.com/rustyeddy/fxbridge/venue"
)

// Panic mode flattens every owned position and nothing else: a manual
// position sharing the account survives untouched.
func TestPanicFlattensOwnedOnly(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, func(o *Options) {
		o.Policy.PanicCloseAll = true
	})
	ctx := context.Background()

	_, err := fx.eng.Submit(ctx, venue.OrderRequest{
		Symbol: "EURUSD", Side: venue.Buy, Volume: 0.1, Tag: "fxbridge",
	})
	require.NoError(t, err)
	_, err = fx.eng.Submit(ctx, venue.OrderRequest{
		Symbol: "EURUSD", Side: venue.Sell, Volume: 0.2, Tag: "fxbridge",
	})
	require.NoError(t, err)
	manual, err := fx.eng.Submit(ctx, venue.OrderRequest{
		Symbol: "EURUSD", Side: venue.Buy, Volume: 0.3, Tag: "manual",
	})
	require.NoError(t, err)

	fx.tick()

	all, err := fx.eng.Positions(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, manual.Ticket, all[0].Ticket)
	assert.Equal(t, "manual", all[0].Tag)
}

// The gate denies while panic is active, but the panic controller itself
// bypasses it: closing out risk is never blocked by the gate.
func TestPanicBlocksNewOrders(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, func(o *Options) {
		o.Policy.PanicCloseAll = true
	})

	fx.send(t, `{"command":"PLACE_ORDER","symbol":"EURUSD","side":"BUY","volume":0.1,"timestamp":1}`)
	assert.Empty(t, fx.ownedPositions(t))
}

// One position failing to close must not stop the sweep; the failed
// position is retried on the next tick.
func TestPanicContinuesPastFailures(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, func(o *Options) {
		o.Policy.PanicCloseAll = true
	})
	ctx := context.Background()

	_, err := fx.eng.Submit(ctx, venue.OrderRequest{
		Symbol: "EURUSD", Side: venue.Buy, Volume: 0.1, Tag: "fxbridge",
	})
	require.NoError(t, err)
	_, err = fx.eng.Submit(ctx, venue.OrderRequest{
		Symbol: "EURUSD", Side: venue.Sell, Volume: 0.2, Tag: "fxbridge",
	})
	require.NoError(t, err)

	fx.eng.FailNext(venue.RetcodeRejected, "off quotes")
	fx.tick()

	remaining := fx.ownedPositions(t)
	assert.Len(t, remaining, 1, "the failed close stays; the other went through")

	fx.tick()
	assert.Empty(t, fx.ownedPositions(t))
}

// A venue that refuses IOC still gets flattened via the convention retry.
func TestPanicRetriesFillConvention(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, func(o *Options) {
		o.Policy.PanicCloseAll = true
	})
	ctx := context.Background()

	_, err := fx.eng.Submit(ctx, venue.OrderRequest{
		Symbol: "EURUSD", Side: venue.Buy, Volume: 0.1, Tag: "fxbridge",
	})
	require.NoError(t, err)

	fx.eng.RejectFillModes(market.FillIOC)
	fx.tick()
	assert.Empty(t, fx.ownedPositions(t))
}
