package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickStore(t *testing.T) {
	t.Parallel()

	s := NewTickStore()

	_, err := s.Get("EURUSD")
	assert.ErrorIs(t, err, ErrNoTick)

	now := time.Now()
	s.Set(Tick{Symbol: "EURUSD", Bid: 1.0849, Ask: 1.0851, Time: now})
	s.Set(Tick{Symbol: "USDJPY", Bid: 150.00, Ask: 150.02, Time: now})

	tick, err := s.Get("EURUSD")
	require.NoError(t, err)
	assert.InDelta(t, 1.0850, tick.Mid(), 1e-9)
	assert.InDelta(t, 0.0002, tick.Spread(), 1e-9)

	// Later ticks replace earlier ones.
	s.Set(Tick{Symbol: "EURUSD", Bid: 1.0859, Ask: 1.0861, Time: now.Add(time.Second)})
	tick, err = s.Get("EURUSD")
	require.NoError(t, err)
	assert.InDelta(t, 1.0859, tick.Bid, 1e-9)

	assert.ElementsMatch(t, []string{"EURUSD", "USDJPY"}, s.Symbols())
}
