package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeVolume(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		symbol string
		in     float64
		want   float64
	}{
		{"rounds_down_to_step", "EURUSD", 0.013, 0.01},
		{"rounds_up_to_step", "EURUSD", 0.017, 0.02},
		{"exact_step_unchanged", "EURUSD", 0.05, 0.05},
		{"clamps_to_min", "EURUSD", 0.001, 0.01},
		{"clamps_to_max", "EURUSD", 250, 100},
		{"zero_clamps_to_min", "EURUSD", 0, 0.01},
		{"unknown_symbol_uses_defaults", "GBPNZD", 0.013, 0.01},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := NormalizeVolume(tt.symbol, tt.in)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestNormalizeVolumeIdempotent(t *testing.T) {
	t.Parallel()

	volumes := []float64{0.0049, 0.013, 0.1, 1.2345, 7.2, 99.999, 500}
	for _, v := range volumes {
		once := NormalizeVolume("EURUSD", v)
		twice := NormalizeVolume("EURUSD", once)
		assert.Equal(t, once, twice, "volume %v", v)
	}
}

func TestNormalizeVolumeClampScenario(t *testing.T) {
	t.Parallel()

	// step=0.01, min=0.01, max=50 for XAUUSD
	assert.InDelta(t, 0.01, NormalizeVolume("XAUUSD", 0.013), 1e-9)
	assert.InDelta(t, 50.0, NormalizeVolume("XAUUSD", 72.0), 1e-9)
}

func TestSlippagePips(t *testing.T) {
	t.Parallel()

	// EURUSD pip = 0.0001
	assert.InDelta(t, 2.0, SlippagePips("EURUSD", 1.1000, 1.1002), 1e-9)
	assert.InDelta(t, 2.0, SlippagePips("EURUSD", 1.1002, 1.1000), 1e-9)
	// USDJPY pip = 0.01
	assert.InDelta(t, 1.5, SlippagePips("USDJPY", 150.000, 150.015), 1e-9)
}

func TestPreferredFill(t *testing.T) {
	t.Parallel()

	assert.Equal(t, FillIOC, Lookup("EURUSD").PreferredFill())
	assert.Equal(t, FillFOK, Lookup("XAUUSD").PreferredFill())
	// No declared modes means everything is assumed supported.
	assert.Equal(t, FillIOC, Lookup("GBPNZD").PreferredFill())
}
