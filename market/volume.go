package market

import "math"

// PipSize returns the price increment of one pip for a given pip location.
func PipSize(loc int) float64 {
	return math.Pow(10, float64(loc))
}

// NormalizeVolume rounds v to the nearest multiple of the symbol's volume
// step, then clamps it into [MinVolume, MaxVolume]. Total and idempotent:
// normalizing an already-normalized volume is a no-op.
func NormalizeVolume(symbol string, v float64) float64 {
	meta := Lookup(symbol)

	step := meta.VolumeStep
	if step <= 0 {
		step = 0.01
	}

	n := math.Round(v/step) * step
	// Scrub float dust so 0.1+0.02 style artifacts don't leak into requests.
	n = math.Round(n*1e8) / 1e8

	if n < meta.MinVolume {
		n = meta.MinVolume
	}
	if n > meta.MaxVolume {
		n = meta.MaxVolume
	}
	return n
}

// SlippagePips converts an absolute price difference into pip units for the
// given symbol.
func SlippagePips(symbol string, requested, filled float64) float64 {
	pip := PipSize(Lookup(symbol).PipLocation)
	if pip <= 0 {
		return 0
	}
	return math.Abs(filled-requested) / pip
}
