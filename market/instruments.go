// Package market carries static instrument metadata, volume normalization
// and the latest-tick store. Everything here is venue-independent.
package market

// FillMode is the execution-matching mode requested for an order.
type FillMode uint8

const (
	FillIOC  FillMode = iota // immediate-or-cancel: fill what's available now
	FillFOK                  // fill-or-kill: full volume or nothing
	FillFull                 // full-fill-only ("return"): rest stays working
)

func (m FillMode) String() string {
	switch m {
	case FillIOC:
		return "IOC"
	case FillFOK:
		return "FOK"
	case FillFull:
		return "FULL"
	}
	return "UNKNOWN"
}

// AllFillModes is the preference order used when building an order:
// IOC first, then FOK, then full-fill-only.
var AllFillModes = []FillMode{FillIOC, FillFOK, FillFull}

type InstrumentMeta struct {
	Name          string
	BaseCurrency  string
	QuoteCurrency string
	PipLocation   int
	ContractSize  float64 // units of base per 1.0 lot
	VolumeStep    float64
	MinVolume     float64
	MaxVolume     float64
	MarginPerLot  float64 // account currency required per 1.0 lot
	FillModes     []FillMode
}

// SupportsFill reports whether the venue declared mode as usable for this
// instrument. An empty FillModes list means "unknown", which callers should
// treat as supporting everything.
func (m InstrumentMeta) SupportsFill(mode FillMode) bool {
	if len(m.FillModes) == 0 {
		return true
	}
	for _, f := range m.FillModes {
		if f == mode {
			return true
		}
	}
	return false
}

// PreferredFill returns the initial fill-convention guess for this
// instrument: the first of IOC, FOK, FULL that the instrument declares.
func (m InstrumentMeta) PreferredFill() FillMode {
	for _, f := range AllFillModes {
		if m.SupportsFill(f) {
			return f
		}
	}
	return FillIOC
}

var Instruments = map[string]InstrumentMeta{
	"EURUSD": {
		Name:          "EURUSD",
		BaseCurrency:  "EUR",
		QuoteCurrency: "USD",
		PipLocation:   -4,
		ContractSize:  100_000,
		VolumeStep:    0.01,
		MinVolume:     0.01,
		MaxVolume:     100,
		MarginPerLot:  2000,
		FillModes:     []FillMode{FillIOC, FillFOK},
	},
	"USDJPY": {
		Name:          "USDJPY",
		BaseCurrency:  "USD",
		QuoteCurrency: "JPY",
		PipLocation:   -2,
		ContractSize:  100_000,
		VolumeStep:    0.01,
		MinVolume:     0.01,
		MaxVolume:     100,
		MarginPerLot:  2000,
		FillModes:     []FillMode{FillIOC, FillFOK},
	},
	"XAUUSD": {
		Name:          "XAUUSD",
		BaseCurrency:  "XAU",
		QuoteCurrency: "USD",
		PipLocation:   -1,
		ContractSize:  100,
		VolumeStep:    0.01,
		MinVolume:     0.01,
		MaxVolume:     50,
		MarginPerLot:  2500,
		FillModes:     []FillMode{FillFOK},
	},
}

// defaultMeta is used for symbols the venue streams but we carry no static
// metadata for. Conservative FX-style defaults.
var defaultMeta = InstrumentMeta{
	PipLocation:  -4,
	ContractSize: 100_000,
	VolumeStep:   0.01,
	MinVolume:    0.01,
	MaxVolume:    100,
	MarginPerLot: 2000,
}

// Lookup returns metadata for symbol, falling back to FX defaults so that
// callers like NormalizeVolume stay total.
func Lookup(symbol string) InstrumentMeta {
	if m, ok := Instruments[symbol]; ok {
		return m
	}
	m := defaultMeta
	m.Name = symbol
	return m
}
