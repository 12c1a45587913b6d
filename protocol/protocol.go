// Package protocol defines the fixed command vocabulary exchanged over the
// file channels, plus the response and status shapes. Field names are kept
// wire-compatible with existing strategy-side clients, which historically
// send numbers as strings ("volume": "0.01") and use "order_type" as an
// alias for "side".
package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/rustyeddy/fxbridge/venue"
)

const (
	CmdHeartbeat      = "HEARTBEAT"
	CmdGetAccountInfo = "GET_ACCOUNT_INFO"
	CmdGetPositions   = "GET_POSITIONS"
	CmdPlaceOrder     = "PLACE_ORDER"
	CmdClosePosition  = "CLOSE_POSITION"
	CmdGetLimits      = "GET_LIMITS"
)

const (
	StatusSuccess = "SUCCESS"
	StatusError   = "ERROR"
	StatusAlive   = "ALIVE"
)

// Float decodes a JSON number or a numeric string.
type Float float64

func (f *Float) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid number %q", s)
		}
		*f = Float(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Float(v)
	return nil
}

// Uint decodes a JSON integer or a numeric string.
type Uint uint64

func (u *Uint) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			return nil
		}
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid ticket %q", s)
		}
		*u = Uint(v)
		return nil
	}
	var v uint64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*u = Uint(v)
	return nil
}

// Command is one message on the command channel. There is no sequence
// number: identity is content equality, enforced upstream by the poller.
// Clients typically stamp a client-side timestamp purely to make repeated
// commands byte-distinct.
type Command struct {
	Name       string  `json:"command"`
	Symbol     string  `json:"symbol,omitempty"`
	Side       string  `json:"side,omitempty"`
	OrderType  string  `json:"order_type,omitempty"` // legacy alias for side
	Volume     Float   `json:"volume,omitempty"`
	StopLoss   Float   `json:"stop_loss,omitempty"`
	TakeProfit Float   `json:"take_profit,omitempty"`
	Ticket     Uint    `json:"ticket,omitempty"`
	Timestamp  float64 `json:"timestamp,omitempty"`
}

// SideValue resolves the order side, accepting both the current "side"
// field and the legacy "order_type" spelling.
func (c Command) SideValue() (venue.Side, error) {
	s := c.Side
	if s == "" {
		s = c.OrderType
	}
	return venue.ParseSide(s)
}

// Parse decodes and validates a command. Anything malformed or outside the
// fixed vocabulary comes back as an error; the poller ignores those
// silently rather than respond to noise.
func Parse(data []byte) (Command, error) {
	var c Command
	if err := json.Unmarshal(data, &c); err != nil {
		return Command{}, fmt.Errorf("parse command: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Command{}, err
	}
	return c, nil
}

func (c Command) Validate() error {
	switch c.Name {
	case CmdHeartbeat, CmdGetAccountInfo, CmdGetPositions, CmdGetLimits:
		return nil
	case CmdPlaceOrder:
		if c.Symbol == "" {
			return fmt.Errorf("%s: symbol required", c.Name)
		}
		if _, err := c.SideValue(); err != nil {
			return fmt.Errorf("%s: %w", c.Name, err)
		}
		if c.Volume <= 0 {
			return fmt.Errorf("%s: volume must be positive", c.Name)
		}
		return nil
	case CmdClosePosition:
		if c.Ticket == 0 {
			return fmt.Errorf("%s: ticket required", c.Name)
		}
		return nil
	}
	return fmt.Errorf("unrecognized command %q", c.Name)
}

// Header is embedded in every response so the strategy side can at least
// see which command a response belongs to. The protocol carries no
// correlation id; under overlapping sends this is best-effort only.
type Header struct {
	Command    string `json:"command"`
	ServerTime string `json:"server_time"`
}

func NewHeader(cmd string, now time.Time) Header {
	return Header{Command: cmd, ServerTime: now.UTC().Format(time.RFC3339)}
}

type HeartbeatResponse struct {
	Header
	Status string `json:"status"` // ALIVE
}

type AccountInfoResponse struct {
	Header
	Balance     float64 `json:"balance"`
	Equity      float64 `json:"equity"`
	Margin      float64 `json:"margin"`
	FreeMargin  float64 `json:"free_margin"`
	Currency    string  `json:"currency"`
	Leverage    int     `json:"leverage"`
	DailyPnL    float64 `json:"daily_pnl"`
	DailyTrades int     `json:"daily_trades"`
}

type PositionInfo struct {
	Ticket       uint64  `json:"ticket"`
	Symbol       string  `json:"symbol"`
	Side         string  `json:"side"`
	Volume       float64 `json:"volume"`
	OpenPrice    float64 `json:"open_price"`
	CurrentPrice float64 `json:"current_price"`
	Profit       float64 `json:"profit"`
	StopLoss     float64 `json:"stop_loss,omitempty"`
	TakeProfit   float64 `json:"take_profit,omitempty"`
	Tag          string  `json:"tag,omitempty"`
}

func FromPosition(p venue.Position) PositionInfo {
	return PositionInfo{
		Ticket:       p.Ticket,
		Symbol:       p.Symbol,
		Side:         p.Side.String(),
		Volume:       p.Volume,
		OpenPrice:    p.OpenPrice,
		CurrentPrice: p.CurrentPrice,
		Profit:       p.Profit,
		StopLoss:     p.StopLoss,
		TakeProfit:   p.TakeProfit,
		Tag:          p.Tag,
	}
}

type PositionsResponse struct {
	Header
	Positions []PositionInfo `json:"positions"`
}

// OrderResponse answers PLACE_ORDER. Status SUCCESS carries the fill;
// status ERROR carries either a gate/validation reason or the venue's
// rejection code and message verbatim.
type OrderResponse struct {
	Header
	Status       string  `json:"status"`
	Ticket       uint64  `json:"ticket,omitempty"`
	FillPrice    float64 `json:"fill_price,omitempty"`
	SlippagePips float64 `json:"slippage_pips,omitempty"`
	FillMode     string  `json:"fill_mode,omitempty"`
	Reason       string  `json:"reason,omitempty"` // policy denial
	Code         int     `json:"code,omitempty"`   // venue retcode
	Message      string  `json:"message,omitempty"`
}

type CloseResponse struct {
	Header
	Status  string  `json:"status"`
	Ticket  uint64  `json:"ticket,omitempty"`
	PnL     float64 `json:"pnl"`
	Code    int     `json:"code,omitempty"`
	Message string  `json:"message,omitempty"`
}

// LimitsResponse reports the configured limits next to live usage.
type LimitsResponse struct {
	Header
	TradingEnabled       bool    `json:"trading_enabled"`
	MaxOpenPositions     int     `json:"max_open_positions"`
	MaxPositionSizePct   float64 `json:"max_position_size_pct"`
	MaxTotalExposureLots float64 `json:"max_total_exposure_lots"`
	MaxDailyLossPct      float64 `json:"max_daily_loss_pct"`
	MaxDailyProfitPct    float64 `json:"max_daily_profit_pct"`
	MaxTradesPerDay      int     `json:"max_trades_per_day"`
	OpenPositions        int     `json:"open_positions"`
	ExposureLots         float64 `json:"exposure_lots"`
	DailyTrades          int     `json:"daily_trades"`
	DailyPnL             float64 `json:"daily_pnl"`
	DailyLossRemaining   float64 `json:"daily_loss_remaining"`
}

type Quote struct {
	Bid  float64 `json:"bid"`
	Ask  float64 `json:"ask"`
	Time string  `json:"time"`
}

// StatusSnapshot is published to the status channel, replaced wholesale on
// every publish cycle.
type StatusSnapshot struct {
	Timestamp      string           `json:"timestamp"`
	Account        AccountStatus    `json:"account"`
	TradingEnabled bool             `json:"trading_enabled"`
	DailyPnL       float64          `json:"daily_pnl"`
	DailyTrades    int              `json:"daily_trades"`
	OpenPositions  int              `json:"open_positions"`
	TotalExposure  float64          `json:"total_exposure"`
	Quotes         map[string]Quote `json:"quotes"`
}

type AccountStatus struct {
	Balance    float64 `json:"balance"`
	Equity     float64 `json:"equity"`
	Margin     float64 `json:"margin"`
	FreeMargin float64 `json:"free_margin"`
}
