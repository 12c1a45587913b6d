// Package venue abstracts the execution process that owns real positions
// and account state. The bridge only ever talks to it through this
// interface; the venue's matching and margin engine is a black box that
// returns a price, a ticket, or a retcode.
package venue

import (
	"context"
	"fmt"
	"strings"

	"github.com/rustyeddy/fxbridge/market"
)

type Side int8

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Sell {
		return "SELL"
	}
	return "BUY"
}

// Opposite returns the closing side for a position opened on s.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

func ParseSide(s string) (Side, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY":
		return Buy, nil
	case "SELL":
		return Sell, nil
	}
	return Buy, fmt.Errorf("invalid side %q", s)
}

type Position struct {
	Ticket       uint64
	Symbol       string
	Side         Side
	Volume       float64
	OpenPrice    float64
	CurrentPrice float64
	Profit       float64
	StopLoss     float64
	TakeProfit   float64
	Tag          string
}

type AccountSnapshot struct {
	Balance    float64
	Equity     float64
	MarginUsed float64
	FreeMargin float64
	Currency   string
	Leverage   int
}

type OrderRequest struct {
	Symbol     string
	Side       Side
	Volume     float64
	StopLoss   float64 // 0 = none
	TakeProfit float64 // 0 = none
	Deviation  int     // max price deviation, points
	FillMode   market.FillMode
	Tag        string
}

type CloseRequest struct {
	Ticket    uint64
	Deviation int
	FillMode  market.FillMode
}

type OrderFill struct {
	Ticket uint64
	Price  float64
}

// Retcode values follow the MT5 trade-server vocabulary so rejection codes
// survive the bridge verbatim.
type Retcode int

const (
	RetcodeDone          Retcode = 10009
	RetcodeRequote       Retcode = 10004
	RetcodeRejected      Retcode = 10006
	RetcodeInvalidVolume Retcode = 10014
	RetcodeInvalidPrice  Retcode = 10015
	RetcodeInvalidStops  Retcode = 10016
	RetcodeMarketClosed  Retcode = 10018
	RetcodeNoMoney       Retcode = 10019
	RetcodeInvalidFill   Retcode = 10030
)

// RejectError is a non-success answer from the venue's execution engine.
type RejectError struct {
	Code    Retcode
	Message string
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("venue rejected: %d %s", e.Code, e.Message)
}

// UnsupportedFill reports whether the rejection means "requested fill
// convention unsupported", the one retcode worth retrying with another
// convention.
func (e *RejectError) UnsupportedFill() bool {
	return e.Code == RetcodeInvalidFill
}

type Venue interface {
	Account(ctx context.Context) (AccountSnapshot, error)
	Positions(ctx context.Context) ([]Position, error)
	Tick(ctx context.Context, symbol string) (market.Tick, error)
	Submit(ctx context.Context, req OrderRequest) (OrderFill, error)
	Close(ctx context.Context, req CloseRequest) (OrderFill, error)
}
