// Package sim is an in-memory venue. It backs the bridge's paper-trading
// mode and the executor tests: fills are instantaneous at the current
// bid/ask and rejection behavior can be scripted per fill mode.
package sim

import (
	"context"
	"sync"

	"github.com/rustyeddy/fxbridge/market"
	"github.com/rustyeddy/fxbridge/venue"
)

type Engine struct {
	mu         sync.Mutex
	acct       venue.AccountSnapshot
	ticks      *market.TickStore
	positions  map[uint64]*venue.Position
	nextTicket uint64

	rejectFills map[market.FillMode]bool
	nextReject  *venue.RejectError
	slipPoints  float64 // added against the order on every fill
}

func NewEngine(acct venue.AccountSnapshot) *Engine {
	if acct.Equity == 0 {
		acct.Equity = acct.Balance
	}
	return &Engine{
		acct:        acct,
		ticks:       market.NewTickStore(),
		positions:   make(map[uint64]*venue.Position),
		nextTicket:  100000,
		rejectFills: make(map[market.FillMode]bool),
	}
}

// SetTick updates the quote for a symbol and revalues open positions.
func (e *Engine) SetTick(t market.Tick) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ticks.Set(t)
	e.revalueLocked()
}

// RejectFillModes makes Submit and Close answer RetcodeInvalidFill for the
// given conventions until called again.
func (e *Engine) RejectFillModes(modes ...market.FillMode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rejectFills = make(map[market.FillMode]bool)
	for _, m := range modes {
		e.rejectFills[m] = true
	}
}

// FailNext makes the next Submit or Close fail once with the given retcode.
func (e *Engine) FailNext(code venue.Retcode, msg string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextReject = &venue.RejectError{Code: code, Message: msg}
}

// SetSlippagePoints shifts every fill against the order by the given number
// of price points (pip fractions at the instrument's pip location).
func (e *Engine) SetSlippagePoints(points float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.slipPoints = points
}

func (e *Engine) Account(ctx context.Context) (venue.AccountSnapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.acct, nil
}

func (e *Engine) Positions(ctx context.Context) ([]venue.Position, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]venue.Position, 0, len(e.positions))
	for _, p := range e.positions {
		out = append(out, *p)
	}
	return out, nil
}

func (e *Engine) Tick(ctx context.Context, symbol string) (market.Tick, error) {
	return e.ticks.Get(symbol)
}

func (e *Engine) Submit(ctx context.Context, req venue.OrderRequest) (venue.OrderFill, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.takeRejectLocked(req.FillMode); err != nil {
		return venue.OrderFill{}, err
	}

	t, err := e.ticks.Get(req.Symbol)
	if err != nil {
		return venue.OrderFill{}, &venue.RejectError{
			Code:    venue.RetcodeInvalidPrice,
			Message: "no quote for " + req.Symbol,
		}
	}

	pip := market.PipSize(market.Lookup(req.Symbol).PipLocation)
	fill := t.Ask + e.slipPoints*pip/10
	if req.Side == venue.Sell {
		fill = t.Bid - e.slipPoints*pip/10
	}

	margin := req.Volume * market.Lookup(req.Symbol).MarginPerLot
	if margin > e.acct.FreeMargin && e.acct.FreeMargin > 0 {
		return venue.OrderFill{}, &venue.RejectError{
			Code:    venue.RetcodeNoMoney,
			Message: "not enough money",
		}
	}

	e.nextTicket++
	p := &venue.Position{
		Ticket:       e.nextTicket,
		Symbol:       req.Symbol,
		Side:         req.Side,
		Volume:       req.Volume,
		OpenPrice:    fill,
		CurrentPrice: fill,
		StopLoss:     req.StopLoss,
		TakeProfit:   req.TakeProfit,
		Tag:          req.Tag,
	}
	e.positions[p.Ticket] = p
	e.acct.MarginUsed += margin
	e.revalueLocked()

	return venue.OrderFill{Ticket: p.Ticket, Price: fill}, nil
}

func (e *Engine) Close(ctx context.Context, req venue.CloseRequest) (venue.OrderFill, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.takeRejectLocked(req.FillMode); err != nil {
		return venue.OrderFill{}, err
	}

	p, ok := e.positions[req.Ticket]
	if !ok {
		return venue.OrderFill{}, &venue.RejectError{
			Code:    venue.RetcodeRejected,
			Message: "position not found",
		}
	}

	t, err := e.ticks.Get(p.Symbol)
	if err != nil {
		return venue.OrderFill{}, &venue.RejectError{
			Code:    venue.RetcodeInvalidPrice,
			Message: "no quote for " + p.Symbol,
		}
	}

	// Longs close on bid, shorts on ask.
	price := t.Bid
	if p.Side == venue.Sell {
		price = t.Ask
	}

	realized := profit(p, price)
	e.acct.Balance += realized
	e.acct.MarginUsed -= p.Volume * market.Lookup(p.Symbol).MarginPerLot
	if e.acct.MarginUsed < 0 {
		e.acct.MarginUsed = 0
	}
	delete(e.positions, req.Ticket)
	e.revalueLocked()

	return venue.OrderFill{Ticket: req.Ticket, Price: price}, nil
}

func (e *Engine) takeRejectLocked(mode market.FillMode) error {
	if e.nextReject != nil {
		err := e.nextReject
		e.nextReject = nil
		return err
	}
	if e.rejectFills[mode] {
		return &venue.RejectError{
			Code:    venue.RetcodeInvalidFill,
			Message: "unsupported filling mode",
		}
	}
	return nil
}

func profit(p *venue.Position, price float64) float64 {
	dir := 1.0
	if p.Side == venue.Sell {
		dir = -1.0
	}
	size := market.Lookup(p.Symbol).ContractSize
	return (price - p.OpenPrice) * dir * p.Volume * size
}

func (e *Engine) revalueLocked() {
	var unrealized float64
	for _, p := range e.positions {
		t, err := e.ticks.Get(p.Symbol)
		if err != nil {
			continue
		}
		price := t.Bid
		if p.Side == venue.Sell {
			price = t.Ask
		}
		p.CurrentPrice = price
		p.Profit = profit(p, price)
		unrealized += p.Profit
	}
	e.acct.Equity = e.acct.Balance + unrealized
	e.acct.FreeMargin = e.acct.Equity - e.acct.MarginUsed
}
