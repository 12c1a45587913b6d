package bridge

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/fxbridge/journal"
	"github.com/rustyeddy/fxbridge/market"
	"github.com/rustyeddy/fxbridge/protocol"
	"github.com/rustyeddy/fxbridge/risk"
	"github.com/rustyeddy/fxbridge/venue"
)

// fillSequence returns the conventions to attempt in order: the
// instrument's preferred mode first, then the remaining ones in the global
// preference order, truncated to the attempt budget.
func (b *Bridge) fillSequence(meta market.InstrumentMeta) []market.FillMode {
	seq := make([]market.FillMode, 0, len(market.AllFillModes))
	guess := meta.PreferredFill()
	seq = append(seq, guess)
	for _, m := range market.AllFillModes {
		if m != guess {
			seq = append(seq, m)
		}
	}
	if len(seq) > b.maxFillAttempts {
		seq = seq[:b.maxFillAttempts]
	}
	return seq
}

// placeOrder runs the full chain for PLACE_ORDER: risk gate, volume
// normalization, per-order validation, then submission with the
// fill-convention retry cycle. Every denial or rejection leaves the bridge
// fully operational.
func (b *Bridge) placeOrder(ctx context.Context, cmd protocol.Command, now time.Time) protocol.OrderResponse {
	resp := protocol.OrderResponse{Header: protocol.NewHeader(cmd.Name, now)}

	side, err := cmd.SideValue()
	if err != nil {
		// Parse already validated the side; this is unreachable noise.
		resp.Status = protocol.StatusError
		resp.Message = err.Error()
		return resp
	}

	acct, err := b.vn.Account(ctx)
	if err != nil {
		resp.Status = protocol.StatusError
		resp.Message = "account unavailable: " + err.Error()
		mtxOrders.WithLabelValues("error").Inc()
		return resp
	}

	usage, _, err := b.usage(ctx)
	if err != nil {
		resp.Status = protocol.StatusError
		resp.Message = "positions unavailable: " + err.Error()
		mtxOrders.WithLabelValues("error").Inc()
		return resp
	}

	if d := risk.Evaluate(b.policy, acct, b.state, usage, now); !d.Allowed {
		return b.denied(resp, cmd, d)
	}

	volume := market.NormalizeVolume(cmd.Symbol, float64(cmd.Volume))
	meta := market.Lookup(cmd.Symbol)

	if d := risk.EvaluateOrder(b.policy, acct, usage, meta, volume); !d.Allowed {
		return b.denied(resp, cmd, d)
	}

	tick, err := b.vn.Tick(ctx, cmd.Symbol)
	if err != nil {
		resp.Status = protocol.StatusError
		resp.Message = "no quote for " + cmd.Symbol
		mtxOrders.WithLabelValues("error").Inc()
		return resp
	}
	requested := tick.Ask
	if side == venue.Sell {
		requested = tick.Bid
	}

	seq := b.fillSequence(meta)
	var rejErr *venue.RejectError
	for i, mode := range seq {
		fill, err := b.vn.Submit(ctx, venue.OrderRequest{
			Symbol:     cmd.Symbol,
			Side:       side,
			Volume:     volume,
			StopLoss:   float64(cmd.StopLoss),
			TakeProfit: float64(cmd.TakeProfit),
			Deviation:  b.deviation,
			FillMode:   mode,
			Tag:        b.tag,
		})
		if err == nil {
			return b.filled(resp, cmd, side, volume, mode, requested, fill, now)
		}

		if errors.As(err, &rejErr) && rejErr.UnsupportedFill() && i < len(seq)-1 {
			mtxFillRetries.Inc()
			b.log.Info("fill convention unsupported, retrying",
				zap.String("symbol", cmd.Symbol),
				zap.String("tried", mode.String()),
				zap.String("next", seq[i+1].String()),
			)
			continue
		}

		// Any other rejection is surfaced verbatim, no further retries.
		resp.Status = protocol.StatusError
		if errors.As(err, &rejErr) {
			resp.Code = int(rejErr.Code)
			resp.Message = rejErr.Message
		} else {
			resp.Message = err.Error()
		}
		mtxOrders.WithLabelValues("rejected").Inc()
		b.log.Warn("order rejected",
			zap.String("symbol", cmd.Symbol),
			zap.String("side", side.String()),
			zap.Float64("volume", volume),
			zap.Int("code", resp.Code),
			zap.String("message", resp.Message),
		)
		return resp
	}

	// The sequence always ends in a return above; kept for the compiler.
	resp.Status = protocol.StatusError
	resp.Message = "order not submitted"
	return resp
}

func (b *Bridge) denied(resp protocol.OrderResponse, cmd protocol.Command, d risk.Decision) protocol.OrderResponse {
	resp.Status = protocol.StatusError
	resp.Reason = d.Reason()
	mtxOrders.WithLabelValues("denied").Inc()
	mtxDenials.WithLabelValues(d.Code()).Inc()
	b.log.Info("order denied",
		zap.String("symbol", cmd.Symbol),
		zap.String("code", d.Code()),
		zap.String("reason", d.Reason()),
	)
	return resp
}

func (b *Bridge) filled(resp protocol.OrderResponse, cmd protocol.Command, side venue.Side,
	volume float64, mode market.FillMode, requested float64, fill venue.OrderFill, now time.Time) protocol.OrderResponse {

	b.state.RecordTrade()

	slip := market.SlippagePips(cmd.Symbol, requested, fill.Price)
	if b.maxSlippagePips > 0 && slip > b.maxSlippagePips {
		mtxSlippageAlerts.Inc()
		b.log.Warn("slippage above threshold",
			zap.String("symbol", cmd.Symbol),
			zap.Float64("slippage_pips", slip),
			zap.Float64("threshold_pips", b.maxSlippagePips),
		)
	}

	resp.Status = protocol.StatusSuccess
	resp.Ticket = fill.Ticket
	resp.FillPrice = fill.Price
	resp.SlippagePips = slip
	resp.FillMode = mode.String()

	mtxOrders.WithLabelValues("filled").Inc()
	b.log.Info("order filled",
		zap.Uint64("ticket", fill.Ticket),
		zap.String("symbol", cmd.Symbol),
		zap.String("side", side.String()),
		zap.Float64("volume", volume),
		zap.Float64("price", fill.Price),
		zap.Float64("slippage_pips", slip),
		zap.String("fill_mode", mode.String()),
	)

	if err := b.journal.RecordOrder(journal.OrderRecord{
		RunID:        b.runID,
		Ticket:       fill.Ticket,
		Symbol:       cmd.Symbol,
		Side:         side.String(),
		Action:       "open",
		Volume:       volume,
		FillPrice:    fill.Price,
		SlippagePips: slip,
		FillMode:     mode.String(),
		Time:         now,
	}); err != nil {
		b.log.Warn("journal order record failed", zap.Error(err))
	}

	return resp
}

// closeTicket closes one owned position with the fill-convention retry
// cycle, at the given deviation tolerance.
func (b *Bridge) closeTicket(ctx context.Context, pos venue.Position, deviation int) (venue.OrderFill, error) {
	seq := b.fillSequence(market.Lookup(pos.Symbol))
	var rejErr *venue.RejectError
	var lastErr error
	for i, mode := range seq {
		fill, err := b.vn.Close(ctx, venue.CloseRequest{
			Ticket:    pos.Ticket,
			Deviation: deviation,
			FillMode:  mode,
		})
		if err == nil {
			return fill, nil
		}
		lastErr = err
		if errors.As(err, &rejErr) && rejErr.UnsupportedFill() && i < len(seq)-1 {
			mtxFillRetries.Inc()
			continue
		}
		return venue.OrderFill{}, err
	}
	return venue.OrderFill{}, lastErr
}

// closePosition handles CLOSE_POSITION: the position's existing ticket,
// the opposite side at market, a wider deviation than opens, and the
// realized P&L captured immediately before the close executes (it is
// unavailable once the position is gone).
func (b *Bridge) closePosition(ctx context.Context, cmd protocol.Command, now time.Time) protocol.CloseResponse {
	resp := protocol.CloseResponse{Header: protocol.NewHeader(cmd.Name, now)}

	_, owned, err := b.usage(ctx)
	if err != nil {
		resp.Status = protocol.StatusError
		resp.Message = "positions unavailable: " + err.Error()
		return resp
	}

	var pos *venue.Position
	for i := range owned {
		if owned[i].Ticket == uint64(cmd.Ticket) {
			pos = &owned[i]
			break
		}
	}
	if pos == nil {
		resp.Status = protocol.StatusError
		resp.Message = "position not found"
		return resp
	}

	pnl := pos.Profit

	fill, err := b.closeTicket(ctx, *pos, b.closeDeviation)
	if err != nil {
		resp.Status = protocol.StatusError
		var rejErr *venue.RejectError
		if errors.As(err, &rejErr) {
			resp.Code = int(rejErr.Code)
			resp.Message = rejErr.Message
		} else {
			resp.Message = err.Error()
		}
		b.log.Warn("close rejected",
			zap.Uint64("ticket", pos.Ticket),
			zap.Int("code", resp.Code),
			zap.String("message", resp.Message),
		)
		return resp
	}

	resp.Status = protocol.StatusSuccess
	resp.Ticket = pos.Ticket
	resp.PnL = pnl

	b.log.Info("position closed",
		zap.Uint64("ticket", pos.Ticket),
		zap.String("symbol", pos.Symbol),
		zap.Float64("pnl", pnl),
		zap.Float64("price", fill.Price),
	)

	if err := b.journal.RecordOrder(journal.OrderRecord{
		RunID:     b.runID,
		Ticket:    pos.Ticket,
		Symbol:    pos.Symbol,
		Side:      pos.Side.Opposite().String(),
		Action:    "close",
		Volume:    pos.Volume,
		FillPrice: fill.Price,
		PnL:       pnl,
		Time:      now,
	}); err != nil {
		b.log.Warn("journal close record failed", zap.Error(err))
	}

	return resp
}
