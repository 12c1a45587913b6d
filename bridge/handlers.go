package bridge

import (
	"context"
	"time"

	"github.com/rustyeddy/fxbridge/protocol"
)

func (b *Bridge) heartbeat(cmd protocol.Command, now time.Time) protocol.HeartbeatResponse {
	return protocol.HeartbeatResponse{
		Header: protocol.NewHeader(cmd.Name, now),
		Status: protocol.StatusAlive,
	}
}

func (b *Bridge) accountInfo(ctx context.Context, cmd protocol.Command, now time.Time) protocol.AccountInfoResponse {
	resp := protocol.AccountInfoResponse{Header: protocol.NewHeader(cmd.Name, now)}

	acct, err := b.vn.Account(ctx)
	if err != nil {
		return resp
	}

	resp.Balance = acct.Balance
	resp.Equity = acct.Equity
	resp.Margin = acct.MarginUsed
	resp.FreeMargin = acct.FreeMargin
	resp.Currency = acct.Currency
	resp.Leverage = acct.Leverage
	resp.DailyPnL = b.state.DailyPnL(acct.Equity)
	resp.DailyTrades = b.state.DailyTrades
	return resp
}

func (b *Bridge) positions(ctx context.Context, cmd protocol.Command, now time.Time) protocol.PositionsResponse {
	resp := protocol.PositionsResponse{
		Header:    protocol.NewHeader(cmd.Name, now),
		Positions: []protocol.PositionInfo{},
	}

	_, owned, err := b.usage(ctx)
	if err != nil {
		return resp
	}

	for _, p := range owned {
		resp.Positions = append(resp.Positions, protocol.FromPosition(p))
	}
	return resp
}

func (b *Bridge) limits(ctx context.Context, cmd protocol.Command, now time.Time) protocol.LimitsResponse {
	resp := protocol.LimitsResponse{
		Header:               protocol.NewHeader(cmd.Name, now),
		TradingEnabled:       b.policy.TradingEnabled,
		MaxOpenPositions:     b.policy.MaxOpenPositions,
		MaxPositionSizePct:   b.policy.MaxPositionSizePct,
		MaxTotalExposureLots: b.policy.MaxTotalExposureLots,
		MaxDailyLossPct:      b.policy.MaxDailyLossPct,
		MaxDailyProfitPct:    b.policy.MaxDailyProfitPct,
		MaxTradesPerDay:      b.policy.MaxTradesPerDay,
		DailyTrades:          b.state.DailyTrades,
	}

	usage, _, err := b.usage(ctx)
	if err == nil {
		resp.OpenPositions = usage.OpenPositions
		resp.ExposureLots = usage.ExposureLots
	}

	if acct, err := b.vn.Account(ctx); err == nil {
		resp.DailyPnL = b.state.DailyPnL(acct.Equity)
		limit := b.state.DailyStartEquity * b.policy.MaxDailyLossPct / 100
		resp.DailyLossRemaining = limit + resp.DailyPnL
		if resp.DailyLossRemaining < 0 {
			resp.DailyLossRemaining = 0
		}
	}

	return resp
}
