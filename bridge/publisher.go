package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/fxbridge/channel"
	"github.com/rustyeddy/fxbridge/protocol"
)

// publishStatus recomputes a full snapshot from live account, position and
// quote state and replaces the status channel wholesale. Stateless between
// invocations and decoupled from command traffic.
func (b *Bridge) publishStatus(ctx context.Context, now time.Time) {
	acct, err := b.vn.Account(ctx)
	if err != nil {
		b.log.Warn("status: account snapshot failed", zap.Error(err))
		return
	}

	usage, _, err := b.usage(ctx)
	if err != nil {
		b.log.Warn("status: positions unavailable", zap.Error(err))
		return
	}

	quotes := make(map[string]protocol.Quote, len(b.watch))
	for _, symbol := range b.watch {
		tick, err := b.vn.Tick(ctx, symbol)
		if err != nil {
			continue
		}
		quotes[symbol] = protocol.Quote{
			Bid:  tick.Bid,
			Ask:  tick.Ask,
			Time: tick.Time.UTC().Format(time.RFC3339),
		}
	}

	snap := protocol.StatusSnapshot{
		Timestamp: now.UTC().Format(time.RFC3339),
		Account: protocol.AccountStatus{
			Balance:    acct.Balance,
			Equity:     acct.Equity,
			Margin:     acct.MarginUsed,
			FreeMargin: acct.FreeMargin,
		},
		TradingEnabled: b.policy.TradingEnabled && !b.policy.PanicCloseAll,
		DailyPnL:       b.state.DailyPnL(acct.Equity),
		DailyTrades:    b.state.DailyTrades,
		OpenPositions:  usage.OpenPositions,
		TotalExposure:  usage.ExposureLots,
		Quotes:         quotes,
	}

	mtxEquity.Set(acct.Equity)

	data, err := json.Marshal(snap)
	if err != nil {
		b.log.Error("marshal status", zap.Error(err))
		return
	}

	if err := b.statusCh.Replace(data); err != nil {
		if errors.Is(err, channel.ErrUnavailable) {
			mtxChannelSkips.WithLabelValues("status").Inc()
			b.log.Debug("status channel busy, skipping publish")
			return
		}
		b.log.Warn("status write failed", zap.Error(err))
	}
}
