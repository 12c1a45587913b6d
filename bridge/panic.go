package bridge

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/fxbridge/journal"
)

// panicFlatten force-closes every position this bridge owns at a
// deliberately wider slippage tolerance than normal closes. Best-effort,
// not atomic: individual failures are logged and the loop continues.
// Bypasses the risk gate: the gate prevents new risk, it does not block
// an emergency reduction of risk. Untagged positions are never touched.
func (b *Bridge) panicFlatten(ctx context.Context, now time.Time) {
	_, owned, err := b.usage(ctx)
	if err != nil {
		b.log.Warn("panic flatten: positions unavailable", zap.Error(err))
		return
	}
	if len(owned) == 0 {
		return
	}

	b.log.Warn("panic flatten active", zap.Int("positions", len(owned)))

	// Ticket order for deterministic logs.
	sort.Slice(owned, func(i, j int) bool { return owned[i].Ticket < owned[j].Ticket })

	for _, pos := range owned {
		pnl := pos.Profit
		fill, err := b.closeTicket(ctx, pos, b.panicDeviation)
		if err != nil {
			mtxPanicCloses.WithLabelValues("failed").Inc()
			b.log.Error("panic close failed",
				zap.Uint64("ticket", pos.Ticket),
				zap.String("symbol", pos.Symbol),
				zap.Error(err),
			)
			continue
		}

		mtxPanicCloses.WithLabelValues("closed").Inc()
		b.log.Warn("panic close",
			zap.Uint64("ticket", pos.Ticket),
			zap.String("symbol", pos.Symbol),
			zap.Float64("volume", pos.Volume),
			zap.Float64("pnl", pnl),
		)

		if err := b.journal.RecordOrder(journal.OrderRecord{
			RunID:     b.runID,
			Ticket:    pos.Ticket,
			Symbol:    pos.Symbol,
			Side:      pos.Side.Opposite().String(),
			Action:    "panic_close",
			Volume:    pos.Volume,
			FillPrice: fill.Price,
			PnL:       pnl,
			Time:      now,
		}); err != nil {
			b.log.Warn("journal panic record failed", zap.Error(err))
		}
	}
}
