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

// pollCommands reads the command channel and dispatches at most one
// command per tick. New content is detected by comparing against the last
// processed content: there is no sequence number, so a strategy that
// legitimately repeats a byte-identical command will not be re-dispatched
// (clients stamp a timestamp field to stay byte-distinct). Malformed or
// unrecognized commands are ignored without a response.
func (b *Bridge) pollCommands(ctx context.Context, now time.Time) {
	data, changed, err := b.cmdCh.ReadChanged()
	if err != nil {
		if errors.Is(err, channel.ErrUnavailable) {
			mtxChannelSkips.WithLabelValues("command").Inc()
			b.log.Debug("command channel busy, skipping tick")
			return
		}
		b.log.Warn("command channel read failed", zap.Error(err))
		return
	}
	if !changed || len(data) == 0 {
		return
	}

	cmd, err := protocol.Parse(data)
	if err != nil {
		b.log.Debug("ignoring unrecognized command", zap.Error(err))
		return
	}

	mtxCommands.WithLabelValues(cmd.Name).Inc()
	b.log.Debug("dispatching command", zap.String("command", cmd.Name))

	resp := b.dispatch(ctx, cmd, now)
	if resp == nil {
		return
	}
	b.writeResponse(resp)
}

func (b *Bridge) dispatch(ctx context.Context, cmd protocol.Command, now time.Time) any {
	switch cmd.Name {
	case protocol.CmdHeartbeat:
		return b.heartbeat(cmd, now)
	case protocol.CmdGetAccountInfo:
		return b.accountInfo(ctx, cmd, now)
	case protocol.CmdGetPositions:
		return b.positions(ctx, cmd, now)
	case protocol.CmdPlaceOrder:
		return b.placeOrder(ctx, cmd, now)
	case protocol.CmdClosePosition:
		return b.closePosition(ctx, cmd, now)
	case protocol.CmdGetLimits:
		return b.limits(ctx, cmd, now)
	}
	// Parse guarantees a known name; anything else is ignored.
	return nil
}

// writeResponse replaces the response channel with the outcome of the most
// recently dispatched command. A stalled channel must never stall command
// processing: on lock exhaustion the write is skipped for this tick.
func (b *Bridge) writeResponse(resp any) {
	data, err := json.Marshal(resp)
	if err != nil {
		b.log.Error("marshal response", zap.Error(err))
		return
	}

	if err := b.respCh.Replace(data); err != nil {
		if errors.Is(err, channel.ErrUnavailable) {
			mtxChannelSkips.WithLabelValues("response").Inc()
			b.log.Debug("response channel busy, dropping response")
			return
		}
		b.log.Warn("response write failed", zap.Error(err))
	}
}
