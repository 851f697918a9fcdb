package engine

import (
	"context"

	"propbot/internal/broker"
)

// handleEvents keeps the position census warm between cycles from the bridge
// stream. Risk state is never touched here: it is refreshed only inside a
// cycle.
func (e *Engine) handleEvents(ctx context.Context, events <-chan broker.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				e.logEntry().Warn("bridge event channel closed")
				return
			}
			switch event.Type {
			case broker.EventTypeAccount:
				if event.Account != nil {
					e.logEntry().WithField("equity", event.Account.Equity).Debug("account tick")
				}
			case broker.EventTypePosition:
				if event.Position != nil {
					e.mu.Lock()
					if event.Position.Volume <= 0 {
						delete(e.positions, event.Position.Ticket)
					} else {
						e.positions[event.Position.Ticket] = *event.Position
					}
					e.mu.Unlock()
				}
			case broker.EventTypeReconnect:
				e.logEntry().Info("bridge reconnected, resyncing position census")
				e.refreshPositions(ctx)
			}
		}
	}
}
