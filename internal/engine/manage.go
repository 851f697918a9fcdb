package engine

import (
	"context"
	"time"

	"propbot/internal/models"
)

// refreshPositions replaces the open-position census with the broker's view.
// On failure the previous census stays in place for this cycle.
func (e *Engine) refreshPositions(ctx context.Context) {
	positions, err := e.gateway.GetOpenPositions(ctx)
	if err != nil {
		e.logEntry().WithError(err).Warn("open positions unavailable, keeping previous census")
		return
	}

	census := make(map[string]models.Position, len(positions))
	for _, pos := range positions {
		census[pos.Ticket] = pos
	}

	e.mu.Lock()
	e.positions = census
	e.mu.Unlock()
}

// managePositions runs the early-close policy over the census. A failed
// close is retried implicitly on the next cycle.
func (e *Engine) managePositions(ctx context.Context) {
	e.mu.Lock()
	open := make([]models.Position, 0, len(e.positions))
	for _, pos := range e.positions {
		open = append(open, pos)
	}
	e.mu.Unlock()

	now := e.now()
	equity := e.risk.Equity()

	for _, pos := range open {
		reason, due := e.shouldClose(pos, now, equity)
		if !due {
			continue
		}
		e.closePosition(ctx, pos, reason)
	}
}

func (e *Engine) shouldClose(pos models.Position, now time.Time, equity float64) (string, bool) {
	utc := now.UTC()
	if utc.Weekday() == time.Friday && utc.Hour() >= e.cfg.Trading.FridayCloseHourUTC {
		return "weekend close-out", true
	}

	maxHold := time.Duration(e.cfg.Risk.MaxHoldHours) * time.Hour
	if maxHold > 0 && !pos.OpenedAt.IsZero() && now.Sub(pos.OpenedAt) > maxHold {
		return "max holding time exceeded", true
	}

	if e.cfg.Risk.ProfitLockFraction > 0 && pos.UnrealizedProfit > equity*e.cfg.Risk.ProfitLockFraction {
		return "profit lock-in", true
	}

	return "", false
}

func (e *Engine) closePosition(ctx context.Context, pos models.Position, reason string) {
	result, err := e.gateway.ClosePosition(ctx, pos.Ticket)
	if err != nil {
		e.log.WithTicket(pos.Ticket).WithError(err).Warn("failed to close position, retrying next cycle")
		return
	}

	profit := result.Profit
	e.ledger.RecordClose(profit)

	e.mu.Lock()
	delete(e.positions, pos.Ticket)
	e.mu.Unlock()

	e.log.WithTicket(pos.Ticket).WithFields(map[string]interface{}{
		"instrument": pos.Instrument,
		"reason":     reason,
		"profit":     profit,
	}).Info("position closed")
}
