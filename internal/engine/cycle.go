package engine

import (
	"context"
	"strings"

	"propbot/internal/gate"
	"propbot/internal/models"
	"propbot/internal/signal"
	"propbot/internal/sizing"
)

// ATR multiples for protective stops, from the strategy the challenge runs.
const (
	stopATRMultiple       = 2.0
	takeProfitATRMultiple = 3.0
	fallbackATR           = 0.001
)

var cycleTimeframes = []models.Timeframe{models.TimeframeM15, models.TimeframeH1, models.TimeframeH4}

// RunCycle executes one full controller invocation: refresh risk state,
// manage open positions, evaluate new entries, persist. Every external call
// failure is contained at its own step; one bad instrument never blocks the
// next.
func (e *Engine) RunCycle(ctx context.Context) {
	snapshot, err := e.gateway.GetAccountSnapshot(ctx)
	if err != nil {
		e.logEntry().WithError(err).Warn("account snapshot unavailable, skipping cycle")
		return
	}

	assessment, err := e.risk.Refresh(snapshot)
	if err != nil {
		e.logEntry().WithError(err).Error("rejected account snapshot, prior state retained")
		return
	}

	e.mu.Lock()
	// Breaches latch like targetReached does: equity recovering above the
	// line never un-halts. Daily breach kinds leave the latch only at the
	// daily reset; account-level breaches are a permanent disqualification.
	e.lastBreaches = e.lastBreaches.Merge(assessment.Breaches)
	breaches := e.lastBreaches
	if assessment.TargetReached {
		// Challenge passed: latches even if equity later dips below target.
		e.targetReached = true
	}
	target := e.targetReached
	prevPhase := e.phase
	e.mu.Unlock()

	switch {
	case target:
		e.setPhase(PhaseHaltedTarget, "profit target reached")
		if prevPhase != PhaseHaltedTarget {
			e.logEntry().WithField("profit_pct", assessment.ProfitPercent*100).Warn("profit target reached, challenge passed, halting new trades")
		}
	case len(breaches) > 0:
		reason := strings.Join(breaches.Names(), ",")
		e.setPhase(PhaseHaltedBreach, reason)
		if prevPhase != PhaseHaltedBreach {
			e.logEntry().WithField("breaches", reason).Error("account breached, halting new trades")
		}
	default:
		e.setPhase(PhaseEvaluating, "")
	}

	e.refreshPositions(ctx)
	e.managePositions(ctx)

	if e.Phase() == PhaseEvaluating {
		for _, instrument := range e.cfg.Trading.PrimaryInstruments {
			e.evaluateInstrument(ctx, instrument)
		}
		e.setPhase(PhaseIdle, "")
	}

	e.logStatus(assessment)
	e.saveState()
}

func (e *Engine) setPhase(phase Phase, reason string) {
	e.mu.Lock()
	e.phase = phase
	e.haltReason = reason
	e.mu.Unlock()
}

func (e *Engine) evaluateInstrument(ctx context.Context, instrument string) {
	e.mu.Lock()
	open := make([]models.Position, 0, len(e.positions))
	for _, pos := range e.positions {
		open = append(open, pos)
	}
	breaches := e.lastBreaches
	disabled := e.targetReached
	e.mu.Unlock()

	verdict := gate.CanOpen(gate.Inputs{
		Instrument:      instrument,
		Breaches:        breaches,
		TradingDisabled: disabled,
		OpenPositions:   open,
		Now:             e.now(),
		Limits: gate.Limits{
			MaxPerInstrument:  e.cfg.Risk.MaxPerInstrument,
			MaxConcurrentOpen: e.cfg.Risk.MaxConcurrentOpen,
			StartHourUTC:      e.cfg.Trading.StartHourUTC,
			EndHourUTC:        e.cfg.Trading.EndHourUTC,
		},
	})
	if !verdict.Allowed {
		e.log.WithInstrument(instrument).WithField("reason", verdict.Reason).Debug("entry gate closed")
		return
	}

	signals := map[models.Timeframe]models.MarketSignal{}
	for _, tf := range cycleTimeframes {
		sig, err := e.market.GetSignal(ctx, instrument, tf)
		if err != nil {
			e.log.WithInstrument(instrument).WithError(err).Warn("signal fetch failed, skipping instrument this cycle")
			return
		}
		signals[tf] = sig
	}

	decision := signal.Combine(signals)
	threshold := e.cfg.Risk.SignalThreshold
	if threshold <= 0 {
		threshold = signal.DefaultThreshold
	}
	if !decision.Actionable(threshold) {
		e.log.WithInstrument(instrument).WithFields(map[string]interface{}{
			"direction": decision.Direction,
			"strength":  decision.Strength,
		}).Debug("decision below threshold")
		return
	}

	e.placeTrade(ctx, instrument, decision)
}

func (e *Engine) placeTrade(ctx context.Context, instrument string, decision signal.Decision) {
	profile, err := e.catalog.GetProfile(ctx, instrument)
	if err != nil {
		e.log.WithInstrument(instrument).WithError(err).Warn("instrument profile unavailable")
		return
	}

	quote, err := e.gateway.GetQuote(ctx, instrument)
	if err != nil {
		e.log.WithInstrument(instrument).WithError(err).Warn("quote unavailable")
		return
	}

	atr := decision.ATR
	if atr <= 0 {
		atr = fallbackATR
	}

	var entry, stop, takeProfit float64
	if decision.Direction == models.DirectionBuy {
		entry = quote.Ask
		stop = entry - atr*stopATRMultiple
		takeProfit = entry + atr*takeProfitATRMultiple
	} else {
		entry = quote.Bid
		stop = entry + atr*stopATRMultiple
		takeProfit = entry - atr*takeProfitATRMultiple
	}

	sized, err := sizing.Size(sizing.Inputs{
		RiskFraction:      e.cfg.Risk.BaseRiskPerTrade,
		Equity:            e.risk.Equity(),
		EntryPrice:        entry,
		StopPrice:         stop,
		ConsecutiveLosses: e.ledger.ConsecutiveLosses(),
		TotalTrades:       e.ledger.TotalTrades(),
		Profile:           profile,
	})
	if err != nil {
		e.log.WithInstrument(instrument).WithError(err).Warn("position sizing failed, skipping instrument this cycle")
		return
	}

	intent := models.TradeIntent{
		RefID:      newRefID(),
		Instrument: instrument,
		Direction:  decision.Direction,
		Volume:     sized.Volume,
		EntryPrice: entry,
		StopLoss:   stop,
		TakeProfit: takeProfit,
	}

	if e.cfg.Runtime.DryRun {
		e.log.WithInstrument(instrument).WithFields(map[string]interface{}{
			"direction": intent.Direction,
			"volume":    intent.Volume,
			"entry":     intent.EntryPrice,
		}).Info("dry run, order not sent")
		return
	}

	result, err := e.gateway.PlaceOrder(ctx, intent)
	if err != nil {
		e.log.WithInstrument(instrument).WithError(err).Warn("order placement failed, retrying next cycle")
		return
	}

	now := e.now()
	e.ledger.RecordTrade(now)

	e.mu.Lock()
	e.positions[result.Ticket] = models.Position{
		Ticket:     result.Ticket,
		Instrument: instrument,
		Direction:  intent.Direction,
		Volume:     intent.Volume,
		EntryPrice: intent.EntryPrice,
		StopLoss:   intent.StopLoss,
		TakeProfit: intent.TakeProfit,
		OpenedAt:   now,
	}
	e.mu.Unlock()

	e.log.WithInstrument(instrument).WithFields(map[string]interface{}{
		"ticket":    result.Ticket,
		"direction": intent.Direction,
		"volume":    intent.Volume,
		"entry":     intent.EntryPrice,
		"stop":      intent.StopLoss,
		"target":    intent.TakeProfit,
		"strength":  decision.Strength,
	}).Info("trade placed")
}
