package engine

import (
	"context"
	"sync"
	"time"

	"propbot/internal/broker"
	"propbot/internal/challenge"
	"propbot/internal/compliance"
	"propbot/internal/config"
	"propbot/internal/logger"
	"propbot/internal/models"
	"propbot/internal/risk"
	"propbot/internal/store"
)

type Phase string

const (
	PhaseIdle         Phase = "IDLE"
	PhaseEvaluating   Phase = "EVALUATING"
	PhaseHaltedBreach Phase = "HALTED_BREACH"
	PhaseHaltedTarget Phase = "HALTED_TARGET"
)

// Engine owns the risk state and compliance ledger and runs the trading
// cycle. Cycles and daily resets execute on the Start goroutine, one at a
// time, so neither ever observes the other half-done.
type Engine struct {
	cfg     *config.Config
	gateway broker.Gateway
	market  broker.MarketDataProvider
	catalog broker.InstrumentCatalog
	store   *store.Store
	log     *logger.Logger

	rules  challenge.Rules
	risk   *risk.State
	ledger *compliance.Ledger

	mu            sync.Mutex
	phase         Phase
	haltReason    string
	lastReset     time.Time
	positions     map[string]models.Position
	lastBreaches  risk.BreachSet
	targetReached bool

	now func() time.Time
}

func New(cfg *config.Config, gateway broker.Gateway, market broker.MarketDataProvider, catalog broker.InstrumentCatalog, st *store.Store, log *logger.Logger) (*Engine, error) {
	variant, err := challenge.ParseVariant(cfg.Account.ChallengeType)
	if err != nil {
		return nil, err
	}
	rules, err := challenge.RulesFor(variant)
	if err != nil {
		return nil, err
	}

	return &Engine{
		cfg:       cfg,
		gateway:   gateway,
		market:    market,
		catalog:   catalog,
		store:     st,
		log:       log,
		rules:     rules,
		risk:      risk.NewState(cfg.Account.InitialBalance, rules),
		ledger:    compliance.NewLedger(),
		phase:     PhaseIdle,
		positions: map[string]models.Position{},
		now:       time.Now,
	}, nil
}

// Start restores persisted state, subscribes to the bridge event stream and
// runs the tick cadence until the context is canceled.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.restoreState(); err != nil {
		return err
	}

	events, err := e.gateway.Subscribe(ctx)
	if err != nil {
		e.logEntry().WithError(err).Warn("event stream unavailable, running on polling only")
	} else {
		go e.handleEvents(ctx, events)
	}

	e.logEntry().WithFields(map[string]interface{}{
		"variant":     e.rules.Variant,
		"instruments": e.cfg.Trading.PrimaryInstruments,
		"balance":     e.cfg.Account.InitialBalance,
	}).Info("challenge bot started")

	interval := time.Duration(e.cfg.Runtime.CycleMinutes) * time.Minute
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		e.maybeDailyReset(e.now())
		e.RunCycle(ctx)

		if halted, reason := e.Halted(); halted {
			e.logEntry().WithField("reason", reason).Warn("trading halted, waiting for shutdown")
		}

		select {
		case <-ctx.Done():
			e.saveState()
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Halted reports whether the engine is in a halted phase.
func (e *Engine) Halted() (bool, string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase == PhaseHaltedBreach || e.phase == PhaseHaltedTarget, e.haltReason
}

func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// maybeDailyReset runs the daily transition at most once per UTC calendar
// day, before the cycle that follows the boundary.
func (e *Engine) maybeDailyReset(now time.Time) {
	e.mu.Lock()
	if e.lastReset.IsZero() {
		// First tick after startup: adopt today without counting a day.
		e.lastReset = now
		e.mu.Unlock()
		return
	}
	if sameDay(e.lastReset, now) {
		e.mu.Unlock()
		return
	}
	ended := e.lastReset
	e.lastReset = now
	e.mu.Unlock()

	e.DailyReset(ended)
}

func sameDay(a, b time.Time) bool {
	return a.UTC().Format("2006-01-02") == b.UTC().Format("2006-01-02")
}

// DailyReset closes out the compliance day that just ended and restarts the
// daily drawdown baselines from current equity. Daily breach kinds leave the
// halt latch here; account-level breaches stay.
func (e *Engine) DailyReset(dayEnded time.Time) {
	equity := e.risk.Equity()
	profitable := e.ledger.CloseDay(dayEnded, equity)
	e.risk.DailyReset()

	e.mu.Lock()
	e.lastBreaches = e.lastBreaches.DropDaily()
	e.mu.Unlock()

	e.logEntry().WithFields(map[string]interface{}{
		"day":             dayEnded.UTC().Format("2006-01-02"),
		"profitable_day":  profitable,
		"profitable_days": e.ledger.ProfitableDays(),
		"trading_days":    e.ledger.TradingDayCount(),
	}).Info("daily reset")

	e.saveState()
}

func (e *Engine) restoreState() error {
	state, found, err := e.store.Load()
	if err != nil {
		return err
	}
	if !found {
		e.logEntry().Info("no saved state, starting fresh from challenge defaults")
		return nil
	}

	e.risk.Restore(state.AccountBalance, state.CurrentEquity, state.AllTimeHighEquity)
	e.ledger.Restore(state.TradingDays, state.ProfitableDays, state.TotalTrades, state.TotalProfit, state.ConsecutiveLosses)

	e.logEntry().WithFields(map[string]interface{}{
		"equity":       state.CurrentEquity,
		"total_trades": state.TotalTrades,
		"trading_days": len(state.TradingDays),
	}).Info("state restored")
	return nil
}

func (e *Engine) saveState() {
	snap := e.risk.Snapshot()
	err := e.store.Save(store.PersistedState{
		AccountBalance:    snap.AccountBalance,
		CurrentEquity:     snap.CurrentEquity,
		AllTimeHighEquity: snap.AllTimeHighEquity,
		TotalTrades:       e.ledger.TotalTrades(),
		ProfitableDays:    e.ledger.ProfitableDays(),
		TradingDays:       e.ledger.TradingDays(),
		TotalProfit:       e.ledger.TotalProfit(),
		ConsecutiveLosses: e.ledger.ConsecutiveLosses(),
	})
	if err != nil {
		e.logEntry().WithError(err).Error("failed to persist state")
	}
}
