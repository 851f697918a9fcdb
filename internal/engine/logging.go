package engine

import (
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"propbot/internal/risk"
)

func (e *Engine) logEntry() *logrus.Entry {
	return e.log.WithComponent("engine")
}

func newRefID() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	if len(raw) > 12 {
		return raw[:12]
	}
	return raw
}

// Status is the per-cycle summary logged and exposed to the bootstrap.
type Status struct {
	Phase          Phase    `json:"phase"`
	Equity         float64  `json:"equity"`
	ProfitPercent  float64  `json:"profit_percent"`
	TargetReached  bool     `json:"target_reached"`
	Breaches       []string `json:"breaches"`
	TradingDays    int      `json:"trading_days"`
	ProfitableDays int      `json:"profitable_days"`
	TotalTrades    int      `json:"total_trades"`
	OpenPositions  int      `json:"open_positions"`
	RulesMet       bool     `json:"rules_met"`
}

func (e *Engine) Status() Status {
	snap := e.risk.Snapshot()

	e.mu.Lock()
	phase := e.phase
	breaches := e.lastBreaches
	target := e.targetReached
	openCount := len(e.positions)
	e.mu.Unlock()

	return Status{
		Phase:          phase,
		Equity:         snap.CurrentEquity,
		ProfitPercent:  (snap.CurrentEquity - snap.InitialBalance) / snap.InitialBalance * 100,
		TargetReached:  target,
		Breaches:       breaches.Names(),
		TradingDays:    e.ledger.TradingDayCount(),
		ProfitableDays: e.ledger.ProfitableDays(),
		TotalTrades:    e.ledger.TotalTrades(),
		OpenPositions:  openCount,
		RulesMet:       e.ledger.MeetsMinimumDays(e.rules),
	}
}

func (e *Engine) logStatus(assessment risk.Assessment) {
	status := e.Status()
	e.logEntry().WithFields(logrus.Fields{
		"phase":           status.Phase,
		"equity":          status.Equity,
		"profit_pct":      status.ProfitPercent,
		"breaches":        strings.Join(status.Breaches, ","),
		"trading_days":    status.TradingDays,
		"profitable_days": status.ProfitableDays,
		"total_trades":    status.TotalTrades,
		"open_positions":  status.OpenPositions,
		"target_reached":  assessment.TargetReached,
	}).Info("cycle complete")
}
