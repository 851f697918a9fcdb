package risk

import (
	"errors"
	"math"
	"sync"
	"time"

	"propbot/internal/challenge"
	"propbot/internal/models"
)

type Breach string

const (
	BreachMaxDrawdown           Breach = "MAX_DRAWDOWN"
	BreachTrailingDrawdown      Breach = "TRAILING_DRAWDOWN"
	BreachDailyDrawdown         Breach = "DAILY_DRAWDOWN"
	BreachTrailingDailyDrawdown Breach = "TRAILING_DAILY_DRAWDOWN"
)

var ErrInvalidSnapshot = errors.New("invalid account snapshot")

// Daily reports whether the breach is measured against the daily window.
// Daily breaches end with the trading day; the others disqualify the account.
func (b Breach) Daily() bool {
	return b == BreachDailyDrawdown || b == BreachTrailingDailyDrawdown
}

type BreachSet []Breach

func (s BreachSet) Contains(b Breach) bool {
	for _, got := range s {
		if got == b {
			return true
		}
	}
	return false
}

func (s BreachSet) Names() []string {
	names := make([]string, 0, len(s))
	for _, b := range s {
		names = append(names, string(b))
	}
	return names
}

// Merge returns the union of both sets, preserving first-seen order.
func (s BreachSet) Merge(other BreachSet) BreachSet {
	out := append(BreachSet(nil), s...)
	for _, b := range other {
		if !out.Contains(b) {
			out = append(out, b)
		}
	}
	return out
}

// DropDaily returns the set without the daily breach kinds.
func (s BreachSet) DropDaily() BreachSet {
	var out BreachSet
	for _, b := range s {
		if !b.Daily() {
			out = append(out, b)
		}
	}
	return out
}

// Assessment is the outcome of one equity refresh.
type Assessment struct {
	Breaches      BreachSet
	ProfitPercent float64
	TargetReached bool
}

// State tracks equity against the challenge drawdown limits. All mutation
// goes through Refresh and DailyReset under the internal mutex, so a refresh
// never observes a half-applied reset. The live state never leaves this
// package; readers get a plain StateSnapshot copy.
type State struct {
	mu    sync.Mutex
	rules challenge.Rules

	initialBalance    float64
	accountBalance    float64
	currentEquity     float64
	allTimeHighEquity float64
	dailyStartBalance float64
	dailyHighEquity   float64
	updatedAt         time.Time
}

// StateSnapshot is a plain copy of the equity fields for persistence and
// status reporting.
type StateSnapshot struct {
	InitialBalance    float64
	AccountBalance    float64
	CurrentEquity     float64
	AllTimeHighEquity float64
	DailyStartBalance float64
	DailyHighEquity   float64
	UpdatedAt         time.Time
}

func NewState(initialBalance float64, rules challenge.Rules) *State {
	return &State{
		rules:             rules,
		initialBalance:    initialBalance,
		accountBalance:    initialBalance,
		currentEquity:     initialBalance,
		allTimeHighEquity: initialBalance,
		dailyStartBalance: initialBalance,
		dailyHighEquity:   initialBalance,
	}
}

func (s *State) Rules() challenge.Rules {
	return s.rules
}

// Restore overwrites the equity fields from a persisted snapshot. Daily
// baselines restart from the restored equity: a process restart begins a
// fresh daily window.
func (s *State) Restore(accountBalance, currentEquity, allTimeHigh float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if currentEquity > 0 {
		s.currentEquity = currentEquity
		s.dailyStartBalance = currentEquity
		s.dailyHighEquity = currentEquity
	}
	if accountBalance > 0 {
		s.accountBalance = accountBalance
	}
	if allTimeHigh > s.allTimeHighEquity {
		s.allTimeHighEquity = allTimeHigh
	}
}

// Refresh folds an account snapshot into the state and re-derives the full
// breach set. A non-empty set is a halt signal, not an error.
func (s *State) Refresh(snapshot models.AccountSnapshot) (Assessment, error) {
	if !validMoney(snapshot.Equity) || !validMoney(snapshot.Balance) {
		return Assessment{}, ErrInvalidSnapshot
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.currentEquity = snapshot.Equity
	s.accountBalance = snapshot.Balance
	if s.currentEquity > s.allTimeHighEquity {
		s.allTimeHighEquity = s.currentEquity
	}
	if s.currentEquity > s.dailyHighEquity {
		s.dailyHighEquity = s.currentEquity
	}
	s.updatedAt = snapshot.Time

	profitPercent := (s.currentEquity - s.initialBalance) / s.initialBalance

	return Assessment{
		Breaches: ComputeBreaches(Metrics{
			InitialBalance:    s.initialBalance,
			CurrentEquity:     s.currentEquity,
			AllTimeHighEquity: s.allTimeHighEquity,
			DailyStartBalance: s.dailyStartBalance,
			DailyHighEquity:   s.dailyHighEquity,
		}, s.rules),
		ProfitPercent: profitPercent,
		TargetReached: profitPercent >= s.rules.ProfitTarget,
	}, nil
}

// DailyReset restarts the daily baselines from current equity. The caller
// owns the once-per-calendar-day contract.
func (s *State) DailyReset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dailyStartBalance = s.currentEquity
	s.dailyHighEquity = s.currentEquity
}

func (s *State) Equity() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentEquity
}

func (s *State) Snapshot() StateSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StateSnapshot{
		InitialBalance:    s.initialBalance,
		AccountBalance:    s.accountBalance,
		CurrentEquity:     s.currentEquity,
		AllTimeHighEquity: s.allTimeHighEquity,
		DailyStartBalance: s.dailyStartBalance,
		DailyHighEquity:   s.dailyHighEquity,
		UpdatedAt:         s.updatedAt,
	}
}

// Metrics are the inputs breach detection depends on, and nothing else.
type Metrics struct {
	InitialBalance    float64
	CurrentEquity     float64
	AllTimeHighEquity float64
	DailyStartBalance float64
	DailyHighEquity   float64
}

// ComputeBreaches rebuilds the breach set from scratch on every call. All
// four limits are checked unconditionally with >= so a tie counts as a
// breach.
func ComputeBreaches(m Metrics, rules challenge.Rules) BreachSet {
	var breaches BreachSet
	if m.InitialBalance-m.CurrentEquity >= m.InitialBalance*rules.MaxDrawdown {
		breaches = append(breaches, BreachMaxDrawdown)
	}
	if m.AllTimeHighEquity-m.CurrentEquity >= m.AllTimeHighEquity*rules.TrailingDrawdown {
		breaches = append(breaches, BreachTrailingDrawdown)
	}
	if m.DailyStartBalance-m.CurrentEquity >= m.DailyStartBalance*rules.DailyDrawdown {
		breaches = append(breaches, BreachDailyDrawdown)
	}
	if m.DailyHighEquity-m.CurrentEquity >= m.DailyHighEquity*rules.TrailingDailyDrawdown {
		breaches = append(breaches, BreachTrailingDailyDrawdown)
	}
	return breaches
}

func validMoney(v float64) bool {
	return v >= 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
