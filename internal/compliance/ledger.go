package compliance

import (
	"sort"
	"sync"
	"time"

	"propbot/internal/challenge"
)

// ProfitableDayFraction is the minimum daily profit, as a fraction of
// current equity, for a day to count as profitable.
const ProfitableDayFraction = 0.001

// Ledger is the challenge compliance bookkeeping: trading days, profitable
// days, profit totals and the loss streak. Pure bookkeeping, no I/O.
type Ledger struct {
	mu sync.Mutex

	tradingDays       map[string]bool
	profitableDays    int
	totalTrades       int
	dailyProfit       float64
	totalProfit       float64
	consecutiveLosses int
}

func NewLedger() *Ledger {
	return &Ledger{tradingDays: map[string]bool{}}
}

func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// RecordTrade marks a trade placed on the given day.
func (l *Ledger) RecordTrade(at time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.totalTrades++
	l.tradingDays[dayKey(at)] = true
}

// RecordClose folds a closed position's realized profit into the totals and
// advances or resets the loss streak.
func (l *Ledger) RecordClose(profit float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if profit > 0 {
		l.consecutiveLosses = 0
	} else {
		l.consecutiveLosses++
	}
	l.dailyProfit += profit
	l.totalProfit += profit
}

// CloseDay closes out the given day: counts it as profitable when a trade
// was recorded on it and its profit clears the threshold against current
// equity, then zeroes the daily profit. A profitable close on a day with no
// trade cannot count, which keeps profitable days bounded by trading days.
func (l *Ledger) CloseDay(day time.Time, currentEquity float64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	profitable := l.tradingDays[dayKey(day)] && l.dailyProfit >= currentEquity*ProfitableDayFraction
	if profitable {
		l.profitableDays++
	}
	l.dailyProfit = 0
	return profitable
}

func (l *Ledger) TradingDayCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tradingDays)
}

func (l *Ledger) ProfitableDays() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.profitableDays
}

func (l *Ledger) TotalTrades() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalTrades
}

func (l *Ledger) TotalProfit() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalProfit
}

func (l *Ledger) DailyProfit() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dailyProfit
}

func (l *Ledger) ConsecutiveLosses() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.consecutiveLosses
}

// TradingDays returns the recorded days sorted ascending.
func (l *Ledger) TradingDays() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	days := make([]string, 0, len(l.tradingDays))
	for day := range l.tradingDays {
		days = append(days, day)
	}
	sort.Strings(days)
	return days
}

// MeetsMinimumDays reports whether the day requirements of the challenge
// have been satisfied.
func (l *Ledger) MeetsMinimumDays(rules challenge.Rules) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tradingDays) >= rules.MinTradingDays && l.profitableDays >= rules.MinProfitableDays
}

// Restore rebuilds the ledger from persisted state.
func (l *Ledger) Restore(tradingDays []string, profitableDays, totalTrades int, totalProfit float64, consecutiveLosses int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tradingDays = map[string]bool{}
	for _, day := range tradingDays {
		l.tradingDays[day] = true
	}
	l.profitableDays = profitableDays
	l.totalTrades = totalTrades
	l.totalProfit = totalProfit
	l.consecutiveLosses = consecutiveLosses
}
