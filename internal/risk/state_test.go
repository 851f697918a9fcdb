package risk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propbot/internal/challenge"
	"propbot/internal/models"
)

func oneStepRules(t *testing.T) challenge.Rules {
	t.Helper()
	rules, err := challenge.RulesFor(challenge.VariantOneStep)
	require.NoError(t, err)
	return rules
}

func TestRefresh_HighWaterMarks(t *testing.T) {
	t.Parallel()

	state := NewState(10000, oneStepRules(t))

	path := []float64{10050, 10200, 10100, 10150, 9900}
	var lastATH, lastDaily float64

	for _, equity := range path {
		_, err := state.Refresh(models.AccountSnapshot{Equity: equity, Balance: equity})
		require.NoError(t, err)

		snap := state.Snapshot()
		assert.GreaterOrEqual(t, snap.AllTimeHighEquity, lastATH)
		assert.GreaterOrEqual(t, snap.DailyHighEquity, lastDaily)
		assert.GreaterOrEqual(t, snap.AllTimeHighEquity, equity)
		lastATH = snap.AllTimeHighEquity
		lastDaily = snap.DailyHighEquity
	}

	assert.InDelta(t, 10200, state.Snapshot().AllTimeHighEquity, 1e-9)
}

func TestRefresh_InvalidSnapshot(t *testing.T) {
	t.Parallel()

	state := NewState(10000, oneStepRules(t))
	_, err := state.Refresh(models.AccountSnapshot{Equity: 10100, Balance: 10100})
	require.NoError(t, err)

	tests := []struct {
		name    string
		equity  float64
		balance float64
	}{
		{"negative equity", -1, 10000},
		{"negative balance", 10000, -1},
		{"nan equity", math.NaN(), 10000},
		{"inf balance", 10000, math.Inf(1)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := state.Refresh(models.AccountSnapshot{Equity: tt.equity, Balance: tt.balance})
			assert.ErrorIs(t, err, ErrInvalidSnapshot)
		})
	}

	// Prior state retained after a rejected snapshot.
	assert.InDelta(t, 10100, state.Equity(), 1e-9)
}

func TestComputeBreaches_MaxDrawdownTie(t *testing.T) {
	t.Parallel()

	rules := oneStepRules(t)

	m := Metrics{
		InitialBalance:    10000,
		CurrentEquity:     9400,
		AllTimeHighEquity: 10000,
		DailyStartBalance: 10000,
		DailyHighEquity:   10000,
	}

	// 600 lost on a 6% limit of 10000: the tie counts as a breach.
	breaches := ComputeBreaches(m, rules)
	assert.True(t, breaches.Contains(BreachMaxDrawdown))

	m.CurrentEquity = 9401
	breaches = ComputeBreaches(m, rules)
	assert.False(t, breaches.Contains(BreachMaxDrawdown))
}

func TestComputeBreaches_AllFourIndependent(t *testing.T) {
	t.Parallel()

	rules := oneStepRules(t)

	tests := []struct {
		name    string
		metrics Metrics
		want    Breach
	}{
		{
			"trailing drawdown from all-time high",
			Metrics{InitialBalance: 10000, CurrentEquity: 10120, AllTimeHighEquity: 11000, DailyStartBalance: 10120, DailyHighEquity: 10120},
			BreachTrailingDrawdown,
		},
		{
			"daily drawdown from day start",
			Metrics{InitialBalance: 10000, CurrentEquity: 10185, AllTimeHighEquity: 10500, DailyStartBalance: 10500, DailyHighEquity: 10500},
			BreachDailyDrawdown,
		},
		{
			"trailing daily drawdown from day high",
			Metrics{InitialBalance: 10000, CurrentEquity: 10080, AllTimeHighEquity: 10500, DailyStartBalance: 10450, DailyHighEquity: 10500},
			BreachTrailingDailyDrawdown,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			breaches := ComputeBreaches(tt.metrics, rules)
			assert.True(t, breaches.Contains(tt.want), "expected %s in %v", tt.want, breaches.Names())
		})
	}
}

func TestComputeBreaches_Pure(t *testing.T) {
	t.Parallel()

	rules := oneStepRules(t)
	m := Metrics{
		InitialBalance:    10000,
		CurrentEquity:     9350,
		AllTimeHighEquity: 10400,
		DailyStartBalance: 9700,
		DailyHighEquity:   9800,
	}

	first := ComputeBreaches(m, rules)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ComputeBreaches(m, rules))
	}
}

func TestBreachSet_MergeAndDropDaily(t *testing.T) {
	t.Parallel()

	latched := BreachSet{BreachMaxDrawdown}
	latched = latched.Merge(BreachSet{BreachDailyDrawdown, BreachMaxDrawdown, BreachTrailingDailyDrawdown})

	assert.Equal(t, BreachSet{BreachMaxDrawdown, BreachDailyDrawdown, BreachTrailingDailyDrawdown}, latched)

	// Merging again never duplicates.
	latched = latched.Merge(BreachSet{BreachDailyDrawdown})
	assert.Len(t, latched, 3)

	// The daily boundary releases only the daily kinds.
	kept := latched.DropDaily()
	assert.Equal(t, BreachSet{BreachMaxDrawdown}, kept)

	assert.True(t, BreachDailyDrawdown.Daily())
	assert.True(t, BreachTrailingDailyDrawdown.Daily())
	assert.False(t, BreachMaxDrawdown.Daily())
	assert.False(t, BreachTrailingDrawdown.Daily())
}

func TestRefresh_TargetReached(t *testing.T) {
	t.Parallel()

	state := NewState(10000, oneStepRules(t))

	assessment, err := state.Refresh(models.AccountSnapshot{Equity: 10999, Balance: 10999})
	require.NoError(t, err)
	assert.False(t, assessment.TargetReached)

	assessment, err = state.Refresh(models.AccountSnapshot{Equity: 11000, Balance: 11000})
	require.NoError(t, err)
	assert.True(t, assessment.TargetReached)
	assert.InDelta(t, 0.10, assessment.ProfitPercent, 1e-9)
}

func TestDailyReset_RestartsDailyBaselines(t *testing.T) {
	t.Parallel()

	state := NewState(10000, oneStepRules(t))

	_, err := state.Refresh(models.AccountSnapshot{Equity: 10400, Balance: 10400})
	require.NoError(t, err)
	_, err = state.Refresh(models.AccountSnapshot{Equity: 10250, Balance: 10250})
	require.NoError(t, err)

	before := state.Snapshot()
	assert.InDelta(t, 10000, before.DailyStartBalance, 1e-9)
	assert.InDelta(t, 10400, before.DailyHighEquity, 1e-9)

	state.DailyReset()

	after := state.Snapshot()
	assert.InDelta(t, 10250, after.DailyStartBalance, 1e-9)
	assert.InDelta(t, 10250, after.DailyHighEquity, 1e-9)
	// All-time high survives the daily boundary.
	assert.InDelta(t, 10400, after.AllTimeHighEquity, 1e-9)
}
