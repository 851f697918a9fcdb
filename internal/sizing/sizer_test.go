package sizing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propbot/internal/models"
)

func goldProfile() models.InstrumentProfile {
	return models.InstrumentProfile{
		Instrument: "XAUUSD",
		Class:      models.ClassGold,
		PipSize:    0.01,
		MinVolume:  0.01,
		MaxVolume:  5.0,
		VolumeStep: 0.01,
	}
}

func silverProfile() models.InstrumentProfile {
	return models.InstrumentProfile{
		Instrument: "XAGUSD",
		Class:      models.ClassSilver,
		PipSize:    0.001,
		MinVolume:  0.01,
		MaxVolume:  10.0,
		VolumeStep: 0.01,
	}
}

func forexProfile() models.InstrumentProfile {
	return models.InstrumentProfile{
		Instrument:   "EURUSD",
		Class:        models.ClassStandard,
		PipSize:      0.0001,
		ContractSize: 100000,
		MinVolume:    0.01,
		MaxVolume:    2.0,
		VolumeStep:   0.01,
	}
}

func TestSize_ZeroRiskDistance(t *testing.T) {
	t.Parallel()

	_, err := Size(Inputs{
		RiskFraction: 0.012,
		Equity:       10000,
		EntryPrice:   2400,
		StopPrice:    2400,
		Profile:      goldProfile(),
	})
	assert.ErrorIs(t, err, ErrZeroRiskDistance)
}

func TestSize_MalformedProfile(t *testing.T) {
	t.Parallel()

	bad := goldProfile()
	bad.PipSize = 0

	_, err := Size(Inputs{
		RiskFraction: 0.012,
		Equity:       10000,
		EntryPrice:   2400,
		StopPrice:    2390,
		Profile:      bad,
	})
	assert.ErrorIs(t, err, ErrMalformedProfile)

	noStep := forexProfile()
	noStep.VolumeStep = 0
	_, err = Size(Inputs{
		RiskFraction: 0.012,
		Equity:       10000,
		EntryPrice:   1.1,
		StopPrice:    1.09,
		Profile:      noStep,
	})
	assert.ErrorIs(t, err, ErrMalformedProfile)
}

func TestSize_StreakMultipliers(t *testing.T) {
	t.Parallel()

	base := Inputs{
		RiskFraction: 0.012,
		Equity:       10000,
		EntryPrice:   2400,
		StopPrice:    2390,
		Profile:      goldProfile(),
	}

	neutral, err := Size(base)
	require.NoError(t, err)
	assert.InDelta(t, 120, neutral.RiskAmount, 1e-9)

	losing := base
	losing.ConsecutiveLosses = 3
	halved, err := Size(losing)
	require.NoError(t, err)
	assert.InDelta(t, 60, halved.RiskAmount, 1e-9)

	winning := base
	winning.ConsecutiveLosses = 0
	winning.TotalTrades = 11
	lifted, err := Size(winning)
	require.NoError(t, err)
	assert.InDelta(t, 144, lifted.RiskAmount, 1e-9)

	// A streak of losses on a long account history still halves, never both.
	mixed := base
	mixed.ConsecutiveLosses = 5
	mixed.TotalTrades = 50
	result, err := Size(mixed)
	require.NoError(t, err)
	assert.InDelta(t, 60, result.RiskAmount, 1e-9)
}

func TestSize_BoundsAndStep(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      Inputs
		maxLots float64
	}{
		{
			"gold tight stop caps at class max",
			Inputs{RiskFraction: 0.02, Equity: 100000, EntryPrice: 2400, StopPrice: 2399.9, Profile: goldProfile()},
			5.0,
		},
		{
			"gold wide stop floors at min",
			Inputs{RiskFraction: 0.001, Equity: 1000, EntryPrice: 2400, StopPrice: 2200, Profile: goldProfile()},
			5.0,
		},
		{
			"silver mid-range",
			Inputs{RiskFraction: 0.012, Equity: 10000, EntryPrice: 30.0, StopPrice: 29.8, Profile: silverProfile()},
			10.0,
		},
		{
			"forex mid-range",
			Inputs{RiskFraction: 0.012, Equity: 10000, EntryPrice: 1.1000, StopPrice: 1.0950, Profile: forexProfile()},
			2.0,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result, err := Size(tt.in)
			require.NoError(t, err)

			assert.GreaterOrEqual(t, result.Volume, tt.in.Profile.MinVolume)
			assert.LessOrEqual(t, result.Volume, tt.maxLots)

			steps := result.Volume / tt.in.Profile.VolumeStep
			assert.InDelta(t, math.Round(steps), steps, 1e-6, "volume %f is not a step multiple", result.Volume)
		})
	}
}

func TestSize_GoldExample(t *testing.T) {
	t.Parallel()

	// 120 risked over a 10.00 stop distance on gold: 1000 pips at $1/pip/lot.
	result, err := Size(Inputs{
		RiskFraction: 0.012,
		Equity:       10000,
		EntryPrice:   2400,
		StopPrice:    2390,
		Profile:      goldProfile(),
	})
	require.NoError(t, err)
	assert.InDelta(t, 1000, result.RiskPips, 1e-9)
	assert.InDelta(t, 0.12, result.Volume, 1e-9)
}
