package gate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"propbot/internal/models"
	"propbot/internal/risk"
)

var monday = time.Date(2025, 3, 3, 14, 0, 0, 0, time.UTC)

func defaultLimits() Limits {
	return Limits{
		MaxPerInstrument:  2,
		MaxConcurrentOpen: 4,
		StartHourUTC:      1,
		EndHourUTC:        22,
	}
}

func TestCanOpen_Allowed(t *testing.T) {
	t.Parallel()

	verdict := CanOpen(Inputs{
		Instrument: "XAUUSD",
		Now:        monday,
		Limits:     defaultLimits(),
	})
	assert.True(t, verdict.Allowed)
}

func TestCanOpen_BreachShortCircuitsEverything(t *testing.T) {
	t.Parallel()

	// Breach denies regardless of any other input.
	verdict := CanOpen(Inputs{
		Instrument: "XAUUSD",
		Breaches:   risk.BreachSet{risk.BreachDailyDrawdown},
		Now:        monday,
		Limits:     defaultLimits(),
	})
	assert.False(t, verdict.Allowed)
	assert.Equal(t, "account breached", verdict.Reason)

	// Even on a weekend with caps exhausted the breach reason wins.
	saturday := time.Date(2025, 3, 8, 14, 0, 0, 0, time.UTC)
	verdict = CanOpen(Inputs{
		Instrument:      "XAUUSD",
		Breaches:        risk.BreachSet{risk.BreachMaxDrawdown},
		TradingDisabled: true,
		OpenPositions:   make([]models.Position, 10),
		Now:             saturday,
		Limits:          defaultLimits(),
	})
	assert.False(t, verdict.Allowed)
	assert.Equal(t, "account breached", verdict.Reason)
}

func TestCanOpen_TradingDisabled(t *testing.T) {
	t.Parallel()

	verdict := CanOpen(Inputs{
		Instrument:      "XAUUSD",
		TradingDisabled: true,
		Now:             monday,
		Limits:          defaultLimits(),
	})
	assert.False(t, verdict.Allowed)
	assert.Equal(t, "trading disabled", verdict.Reason)
}

func TestCanOpen_Calendar(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		now    time.Time
		reason string
	}{
		{"saturday", time.Date(2025, 3, 8, 12, 0, 0, 0, time.UTC), "weekend closure"},
		{"sunday", time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC), "weekend closure"},
		{"before session open", time.Date(2025, 3, 3, 0, 30, 0, 0, time.UTC), "outside trading hours"},
		{"after session close", time.Date(2025, 3, 3, 22, 5, 0, 0, time.UTC), "outside trading hours"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			verdict := CanOpen(Inputs{Instrument: "XAUUSD", Now: tt.now, Limits: defaultLimits()})
			assert.False(t, verdict.Allowed)
			assert.Equal(t, tt.reason, verdict.Reason)
		})
	}
}

func TestCanOpen_ExposureCaps(t *testing.T) {
	t.Parallel()

	gold := func(n int) []models.Position {
		positions := make([]models.Position, n)
		for i := range positions {
			positions[i] = models.Position{Instrument: "XAUUSD"}
		}
		return positions
	}

	// Per-instrument cap hits first.
	verdict := CanOpen(Inputs{
		Instrument:    "XAUUSD",
		OpenPositions: gold(2),
		Now:           monday,
		Limits:        defaultLimits(),
	})
	assert.False(t, verdict.Allowed)
	assert.Equal(t, "instrument position cap reached", verdict.Reason)

	// Same census is fine for another instrument.
	verdict = CanOpen(Inputs{
		Instrument:    "XAGUSD",
		OpenPositions: gold(2),
		Now:           monday,
		Limits:        defaultLimits(),
	})
	assert.True(t, verdict.Allowed)

	// Global cap closes everything.
	mixed := append(gold(2), models.Position{Instrument: "XAGUSD"}, models.Position{Instrument: "EURUSD"})
	verdict = CanOpen(Inputs{
		Instrument:    "USDJPY",
		OpenPositions: mixed,
		Now:           monday,
		Limits:        defaultLimits(),
	})
	assert.False(t, verdict.Allowed)
	assert.Equal(t, "concurrent position cap reached", verdict.Reason)
}
