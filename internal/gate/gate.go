package gate

import (
	"time"

	"propbot/internal/models"
	"propbot/internal/risk"
)

// Limits are the exposure caps the gate enforces.
type Limits struct {
	MaxPerInstrument  int
	MaxConcurrentOpen int
	StartHourUTC      int
	EndHourUTC        int
}

type Inputs struct {
	Instrument      string
	Breaches        risk.BreachSet
	TradingDisabled bool
	OpenPositions   []models.Position
	Now             time.Time
	Limits          Limits
}

type Verdict struct {
	Allowed bool
	Reason  string
}

func deny(reason string) Verdict {
	return Verdict{Reason: reason}
}

// CanOpen decides whether a new trade on the instrument is allowed. Checks
// run in a fixed priority order and short-circuit: breaches first, then the
// calendar, then exposure caps. Pure and side-effect free.
func CanOpen(in Inputs) Verdict {
	if len(in.Breaches) > 0 {
		return deny("account breached")
	}
	if in.TradingDisabled {
		return deny("trading disabled")
	}

	now := in.Now.UTC()
	if now.Weekday() == time.Saturday || now.Weekday() == time.Sunday {
		return deny("weekend closure")
	}
	if !withinHours(now.Hour(), in.Limits.StartHourUTC, in.Limits.EndHourUTC) {
		return deny("outside trading hours")
	}

	instrumentCount := 0
	for _, pos := range in.OpenPositions {
		if pos.Instrument == in.Instrument {
			instrumentCount++
		}
	}
	if in.Limits.MaxPerInstrument > 0 && instrumentCount >= in.Limits.MaxPerInstrument {
		return deny("instrument position cap reached")
	}
	if in.Limits.MaxConcurrentOpen > 0 && len(in.OpenPositions) >= in.Limits.MaxConcurrentOpen {
		return deny("concurrent position cap reached")
	}

	return Verdict{Allowed: true}
}

func withinHours(hour, start, end int) bool {
	if start == 0 && end == 0 {
		return true
	}
	if start <= end {
		return hour >= start && hour < end
	}
	return hour >= start || hour < end
}
