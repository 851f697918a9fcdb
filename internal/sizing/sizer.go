package sizing

import (
	"errors"
	"math"

	"propbot/internal/models"
)

var (
	ErrZeroRiskDistance  = errors.New("entry and stop price are equal")
	ErrMalformedProfile  = errors.New("malformed instrument profile")
	ErrInvalidRiskBudget = errors.New("risk budget must be positive")
)

// Streak throttle: cut risk in half on a losing streak, lift it modestly
// after a clean run. The multipliers never stack.
const (
	LossStreakThreshold  = 3
	LossStreakMultiplier = 0.5
	WinRunMinTrades      = 10
	WinRunMultiplier     = 1.2
)

// Per-class lot bounds and per-pip dollar divisors.
const (
	classMinLots  = 0.01
	goldMaxLots   = 5.0
	silverMaxLots = 10.0
	forexMaxLots  = 2.0

	silverPipDivisor = 5.0
)

type Inputs struct {
	RiskFraction      float64
	Equity            float64
	EntryPrice        float64
	StopPrice         float64
	ConsecutiveLosses int
	TotalTrades       int
	Profile           models.InstrumentProfile
}

type Result struct {
	Volume     float64
	RiskAmount float64
	RiskPips   float64
}

// Size converts a risk budget and a stop distance into a bounded lot size.
// A zero volume is always accompanied by an error: the caller can tell a
// sizing failure from a legitimate no-trade decision.
func Size(in Inputs) (Result, error) {
	if in.RiskFraction <= 0 || in.Equity <= 0 {
		return Result{}, ErrInvalidRiskBudget
	}
	if in.Profile.PipSize <= 0 || in.Profile.MinVolume <= 0 || in.Profile.VolumeStep <= 0 {
		return Result{}, ErrMalformedProfile
	}
	if in.EntryPrice == in.StopPrice {
		return Result{}, ErrZeroRiskDistance
	}

	riskAmount := in.Equity * in.RiskFraction
	switch {
	case in.ConsecutiveLosses >= LossStreakThreshold:
		riskAmount *= LossStreakMultiplier
	case in.ConsecutiveLosses == 0 && in.TotalTrades > WinRunMinTrades:
		riskAmount *= WinRunMultiplier
	}

	riskPips := math.Abs(in.EntryPrice-in.StopPrice) / in.Profile.PipSize

	var volume, maxLots float64
	switch in.Profile.Class {
	case models.ClassGold:
		volume = riskAmount / riskPips
		maxLots = goldMaxLots
	case models.ClassSilver:
		volume = riskAmount / (riskPips * silverPipDivisor)
		maxLots = silverMaxLots
	case models.ClassStandard:
		if in.Profile.ContractSize <= 0 {
			return Result{}, ErrMalformedProfile
		}
		pipValue := (in.Profile.PipSize / in.EntryPrice) * in.Profile.ContractSize
		volume = riskAmount / (riskPips * pipValue)
		maxLots = forexMaxLots
	default:
		return Result{}, ErrMalformedProfile
	}

	if in.Profile.MaxVolume > 0 && maxLots > in.Profile.MaxVolume {
		maxLots = in.Profile.MaxVolume
	}
	volume = math.Max(classMinLots, math.Min(volume, maxLots))

	// Snap to the instrument's volume step, then floor at the minimum.
	volume = math.Round(volume/in.Profile.VolumeStep) * in.Profile.VolumeStep
	volume = math.Max(in.Profile.MinVolume, volume)

	return Result{
		Volume:     volume,
		RiskAmount: riskAmount,
		RiskPips:   riskPips,
	}, nil
}
