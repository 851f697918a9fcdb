package signal

import "propbot/internal/models"

// DefaultThreshold is the minimum combined score before a decision is worth
// acting on.
const DefaultThreshold = 4

// Timeframe weights, longest first.
var weights = map[models.Timeframe]int{
	models.TimeframeH4:  3,
	models.TimeframeH1:  2,
	models.TimeframeM15: 1,
}

func Weight(tf models.Timeframe) int {
	if w, ok := weights[tf]; ok {
		return w
	}
	return 1
}

type Decision struct {
	Direction models.Direction
	Strength  int
	// ATR of the highest-weight contributing signal, for stop placement.
	ATR float64
}

// Actionable reports whether the decision clears the threshold with a real
// direction.
func (d Decision) Actionable(threshold int) bool {
	return (d.Direction == models.DirectionBuy || d.Direction == models.DirectionSell) && d.Strength >= threshold
}

// Combine folds per-timeframe signals into one directional decision. The
// result depends only on the accumulated scores, never on map iteration
// order: a strict Buy/Sell tie resolves to Hold.
func Combine(signals map[models.Timeframe]models.MarketSignal) Decision {
	var buyScore, sellScore, holdScore int
	var atr float64
	var atrWeight int

	for tf, sig := range signals {
		w := Weight(tf)
		switch sig.Direction {
		case models.DirectionBuy:
			buyScore += sig.Strength * w
		case models.DirectionSell:
			sellScore += sig.Strength * w
		default:
			holdScore += sig.Strength * w
		}
		if sig.ATR > 0 && w > atrWeight {
			atr = sig.ATR
			atrWeight = w
		}
	}

	decision := Decision{Direction: models.DirectionHold, Strength: holdScore, ATR: atr}
	switch {
	case buyScore > sellScore && buyScore > holdScore:
		decision.Direction = models.DirectionBuy
		decision.Strength = buyScore
	case sellScore > buyScore && sellScore > holdScore:
		decision.Direction = models.DirectionSell
		decision.Strength = sellScore
	}
	return decision
}
