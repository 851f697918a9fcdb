package challenge

import (
	"fmt"
	"strings"
)

type Variant string

const (
	VariantOneStep Variant = "ONE_STEP"
	VariantTwoStep Variant = "TWO_STEP"
)

// Rules are fractions of the reference balance they apply to.
type Rules struct {
	Variant               Variant `json:"variant"`
	ProfitTarget          float64 `json:"profit_target"`
	MaxDrawdown           float64 `json:"max_drawdown"`
	DailyDrawdown         float64 `json:"daily_drawdown"`
	TrailingDailyDrawdown float64 `json:"trailing_daily_drawdown"`
	TrailingDrawdown      float64 `json:"trailing_drawdown"`
	MinTradingDays        int     `json:"min_trading_days"`
	MinProfitableDays     int     `json:"min_profitable_days"`
}

func RulesFor(variant Variant) (Rules, error) {
	switch variant {
	case VariantOneStep:
		return Rules{
			Variant:               VariantOneStep,
			ProfitTarget:          0.10,
			MaxDrawdown:           0.06,
			DailyDrawdown:         0.03,
			TrailingDailyDrawdown: 0.04,
			TrailingDrawdown:      0.08,
			MinTradingDays:        7,
			MinProfitableDays:     7,
		}, nil
	case VariantTwoStep:
		return Rules{
			Variant:               VariantTwoStep,
			ProfitTarget:          0.08,
			MaxDrawdown:           0.08,
			DailyDrawdown:         0.05,
			TrailingDailyDrawdown: 0.07,
			TrailingDrawdown:      0.10,
			MinTradingDays:        7,
			MinProfitableDays:     7,
		}, nil
	default:
		return Rules{}, fmt.Errorf("unknown challenge variant: %s", variant)
	}
}

func ParseVariant(s string) (Variant, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ONE_STEP", "":
		return VariantOneStep, nil
	case "TWO_STEP":
		return VariantTwoStep, nil
	default:
		return "", fmt.Errorf("unknown challenge variant: %s", s)
	}
}
