package models

import "time"

type Direction string
type Timeframe string
type InstrumentClass string

const (
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
	DirectionHold Direction = "HOLD"

	TimeframeM15 Timeframe = "M15"
	TimeframeH1  Timeframe = "H1"
	TimeframeH4  Timeframe = "H4"

	ClassGold     InstrumentClass = "METAL_GOLD"
	ClassSilver   InstrumentClass = "METAL_SILVER"
	ClassStandard InstrumentClass = "STANDARD"
)

type AccountSnapshot struct {
	Equity  float64   `json:"equity"`
	Balance float64   `json:"balance"`
	Time    time.Time `json:"time"`
}

type Position struct {
	Ticket           string    `json:"ticket"`
	Instrument       string    `json:"instrument"`
	Direction        Direction `json:"direction"`
	Volume           float64   `json:"volume"`
	EntryPrice       float64   `json:"entry_price"`
	StopLoss         float64   `json:"stop_loss"`
	TakeProfit       float64   `json:"take_profit"`
	OpenedAt         time.Time `json:"opened_at"`
	UnrealizedProfit float64   `json:"unrealized_profit"`
}

type MarketSignal struct {
	Direction Direction `json:"direction"`
	Strength  int       `json:"strength"`
	ATR       float64   `json:"atr"`
}

type Quote struct {
	Instrument string    `json:"instrument"`
	Bid        float64   `json:"bid"`
	Ask        float64   `json:"ask"`
	Time       time.Time `json:"time"`
}

type TradeIntent struct {
	RefID      string    `json:"ref_id"`
	Instrument string    `json:"instrument"`
	Direction  Direction `json:"direction"`
	Volume     float64   `json:"volume"`
	EntryPrice float64   `json:"entry_price"`
	StopLoss   float64   `json:"stop_loss"`
	TakeProfit float64   `json:"take_profit"`
}

type OrderResult struct {
	Ticket string  `json:"ticket"`
	Price  float64 `json:"price"`
	Profit float64 `json:"profit"`
}

type InstrumentProfile struct {
	Instrument   string          `json:"instrument"`
	Class        InstrumentClass `json:"class"`
	PipSize      float64         `json:"pip_size"`
	ContractSize float64         `json:"contract_size"`
	MinVolume    float64         `json:"min_volume"`
	MaxVolume    float64         `json:"max_volume"`
	VolumeStep   float64         `json:"volume_step"`
}
