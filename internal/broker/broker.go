package broker

import (
	"context"

	"propbot/internal/models"
)

type EventType string

const (
	EventTypeAccount   EventType = "Account"
	EventTypePosition  EventType = "Position"
	EventTypeReconnect EventType = "Reconnect"
)

type Event struct {
	Type     EventType
	Account  *models.AccountSnapshot
	Position *models.Position
}

// Gateway is the broker side of the bridge: account state and order flow.
type Gateway interface {
	GetAccountSnapshot(ctx context.Context) (models.AccountSnapshot, error)
	GetOpenPositions(ctx context.Context) ([]models.Position, error)
	GetQuote(ctx context.Context, instrument string) (models.Quote, error)
	PlaceOrder(ctx context.Context, intent models.TradeIntent) (models.OrderResult, error)
	ClosePosition(ctx context.Context, ticket string) (models.OrderResult, error)
	Subscribe(ctx context.Context) (<-chan Event, error)
}

// MarketDataProvider serves precomputed per-timeframe signals. Indicator
// math lives on the bridge side.
type MarketDataProvider interface {
	GetSignal(ctx context.Context, instrument string, timeframe models.Timeframe) (models.MarketSignal, error)
}

type InstrumentCatalog interface {
	GetProfile(ctx context.Context, instrument string) (models.InstrumentProfile, error)
}
