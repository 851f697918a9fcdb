package mt5bridge

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"propbot/internal/models"
)

func (c *Client) GetAccountSnapshot(ctx context.Context) (models.AccountSnapshot, error) {
	var resp bridgeResponse[struct {
		Equity  float64 `json:"equity"`
		Balance float64 `json:"balance"`
		TimeMS  int64   `json:"time_ms"`
	}]

	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/account", nil, nil, &resp); err != nil {
		return models.AccountSnapshot{}, err
	}
	if err := checkOK(resp.OK, resp.Error); err != nil {
		return models.AccountSnapshot{}, err
	}

	snapshot := models.AccountSnapshot{
		Equity:  resp.Data.Equity,
		Balance: resp.Data.Balance,
		Time:    time.Now().UTC(),
	}
	if resp.Data.TimeMS > 0 {
		snapshot.Time = time.UnixMilli(resp.Data.TimeMS).UTC()
	}
	return snapshot, nil
}

func (c *Client) GetOpenPositions(ctx context.Context) ([]models.Position, error) {
	params := url.Values{}
	if c.botTag != "" {
		params.Set("tag", c.botTag)
	}

	var resp bridgeResponse[struct {
		Positions []positionPayload `json:"positions"`
	}]

	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/positions", params, nil, &resp); err != nil {
		return nil, err
	}
	if err := checkOK(resp.OK, resp.Error); err != nil {
		return nil, err
	}

	positions := make([]models.Position, 0, len(resp.Data.Positions))
	for _, p := range resp.Data.Positions {
		positions = append(positions, p.toModel())
	}
	return positions, nil
}

type positionPayload struct {
	Ticket           string  `json:"ticket"`
	Instrument       string  `json:"instrument"`
	Direction        string  `json:"direction"`
	Volume           float64 `json:"volume"`
	EntryPrice       float64 `json:"entry_price"`
	StopLoss         float64 `json:"stop_loss"`
	TakeProfit       float64 `json:"take_profit"`
	OpenedAtMS       int64   `json:"opened_at_ms"`
	UnrealizedProfit float64 `json:"unrealized_profit"`
}

func (p positionPayload) toModel() models.Position {
	pos := models.Position{
		Ticket:           p.Ticket,
		Instrument:       p.Instrument,
		Direction:        models.Direction(p.Direction),
		Volume:           p.Volume,
		EntryPrice:       p.EntryPrice,
		StopLoss:         p.StopLoss,
		TakeProfit:       p.TakeProfit,
		UnrealizedProfit: p.UnrealizedProfit,
	}
	if p.OpenedAtMS > 0 {
		pos.OpenedAt = time.UnixMilli(p.OpenedAtMS).UTC()
	}
	return pos
}
