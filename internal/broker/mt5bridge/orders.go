package mt5bridge

import (
	"context"
	"fmt"
	"net/http"

	"propbot/internal/models"
)

func (c *Client) PlaceOrder(ctx context.Context, intent models.TradeIntent) (models.OrderResult, error) {
	if intent.RefID == "" {
		return models.OrderResult{}, fmt.Errorf("empty intent ref_id")
	}

	body := map[string]any{
		"ref_id":      intent.RefID,
		"instrument":  intent.Instrument,
		"direction":   string(intent.Direction),
		"volume":      intent.Volume,
		"entry_price": intent.EntryPrice,
		"stop_loss":   intent.StopLoss,
		"take_profit": intent.TakeProfit,
		"tag":         c.botTag,
	}

	var resp bridgeResponse[struct {
		Ticket string  `json:"ticket"`
		Price  float64 `json:"price"`
	}]

	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/orders", nil, body, &resp); err != nil {
		return models.OrderResult{}, err
	}
	if err := checkOK(resp.OK, resp.Error); err != nil {
		return models.OrderResult{}, err
	}

	return models.OrderResult{Ticket: resp.Data.Ticket, Price: resp.Data.Price}, nil
}

func (c *Client) ClosePosition(ctx context.Context, ticket string) (models.OrderResult, error) {
	body := map[string]any{
		"ticket": ticket,
		"tag":    c.botTag,
	}

	var resp bridgeResponse[struct {
		Ticket string  `json:"ticket"`
		Price  float64 `json:"price"`
		Profit float64 `json:"profit"`
	}]

	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/positions/close", nil, body, &resp); err != nil {
		return models.OrderResult{}, err
	}
	if err := checkOK(resp.OK, resp.Error); err != nil {
		return models.OrderResult{}, err
	}

	return models.OrderResult{
		Ticket: resp.Data.Ticket,
		Price:  resp.Data.Price,
		Profit: resp.Data.Profit,
	}, nil
}
