package mt5bridge

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"propbot/internal/models"
)

func (c *Client) GetQuote(ctx context.Context, instrument string) (models.Quote, error) {
	params := url.Values{}
	params.Set("instrument", instrument)

	var resp bridgeResponse[struct {
		Bid    float64 `json:"bid"`
		Ask    float64 `json:"ask"`
		TimeMS int64   `json:"time_ms"`
	}]

	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/quote", params, nil, &resp); err != nil {
		return models.Quote{}, err
	}
	if err := checkOK(resp.OK, resp.Error); err != nil {
		return models.Quote{}, err
	}

	quote := models.Quote{
		Instrument: instrument,
		Bid:        resp.Data.Bid,
		Ask:        resp.Data.Ask,
		Time:       time.Now().UTC(),
	}
	if resp.Data.TimeMS > 0 {
		quote.Time = time.UnixMilli(resp.Data.TimeMS).UTC()
	}
	return quote, nil
}

func (c *Client) GetSignal(ctx context.Context, instrument string, timeframe models.Timeframe) (models.MarketSignal, error) {
	params := url.Values{}
	params.Set("instrument", instrument)
	params.Set("timeframe", string(timeframe))

	var resp bridgeResponse[struct {
		Direction string  `json:"direction"`
		Strength  int     `json:"strength"`
		ATR       float64 `json:"atr"`
	}]

	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/signal", params, nil, &resp); err != nil {
		return models.MarketSignal{}, err
	}
	if err := checkOK(resp.OK, resp.Error); err != nil {
		return models.MarketSignal{}, err
	}

	return models.MarketSignal{
		Direction: models.Direction(resp.Data.Direction),
		Strength:  resp.Data.Strength,
		ATR:       resp.Data.ATR,
	}, nil
}

func (c *Client) GetProfile(ctx context.Context, instrument string) (models.InstrumentProfile, error) {
	params := url.Values{}
	params.Set("instrument", instrument)

	var resp bridgeResponse[struct {
		Class        string  `json:"class"`
		PipSize      float64 `json:"pip_size"`
		ContractSize float64 `json:"contract_size"`
		MinVolume    float64 `json:"min_volume"`
		MaxVolume    float64 `json:"max_volume"`
		VolumeStep   float64 `json:"volume_step"`
	}]

	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/instrument", params, nil, &resp); err != nil {
		return models.InstrumentProfile{}, err
	}
	if err := checkOK(resp.OK, resp.Error); err != nil {
		return models.InstrumentProfile{}, err
	}

	return models.InstrumentProfile{
		Instrument:   instrument,
		Class:        models.InstrumentClass(resp.Data.Class),
		PipSize:      resp.Data.PipSize,
		ContractSize: resp.Data.ContractSize,
		MinVolume:    resp.Data.MinVolume,
		MaxVolume:    resp.Data.MaxVolume,
		VolumeStep:   resp.Data.VolumeStep,
	}, nil
}
