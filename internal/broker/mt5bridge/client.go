// Package mt5bridge talks to a local MT5 terminal bridge over HTTP and
// websocket. The bridge owns indicator math and order routing; this client
// only moves snapshots, signals and intents across.
package mt5bridge

import (
	"net/http"
	"time"

	"propbot/internal/broker"
	"propbot/internal/logger"
)

type Client struct {
	baseURL string
	wsURL   string
	apiKey  string
	secret  string
	botTag  string

	httpClient *http.Client
	log        *logger.Logger

	events       chan broker.Event
	reconnectMin time.Duration
	reconnectMax time.Duration
}

func New(baseURL, wsURL, apiKey, secret, botTag string, log *logger.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		wsURL:   wsURL,
		apiKey:  apiKey,
		secret:  secret,
		botTag:  botTag,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		log:          log,
		events:       make(chan broker.Event, 100),
		reconnectMin: 1 * time.Second,
		reconnectMax: 30 * time.Second,
	}
}
