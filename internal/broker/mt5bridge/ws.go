package mt5bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"propbot/internal/broker"
	"propbot/internal/models"
)

type wsMessage struct {
	Topic string          `json:"topic"`
	Data  json.RawMessage `json:"data"`
}

func (c *Client) logEntry() *logrus.Entry {
	return c.log.WithComponent("mt5bridge")
}

// Subscribe connects to the bridge websocket and streams account and
// position events until ctx is canceled. Reconnects with backoff and emits
// a Reconnect event so the engine can resync.
func (c *Client) Subscribe(ctx context.Context) (<-chan broker.Event, error) {
	if c.wsURL == "" {
		return nil, fmt.Errorf("bridge ws url not configured")
	}

	conn, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}

	go c.readLoop(ctx, conn)
	return c.events, nil
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	c.logEntry().WithField("url", c.wsURL).Info("connecting to bridge stream")

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial bridge ws: %w", err)
	}
	conn.SetReadLimit(1 << 20)

	sub := map[string]any{
		"op":     "subscribe",
		"topics": []string{"account", "positions"},
		"tag":    c.botTag,
	}
	if err := conn.WriteJSON(sub); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("subscribe bridge ws: %w", err)
	}

	return conn, nil
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) {
	defer close(c.events)
	defer func() { _ = conn.Close() }()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			c.logEntry().WithError(err).Warn("bridge ws read failed")
			next, ok := c.reconnect(ctx)
			if !ok {
				return
			}
			_ = conn.Close()
			conn = next
			continue
		}

		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logEntry().WithError(err).Warn("unparseable bridge ws message")
			continue
		}

		switch msg.Topic {
		case "account":
			c.handleAccount(msg.Data)
		case "positions":
			c.handlePosition(msg.Data)
		}
	}
}

func (c *Client) reconnect(ctx context.Context) (*websocket.Conn, bool) {
	backoff := c.reconnectMin

	for {
		select {
		case <-ctx.Done():
			return nil, false
		case <-time.After(backoff):
		}

		c.logEntry().Info("reconnecting bridge stream")
		conn, err := c.dial(ctx)
		if err != nil {
			c.logEntry().WithError(err).Warn("bridge reconnect failed")
			backoff = c.nextBackoff(backoff)
			continue
		}

		c.emit(broker.Event{Type: broker.EventTypeReconnect})
		return conn, true
	}
}

func (c *Client) nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > c.reconnectMax {
		return c.reconnectMax
	}
	return next
}

func (c *Client) handleAccount(data json.RawMessage) {
	var payload struct {
		Equity  float64 `json:"equity"`
		Balance float64 `json:"balance"`
		TimeMS  int64   `json:"time_ms"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		c.logEntry().WithError(err).Warn("bad account payload")
		return
	}

	snapshot := models.AccountSnapshot{
		Equity:  payload.Equity,
		Balance: payload.Balance,
		Time:    time.Now().UTC(),
	}
	if payload.TimeMS > 0 {
		snapshot.Time = time.UnixMilli(payload.TimeMS).UTC()
	}

	c.emit(broker.Event{Type: broker.EventTypeAccount, Account: &snapshot})
}

func (c *Client) handlePosition(data json.RawMessage) {
	var payload positionPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		c.logEntry().WithError(err).Warn("bad position payload")
		return
	}

	pos := payload.toModel()
	c.emit(broker.Event{Type: broker.EventTypePosition, Position: &pos})
}

func (c *Client) emit(event broker.Event) {
	select {
	case c.events <- event:
	default:
		c.logEntry().Warn("event buffer full, dropping bridge event")
	}
}
