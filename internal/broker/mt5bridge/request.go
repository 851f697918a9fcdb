package mt5bridge

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

type bridgeResponse[T any] struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
	Data  T      `json:"data"`
}

func (c *Client) doRequest(ctx context.Context, method, path string, params url.Values, body any, out any) error {
	var bodyReader io.Reader
	var bodyStr string
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		bodyStr = string(payload)
		bodyReader = bytes.NewReader(payload)
	}

	urlStr := c.baseURL + path
	if len(params) > 0 {
		urlStr += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, urlStr, bodyReader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	if c.apiKey != "" {
		timestamp := strconv.FormatInt(time.Now().UnixMilli(), 10)
		query := ""
		if method == http.MethodGet && len(params) > 0 {
			query = params.Encode()
		}

		signature := sign(c.secret, timestamp+c.apiKey+query+bodyStr)

		req.Header.Set("X-BRIDGE-KEY", c.apiKey)
		req.Header.Set("X-BRIDGE-SIGN", signature)
		req.Header.Set("X-BRIDGE-TIMESTAMP", timestamp)
	}

	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("bridge request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read bridge response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("bridge status %s: %s", resp.Status, truncate(string(data), 200))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode bridge response: %w", err)
	}

	return nil
}

func checkOK(ok bool, errMsg string) error {
	if ok {
		return nil
	}
	if errMsg == "" {
		errMsg = "unspecified bridge error"
	}
	return fmt.Errorf("bridge error: %s", errMsg)
}

func sign(secret, payload string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
