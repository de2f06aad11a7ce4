package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

type reqConfig struct {
	Method string
	Path   string
	Query  string
	Token  string
	Prefer string
	Body   []byte
}

// StatusError PostgREST 返回了非预期状态码
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected response status code %d: %s", e.Status, e.Body)
}

func request[T any](ctx context.Context, c *Client, config reqConfig, expectedResCode int) (*T, error) {
	url := c.baseURL + config.Path
	if config.Query != "" {
		url += "?" + config.Query
	}

	req, err := http.NewRequestWithContext(ctx, config.Method, url, bytes.NewReader(config.Body))
	if err != nil {
		return nil, err
	}

	token := config.Token
	if token == "" {
		token = c.apiKey
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if config.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if config.Prefer != "" {
		req.Header.Set("Prefer", config.Prefer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != expectedResCode {
		return nil, &StatusError{Status: resp.StatusCode, Body: truncate(string(body), 256)}
	}

	var t T
	if len(bytes.TrimSpace(body)) == 0 {
		return &t, nil
	}
	if err := json.Unmarshal(body, &t); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &t, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
