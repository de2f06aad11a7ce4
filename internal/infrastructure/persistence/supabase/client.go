// Package supabase 通过 Supabase PostgREST 接口持久化计划
package supabase

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"

	"ideaplan-api/internal/config"
)

var tracer = otel.Tracer("supabase")

// Client PostgREST 客户端
type Client struct {
	baseURL string
	apiKey  string
	table   string
	http    *http.Client
}

// NewClient 创建客户端
func NewClient(cfg *config.SupabaseConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("supabase url is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	table := cfg.Table
	if table == "" {
		table = "plans"
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		apiKey:  cfg.APIKey,
		table:   table,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

func (c *Client) tablePath() string {
	return "/rest/v1/" + c.table
}

// Ping 检查 PostgREST 可达
func (c *Client) Ping(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "supabase.Ping")
	defer span.End()

	_, err := request[[]map[string]any](ctx, c, reqConfig{
		Method: http.MethodGet,
		Path:   c.tablePath(),
		Query:  "select=id&limit=1",
	}, http.StatusOK)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("supabase ping failed: %w", err)
	}
	return nil
}
