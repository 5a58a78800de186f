// Package paapi implements the HTTP client for the product-advertising search
// backend. Responses arrive in several loosely-typed shapes, so decoding runs
// a list of best-effort field accessors against the parsed JSON tree and the
// rest of the pipeline only ever sees the clean catalog.Product type.
package paapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"rotativa/internal/catalog"
)

const (
	// MaxItemsPerPage is the hard per-page item cap enforced by the backend.
	MaxItemsPerPage = 10
	// MaxPages is the hard page-count cap enforced by the backend.
	MaxPages = 10

	defaultHTTPTimeout = 30 * time.Second
)

// Config captures the runtime settings required to talk to the search backend.
type Config struct {
	APIKey         string
	BaseURL        string
	PartnerTag     string
	Marketplace    string
	TimeoutSeconds int
}

// PageRequest describes one bounded page fetch.
type PageRequest struct {
	Keywords string
	// SearchIndex is the canonical category enum value, empty for no filter.
	SearchIndex string
	ItemCount   int
	Page        int
}

// Searcher defines the single page-fetch operation the aggregator consumes.
type Searcher interface {
	SearchPage(ctx context.Context, req PageRequest) ([]catalog.Product, error)
}

// Client provides access to the search backend.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

var _ Searcher = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a search client.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	if cfg.BaseURL == "" {
		return nil, errors.New("search base url required")
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.PartnerTag = strings.TrimSpace(cfg.PartnerTag)
	cfg.Marketplace = strings.TrimSpace(cfg.Marketplace)

	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// PartnerTag returns the configured affiliate tracking tag.
func (c *Client) PartnerTag() string {
	return c.cfg.PartnerTag
}

// SearchPage fetches one page of search results. Item count and page number
// are clamped to the backend's documented caps before the request is issued.
func (c *Client) SearchPage(ctx context.Context, req PageRequest) ([]catalog.Product, error) {
	keywords := strings.TrimSpace(req.Keywords)
	if keywords == "" {
		return nil, errors.New("keywords must not be empty")
	}
	itemCount := clamp(req.ItemCount, 1, MaxItemsPerPage)
	page := clamp(req.Page, 1, MaxPages)

	endpoint, err := url.Parse(strings.TrimRight(c.cfg.BaseURL, "/") + "/search")
	if err != nil {
		return nil, fmt.Errorf("parse search url: %w", err)
	}
	params := url.Values{}
	params.Set("keywords", keywords)
	params.Set("item_count", strconv.Itoa(itemCount))
	params.Set("item_page", strconv.Itoa(page))
	if req.SearchIndex != "" {
		params.Set("search_index", req.SearchIndex)
	}
	if c.cfg.Marketplace != "" {
		params.Set("marketplace", c.cfg.Marketplace)
	}
	endpoint.RawQuery = params.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response (latency=%v): %w", latency, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned %d (latency=%v): %s", resp.StatusCode, latency, summarizeBody(body))
	}

	items, err := decodeItems(body)
	if err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	products := make([]catalog.Product, 0, len(items))
	for _, item := range items {
		product, ok := extractProduct(item)
		if !ok {
			continue
		}
		product.AttachAffiliateTag(c.cfg.PartnerTag)
		products = append(products, product)
	}
	return products, nil
}

// decodeItems tolerates the known response envelopes: a bare JSON array, an
// object with an item list under a few conventional keys, or a doubly nested
// search-result wrapper.
func decodeItems(body []byte) ([]map[string]any, error) {
	var flat []map[string]any
	if err := json.Unmarshal(body, &flat); err == nil {
		return flat, nil
	}

	var wrapped map[string]any
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, err
	}
	for _, key := range []string{"items", "results", "products"} {
		if list, ok := itemList(wrapped[key]); ok {
			return list, nil
		}
	}
	if inner, ok := wrapped["search_result"].(map[string]any); ok {
		if list, ok := itemList(inner["items"]); ok {
			return list, nil
		}
	}
	// An object without a recognizable list is treated as empty, not an error.
	return nil, nil
}

func itemList(value any) ([]map[string]any, bool) {
	raw, ok := value.([]any)
	if !ok {
		return nil, false
	}
	items := make([]map[string]any, 0, len(raw))
	for _, entry := range raw {
		if item, ok := entry.(map[string]any); ok {
			items = append(items, item)
		}
	}
	return items, true
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func summarizeBody(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return "<empty>"
	}
	clean := strings.Join(strings.Fields(trimmed), " ")
	const limit = 160
	runes := []rune(clean)
	if len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}
