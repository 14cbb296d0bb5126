// Package overpass queries the OpenStreetMap Overpass API.
package overpass

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fastjson"

	"github.com/jobrunner/csiaudit/internal/domain"
)

// DefaultURL is the public Overpass interpreter endpoint.
const DefaultURL = "https://overpass-api.de/api/interpreter"

// maxResponseSize caps the body read for a count query.
const maxResponseSize = 1 << 20

// Config holds Overpass client configuration.
type Config struct {
	URL       string
	Timeout   time.Duration // HTTP timeout per query
	UserAgent string
}

// Client implements output.BuildingCounter against an Overpass endpoint.
type Client struct {
	client    *http.Client
	url       string
	userAgent string
	parser    fastjson.ParserPool
}

// NewClient creates a new Overpass client.
func NewClient(cfg Config) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 180 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "csiaudit"
	}

	return &Client{
		client:    &http.Client{Timeout: cfg.Timeout},
		url:       cfg.URL,
		userAgent: cfg.UserAgent,
	}
}

// Count posts an "out count" query and returns the total of the first
// count element. A response without elements counts as zero.
func (c *Client) Count(ctx context.Context, query string) (int64, error) {
	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrOverpassResponse, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return 0, fmt.Errorf("%w: reading body: %v", domain.ErrOverpassResponse, err)
	}

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: HTTP %d: %s", domain.ErrOverpassResponse, resp.StatusCode, snippet(body))
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return 0, fmt.Errorf("%w: empty body", domain.ErrOverpassResponse)
	}

	return c.parseCount(body)
}

func (c *Client) parseCount(body []byte) (int64, error) {
	p := c.parser.Get()
	defer c.parser.Put(p)

	v, err := p.ParseBytes(body)
	if err != nil {
		return 0, fmt.Errorf("%w: not JSON: %s", domain.ErrOverpassResponse, snippet(body))
	}

	elements := v.GetArray("elements")
	if len(elements) == 0 {
		return 0, nil
	}

	total := elements[0].Get("tags", "total")
	if total == nil {
		return 0, nil
	}

	switch total.Type() {
	case fastjson.TypeNumber:
		return total.Int64()
	case fastjson.TypeString:
		n, err := strconv.ParseInt(string(total.GetStringBytes()), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: total %q is not a number", domain.ErrOverpassResponse, total.GetStringBytes())
		}
		return n, nil
	}
	return 0, fmt.Errorf("%w: unexpected total %s", domain.ErrOverpassResponse, total.Type())
}

// snippet shortens a body for error messages.
func snippet(body []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
