// Package dexscreener fetches token market data and the trending list from
// the Dexscreener public API. The client never retries.
package dexscreener

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"vote-preview/internal/domain"
)

const (
	DefaultBaseURL     = "https://api.dexscreener.com"
	DefaultTrendingURL = "https://api.dexscreener.com/token-boosts/top/v1"

	// DefaultUserAgent is a browser-like user agent.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	maxErrorBody = 200
	maxBody      = 8 << 20
)

// RequestPolicy shapes every outbound request.
type RequestPolicy struct {
	Timeout       time.Duration
	UserAgent     string
	OmitUserAgent bool
	ForceIPv4     bool
	Headers       map[string]string
}

func DefaultPolicy() RequestPolicy {
	return RequestPolicy{Timeout: 8 * time.Second, UserAgent: DefaultUserAgent}
}

// NewHTTPClient builds an http.Client honouring the timeout and IPv4 policy.
func NewHTTPClient(p RequestPolicy) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = 100
	transport.MaxConnsPerHost = 10
	transport.IdleConnTimeout = 30 * time.Second
	if p.ForceIPv4 {
		dialer := &net.Dialer{Timeout: p.Timeout, KeepAlive: 30 * time.Second}
		transport.DialContext = func(ctx context.Context, _, addr string) (net.Conn, error) {
			return dialer.DialContext(ctx, "tcp4", addr)
		}
	}
	return &http.Client{Timeout: p.Timeout, Transport: transport}
}

// Apply sets the policy headers on req.
func (p RequestPolicy) Apply(req *http.Request) {
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")
	if p.OmitUserAgent {
		// net/http fills in Go-http-client unless the header is present and empty
		req.Header["User-Agent"] = []string{""}
	} else if p.UserAgent != "" {
		req.Header.Set("User-Agent", p.UserAgent)
	}
	for k, v := range p.Headers {
		req.Header.Set(k, v)
	}
}

type Client struct {
	baseURL     string
	trendingURL string
	policy      RequestPolicy
	httpc       *http.Client
}

func NewClient(baseURL, trendingURL string, policy RequestPolicy) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if trendingURL == "" {
		trendingURL = DefaultTrendingURL
	}
	if policy.Timeout <= 0 {
		policy.Timeout = DefaultPolicy().Timeout
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		trendingURL: trendingURL,
		policy:      policy,
		httpc:       NewHTTPClient(policy),
	}
}

// FetchMarketData returns every pair Dexscreener lists for address.
func (c *Client) FetchMarketData(ctx context.Context, address string) (*domain.MarketData, error) {
	const op = "fetch market data"
	body, err := c.get(ctx, op, c.baseURL+"/latest/dex/tokens/"+url.PathEscape(address))
	if err != nil {
		return nil, err
	}
	var doc domain.MarketData
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, &domain.UpstreamError{Op: op, Err: fmt.Errorf("decode: %w", err)}
	}
	if doc.Pairs == nil {
		doc.Pairs = []domain.Pair{}
	}
	return &doc, nil
}

// FetchTrending returns the trending list as opaque JSON.
func (c *Client) FetchTrending(ctx context.Context) (json.RawMessage, error) {
	const op = "fetch trending"
	body, err := c.get(ctx, op, c.trendingURL)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, &domain.UpstreamError{Op: op, Err: fmt.Errorf("decode: invalid json body")}
	}
	return json.RawMessage(body), nil
}

func (c *Client) get(ctx context.Context, op, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &domain.UpstreamError{Op: op, Err: err}
	}
	c.policy.Apply(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &domain.UpstreamError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, &domain.UpstreamError{Op: op, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &domain.UpstreamError{Op: op, StatusCode: resp.StatusCode, Body: truncate(body)}
	}
	return body, nil
}

func truncate(b []byte) string {
	if len(b) > maxErrorBody {
		b = b[:maxErrorBody]
	}
	return string(b)
}
