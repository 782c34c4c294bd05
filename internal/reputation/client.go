package reputation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/nexshop/identity/internal/policy"
)

// DefaultTimeout bounds a single lookup on the verify critical path.
const DefaultTimeout = 3 * time.Second

const defaultBaseURL = "https://www.abuseipdb.com/check"

// Client queries the reputation service over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL overrides the service endpoint (used in tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithTimeout overrides the lookup timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// NewClient creates a reputation client.
func NewClient(logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    defaultBaseURL,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check looks up the IP's abuse confidence. It never returns an error:
// any failure degrades to a skipped result so the caller's risk
// evaluation proceeds without the reputation signal.
func (c *Client) Check(ctx context.Context, ip string, cfg policy.Reputation) Result {
	if !cfg.Enabled {
		return Result{Skipped: true, Reason: SkipDisabled}
	}
	if cfg.APIKey == "" {
		return Result{Enabled: true, Skipped: true, Reason: SkipMissingAPIKey}
	}

	days := cfg.Days
	if days <= 0 {
		days = policy.DefaultReputationDays
	}

	confidence, err := c.lookup(ctx, ip, cfg.APIKey, days)
	if err != nil {
		c.logger.Warn("reputation lookup failed",
			"ip", ip,
			"error", err,
		)
		return Result{Enabled: true, Skipped: true, Reason: SkipLookupFailed}
	}

	if confidence < 0 {
		confidence = 0
	}
	if confidence > 100 {
		confidence = 100
	}

	result := Result{
		Enabled:    true,
		Confidence: confidence,
		Malicious:  confidence >= cfg.MaliciousThreshold,
	}
	c.logger.Info("reputation lookup",
		"ip", ip,
		"confidence", confidence,
		"malicious", result.Malicious,
	)
	return result
}

func (c *Client) lookup(ctx context.Context, ip, apiKey string, days int) (int, error) {
	u := fmt.Sprintf("%s/%s/json?key=%s&days=%d",
		c.baseURL, url.PathEscape(ip), url.QueryEscape(apiKey), days)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	// Providers disagree on response shape; accept the common ones.
	var payload struct {
		Data struct {
			AbuseConfidenceScore *float64 `json:"abuseConfidenceScore"`
		} `json:"data"`
		AbuseConfidenceScore *float64 `json:"abuseConfidenceScore"`
		Score                *float64 `json:"score"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}

	switch {
	case payload.Data.AbuseConfidenceScore != nil:
		return int(*payload.Data.AbuseConfidenceScore), nil
	case payload.AbuseConfidenceScore != nil:
		return int(*payload.AbuseConfidenceScore), nil
	case payload.Score != nil:
		return int(*payload.Score), nil
	default:
		return 0, nil
	}
}
