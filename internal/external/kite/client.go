package kite

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/pushpitchhabra/Indian-Markets-dashboard/pkg/config"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/pkg/httputil"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/pkg/logger"
)

const kiteAPIVersion = "3"

// Client handles communication with the Zerodha Kite Connect API
// SSOT: broker API calls go through this client only
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	cfg        config.KiteConfig
	limiter    *rate.Limiter

	// Instrument dump cache; the exchange publishes it once a day
	instrumentsMu  sync.RWMutex
	tokensBySymbol map[string]int64
	instrumentsAt  time.Time
}

// NewClient creates a new Kite API client
func NewClient(cfg config.KiteConfig, httpClient *httputil.Client, log *logger.Logger) *Client {
	perSecond := rate.Limit(float64(cfg.RequestsPerMinute) / 60.0)

	return &Client{
		httpClient: httpClient,
		logger:     log,
		cfg:        cfg,
		// Burst of 5 absorbs the quote batch fan-out without tripping
		// the broker-side limit.
		limiter: rate.NewLimiter(perSecond, 5),
	}
}

// HasSession reports whether the client carries usable credentials.
// Kite access tokens are issued per day through an interactive login,
// so a missing token is an expected state, not a configuration bug.
func (c *Client) HasSession() bool {
	return c.cfg.APIKey != "" && c.cfg.AccessToken != ""
}

// request makes an authenticated GET request to the Kite API
func (c *Client) request(ctx context.Context, path string, query url.Values) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	endpoint := c.cfg.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("X-Kite-Version", kiteAPIVersion)
	req.Header.Set("Authorization", fmt.Sprintf("token %s:%s", c.cfg.APIKey, c.cfg.AccessToken))

	return c.httpClient.Do(req)
}

// decodeResponse unmarshals the standard Kite JSON envelope into out.
// Non-success envelopes and non-200 statuses become *APIError.
func decodeResponse(resp *http.Response, out interface{}) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	var envelope struct {
		Status    string          `json:"status"`
		Message   string          `json:"message"`
		ErrorType string          `json:"error_type"`
		Data      json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(body, &envelope); err != nil {
		if resp.StatusCode != http.StatusOK {
			return &APIError{StatusCode: resp.StatusCode, Message: string(body)}
		}
		return fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || envelope.Status != "success" {
		return &APIError{
			StatusCode: resp.StatusCode,
			ErrorType:  envelope.ErrorType,
			Message:    envelope.Message,
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}
