// Package discovery announces a freshly created agent identity to
// zero or more discovery registries. Registration is best-effort:
// failures are logged and never abort identity creation.
package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jpillora/backoff"
	"github.com/pkg/errors"

	"github.com/agentwire/didwba/internal/utils/logging"
	"github.com/agentwire/didwba/pkg/agent"
)

const defaultAttempts = 3

// Registration is the body posted to a registry.
type Registration struct {
	DID         string             `json:"did"`
	DocumentURL string             `json:"documentUrl"`
	Description *agent.Description `json:"description,omitempty"`
}

type Client struct {
	endpoints []string
	client    *http.Client
	attempts  int
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(r *Client) { r.client = c }
}

func WithAttempts(n int) Option {
	return func(r *Client) { r.attempts = n }
}

func NewClient(endpoints []string, opts ...Option) *Client {
	c := &Client{
		endpoints: endpoints,
		client:    &http.Client{Timeout: 10 * time.Second},
		attempts:  defaultAttempts,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register announces the identity to every configured registry. The
// returned error reflects the last registry failure so callers can
// log it; partial success is still success for the announced
// registries.
func (c *Client) Register(ctx context.Context, reg *Registration) error {
	var lastErr error

	for _, endpoint := range c.endpoints {
		if err := c.registerOne(ctx, endpoint, reg); err != nil {
			logging.WithError(err).WithField("registry", endpoint).Warn("discovery registration failed")
			lastErr = err
			continue
		}

		logging.WithField("registry", endpoint).Info("registered with discovery service")
	}

	return lastErr
}

func (c *Client) registerOne(ctx context.Context, endpoint string, reg *Registration) error {
	body, err := json.Marshal(reg)
	if err != nil {
		return errors.Wrap(err, "marshalling registration")
	}

	bo := &backoff.Backoff{
		Min: 500 * time.Millisecond,
		Max: 10 * time.Second,
	}

	var lastErr error
	for i := 0; i < c.attempts; i++ {
		if i > 0 {
			select {
			case <-time.After(bo.Duration()):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = c.post(ctx, endpoint, body)
		if lastErr == nil {
			return nil
		}
	}

	return lastErr
}

func (c *Client) post(ctx context.Context, endpoint string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "building registration request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "posting registration")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return errors.Errorf("registry responded %s", resp.Status)
	}

	return nil
}
