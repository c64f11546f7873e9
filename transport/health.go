package transport

import (
	"context"
	"maps"
	"strings"

	"github.com/jonwraymond/querysync/health"
	"github.com/jonwraymond/querysync/resilience"
)

// Name implements health.Checker.
func (c *Client) Name() string { return "transport" }

// Check reports the breaker state and, with WithHealthPath, whether the
// API answers.
func (c *Client) Check(ctx context.Context) health.Result {
	details := map[string]any{"base_url": c.base.String()}

	if b := c.exec.Breaker(); b != nil {
		state := b.State()
		details["breaker"] = state.String()
		switch state {
		case resilience.StateOpen:
			return health.Unhealthy("circuit open", resilience.ErrCircuitOpen).WithDetails(details)
		case resilience.StateHalfOpen:
			return health.Degraded("circuit half-open").WithDetails(details)
		}
	}

	if c.pinger != nil {
		r := c.pinger.Check(ctx)
		if r.Status != health.StatusHealthy {
			maps.Copy(details, r.Details)
			return health.Unhealthy("api unreachable", r.Error).WithDetails(details)
		}
	}
	return health.Healthy("ok").WithDetails(details)
}

// newPinger builds the GET checker for the configured health path.
func (c *Client) newPinger() *health.HTTPChecker {
	if c.healthPath == "" {
		return nil
	}
	u := *c.base
	u.Path = u.Path + "/" + strings.TrimLeft(c.healthPath, "/")
	u.RawPath = ""
	return health.NewHTTPChecker(c.Name(), u.String(),
		health.WithHTTPClient(c.http),
		health.WithHeader("User-Agent", c.userAgent),
		health.WithHeader("Accept", "application/json"),
	)
}

var _ health.Checker = (*Client)(nil)
