package health

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPChecker reports whether a URL answers GET with a 2xx status.
type HTTPChecker struct {
	name   string
	url    string
	client *http.Client
	header http.Header
}

// HTTPOption configures an HTTPChecker.
type HTTPOption func(*HTTPChecker)

// WithHTTPClient sets the client used for checks. Default:
// http.DefaultClient.
func WithHTTPClient(hc *http.Client) HTTPOption {
	return func(c *HTTPChecker) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithHeader adds a request header to every check.
func WithHeader(key, value string) HTTPOption {
	return func(c *HTTPChecker) { c.header.Add(key, value) }
}

// NewHTTPChecker creates a checker named name that requests url.
func NewHTTPChecker(name, url string, opts ...HTTPOption) *HTTPChecker {
	c := &HTTPChecker{name: name, url: url, client: http.DefaultClient, header: http.Header{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name implements Checker.
func (c *HTTPChecker) Name() string { return c.name }

// Check implements Checker.
func (c *HTTPChecker) Check(ctx context.Context) Result {
	details := map[string]any{"url": c.url}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return Unhealthy("bad health request", err).WithDetails(details)
	}
	for k, v := range c.header {
		req.Header[k] = v
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Unhealthy("unreachable", err).WithDetails(details)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	details["status_code"] = resp.StatusCode
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Unhealthy(fmt.Sprintf("status %d", resp.StatusCode), ErrUnexpectedStatus).WithDetails(details)
	}
	return Healthy("ok").WithDetails(details)
}

// Report is the JSON form of a set of results.
type Report struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Checks    map[string]CheckReport `json:"checks,omitempty"`
}

// CheckReport is the JSON form of one Result.
type CheckReport struct {
	Status   string         `json:"status"`
	Message  string         `json:"message,omitempty"`
	Duration string         `json:"duration,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// NewReport folds results into a Report stamped with now.
func NewReport(results map[string]Result, now time.Time) Report {
	r := Report{
		Status:    Overall(results).String(),
		Timestamp: now.UTC().Format(time.RFC3339),
		Checks:    make(map[string]CheckReport, len(results)),
	}
	for name, res := range results {
		c := CheckReport{
			Status:   res.Status.String(),
			Message:  res.Message,
			Duration: res.Duration.String(),
			Details:  res.Details,
		}
		if res.Error != nil {
			c.Error = res.Error.Error()
		}
		r.Checks[name] = c
	}
	return r
}
