package appwrite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/intake-api/pkg/circuitbreaker"
	"github.com/jwalitptl/intake-api/pkg/errors"
	"github.com/jwalitptl/intake-api/pkg/metrics"
)

const backendName = "appwrite"

// Config holds the hosted backend identifiers
type Config struct {
	Endpoint                string
	ProjectID               string
	APIKey                  string
	DatabaseID              string
	PatientCollectionID     string
	DoctorCollectionID      string
	AppointmentCollectionID string
	BucketID                string
	Timeout                 time.Duration
}

// APIError is an error body returned by the backend
type APIError struct {
	Status  int    `json:"code"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("appwrite: %d %s: %s", e.Status, e.Type, e.Message)
}

// Client talks to the backend's REST API
type Client struct {
	cfg     Config
	base    *url.URL
	http    *http.Client
	cb      *circuitbreaker.CircuitBreaker
	metrics *metrics.Metrics
	logger  *zerolog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func NewClient(cfg Config, logger *zerolog.Logger, opts ...Option) (*Client, error) {
	if cfg.Endpoint == "" || cfg.ProjectID == "" || cfg.APIKey == "" {
		return nil, errors.Configuration("appwrite endpoint, project id and api key are required", nil)
	}
	base, err := url.Parse(strings.TrimRight(cfg.Endpoint, "/"))
	if err != nil {
		return nil, errors.Configuration("invalid appwrite endpoint", err)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}

	c := &Client{
		cfg:    cfg,
		base:   base,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.cb = circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
		Name:             backendName,
		MaxRequests:      1,
		Interval:         30 * time.Second,
		Timeout:          10 * time.Second,
		FailureThreshold: 5,
		IsSuccessful:     isClientSide,
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
			if c.metrics != nil {
				c.metrics.BreakerState.WithLabelValues(name).Set(float64(to))
			}
		},
	})

	return c, nil
}

// isClientSide reports errors that say nothing about backend health.
func isClientSide(err error) bool {
	if err == nil {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status < http.StatusInternalServerError
	}
	return errors.Is(err, errors.ErrNotFound) || errors.Is(err, errors.ErrConflict)
}

type request struct {
	op          string
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
}

func (c *Client) jsonRequest(op, method, path string, payload interface{}) (request, error) {
	req := request{op: op, method: method, path: path}
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return req, fmt.Errorf("failed to encode %s request: %w", op, err)
		}
		req.body = bytes.NewReader(b)
		req.contentType = "application/json"
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, r request, out interface{}) (err error) {
	start := time.Now()
	defer func() { c.metrics.ObserveGateway(backendName, r.op, start, err) }()

	return c.cb.Execute(func() error {
		return c.send(ctx, r, out)
	})
}

func (c *Client) send(ctx context.Context, r request, out interface{}) error {
	u := *c.base
	u.RawPath = u.EscapedPath() + r.path
	path, err := url.PathUnescape(u.RawPath)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", r.op, err)
	}
	u.Path = path
	if len(r.query) > 0 {
		u.RawQuery = r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), r.body)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", r.op, err)
	}
	req.Header.Set("X-Appwrite-Project", c.cfg.ProjectID)
	req.Header.Set("X-Appwrite-Key", c.cfg.APIKey)
	req.Header.Set("X-Appwrite-Response-Format", "1.5.0")
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", r.op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return c.decodeError(r.op, resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", r.op, err)
	}
	return nil
}

func (c *Client) decodeError(op string, resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if len(body) > 0 {
		_ = json.Unmarshal(body, apiErr)
	}
	apiErr.Status = resp.StatusCode

	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w: %w", op, errors.ErrNotFound, apiErr)
	case http.StatusConflict:
		return fmt.Errorf("%s: %w: %w", op, errors.ErrConflict, apiErr)
	}
	return fmt.Errorf("%s: %w", op, apiErr)
}

func (c *Client) documentsPath(collectionID string) string {
	return fmt.Sprintf("/databases/%s/collections/%s/documents", url.PathEscape(c.cfg.DatabaseID), url.PathEscape(collectionID))
}

// segment escapes a caller-supplied id for use as a single path segment.
// Dot segments would address the parent resource, so they name nothing.
func segment(id string) (string, error) {
	if id == "" || id == "." || id == ".." {
		return "", fmt.Errorf("invalid id %q: %w", id, errors.ErrNotFound)
	}
	return url.PathEscape(id), nil
}

// FileURL is the public view URL of a stored file.
func (c *Client) FileURL(bucketID, fileID string) string {
	return fmt.Sprintf("%s/storage/buckets/%s/files/%s/view?project=%s",
		c.base.String(), url.PathEscape(bucketID), url.PathEscape(fileID), url.QueryEscape(c.cfg.ProjectID))
}

// Ping checks that the configured database is reachable with the API key.
func (c *Client) Ping(ctx context.Context) error {
	r := request{op: "ping", method: http.MethodGet, path: "/databases/" + c.cfg.DatabaseID}
	return c.do(ctx, r, nil)
}

func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}
