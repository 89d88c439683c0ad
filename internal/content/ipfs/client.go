// Package ipfs stores content through an IPFS node's HTTP API and reads it
// back through a gateway.
package ipfs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/ipfs/go-cid"

	"certflow/internal/content"
	"certflow/internal/content/metrics"
	"certflow/pkg/platform/circuit"
	"certflow/pkg/platform/sentinel"
)

// MaxBlobBytes is the largest blob the client stores. Single-chunk adds
// keep the raw leaf as the root, so the returned CID is the raw CID of the
// bytes and can be re-verified on read.
const MaxBlobBytes = 1 << 20

type Client struct {
	apiURL          string
	gatewayTemplate string
	maxBlobBytes    int64
	httpClient      *http.Client
	breaker         *circuit.Breaker
	metrics         *metrics.Metrics
	logger          *slog.Logger
}

type Option func(*Client)

// WithHTTPClient sets a custom HTTP client (for testing).
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(cl *Client) {
		cl.breaker = b
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(cl *Client) {
		cl.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(cl *Client) {
		cl.logger = logger
	}
}

// New creates a client for the node API at apiURL. gatewayTemplate is a
// printf template taking the CID, e.g. https://ipfs.io/ipfs/%s.
func New(apiURL, gatewayTemplate string, timeout time.Duration, maxBlobBytes int64, opts ...Option) *Client {
	if maxBlobBytes <= 0 || maxBlobBytes > MaxBlobBytes {
		maxBlobBytes = MaxBlobBytes
	}
	c := &Client{
		apiURL:          strings.TrimRight(apiURL, "/"),
		gatewayTemplate: gatewayTemplate,
		maxBlobBytes:    maxBlobBytes,
		httpClient:      &http.Client{Timeout: timeout},
		breaker:         circuit.New("ipfs"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type addResponse struct {
	Name string `json:"Name"`
	Hash string `json:"Hash"`
	Size string `json:"Size"`
}

func (c *Client) Put(ctx context.Context, data []byte) (cid.Cid, error) {
	if int64(len(data)) > c.maxBlobBytes {
		return cid.Undef, fmt.Errorf("%w: %d bytes", content.ErrTooLarge, len(data))
	}
	if !c.breaker.Allow() {
		return cid.Undef, fmt.Errorf("ipfs add: circuit open: %w", sentinel.ErrUnavailable)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "blob")
	if err != nil {
		return cid.Undef, fmt.Errorf("build upload: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return cid.Undef, fmt.Errorf("build upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return cid.Undef, fmt.Errorf("build upload: %w", err)
	}

	url := fmt.Sprintf("%s/api/v0/add?cid-version=1&raw-leaves=true&pin=true&chunker=size-%d", c.apiURL, MaxBlobBytes)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return cid.Undef, fmt.Errorf("build upload: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordFailure()
		return cid.Undef, transportError(ctx, "ipfs add", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		c.recordFailure()
		return cid.Undef, fmt.Errorf("ipfs add: read response: %w: %w", sentinel.ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		c.recordStatus(resp.StatusCode)
		return cid.Undef, statusError("ipfs add", resp.StatusCode, payload)
	}
	c.recordSuccess()

	var added addResponse
	if err := json.Unmarshal(payload, &added); err != nil {
		return cid.Undef, fmt.Errorf("ipfs add: decode response: %w: %w", sentinel.ErrUnavailable, err)
	}
	id, err := cid.Decode(added.Hash)
	if err != nil {
		return cid.Undef, fmt.Errorf("ipfs add: node returned %q: %w: %w", added.Hash, sentinel.ErrUnavailable, err)
	}
	return id, nil
}

func (c *Client) Get(ctx context.Context, id cid.Cid) ([]byte, error) {
	if !c.breaker.Allow() {
		return nil, fmt.Errorf("ipfs get: circuit open: %w", sentinel.ErrUnavailable)
	}
	url := fmt.Sprintf(c.gatewayTemplate, id.String())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build fetch: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordFailure()
		return nil, transportError(ctx, "ipfs get", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		c.recordStatus(resp.StatusCode)
		return nil, statusError("ipfs get", resp.StatusCode, payload)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBlobBytes+1))
	if err != nil {
		c.recordFailure()
		return nil, fmt.Errorf("ipfs get: read body: %w: %w", sentinel.ErrUnavailable, err)
	}
	c.recordSuccess()
	if int64(len(data)) > c.maxBlobBytes {
		return nil, fmt.Errorf("ipfs get %s: %w", id, content.ErrTooLarge)
	}
	return data, nil
}

// Health asks the node for its identity.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/api/v0/id", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(ctx, "ipfs id", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ipfs id: status %d: %w", resp.StatusCode, sentinel.ErrUnavailable)
	}
	return nil
}

func transportError(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", op, ctxErr)
	}
	var netTimeout interface{ Timeout() bool }
	if errors.As(err, &netTimeout) && netTimeout.Timeout() {
		return fmt.Errorf("%s: timeout: %w: %w", op, sentinel.ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w: %w", op, sentinel.ErrUnavailable, err)
}

func statusError(op string, status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	switch {
	case status == http.StatusNotFound:
		return fmt.Errorf("%s: %w", op, sentinel.ErrNotFound)
	case status >= 500 || status == http.StatusTooManyRequests:
		return fmt.Errorf("%s: status %d %s: %w", op, status, msg, sentinel.ErrUnavailable)
	default:
		return fmt.Errorf("%s: status %d %s: %w", op, status, msg, sentinel.ErrInvalidInput)
	}
}

func (c *Client) recordStatus(status int) {
	if status >= 500 || status == http.StatusTooManyRequests {
		c.recordFailure()
		return
	}
	c.recordSuccess()
}

func (c *Client) recordFailure() {
	if change := c.breaker.RecordFailure(); change.Opened {
		if c.logger != nil {
			c.logger.Warn("content_gateway_circuit_opened", "breaker", c.breaker.Name())
		}
		if c.metrics != nil {
			c.metrics.SetBreakerOpen(true)
		}
	}
}

func (c *Client) recordSuccess() {
	if change := c.breaker.RecordSuccess(); change.Closed {
		if c.logger != nil {
			c.logger.Info("content_gateway_circuit_closed", "breaker", c.breaker.Name())
		}
		if c.metrics != nil {
			c.metrics.SetBreakerOpen(false)
		}
	}
}

var _ content.Backend = (*Client)(nil)
