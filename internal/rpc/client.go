package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Metrics records the outcome and duration of RPC calls.
type Metrics interface {
	Observe(operation string, err error, started time.Time)
}

type noopMetrics struct{}

func (noopMetrics) Observe(string, error, time.Time) {}

// Options configures a Client.
type Options struct {
	// Timeout bounds a single HTTP round trip. Zero means 15s.
	Timeout time.Duration
	// Retries is the number of extra attempts after a transport failure.
	// Node rejections are never retried. Zero disables retrying; negative
	// values select the default of 2.
	Retries int
	// RetryInterval is the initial backoff delay. Zero means 250ms.
	RetryInterval time.Duration
	// Metrics, when set, receives one observation per logical call.
	Metrics Metrics
}

// Client is a thread-safe JSON-RPC client for the Baseline node. It owns
// the retry/timeout policy; it never caches responses, since only the
// decode layers know which results are immutable.
type Client struct {
	url        string
	user       string
	pass       string
	httpClient *http.Client
	retries    uint64
	interval   time.Duration
	metrics    Metrics
	log        *zap.Logger
	id         atomic.Uint64
}

// NewClient creates a Baseline RPC client for the given endpoint. Basic
// auth is applied when user is non-empty.
func NewClient(url, user, pass string, opts Options, log *zap.Logger) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Retries < 0 {
		opts.Retries = 2
	}
	if opts.RetryInterval == 0 {
		opts.RetryInterval = 250 * time.Millisecond
	}
	if opts.Metrics == nil {
		opts.Metrics = noopMetrics{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		url:        url,
		user:       user,
		pass:       pass,
		httpClient: &http.Client{Timeout: opts.Timeout},
		retries:    uint64(opts.Retries),
		interval:   opts.RetryInterval,
		metrics:    opts.Metrics,
		log:        log,
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	ID     uint64           `json:"id"`
	Result *json.RawMessage `json:"result"`
	Error  *Error           `json:"error"`
}

// Call issues a JSON-RPC request and returns the raw result. Transport
// failures (unreachable, timeout) are retried with a short backoff up to
// the configured attempt budget; node rejections are surfaced verbatim on
// the first response.
func (c *Client) Call(ctx context.Context, method string, params ...any) (res json.RawMessage, err error) {
	started := time.Now()
	defer func() {
		c.metrics.Observe(method, err, started)
	}()

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.interval), c.retries), ctx)

	err = backoff.Retry(func() error {
		var callErr error
		res, callErr = c.post(ctx, method, params)
		if callErr == nil {
			return nil
		}
		if IsTransport(callErr) {
			c.log.Warn("rpc transport failure, retrying",
				zap.String("method", method), zap.Error(callErr))
			return callErr
		}
		return backoff.Permanent(callErr)
	}, policy)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) post(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	if params == nil {
		params = []any{}
	}
	body := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.id.Add(1),
		Method:  method,
		Params:  params,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.user != "" {
		req.SetBasicAuth(c.user, c.pass)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransport(err)
	}
	// Drain and close so the connection can be reused.
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUnreachable, err)
	}

	var rpcRes rpcResponse
	if err := json.Unmarshal(raw, &rpcRes); err != nil {
		snippet := string(raw)
		if len(snippet) > 200 {
			snippet = snippet[:200] + "..."
		}
		return nil, fmt.Errorf("%w: non-JSON response (HTTP %d): %s", ErrUnreachable, resp.StatusCode, snippet)
	}
	if rpcRes.Error != nil {
		return nil, rpcRes.Error
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d with no error object", ErrUnreachable, resp.StatusCode)
	}
	if rpcRes.Result == nil {
		return nil, fmt.Errorf("%w: missing result", ErrUnreachable)
	}
	return *rpcRes.Result, nil
}

func classifyTransport(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUnreachable, err)
}
