package shelly

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

const (
	StatusPath     = "rpc/Shelly.GetStatus"
	DefaultTimeout = 5 * time.Second
)

type FailureKind int

const (
	FailureNetwork FailureKind = iota
	FailureTimeout
	FailureHTTPStatus
	FailureDecode
)

func (k FailureKind) String() string {
	switch k {
	case FailureNetwork:
		return "network"
	case FailureTimeout:
		return "timeout"
	case FailureHTTPStatus:
		return "http_status"
	case FailureDecode:
		return "decode"
	default:
		return fmt.Sprintf("FailureKind(%d)", int(k))
	}
}

// FetchError describes why a status request produced no data.
type FetchError struct {
	Kind       FailureKind
	Address    string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Kind == FailureHTTPStatus {
		return fmt.Sprintf("fetching status from %s: unexpected status %d", e.Address, e.StatusCode)
	}
	return fmt.Sprintf("fetching status from %s (%s): %v", e.Address, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// DeviceStatus is the untyped Shelly.GetStatus document.
type DeviceStatus map[string]any

// Lookup walks nested objects along path. It reports false when any
// segment is missing, is not an object, or the leaf is null.
func (s DeviceStatus) Lookup(path ...string) (any, bool) {
	var cur any = map[string]any(s)
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = obj[key]; !ok {
			return nil, false
		}
	}
	if cur == nil {
		return nil, false
	}
	return cur, true
}

// Result holds either a status document or the reason there is none.
type Result struct {
	Status DeviceStatus
	Err    *FetchError
}

func (r Result) OK() bool {
	return r.Err == nil
}

type Client struct {
	httpClient *http.Client
	address    string
}

// NewClient builds a client for the device at address (host or host:port).
// A nil httpClient gets a fresh client bounded by timeout.
func NewClient(address string, timeout time.Duration, httpClient *http.Client) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if httpClient.Timeout == 0 {
		httpClient.Timeout = timeout
	}
	return &Client{
		httpClient: httpClient,
		address:    address,
	}
}

func (c *Client) Address() string {
	return c.address
}

func (c *Client) buildRequest(ctx context.Context, method, path string) (*http.Request, error) {
	return http.NewRequestWithContext(ctx, method, fmt.Sprintf("http://%s/%s", c.address, path), nil)
}

// GetStatus performs a single status request. It never retries.
func (c *Client) GetStatus(ctx context.Context) Result {
	req, err := c.buildRequest(ctx, http.MethodGet, StatusPath)
	if err != nil {
		return c.fail(FailureNetwork, err)
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return c.fail(FailureTimeout, err)
		}
		return c.fail(FailureNetwork, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, res.Body)
		return Result{Err: &FetchError{
			Kind:       FailureHTTPStatus,
			Address:    c.address,
			StatusCode: res.StatusCode,
			Err:        errors.New(res.Status),
		}}
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		if isTimeout(err) {
			return c.fail(FailureTimeout, err)
		}
		return c.fail(FailureNetwork, err)
	}
	var status DeviceStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return c.fail(FailureDecode, err)
	}
	if status == nil {
		return c.fail(FailureDecode, errors.New("status document is not an object"))
	}
	return Result{Status: status}
}

func (c *Client) fail(kind FailureKind, err error) Result {
	return Result{Err: &FetchError{Kind: kind, Address: c.address, Err: err}}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
