package viaggiatreno

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the public REST endpoint of the service.
	DefaultBaseURL = "http://www.viaggiatreno.it/infomobilita/resteasy/viaggiatreno/"

	// softErrorMarker is the service's in-band failure signal: many
	// errors come back as HTTP 200 with this literal in the body.
	// Kept in one place so the classification can be tightened if the
	// upstream contract is ever clarified.
	softErrorMarker = "Error"

	defaultTimeout = 30 * time.Second
	maxBackoff     = 10 * time.Second
)

// RetryPolicy bounds the attempts a single logical request may spend.
// Budgets are per-call locals; the client itself carries no mutable
// retry state and is safe for concurrent use.
type RetryPolicy struct {
	Total         int     // overall failure budget, decremented by any failure
	Read          int     // transport-level read failures (connection reset etc.)
	Status        int     // retryable HTTP status failures
	BackoffFactor float64 // base multiplier of the exponential backoff curve
	RetryStatuses []int
}

// DefaultRetryPolicy mirrors the budgets the service has been polled
// with historically.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Total:         10,
		Read:          5,
		Status:        10,
		BackoffFactor: 0.2,
		RetryStatuses: []int{403, 500, 502, 503, 504},
	}
}

func (p RetryPolicy) retryable(status int) bool {
	for _, s := range p.RetryStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// backoff returns the sleep before retry n (n starting at 0).
func (p RetryPolicy) backoff(n int) time.Duration {
	d := time.Duration(p.BackoffFactor * math.Pow(2, float64(n)) * float64(time.Second))
	if d > maxBackoff {
		d = maxBackoff
	}
	return d
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API endpoint (useful for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		if !strings.HasSuffix(url, "/") {
			url += "/"
		}
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetryPolicy sets the retry budgets and backoff curve.
func WithRetryPolicy(p RetryPolicy) ClientOption {
	return func(c *Client) { c.retry = p }
}

// Client issues requests against the ViaggiaTreno REST API with
// bounded retries. A single Client may be shared by any number of
// goroutines.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retry      RetryPolicy
}

// NewClient creates a client against the public endpoint.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		retry:      DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Request performs one logical GET of method with the given parameters
// and returns the raw body. Parameters are stringified and joined by
// "/" after the method name. The call retries transparently on read
// failures and retryable statuses until a budget runs out; everything
// else is classified immediately.
//
// Failure yields a *BadRequestError carrying the resolved URL, the
// last status code and the raw body, or the underlying transport error
// when no response was ever read.
func (c *Client) Request(ctx context.Context, method string, params ...any) ([]byte, error) {
	url := c.baseURL + method
	if len(params) > 0 {
		parts := make([]string, len(params))
		for i, p := range params {
			parts[i] = fmt.Sprint(p)
		}
		url += "/" + strings.Join(parts, "/")
	}

	total := c.retry.Total
	read := c.retry.Read
	status := c.retry.Status

	var lastErr error
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.retry.backoff(attempt - 1)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		body, code, err := c.do(ctx, url)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			total--
			read--
			if total < 0 || read < 0 {
				return nil, fmt.Errorf("giving up on %s: %w", url, lastErr)
			}
			continue
		}

		if code != http.StatusOK {
			if c.retry.retryable(code) {
				total--
				status--
				if total >= 0 && status >= 0 {
					continue
				}
			}
			return nil, &BadRequestError{URL: url, StatusCode: code, Body: string(body)}
		}

		if strings.Contains(string(body), softErrorMarker) {
			return nil, &BadRequestError{URL: url, StatusCode: code, Body: string(body)}
		}

		return body, nil
	}
}

// do performs a single attempt. A non-nil error means the response was
// never fully read (a read failure in retry terms).
func (c *Client) do(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("reading body: %w", err)
	}

	return body, resp.StatusCode, nil
}

// Decode parses a success-classified body as JSON. Failures are
// *DecodeError, a distinct kind from the transport errors above.
func Decode(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return &DecodeError{Err: err}
	}
	return nil
}

const (
	kindDepartures = "partenze"
	kindArrivals   = "arrivi"
)

// Departures returns the departure board of a station at the given
// instant.
func (c *Client) Departures(ctx context.Context, stationCode string, when time.Time) ([]BoardEntry, error) {
	return c.board(ctx, kindDepartures, stationCode, when)
}

// Arrivals returns the arrival board of a station at the given instant.
func (c *Client) Arrivals(ctx context.Context, stationCode string, when time.Time) ([]BoardEntry, error) {
	return c.board(ctx, kindArrivals, stationCode, when)
}

func (c *Client) board(ctx context.Context, kind, stationCode string, when time.Time) ([]BoardEntry, error) {
	body, err := c.Request(ctx, kind, stationCode, formatBoardTime(when))
	if err != nil {
		return nil, err
	}

	var entries []BoardEntry
	if err := Decode(body, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// TrainRun returns the run-tracking detail of a single train. midnight
// must be the start of the day of interest in the service timezone.
func (c *Client) TrainRun(ctx context.Context, originCode string, number int, midnight time.Time) (*RunDetail, error) {
	body, err := c.Request(ctx, "andamentoTreno", originCode, number, midnight.UnixMilli())
	if err != nil {
		return nil, err
	}

	var run RunDetail
	if err := Decode(body, &run); err != nil {
		return nil, err
	}
	return &run, nil
}
