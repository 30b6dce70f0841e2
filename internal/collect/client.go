package collect

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const userAgent = "ingestor/1.0 (news aggregator)"

// maxBody caps a provider response.
const maxBody = 10 << 20

// FetchFailure is returned for network errors, timeouts, non-2xx statuses and
// undecodable bodies. No retries happen below it.
type FetchFailure struct {
	Provider   string
	StatusCode int
	Cause      error
}

func (f *FetchFailure) Error() string {
	if f.StatusCode != 0 {
		return fmt.Sprintf("fetching %s: HTTP %d", f.Provider, f.StatusCode)
	}
	return fmt.Sprintf("fetching %s: %v", f.Provider, f.Cause)
}

func (f *FetchFailure) Unwrap() error { return f.Cause }

// Timeout reports whether the failure was the request deadline.
func (f *FetchFailure) Timeout() bool {
	if errors.Is(f.Cause, context.DeadlineExceeded) {
		return true
	}
	var t interface{ Timeout() bool }
	return errors.As(f.Cause, &t) && t.Timeout()
}

// Client is the bounded-timeout HTTP client shared by all providers.
type Client struct {
	http *http.Client
}

// NewClient creates a client whose every request is cut off after timeout.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{http: &http.Client{Timeout: timeout}}
}

// HTTPClient exposes the underlying client for packages that need raw access.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// get performs a GET and returns the body of a 2xx response.
func (c *Client) get(ctx context.Context, provider, endpoint string, params url.Values, header http.Header) ([]byte, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, &FetchFailure{Provider: provider, Cause: fmt.Errorf("parsing endpoint: %w", err)}
	}
	if len(params) > 0 {
		q := u.Query()
		for k, vs := range params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &FetchFailure{Provider: provider, Cause: redact(err)}
	}
	req.Header.Set("User-Agent", userAgent)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &FetchFailure{Provider: provider, Cause: redact(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &FetchFailure{
			Provider:   provider,
			StatusCode: resp.StatusCode,
			Cause:      errors.New(http.StatusText(resp.StatusCode)),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, &FetchFailure{Provider: provider, Cause: fmt.Errorf("reading body: %w", redact(err))}
	}
	return body, nil
}

// getJSON is get followed by decoding into out.
func (c *Client) getJSON(ctx context.Context, provider, endpoint string, params url.Values, header http.Header, out any) error {
	body, err := c.get(ctx, provider, endpoint, params, header)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &FetchFailure{Provider: provider, Cause: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

var secretParams = []string{"apiKey", "apikey", "api-key", "api_key", "token"}

// redact removes API keys from the URL carried by a *url.Error.
func redact(err error) error {
	var uerr *url.Error
	if !errors.As(err, &uerr) {
		return err
	}
	u, perr := url.Parse(uerr.URL)
	if perr != nil {
		return err
	}
	q := u.Query()
	changed := false
	for _, p := range secretParams {
		if q.Has(p) {
			q.Set(p, "REDACTED")
			changed = true
		}
	}
	if !changed {
		return err
	}
	u.RawQuery = q.Encode()
	return &url.Error{Op: uerr.Op, URL: u.String(), Err: uerr.Err}
}
