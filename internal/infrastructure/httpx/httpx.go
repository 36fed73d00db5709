package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

const maxBodyBytes = 8 << 20

// StatusError is a non-2xx upstream response.
type StatusError struct {
	Code int
	Body string
}

// HTTPStatus exposes the response code without importing this package.
func (e *StatusError) HTTPStatus() int { return e.Code }

// Signer authorizes one outgoing request. It runs on every attempt, so
// single-use credentials such as nonces are never replayed on retry.
type Signer interface {
	Sign(r *http.Request) error
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("status %d", e.Code)
	}
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

// Client wraps an *http.Client with per-host throttling and retry on 5xx and
// transport errors. Other non-2xx responses fail immediately.
type Client struct {
	HTTP    *http.Client
	Signer  Signer
	Limiter *rate.Limiter
	// MaxElapsed bounds the whole retry loop; zero means 3s.
	MaxElapsed time.Duration
}

// New builds a client throttled to rps requests per second. rps <= 0 disables throttling.
func New(hc *http.Client, rps float64, burst int) *Client {
	c := &Client{HTTP: hc}
	if rps > 0 {
		if burst < 1 {
			burst = 1
		}
		c.Limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return c
}

// WithSigner returns a copy of c that signs with s. The copy shares the
// underlying http.Client and limiter.
func (c *Client) WithSigner(s Signer) *Client {
	if c == nil {
		return &Client{Signer: s}
	}
	cp := *c
	cp.Signer = s
	return &cp
}

// DoJSON sends req and decodes a 2xx JSON body into out.
func (c *Client) DoJSON(ctx context.Context, req *http.Request, out any) error {
	body, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// Do sends req and returns the 2xx response body.
func (c *Client) Do(ctx context.Context, req *http.Request) ([]byte, error) {
	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	req = req.WithContext(ctx)

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = 200 * time.Millisecond
	exp.MaxInterval = 1 * time.Second
	exp.MaxElapsedTime = 3 * time.Second
	if c.MaxElapsed > 0 {
		exp.MaxElapsedTime = c.MaxElapsed
	}

	var body []byte
	op := func() error {
		if c.Limiter != nil {
			if err := c.Limiter.Wait(ctx); err != nil {
				return backoff.Permanent(err)
			}
		}
		attempt := req
		if req.GetBody != nil || c.Signer != nil {
			attempt = req.Clone(ctx)
		}
		if req.GetBody != nil {
			b, err := req.GetBody()
			if err != nil {
				return backoff.Permanent(err)
			}
			attempt.Body = b
		}
		if c.Signer != nil {
			if err := c.Signer.Sign(attempt); err != nil {
				return backoff.Permanent(fmt.Errorf("sign request: %w", err))
			}
		}
		resp, err := hc.Do(attempt)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		defer resp.Body.Close()
		b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return err
		}
		if resp.StatusCode >= 500 {
			return &StatusError{Code: resp.StatusCode, Body: snippet(b)}
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return backoff.Permanent(&StatusError{Code: resp.StatusCode, Body: snippet(b)})
		}
		body = b
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(exp, ctx)); err != nil {
		return nil, err
	}
	return body, nil
}

func snippet(b []byte) string {
	const n = 200
	if len(b) > n {
		return string(b[:n])
	}
	return string(b)
}
