package httpx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type rtFunc func(*http.Request) (*http.Response, error)

func (f rtFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func httpClientRT(rt http.RoundTripper) *http.Client {
	return &http.Client{Transport: rt, Timeout: 2 * time.Second}
}

func respond(r *http.Request, code int, body string) *http.Response {
	return &http.Response{StatusCode: code, Body: io.NopCloser(strings.NewReader(body)), Header: make(http.Header), Request: r}
}

func TestDoJSON_Retry500Then200(t *testing.T) {
	var calls int
	rt := httpClientRT(rtFunc(func(r *http.Request) (*http.Response, error) {
		calls++
		if calls == 1 {
			return respond(r, 500, "err"), nil
		}
		return respond(r, 200, `{"ok": true}`), nil
	}))
	type resp struct {
		OK bool `json:"ok"`
	}
	var out resp
	req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c := &Client{HTTP: rt}
	require.NoError(t, c.DoJSON(ctx, req, &out))
	require.True(t, out.OK)
	require.GreaterOrEqual(t, calls, 2)
}

type tempTimeoutErr struct{}

func (tempTimeoutErr) Error() string   { return "timeout" }
func (tempTimeoutErr) Timeout() bool   { return true }
func (tempTimeoutErr) Temporary() bool { return true }

func TestDo_RetryNetTimeoutThen200(t *testing.T) {
	var calls int
	rt := httpClientRT(rtFunc(func(r *http.Request) (*http.Response, error) {
		calls++
		if calls == 1 {
			var ne net.Error = tempTimeoutErr{}
			return nil, ne
		}
		return respond(r, 200, "[1,2]"), nil
	}))
	req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c := &Client{HTTP: rt}
	body, err := c.Do(ctx, req)
	require.NoError(t, err)
	require.Equal(t, "[1,2]", string(body))
}

func TestDo_NoRetryOn400(t *testing.T) {
	var calls int
	rt := httpClientRT(rtFunc(func(r *http.Request) (*http.Response, error) {
		calls++
		return respond(r, 400, "bad"), nil
	}))
	req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
	c := &Client{HTTP: rt}
	_, err := c.Do(context.Background(), req)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, 400, se.Code)
	require.Equal(t, "bad", se.Body)
	require.Equal(t, 1, calls)
}

func TestDo_GivesUpAfterMaxElapsed(t *testing.T) {
	var calls atomic.Int32
	rt := httpClientRT(rtFunc(func(r *http.Request) (*http.Response, error) {
		calls.Add(1)
		return respond(r, 503, "down"), nil
	}))
	req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
	c := &Client{HTTP: rt, MaxElapsed: 300 * time.Millisecond}
	_, err := c.Do(context.Background(), req)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, 503, se.Code)
	require.Greater(t, calls.Load(), int32(1))
}

func TestDoJSON_DecodeError_NoRetry(t *testing.T) {
	var calls int
	rt := httpClientRT(rtFunc(func(r *http.Request) (*http.Response, error) {
		calls++
		return &http.Response{StatusCode: 200, Body: io.NopCloser(bytes.NewBufferString("{x")), Header: make(http.Header), Request: r}, nil
	}))
	var out map[string]any
	req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
	c := &Client{HTTP: rt}
	err := c.DoJSON(context.Background(), req, &out)
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode")
	require.Equal(t, 1, calls)
}

type signerFunc func(*http.Request) error

func (f signerFunc) Sign(r *http.Request) error { return f(r) }

func TestDo_SignsEveryAttempt(t *testing.T) {
	var auths []string
	rt := httpClientRT(rtFunc(func(r *http.Request) (*http.Response, error) {
		auths = append(auths, r.Header.Get("Authorization"))
		if len(auths) == 1 {
			return respond(r, 503, "busy"), nil
		}
		return respond(r, 200, "{}"), nil
	}))
	var n int
	c := (&Client{HTTP: rt}).WithSigner(signerFunc(func(r *http.Request) error {
		n++
		r.Header.Set("Authorization", fmt.Sprintf("Bearer t%d", n))
		return nil
	}))
	req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
	_, err := c.Do(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, []string{"Bearer t1", "Bearer t2"}, auths)
	require.Empty(t, req.Header.Get("Authorization"))
}

func TestDo_SignFailureIsPermanent(t *testing.T) {
	calls := 0
	rt := httpClientRT(rtFunc(func(r *http.Request) (*http.Response, error) {
		calls++
		return respond(r, 200, "{}"), nil
	}))
	c := &Client{HTTP: rt, Signer: signerFunc(func(*http.Request) error { return errors.New("no key") })}
	req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
	_, err := c.Do(context.Background(), req)
	require.ErrorContains(t, err, "sign request: no key")
	require.Zero(t, calls)
}

func TestStatusError_HTTPStatus(t *testing.T) {
	var err error = fmt.Errorf("wrapped: %w", &StatusError{Code: 401})
	var hs interface{ HTTPStatus() int }
	require.ErrorAs(t, err, &hs)
	require.Equal(t, 401, hs.HTTPStatus())
}

func TestNew_Throttles(t *testing.T) {
	rt := httpClientRT(rtFunc(func(r *http.Request) (*http.Response, error) {
		return respond(r, 200, "{}"), nil
	}))
	c := New(rt, 20, 1)
	require.NotNil(t, c.Limiter)

	start := time.Now()
	for i := 0; i < 3; i++ {
		req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
		_, err := c.Do(context.Background(), req)
		require.NoError(t, err)
	}
	// burst 1 at 20/s: the 2nd and 3rd calls wait ~50ms each
	require.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)

	require.Nil(t, New(rt, 0, 0).Limiter)
}

func TestDo_LimiterHonoursContext(t *testing.T) {
	rt := httpClientRT(rtFunc(func(r *http.Request) (*http.Response, error) {
		return respond(r, 200, "{}"), nil
	}))
	c := New(rt, 0.001, 1)
	req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
	_, err := c.Do(context.Background(), req)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	req, _ = http.NewRequest(http.MethodGet, "http://example.com", nil)
	_, err = c.Do(ctx, req)
	require.Error(t, err)
}
