package notify_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"unicode/utf8"

	"premium-monitor/internal/infrastructure/httpx"
	"premium-monitor/internal/infrastructure/notify"

	"github.com/stretchr/testify/require"
)

func TestDiscord_Post(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d := &notify.Discord{WebhookURL: srv.URL, Client: &httpx.Client{HTTP: srv.Client()}}
	require.NoError(t, d.Post(context.Background(), "hello"))
	require.Equal(t, map[string]string{"content": "hello"}, got)
}

func TestDiscord_RetriesWithBody(t *testing.T) {
	var calls atomic.Int32
	var last atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		last.Store(body["content"])
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d := &notify.Discord{WebhookURL: srv.URL, Client: &httpx.Client{HTTP: srv.Client()}}
	require.NoError(t, d.Post(context.Background(), "again"))
	require.Equal(t, int32(2), calls.Load())
	require.Equal(t, "again", last.Load())
}

func TestDiscord_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	d := &notify.Discord{WebhookURL: srv.URL, Client: &httpx.Client{HTTP: srv.Client()}}
	require.Error(t, d.Post(context.Background(), "x"))
	require.Equal(t, int32(1), calls.Load())
}

func TestDiscord_MissingURL(t *testing.T) {
	require.Error(t, (&notify.Discord{}).Post(context.Background(), "x"))
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "short", notify.Truncate("short", 10))

	long := strings.Repeat("가", 2500)
	out := notify.Truncate(long, notify.DiscordLimit)
	require.Equal(t, notify.DiscordLimit, utf8.RuneCountInString(out))
	require.True(t, strings.HasSuffix(out, "…"))
}

func TestLog_Post(t *testing.T) {
	require.NoError(t, (&notify.Log{}).Post(context.Background(), "dry"))
}
