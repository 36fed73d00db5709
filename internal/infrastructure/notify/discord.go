package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"unicode/utf8"

	"go.uber.org/zap"

	"premium-monitor/internal/application"
	"premium-monitor/internal/infrastructure/httpx"
)

// DiscordLimit is the maximum message length Discord accepts.
const DiscordLimit = 2000

// Discord posts messages to a webhook.
type Discord struct {
	WebhookURL string
	Client     *httpx.Client
}

var _ application.Notifier = (*Discord)(nil)

func (d *Discord) Post(ctx context.Context, message string) error {
	if d.WebhookURL == "" {
		return errors.New("discord: missing webhook url")
	}
	payload, err := json.Marshal(map[string]string{"content": Truncate(message, DiscordLimit)})
	if err != nil {
		return fmt.Errorf("discord: encode: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("discord: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := d.Client
	if client == nil {
		client = &httpx.Client{}
	}
	if _, err := client.Do(ctx, req); err != nil {
		return fmt.Errorf("discord: post: %w", err)
	}
	return nil
}

// Truncate cuts s to at most limit runes, marking the cut.
func Truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	const marker = "\n…"
	runes := []rune(s)
	return string(runes[:limit-utf8.RuneCountInString(marker)]) + marker
}

// Log writes messages to the logger instead of delivering them.
type Log struct {
	Logger *zap.Logger
}

var _ application.Notifier = (*Log)(nil)

func (l *Log) Post(_ context.Context, message string) error {
	log := l.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log.Info("notify.dry_run", zap.String("message", message))
	return nil
}
