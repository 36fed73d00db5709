package application

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"premium-monitor/internal/domain"
)

const defaultDedupeTTL = 24 * time.Hour

// AlertEvent is one notification decision for one asset.
type AlertEvent struct {
	Symbol   string
	Note     domain.RestrictionNote
	Previous domain.RestrictionNote
	Reminder bool
}

// AlertReport summarizes a single poll.
type AlertReport struct {
	Sent        []AlertEvent
	Suppressed  []AlertEvent // another holder of the reminder key already sent it
	Recovered   []string
	Restricted  int
	DeliveryErr error
}

// AlertEmitter turns the status feed into edge-triggered notifications.
type AlertEmitter struct {
	Status    *StatusReader
	Notifier  Notifier
	Reminders ReminderStore
	// Repeat re-sends a persisting restriction after this interval; zero disables it.
	Repeat    time.Duration
	DedupeTTL time.Duration
	Title     string
	Logger    *zap.Logger

	clock Clock
	mu    sync.Mutex
	state map[string]alertState
}

type alertState struct {
	note       domain.RestrictionNote
	notifiedAt time.Time
}

// Poll reads the feed once and notifies on transitions into a restricted note.
// A failed read returns the error and leaves all tracked state untouched.
func (e *AlertEmitter) Poll(ctx context.Context) (AlertReport, error) {
	statuses, err := e.Status.Statuses(ctx)
	if err != nil {
		return AlertReport{}, err
	}
	notes := Notes(statuses)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		e.state = map[string]alertState{}
	}
	now := e.now()
	report := AlertReport{Restricted: len(notes)}

	for sym, st := range e.state {
		if _, still := notes[sym]; still {
			continue
		}
		delete(e.state, sym)
		report.Recovered = append(report.Recovered, sym)
		if err := e.reminders().Release(ctx, gateKey(sym, st.note)); err != nil {
			e.log().Warn("alerts.release_failed", zap.String("symbol", sym), zap.Error(err))
		}
	}
	sort.Strings(report.Recovered)

	symbols := make([]string, 0, len(notes))
	for sym := range notes {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	for _, sym := range symbols {
		note := notes[sym]
		prev, tracked := e.state[sym]
		var ev AlertEvent
		switch {
		case !tracked:
			ev = AlertEvent{Symbol: sym, Note: note, Previous: domain.RestrictionNormal}
		case prev.note != note:
			ev = AlertEvent{Symbol: sym, Note: note, Previous: prev.note}
			if err := e.reminders().Release(ctx, gateKey(sym, prev.note)); err != nil {
				e.log().Warn("alerts.release_failed", zap.String("symbol", sym), zap.Error(err))
			}
		case e.Repeat > 0 && now.Sub(prev.notifiedAt) >= e.Repeat:
			ev = AlertEvent{Symbol: sym, Note: note, Previous: note, Reminder: true}
		default:
			continue
		}
		e.state[sym] = alertState{note: note, notifiedAt: now}
		if e.reserve(ctx, ev) {
			report.Sent = append(report.Sent, ev)
		} else {
			report.Suppressed = append(report.Suppressed, ev)
		}
	}

	if len(report.Sent) == 0 || e.Notifier == nil {
		return report, nil
	}
	msg := e.FormatMessage(report.Sent)
	if err := e.Notifier.Post(ctx, msg); err != nil {
		report.DeliveryErr = err
		e.log().Error("alerts.send_failed", zap.Int("events", len(report.Sent)), zap.Error(err))
		return report, nil
	}
	e.log().Info("alerts.sent", zap.Int("events", len(report.Sent)))
	return report, nil
}

// Announce posts a one-off message, e.g. on startup.
func (e *AlertEmitter) Announce(ctx context.Context, msg string) error {
	if e.Notifier == nil {
		return nil
	}
	if err := e.Notifier.Post(ctx, msg); err != nil {
		return fmt.Errorf("alerts: announce: %w", err)
	}
	return nil
}

// FormatMessage renders one batched message for the events of a poll.
func (e *AlertEmitter) FormatMessage(events []AlertEvent) string {
	title := e.Title
	if title == "" {
		title = "Wallet status change detected"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "**%s**\n", title)
	for _, ev := range events {
		fmt.Fprintf(&b, "- %s: %s", ev.Symbol, ev.Note.Label())
		switch {
		case ev.Reminder:
			b.WriteString(" (still in effect)")
		case ev.Previous.Restricted():
			fmt.Fprintf(&b, " (was %s)", ev.Previous.Label())
		}
		b.WriteString("\n")
	}
	return b.String()
}

// reserve fails open: when the store errors the notification is still sent.
func (e *AlertEmitter) reserve(ctx context.Context, ev AlertEvent) bool {
	ttl := e.DedupeTTL
	if e.Repeat > 0 {
		ttl = e.Repeat - gateSlack(e.Repeat)
	}
	if ttl <= 0 {
		ttl = defaultDedupeTTL
	}
	ok, err := e.reminders().TryReserve(ctx, gateKey(ev.Symbol, ev.Note), ttl)
	if err != nil {
		e.log().Warn("alerts.reserve_failed", zap.String("symbol", ev.Symbol), zap.Error(err))
		return true
	}
	return ok
}

// gateSlack shortens a reminder gate so it lapses before the next reminder is
// due, even when the reservation landed a little after notifiedAt.
func gateSlack(repeat time.Duration) time.Duration {
	return min(repeat/10, time.Second)
}

func gateKey(symbol string, note domain.RestrictionNote) string {
	return "alert:" + symbol + ":" + string(note)
}

func (e *AlertEmitter) reminders() ReminderStore {
	if e.Reminders == nil {
		return NoopReminders{}
	}
	return e.Reminders
}

func (e *AlertEmitter) now() time.Time {
	if e.clock == nil {
		return time.Now().UTC()
	}
	return e.clock.Now()
}

func (e *AlertEmitter) log() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}
