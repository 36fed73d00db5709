package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"premium-monitor/internal/application"
	"premium-monitor/internal/domain"
	"premium-monitor/internal/infrastructure/logx"
)

// Premiums is the part of the premium service the API reads from.
type Premiums interface {
	Current() (*domain.RankedSnapshot, bool)
	Outcome() application.RefreshOutcome
	Refresh(ctx context.Context) (*domain.RankedSnapshot, error)
}

type Options struct {
	HighThreshold float64
	// StaleAfter marks a snapshot stale once it is older than this. Zero disables the age check.
	StaleAfter time.Duration
}

type Server struct {
	svc  Premiums
	hub  *Hub
	opts Options
	now  func() time.Time
}

func NewServer(svc Premiums, hub *Hub, opts Options) *Server {
	if opts.HighThreshold == 0 {
		opts.HighThreshold = application.DefaultHighThreshold
	}
	return &Server{svc: svc, hub: hub, opts: opts, now: time.Now}
}

type rateResponse struct {
	Value      float64   `json:"value"`
	AsOf       time.Time `json:"as_of"`
	IsFallback bool      `json:"is_fallback"`
	Source     string    `json:"source"`
}

type healthResponse struct {
	RateFallback    bool `json:"rate_fallback"`
	StatusAvailable bool `json:"status_available"`
	DroppedAssets   int  `json:"dropped_assets"`
}

type rowResponse struct {
	Rank          int     `json:"rank"`
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	DomesticPrice float64 `json:"domestic_price"`
	ForeignPrice  float64 `json:"foreign_price"`
	Gap           float64 `json:"gap"`
	SpreadPercent float64 `json:"spread_percent"`
	Restriction   string  `json:"restriction"`
	Band          string  `json:"band"`
}

type premiumsResponse struct {
	SnapshotID string         `json:"snapshot_id"`
	Currency   string         `json:"currency"`
	FetchedAt  time.Time      `json:"fetched_at"`
	Rate       rateResponse   `json:"rate"`
	Health     healthResponse `json:"health"`
	Total      int            `json:"total"`
	Rows       []rowResponse  `json:"rows"`
	Stale      bool           `json:"stale"`
	LastError  string         `json:"last_error,omitempty"`
}

type calculatorResponse struct {
	AmountKRW     decimal.Decimal `json:"amount_krw"`
	StablePrice   decimal.Decimal `json:"stable_price"`
	Units         decimal.Decimal `json:"units"`
	Rate          decimal.Decimal `json:"rate"`
	PremiumPct    decimal.Decimal `json:"premium_pct"`
	BelowFXRate   bool            `json:"below_fx_rate"`
	RateIsDefault bool            `json:"rate_is_default"`
}

func toRate(r domain.ExchangeRate) rateResponse {
	return rateResponse{Value: r.Value, AsOf: r.AsOf, IsFallback: r.IsFallback, Source: r.Source}
}

func toPremiums(v application.View) premiumsResponse {
	rows := make([]rowResponse, 0, len(v.Rows))
	for _, r := range v.Rows {
		rows = append(rows, rowResponse{
			Rank:          r.Rank,
			Symbol:        r.Symbol,
			Name:          r.Name,
			DomesticPrice: r.DomesticPrice,
			ForeignPrice:  r.ForeignPrice,
			Gap:           r.Gap,
			SpreadPercent: r.SpreadPercent,
			Restriction:   string(r.Restriction),
			Band:          string(r.Band),
		})
	}
	return premiumsResponse{
		SnapshotID: v.SnapshotID,
		Currency:   string(v.Currency),
		FetchedAt:  v.FetchedAt,
		Rate:       toRate(v.Rate),
		Health: healthResponse{
			RateFallback:    v.Health.RateFallback,
			StatusAvailable: v.Health.StatusAvailable,
			DroppedAssets:   v.Health.DroppedAssets,
		},
		Total: v.Total,
		Rows:  rows,
	}
}

// SnapshotMessage encodes snap the way the stream endpoint pushes it: KRW view, no filter.
// It returns nil when the snapshot cannot be encoded.
func SnapshotMessage(snap *domain.RankedSnapshot, highThreshold float64) []byte {
	v := application.BuildView(snap, application.ViewOptions{HighThreshold: highThreshold})
	b, err := json.Marshal(toPremiums(v))
	if err != nil {
		logx.L().Error("stream.encode_failed", zap.String("snapshot_id", snap.ID), zap.Error(err))
		return nil
	}
	return b
}

func (s *Server) viewOptions(r *http.Request) (application.ViewOptions, error) {
	q := r.URL.Query()
	cur, err := application.ParseCurrency(q.Get("currency"))
	if err != nil {
		return application.ViewOptions{}, errors.New("currency must be KRW or USD")
	}
	opt := application.ViewOptions{Currency: cur, Filter: q.Get("q"), HighThreshold: s.opts.HighThreshold}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return application.ViewOptions{}, errors.New("limit must be a non-negative integer")
		}
		opt.Limit = n
	}
	return opt, nil
}

func (s *Server) render(snap *domain.RankedSnapshot, opt application.ViewOptions) premiumsResponse {
	resp := toPremiums(application.BuildView(snap, opt))
	outcome := s.svc.Outcome()
	resp.LastError = outcome.LastError
	resp.Stale = outcome.Failing() ||
		(s.opts.StaleAfter > 0 && s.now().Sub(snap.FetchedAt) > s.opts.StaleAfter)
	return resp
}

func (s *Server) GetPremiums(w http.ResponseWriter, r *http.Request) {
	opt, err := s.viewOptions(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	snap, ok := s.svc.Current()
	if !ok {
		unavailable(w, "no snapshot yet")
		return
	}
	writeJSON(w, http.StatusOK, s.render(snap, opt))
}

// RefreshPremiums runs a cycle and blocks until it finishes. On failure the
// previous snapshot is still returned, with a 502.
func (s *Server) RefreshPremiums(w http.ResponseWriter, r *http.Request) {
	opt, err := s.viewOptions(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	snap, err := s.svc.Refresh(r.Context())
	if err == nil {
		writeJSON(w, http.StatusOK, s.render(snap, opt))
		return
	}
	if errors.Is(err, context.Canceled) {
		return
	}
	prev, ok := s.svc.Current()
	if !ok {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	resp := s.render(prev, opt)
	resp.Stale = true
	resp.LastError = err.Error()
	writeJSON(w, http.StatusBadGateway, resp)
}

func (s *Server) GetRate(w http.ResponseWriter, _ *http.Request) {
	snap, ok := s.svc.Current()
	if !ok {
		unavailable(w, "no snapshot yet")
		return
	}
	writeJSON(w, http.StatusOK, toRate(snap.Rate))
}

func (s *Server) GetCalculator(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("krw")
	if raw == "" {
		badRequest(w, "krw is required")
		return
	}
	amount, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		badRequest(w, "krw must be a number")
		return
	}
	snap, ok := s.svc.Current()
	if !ok {
		unavailable(w, "no snapshot yet")
		return
	}
	q, err := application.ConvertToStable(amount, snap.StablePrice, snap.Rate)
	switch {
	case errors.Is(err, domain.ErrInvalidAmount):
		badRequest(w, err.Error())
		return
	case errors.Is(err, domain.ErrNotFound):
		notFound(w, "stablecoin price unavailable")
		return
	case err != nil:
		internalError(w)
		return
	}
	writeJSON(w, http.StatusOK, calculatorResponse{
		AmountKRW:     q.AmountKRW,
		StablePrice:   q.StablePrice,
		Units:         q.Units,
		Rate:          q.Rate,
		PremiumPct:    q.PremiumPct,
		BelowFXRate:   q.BelowFXRate,
		RateIsDefault: q.RateIsDefault,
	})
}

// StreamPremiums upgrades to a websocket, sends the current snapshot and then
// every published one.
func (s *Server) StreamPremiums(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		notFound(w, "stream disabled")
		return
	}
	var initial []byte
	if snap, ok := s.svc.Current(); ok {
		initial = SnapshotMessage(snap, s.opts.HighThreshold)
	}
	_ = s.hub.Serve(w, r, initial)
}

// writeJSON encodes v before touching the response so an encoding failure
// still yields a 500 with a body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		logx.L().Error("http.encode_failed", zap.Int("status", status), zap.Error(err))
		status = http.StatusInternalServerError
		b = []byte(`{"error":"Internal Server Error"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(b, '\n'))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusBadRequest, msg)
}

func notFound(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusNotFound, msg)
}

func unavailable(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusServiceUnavailable, msg)
}

func internalError(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}
