package application

import (
	"strings"
	"time"

	"premium-monitor/internal/domain"
)

// Currency selects the display currency of the price columns.
type Currency string

const (
	CurrencyDomestic Currency = "KRW"
	CurrencyForeign  Currency = "USD"
)

// ParseCurrency accepts KRW or USD (case-insensitive); empty means KRW.
func ParseCurrency(s string) (Currency, error) {
	switch Currency(strings.ToUpper(strings.TrimSpace(s))) {
	case "", CurrencyDomestic:
		return CurrencyDomestic, nil
	case CurrencyForeign:
		return CurrencyForeign, nil
	default:
		return "", ErrBadRequest
	}
}

// Band classifies a row for highlighting.
type Band string

const (
	BandHigh     Band = "high"
	BandInverted Band = "inverted"
	BandNormal   Band = "normal"
)

const DefaultHighThreshold = 5.0

type ViewOptions struct {
	Currency      Currency
	Filter        string
	Limit         int
	HighThreshold float64
}

// Row is one display line. Prices are in the view's currency.
type Row struct {
	Rank          int
	Symbol        string
	Name          string
	DomesticPrice float64
	ForeignPrice  float64
	Gap           float64
	SpreadPercent float64
	Restriction   domain.RestrictionNote
	Band          Band
}

type View struct {
	SnapshotID string
	Currency   Currency
	Rate       domain.ExchangeRate
	FetchedAt  time.Time
	Health     domain.SnapshotHealth
	Total      int
	Rows       []Row
}

// BuildView derives display rows from a snapshot. The snapshot is not modified.
func BuildView(snap *domain.RankedSnapshot, opt ViewOptions) View {
	if opt.Currency == "" {
		opt.Currency = CurrencyDomestic
	}
	if opt.HighThreshold == 0 {
		opt.HighThreshold = DefaultHighThreshold
	}
	v := View{Currency: opt.Currency}
	if snap == nil {
		return v
	}
	v.SnapshotID = snap.ID
	v.Rate = snap.Rate
	v.FetchedAt = snap.FetchedAt
	v.Health = snap.Health
	v.Total = len(snap.Records)

	needle := strings.ToLower(strings.TrimSpace(opt.Filter))
	for i, r := range snap.Records {
		if needle != "" &&
			!strings.Contains(strings.ToLower(r.BaseSymbol), needle) &&
			!strings.Contains(strings.ToLower(r.DisplayName), needle) {
			continue
		}
		dom, frn := displayPrices(r, snap.Rate.Value, opt.Currency)
		v.Rows = append(v.Rows, Row{
			Rank:          i + 1,
			Symbol:        r.BaseSymbol,
			Name:          r.DisplayName,
			DomesticPrice: dom,
			ForeignPrice:  frn,
			Gap:           dom - frn,
			SpreadPercent: r.SpreadPercent,
			Restriction:   r.Restriction,
			Band:          BandFor(r.SpreadPercent, opt.HighThreshold),
		})
		if opt.Limit > 0 && len(v.Rows) == opt.Limit {
			break
		}
	}
	return v
}

// BandFor classifies a spread against the high threshold.
func BandFor(spread, high float64) Band {
	switch {
	case spread > high:
		return BandHigh
	case spread < 0:
		return BandInverted
	default:
		return BandNormal
	}
}

func displayPrices(r domain.SpreadRecord, rate float64, c Currency) (domestic, foreign float64) {
	if c == CurrencyForeign {
		return r.DomesticPriceRaw / rate, r.ForeignPriceRaw
	}
	return r.DomesticPriceRaw, r.ForeignPriceRaw * rate
}
