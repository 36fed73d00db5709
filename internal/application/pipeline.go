package application

import (
	"math"
	"sort"

	"premium-monitor/internal/domain"
)

// Reconcile pairs every asset actively quoted on both sides.
// Output is sorted by symbol.
func Reconcile(domestic, foreign domain.Quotes) []domain.ReconciledPair {
	keys := make([]string, 0, len(domestic))
	for k := range domestic {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]domain.ReconciledPair, 0, len(keys))
	for _, k := range keys {
		d := domestic[k]
		f, ok := foreign[k]
		if !ok || !d.Active() || !f.Active() {
			continue
		}
		out = append(out, domain.ReconciledPair{BaseSymbol: k, Domestic: d, Foreign: f})
	}
	return out
}

// ComputeSpread derives the record for one pair. ok is false when the pair
// must be excluded because a price or the rate is unusable, or the spread
// overflows.
func ComputeSpread(p domain.ReconciledPair, rate domain.ExchangeRate) (domain.SpreadRecord, bool) {
	d, f := p.Domestic.LastPrice, p.Foreign.LastPrice
	if !domain.IsPositivePrice(d) || !domain.IsPositivePrice(f) || !domain.IsPositivePrice(rate.Value) ||
		!domain.IsPositivePrice(f*rate.Value) {
		return domain.SpreadRecord{}, false
	}
	spread := domain.SpreadPercent(d, f, rate.Value)
	if math.IsInf(spread, 0) || math.IsNaN(spread) {
		return domain.SpreadRecord{}, false
	}
	return domain.SpreadRecord{
		BaseSymbol:       p.BaseSymbol,
		DisplayName:      p.Domestic.Name(),
		DomesticPriceRaw: d,
		ForeignPriceRaw:  f,
		SpreadPercent:    spread,
		Restriction:      domain.RestrictionNormal,
	}, true
}

// Annotate returns a copy of records with restriction notes applied.
// Assets missing from statuses are Normal.
func Annotate(records []domain.SpreadRecord, statuses map[string]domain.RestrictionNote) []domain.SpreadRecord {
	out := make([]domain.SpreadRecord, len(records))
	for i, r := range records {
		note, ok := statuses[r.BaseSymbol]
		if !ok || note == "" {
			note = domain.RestrictionNormal
		}
		r.Restriction = note
		out[i] = r
	}
	return out
}

// Rank runs the compute step over every pair and orders the result.
func Rank(pairs []domain.ReconciledPair, rate domain.ExchangeRate) (records []domain.SpreadRecord, excluded int) {
	records = make([]domain.SpreadRecord, 0, len(pairs))
	for _, p := range pairs {
		r, ok := ComputeSpread(p, rate)
		if !ok {
			excluded++
			continue
		}
		records = append(records, r)
	}
	domain.SortRecords(records)
	return records, excluded
}
