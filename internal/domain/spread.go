package domain

import (
	"sort"
	"time"
)

// ReconciledPair is an asset actively quoted on both exchanges.
type ReconciledPair struct {
	BaseSymbol string
	Domestic   AssetQuote
	Foreign    AssetQuote
}

// SpreadRecord is the per-asset result of one computation cycle.
type SpreadRecord struct {
	BaseSymbol       string
	DisplayName      string
	DomesticPriceRaw float64 // domestic quote currency
	ForeignPriceRaw  float64 // foreign quote currency
	SpreadPercent    float64 // full precision; rounding is a display concern
	Restriction      RestrictionNote
}

// SpreadPercent is the domestic premium over the rate-converted foreign price.
// Callers guarantee foreign > 0 and rate > 0.
func SpreadPercent(domestic, foreign, rate float64) float64 {
	return (domestic/(foreign*rate) - 1) * 100
}

// SnapshotHealth records what degraded while a snapshot was built.
type SnapshotHealth struct {
	RateFallback    bool
	StatusAvailable bool
	DroppedAssets   int
}

// RankedSnapshot is the unit handed to presentation and alerting.
// It is immutable once published.
type RankedSnapshot struct {
	ID          string
	Records     []SpreadRecord
	Rate        ExchangeRate
	FetchedAt   time.Time
	StablePrice float64 // domestic price of the reference stablecoin, 0 when unlisted
	Health      SnapshotHealth
}

// SortRecords orders records by spread descending, ties by symbol ascending.
func SortRecords(records []SpreadRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].SpreadPercent != records[j].SpreadPercent {
			return records[i].SpreadPercent > records[j].SpreadPercent
		}
		return records[i].BaseSymbol < records[j].BaseSymbol
	})
}
