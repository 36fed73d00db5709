package domain

// Instrument is one listed market on an exchange.
type Instrument struct {
	Symbol        string // exchange-native identifier, e.g. "KRW-BTC" or "BTCUSDT"
	Base          string
	Quote         string
	LocalizedName string
}

// Pair renders the instrument in unified notation.
func (i Instrument) Pair() Pair {
	return NewPair(i.Base, i.Quote)
}

// Ticker is one entry of a batched last-price call.
type Ticker struct {
	Symbol    string
	LastPrice float64
}
