package domain

import "time"

// Currency pairs the symbol shown in the app with its ISO 4217 code.
type Currency struct {
	Symbol string `json:"symbol"`
	Code   string `json:"code"`
	Name   string `json:"name"`
}

// Rate sources reported with an ExchangeRates snapshot.
const (
	RateSourceLive     = "live"
	RateSourceCache    = "cache"
	RateSourceFallback = "fallback"
)

// ExchangeRates holds units of each currency per 1 USD.
type ExchangeRates struct {
	Base      string             `json:"base"`
	Rates     map[string]float64 `json:"rates"`
	FetchedAt time.Time          `json:"fetchedAt"`
	Source    string             `json:"source"`
}

// ConversionResult is returned by the convert endpoint.
type ConversionResult struct {
	Amount    float64 `json:"amount"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	Result    float64 `json:"result"`
	Formatted string  `json:"formatted"`
}
