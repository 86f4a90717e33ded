// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the service layer
// from concrete storage, cache and rate-provider implementations.
package port

import (
	"context"

	"github.com/lifecompass/finance-bfa-go/internal/domain"
)

// RecordStore persists one FinancialRecordSet per user.
// Load returns *domain.ErrNotFound when the user has no records yet.
type RecordStore interface {
	Load(ctx context.Context, userID string) (*domain.FinancialRecordSet, error)
	Save(ctx context.Context, userID string, records *domain.FinancialRecordSet) error
}

// RateSource fetches a fresh USD-based exchange-rate snapshot.
type RateSource interface {
	FetchRates(ctx context.Context) (*domain.ExchangeRates, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(ctx context.Context, key string) (T, bool)
	Set(ctx context.Context, key string, value T)
	Delete(ctx context.Context, key string)
}

// CurrencyConverter turns native-currency amounts into USD and back, and
// formats them for display.
type CurrencyConverter interface {
	ConvertToUSD(ctx context.Context, amount float64, symbol string) (float64, error)
	ConvertFromUSD(ctx context.Context, amountUSD float64, symbol string) (float64, error)
	FormatCurrency(amount float64, symbol string) string
}

// Pinger is implemented by dependencies that can report readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}
