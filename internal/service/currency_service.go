package service

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"strings"
	"time"

	"github.com/lifecompass/finance-bfa-go/internal/domain"
	"github.com/lifecompass/finance-bfa-go/internal/infra/observability"
	"github.com/lifecompass/finance-bfa-go/internal/port"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var currencyTracer = otel.Tracer("service/currency")

const ratesCacheKey = "rates:USD"

var supportedCurrencies = []domain.Currency{
	{Symbol: "$", Code: "USD", Name: "US Dollar"},
	{Symbol: "€", Code: "EUR", Name: "Euro"},
	{Symbol: "£", Code: "GBP", Name: "British Pound"},
	{Symbol: "¥", Code: "JPY", Name: "Japanese Yen"},
	{Symbol: "₹", Code: "INR", Name: "Indian Rupee"},
	{Symbol: "C$", Code: "CAD", Name: "Canadian Dollar"},
	{Symbol: "A$", Code: "AUD", Name: "Australian Dollar"},
	{Symbol: "CHF", Code: "CHF", Name: "Swiss Franc"},
	{Symbol: "CN¥", Code: "CNY", Name: "Chinese Yuan"},
	{Symbol: "R$", Code: "BRL", Name: "Brazilian Real"},
	{Symbol: "₩", Code: "KRW", Name: "South Korean Won"},
	{Symbol: "kr", Code: "SEK", Name: "Swedish Krona"},
	{Symbol: "zł", Code: "PLN", Name: "Polish Zloty"},
	{Symbol: "₽", Code: "RUB", Name: "Russian Ruble"},
	{Symbol: "MX$", Code: "MXN", Name: "Mexican Peso"},
	{Symbol: "₺", Code: "TRY", Name: "Turkish Lira"},
}

// fallbackRates are units per USD, served when no live or cached snapshot exists.
var fallbackRates = map[string]float64{
	"USD": 1,
	"EUR": 0.92,
	"GBP": 0.79,
	"JPY": 149.5,
	"INR": 83.1,
	"CAD": 1.36,
	"AUD": 1.52,
	"CHF": 0.88,
	"CNY": 7.24,
	"BRL": 4.97,
	"KRW": 1330,
	"SEK": 10.45,
	"PLN": 3.98,
	"RUB": 92.5,
	"MXN": 17.1,
	"TRY": 32.2,
}

// SupportedCurrencies returns a copy of the supported currency table.
func SupportedCurrencies() []domain.Currency {
	return append([]domain.Currency(nil), supportedCurrencies...)
}

// LookupCurrency finds a currency by display symbol or ISO code.
// An empty string resolves to USD.
func LookupCurrency(symbolOrCode string) (domain.Currency, bool) {
	s := strings.TrimSpace(symbolOrCode)
	if s == "" {
		return supportedCurrencies[0], true
	}
	for _, c := range supportedCurrencies {
		if c.Symbol == s {
			return c, true
		}
	}
	upper := strings.ToUpper(s)
	for _, c := range supportedCurrencies {
		if c.Code == upper {
			return c, true
		}
	}
	return domain.Currency{}, false
}

// CurrencyService converts and formats amounts using USD-based rates.
type CurrencyService struct {
	source  port.RateSource
	cache   port.Cache[*domain.ExchangeRates]
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewCurrencyService creates the currency service. source may be nil, in
// which case the fallback table is always used.
func NewCurrencyService(
	source port.RateSource,
	cache port.Cache[*domain.ExchangeRates],
	metrics *observability.Metrics,
	logger *zap.Logger,
) *CurrencyService {
	return &CurrencyService{
		source:  source,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
	}
}

// FormatCurrency renders amount with the currency's symbol, grouping and
// fraction digits. Unknown symbols get "<symbol><amount with 2 decimals>".
func (s *CurrencyService) FormatCurrency(amount float64, symbol string) string {
	return FormatAmount(amount, symbol)
}

// FormatAmount is FormatCurrency without a service instance.
func FormatAmount(amount float64, symbol string) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return symbol + "n/a"
	}
	c, ok := LookupCurrency(symbol)
	if !ok {
		return symbol + groupThousands(amount)
	}
	cur := *money.New(0, c.Code).Currency()
	minor := decimal.NewFromFloat(amount).Shift(int32(cur.Fraction)).Round(0).BigInt()
	if minor.IsInt64() {
		return cur.Formatter().Format(minor.Int64())
	}
	return formatMinorUnits(cur, minor)
}

// formatMinorUnits renders amounts whose minor units overflow int64 with the
// same template, separators and sign placement as go-money's Formatter.
func formatMinorUnits(cur money.Currency, minor *big.Int) string {
	digits := new(big.Int).Abs(minor).String()
	if len(digits) <= cur.Fraction {
		digits = strings.Repeat("0", cur.Fraction-len(digits)+1) + digits
	}
	intPart, frac := digits[:len(digits)-cur.Fraction], digits[len(digits)-cur.Fraction:]

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && cur.Thousand != "" && (len(intPart)-i)%3 == 0 {
			b.WriteString(cur.Thousand)
		}
		b.WriteRune(r)
	}
	if cur.Fraction > 0 {
		b.WriteString(cur.Decimal)
		b.WriteString(frac)
	}

	out := strings.Replace(cur.Template, "1", b.String(), 1)
	out = strings.Replace(out, "$", cur.Grapheme, 1)
	if minor.Sign() < 0 {
		out = "-" + out
	}
	return out
}

func groupThousands(amount float64) string {
	s := fmt.Sprintf("%.2f", math.Abs(amount))
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if amount < 0 {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

// Rates returns USD-based rates: cache first, then the live source, then the
// static fallback table. It never fails; the Source field says which was used.
func (s *CurrencyService) Rates(ctx context.Context) *domain.ExchangeRates {
	ctx, span := currencyTracer.Start(ctx, "CurrencyService.Rates")
	defer span.End()

	if cached, ok := s.cache.Get(ctx, ratesCacheKey); ok && cached != nil {
		s.metrics.IncrCacheHit("rates")
		span.SetAttributes(attribute.String("rates.source", domain.RateSourceCache))
		out := *cached
		out.Source = domain.RateSourceCache
		return &out
	}
	s.metrics.IncrCacheMiss("rates")

	rates, err := s.RefreshRates(ctx)
	if err != nil {
		s.logger.Warn("exchange rates unavailable, using fallback table", zap.Error(err))
		s.metrics.IncrFallbackRates()
		span.SetAttributes(attribute.String("rates.source", domain.RateSourceFallback))
		return fallbackSnapshot()
	}
	span.SetAttributes(attribute.String("rates.source", domain.RateSourceLive))
	return rates
}

// RefreshRates fetches a fresh snapshot and caches it.
func (s *CurrencyService) RefreshRates(ctx context.Context) (*domain.ExchangeRates, error) {
	ctx, span := currencyTracer.Start(ctx, "CurrencyService.RefreshRates")
	defer span.End()

	if s.source == nil {
		return nil, &domain.ErrExternalService{Service: "rates", Err: fmt.Errorf("no rate source configured")}
	}

	start := time.Now()
	rates, err := s.source.FetchRates(ctx)
	s.metrics.RecordRequestDuration("rates.fetch", time.Since(start))
	if err != nil {
		s.metrics.IncrExternalError("rates")
		return nil, fmt.Errorf("fetch rates: %w", err)
	}
	if rates == nil || len(rates.Rates) == 0 {
		s.metrics.IncrExternalError("rates")
		return nil, &domain.ErrExternalService{Service: "rates", Err: fmt.Errorf("empty rate snapshot")}
	}

	s.cache.Set(ctx, ratesCacheKey, rates)
	s.logger.Info("exchange rates refreshed",
		zap.Int("currencies", len(rates.Rates)),
		zap.Time("fetched_at", rates.FetchedAt),
	)
	return rates, nil
}

func fallbackSnapshot() *domain.ExchangeRates {
	rates := make(map[string]float64, len(fallbackRates))
	for k, v := range fallbackRates {
		rates[k] = v
	}
	return &domain.ExchangeRates{
		Base:      "USD",
		Rates:     rates,
		FetchedAt: time.Now().UTC(),
		Source:    domain.RateSourceFallback,
	}
}

// rateFor resolves symbol to its ISO code and units-per-USD rate.
// A currency missing from a live snapshot falls back to the static table.
func (s *CurrencyService) rateFor(ctx context.Context, symbol string) (string, decimal.Decimal, error) {
	c, ok := LookupCurrency(symbol)
	if !ok {
		return "", decimal.Zero, &domain.ErrUnsupportedCurrency{Currency: symbol}
	}
	if c.Code == "USD" {
		return c.Code, decimal.NewFromInt(1), nil
	}

	rate, ok := s.Rates(ctx).Rates[c.Code]
	if !ok || rate <= 0 {
		rate, ok = fallbackRates[c.Code]
	}
	if !ok || rate <= 0 {
		return "", decimal.Zero, &domain.ErrUnsupportedCurrency{Currency: symbol}
	}
	return c.Code, decimal.NewFromFloat(rate), nil
}

func checkFinite(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &domain.ErrValidation{Field: field, Message: "must be a finite number"}
	}
	return nil
}

// ConvertToUSD converts amount in the currency identified by symbol to USD.
func (s *CurrencyService) ConvertToUSD(ctx context.Context, amount float64, symbol string) (float64, error) {
	if err := checkFinite("amount", amount); err != nil {
		return 0, err
	}
	code, rate, err := s.rateFor(ctx, symbol)
	if err != nil {
		return 0, err
	}
	if code == "USD" {
		return amount, nil
	}
	return decimal.NewFromFloat(amount).Div(rate).InexactFloat64(), nil
}

// ConvertFromUSD converts a USD amount into the currency identified by symbol.
func (s *CurrencyService) ConvertFromUSD(ctx context.Context, amountUSD float64, symbol string) (float64, error) {
	if err := checkFinite("amount", amountUSD); err != nil {
		return 0, err
	}
	code, rate, err := s.rateFor(ctx, symbol)
	if err != nil {
		return 0, err
	}
	if code == "USD" {
		return amountUSD, nil
	}
	return decimal.NewFromFloat(amountUSD).Mul(rate).InexactFloat64(), nil
}

// Convert converts between two supported currencies through USD.
func (s *CurrencyService) Convert(ctx context.Context, amount float64, from, to string) (*domain.ConversionResult, error) {
	ctx, span := currencyTracer.Start(ctx, "CurrencyService.Convert")
	defer span.End()
	span.SetAttributes(attribute.String("currency.from", from), attribute.String("currency.to", to))

	fromCur, ok := LookupCurrency(from)
	if !ok {
		return nil, &domain.ErrUnsupportedCurrency{Currency: from}
	}
	toCur, ok := LookupCurrency(to)
	if !ok {
		return nil, &domain.ErrUnsupportedCurrency{Currency: to}
	}

	usd, err := s.ConvertToUSD(ctx, amount, fromCur.Symbol)
	if err != nil {
		return nil, err
	}
	out, err := s.ConvertFromUSD(ctx, usd, toCur.Symbol)
	if err != nil {
		return nil, err
	}

	return &domain.ConversionResult{
		Amount:    amount,
		From:      fromCur.Code,
		To:        toCur.Code,
		Result:    out,
		Formatted: FormatAmount(out, toCur.Symbol),
	}, nil
}
