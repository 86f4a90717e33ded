package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lifecompass/finance-bfa-go/internal/domain"
	"github.com/lifecompass/finance-bfa-go/internal/finance"
	"github.com/lifecompass/finance-bfa-go/internal/infra/resilience"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
)

// ECBRatesClient reads the European Central Bank daily reference rates
// (EUR-based XML) and rebases them to USD.
type ECBRatesClient struct {
	httpClient *http.Client
	url        string
	cb         *gobreaker.CircuitBreaker
	bulkhead   *resilience.Bulkhead
	cfg        resilience.Config
}

// NewECBRatesClient creates an ECBRatesClient.
func NewECBRatesClient(httpClient *http.Client, url string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *ECBRatesClient {
	return &ECBRatesClient{
		httpClient: httpClient,
		url:        url,
		cb:         cb,
		bulkhead:   resilience.NewBulkhead(cfg.MaxConcurrency),
		cfg:        cfg,
	}
}

// FetchRates fetches and rebases the daily ECB feed.
func (c *ECBRatesClient) FetchRates(ctx context.Context) (*domain.ExchangeRates, error) {
	ctx, span := tracer.Start(ctx, "ECBRatesClient.FetchRates")
	defer span.End()
	span.SetAttributes(attribute.String("rates.url", c.url))

	if err := c.bulkhead.Acquire(ctx); err != nil {
		return nil, &domain.ErrTimeout{Operation: "ecb"}
	}
	defer c.bulkhead.Release()

	result, err := c.cb.Execute(func() (any, error) {
		var body []byte
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
			if err != nil {
				return resilience.Permanent(err)
			}
			req.Header.Set("Accept", "application/xml")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return resilience.Permanent(fmt.Errorf("ECB returned status %d", resp.StatusCode))
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("ECB returned status %d", resp.StatusCode)
			}

			body, err = io.ReadAll(resp.Body)
			return err
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return parseECB(body)
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			return nil, &domain.ErrCircuitOpen{Service: "ecb"}
		}
		return nil, &domain.ErrExternalService{Service: "ecb", Err: err}
	}

	rates := result.(*domain.ExchangeRates)
	span.SetAttributes(attribute.Int("rates.count", len(rates.Rates)))
	return rates, nil
}

// parseECB reads <Cube currency="X" rate="r"/> elements (units of X per EUR)
// and converts them to units per USD.
func parseECB(body []byte) (*domain.ExchangeRates, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, fmt.Errorf("failed to parse ECB XML: %w", err)
	}

	perEUR := map[string]decimal.Decimal{}
	for _, el := range doc.FindElements("//Cube[@currency]") {
		code := strings.ToUpper(el.SelectAttrValue("currency", ""))
		rate, err := decimal.NewFromString(el.SelectAttrValue("rate", ""))
		if code == "" || err != nil || !rate.IsPositive() || !finance.InFloatRange(rate) {
			continue
		}
		perEUR[code] = rate
	}

	usd, ok := perEUR["USD"]
	if !ok {
		return nil, fmt.Errorf("ECB feed has no USD rate")
	}

	rates := make(map[string]float64, len(perEUR)+1)
	for code, r := range perEUR {
		rates[code] = r.DivRound(usd, 8).InexactFloat64()
	}
	rates["EUR"] = decimal.NewFromInt(1).DivRound(usd, 8).InexactFloat64()
	rates["USD"] = 1

	fetchedAt := time.Now().UTC()
	if dated := doc.FindElement("//Cube[@time]"); dated != nil {
		if t, err := time.Parse("2006-01-02", dated.SelectAttrValue("time", "")); err == nil {
			fetchedAt = t
		}
	}

	return &domain.ExchangeRates{
		Base:      "USD",
		Rates:     rates,
		FetchedAt: fetchedAt,
		Source:    domain.RateSourceLive,
	}, nil
}
