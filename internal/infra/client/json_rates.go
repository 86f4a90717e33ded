package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/lifecompass/finance-bfa-go/internal/domain"
	"github.com/lifecompass/finance-bfa-go/internal/infra/resilience"

	"github.com/PaesslerAG/jsonpath"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("client")

// JSONRatesClient reads USD-based rates from any JSON API. The rate map is
// located with a JSONPath expression, so providers with different envelopes
// ("$.rates", "$.conversion_rates", "$.data") share one client.
type JSONRatesClient struct {
	httpClient *http.Client
	url        string
	path       string
	cb         *gobreaker.CircuitBreaker
	bulkhead   *resilience.Bulkhead
	cfg        resilience.Config
}

// NewJSONRatesClient creates a JSONRatesClient.
func NewJSONRatesClient(httpClient *http.Client, url, path string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *JSONRatesClient {
	if path == "" {
		path = "$.rates"
	}
	return &JSONRatesClient{
		httpClient: httpClient,
		url:        url,
		path:       path,
		cb:         cb,
		bulkhead:   resilience.NewBulkhead(cfg.MaxConcurrency),
		cfg:        cfg,
	}
}

// FetchRates fetches a snapshot with retry, circuit breaker, and tracing.
func (c *JSONRatesClient) FetchRates(ctx context.Context) (*domain.ExchangeRates, error) {
	ctx, span := tracer.Start(ctx, "JSONRatesClient.FetchRates")
	defer span.End()
	span.SetAttributes(attribute.String("rates.url", c.url), attribute.String("rates.path", c.path))

	if err := c.bulkhead.Acquire(ctx); err != nil {
		return nil, &domain.ErrTimeout{Operation: "rates-api"}
	}
	defer c.bulkhead.Release()

	result, err := c.cb.Execute(func() (any, error) {
		var rates map[string]float64
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
			if err != nil {
				return resilience.Permanent(err)
			}
			req.Header.Set("Accept", "application/json")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return resilience.Permanent(fmt.Errorf("rates API returned status %d", resp.StatusCode))
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("rates API returned status %d", resp.StatusCode)
			}

			var doc any
			if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
				return resilience.Permanent(fmt.Errorf("decode rates: %w", err))
			}
			parsed, err := extractRates(doc, c.path)
			if err != nil {
				return resilience.Permanent(err)
			}
			rates = parsed
			return nil
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return rates, nil
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			return nil, &domain.ErrCircuitOpen{Service: "rates-api"}
		}
		return nil, &domain.ErrExternalService{Service: "rates-api", Err: err}
	}

	rates := result.(map[string]float64)
	span.SetAttributes(attribute.Int("rates.count", len(rates)))
	return &domain.ExchangeRates{
		Base:      "USD",
		Rates:     rates,
		FetchedAt: time.Now().UTC(),
		Source:    domain.RateSourceLive,
	}, nil
}

// extractRates evaluates path against doc and coerces the result into a
// code → rate map. Non-numeric entries are skipped; USD is pinned to 1.
func extractRates(doc any, path string) (map[string]float64, error) {
	v, err := jsonpath.Get(path, doc)
	if err != nil {
		return nil, fmt.Errorf("rates path %s: %w", path, err)
	}
	if list, ok := v.([]any); ok && len(list) == 1 {
		v = list[0]
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("rates path %s: expected an object, got %T", path, v)
	}

	rates := make(map[string]float64, len(obj))
	for code, raw := range obj {
		f, ok := raw.(float64)
		if !ok || f <= 0 {
			continue
		}
		rates[strings.ToUpper(code)] = f
	}
	if len(rates) == 0 {
		return nil, fmt.Errorf("rates path %s: no usable rates", path)
	}
	rates["USD"] = 1
	return rates, nil
}
