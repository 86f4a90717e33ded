// Package supabase stores financial record sets in a Supabase project through
// its PostgREST API.
package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/lifecompass/finance-bfa-go/internal/domain"
	"github.com/lifecompass/finance-bfa-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("supabase")

const recordsTable = "financial_records"

// Client wraps HTTP calls to Supabase PostgREST and implements port.RecordStore.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	serviceRoleKey string
	cb             *gobreaker.CircuitBreaker
	cfg            resilience.Config
	logger         *zap.Logger
}

// NewClient creates a Supabase client.
func NewClient(httpClient *http.Client, baseURL, serviceRoleKey string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *Client {
	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		serviceRoleKey: serviceRoleKey,
		cb:             cb,
		cfg:            cfg,
		logger:         logger,
	}
}

// recordRow maps the financial_records table columns.
type recordRow struct {
	UserID    string                    `json:"user_id"`
	Payload   domain.FinancialRecordSet `json:"payload"`
	UpdatedAt string                    `json:"updated_at,omitempty"`
}

// Load fetches the record set for userID.
func (c *Client) Load(ctx context.Context, userID string) (*domain.FinancialRecordSet, error) {
	ctx, span := tracer.Start(ctx, "Supabase.Load")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	var records *domain.FinancialRecordSet

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("%s?user_id=eq.%s&select=user_id,payload&limit=1", recordsTable, url.QueryEscape(userID))
			body, err := c.doGet(ctx, path)
			if err != nil {
				return err
			}

			if body == nil || string(body) == "[]" {
				return resilience.Permanent(&domain.ErrNotFound{Resource: "records", ID: userID})
			}

			var rows []recordRow
			if err := json.Unmarshal(body, &rows); err != nil {
				return resilience.Permanent(fmt.Errorf("failed to decode records: %w", err))
			}
			if len(rows) == 0 {
				return resilience.Permanent(&domain.ErrNotFound{Resource: "records", ID: userID})
			}

			records = &rows[0].Payload
			return nil
		})
	})

	if err != nil {
		var nf *domain.ErrNotFound
		if errors.As(err, &nf) {
			return nil, nf
		}
		return nil, &domain.ErrExternalService{Service: "supabase/records", Err: err}
	}

	return records, nil
}

// Save upserts the record set for userID.
func (c *Client) Save(ctx context.Context, userID string, records *domain.FinancialRecordSet) error {
	ctx, span := tracer.Start(ctx, "Supabase.Save")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	row := recordRow{
		UserID:    userID,
		Payload:   *records,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	}

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			return c.doUpsert(ctx, recordsTable+"?on_conflict=user_id", row)
		})
	})

	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/records", Err: err}
	}
	return nil
}

// Ping checks that PostgREST answers for the records table.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.doGet(ctx, recordsTable+"?select=user_id&limit=1")
	return err
}
