package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lifecompass/finance-bfa-go/internal/domain"

	_ "github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("store")

const schema = `
CREATE TABLE IF NOT EXISTS financial_records (
	user_id    TEXT PRIMARY KEY,
	payload    JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const (
	selectRecords = `SELECT payload FROM financial_records WHERE user_id = $1`
	upsertRecords = `
INSERT INTO financial_records (user_id, payload, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (user_id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`
)

// Postgres is a RecordStore keeping one JSONB document per user.
type Postgres struct {
	db     *sql.DB
	logger *zap.Logger
}

// OpenPostgres opens a lib/pq connection pool for dsn and verifies it.
func OpenPostgres(ctx context.Context, dsn string, maxConns int) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
		db.SetMaxIdleConns(maxConns / 2)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// NewPostgres wraps an open database handle.
func NewPostgres(db *sql.DB, logger *zap.Logger) *Postgres {
	return &Postgres{db: db, logger: logger}
}

// EnsureSchema creates the records table when missing.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create financial_records: %w", err)
	}
	return nil
}

// Load reads the user's record set.
func (p *Postgres) Load(ctx context.Context, userID string) (*domain.FinancialRecordSet, error) {
	ctx, span := tracer.Start(ctx, "Postgres.Load")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	var payload []byte
	err := p.db.QueryRowContext(ctx, selectRecords, userID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "records", ID: userID}
	}
	if err != nil {
		p.logger.Error("postgres: load failed", zap.String("user_id", userID), zap.Error(err))
		return nil, &domain.ErrExternalService{Service: "postgres", Err: err}
	}

	var records domain.FinancialRecordSet
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, &domain.ErrExternalService{Service: "postgres", Err: fmt.Errorf("decode payload: %w", err)}
	}
	return &records, nil
}

// Save upserts the user's record set.
func (p *Postgres) Save(ctx context.Context, userID string, records *domain.FinancialRecordSet) error {
	ctx, span := tracer.Start(ctx, "Postgres.Save")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	if _, err := p.db.ExecContext(ctx, upsertRecords, userID, payload); err != nil {
		p.logger.Error("postgres: save failed", zap.String("user_id", userID), zap.Error(err))
		return &domain.ErrExternalService{Service: "postgres", Err: err}
	}
	return nil
}

// Ping checks connectivity for the readiness probe.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}
