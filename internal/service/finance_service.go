package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/lifecompass/finance-bfa-go/internal/domain"
	"github.com/lifecompass/finance-bfa-go/internal/finance"
	"github.com/lifecompass/finance-bfa-go/internal/infra/observability"
	"github.com/lifecompass/finance-bfa-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("service/finance")

// FinanceService aggregates record sets, ranks them against the reference
// tables, and manages each user's stored records.
type FinanceService struct {
	store      port.RecordStore
	converter  port.CurrencyConverter
	engine     *finance.Engine
	aggregator *finance.Aggregator
	metrics    *observability.Metrics
	logger     *zap.Logger

	userLocks sync.Map // userID → *sync.Mutex
}

// NewFinanceService creates the finance service with all dependencies injected.
func NewFinanceService(
	store port.RecordStore,
	converter port.CurrencyConverter,
	engine *finance.Engine,
	mode finance.ParseMode,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *FinanceService {
	return &FinanceService{
		store:      store,
		converter:  converter,
		engine:     engine,
		aggregator: finance.NewAggregator(mode),
		metrics:    metrics,
		logger:     logger,
	}
}

// Engine exposes the percentile engine for direct lookups.
func (s *FinanceService) Engine() *finance.Engine { return s.engine }

// ParseMode returns the amount parse mode in use.
func (s *FinanceService) ParseMode() finance.ParseMode { return s.aggregator.Mode() }

// Aggregate returns totals for records in their own currency.
func (s *FinanceService) Aggregate(ctx context.Context, records *domain.FinancialRecordSet) (*domain.Totals, error) {
	_, span := tracer.Start(ctx, "FinanceService.Aggregate")
	defer span.End()

	totals, err := s.aggregator.Aggregate(records)
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	return &totals, nil
}

// Evaluate aggregates records, converts income and expenses to USD and ranks
// all three dimensions. The savings rate is a ratio and is not converted.
func (s *FinanceService) Evaluate(ctx context.Context, records *domain.FinancialRecordSet) (*domain.FinancialReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "FinanceService.Evaluate")
	defer span.End()

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("finance.evaluate", time.Since(start))
	}()

	symbol := ""
	if records != nil {
		symbol = records.Currency
	}
	cur, ok := LookupCurrency(symbol)
	if !ok {
		return nil, &domain.ErrUnsupportedCurrency{Currency: symbol}
	}
	span.SetAttributes(attribute.String("currency.code", cur.Code))

	totals, err := s.aggregator.Aggregate(records)
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}

	var usd domain.USDTotals
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := s.toUSD(gCtx, totals.TotalIncome, cur.Symbol)
		if err != nil {
			return fmt.Errorf("convert income: %w", err)
		}
		usd.Income = v
		return nil
	})
	g.Go(func() error {
		v, err := s.toUSD(gCtx, totals.TotalExpenses, cur.Symbol)
		if err != nil {
			return fmt.Errorf("convert expenses: %w", err)
		}
		usd.Expenses = v
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("currency conversion failed", zap.String("currency", cur.Code), zap.Error(err))
		return nil, err
	}

	report := &domain.FinancialReport{
		Currency:     cur.Symbol,
		CurrencyCode: cur.Code,
		Totals:       totals,
		TotalsUSD:    usd,
		Formatted: map[string]string{
			"totalIncome":   s.converter.FormatCurrency(totals.TotalIncome, cur.Symbol),
			"totalExpenses": s.converter.FormatCurrency(totals.TotalExpenses, cur.Symbol),
			"totalSavings":  s.converter.FormatCurrency(totals.TotalSavings, cur.Symbol),
			"totalDebt":     s.converter.FormatCurrency(totals.TotalDebt, cur.Symbol),
			"netCashFlow":   s.converter.FormatCurrency(totals.NetCashFlow, cur.Symbol),
			"netWorth":      s.converter.FormatCurrency(totals.NetWorth, cur.Symbol),
		},
		Income:   s.rank(finance.KindIncome, usd.Income),
		Expenses: s.rank(finance.KindExpense, usd.Expenses),
		Savings:  s.rank(finance.KindSavings, totals.SavingsRate),
	}

	s.logger.Debug("financial report computed",
		zap.String("currency", cur.Code),
		zap.Float64("income_percentile", report.Income.Percentile),
		zap.Float64("expense_percentile", report.Expenses.Percentile),
		zap.Float64("savings_percentile", report.Savings.Percentile),
	)
	return report, nil
}

// toUSD passes non-finite totals (lenient mode) through unchanged.
func (s *FinanceService) toUSD(ctx context.Context, v float64, symbol string) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v, nil
	}
	return s.converter.ConvertToUSD(ctx, v, symbol)
}

// Rank looks up one value and records the lookup in metrics.
func (s *FinanceService) Rank(kind finance.TableKind, value float64) (domain.PercentileResult, error) {
	if _, err := s.engine.Percentile(kind, value); err != nil {
		return domain.PercentileResult{}, err
	}
	return s.rank(kind, value), nil
}

func (s *FinanceService) rank(kind finance.TableKind, value float64) domain.PercentileResult {
	p, _ := s.engine.Percentile(kind, value)
	rating := finance.Rate(p)
	if !math.IsNaN(p) {
		s.metrics.ObservePercentile(string(kind), p)
	}
	s.metrics.IncrRating(rating.Label)
	return domain.PercentileResult{
		Kind:       string(kind),
		Value:      value,
		Percentile: p,
		Rating:     rating,
	}
}

// ============================================================
// Stored records
// ============================================================

func (s *FinanceService) lockUser(userID string) func() {
	v, _ := s.userLocks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// GetRecords loads a user's records. Users without records get an empty USD set.
func (s *FinanceService) GetRecords(ctx context.Context, userID string) (*domain.FinancialRecordSet, error) {
	ctx, span := tracer.Start(ctx, "FinanceService.GetRecords")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	records, err := s.store.Load(ctx, userID)
	if err != nil {
		var nf *domain.ErrNotFound
		if errors.As(err, &nf) {
			return emptyRecords(), nil
		}
		s.logger.Error("failed to load records", zap.String("user_id", userID), zap.Error(err))
		s.metrics.IncrExternalError("store")
		return nil, fmt.Errorf("load records: %w", err)
	}
	normalize(records)
	return records, nil
}

// SaveRecords validates every item and replaces the user's records.
func (s *FinanceService) SaveRecords(ctx context.Context, userID string, records *domain.FinancialRecordSet) error {
	ctx, span := tracer.Start(ctx, "FinanceService.SaveRecords")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	if records == nil {
		return &domain.ErrValidation{Field: "body", Message: "records are required"}
	}
	if err := validateRecordSet(records); err != nil {
		return err
	}

	unlock := s.lockUser(userID)
	defer unlock()
	return s.save(ctx, userID, records)
}

func (s *FinanceService) save(ctx context.Context, userID string, records *domain.FinancialRecordSet) error {
	normalize(records)
	if err := s.store.Save(ctx, userID, records); err != nil {
		s.logger.Error("failed to save records", zap.String("user_id", userID), zap.Error(err))
		s.metrics.IncrExternalError("store")
		return fmt.Errorf("save records: %w", err)
	}
	return nil
}

// mutate runs fn against the user's current records under the user's lock
// and saves the result.
func (s *FinanceService) mutate(ctx context.Context, userID string, fn func(*domain.FinancialRecordSet) (string, error)) (string, error) {
	unlock := s.lockUser(userID)
	defer unlock()

	records, err := s.GetRecords(ctx, userID)
	if err != nil {
		return "", err
	}
	id, err := fn(records)
	if err != nil {
		return "", err
	}
	if err := s.save(ctx, userID, records); err != nil {
		return "", err
	}
	return id, nil
}

// AddItem decodes raw into the collection's item type, validates it and
// appends it. Returns the item ID, generated when absent.
func (s *FinanceService) AddItem(ctx context.Context, userID, collection string, raw []byte) (string, error) {
	ctx, span := tracer.Start(ctx, "FinanceService.AddItem")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.String("collection", collection))

	return s.mutate(ctx, userID, func(rs *domain.FinancialRecordSet) (string, error) {
		return applyItem(rs, collection, "", raw, opAdd)
	})
}

// UpdateItem replaces the item with itemID in collection.
func (s *FinanceService) UpdateItem(ctx context.Context, userID, collection, itemID string, raw []byte) error {
	ctx, span := tracer.Start(ctx, "FinanceService.UpdateItem")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.String("collection", collection))

	_, err := s.mutate(ctx, userID, func(rs *domain.FinancialRecordSet) (string, error) {
		return applyItem(rs, collection, itemID, raw, opUpdate)
	})
	return err
}

// DeleteItem removes the item with itemID from collection.
func (s *FinanceService) DeleteItem(ctx context.Context, userID, collection, itemID string) error {
	ctx, span := tracer.Start(ctx, "FinanceService.DeleteItem")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.String("collection", collection))

	_, err := s.mutate(ctx, userID, func(rs *domain.FinancialRecordSet) (string, error) {
		return applyItem(rs, collection, itemID, nil, opDelete)
	})
	return err
}

// SetCurrency changes the display currency. Stored amounts are not converted.
func (s *FinanceService) SetCurrency(ctx context.Context, userID, symbolOrCode string) (*domain.Currency, error) {
	ctx, span := tracer.Start(ctx, "FinanceService.SetCurrency")
	defer span.End()

	cur, ok := LookupCurrency(symbolOrCode)
	if !ok || symbolOrCode == "" {
		return nil, &domain.ErrUnsupportedCurrency{Currency: symbolOrCode}
	}

	_, err := s.mutate(ctx, userID, func(rs *domain.FinancialRecordSet) (string, error) {
		rs.Currency = cur.Symbol
		return "", nil
	})
	if err != nil {
		return nil, err
	}
	return &cur, nil
}

// Report evaluates the user's stored records.
func (s *FinanceService) Report(ctx context.Context, userID string) (*domain.FinancialReport, error) {
	ctx, span := tracer.Start(ctx, "FinanceService.Report")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	records, err := s.GetRecords(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.Evaluate(ctx, records)
}

func emptyRecords() *domain.FinancialRecordSet {
	return &domain.FinancialRecordSet{
		IncomeSources: []domain.IncomeSource{},
		Expenses:      []domain.Expense{},
		Savings:       []domain.SavingsAccount{},
		Debts:         []domain.Debt{},
		Currency:      "$",
	}
}

// normalize replaces nil collections with empty ones so they encode as [].
func normalize(rs *domain.FinancialRecordSet) {
	if rs.IncomeSources == nil {
		rs.IncomeSources = []domain.IncomeSource{}
	}
	if rs.Expenses == nil {
		rs.Expenses = []domain.Expense{}
	}
	if rs.Savings == nil {
		rs.Savings = []domain.SavingsAccount{}
	}
	if rs.Debts == nil {
		rs.Debts = []domain.Debt{}
	}
	if rs.Currency == "" {
		rs.Currency = "$"
	}
}
