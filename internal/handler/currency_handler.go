package handler

import (
	"net/http"

	"github.com/lifecompass/finance-bfa-go/internal/domain"
	"github.com/lifecompass/finance-bfa-go/internal/service"

	"go.uber.org/zap"
)

func listCurrenciesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, service.SupportedCurrencies())
	}
}

// GET /v1/currencies/rates. Always answers; the source field tells
// live, cache and fallback apart.
func ratesHandler(svc *service.CurrencyService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/currencies/rates")
		defer span.End()

		writeJSON(w, http.StatusOK, svc.Rates(ctx))
	}
}

func convertHandler(svc *service.CurrencyService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/currencies/convert")
		defer span.End()

		amount, err := queryFloat(r, "amount")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		q := r.URL.Query()
		from, to := q.Get("from"), q.Get("to")
		if from == "" || to == "" {
			handleServiceError(w, &domain.ErrValidation{Field: "from/to", Message: "both currencies are required"}, logger)
			return
		}

		result, err := svc.Convert(ctx, amount, from, to)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

type formatResponse struct {
	Amount    float64 `json:"amount"`
	Symbol    string  `json:"symbol"`
	Formatted string  `json:"formatted"`
}

func formatHandler(svc *service.CurrencyService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		amount, err := queryFloat(r, "amount")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		symbol := r.URL.Query().Get("symbol")
		if symbol == "" {
			symbol = "$"
		}
		writeJSON(w, http.StatusOK, formatResponse{
			Amount:    amount,
			Symbol:    symbol,
			Formatted: svc.FormatCurrency(amount, symbol),
		})
	}
}
