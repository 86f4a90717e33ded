package finance

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/lifecompass/finance-bfa-go/internal/domain"

	"github.com/shopspring/decimal"
)

// ParseMode selects how amounts are read at the aggregation boundary.
type ParseMode int

const (
	// Strict rejects empty, non-numeric, negative and non-finite amounts.
	Strict ParseMode = iota
	// Lenient reads the longest numeric prefix and yields NaN when there is none.
	// NaN then propagates through every sum it touches.
	Lenient
)

func (m ParseMode) String() string {
	if m == Lenient {
		return "lenient"
	}
	return "strict"
}

// ParseModeFromString maps a config value to a ParseMode.
func ParseModeFromString(s string) (ParseMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return Strict, nil
	case "lenient":
		return Lenient, nil
	}
	return Strict, &domain.ErrValidation{Field: "parse_mode", Message: "must be strict or lenient"}
}

var numericPrefix = regexp.MustCompile(`^[+-]?(Infinity|(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?)`)

// parseLenient follows float-parse semantics: leading whitespace is skipped,
// trailing garbage is ignored, and no numeric prefix means NaN.
func parseLenient(s string) float64 {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	m := numericPrefix.FindString(s)
	if m == "" {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && numErr.Err == strconv.ErrRange {
			return f
		}
		return math.NaN()
	}
	return f
}

// maxExponent bounds the decimal exponent accepted before conversion.
// float64 spans roughly 1e-324 to 1e308.
const maxExponent = 400

// InFloatRange reports whether d can be converted to a finite float64
// without expanding a huge power of ten.
func InFloatRange(d decimal.Decimal) bool {
	exp := int(d.Exponent())
	if exp < -maxExponent || exp > maxExponent {
		return false
	}
	return d.NumDigits()+exp <= 309
}

func parseStrict(field, s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, &domain.ErrValidation{Field: field, Message: "amount is required"}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, &domain.ErrValidation{Field: field, Message: "amount must be a number"}
	}
	if d.IsNegative() {
		return 0, &domain.ErrValidation{Field: field, Message: "amount must not be negative"}
	}
	if !InFloatRange(d) {
		return 0, &domain.ErrValidation{Field: field, Message: "amount is out of range"}
	}
	f := d.InexactFloat64()
	if math.IsInf(f, 0) {
		return 0, &domain.ErrValidation{Field: field, Message: "amount must be finite"}
	}
	return f, nil
}

// ParseAmount reads a single amount under the given mode. Lenient never fails.
func ParseAmount(mode ParseMode, field string, a domain.Amount) (float64, error) {
	if mode == Lenient {
		return parseLenient(string(a)), nil
	}
	return parseStrict(field, string(a))
}
