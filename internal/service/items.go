package service

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/lifecompass/finance-bfa-go/internal/domain"
	"github.com/lifecompass/finance-bfa-go/internal/finance"

	"github.com/google/uuid"
)

type itemOp int

const (
	opAdd itemOp = iota
	opUpdate
	opDelete
)

// applyItem dispatches an add/update/delete to the typed collection.
func applyItem(rs *domain.FinancialRecordSet, collection, itemID string, raw []byte, op itemOp) (string, error) {
	switch collection {
	case domain.CollectionIncome:
		return apply(&rs.IncomeSources, collection, itemID, raw, op,
			func(it *domain.IncomeSource) *string { return &it.ID }, validateIncome)
	case domain.CollectionExpenses:
		return apply(&rs.Expenses, collection, itemID, raw, op,
			func(it *domain.Expense) *string { return &it.ID }, validateExpense)
	case domain.CollectionSavings:
		return apply(&rs.Savings, collection, itemID, raw, op,
			func(it *domain.SavingsAccount) *string { return &it.ID }, validateSavings)
	case domain.CollectionDebts:
		return apply(&rs.Debts, collection, itemID, raw, op,
			func(it *domain.Debt) *string { return &it.ID }, validateDebt)
	}
	return "", &domain.ErrValidation{
		Field:   "collection",
		Message: "must be incomeSources, expenses, savings or debts",
	}
}

func apply[T any](
	list *[]T,
	collection, itemID string,
	raw []byte,
	op itemOp,
	idOf func(*T) *string,
	validate func(field string, item *T) error,
) (string, error) {
	idx := -1
	if op != opAdd {
		for i := range *list {
			if *idOf(&(*list)[i]) == itemID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return "", &domain.ErrNotFound{Resource: collection, ID: itemID}
		}
	}

	if op == opDelete {
		*list = append((*list)[:idx], (*list)[idx+1:]...)
		return itemID, nil
	}

	var item T
	if err := json.Unmarshal(raw, &item); err != nil {
		return "", &domain.ErrValidation{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	if err := validate(collection, &item); err != nil {
		return "", err
	}

	id := idOf(&item)
	switch op {
	case opAdd:
		if *id == "" {
			*id = uuid.NewString()
		}
		for i := range *list {
			if *idOf(&(*list)[i]) == *id {
				return "", &domain.ErrValidation{Field: "id", Message: fmt.Sprintf("%s already has an item %q", collection, *id)}
			}
		}
		*list = append(*list, item)
	case opUpdate:
		*id = itemID
		(*list)[idx] = item
	}
	return *id, nil
}

// validateRecordSet checks a whole set before it replaces stored records.
// Missing IDs are filled in.
func validateRecordSet(rs *domain.FinancialRecordSet) error {
	if rs.Currency != "" {
		if _, ok := LookupCurrency(rs.Currency); !ok {
			return &domain.ErrUnsupportedCurrency{Currency: rs.Currency}
		}
	}
	for i := range rs.IncomeSources {
		if err := validateIncome(fmt.Sprintf("%s[%d]", domain.CollectionIncome, i), &rs.IncomeSources[i]); err != nil {
			return err
		}
		fillID(&rs.IncomeSources[i].ID)
	}
	for i := range rs.Expenses {
		if err := validateExpense(fmt.Sprintf("%s[%d]", domain.CollectionExpenses, i), &rs.Expenses[i]); err != nil {
			return err
		}
		fillID(&rs.Expenses[i].ID)
	}
	for i := range rs.Savings {
		if err := validateSavings(fmt.Sprintf("%s[%d]", domain.CollectionSavings, i), &rs.Savings[i]); err != nil {
			return err
		}
		fillID(&rs.Savings[i].ID)
	}
	for i := range rs.Debts {
		if err := validateDebt(fmt.Sprintf("%s[%d]", domain.CollectionDebts, i), &rs.Debts[i]); err != nil {
			return err
		}
		fillID(&rs.Debts[i].ID)
	}
	return nil
}

func fillID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

func validateName(field, name string) error {
	if strings.TrimSpace(name) == "" {
		return &domain.ErrValidation{Field: field + ".name", Message: "name is required"}
	}
	return nil
}

// validateAmount accepts strictly positive, finite amounts only.
func validateAmount(field string, a domain.Amount) error {
	v, err := finance.ParseAmount(finance.Strict, field+".amount", a)
	if err != nil {
		return err
	}
	if v <= 0 {
		return &domain.ErrValidation{Field: field + ".amount", Message: "amount must be greater than zero"}
	}
	return nil
}

func validateIncome(field string, it *domain.IncomeSource) error {
	if err := validateName(field, it.Name); err != nil {
		return err
	}
	if err := validateAmount(field, it.Amount); err != nil {
		return err
	}
	if !it.Type.Valid() {
		return &domain.ErrValidation{Field: field + ".type", Message: "must be primary, side, passive, one-off or other"}
	}
	return nil
}

func validateExpense(field string, it *domain.Expense) error {
	if err := validateName(field, it.Name); err != nil {
		return err
	}
	if err := validateAmount(field, it.Amount); err != nil {
		return err
	}
	if !it.Type.Valid() {
		return &domain.ErrValidation{Field: field + ".type", Message: "must be recurring or one-off"}
	}
	if it.Category == "" {
		it.Category = domain.CategoryOther
	}
	if !it.Category.Valid() {
		return &domain.ErrValidation{Field: field + ".category", Message: "must be housing, food, transport, utilities, entertainment or other"}
	}
	return nil
}

func validateSavings(field string, it *domain.SavingsAccount) error {
	if err := validateName(field, it.Name); err != nil {
		return err
	}
	if err := validateAmount(field, it.Amount); err != nil {
		return err
	}
	if !it.Type.Valid() {
		return &domain.ErrValidation{Field: field + ".type", Message: "must be emergency, investment or general"}
	}
	return nil
}

func validateDebt(field string, it *domain.Debt) error {
	if err := validateName(field, it.Name); err != nil {
		return err
	}
	if err := validateAmount(field, it.Amount); err != nil {
		return err
	}
	if it.InterestRate < 0 || math.IsNaN(it.InterestRate) || math.IsInf(it.InterestRate, 0) {
		return &domain.ErrValidation{Field: field + ".interestRate", Message: "must be zero or greater"}
	}
	return nil
}
