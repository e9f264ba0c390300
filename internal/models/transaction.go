// Package models provides data model definitions for the moniesync offline core.
package models

import "github.com/shopspring/decimal"

// TransactionCreate is the creation schema for a transaction.
// Field shapes mirror the server's POST /transactions contract.
type TransactionCreate struct {
	Date           string          `json:"date"`
	Description    string          `json:"description"`
	CategoryID     *int64          `json:"category_id,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Type           string          `json:"type"` // income, expense
	BudgetPeriodID *int64          `json:"budget_period_id,omitempty"`
}

// Entity implements CreatePayload.
func (TransactionCreate) Entity() EntityType { return EntityTransaction }

// PeriodID implements CreatePayload.
func (t TransactionCreate) PeriodID() int64 {
	if t.BudgetPeriodID == nil {
		return 0
	}
	return *t.BudgetPeriodID
}

// ReferencedCategory returns the category id the payload points at, if any.
func (t TransactionCreate) ReferencedCategory() (int64, bool) {
	if t.CategoryID == nil {
		return 0, false
	}
	return *t.CategoryID, true
}
