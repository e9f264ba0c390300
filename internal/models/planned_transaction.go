// Package models provides data model definitions for the moniesync offline core.
package models

import "github.com/shopspring/decimal"

// PlannedTransactionCreate is the creation schema for a planned transaction.
type PlannedTransactionCreate struct {
	Name           string          `json:"name"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	CategoryID     *int64          `json:"category_id,omitempty"`
	PlannedDate    string          `json:"planned_date"`
	Status         string          `json:"status"` // pending, done, cancelled
	BudgetPeriodID *int64          `json:"budget_period_id,omitempty"`
}

// Entity implements CreatePayload.
func (PlannedTransactionCreate) Entity() EntityType { return EntityPlannedTransaction }

// PeriodID implements CreatePayload.
func (p PlannedTransactionCreate) PeriodID() int64 {
	if p.BudgetPeriodID == nil {
		return 0
	}
	return *p.BudgetPeriodID
}

// ReferencedCategory returns the category id the payload points at, if any.
func (p PlannedTransactionCreate) ReferencedCategory() (int64, bool) {
	if p.CategoryID == nil {
		return 0, false
	}
	return *p.CategoryID, true
}
