// Package models provides data model definitions for the moniesync offline core.
package models

// BudgetPeriodCreate is the creation schema for a budget period.
type BudgetPeriodCreate struct {
	Name            string `json:"name"`
	StartDate       string `json:"start_date"`
	EndDate         string `json:"end_date"`
	Weeks           *int   `json:"weeks,omitempty"`
	BudgetAccountID int64  `json:"budget_account_id"`
}

// Entity implements CreatePayload.
func (BudgetPeriodCreate) Entity() EntityType { return EntityBudgetPeriod }

// PeriodID implements CreatePayload. A period is not scoped to another
// period; placeholders land in the account-wide period list.
func (BudgetPeriodCreate) PeriodID() int64 { return 0 }
