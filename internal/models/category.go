// Package models provides data model definitions for the moniesync offline core.
package models

// CategoryCreate is the creation schema for a category.
type CategoryCreate struct {
	Name           string `json:"name"`
	BudgetPeriodID int64  `json:"budget_period_id"`
}

// Entity implements CreatePayload.
func (CategoryCreate) Entity() EntityType { return EntityCategory }

// PeriodID implements CreatePayload.
func (c CategoryCreate) PeriodID() int64 { return c.BudgetPeriodID }

// Category is the server representation of a category. The applier embeds
// a resolved Category into transaction placeholders when the period's
// category list is already cached.
type Category struct {
	ID             int64  `json:"id"`
	BudgetPeriodID int64  `json:"budget_period_id"`
	Name           string `json:"name"`
	CreatedAt      string `json:"created_at,omitempty"`
}
