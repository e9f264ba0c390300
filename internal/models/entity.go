// Package models provides data model definitions for the moniesync offline core.
package models

import "fmt"

// EntityType identifies one of the resource families the offline layer
// knows how to synthesize placeholders for. The set is closed.
type EntityType string

const (
	EntityTransaction        EntityType = "transaction"
	EntityPlannedTransaction EntityType = "planned_transaction"
	EntityCurrencyExchange   EntityType = "currency_exchange"
	EntityCategory           EntityType = "category"
	EntityBudgetPeriod       EntityType = "budget_period"
)

// EntityTypes lists every known entity type.
func EntityTypes() []EntityType {
	return []EntityType{
		EntityTransaction,
		EntityPlannedTransaction,
		EntityCurrencyExchange,
		EntityCategory,
		EntityBudgetPeriod,
	}
}

// ParseEntityType validates a stored entity type string.
func ParseEntityType(s string) (EntityType, error) {
	for _, et := range EntityTypes() {
		if s == string(et) {
			return et, nil
		}
	}
	return "", fmt.Errorf("unknown entity type: %q", s)
}

// CreatePayload is implemented by the typed creation schemas of every
// entity family the applier can build a placeholder for.
type CreatePayload interface {
	Entity() EntityType

	// PeriodID returns the budget period the record is scoped to,
	// or 0 when the payload carries no period scope.
	PeriodID() int64
}
