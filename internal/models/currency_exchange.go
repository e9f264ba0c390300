// Package models provides data model definitions for the moniesync offline core.
package models

import "github.com/shopspring/decimal"

// CurrencyExchangeCreate is the creation schema for a currency exchange.
type CurrencyExchangeCreate struct {
	Date         string          `json:"date"`
	Description  string          `json:"description,omitempty"`
	FromCurrency string          `json:"from_currency"`
	FromAmount   decimal.Decimal `json:"from_amount"`
	ToCurrency   string          `json:"to_currency"`
	ToAmount     decimal.Decimal `json:"to_amount"`
}

// Entity implements CreatePayload.
func (CurrencyExchangeCreate) Entity() EntityType { return EntityCurrencyExchange }

// PeriodID implements CreatePayload. Exchanges are created against the
// active period on the server side, so the payload carries no scope.
func (CurrencyExchangeCreate) PeriodID() int64 { return 0 }

// Rate returns the implied exchange rate, or zero when FromAmount is zero.
func (c CurrencyExchangeCreate) Rate() decimal.Decimal {
	if c.FromAmount.IsZero() {
		return decimal.Zero
	}
	return c.ToAmount.Div(c.FromAmount)
}
