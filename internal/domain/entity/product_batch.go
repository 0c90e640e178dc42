package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductBatch es un lote con fecha de vencimiento en una ubicación.
// El consumo sigue FEFO: primero vence, primero sale.
type ProductBatch struct {
	ID              string
	OrganizationID  string
	LocationID      string
	ProductID       string
	BatchNumber     string
	ExpiryDate      time.Time
	CurrentQuantity decimal.Decimal
	CreatedAt       time.Time
}

// Expired indica si el lote ya venció respecto a now.
func (b *ProductBatch) Expired(now time.Time) bool {
	return b.ExpiryDate.Before(now)
}

// DaysUntilExpiry devuelve los días (truncados) hasta el vencimiento;
// negativo si ya venció.
func (b *ProductBatch) DaysUntilExpiry(now time.Time) int {
	return int(b.ExpiryDate.Sub(now).Hours() / 24)
}
