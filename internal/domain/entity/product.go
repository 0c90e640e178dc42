package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product es un artículo de inventario (insumo o medicamento).
type Product struct {
	ID             string
	OrganizationID string
	SKU            string
	Name           string
	Unit           string
	Price          decimal.Decimal
	RequiresBatch  bool // exige lote y fecha de vencimiento en cada movimiento
	Active         bool
	CreatedAt      time.Time
}
