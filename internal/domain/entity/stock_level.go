package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockLevel es la proyección de stock por (organización, ubicación,
// producto). El ledger de movimientos es la fuente de verdad; esta fila se
// mantiene consistente con él dentro de la misma transacción.
type StockLevel struct {
	OrganizationID      string
	LocationID          string
	ProductID           string
	CurrentQuantity     decimal.Decimal
	ReservedQuantity    decimal.Decimal // comprometida en pedidos enviados aún no entregados
	MinimumQuantity     decimal.Decimal
	MaximumQuantity     decimal.Decimal // cero = sin máximo
	ReorderPoint        decimal.Decimal // cero = se usa el mínimo
	PreferredSupplierID string
	LastMovementAt      *time.Time
	UpdatedAt           time.Time
}

// AvailableQuantity devuelve lo disponible: actual menos reservado.
func (l *StockLevel) AvailableQuantity() decimal.Decimal {
	return l.CurrentQuantity.Sub(l.ReservedQuantity)
}

// BelowMinimum indica si el stock actual está bajo el mínimo.
func (l *StockLevel) BelowMinimum() bool {
	return l.CurrentQuantity.LessThan(l.MinimumQuantity)
}

// BelowReorderPoint indica si el stock cruzó el punto de repedido; sin punto
// de repedido configurado se usa el mínimo.
func (l *StockLevel) BelowReorderPoint() bool {
	threshold := l.ReorderPoint
	if threshold.IsZero() {
		threshold = l.MinimumQuantity
	}
	return l.CurrentQuantity.LessThan(threshold)
}

// OverMaximum indica si el stock supera el máximo configurado.
func (l *StockLevel) OverMaximum() bool {
	return l.MaximumQuantity.IsPositive() && l.CurrentQuantity.GreaterThan(l.MaximumQuantity)
}
