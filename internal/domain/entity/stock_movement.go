package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType clasifica la causa de un movimiento de stock.
type MovementType string

const (
	MovementCount            MovementType = "count"
	MovementReceipt          MovementType = "receipt"
	MovementUsage            MovementType = "usage"
	MovementTransfer         MovementType = "transfer"
	MovementAdjustment       MovementType = "adjustment"
	MovementWaste            MovementType = "waste"
	MovementOrderReceived    MovementType = "order_received"
	MovementConsumption      MovementType = "consumption"
	MovementExpired          MovementType = "expired"
	MovementManualAdjustment MovementType = "manual_adjustment"
	MovementCorrection       MovementType = "correction"
)

// Valid indica si el tipo de movimiento es conocido.
func (t MovementType) Valid() bool {
	switch t {
	case MovementCount, MovementReceipt, MovementUsage, MovementTransfer,
		MovementAdjustment, MovementWaste, MovementOrderReceived,
		MovementConsumption, MovementExpired, MovementManualAdjustment,
		MovementCorrection:
		return true
	}
	return false
}

// StockMovement es una entrada inmutable del ledger: nunca se actualiza ni se
// borra; las correcciones se registran como movimientos nuevos de tipo
// correction. Invariante: QuantityAfter = QuantityBefore + QuantityChange.
type StockMovement struct {
	ID             string
	OrganizationID string
	LocationID     string
	ProductID      string
	Type           MovementType
	QuantityChange decimal.Decimal // con signo: positivo entra, negativo sale
	QuantityBefore decimal.Decimal
	QuantityAfter  decimal.Decimal
	ReferenceType  string // order, count, transfer, ... (opcional)
	ReferenceID    string
	Reason         string
	Notes          string
	BatchNumber    string
	ExpiryDate     *time.Time
	CreatedBy      string
	CreatedAt      time.Time
}

// Consistent verifica el invariante aritmético del asiento.
func (m *StockMovement) Consistent() bool {
	return m.QuantityBefore.Add(m.QuantityChange).Equal(m.QuantityAfter)
}
