package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
)

// RecordMovementRequest registra un movimiento arbitrario del ledger.
// quantity_change lleva signo: positivo entra, negativo sale.
type RecordMovementRequest struct {
	LocationID     string          `json:"location_id"`
	ProductID      string          `json:"product_id"`
	Type           string          `json:"type"`
	QuantityChange decimal.Decimal `json:"quantity_change"`
	ReferenceType  string          `json:"reference_type,omitempty"`
	ReferenceID    string          `json:"reference_id,omitempty"`
	Reason         string          `json:"reason,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	BatchNumber    string          `json:"batch_number,omitempty"`
	ExpiryDate     *time.Time      `json:"expiry_date,omitempty"`
	AllowNegative  bool            `json:"allow_negative,omitempty"`
}

// CountRequest registra un conteo físico; el ajuste es la diferencia contra
// la proyección actual.
type CountRequest struct {
	LocationID      string          `json:"location_id"`
	ProductID       string          `json:"product_id"`
	CountedQuantity decimal.Decimal `json:"counted_quantity"`
	Notes           string          `json:"notes,omitempty"`
}

// ConsumptionRequest registra el uso clínico de un producto (salida).
type ConsumptionRequest struct {
	LocationID string          `json:"location_id"`
	ProductID  string          `json:"product_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	Reason     string          `json:"reason,omitempty"`
}

// ReceiptRequest registra una recepción de mercancía (entrada).
type ReceiptRequest struct {
	LocationID  string          `json:"location_id"`
	ProductID   string          `json:"product_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	BatchNumber string          `json:"batch_number,omitempty"`
	ExpiryDate  *time.Time      `json:"expiry_date,omitempty"`
}

// TransferRequest mueve cantidad entre dos ubicaciones de la organización.
type TransferRequest struct {
	FromLocationID string          `json:"from_location_id"`
	ToLocationID   string          `json:"to_location_id"`
	ProductID      string          `json:"product_id"`
	Quantity       decimal.Decimal `json:"quantity"`
}

// WriteOffRequest da de baja un lote vencido.
type WriteOffRequest struct {
	LocationID  string          `json:"location_id"`
	ProductID   string          `json:"product_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	BatchNumber string          `json:"batch_number,omitempty"`
}

// ReservationRequest ajusta la cantidad reservada de una clave de stock.
// delta positivo reserva, negativo libera.
type ReservationRequest struct {
	LocationID string          `json:"location_id"`
	ProductID  string          `json:"product_id"`
	Delta      decimal.Decimal `json:"delta"`
}

// MovementResponse es la proyección JSON de un asiento del ledger.
type MovementResponse struct {
	ID             string          `json:"id"`
	OrganizationID string          `json:"organization_id"`
	LocationID     string          `json:"location_id"`
	ProductID      string          `json:"product_id"`
	Type           string          `json:"type"`
	QuantityChange decimal.Decimal `json:"quantity_change"`
	QuantityBefore decimal.Decimal `json:"quantity_before"`
	QuantityAfter  decimal.Decimal `json:"quantity_after"`
	ReferenceType  string          `json:"reference_type,omitempty"`
	ReferenceID    string          `json:"reference_id,omitempty"`
	Reason         string          `json:"reason,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	BatchNumber    string          `json:"batch_number,omitempty"`
	ExpiryDate     *time.Time      `json:"expiry_date,omitempty"`
	CreatedBy      string          `json:"created_by"`
	CreatedAt      time.Time       `json:"created_at"`
}

// FromMovement mapea la entidad del ledger a su respuesta JSON.
func FromMovement(m *entity.StockMovement) MovementResponse {
	return MovementResponse{
		ID:             m.ID,
		OrganizationID: m.OrganizationID,
		LocationID:     m.LocationID,
		ProductID:      m.ProductID,
		Type:           string(m.Type),
		QuantityChange: m.QuantityChange,
		QuantityBefore: m.QuantityBefore,
		QuantityAfter:  m.QuantityAfter,
		ReferenceType:  m.ReferenceType,
		ReferenceID:    m.ReferenceID,
		Reason:         m.Reason,
		Notes:          m.Notes,
		BatchNumber:    m.BatchNumber,
		ExpiryDate:     m.ExpiryDate,
		CreatedBy:      m.CreatedBy,
		CreatedAt:      m.CreatedAt,
	}
}

// FromMovements mapea una lista de asientos.
func FromMovements(list []*entity.StockMovement) []MovementResponse {
	out := make([]MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, FromMovement(m))
	}
	return out
}
