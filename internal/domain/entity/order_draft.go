package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// DraftStatus es el estado de un borrador de pedido pendiente de aprobación.
type DraftStatus string

const (
	DraftPendingApproval DraftStatus = "pending_approval"
	DraftApproved        DraftStatus = "approved"
	DraftRejected        DraftStatus = "rejected"
)

// OrderDraft es la lista de pedido que la automatización deja en espera de
// aprobación humana cuando el auto-aprobado está apagado o el total supera
// el tope de la organización.
type OrderDraft struct {
	ID             string
	OrganizationID string
	Status         DraftStatus
	Items          []OrderDraftItem
	EstimatedTotal decimal.Decimal
	Reason         string // por qué se exigió aprobación
	CreatedAt      time.Time
	DecidedAt      *time.Time
	DecidedBy      string
}

// OrderDraftItem es una línea sugerida del borrador.
type OrderDraftItem struct {
	ProductID         string
	ProductName       string
	LocationID        string
	SuggestedQuantity decimal.Decimal
	Urgency           string
	EstimatedCost     decimal.Decimal
}
