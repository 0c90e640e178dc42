package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/medstock-pro/internal/application/reorder"
	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
)

// SuggestionResponse es una línea de reposición sugerida.
type SuggestionResponse struct {
	ProductID         string          `json:"product_id"`
	ProductName       string          `json:"product_name"`
	SKU               string          `json:"sku,omitempty"`
	LocationID        string          `json:"location_id"`
	CurrentQuantity   decimal.Decimal `json:"current_quantity"`
	MinimumQuantity   decimal.Decimal `json:"minimum_quantity"`
	SuggestedQuantity decimal.Decimal `json:"suggested_quantity"`
	Urgency           string          `json:"urgency"`
	SoonestExpiry     *time.Time      `json:"soonest_expiry,omitempty"`
	PreferredSupplier string          `json:"preferred_supplier,omitempty"`
}

// FromSuggestions mapea las sugerencias del calculador de reposición.
func FromSuggestions(list []reorder.Suggestion) []SuggestionResponse {
	out := make([]SuggestionResponse, 0, len(list))
	for _, s := range list {
		out = append(out, SuggestionResponse{
			ProductID:         s.ProductID,
			ProductName:       s.ProductName,
			SKU:               s.SKU,
			LocationID:        s.LocationID,
			CurrentQuantity:   s.CurrentQuantity,
			MinimumQuantity:   s.MinimumQuantity,
			SuggestedQuantity: s.SuggestedQuantity,
			Urgency:           string(s.Urgency),
			SoonestExpiry:     s.SoonestExpiry,
			PreferredSupplier: s.PreferredSupplier,
		})
	}
	return out
}

// UpdateOrderStatusRequest aplica una transición de estado a un pedido.
type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}

// ItemReceivedRequest registra la cantidad realmente entregada de una línea.
type ItemReceivedRequest struct {
	QuantityReceived decimal.Decimal `json:"quantity_received"`
}

// OrderItemResponse es una línea de pedido a proveedor.
type OrderItemResponse struct {
	ID               string           `json:"id"`
	ProductID        string           `json:"product_id"`
	LocationID       string           `json:"location_id"`
	SupplierSKU      string           `json:"supplier_sku,omitempty"`
	ProductName      string           `json:"product_name"`
	Quantity         decimal.Decimal  `json:"quantity"`
	QuantityReceived *decimal.Decimal `json:"quantity_received,omitempty"`
	UnitPrice        decimal.Decimal  `json:"unit_price"`
	LineTotal        decimal.Decimal  `json:"line_total"`
	AdjustmentNote   string           `json:"adjustment_note,omitempty"`
}

// OrderResponse es la proyección JSON de un pedido a proveedor.
type OrderResponse struct {
	ID               string              `json:"id"`
	OrganizationID   string              `json:"organization_id"`
	SupplierID       string              `json:"supplier_id"`
	Reference        string              `json:"reference,omitempty"`
	Status           string              `json:"status"`
	Subtotal         decimal.Decimal     `json:"subtotal"`
	ShippingCost     decimal.Decimal     `json:"shipping_cost"`
	Total            decimal.Decimal     `json:"total"`
	BelowMinimum     bool                `json:"below_minimum"`
	MethodUsed       string              `json:"method_used,omitempty"`
	ExpectedDelivery *time.Time          `json:"expected_delivery,omitempty"`
	SentAt           *time.Time          `json:"sent_at,omitempty"`
	DeliveredAt      *time.Time          `json:"delivered_at,omitempty"`
	StockProcessedAt *time.Time          `json:"stock_processed_at,omitempty"`
	Items            []OrderItemResponse `json:"items"`
	CreatedAt        time.Time           `json:"created_at"`
}

// FromOrder mapea la entidad del pedido a su respuesta JSON.
func FromOrder(o *entity.SupplierOrder) OrderResponse {
	resp := OrderResponse{
		ID:               o.ID,
		OrganizationID:   o.OrganizationID,
		SupplierID:       o.SupplierID,
		Reference:        o.Reference,
		Status:           string(o.Status),
		Subtotal:         o.Subtotal,
		ShippingCost:     o.ShippingCost,
		Total:            o.Total,
		BelowMinimum:     o.BelowMinimum,
		MethodUsed:       string(o.MethodUsed),
		ExpectedDelivery: o.ExpectedDelivery,
		SentAt:           o.SentAt,
		DeliveredAt:      o.DeliveredAt,
		StockProcessedAt: o.StockProcessedAt,
		Items:            make([]OrderItemResponse, 0, len(o.Items)),
		CreatedAt:        o.CreatedAt,
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, OrderItemResponse{
			ID:               it.ID,
			ProductID:        it.ProductID,
			LocationID:       it.LocationID,
			SupplierSKU:      it.SupplierSKU,
			ProductName:      it.ProductName,
			Quantity:         it.Quantity,
			QuantityReceived: it.QuantityReceived,
			UnitPrice:        it.UnitPrice,
			LineTotal:        it.LineTotal,
			AdjustmentNote:   it.AdjustmentNote,
		})
	}
	return resp
}

// FromOrders mapea una lista de pedidos.
func FromOrders(list []*entity.SupplierOrder) []OrderResponse {
	out := make([]OrderResponse, 0, len(list))
	for _, o := range list {
		out = append(out, FromOrder(o))
	}
	return out
}

// SendResultResponse es el desenlace del envío de un pedido.
type SendResultResponse struct {
	OrderReference string    `json:"order_reference,omitempty"`
	SupplierID     string    `json:"supplier_id"`
	Success        bool      `json:"success"`
	MethodUsed     string    `json:"method_used,omitempty"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	Warning        string    `json:"warning,omitempty"`
	SentAt         time.Time `json:"sent_at"`
}

// FromSendResults mapea los desenlaces de envío (los nil se omiten).
func FromSendResults(list []*entity.OrderSendingResult) []SendResultResponse {
	out := make([]SendResultResponse, 0, len(list))
	for _, r := range list {
		if r == nil {
			continue
		}
		out = append(out, SendResultResponse{
			OrderReference: r.OrderReference,
			SupplierID:     r.SupplierID,
			Success:        r.Success,
			MethodUsed:     string(r.MethodUsed),
			ErrorMessage:   r.ErrorMessage,
			Warning:        r.Warning,
			SentAt:         r.SentAt,
		})
	}
	return out
}

// DraftItemResponse es una línea sugerida de un borrador de pedido.
type DraftItemResponse struct {
	ProductID         string          `json:"product_id"`
	ProductName       string          `json:"product_name"`
	LocationID        string          `json:"location_id"`
	SuggestedQuantity decimal.Decimal `json:"suggested_quantity"`
	Urgency           string          `json:"urgency,omitempty"`
	EstimatedCost     decimal.Decimal `json:"estimated_cost"`
}

// DraftResponse es un borrador de pedido pendiente de aprobación.
type DraftResponse struct {
	ID             string              `json:"id"`
	OrganizationID string              `json:"organization_id"`
	Status         string              `json:"status"`
	Items          []DraftItemResponse `json:"items"`
	EstimatedTotal decimal.Decimal     `json:"estimated_total"`
	Reason         string              `json:"reason,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	DecidedAt      *time.Time          `json:"decided_at,omitempty"`
	DecidedBy      string              `json:"decided_by,omitempty"`
}

// FromDraft mapea un borrador a su respuesta JSON.
func FromDraft(d *entity.OrderDraft) DraftResponse {
	resp := DraftResponse{
		ID:             d.ID,
		OrganizationID: d.OrganizationID,
		Status:         string(d.Status),
		Items:          make([]DraftItemResponse, 0, len(d.Items)),
		EstimatedTotal: d.EstimatedTotal,
		Reason:         d.Reason,
		CreatedAt:      d.CreatedAt,
		DecidedAt:      d.DecidedAt,
		DecidedBy:      d.DecidedBy,
	}
	for _, it := range d.Items {
		resp.Items = append(resp.Items, DraftItemResponse{
			ProductID:         it.ProductID,
			ProductName:       it.ProductName,
			LocationID:        it.LocationID,
			SuggestedQuantity: it.SuggestedQuantity,
			Urgency:           it.Urgency,
			EstimatedCost:     it.EstimatedCost,
		})
	}
	return resp
}

// FromDrafts mapea una lista de borradores.
func FromDrafts(list []*entity.OrderDraft) []DraftResponse {
	out := make([]DraftResponse, 0, len(list))
	for _, d := range list {
		out = append(out, FromDraft(d))
	}
	return out
}

// NotificationResponse es una solicitud de notificación registrada por el motor.
type NotificationResponse struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Category       string    `json:"category"`
	Priority       string    `json:"priority"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	ActionURL      string    `json:"action_url,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// FromNotifications mapea las solicitudes de notificación.
func FromNotifications(list []*entity.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(list))
	for _, n := range list {
		out = append(out, NotificationResponse{
			ID:             n.ID,
			OrganizationID: n.OrganizationID,
			Category:       string(n.Category),
			Priority:       string(n.Priority),
			Title:          n.Title,
			Message:        n.Message,
			ActionURL:      n.ActionURL,
			CreatedAt:      n.CreatedAt,
		})
	}
	return out
}
