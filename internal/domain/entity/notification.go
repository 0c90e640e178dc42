package entity

import "time"

// NotificationCategory agrupa las notificaciones del motor.
type NotificationCategory string

const (
	NotificationStockAlert  NotificationCategory = "stock_alert"
	NotificationOrderUpdate NotificationCategory = "order_update"
	NotificationApproval    NotificationCategory = "approval_required"
	NotificationSystem      NotificationCategory = "system"
)

// NotificationPriority es la urgencia de la notificación.
type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "low"
	PriorityMedium NotificationPriority = "medium"
	PriorityHigh   NotificationPriority = "high"
	PriorityUrgent NotificationPriority = "urgent"
)

// Notification es una solicitud de notificación registrada por el motor.
// La entrega (email, push, campana) es responsabilidad de un sistema externo
// que consume estas filas.
type Notification struct {
	ID             string
	OrganizationID string
	Category       NotificationCategory
	Priority       NotificationPriority
	Title          string
	Message        string
	ActionURL      string
	CreatedAt      time.Time
}
