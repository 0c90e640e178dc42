package repository

import "github.com/tu-usuario/medstock-pro/internal/domain/entity"

// NotificationRepository registra solicitudes de notificación; la entrega la
// hace un sistema externo que consume estas filas.
type NotificationRepository interface {
	Create(n *entity.Notification) error
	ListByOrganization(orgID string, limit int) ([]*entity.Notification, error)
}
