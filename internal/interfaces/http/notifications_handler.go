package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/medstock-pro/internal/application/dto"
	"github.com/tu-usuario/medstock-pro/internal/domain/repository"
)

// NotificationsHandler lista las solicitudes de notificación registradas por
// el motor; la entrega la hace un sistema externo.
type NotificationsHandler struct {
	repo repository.NotificationRepository
}

// NewNotificationsHandler construye el handler.
func NewNotificationsHandler(repo repository.NotificationRepository) *NotificationsHandler {
	return &NotificationsHandler{repo: repo}
}

// List godoc
// @Summary      Notificaciones recientes de la organización
// @Tags         notifications
// @Security     Bearer
// @Produce      json
// @Param        limit  query  int  false  "Máximo de filas (default 50)"
// @Success      200  {array}   dto.NotificationResponse
// @Router       /api/notifications [get]
func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	list, err := h.repo.ListByOrganization(GetOrganizationID(c), limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromNotifications(list))
}
