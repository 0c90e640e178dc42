package repository

import (
	"time"

	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
)

// OrderDraftRepository define el puerto de borradores de pedido en espera de
// aprobación.
type OrderDraftRepository interface {
	Create(draft *entity.OrderDraft) error
	GetByID(orgID, id string) (*entity.OrderDraft, error)
	Decide(orgID, id string, status entity.DraftStatus, decidedBy string, at time.Time) error
	ListPending(orgID string) ([]*entity.OrderDraft, error)
}
