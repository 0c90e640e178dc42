package automation

import (
	"context"
	"fmt"

	"github.com/tu-usuario/medstock-pro/internal/application/reorder"
	"github.com/tu-usuario/medstock-pro/internal/domain"
	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
	"github.com/tu-usuario/medstock-pro/internal/domain/inventory"
)

// Run ejecuta la corrida de reposición para la organización del contexto.
// Es la variante bajo demanda (ruta HTTP) de RunForOrganization.
func (uc *UseCase) Run(ctx context.Context, orgCtx domain.OrganizationContext) (*RunResult, error) {
	if !orgCtx.Valid() {
		return nil, domain.NewValidationError("organization_id", "requerido")
	}
	org, err := uc.orgRepo.GetByID(orgCtx.OrganizationID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, domain.NewReferenceError("organization", orgCtx.OrganizationID)
	}
	return uc.RunForOrganization(ctx, org)
}

// PendingDrafts lista los borradores en espera de aprobación.
func (uc *UseCase) PendingDrafts(ctx context.Context, orgCtx domain.OrganizationContext) ([]*entity.OrderDraft, error) {
	if !orgCtx.Valid() {
		return nil, domain.NewValidationError("organization_id", "requerido")
	}
	return uc.draftRepo.ListPending(orgCtx.OrganizationID)
}

// ApproveDraft aprueba un borrador pendiente y despacha los pedidos que salen
// de sus líneas: particionado por proveedor y envío, igual que la corrida
// automática. El Decide guardado en SQL hace la aprobación idempotente: un
// segundo intento devuelve ErrConflict sin re-despachar.
func (uc *UseCase) ApproveDraft(ctx context.Context, orgCtx domain.OrganizationContext, draftID string) ([]*entity.OrderSendingResult, error) {
	if !orgCtx.Valid() || draftID == "" {
		return nil, domain.NewValidationError("draft_id", "requerido")
	}
	draft, err := uc.draftRepo.GetByID(orgCtx.OrganizationID, draftID)
	if err != nil {
		return nil, err
	}
	if err := uc.draftRepo.Decide(orgCtx.OrganizationID, draftID, entity.DraftApproved, orgCtx.UserID, uc.now()); err != nil {
		return nil, err
	}

	suggestions := make([]reorder.Suggestion, 0, len(draft.Items))
	for _, it := range draft.Items {
		suggestions = append(suggestions, reorder.Suggestion{
			ProductID:         it.ProductID,
			ProductName:       it.ProductName,
			LocationID:        it.LocationID,
			SuggestedQuantity: it.SuggestedQuantity,
			Urgency:           inventory.Urgency(it.Urgency),
		})
	}
	split, err := uc.splitter.Split(ctx, orgCtx, suggestions)
	if err != nil {
		return nil, err
	}
	if len(split.Unassigned) > 0 {
		uc.notify(orgCtx, entity.NotificationApproval, entity.PriorityMedium,
			"Líneas sin proveedor",
			fmt.Sprintf("%d líneas del borrador aprobado no tienen proveedor asignable", len(split.Unassigned)),
			"/orders/drafts/"+draftID)
	}
	return uc.dispatcher.DispatchAll(ctx, orgCtx, split.Orders)
}

// RejectDraft rechaza un borrador pendiente. No crea pedidos; la siguiente
// corrida volverá a sugerir lo que siga bajo mínimo.
func (uc *UseCase) RejectDraft(ctx context.Context, orgCtx domain.OrganizationContext, draftID string) error {
	if !orgCtx.Valid() || draftID == "" {
		return domain.NewValidationError("draft_id", "requerido")
	}
	return uc.draftRepo.Decide(orgCtx.OrganizationID, draftID, entity.DraftRejected, orgCtx.UserID, uc.now())
}
