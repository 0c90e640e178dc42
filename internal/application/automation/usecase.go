package automation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/medstock-pro/internal/application/orders"
	"github.com/tu-usuario/medstock-pro/internal/application/reorder"
	"github.com/tu-usuario/medstock-pro/internal/domain"
	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
	"github.com/tu-usuario/medstock-pro/internal/domain/repository"
	"github.com/tu-usuario/medstock-pro/pkg/metrics"
)

// automationUser firma los movimientos y borradores creados por el motor.
const automationUser = "automation"

// UseCase orquesta la corrida de reposición automática: diagnóstico de
// salud del inventario, sugerencias, particionado por proveedor y envío o
// borrador según la política de aprobación de la organización.
type UseCase struct {
	orgRepo          repository.OrganizationRepository
	levelRepo        repository.StockLevelRepository
	batchRepo        repository.BatchRepository
	suggestUC        *reorder.SuggestUseCase
	splitter         *orders.Splitter
	dispatcher       *orders.Dispatcher
	draftRepo        repository.OrderDraftRepository
	notificationRepo repository.NotificationRepository
	log              zerolog.Logger
	now              func() time.Time
}

// NewUseCase construye el caso de uso de automatización.
func NewUseCase(
	orgRepo repository.OrganizationRepository,
	levelRepo repository.StockLevelRepository,
	batchRepo repository.BatchRepository,
	suggestUC *reorder.SuggestUseCase,
	splitter *orders.Splitter,
	dispatcher *orders.Dispatcher,
	draftRepo repository.OrderDraftRepository,
	notificationRepo repository.NotificationRepository,
	log zerolog.Logger,
) *UseCase {
	return &UseCase{
		orgRepo:          orgRepo,
		levelRepo:        levelRepo,
		batchRepo:        batchRepo,
		suggestUC:        suggestUC,
		splitter:         splitter,
		dispatcher:       dispatcher,
		draftRepo:        draftRepo,
		notificationRepo: notificationRepo,
		log:              log,
		now:              time.Now,
	}
}

// HealthReport resume el estado del inventario de una organización.
type HealthReport struct {
	LowStock        int      `json:"low_stock"`
	ZeroStock       int      `json:"zero_stock"`
	ExpiredBatches  int      `json:"expired_batches"`
	ExpiringBatches int      `json:"expiring_batches"`
	Overstock       int      `json:"overstock"`
	Recommendations []string `json:"recommendations"`
}

// Critical indica si hay condiciones que exigen atención inmediata.
func (h *HealthReport) Critical() bool {
	return h.ZeroStock > 0 || h.ExpiredBatches > 0
}

// RunResult es el desenlace de la corrida para una organización.
type RunResult struct {
	OrganizationID   string                        `json:"organization_id"`
	Health           *HealthReport                 `json:"health"`
	Suggestions      int                           `json:"suggestions"`
	Unassigned       int                           `json:"unassigned"`
	ApprovalRequired bool                          `json:"approval_required"`
	DraftID          string                        `json:"draft_id,omitempty"`
	OrdersCreated    int                           `json:"orders_created"`
	OrdersSent       int                           `json:"orders_sent"`
	OrdersFailed     int                           `json:"orders_failed"`
	BelowMinimum     int                           `json:"below_minimum"`
	SendResults      []*entity.OrderSendingResult  `json:"send_results,omitempty"`
	Err              error                         `json:"-"`
}

// HealthCheck calcula los contadores de salud del inventario y sus
// recomendaciones.
func (uc *UseCase) HealthCheck(ctx context.Context, orgCtx domain.OrganizationContext) (*HealthReport, error) {
	if !orgCtx.Valid() {
		return nil, domain.NewValidationError("organization_id", "requerido")
	}
	now := uc.now()
	report := &HealthReport{}
	var err error

	if report.LowStock, err = uc.levelRepo.CountBelowMinimum(orgCtx.OrganizationID); err != nil {
		return nil, fmt.Errorf("contar stock bajo mínimo: %w", err)
	}
	if report.ZeroStock, err = uc.levelRepo.CountZeroStock(orgCtx.OrganizationID); err != nil {
		return nil, fmt.Errorf("contar stock agotado: %w", err)
	}
	if report.ExpiredBatches, err = uc.batchRepo.CountExpired(orgCtx.OrganizationID, now); err != nil {
		return nil, fmt.Errorf("contar lotes vencidos: %w", err)
	}
	if report.ExpiringBatches, err = uc.batchRepo.CountExpiringWithin(orgCtx.OrganizationID, now, 30); err != nil {
		return nil, fmt.Errorf("contar lotes por vencer: %w", err)
	}
	over, err := uc.levelRepo.ListOverMaximum(orgCtx.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("listar sobre-stock: %w", err)
	}
	report.Overstock = len(over)

	if report.ZeroStock > 0 {
		report.Recommendations = append(report.Recommendations, "Reponga de inmediato los productos agotados")
	}
	if report.LowStock > 0 {
		report.Recommendations = append(report.Recommendations, "Revise los productos bajo el mínimo y genere pedidos")
	}
	if report.ExpiredBatches > 0 {
		report.Recommendations = append(report.Recommendations, "Retire y dé de baja los lotes vencidos")
	}
	if report.ExpiringBatches > 0 {
		report.Recommendations = append(report.Recommendations, "Priorice el consumo de los lotes por vencer")
	}
	if report.Overstock > 0 {
		report.Recommendations = append(report.Recommendations, "Evalúe redistribuir el exceso de stock entre ubicaciones")
	}
	return report, nil
}

// RunForOrganization ejecuta la corrida completa para una organización:
// salud → sugerencias → particionado → envío automático o borrador con
// aprobación, según la política de la organización.
func (uc *UseCase) RunForOrganization(ctx context.Context, org *entity.Organization) (*RunResult, error) {
	orgCtx := domain.OrganizationContext{OrganizationID: org.ID, UserID: automationUser}
	result := &RunResult{OrganizationID: org.ID}

	health, err := uc.HealthCheck(ctx, orgCtx)
	if err != nil {
		return nil, err
	}
	result.Health = health
	if health.Critical() {
		uc.notify(orgCtx, entity.NotificationStockAlert, entity.PriorityUrgent,
			"Inventario en estado crítico",
			fmt.Sprintf("%d productos agotados, %d lotes vencidos", health.ZeroStock, health.ExpiredBatches),
			"/inventory/health")
	}

	suggestions, err := uc.suggestUC.Suggest(ctx, orgCtx, "")
	if err != nil {
		return nil, err
	}
	result.Suggestions = len(suggestions)
	if len(suggestions) == 0 {
		return result, nil
	}

	split, err := uc.splitter.Split(ctx, orgCtx, suggestions)
	if err != nil {
		return nil, err
	}
	result.Unassigned = len(split.Unassigned)
	result.OrdersCreated = len(split.Orders)
	for _, o := range split.Orders {
		if o.BelowMinimum {
			result.BelowMinimum++
		}
	}

	total := split.TotalValue()
	result.ApprovalRequired = !org.AutoApprove ||
		(org.MaxOrderValue.IsPositive() && total.GreaterThan(org.MaxOrderValue))

	if result.ApprovalRequired {
		draft, err := uc.createDraft(orgCtx, suggestions, total, org)
		if err != nil {
			return nil, err
		}
		result.DraftID = draft.ID
		return result, nil
	}

	sendResults, err := uc.dispatcher.DispatchAll(ctx, orgCtx, split.Orders)
	if err != nil {
		return nil, err
	}
	result.SendResults = sendResults
	for i, r := range sendResults {
		if r == nil {
			continue
		}
		if r.Success {
			result.OrdersSent++
		} else if !split.Orders[i].BelowMinimum {
			result.OrdersFailed++
		}
	}
	return result, nil
}

// createDraft deja la lista sugerida como borrador pendiente de aprobación y
// lo notifica.
func (uc *UseCase) createDraft(orgCtx domain.OrganizationContext, suggestions []reorder.Suggestion, total decimal.Decimal, org *entity.Organization) (*entity.OrderDraft, error) {
	reason := "auto-aprobación deshabilitada"
	if org.AutoApprove {
		reason = fmt.Sprintf("total %s supera el tope de %s", total, org.MaxOrderValue)
	}
	draft := &entity.OrderDraft{
		ID:             uuid.New().String(),
		OrganizationID: orgCtx.OrganizationID,
		Status:         entity.DraftPendingApproval,
		EstimatedTotal: total,
		Reason:         reason,
		CreatedAt:      uc.now(),
	}
	for _, sg := range suggestions {
		draft.Items = append(draft.Items, entity.OrderDraftItem{
			ProductID:         sg.ProductID,
			ProductName:       sg.ProductName,
			LocationID:        sg.LocationID,
			SuggestedQuantity: sg.SuggestedQuantity,
			Urgency:           string(sg.Urgency),
		})
	}
	if err := uc.draftRepo.Create(draft); err != nil {
		return nil, fmt.Errorf("crear borrador: %w", err)
	}
	uc.notify(orgCtx, entity.NotificationApproval, entity.PriorityHigh,
		"Lista de pedido en espera de aprobación",
		fmt.Sprintf("%d líneas sugeridas por un total estimado de %s (%s)", len(draft.Items), total, reason),
		"/orders/drafts/"+draft.ID)
	return draft, nil
}

// RunAll ejecuta la corrida para todas las organizaciones con automatización
// habilitada, en paralelo y con fallos aislados por organización.
func (uc *UseCase) RunAll(ctx context.Context) ([]*RunResult, error) {
	orgs, err := uc.orgRepo.ListAutomationEnabled()
	if err != nil {
		return nil, fmt.Errorf("listar organizaciones: %w", err)
	}

	results := make([]*RunResult, len(orgs))
	var wg sync.WaitGroup
	for i, org := range orgs {
		wg.Add(1)
		go func(i int, org *entity.Organization) {
			defer wg.Done()
			res, err := uc.RunForOrganization(ctx, org)
			if err != nil {
				uc.log.Error().Err(err).Str("organization_id", org.ID).Msg("corrida de automatización fallida")
				metrics.AutomationRunsTotal.WithLabelValues("failure").Inc()
				results[i] = &RunResult{OrganizationID: org.ID, Err: err}
				return
			}
			metrics.AutomationRunsTotal.WithLabelValues("success").Inc()
			results[i] = res
		}(i, org)
	}
	wg.Wait()
	return results, nil
}

func (uc *UseCase) notify(orgCtx domain.OrganizationContext, cat entity.NotificationCategory, prio entity.NotificationPriority, title, msg, actionURL string) {
	err := uc.notificationRepo.Create(&entity.Notification{
		ID:             uuid.New().String(),
		OrganizationID: orgCtx.OrganizationID,
		Category:       cat,
		Priority:       prio,
		Title:          title,
		Message:        msg,
		ActionURL:      actionURL,
		CreatedAt:      uc.now(),
	})
	if err != nil {
		uc.log.Warn().Err(err).Str("title", title).Msg("no se pudo registrar la notificación")
	}
}
