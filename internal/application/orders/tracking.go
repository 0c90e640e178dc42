package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/medstock-pro/internal/application/ledger"
	"github.com/tu-usuario/medstock-pro/internal/domain"
	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
	"github.com/tu-usuario/medstock-pro/internal/domain/repository"
)

// TrackingUseCase gestiona el ciclo de vida de los pedidos ya despachados:
// transiciones de estado, conciliación de entregas contra el ledger y
// detección de pedidos vencidos.
type TrackingUseCase struct {
	txRunner         ledger.TxRunner
	orderRepo        repository.SupplierOrderRepository // lecturas fuera de transacción
	ledgerUC         *ledger.RecordMovementUseCase
	notificationRepo repository.NotificationRepository
	retry            ledger.RetryPolicy
	now              func() time.Time
	log              zerolog.Logger
}

// NewTrackingUseCase construye el caso de uso de seguimiento.
func NewTrackingUseCase(
	txRunner ledger.TxRunner,
	orderRepo repository.SupplierOrderRepository,
	ledgerUC *ledger.RecordMovementUseCase,
	notificationRepo repository.NotificationRepository,
	retry ledger.RetryPolicy,
	log zerolog.Logger,
) *TrackingUseCase {
	return &TrackingUseCase{
		txRunner:         txRunner,
		orderRepo:        orderRepo,
		ledgerUC:         ledgerUC,
		notificationRepo: notificationRepo,
		retry:            retry,
		now:              time.Now,
		log:              log,
	}
}

// UpdateStatus aplica una transición de estado del pedido bajo bloqueo de
// fila. Una transición inválida devuelve ErrConflict sin tocar el pedido.
// Al llegar a delivered dispara la conciliación de stock.
func (uc *TrackingUseCase) UpdateStatus(ctx context.Context, orgCtx domain.OrganizationContext, orderID string, to entity.OrderStatus) error {
	if !orgCtx.Valid() || orderID == "" {
		return domain.NewValidationError("order_id", "requerido")
	}

	err := uc.retry.Do(ctx, func() error {
		return uc.txRunner.RunOrders(ctx, func(
			_ repository.StockMovementRepository,
			_ repository.StockLevelRepository,
			orderRepo repository.SupplierOrderRepository,
		) error {
			order, err := orderRepo.GetForUpdate(orgCtx.OrganizationID, orderID)
			if err != nil {
				return err
			}
			if !order.Status.CanTransition(to) {
				return domain.NewConflictError("order_status", orderID,
					fmt.Errorf("transición %s → %s no permitida", order.Status, to))
			}
			return orderRepo.UpdateStatus(orgCtx.OrganizationID, orderID, to, uc.now())
		})
	})
	if err != nil {
		return err
	}

	if to == entity.OrderDelivered {
		return uc.UpdateStockAfterDelivery(ctx, orgCtx, orderID)
	}
	return nil
}

// RecordItemReceived registra la cantidad realmente entregada de una línea
// antes de conciliar.
func (uc *TrackingUseCase) RecordItemReceived(ctx context.Context, orgCtx domain.OrganizationContext, orderID, itemID string, received decimal.Decimal) error {
	if received.IsNegative() {
		return domain.NewValidationError("quantity_received", "no puede ser negativa")
	}
	order, err := uc.orderRepo.GetByID(orgCtx.OrganizationID, orderID)
	if err != nil {
		return err
	}
	for i := range order.Items {
		if order.Items[i].ID == itemID {
			order.Items[i].QuantityReceived = &received
			return uc.orderRepo.UpdateItemReceived(orgCtx.OrganizationID, orderID, itemID, &order.Items[i])
		}
	}
	return domain.NewReferenceError("order_item", itemID)
}

// UpdateStockAfterDelivery concilia una entrega contra el ledger: por cada
// línea un movimiento order_received con la cantidad recibida (o la pedida si
// no se reportó), libera la reserva original y marca el pedido como
// procesado. Todo en una sola transacción; el guard stock_processed_at hace
// la operación idempotente: una segunda llamada no escribe nada.
func (uc *TrackingUseCase) UpdateStockAfterDelivery(ctx context.Context, orgCtx domain.OrganizationContext, orderID string) error {
	if !orgCtx.Valid() || orderID == "" {
		return domain.NewValidationError("order_id", "requerido")
	}

	processed := false
	err := uc.retry.Do(ctx, func() error {
		return uc.txRunner.RunOrders(ctx, func(
			movRepo repository.StockMovementRepository,
			levelRepo repository.StockLevelRepository,
			orderRepo repository.SupplierOrderRepository,
		) error {
			order, err := orderRepo.GetForUpdate(orgCtx.OrganizationID, orderID)
			if err != nil {
				return err
			}
			if order.StockProcessedAt != nil {
				return nil // ya conciliado
			}
			if order.Status != entity.OrderDelivered {
				return domain.NewConflictError("order_reconcile", orderID,
					fmt.Errorf("el pedido está en %s, no en delivered", order.Status))
			}

			now := uc.now()
			for _, item := range order.Items {
				qty := item.EffectiveReceived()
				if qty.IsZero() {
					continue
				}
				_, err := uc.ledgerUC.RecordInTx(movRepo, levelRepo, orgCtx, ledger.MovementInput{
					LocationID:     item.LocationID,
					ProductID:      item.ProductID,
					Type:           entity.MovementOrderReceived,
					QuantityChange: qty,
					ReferenceType:  "order",
					ReferenceID:    order.ID,
					Reason:         "entrega de pedido " + order.Reference,
				}, true, now)
				if err != nil {
					return err
				}

				// Libera la reserva hecha al enviar; nunca queda negativa.
				level, err := levelRepo.GetForUpdate(orgCtx.OrganizationID, item.LocationID, item.ProductID)
				if err != nil {
					return err
				}
				level.ReservedQuantity = level.ReservedQuantity.Sub(item.Quantity)
				if level.ReservedQuantity.IsNegative() {
					level.ReservedQuantity = decimal.Zero
				}
				level.UpdatedAt = now
				if err := levelRepo.Upsert(level); err != nil {
					return err
				}
			}
			if err := orderRepo.MarkStockProcessed(orgCtx.OrganizationID, orderID, now); err != nil {
				return err
			}
			processed = true
			return nil
		})
	})
	if err != nil {
		return err
	}
	if processed {
		uc.notifyDelivered(orgCtx, orderID)
	}
	return nil
}

// CheckOverdue busca pedidos sent/confirmed/shipped con la entrega esperada
// vencida y deja una notificación por cada uno. Devuelve los encontrados.
func (uc *TrackingUseCase) CheckOverdue(ctx context.Context, orgCtx domain.OrganizationContext) ([]*entity.SupplierOrder, error) {
	if !orgCtx.Valid() {
		return nil, domain.NewValidationError("organization_id", "requerido")
	}
	overdue, err := uc.orderRepo.ListOverdue(orgCtx.OrganizationID, uc.now())
	if err != nil {
		return nil, fmt.Errorf("listar pedidos vencidos: %w", err)
	}
	for _, o := range overdue {
		if err := uc.notificationRepo.Create(&entity.Notification{
			ID:             uuid.New().String(),
			OrganizationID: orgCtx.OrganizationID,
			Category:       entity.NotificationOrderUpdate,
			Priority:       entity.PriorityHigh,
			Title:          "Pedido atrasado",
			Message:        fmt.Sprintf("El pedido %s superó su fecha estimada de entrega", o.Reference),
			ActionURL:      "/orders/" + o.ID,
			CreatedAt:      uc.now(),
		}); err != nil {
			uc.log.Error().Err(err).Str("order_id", o.ID).Msg("error creando notificación de pedido atrasado")
		}
	}
	return overdue, nil
}

func (uc *TrackingUseCase) notifyDelivered(orgCtx domain.OrganizationContext, orderID string) {
	err := uc.notificationRepo.Create(&entity.Notification{
		ID:             uuid.New().String(),
		OrganizationID: orgCtx.OrganizationID,
		Category:       entity.NotificationOrderUpdate,
		Priority:       entity.PriorityMedium,
		Title:          "Stock actualizado",
		Message:        "La entrega del pedido fue conciliada contra el inventario",
		ActionURL:      "/orders/" + orderID,
		CreatedAt:      uc.now(),
	})
	if err != nil {
		uc.log.Error().Err(err).Str("order_id", orderID).Msg("error creando notificación de conciliación")
	}
}
