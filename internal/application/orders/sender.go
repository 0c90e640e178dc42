package orders

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/tu-usuario/medstock-pro/internal/domain"
	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
	"github.com/tu-usuario/medstock-pro/internal/domain/repository"
	"github.com/tu-usuario/medstock-pro/pkg/metrics"
)

// ReferenceFn genera la referencia única de un pedido a partir del código del
// proveedor. La implementación por defecto produce ORD-<millis>-<código>.
type ReferenceFn func(supplierCode string) string

// DefaultReference es la generación de referencia de producción.
func DefaultReference(supplierCode string) string {
	return fmt.Sprintf("ORD-%d-%s", time.Now().UnixMilli(), supplierCode)
}

// Dispatcher persiste y despacha pedidos a sus proveedores. Los envíos por
// proveedor salen en paralelo; cada desenlace se registra en su propio pedido
// para que un reintento posterior reenvíe solo los fallidos.
type Dispatcher struct {
	resolver         SenderResolver
	supplierRepo     repository.SupplierRepository
	orderRepo        repository.SupplierOrderRepository
	notificationRepo repository.NotificationRepository
	reservations     ReservationAdjuster
	refFn            ReferenceFn
	log              zerolog.Logger
}

// NewDispatcher construye el dispatcher. refFn nil usa DefaultReference.
func NewDispatcher(
	resolver SenderResolver,
	supplierRepo repository.SupplierRepository,
	orderRepo repository.SupplierOrderRepository,
	notificationRepo repository.NotificationRepository,
	reservations ReservationAdjuster,
	refFn ReferenceFn,
	log zerolog.Logger,
) *Dispatcher {
	if refFn == nil {
		refFn = DefaultReference
	}
	return &Dispatcher{
		resolver:         resolver,
		supplierRepo:     supplierRepo,
		orderRepo:        orderRepo,
		notificationRepo: notificationRepo,
		reservations:     reservations,
		refFn:            refFn,
		log:              log,
	}
}

// DispatchAll persiste los pedidos y los envía a sus proveedores en paralelo.
// Los pedidos bajo el mínimo del proveedor no se envían: quedan registrados
// en pending con un resultado fallido que lo explica. Devuelve un resultado
// por pedido, en el mismo orden de entrada.
func (d *Dispatcher) DispatchAll(ctx context.Context, orgCtx domain.OrganizationContext, orderList []*entity.SupplierOrder) ([]*entity.OrderSendingResult, error) {
	if !orgCtx.Valid() {
		return nil, domain.NewValidationError("organization_id", "requerido")
	}

	type job struct {
		order    *entity.SupplierOrder
		supplier *entity.Supplier
	}
	jobs := make([]job, len(orderList))
	results := make([]*entity.OrderSendingResult, len(orderList))

	// Resolución de proveedor, referencia y persistencia inicial, en orden.
	for i, order := range orderList {
		sup, err := d.supplierRepo.GetByID(orgCtx.OrganizationID, order.SupplierID)
		if err != nil || sup == nil {
			results[i] = &entity.OrderSendingResult{
				SupplierID:   order.SupplierID,
				Success:      false,
				ErrorMessage: "proveedor no encontrado",
				SentAt:       time.Now(),
			}
			continue
		}
		order.Reference = d.refFn(sup.Code)
		order.MethodUsed = sup.OrderMethod
		if err := d.orderRepo.Create(order); err != nil {
			return nil, fmt.Errorf("persistir pedido %s: %w", order.Reference, err)
		}
		jobs[i] = job{order: order, supplier: sup}
	}

	// Envíos en paralelo, un goroutine por proveedor.
	var wg sync.WaitGroup
	for i := range jobs {
		if jobs[i].order == nil || results[i] != nil {
			continue
		}
		if jobs[i].order.BelowMinimum {
			results[i] = &entity.OrderSendingResult{
				OrderReference: jobs[i].order.Reference,
				SupplierID:     jobs[i].order.SupplierID,
				Success:        false,
				ErrorMessage:   "subtotal bajo el mínimo del proveedor; requiere revisión manual",
				SentAt:         time.Now(),
			}
			continue
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = d.send(ctx, jobs[i].order, jobs[i].supplier)
		}(i)
	}
	wg.Wait()

	// Registro de desenlaces, reservas y notificaciones, en orden. Los
	// pedidos bajo mínimo quedan en pending a la espera de revisión.
	for i := range jobs {
		if jobs[i].order == nil {
			continue
		}
		if jobs[i].order.BelowMinimum {
			d.notify(orgCtx, entity.NotificationApproval, entity.PriorityMedium,
				"Pedido bajo el mínimo del proveedor",
				fmt.Sprintf("El pedido %s quedó en espera: subtotal inferior al mínimo del proveedor", jobs[i].order.Reference),
				"/orders/"+jobs[i].order.ID)
			continue
		}
		d.settle(ctx, orgCtx, jobs[i].order, results[i])
	}
	return results, nil
}

// send resuelve el adaptador y ejecuta el envío; los fallos de resolución se
// capturan como resultado fallido igual que los de transporte.
func (d *Dispatcher) send(ctx context.Context, order *entity.SupplierOrder, sup *entity.Supplier) *entity.OrderSendingResult {
	sender, err := d.resolver.Resolve(sup.OrderMethod)
	if err != nil {
		return &entity.OrderSendingResult{
			OrderReference: order.Reference,
			SupplierID:     sup.ID,
			Success:        false,
			MethodUsed:     sup.OrderMethod,
			ErrorMessage:   fmt.Sprintf("canal %s no disponible: %v", sup.OrderMethod, err),
			SentAt:         time.Now(),
		}
	}
	return sender.Send(ctx, order, sup, order.Reference)
}

// settle persiste el desenlace, reserva el stock pedido cuando el envío salió
// bien y deja la notificación correspondiente.
func (d *Dispatcher) settle(ctx context.Context, orgCtx domain.OrganizationContext, order *entity.SupplierOrder, res *entity.OrderSendingResult) {
	outcome := "failure"
	if res.Success {
		outcome = "success"
	}
	metrics.OrderSendsTotal.WithLabelValues(string(res.MethodUsed), outcome).Inc()

	if err := d.orderRepo.RecordSendingResult(orgCtx.OrganizationID, order.ID, res); err != nil {
		d.log.Error().Err(err).Str("reference", order.Reference).Msg("no se pudo registrar el desenlace del envío")
	}

	if res.Success {
		for _, item := range order.Items {
			if err := d.reservations.AdjustReservation(ctx, orgCtx, item.LocationID, item.ProductID, item.Quantity); err != nil {
				d.log.Warn().Err(err).
					Str("reference", order.Reference).
					Str("product_id", item.ProductID).
					Msg("reserva post-envío fallida")
			}
		}
		d.notify(orgCtx, entity.NotificationOrderUpdate, entity.PriorityMedium,
			"Pedido enviado",
			fmt.Sprintf("Pedido %s enviado al proveedor por canal %s", order.Reference, res.MethodUsed),
			"/orders/"+order.ID)
		return
	}
	d.notify(orgCtx, entity.NotificationOrderUpdate, entity.PriorityHigh,
		"Envío de pedido fallido",
		fmt.Sprintf("Pedido %s no pudo enviarse: %s", order.Reference, res.ErrorMessage),
		"/orders/"+order.ID)
}

func (d *Dispatcher) notify(orgCtx domain.OrganizationContext, cat entity.NotificationCategory, prio entity.NotificationPriority, title, msg, actionURL string) {
	n := &entity.Notification{
		ID:             uuid.New().String(),
		OrganizationID: orgCtx.OrganizationID,
		Category:       cat,
		Priority:       prio,
		Title:          title,
		Message:        msg,
		ActionURL:      actionURL,
		CreatedAt:      time.Now(),
	}
	if err := d.notificationRepo.Create(n); err != nil {
		d.log.Warn().Err(err).Str("title", title).Msg("no se pudo registrar la notificación")
	}
}
