package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/medstock-pro/internal/application/automation"
	"github.com/tu-usuario/medstock-pro/internal/application/ledger"
	"github.com/tu-usuario/medstock-pro/internal/application/orders"
	"github.com/tu-usuario/medstock-pro/internal/application/reorder"
	"github.com/tu-usuario/medstock-pro/internal/domain/repository"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger           *ledger.RecordMovementUseCase
	Suggest          *reorder.SuggestUseCase
	Splitter         *orders.Splitter
	Dispatcher       *orders.Dispatcher
	Tracking         *orders.TrackingUseCase
	Automation       *automation.UseCase
	OrderRepo        repository.SupplierOrderRepository
	NotificationRepo repository.NotificationRepository
	JWTSecret        string
}

// Router registra las rutas de la API. Todas las rutas del motor exigen Bearer
// Token; las decisiones sobre pedidos (generar, aprobar, rechazar, correr la
// automatización) quedan además restringidas a admin y farmacia.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	decides := RequireRole("admin", "farmacia")

	// Ledger de inventario (protegido)
	invGroup := protected.Group("/inventory")
	ledgerHandler := NewLedgerHandler(deps.Ledger)
	invGroup.Post("/movements", ledgerHandler.RecordMovement)
	invGroup.Post("/counts", ledgerHandler.ApplyCount)
	invGroup.Post("/consumptions", ledgerHandler.RecordConsumption)
	invGroup.Post("/receipts", ledgerHandler.RecordReceipt)
	invGroup.Post("/transfers", ledgerHandler.RecordTransfer)
	invGroup.Post("/write-offs", ledgerHandler.RecordWriteOff)
	invGroup.Post("/reservations", ledgerHandler.AdjustReservation)
	invGroup.Get("/movements/product/:productId", ledgerHandler.HistoryByProduct)
	invGroup.Get("/movements/location/:locationId", ledgerHandler.HistoryByLocation)

	// Sugerencias de reposición (protegido)
	reorderHandler := NewReorderHandler(deps.Suggest)
	invGroup.Get("/suggestions", reorderHandler.Suggestions)

	// Pedidos a proveedor (protegido). Las rutas fijas van antes de /:id.
	ordersGroup := protected.Group("/orders")
	ordersHandler := NewOrdersHandler(deps.Suggest, deps.Splitter, deps.Dispatcher, deps.Tracking, deps.OrderRepo)
	automationHandler := NewAutomationHandler(deps.Automation)
	ordersGroup.Post("/generate", decides, ordersHandler.Generate)
	ordersGroup.Get("/overdue", ordersHandler.Overdue)
	ordersGroup.Get("/drafts", automationHandler.ListDrafts)
	ordersGroup.Post("/drafts/:id/approve", decides, automationHandler.ApproveDraft)
	ordersGroup.Post("/drafts/:id/reject", decides, automationHandler.RejectDraft)
	ordersGroup.Get("/", ordersHandler.List)
	ordersGroup.Get("/:id", ordersHandler.GetByID)
	ordersGroup.Patch("/:id/status", ordersHandler.UpdateStatus)
	ordersGroup.Post("/:id/items/:itemId/received", ordersHandler.ItemReceived)
	ordersGroup.Post("/:id/reconcile", ordersHandler.Reconcile)

	// Automatización (protegido)
	automationGroup := protected.Group("/automation")
	automationGroup.Get("/health", automationHandler.Health)
	automationGroup.Post("/run", decides, automationHandler.Run)

	// Notificaciones (protegido)
	notificationsHandler := NewNotificationsHandler(deps.NotificationRepo)
	protected.Get("/notifications", notificationsHandler.List)
}
