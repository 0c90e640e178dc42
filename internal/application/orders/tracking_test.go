package orders_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tu-usuario/medstock-pro/internal/application/ledger"
	"github.com/tu-usuario/medstock-pro/internal/application/orders"
	"github.com/tu-usuario/medstock-pro/internal/domain"
	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
)

type trackingFixture struct {
	store   *memStore
	notices *memNotificationRepo
	uc      *orders.TrackingUseCase
}

func newTrackingFixture() *trackingFixture {
	store := newMemStore()
	tx := &memTxRunner{s: store}
	notices := &memNotificationRepo{s: store}
	ledgerUC := ledger.NewRecordMovementUseCase(
		tx,
		&memOrgRepo{orgs: map[string]*entity.Organization{testOrg: {ID: testOrg, Active: true}}},
		&memLocationRepo{locs: map[string]*entity.Location{"loc-1": {ID: "loc-1", OrganizationID: testOrg}}},
		&memProductRepo{products: map[string]*entity.Product{"p1": {ID: "p1", OrganizationID: testOrg}}},
		&memMovementRepo{s: store},
		ledger.DefaultRetryPolicy(),
	)
	uc := orders.NewTrackingUseCase(
		tx,
		&memOrderRepo{s: store},
		ledgerUC,
		notices,
		ledger.DefaultRetryPolicy(),
		zerolog.Nop(),
	)
	return &trackingFixture{store: store, notices: notices, uc: uc}
}

func seedOrder(f *trackingFixture, status entity.OrderStatus) *entity.SupplierOrder {
	order := &entity.SupplierOrder{
		ID:             "ord-1",
		OrganizationID: testOrg,
		SupplierID:     "sup-a",
		Reference:      "ORD-1756300000000-ALFA",
		Status:         status,
		Items: []entity.SupplierOrderItem{{
			ID:         "item-1",
			OrderID:    "ord-1",
			ProductID:  "p1",
			LocationID: "loc-1",
			Quantity:   decimal.NewFromInt(10),
			UnitPrice:  decimal.NewFromInt(4),
			LineTotal:  decimal.NewFromInt(40),
		}},
		Subtotal:  decimal.NewFromInt(40),
		Total:     decimal.NewFromInt(40),
		CreatedAt: time.Now(),
	}
	f.store.orders[order.ID] = order
	return order
}

func TestUpdateStatus_TransicionesValidas(t *testing.T) {
	f := newTrackingFixture()
	seedOrder(f, entity.OrderSent)
	ctx := context.Background()

	require.NoError(t, f.uc.UpdateStatus(ctx, orgCtx(), "ord-1", entity.OrderConfirmed))
	require.NoError(t, f.uc.UpdateStatus(ctx, orgCtx(), "ord-1", entity.OrderShipped))
	assert.Equal(t, entity.OrderShipped, f.store.orders["ord-1"].Status)
}

func TestUpdateStatus_TransicionInvalidaEsConflicto(t *testing.T) {
	f := newTrackingFixture()
	seedOrder(f, entity.OrderPending)

	// pending no puede saltar a shipped.
	err := f.uc.UpdateStatus(context.Background(), orgCtx(), "ord-1", entity.OrderShipped)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, entity.OrderPending, f.store.orders["ord-1"].Status, "el pedido no cambia")
}

func TestUpdateStatus_CancelledDesdeNoTerminal(t *testing.T) {
	f := newTrackingFixture()
	seedOrder(f, entity.OrderConfirmed)

	require.NoError(t, f.uc.UpdateStatus(context.Background(), orgCtx(), "ord-1", entity.OrderCancelled))

	// Desde cancelled (terminal) no hay más transiciones.
	err := f.uc.UpdateStatus(context.Background(), orgCtx(), "ord-1", entity.OrderSent)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

// TestUpdateStockAfterDelivery_ConciliaYEsIdempotente: la entrega genera un
// movimiento order_received por línea, libera la reserva y una segunda
// llamada no escribe nada.
func TestUpdateStockAfterDelivery_ConciliaYEsIdempotente(t *testing.T) {
	f := newTrackingFixture()
	order := seedOrder(f, entity.OrderDelivered)
	ctx := context.Background()

	// Reserva previa hecha al enviar el pedido.
	f.store.levels[levelKey(testOrg, "loc-1", "p1")] = &entity.StockLevel{
		OrganizationID:   testOrg,
		LocationID:       "loc-1",
		ProductID:        "p1",
		CurrentQuantity:  decimal.NewFromInt(2),
		ReservedQuantity: decimal.NewFromInt(10),
	}

	require.NoError(t, f.uc.UpdateStockAfterDelivery(ctx, orgCtx(), order.ID))

	require.Len(t, f.store.movements, 1)
	m := f.store.movements[0]
	assert.Equal(t, entity.MovementOrderReceived, m.Type)
	assert.True(t, m.QuantityChange.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, "order", m.ReferenceType)
	assert.Equal(t, order.ID, m.ReferenceID)

	level := f.store.levels[levelKey(testOrg, "loc-1", "p1")]
	assert.True(t, level.CurrentQuantity.Equal(decimal.NewFromInt(12)), "2 + 10 recibidos")
	assert.True(t, level.ReservedQuantity.Equal(decimal.Zero), "la reserva se libera")
	require.NotNil(t, f.store.orders[order.ID].StockProcessedAt)

	// Segunda llamada: no-op gracias al guard stock_processed_at.
	require.NoError(t, f.uc.UpdateStockAfterDelivery(ctx, orgCtx(), order.ID))
	assert.Len(t, f.store.movements, 1, "sin asientos duplicados")
	assert.True(t, f.store.levels[levelKey(testOrg, "loc-1", "p1")].CurrentQuantity.Equal(decimal.NewFromInt(12)))
}

// TestUpdateStockAfterDelivery_UsaCantidadRecibida: lo reportado por el
// proveedor manda sobre lo pedido.
func TestUpdateStockAfterDelivery_UsaCantidadRecibida(t *testing.T) {
	f := newTrackingFixture()
	order := seedOrder(f, entity.OrderDelivered)
	received := decimal.NewFromInt(7)
	f.store.orders[order.ID].Items[0].QuantityReceived = &received

	require.NoError(t, f.uc.UpdateStockAfterDelivery(context.Background(), orgCtx(), order.ID))

	require.Len(t, f.store.movements, 1)
	assert.True(t, f.store.movements[0].QuantityChange.Equal(received))
}

func TestUpdateStockAfterDelivery_RechazaPedidoNoEntregado(t *testing.T) {
	f := newTrackingFixture()
	order := seedOrder(f, entity.OrderSent)

	err := f.uc.UpdateStockAfterDelivery(context.Background(), orgCtx(), order.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Empty(t, f.store.movements)
}

func TestRecordItemReceived(t *testing.T) {
	f := newTrackingFixture()
	order := seedOrder(f, entity.OrderShipped)

	require.NoError(t, f.uc.RecordItemReceived(context.Background(), orgCtx(), order.ID, "item-1", decimal.NewFromInt(8)))
	got := f.store.orders[order.ID].Items[0].QuantityReceived
	require.NotNil(t, got)
	assert.True(t, got.Equal(decimal.NewFromInt(8)))

	err := f.uc.RecordItemReceived(context.Background(), orgCtx(), order.ID, "item-x", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCheckOverdue_NotificaPedidosAtrasados(t *testing.T) {
	f := newTrackingFixture()
	order := seedOrder(f, entity.OrderSent)
	past := time.Now().AddDate(0, 0, -2)
	f.store.orders[order.ID].ExpectedDelivery = &past

	overdue, err := f.uc.CheckOverdue(context.Background(), orgCtx())
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, order.ID, overdue[0].ID)
	require.Len(t, f.store.notices, 1)
	assert.Equal(t, entity.PriorityHigh, f.store.notices[0].Priority)
}

// TestCheckOverdue_FalloDeNotificacionNoBloquea: si la notificación no se
// puede crear, la revisión igualmente devuelve los pedidos vencidos.
func TestCheckOverdue_FalloDeNotificacionNoBloquea(t *testing.T) {
	f := newTrackingFixture()
	order := seedOrder(f, entity.OrderSent)
	past := time.Now().AddDate(0, 0, -2)
	f.store.orders[order.ID].ExpectedDelivery = &past
	f.notices.failCreate = errors.New("tabla de notificaciones caída")

	overdue, err := f.uc.CheckOverdue(context.Background(), orgCtx())
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Empty(t, f.store.notices)
}
