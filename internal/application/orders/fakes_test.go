package orders_test

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/medstock-pro/internal/domain"
	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
	"github.com/tu-usuario/medstock-pro/internal/domain/repository"
)

// Fakes en memoria compartidos por los tests del paquete.

type memStore struct {
	mu        sync.Mutex
	movements []*entity.StockMovement
	levels    map[string]*entity.StockLevel
	orders    map[string]*entity.SupplierOrder
	notices   []*entity.Notification
}

func newMemStore() *memStore {
	return &memStore{
		levels: make(map[string]*entity.StockLevel),
		orders: make(map[string]*entity.SupplierOrder),
	}
}

func levelKey(orgID, locationID, productID string) string {
	return orgID + "/" + locationID + "/" + productID
}

type memMovementRepo struct{ s *memStore }

func (r *memMovementRepo) Create(m *entity.StockMovement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *m
	r.s.movements = append(r.s.movements, &cp)
	return nil
}
func (r *memMovementRepo) GetByID(orgID, id string) (*entity.StockMovement, error) {
	return nil, domain.ErrNotFound
}
func (r *memMovementRepo) ListByProduct(orgID, productID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	return nil, nil
}
func (r *memMovementRepo) ListByLocation(orgID, locationID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	return nil, nil
}
func (r *memMovementRepo) ListRecent(orgID string, limit int) ([]*entity.StockMovement, error) {
	return nil, nil
}

type memLevelRepo struct{ s *memStore }

func (r *memLevelRepo) Get(orgID, locationID, productID string) (*entity.StockLevel, error) {
	return r.GetForUpdate(orgID, locationID, productID)
}
func (r *memLevelRepo) GetForUpdate(orgID, locationID, productID string) (*entity.StockLevel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if lv, ok := r.s.levels[levelKey(orgID, locationID, productID)]; ok {
		cp := *lv
		return &cp, nil
	}
	return &entity.StockLevel{
		OrganizationID:  orgID,
		LocationID:      locationID,
		ProductID:       productID,
		CurrentQuantity: decimal.Zero,
	}, nil
}
func (r *memLevelRepo) Upsert(level *entity.StockLevel) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *level
	r.s.levels[levelKey(level.OrganizationID, level.LocationID, level.ProductID)] = &cp
	return nil
}
func (r *memLevelRepo) ListBelowReorder(orgID, locationID string) ([]*entity.StockLevel, error) {
	return nil, nil
}
func (r *memLevelRepo) ListOverMaximum(orgID string) ([]*entity.StockLevel, error) { return nil, nil }
func (r *memLevelRepo) CountZeroStock(orgID string) (int, error)                   { return 0, nil }
func (r *memLevelRepo) CountBelowMinimum(orgID string) (int, error)                { return 0, nil }

type memOrderRepo struct{ s *memStore }

func (r *memOrderRepo) Create(order *entity.SupplierOrder) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *order
	r.s.orders[order.ID] = &cp
	return nil
}

func (r *memOrderRepo) GetByID(orgID, id string) (*entity.SupplierOrder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if o, ok := r.s.orders[id]; ok && o.OrganizationID == orgID {
		cp := *o
		return &cp, nil
	}
	return nil, domain.NewReferenceError("order", id)
}

func (r *memOrderRepo) GetByReference(orgID, reference string) (*entity.SupplierOrder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.orders {
		if o.OrganizationID == orgID && o.Reference == reference {
			cp := *o
			return &cp, nil
		}
	}
	return nil, domain.NewReferenceError("order", reference)
}

func (r *memOrderRepo) GetForUpdate(orgID, id string) (*entity.SupplierOrder, error) {
	return r.GetByID(orgID, id)
}

func (r *memOrderRepo) UpdateStatus(orgID, id string, status entity.OrderStatus, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return domain.NewReferenceError("order", id)
	}
	o.Status = status
	o.UpdatedAt = at
	if status == entity.OrderDelivered {
		o.DeliveredAt = &at
	}
	return nil
}

func (r *memOrderRepo) RecordSendingResult(orgID, id string, result *entity.OrderSendingResult) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return domain.NewReferenceError("order", id)
	}
	o.MethodUsed = result.MethodUsed
	if result.Success {
		o.Status = entity.OrderSent
		at := result.SentAt
		o.SentAt = &at
	} else {
		o.Status = entity.OrderFailed
	}
	return nil
}

func (r *memOrderRepo) UpdateItemReceived(orgID, orderID, itemID string, item *entity.SupplierOrderItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[orderID]
	if !ok {
		return domain.NewReferenceError("order", orderID)
	}
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			o.Items[i] = *item
			return nil
		}
	}
	return domain.NewReferenceError("order_item", itemID)
}

func (r *memOrderRepo) MarkStockProcessed(orgID, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return domain.NewReferenceError("order", id)
	}
	o.StockProcessedAt = &at
	return nil
}

func (r *memOrderRepo) ListByStatus(orgID string, status entity.OrderStatus) ([]*entity.SupplierOrder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.SupplierOrder
	for _, o := range r.s.orders {
		if o.OrganizationID == orgID && o.Status == status {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memOrderRepo) ListOverdue(orgID string, now time.Time) ([]*entity.SupplierOrder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.SupplierOrder
	for _, o := range r.s.orders {
		switch o.Status {
		case entity.OrderSent, entity.OrderConfirmed, entity.OrderShipped:
			if o.ExpectedDelivery != nil && o.ExpectedDelivery.Before(now) {
				cp := *o
				out = append(out, &cp)
			}
		}
	}
	return out, nil
}

type memNotificationRepo struct {
	s          *memStore
	failCreate error
}

func (r *memNotificationRepo) Create(n *entity.Notification) error {
	if r.failCreate != nil {
		return r.failCreate
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *n
	r.s.notices = append(r.s.notices, &cp)
	return nil
}
func (r *memNotificationRepo) ListByOrganization(orgID string, limit int) ([]*entity.Notification, error) {
	return nil, nil
}

type memTxRunner struct {
	s    *memStore
	txMu sync.Mutex
}

func (t *memTxRunner) Run(ctx context.Context, fn func(
	movRepo repository.StockMovementRepository,
	levelRepo repository.StockLevelRepository,
) error) error {
	t.txMu.Lock()
	defer t.txMu.Unlock()
	return fn(&memMovementRepo{s: t.s}, &memLevelRepo{s: t.s})
}

func (t *memTxRunner) RunOrders(ctx context.Context, fn func(
	movRepo repository.StockMovementRepository,
	levelRepo repository.StockLevelRepository,
	orderRepo repository.SupplierOrderRepository,
) error) error {
	t.txMu.Lock()
	defer t.txMu.Unlock()
	return fn(&memMovementRepo{s: t.s}, &memLevelRepo{s: t.s}, &memOrderRepo{s: t.s})
}

type memOrgRepo struct{ orgs map[string]*entity.Organization }

func (r *memOrgRepo) GetByID(id string) (*entity.Organization, error) {
	if o, ok := r.orgs[id]; ok {
		return o, nil
	}
	return nil, domain.ErrNotFound
}
func (r *memOrgRepo) ListAutomationEnabled() ([]*entity.Organization, error) { return nil, nil }

type memLocationRepo struct{ locs map[string]*entity.Location }

func (r *memLocationRepo) GetByID(orgID, id string) (*entity.Location, error) {
	if l, ok := r.locs[id]; ok && l.OrganizationID == orgID {
		return l, nil
	}
	return nil, domain.ErrNotFound
}
func (r *memLocationRepo) ListByOrganization(orgID string) ([]*entity.Location, error) {
	return nil, nil
}

type memProductRepo struct{ products map[string]*entity.Product }

func (r *memProductRepo) GetByID(orgID, id string) (*entity.Product, error) {
	if p, ok := r.products[id]; ok && p.OrganizationID == orgID {
		return p, nil
	}
	return nil, domain.ErrNotFound
}
func (r *memProductRepo) ListByIDs(orgID string, ids []string) ([]*entity.Product, error) {
	return nil, nil
}
