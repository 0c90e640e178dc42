package automation_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tu-usuario/medstock-pro/internal/application/automation"
	"github.com/tu-usuario/medstock-pro/internal/application/orders"
	"github.com/tu-usuario/medstock-pro/internal/application/reorder"
	"github.com/tu-usuario/medstock-pro/internal/domain"
	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
	"github.com/tu-usuario/medstock-pro/internal/domain/repository"
)

const testOrg = "org-1"

// ── fakes ─────────────────────────────────────────────────────────────────────

type stubLevelRepo struct {
	levels       []*entity.StockLevel
	zeroCount    int
	lowCount     int
	failForOrgID string
}

func (r *stubLevelRepo) Get(orgID, locationID, productID string) (*entity.StockLevel, error) {
	return nil, domain.ErrNotFound
}
func (r *stubLevelRepo) GetForUpdate(orgID, locationID, productID string) (*entity.StockLevel, error) {
	return nil, domain.ErrNotFound
}
func (r *stubLevelRepo) Upsert(level *entity.StockLevel) error { return nil }
func (r *stubLevelRepo) ListBelowReorder(orgID, locationID string) ([]*entity.StockLevel, error) {
	if orgID == r.failForOrgID {
		return nil, fmt.Errorf("conexión perdida")
	}
	return r.levels, nil
}
func (r *stubLevelRepo) ListOverMaximum(orgID string) ([]*entity.StockLevel, error) { return nil, nil }
func (r *stubLevelRepo) CountZeroStock(orgID string) (int, error)                   { return r.zeroCount, nil }
func (r *stubLevelRepo) CountBelowMinimum(orgID string) (int, error)                { return r.lowCount, nil }

type stubBatchRepo struct{ expired, expiring int }

func (r *stubBatchRepo) Create(b *entity.ProductBatch) error { return nil }
func (r *stubBatchRepo) ListByProduct(orgID, locationID, productID string) ([]*entity.ProductBatch, error) {
	return nil, nil
}
func (r *stubBatchRepo) SoonestExpiry(orgID string) (map[string]time.Time, error) { return nil, nil }
func (r *stubBatchRepo) CountExpired(orgID string, now time.Time) (int, error) {
	return r.expired, nil
}
func (r *stubBatchRepo) CountExpiringWithin(orgID string, now time.Time, days int) (int, error) {
	return r.expiring, nil
}

type stubProductRepo struct{}

func (r *stubProductRepo) GetByID(orgID, id string) (*entity.Product, error) {
	return &entity.Product{ID: id, OrganizationID: orgID, Name: "Producto " + id}, nil
}
func (r *stubProductRepo) ListByIDs(orgID string, ids []string) ([]*entity.Product, error) {
	var out []*entity.Product
	for _, id := range ids {
		out = append(out, &entity.Product{ID: id, OrganizationID: orgID, Name: "Producto " + id})
	}
	return out, nil
}

type stubSupplierRepo struct {
	suppliers map[string]*entity.Supplier
	catalog   map[string]*repository.CatalogEntry
}

func (r *stubSupplierRepo) GetByID(orgID, id string) (*entity.Supplier, error) {
	if s, ok := r.suppliers[id]; ok {
		return s, nil
	}
	return nil, domain.ErrNotFound
}
func (r *stubSupplierRepo) ListByOrganization(orgID string) ([]*entity.Supplier, error) {
	return nil, nil
}
func (r *stubSupplierRepo) CatalogForProducts(orgID string, productIDs []string) (map[string]*repository.CatalogEntry, error) {
	return r.catalog, nil
}
func (r *stubSupplierRepo) CatalogEntryFor(orgID, supplierID, productID string) (*repository.CatalogEntry, error) {
	if entry, ok := r.catalog[productID]; ok && entry.Supplier != nil && entry.Supplier.ID == supplierID {
		return entry, nil
	}
	return nil, nil
}

type memOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*entity.SupplierOrder
}

func (r *memOrderRepo) Create(order *entity.SupplierOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *order
	r.orders[order.ID] = &cp
	return nil
}
func (r *memOrderRepo) GetByID(orgID, id string) (*entity.SupplierOrder, error) {
	return nil, domain.ErrNotFound
}
func (r *memOrderRepo) GetByReference(orgID, reference string) (*entity.SupplierOrder, error) {
	return nil, domain.ErrNotFound
}
func (r *memOrderRepo) GetForUpdate(orgID, id string) (*entity.SupplierOrder, error) {
	return nil, domain.ErrNotFound
}
func (r *memOrderRepo) UpdateStatus(orgID, id string, status entity.OrderStatus, at time.Time) error {
	return nil
}
func (r *memOrderRepo) RecordSendingResult(orgID, id string, result *entity.OrderSendingResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok := r.orders[id]; ok {
		if result.Success {
			o.Status = entity.OrderSent
		} else {
			o.Status = entity.OrderFailed
		}
	}
	return nil
}
func (r *memOrderRepo) UpdateItemReceived(orgID, orderID, itemID string, item *entity.SupplierOrderItem) error {
	return nil
}
func (r *memOrderRepo) MarkStockProcessed(orgID, id string, at time.Time) error { return nil }
func (r *memOrderRepo) ListByStatus(orgID string, status entity.OrderStatus) ([]*entity.SupplierOrder, error) {
	return nil, nil
}
func (r *memOrderRepo) ListOverdue(orgID string, now time.Time) ([]*entity.SupplierOrder, error) {
	return nil, nil
}

type memDraftRepo struct {
	mu     sync.Mutex
	drafts []*entity.OrderDraft
}

func (r *memDraftRepo) Create(d *entity.OrderDraft) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *d
	r.drafts = append(r.drafts, &cp)
	return nil
}
func (r *memDraftRepo) GetByID(orgID, id string) (*entity.OrderDraft, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.drafts {
		if d.ID == id {
			cp := *d
			return &cp, nil
		}
	}
	return nil, domain.NewReferenceError("draft", id)
}
func (r *memDraftRepo) Decide(orgID, id string, status entity.DraftStatus, decidedBy string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.drafts {
		if d.ID == id {
			if d.Status != entity.DraftPendingApproval {
				return domain.NewConflictError("decide draft", id, nil)
			}
			d.Status = status
			d.DecidedBy = decidedBy
			d.DecidedAt = &at
			return nil
		}
	}
	return domain.NewReferenceError("draft", id)
}
func (r *memDraftRepo) ListPending(orgID string) ([]*entity.OrderDraft, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.OrderDraft
	for _, d := range r.drafts {
		if d.Status == entity.DraftPendingApproval {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memNotificationRepo struct {
	mu      sync.Mutex
	notices []*entity.Notification
}

func (r *memNotificationRepo) Create(n *entity.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *n
	r.notices = append(r.notices, &cp)
	return nil
}
func (r *memNotificationRepo) ListByOrganization(orgID string, limit int) ([]*entity.Notification, error) {
	return nil, nil
}

type okSender struct{}

func (s *okSender) Send(ctx context.Context, order *entity.SupplierOrder, sup *entity.Supplier, reference string) *entity.OrderSendingResult {
	return &entity.OrderSendingResult{
		OrderReference: reference,
		SupplierID:     sup.ID,
		Success:        true,
		MethodUsed:     sup.OrderMethod,
		SentAt:         time.Now(),
	}
}

type okResolver struct{}

func (r *okResolver) Resolve(method entity.OrderMethod) (orders.Sender, error) {
	return &okSender{}, nil
}

type noopReservations struct{}

func (noopReservations) AdjustReservation(ctx context.Context, orgCtx domain.OrganizationContext, locationID, productID string, delta decimal.Decimal) error {
	return nil
}

type stubOrgRepo struct{ orgs []*entity.Organization }

func (r *stubOrgRepo) GetByID(id string) (*entity.Organization, error) {
	for _, o := range r.orgs {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, domain.ErrNotFound
}
func (r *stubOrgRepo) ListAutomationEnabled() ([]*entity.Organization, error) { return r.orgs, nil }

// ── fixture ───────────────────────────────────────────────────────────────────

type fixture struct {
	uc      *automation.UseCase
	levels  *stubLevelRepo
	batches *stubBatchRepo
	orders  *memOrderRepo
	drafts  *memDraftRepo
	notices *memNotificationRepo
	orgs    *stubOrgRepo
}

func newFixture(levels []*entity.StockLevel) *fixture {
	sup := &entity.Supplier{
		ID:             "sup-a",
		OrganizationID: testOrg,
		Code:           "ALFA",
		OrderMethod:    entity.OrderMethodAPI,
	}
	catalog := map[string]*repository.CatalogEntry{}
	for _, lv := range levels {
		catalog[lv.ProductID] = &repository.CatalogEntry{
			Supplier: sup,
			Product: &entity.SupplierProduct{
				SupplierID:  sup.ID,
				ProductID:   lv.ProductID,
				SupplierSKU: "SUP-" + lv.ProductID,
				CostPrice:   decimal.NewFromInt(10),
			},
		}
	}
	supplierRepo := &stubSupplierRepo{
		suppliers: map[string]*entity.Supplier{"sup-a": sup},
		catalog:   catalog,
	}

	f := &fixture{
		levels:  &stubLevelRepo{levels: levels},
		batches: &stubBatchRepo{},
		orders:  &memOrderRepo{orders: make(map[string]*entity.SupplierOrder)},
		drafts:  &memDraftRepo{},
		notices: &memNotificationRepo{},
		orgs:    &stubOrgRepo{},
	}
	suggestUC := reorder.NewSuggestUseCase(f.levels, &stubProductRepo{}, f.batches)
	splitter := orders.NewSplitter(supplierRepo)
	dispatcher := orders.NewDispatcher(
		&okResolver{}, supplierRepo, f.orders, f.notices, noopReservations{}, nil, zerolog.Nop(),
	)
	f.uc = automation.NewUseCase(
		f.orgs, f.levels, f.batches, suggestUC, splitter, dispatcher,
		f.drafts, f.notices, zerolog.Nop(),
	)
	return f
}

func lowLevel(productID string) *entity.StockLevel {
	return &entity.StockLevel{
		OrganizationID:  testOrg,
		LocationID:      "loc-1",
		ProductID:       productID,
		CurrentQuantity: decimal.NewFromInt(5),
		MinimumQuantity: decimal.NewFromInt(20),
	}
}

func org(autoApprove bool, maxValue int64) *entity.Organization {
	return &entity.Organization{
		ID:                testOrg,
		Active:            true,
		AutomationEnabled: true,
		AutoApprove:       autoApprove,
		MaxOrderValue:     decimal.NewFromInt(maxValue),
	}
}

// ── tests ─────────────────────────────────────────────────────────────────────

func TestHealthCheck_ContadoresYRecomendaciones(t *testing.T) {
	f := newFixture(nil)
	f.levels.zeroCount = 2
	f.levels.lowCount = 5
	f.batches.expired = 1
	f.batches.expiring = 3

	report, err := f.uc.HealthCheck(context.Background(), domain.OrganizationContext{OrganizationID: testOrg})
	require.NoError(t, err)
	assert.Equal(t, 2, report.ZeroStock)
	assert.Equal(t, 5, report.LowStock)
	assert.Equal(t, 1, report.ExpiredBatches)
	assert.Equal(t, 3, report.ExpiringBatches)
	assert.True(t, report.Critical())
	assert.Len(t, report.Recommendations, 4)
}

func TestRunForOrganization_SinAutoAprobarCreaBorrador(t *testing.T) {
	f := newFixture([]*entity.StockLevel{lowLevel("p1"), lowLevel("p2")})

	res, err := f.uc.RunForOrganization(context.Background(), org(false, 0))
	require.NoError(t, err)

	assert.True(t, res.ApprovalRequired)
	assert.NotEmpty(t, res.DraftID)
	assert.Equal(t, 2, res.Suggestions)
	assert.Zero(t, res.OrdersSent, "nada se envía sin aprobación")
	require.Len(t, f.drafts.drafts, 1)
	assert.Equal(t, entity.DraftPendingApproval, f.drafts.drafts[0].Status)
	assert.Len(t, f.drafts.drafts[0].Items, 2)

	var approvals int
	for _, n := range f.notices.notices {
		if n.Category == entity.NotificationApproval {
			approvals++
		}
	}
	assert.Equal(t, 1, approvals, "se notifica la espera de aprobación")
}

func TestRunForOrganization_AutoAprobadoEnvia(t *testing.T) {
	f := newFixture([]*entity.StockLevel{lowLevel("p1")})

	res, err := f.uc.RunForOrganization(context.Background(), org(true, 10_000))
	require.NoError(t, err)

	assert.False(t, res.ApprovalRequired)
	assert.Equal(t, 1, res.OrdersCreated)
	assert.Equal(t, 1, res.OrdersSent)
	assert.Zero(t, res.OrdersFailed)
	assert.Empty(t, f.drafts.drafts)
}

// TestRunForOrganization_TopeDeValorExigeAprobacion: con auto-aprobado, un
// total sobre el tope igual termina en borrador.
func TestRunForOrganization_TopeDeValorExigeAprobacion(t *testing.T) {
	f := newFixture([]*entity.StockLevel{lowLevel("p1")})

	// Sugerido 35 * costo 10 = 350 > tope 100.
	res, err := f.uc.RunForOrganization(context.Background(), org(true, 100))
	require.NoError(t, err)

	assert.True(t, res.ApprovalRequired)
	assert.NotEmpty(t, res.DraftID)
	assert.Zero(t, res.OrdersSent)
	require.Len(t, f.drafts.drafts, 1)
	assert.Contains(t, f.drafts.drafts[0].Reason, "supera el tope")
}

func TestRunForOrganization_SinFaltantesNoHaceNada(t *testing.T) {
	f := newFixture(nil)

	res, err := f.uc.RunForOrganization(context.Background(), org(true, 0))
	require.NoError(t, err)
	assert.Zero(t, res.Suggestions)
	assert.Zero(t, res.OrdersCreated)
	assert.Empty(t, f.drafts.drafts)
}

// TestRunAll_AislaFallosPorOrganizacion: el fallo de una organización no
// impide la corrida de las demás.
func TestRunAll_AislaFallosPorOrganizacion(t *testing.T) {
	f := newFixture([]*entity.StockLevel{lowLevel("p1")})
	orgB := &entity.Organization{ID: "org-2", Active: true, AutomationEnabled: true, AutoApprove: false}
	f.orgs.orgs = []*entity.Organization{org(false, 0), orgB}
	f.levels.failForOrgID = "org-2"

	results, err := f.uc.RunAll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)

	byOrg := map[string]*automation.RunResult{}
	for _, r := range results {
		byOrg[r.OrganizationID] = r
	}
	assert.NoError(t, byOrg[testOrg].Err)
	assert.NotEmpty(t, byOrg[testOrg].DraftID)
	assert.Error(t, byOrg["org-2"].Err, "el fallo queda capturado en su resultado")
}
