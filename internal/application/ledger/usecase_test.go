package ledger_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tu-usuario/medstock-pro/internal/application/ledger"
	"github.com/tu-usuario/medstock-pro/internal/domain"
	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
	"github.com/tu-usuario/medstock-pro/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria. El TxRunner serializa transacciones con un mutex global,
// equivalente funcional del SELECT FOR UPDATE por clave en PostgreSQL.
// ──────────────────────────────────────────────────────────────────────────────

type memStore struct {
	mu        sync.Mutex
	movements []*entity.StockMovement
	levels    map[string]*entity.StockLevel
}

func newMemStore() *memStore {
	return &memStore{levels: make(map[string]*entity.StockLevel)}
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
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.movements {
		if m.OrganizationID == orgID && m.ID == id {
			cp := *m
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memMovementRepo) ListByProduct(orgID, productID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.StockMovement
	for _, m := range r.s.movements {
		if m.OrganizationID == orgID && m.ProductID == productID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
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

type memTxRunner struct {
	s    *memStore
	txMu sync.Mutex
	// failuresLeft inyecta conflictos para probar el reintento.
	failuresLeft int
	attempts     int
}

func (t *memTxRunner) Run(ctx context.Context, fn func(
	movRepo repository.StockMovementRepository,
	levelRepo repository.StockLevelRepository,
) error) error {
	t.txMu.Lock()
	defer t.txMu.Unlock()
	t.attempts++
	if t.failuresLeft > 0 {
		t.failuresLeft--
		return domain.NewConflictError("tx", "clave", nil)
	}
	return fn(&memMovementRepo{s: t.s}, &memLevelRepo{s: t.s})
}

func (t *memTxRunner) RunOrders(ctx context.Context, fn func(
	movRepo repository.StockMovementRepository,
	levelRepo repository.StockLevelRepository,
	orderRepo repository.SupplierOrderRepository,
) error) error {
	t.txMu.Lock()
	defer t.txMu.Unlock()
	return fn(&memMovementRepo{s: t.s}, &memLevelRepo{s: t.s}, nil)
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

// ── fixture ───────────────────────────────────────────────────────────────────

const (
	testOrg      = "org-1"
	testLocation = "loc-1"
	testProduct  = "prod-1"
	testUser     = "user-1"
)

type fixture struct {
	store *memStore
	tx    *memTxRunner
	uc    *ledger.RecordMovementUseCase
}

func newFixture(allowNegative bool) *fixture {
	store := newMemStore()
	tx := &memTxRunner{s: store}
	uc := ledger.NewRecordMovementUseCase(
		tx,
		&memOrgRepo{orgs: map[string]*entity.Organization{testOrg: {ID: testOrg, Active: true}}},
		&memLocationRepo{locs: map[string]*entity.Location{testLocation: {ID: testLocation, OrganizationID: testOrg, AllowNegativeStock: allowNegative}}},
		&memProductRepo{products: map[string]*entity.Product{testProduct: {ID: testProduct, OrganizationID: testOrg}}},
		&memMovementRepo{s: store},
		ledger.DefaultRetryPolicy(),
	)
	return &fixture{store: store, tx: tx, uc: uc}
}

func orgCtx() domain.OrganizationContext {
	return domain.OrganizationContext{OrganizationID: testOrg, UserID: testUser}
}

func (f *fixture) level(t *testing.T) *entity.StockLevel {
	t.Helper()
	lv, ok := f.store.levels[levelKey(testOrg, testLocation, testProduct)]
	require.True(t, ok, "la proyección debe existir tras el primer movimiento")
	return lv
}

// ── tests ─────────────────────────────────────────────────────────────────────

func TestRecordMovement_ActualizaProyeccion(t *testing.T) {
	f := newFixture(false)

	m, err := f.uc.RecordMovement(context.Background(), orgCtx(), ledger.MovementInput{
		LocationID:     testLocation,
		ProductID:      testProduct,
		Type:           entity.MovementReceipt,
		QuantityChange: decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	assert.True(t, m.QuantityBefore.Equal(decimal.Zero))
	assert.True(t, m.QuantityAfter.Equal(decimal.NewFromInt(10)))
	assert.True(t, m.Consistent(), "after = before + change")
	assert.True(t, f.level(t).CurrentQuantity.Equal(decimal.NewFromInt(10)))
}

func TestRecordMovement_RechazaStockNegativo(t *testing.T) {
	f := newFixture(false)

	_, err := f.uc.RecordMovement(context.Background(), orgCtx(), ledger.MovementInput{
		LocationID:     testLocation,
		ProductID:      testProduct,
		Type:           entity.MovementUsage,
		QuantityChange: decimal.NewFromInt(-5),
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Empty(t, f.store.movements, "un movimiento rechazado no deja asiento")
}

func TestRecordMovement_PermiteNegativoSiUbicacionLoHabilita(t *testing.T) {
	f := newFixture(true)

	m, err := f.uc.RecordMovement(context.Background(), orgCtx(), ledger.MovementInput{
		LocationID:     testLocation,
		ProductID:      testProduct,
		Type:           entity.MovementUsage,
		QuantityChange: decimal.NewFromInt(-5),
	})
	require.NoError(t, err)
	assert.True(t, m.QuantityAfter.Equal(decimal.NewFromInt(-5)))
}

func TestRecordMovement_ValidacionYReferencias(t *testing.T) {
	f := newFixture(false)
	ctx := context.Background()

	_, err := f.uc.RecordMovement(ctx, orgCtx(), ledger.MovementInput{
		LocationID: testLocation, ProductID: testProduct,
		Type: "teleport", QuantityChange: decimal.NewFromInt(1),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "tipo desconocido")

	_, err = f.uc.RecordMovement(ctx, orgCtx(), ledger.MovementInput{
		LocationID: testLocation, ProductID: testProduct,
		Type: entity.MovementReceipt,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "cantidad cero")

	_, err = f.uc.RecordMovement(ctx, orgCtx(), ledger.MovementInput{
		LocationID: "loc-ajena", ProductID: testProduct,
		Type: entity.MovementReceipt, QuantityChange: decimal.NewFromInt(1),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound, "ubicación inexistente")
}

// TestRecordMovement_EscritoresConcurrentes verifica que N escritores sobre la
// misma clave no pierden actualizaciones: la proyección final es la suma de
// los cambios y cada asiento mantiene after = before + change.
func TestRecordMovement_EscritoresConcurrentes(t *testing.T) {
	f := newFixture(false)
	ctx := context.Background()

	// Stock inicial amplio para que ninguna salida sea rechazada.
	_, err := f.uc.RecordMovement(ctx, orgCtx(), ledger.MovementInput{
		LocationID: testLocation, ProductID: testProduct,
		Type: entity.MovementReceipt, QuantityChange: decimal.NewFromInt(1000),
	})
	require.NoError(t, err)

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		change := decimal.NewFromInt(10)
		typ := entity.MovementReceipt
		if i%2 == 1 {
			change = decimal.NewFromInt(-3)
			typ = entity.MovementUsage
		}
		go func(change decimal.Decimal, typ entity.MovementType) {
			defer wg.Done()
			_, err := f.uc.RecordMovement(ctx, orgCtx(), ledger.MovementInput{
				LocationID: testLocation, ProductID: testProduct,
				Type: typ, QuantityChange: change,
			})
			assert.NoError(t, err)
		}(change, typ)
	}
	wg.Wait()

	// 1000 + 10*10 - 10*3 = 1070
	expected := decimal.NewFromInt(1070)
	assert.True(t, f.level(t).CurrentQuantity.Equal(expected),
		"proyección final %s, esperada %s", f.level(t).CurrentQuantity, expected)

	sum := decimal.Zero
	for _, m := range f.store.movements {
		assert.True(t, m.Consistent(), "asiento inconsistente %s", m.ID)
		sum = sum.Add(m.QuantityChange)
	}
	assert.True(t, sum.Equal(expected), "la suma del ledger debe igualar la proyección")
}

func TestRecordMovement_ReintentaConflictos(t *testing.T) {
	f := newFixture(false)
	f.tx.failuresLeft = 2 // dos conflictos, el tercer intento entra

	_, err := f.uc.RecordMovement(context.Background(), orgCtx(), ledger.MovementInput{
		LocationID: testLocation, ProductID: testProduct,
		Type: entity.MovementReceipt, QuantityChange: decimal.NewFromInt(4),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, f.tx.attempts)
}

func TestRecordMovement_ConflictoAgotaReintentos(t *testing.T) {
	f := newFixture(false)
	f.tx.failuresLeft = 10

	_, err := f.uc.RecordMovement(context.Background(), orgCtx(), ledger.MovementInput{
		LocationID: testLocation, ProductID: testProduct,
		Type: entity.MovementReceipt, QuantityChange: decimal.NewFromInt(4),
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 3, f.tx.attempts, "la política por defecto hace 3 intentos")
}

func TestAdjustReservation_NoSuperaDisponible(t *testing.T) {
	f := newFixture(false)
	ctx := context.Background()

	_, err := f.uc.RecordMovement(ctx, orgCtx(), ledger.MovementInput{
		LocationID: testLocation, ProductID: testProduct,
		Type: entity.MovementReceipt, QuantityChange: decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	require.NoError(t, f.uc.AdjustReservation(ctx, orgCtx(), testLocation, testProduct, decimal.NewFromInt(8)))
	err = f.uc.AdjustReservation(ctx, orgCtx(), testLocation, testProduct, decimal.NewFromInt(5))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock, "reservar 13 de 10 debe fallar")

	// Liberar más de lo reservado no deja la reserva negativa.
	require.NoError(t, f.uc.AdjustReservation(ctx, orgCtx(), testLocation, testProduct, decimal.NewFromInt(-20)))
	assert.True(t, f.level(t).ReservedQuantity.Equal(decimal.Zero))
}

func TestApplyCount_RegistraDiferencia(t *testing.T) {
	f := newFixture(false)
	ctx := context.Background()

	_, err := f.uc.RecordMovement(ctx, orgCtx(), ledger.MovementInput{
		LocationID: testLocation, ProductID: testProduct,
		Type: entity.MovementReceipt, QuantityChange: decimal.NewFromInt(12),
	})
	require.NoError(t, err)

	m, err := f.uc.ApplyCount(ctx, orgCtx(), testLocation, testProduct, decimal.NewFromInt(9), "conteo mensual")
	require.NoError(t, err)
	assert.Equal(t, entity.MovementCount, m.Type)
	assert.True(t, m.QuantityChange.Equal(decimal.NewFromInt(-3)), "contado 9 sobre 12 = cambio -3")
	assert.True(t, f.level(t).CurrentQuantity.Equal(decimal.NewFromInt(9)))
}

func TestRecordTransfer_DosAsientosMismaReferencia(t *testing.T) {
	store := newMemStore()
	tx := &memTxRunner{s: store}
	locB := "loc-2"
	uc := ledger.NewRecordMovementUseCase(
		tx,
		&memOrgRepo{orgs: map[string]*entity.Organization{testOrg: {ID: testOrg, Active: true}}},
		&memLocationRepo{locs: map[string]*entity.Location{
			testLocation: {ID: testLocation, OrganizationID: testOrg},
			locB:         {ID: locB, OrganizationID: testOrg},
		}},
		&memProductRepo{products: map[string]*entity.Product{testProduct: {ID: testProduct, OrganizationID: testOrg}}},
		&memMovementRepo{s: store},
		ledger.DefaultRetryPolicy(),
	)
	ctx := context.Background()

	_, err := uc.RecordMovement(ctx, orgCtx(), ledger.MovementInput{
		LocationID: testLocation, ProductID: testProduct,
		Type: entity.MovementReceipt, QuantityChange: decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	require.NoError(t, uc.RecordTransfer(ctx, orgCtx(), testLocation, locB, testProduct, decimal.NewFromInt(4)))

	require.Len(t, store.movements, 3)
	out, in := store.movements[1], store.movements[2]
	assert.Equal(t, entity.MovementTransfer, out.Type)
	assert.Equal(t, entity.MovementTransfer, in.Type)
	assert.Equal(t, out.ReferenceID, in.ReferenceID, "ambos asientos comparten la referencia del traslado")
	assert.True(t, out.QuantityChange.Equal(decimal.NewFromInt(-4)))
	assert.True(t, in.QuantityChange.Equal(decimal.NewFromInt(4)))
	assert.True(t, store.levels[levelKey(testOrg, testLocation, testProduct)].CurrentQuantity.Equal(decimal.NewFromInt(6)))
	assert.True(t, store.levels[levelKey(testOrg, locB, testProduct)].CurrentQuantity.Equal(decimal.NewFromInt(4)))

	// Transferir más de lo disponible en origen falla sin tocar el destino.
	err = uc.RecordTransfer(ctx, orgCtx(), testLocation, locB, testProduct, decimal.NewFromInt(100))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}
