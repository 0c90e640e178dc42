package automation_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tu-usuario/medstock-pro/internal/domain"
	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
)

// pendingDraft corre la automatización sin auto-aprobar y devuelve el borrador
// que deja en espera.
func pendingDraft(t *testing.T, f *fixture) *entity.OrderDraft {
	t.Helper()
	res, err := f.uc.RunForOrganization(context.Background(), org(false, 0))
	require.NoError(t, err)
	require.NotEmpty(t, res.DraftID)
	draft, err := f.drafts.GetByID(testOrg, res.DraftID)
	require.NoError(t, err)
	return draft
}

func TestApproveDraft_DespachaLosPedidos(t *testing.T) {
	f := newFixture([]*entity.StockLevel{lowLevel("p1"), lowLevel("p2")})
	draft := pendingDraft(t, f)

	orgCtx := domain.OrganizationContext{OrganizationID: testOrg, UserID: "user-7"}
	results, err := f.uc.ApproveDraft(context.Background(), orgCtx, draft.ID)
	require.NoError(t, err)

	// Ambas líneas van al mismo proveedor: un pedido, un envío exitoso.
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.Len(t, f.orders.orders, 1, "el pedido aprobado queda persistido")

	decided, err := f.drafts.GetByID(testOrg, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DraftApproved, decided.Status)
	assert.Equal(t, "user-7", decided.DecidedBy)
}

// TestApproveDraft_YaDecididoEsConflicto: aprobar dos veces no re-despacha.
func TestApproveDraft_YaDecididoEsConflicto(t *testing.T) {
	f := newFixture([]*entity.StockLevel{lowLevel("p1")})
	draft := pendingDraft(t, f)

	orgCtx := domain.OrganizationContext{OrganizationID: testOrg, UserID: "user-7"}
	_, err := f.uc.ApproveDraft(context.Background(), orgCtx, draft.ID)
	require.NoError(t, err)
	ordersAfterFirst := len(f.orders.orders)

	_, err = f.uc.ApproveDraft(context.Background(), orgCtx, draft.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Len(t, f.orders.orders, ordersAfterFirst, "la segunda aprobación no crea pedidos")
}

func TestRejectDraft_NoCreaPedidos(t *testing.T) {
	f := newFixture([]*entity.StockLevel{lowLevel("p1")})
	draft := pendingDraft(t, f)

	orgCtx := domain.OrganizationContext{OrganizationID: testOrg, UserID: "user-7"}
	require.NoError(t, f.uc.RejectDraft(context.Background(), orgCtx, draft.ID))

	decided, err := f.drafts.GetByID(testOrg, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DraftRejected, decided.Status)
	assert.Empty(t, f.orders.orders)

	pending, err := f.uc.PendingDrafts(context.Background(), orgCtx)
	require.NoError(t, err)
	assert.Empty(t, pending, "el borrador rechazado sale de la lista pendiente")
}

func TestApproveDraft_Inexistente(t *testing.T) {
	f := newFixture(nil)
	orgCtx := domain.OrganizationContext{OrganizationID: testOrg, UserID: "user-7"}
	_, err := f.uc.ApproveDraft(context.Background(), orgCtx, "no-such")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
