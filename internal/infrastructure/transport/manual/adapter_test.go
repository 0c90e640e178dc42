package manual

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
)

type stubGenerator struct {
	doc []byte
	err error
}

func (g *stubGenerator) GenerateOrderPDF(_ context.Context, _ *entity.SupplierOrder, _ *entity.Supplier, _ string) ([]byte, error) {
	return g.doc, g.err
}

func fixtureOrder() (*entity.SupplierOrder, *entity.Supplier) {
	order := &entity.SupplierOrder{
		ID:             "ord-1",
		OrganizationID: "org-1",
		SupplierID:     "sup-a",
		Subtotal:       decimal.NewFromInt(50),
	}
	sup := &entity.Supplier{ID: "sup-a", Code: "ALFA", Name: "Proveedor Alfa", OrderMethod: entity.OrderMethodManual}
	return order, sup
}

func TestSend_ArchivaElPDF(t *testing.T) {
	dir := t.TempDir()
	a := NewAdapter(&stubGenerator{doc: []byte("%PDF-1.7 test")}, dir, zerolog.Nop())
	order, sup := fixtureOrder()

	res := a.Send(context.Background(), order, sup, "ORD-1-ALFA")
	require.True(t, res.Success)
	assert.Equal(t, entity.OrderMethodManual, res.MethodUsed)
	assert.Empty(t, res.Warning)

	data, err := os.ReadFile(filepath.Join(dir, "ORD-1-ALFA.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7 test", string(data))
}

func TestSend_FalloDePDFEsAdvertenciaNoFallo(t *testing.T) {
	a := NewAdapter(&stubGenerator{err: errors.New("fuente no disponible")}, t.TempDir(), zerolog.Nop())
	order, sup := fixtureOrder()

	res := a.Send(context.Background(), order, sup, "ORD-2-ALFA")
	assert.True(t, res.Success, "el canal manual nunca falla por el PDF")
	assert.Contains(t, res.Warning, "no se pudo generar el PDF")
}

func TestSend_SinDirectorioOmiteElArchivado(t *testing.T) {
	a := NewAdapter(&stubGenerator{doc: []byte("x")}, "", zerolog.Nop())
	order, sup := fixtureOrder()

	res := a.Send(context.Background(), order, sup, "ORD-3-ALFA")
	assert.True(t, res.Success)
	assert.Empty(t, res.Warning)
}
