// Package manual implementa el canal de pedidos manual/email: el pedido se
// considera entregado al generarse su orden de compra en PDF, que queda
// archivada para que el operador la reenvíe al proveedor.
package manual

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/tu-usuario/medstock-pro/internal/application/orders"
	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
)

var _ orders.Sender = (*Adapter)(nil)

// Generator produce el documento de orden de compra del pedido.
type Generator interface {
	GenerateOrderPDF(ctx context.Context, order *entity.SupplierOrder, sup *entity.Supplier, reference string) ([]byte, error)
}

// Adapter archiva la orden de compra en PDF. Nunca marca el envío como
// fallido: si el PDF no se pudo generar o guardar queda como advertencia y el
// operador gestiona el pedido a mano.
type Adapter struct {
	gen    Generator
	outDir string
	log    zerolog.Logger
	now    func() time.Time
}

// NewAdapter construye el adaptador. outDir vacío omite el archivado.
func NewAdapter(gen Generator, outDir string, log zerolog.Logger) *Adapter {
	return &Adapter{gen: gen, outDir: outDir, log: log, now: time.Now}
}

// Send genera y archiva el PDF del pedido.
func (a *Adapter) Send(ctx context.Context, order *entity.SupplierOrder, sup *entity.Supplier, reference string) *entity.OrderSendingResult {
	result := &entity.OrderSendingResult{
		OrderReference: reference,
		SupplierID:     sup.ID,
		Success:        true,
		MethodUsed:     entity.OrderMethodManual,
		SentAt:         a.now(),
	}

	if a.gen == nil || a.outDir == "" {
		return result
	}

	doc, err := a.gen.GenerateOrderPDF(ctx, order, sup, reference)
	if err != nil {
		result.Warning = fmt.Sprintf("no se pudo generar el PDF del pedido: %v", err)
		a.log.Warn().Err(err).Str("reference", reference).Msg("generación de PDF fallida")
		return result
	}

	path := filepath.Join(a.outDir, reference+".pdf")
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		result.Warning = fmt.Sprintf("no se pudo archivar el PDF del pedido: %v", err)
		a.log.Warn().Err(err).Str("path", path).Msg("archivado de PDF fallido")
		return result
	}

	a.log.Info().Str("reference", reference).Str("path", path).Msg("orden de compra archivada")
	return result
}
