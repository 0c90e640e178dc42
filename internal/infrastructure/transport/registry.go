// Package transport reúne los adaptadores de envío de pedidos y resuelve el
// adaptador que corresponde a cada canal de proveedor.
package transport

import (
	"fmt"

	"github.com/tu-usuario/medstock-pro/internal/application/orders"
	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
)

var _ orders.SenderResolver = (*Registry)(nil)

// Registry mapea canales de pedido a sus adaptadores. El canal email comparte
// adaptador con el manual: ambos terminan en una orden de compra archivada.
type Registry struct {
	document orders.Sender
	api      orders.Sender
	manual   orders.Sender
}

// NewRegistry construye el registro con los tres adaptadores.
func NewRegistry(document, api, manual orders.Sender) *Registry {
	return &Registry{document: document, api: api, manual: manual}
}

// Resolve devuelve el adaptador del canal.
func (r *Registry) Resolve(method entity.OrderMethod) (orders.Sender, error) {
	switch method {
	case entity.OrderMethodEDI:
		return r.document, nil
	case entity.OrderMethodAPI:
		return r.api, nil
	case entity.OrderMethodEmail, entity.OrderMethodManual:
		return r.manual, nil
	}
	return nil, fmt.Errorf("canal de pedido desconocido: %s", method)
}
