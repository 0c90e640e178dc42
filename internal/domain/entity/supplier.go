package entity

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// OrderMethod es el canal por el que un proveedor recibe pedidos.
type OrderMethod string

const (
	OrderMethodEDI    OrderMethod = "edi"
	OrderMethodAPI    OrderMethod = "api"
	OrderMethodEmail  OrderMethod = "email"
	OrderMethodManual OrderMethod = "manual"
)

// Valid indica si el canal de pedido es conocido.
func (m OrderMethod) Valid() bool {
	switch m {
	case OrderMethodEDI, OrderMethodAPI, OrderMethodEmail, OrderMethodManual:
		return true
	}
	return false
}

// Supplier es un proveedor de la organización con sus condiciones comerciales
// y la configuración del canal de envío.
type Supplier struct {
	ID                    string
	OrganizationID        string
	Code                  string
	Name                  string
	OrderMethod           OrderMethod
	MinimumOrderAmount    decimal.Decimal
	ShippingCost          decimal.Decimal
	FreeShippingThreshold decimal.Decimal // subtotal desde el cual el envío es gratis; cero = nunca
	LeadTimeDays          int
	ContactEmail          string
	IntegrationConfig     json.RawMessage // configuración cruda del adaptador (endpoint, auth, formato)
	Active                bool
	CreatedAt             time.Time
}

// SupplierProduct es la entrada de catálogo que liga un producto con un
// proveedor: SKU del proveedor, costo y reglas de cantidad.
type SupplierProduct struct {
	ID                   string
	SupplierID           string
	ProductID            string
	SupplierSKU          string
	CostPrice            decimal.Decimal
	MinimumOrderQuantity decimal.Decimal // cantidad mínima por línea; cero = sin mínimo
	OrderMultiple        decimal.Decimal // múltiplo de empaque; cero = sin múltiplo
	LeadTimeDays         int
	Preferred            bool
}
