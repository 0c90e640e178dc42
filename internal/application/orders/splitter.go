package orders

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/medstock-pro/internal/application/reorder"
	"github.com/tu-usuario/medstock-pro/internal/domain"
	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
	"github.com/tu-usuario/medstock-pro/internal/domain/repository"
)

// Splitter agrupa sugerencias de reposición en pedidos por proveedor
// aplicando las reglas comerciales del catálogo (mínimos por línea, múltiplos
// de empaque, mínimos de pedido, envío gratis).
type Splitter struct {
	supplierRepo repository.SupplierRepository
	now          func() time.Time
}

// NewSplitter construye el splitter.
func NewSplitter(supplierRepo repository.SupplierRepository) *Splitter {
	return &Splitter{supplierRepo: supplierRepo, now: time.Now}
}

// SplitResult es el resultado del particionado: un pedido por proveedor y las
// sugerencias sin proveedor asignable. Ninguna sugerencia se descarta.
type SplitResult struct {
	Orders     []*entity.SupplierOrder
	Unassigned []reorder.Suggestion
}

// TotalValue suma el total de todos los pedidos del resultado.
func (r *SplitResult) TotalValue() decimal.Decimal {
	total := decimal.Zero
	for _, o := range r.Orders {
		total = total.Add(o.Total)
	}
	return total
}

// Split particiona las sugerencias en pedidos por proveedor. El resultado es
// determinista: pedidos ordenados por ID de proveedor, líneas en el orden de
// entrada de las sugerencias.
func (s *Splitter) Split(ctx context.Context, orgCtx domain.OrganizationContext, suggestions []reorder.Suggestion) (*SplitResult, error) {
	if !orgCtx.Valid() {
		return nil, domain.NewValidationError("organization_id", "requerido")
	}
	result := &SplitResult{}
	if len(suggestions) == 0 {
		return result, nil
	}

	productIDs := make([]string, 0, len(suggestions))
	for _, sg := range suggestions {
		productIDs = append(productIDs, sg.ProductID)
	}
	catalog, err := s.supplierRepo.CatalogForProducts(orgCtx.OrganizationID, productIDs)
	if err != nil {
		return nil, fmt.Errorf("consultar catálogo de proveedores: %w", err)
	}

	now := s.now()
	bySupplier := make(map[string]*entity.SupplierOrder)
	supplierOf := make(map[string]*entity.Supplier)
	catalogLeadOf := make(map[string]int)
	pairCache := make(map[string]*repository.CatalogEntry)

	for _, sg := range suggestions {
		entry := catalog[sg.ProductID]
		// El proveedor preferido del nivel de stock manda sobre la marca
		// preferida del catálogo; el catálogo queda como respaldo.
		if sg.PreferredSupplier != "" && (entry == nil || entry.Supplier == nil || entry.Supplier.ID != sg.PreferredSupplier) {
			preferred, err := s.preferredEntry(orgCtx.OrganizationID, sg.PreferredSupplier, sg.ProductID, pairCache)
			if err != nil {
				return nil, err
			}
			if preferred != nil {
				entry = preferred
			}
		}
		if entry == nil || entry.Supplier == nil {
			result.Unassigned = append(result.Unassigned, sg)
			continue
		}
		sup := entry.Supplier

		order, ok := bySupplier[sup.ID]
		if !ok {
			order = &entity.SupplierOrder{
				ID:             uuid.New().String(),
				OrganizationID: orgCtx.OrganizationID,
				SupplierID:     sup.ID,
				Status:         entity.OrderPending,
				MethodUsed:     sup.OrderMethod,
				CreatedBy:      orgCtx.UserID,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			bySupplier[sup.ID] = order
			supplierOf[sup.ID] = sup
		}

		item := buildItem(order.ID, sg, entry.Product)
		order.Items = append(order.Items, item)
		order.Subtotal = order.Subtotal.Add(item.LineTotal)
		if entry.Product.LeadTimeDays > catalogLeadOf[sup.ID] {
			catalogLeadOf[sup.ID] = entry.Product.LeadTimeDays
		}
	}

	supplierIDs := make([]string, 0, len(bySupplier))
	for id := range bySupplier {
		supplierIDs = append(supplierIDs, id)
	}
	sort.Strings(supplierIDs)

	for _, id := range supplierIDs {
		order := bySupplier[id]
		sup := supplierOf[id]

		order.ShippingCost = sup.ShippingCost
		if sup.FreeShippingThreshold.IsPositive() && order.Subtotal.GreaterThanOrEqual(sup.FreeShippingThreshold) {
			order.ShippingCost = decimal.Zero
		}
		order.Total = order.Subtotal.Add(order.ShippingCost)
		order.BelowMinimum = sup.MinimumOrderAmount.IsPositive() && order.Subtotal.LessThan(sup.MinimumOrderAmount)

		lead := sup.LeadTimeDays
		if cl := catalogLeadOf[id]; cl > 0 {
			lead = cl
		}
		if lead > 0 {
			eta := now.AddDate(0, 0, lead)
			order.ExpectedDelivery = &eta
		}
		result.Orders = append(result.Orders, order)
	}
	return result, nil
}

// buildItem construye la línea del pedido aplicando mínimo por línea y
// múltiplo de empaque, dejando nota del ajuste.
func buildItem(orderID string, sg reorder.Suggestion, cp *entity.SupplierProduct) entity.SupplierOrderItem {
	qty := sg.SuggestedQuantity
	var note string

	if cp.MinimumOrderQuantity.IsPositive() && qty.LessThan(cp.MinimumOrderQuantity) {
		note = fmt.Sprintf("cantidad ajustada de %s a %s por mínimo del proveedor", qty, cp.MinimumOrderQuantity)
		qty = cp.MinimumOrderQuantity
	}
	if cp.OrderMultiple.IsPositive() {
		rounded := qty.Div(cp.OrderMultiple).Ceil().Mul(cp.OrderMultiple)
		if !rounded.Equal(qty) {
			if note != "" {
				note += "; "
			}
			note += fmt.Sprintf("redondeada de %s a %s por múltiplo de empaque %s", qty, rounded, cp.OrderMultiple)
			qty = rounded
		}
	}

	return entity.SupplierOrderItem{
		ID:             uuid.New().String(),
		OrderID:        orderID,
		ProductID:      sg.ProductID,
		LocationID:     sg.LocationID,
		SupplierSKU:    cp.SupplierSKU,
		ProductName:    sg.ProductName,
		Quantity:       qty,
		UnitPrice:      cp.CostPrice,
		LineTotal:      qty.Mul(cp.CostPrice),
		AdjustmentNote: note,
	}
}

// preferredEntry resuelve (con caché por par) la entrada de catálogo del
// proveedor preferido del nivel de stock.
func (s *Splitter) preferredEntry(orgID, supplierID, productID string, cache map[string]*repository.CatalogEntry) (*repository.CatalogEntry, error) {
	key := supplierID + "|" + productID
	if entry, ok := cache[key]; ok {
		return entry, nil
	}
	entry, err := s.supplierRepo.CatalogEntryFor(orgID, supplierID, productID)
	if err != nil {
		return nil, fmt.Errorf("consultar catálogo del proveedor preferido: %w", err)
	}
	cache[key] = entry
	return entry, nil
}
