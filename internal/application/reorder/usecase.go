package reorder

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/medstock-pro/internal/domain"
	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
	"github.com/tu-usuario/medstock-pro/internal/domain/inventory"
	"github.com/tu-usuario/medstock-pro/internal/domain/repository"
)

// SuggestUseCase calcula las sugerencias de reposición de una organización.
// Lectura pura: no muta stock ni crea pedidos.
type SuggestUseCase struct {
	levelRepo   repository.StockLevelRepository
	productRepo repository.ProductRepository
	batchRepo   repository.BatchRepository
	now         func() time.Time
}

// NewSuggestUseCase construye el caso de uso de sugerencias.
func NewSuggestUseCase(
	levelRepo repository.StockLevelRepository,
	productRepo repository.ProductRepository,
	batchRepo repository.BatchRepository,
) *SuggestUseCase {
	return &SuggestUseCase{
		levelRepo:   levelRepo,
		productRepo: productRepo,
		batchRepo:   batchRepo,
		now:         time.Now,
	}
}

// Suggestion es una línea de reposición sugerida para un producto en una
// ubicación concreta.
type Suggestion struct {
	ProductID         string
	ProductName       string
	SKU               string
	LocationID        string
	CurrentQuantity   decimal.Decimal
	MinimumQuantity   decimal.Decimal
	SuggestedQuantity decimal.Decimal
	Urgency           inventory.Urgency
	SoonestExpiry     *time.Time
	PreferredSupplier string
}

// Suggest devuelve los productos bajo su mínimo o bajo su punto de reorden,
// con cantidad sugerida max(min*2 - current, min) y urgencia por nivel.
// locationID vacío considera todas las ubicaciones. El orden es determinista:
// urgencia descendente, vencimiento más próximo primero (sesgo FEFO), mayor
// déficit, y por último producto/ubicación para desempatar.
func (uc *SuggestUseCase) Suggest(ctx context.Context, orgCtx domain.OrganizationContext, locationID string) ([]Suggestion, error) {
	if !orgCtx.Valid() {
		return nil, domain.NewValidationError("organization_id", "requerido")
	}

	levels, err := uc.levelRepo.ListBelowReorder(orgCtx.OrganizationID, locationID)
	if err != nil {
		return nil, fmt.Errorf("listar niveles bajo reorden: %w", err)
	}
	if len(levels) == 0 {
		return []Suggestion{}, nil
	}

	productIDs := make([]string, 0, len(levels))
	for _, lv := range levels {
		productIDs = append(productIDs, lv.ProductID)
	}
	products, err := uc.productRepo.ListByIDs(orgCtx.OrganizationID, productIDs)
	if err != nil {
		return nil, fmt.Errorf("resolver productos: %w", err)
	}
	productByID := make(map[string]*entity.Product, len(products))
	for _, p := range products {
		productByID[p.ID] = p
	}

	// Vencimiento más próximo por (ubicación, producto) para el sesgo FEFO.
	expiries, err := uc.batchRepo.SoonestExpiry(orgCtx.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("consultar vencimientos: %w", err)
	}

	suggestions := make([]Suggestion, 0, len(levels))
	for _, lv := range levels {
		qty := inventory.SuggestedOrderQuantity(lv.CurrentQuantity, lv.MinimumQuantity)
		if qty.IsZero() {
			continue
		}
		s := Suggestion{
			ProductID:         lv.ProductID,
			LocationID:        lv.LocationID,
			CurrentQuantity:   lv.CurrentQuantity,
			MinimumQuantity:   lv.MinimumQuantity,
			SuggestedQuantity: qty,
			Urgency:           inventory.StockUrgency(lv.CurrentQuantity, lv.MinimumQuantity),
			PreferredSupplier: lv.PreferredSupplierID,
		}
		if p, ok := productByID[lv.ProductID]; ok {
			s.ProductName = p.Name
			s.SKU = p.SKU
		}
		if exp, ok := expiries[lv.LocationID+"/"+lv.ProductID]; ok {
			e := exp
			s.SoonestExpiry = &e
		}
		suggestions = append(suggestions, s)
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		if a.Urgency.Rank() != b.Urgency.Rank() {
			return a.Urgency.Rank() > b.Urgency.Rank()
		}
		if (a.SoonestExpiry == nil) != (b.SoonestExpiry == nil) || (a.SoonestExpiry != nil && !a.SoonestExpiry.Equal(*b.SoonestExpiry)) {
			return inventory.EarlierExpiry(a.SoonestExpiry, b.SoonestExpiry)
		}
		defA := a.MinimumQuantity.Sub(a.CurrentQuantity)
		defB := b.MinimumQuantity.Sub(b.CurrentQuantity)
		if !defA.Equal(defB) {
			return defA.GreaterThan(defB)
		}
		if a.ProductID != b.ProductID {
			return a.ProductID < b.ProductID
		}
		return a.LocationID < b.LocationID
	})

	return suggestions, nil
}
