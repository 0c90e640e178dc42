package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/medstock-pro/internal/domain"
	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
	"github.com/tu-usuario/medstock-pro/internal/domain/repository"
	"github.com/tu-usuario/medstock-pro/pkg/metrics"
)

// RecordMovementUseCase registra movimientos de stock de forma transaccional:
// bloqueo de fila en la proyección (SELECT FOR UPDATE), asiento inmutable en
// el ledger y actualización de la proyección en el mismo Commit.
type RecordMovementUseCase struct {
	txRunner     TxRunner
	orgRepo      repository.OrganizationRepository
	locationRepo repository.LocationRepository
	productRepo  repository.ProductRepository
	movementRepo repository.StockMovementRepository // lecturas fuera de transacción
	retry        RetryPolicy
}

// NewRecordMovementUseCase construye el caso de uso.
func NewRecordMovementUseCase(
	txRunner TxRunner,
	orgRepo repository.OrganizationRepository,
	locationRepo repository.LocationRepository,
	productRepo repository.ProductRepository,
	movementRepo repository.StockMovementRepository,
	retry RetryPolicy,
) *RecordMovementUseCase {
	return &RecordMovementUseCase{
		txRunner:     txRunner,
		orgRepo:      orgRepo,
		locationRepo: locationRepo,
		productRepo:  productRepo,
		movementRepo: movementRepo,
		retry:        retry,
	}
}

// MovementInput es la entrada para registrar un movimiento. QuantityChange
// lleva signo: positivo entra, negativo sale.
type MovementInput struct {
	LocationID     string
	ProductID      string
	Type           entity.MovementType
	QuantityChange decimal.Decimal
	ReferenceType  string
	ReferenceID    string
	Reason         string
	Notes          string
	BatchNumber    string
	ExpiryDate     *time.Time
	// AllowNegative permite dejar el stock bajo cero aunque la ubicación no
	// lo tenga habilitado (correcciones explícitas del operador).
	AllowNegative bool
}

// RecordMovement valida la entrada, resuelve referencias y registra el
// movimiento dentro de una transacción con reintento acotado ante conflictos.
func (uc *RecordMovementUseCase) RecordMovement(ctx context.Context, orgCtx domain.OrganizationContext, input MovementInput) (*entity.StockMovement, error) {
	location, _, err := uc.resolve(orgCtx, input)
	if err != nil {
		return nil, err
	}
	allowNegative := input.AllowNegative || location.AllowNegativeStock

	var movement *entity.StockMovement
	err = uc.retry.Do(ctx, func() error {
		return uc.txRunner.Run(ctx, func(
			movRepo repository.StockMovementRepository,
			levelRepo repository.StockLevelRepository,
		) error {
			m, err := uc.RecordInTx(movRepo, levelRepo, orgCtx, input, allowNegative, time.Now())
			if err != nil {
				return err
			}
			movement = m
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	metrics.MovementsTotal.WithLabelValues(string(input.Type)).Inc()
	return movement, nil
}

// RecordInTx registra un movimiento usando los repositorios proporcionados
// (misma transacción del caller). La conciliación de entregas lo usa para
// escribir movimiento, proyección y guard del pedido en un solo Commit.
func (uc *RecordMovementUseCase) RecordInTx(
	movRepo repository.StockMovementRepository,
	levelRepo repository.StockLevelRepository,
	orgCtx domain.OrganizationContext,
	input MovementInput,
	allowNegative bool,
	now time.Time,
) (*entity.StockMovement, error) {
	// Bloquea la fila de la proyección para serializar escritores de la
	// misma clave (organización, ubicación, producto).
	level, err := levelRepo.GetForUpdate(orgCtx.OrganizationID, input.LocationID, input.ProductID)
	if err != nil {
		return nil, err
	}

	before := level.CurrentQuantity
	after := before.Add(input.QuantityChange)
	if after.IsNegative() && !allowNegative {
		return nil, domain.ErrInsufficientStock
	}

	movement := &entity.StockMovement{
		ID:             uuid.New().String(),
		OrganizationID: orgCtx.OrganizationID,
		LocationID:     input.LocationID,
		ProductID:      input.ProductID,
		Type:           input.Type,
		QuantityChange: input.QuantityChange,
		QuantityBefore: before,
		QuantityAfter:  after,
		ReferenceType:  input.ReferenceType,
		ReferenceID:    input.ReferenceID,
		Reason:         input.Reason,
		Notes:          input.Notes,
		BatchNumber:    input.BatchNumber,
		ExpiryDate:     input.ExpiryDate,
		CreatedBy:      orgCtx.UserID,
		CreatedAt:      now,
	}
	if err := movRepo.Create(movement); err != nil {
		return nil, err
	}

	level.CurrentQuantity = after
	level.LastMovementAt = &now
	level.UpdatedAt = now
	if err := levelRepo.Upsert(level); err != nil {
		return nil, err
	}
	return movement, nil
}

// AdjustReservation suma o resta cantidad reservada bajo el mismo bloqueo de
// fila del ledger. Reservar más de lo disponible falla; liberar nunca deja la
// reserva negativa.
func (uc *RecordMovementUseCase) AdjustReservation(ctx context.Context, orgCtx domain.OrganizationContext, locationID, productID string, delta decimal.Decimal) error {
	if !orgCtx.Valid() {
		return domain.NewValidationError("organization_id", "requerido")
	}
	if locationID == "" || productID == "" {
		return domain.NewValidationError("location_id/product_id", "requeridos")
	}
	if delta.IsZero() {
		return nil
	}

	return uc.retry.Do(ctx, func() error {
		return uc.txRunner.Run(ctx, func(
			_ repository.StockMovementRepository,
			levelRepo repository.StockLevelRepository,
		) error {
			level, err := levelRepo.GetForUpdate(orgCtx.OrganizationID, locationID, productID)
			if err != nil {
				return err
			}
			newReserved := level.ReservedQuantity.Add(delta)
			if delta.IsPositive() && level.CurrentQuantity.Sub(newReserved).IsNegative() {
				return domain.ErrInsufficientStock
			}
			if newReserved.IsNegative() {
				newReserved = decimal.Zero
			}
			level.ReservedQuantity = newReserved
			level.UpdatedAt = time.Now()
			return levelRepo.Upsert(level)
		})
	})
}

// resolve valida la entrada y resuelve organización, ubicación y producto.
func (uc *RecordMovementUseCase) resolve(orgCtx domain.OrganizationContext, input MovementInput) (*entity.Location, *entity.Product, error) {
	if !orgCtx.Valid() {
		return nil, nil, domain.NewValidationError("organization_id", "requerido")
	}
	if input.LocationID == "" {
		return nil, nil, domain.NewValidationError("location_id", "requerido")
	}
	if input.ProductID == "" {
		return nil, nil, domain.NewValidationError("product_id", "requerido")
	}
	if !input.Type.Valid() {
		return nil, nil, domain.NewValidationError("movement_type", "tipo de movimiento desconocido")
	}
	if input.QuantityChange.IsZero() && input.Type != entity.MovementCount {
		return nil, nil, domain.NewValidationError("quantity_change", "no puede ser cero")
	}

	org, err := uc.orgRepo.GetByID(orgCtx.OrganizationID)
	if err != nil || org == nil {
		return nil, nil, domain.NewReferenceError("organization", orgCtx.OrganizationID)
	}
	location, err := uc.locationRepo.GetByID(orgCtx.OrganizationID, input.LocationID)
	if err != nil || location == nil {
		return nil, nil, domain.NewReferenceError("location", input.LocationID)
	}
	product, err := uc.productRepo.GetByID(orgCtx.OrganizationID, input.ProductID)
	if err != nil || product == nil {
		return nil, nil, domain.NewReferenceError("product", input.ProductID)
	}
	if product.RequiresBatch && (input.BatchNumber == "" || input.ExpiryDate == nil) {
		return nil, nil, domain.NewValidationError("batch_number", "el producto exige lote y fecha de vencimiento")
	}
	return location, product, nil
}

// History devuelve movimientos de un producto (orden descendente por fecha).
func (uc *RecordMovementUseCase) History(ctx context.Context, orgCtx domain.OrganizationContext, productID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	if !orgCtx.Valid() || productID == "" {
		return nil, domain.NewValidationError("product_id", "requerido")
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return uc.movementRepo.ListByProduct(orgCtx.OrganizationID, productID, from, to, limit, offset)
}

// HistoryByLocation devuelve movimientos de una ubicación.
func (uc *RecordMovementUseCase) HistoryByLocation(ctx context.Context, orgCtx domain.OrganizationContext, locationID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	if !orgCtx.Valid() || locationID == "" {
		return nil, domain.NewValidationError("location_id", "requerido")
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return uc.movementRepo.ListByLocation(orgCtx.OrganizationID, locationID, from, to, limit, offset)
}
