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

// ApplyCount registra un conteo físico: el cambio es la diferencia entre lo
// contado y la proyección actual, calculada bajo el bloqueo de fila para que
// un escritor concurrente no invalide la diferencia.
func (uc *RecordMovementUseCase) ApplyCount(ctx context.Context, orgCtx domain.OrganizationContext, locationID, productID string, counted decimal.Decimal, notes string) (*entity.StockMovement, error) {
	input := MovementInput{
		LocationID: locationID,
		ProductID:  productID,
		Type:       entity.MovementCount,
		Reason:     "conteo físico",
		Notes:      notes,
	}
	location, _, err := uc.resolve(orgCtx, input)
	if err != nil {
		return nil, err
	}
	if counted.IsNegative() {
		return nil, domain.NewValidationError("counted_quantity", "no puede ser negativa")
	}

	var movement *entity.StockMovement
	err = uc.retry.Do(ctx, func() error {
		return uc.txRunner.Run(ctx, func(
			movRepo repository.StockMovementRepository,
			levelRepo repository.StockLevelRepository,
		) error {
			level, err := levelRepo.GetForUpdate(orgCtx.OrganizationID, locationID, productID)
			if err != nil {
				return err
			}
			input.QuantityChange = counted.Sub(level.CurrentQuantity)
			m, err := uc.RecordInTx(movRepo, levelRepo, orgCtx, input, location.AllowNegativeStock, time.Now())
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
	metrics.MovementsTotal.WithLabelValues(string(entity.MovementCount)).Inc()
	return movement, nil
}

// RecordConsumption registra el uso clínico de un producto (salida).
func (uc *RecordMovementUseCase) RecordConsumption(ctx context.Context, orgCtx domain.OrganizationContext, locationID, productID string, quantity decimal.Decimal, reason string) (*entity.StockMovement, error) {
	if !quantity.IsPositive() {
		return nil, domain.NewValidationError("quantity", "debe ser positiva")
	}
	return uc.RecordMovement(ctx, orgCtx, MovementInput{
		LocationID:     locationID,
		ProductID:      productID,
		Type:           entity.MovementConsumption,
		QuantityChange: quantity.Neg(),
		Reason:         reason,
	})
}

// RecordReceipt registra la recepción de mercancía (entrada), con lote y
// vencimiento opcionales.
func (uc *RecordMovementUseCase) RecordReceipt(ctx context.Context, orgCtx domain.OrganizationContext, locationID, productID string, quantity decimal.Decimal, batchNumber string, expiry *time.Time) (*entity.StockMovement, error) {
	if !quantity.IsPositive() {
		return nil, domain.NewValidationError("quantity", "debe ser positiva")
	}
	return uc.RecordMovement(ctx, orgCtx, MovementInput{
		LocationID:     locationID,
		ProductID:      productID,
		Type:           entity.MovementReceipt,
		QuantityChange: quantity,
		BatchNumber:    batchNumber,
		ExpiryDate:     expiry,
	})
}

// RecordExpiredWriteOff da de baja un lote vencido (salida tipo expired).
func (uc *RecordMovementUseCase) RecordExpiredWriteOff(ctx context.Context, orgCtx domain.OrganizationContext, locationID, productID string, quantity decimal.Decimal, batchNumber string) (*entity.StockMovement, error) {
	if !quantity.IsPositive() {
		return nil, domain.NewValidationError("quantity", "debe ser positiva")
	}
	return uc.RecordMovement(ctx, orgCtx, MovementInput{
		LocationID:     locationID,
		ProductID:      productID,
		Type:           entity.MovementExpired,
		QuantityChange: quantity.Neg(),
		Reason:         "lote vencido",
		BatchNumber:    batchNumber,
	})
}

// RecordTransfer mueve cantidad entre dos ubicaciones de la organización:
// dos movimientos (salida en origen, entrada en destino) con la misma
// referencia, en una sola transacción.
func (uc *RecordMovementUseCase) RecordTransfer(ctx context.Context, orgCtx domain.OrganizationContext, fromLocationID, toLocationID, productID string, quantity decimal.Decimal) error {
	if fromLocationID == toLocationID {
		return domain.NewValidationError("to_location_id", "origen y destino no pueden ser iguales")
	}
	if !quantity.IsPositive() {
		return domain.NewValidationError("quantity", "debe ser positiva")
	}

	out := MovementInput{
		LocationID:     fromLocationID,
		ProductID:      productID,
		Type:           entity.MovementTransfer,
		QuantityChange: quantity.Neg(),
		ReferenceType:  "transfer",
	}
	from, _, err := uc.resolve(orgCtx, out)
	if err != nil {
		return err
	}
	in := out
	in.LocationID = toLocationID
	in.QuantityChange = quantity
	if _, _, err := uc.resolve(orgCtx, in); err != nil {
		return err
	}

	transferID := uuid.New().String()
	out.ReferenceID = transferID
	in.ReferenceID = transferID

	// Las dos filas se bloquean en orden estable de ubicación para que dos
	// transferencias cruzadas (A→B y B→A) no se bloqueen mutuamente.
	legs := []struct {
		input         MovementInput
		allowNegative bool
	}{
		{out, from.AllowNegativeStock},
		{in, true},
	}
	if legs[1].input.LocationID < legs[0].input.LocationID {
		legs[0], legs[1] = legs[1], legs[0]
	}

	err = uc.retry.Do(ctx, func() error {
		return uc.txRunner.Run(ctx, func(
			movRepo repository.StockMovementRepository,
			levelRepo repository.StockLevelRepository,
		) error {
			now := time.Now()
			for _, leg := range legs {
				if _, err := uc.RecordInTx(movRepo, levelRepo, orgCtx, leg.input, leg.allowNegative, now); err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		return err
	}
	metrics.MovementsTotal.WithLabelValues(string(entity.MovementTransfer)).Add(2)
	return nil
}
