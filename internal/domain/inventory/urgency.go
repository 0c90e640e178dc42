package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

// Urgency es la urgencia de reposición de un nivel de stock.
type Urgency string

const (
	UrgencyCritical Urgency = "critical"
	UrgencyHigh     Urgency = "high"
	UrgencyMedium   Urgency = "medium"
	UrgencyLow      Urgency = "low"
)

// Rank devuelve el peso ordinal de la urgencia (mayor = más urgente).
func (u Urgency) Rank() int {
	switch u {
	case UrgencyCritical:
		return 3
	case UrgencyHigh:
		return 2
	case UrgencyMedium:
		return 1
	}
	return 0
}

// StockUrgency clasifica un nivel de stock frente a su mínimo (servicio de
// dominio): critical con stock agotado o negativo, high bajo la mitad del
// mínimo, medium bajo el mínimo, low en otro caso.
func StockUrgency(current, minimum decimal.Decimal) Urgency {
	switch {
	case current.LessThanOrEqual(decimal.Zero):
		return UrgencyCritical
	case current.LessThanOrEqual(minimum.Div(decimal.NewFromInt(2))):
		return UrgencyHigh
	case current.LessThanOrEqual(minimum):
		return UrgencyMedium
	}
	return UrgencyLow
}

// SuggestedOrderQuantity calcula la cantidad sugerida de pedido:
// max(minimum*2 - current, minimum), nunca negativa.
func SuggestedOrderQuantity(current, minimum decimal.Decimal) decimal.Decimal {
	target := minimum.Mul(decimal.NewFromInt(2)).Sub(current)
	if target.LessThan(minimum) {
		target = minimum
	}
	if target.IsNegative() {
		return decimal.Zero
	}
	return target
}

// BatchUrgency es la urgencia de vencimiento de un lote.
type BatchUrgency string

const (
	BatchExpired  BatchUrgency = "expired"
	BatchCritical BatchUrgency = "critical"
	BatchHigh     BatchUrgency = "high"
	BatchWarning  BatchUrgency = "warning"
	BatchLow      BatchUrgency = "low"
	BatchNormal   BatchUrgency = "normal"
)

// ExpiryUrgency clasifica un lote por días restantes hasta su vencimiento:
// expired <0, critical ≤7, high ≤30, warning ≤90, low ≤180, normal después.
func ExpiryUrgency(expiry, now time.Time) BatchUrgency {
	days := int(expiry.Sub(now).Hours() / 24)
	if expiry.Before(now) {
		return BatchExpired
	}
	switch {
	case days <= 7:
		return BatchCritical
	case days <= 30:
		return BatchHigh
	case days <= 90:
		return BatchWarning
	case days <= 180:
		return BatchLow
	}
	return BatchNormal
}

// EarlierExpiry compara dos fechas de vencimiento opcionales para FEFO:
// true si a debe consumirse antes que b (nil cuenta como "sin vencimiento",
// siempre después).
func EarlierExpiry(a, b *time.Time) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}
	return a.Before(*b)
}
