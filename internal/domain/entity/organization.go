package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Organization es el tenant del sistema: una clínica o práctica con sus
// ajustes de automatización de reposición.
type Organization struct {
	ID                string
	Name              string
	AutomationEnabled bool
	AutoApprove       bool            // pedidos se envían sin aprobación humana
	MaxOrderValue     decimal.Decimal // tope por corrida; cero = sin tope
	Active            bool
	CreatedAt         time.Time
}
