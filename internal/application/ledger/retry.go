package ledger

import (
	"context"
	"time"

	"github.com/tu-usuario/medstock-pro/internal/domain"
	"github.com/tu-usuario/medstock-pro/pkg/metrics"
)

// RetryPolicy reintenta una operación con backoff exponencial cuando el error
// es un conflicto de concurrencia (serialization failure / deadlock). Los
// errores de validación y de referencia nunca se reintentan; agotados los
// intentos se devuelve el último error.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryPolicy devuelve la política por defecto: 3 intentos, 25ms base.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: 25 * time.Millisecond}
}

// Do ejecuta fn reintentando solo conflictos, respetando la cancelación del
// contexto entre intentos.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := p.BaseDelay
	if delay <= 0 {
		delay = 25 * time.Millisecond
	}

	var err error
	for i := 0; i < attempts; i++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !domain.IsRetryable(err) || i == attempts-1 {
			return err
		}
		metrics.LedgerConflictsTotal.Inc()

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
	return err
}
