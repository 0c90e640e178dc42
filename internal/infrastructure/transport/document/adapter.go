package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/tu-usuario/medstock-pro/internal/application/orders"
	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
)

var _ orders.Sender = (*Adapter)(nil)

// Adapter envía pedidos como documento XML por HTTP POST al endpoint EDI del
// proveedor. Implementa orders.Sender: nunca devuelve error de Go.
type Adapter struct {
	client  *http.Client
	buyer   BuyerParty
	timeout time.Duration
	log     zerolog.Logger
	now     func() time.Time
}

// NewAdapter construye el adaptador. timeout cero usa 30s.
func NewAdapter(client *http.Client, buyer BuyerParty, timeout time.Duration, log zerolog.Logger) *Adapter {
	if client == nil {
		client = &http.Client{}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Adapter{client: client, buyer: buyer, timeout: timeout, log: log, now: time.Now}
}

// Send genera el documento del formato configurado y lo entrega al endpoint
// del proveedor con Content-Type application/xml y la referencia del pedido
// en X-Order-Reference.
func (a *Adapter) Send(ctx context.Context, order *entity.SupplierOrder, sup *entity.Supplier, reference string) *entity.OrderSendingResult {
	result := &entity.OrderSendingResult{
		OrderReference: reference,
		SupplierID:     sup.ID,
		MethodUsed:     entity.OrderMethodEDI,
		SentAt:         a.now(),
	}

	cfg, err := parseConfig(sup.IntegrationConfig)
	if err != nil {
		result.ErrorMessage = err.Error()
		return result
	}

	doc := newOrderDocument(order, sup, cfg, a.buyer, reference, a.now())
	payload, err := build(cfg.Format, doc)
	if err != nil {
		result.ErrorMessage = fmt.Sprintf("generar documento %s: %v", cfg.Format, err)
		return result
	}

	if err := a.post(ctx, cfg, payload, reference); err != nil {
		result.ErrorMessage = err.Error()
		a.log.Error().Err(err).Str("reference", reference).Msg("envío EDI fallido")
		return result
	}

	result.Success = true
	a.log.Info().Str("reference", reference).Str("format", cfg.Format).Msg("pedido EDI enviado")
	return result
}

func (a *Adapter) post(ctx context.Context, cfg *Config, payload []byte, reference string) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("construir petición EDI: %w", err)
	}
	req.Header.Set("Content-Type", "application/xml")
	req.Header.Set("X-Order-Reference", reference)
	if cfg.Username != "" && cfg.Password != "" {
		req.SetBasicAuth(cfg.Username, cfg.Password)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return errors.New("request timed out")
		}
		return fmt.Errorf("entregar documento EDI: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("el endpoint EDI devolvió %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
