package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/tu-usuario/medstock-pro/internal/application/orders"
	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
)

var _ orders.Sender = (*Adapter)(nil)

// Adapter envía pedidos a la API REST del proveedor. Implementa
// orders.Sender: nunca devuelve error de Go.
type Adapter struct {
	client   *http.Client
	customer Customer
	tokens   *tokenCache
	log      zerolog.Logger
	now      func() time.Time
}

// NewAdapter construye el adaptador con un caché de tokens OAuth2 propio.
func NewAdapter(client *http.Client, customer Customer, log zerolog.Logger) *Adapter {
	if client == nil {
		client = &http.Client{}
	}
	return &Adapter{
		client:   client,
		customer: customer,
		tokens:   newTokenCache(client),
		log:      log,
		now:      time.Now,
	}
}

// Send arma el payload en el formato configurado, resuelve la autenticación y
// hace POST al endpoint del proveedor.
func (a *Adapter) Send(ctx context.Context, order *entity.SupplierOrder, sup *entity.Supplier, reference string) *entity.OrderSendingResult {
	result := &entity.OrderSendingResult{
		OrderReference: reference,
		SupplierID:     sup.ID,
		MethodUsed:     entity.OrderMethodAPI,
		SentAt:         a.now(),
	}

	cfg, err := parseConfig(sup.IntegrationConfig)
	if err != nil {
		result.ErrorMessage = err.Error()
		return result
	}

	payload := newOrderPayload(order, a.customer, reference, a.now())
	body, contentType, err := encodeBody(cfg.Format, payload)
	if err != nil {
		result.ErrorMessage = err.Error()
		return result
	}

	if err := a.post(ctx, cfg, body, contentType); err != nil {
		result.ErrorMessage = err.Error()
		a.log.Error().Err(err).Str("reference", reference).Msg("envío por API fallido")
		return result
	}

	result.Success = true
	a.log.Info().Str("reference", reference).Str("format", cfg.Format).Msg("pedido enviado por API")
	return result
}

func encodeBody(format string, payload *orderPayload) ([]byte, string, error) {
	switch format {
	case FormatJSON:
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, "", fmt.Errorf("serializar payload JSON: %w", err)
		}
		return body, "application/json", nil
	case FormatXML:
		body, err := payload.encodeXML()
		if err != nil {
			return nil, "", fmt.Errorf("serializar payload XML: %w", err)
		}
		return body, "application/xml", nil
	case FormatForm:
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		if err := payload.encodeForm(w); err != nil {
			return nil, "", fmt.Errorf("serializar payload form-data: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, "", fmt.Errorf("serializar payload form-data: %w", err)
		}
		return buf.Bytes(), w.FormDataContentType(), nil
	default:
		return nil, "", fmt.Errorf("formato de API no soportado: %s", format)
	}
}

func (a *Adapter) post(ctx context.Context, cfg *Config, body []byte, contentType string) error {
	timeout := 30 * time.Second
	if cfg.TimeoutSecs > 0 {
		timeout = time.Duration(cfg.TimeoutSecs) * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("construir petición: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if err := a.applyAuth(ctx, req, cfg); err != nil {
		return err
	}

	resp, err := a.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return errors.New("request timed out")
		}
		return fmt.Errorf("entregar pedido: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("la API devolvió %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// applyAuth pone las cabeceras personalizadas y la autenticación configurada.
// Con api-key se mandan las dos variantes que aceptan los proveedores:
// X-API-Key y Authorization ApiKey.
func (a *Adapter) applyAuth(ctx context.Context, req *http.Request, cfg *Config) error {
	for key, value := range cfg.CustomHeaders {
		req.Header.Set(key, value)
	}

	switch cfg.AuthType {
	case AuthBearer:
		if cfg.Token != "" {
			req.Header.Set("Authorization", "Bearer "+cfg.Token)
			return nil
		}
		if cfg.OAuth2 != nil {
			token, err := a.tokens.Token(ctx, cfg)
			if err != nil {
				return err
			}
			req.Header.Set("Authorization", "Bearer "+token)
		}
	case AuthBasic:
		if cfg.Username != "" && cfg.Password != "" {
			req.SetBasicAuth(cfg.Username, cfg.Password)
		}
	case AuthAPIKey:
		if cfg.Key != "" {
			req.Header.Set("X-API-Key", cfg.Key)
			req.Header.Set("Authorization", "ApiKey "+cfg.Key)
		}
	case AuthOAuth2:
		token, err := a.tokens.Token(ctx, cfg)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return nil
}
