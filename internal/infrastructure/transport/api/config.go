// Package api implementa el canal de pedidos por API REST del proveedor, con
// payload en JSON, XML o form-data y autenticación bearer, basic, api-key u
// OAuth2 client-credentials.
package api

import (
	"encoding/json"
	"fmt"
)

// Formatos de payload soportados.
const (
	FormatJSON = "json"
	FormatXML  = "xml"
	FormatForm = "form-data"
)

// Tipos de autenticación soportados.
const (
	AuthBearer = "bearer"
	AuthBasic  = "basic"
	AuthAPIKey = "api-key"
	AuthOAuth2 = "oauth2"
)

// OAuth2Config es la configuración del flujo client-credentials.
type OAuth2Config struct {
	ClientID      string `json:"client_id"`
	ClientSecret  string `json:"client_secret"`
	TokenEndpoint string `json:"token_endpoint"`
	Scope         string `json:"scope"`
}

// Config es la configuración del canal, leída del integration_config del
// proveedor.
type Config struct {
	Endpoint      string            `json:"api_endpoint"`
	Key           string            `json:"api_key"`
	Username      string            `json:"api_username"`
	Password      string            `json:"api_password"`
	Token         string            `json:"api_token"`
	Format        string            `json:"api_format"`
	AuthType      string            `json:"api_auth_type"`
	OAuth2        *OAuth2Config     `json:"oauth2_config"`
	WebhookURL    string            `json:"webhook_url"`
	TestMode      bool              `json:"test_mode"`
	TimeoutSecs   int               `json:"timeout_seconds"`
	CustomHeaders map[string]string `json:"custom_headers"`
}

// parseConfig valida la configuración mínima del canal.
func parseConfig(raw json.RawMessage) (*Config, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("endpoint de API no configurado")
	}
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("configuración de API inválida: %w", err)
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint de API no configurado")
	}
	if cfg.Format == "" {
		cfg.Format = FormatJSON
	}
	switch cfg.Format {
	case FormatJSON, FormatXML, FormatForm:
	default:
		return nil, fmt.Errorf("formato de API no soportado: %s", cfg.Format)
	}
	return &cfg, nil
}

// Customer identifica al comprador en el payload del pedido.
type Customer struct {
	ID         string
	Name       string
	Street     string
	City       string
	PostalCode string
	Country    string
	Email      string
	Phone      string
}
