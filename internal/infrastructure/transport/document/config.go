// Package document implementa el canal de pedidos por documento estructurado
// (XML genérico, EDIFACT ORDERS D.96A y X12 850) entregado por HTTP POST.
package document

import (
	"encoding/json"
	"fmt"
)

// Formatos de documento soportados.
const (
	FormatGeneric = "ORDERS"
	FormatEDIFACT = "EDIFACT_ORDERS"
	FormatX12     = "X12_850"
)

// Config es la configuración del canal, leída del integration_config del
// proveedor.
type Config struct {
	Endpoint      string `json:"edi_endpoint"`
	PartnerID     string `json:"edi_partner_id"`
	InterchangeID string `json:"edi_interchange_id"`
	TestMode      bool   `json:"edi_test_mode"`
	Username      string `json:"edi_username"`
	Password      string `json:"edi_password"`
	Format        string `json:"edi_format"`
	BuyerGLN      string `json:"buyer_gln"`
}

// parseConfig valida la configuración mínima del canal.
func parseConfig(raw json.RawMessage) (*Config, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("configuración EDI incompleta")
	}
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("configuración EDI inválida: %w", err)
	}
	if cfg.Endpoint == "" || cfg.PartnerID == "" {
		return nil, fmt.Errorf("configuración EDI incompleta")
	}
	if cfg.Format == "" {
		cfg.Format = FormatGeneric
	}
	switch cfg.Format {
	case FormatGeneric, FormatEDIFACT, FormatX12:
	default:
		return nil, fmt.Errorf("formato EDI desconocido: %s", cfg.Format)
	}
	return &cfg, nil
}

// BuyerParty identifica al comprador en los documentos de pedido.
type BuyerParty struct {
	Name       string
	Address    string
	City       string
	PostalCode string
	Country    string
}
