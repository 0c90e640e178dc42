package document

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
)

func testBuyer() BuyerParty {
	return BuyerParty{
		Name:       "Clínica San Rafael",
		Address:    "Calle 10 # 4-21",
		City:       "Bogotá",
		PostalCode: "110111",
		Country:    "CO",
	}
}

func testOrder() *entity.SupplierOrder {
	eta := time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC)
	return &entity.SupplierOrder{
		ID:               "ord-1",
		OrganizationID:   "org-1",
		SupplierID:       "sup-a",
		Subtotal:         decimal.NewFromInt(120),
		ExpectedDelivery: &eta,
		Items: []entity.SupplierOrderItem{
			{ProductID: "p1", SupplierSKU: "SUP-001", ProductName: "Guantes nitrilo M", Quantity: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(4)},
			{ProductID: "p2", SupplierSKU: "SUP-002", ProductName: "Jeringa 5ml", Quantity: decimal.NewFromInt(20), UnitPrice: decimal.NewFromInt(4)},
		},
	}
}

func testSupplier(cfg map[string]any) *entity.Supplier {
	raw, _ := json.Marshal(cfg)
	return &entity.Supplier{
		ID:                "sup-a",
		OrganizationID:    "org-1",
		Code:              "ALFA",
		Name:              "Proveedor Alfa",
		OrderMethod:       entity.OrderMethodEDI,
		IntegrationConfig: raw,
	}
}

func docFor(t *testing.T, format string) *orderDocument {
	t.Helper()
	cfg := &Config{PartnerID: "GLN-SUP", BuyerGLN: "GLN-BUYER", Format: format}
	return newOrderDocument(testOrder(), testSupplier(nil), cfg, testBuyer(), "ORD-1-ALFA", time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC))
}

// ── builders: round-trip reparsando el XML generado ───────────────────────────

func TestBuildGeneric_RoundTrip(t *testing.T) {
	payload, err := buildGeneric(docFor(t, FormatGeneric))
	require.NoError(t, err)

	x := etree.NewDocument()
	require.NoError(t, x.ReadFromBytes(payload))

	root := x.Root()
	require.NotNil(t, root)
	assert.Equal(t, "Order", root.Tag)
	assert.Equal(t, nsOrder, root.SelectAttrValue("xmlns", ""))
	assert.Equal(t, "ORD-1-ALFA", root.FindElement("Header/OrderNumber").Text())
	assert.Equal(t, "120", root.FindElement("Header/TotalAmount").Text())
	assert.Equal(t, "2026-09-03", root.FindElement("Header/RequestedDeliveryDate").Text())
	assert.Equal(t, "Clínica San Rafael", root.FindElement("BuyerParty/Name").Text())
	assert.Equal(t, "GLN-SUP", root.FindElement("SupplierParty/PartnerID").Text())

	lines := root.FindElements("OrderLines/OrderLine")
	require.Len(t, lines, 2)
	assert.Equal(t, "SUP-001", lines[0].FindElement("SKU").Text())
	assert.Equal(t, "40.00", lines[0].FindElement("LineTotal").Text())
}

func TestBuildEDIFACT_SegmentosYConteo(t *testing.T) {
	payload, err := buildEDIFACT(docFor(t, FormatEDIFACT))
	require.NoError(t, err)

	x := etree.NewDocument()
	require.NoError(t, x.ReadFromBytes(payload))
	root := x.Root()
	assert.Equal(t, "EDIFACT_ORDERS", root.Tag)
	assert.Equal(t, "ORDERS", root.FindElement("UNH/MessageType").Text())
	assert.Equal(t, "220", root.FindElement("BGM/DocumentMessageName").Text())
	assert.Equal(t, "GLN-BUYER", root.FindElement("NAD_BY/PartyIdentificationDetails/PartyIdIdentification").Text())

	require.Len(t, root.FindElements("LIN"), 2)
	require.Len(t, root.FindElements("QTY"), 2)
	require.Len(t, root.FindElements("PRI"), 2)
	// 2 segmentos fijos + 3 por línea.
	assert.Equal(t, "8", root.FindElement("UNT/NumberOfSegments").Text())
}

func TestBuildX12_SegmentosYConteo(t *testing.T) {
	payload, err := buildX12(docFor(t, FormatX12))
	require.NoError(t, err)

	x := etree.NewDocument()
	require.NoError(t, x.ReadFromBytes(payload))
	root := x.Root()
	assert.Equal(t, "X12_850", root.Tag)
	assert.Equal(t, "850", root.FindElement("ST/TransactionSetIdentifierCode").Text())
	assert.Equal(t, "20260827", root.FindElement("BEG/Date").Text())
	require.Len(t, root.FindElements("PO1"), 2)
	assert.Equal(t, "2", root.FindElement("CTT/NumberOfLineItems").Text())
	assert.Equal(t, "6", root.FindElement("SE/NumberOfIncludedSegments").Text())
}

// ── adapter ───────────────────────────────────────────────────────────────────

func TestSend_EntregaConCabecerasYAuth(t *testing.T) {
	var gotContentType, gotReference, gotUser, gotPass string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotReference = r.Header.Get("X-Order-Reference")
		gotUser, gotPass, _ = r.BasicAuth()
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sup := testSupplier(map[string]any{
		"edi_endpoint":   srv.URL,
		"edi_partner_id": "GLN-SUP",
		"edi_username":   "edi-user",
		"edi_password":   "edi-pass",
	})
	a := NewAdapter(srv.Client(), testBuyer(), 0, zerolog.Nop())

	res := a.Send(context.Background(), testOrder(), sup, "ORD-1-ALFA")
	require.True(t, res.Success, "error: %s", res.ErrorMessage)
	assert.Equal(t, entity.OrderMethodEDI, res.MethodUsed)
	assert.Equal(t, "application/xml", gotContentType)
	assert.Equal(t, "ORD-1-ALFA", gotReference)
	assert.Equal(t, "edi-user", gotUser)
	assert.Equal(t, "edi-pass", gotPass)
	assert.Contains(t, string(gotBody), "<OrderNumber>ORD-1-ALFA</OrderNumber>")
}

func TestSend_EndpointNo2xxEsFallo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rechazado", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	sup := testSupplier(map[string]any{"edi_endpoint": srv.URL, "edi_partner_id": "GLN-SUP"})
	a := NewAdapter(srv.Client(), testBuyer(), 0, zerolog.Nop())

	res := a.Send(context.Background(), testOrder(), sup, "ORD-2-ALFA")
	assert.False(t, res.Success)
	assert.Contains(t, res.ErrorMessage, "422")
}

func TestSend_ConfiguracionIncompleta(t *testing.T) {
	sup := testSupplier(map[string]any{"edi_endpoint": "http://example.invalid"})
	a := NewAdapter(nil, testBuyer(), 0, zerolog.Nop())

	res := a.Send(context.Background(), testOrder(), sup, "ORD-3-ALFA")
	assert.False(t, res.Success)
	assert.Equal(t, "configuración EDI incompleta", res.ErrorMessage)
}
