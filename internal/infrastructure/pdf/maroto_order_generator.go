// Package pdf implementa la generación del documento de orden de compra que
// acompaña a los pedidos por canal manual (email/descarga).
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Organización + dirección  │  N° Pedido + Fechas    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  PROVEEDOR: Nombre + persona de contacto                    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Artículo | SKU | Cant | P.Unit | Total               │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Subtotal / Envío / TOTAL                           │
//	│  ─────────────────────────────────────────────────────────  │
//	│  NOTAS + pie de página                                       │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// Buyer identifica a la organización compradora en el documento.
type Buyer struct {
	Name       string
	Address    string
	City       string
	PostalCode string
	Country    string
	Email      string
	Phone      string
}

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoOrderGenerator genera el PDF de orden de compra usando Maroto v2.
type MarotoOrderGenerator struct {
	buyer Buyer
	now   func() time.Time
}

// NewMarotoOrderGenerator construye el generador.
func NewMarotoOrderGenerator(buyer Buyer) *MarotoOrderGenerator {
	return &MarotoOrderGenerator{buyer: buyer, now: time.Now}
}

// GenerateOrderPDF genera el PDF del pedido y devuelve sus bytes.
func (g *MarotoOrderGenerator) GenerateOrderPDF(
	_ context.Context,
	order *entity.SupplierOrder,
	sup *entity.Supplier,
	reference string,
) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Orden de compra "+reference, true).
		WithAuthor(g.buyer.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(g.headerRow(order, reference))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(supplierRow(sup))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	for _, r := range tableItemRows(order.Items) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(order))

	m.AddRows(line.NewRow(3))
	for _, r := range g.notesRows(order) {
		m.AddRows(r)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: organización compradora (izq) y número de pedido + fechas (der).
func (g *MarotoOrderGenerator) headerRow(order *entity.SupplierOrder, reference string) core.Row {
	fecha := g.now().Format("02/01/2006")

	rightCol := col.New(5).Add(
		text.New("ORDEN DE COMPRA", props.Text{
			Style: fontstyle.Bold, Size: 8, Align: align.Right,
			Color: colorPrimary, Top: 1,
		}),
		text.New(reference, props.Text{
			Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
		}),
		text.New("Fecha: "+fecha, props.Text{
			Size: 8, Align: align.Right, Top: 14, Color: colorGray,
		}),
	)
	if order.ExpectedDelivery != nil {
		rightCol.Add(text.New(
			"Entrega solicitada: "+order.ExpectedDelivery.Format("02/01/2006"),
			props.Text{Size: 8, Align: align.Right, Top: 19, Color: colorGray},
		))
	}

	return row.New(25).Add(
		col.New(7).Add(
			text.New(g.buyer.Name, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(g.buyer.Address, props.Text{Size: 8, Top: 9, Color: colorGray}),
			text.New(fmt.Sprintf("%s %s, %s", g.buyer.PostalCode, g.buyer.City, g.buyer.Country),
				props.Text{Size: 8, Top: 13, Color: colorGray}),
			text.New(fmt.Sprintf("Email: %s   |   Tel: %s",
				nonEmpty(g.buyer.Email, "—"),
				nonEmpty(g.buyer.Phone, "—"),
			), props.Text{Size: 8, Top: 17, Color: colorGray}),
		),
		rightCol,
	)
}

// supplierRow: datos del proveedor destinatario.
func supplierRow(sup *entity.Supplier) core.Row {
	return row.New(14).Add(
		col.New(12).Add(
			text.New("PROVEEDOR", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(sup.Name, props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 6,
			}),
			text.New(fmt.Sprintf("Código: %s   |   Email: %s",
				sup.Code,
				nonEmpty(sup.ContactEmail, "—"),
			), props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla de artículos.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Artículo", 5, align.Left),
		h("SKU", 2, align.Left),
		h("Cant.", 1, align.Center),
		h("Precio Unit.", 2, align.Right),
		h("Total", 2, align.Right),
	)
}

// tableItemRows: una fila por línea del pedido.
func tableItemRows(items []entity.SupplierOrderItem) []core.Row {
	result := make([]core.Row, 0, len(items))
	for _, item := range items {
		sku := item.SupplierSKU
		if sku == "" {
			sku = item.ProductID
		}
		result = append(result, row.New(7).Add(
			col.New(5).Add(text.New(
				item.ProductName,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(2).Add(text.New(
				sku,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(1).Add(text.New(
				item.Quantity.StringFixed(0),
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(2).Add(text.New(
				"€"+item.UnitPrice.StringFixed(2),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(2).Add(text.New(
				"€"+item.Quantity.Mul(item.UnitPrice).StringFixed(2),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
		))
	}
	return result
}

// totalsRow: bloque de totales alineado a la derecha.
func totalsRow(order *entity.SupplierOrder) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2,
		})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	grandLabel := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: colorPrimary, Right: 2,
		})
	}
	grandValue := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: colorPrimary, Right: 1,
		})
	}

	total := order.Subtotal.Add(order.ShippingCost)
	return row.New(26).Add(
		col.New(3),
		col.New(3).Add(
			label("Subtotal:"),
			label("Envío:"),
			grandLabel("TOTAL:"),
		),
		col.New(3).Add(
			value("€"+order.Subtotal.StringFixed(2)),
			value("€"+order.ShippingCost.StringFixed(2)),
			grandValue("€"+total.StringFixed(2)),
		),
		col.New(3),
	)
}

// notesRows: observaciones y pie de página.
func (g *MarotoOrderGenerator) notesRows(order *entity.SupplierOrder) []core.Row {
	rows := []core.Row{
		row.New(6).Add(col.New(12).Add(
			text.New("OBSERVACIONES", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
		)),
		row.New(10).Add(col.New(12).Add(
			text.New(fmt.Sprintf(
				"Pedido generado automáticamente por MedStock para %s. "+
					"Por favor confirme la recepción e indique la fecha de entrega prevista.",
				g.buyer.Name,
			), props.Text{Size: 8, Color: colorGray, Top: 1}),
		)),
	}

	notas := adjustmentNotes(order.Items)
	if notas != "" {
		rows = append(rows, row.New(8).Add(col.New(12).Add(
			text.New(notas, props.Text{Size: 8, Color: colorGray, Top: 1}),
		)))
	}

	rows = append(rows, row.New(8).Add(col.New(12).Add(
		text.New(
			"Generado el "+g.now().Format("02/01/2006 15:04")+" por MedStock",
			props.Text{Size: 6.5, Color: colorGray, Top: 3},
		),
	)))
	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

// adjustmentNotes concatena las notas de ajuste del splitter (mínimos y
// múltiplos de empaque) para que el proveedor vea por qué cambió la cantidad.
func adjustmentNotes(items []entity.SupplierOrderItem) string {
	var out string
	for _, item := range items {
		if item.AdjustmentNote == "" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += fmt.Sprintf("%s: %s.", item.ProductName, item.AdjustmentNote)
	}
	return out
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
