package api

import (
	"fmt"
	"mime/multipart"
	"strconv"
	"time"

	"github.com/beevik/etree"
	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
)

// orderPayload es el cuerpo del pedido tal como lo espera la API del
// proveedor. Los importes van como números, no como cadenas.
type orderPayload struct {
	OrderReference        string         `json:"order_reference"`
	OrderDate             string         `json:"order_date"`
	RequestedDeliveryDate string         `json:"requested_delivery_date,omitempty"`
	Customer              payloadParty   `json:"customer"`
	Items                 []payloadItem  `json:"items"`
	Totals                payloadTotals  `json:"totals"`
	Notes                 string         `json:"notes,omitempty"`
	Metadata              map[string]any `json:"metadata,omitempty"`
}

type payloadParty struct {
	ID      string         `json:"id,omitempty"`
	Name    string         `json:"name"`
	Address payloadAddress `json:"address"`
	Contact payloadContact `json:"contact,omitempty"`
}

type payloadAddress struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type payloadContact struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type payloadItem struct {
	SKU       string  `json:"sku"`
	Name      string  `json:"name,omitempty"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	LineTotal float64 `json:"line_total"`
}

type payloadTotals struct {
	Subtotal float64 `json:"subtotal"`
	Shipping float64 `json:"shipping,omitempty"`
	Total    float64 `json:"total"`
	Currency string  `json:"currency"`
}

// newOrderPayload proyecta un pedido al payload de la API.
func newOrderPayload(order *entity.SupplierOrder, customer Customer, reference string, now time.Time) *orderPayload {
	p := &orderPayload{
		OrderReference: reference,
		OrderDate:      now.UTC().Format(time.RFC3339),
		Customer: payloadParty{
			ID:   customer.ID,
			Name: customer.Name,
			Address: payloadAddress{
				Street:     customer.Street,
				City:       customer.City,
				PostalCode: customer.PostalCode,
				Country:    customer.Country,
			},
			Contact: payloadContact{Email: customer.Email, Phone: customer.Phone},
		},
		Totals: payloadTotals{
			Subtotal: order.Subtotal.InexactFloat64(),
			Shipping: order.ShippingCost.InexactFloat64(),
			Total:    order.Subtotal.Add(order.ShippingCost).InexactFloat64(),
			Currency: "EUR",
		},
		Notes: fmt.Sprintf("Pedido automático de MedStock para %s", customer.Name),
		Metadata: map[string]any{
			"source":          "medstock",
			"organization_id": order.OrganizationID,
			"supplier_id":     order.SupplierID,
			"created_at":      now.UTC().Format(time.RFC3339),
		},
	}
	if order.ExpectedDelivery != nil {
		p.RequestedDeliveryDate = order.ExpectedDelivery.Format("2006-01-02")
	}
	for _, item := range order.Items {
		sku := item.SupplierSKU
		if sku == "" {
			sku = item.ProductID
		}
		p.Items = append(p.Items, payloadItem{
			SKU:       sku,
			Name:      item.ProductName,
			Quantity:  item.Quantity.InexactFloat64(),
			UnitPrice: item.UnitPrice.InexactFloat64(),
			LineTotal: item.Quantity.Mul(item.UnitPrice).InexactFloat64(),
		})
	}
	return p
}

// encodeXML genera la rendición XML del payload.
func (p *orderPayload) encodeXML() ([]byte, error) {
	x := etree.NewDocument()
	x.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := x.CreateElement("Order")
	root.CreateElement("OrderReference").SetText(p.OrderReference)
	root.CreateElement("OrderDate").SetText(p.OrderDate)
	if p.RequestedDeliveryDate != "" {
		root.CreateElement("RequestedDeliveryDate").SetText(p.RequestedDeliveryDate)
	}

	cust := root.CreateElement("Customer")
	cust.CreateElement("ID").SetText(p.Customer.ID)
	cust.CreateElement("Name").SetText(p.Customer.Name)
	addr := cust.CreateElement("Address")
	addr.CreateElement("Street").SetText(p.Customer.Address.Street)
	addr.CreateElement("City").SetText(p.Customer.Address.City)
	addr.CreateElement("PostalCode").SetText(p.Customer.Address.PostalCode)
	addr.CreateElement("Country").SetText(p.Customer.Address.Country)
	if p.Customer.Contact.Email != "" {
		cust.CreateElement("Email").SetText(p.Customer.Contact.Email)
	}
	if p.Customer.Contact.Phone != "" {
		cust.CreateElement("Phone").SetText(p.Customer.Contact.Phone)
	}

	items := root.CreateElement("Items")
	for _, item := range p.Items {
		el := items.CreateElement("Item")
		el.CreateElement("SKU").SetText(item.SKU)
		el.CreateElement("Name").SetText(item.Name)
		el.CreateElement("Quantity").SetText(formatNumber(item.Quantity))
		el.CreateElement("UnitPrice").SetText(formatNumber(item.UnitPrice))
		el.CreateElement("LineTotal").SetText(formatNumber(item.LineTotal))
	}

	totals := root.CreateElement("Totals")
	totals.CreateElement("Subtotal").SetText(formatNumber(p.Totals.Subtotal))
	totals.CreateElement("Total").SetText(formatNumber(p.Totals.Total))
	totals.CreateElement("Currency").SetText(p.Totals.Currency)
	if p.Totals.Shipping != 0 {
		totals.CreateElement("Shipping").SetText(formatNumber(p.Totals.Shipping))
	}
	if p.Notes != "" {
		root.CreateElement("Notes").SetText(p.Notes)
	}

	x.Indent(2)
	return x.WriteToBytes()
}

// encodeForm aplana el payload a campos multipart con claves anidadas del
// estilo customer[address][city] e items[0][sku].
func (p *orderPayload) encodeForm(w *multipart.Writer) error {
	fields := map[string]string{
		"order_reference":               p.OrderReference,
		"order_date":                    p.OrderDate,
		"customer[id]":                  p.Customer.ID,
		"customer[name]":                p.Customer.Name,
		"customer[address][street]":     p.Customer.Address.Street,
		"customer[address][city]":       p.Customer.Address.City,
		"customer[address][postal_code]": p.Customer.Address.PostalCode,
		"customer[address][country]":    p.Customer.Address.Country,
		"totals[subtotal]":              formatNumber(p.Totals.Subtotal),
		"totals[total]":                 formatNumber(p.Totals.Total),
		"totals[currency]":              p.Totals.Currency,
	}
	if p.RequestedDeliveryDate != "" {
		fields["requested_delivery_date"] = p.RequestedDeliveryDate
	}
	if p.Customer.Contact.Email != "" {
		fields["customer[contact][email]"] = p.Customer.Contact.Email
	}
	if p.Customer.Contact.Phone != "" {
		fields["customer[contact][phone]"] = p.Customer.Contact.Phone
	}
	if p.Totals.Shipping != 0 {
		fields["totals[shipping]"] = formatNumber(p.Totals.Shipping)
	}
	if p.Notes != "" {
		fields["notes"] = p.Notes
	}
	for key, value := range fields {
		if err := w.WriteField(key, value); err != nil {
			return err
		}
	}
	for i, item := range p.Items {
		prefix := fmt.Sprintf("items[%d]", i)
		lineFields := [][2]string{
			{prefix + "[sku]", item.SKU},
			{prefix + "[name]", item.Name},
			{prefix + "[quantity]", formatNumber(item.Quantity)},
			{prefix + "[unit_price]", formatNumber(item.UnitPrice)},
			{prefix + "[line_total]", formatNumber(item.LineTotal)},
		}
		for _, f := range lineFields {
			if err := w.WriteField(f[0], f[1]); err != nil {
				return err
			}
		}
	}
	return nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
