package document

import (
	"fmt"
	"strconv"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
)

// Namespace del esquema de pedido genérico.
const nsOrder = "http://www.medstock-pro.com/order/schema"

// orderDocument es el modelo neutro a partir del cual se generan los tres
// formatos de documento.
type orderDocument struct {
	OrderNumber  string
	OrderDate    time.Time
	DeliveryDate *time.Time
	Buyer        BuyerParty
	BuyerGLN     string
	SupplierName string
	PartnerID    string
	Currency     string
	TotalAmount  decimal.Decimal
	Notes        string
	Items        []documentItem
}

type documentItem struct {
	LineNumber  int
	SKU         string
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	UoM         string
}

// newOrderDocument proyecta un pedido al modelo neutro. La unidad de medida
// por defecto es PCE (piezas).
func newOrderDocument(order *entity.SupplierOrder, sup *entity.Supplier, cfg *Config, buyer BuyerParty, reference string, now time.Time) *orderDocument {
	doc := &orderDocument{
		OrderNumber:  reference,
		OrderDate:    now,
		DeliveryDate: order.ExpectedDelivery,
		Buyer:        buyer,
		BuyerGLN:     cfg.BuyerGLN,
		SupplierName: sup.Name,
		PartnerID:    cfg.PartnerID,
		Currency:     "EUR",
		TotalAmount:  order.Subtotal,
		Notes:        fmt.Sprintf("Pedido automático de MedStock para %s", buyer.Name),
	}
	for i, item := range order.Items {
		sku := item.SupplierSKU
		if sku == "" {
			sku = item.ProductID
		}
		doc.Items = append(doc.Items, documentItem{
			LineNumber:  i + 1,
			SKU:         sku,
			Description: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			UoM:         "PCE",
		})
	}
	return doc
}

// build genera el XML del formato configurado.
func build(format string, doc *orderDocument) ([]byte, error) {
	switch format {
	case FormatEDIFACT:
		return buildEDIFACT(doc)
	case FormatX12:
		return buildX12(doc)
	default:
		return buildGeneric(doc)
	}
}

// buildGeneric genera el esquema de pedido genérico.
func buildGeneric(doc *orderDocument) ([]byte, error) {
	x := etree.NewDocument()
	x.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := x.CreateElement("Order")
	root.CreateAttr("xmlns", nsOrder)

	header := root.CreateElement("Header")
	header.CreateElement("OrderNumber").SetText(doc.OrderNumber)
	header.CreateElement("OrderDate").SetText(doc.OrderDate.Format("2006-01-02"))
	header.CreateElement("Currency").SetText(doc.Currency)
	header.CreateElement("TotalAmount").SetText(doc.TotalAmount.String())
	if doc.DeliveryDate != nil {
		header.CreateElement("RequestedDeliveryDate").SetText(doc.DeliveryDate.Format("2006-01-02"))
	}

	buyer := root.CreateElement("BuyerParty")
	buyer.CreateElement("Name").SetText(doc.Buyer.Name)
	buyer.CreateElement("GLN").SetText(doc.BuyerGLN)
	addr := buyer.CreateElement("Address")
	addr.CreateElement("Street").SetText(doc.Buyer.Address)
	addr.CreateElement("City").SetText(doc.Buyer.City)
	addr.CreateElement("PostalCode").SetText(doc.Buyer.PostalCode)
	addr.CreateElement("Country").SetText(doc.Buyer.Country)

	sup := root.CreateElement("SupplierParty")
	sup.CreateElement("Name").SetText(doc.SupplierName)
	sup.CreateElement("PartnerID").SetText(doc.PartnerID)

	lines := root.CreateElement("OrderLines")
	for _, item := range doc.Items {
		line := lines.CreateElement("OrderLine")
		line.CreateElement("LineNumber").SetText(strconv.Itoa(item.LineNumber))
		line.CreateElement("SKU").SetText(item.SKU)
		line.CreateElement("Description").SetText(item.Description)
		line.CreateElement("Quantity").SetText(item.Quantity.String())
		line.CreateElement("UnitOfMeasure").SetText(item.UoM)
		line.CreateElement("UnitPrice").SetText(item.UnitPrice.String())
		line.CreateElement("LineTotal").SetText(item.Quantity.Mul(item.UnitPrice).StringFixed(2))
	}
	if doc.Notes != "" {
		root.CreateElement("Notes").SetText(doc.Notes)
	}

	x.Indent(2)
	return x.WriteToBytes()
}

// buildEDIFACT genera la rendición XML de un ORDERS D.96A.
func buildEDIFACT(doc *orderDocument) ([]byte, error) {
	x := etree.NewDocument()
	x.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := x.CreateElement("EDIFACT_ORDERS")

	unh := root.CreateElement("UNH")
	unh.CreateElement("MessageReferenceNumber").SetText(doc.OrderNumber)
	unh.CreateElement("MessageType").SetText("ORDERS")
	unh.CreateElement("Version").SetText("D")
	unh.CreateElement("Release").SetText("96A")

	bgm := root.CreateElement("BGM")
	bgm.CreateElement("DocumentMessageName").SetText("220")
	bgm.CreateElement("DocumentMessageNumber").SetText(doc.OrderNumber)
	bgm.CreateElement("MessageFunction").SetText("9")

	dtm := root.CreateElement("DTM").CreateElement("DateTimePeriod")
	dtm.CreateElement("DateTimePeriodQualifier").SetText("137")
	dtm.CreateElement("DateTimePeriod").SetText(doc.OrderDate.UTC().Format("20060102T150405"))
	dtm.CreateElement("DateTimePeriodFormatQualifier").SetText("102")

	by := root.CreateElement("NAD_BY")
	by.CreateElement("PartyQualifier").SetText("BY")
	by.CreateElement("PartyIdentificationDetails").
		CreateElement("PartyIdIdentification").SetText(doc.BuyerGLN)
	addr := by.CreateElement("NameAndAddress")
	addr.CreateElement("NameAndAddressLine").SetText(doc.Buyer.Name)
	addr.CreateElement("NameAndAddressLine").SetText(doc.Buyer.Address)
	addr.CreateElement("NameAndAddressLine").SetText(doc.Buyer.PostalCode + " " + doc.Buyer.City)
	addr.CreateElement("CountryCode").SetText(doc.Buyer.Country)

	su := root.CreateElement("NAD_SU")
	su.CreateElement("PartyQualifier").SetText("SU")
	su.CreateElement("PartyIdentificationDetails").
		CreateElement("PartyIdIdentification").SetText(doc.PartnerID)

	for _, item := range doc.Items {
		lin := root.CreateElement("LIN")
		lin.CreateElement("LineItemNumber").SetText(strconv.Itoa(item.LineNumber))
		num := lin.CreateElement("ItemNumberIdentification")
		num.CreateElement("ItemNumber").SetText(item.SKU)
		num.CreateElement("ItemNumberType").SetText("SA")

		qty := root.CreateElement("QTY").CreateElement("QuantityDetails")
		qty.CreateElement("QuantityQualifier").SetText("21")
		qty.CreateElement("Quantity").SetText(item.Quantity.String())
		qty.CreateElement("MeasureUnitQualifier").SetText(item.UoM)

		pri := root.CreateElement("PRI").CreateElement("PriceInformation")
		pri.CreateElement("PriceQualifier").SetText("AAB")
		pri.CreateElement("Price").SetText(item.UnitPrice.String())
		pri.CreateElement("PriceType").SetText("TU")
	}

	unt := root.CreateElement("UNT")
	unt.CreateElement("NumberOfSegments").SetText(strconv.Itoa(2 + len(doc.Items)*3))
	unt.CreateElement("MessageReferenceNumber").SetText(doc.OrderNumber)

	x.Indent(2)
	return x.WriteToBytes()
}

// buildX12 genera la rendición XML de un X12 850 (purchase order).
func buildX12(doc *orderDocument) ([]byte, error) {
	x := etree.NewDocument()
	x.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := x.CreateElement("X12_850")

	st := root.CreateElement("ST")
	st.CreateElement("TransactionSetIdentifierCode").SetText("850")
	st.CreateElement("TransactionSetControlNumber").SetText(doc.OrderNumber)

	beg := root.CreateElement("BEG")
	beg.CreateElement("TransactionSetPurposeCode").SetText("00")
	beg.CreateElement("PurchaseOrderTypeCode").SetText("NE")
	beg.CreateElement("PurchaseOrderNumber").SetText(doc.OrderNumber)
	beg.CreateElement("Date").SetText(doc.OrderDate.Format("20060102"))

	by := root.CreateElement("N1_BY")
	by.CreateElement("EntityIdentifierCode").SetText("BY")
	by.CreateElement("Name").SetText(doc.Buyer.Name)
	by.CreateElement("IdentificationCodeQualifier").SetText("91")
	by.CreateElement("IdentificationCode").SetText(doc.BuyerGLN)

	root.CreateElement("N3_BY").
		CreateElement("AddressInformation").SetText(doc.Buyer.Address)

	n4 := root.CreateElement("N4_BY")
	n4.CreateElement("CityName").SetText(doc.Buyer.City)
	n4.CreateElement("StateOrProvinceCode").SetText("")
	n4.CreateElement("PostalCode").SetText(doc.Buyer.PostalCode)
	n4.CreateElement("CountryCode").SetText(doc.Buyer.Country)

	st2 := root.CreateElement("N1_ST")
	st2.CreateElement("EntityIdentifierCode").SetText("ST")
	st2.CreateElement("Name").SetText(doc.SupplierName)
	st2.CreateElement("IdentificationCodeQualifier").SetText("91")
	st2.CreateElement("IdentificationCode").SetText(doc.PartnerID)

	for _, item := range doc.Items {
		po1 := root.CreateElement("PO1")
		po1.CreateElement("AssignedIdentification").SetText(strconv.Itoa(item.LineNumber))
		po1.CreateElement("QuantityOrdered").SetText(item.Quantity.String())
		po1.CreateElement("UnitOrBasisForMeasurementCode").SetText(item.UoM)
		po1.CreateElement("UnitPrice").SetText(item.UnitPrice.String())
		po1.CreateElement("BasisOfUnitPriceCode").SetText("PE")
		po1.CreateElement("ProductServiceIdQualifier").SetText("SK")
		po1.CreateElement("ProductServiceId").SetText(item.SKU)
	}

	ctt := root.CreateElement("CTT")
	ctt.CreateElement("NumberOfLineItems").SetText(strconv.Itoa(len(doc.Items)))

	se := root.CreateElement("SE")
	se.CreateElement("NumberOfIncludedSegments").SetText(strconv.Itoa(4 + len(doc.Items)))
	se.CreateElement("TransactionSetControlNumber").SetText(doc.OrderNumber)

	x.Indent(2)
	return x.WriteToBytes()
}
