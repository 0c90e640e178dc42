package repository

import "github.com/tu-usuario/medstock-pro/internal/domain/entity"

// CatalogEntry liga una entrada del catálogo con su proveedor ya resuelto.
type CatalogEntry struct {
	Supplier *entity.Supplier
	Product  *entity.SupplierProduct
}

// SupplierRepository define el puerto de proveedores y su catálogo.
type SupplierRepository interface {
	GetByID(orgID, id string) (*entity.Supplier, error)
	ListByOrganization(orgID string) ([]*entity.Supplier, error)
	// CatalogForProducts devuelve por productID la entrada de catálogo del
	// proveedor preferido de ese producto (si existe).
	CatalogForProducts(orgID string, productIDs []string) (map[string]*CatalogEntry, error)
	// CatalogEntryFor devuelve la entrada de catálogo de un proveedor
	// concreto para un producto, o nil si ese proveedor no lo ofrece.
	CatalogEntryFor(orgID, supplierID, productID string) (*CatalogEntry, error)
}
