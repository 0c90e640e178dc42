package domain

// OrganizationContext identifica la organización y el usuario que ejecutan
// una operación. Se pasa explícitamente a cada caso de uso del ledger y del
// scheduler en lugar de usar estado global mutable.
type OrganizationContext struct {
	OrganizationID string
	UserID         string
}

// Valid indica si el contexto trae al menos la organización.
func (c OrganizationContext) Valid() bool {
	return c.OrganizationID != ""
}
