package entity

import "time"

// Location es una ubicación física de stock dentro de la organización
// (bodega, consultorio, carro de urgencias).
type Location struct {
	ID                 string
	OrganizationID     string
	Name               string
	AllowNegativeStock bool // permite consumos que dejen el stock bajo cero
	Active             bool
	CreatedAt          time.Time
}
