package entities

import (
	"github.com/google/uuid"
)

type Ingredient struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name            string    `gorm:"uniqueIndex:idx_name_unit;size:200" json:"name"`
	MeasurementUnit string    `gorm:"uniqueIndex:idx_name_unit;size:200" json:"measurement_unit"`
}
