package entities

import (
	"github.com/google/uuid"
)

// TagColors is the fixed palette a tag color must come from.
var TagColors = []string{"Yellow", "Blue", "Pink", "Orange", "Purple", "Green"}

type Tag struct {
	ID    uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name  string    `gorm:"uniqueIndex;size:50" json:"name"`
	Color string    `gorm:"size:16" json:"color"`
	Slug  string    `gorm:"uniqueIndex;size:50" json:"slug"`
}

func IsValidTagColor(color string) bool {
	for _, c := range TagColors {
		if c == color {
			return true
		}
	}
	return false
}
