package entities

import (
	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:150" json:"username"`
	Email        string    `gorm:"uniqueIndex;size:254" json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PasswordHash string    `json:"-"`

	Recipes []*Recipe `gorm:"foreignKey:AuthorID" json:"-"`
	Timestamp
}

type Subscription struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID   uuid.UUID `gorm:"uniqueIndex:idx_user_author" json:"user_id"`
	AuthorID uuid.UUID `gorm:"uniqueIndex:idx_user_author" json:"author_id"`

	User   *User `gorm:"foreignKey:UserID"`
	Author *User `gorm:"foreignKey:AuthorID"`
	Timestamp
}
