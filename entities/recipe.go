package entities

import (
	"time"

	"github.com/google/uuid"
)

type Recipe struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	AuthorID    uuid.UUID `json:"author_id"`
	Name        string    `gorm:"size:200" json:"name"`
	ImageURL    string    `json:"image_url,omitempty"`
	Text        string    `gorm:"type:text" json:"text"`
	CookingTime int       `json:"cooking_time"`
	PubDate     time.Time `gorm:"type:timestamp" json:"pub_date"`

	Author      *User               `gorm:"foreignKey:AuthorID"`
	Tags        []*Tag              `gorm:"many2many:recipe_tags"`
	Ingredients []*RecipeIngredient `gorm:"foreignKey:RecipeID"`
	Timestamp
}

// RecipeIngredient links a recipe to an ingredient with its quantity.
type RecipeIngredient struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	RecipeID     uuid.UUID `gorm:"uniqueIndex:idx_recipe_ingredient" json:"recipe_id"`
	IngredientID uuid.UUID `gorm:"uniqueIndex:idx_recipe_ingredient" json:"ingredient_id"`
	Amount       int       `json:"amount"`

	Recipe     *Recipe     `gorm:"foreignKey:RecipeID"`
	Ingredient *Ingredient `gorm:"foreignKey:IngredientID"`
}

type Favorite struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID    uuid.UUID `gorm:"uniqueIndex:idx_user_favorite" json:"user_id"`
	RecipeID  uuid.UUID `gorm:"uniqueIndex:idx_user_favorite" json:"recipe_id"`
	CreatedAt time.Time `gorm:"type:timestamp" json:"created_at"`

	User   *User   `gorm:"foreignKey:UserID"`
	Recipe *Recipe `gorm:"foreignKey:RecipeID"`
}

type ShoppingCartItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID    uuid.UUID `gorm:"uniqueIndex:idx_user_cart" json:"user_id"`
	RecipeID  uuid.UUID `gorm:"uniqueIndex:idx_user_cart" json:"recipe_id"`
	CreatedAt time.Time `gorm:"type:timestamp" json:"created_at"`

	User   *User   `gorm:"foreignKey:UserID"`
	Recipe *Recipe `gorm:"foreignKey:RecipeID"`
}
