package domain

import (
	"errors"
	"time"
)

const (
	MinCookingTime      = 1
	MinIngredientAmount = 1
)

var (
	MessageSuccessGetRecipes       = "success get recipes"
	MessageSuccessGetRecipeDetail  = "success get recipe detail"
	MessageSuccessCreateRecipe     = "recipe created successfully"
	MessageSuccessUpdateRecipe     = "recipe updated successfully"
	MessageSuccessDeleteRecipe     = "recipe deleted successfully"
	MessageSuccessAddFavorite      = "recipe added to favorites"
	MessageSuccessRemoveFavorite   = "recipe removed from favorites"
	MessageSuccessAddToCart        = "recipe added to shopping cart"
	MessageSuccessRemoveFromCart   = "recipe removed from shopping cart"
	MessageSuccessDownloadShopping = "shopping list generated"

	MessageFailedGetRecipes       = "failed to get recipes"
	MessageFailedGetRecipeDetail  = "failed to get recipe detail"
	MessageFailedCreateRecipe     = "failed to create recipe"
	MessageFailedUpdateRecipe     = "failed to update recipe"
	MessageFailedDeleteRecipe     = "failed to delete recipe"
	MessageFailedAddFavorite      = "failed to add recipe to favorites"
	MessageFailedRemoveFavorite   = "failed to remove recipe from favorites"
	MessageFailedAddToCart        = "failed to add recipe to shopping cart"
	MessageFailedRemoveFromCart   = "failed to remove recipe from shopping cart"
	MessageFailedDownloadShopping = "failed to generate shopping list"

	ErrRecipeNotFound           = errors.New("recipe not found")
	ErrNotRecipeAuthor          = errors.New("only the author can modify this recipe")
	ErrEmptyTags                = errors.New("recipe needs at least one tag")
	ErrUnknownTag               = errors.New("referenced tag does not exist")
	ErrEmptyIngredients         = errors.New("recipe needs at least one ingredient")
	ErrDuplicateIngredient      = errors.New("ingredient must not repeat within a recipe")
	ErrInvalidIngredientAmount  = errors.New("ingredient amount must be at least 1")
	ErrInvalidCookingTime       = errors.New("cooking time must be at least 1 minute")
	ErrInvalidImageData         = errors.New("image must be a base64 data URI")
	ErrAlreadyInFavorites       = errors.New("recipe already in favorites")
	ErrNotInFavorites           = errors.New("recipe not in favorites")
	ErrAlreadyInShoppingCart    = errors.New("recipe already in shopping cart")
	ErrNotInShoppingCart        = errors.New("recipe not in shopping cart")
	ErrShoppingCartEmpty        = errors.New("shopping cart is empty")
)

type (
	RecipeIngredientRequest struct {
		ID     string `json:"id" validate:"required,uuid"`
		Amount int    `json:"amount" validate:"required"`
	}

	CreateRecipeRequest struct {
		Name        string                    `json:"name" validate:"required,max=200"`
		Image       string                    `json:"image" validate:"required"`
		Text        string                    `json:"text" validate:"required"`
		CookingTime int                       `json:"cooking_time" validate:"required"`
		Tags        []string                  `json:"tags"`
		Ingredients []RecipeIngredientRequest `json:"ingredients"`
	}

	UpdateRecipeRequest struct {
		Name        string                    `json:"name" validate:"required,max=200"`
		Image       string                    `json:"image" validate:"omitempty"`
		Text        string                    `json:"text" validate:"required"`
		CookingTime int                       `json:"cooking_time" validate:"required"`
		Tags        []string                  `json:"tags"`
		Ingredients []RecipeIngredientRequest `json:"ingredients"`
	}

	RecipeIngredientResponse struct {
		ID              string `json:"id"`
		Name            string `json:"name"`
		MeasurementUnit string `json:"measurement_unit"`
		Amount          int    `json:"amount"`
	}

	// RecipeResponse is the full viewer-relative recipe projection.
	RecipeResponse struct {
		ID               string                     `json:"id"`
		Name             string                     `json:"name"`
		Author           UserResponse               `json:"author"`
		Tags             []TagResponse              `json:"tags"`
		Ingredients      []RecipeIngredientResponse `json:"ingredients"`
		ImageURL         string                     `json:"image"`
		Text             string                     `json:"text"`
		CookingTime      int                        `json:"cooking_time"`
		PubDate          time.Time                  `json:"pub_date"`
		IsFavorited      bool                       `json:"is_favorited"`
		IsInShoppingCart bool                       `json:"is_in_shopping_cart"`
	}

	RecipeShortResponse struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		ImageURL    string `json:"image"`
		CookingTime int    `json:"cooking_time"`
	}

	// RecipeFilter narrows recipe listings; zero values mean "no filter".
	RecipeFilter struct {
		AuthorID         string
		TagSlugs         []string
		FavoritedBy      string
		InShoppingCartOf string
	}

	ShoppingListItem struct {
		Name            string `json:"name"`
		MeasurementUnit string `json:"measurement_unit"`
		Amount          int    `json:"amount"`
	}
)
