package recipe

import (
	"context"

	"feastly-backend/domain"
	"feastly-backend/entities"

	"gorm.io/gorm"
)

type (
	RecipeRepository interface {
		CreateRecipe(ctx context.Context, recipe *entities.Recipe, tags []*entities.Tag, links []*entities.RecipeIngredient) error
		UpdateRecipe(ctx context.Context, recipe *entities.Recipe, tags []*entities.Tag, links []*entities.RecipeIngredient) error
		DeleteRecipe(ctx context.Context, id string) error
		GetRecipeByID(ctx context.Context, id string) (*entities.Recipe, error)
		GetRecipes(ctx context.Context, filter domain.RecipeFilter, page, limit int) ([]*entities.Recipe, int64, error)

		AddFavorite(ctx context.Context, favorite *entities.Favorite) error
		RemoveFavorite(ctx context.Context, userID, recipeID string) (int64, error)
		IsFavorited(ctx context.Context, userID, recipeID string) (bool, error)

		AddToShoppingCart(ctx context.Context, item *entities.ShoppingCartItem) error
		RemoveFromShoppingCart(ctx context.Context, userID, recipeID string) (int64, error)
		IsInShoppingCart(ctx context.Context, userID, recipeID string) (bool, error)

		CountShoppingCartItems(ctx context.Context, userID string) (int64, error)
		GetShoppingCartLinks(ctx context.Context, userID string) ([]*entities.RecipeIngredient, error)
	}

	recipeRepository struct {
		db *gorm.DB
	}
)

func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

// CreateRecipe persists the recipe row, its tag associations and its
// ingredient links as one transaction. Either everything lands or nothing
// does.
func (r *recipeRepository) CreateRecipe(ctx context.Context, recipe *entities.Recipe, tags []*entities.Tag, links []*entities.RecipeIngredient) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Tags", "Ingredients").Create(recipe).Error; err != nil {
			return err
		}
		if err := tx.Model(recipe).Association("Tags").Append(tags); err != nil {
			return err
		}
		if len(links) > 0 {
			if err := tx.Create(&links).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateRecipe replaces the tag set and ingredient links wholesale: the prior
// associations are cleared and the validated ones reinserted, all inside one
// transaction so readers never observe the intermediate state.
func (r *recipeRepository) UpdateRecipe(ctx context.Context, recipe *entities.Recipe, tags []*entities.Tag, links []*entities.RecipeIngredient) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Tags", "Ingredients").Save(recipe).Error; err != nil {
			return err
		}
		if err := tx.Model(recipe).Association("Tags").Replace(tags); err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&entities.RecipeIngredient{}).Error; err != nil {
			return err
		}
		if len(links) > 0 {
			if err := tx.Create(&links).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *recipeRepository) DeleteRecipe(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", id).Delete(&entities.RecipeIngredient{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&entities.Favorite{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&entities.ShoppingCartItem{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM recipe_tags WHERE recipe_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&entities.Recipe{}).Error
	})
}

func (r *recipeRepository) GetRecipeByID(ctx context.Context, id string) (*entities.Recipe, error) {
	var recipe entities.Recipe
	if err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Tags").
		Preload("Ingredients.Ingredient").
		Where("id = ?", id).
		First(&recipe).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (r *recipeRepository) GetRecipes(ctx context.Context, filter domain.RecipeFilter, page, limit int) ([]*entities.Recipe, int64, error) {
	var recipes []*entities.Recipe
	var count int64
	offset := (page - 1) * limit

	base := r.filteredQuery(ctx, filter)

	if err := base.Distinct("recipes.id").Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if err := r.filteredQuery(ctx, filter).
		Distinct("recipes.*").
		Preload("Author").
		Preload("Tags").
		Preload("Ingredients.Ingredient").
		Offset(offset).
		Limit(limit).
		Order("recipes.pub_date desc").
		Find(&recipes).Error; err != nil {
		return nil, 0, err
	}

	return recipes, count, nil
}

func (r *recipeRepository) filteredQuery(ctx context.Context, filter domain.RecipeFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&entities.Recipe{})

	if filter.AuthorID != "" {
		query = query.Where("recipes.author_id = ?", filter.AuthorID)
	}
	if len(filter.TagSlugs) > 0 {
		query = query.
			Joins("JOIN recipe_tags ON recipe_tags.recipe_id = recipes.id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", filter.TagSlugs)
	}
	if filter.FavoritedBy != "" {
		query = query.
			Joins("JOIN favorites ON favorites.recipe_id = recipes.id").
			Where("favorites.user_id = ?", filter.FavoritedBy)
	}
	if filter.InShoppingCartOf != "" {
		query = query.
			Joins("JOIN shopping_cart_items ON shopping_cart_items.recipe_id = recipes.id").
			Where("shopping_cart_items.user_id = ?", filter.InShoppingCartOf)
	}

	return query
}

func (r *recipeRepository) AddFavorite(ctx context.Context, favorite *entities.Favorite) error {
	return r.db.WithContext(ctx).Create(favorite).Error
}

func (r *recipeRepository) RemoveFavorite(ctx context.Context, userID, recipeID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&entities.Favorite{})
	return result.RowsAffected, result.Error
}

func (r *recipeRepository) IsFavorited(ctx context.Context, userID, recipeID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.Favorite{}).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *recipeRepository) AddToShoppingCart(ctx context.Context, item *entities.ShoppingCartItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *recipeRepository) RemoveFromShoppingCart(ctx context.Context, userID, recipeID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&entities.ShoppingCartItem{})
	return result.RowsAffected, result.Error
}

func (r *recipeRepository) IsInShoppingCart(ctx context.Context, userID, recipeID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.ShoppingCartItem{}).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *recipeRepository) CountShoppingCartItems(ctx context.Context, userID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.ShoppingCartItem{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// GetShoppingCartLinks returns every ingredient link of every recipe in the
// user's shopping cart, with the ingredient preloaded.
func (r *recipeRepository) GetShoppingCartLinks(ctx context.Context, userID string) ([]*entities.RecipeIngredient, error) {
	var links []*entities.RecipeIngredient
	if err := r.db.WithContext(ctx).
		Preload("Ingredient").
		Joins("JOIN shopping_cart_items ON shopping_cart_items.recipe_id = recipe_ingredients.recipe_id").
		Where("shopping_cart_items.user_id = ?", userID).
		Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}
