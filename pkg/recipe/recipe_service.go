package recipe

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"feastly-backend/domain"
	"feastly-backend/entities"
	"feastly-backend/internal/utils"
	"feastly-backend/internal/utils/storage"
	"feastly-backend/pkg/ingredient"
	"feastly-backend/pkg/tag"
	"feastly-backend/pkg/user"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	RecipeService interface {
		CreateRecipe(ctx context.Context, req domain.CreateRecipeRequest, userID string) (domain.RecipeResponse, error)
		UpdateRecipe(ctx context.Context, recipeID string, req domain.UpdateRecipeRequest, userID string) (domain.RecipeResponse, error)
		DeleteRecipe(ctx context.Context, recipeID string, userID string) error
		GetRecipeByID(ctx context.Context, recipeID string, viewerID string) (domain.RecipeResponse, error)
		GetRecipes(ctx context.Context, filter domain.RecipeFilter, page, limit int, viewerID string) ([]domain.RecipeResponse, int64, error)

		AddFavorite(ctx context.Context, recipeID, userID string) (domain.RecipeShortResponse, error)
		RemoveFavorite(ctx context.Context, recipeID, userID string) error
		AddToShoppingCart(ctx context.Context, recipeID, userID string) (domain.RecipeShortResponse, error)
		RemoveFromShoppingCart(ctx context.Context, recipeID, userID string) error

		GetShoppingList(ctx context.Context, userID string) ([]domain.ShoppingListItem, error)
	}

	recipeService struct {
		recipeRepository     RecipeRepository
		tagRepository        tag.TagRepository
		ingredientRepository ingredient.IngredientRepository
		userRepository       user.UserRepository
		s3                   storage.AwsS3
	}
)

func NewRecipeService(
	recipeRepository RecipeRepository,
	tagRepository tag.TagRepository,
	ingredientRepository ingredient.IngredientRepository,
	userRepository user.UserRepository,
	s3 storage.AwsS3,
) RecipeService {
	return &recipeService{
		recipeRepository:     recipeRepository,
		tagRepository:        tagRepository,
		ingredientRepository: ingredientRepository,
		userRepository:       userRepository,
		s3:                   s3,
	}
}

// validateWritePayload runs every recipe-write validator before anything is
// persisted. It resolves tag ids to entities and builds the ingredient link
// rows for the given recipe id.
func (s *recipeService) validateWritePayload(
	ctx context.Context,
	recipeID uuid.UUID,
	tagIDs []string,
	items []domain.RecipeIngredientRequest,
	cookingTime int,
) ([]*entities.Tag, []*entities.RecipeIngredient, error) {
	if err := ValidateCookingTime(cookingTime); err != nil {
		return nil, nil, err
	}

	items, err := ValidateIngredients(items)
	if err != nil {
		return nil, nil, err
	}

	if len(tagIDs) == 0 {
		return nil, nil, domain.ErrEmptyTags
	}
	found, err := s.tagRepository.GetTagsByIDs(ctx, tagIDs)
	if err != nil {
		return nil, nil, err
	}
	tags, err := ValidateTags(tagIDs, found)
	if err != nil {
		return nil, nil, err
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	ingredients, err := s.ingredientRepository.GetIngredientsByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	if len(ingredients) != len(items) {
		return nil, nil, domain.ErrIngredientNotFound
	}

	links := make([]*entities.RecipeIngredient, 0, len(items))
	for _, item := range items {
		ingredientUUID, err := uuid.Parse(item.ID)
		if err != nil {
			return nil, nil, domain.ErrParseUUID
		}
		links = append(links, &entities.RecipeIngredient{
			ID:           uuid.New(),
			RecipeID:     recipeID,
			IngredientID: ingredientUUID,
			Amount:       item.Amount,
		})
	}

	return tags, links, nil
}

func (s *recipeService) uploadImage(ctx context.Context, dataURI string) (string, error) {
	raw, ext, err := utils.DecodeBase64Image(dataURI)
	if err != nil {
		return "", domain.ErrInvalidImageData
	}

	key := fmt.Sprintf("recipes/%s.%s", uuid.New().String(), ext)
	return s.s3.UploadImage(ctx, key, raw, "image/"+ext)
}

func (s *recipeService) CreateRecipe(ctx context.Context, req domain.CreateRecipeRequest, userID string) (domain.RecipeResponse, error) {
	authorUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.RecipeResponse{}, domain.ErrParseUUID
	}

	recipeID := uuid.New()
	tags, links, err := s.validateWritePayload(ctx, recipeID, req.Tags, req.Ingredients, req.CookingTime)
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	imageURL, err := s.uploadImage(ctx, req.Image)
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	recipe := &entities.Recipe{
		ID:          recipeID,
		AuthorID:    authorUUID,
		Name:        req.Name,
		ImageURL:    imageURL,
		Text:        req.Text,
		CookingTime: req.CookingTime,
		PubDate:     time.Now(),
	}

	if err := s.recipeRepository.CreateRecipe(ctx, recipe, tags, links); err != nil {
		return domain.RecipeResponse{}, err
	}

	return s.GetRecipeByID(ctx, recipeID.String(), userID)
}

func (s *recipeService) UpdateRecipe(ctx context.Context, recipeID string, req domain.UpdateRecipeRequest, userID string) (domain.RecipeResponse, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RecipeResponse{}, domain.ErrRecipeNotFound
		}
		return domain.RecipeResponse{}, err
	}

	if recipe.AuthorID.String() != userID {
		return domain.RecipeResponse{}, domain.ErrNotRecipeAuthor
	}

	// Validation runs in full before any write; a rejected payload leaves the
	// stored recipe and its associations untouched.
	tags, links, err := s.validateWritePayload(ctx, recipe.ID, req.Tags, req.Ingredients, req.CookingTime)
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	imageURL := recipe.ImageURL
	if req.Image != "" {
		imageURL, err = s.uploadImage(ctx, req.Image)
		if err != nil {
			return domain.RecipeResponse{}, err
		}
	}

	updated := &entities.Recipe{
		ID:          recipe.ID,
		AuthorID:    recipe.AuthorID,
		Name:        req.Name,
		ImageURL:    imageURL,
		Text:        req.Text,
		CookingTime: req.CookingTime,
		PubDate:     recipe.PubDate,
		Timestamp:   recipe.Timestamp,
	}

	if err := s.recipeRepository.UpdateRecipe(ctx, updated, tags, links); err != nil {
		return domain.RecipeResponse{}, err
	}

	return s.GetRecipeByID(ctx, recipeID, userID)
}

func (s *recipeService) DeleteRecipe(ctx context.Context, recipeID string, userID string) error {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrRecipeNotFound
		}
		return err
	}

	if recipe.AuthorID.String() != userID {
		return domain.ErrNotRecipeAuthor
	}

	if err := s.recipeRepository.DeleteRecipe(ctx, recipeID); err != nil {
		return err
	}

	// best-effort image cleanup
	if key := objectKey(recipe.ImageURL); key != "" {
		_ = s.s3.DeleteObject(ctx, key)
	}
	return nil
}

// objectKey recovers the storage key from an image URL produced by
// UploadImage. URLs from other origins yield an empty key.
func objectKey(imageURL string) string {
	_, key, found := strings.Cut(imageURL, ".amazonaws.com/")
	if !found {
		return ""
	}
	return key
}

func (s *recipeService) GetRecipeByID(ctx context.Context, recipeID string, viewerID string) (domain.RecipeResponse, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RecipeResponse{}, domain.ErrRecipeNotFound
		}
		return domain.RecipeResponse{}, err
	}

	return s.toRecipeResponse(ctx, recipe, viewerID)
}

func (s *recipeService) GetRecipes(ctx context.Context, filter domain.RecipeFilter, page, limit int, viewerID string) ([]domain.RecipeResponse, int64, error) {
	recipes, count, err := s.recipeRepository.GetRecipes(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, err
	}

	result := make([]domain.RecipeResponse, 0, len(recipes))
	for _, r := range recipes {
		res, err := s.toRecipeResponse(ctx, r, viewerID)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, res)
	}

	return result, count, nil
}

func (s *recipeService) AddFavorite(ctx context.Context, recipeID, userID string) (domain.RecipeShortResponse, error) {
	recipe, err := s.getRecipeForToggle(ctx, recipeID)
	if err != nil {
		return domain.RecipeShortResponse{}, err
	}

	favorited, err := s.recipeRepository.IsFavorited(ctx, userID, recipeID)
	if err != nil {
		return domain.RecipeShortResponse{}, err
	}
	if favorited {
		return domain.RecipeShortResponse{}, domain.ErrAlreadyInFavorites
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.RecipeShortResponse{}, domain.ErrParseUUID
	}

	favorite := &entities.Favorite{
		ID:        uuid.New(),
		UserID:    userUUID,
		RecipeID:  recipe.ID,
		CreatedAt: time.Now(),
	}

	if err := s.recipeRepository.AddFavorite(ctx, favorite); err != nil {
		// The unique (user_id, recipe_id) constraint catches the concurrent
		// duplicate the exists-check raced with.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.RecipeShortResponse{}, domain.ErrAlreadyInFavorites
		}
		return domain.RecipeShortResponse{}, err
	}

	return toRecipeShortResponse(recipe), nil
}

func (s *recipeService) RemoveFavorite(ctx context.Context, recipeID, userID string) error {
	if _, err := s.getRecipeForToggle(ctx, recipeID); err != nil {
		return err
	}

	rows, err := s.recipeRepository.RemoveFavorite(ctx, userID, recipeID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotInFavorites
	}
	return nil
}

func (s *recipeService) AddToShoppingCart(ctx context.Context, recipeID, userID string) (domain.RecipeShortResponse, error) {
	recipe, err := s.getRecipeForToggle(ctx, recipeID)
	if err != nil {
		return domain.RecipeShortResponse{}, err
	}

	inCart, err := s.recipeRepository.IsInShoppingCart(ctx, userID, recipeID)
	if err != nil {
		return domain.RecipeShortResponse{}, err
	}
	if inCart {
		return domain.RecipeShortResponse{}, domain.ErrAlreadyInShoppingCart
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.RecipeShortResponse{}, domain.ErrParseUUID
	}

	item := &entities.ShoppingCartItem{
		ID:        uuid.New(),
		UserID:    userUUID,
		RecipeID:  recipe.ID,
		CreatedAt: time.Now(),
	}

	if err := s.recipeRepository.AddToShoppingCart(ctx, item); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.RecipeShortResponse{}, domain.ErrAlreadyInShoppingCart
		}
		return domain.RecipeShortResponse{}, err
	}

	return toRecipeShortResponse(recipe), nil
}

func (s *recipeService) RemoveFromShoppingCart(ctx context.Context, recipeID, userID string) error {
	if _, err := s.getRecipeForToggle(ctx, recipeID); err != nil {
		return err
	}

	rows, err := s.recipeRepository.RemoveFromShoppingCart(ctx, userID, recipeID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotInShoppingCart
	}
	return nil
}

// GetShoppingList aggregates the ingredient links of every recipe in the
// user's cart: grouped by ingredient name and unit, amounts summed, sorted by
// name so the report is deterministic.
func (s *recipeService) GetShoppingList(ctx context.Context, userID string) ([]domain.ShoppingListItem, error) {
	count, err := s.recipeRepository.CountShoppingCartItems(ctx, userID)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, domain.ErrShoppingCartEmpty
	}

	links, err := s.recipeRepository.GetShoppingCartLinks(ctx, userID)
	if err != nil {
		return nil, err
	}

	return aggregateShoppingList(links), nil
}

func aggregateShoppingList(links []*entities.RecipeIngredient) []domain.ShoppingListItem {
	type groupKey struct {
		name string
		unit string
	}

	totals := make(map[groupKey]int)
	for _, link := range links {
		if link.Ingredient == nil {
			continue
		}
		key := groupKey{name: link.Ingredient.Name, unit: link.Ingredient.MeasurementUnit}
		totals[key] += link.Amount
	}

	items := make([]domain.ShoppingListItem, 0, len(totals))
	for key, amount := range totals {
		items = append(items, domain.ShoppingListItem{
			Name:            key.name,
			MeasurementUnit: key.unit,
			Amount:          amount,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].MeasurementUnit < items[j].MeasurementUnit
	})

	return items
}

func (s *recipeService) getRecipeForToggle(ctx context.Context, recipeID string) (*entities.Recipe, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRecipeNotFound
		}
		return nil, err
	}
	return recipe, nil
}

func (s *recipeService) toRecipeResponse(ctx context.Context, recipe *entities.Recipe, viewerID string) (domain.RecipeResponse, error) {
	isFavorited := false
	isInCart := false
	isSubscribed := false

	if viewerID != "" {
		var err error
		isFavorited, err = s.recipeRepository.IsFavorited(ctx, viewerID, recipe.ID.String())
		if err != nil {
			return domain.RecipeResponse{}, err
		}
		isInCart, err = s.recipeRepository.IsInShoppingCart(ctx, viewerID, recipe.ID.String())
		if err != nil {
			return domain.RecipeResponse{}, err
		}
		isSubscribed, err = s.userRepository.IsSubscribed(ctx, viewerID, recipe.AuthorID.String())
		if err != nil {
			return domain.RecipeResponse{}, err
		}
	}

	author := domain.UserResponse{ID: recipe.AuthorID.String(), IsSubscribed: isSubscribed}
	if recipe.Author != nil {
		author.Username = recipe.Author.Username
		author.Email = recipe.Author.Email
		author.FirstName = recipe.Author.FirstName
		author.LastName = recipe.Author.LastName
	}

	tags := make([]domain.TagResponse, 0, len(recipe.Tags))
	for _, t := range recipe.Tags {
		tags = append(tags, domain.TagResponse{
			ID:    t.ID.String(),
			Name:  t.Name,
			Color: t.Color,
			Slug:  t.Slug,
		})
	}

	ingredients := make([]domain.RecipeIngredientResponse, 0, len(recipe.Ingredients))
	for _, link := range recipe.Ingredients {
		res := domain.RecipeIngredientResponse{
			ID:     link.IngredientID.String(),
			Amount: link.Amount,
		}
		if link.Ingredient != nil {
			res.Name = link.Ingredient.Name
			res.MeasurementUnit = link.Ingredient.MeasurementUnit
		}
		ingredients = append(ingredients, res)
	}

	return domain.RecipeResponse{
		ID:               recipe.ID.String(),
		Name:             recipe.Name,
		Author:           author,
		Tags:             tags,
		Ingredients:      ingredients,
		ImageURL:         recipe.ImageURL,
		Text:             recipe.Text,
		CookingTime:      recipe.CookingTime,
		PubDate:          recipe.PubDate,
		IsFavorited:      isFavorited,
		IsInShoppingCart: isInCart,
	}, nil
}

func toRecipeShortResponse(r *entities.Recipe) domain.RecipeShortResponse {
	return domain.RecipeShortResponse{
		ID:          r.ID.String(),
		Name:        r.Name,
		ImageURL:    r.ImageURL,
		CookingTime: r.CookingTime,
	}
}
