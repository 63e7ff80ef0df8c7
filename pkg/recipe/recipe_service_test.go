package recipe

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"testing"

	"feastly-backend/domain"
	"feastly-backend/entities"
	"feastly-backend/pkg/ingredient"
	"feastly-backend/pkg/tag"
	"feastly-backend/pkg/user"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fakeStorage struct{}

func (fakeStorage) UploadImage(_ context.Context, key string, _ []byte, _ string) (string, error) {
	return "https://cdn.test/" + key, nil
}

func (fakeStorage) DeleteObject(context.Context, string) error { return nil }

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&entities.User{},
		&entities.Subscription{},
		&entities.Tag{},
		&entities.Ingredient{},
		&entities.Recipe{},
		&entities.RecipeIngredient{},
		&entities.Favorite{},
		&entities.ShoppingCartItem{},
	))
	return db
}

func newTestService(t *testing.T) (RecipeService, *gorm.DB) {
	t.Helper()

	db := newTestDB(t)
	service := NewRecipeService(
		NewRecipeRepository(db),
		tag.NewTagRepository(db),
		ingredient.NewIngredientRepository(db),
		user.NewUserRepository(db),
		fakeStorage{},
	)
	return service, db
}

func seedUser(t *testing.T, db *gorm.DB, username string) *entities.User {
	t.Helper()

	u := &entities.User{
		ID:       uuid.New(),
		Username: username,
		Email:    username + "@example.com",
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedTag(t *testing.T, db *gorm.DB, name string) *entities.Tag {
	t.Helper()

	tg := &entities.Tag{ID: uuid.New(), Name: name, Color: "Green", Slug: name}
	require.NoError(t, db.Create(tg).Error)
	return tg
}

func seedIngredient(t *testing.T, db *gorm.DB, name, unit string) *entities.Ingredient {
	t.Helper()

	ing := &entities.Ingredient{ID: uuid.New(), Name: name, MeasurementUnit: unit}
	require.NoError(t, db.Create(ing).Error)
	return ing
}

func pngDataURI() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("fake png bytes"))
}

func validCreateRequest(tg *entities.Tag, ing *entities.Ingredient) domain.CreateRecipeRequest {
	return domain.CreateRecipeRequest{
		Name:        "Pancakes",
		Image:       pngDataURI(),
		Text:        "Mix and fry.",
		CookingTime: 15,
		Tags:        []string{tg.ID.String()},
		Ingredients: []domain.RecipeIngredientRequest{{ID: ing.ID.String(), Amount: 2}},
	}
}

func recipeCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()

	var count int64
	require.NoError(t, db.Model(&entities.Recipe{}).Count(&count).Error)
	return count
}

func TestCreateRecipeRejectsEmptyTags(t *testing.T) {
	service, db := newTestService(t)
	author := seedUser(t, db, "alice")
	ing := seedIngredient(t, db, "flour", "g")

	req := domain.CreateRecipeRequest{
		Name:        "Bread",
		Image:       pngDataURI(),
		Text:        "Bake it.",
		CookingTime: 60,
		Ingredients: []domain.RecipeIngredientRequest{{ID: ing.ID.String(), Amount: 500}},
	}

	_, err := service.CreateRecipe(context.Background(), req, author.ID.String())
	assert.ErrorIs(t, err, domain.ErrEmptyTags)
	assert.Zero(t, recipeCount(t, db))
}

func TestCreateRecipeRejectsEmptyIngredients(t *testing.T) {
	service, db := newTestService(t)
	author := seedUser(t, db, "alice")
	tg := seedTag(t, db, "dinner")

	req := domain.CreateRecipeRequest{
		Name:        "Air soup",
		Image:       pngDataURI(),
		Text:        "Nothing in it.",
		CookingTime: 5,
		Tags:        []string{tg.ID.String()},
	}

	_, err := service.CreateRecipe(context.Background(), req, author.ID.String())
	assert.ErrorIs(t, err, domain.ErrEmptyIngredients)
	assert.Zero(t, recipeCount(t, db))
}

func TestCreateRecipeRejectsDuplicateIngredient(t *testing.T) {
	service, db := newTestService(t)
	author := seedUser(t, db, "alice")
	tg := seedTag(t, db, "dinner")
	ing := seedIngredient(t, db, "sugar", "g")

	req := validCreateRequest(tg, ing)
	req.Ingredients = []domain.RecipeIngredientRequest{
		{ID: ing.ID.String(), Amount: 100},
		{ID: ing.ID.String(), Amount: 200},
	}

	_, err := service.CreateRecipe(context.Background(), req, author.ID.String())
	assert.ErrorIs(t, err, domain.ErrDuplicateIngredient)
	assert.Zero(t, recipeCount(t, db))
}

func TestCreateRecipeRejectsUnknownTag(t *testing.T) {
	service, db := newTestService(t)
	author := seedUser(t, db, "alice")
	ing := seedIngredient(t, db, "sugar", "g")

	req := domain.CreateRecipeRequest{
		Name:        "Cake",
		Image:       pngDataURI(),
		Text:        "Bake.",
		CookingTime: 45,
		Tags:        []string{uuid.New().String()},
		Ingredients: []domain.RecipeIngredientRequest{{ID: ing.ID.String(), Amount: 100}},
	}

	_, err := service.CreateRecipe(context.Background(), req, author.ID.String())
	assert.ErrorIs(t, err, domain.ErrUnknownTag)
	assert.Zero(t, recipeCount(t, db))
}

func TestCreateRecipeBoundaryValues(t *testing.T) {
	service, db := newTestService(t)
	author := seedUser(t, db, "alice")
	tg := seedTag(t, db, "breakfast")
	ing := seedIngredient(t, db, "egg", "pcs")

	req := validCreateRequest(tg, ing)
	req.CookingTime = 0
	_, err := service.CreateRecipe(context.Background(), req, author.ID.String())
	assert.ErrorIs(t, err, domain.ErrInvalidCookingTime)

	req.CookingTime = 1
	req.Ingredients = []domain.RecipeIngredientRequest{{ID: ing.ID.String(), Amount: 0}}
	_, err = service.CreateRecipe(context.Background(), req, author.ID.String())
	assert.ErrorIs(t, err, domain.ErrInvalidIngredientAmount)
	assert.Zero(t, recipeCount(t, db))

	req.Ingredients = []domain.RecipeIngredientRequest{{ID: ing.ID.String(), Amount: 1}}
	res, err := service.CreateRecipe(context.Background(), req, author.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 1, res.CookingTime)
	require.Len(t, res.Ingredients, 1)
	assert.Equal(t, 1, res.Ingredients[0].Amount)
}

func TestCreateRecipeProjection(t *testing.T) {
	service, db := newTestService(t)
	author := seedUser(t, db, "alice")
	tg := seedTag(t, db, "dinner")
	ing := seedIngredient(t, db, "flour", "g")

	res, err := service.CreateRecipe(context.Background(), validCreateRequest(tg, ing), author.ID.String())
	require.NoError(t, err)

	assert.Equal(t, "Pancakes", res.Name)
	assert.Equal(t, author.Username, res.Author.Username)
	require.Len(t, res.Tags, 1)
	assert.Equal(t, "dinner", res.Tags[0].Slug)
	require.Len(t, res.Ingredients, 1)
	assert.Equal(t, "flour", res.Ingredients[0].Name)
	assert.Equal(t, "g", res.Ingredients[0].MeasurementUnit)
	assert.True(t, strings.HasPrefix(res.ImageURL, "https://cdn.test/recipes/"))
	assert.True(t, strings.HasSuffix(res.ImageURL, ".png"))
	assert.False(t, res.IsFavorited)
	assert.False(t, res.IsInShoppingCart)
}

func TestUpdateRecipeReplacesAssociations(t *testing.T) {
	service, db := newTestService(t)
	author := seedUser(t, db, "alice")
	tagA := seedTag(t, db, "tag-a")
	tagB := seedTag(t, db, "tag-b")
	tagC := seedTag(t, db, "tag-c")
	ingX := seedIngredient(t, db, "x-root", "g")
	ingY := seedIngredient(t, db, "y-leaf", "g")

	req := validCreateRequest(tagA, ingX)
	req.Tags = []string{tagA.ID.String(), tagB.ID.String()}
	req.Ingredients = []domain.RecipeIngredientRequest{{ID: ingX.ID.String(), Amount: 1}}

	created, err := service.CreateRecipe(context.Background(), req, author.ID.String())
	require.NoError(t, err)

	update := domain.UpdateRecipeRequest{
		Name:        "Pancakes v2",
		Text:        "Fry harder.",
		CookingTime: 20,
		Tags:        []string{tagC.ID.String()},
		Ingredients: []domain.RecipeIngredientRequest{{ID: ingY.ID.String(), Amount: 2}},
	}

	updated, err := service.UpdateRecipe(context.Background(), created.ID, update, author.ID.String())
	require.NoError(t, err)

	require.Len(t, updated.Tags, 1)
	assert.Equal(t, "tag-c", updated.Tags[0].Slug)
	require.Len(t, updated.Ingredients, 1)
	assert.Equal(t, "y-leaf", updated.Ingredients[0].Name)
	assert.Equal(t, 2, updated.Ingredients[0].Amount)

	// No residual link rows from the prior state.
	var linkCount int64
	require.NoError(t, db.Model(&entities.RecipeIngredient{}).Count(&linkCount).Error)
	assert.Equal(t, int64(1), linkCount)
}

func TestUpdateRecipeFailedValidationLeavesStateUntouched(t *testing.T) {
	service, db := newTestService(t)
	author := seedUser(t, db, "alice")
	tg := seedTag(t, db, "dinner")
	ing := seedIngredient(t, db, "flour", "g")

	created, err := service.CreateRecipe(context.Background(), validCreateRequest(tg, ing), author.ID.String())
	require.NoError(t, err)

	update := domain.UpdateRecipeRequest{
		Name:        "Broken",
		Text:        "Broken",
		CookingTime: 20,
		Tags:        []string{tg.ID.String()},
		// empty ingredient list must be rejected before anything is cleared
	}

	_, err = service.UpdateRecipe(context.Background(), created.ID, update, author.ID.String())
	assert.ErrorIs(t, err, domain.ErrEmptyIngredients)

	current, err := service.GetRecipeByID(context.Background(), created.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "Pancakes", current.Name)
	require.Len(t, current.Ingredients, 1)
	assert.Equal(t, "flour", current.Ingredients[0].Name)
}

func TestUpdateRecipeAuthorOnly(t *testing.T) {
	service, db := newTestService(t)
	author := seedUser(t, db, "alice")
	stranger := seedUser(t, db, "bob")
	tg := seedTag(t, db, "dinner")
	ing := seedIngredient(t, db, "flour", "g")

	created, err := service.CreateRecipe(context.Background(), validCreateRequest(tg, ing), author.ID.String())
	require.NoError(t, err)

	update := domain.UpdateRecipeRequest{
		Name:        "Hijacked",
		Text:        "Nope.",
		CookingTime: 5,
		Tags:        []string{tg.ID.String()},
		Ingredients: []domain.RecipeIngredientRequest{{ID: ing.ID.String(), Amount: 1}},
	}

	_, err = service.UpdateRecipe(context.Background(), created.ID, update, stranger.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotRecipeAuthor)

	err = service.DeleteRecipe(context.Background(), created.ID, stranger.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotRecipeAuthor)
}

func TestFavoriteToggle(t *testing.T) {
	service, db := newTestService(t)
	author := seedUser(t, db, "alice")
	viewer := seedUser(t, db, "bob")
	tg := seedTag(t, db, "dinner")
	ing := seedIngredient(t, db, "flour", "g")

	created, err := service.CreateRecipe(context.Background(), validCreateRequest(tg, ing), author.ID.String())
	require.NoError(t, err)

	short, err := service.AddFavorite(context.Background(), created.ID, viewer.ID.String())
	require.NoError(t, err)
	assert.Equal(t, created.ID, short.ID)

	_, err = service.AddFavorite(context.Background(), created.ID, viewer.ID.String())
	assert.ErrorIs(t, err, domain.ErrAlreadyInFavorites)

	res, err := service.GetRecipeByID(context.Background(), created.ID, viewer.ID.String())
	require.NoError(t, err)
	assert.True(t, res.IsFavorited)

	require.NoError(t, service.RemoveFavorite(context.Background(), created.ID, viewer.ID.String()))
	err = service.RemoveFavorite(context.Background(), created.ID, viewer.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotInFavorites)
}

func TestShoppingCartToggle(t *testing.T) {
	service, db := newTestService(t)
	author := seedUser(t, db, "alice")
	viewer := seedUser(t, db, "bob")
	tg := seedTag(t, db, "dinner")
	ing := seedIngredient(t, db, "flour", "g")

	created, err := service.CreateRecipe(context.Background(), validCreateRequest(tg, ing), author.ID.String())
	require.NoError(t, err)

	_, err = service.AddToShoppingCart(context.Background(), created.ID, viewer.ID.String())
	require.NoError(t, err)

	_, err = service.AddToShoppingCart(context.Background(), created.ID, viewer.ID.String())
	assert.ErrorIs(t, err, domain.ErrAlreadyInShoppingCart)

	res, err := service.GetRecipeByID(context.Background(), created.ID, viewer.ID.String())
	require.NoError(t, err)
	assert.True(t, res.IsInShoppingCart)

	// Anonymous viewer never sees viewer-relative flags.
	anon, err := service.GetRecipeByID(context.Background(), created.ID, "")
	require.NoError(t, err)
	assert.False(t, anon.IsInShoppingCart)

	require.NoError(t, service.RemoveFromShoppingCart(context.Background(), created.ID, viewer.ID.String()))
	err = service.RemoveFromShoppingCart(context.Background(), created.ID, viewer.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotInShoppingCart)
}

func TestToggleUnknownRecipe(t *testing.T) {
	service, db := newTestService(t)
	viewer := seedUser(t, db, "bob")

	_, err := service.AddFavorite(context.Background(), uuid.New().String(), viewer.ID.String())
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)

	_, err = service.AddToShoppingCart(context.Background(), uuid.New().String(), viewer.ID.String())
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)
}

func TestShoppingListAggregation(t *testing.T) {
	service, db := newTestService(t)
	author := seedUser(t, db, "alice")
	buyer := seedUser(t, db, "bob")
	tg := seedTag(t, db, "dinner")
	sugar := seedIngredient(t, db, "sugar", "g")
	eggs := seedIngredient(t, db, "eggs", "pcs")

	reqA := validCreateRequest(tg, sugar)
	reqA.Name = "Recipe A"
	reqA.Ingredients = []domain.RecipeIngredientRequest{{ID: sugar.ID.String(), Amount: 200}}
	recipeA, err := service.CreateRecipe(context.Background(), reqA, author.ID.String())
	require.NoError(t, err)

	reqB := validCreateRequest(tg, sugar)
	reqB.Name = "Recipe B"
	reqB.Ingredients = []domain.RecipeIngredientRequest{
		{ID: sugar.ID.String(), Amount: 50},
		{ID: eggs.ID.String(), Amount: 2},
	}
	recipeB, err := service.CreateRecipe(context.Background(), reqB, author.ID.String())
	require.NoError(t, err)

	_, err = service.AddToShoppingCart(context.Background(), recipeA.ID, buyer.ID.String())
	require.NoError(t, err)
	_, err = service.AddToShoppingCart(context.Background(), recipeB.ID, buyer.ID.String())
	require.NoError(t, err)

	items, err := service.GetShoppingList(context.Background(), buyer.ID.String())
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, domain.ShoppingListItem{Name: "eggs", MeasurementUnit: "pcs", Amount: 2}, items[0])
	assert.Equal(t, domain.ShoppingListItem{Name: "sugar", MeasurementUnit: "g", Amount: 250}, items[1])
}

func TestShoppingListEmptyCart(t *testing.T) {
	service, db := newTestService(t)
	buyer := seedUser(t, db, "bob")

	_, err := service.GetShoppingList(context.Background(), buyer.ID.String())
	assert.ErrorIs(t, err, domain.ErrShoppingCartEmpty)
}

func TestGetRecipesFilters(t *testing.T) {
	service, db := newTestService(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	breakfast := seedTag(t, db, "breakfast")
	dinner := seedTag(t, db, "dinner")
	ing := seedIngredient(t, db, "flour", "g")

	reqA := validCreateRequest(breakfast, ing)
	reqA.Name = "Alice breakfast"
	recipeA, err := service.CreateRecipe(context.Background(), reqA, alice.ID.String())
	require.NoError(t, err)

	reqB := validCreateRequest(dinner, ing)
	reqB.Name = "Bob dinner"
	_, err = service.CreateRecipe(context.Background(), reqB, bob.ID.String())
	require.NoError(t, err)

	byAuthor, count, err := service.GetRecipes(context.Background(), domain.RecipeFilter{AuthorID: alice.ID.String()}, 1, 20, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	require.Len(t, byAuthor, 1)
	assert.Equal(t, "Alice breakfast", byAuthor[0].Name)

	bySlug, _, err := service.GetRecipes(context.Background(), domain.RecipeFilter{TagSlugs: []string{"dinner"}}, 1, 20, "")
	require.NoError(t, err)
	require.Len(t, bySlug, 1)
	assert.Equal(t, "Bob dinner", bySlug[0].Name)

	_, err = service.AddFavorite(context.Background(), recipeA.ID, bob.ID.String())
	require.NoError(t, err)

	favorited, _, err := service.GetRecipes(context.Background(), domain.RecipeFilter{FavoritedBy: bob.ID.String()}, 1, 20, bob.ID.String())
	require.NoError(t, err)
	require.Len(t, favorited, 1)
	assert.Equal(t, recipeA.ID, favorited[0].ID)
	assert.True(t, favorited[0].IsFavorited)
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "recipes/a.png", objectKey("https://bucket.s3.eu-west-1.amazonaws.com/recipes/a.png"))
	assert.Equal(t, "", objectKey("https://cdn.test/recipes/a.png"))
}

func TestDeleteRecipeRemovesAssociations(t *testing.T) {
	service, db := newTestService(t)
	author := seedUser(t, db, "alice")
	viewer := seedUser(t, db, "bob")
	tg := seedTag(t, db, "dinner")
	ing := seedIngredient(t, db, "flour", "g")

	created, err := service.CreateRecipe(context.Background(), validCreateRequest(tg, ing), author.ID.String())
	require.NoError(t, err)

	_, err = service.AddFavorite(context.Background(), created.ID, viewer.ID.String())
	require.NoError(t, err)

	require.NoError(t, service.DeleteRecipe(context.Background(), created.ID, author.ID.String()))

	assert.Zero(t, recipeCount(t, db))
	var linkCount, favCount int64
	require.NoError(t, db.Model(&entities.RecipeIngredient{}).Count(&linkCount).Error)
	require.NoError(t, db.Model(&entities.Favorite{}).Count(&favCount).Error)
	assert.Zero(t, linkCount)
	assert.Zero(t, favCount)
}
