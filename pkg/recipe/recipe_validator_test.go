package recipe

import (
	"testing"

	"feastly-backend/domain"
	"feastly-backend/entities"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCookingTime(t *testing.T) {
	assert.ErrorIs(t, ValidateCookingTime(0), domain.ErrInvalidCookingTime)
	assert.ErrorIs(t, ValidateCookingTime(-5), domain.ErrInvalidCookingTime)
	assert.NoError(t, ValidateCookingTime(1))
	assert.NoError(t, ValidateCookingTime(240))
}

func TestValidateIngredientsEmpty(t *testing.T) {
	_, err := ValidateIngredients(nil)
	assert.ErrorIs(t, err, domain.ErrEmptyIngredients)

	_, err = ValidateIngredients([]domain.RecipeIngredientRequest{})
	assert.ErrorIs(t, err, domain.ErrEmptyIngredients)
}

func TestValidateIngredientsDuplicate(t *testing.T) {
	id := uuid.New().String()
	_, err := ValidateIngredients([]domain.RecipeIngredientRequest{
		{ID: id, Amount: 1},
		{ID: id, Amount: 3},
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateIngredient)
}

func TestValidateIngredientsAmountBoundary(t *testing.T) {
	id := uuid.New().String()

	_, err := ValidateIngredients([]domain.RecipeIngredientRequest{{ID: id, Amount: 0}})
	assert.ErrorIs(t, err, domain.ErrInvalidIngredientAmount)

	items, err := ValidateIngredients([]domain.RecipeIngredientRequest{{ID: id, Amount: 1}})
	require.NoError(t, err)
	assert.Equal(t, 1, items[0].Amount)
}

func TestValidateTagsEmpty(t *testing.T) {
	_, err := ValidateTags(nil, nil)
	assert.ErrorIs(t, err, domain.ErrEmptyTags)
}

func TestValidateTagsUnknown(t *testing.T) {
	known := &entities.Tag{ID: uuid.New(), Name: "breakfast", Slug: "breakfast"}
	_, err := ValidateTags([]string{known.ID.String(), uuid.New().String()}, []*entities.Tag{known})
	assert.ErrorIs(t, err, domain.ErrUnknownTag)
}

func TestValidateTagsOK(t *testing.T) {
	known := &entities.Tag{ID: uuid.New(), Name: "dinner", Slug: "dinner"}
	tags, err := ValidateTags([]string{known.ID.String()}, []*entities.Tag{known})
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, known.Slug, tags[0].Slug)
}
