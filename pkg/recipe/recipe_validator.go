package recipe

import (
	"feastly-backend/domain"
	"feastly-backend/entities"
)

// ValidateTags checks that the requested tag ids are non-empty and that each
// one resolved to an existing tag. found is the result of looking the ids up;
// duplicates in tagIDs are tolerated, a missing id is not.
func ValidateTags(tagIDs []string, found []*entities.Tag) ([]*entities.Tag, error) {
	if len(tagIDs) == 0 {
		return nil, domain.ErrEmptyTags
	}

	known := make(map[string]bool, len(found))
	for _, t := range found {
		known[t.ID.String()] = true
	}
	for _, id := range tagIDs {
		if !known[id] {
			return nil, domain.ErrUnknownTag
		}
	}

	return found, nil
}

// ValidateCookingTime rejects cooking times below one minute.
func ValidateCookingTime(minutes int) error {
	if minutes < domain.MinCookingTime {
		return domain.ErrInvalidCookingTime
	}
	return nil
}

// ValidateIngredients checks the ingredient entries of a recipe payload:
// at least one entry, no repeated ingredient id, every amount positive.
// It returns the entries unchanged on success.
func ValidateIngredients(items []domain.RecipeIngredientRequest) ([]domain.RecipeIngredientRequest, error) {
	if len(items) == 0 {
		return nil, domain.ErrEmptyIngredients
	}

	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if seen[item.ID] {
			return nil, domain.ErrDuplicateIngredient
		}
		seen[item.ID] = true

		if item.Amount < domain.MinIngredientAmount {
			return nil, domain.ErrInvalidIngredientAmount
		}
	}

	return items, nil
}
