package ingredient

import (
	"context"
	"errors"

	"feastly-backend/domain"
	"feastly-backend/entities"

	"gorm.io/gorm"
)

type (
	IngredientService interface {
		GetIngredients(ctx context.Context, namePrefix string) ([]domain.IngredientResponse, error)
		GetIngredientByID(ctx context.Context, id string) (domain.IngredientResponse, error)
	}

	ingredientService struct {
		ingredientRepository IngredientRepository
	}
)

func NewIngredientService(ingredientRepository IngredientRepository) IngredientService {
	return &ingredientService{ingredientRepository: ingredientRepository}
}

func (s *ingredientService) GetIngredients(ctx context.Context, namePrefix string) ([]domain.IngredientResponse, error) {
	ingredients, err := s.ingredientRepository.GetIngredients(ctx, namePrefix)
	if err != nil {
		return nil, err
	}

	result := make([]domain.IngredientResponse, 0, len(ingredients))
	for _, i := range ingredients {
		result = append(result, toIngredientResponse(i))
	}
	return result, nil
}

func (s *ingredientService) GetIngredientByID(ctx context.Context, id string) (domain.IngredientResponse, error) {
	ingredient, err := s.ingredientRepository.GetIngredientByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.IngredientResponse{}, domain.ErrIngredientNotFound
		}
		return domain.IngredientResponse{}, err
	}
	return toIngredientResponse(ingredient), nil
}

func toIngredientResponse(i *entities.Ingredient) domain.IngredientResponse {
	return domain.IngredientResponse{
		ID:              i.ID.String(),
		Name:            i.Name,
		MeasurementUnit: i.MeasurementUnit,
	}
}
