package seeder

import (
	"context"
	"errors"
	"log"
	"os"

	"feastly-backend/domain"
	"feastly-backend/entities"
	"feastly-backend/pkg/ingredient"
	"feastly-backend/pkg/tag"

	"github.com/google/uuid"
	"gopkg.in/yaml.v2"
	"gorm.io/gorm"
)

type (
	tagSeed struct {
		Name  string `yaml:"name"`
		Color string `yaml:"color"`
		Slug  string `yaml:"slug"`
	}

	ingredientSeed struct {
		Name            string `yaml:"name"`
		MeasurementUnit string `yaml:"measurement_unit"`
	}
)

// Seed loads the tag and ingredient catalogs from the data/ fixtures. Missing
// fixture files are skipped so a bare deployment still boots; rows that
// already exist are left alone.
func Seed(ctx context.Context, db *gorm.DB) error {
	if err := SeedTags(ctx, tag.NewTagRepository(db), "data/tags.yaml"); err != nil {
		return err
	}
	return SeedIngredients(ctx, ingredient.NewIngredientRepository(db), "data/ingredients.yaml")
}

func SeedTags(ctx context.Context, repository tag.TagRepository, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Printf("skipping tag seed: %v", err)
		return nil
	}

	var seeds []tagSeed
	if err := yaml.Unmarshal(raw, &seeds); err != nil {
		return err
	}

	for _, s := range seeds {
		if !entities.IsValidTagColor(s.Color) {
			return domain.ErrInvalidTagColor
		}
		err := repository.CreateTag(ctx, &entities.Tag{
			ID:    uuid.New(),
			Name:  s.Name,
			Color: s.Color,
			Slug:  s.Slug,
		})
		if err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
	}
	return nil
}

func SeedIngredients(ctx context.Context, repository ingredient.IngredientRepository, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Printf("skipping ingredient seed: %v", err)
		return nil
	}

	var seeds []ingredientSeed
	if err := yaml.Unmarshal(raw, &seeds); err != nil {
		return err
	}

	for _, s := range seeds {
		err := repository.CreateIngredient(ctx, &entities.Ingredient{
			ID:              uuid.New(),
			Name:            s.Name,
			MeasurementUnit: s.MeasurementUnit,
		})
		if err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
	}
	return nil
}
