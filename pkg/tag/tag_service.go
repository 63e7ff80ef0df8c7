package tag

import (
	"context"
	"errors"

	"feastly-backend/domain"
	"feastly-backend/entities"

	"gorm.io/gorm"
)

type (
	TagService interface {
		GetTags(ctx context.Context) ([]domain.TagResponse, error)
		GetTagByID(ctx context.Context, id string) (domain.TagResponse, error)
	}

	tagService struct {
		tagRepository TagRepository
	}
)

func NewTagService(tagRepository TagRepository) TagService {
	return &tagService{tagRepository: tagRepository}
}

func (s *tagService) GetTags(ctx context.Context) ([]domain.TagResponse, error) {
	tags, err := s.tagRepository.GetTags(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]domain.TagResponse, 0, len(tags))
	for _, t := range tags {
		result = append(result, toTagResponse(t))
	}
	return result, nil
}

func (s *tagService) GetTagByID(ctx context.Context, id string) (domain.TagResponse, error) {
	tag, err := s.tagRepository.GetTagByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.TagResponse{}, domain.ErrTagNotFound
		}
		return domain.TagResponse{}, err
	}
	return toTagResponse(tag), nil
}

func toTagResponse(t *entities.Tag) domain.TagResponse {
	return domain.TagResponse{
		ID:    t.ID.String(),
		Name:  t.Name,
		Color: t.Color,
		Slug:  t.Slug,
	}
}
