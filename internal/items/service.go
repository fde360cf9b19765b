package items

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Service exposes catalog-facing item reads.
type Service interface {
	GetItem(ctx context.Context, id uuid.UUID) (*ItemDTO, error)
	ListItems(ctx context.Context) ([]ItemDTO, error)
}

type service struct {
	repo *Repository
}

// NewService constructs an item service instance.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("item repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetItem(ctx context.Context, id uuid.UUID) (*ItemDTO, error) {
	item, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewItemDTO(item), nil
}

func (s *service) ListItems(ctx context.Context) ([]ItemDTO, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	dtos := make([]ItemDTO, 0, len(items))
	for i := range items {
		dtos = append(dtos, *NewItemDTO(&items[i]))
	}
	return dtos, nil
}
