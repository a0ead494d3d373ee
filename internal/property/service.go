// Package property implements the property listing use cases and their
// HTTP surface.
package property

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rpattn/propertyapi/internal/domain"
	"github.com/rpattn/propertyapi/internal/query"
	"github.com/rpattn/propertyapi/internal/repository"
)

// Service orchestrates property CRUD and search on top of a repository.
type Service struct {
	repo   repository.PropertyRepository
	logger *zap.Logger
}

// NewService creates a property service.
func NewService(repo repository.PropertyRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger}
}

// Create normalizes and validates the input before persisting it.
func (s *Service) Create(ctx context.Context, input domain.PropertyInput) (domain.Property, error) {
	input = input.Normalize()
	if err := input.Validate(); err != nil {
		return domain.Property{}, err
	}

	created, err := s.repo.Create(ctx, input)
	if err != nil {
		return domain.Property{}, fmt.Errorf("create property: %w", err)
	}
	s.logger.Info("property created", zap.String("id", created.ID.String()))
	return created, nil
}

// Get returns a single property or domain.ErrNotFound.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.Property, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Property{}, fmt.Errorf("get property %s: %w", id, err)
	}
	return p, nil
}

// Update replaces all mutable fields of an existing property.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input domain.PropertyInput) (domain.Property, error) {
	input = input.Normalize()
	if err := input.Validate(); err != nil {
		return domain.Property{}, err
	}

	updated, err := s.repo.Update(ctx, id, input)
	if err != nil {
		return domain.Property{}, fmt.Errorf("update property %s: %w", id, err)
	}
	s.logger.Info("property updated", zap.String("id", id.String()))
	return updated, nil
}

// Delete removes a property. Deleting an unknown id returns domain.ErrNotFound.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete property %s: %w", id, err)
	}
	s.logger.Info("property deleted", zap.String("id", id.String()))
	return nil
}

// List returns one page of all properties.
func (s *Service) List(ctx context.Context, page domain.PageRequest) (domain.Page[domain.Property], error) {
	result, err := s.repo.List(ctx, page)
	if err != nil {
		return domain.Page[domain.Property]{}, fmt.Errorf("list properties: %w", err)
	}
	return result, nil
}

// Search composes the filter into a predicate and pages through the matches.
// A filter with nothing present behaves exactly like List.
func (s *Service) Search(ctx context.Context, filter domain.PropertyFilter, page domain.PageRequest) (domain.Page[domain.Property], error) {
	predicate, ok := query.Compose(filter)
	if !ok {
		return s.List(ctx, page)
	}

	s.logger.Debug("searching properties",
		zap.Stringer("predicate", predicate.Kind),
		zap.Int("page", page.Page),
		zap.Int("size", page.Size),
	)

	result, err := s.repo.Search(ctx, predicate, page)
	if err != nil {
		return domain.Page[domain.Property]{}, fmt.Errorf("search properties: %w", err)
	}
	return result, nil
}
