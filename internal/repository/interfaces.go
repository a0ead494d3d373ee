package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/rpattn/propertyapi/internal/domain"
	"github.com/rpattn/propertyapi/internal/query"
)

// PropertyRepository defines the interface for property listing operations.
// GetByID, Update and Delete return domain.ErrNotFound for unknown ids;
// constraint violations surface as *domain.IntegrityError.
type PropertyRepository interface {
	Create(ctx context.Context, input domain.PropertyInput) (domain.Property, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Property, error)
	Update(ctx context.Context, id uuid.UUID, input domain.PropertyInput) (domain.Property, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// List pages through every property without filtering.
	List(ctx context.Context, page domain.PageRequest) (domain.Page[domain.Property], error)
	// Search applies the predicate before paging. The empty predicate behaves like List.
	Search(ctx context.Context, predicate query.Predicate, page domain.PageRequest) (domain.Page[domain.Property], error)
}

// UserRepository defines the interface for administrative identity records
type UserRepository interface {
	Create(ctx context.Context, user domain.User) (domain.User, error)
	GetByUsername(ctx context.Context, username string) (domain.User, error)
}
