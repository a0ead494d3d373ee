// Package memory provides in-process implementations of the repository
// interfaces. They follow the Postgres semantics closely enough to back
// service tests and the "memory" storage driver.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rpattn/propertyapi/internal/domain"
	"github.com/rpattn/propertyapi/internal/query"
	"github.com/rpattn/propertyapi/internal/repository"
)

type propertyEntry struct {
	seq      int64
	property domain.Property
}

// PropertyRepository is a mutex-guarded map of properties. Default ordering
// is insertion order.
type PropertyRepository struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]propertyEntry
	seq     int64
	now     func() time.Time
}

var _ repository.PropertyRepository = (*PropertyRepository)(nil)

// NewPropertyRepository returns an empty store.
func NewPropertyRepository() *PropertyRepository {
	return &PropertyRepository{
		entries: make(map[uuid.UUID]propertyEntry),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (r *PropertyRepository) Create(ctx context.Context, input domain.PropertyInput) (domain.Property, error) {
	if err := ctx.Err(); err != nil {
		return domain.Property{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	property := domain.Property{ID: uuid.New(), CreatedAt: now}.Apply(input, now)
	r.seq++
	r.entries[property.ID] = propertyEntry{seq: r.seq, property: property}
	return property.Clone(), nil
}

func (r *PropertyRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Property, error) {
	if err := ctx.Err(); err != nil {
		return domain.Property{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[id]
	if !ok {
		return domain.Property{}, fmt.Errorf("property %s: %w", id, domain.ErrNotFound)
	}
	return entry.property.Clone(), nil
}

func (r *PropertyRepository) Update(ctx context.Context, id uuid.UUID, input domain.PropertyInput) (domain.Property, error) {
	if err := ctx.Err(); err != nil {
		return domain.Property{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[id]
	if !ok {
		return domain.Property{}, fmt.Errorf("property %s: %w", id, domain.ErrNotFound)
	}
	entry.property = entry.property.Apply(input, r.now())
	r.entries[id] = entry
	return entry.property.Clone(), nil
}

func (r *PropertyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[id]; !ok {
		return fmt.Errorf("property %s: %w", id, domain.ErrNotFound)
	}
	delete(r.entries, id)
	return nil
}

func (r *PropertyRepository) List(ctx context.Context, page domain.PageRequest) (domain.Page[domain.Property], error) {
	return r.Search(ctx, query.Predicate{}, page)
}

func (r *PropertyRepository) Search(ctx context.Context, predicate query.Predicate, page domain.PageRequest) (domain.Page[domain.Property], error) {
	if err := ctx.Err(); err != nil {
		return domain.Page[domain.Property]{}, err
	}

	r.mu.RLock()
	matched := make([]propertyEntry, 0, len(r.entries))
	for _, entry := range r.entries {
		if predicate.Matches(entry.property) {
			matched = append(matched, entry)
		}
	}
	r.mu.RUnlock()

	sortEntries(matched, page.Sort)

	total := int64(len(matched))
	start := page.Offset()
	if start < 0 || start > len(matched) {
		start = len(matched)
	}
	end := len(matched)
	if page.Size >= 0 && page.Size < end-start {
		end = start + page.Size
	}

	items := make([]domain.Property, 0, end-start)
	for _, entry := range matched[start:end] {
		items = append(items, entry.property.Clone())
	}
	return domain.NewPage(items, total, page), nil
}

// Len reports the number of stored properties.
func (r *PropertyRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func sortEntries(entries []propertyEntry, order *domain.PropertySort) {
	compare := func(a, b propertyEntry) int { return 0 }
	desc := false
	if order != nil {
		desc = order.Direction == domain.SortDirectionDesc
		switch order.Field {
		case domain.PropertySortFieldAddress:
			compare = func(a, b propertyEntry) int { return strings.Compare(a.property.Address, b.property.Address) }
		case domain.PropertySortFieldPrice:
			compare = func(a, b propertyEntry) int { return a.property.Price.Cmp(b.property.Price) }
		case domain.PropertySortFieldSize:
			compare = func(a, b propertyEntry) int { return compareFloat(a.property.Size, b.property.Size) }
		case domain.PropertySortFieldCreatedAt:
			compare = func(a, b propertyEntry) int { return a.property.CreatedAt.Compare(b.property.CreatedAt) }
		case domain.PropertySortFieldID:
			compare = func(a, b propertyEntry) int { return bytes.Compare(a.property.ID[:], b.property.ID[:]) }
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		c := compare(entries[i], entries[j])
		if desc {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
		return entries[i].seq < entries[j].seq
	})
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
