package memory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpattn/propertyapi/internal/domain"
	"github.com/rpattn/propertyapi/internal/query"
)

func input(address, price string, size float64) domain.PropertyInput {
	return domain.PropertyInput{Address: address, Price: decimal.RequireFromString(price), Size: size}
}

func TestPropertyRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewPropertyRepository()

	desc := "Corner lot"
	in := input("123 Main St", "200000", 1200)
	in.Description = &desc

	created, err := repo.Create(ctx, in)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	updated, err := repo.Update(ctx, created.ID, input("9 New Rd", "1.50", 3))
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "9 New Rd", updated.Address)
	assert.Nil(t, updated.Description)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	require.NoError(t, repo.Delete(ctx, created.ID))
	_, err = repo.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, created.ID), domain.ErrNotFound)
}

func TestPropertyRepository_UpdateMissingLeavesStoreUnchanged(t *testing.T) {
	ctx := context.Background()
	repo := NewPropertyRepository()
	existing, err := repo.Create(ctx, input("1 A St", "10", 1))
	require.NoError(t, err)

	_, err = repo.Update(ctx, uuid.New(), input("2 B St", "20", 2))
	require.ErrorIs(t, err, domain.ErrNotFound)

	assert.Equal(t, 1, repo.Len())
	got, err := repo.GetByID(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, existing, got)
}

func TestPropertyRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewPropertyRepository()
	desc := "original"
	in := input("1 A St", "10", 1)
	in.Description = &desc

	created, err := repo.Create(ctx, in)
	require.NoError(t, err)
	*created.Description = "mutated"
	desc = "mutated too"

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", *got.Description)
}

func TestPropertyRepository_Pagination(t *testing.T) {
	ctx := context.Background()
	repo := NewPropertyRepository()
	for i := 0; i < 23; i++ {
		_, err := repo.Create(ctx, input(fmt.Sprintf("%d Elm St", i), "100", 10))
		require.NoError(t, err)
	}

	first, err := repo.List(ctx, domain.PageRequest{Page: 0, Size: 10})
	require.NoError(t, err)
	assert.Len(t, first.Items, 10)
	assert.EqualValues(t, 23, first.TotalCount)
	assert.Equal(t, 3, first.TotalPages)
	assert.Equal(t, "0 Elm St", first.Items[0].Address)

	last, err := repo.List(ctx, domain.PageRequest{Page: 2, Size: 10})
	require.NoError(t, err)
	assert.Len(t, last.Items, 3)
	assert.Equal(t, "22 Elm St", last.Items[2].Address)

	beyond, err := repo.List(ctx, domain.PageRequest{Page: 9, Size: 10})
	require.NoError(t, err)
	assert.Empty(t, beyond.Items)
	assert.NotNil(t, beyond.Items)
	assert.EqualValues(t, 23, beyond.TotalCount)

	for _, req := range []domain.PageRequest{
		{Page: math.MaxInt / 10, Size: 10},
		{Page: math.MaxInt, Size: 100},
		{Page: 922337203685477581, Size: 10},
	} {
		far, err := repo.List(ctx, req)
		require.NoError(t, err)
		assert.Empty(t, far.Items)
		assert.EqualValues(t, 23, far.TotalCount)
	}
}

func TestPropertyRepository_SearchSorted(t *testing.T) {
	ctx := context.Background()
	repo := NewPropertyRepository()
	for _, in := range []domain.PropertyInput{
		input("C St", "300", 30),
		input("A St", "100", 10),
		input("B St", "200", 20),
		input("Far Rd", "50", 5),
	} {
		_, err := repo.Create(ctx, in)
		require.NoError(t, err)
	}

	page, err := repo.Search(ctx, query.AddressContains(" st"), domain.PageRequest{
		Size: 10,
		Sort: &domain.PropertySort{Field: domain.PropertySortFieldPrice, Direction: domain.SortDirectionDesc},
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.EqualValues(t, 3, page.TotalCount)
	assert.Equal(t, []string{"C St", "B St", "A St"}, addresses(page.Items))

	page, err = repo.Search(ctx, query.Predicate{}, domain.PageRequest{
		Size: 10,
		Sort: &domain.PropertySort{Field: domain.PropertySortFieldAddress, Direction: domain.SortDirectionAsc},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"A St", "B St", "C St", "Far Rd"}, addresses(page.Items))
}

func TestPropertyRepository_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewPropertyRepository().List(ctx, domain.PageRequest{Size: 10})
	assert.True(t, errors.Is(err, context.Canceled))
}

func addresses(items []domain.Property) []string {
	out := make([]string, len(items))
	for i, p := range items {
		out[i] = p.Address
	}
	return out
}
