package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rpattn/propertyapi/internal/db"
	"github.com/rpattn/propertyapi/internal/domain"
	"github.com/rpattn/propertyapi/internal/query"
)

const propertyColumns = "id, address, price, size, description, created_at, updated_at"

var sortColumns = map[domain.PropertySortField]string{
	domain.PropertySortFieldID:        "id",
	domain.PropertySortFieldAddress:   "address",
	domain.PropertySortFieldPrice:     "price",
	domain.PropertySortFieldSize:      "size",
	domain.PropertySortFieldCreatedAt: "created_at",
}

// propertyRepository implements PropertyRepository on Postgres
type propertyRepository struct {
	db db.DBTX
}

// NewPropertyRepository creates a new property repository
func NewPropertyRepository(conn db.DBTX) PropertyRepository {
	return &propertyRepository{db: conn}
}

// Create inserts a property; the id is assigned by the database.
func (r *propertyRepository) Create(ctx context.Context, input domain.PropertyInput) (domain.Property, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO properties (address, price, size, description)
		VALUES ($1, $2, $3, $4)
		RETURNING `+propertyColumns,
		input.Address, input.Price, input.Size, input.Description,
	)

	property, err := scanProperty(row)
	if err != nil {
		return domain.Property{}, translateError("failed to create property", err)
	}
	return property, nil
}

// GetByID retrieves a property by ID
func (r *propertyRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Property, error) {
	row := r.db.QueryRow(ctx, `SELECT `+propertyColumns+` FROM properties WHERE id = $1`, id)

	property, err := scanProperty(row)
	if err != nil {
		return domain.Property{}, translateError("failed to get property", err)
	}
	return property, nil
}

// Update replaces every mutable field in a single statement.
func (r *propertyRepository) Update(ctx context.Context, id uuid.UUID, input domain.PropertyInput) (domain.Property, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE properties
		SET address = $2, price = $3, size = $4, description = $5, updated_at = now()
		WHERE id = $1
		RETURNING `+propertyColumns,
		id, input.Address, input.Price, input.Size, input.Description,
	)

	property, err := scanProperty(row)
	if err != nil {
		return domain.Property{}, translateError("failed to update property", err)
	}
	return property, nil
}

// Delete removes a property permanently
func (r *propertyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM properties WHERE id = $1`, id)
	if err != nil {
		return translateError("failed to delete property", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to delete property: %w", domain.ErrNotFound)
	}
	return nil
}

// List retrieves a page of properties without filtering
func (r *propertyRepository) List(ctx context.Context, page domain.PageRequest) (domain.Page[domain.Property], error) {
	return r.fetchPage(ctx, "", nil, page)
}

// Search retrieves a page of properties matching the predicate
func (r *propertyRepository) Search(ctx context.Context, predicate query.Predicate, page domain.PageRequest) (domain.Page[domain.Property], error) {
	if predicate.IsZero() {
		return r.List(ctx, page)
	}
	where, args := query.ToSQL(predicate, 1)
	return r.fetchPage(ctx, "WHERE "+where, args, page)
}

func (r *propertyRepository) fetchPage(ctx context.Context, whereClause string, args []any, page domain.PageRequest) (domain.Page[domain.Property], error) {
	limitArg := len(args) + 1
	sql := fmt.Sprintf(
		`SELECT %s, COUNT(*) OVER() AS total_count FROM properties %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		propertyColumns, whereClause, orderBy(page.Sort), limitArg, limitArg+1,
	)
	queryArgs := append(append([]any{}, args...), page.Size, page.Offset())

	rows, err := r.db.Query(ctx, sql, queryArgs...)
	if err != nil {
		return domain.Page[domain.Property]{}, translateError("failed to list properties", err)
	}
	defer rows.Close()

	var (
		items      []domain.Property
		totalCount int64
	)
	for rows.Next() {
		var p domain.Property
		if err := rows.Scan(&p.ID, &p.Address, &p.Price, &p.Size, &p.Description, &p.CreatedAt, &p.UpdatedAt, &totalCount); err != nil {
			return domain.Page[domain.Property]{}, fmt.Errorf("failed to scan property: %w", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return domain.Page[domain.Property]{}, translateError("failed to list properties", err)
	}

	// A page past the end returns no rows, so the window count is unavailable.
	if len(items) == 0 && page.Offset() > 0 {
		countSQL := fmt.Sprintf(`SELECT COUNT(*) FROM properties %s`, whereClause)
		if err := r.db.QueryRow(ctx, countSQL, args...).Scan(&totalCount); err != nil {
			return domain.Page[domain.Property]{}, translateError("failed to count properties", err)
		}
	}

	return domain.NewPage(items, totalCount, page), nil
}

// defaultOrder lists properties in creation order.
const defaultOrder = "created_at ASC, id ASC"

func orderBy(sort *domain.PropertySort) string {
	if sort == nil {
		return defaultOrder
	}
	col, ok := sortColumns[sort.Field]
	if !ok {
		return defaultOrder
	}
	dir := "ASC"
	if sort.Direction == domain.SortDirectionDesc {
		dir = "DESC"
	}
	if col == "id" {
		return "id " + dir
	}
	return col + " " + dir + ", id ASC"
}

func scanProperty(row pgx.Row) (domain.Property, error) {
	var p domain.Property
	err := row.Scan(&p.ID, &p.Address, &p.Price, &p.Size, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Property{}, err
	}
	return p, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
