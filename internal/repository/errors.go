package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rpattn/propertyapi/internal/domain"
)

const (
	// Integrity constraint violations share SQLSTATE class 23.
	integrityClass = "23"
	// numeric_value_out_of_range and string_data_right_truncation are
	// client-correctable too: the row does not fit the column.
	numericOutOfRange    = "22003"
	stringDataTruncation = "22001"
)

// translateError maps driver errors onto the domain taxonomy. Unknown errors
// are wrapped unchanged.
func translateError(op string, err error) error {
	if isNoRows(err) {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if strings.HasPrefix(pgErr.Code, integrityClass) || pgErr.Code == numericOutOfRange || pgErr.Code == stringDataTruncation {
			return fmt.Errorf("%s: %w", op, &domain.IntegrityError{
				Constraint: pgErr.ConstraintName,
				Detail:     pgErr.Message,
				Err:        err,
			})
		}
	}

	return fmt.Errorf("%s: %w", op, err)
}
