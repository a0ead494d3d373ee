package repository

import (
	"context"

	"github.com/rpattn/propertyapi/internal/db"
	"github.com/rpattn/propertyapi/internal/domain"
)

// userRepository implements UserRepository on Postgres
type userRepository struct {
	db db.DBTX
}

// NewUserRepository creates a new user repository
func NewUserRepository(conn db.DBTX) UserRepository {
	return &userRepository{db: conn}
}

// Create inserts a user. A duplicate username is an integrity violation.
func (r *userRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO users (username, password_hash, role, enabled)
		VALUES ($1, $2, $3, $4)
		RETURNING id, username, password_hash, role, enabled, created_at`,
		user.Username, user.PasswordHash, user.Role, user.Enabled,
	)

	var created domain.User
	if err := row.Scan(&created.ID, &created.Username, &created.PasswordHash, &created.Role, &created.Enabled, &created.CreatedAt); err != nil {
		return domain.User{}, translateError("failed to create user", err)
	}
	return created, nil
}

// GetByUsername retrieves a user by username
func (r *userRepository) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, username, password_hash, role, enabled, created_at
		FROM users WHERE username = $1`, username)

	var user domain.User
	if err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Role, &user.Enabled, &user.CreatedAt); err != nil {
		return domain.User{}, translateError("failed to get user by username", err)
	}
	return user, nil
}
