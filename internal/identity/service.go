// Package identity manages administrative users and the default admin
// created at startup.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/rpattn/propertyapi/internal/domain"
	"github.com/rpattn/propertyapi/internal/repository"
)

// Account describes a user to create.
type Account struct {
	Username string
	Password string
	Role     string
}

// Service hashes secrets and stores users.
type Service struct {
	users  repository.UserRepository
	cost   int
	logger *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithCost sets the bcrypt cost. Tests use bcrypt.MinCost.
func WithCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

// NewService creates an identity service.
func NewService(users repository.UserRepository, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{users: users, cost: bcrypt.DefaultCost, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureDefaultAdmin creates the account unless a user with that name
// already exists. It reports whether a user was created.
func (s *Service) EnsureDefaultAdmin(ctx context.Context, account Account) (bool, error) {
	_, err := s.FindByUsername(ctx, account.Username)
	switch {
	case err == nil:
		s.logger.Debug("default admin already present", zap.String("username", account.Username))
		return false, nil
	case !errors.Is(err, domain.ErrNotFound):
		return false, err
	}

	if account.Role == "" {
		account.Role = domain.RoleAdmin
	}
	if _, err := s.Save(ctx, account); err != nil {
		// Another instance won the race.
		if errors.Is(err, domain.ErrIntegrity) {
			return false, nil
		}
		return false, fmt.Errorf("bootstrap admin: %w", err)
	}

	s.logger.Info("default admin created", zap.String("username", account.Username))
	return true, nil
}

// Save hashes the password and stores a new enabled user.
func (s *Service) Save(ctx context.Context, account Account) (domain.User, error) {
	fields := map[string]string{}
	username := strings.TrimSpace(account.Username)
	if username == "" {
		fields["username"] = "Username is required"
	}
	if account.Password == "" {
		fields["password"] = "Password is required"
	}
	role := strings.ToUpper(strings.TrimSpace(account.Role))
	if role != domain.RoleAdmin && role != domain.RoleUser {
		fields["role"] = "Role must be ADMIN or USER"
	}
	if len(fields) > 0 {
		return domain.User{}, &domain.ValidationError{Fields: fields}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(account.Password), s.cost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, domain.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		Enabled:      true,
	})
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// FindByUsername returns the user or domain.ErrNotFound.
func (s *Service) FindByUsername(ctx context.Context, username string) (domain.User, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// Authenticate checks a username/password pair. Unknown users, disabled
// users and wrong passwords all yield domain.ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (domain.User, error) {
	user, err := s.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, domain.ErrInvalidCredentials
		}
		return domain.User{}, err
	}
	if !user.Enabled {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	return user, nil
}
