package repository

import (
	"context"
	"errors"

	"user-api/internal/domain"
)

var (
	// ErrNotFound is returned when no user matches the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when the email is already stored for another user.
	ErrDuplicateEmail = errors.New("duplicate email")
	// ErrDuplicateUsername is returned when the username is already stored for another user.
	ErrDuplicateUsername = errors.New("duplicate username")
	// ErrUnknownField is returned by FindByField for columns that cannot be queried.
	ErrUnknownField = errors.New("unknown user field")
)

// Lookup fields accepted by FindByField.
const (
	FieldName     = "name"
	FieldEmail    = "email"
	FieldUsername = "username"
)

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	Init(ctx context.Context) error
	FindByField(ctx context.Context, field, value string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Count(ctx context.Context) (int64, error)
	Insert(ctx context.Context, user *domain.User) (int64, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
}
