package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"user-api/internal/domain"
	"user-api/internal/repository"
)

var (
	// ErrUserNotFound indicates that no user exists for the given id.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when another user already owns the email.
	ErrEmailTaken = errors.New("user with this email already exists")
	// ErrUsernameTaken is returned when another user already owns the username.
	ErrUsernameTaken = errors.New("user with this username already exists")
)

// ValidationError reports a missing required field.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return e.Field + " is required"
}

// Clock returns the current time. Tests replace it to get exact timestamps.
type Clock func() time.Time

// SystemClock is the default Clock: UTC, truncated to the microsecond precision
// the store and the JSON representation carry.
func SystemClock() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// UserInput carries the writable fields of a user.
type UserInput struct {
	Name     string
	Email    string
	Username string
}

// UserService describes user lifecycle operations.
type UserService interface {
	Create(ctx context.Context, in UserInput) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Get(ctx context.Context, id int64) (*domain.User, error)
	Update(ctx context.Context, id int64, in UserInput) (*domain.User, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}

// Option customises a UserService.
type Option func(*userService)

// WithClock overrides the time source used for created_at/updated_at.
func WithClock(clock Clock) Option {
	return func(s *userService) {
		if clock != nil {
			s.now = clock
		}
	}
}

type userService struct {
	users repository.UserRepository
	now   Clock
}

func NewUserService(users repository.UserRepository, opts ...Option) UserService {
	s := &userService{
		users: users,
		now:   SystemClock,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *userService) Create(ctx context.Context, in UserInput) (*domain.User, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	if err := s.ensureFree(ctx, repository.FieldEmail, in.Email, ErrEmailTaken); err != nil {
		return nil, err
	}
	if err := s.ensureFree(ctx, repository.FieldUsername, in.Username, ErrUsernameTaken); err != nil {
		return nil, err
	}

	now := s.now()
	user := &domain.User{
		Name:      in.Name,
		Email:     in.Email,
		Username:  in.Username,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// the pre-checks can race with a concurrent create; the UNIQUE constraints settle it
	if _, err := s.users.Insert(ctx, user); err != nil {
		return nil, translateRepoError(err)
	}
	return user, nil
}

func (s *userService) List(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

func (s *userService) Get(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(err)
	}
	return user, nil
}

// Update resolves the user before looking at the input, so an unknown id is
// always ErrUserNotFound.
func (s *userService) Update(ctx context.Context, id int64, in UserInput) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(err)
	}

	if err := validateInput(in); err != nil {
		return nil, err
	}

	user.Name = in.Name
	user.Email = in.Email
	user.Username = in.Username
	user.UpdatedAt = s.now()

	if err := s.users.Update(ctx, user); err != nil {
		return nil, translateRepoError(err)
	}
	return user, nil
}

func (s *userService) Delete(ctx context.Context, id int64) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return translateRepoError(err)
	}
	return nil
}

// Count reports the number of stored users. It fails when the store is unreachable.
func (s *userService) Count(ctx context.Context) (int64, error) {
	if err := s.users.Ping(ctx); err != nil {
		return 0, fmt.Errorf("ping store: %w", err)
	}
	return s.users.Count(ctx)
}

func (s *userService) ensureFree(ctx context.Context, field, value string, taken error) error {
	_, err := s.users.FindByField(ctx, field, value)
	switch {
	case err == nil:
		return taken
	case errors.Is(err, repository.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("check %s: %w", field, err)
	}
}

// validateInput only checks presence. Values are stored exactly as sent.
func validateInput(in UserInput) error {
	switch {
	case blank(in.Name):
		return &ValidationError{Field: "name"}
	case blank(in.Email):
		return &ValidationError{Field: "email"}
	case blank(in.Username):
		return &ValidationError{Field: "username"}
	}
	return nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func translateRepoError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrUserNotFound
	case errors.Is(err, repository.ErrDuplicateEmail):
		return ErrEmailTaken
	case errors.Is(err, repository.ErrDuplicateUsername):
		return ErrUsernameTaken
	}
	return err
}
