package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sqlite3 "modernc.org/sqlite/lib"

	"user-api/internal/domain"
	"user-api/internal/repository"
)

func newTestRepository(t *testing.T) repository.UserRepository {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "nested", "users.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := NewUserRepository(db)
	require.NoError(t, repo.Init(context.Background()))
	return repo
}

func newUser(name, email, username string, at time.Time) *domain.User {
	return &domain.User{
		Name:      name,
		Email:     email,
		Username:  username,
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func TestUserRepository_InitIsIdempotent(t *testing.T) {
	repo := newTestRepository(t)
	require.NoError(t, repo.Init(context.Background()))
	require.NoError(t, repo.Ping(context.Background()))
}

func TestUserRepository_InsertAndFind(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	at := time.Date(2024, 3, 1, 10, 30, 0, 123456000, time.UTC)

	user := newUser("Ann", "a@x.com", "ann", at)
	id, err := repo.Insert(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	assert.Equal(t, id, user.ID)

	got, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Ann", got.Name)
	assert.Equal(t, "a@x.com", got.Email)
	assert.Equal(t, "ann", got.Username)
	assert.True(t, at.Equal(got.CreatedAt), "created_at %s", got.CreatedAt)
	assert.True(t, at.Equal(got.UpdatedAt), "updated_at %s", got.UpdatedAt)

	byEmail, err := repo.FindByField(ctx, repository.FieldEmail, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, id, byEmail.ID)

	byUsername, err := repo.FindByField(ctx, repository.FieldUsername, "ann")
	require.NoError(t, err)
	assert.Equal(t, id, byUsername.ID)

	_, err = repo.FindByField(ctx, repository.FieldEmail, "nobody@x.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepository_FindByFieldRejectsUnknownColumn(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.FindByField(context.Background(), "id; DROP TABLE users", "1")
	assert.ErrorIs(t, err, repository.ErrUnknownField)
}

func TestUserRepository_UniqueConstraints(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	now := time.Now().UTC()

	_, err := repo.Insert(ctx, newUser("Ann", "a@x.com", "ann", now))
	require.NoError(t, err)

	_, err = repo.Insert(ctx, newUser("Other", "a@x.com", "other", now))
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)

	_, err = repo.Insert(ctx, newUser("Other", "o@x.com", "ann", now))
	assert.ErrorIs(t, err, repository.ErrDuplicateUsername)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestUserRepository_Update(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	ann := newUser("Ann", "a@x.com", "ann", created)
	_, err := repo.Insert(ctx, ann)
	require.NoError(t, err)
	bob := newUser("Bob", "b@x.com", "bob", created)
	_, err = repo.Insert(ctx, bob)
	require.NoError(t, err)

	updated := created.Add(time.Hour)
	ann.Name = "Ann B."
	ann.Username = "annb"
	ann.UpdatedAt = updated
	require.NoError(t, repo.Update(ctx, ann))

	got, err := repo.FindByID(ctx, ann.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ann B.", got.Name)
	assert.Equal(t, "annb", got.Username)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.True(t, updated.Equal(got.UpdatedAt))

	ann.Email = "b@x.com"
	assert.ErrorIs(t, repo.Update(ctx, ann), repository.ErrDuplicateEmail)

	ann.Email = "a@x.com"
	ann.Username = "bob"
	assert.ErrorIs(t, repo.Update(ctx, ann), repository.ErrDuplicateUsername)

	missing := newUser("Ghost", "g@x.com", "ghost", created)
	missing.ID = 99
	assert.ErrorIs(t, repo.Update(ctx, missing), repository.ErrNotFound)
}

func TestUserRepository_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	now := time.Now().UTC()

	users, err := repo.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)

	first := newUser("Ann", "a@x.com", "ann", now)
	_, err = repo.Insert(ctx, first)
	require.NoError(t, err)
	second := newUser("Bob", "b@x.com", "bob", now)
	_, err = repo.Insert(ctx, second)
	require.NoError(t, err)

	users, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, first.ID, users[0].ID)
	assert.Equal(t, second.ID, users[1].ID)

	require.NoError(t, repo.Delete(ctx, first.ID))
	assert.ErrorIs(t, repo.Delete(ctx, first.ID), repository.ErrNotFound)

	_, err = repo.FindByID(ctx, first.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// ids are never handed out twice
	third := newUser("Cat", "c@x.com", "cat", now)
	_, err = repo.Insert(ctx, third)
	require.NoError(t, err)
	assert.Greater(t, third.ID, second.ID)
}

func TestOpen_Memory(t *testing.T) {
	db, err := Open(MemoryPath)
	require.NoError(t, err)
	defer db.Close()

	repo := NewUserRepository(db)
	require.NoError(t, repo.Init(context.Background()))

	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDuplicateError_IgnoresOtherErrors(t *testing.T) {
	assert.Nil(t, duplicateError(errors.New("UNIQUE constraint failed: users.email")))
	assert.Nil(t, duplicateError(context.Canceled))

	assert.True(t, isUniqueViolation(sqlite3.SQLITE_CONSTRAINT_UNIQUE, "UNIQUE constraint failed: users.email"))
	assert.True(t, isUniqueViolation(sqlite3.SQLITE_CONSTRAINT, "UNIQUE constraint failed: users.email"))
	assert.False(t, isUniqueViolation(sqlite3.SQLITE_CONSTRAINT, "NOT NULL constraint failed: users.email"))
	assert.False(t, isUniqueViolation(sqlite3.SQLITE_CONSTRAINT_NOTNULL, "NOT NULL constraint failed: users.email"))
}
