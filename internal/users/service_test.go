package users_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geocoder89/usersapi/internal/domain/user"
	"github.com/geocoder89/usersapi/internal/repo/memory"
	"github.com/geocoder89/usersapi/internal/users"
)

func newService(t *testing.T) (*users.Service, *memory.UsersRepo) {
	t.Helper()

	repo := memory.NewUsersRepo()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	return users.NewService(repo, user.NewValidator(), log), repo
}

func intPtr(v int) *int { return &v }

func TestService_CreateThenListAll(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, user.CreateUserRequest{Name: "Al", Email: "a@b.com", Age: intPtr(33)})
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.False(t, created.UpdatedAt.IsZero())
	assert.Equal(t, []string{}, created.FavoriteFoods)

	list, err := svc.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created, list[0])
}

func TestService_ListAllEmptyIsNotNil(t *testing.T) {
	svc, _ := newService(t)

	list, err := svc.ListAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestService_CreateDuplicateEmailIgnoresCase(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, user.CreateUserRequest{Name: "First", Email: "dup@example.com"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, user.CreateUserRequest{Name: "Second", Email: "  DUP@Example.COM"})
	require.ErrorIs(t, err, user.ErrDuplicateKey)

	var verr *user.ValidationError
	assert.False(t, errors.As(err, &verr), "duplicate key must not look like a field validation error")
}

func TestService_CreateValidation(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		req   user.CreateUserRequest
		field string
	}{
		{name: "short_name", req: user.CreateUserRequest{Name: "A", Email: "a@b.com"}, field: "name"},
		{name: "bad_email", req: user.CreateUserRequest{Name: "Al", Email: "not-an-email"}, field: "email"},
		{name: "age_range", req: user.CreateUserRequest{Name: "Al", Email: "a@b.com", Age: intPtr(121)}, field: "age"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.req)

			var verr *user.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.True(t, verr.Has(tt.field), "expected %s in %v", tt.field, verr)
		})
	}

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list, "invalid candidates must not be persisted")
}

func TestService_UpdateUnknownID(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()

	_, err := svc.UpdateByID(ctx, "does-not-exist", user.UpdateUserRequest{Age: intPtr(20)})
	require.ErrorIs(t, err, user.ErrNotFound)

	// an invalid payload on an unknown id is still a not-found
	_, err = svc.UpdateByID(ctx, "does-not-exist", user.UpdateUserRequest{Age: intPtr(999)})
	require.ErrorIs(t, err, user.ErrNotFound)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestService_UpdateInvalidLeavesRecordUnchanged(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, user.CreateUserRequest{Name: "Al", Email: "a@b.com", Age: intPtr(40)})
	require.NoError(t, err)

	_, err = svc.UpdateByID(ctx, created.ID, user.UpdateUserRequest{Age: intPtr(200)})
	var verr *user.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("age"))

	stored, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, stored)
}

func TestService_UpdateAppliesSuppliedFields(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, user.CreateUserRequest{
		Name:          "Al",
		Email:         "a@b.com",
		FavoriteFoods: []string{"pizza", "tacos"},
	})
	require.NoError(t, err)

	name := "  Albert "
	foods := []string{"sushi"}
	updated, err := svc.UpdateByID(ctx, created.ID, user.UpdateUserRequest{Name: &name, FavoriteFoods: &foods})
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Albert", updated.Name)
	assert.Equal(t, "a@b.com", updated.Email)
	assert.Equal(t, []string{"sushi"}, updated.FavoriteFoods)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))
}

func TestService_DeleteTwice(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, user.CreateUserRequest{Name: "Al", Email: "a@b.com"})
	require.NoError(t, err)

	removed, err := svc.DeleteByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, removed)

	_, err = svc.DeleteByID(ctx, created.ID)
	require.ErrorIs(t, err, user.ErrNotFound)

	list, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

type downStore struct{ *memory.UsersRepo }

func (downStore) List(context.Context) ([]user.User, error) { return nil, user.ErrStoreUnavailable }

func (downStore) Ping(context.Context) error { return errors.New("dial tcp: connection refused") }

func TestService_StoreUnavailable(t *testing.T) {
	svc := users.NewService(downStore{memory.NewUsersRepo()}, user.NewValidator(), nil)

	_, err := svc.ListAll(context.Background())
	require.ErrorIs(t, err, user.ErrStoreUnavailable)

	err = svc.Ping(context.Background())
	require.ErrorIs(t, err, user.ErrStoreUnavailable)
}
