package service

import (
	"context"
	"testing"

	"lpotracker/internal/apperr"
	"lpotracker/internal/auth"
	"lpotracker/internal/model"
	"lpotracker/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginIssuesVerifiableToken(t *testing.T) {
	f := newFixture(t)

	tok, err := f.users.Login(context.Background(), LoginRequest{Email: " Alice@Example.com", Password: "secret123"})
	require.NoError(t, err)

	session, err := f.tokens.Verify(tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, f.alice, session)
}

func TestLoginFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.users.Login(ctx, LoginRequest{Email: "alice@example.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	wrongPassword := apperr.Message(err)

	_, err = f.users.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	assert.Equal(t, wrongPassword, apperr.Message(err))

	_, err = f.users.Login(ctx, LoginRequest{Email: "alice@example.com"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestCreateUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.users.CreateUser(ctx, f.admin, CreateUserRequest{
		Name: "Carol", Email: "carol@example.com", Password: "hunter22", Role: model.RoleUser,
	})
	require.NoError(t, err)
	assert.Equal(t, "carol@example.com", created.Email)

	_, err = f.users.Login(ctx, LoginRequest{Email: "carol@example.com", Password: "hunter22"})
	assert.NoError(t, err)

	tests := []struct {
		name string
		req  CreateUserRequest
		kind error
	}{
		{"duplicate email", CreateUserRequest{Name: "C2", Email: "carol@example.com", Password: "hunter22", Role: "user"}, apperr.ErrConflict},
		{"bad email", CreateUserRequest{Name: "D", Email: "d-at-example", Password: "hunter22", Role: "user"}, apperr.ErrValidation},
		{"no dot", CreateUserRequest{Name: "D", Email: "d@example", Password: "hunter22", Role: "user"}, apperr.ErrValidation},
		{"short password", CreateUserRequest{Name: "D", Email: "d@example.com", Password: "123", Role: "user"}, apperr.ErrValidation},
		{"bad role", CreateUserRequest{Name: "D", Email: "d@example.com", Password: "hunter22", Role: "root"}, apperr.ErrValidation},
		{"blank name", CreateUserRequest{Name: " ", Email: "d@example.com", Password: "hunter22", Role: "user"}, apperr.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.users.CreateUser(ctx, f.admin, tt.req)
			assert.ErrorIs(t, err, tt.kind)
		})
	}

	_, err = f.users.CreateUser(ctx, f.alice, CreateUserRequest{Name: "E", Email: "e@example.com", Password: "hunter22", Role: "admin"})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestUpdateUserPartially(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	role := model.RoleAdmin

	updated, err := f.users.UpdateUser(ctx, f.admin, f.bob.UserID, UpdateUserRequest{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, "Bob", updated.Name)
	assert.Equal(t, model.RoleAdmin, updated.Role)

	taken := "alice@example.com"
	_, err = f.users.UpdateUser(ctx, f.admin, f.bob.UserID, UpdateUserRequest{Email: &taken})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = f.users.UpdateUser(ctx, f.admin, 404, UpdateUserRequest{})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.users.UpdateUser(ctx, f.bob, f.bob.UserID, UpdateUserRequest{Role: &role})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestResetPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.users.ResetPassword(ctx, f.admin, f.alice.UserID, ResetPasswordRequest{Password: "n3wpassword"}))
	_, err := f.users.Login(ctx, LoginRequest{Email: "alice@example.com", Password: "n3wpassword"})
	assert.NoError(t, err)

	assert.ErrorIs(t, f.users.ResetPassword(ctx, f.admin, f.alice.UserID, ResetPasswordRequest{}), apperr.ErrValidation)
	assert.ErrorIs(t, f.users.ResetPassword(ctx, f.admin, 404, ResetPasswordRequest{Password: "n3wpassword"}), apperr.ErrNotFound)
}

func TestListUsersAndMe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	users, total, err := f.users.ListUsers(ctx, f.admin, repository.Page{Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, users, 2)

	_, _, err = f.users.ListUsers(ctx, f.alice, repository.Page{})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	me, err := f.users.Me(ctx, f.alice)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", me.Email)

	_, err = f.users.Me(ctx, auth.Session{})
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestCatalogSortedByID(t *testing.T) {
	f := newFixture(t)

	products, err := f.catalog.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, ProductResponse{ID: f.paper.ID, Name: "A4 Paper", Price: "100.00"}, products[0])

	suppliers, err := f.catalog.ListSuppliers(context.Background())
	require.NoError(t, err)
	require.Len(t, suppliers, 1)
	assert.Equal(t, "sales@officemart.test", suppliers[0].ContactEmail)
}
