package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"go-product-api/internal/model"
	"go-product-api/internal/token"
	"go-product-api/pkg/apierror"
)

type mockUserStore struct {
	mock.Mock
}

func (m *mockUserStore) Create(ctx context.Context, u model.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *mockUserStore) FindByID(ctx context.Context, id string) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *mockUserStore) FindByEmail(ctx context.Context, email string) (model.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *mockUserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

type mockRevocationStore struct {
	mock.Mock
}

func (m *mockRevocationStore) Revoke(ctx context.Context, raw string, userID string, expiresAt time.Time) error {
	args := m.Called(ctx, raw, userID, expiresAt)
	return args.Error(0)
}

func (m *mockRevocationStore) IsRevoked(ctx context.Context, raw string) (bool, error) {
	args := m.Called(ctx, raw)
	return args.Bool(0), args.Error(1)
}

func newTestCodec(t *testing.T) *token.Codec {
	t.Helper()
	codec, err := token.NewCodec("test-secret", time.Hour)
	require.NoError(t, err)
	return codec
}

func TestAccountService_Register(t *testing.T) {
	t.Run("success hashes password and persists", func(t *testing.T) {
		users := new(mockUserStore)
		revoked := new(mockRevocationStore)
		svc := NewAccountService(newTestCodec(t), users, revoked)

		users.On("ExistsByEmail", mock.Anything, "a@x.com").Return(false, nil)
		users.On("Create", mock.Anything, mock.AnythingOfType("model.User")).Return(nil)

		user, err := svc.Register(context.Background(), model.RegisterRequest{
			Name:            "A",
			Email:           "a@x.com",
			Password:        "abcd",
			ConfirmPassword: "abcd",
		})

		require.NoError(t, err)
		assert.NotEmpty(t, user.ID)
		assert.Equal(t, "A", user.Name)
		assert.Equal(t, "a@x.com", user.Email)
		assert.NotEqual(t, "abcd", user.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("abcd")))

		users.AssertExpectations(t)
	})

	t.Run("reports every violated rule", func(t *testing.T) {
		users := new(mockUserStore)
		revoked := new(mockRevocationStore)
		svc := NewAccountService(newTestCodec(t), users, revoked)

		_, err := svc.Register(context.Background(), model.RegisterRequest{})

		var vErr *apierror.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, http.StatusUnauthorized, vErr.HTTPStatus)
		assert.Contains(t, vErr.Fields, "name")
		assert.Contains(t, vErr.Fields, "email")
		assert.Contains(t, vErr.Fields, "password")
		assert.Contains(t, vErr.Fields, "confirm_password")

		users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("password confirmation mismatch", func(t *testing.T) {
		users := new(mockUserStore)
		revoked := new(mockRevocationStore)
		svc := NewAccountService(newTestCodec(t), users, revoked)

		users.On("ExistsByEmail", mock.Anything, "a@x.com").Return(false, nil)

		_, err := svc.Register(context.Background(), model.RegisterRequest{
			Name:            "A",
			Email:           "a@x.com",
			Password:        "abcd",
			ConfirmPassword: "efgh",
		})

		var vErr *apierror.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Contains(t, vErr.Fields, "confirm_password")

		users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("duplicate email", func(t *testing.T) {
		users := new(mockUserStore)
		revoked := new(mockRevocationStore)
		svc := NewAccountService(newTestCodec(t), users, revoked)

		users.On("ExistsByEmail", mock.Anything, "taken@x.com").Return(true, nil)

		_, err := svc.Register(context.Background(), model.RegisterRequest{
			Name:            "A",
			Email:           "taken@x.com",
			Password:        "abcd",
			ConfirmPassword: "abcd",
		})

		var vErr *apierror.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Contains(t, vErr.Fields, "email")

		users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("password length bounds", func(t *testing.T) {
		users := new(mockUserStore)
		revoked := new(mockRevocationStore)
		svc := NewAccountService(newTestCodec(t), users, revoked)

		users.On("ExistsByEmail", mock.Anything, "a@x.com").Return(false, nil)

		_, err := svc.Register(context.Background(), model.RegisterRequest{
			Name:            "A",
			Email:           "a@x.com",
			Password:        "abc",
			ConfirmPassword: "abc",
		})

		var vErr *apierror.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Contains(t, vErr.Fields, "password")
	})
}

func TestAccountService_Login(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("abcd"), bcrypt.MinCost)
	require.NoError(t, err)
	stored := model.User{ID: "user-1", Name: "A", Email: "a@x.com", PasswordHash: string(hash)}

	t.Run("success mints verifiable token", func(t *testing.T) {
		users := new(mockUserStore)
		revoked := new(mockRevocationStore)
		codec := newTestCodec(t)
		svc := NewAccountService(codec, users, revoked)

		users.On("FindByEmail", mock.Anything, "a@x.com").Return(stored, nil)

		signed, err := svc.Login(context.Background(), model.LoginRequest{Email: "a@x.com", Password: "abcd"})
		require.NoError(t, err)

		claims, err := codec.Verify(signed)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.UserID)
	})

	t.Run("unknown email and wrong password are indistinguishable", func(t *testing.T) {
		users := new(mockUserStore)
		revoked := new(mockRevocationStore)
		svc := NewAccountService(newTestCodec(t), users, revoked)

		users.On("FindByEmail", mock.Anything, "nobody@x.com").Return(model.User{}, model.ErrUserNotFound)
		users.On("FindByEmail", mock.Anything, "a@x.com").Return(stored, nil)

		_, unknownErr := svc.Login(context.Background(), model.LoginRequest{Email: "nobody@x.com", Password: "abcd"})
		_, wrongErr := svc.Login(context.Background(), model.LoginRequest{Email: "a@x.com", Password: "wrong"})

		require.Error(t, unknownErr)
		require.Error(t, wrongErr)
		assert.Equal(t, unknownErr.Error(), wrongErr.Error())

		var apiErr *apierror.APIError
		require.ErrorAs(t, unknownErr, &apiErr)
		assert.Equal(t, http.StatusUnauthorized, apiErr.HTTPStatus)
	})

	t.Run("rejects malformed login payload", func(t *testing.T) {
		users := new(mockUserStore)
		revoked := new(mockRevocationStore)
		svc := NewAccountService(newTestCodec(t), users, revoked)

		_, err := svc.Login(context.Background(), model.LoginRequest{Email: "not-an-email", Password: ""})

		var vErr *apierror.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Contains(t, vErr.Fields, "email")
		assert.Contains(t, vErr.Fields, "password")

		users.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
	})
}

func TestAccountService_Resolve(t *testing.T) {
	t.Run("missing or malformed header", func(t *testing.T) {
		svc := NewAccountService(newTestCodec(t), new(mockUserStore), new(mockRevocationStore))

		for _, header := range []string{"", "Basic abc", "Bearer", "Bearer   "} {
			_, err := svc.Resolve(context.Background(), header)
			assert.ErrorIs(t, err, model.ErrMissingCredential, "header %q", header)
		}
	})

	t.Run("valid token yields principal", func(t *testing.T) {
		codec := newTestCodec(t)
		revoked := new(mockRevocationStore)
		svc := NewAccountService(codec, new(mockUserStore), revoked)

		signed, err := codec.Issue("user-1")
		require.NoError(t, err)
		revoked.On("IsRevoked", mock.Anything, signed).Return(false, nil)

		principal, err := svc.Resolve(context.Background(), "Bearer "+signed)
		require.NoError(t, err)
		assert.Equal(t, "user-1", principal.UserID)
		assert.Equal(t, signed, principal.RawToken)
		assert.True(t, principal.ExpiresAt.After(time.Now()))
	})

	t.Run("revoked token is rejected", func(t *testing.T) {
		codec := newTestCodec(t)
		revoked := new(mockRevocationStore)
		svc := NewAccountService(codec, new(mockUserStore), revoked)

		signed, err := codec.Issue("user-1")
		require.NoError(t, err)
		revoked.On("IsRevoked", mock.Anything, signed).Return(true, nil)

		_, err = svc.Resolve(context.Background(), "Bearer "+signed)
		assert.ErrorIs(t, err, model.ErrTokenRevoked)
	})

	t.Run("codec failures pass through", func(t *testing.T) {
		svc := NewAccountService(newTestCodec(t), new(mockUserStore), new(mockRevocationStore))

		_, err := svc.Resolve(context.Background(), "Bearer not-a-token")
		assert.ErrorIs(t, err, token.ErrMalformedToken)
	})
}

func TestAccountService_Logout(t *testing.T) {
	principal := model.Principal{UserID: "user-1", RawToken: "raw", ExpiresAt: time.Now().Add(time.Hour)}

	t.Run("revokes the presented token", func(t *testing.T) {
		revoked := new(mockRevocationStore)
		svc := NewAccountService(newTestCodec(t), new(mockUserStore), revoked)

		revoked.On("Revoke", mock.Anything, "raw", "user-1", principal.ExpiresAt).Return(nil)

		require.NoError(t, svc.Logout(context.Background(), principal))
		revoked.AssertExpectations(t)
	})

	t.Run("store failure surfaces as server error", func(t *testing.T) {
		revoked := new(mockRevocationStore)
		svc := NewAccountService(newTestCodec(t), new(mockUserStore), revoked)

		revoked.On("Revoke", mock.Anything, "raw", "user-1", principal.ExpiresAt).Return(assert.AnError)

		err := svc.Logout(context.Background(), principal)
		var apiErr *apierror.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusInternalServerError, apiErr.HTTPStatus)
	})
}

func TestAccountService_CurrentUser(t *testing.T) {
	t.Run("vanished subject is unauthorized", func(t *testing.T) {
		users := new(mockUserStore)
		svc := NewAccountService(newTestCodec(t), users, new(mockRevocationStore))

		users.On("FindByID", mock.Anything, "ghost").Return(model.User{}, model.ErrUserNotFound)

		_, err := svc.CurrentUser(context.Background(), model.Principal{UserID: "ghost"})
		var apiErr *apierror.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusUnauthorized, apiErr.HTTPStatus)
	})
}
