package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"go-product-api/internal/model"
	"go-product-api/internal/token"
	"go-product-api/pkg/apierror"
)

const (
	passwordMinLength = 4
	passwordMaxLength = 100
	bcryptCost        = 12
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type UserStore interface {
	Create(ctx context.Context, u model.User) error
	FindByID(ctx context.Context, id string) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

type RevocationStore interface {
	Revoke(ctx context.Context, token string, userID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

type AccountService struct {
	codec   *token.Codec
	users   UserStore
	revoked RevocationStore
}

func NewAccountService(codec *token.Codec, users UserStore, revoked RevocationStore) *AccountService {
	return &AccountService{codec: codec, users: users, revoked: revoked}
}

// Register validates every field, reporting all violated rules at once,
// then persists the new user with a bcrypt password hash.
func (s *AccountService) Register(ctx context.Context, req model.RegisterRequest) (model.User, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)

	vErr := apierror.NewValidation(http.StatusUnauthorized)
	if name == "" {
		vErr.Add("name", "The name field is required.")
	}
	validateEmail(vErr, email)
	validatePassword(vErr, "password", req.Password)
	validatePassword(vErr, "confirm_password", req.ConfirmPassword)
	if req.Password != "" && req.ConfirmPassword != "" && req.Password != req.ConfirmPassword {
		vErr.Add("confirm_password", "The confirm password and password must match.")
	}

	if _, taken := vErr.Fields["email"]; email != "" && !taken {
		exists, err := s.users.ExistsByEmail(ctx, email)
		if err != nil {
			return model.User{}, fmt.Errorf("check email uniqueness: %w", err)
		}
		if exists {
			vErr.Add("email", "The email has already been taken.")
		}
	}

	if vErr.HasErrors() {
		return model.User{}, vErr
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return model.User{}, apierror.New("INTERNAL_ERROR", "Sorry, user can not be created.", "", http.StatusInternalServerError)
	}

	return user, nil
}

// Login verifies the credentials and mints a bearer token. Unknown email
// and wrong password are reported identically so accounts cannot be
// enumerated.
func (s *AccountService) Login(ctx context.Context, req model.LoginRequest) (string, error) {
	email := strings.TrimSpace(req.Email)

	vErr := apierror.NewValidation(http.StatusUnauthorized)
	validateEmail(vErr, email)
	validatePassword(vErr, "password", req.Password)
	if vErr.HasErrors() {
		return "", vErr
	}

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, model.ErrUserNotFound) {
		return "", invalidCredentials()
	}
	if err != nil {
		return "", fmt.Errorf("find user for login: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return "", invalidCredentials()
	}

	signed, err := s.codec.Issue(user.ID)
	if err != nil {
		return "", apierror.New("INTERNAL_ERROR", "Could not create token.", "", http.StatusInternalServerError)
	}

	return signed, nil
}

// Resolve turns a raw Authorization header into the authenticated
// principal. Codec failures pass through unchanged so callers can
// distinguish missing, malformed, tampered, expired and revoked tokens.
func (s *AccountService) Resolve(ctx context.Context, rawHeader string) (model.Principal, error) {
	header := strings.TrimSpace(rawHeader)
	if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return model.Principal{}, model.ErrMissingCredential
	}

	raw := strings.TrimSpace(header[7:])
	if raw == "" {
		return model.Principal{}, model.ErrMissingCredential
	}

	claims, err := s.codec.Verify(raw)
	if err != nil {
		return model.Principal{}, err
	}

	revoked, err := s.revoked.IsRevoked(ctx, raw)
	if err != nil {
		return model.Principal{}, fmt.Errorf("check token revocation: %w", err)
	}
	if revoked {
		return model.Principal{}, model.ErrTokenRevoked
	}

	return model.Principal{
		UserID:    claims.UserID,
		RawToken:  raw,
		ExpiresAt: claims.ExpiresAt,
	}, nil
}

func (s *AccountService) CurrentUser(ctx context.Context, principal model.Principal) (model.User, error) {
	user, err := s.users.FindByID(ctx, principal.UserID)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.User{}, apierror.New("UNAUTHORIZED", "Sorry, user can not be found.", "", http.StatusUnauthorized)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find current user: %w", err)
	}
	return user, nil
}

// Logout blacklists the presented token until its natural expiry. The
// token was already verified by the auth middleware, so a store failure
// here is transient: the caller may retry, and the token still dies at
// its exp claim regardless.
func (s *AccountService) Logout(ctx context.Context, principal model.Principal) error {
	if err := s.revoked.Revoke(ctx, principal.RawToken, principal.UserID, principal.ExpiresAt); err != nil {
		return apierror.New("INTERNAL_ERROR", "Sorry, the user cannot be logged out", "", http.StatusInternalServerError)
	}
	return nil
}

func validateEmail(vErr *apierror.ValidationError, email string) {
	if email == "" {
		vErr.Add("email", "The email field is required.")
		return
	}
	if !emailPattern.MatchString(email) {
		vErr.Add("email", "The email must be a valid email address.")
	}
}

func validatePassword(vErr *apierror.ValidationError, field string, value string) {
	if value == "" {
		vErr.Add(field, fmt.Sprintf("The %s field is required.", strings.ReplaceAll(field, "_", " ")))
		return
	}
	if len(value) < passwordMinLength {
		vErr.Add(field, fmt.Sprintf("The %s must be at least %d characters.", strings.ReplaceAll(field, "_", " "), passwordMinLength))
	}
	if len(value) > passwordMaxLength {
		vErr.Add(field, fmt.Sprintf("The %s may not be greater than %d characters.", strings.ReplaceAll(field, "_", " "), passwordMaxLength))
	}
}

func invalidCredentials() *apierror.APIError {
	return apierror.New("UNAUTHORIZED", "Invalid Email or Password", "", http.StatusUnauthorized)
}
