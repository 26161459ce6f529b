//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-product-api/internal/config"
	"go-product-api/internal/handler"
	"go-product-api/internal/middleware"
	"go-product-api/internal/model"
	"go-product-api/internal/router"
	"go-product-api/internal/service"
	"go-product-api/internal/token"
)

// In-memory stores so the integration flow can exercise the full HTTP
// stack without PostgreSQL. They implement the same interfaces the pgx
// repositories do.

type memUserStore struct {
	mu    sync.RWMutex
	users []model.User
}

func (s *memUserStore) Create(_ context.Context, u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, u)
	return nil
}

func (s *memUserStore) FindByID(_ context.Context, id string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (s *memUserStore) FindByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (s *memUserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := s.FindByEmail(ctx, email)
	return err == nil, nil
}

type memProductStore struct {
	mu       sync.RWMutex
	products []model.Product
}

func (s *memProductStore) Create(_ context.Context, p model.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = append(s.products, p)
	return nil
}

func (s *memProductStore) ListByOwner(_ context.Context, ownerID string) ([]model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	owned := make([]model.Product, 0)
	for _, p := range s.products {
		if p.UserID == ownerID {
			owned = append(owned, p)
		}
	}
	return owned, nil
}

func (s *memProductStore) FindForOwner(_ context.Context, id string, ownerID string) (model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.ID == id {
			if p.UserID != ownerID {
				return model.Product{}, model.ErrProductForbidden
			}
			return p, nil
		}
	}
	return model.Product{}, model.ErrProductNotFound
}

func (s *memProductStore) UpdateOwned(_ context.Context, p model.Product) (model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.products {
		if existing.ID == p.ID && existing.UserID == p.UserID {
			existing.Name = p.Name
			existing.Price = p.Price
			existing.Quantity = p.Quantity
			existing.UpdatedAt = p.UpdatedAt
			s.products[i] = existing
			return existing, nil
		}
	}
	return model.Product{}, model.ErrProductForbidden
}

func (s *memProductStore) DeleteOwned(_ context.Context, id string, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.products {
		if existing.ID == id && existing.UserID == ownerID {
			s.products = append(s.products[:i], s.products[i+1:]...)
			return nil
		}
	}
	return model.ErrProductForbidden
}

type memRevocationStore struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
}

func newMemRevocationStore() *memRevocationStore {
	return &memRevocationStore{revoked: map[string]time.Time{}}
}

func (s *memRevocationStore) Revoke(_ context.Context, raw string, _ string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[raw] = expiresAt
	return nil
}

func (s *memRevocationStore) IsRevoked(_ context.Context, raw string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, revoked := s.revoked[raw]
	return revoked, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := &config.Config{
		RequestTimeout:   30 * time.Second,
		CORSOrigins:      []string{"*"},
		RateLimitRPM:     10000,
		AuthRateLimitRPM: 10000,
	}

	codec, err := token.NewCodec("integration-secret", time.Hour)
	require.NoError(t, err)

	accountService := service.NewAccountService(codec, &memUserStore{}, newMemRevocationStore())
	productService := service.NewProductService(&memProductStore{})

	authMiddleware := middleware.NewAuthMiddleware(accountService)
	accountHandler := handler.NewAccountHandler(accountService)
	productHandler := handler.NewProductHandler(productService)

	server := httptest.NewServer(router.New(cfg, authMiddleware, accountHandler, productHandler))
	t.Cleanup(server.Close)
	return server
}

type apiResult struct {
	status int
	body   map[string]any
}

func doJSON(t *testing.T, method string, url string, payload any, bearer string) apiResult {
	t.Helper()

	var reader *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	return apiResult{status: resp.StatusCode, body: body}
}

func registerAndLogin(t *testing.T, server *httptest.Server, name string, email string, password string) (userID string, bearer string) {
	t.Helper()

	registered := doJSON(t, http.MethodPost, server.URL+"/api/register", map[string]string{
		"name":             name,
		"email":            email,
		"password":         password,
		"confirm_password": password,
	}, "")
	require.Equal(t, http.StatusOK, registered.status)

	data, ok := registered.body["data"].(map[string]any)
	require.True(t, ok)
	userID, ok = data["id"].(string)
	require.True(t, ok)

	loggedIn := doJSON(t, http.MethodPost, server.URL+"/api/login", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	require.Equal(t, http.StatusOK, loggedIn.status)

	bearer, ok = loggedIn.body["token"].(string)
	require.True(t, ok)
	require.NotEmpty(t, bearer)

	return userID, bearer
}
