package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"go-product-api/internal/model"
	"go-product-api/pkg/apierror"
)

type ProductStore interface {
	Create(ctx context.Context, p model.Product) error
	ListByOwner(ctx context.Context, ownerID string) ([]model.Product, error)
	FindForOwner(ctx context.Context, id string, ownerID string) (model.Product, error)
	UpdateOwned(ctx context.Context, p model.Product) (model.Product, error)
	DeleteOwned(ctx context.Context, id string, ownerID string) error
}

// ProductService is the owner-scoped CRUD surface. Every operation takes
// the authenticated principal explicitly; a client-supplied owner id is
// never consulted.
type ProductService struct {
	products ProductStore
}

func NewProductService(products ProductStore) *ProductService {
	return &ProductService{products: products}
}

func (s *ProductService) List(ctx context.Context, principal model.Principal) ([]model.ProductSummary, error) {
	products, err := s.products.ListByOwner(ctx, principal.UserID)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	summaries := make([]model.ProductSummary, 0, len(products))
	for _, p := range products {
		summaries = append(summaries, model.ProductSummary{Name: p.Name, Price: p.Price, Quantity: p.Quantity})
	}
	return summaries, nil
}

func (s *ProductService) Create(ctx context.Context, principal model.Principal, input model.ProductInput) (model.Product, error) {
	if err := validateProductInput(input); err != nil {
		return model.Product{}, err
	}

	now := time.Now().UTC()
	product := model.Product{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(input.Name),
		Price:     *input.Price,
		Quantity:  *input.Quantity,
		UserID:    principal.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.products.Create(ctx, product); err != nil {
		return model.Product{}, apierror.New("INTERNAL_ERROR", "Sorry, product can not be added", "", http.StatusInternalServerError)
	}

	return product, nil
}

func (s *ProductService) Get(ctx context.Context, principal model.Principal, id string) (model.Product, error) {
	product, err := s.products.FindForOwner(ctx, id, principal.UserID)
	if errors.Is(err, model.ErrProductNotFound) {
		return model.Product{}, apierror.New("NOT_FOUND",
			fmt.Sprintf("Sorry, product with id %s cannot be found.", id), "", http.StatusBadRequest)
	}
	if errors.Is(err, model.ErrProductForbidden) {
		return model.Product{}, apierror.New("FORBIDDEN",
			"Sorry, you have no permission to access this product.", "", http.StatusUnauthorized)
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("get product: %w", err)
	}
	return product, nil
}

func (s *ProductService) Update(ctx context.Context, principal model.Principal, id string, input model.ProductInput) (model.Product, error) {
	if err := validateProductInput(input); err != nil {
		return model.Product{}, err
	}

	updated, err := s.products.UpdateOwned(ctx, model.Product{
		ID:        id,
		Name:      strings.TrimSpace(input.Name),
		Price:     *input.Price,
		Quantity:  *input.Quantity,
		UserID:    principal.UserID,
		UpdatedAt: time.Now().UTC(),
	})
	if errors.Is(err, model.ErrProductForbidden) || errors.Is(err, model.ErrProductNotFound) {
		return model.Product{}, notAccessible()
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("update product: %w", err)
	}
	return updated, nil
}

func (s *ProductService) Delete(ctx context.Context, principal model.Principal, id string) error {
	err := s.products.DeleteOwned(ctx, id, principal.UserID)
	if errors.Is(err, model.ErrProductForbidden) || errors.Is(err, model.ErrProductNotFound) {
		return notAccessible()
	}
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

// validateProductInput enforces presence and integer-ness only. Negative
// and zero price or quantity are accepted on purpose.
func validateProductInput(input model.ProductInput) error {
	vErr := apierror.NewValidation(http.StatusUnauthorized)
	if strings.TrimSpace(input.Name) == "" {
		vErr.Add("name", "The name field is required.")
	}
	if input.Price == nil {
		vErr.Add("price", "The price field is required.")
	}
	if input.Quantity == nil {
		vErr.Add("quantity", "The quantity field is required.")
	}

	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

// notAccessible is the uniform update/delete failure: it never reveals
// whether the product exists under another owner.
func notAccessible() *apierror.APIError {
	return apierror.New("FORBIDDEN", "Product does not exist or you do not have access.", "", http.StatusForbidden)
}
