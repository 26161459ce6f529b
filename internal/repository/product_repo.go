package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-product-api/internal/model"
)

type ProductRepository struct {
	pool *pgxpool.Pool
}

func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

func (r *ProductRepository) Create(ctx context.Context, p model.Product) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO products (id, name, price, quantity, user_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.Name, p.Price, p.Quantity, p.UserID, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

func (r *ProductRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, price, quantity, user_id, created_at, updated_at
		 FROM products WHERE user_id = $1 ORDER BY created_at`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]model.Product, 0)
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Quantity, &p.UserID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// FindForOwner looks the product up by id once and resolves the tri-state
// outcome in a single query: no row at all, a row owned by someone else, or
// the owner's row. Existence and ownership are never checked separately.
func (r *ProductRepository) FindForOwner(ctx context.Context, id string, ownerID string) (model.Product, error) {
	var p model.Product
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, price, quantity, user_id, created_at, updated_at
		 FROM products WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Price, &p.Quantity, &p.UserID, &p.CreatedAt, &p.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.Product{}, model.ErrProductNotFound
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("find product: %w", err)
	}
	if p.UserID != ownerID {
		return model.Product{}, model.ErrProductForbidden
	}
	return p, nil
}

// UpdateOwned mutates the row only when both id and owner match. A zero
// row count deliberately does not reveal whether the product exists under
// another owner.
func (r *ProductRepository) UpdateOwned(ctx context.Context, p model.Product) (model.Product, error) {
	var updated model.Product
	err := r.pool.QueryRow(ctx,
		`UPDATE products SET name = $3, price = $4, quantity = $5, updated_at = $6
		 WHERE id = $1 AND user_id = $2
		 RETURNING id, name, price, quantity, user_id, created_at, updated_at`,
		p.ID, p.UserID, p.Name, p.Price, p.Quantity, p.UpdatedAt).
		Scan(&updated.ID, &updated.Name, &updated.Price, &updated.Quantity,
			&updated.UserID, &updated.CreatedAt, &updated.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.Product{}, model.ErrProductForbidden
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("update product: %w", err)
	}
	return updated, nil
}

func (r *ProductRepository) DeleteOwned(ctx context.Context, id string, ownerID string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM products WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrProductForbidden
	}
	return nil
}
