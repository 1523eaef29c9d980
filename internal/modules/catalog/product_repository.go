package catalog

import (
	"context"
	"errors"
	"fmt"

	"microhub-delivery/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProductRepositoryInterface defines the product side of the capacity ledger
// plus the catalog CRUD. DebitStock is a conditional decrement: the row only
// updates while enough stock remains, so concurrent order creations can never
// drive stock negative.
type ProductRepositoryInterface interface {
	Create(ctx context.Context, p *models.Product) (*models.Product, error)
	FindByID(ctx context.Context, productID string) (*models.Product, error)
	ListByVendor(ctx context.Context, vendorID string) ([]*models.Product, error)
	Update(ctx context.Context, productID, vendorID string, req models.UpdateProductRequest) (*models.Product, error)
	Delete(ctx context.Context, productID, vendorID string) error
	DebitStock(ctx context.Context, productID string, qty int) error
	CreditStock(ctx context.Context, productID string, qty int) error
}

// ProductRepository implements ProductRepositoryInterface on Postgres.
type ProductRepository struct {
	db *pgxpool.Pool
}

// NewProductRepository creates a new product repository.
func NewProductRepository(db *pgxpool.Pool) ProductRepositoryInterface {
	return &ProductRepository{db: db}
}

const productColumns = `id, vendor_id, name, sku, category, price, stock, COALESCE(description, ''), created_at, updated_at`

// uniqueViolation is the Postgres error code for duplicate keys.
const uniqueViolation = "23505"

func scanProduct(row pgx.Row) (*models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ID, &p.VendorID, &p.Name, &p.SKU, &p.Category, &p.Price, &p.Stock,
		&p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}
	return &p, nil
}

// Create inserts a new product. A duplicate SKU maps to ErrSKUTaken.
func (r *ProductRepository) Create(ctx context.Context, p *models.Product) (*models.Product, error) {
	query := `
		INSERT INTO products (id, vendor_id, name, sku, category, price, stock, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''))
		RETURNING ` + productColumns

	created, err := scanProduct(r.db.QueryRow(ctx, query,
		p.ID, p.VendorID, p.Name, p.SKU, p.Category, p.Price, p.Stock, p.Description))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, models.ErrSKUTaken
		}
		return nil, fmt.Errorf("repository.CreateProduct: %w", err)
	}
	return created, nil
}

// FindByID retrieves a single product.
func (r *ProductRepository) FindByID(ctx context.Context, productID string) (*models.Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, productID))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindProductByID: %w", err)
	}
	return p, nil
}

// ListByVendor returns a vendor's products, newest first.
func (r *ProductRepository) ListByVendor(ctx context.Context, vendorID string) ([]*models.Product, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE vendor_id = $1 ORDER BY created_at DESC`, vendorID)
	if err != nil {
		return nil, fmt.Errorf("repository.ListProducts: %w", err)
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("repository.ListProducts: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// Update applies a partial update to a vendor-owned product.
func (r *ProductRepository) Update(ctx context.Context, productID, vendorID string, req models.UpdateProductRequest) (*models.Product, error) {
	query := `
		UPDATE products
		SET name = COALESCE($1, name),
		    category = COALESCE($2, category),
		    price = COALESCE($3, price),
		    stock = COALESCE($4, stock),
		    description = COALESCE($5, description),
		    updated_at = NOW()
		WHERE id = $6 AND vendor_id = $7
		RETURNING ` + productColumns

	p, err := scanProduct(r.db.QueryRow(ctx, query,
		req.Name, req.Category, req.Price, req.Stock, req.Description, productID, vendorID))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.UpdateProduct: %w", err)
	}
	return p, nil
}

// Delete removes a vendor-owned product.
func (r *ProductRepository) Delete(ctx context.Context, productID, vendorID string) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1 AND vendor_id = $2`, productID, vendorID)
	if err != nil {
		return fmt.Errorf("repository.DeleteProduct: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// DebitStock atomically decrements stock, failing instead of going negative.
func (r *ProductRepository) DebitStock(ctx context.Context, productID string, qty int) error {
	query := `UPDATE products SET stock = stock - $1, updated_at = NOW() WHERE id = $2 AND stock >= $1`
	cmdTag, err := r.db.Exec(ctx, query, qty, productID)
	if err != nil {
		return fmt.Errorf("repository.DebitStock: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrInsufficientStock
	}
	return nil
}

// CreditStock atomically increments stock (order deletion, failed create).
func (r *ProductRepository) CreditStock(ctx context.Context, productID string, qty int) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE products SET stock = stock + $1, updated_at = NOW() WHERE id = $2`, qty, productID)
	if err != nil {
		return fmt.Errorf("repository.CreditStock: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
