package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/rdine/go-storefront/internal/database"
	"github.com/rdine/go-storefront/internal/models"
	"github.com/shopspring/decimal"
)

type ProductInput struct {
	Title       string
	Price       decimal.Decimal
	Description string
	Category    string
	Image       string
}

func CreateProduct(ctx context.Context, db *sql.DB, in ProductInput) (*models.Product, error) {
	product := &models.Product{}

	query := `
		INSERT INTO products (title, price, description, category, image, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id, title, price, description, category, image, created_at, updated_at`

	err := db.QueryRowContext(ctx, query, in.Title, in.Price, in.Description, in.Category, in.Image).Scan(
		&product.ID,
		&product.Title,
		&product.Price,
		&product.Description,
		&product.Category,
		&product.Image,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	return product, nil
}

func GetProduct(ctx context.Context, db *sql.DB, id int64) (*models.Product, error) {
	product := &models.Product{}

	query := `
		SELECT id, title, price, description, category, image, created_at, updated_at
		FROM products
		WHERE id = $1`

	err := db.QueryRowContext(ctx, query, id).Scan(
		&product.ID,
		&product.Title,
		&product.Price,
		&product.Description,
		&product.Category,
		&product.Image,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return product, nil
}

// GetProductsByIDs fetches the given products in one round trip. Missing
// ids are simply absent from the result map; callers decide whether that
// matters.
func GetProductsByIDs(ctx context.Context, db *sql.DB, ids []int64) (map[int64]models.Product, error) {
	products := make(map[int64]models.Product, len(ids))
	if len(ids) == 0 {
		return products, nil
	}

	query := `
		SELECT id, title, price, description, category, image, created_at, updated_at
		FROM products
		WHERE id = ANY($1)`

	rows, err := db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("get products by ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var product models.Product
		err := rows.Scan(
			&product.ID,
			&product.Title,
			&product.Price,
			&product.Description,
			&product.Category,
			&product.Image,
			&product.CreatedAt,
			&product.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products[product.ID] = product
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return products, nil
}

func UpdateProduct(ctx context.Context, db *sql.DB, id int64, in ProductInput) (*models.Product, error) {
	product := &models.Product{}

	query := `
		UPDATE products
		SET title = $2, price = $3, description = $4, category = $5, image = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING id, title, price, description, category, image, created_at, updated_at`

	err := db.QueryRowContext(ctx, query, id, in.Title, in.Price, in.Description, in.Category, in.Image).Scan(
		&product.ID,
		&product.Title,
		&product.Price,
		&product.Description,
		&product.Category,
		&product.Image,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("update product: %w", err)
	}

	return product, nil
}

func DeleteProduct(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrProductNotFound
	}

	return nil
}

// ListProducts returns a catalog page annotated with review counts and
// average ratings for the storefront listing.
func ListProducts(ctx context.Context, db *sql.DB, page, pageSize int) (*OffsetPage, error) {
	var total int64
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `
		SELECT p.id, p.title, p.price, p.description, p.category, p.image,
		       p.created_at, p.updated_at,
		       COUNT(r.id) AS review_count,
		       AVG(r.rating) AS average_rating
		FROM products p
		LEFT JOIN reviews r ON r.product_id = p.id
		GROUP BY p.id
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $1 OFFSET $2`

	rows, err := db.QueryContext(ctx, query, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []models.ProductListing
	for rows.Next() {
		var listing models.ProductListing
		var avgRating sql.NullFloat64
		err := rows.Scan(
			&listing.ID,
			&listing.Title,
			&listing.Price,
			&listing.Description,
			&listing.Category,
			&listing.Image,
			&listing.CreatedAt,
			&listing.UpdatedAt,
			&listing.ReviewCount,
			&avgRating,
		)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		if avgRating.Valid {
			listing.AverageRating = &avgRating.Float64
		}
		products = append(products, listing)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	return &OffsetPage{
		Items:      products,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}
