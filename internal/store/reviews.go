package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rdine/go-storefront/internal/database"
	"github.com/rdine/go-storefront/internal/models"
)

// ReviewWithAuthor is a review joined with the reviewer's display name for
// the product detail page.
type ReviewWithAuthor struct {
	models.Review
	AuthorName string `json:"author_name"`
}

// UpsertReview creates or overwrites the single review a user may hold for
// a product. The boolean result reports which branch ran (true when a new
// review was created), so callers can vary their confirmation message.
// An update keeps the original created_at and refreshes updated_at.
func UpsertReview(ctx context.Context, db *sql.DB, userID, productID int64, rating int, comment string) (*models.Review, bool, error) {
	if rating < 1 || rating > 5 {
		return nil, false, database.ErrInvalidRating
	}

	review := &models.Review{
		UserID:    userID,
		ProductID: productID,
		Rating:    rating,
		Comment:   comment,
	}
	created := false

	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		var exists bool
		err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`,
			productID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check product exists: %w", err)
		}
		if !exists {
			return database.ErrProductNotFound
		}

		var existingID int64
		err = tx.QueryRowContext(ctx,
			`SELECT id FROM reviews WHERE user_id = $1 AND product_id = $2`,
			userID, productID).Scan(&existingID)

		switch {
		case err == sql.ErrNoRows:
			created = true
			err = tx.QueryRowContext(ctx,
				`INSERT INTO reviews (user_id, product_id, rating, comment, created_at, updated_at)
				 VALUES ($1, $2, $3, $4, NOW(), NOW())
				 RETURNING id, created_at, updated_at`,
				userID, productID, rating, comment).
				Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt)
			if err != nil {
				return fmt.Errorf("create review: %w", err)
			}

		case err != nil:
			return fmt.Errorf("find review: %w", err)

		default:
			err = tx.QueryRowContext(ctx,
				`UPDATE reviews
				 SET rating = $2, comment = $3, updated_at = NOW()
				 WHERE id = $1
				 RETURNING id, created_at, updated_at`,
				existingID, rating, comment).
				Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt)
			if err != nil {
				return fmt.Errorf("update review: %w", err)
			}
		}

		return nil
	})

	if err != nil {
		return nil, false, err
	}

	return review, created, nil
}

// ListProductReviews returns a product's reviews newest first, joined with
// each reviewer's name.
func ListProductReviews(ctx context.Context, db *sql.DB, productID int64) ([]ReviewWithAuthor, error) {
	query := `
		SELECT r.id, r.user_id, r.product_id, r.rating, r.comment,
		       r.created_at, r.updated_at, u.name
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		WHERE r.product_id = $1
		ORDER BY r.created_at DESC, r.id DESC`

	rows, err := db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]ReviewWithAuthor, 0)
	for rows.Next() {
		var review ReviewWithAuthor
		err := rows.Scan(
			&review.ID,
			&review.UserID,
			&review.ProductID,
			&review.Rating,
			&review.Comment,
			&review.CreatedAt,
			&review.UpdatedAt,
			&review.AuthorName,
		)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, review)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return reviews, nil
}
