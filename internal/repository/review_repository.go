package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/lodging-booking/internal/model"
)

// ReviewRepo persists reviews.  A review is attached to its listing via
// the listing_id foreign key; the listing row itself is never rewritten.
type ReviewRepo struct{ db Executor }

func NewReviewRepo(db Executor) *ReviewRepo { return &ReviewRepo{db: db} }

const reviewColumns = `id, listing_id, author_id, rating, comment, created_at, updated_at`

func scanReview(row interface{ Scan(...any) error }) (*model.Review, error) {
	var rv model.Review
	if err := row.Scan(&rv.ID, &rv.ListingID, &rv.AuthorID, &rv.Rating, &rv.Comment, &rv.CreatedAt, &rv.UpdatedAt); err != nil {
		return nil, err
	}
	return &rv, nil
}

// Insert stores a review.
func (r *ReviewRepo) Insert(ctx context.Context, rv *model.Review) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reviews (`+reviewColumns+`) VALUES (?,?,?,?,?,?,?)`,
		rv.ID, rv.ListingID, rv.AuthorID, rv.Rating, rv.Comment, rv.CreatedAt, rv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

// Find fetches a review by id.
func (r *ReviewRepo) Find(ctx context.Context, id string) (*model.Review, error) {
	rv, err := scanReview(r.db.QueryRowContext(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select review: %w", err)
	}
	return rv, nil
}

// ListByListing returns the listing's reviews, oldest first.
func (r *ReviewRepo) ListByListing(ctx context.Context, listingID string) ([]model.Review, error) {
	return r.query(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE listing_id = ? ORDER BY created_at, id`, listingID)
}

// ListAll returns every review, newest first.
func (r *ReviewRepo) ListAll(ctx context.Context) ([]model.Review, error) {
	return r.query(ctx, `SELECT `+reviewColumns+` FROM reviews ORDER BY created_at DESC, id DESC`)
}

func (r *ReviewRepo) query(ctx context.Context, q string, args ...any) ([]model.Review, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}
	defer rows.Close()

	out := []model.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		out = append(out, *rv)
	}
	return out, rows.Err()
}

// Delete removes a review.
func (r *ReviewRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	return requireAffected(res)
}
