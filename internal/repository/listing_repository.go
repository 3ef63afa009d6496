package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/lodging-booking/internal/model"
)

// ListingRepo manages persistence for listings.  When locking is set the
// repo belongs to a transaction and FindForUpdate takes a row lock.
type ListingRepo struct {
	db      Executor
	locking bool
}

// NewListingRepo returns a ListingRepo bound to the given executor.
func NewListingRepo(db Executor) *ListingRepo { return &ListingRepo{db: db} }

const listingColumns = `id, owner_id, title, description, location, country, price_per_night, image_url, created_at, updated_at`

func scanListing(row interface{ Scan(...any) error }) (*model.Listing, error) {
	var l model.Listing
	err := row.Scan(&l.ID, &l.OwnerID, &l.Title, &l.Description, &l.Location, &l.Country,
		&l.PricePerNight, &l.ImageURL, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Create inserts a new listing.  The caller assigns ID and timestamps.
func (r *ListingRepo) Create(ctx context.Context, l *model.Listing) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO listings (`+listingColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?)`,
		l.ID, l.OwnerID, l.Title, l.Description, l.Location, l.Country, l.PricePerNight, l.ImageURL, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert listing: %w", err)
	}
	return nil
}

// Find fetches a listing by id.
func (r *ListingRepo) Find(ctx context.Context, id string) (*model.Listing, error) {
	return r.find(ctx, id, false)
}

// FindForUpdate fetches a listing and, inside a transaction, locks its
// row so concurrent admissions for the same listing run one at a time.
func (r *ListingRepo) FindForUpdate(ctx context.Context, id string) (*model.Listing, error) {
	return r.find(ctx, id, r.locking)
}

func (r *ListingRepo) find(ctx context.Context, id string, lock bool) (*model.Listing, error) {
	q := `SELECT ` + listingColumns + ` FROM listings WHERE id = ?`
	if lock {
		q += ` FOR UPDATE`
	}
	l, err := scanListing(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select listing: %w", err)
	}
	return l, nil
}

// List returns every listing, newest first.
func (r *ListingRepo) List(ctx context.Context) ([]model.Listing, error) {
	return r.query(ctx, `SELECT `+listingColumns+` FROM listings ORDER BY created_at DESC, id DESC`)
}

// ListByOwner returns the listings owned by ownerID, newest first.
func (r *ListingRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.Listing, error) {
	return r.query(ctx, `SELECT `+listingColumns+` FROM listings WHERE owner_id = ? ORDER BY created_at DESC, id DESC`, ownerID)
}

func (r *ListingRepo) query(ctx context.Context, q string, args ...any) ([]model.Listing, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query listings: %w", err)
	}
	defer rows.Close()

	out := []model.Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

// Update writes the mutable listing fields.
func (r *ListingRepo) Update(ctx context.Context, l *model.Listing) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE listings SET title=?, description=?, location=?, country=?, price_per_night=?, image_url=?, updated_at=? WHERE id=?`,
		l.Title, l.Description, l.Location, l.Country, l.PricePerNight, l.ImageURL, l.UpdatedAt, l.ID)
	if err != nil {
		return fmt.Errorf("update listing: %w", err)
	}
	return requireAffected(res)
}

// Delete removes the listing; bookings and reviews go with it through
// ON DELETE CASCADE.
func (r *ListingRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM listings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	return requireAffected(res)
}

// requireAffected maps a zero-row write to ErrNotFound.  MySQL reports
// matched rows only with CLIENT_FOUND_ROWS, which the DSN enables.
func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
