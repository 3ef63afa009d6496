package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/lodging-booking/internal/model"
)

// BookingRepo provides persistence for bookings.  All dates are stored as
// MySQL DATE columns and all timestamps in UTC.
type BookingRepo struct {
	db      Executor
	locking bool
}

// NewBookingRepo returns a new BookingRepo bound to the given executor.
func NewBookingRepo(db Executor) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `b.id, b.listing_id, b.user_id, b.check_in, b.check_out, b.guests, b.phone_number,
	b.special_requests, b.duration_nights, b.total_price, b.payment_method, b.payment_status, b.order_id, b.status,
	b.created_at, b.updated_at`

func scanBooking(row interface{ Scan(...any) error }) (*model.Booking, error) {
	var (
		b             model.Booking
		in, out       time.Time
		method        string
		paymentStatus string
		orderID       sql.NullString
		status        string
	)
	err := row.Scan(&b.ID, &b.ListingID, &b.UserID, &in, &out, &b.Guests, &b.PhoneNumber,
		&b.SpecialRequests, &b.DurationNights, &b.TotalPrice, &method, &paymentStatus, &orderID, &status,
		&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.CheckIn = model.NewDate(in)
	b.CheckOut = model.NewDate(out)
	b.PaymentMethod = model.PaymentMethod(method)
	b.PaymentStatus = model.PaymentStatus(paymentStatus)
	b.OrderID = orderID.String
	b.Status = model.BookingStatus(status)
	return &b, nil
}

// Insert stores a new booking.  The caller has already assigned the ID,
// derived fields and timestamps.
func (r *BookingRepo) Insert(ctx context.Context, b *model.Booking) error {
	const q = `INSERT INTO bookings (id, listing_id, user_id, check_in, check_out, guests, phone_number,
		special_requests, duration_nights, total_price, payment_method, payment_status, order_id, status, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`
	_, err := r.db.ExecContext(ctx, q,
		b.ID, b.ListingID, b.UserID, b.CheckIn.String(), b.CheckOut.String(), b.Guests, b.PhoneNumber,
		b.SpecialRequests, b.DurationNights, b.TotalPrice, string(b.PaymentMethod), string(b.PaymentStatus),
		nullString(b.OrderID), string(b.Status), b.CreatedAt, b.UpdatedAt)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

// Find fetches a booking by id.
func (r *BookingRepo) Find(ctx context.Context, id string) (*model.Booking, error) {
	return r.find(ctx, id, false)
}

// FindForUpdate fetches a booking and locks its row for the rest of the
// transaction.
func (r *BookingRepo) FindForUpdate(ctx context.Context, id string) (*model.Booking, error) {
	return r.find(ctx, id, r.locking)
}

func (r *BookingRepo) find(ctx context.Context, id string, lock bool) (*model.Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.id = ?`
	if lock {
		q += ` FOR UPDATE`
	}
	b, err := scanBooking(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select booking: %w", err)
	}
	return b, nil
}

// HasOverlap checks active bookings of the listing against the half-open
// range [checkIn, checkOut).  A stay ending on the day another begins
// does not overlap.
func (r *BookingRepo) HasOverlap(ctx context.Context, listingID string, checkIn, checkOut model.Date) (bool, error) {
	const q = `SELECT EXISTS (
		SELECT 1 FROM bookings
		WHERE listing_id = ? AND status IN ('pending','confirmed')
		  AND check_in < ? AND check_out > ?
	)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, q, listingID, checkOut.String(), checkIn.String()).Scan(&exists); err != nil {
		return false, fmt.Errorf("overlap check: %w", err)
	}
	return exists, nil
}

// Update writes the mutable booking fields (status, payment state, order).
func (r *BookingRepo) Update(ctx context.Context, b *model.Booking) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET payment_method=?, payment_status=?, order_id=?, status=?, updated_at=? WHERE id=?`,
		string(b.PaymentMethod), string(b.PaymentStatus), nullString(b.OrderID), string(b.Status), b.UpdatedAt, b.ID)
	if err != nil {
		return fmt.Errorf("update booking: %w", err)
	}
	return requireAffected(res)
}

// Delete hard-deletes a booking.
func (r *BookingRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	return requireAffected(res)
}

// ListByUser returns the bookings made by userID.
func (r *BookingRepo) ListByUser(ctx context.Context, userID string) ([]model.Booking, error) {
	return r.query(ctx, `SELECT `+bookingColumns+` FROM bookings b WHERE b.user_id = ?
		ORDER BY b.created_at DESC, b.id DESC`, userID)
}

// ListByListingOwner returns bookings against any listing owned by ownerID.
func (r *BookingRepo) ListByListingOwner(ctx context.Context, ownerID string) ([]model.Booking, error) {
	return r.query(ctx, `SELECT `+bookingColumns+` FROM bookings b
		JOIN listings l ON l.id = b.listing_id
		WHERE l.owner_id = ?
		ORDER BY b.created_at DESC, b.id DESC`, ownerID)
}

// ListAll returns every booking.
func (r *BookingRepo) ListAll(ctx context.Context) ([]model.Booking, error) {
	return r.query(ctx, `SELECT `+bookingColumns+` FROM bookings b ORDER BY b.created_at DESC, b.id DESC`)
}

func (r *BookingRepo) query(ctx context.Context, q string, args ...any) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query bookings: %w", err)
	}
	defer rows.Close()

	out := []model.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
