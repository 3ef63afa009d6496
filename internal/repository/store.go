package repository

import (
	"context"
	"time"

	"github.com/iliyamo/lodging-booking/internal/model"
)

// ListingRepository persists listings.
type ListingRepository interface {
	Create(ctx context.Context, l *model.Listing) error
	// Find returns ErrNotFound when no listing has the id.
	Find(ctx context.Context, id string) (*model.Listing, error)
	// FindForUpdate is Find plus a row lock held until the surrounding
	// transaction ends.  Outside a transaction it behaves like Find.
	FindForUpdate(ctx context.Context, id string) (*model.Listing, error)
	List(ctx context.Context) ([]model.Listing, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.Listing, error)
	Update(ctx context.Context, l *model.Listing) error
	// Delete removes the listing together with its bookings and reviews.
	Delete(ctx context.Context, id string) error
}

// BookingRepository persists bookings.  List methods order by creation
// time, most recent first.
type BookingRepository interface {
	Insert(ctx context.Context, b *model.Booking) error
	Find(ctx context.Context, id string) (*model.Booking, error)
	FindForUpdate(ctx context.Context, id string) (*model.Booking, error)
	// HasOverlap reports whether a pending or confirmed booking for the
	// listing intersects the half-open range [checkIn, checkOut).
	HasOverlap(ctx context.Context, listingID string, checkIn, checkOut model.Date) (bool, error)
	Update(ctx context.Context, b *model.Booking) error
	Delete(ctx context.Context, id string) error
	ListByUser(ctx context.Context, userID string) ([]model.Booking, error)
	ListByListingOwner(ctx context.Context, ownerID string) ([]model.Booking, error)
	ListAll(ctx context.Context) ([]model.Booking, error)
}

// ReviewRepository persists reviews.
type ReviewRepository interface {
	Insert(ctx context.Context, r *model.Review) error
	Find(ctx context.Context, id string) (*model.Review, error)
	ListByListing(ctx context.Context, listingID string) ([]model.Review, error)
	ListAll(ctx context.Context) ([]model.Review, error)
	Delete(ctx context.Context, id string) error
}

// UserRepository persists accounts and password reset state.
type UserRepository interface {
	// Create returns ErrEmailExists for a duplicate email.
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Delete(ctx context.Context, id string) error
	SetResetToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	// GetByResetToken returns ErrNotFound when the hash is unknown or its
	// expiry is not after now.
	GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*model.User, error)
	// ResetPassword stores the new hash and clears the reset token.
	ResetPassword(ctx context.Context, userID, passwordHash string) error
}

// TokenRepository persists hashed refresh tokens.
type TokenRepository interface {
	StoreRefresh(ctx context.Context, userID, tokenHash string, exp time.Time) error
	// ValidateRefresh returns the owning user id for an active token and
	// ErrNotFound otherwise.
	ValidateRefresh(ctx context.Context, tokenHash string) (string, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID string) error
}

// Repositories provides access to the repositories that take part in
// atomic operations.  Inside Atomic they all share one transaction.
type Repositories interface {
	Listings() ListingRepository
	Bookings() BookingRepository
	Reviews() ReviewRepository
}

// AtomicCallback is the function signature for atomic operations.
// Any error returned will cause the transaction to be rolled back.
type AtomicCallback func(repos Repositories) error

// DataStore is the full storage surface used by the services.
//
// Example usage:
//
//	err := store.Atomic(ctx, "create_booking", func(repos Repositories) error {
//	    listing, err := repos.Listings().FindForUpdate(ctx, listingID)
//	    if err != nil {
//	        return err
//	    }
//	    return repos.Bookings().Insert(ctx, booking)
//	})
type DataStore interface {
	Repositories
	// Atomic executes fn within a transaction labelled op.  The
	// transaction commits when fn returns nil and rolls back otherwise.
	Atomic(ctx context.Context, op string, fn AtomicCallback) error
	Users() UserRepository
	Tokens() TokenRepository
	Ping(ctx context.Context) error
}
