package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/lodging-booking/internal/model"
	"github.com/iliyamo/lodging-booking/internal/repository"
)

func date(t *testing.T, s string) model.Date {
	t.Helper()
	d, err := model.ParseDate(s)
	require.NoError(t, err)
	return d
}

func seed(t *testing.T, ds *DataStore) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	require.NoError(t, ds.Listings().Create(ctx, &model.Listing{
		ID: "l1", OwnerID: "host", Title: "Cabin", PricePerNight: decimal.NewFromInt(100), CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, ds.Bookings().Insert(ctx, &model.Booking{
		ID: "b1", ListingID: "l1", UserID: "guest",
		CheckIn: date(t, "2024-06-01"), CheckOut: date(t, "2024-06-04"),
		Status: model.BookingPending, PaymentStatus: model.PaymentPending, CreatedAt: now, UpdatedAt: now,
	}))
}

func TestAtomicRollsBackOnError(t *testing.T) {
	ds := NewDataStore()
	seed(t, ds)
	ctx := context.Background()
	boom := errors.New("boom")

	err := ds.Atomic(ctx, "test", func(repos repository.Repositories) error {
		require.NoError(t, repos.Bookings().Delete(ctx, "b1"))
		_, err := repos.Bookings().Find(ctx, "b1")
		assert.ErrorIs(t, err, repository.ErrNotFound)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = ds.Bookings().Find(ctx, "b1")
	assert.NoError(t, err)
}

func TestAtomicCommits(t *testing.T) {
	ds := NewDataStore()
	seed(t, ds)
	ctx := context.Background()

	require.NoError(t, ds.Atomic(ctx, "test", func(repos repository.Repositories) error {
		b, err := repos.Bookings().FindForUpdate(ctx, "b1")
		if err != nil {
			return err
		}
		b.Status = model.BookingConfirmed
		return repos.Bookings().Update(ctx, b)
	}))

	b, err := ds.Bookings().Find(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, model.BookingConfirmed, b.Status)
}

func TestAtomicHonoursCancelledContext(t *testing.T) {
	ds := NewDataStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := ds.Atomic(ctx, "test", func(repository.Repositories) error { called = true; return nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestHasOverlap(t *testing.T) {
	ds := NewDataStore()
	seed(t, ds)
	ctx := context.Background()

	cases := []struct {
		in, out string
		want    bool
	}{
		{"2024-06-03", "2024-06-05", true},
		{"2024-05-30", "2024-06-02", true},
		{"2024-06-02", "2024-06-03", true},
		{"2024-06-04", "2024-06-06", false},
		{"2024-05-28", "2024-06-01", false},
	}
	for _, tc := range cases {
		got, err := ds.Bookings().HasOverlap(ctx, "l1", date(t, tc.in), date(t, tc.out))
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "%s..%s", tc.in, tc.out)
	}

	got, err := ds.Bookings().HasOverlap(ctx, "other", date(t, "2024-06-01"), date(t, "2024-06-04"))
	require.NoError(t, err)
	assert.False(t, got)

	b, err := ds.Bookings().Find(ctx, "b1")
	require.NoError(t, err)
	b.Status = model.BookingCancelled
	require.NoError(t, ds.Bookings().Update(ctx, b))
	got, err = ds.Bookings().HasOverlap(ctx, "l1", date(t, "2024-06-01"), date(t, "2024-06-04"))
	require.NoError(t, err)
	assert.False(t, got)
}

func TestListingDeleteCascades(t *testing.T) {
	ds := NewDataStore()
	seed(t, ds)
	ctx := context.Background()
	require.NoError(t, ds.Reviews().Insert(ctx, &model.Review{ID: "r1", ListingID: "l1", AuthorID: "guest", Rating: 5, Comment: "ok"}))

	require.NoError(t, ds.Listings().Delete(ctx, "l1"))
	_, err := ds.Bookings().Find(ctx, "b1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = ds.Reviews().Find(ctx, "r1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, ds.Listings().Delete(ctx, "l1"), repository.ErrNotFound)
}

func TestUserDeleteCascades(t *testing.T) {
	ds := NewDataStore()
	seed(t, ds)
	ctx := context.Background()
	now := time.Now().UTC()
	require.NoError(t, ds.Users().Create(ctx, &model.User{ID: "host", Email: "host@example.com", CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, ds.Tokens().StoreRefresh(ctx, "host", "h1", now.Add(time.Hour)))

	require.NoError(t, ds.Users().Delete(ctx, "host"))
	_, err := ds.Listings().Find(ctx, "l1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = ds.Bookings().Find(ctx, "b1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = ds.Tokens().ValidateRefresh(ctx, "h1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUsers(t *testing.T) {
	ds := NewDataStore()
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, ds.Users().Create(ctx, &model.User{ID: "u1", Email: " Ann@Example.com", CreatedAt: now, UpdatedAt: now}))
	assert.ErrorIs(t, ds.Users().Create(ctx, &model.User{ID: "u2", Email: "ann@example.com"}), repository.ErrEmailExists)

	u, err := ds.Users().GetByEmail(ctx, "ANN@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)

	require.NoError(t, ds.Users().SetResetToken(ctx, "u1", "rh", now.Add(time.Hour)))
	_, err = ds.Users().GetByResetToken(ctx, "rh", now.Add(2*time.Hour))
	assert.ErrorIs(t, err, repository.ErrNotFound)
	u, err = ds.Users().GetByResetToken(ctx, "rh", now)
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)

	require.NoError(t, ds.Users().ResetPassword(ctx, "u1", "new-hash"))
	_, err = ds.Users().GetByResetToken(ctx, "rh", now)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
