// Package memory provides an in-memory repository.DataStore used by tests
// and by the server when no database is configured.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/lodging-booking/internal/model"
	"github.com/iliyamo/lodging-booking/internal/repository"
)

// state is the set of tables that take part in atomic operations.
type state struct {
	listings map[string]model.Listing
	bookings map[string]model.Booking
	reviews  map[string]model.Review
}

func newState() *state {
	return &state{
		listings: make(map[string]model.Listing),
		bookings: make(map[string]model.Booking),
		reviews:  make(map[string]model.Review),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.listings {
		c.listings[k] = v
	}
	for k, v := range s.bookings {
		c.bookings[k] = v
	}
	for k, v := range s.reviews {
		c.reviews[k] = v
	}
	return c
}

// DataStore implements repository.DataStore in memory.
// Concurrency: all access is guarded by one mutex; Atomic holds it for the
// whole callback, which serializes admissions exactly like a row lock.
type DataStore struct {
	mu     sync.RWMutex
	data   *state
	users  *userStore
	tokens *tokenStore
}

// NewDataStore creates an empty in-memory DataStore.
func NewDataStore() *DataStore {
	ds := &DataStore{data: newState()}
	ds.users = &userStore{users: make(map[string]model.User), onDelete: ds.purgeUser}
	ds.tokens = &tokenStore{tokens: make(map[string]refreshRow)}
	return ds
}

func (ds *DataStore) Listings() repository.ListingRepository {
	return &listingRepo{view{ds: ds}}
}

func (ds *DataStore) Bookings() repository.BookingRepository {
	return &bookingRepo{view{ds: ds}}
}

func (ds *DataStore) Reviews() repository.ReviewRepository {
	return &reviewRepo{view{ds: ds}}
}

func (ds *DataStore) Users() repository.UserRepository   { return ds.users }
func (ds *DataStore) Tokens() repository.TokenRepository { return ds.tokens }

// Ping always succeeds.
func (ds *DataStore) Ping(context.Context) error { return nil }

// Atomic runs fn against a staged copy of the data and swaps it in only
// when fn succeeds.
func (ds *DataStore) Atomic(ctx context.Context, _ string, fn repository.AtomicCallback) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ds.mu.Lock()
	defer ds.mu.Unlock()

	staged := ds.data.clone()
	if err := fn(txRepositories{view{ds: ds, tx: staged}}); err != nil {
		return err
	}
	ds.data = staged
	return nil
}

// purgeUser mirrors the ON DELETE CASCADE foreign keys on user ids.
func (ds *DataStore) purgeUser(userID string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	for id, l := range ds.data.listings {
		if l.OwnerID == userID {
			delete(ds.data.listings, id)
		}
	}
	for id, b := range ds.data.bookings {
		if _, ok := ds.data.listings[b.ListingID]; !ok || b.UserID == userID {
			delete(ds.data.bookings, id)
		}
	}
	for id, rv := range ds.data.reviews {
		if _, ok := ds.data.listings[rv.ListingID]; !ok || rv.AuthorID == userID {
			delete(ds.data.reviews, id)
		}
	}
	_ = ds.tokens.RevokeAllForUser(context.Background(), userID)
}

type txRepositories struct{ v view }

func (t txRepositories) Listings() repository.ListingRepository { return &listingRepo{t.v} }
func (t txRepositories) Bookings() repository.BookingRepository { return &bookingRepo{t.v} }
func (t txRepositories) Reviews() repository.ReviewRepository   { return &reviewRepo{t.v} }

// view routes reads and writes either to a staged transaction state
// (already protected by the Atomic lock) or to the live state under the
// store mutex.
type view struct {
	ds *DataStore
	tx *state
}

func (v view) read(fn func(s *state)) {
	if v.tx != nil {
		fn(v.tx)
		return
	}
	v.ds.mu.RLock()
	defer v.ds.mu.RUnlock()
	fn(v.ds.data)
}

func (v view) write(fn func(s *state)) {
	if v.tx != nil {
		fn(v.tx)
		return
	}
	v.ds.mu.Lock()
	defer v.ds.mu.Unlock()
	fn(v.ds.data)
}

type listingRepo struct{ v view }

func (r *listingRepo) Create(_ context.Context, l *model.Listing) (err error) {
	r.v.write(func(s *state) {
		if _, ok := s.listings[l.ID]; ok {
			err = repository.ErrConflict
			return
		}
		s.listings[l.ID] = *l
	})
	return err
}

func (r *listingRepo) Find(_ context.Context, id string) (out *model.Listing, err error) {
	r.v.read(func(s *state) {
		l, ok := s.listings[id]
		if !ok {
			err = repository.ErrNotFound
			return
		}
		out = &l
	})
	return out, err
}

func (r *listingRepo) FindForUpdate(ctx context.Context, id string) (*model.Listing, error) {
	return r.Find(ctx, id)
}

func (r *listingRepo) List(context.Context) ([]model.Listing, error) {
	return r.filter(func(model.Listing) bool { return true }), nil
}

func (r *listingRepo) ListByOwner(_ context.Context, ownerID string) ([]model.Listing, error) {
	return r.filter(func(l model.Listing) bool { return l.OwnerID == ownerID }), nil
}

func (r *listingRepo) filter(keep func(model.Listing) bool) []model.Listing {
	out := []model.Listing{}
	r.v.read(func(s *state) {
		for _, l := range s.listings {
			if keep(l) {
				out = append(out, l)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		return newerFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out
}

func (r *listingRepo) Update(_ context.Context, l *model.Listing) (err error) {
	r.v.write(func(s *state) {
		cur, ok := s.listings[l.ID]
		if !ok {
			err = repository.ErrNotFound
			return
		}
		l.OwnerID, l.CreatedAt = cur.OwnerID, cur.CreatedAt
		s.listings[l.ID] = *l
	})
	return err
}

func (r *listingRepo) Delete(_ context.Context, id string) (err error) {
	r.v.write(func(s *state) {
		if _, ok := s.listings[id]; !ok {
			err = repository.ErrNotFound
			return
		}
		delete(s.listings, id)
		for k, b := range s.bookings {
			if b.ListingID == id {
				delete(s.bookings, k)
			}
		}
		for k, rv := range s.reviews {
			if rv.ListingID == id {
				delete(s.reviews, k)
			}
		}
	})
	return err
}

type bookingRepo struct{ v view }

func (r *bookingRepo) Insert(_ context.Context, b *model.Booking) (err error) {
	r.v.write(func(s *state) {
		if _, ok := s.bookings[b.ID]; ok {
			err = repository.ErrConflict
			return
		}
		s.bookings[b.ID] = *b
	})
	return err
}

func (r *bookingRepo) Find(_ context.Context, id string) (out *model.Booking, err error) {
	r.v.read(func(s *state) {
		b, ok := s.bookings[id]
		if !ok {
			err = repository.ErrNotFound
			return
		}
		out = &b
	})
	return out, err
}

func (r *bookingRepo) FindForUpdate(ctx context.Context, id string) (*model.Booking, error) {
	return r.Find(ctx, id)
}

func (r *bookingRepo) HasOverlap(_ context.Context, listingID string, checkIn, checkOut model.Date) (found bool, _ error) {
	r.v.read(func(s *state) {
		for _, b := range s.bookings {
			if b.ListingID == listingID && b.Status.Active() && b.Overlaps(checkIn, checkOut) {
				found = true
				return
			}
		}
	})
	return found, nil
}

func (r *bookingRepo) Update(_ context.Context, b *model.Booking) (err error) {
	r.v.write(func(s *state) {
		cur, ok := s.bookings[b.ID]
		if !ok {
			err = repository.ErrNotFound
			return
		}
		cur.PaymentMethod = b.PaymentMethod
		cur.PaymentStatus = b.PaymentStatus
		cur.OrderID = b.OrderID
		cur.Status = b.Status
		cur.UpdatedAt = b.UpdatedAt
		s.bookings[b.ID] = cur
	})
	return err
}

func (r *bookingRepo) Delete(_ context.Context, id string) (err error) {
	r.v.write(func(s *state) {
		if _, ok := s.bookings[id]; !ok {
			err = repository.ErrNotFound
			return
		}
		delete(s.bookings, id)
	})
	return err
}

func (r *bookingRepo) ListByUser(_ context.Context, userID string) ([]model.Booking, error) {
	return r.filter(func(_ *state, b model.Booking) bool { return b.UserID == userID }), nil
}

func (r *bookingRepo) ListByListingOwner(_ context.Context, ownerID string) ([]model.Booking, error) {
	return r.filter(func(s *state, b model.Booking) bool {
		l, ok := s.listings[b.ListingID]
		return ok && l.OwnerID == ownerID
	}), nil
}

func (r *bookingRepo) ListAll(context.Context) ([]model.Booking, error) {
	return r.filter(func(*state, model.Booking) bool { return true }), nil
}

func (r *bookingRepo) filter(keep func(*state, model.Booking) bool) []model.Booking {
	out := []model.Booking{}
	r.v.read(func(s *state) {
		for _, b := range s.bookings {
			if keep(s, b) {
				out = append(out, b)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		return newerFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out
}

type reviewRepo struct{ v view }

func (r *reviewRepo) Insert(_ context.Context, rv *model.Review) (err error) {
	r.v.write(func(s *state) {
		if _, ok := s.listings[rv.ListingID]; !ok {
			err = repository.ErrNotFound
			return
		}
		s.reviews[rv.ID] = *rv
	})
	return err
}

func (r *reviewRepo) Find(_ context.Context, id string) (out *model.Review, err error) {
	r.v.read(func(s *state) {
		rv, ok := s.reviews[id]
		if !ok {
			err = repository.ErrNotFound
			return
		}
		out = &rv
	})
	return out, err
}

func (r *reviewRepo) ListByListing(_ context.Context, listingID string) ([]model.Review, error) {
	out := []model.Review{}
	r.v.read(func(s *state) {
		for _, rv := range s.reviews {
			if rv.ListingID == listingID {
				out = append(out, rv)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		return newerFirst(out[j].CreatedAt, out[i].CreatedAt, out[j].ID, out[i].ID)
	})
	return out, nil
}

func (r *reviewRepo) ListAll(context.Context) ([]model.Review, error) {
	out := []model.Review{}
	r.v.read(func(s *state) {
		for _, rv := range s.reviews {
			out = append(out, rv)
		}
	})
	sort.Slice(out, func(i, j int) bool {
		return newerFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

func (r *reviewRepo) Delete(_ context.Context, id string) (err error) {
	r.v.write(func(s *state) {
		if _, ok := s.reviews[id]; !ok {
			err = repository.ErrNotFound
			return
		}
		delete(s.reviews, id)
	})
	return err
}

// newerFirst orders by creation time descending, then id descending.
func newerFirst(a, b time.Time, aID, bID string) bool {
	if !a.Equal(b) {
		return a.After(b)
	}
	return strings.Compare(aID, bID) > 0
}

var _ repository.DataStore = (*DataStore)(nil)
