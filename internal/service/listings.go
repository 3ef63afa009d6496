package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/lodging-booking/internal/logging"
	"github.com/iliyamo/lodging-booking/internal/model"
	"github.com/iliyamo/lodging-booking/internal/policy"
	"github.com/iliyamo/lodging-booking/internal/repository"
)

// ListingInput carries the editable fields of a listing.  Field rules are
// enforced by the handler's validator before it gets here.
type ListingInput struct {
	Title         string
	Description   string
	Location      string
	Country       string
	PricePerNight decimal.Decimal
	ImageURL      string
}

// Listings is the listing directory.
type Listings struct {
	store repository.DataStore
	now   func() time.Time
}

func NewListings(store repository.DataStore) *Listings {
	return &Listings{store: store, now: time.Now}
}

// Create stores a new listing owned by ownerID.
func (s *Listings) Create(ctx context.Context, ownerID string, in ListingInput) (*model.Listing, error) {
	if in.PricePerNight.IsNegative() {
		return nil, invalidInput("Price per night cannot be negative")
	}
	now := s.now().UTC()
	l := &model.Listing{
		ID:            uuid.NewString(),
		OwnerID:       ownerID,
		Title:         in.Title,
		Description:   in.Description,
		Location:      in.Location,
		Country:       in.Country,
		PricePerNight: in.PricePerNight,
		ImageURL:      in.ImageURL,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.Listings().Create(ctx, l); err != nil {
		return nil, classify(err, "create listing", msgListingNotFound)
	}
	logging.InfoContext(ctx, "listing created", "listing_id", l.ID)
	return l, nil
}

// Get returns one listing.
func (s *Listings) Get(ctx context.Context, id string) (*model.Listing, error) {
	l, err := s.store.Listings().Find(ctx, id)
	if err != nil {
		return nil, classify(err, "get listing", msgListingNotFound)
	}
	return l, nil
}

// List returns every listing, newest first.
func (s *Listings) List(ctx context.Context) ([]model.Listing, error) {
	out, err := s.store.Listings().List(ctx)
	if err != nil {
		return nil, Upstream("list listings failed", err)
	}
	return out, nil
}

// Update replaces the editable fields of a listing owned by actorID.
func (s *Listings) Update(ctx context.Context, id, actorID string, in ListingInput) (*model.Listing, error) {
	if in.PricePerNight.IsNegative() {
		return nil, invalidInput("Price per night cannot be negative")
	}
	var updated *model.Listing
	err := s.store.Atomic(ctx, "update_listing", func(repos repository.Repositories) error {
		l, err := repos.Listings().FindForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !policy.CanMutateListing(actorID, *l) {
			return forbidden(policy.MsgNotListingOwner)
		}
		l.Title = in.Title
		l.Description = in.Description
		l.Location = in.Location
		l.Country = in.Country
		l.PricePerNight = in.PricePerNight
		l.ImageURL = in.ImageURL
		l.UpdatedAt = s.now().UTC()
		if err := repos.Listings().Update(ctx, l); err != nil {
			return err
		}
		updated = l
		return nil
	})
	if err != nil {
		return nil, classify(err, "update listing", msgListingNotFound)
	}
	return updated, nil
}

// Delete removes a listing owned by actorID together with its bookings
// and reviews.
func (s *Listings) Delete(ctx context.Context, id, actorID string) error {
	return s.delete(ctx, id, func(l model.Listing) error {
		if !policy.CanMutateListing(actorID, l) {
			return forbidden(policy.MsgNotListingOwner)
		}
		return nil
	})
}

// AdminDelete removes any listing.
func (s *Listings) AdminDelete(ctx context.Context, id string) error {
	return s.delete(ctx, id, nil)
}

func (s *Listings) delete(ctx context.Context, id string, authorize func(model.Listing) error) error {
	err := s.store.Atomic(ctx, "delete_listing", func(repos repository.Repositories) error {
		l, err := repos.Listings().FindForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if authorize != nil {
			if err := authorize(*l); err != nil {
				return err
			}
		}
		return repos.Listings().Delete(ctx, id)
	})
	if err != nil {
		return classify(err, "delete listing", msgListingNotFound)
	}
	logging.InfoContext(ctx, "listing deleted", "listing_id", id)
	return nil
}
