package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/lodging-booking/internal/logging"
	"github.com/iliyamo/lodging-booking/internal/model"
	"github.com/iliyamo/lodging-booking/internal/policy"
	"github.com/iliyamo/lodging-booking/internal/repository"
)

const msgReviewNotFound = "Review not found"

// Reviews attaches reviews to listings.  The listing row is never
// rewritten; a review belongs to a listing through its listing id.
type Reviews struct {
	store repository.DataStore
	now   func() time.Time
}

func NewReviews(store repository.DataStore) *Reviews {
	return &Reviews{store: store, now: time.Now}
}

// CreateReview validates and stores a review for an existing listing.
// A nil rating means the field was missing from the request.
func (s *Reviews) CreateReview(ctx context.Context, listingID, authorID string, rating *int, comment string) (*model.Review, error) {
	comment = strings.TrimSpace(comment)
	if rating == nil || comment == "" {
		return nil, invalidInput("Please provide both rating and comment")
	}
	if *rating < 1 || *rating > 5 {
		return nil, invalidInput("Rating must be between 1 and 5")
	}

	now := s.now().UTC()
	rv := &model.Review{
		ID:        uuid.NewString(),
		ListingID: listingID,
		AuthorID:  authorID,
		Rating:    *rating,
		Comment:   comment,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := s.store.Atomic(ctx, "create_review", func(repos repository.Repositories) error {
		if _, err := repos.Listings().Find(ctx, listingID); err != nil {
			return err
		}
		return repos.Reviews().Insert(ctx, rv)
	})
	if err != nil {
		return nil, classify(err, "create review", msgListingNotFound)
	}
	logging.InfoContext(ctx, "review created", "review_id", rv.ID, "listing_id", listingID)
	return rv, nil
}

// DeleteReview removes a review written by actorID.  Lookup, author check
// and delete share one transaction.
func (s *Reviews) DeleteReview(ctx context.Context, listingID, reviewID, actorID string) error {
	err := s.store.Atomic(ctx, "delete_review", func(repos repository.Repositories) error {
		rv, err := repos.Reviews().Find(ctx, reviewID)
		if err != nil {
			return err
		}
		if rv.ListingID != listingID {
			return notFound(msgReviewNotFound)
		}
		if !policy.CanMutateReview(actorID, *rv) {
			return forbidden(policy.MsgNotReviewAuthor)
		}
		return repos.Reviews().Delete(ctx, reviewID)
	})
	if err != nil {
		return classify(err, "delete review", msgReviewNotFound)
	}
	logging.InfoContext(ctx, "review deleted", "review_id", reviewID, "listing_id", listingID)
	return nil
}

// AdminDeleteReview removes any review.
func (s *Reviews) AdminDeleteReview(ctx context.Context, reviewID string) error {
	err := s.store.Atomic(ctx, "delete_review", func(repos repository.Repositories) error {
		return repos.Reviews().Delete(ctx, reviewID)
	})
	return classify(err, "delete review", msgReviewNotFound)
}

// ListReviews returns the reviews of a listing, oldest first.
func (s *Reviews) ListReviews(ctx context.Context, listingID string) ([]model.Review, error) {
	out, err := s.store.Reviews().ListByListing(ctx, listingID)
	if err != nil {
		return nil, Upstream("list reviews failed", err)
	}
	return out, nil
}

// ListAllReviews returns every review, newest first.
func (s *Reviews) ListAllReviews(ctx context.Context) ([]model.Review, error) {
	out, err := s.store.Reviews().ListAll(ctx)
	if err != nil {
		return nil, Upstream("list reviews failed", err)
	}
	return out, nil
}
