package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/lodging-booking/internal/repository/memory"
	"github.com/iliyamo/lodging-booking/internal/service"
)

func intp(v int) *int { return &v }

func TestReviews(t *testing.T) {
	ctx := context.Background()
	store := memory.NewDataStore()
	listings := service.NewListings(store)
	reviews := service.NewReviews(store)

	l, err := listings.Create(ctx, "host", service.ListingInput{
		Title: "Treehouse", Location: "Coorg", Country: "India", PricePerNight: decimal.NewFromInt(50),
	})
	require.NoError(t, err)

	t.Run("validation", func(t *testing.T) {
		_, err := reviews.CreateReview(ctx, l.ID, "author", nil, "nice")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Please provide both rating and comment")

		_, err = reviews.CreateReview(ctx, l.ID, "author", intp(4), "   ")
		assert.True(t, errors.Is(err, service.ErrInvalidInput))

		_, err = reviews.CreateReview(ctx, l.ID, "author", intp(6), "great")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Rating must be between 1 and 5")
	})

	t.Run("unknown listing", func(t *testing.T) {
		_, err := reviews.CreateReview(ctx, "missing", "author", intp(5), "great")
		assert.True(t, errors.Is(err, service.ErrNotFound))
	})

	t.Run("create list delete", func(t *testing.T) {
		rv, err := reviews.CreateReview(ctx, l.ID, "author", intp(5), " great stay ")
		require.NoError(t, err)
		assert.Equal(t, "great stay", rv.Comment)

		list, err := reviews.ListReviews(ctx, l.ID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, rv.ID, list[0].ID)

		err = reviews.DeleteReview(ctx, l.ID, rv.ID, "host")
		assert.True(t, errors.Is(err, service.ErrForbidden))

		err = reviews.DeleteReview(ctx, "other-listing", rv.ID, "author")
		assert.True(t, errors.Is(err, service.ErrNotFound))

		require.NoError(t, reviews.DeleteReview(ctx, l.ID, rv.ID, "author"))
		list, err = reviews.ListReviews(ctx, l.ID)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("admin delete", func(t *testing.T) {
		rv, err := reviews.CreateReview(ctx, l.ID, "author", intp(3), "ok")
		require.NoError(t, err)
		require.NoError(t, reviews.AdminDeleteReview(ctx, rv.ID))
		assert.True(t, errors.Is(reviews.AdminDeleteReview(ctx, rv.ID), service.ErrNotFound))
	})

	t.Run("listing delete cascades", func(t *testing.T) {
		_, err := reviews.CreateReview(ctx, l.ID, "author", intp(4), "cosy")
		require.NoError(t, err)

		assert.True(t, errors.Is(listings.Delete(ctx, l.ID, "author"), service.ErrForbidden))
		require.NoError(t, listings.Delete(ctx, l.ID, "host"))

		all, err := reviews.ListAllReviews(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})
}

func TestListingUpdateOwnership(t *testing.T) {
	ctx := context.Background()
	listings := service.NewListings(memory.NewDataStore())

	l, err := listings.Create(ctx, "host", service.ListingInput{
		Title: "Flat", Location: "Pune", Country: "India", PricePerNight: decimal.NewFromInt(40),
	})
	require.NoError(t, err)

	_, err = listings.Update(ctx, l.ID, "guest", service.ListingInput{Title: "Mine now"})
	assert.True(t, errors.Is(err, service.ErrForbidden))

	got, err := listings.Update(ctx, l.ID, "host", service.ListingInput{
		Title: "Bright flat", Location: "Pune", Country: "India", PricePerNight: decimal.RequireFromString("45.50"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Bright flat", got.Title)
	assert.Equal(t, "host", got.OwnerID)

	_, err = listings.Create(ctx, "host", service.ListingInput{Title: "x", PricePerNight: decimal.NewFromInt(-1)})
	assert.True(t, errors.Is(err, service.ErrInvalidInput))
}
