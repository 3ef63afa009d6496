package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lodging-booking/internal/handler"
	"github.com/iliyamo/lodging-booking/internal/middleware"
)

// RegisterListings registers the listing directory and the review routes
// nested under a listing.  Only the public GETs go through the response
// cache; every write on them clears it.
func RegisterListings(e *echo.Echo, d Deps) {
	lh := handler.NewListingHandler(d.Listings, d.Reviews, d.Maps)
	rh := handler.NewReviewHandler(d.Reviews)
	cache := middleware.NewRedisCache(d.Cfg.Cache, d.Redis)
	invalidate := middleware.InvalidateCache(d.Cfg.Cache, d.Redis)

	e.GET("/v1/listings", lh.List, cache)
	e.GET("/v1/listings/:id", lh.Get, cache)
	e.GET("/v1/listings/:id/reviews", rh.List, cache)

	g := e.Group("/v1", middleware.JWTAuth(d.Cfg.JWTSecret))
	g.POST("/listings", lh.Create, invalidate)
	g.PUT("/listings/:id", lh.Update, middleware.RequireListingOwner(d.Store.Listings()), invalidate)
	g.DELETE("/listings/:id", lh.Delete, middleware.RequireListingOwner(d.Store.Listings()), invalidate)

	g.POST("/listings/:id/reviews", rh.Create, invalidate)
	g.DELETE("/listings/:id/reviews/:reviewId", rh.Delete, middleware.RequireReviewAuthor(d.Store.Reviews()), invalidate)
}
