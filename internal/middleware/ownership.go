package middleware

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/lodging-booking/internal/logging"
    "github.com/iliyamo/lodging-booking/internal/policy"
    "github.com/iliyamo/lodging-booking/internal/repository"
)

// RequireListingOwner lets the request through only when the caller owns
// the listing named by the :id path parameter.
func RequireListingOwner(listings repository.ListingRepository) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            l, err := listings.Find(c.Request().Context(), c.Param("id"))
            if err != nil {
                return lookupFailed(c, err, "Listing not found")
            }
            if !policy.CanMutateListing(UserID(c), *l) {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden", "message": policy.MsgNotListingOwner})
            }
            return next(c)
        }
    }
}

// RequireReviewAuthor lets the request through only when the caller wrote
// the review named by the :reviewId path parameter.
func RequireReviewAuthor(reviews repository.ReviewRepository) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            rv, err := reviews.Find(c.Request().Context(), c.Param("reviewId"))
            if err != nil {
                return lookupFailed(c, err, "Review not found")
            }
            if !policy.CanMutateReview(UserID(c), *rv) {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden", "message": policy.MsgNotReviewAuthor})
            }
            return next(c)
        }
    }
}

func lookupFailed(c echo.Context, err error, notFoundMsg string) error {
    if errors.Is(err, repository.ErrNotFound) {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found", "message": notFoundMsg})
    }
    logging.ErrorContext(c.Request().Context(), "ownership lookup failed", "error", err)
    return c.JSON(http.StatusBadGateway, echo.Map{"error": "upstream_failure", "message": "database error"})
}
