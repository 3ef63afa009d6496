package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"
    "github.com/shopspring/decimal"

    "github.com/iliyamo/lodging-booking/internal/logging"
    "github.com/iliyamo/lodging-booking/internal/maptoken"
    "github.com/iliyamo/lodging-booking/internal/middleware"
    "github.com/iliyamo/lodging-booking/internal/model"
    "github.com/iliyamo/lodging-booking/internal/service"
)

// ListingHandler serves the listing directory.
type ListingHandler struct {
    Listings *service.Listings
    Reviews  *service.Reviews
    Maps     *maptoken.Cache // optional; nil leaves map fields empty
}

func NewListingHandler(l *service.Listings, r *service.Reviews, maps *maptoken.Cache) *ListingHandler {
    return &ListingHandler{Listings: l, Reviews: r, Maps: maps}
}

type listingReq struct {
    Title         string           `json:"title" validate:"required,max=200"`
    Description   string           `json:"description"`
    Location      string           `json:"location" validate:"required"`
    Country       string           `json:"country" validate:"required"`
    PricePerNight *decimal.Decimal `json:"pricePerNight"`
    ImageURL      string           `json:"imageUrl" validate:"omitempty,url"`
}

type listingDetail struct {
    Listing     *model.Listing `json:"listing"`
    Reviews     []model.Review `json:"reviews"`
    MapToken    string         `json:"mapToken"`
    MapClientID string         `json:"mapClientId"`
}

// bindListing decodes, trims and validates a listing body.
func bindListing(c echo.Context) (service.ListingInput, error) {
    var req listingReq
    if err := c.Bind(&req); err != nil {
        return service.ListingInput{}, service.InvalidInput("Invalid request body")
    }
    req.Title = strings.TrimSpace(req.Title)
    req.Location = strings.TrimSpace(req.Location)
    req.Country = strings.TrimSpace(req.Country)
    req.ImageURL = strings.TrimSpace(req.ImageURL)
    if err := c.Validate(&req); err != nil {
        return service.ListingInput{}, service.InvalidInput(validationMessage(err))
    }
    if req.PricePerNight == nil {
        return service.ListingInput{}, service.InvalidInput("pricePerNight is required")
    }
    return service.ListingInput{
        Title:         req.Title,
        Description:   strings.TrimSpace(req.Description),
        Location:      req.Location,
        Country:       req.Country,
        PricePerNight: *req.PricePerNight,
        ImageURL:      req.ImageURL,
    }, nil
}

// Create handles POST /v1/listings.
func (h *ListingHandler) Create(c echo.Context) error {
    in, err := bindListing(c)
    if err != nil {
        return writeError(c, err)
    }
    l, err := h.Listings.Create(c.Request().Context(), middleware.UserID(c), in)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, l)
}

// List handles GET /v1/listings.
func (h *ListingHandler) List(c echo.Context) error {
    items, err := h.Listings.List(c.Request().Context())
    if err != nil {
        return writeError(c, err)
    }
    if items == nil {
        items = []model.Listing{}
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /v1/listings/:id.  The response carries the reviews and
// a map access token for the client-side map widget.
func (h *ListingHandler) Get(c echo.Context) error {
    ctx := c.Request().Context()
    l, err := h.Listings.Get(ctx, c.Param("id"))
    if err != nil {
        return writeError(c, err)
    }
    reviews, err := h.Reviews.ListReviews(ctx, l.ID)
    if err != nil {
        return writeError(c, err)
    }
    if reviews == nil {
        reviews = []model.Review{}
    }
    out := listingDetail{Listing: l, Reviews: reviews}
    if h.Maps != nil {
        tok, err := h.Maps.Token(ctx)
        if err != nil {
            logging.WarnContext(ctx, "map token unavailable", "error", err)
        } else {
            out.MapToken = tok
            out.MapClientID = h.Maps.ClientID()
        }
    }
    return c.JSON(http.StatusOK, out)
}

// Update handles PUT /v1/listings/:id.
func (h *ListingHandler) Update(c echo.Context) error {
    in, err := bindListing(c)
    if err != nil {
        return writeError(c, err)
    }
    l, err := h.Listings.Update(c.Request().Context(), c.Param("id"), middleware.UserID(c), in)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, l)
}

// Delete handles DELETE /v1/listings/:id.
func (h *ListingHandler) Delete(c echo.Context) error {
    if err := h.Listings.Delete(c.Request().Context(), c.Param("id"), middleware.UserID(c)); err != nil {
        return writeError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}
