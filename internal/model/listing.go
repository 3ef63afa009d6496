package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// Listing represents a rentable unit as stored in the `listings` table.
// Availability is not tracked here; it is derived from bookings.
type Listing struct {
    ID            string          `json:"id"`            // listings.id (UUID)
    OwnerID       string          `json:"ownerId"`       // listings.owner_id
    Title         string          `json:"title"`         // listings.title
    Description   string          `json:"description"`   // listings.description
    Location      string          `json:"location"`      // listings.location
    Country       string          `json:"country"`       // listings.country
    PricePerNight decimal.Decimal `json:"pricePerNight"` // listings.price_per_night
    ImageURL      string          `json:"imageUrl"`      // listings.image_url
    CreatedAt     time.Time       `json:"createdAt"`     // listings.created_at
    UpdatedAt     time.Time       `json:"updatedAt"`     // listings.updated_at
}
