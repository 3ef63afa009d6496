package model

import "time"

// Review is a guest's rating of a listing.  A listing's review list is the
// set of reviews whose ListingID points at it.
type Review struct {
    ID        string    `json:"id"`
    ListingID string    `json:"listingId"`
    AuthorID  string    `json:"authorId"`
    Rating    int       `json:"rating"`
    Comment   string    `json:"comment"`
    CreatedAt time.Time `json:"createdAt"`
    UpdatedAt time.Time `json:"updatedAt"`
}
