// Package policy holds the ownership rules shared by middleware and
// services.  Every check is a pure function; an empty actor id is never
// authorized.
package policy

import "github.com/iliyamo/lodging-booking/internal/model"

const (
	MsgNotListingOwner = "You are not the owner of this listing"
	MsgNotReviewAuthor = "You are not the author of this review"
	MsgNotBookingOwner = "You are not the owner of this booking"
)

// CanViewBooking reports whether actor is the guest or the host.
func CanViewBooking(actor string, b model.Booking, l model.Listing) bool {
	if actor == "" {
		return false
	}
	return actor == b.UserID || actor == l.OwnerID
}

// CanMutateListing reports whether actor owns the listing.
func CanMutateListing(actor string, l model.Listing) bool {
	return actor != "" && actor == l.OwnerID
}

// CanMutateReview reports whether actor wrote the review.
func CanMutateReview(actor string, r model.Review) bool {
	return actor != "" && actor == r.AuthorID
}

// CanCancelBooking reports whether actor made the booking.  The same rule
// governs payment changes and deletion.
func CanCancelBooking(actor string, b model.Booking) bool {
	return actor != "" && actor == b.UserID
}

// CanManageBooking reports whether actor hosts the booked listing and may
// confirm or complete the booking.
func CanManageBooking(actor string, l model.Listing) bool {
	return CanMutateListing(actor, l)
}
