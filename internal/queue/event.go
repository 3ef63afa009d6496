// Package queue defines message payloads exchanged over the message broker
// together with the publisher and consumer that move them.
package queue

import (
    "time"

    "github.com/iliyamo/lodging-booking/internal/model"
)

// BookingEventsQueue is the durable queue all booking events go to.
const BookingEventsQueue = "booking.events"

// Event types.  Status changes use "booking." followed by the new status.
const (
    EventBookingCreated   = "booking.created"
    EventBookingConfirmed = "booking.confirmed"
    EventBookingCancelled = "booking.cancelled"
    EventBookingCompleted = "booking.completed"
    EventBookingPaid      = "booking.paid"
)

// BookingEvent is published after a booking changes.  It carries enough
// of the booking for consumers to notify the guest without querying the
// ledger again.
type BookingEvent struct {
    Type          string `json:"type"`
    BookingID     string `json:"bookingId"`
    ListingID     string `json:"listingId"`
    UserID        string `json:"userId"`
    Status        string `json:"status"`
    PaymentStatus string `json:"paymentStatus"`
    CheckIn       string `json:"checkIn"`
    CheckOut      string `json:"checkOut"`
    TotalPrice    string `json:"totalPrice"`
    OccurredAt    string `json:"occurredAt"`
}

// NewBookingEvent snapshots b into an event of the given type.
func NewBookingEvent(eventType string, b model.Booking, at time.Time) BookingEvent {
    return BookingEvent{
        Type:          eventType,
        BookingID:     b.ID,
        ListingID:     b.ListingID,
        UserID:        b.UserID,
        Status:        string(b.Status),
        PaymentStatus: string(b.PaymentStatus),
        CheckIn:       b.CheckIn.String(),
        CheckOut:      b.CheckOut.String(),
        TotalPrice:    b.TotalPrice.StringFixed(2),
        OccurredAt:    at.UTC().Format(time.RFC3339),
    }
}

// StatusEventType returns the event type for a move into status.
func StatusEventType(status model.BookingStatus) string {
    return "booking." + string(status)
}
