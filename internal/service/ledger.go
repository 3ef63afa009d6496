// Package service implements the booking ledger and review attachment on
// top of a repository.DataStore.  Every state change runs inside one
// DataStore.Atomic call so that validation and write see the same data.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/lodging-booking/internal/logging"
	"github.com/iliyamo/lodging-booking/internal/metrics"
	"github.com/iliyamo/lodging-booking/internal/model"
	"github.com/iliyamo/lodging-booking/internal/policy"
	"github.com/iliyamo/lodging-booking/internal/queue"
	"github.com/iliyamo/lodging-booking/internal/repository"
)

const (
	msgPhoneRequired      = "Phone number is required for booking"
	msgInvalidDate        = "Invalid date format"
	msgCheckoutAfter      = "Check-out date must be after check-in date"
	msgGuestsRequired     = "Number of guests is required and must be at least 1"
	msgCheckInPast        = "Check-in date cannot be in the past"
	msgListingNotFound    = "Listing not found"
	msgBookingNotFound    = "Booking not found"
	msgDatesUnavailable   = "These dates are not available"
	msgMethodWhilePending = "Payment method can only be changed while the booking is pending"
	msgPaymentInactive    = "Payments can only be recorded for pending or confirmed bookings"
	msgAlreadyPaid        = "Booking is already paid"
	msgOrderMismatch      = "Payment order does not belong to this booking"
)

// EventPublisher delivers booking events to the broker.
type EventPublisher interface {
	Publish(ctx context.Context, evt queue.BookingEvent) error
}

// Ledger owns booking admission and the booking lifecycle.
type Ledger struct {
	store  repository.DataStore
	events EventPublisher
	now    func() time.Time
}

// NewLedger creates a Ledger.  events may be nil, in which case nothing
// is published.
func NewLedger(store repository.DataStore, events EventPublisher) *Ledger {
	return &Ledger{store: store, events: events, now: time.Now}
}

// WithClock replaces the clock used for "today" and timestamps.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// CreateBookingInput is the raw booking request.  Dates are strings so the
// ledger owns date validation.
type CreateBookingInput struct {
	ListingID       string
	UserID          string
	CheckIn         string
	CheckOut        string
	Guests          int
	PhoneNumber     string
	SpecialRequests string
}

// CreateBooking admits a booking when the listing exists and no pending or
// confirmed booking overlaps the requested nights.
func (l *Ledger) CreateBooking(ctx context.Context, in CreateBookingInput) (*model.Booking, error) {
	phone := strings.TrimSpace(in.PhoneNumber)
	if phone == "" {
		return nil, invalidInput(msgPhoneRequired)
	}
	checkIn, err := model.ParseDate(in.CheckIn)
	if err != nil {
		return nil, invalidInput(msgInvalidDate)
	}
	checkOut, err := model.ParseDate(in.CheckOut)
	if err != nil {
		return nil, invalidInput(msgInvalidDate)
	}
	if !checkIn.Before(checkOut) {
		return nil, invalidInput(msgCheckoutAfter)
	}
	if in.Guests < 1 {
		return nil, invalidInput(msgGuestsRequired)
	}
	now := l.now().UTC()
	if checkIn.Before(model.NewDate(now)) {
		return nil, invalidInput(msgCheckInPast)
	}

	var booking *model.Booking
	err = l.store.Atomic(ctx, "create_booking", func(repos repository.Repositories) error {
		listing, err := repos.Listings().FindForUpdate(ctx, in.ListingID)
		if err != nil {
			return err
		}
		taken, err := repos.Bookings().HasOverlap(ctx, listing.ID, checkIn, checkOut)
		if err != nil {
			return err
		}
		if taken {
			return conflict(msgDatesUnavailable)
		}

		nights := checkIn.NightsUntil(checkOut)
		b := &model.Booking{
			ID:              uuid.NewString(),
			ListingID:       listing.ID,
			UserID:          in.UserID,
			CheckIn:         checkIn,
			CheckOut:        checkOut,
			Guests:          in.Guests,
			PhoneNumber:     phone,
			SpecialRequests: strings.TrimSpace(in.SpecialRequests),
			DurationNights:  nights,
			TotalPrice:      listing.PricePerNight.Mul(decimal.NewFromInt(int64(nights))),
			PaymentMethod:   model.MethodCreditCard,
			PaymentStatus:   model.PaymentPending,
			Status:          model.BookingPending,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := repos.Bookings().Insert(ctx, b); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		err = classify(err, "create booking", msgListingNotFound)
		switch {
		case errors.Is(err, ErrConflict):
			metrics.RecordAdmission("conflict")
		case errors.Is(err, ErrNotFound):
			metrics.RecordAdmission("not_found")
		default:
			metrics.RecordAdmission("error")
		}
		return nil, err
	}

	metrics.RecordAdmission("admitted")
	logging.InfoContext(ctx, "booking created",
		"booking_id", booking.ID,
		"listing_id", booking.ListingID,
		"check_in", booking.CheckIn.String(),
		"check_out", booking.CheckOut.String(),
		"total_price", booking.TotalPrice.StringFixed(2),
	)
	l.publish(ctx, queue.EventBookingCreated, *booking)
	return booking, nil
}

// TransitionStatus moves a booking to a new status on behalf of actorID.
// The listing owner confirms and completes; the guest cancels.
func (l *Ledger) TransitionStatus(ctx context.Context, bookingID, actorID, newStatus string) (*model.Booking, error) {
	return l.transition(ctx, bookingID, newStatus, func(b model.Booking, listing model.Listing, to model.BookingStatus) error {
		switch to {
		case model.BookingConfirmed, model.BookingCompleted:
			if !policy.CanManageBooking(actorID, listing) {
				return forbidden(policy.MsgNotListingOwner)
			}
		case model.BookingCancelled:
			if !policy.CanCancelBooking(actorID, b) {
				return forbidden(policy.MsgNotBookingOwner)
			}
		}
		return nil
	})
}

// AdminTransitionStatus applies the same transition rules without any
// ownership check.
func (l *Ledger) AdminTransitionStatus(ctx context.Context, bookingID, newStatus string) (*model.Booking, error) {
	return l.transition(ctx, bookingID, newStatus, nil)
}

type authorizeFunc func(b model.Booking, listing model.Listing, to model.BookingStatus) error

func (l *Ledger) transition(ctx context.Context, bookingID, newStatus string, authorize authorizeFunc) (*model.Booking, error) {
	to, err := model.ParseBookingStatus(newStatus)
	if err != nil {
		return nil, invalidInput("Invalid booking status")
	}

	var (
		updated *model.Booking
		from    model.BookingStatus
	)
	err = l.store.Atomic(ctx, "transition_booking", func(repos repository.Repositories) error {
		b, err := repos.Bookings().FindForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		listing, err := repos.Listings().Find(ctx, b.ListingID)
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(msgListingNotFound)
		}
		if err != nil {
			return err
		}
		if to == model.BookingPending {
			return invalidTransition("A booking cannot be moved back to pending")
		}
		if authorize != nil {
			if err := authorize(*b, *listing, to); err != nil {
				return err
			}
		}
		if !model.CanTransition(b.Status, to) {
			return invalidTransition("Cannot change booking status from " + string(b.Status) + " to " + string(to))
		}

		from = b.Status
		b.Status = to
		if to == model.BookingCancelled && b.PaymentStatus == model.PaymentPaid {
			b.PaymentStatus = model.PaymentRefunded
		}
		b.UpdatedAt = l.now().UTC()
		if err := repos.Bookings().Update(ctx, b); err != nil {
			return err
		}
		updated = b
		return nil
	})
	if err != nil {
		return nil, classify(err, "transition booking", msgBookingNotFound)
	}

	metrics.RecordTransition(string(from), string(to))
	logging.InfoContext(ctx, "booking status changed",
		"booking_id", updated.ID,
		"from", string(from),
		"to", string(to),
		"payment_status", string(updated.PaymentStatus),
	)
	l.publish(ctx, queue.StatusEventType(to), *updated)
	return updated, nil
}

// UpdatePaymentMethod changes the payment method of a pending booking.
func (l *Ledger) UpdatePaymentMethod(ctx context.Context, bookingID, actorID, method string) (*model.Booking, error) {
	pm, err := model.ParsePaymentMethod(method)
	if err != nil {
		return nil, invalidInput("Invalid payment method")
	}

	var updated *model.Booking
	err = l.store.Atomic(ctx, "update_payment_method", func(repos repository.Repositories) error {
		b, err := repos.Bookings().FindForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if !policy.CanCancelBooking(actorID, *b) {
			return forbidden(policy.MsgNotBookingOwner)
		}
		if b.Status != model.BookingPending {
			return invalidTransition(msgMethodWhilePending)
		}
		b.PaymentMethod = pm
		b.UpdatedAt = l.now().UTC()
		if err := repos.Bookings().Update(ctx, b); err != nil {
			return err
		}
		updated = b
		return nil
	})
	if err != nil {
		return nil, classify(err, "update payment method", msgBookingNotFound)
	}
	return updated, nil
}

// checkPayable reports why b cannot take a payment from actorID, if at all.
func checkPayable(actorID string, b model.Booking) error {
	if !policy.CanCancelBooking(actorID, b) {
		return forbidden(policy.MsgNotBookingOwner)
	}
	if !b.Status.Active() {
		return invalidTransition(msgPaymentInactive)
	}
	if b.PaymentStatus == model.PaymentPaid {
		return invalidTransition(msgAlreadyPaid)
	}
	return nil
}

// PayableBooking returns a booking of actorID that can still be paid. The
// caller opens a gateway order for its TotalPrice and hands the order id
// to AttachOrder.
func (l *Ledger) PayableBooking(ctx context.Context, bookingID, actorID string) (*model.Booking, error) {
	b, err := l.store.Bookings().Find(ctx, bookingID)
	if err != nil {
		return nil, classify(err, "load booking", msgBookingNotFound)
	}
	if err := checkPayable(actorID, *b); err != nil {
		return nil, err
	}
	return b, nil
}

// AttachOrder binds a gateway order to the booking. A later order
// replaces an earlier one that was never paid.
func (l *Ledger) AttachOrder(ctx context.Context, bookingID, actorID, orderID string) (*model.Booking, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, invalidInput("Order id is required")
	}
	var updated *model.Booking
	err := l.store.Atomic(ctx, "attach_order", func(repos repository.Repositories) error {
		b, err := repos.Bookings().FindForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if err := checkPayable(actorID, *b); err != nil {
			return err
		}
		b.OrderID = orderID
		b.UpdatedAt = l.now().UTC()
		if err := repos.Bookings().Update(ctx, b); err != nil {
			return err
		}
		updated = b
		return nil
	})
	if err != nil {
		return nil, classify(err, "attach order", msgBookingNotFound)
	}
	logging.InfoContext(ctx, "payment order attached", "booking_id", updated.ID, "order_id", orderID)
	return updated, nil
}

// RecordPayment stores the outcome of a verified payment attempt. orderID
// must be the order attached to the booking, otherwise nothing is written.
func (l *Ledger) RecordPayment(ctx context.Context, bookingID, actorID, orderID string, paid bool) (*model.Booking, error) {
	var updated *model.Booking
	err := l.store.Atomic(ctx, "record_payment", func(repos repository.Repositories) error {
		b, err := repos.Bookings().FindForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if err := checkPayable(actorID, *b); err != nil {
			return err
		}
		if b.OrderID == "" || b.OrderID != orderID {
			return invalidInput(msgOrderMismatch)
		}
		b.PaymentStatus = model.PaymentFailed
		if paid {
			b.PaymentStatus = model.PaymentPaid
		}
		b.UpdatedAt = l.now().UTC()
		if err := repos.Bookings().Update(ctx, b); err != nil {
			return err
		}
		updated = b
		return nil
	})
	if err != nil {
		return nil, classify(err, "record payment", msgBookingNotFound)
	}

	logging.InfoContext(ctx, "booking payment recorded",
		"booking_id", updated.ID,
		"order_id", orderID,
		"payment_status", string(updated.PaymentStatus),
	)
	if paid {
		l.publish(ctx, queue.EventBookingPaid, *updated)
	}
	return updated, nil
}

// DeleteBooking removes a booking owned by actorID.
func (l *Ledger) DeleteBooking(ctx context.Context, bookingID, actorID string) error {
	return l.delete(ctx, bookingID, func(b model.Booking) error {
		if !policy.CanCancelBooking(actorID, b) {
			return forbidden(policy.MsgNotBookingOwner)
		}
		return nil
	})
}

// AdminDeleteBooking removes any booking.
func (l *Ledger) AdminDeleteBooking(ctx context.Context, bookingID string) error {
	return l.delete(ctx, bookingID, nil)
}

func (l *Ledger) delete(ctx context.Context, bookingID string, authorize func(model.Booking) error) error {
	err := l.store.Atomic(ctx, "delete_booking", func(repos repository.Repositories) error {
		b, err := repos.Bookings().FindForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if authorize != nil {
			if err := authorize(*b); err != nil {
				return err
			}
		}
		return repos.Bookings().Delete(ctx, bookingID)
	})
	if err != nil {
		return classify(err, "delete booking", msgBookingNotFound)
	}
	logging.InfoContext(ctx, "booking deleted", "booking_id", bookingID)
	return nil
}

// GetBooking returns a booking visible to actorID, that is the guest or
// the host.
func (l *Ledger) GetBooking(ctx context.Context, bookingID, actorID string) (*model.Booking, error) {
	b, err := l.store.Bookings().Find(ctx, bookingID)
	if err != nil {
		return nil, classify(err, "get booking", msgBookingNotFound)
	}
	listing, err := l.store.Listings().Find(ctx, b.ListingID)
	if err != nil {
		return nil, classify(err, "get booking", msgListingNotFound)
	}
	if !policy.CanViewBooking(actorID, *b, *listing) {
		return nil, forbidden("You are not allowed to view this booking")
	}
	return b, nil
}

// ListBookingsForUser returns the bookings made by userID, newest first.
func (l *Ledger) ListBookingsForUser(ctx context.Context, userID string) ([]model.Booking, error) {
	out, err := l.store.Bookings().ListByUser(ctx, userID)
	if err != nil {
		return nil, Upstream("list bookings failed", err)
	}
	return out, nil
}

// ListBookingsForListingOwner returns the bookings on every listing owned
// by ownerID, newest first.
func (l *Ledger) ListBookingsForListingOwner(ctx context.Context, ownerID string) ([]model.Booking, error) {
	out, err := l.store.Bookings().ListByListingOwner(ctx, ownerID)
	if err != nil {
		return nil, Upstream("list bookings failed", err)
	}
	return out, nil
}

// ListAllBookings returns every booking, newest first.
func (l *Ledger) ListAllBookings(ctx context.Context) ([]model.Booking, error) {
	out, err := l.store.Bookings().ListAll(ctx)
	if err != nil {
		return nil, Upstream("list bookings failed", err)
	}
	return out, nil
}

// publish sends evt after commit.  Failures are logged and never reach the
// caller.
func (l *Ledger) publish(ctx context.Context, eventType string, b model.Booking) {
	if l.events == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	if err := l.events.Publish(pubCtx, queue.NewBookingEvent(eventType, b, l.now())); err != nil {
		logging.WarnContext(ctx, "booking event not published",
			"event", eventType,
			"booking_id", b.ID,
			"error", err,
		)
	}
}
