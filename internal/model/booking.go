package model

import (
    "fmt"
    "strings"
    "time"

    "github.com/shopspring/decimal"
)

// DateLayout is the wire and storage format of booking dates.
const DateLayout = "2006-01-02"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
    BookingPending   BookingStatus = "pending"
    BookingConfirmed BookingStatus = "confirmed"
    BookingCancelled BookingStatus = "cancelled"
    BookingCompleted BookingStatus = "completed"
)

// ParseBookingStatus accepts any casing of a known status.
func ParseBookingStatus(s string) (BookingStatus, error) {
    switch st := BookingStatus(strings.ToLower(strings.TrimSpace(s))); st {
    case BookingPending, BookingConfirmed, BookingCancelled, BookingCompleted:
        return st, nil
    }
    return "", fmt.Errorf("unknown booking status %q", s)
}

// Active reports whether the booking still occupies its dates.  Only
// pending and confirmed bookings take part in overlap checks.
func (s BookingStatus) Active() bool {
    return s == BookingPending || s == BookingConfirmed
}

// Terminal reports whether no further transitions are possible.
func (s BookingStatus) Terminal() bool {
    return s == BookingCancelled || s == BookingCompleted
}

// transitions lists the allowed status moves.
var transitions = map[BookingStatus][]BookingStatus{
    BookingPending:   {BookingConfirmed, BookingCancelled},
    BookingConfirmed: {BookingCancelled, BookingCompleted},
}

// CanTransition reports whether from -> to is an allowed move.  Moving to
// the current status is never allowed.
func CanTransition(from, to BookingStatus) bool {
    for _, next := range transitions[from] {
        if next == to {
            return true
        }
    }
    return false
}

// PaymentStatus tracks the money side of a booking.
type PaymentStatus string

const (
    PaymentPending  PaymentStatus = "pending"
    PaymentPaid     PaymentStatus = "paid"
    PaymentRefunded PaymentStatus = "refunded"
    PaymentFailed   PaymentStatus = "failed"
)

// PaymentMethod is one of a fixed set of display names.
type PaymentMethod string

const (
    MethodCreditCard   PaymentMethod = "Credit Card"
    MethodDebitCard    PaymentMethod = "Debit Card"
    MethodPayPal       PaymentMethod = "PayPal"
    MethodBankTransfer PaymentMethod = "Bank Transfer"
    MethodCash         PaymentMethod = "Cash"
)

// PaymentMethods lists every accepted method in display order.
var PaymentMethods = []PaymentMethod{MethodCreditCard, MethodDebitCard, MethodPayPal, MethodBankTransfer, MethodCash}

// ParsePaymentMethod matches case-insensitively and ignores spaces, so
// "CreditCard", "credit card" and "Credit Card" are the same method.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
    key := squash(s)
    for _, m := range PaymentMethods {
        if squash(string(m)) == key && key != "" {
            return m, nil
        }
    }
    return "", fmt.Errorf("unknown payment method %q", s)
}

func squash(s string) string {
    return strings.ToLower(strings.Join(strings.Fields(s), ""))
}

// Booking represents a row in the `bookings` table and is also the JSON
// shape returned to clients.
//
// Fields:
//  ID              – UUID assigned at creation.
//  ListingID       – listing being booked.
//  UserID          – guest who made the booking.
//  CheckIn         – first night (date only, UTC).
//  CheckOut        – departure day (date only, UTC), strictly after CheckIn.
//  DurationNights  – derived number of nights.
//  TotalPrice      – DurationNights × listing price per night.
//  OrderID         – gateway order opened for TotalPrice; only a payment
//                    against this order can mark the booking paid.
type Booking struct {
    ID              string          `json:"id"`
    ListingID       string          `json:"listingId"`
    UserID          string          `json:"userId"`
    CheckIn         Date            `json:"checkIn"`
    CheckOut        Date            `json:"checkOut"`
    Guests          int             `json:"guests"`
    PhoneNumber     string          `json:"phoneNumber"`
    SpecialRequests string          `json:"specialRequests"`
    DurationNights  int             `json:"durationNights"`
    TotalPrice      decimal.Decimal `json:"totalPrice"`
    PaymentMethod   PaymentMethod   `json:"paymentMethod"`
    PaymentStatus   PaymentStatus   `json:"paymentStatus"`
    OrderID         string          `json:"orderId,omitempty"`
    Status          BookingStatus   `json:"status"`
    CreatedAt       time.Time       `json:"createdAt"`
    UpdatedAt       time.Time       `json:"updatedAt"`
}

// Overlaps reports whether the half-open ranges [b.CheckIn, b.CheckOut)
// and [in, out) share at least one night.
func (b Booking) Overlaps(in, out Date) bool {
    return b.CheckIn.Before(out) && in.Before(b.CheckOut)
}

// Date is a calendar day with no time component.
type Date struct {
    time.Time
}

// NewDate truncates t to midnight UTC of its UTC calendar day.
func NewDate(t time.Time) Date {
    y, m, d := t.UTC().Date()
    return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp.
func ParseDate(s string) (Date, error) {
    s = strings.TrimSpace(s)
    if t, err := time.Parse(DateLayout, s); err == nil {
        return NewDate(t), nil
    }
    t, err := time.Parse(time.RFC3339, s)
    if err != nil {
        return Date{}, err
    }
    return NewDate(t), nil
}

// Before compares the calendar days.
func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }

// NightsUntil returns ceil((o - d) / 24h).
func (d Date) NightsUntil(o Date) int {
    diff := o.Time.Sub(d.Time)
    nights := int(diff / (24 * time.Hour))
    if diff%(24*time.Hour) > 0 {
        nights++
    }
    return nights
}

func (d Date) String() string { return d.Time.Format(DateLayout) }

// MarshalJSON writes the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
    return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON accepts the same inputs as ParseDate.
func (d *Date) UnmarshalJSON(b []byte) error {
    s := strings.Trim(string(b), `"`)
    parsed, err := ParseDate(s)
    if err != nil {
        return err
    }
    *d = parsed
    return nil
}
