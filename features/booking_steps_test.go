package features

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/lodging-booking/internal/model"
	"github.com/iliyamo/lodging-booking/internal/repository/memory"
	"github.com/iliyamo/lodging-booking/internal/service"
)

type bookingState struct {
	ctx      context.Context
	store    *memory.DataStore
	ledger   *service.Ledger
	listings *service.Listings
	today    time.Time
	ids      map[string]string // listing name -> id
	booking  *model.Booking
	lastErr  error
	results  []error
}

func InitializeBookingScenario(sc *godog.ScenarioContext) {
	s := &bookingState{ctx: context.Background(), ids: map[string]string{}}

	sc.Step(`^today is "([^"]*)"$`, s.todayIs)
	sc.Step(`^host "([^"]*)" owns listing "([^"]*)" priced at (\d+) per night$`, s.hostOwnsListing)

	sc.Step(`^guest "([^"]*)" books listing "([^"]*)" from "([^"]*)" to "([^"]*)"$`, s.guestBooks)
	sc.Step(`^guest "([^"]*)" has booked listing "([^"]*)" from "([^"]*)" to "([^"]*)"$`, s.guestHasBooked)
	sc.Step(`^the booking has been paid$`, s.bookingHasBeenPaid)
	sc.Step(`^"([^"]*)" changes the booking status to "([^"]*)"$`, s.changesStatus)
	sc.Step(`^"([^"]*)" has changed the booking status to "([^"]*)"$`, s.hasChangedStatus)
	sc.Step(`^(\d+) guests book listing "([^"]*)" from "([^"]*)" to "([^"]*)" at the same time$`, s.concurrentBookings)

	sc.Step(`^the booking succeeds$`, s.bookingSucceeds)
	sc.Step(`^the booking has (\d+) nights costing "([^"]*)"$`, s.bookingHasNightsCosting)
	sc.Step(`^the booking status is "([^"]*)"$`, s.bookingStatusIs)
	sc.Step(`^the payment status is "([^"]*)"$`, s.paymentStatusIs)
	sc.Step(`^the request fails with "([^"]*)"$`, s.requestFailsWith)
	sc.Step(`^the request fails with "([^"]*)" and message "([^"]*)"$`, s.requestFailsWithMessage)
	sc.Step(`^exactly (\d+) booking is admitted$`, s.exactlyAdmitted)
	sc.Step(`^(\d+) requests fail with "([^"]*)"$`, s.requestsFailWith)
}

func (s *bookingState) todayIs(day string) error {
	t, err := time.Parse(model.DateLayout, day)
	if err != nil {
		return err
	}
	s.today = t.Add(9 * time.Hour)
	s.store = memory.NewDataStore()
	s.ledger = service.NewLedger(s.store, nil).WithClock(func() time.Time { return s.today })
	s.listings = service.NewListings(s.store)
	return nil
}

func (s *bookingState) hostOwnsListing(host, name string, price int) error {
	l, err := s.listings.Create(s.ctx, host, service.ListingInput{
		Title:         name,
		Location:      "Somewhere",
		Country:       "India",
		PricePerNight: decimal.NewFromInt(int64(price)),
	})
	if err != nil {
		return err
	}
	s.ids[name] = l.ID
	return nil
}

func (s *bookingState) book(guest, listing, in, out string) (*model.Booking, error) {
	return s.ledger.CreateBooking(s.ctx, service.CreateBookingInput{
		ListingID:   s.ids[listing],
		UserID:      guest,
		CheckIn:     in,
		CheckOut:    out,
		Guests:      2,
		PhoneNumber: "+91 90000 00000",
	})
}

func (s *bookingState) guestBooks(guest, listing, in, out string) error {
	b, err := s.book(guest, listing, in, out)
	s.lastErr = err
	if err == nil {
		s.booking = b
	}
	return nil
}

func (s *bookingState) guestHasBooked(guest, listing, in, out string) error {
	b, err := s.book(guest, listing, in, out)
	if err != nil {
		return err
	}
	s.booking = b
	return nil
}

func (s *bookingState) bookingHasBeenPaid() error {
	order := "order_" + s.booking.ID
	if _, err := s.ledger.AttachOrder(s.ctx, s.booking.ID, s.booking.UserID, order); err != nil {
		return err
	}
	b, err := s.ledger.RecordPayment(s.ctx, s.booking.ID, s.booking.UserID, order, true)
	if err != nil {
		return err
	}
	s.booking = b
	return nil
}

func (s *bookingState) changesStatus(actor, status string) error {
	b, err := s.ledger.TransitionStatus(s.ctx, s.booking.ID, actor, status)
	s.lastErr = err
	if err == nil {
		s.booking = b
	}
	return nil
}

func (s *bookingState) hasChangedStatus(actor, status string) error {
	b, err := s.ledger.TransitionStatus(s.ctx, s.booking.ID, actor, status)
	if err != nil {
		return err
	}
	s.booking = b
	return nil
}

func (s *bookingState) concurrentBookings(n int, listing, in, out string) error {
	s.results = make([]error, n)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, s.results[i] = s.book(fmt.Sprintf("guest-%d", i), listing, in, out)
		}(i)
	}
	close(start)
	wg.Wait()
	return nil
}

func (s *bookingState) bookingSucceeds() error {
	if s.lastErr != nil {
		return fmt.Errorf("expected success, got %v", s.lastErr)
	}
	return nil
}

func (s *bookingState) bookingHasNightsCosting(nights int, total string) error {
	if s.booking.DurationNights != nights {
		return fmt.Errorf("expected %d nights, got %d", nights, s.booking.DurationNights)
	}
	want := decimal.RequireFromString(total)
	if !s.booking.TotalPrice.Equal(want) {
		return fmt.Errorf("expected total %s, got %s", want, s.booking.TotalPrice)
	}
	return nil
}

func (s *bookingState) bookingStatusIs(status string) error {
	if string(s.booking.Status) != status {
		return fmt.Errorf("expected status %q, got %q", status, s.booking.Status)
	}
	return nil
}

func (s *bookingState) paymentStatusIs(status string) error {
	if string(s.booking.PaymentStatus) != status {
		return fmt.Errorf("expected payment status %q, got %q", status, s.booking.PaymentStatus)
	}
	return nil
}

func kindOf(err error) string {
	var se *service.Error
	if errors.As(err, &se) {
		return string(se.Kind)
	}
	return ""
}

func (s *bookingState) requestFailsWith(kind string) error {
	if s.lastErr == nil {
		return fmt.Errorf("expected %s, request succeeded", kind)
	}
	if got := kindOf(s.lastErr); got != kind {
		return fmt.Errorf("expected %s, got %s (%v)", kind, got, s.lastErr)
	}
	return nil
}

func (s *bookingState) requestFailsWithMessage(kind, message string) error {
	if err := s.requestFailsWith(kind); err != nil {
		return err
	}
	var se *service.Error
	errors.As(s.lastErr, &se)
	if se.Message != message {
		return fmt.Errorf("expected message %q, got %q", message, se.Message)
	}
	return nil
}

func (s *bookingState) exactlyAdmitted(n int) error {
	admitted := 0
	for _, err := range s.results {
		if err == nil {
			admitted++
		}
	}
	if admitted != n {
		return fmt.Errorf("expected %d admitted, got %d", n, admitted)
	}
	return nil
}

func (s *bookingState) requestsFailWith(n int, kind string) error {
	failed := 0
	for _, err := range s.results {
		if err != nil && kindOf(err) == kind {
			failed++
		}
	}
	if failed != n {
		return fmt.Errorf("expected %d %s failures, got %d", n, kind, failed)
	}
	return nil
}
