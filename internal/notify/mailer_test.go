package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/lodging-booking/internal/config"
	"github.com/iliyamo/lodging-booking/internal/queue"
)

func TestMailerDisabledWithoutHost(t *testing.T) {
	m := NewMailer(config.SMTPConfig{})
	err := m.SendResetEmail(context.Background(), "a@example.com", "http://x/reset-password/abc")
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestResetEmailContainsLink(t *testing.T) {
	subject, body := ResetEmail("http://localhost:8080/reset-password/abc")
	assert.Equal(t, "Password Reset Request", subject)
	assert.Contains(t, body, "http://localhost:8080/reset-password/abc")
}

func TestBookingStatusEmail(t *testing.T) {
	subject, body := BookingStatusEmail(queue.BookingEvent{
		Type:          queue.EventBookingConfirmed,
		BookingID:     "b1",
		Status:        "confirmed",
		PaymentStatus: "pending",
		CheckIn:       "2024-06-01",
		CheckOut:      "2024-06-04",
		TotalPrice:    "300.00",
	})
	assert.Equal(t, "Your booking is confirmed", subject)
	assert.Contains(t, body, "2024-06-01 to 2024-06-04")
	assert.Contains(t, body, "300.00")
}
