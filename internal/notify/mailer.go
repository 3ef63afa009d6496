// Package notify sends transactional email over SMTP.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wneessen/go-mail"

	"github.com/iliyamo/lodging-booking/internal/config"
	"github.com/iliyamo/lodging-booking/internal/logging"
	"github.com/iliyamo/lodging-booking/internal/queue"
)

// ErrDisabled is returned when no SMTP host is configured.
var ErrDisabled = errors.New("notify: smtp not configured")

// Sender is what handlers and the event consumer depend on.
type Sender interface {
	SendResetEmail(ctx context.Context, to, resetURL string) error
	SendBookingStatus(ctx context.Context, to string, evt queue.BookingEvent) error
}

// Mailer sends mail through one SMTP relay.
type Mailer struct {
	cfg config.SMTPConfig
}

func NewMailer(cfg config.SMTPConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

// SendResetEmail mails the password reset link.
func (m *Mailer) SendResetEmail(ctx context.Context, to, resetURL string) error {
	subject, body := ResetEmail(resetURL)
	return m.send(ctx, to, subject, body)
}

// SendBookingStatus tells the guest about a booking change.
func (m *Mailer) SendBookingStatus(ctx context.Context, to string, evt queue.BookingEvent) error {
	subject, body := BookingStatusEmail(evt)
	return m.send(ctx, to, subject, body)
}

func (m *Mailer) send(ctx context.Context, to, subject, body string) error {
	if m.cfg.Host == "" {
		logging.InfoContext(ctx, "smtp disabled, email not sent", "to", to, "subject", subject)
		return ErrDisabled
	}

	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("set from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("set to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}
	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	logging.InfoContext(ctx, "email sent", "to", to, "subject", subject)
	return nil
}

// ResetEmail renders the password reset message.
func ResetEmail(resetURL string) (subject, body string) {
	subject = "Password Reset Request"
	body = "You are receiving this because you (or someone else) have requested the reset of the password for your account.\n\n" +
		"Please click on the following link, or paste it into your browser to complete the process:\n\n" +
		resetURL + "\n\n" +
		"If you did not request this, please ignore this email and your password will remain unchanged.\n"
	return subject, body
}

// BookingStatusEmail renders the booking status message for evt.
func BookingStatusEmail(evt queue.BookingEvent) (subject, body string) {
	status := evt.Status
	if evt.Type == queue.EventBookingPaid {
		status = "paid"
	}
	subject = fmt.Sprintf("Your booking is %s", status)

	var b strings.Builder
	fmt.Fprintf(&b, "Booking %s\n\n", evt.BookingID)
	fmt.Fprintf(&b, "Status: %s\n", evt.Status)
	fmt.Fprintf(&b, "Payment: %s\n", evt.PaymentStatus)
	fmt.Fprintf(&b, "Dates: %s to %s\n", evt.CheckIn, evt.CheckOut)
	fmt.Fprintf(&b, "Total: %s\n", evt.TotalPrice)
	return subject, b.String()
}
