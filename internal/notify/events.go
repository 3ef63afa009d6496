package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/lodging-booking/internal/queue"
	"github.com/iliyamo/lodging-booking/internal/repository"
)

// BookingEventHandler returns a queue handler that emails the guest of
// every booking event.  A disabled mailer acknowledges the event.
func BookingEventHandler(users repository.UserRepository, sender Sender) queue.HandlerFunc {
	return func(ctx context.Context, evt queue.BookingEvent) error {
		u, err := users.GetByID(ctx, evt.UserID)
		if err != nil {
			return fmt.Errorf("lookup guest %s: %w", evt.UserID, err)
		}
		err = sender.SendBookingStatus(ctx, u.Email, evt)
		if errors.Is(err, ErrDisabled) {
			return nil
		}
		return err
	}
}
