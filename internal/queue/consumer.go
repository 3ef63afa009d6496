package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/lodging-booking/internal/logging"
)

// HandlerFunc processes one booking event.
type HandlerFunc func(ctx context.Context, evt BookingEvent) error

// Consumer reads booking.events and hands every event to a HandlerFunc.
type Consumer struct {
    url        string
    handle     HandlerFunc
    maxBackoff time.Duration
}

// NewConsumer returns a consumer for the broker at url.
func NewConsumer(url string, handle HandlerFunc) *Consumer {
    return &Consumer{url: url, handle: handle, maxBackoff: 30 * time.Second}
}

// Run connects to RabbitMQ, declares the queue and consumes until ctx is
// cancelled.  Dial failures and dropped connections are retried with
// exponential backoff.  Messages that fail to process are rejected
// without requeue so one bad message cannot spin the loop.
func (c *Consumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(c.url)
        if err != nil {
            logging.WarnContext(ctx, "booking-consumer: failed to dial broker", "error", err, "retry_in", backoff.String())
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < c.maxBackoff {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        err = c.consumeLoop(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        logging.WarnContext(ctx, "booking-consumer: consume loop ended, reconnecting", "error", err)
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        logging.WarnContext(ctx, "booking-consumer: set QoS failed", "error", err)
    }
    if err := declare(ch); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }

    msgs, err := ch.Consume(BookingEventsQueue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := c.Handle(ctx, d.Body); err != nil {
                logging.WarnContext(ctx, "booking-consumer: handle message failed", "error", err)
                _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// Handle decodes body and runs the handler.
func (c *Consumer) Handle(ctx context.Context, body []byte) error {
    var evt BookingEvent
    if err := json.Unmarshal(body, &evt); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if evt.BookingID == "" || evt.Type == "" {
        return errors.New("event without type or booking id")
    }
    return c.handle(ctx, evt)
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}
