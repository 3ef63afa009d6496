package queue

import (
    "context"
    "encoding/json"
    "errors"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/lodging-booking/internal/logging"
)

const (
    // maxDialTimeout caps connect plus handshake; a shorter ctx deadline wins.
    maxDialTimeout = 2 * time.Second
    // redialBackoff is how long Publish fails fast after a failed dial.
    redialBackoff = 5 * time.Second
)

// ErrBrokerUnavailable is returned while the publisher waits out
// redialBackoff.
var ErrBrokerUnavailable = errors.New("rabbitmq: broker unavailable")

// Publisher publishes booking events to the booking.events queue.  The
// broker connection is opened lazily and reopened after it drops.
type Publisher struct {
    url string

    mu      sync.Mutex
    conn    *amqp.Connection
    ch      *amqp.Channel
    retryAt time.Time
}

// NewPublisher returns a publisher for the broker at url.  No connection
// is made until the first Publish.
func NewPublisher(url string) *Publisher {
    return &Publisher{url: url}
}

// Publish sends evt as a persistent JSON message.  Errors are logged and
// returned so the caller can choose to ignore them.
func (p *Publisher) Publish(ctx context.Context, evt BookingEvent) error {
    body, err := json.Marshal(evt)
    if err != nil {
        logging.ErrorContext(ctx, "rabbitmq: marshal event failed", "error", err)
        return err
    }

    p.mu.Lock()
    defer p.mu.Unlock()

    ch, err := p.channel(ctx)
    if err != nil {
        logging.WarnContext(ctx, "rabbitmq: channel unavailable", "error", err)
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent, // store on disk
        Timestamp:    time.Now().UTC(),
        Type:         evt.Type,
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx,
        "",                 // default exchange
        BookingEventsQueue, // routing key = queue name
        false,              // mandatory
        false,              // immediate
        pub,
    ); err != nil {
        logging.WarnContext(ctx, "rabbitmq: publish failed", "error", err, "event", evt.Type)
        p.reset()
        return err
    }
    return nil
}

// channel returns an open channel with the queue declared.  Callers hold
// p.mu.
func (p *Publisher) channel(ctx context.Context) (*amqp.Channel, error) {
    if p.ch != nil && !p.ch.IsClosed() && p.conn != nil && !p.conn.IsClosed() {
        return p.ch, nil
    }
    p.reset()

    if time.Now().Before(p.retryAt) {
        return nil, ErrBrokerUnavailable
    }
    timeout := dialTimeout(ctx)
    if timeout <= 0 {
        return nil, context.DeadlineExceeded
    }
    conn, err := amqp.DialConfig(p.url, amqp.Config{
        Heartbeat: 10 * time.Second,
        Locale:    "en_US",
        Dial:      amqp.DefaultDial(timeout),
    })
    if err != nil {
        p.retryAt = time.Now().Add(redialBackoff)
        return nil, err
    }
    ch, err := conn.Channel()
    if err != nil {
        _ = conn.Close()
        return nil, err
    }
    if err := declare(ch); err != nil {
        _ = ch.Close()
        _ = conn.Close()
        return nil, err
    }
    p.conn, p.ch = conn, ch
    return ch, nil
}

// dialTimeout bounds a dial by maxDialTimeout and by ctx's deadline.
func dialTimeout(ctx context.Context) time.Duration {
    d := maxDialTimeout
    if dl, ok := ctx.Deadline(); ok {
        if left := time.Until(dl); left < d {
            d = left
        }
    }
    return d
}

func (p *Publisher) reset() {
    if p.ch != nil {
        _ = p.ch.Close()
    }
    if p.conn != nil {
        _ = p.conn.Close()
    }
    p.ch, p.conn = nil, nil
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
    p.mu.Lock()
    defer p.mu.Unlock()
    if p.conn == nil {
        return nil
    }
    err := p.conn.Close()
    p.ch, p.conn = nil, nil
    if errors.Is(err, amqp.ErrClosed) {
        return nil
    }
    return err
}

// declare ensures the queue exists (idempotent). Durable so messages
// survive broker restarts.
func declare(ch *amqp.Channel) error {
    _, err := ch.QueueDeclare(
        BookingEventsQueue, // name
        true,               // durable
        false,              // autoDelete
        false,              // exclusive
        false,              // noWait
        nil,                // args
    )
    return err
}
