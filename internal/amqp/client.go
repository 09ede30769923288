package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// Circuit breaker states
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures    = 5
	openTimeout    = 30 * time.Second
	publishTimeout = 5 * time.Second
	maxBackoff     = 30 * time.Second
)

// requeueDelay holds back a failed event before it goes back on the queue,
// so a mirror that keeps rejecting writes is not retried in a tight loop.
var requeueDelay = 2 * time.Second

// Client publishes and consumes record events on a durable direct exchange.
// Publishing goes through a circuit breaker so an unreachable broker costs
// the dashboard one failed attempt per openTimeout rather than one per request.
type Client struct {
	url          string
	exchangeName string
	queueName    string

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	state        int32
	failureCount int64
	lastFailure  time.Time
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	c := &Client{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
	}
	if err := c.connect(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked()
}

func (c *Client) connectLocked() error {
	if c.conn != nil && !c.conn.IsClosed() && c.channel != nil && !c.channel.IsClosed() {
		return nil
	}
	c.closeLocked()

	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	c.conn, c.channel = conn, channel

	if err := c.setup(); err != nil {
		c.closeLocked()
		return fmt.Errorf("setup exchange and queue: %w", err)
	}
	return nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// Routing key is the queue name.
	err = c.channel.QueueBind(c.queueName, c.queueName, c.exchangeName, false, nil)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// Publish sends a record event. It fails fast when ctx is done or the
// circuit is open.
func (c *Client) Publish(ctx context.Context, event *RecordEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.isCircuitOpen() {
		return fmt.Errorf("circuit breaker is open, skipping publish of event %s", event.ID)
	}

	body, err := event.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	if err := c.publish(ctx, event, body); err != nil {
		c.recordFailure()
		return err
	}
	c.recordSuccess()

	slog.InfoContext(ctx, "Published record event",
		"event_id", event.ID,
		"event_kind", event.Kind,
		"exchange", c.exchangeName,
		"queue", c.queueName)
	return nil
}

func (c *Client) publish(ctx context.Context, event *RecordEvent, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.connectLocked(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err := c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    event.ID,
			Type:         string(event.Kind),
			Timestamp:    event.Timestamp,
			Body:         body,
		},
	)
	if err != nil {
		if isConnectionError(err) {
			c.closeLocked()
		}
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// Handler applies one event. Returning an error requeues the message.
type Handler func(ctx context.Context, event *RecordEvent) error

// Acknowledger is the part of a delivery the consumer settles.
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// Consume delivers events to handler until ctx is done or the channel closes.
// Messages are acknowledged manually: malformed ones are dropped, failed ones
// are requeued.
func (c *Client) Consume(ctx context.Context, handler Handler) error {
	c.mu.Lock()
	if err := c.connectLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	msgs, err := c.channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming record events", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return errors.New("message channel closed")
			}
			HandleDelivery(ctx, delivery.Body, delivery, handler)
		}
	}
}

// ConsumeWithRetry runs Consume and reconnects with exponential backoff when
// the broker connection drops. It returns only when ctx is done.
func (c *Client) ConsumeWithRetry(ctx context.Context, handler Handler) error {
	return retryConsume(ctx, c.Consume, handler, exponentialBackoff, func() {
		c.mu.Lock()
		c.closeLocked()
		c.mu.Unlock()
	})
}

// retryConsume calls consume until ctx is done. The backoff attempt starts
// over whenever a connection handled at least one event before dropping.
func retryConsume(ctx context.Context, consume func(context.Context, Handler) error, handler Handler, backoff func(int) time.Duration, reset func()) error {
	attempt := 0
	for {
		var delivered atomic.Bool
		err := consume(ctx, func(ctx context.Context, event *RecordEvent) error {
			delivered.Store(true)
			return handler(ctx, event)
		})
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if delivered.Load() {
			attempt = 0
		}
		wait := backoff(attempt)
		slog.WarnContext(ctx, "Consumer stopped, reconnecting", "error", err, "attempt", attempt+1, "backoff", wait)
		attempt++

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		reset()
	}
}

// HandleDelivery decodes body, runs handler and settles the delivery. A
// failed event is requeued after requeueDelay, or at once when ctx is done.
func HandleDelivery(ctx context.Context, body []byte, ack Acknowledger, handler Handler) {
	event, err := RecordEventFromJSON(body)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to decode message", "error", err)
		_ = ack.Nack(false, false)
		return
	}

	if err := handler(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to handle message",
			"error", err,
			"event_id", event.ID,
			"event_kind", event.Kind,
			"requeue_in", requeueDelay)
		select {
		case <-ctx.Done():
		case <-time.After(requeueDelay):
		}
		_ = ack.Nack(false, true)
		return
	}

	_ = ack.Ack(false)
	slog.DebugContext(ctx, "Processed record event", "event_id", event.ID, "event_kind", event.Kind)
}

func (c *Client) isCircuitOpen() bool {
	switch atomic.LoadInt32(&c.state) {
	case StateOpen:
		c.mu.Lock()
		last := c.lastFailure
		c.mu.Unlock()
		if time.Since(last) > openTimeout {
			atomic.StoreInt32(&c.state, StateHalfOpen)
			return false
		}
		return true
	default:
		return false
	}
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

func (c *Client) recordFailure() {
	n := atomic.AddInt64(&c.failureCount, 1)
	c.mu.Lock()
	c.lastFailure = time.Now()
	c.mu.Unlock()
	if n >= maxFailures || atomic.LoadInt32(&c.state) == StateHalfOpen {
		atomic.StoreInt32(&c.state, StateOpen)
	}
}

func exponentialBackoff(attempt int) time.Duration {
	if attempt > 5 {
		return maxBackoff
	}
	d := time.Second << uint(attempt)
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection", "eof", "broken pipe", "closed network"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func (c *Client) closeLocked() {
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
	return nil
}
