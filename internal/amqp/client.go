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

// Circuit breaker states.
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

var errCircuitOpen = errors.New("circuit breaker is open")

type Client struct {
	url          string
	exchangeName string
	queueName    string
	prefetch     int

	mu          sync.Mutex
	conn        *amqp091.Connection
	channel     *amqp091.Channel
	lastFailure time.Time

	state        int32
	failureCount int64
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	client := &Client{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
	}

	client.mu.Lock()
	err := client.connectLocked()
	client.mu.Unlock()
	if err != nil {
		return nil, err
	}

	return client, nil
}

// SetPrefetch limits how many unacknowledged deliveries a consumer holds.
// Zero leaves the broker default.
func (c *Client) SetPrefetch(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prefetch = n
}

// connectLocked dials the broker and declares the topology. c.mu must be held.
func (c *Client) connectLocked() error {
	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	if err := setup(channel, c.exchangeName, c.queueName); err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("setup exchange and queue: %w", err)
	}

	c.conn = conn
	c.channel = channel
	return nil
}

func setup(channel *amqp091.Channel, exchangeName, queueName string) error {
	// Declare exchange
	err := channel.ExchangeDeclare(
		exchangeName, // name
		"direct",     // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	// Declare queue
	_, err = channel.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// Bind queue to exchange
	err = channel.QueueBind(
		queueName,    // queue name
		queueName,    // routing key (same as queue name for direct exchange)
		exchangeName, // exchange
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// channelFor returns a live channel, reconnecting when the connection dropped.
func (c *Client) channelFor() (*amqp091.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil || c.conn.IsClosed() || c.channel == nil {
		c.closeLocked()
		if err := c.connectLocked(); err != nil {
			return nil, err
		}
		slog.Info("Reconnected to AMQP broker", "exchange", c.exchangeName)
	}
	return c.channel, nil
}

func (c *Client) dropChannel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

// PublishLedgerEvent publishes a ledger change notification
func (c *Client) PublishLedgerEvent(ctx context.Context, kind EventKind, id string, version int64) error {
	if c.isCircuitOpen() {
		return fmt.Errorf("publish %s: %w", kind, errCircuitOpen)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := NewLedgerEvent(kind, id, version).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	channel, err := c.channelFor()
	if err != nil {
		c.recordFailure()
		return fmt.Errorf("publish %s: %w", kind, err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent, // make message persistent
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		c.recordFailure()
		if isConnectionError(err) {
			c.dropChannel()
		}
		return fmt.Errorf("publish message: %w", err)
	}
	c.recordSuccess()

	slog.InfoContext(ctx, "Published ledger event",
		"kind", kind,
		"id", id,
		"version", version,
		"exchange", c.exchangeName,
		"queue", c.queueName)

	return nil
}

// ConsumeLedgerEvents consumes ledger events until ctx is done, reconnecting
// with exponential backoff when the broker connection drops.
func (c *Client) ConsumeLedgerEvents(ctx context.Context, handler func(context.Context, *LedgerEvent) error) error {
	attempt := 0
	for {
		started, err := c.consume(ctx, handler)
		if ctx.Err() != nil {
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		}
		if started {
			attempt = 0
		}
		wait := exponentialBackoff(attempt)
		slog.WarnContext(ctx, "AMQP consumer interrupted, retrying",
			"error", err,
			"attempt", attempt+1,
			"backoff", wait)
		attempt++
		c.dropChannel()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// consume runs one delivery loop. started reports whether deliveries began.
func (c *Client) consume(ctx context.Context, handler func(context.Context, *LedgerEvent) error) (started bool, err error) {
	channel, err := c.channelFor()
	if err != nil {
		return false, err
	}

	c.mu.Lock()
	prefetch := c.prefetch
	c.mu.Unlock()
	if prefetch > 0 {
		if err := channel.Qos(prefetch, 0, false); err != nil {
			return false, fmt.Errorf("set prefetch: %w", err)
		}
	}

	msgs, err := channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack (we want manual ack)
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return false, fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming ledger events", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			return true, ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return true, fmt.Errorf("message channel closed")
			}

			event, err := LedgerEventFromJSON(delivery.Body)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to unmarshal message", "error", err)
				delivery.Nack(false, false) // reject and don't requeue
				continue
			}

			if err := handler(ctx, event); err != nil {
				slog.ErrorContext(ctx, "Failed to handle message",
					"error", err,
					"kind", event.Kind,
					"id", event.ID,
					"version", event.Version)
				delivery.Nack(false, true) // reject and requeue
				continue
			}

			delivery.Ack(false) // acknowledge successful processing
			slog.DebugContext(ctx, "Processed ledger event",
				"kind", event.Kind,
				"id", event.ID,
				"version", event.Version)
		}
	}
}

func (c *Client) isCircuitOpen() bool {
	switch atomic.LoadInt32(&c.state) {
	case StateOpen:
		c.mu.Lock()
		since := time.Since(c.lastFailure)
		c.mu.Unlock()
		if since > openTimeout {
			atomic.CompareAndSwapInt32(&c.state, StateOpen, StateHalfOpen)
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
		if atomic.SwapInt32(&c.state, StateOpen) != StateOpen {
			slog.Warn("AMQP circuit breaker opened", "failures", n)
		}
	}
}

// exponentialBackoff returns 1s, 2s, 4s... capped at maxBackoff.
func exponentialBackoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 5 {
		return maxBackoff
	}
	d := time.Second << attempt
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
	for _, marker := range []string{"connection", "eof", "broken pipe", "channel/connection is not open"} {
		if strings.Contains(msg, marker) {
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
	var err error
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		err = c.conn.Close()
		c.conn = nil
	}
	return err
}
