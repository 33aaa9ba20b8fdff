// Package service holds adapters between the seat ledger and outside
// systems.  QueuePublisher forwards booking notifications to RabbitMQ.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-booking/internal/config"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/queue"
)

// QueuePublisher implements ledger.Publisher over RabbitMQ.  The
// connection is opened lazily and re-dialled after it drops, so a broker
// that is down at start-up only costs the events published meanwhile.
type QueuePublisher struct {
	cfg  config.QueueConfig
	log  *logrus.Entry
	dial func(url string) (*amqp.Connection, error)

	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	declared map[string]bool
}

// NewQueuePublisher returns a publisher for cfg.
func NewQueuePublisher(cfg config.QueueConfig) *QueuePublisher {
	return &QueuePublisher{
		cfg:      cfg,
		log:      logrus.WithField("component", "queue-publisher"),
		dial:     amqp.Dial,
		declared: map[string]bool{},
	}
}

// BookingConfirmed publishes a booking.confirmed event.
func (p *QueuePublisher) BookingConfirmed(ctx context.Context, b model.Booking, s model.Showtime) error {
	return p.publish(ctx, p.cfg.ConfirmedQueue, queue.NewBookingEvent(queue.KindBookingConfirmed, b, s))
}

// BookingCancelled publishes a booking.cancelled event.
func (p *QueuePublisher) BookingCancelled(ctx context.Context, b model.Booking, s model.Showtime) error {
	return p.publish(ctx, p.cfg.CancelledQueue, queue.NewBookingEvent(queue.KindBookingCancelled, b, s))
}

func (p *QueuePublisher) publish(ctx context.Context, queueName string, ev queue.BookingEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}
	if !p.declared[queueName] {
		// durable so messages survive broker restarts
		if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
			p.reset()
			return fmt.Errorf("queue declare %s: %w", queueName, err)
		}
		p.declared[queueName] = true
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    ev.BookingID,
		Type:         ev.Kind,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queueName, false, false, msg); err != nil {
		p.reset()
		return fmt.Errorf("publish %s: %w", queueName, err)
	}
	p.log.WithFields(logrus.Fields{"queue": queueName, "booking_id": ev.BookingID}).Debug("event published")
	return nil
}

// channel returns the open channel, dialling when needed.  Callers hold mu.
func (p *QueuePublisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() && p.conn != nil && !p.conn.IsClosed() {
		return p.ch, nil
	}
	p.reset()

	conn, err := p.dial(p.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *QueuePublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
	p.declared = map[string]bool{}
}

// Close releases the broker connection.
func (p *QueuePublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}

// LogPublisher is used when the broker is disabled; it records events in
// the application log instead.
type LogPublisher struct {
	Log *logrus.Entry
}

func (p LogPublisher) BookingConfirmed(_ context.Context, b model.Booking, s model.Showtime) error {
	p.write(queue.NewBookingEvent(queue.KindBookingConfirmed, b, s))
	return nil
}

func (p LogPublisher) BookingCancelled(_ context.Context, b model.Booking, s model.Showtime) error {
	p.write(queue.NewBookingEvent(queue.KindBookingCancelled, b, s))
	return nil
}

func (p LogPublisher) write(ev queue.BookingEvent) {
	log := p.Log
	if log == nil {
		log = logrus.WithField("component", "queue-publisher")
	}
	log.WithFields(logrus.Fields{
		"kind":        ev.Kind,
		"booking_id":  ev.BookingID,
		"showtime_id": ev.ShowtimeID,
		"seats":       ev.Seats,
	}).Info("booking event (broker disabled)")
}
