package events

import (
	"context"
	"fmt"
	"time"

	"lakeside/pkg/kafka"
	"lakeside/pkg/logger"
	"lakeside/pkg/middleware"
	"lakeside/pkg/model"
)

const (
	TypeBookingConfirmed = "booking.confirmed"
	TypeBookingCancelled = "booking.cancelled"

	SchemaVersion = "1"
	Source        = "lakeside-bookings"
)

// BookingEvent is the payload published for every booking state change.
type BookingEvent struct {
	Type             string              `json:"type"`
	BookingID        string              `json:"booking_id"`
	RoomID           string              `json:"room_id"`
	GuestID          string              `json:"guest_id"`
	CheckIn          string              `json:"check_in"`
	CheckOut         string              `json:"check_out"`
	Nights           int                 `json:"nights"`
	Status           model.BookingStatus `json:"status"`
	ConfirmationCode string              `json:"confirmation_code,omitempty"`
	OccurredAt       time.Time           `json:"occurred_at"`
}

func NewBookingEvent(eventType string, b *model.Booking, at time.Time) BookingEvent {
	return BookingEvent{
		Type:             eventType,
		BookingID:        b.ID,
		RoomID:           b.RoomID,
		GuestID:          b.GuestID,
		CheckIn:          b.CheckIn.Format(model.DateLayout),
		CheckOut:         b.CheckOut.Format(model.DateLayout),
		Nights:           b.Range().Nights(),
		Status:           b.Status,
		ConfirmationCode: b.ConfirmationCode,
		OccurredAt:       at.UTC(),
	}
}

// Publisher announces committed booking changes. Implementations must not
// block the caller for longer than ctx allows.
type Publisher interface {
	Publish(ctx context.Context, event BookingEvent) error
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, BookingEvent) error { return nil }

// MessagePublisher is the part of the Kafka producer the publisher needs.
type MessagePublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// KafkaPublisher keys events by room id so every consumer sees a room's
// bookings in commit order.
type KafkaPublisher struct {
	producer MessagePublisher
	log      *logger.Logger
}

func NewKafkaPublisher(producer MessagePublisher, log *logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, log: log}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event BookingEvent) error {
	msg, err := kafka.NewMessage().
		WithKey(event.RoomID).
		WithValue(event).
		WithEventType(event.Type).
		WithCorrelationID(middleware.RequestIDFromContext(ctx)).
		WithSchemaVersion(SchemaVersion).
		WithSource(Source).
		WithTimestamp(event.OccurredAt).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build %s event: %w", event.Type, err)
	}
	if err := p.producer.Publish(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s event for booking %s: %w", event.Type, event.BookingID, err)
	}

	p.log.Debug("Booking event published",
		"type", event.Type,
		"booking_id", event.BookingID,
		"room_id", event.RoomID,
	)
	return nil
}
