package events

import (
	"context"

	"classbook/pkg/kafka"
	"classbook/pkg/logger"
	"classbook/pkg/model"
)

const (
	EventBookingCreated   = "booking.created"
	EventBookingCancelled = "booking.cancelled"
	EventBookingAttended  = "booking.attended"
)

// Publisher emits booking lifecycle events. Publishing is best effort:
// implementations log failures and never propagate them, a booking is
// committed to the database before its event exists.
type Publisher interface {
	BookingCreated(ctx context.Context, booking *model.Booking)
	BookingCancelled(ctx context.Context, booking *model.Booking)
	BookingAttended(ctx context.Context, booking *model.Booking)
}

type kafkaPublisher struct {
	producer *kafka.Producer
	logger   *logger.Logger
}

func NewKafkaPublisher(producer *kafka.Producer, log *logger.Logger) Publisher {
	return &kafkaPublisher{
		producer: producer,
		logger:   log,
	}
}

func (p *kafkaPublisher) BookingCreated(ctx context.Context, booking *model.Booking) {
	p.publish(ctx, EventBookingCreated, booking)
}

func (p *kafkaPublisher) BookingCancelled(ctx context.Context, booking *model.Booking) {
	p.publish(ctx, EventBookingCancelled, booking)
}

func (p *kafkaPublisher) BookingAttended(ctx context.Context, booking *model.Booking) {
	p.publish(ctx, EventBookingAttended, booking)
}

func (p *kafkaPublisher) publish(ctx context.Context, eventType string, booking *model.Booking) {
	msg, err := kafka.NewMessage().
		WithKey(booking.ID).
		WithEventType(eventType).
		WithValue(booking).
		Build()
	if err != nil {
		p.logger.Error("Failed to build booking event",
			"event_type", eventType, "booking_id", booking.ID, "error", err)
		return
	}

	if err := p.producer.Publish(ctx, msg); err != nil {
		p.logger.Error("Failed to publish booking event",
			"event_type", eventType, "booking_id", booking.ID, "error", err)
	}
}

type noopPublisher struct{}

// NewNoopPublisher is used when no Kafka brokers are configured.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) BookingCreated(ctx context.Context, booking *model.Booking)   {}
func (noopPublisher) BookingCancelled(ctx context.Context, booking *model.Booking) {}
func (noopPublisher) BookingAttended(ctx context.Context, booking *model.Booking)  {}
