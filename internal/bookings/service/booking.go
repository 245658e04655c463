package service

import (
	"context"
	"iter"
	"slices"
	"time"

	"lakeside/internal/auth/gate"
	"lakeside/internal/bookings/events"
	"lakeside/internal/bookings/validator"
	"lakeside/internal/inventory"
	apperrors "lakeside/pkg/errors"
	"lakeside/pkg/logger"
	"lakeside/pkg/model"
	"lakeside/pkg/sanitizer"

	"github.com/google/uuid"
)

type BookingService interface {
	Book(ctx context.Context, p *model.Principal, req *model.BookingRequest) (*model.Booking, error)
	Cancel(ctx context.Context, p *model.Principal, id string) (*model.Booking, error)
	GetByID(ctx context.Context, p *model.Principal, id string) (*model.Booking, error)
	ListForRoom(ctx context.Context, p *model.Principal, roomID string, statuses []model.BookingStatus) ([]model.Booking, error)
}

// ConflictResolver validates a candidate stay against a room's calendar.
type ConflictResolver interface {
	Validate(ctx context.Context, room *model.Room, candidate model.DateRange) error
}

type bookingCoordinator struct {
	store        inventory.Store
	resolver     ConflictResolver
	validator    *validator.BookingValidator
	publisher    events.Publisher
	log          *logger.Logger
	retryBackoff time.Duration
	now          func() time.Time
}

type Option func(*bookingCoordinator)

func WithRetryBackoff(d time.Duration) Option {
	return func(c *bookingCoordinator) {
		c.retryBackoff = d
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *bookingCoordinator) {
		c.now = now
	}
}

func WithPublisher(p events.Publisher) Option {
	return func(c *bookingCoordinator) {
		if p != nil {
			c.publisher = p
		}
	}
}

func NewBookingCoordinator(
	store inventory.Store,
	resolver ConflictResolver,
	validator *validator.BookingValidator,
	log *logger.Logger,
	opts ...Option,
) BookingService {
	c := &bookingCoordinator{
		store:        store,
		resolver:     resolver,
		validator:    validator,
		publisher:    events.NoopPublisher{},
		log:          log,
		retryBackoff: 50 * time.Millisecond,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Book runs a booking attempt. Authorization is decided before the room or
// its calendar is read, and the first failure ends the attempt.
func (c *bookingCoordinator) Book(ctx context.Context, p *model.Principal, req *model.BookingRequest) (*model.Booking, error) {
	a := newAttempt(c.log)

	if err := gate.Authorize(p, model.RoleGuest); err != nil {
		return nil, translateError(a.reject(err), "")
	}
	requested := *req
	requested.GuestID = sanitizer.SanitizeGuestID(req.GuestID)
	guestID := p.Subject
	if requested.GuestID != "" && requested.GuestID != p.Subject {
		if err := gate.AuthorizeSubject(p, requested.GuestID, model.RoleStaff); err != nil {
			return nil, translateError(a.reject(err), "")
		}
		guestID = requested.GuestID
	}
	a.advance(stateAuthorized)

	if err := c.validator.Validate(&requested); err != nil {
		c.log.Warn("Booking request validation failed", "attempt_id", a.id, "error", err)
		return nil, translateError(a.reject(err), "")
	}
	stay, err := requested.DateRange()
	if err != nil {
		return nil, a.reject(apperrors.InvalidInput(err.Error()))
	}

	room, err := inventory.RetryUnavailable(ctx, c.retryBackoff, func(ctx context.Context) (*model.Room, error) {
		return c.store.GetRoom(ctx, requested.RoomID)
	})
	if err != nil {
		return nil, translateError(a.reject(err), "")
	}

	_, err = inventory.RetryUnavailable(ctx, c.retryBackoff, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.resolver.Validate(ctx, room, stay)
	})
	if err != nil {
		return nil, translateError(a.reject(err), "")
	}
	a.advance(stateValidated)

	// The id is fixed before the first commit so a retry after a lost
	// acknowledgement finds its own booking instead of a conflict.
	candidate := model.Booking{
		ID:       uuid.New().String(),
		RoomID:   room.ID,
		GuestID:  guestID,
		CheckIn:  stay.CheckIn,
		CheckOut: stay.CheckOut,
		Status:   model.BookingPending,
	}
	booking, err := inventory.RetryUnavailable(ctx, c.retryBackoff, func(ctx context.Context) (*model.Booking, error) {
		return c.store.CommitBooking(ctx, candidate)
	})
	if err != nil {
		c.log.Warn("Booking commit failed", "attempt_id", a.id, "room_id", room.ID, "stay", stay.String(), "error", err)
		return nil, translateError(a.reject(err), "")
	}
	a.advance(stateCommitted)

	c.log.Info("Booking committed",
		"attempt_id", a.id,
		"id", booking.ID,
		"room_id", booking.RoomID,
		"guest_id", booking.GuestID,
		"stay", booking.Range().String(),
		"booked_by", p.Subject,
	)
	c.publish(ctx, events.TypeBookingConfirmed, booking)
	return booking, nil
}

func (c *bookingCoordinator) Cancel(ctx context.Context, p *model.Principal, id string) (*model.Booking, error) {
	existing, err := c.ownedBooking(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if existing.Status == model.BookingCancelled {
		return nil, apperrors.AlreadyCancelled(id)
	}

	booking, err := inventory.RetryUnavailable(ctx, c.retryBackoff, func(ctx context.Context) (*model.Booking, error) {
		return c.store.CancelBooking(ctx, id)
	})
	if err != nil {
		return nil, translateError(err, id)
	}

	c.log.Info("Booking cancelled", "id", booking.ID, "room_id", booking.RoomID, "cancelled_by", p.Subject)
	c.publish(ctx, events.TypeBookingCancelled, booking)
	return booking, nil
}

func (c *bookingCoordinator) GetByID(ctx context.Context, p *model.Principal, id string) (*model.Booking, error) {
	return c.ownedBooking(ctx, p, id)
}

// ownedBooking loads a booking the principal is allowed to see: its own, or
// any booking for staff and above.
func (c *bookingCoordinator) ownedBooking(ctx context.Context, p *model.Principal, id string) (*model.Booking, error) {
	if err := gate.Authorize(p, model.RoleGuest); err != nil {
		return nil, translateError(err, id)
	}
	if err := c.validator.ValidateID("id", id); err != nil {
		return nil, apperrors.InvalidInput("Invalid booking ID format")
	}

	booking, err := inventory.RetryUnavailable(ctx, c.retryBackoff, func(ctx context.Context) (*model.Booking, error) {
		return c.store.GetBooking(ctx, id)
	})
	if err != nil {
		return nil, translateError(err, id)
	}
	if err := gate.AuthorizeSubject(p, booking.GuestID, model.RoleStaff); err != nil {
		c.log.Warn("Booking access denied", "id", id, "subject", p.Subject)
		return nil, translateError(err, id)
	}
	return booking, nil
}

func (c *bookingCoordinator) ListForRoom(ctx context.Context, p *model.Principal, roomID string, statuses []model.BookingStatus) ([]model.Booking, error) {
	if err := gate.Authorize(p, model.RoleStaff); err != nil {
		return nil, translateError(err, "")
	}
	if err := c.validator.ValidateID("room_id", roomID); err != nil {
		return nil, apperrors.InvalidInput("Invalid room ID format")
	}
	if err := c.validator.ValidateStatuses(statuses); err != nil {
		return nil, translateError(err, "")
	}

	seq, err := inventory.RetryUnavailable(ctx, c.retryBackoff, func(ctx context.Context) (iter.Seq[model.Booking], error) {
		return c.store.ListBookingsForRoom(ctx, roomID, statuses...)
	})
	if err != nil {
		return nil, translateError(err, "")
	}

	bookings := slices.Collect(seq)
	if bookings == nil {
		bookings = []model.Booking{}
	}
	c.log.Debug("Room bookings listed", "room_id", roomID, "count", len(bookings))
	return bookings, nil
}

// publish announces a committed change. A failed publish is logged and
// never undoes the booking.
func (c *bookingCoordinator) publish(ctx context.Context, eventType string, b *model.Booking) {
	event := events.NewBookingEvent(eventType, b, c.now())
	if err := c.publisher.Publish(ctx, event); err != nil {
		c.log.Error("Failed to publish booking event",
			"type", eventType,
			"id", b.ID,
			"error", err,
		)
	}
}
