package conflict

import (
	"context"
	"iter"
	"time"

	bookingserrors "lakeside/internal/bookings/errors"
	"lakeside/pkg/model"
)

// BookingReader is the read side of the inventory store the resolver needs.
type BookingReader interface {
	ListBookingsForRoom(ctx context.Context, roomID string, statuses ...model.BookingStatus) (iter.Seq[model.Booking], error)
}

// Resolver decides whether a candidate stay may be booked. It never writes;
// the store re-checks overlap at commit.
type Resolver struct {
	reader BookingReader
	now    func() time.Time
}

type Option func(*Resolver)

func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		r.now = now
	}
}

func NewResolver(reader BookingReader, opts ...Option) *Resolver {
	r := &Resolver{reader: reader, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Validate checks candidate against the calendar and the room's active
// bookings. Checks run in order: range, past date, overlap.
func (r *Resolver) Validate(ctx context.Context, room *model.Room, candidate model.DateRange) error {
	if candidate.Empty() {
		return bookingserrors.ErrInvalidRange
	}

	today := model.NormalizeDate(r.now().UTC())
	if candidate.CheckIn.Before(today) {
		return bookingserrors.ErrPastDate
	}

	existing, err := r.reader.ListBookingsForRoom(ctx, room.ID, model.ActiveBookingStatuses...)
	if err != nil {
		return err
	}

	if b, found := FindOverlap(existing, candidate); found {
		return bookingserrors.NewOverlapError(b.Range())
	}
	return nil
}
