package inventory

import (
	"context"
	"errors"
	"iter"
	"slices"
	"time"

	bookingserrors "lakeside/internal/bookings/errors"
	"lakeside/pkg/model"
)

// Store owns rooms and bookings. Every value it returns is a copy.
type Store interface {
	GetRoom(ctx context.Context, id string) (*model.Room, error)
	ListRooms(ctx context.Context, limit int, offset int64) ([]model.Room, int64, error)
	ListRoomTypes(ctx context.Context) ([]string, error)
	CreateRoom(ctx context.Context, room model.Room) (*model.Room, error)
	UpdateRoom(ctx context.Context, id string, update model.RoomUpdate) (*model.Room, error)

	// DeleteRoom removes a room and its booking history. It fails with
	// ErrRoomInUse while any booking of the room is active, checked
	// atomically with commits on the same room.
	DeleteRoom(ctx context.Context, id string) error

	// ListBookingsForRoom returns a finite snapshot of the room's bookings
	// in insertion order, filtered to statuses when any are given. The
	// sequence may be ranged over more than once.
	ListBookingsForRoom(ctx context.Context, roomID string, statuses ...model.BookingStatus) (iter.Seq[model.Booking], error)
	GetBooking(ctx context.Context, id string) (*model.Booking, error)

	// CommitBooking is the only way to create a booking. Overlap with an
	// active booking is re-checked atomically per room, a unique
	// confirmation code is assigned and the booking is stored confirmed.
	CommitBooking(ctx context.Context, candidate model.Booking) (*model.Booking, error)
	CancelBooking(ctx context.Context, id string) (*model.Booking, error)

	Ping(ctx context.Context) error
}

// Snapshot exposes a copied slice as a restartable sequence.
func Snapshot(bookings []model.Booking) iter.Seq[model.Booking] {
	return slices.Values(slices.Clone(bookings))
}

// MatchesStatus reports whether status passes the filter. An empty filter
// matches everything.
func MatchesStatus(status model.BookingStatus, statuses []model.BookingStatus) bool {
	return len(statuses) == 0 || slices.Contains(statuses, status)
}

// ContextError maps a cancelled or expired context to ErrStoreUnavailable.
func ContextError(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.Join(bookingserrors.ErrStoreUnavailable, err)
	}
	return nil
}

// RetryUnavailable runs op and, when it fails with ErrStoreUnavailable,
// runs it exactly once more after backoff. Any other error is returned
// immediately.
func RetryUnavailable[T any](ctx context.Context, backoff time.Duration, op func(context.Context) (T, error)) (T, error) {
	v, err := op(ctx)
	if err == nil || !errors.Is(err, bookingserrors.ErrStoreUnavailable) {
		return v, err
	}

	if backoff > 0 {
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return v, err
		case <-timer.C:
		}
	}
	if ctx.Err() != nil {
		return v, err
	}
	return op(ctx)
}
