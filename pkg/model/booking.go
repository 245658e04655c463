package model

import (
	"time"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

// ActiveBookingStatuses are the statuses that hold a room for their dates.
var ActiveBookingStatuses = []BookingStatus{BookingPending, BookingConfirmed}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCancelled:
		return true
	}
	return false
}

// Active reports whether a booking in this status occupies the room.
func (s BookingStatus) Active() bool {
	return s == BookingPending || s == BookingConfirmed
}

// CanTransitionTo allows pending->confirmed, pending->cancelled and
// confirmed->cancelled only.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	switch s {
	case BookingPending:
		return next == BookingConfirmed || next == BookingCancelled
	case BookingConfirmed:
		return next == BookingCancelled
	}
	return false
}

type Booking struct {
	ID               string        `json:"id" bson:"_id"`
	RoomID           string        `json:"room_id" bson:"room_id"`
	GuestID          string        `json:"guest_id" bson:"guest_id"`
	CheckIn          time.Time     `json:"check_in" bson:"check_in"`
	CheckOut         time.Time     `json:"check_out" bson:"check_out"`
	ConfirmationCode string        `json:"confirmation_code,omitempty" bson:"confirmation_code,omitempty"`
	Status           BookingStatus `json:"status" bson:"status"`
	CreatedAt        time.Time     `json:"created_at" bson:"created_at"`
	CancelledAt      *time.Time    `json:"cancelled_at,omitempty" bson:"cancelled_at,omitempty"`
}

func (b Booking) Range() DateRange {
	return DateRange{CheckIn: b.CheckIn, CheckOut: b.CheckOut}
}

// BookingRequest is the inbound payload for a new booking. GuestID is only
// honoured for staff acting on behalf of a guest.
type BookingRequest struct {
	RoomID   string `json:"room_id" validate:"required,uuid"`
	GuestID  string `json:"guest_id,omitempty" validate:"omitempty,min=1,max=100"`
	CheckIn  string `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut string `json:"check_out" validate:"required,datetime=2006-01-02"`
}

func (r *BookingRequest) DateRange() (DateRange, error) {
	return ParseDateRange(r.CheckIn, r.CheckOut)
}
