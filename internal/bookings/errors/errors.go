package errors

import (
	"errors"
	"fmt"

	"lakeside/pkg/model"
)

// Validation failures, raised before anything is written.
var (
	ErrInvalidRange = errors.New("check-out must be after check-in")
	ErrPastDate     = errors.New("check-in date is in the past")
	ErrOverlap      = errors.New("requested dates overlap an existing booking")
)

// Conflict failures, raised at commit time.
var (
	ErrSlotTaken               = errors.New("room was booked for these dates by a concurrent request")
	ErrCodeGenerationExhausted = errors.New("could not allocate a unique confirmation code")
)

// Store failures.
var (
	ErrNotFound         = errors.New("booking not found")
	ErrInvalidID        = errors.New("invalid booking ID format")
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomExists       = errors.New("room already exists")
	ErrRoomInUse        = errors.New("room has active bookings")
	ErrAlreadyCancelled = errors.New("booking is already cancelled")
	ErrStoreUnavailable = errors.New("room inventory store is unavailable")
)

// ValidationError carries the existing stay that made a candidate invalid.
type ValidationError struct {
	Err         error
	Conflicting model.DateRange
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: conflicts with %s", e.Err, e.Conflicting)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func NewOverlapError(conflicting model.DateRange) *ValidationError {
	return &ValidationError{Err: ErrOverlap, Conflicting: conflicting}
}

// ConflictError carries the stay that won a concurrent commit.
type ConflictError struct {
	Err         error
	Conflicting model.DateRange
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%v: conflicts with %s", e.Err, e.Conflicting)
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}

func NewSlotTakenError(conflicting model.DateRange) *ConflictError {
	return &ConflictError{Err: ErrSlotTaken, Conflicting: conflicting}
}

// ConflictingRange extracts the conflicting stay from either error type.
func ConflictingRange(err error) (model.DateRange, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Conflicting, true
	}
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce.Conflicting, true
	}
	return model.DateRange{}, false
}
