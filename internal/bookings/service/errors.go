package service

import (
	"errors"

	autherrors "lakeside/internal/auth/errors"
	bookingserrors "lakeside/internal/bookings/errors"
	"lakeside/internal/bookings/validator"
	apperrors "lakeside/pkg/errors"
	"lakeside/pkg/model"
)

func rangeDetails(r model.DateRange) map[string]any {
	return map[string]any{
		"conflicting_check_in":  r.CheckIn.Format(model.DateLayout),
		"conflicting_check_out": r.CheckOut.Format(model.DateLayout),
	}
}

// translateError maps domain failures onto AppErrors. Errors that already
// are AppErrors pass through.
func translateError(err error, bookingID string) error {
	if err == nil || apperrors.IsAppError(err) {
		return err
	}

	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		return apperrors.Validation("Booking request validation failed", map[string]any{"errors": []validator.ValidationError(verrs)})
	case errors.Is(err, autherrors.ErrUnauthenticated):
		return apperrors.Unauthorized("Full authentication is required to access this resource")
	case errors.Is(err, autherrors.ErrForbidden):
		return apperrors.Forbidden("Access to this resource is denied")
	case errors.Is(err, bookingserrors.ErrInvalidRange):
		return apperrors.InvalidRange("check_out must be after check_in")
	case errors.Is(err, bookingserrors.ErrPastDate):
		return apperrors.PastDate("check_in cannot be in the past")
	case errors.Is(err, bookingserrors.ErrOverlap):
		r, _ := bookingserrors.ConflictingRange(err)
		return apperrors.Overlap("Requested dates overlap an existing booking", rangeDetails(r))
	case errors.Is(err, bookingserrors.ErrSlotTaken):
		r, _ := bookingserrors.ConflictingRange(err)
		return apperrors.SlotTaken("Room was booked for these dates by another request", rangeDetails(r))
	case errors.Is(err, bookingserrors.ErrCodeGenerationExhausted):
		return apperrors.CodeGenerationExhausted(err)
	case errors.Is(err, bookingserrors.ErrRoomNotFound):
		return apperrors.NotFound("Room")
	case errors.Is(err, bookingserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Booking", bookingID)
	case errors.Is(err, bookingserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid booking ID format")
	case errors.Is(err, bookingserrors.ErrAlreadyCancelled):
		return apperrors.AlreadyCancelled(bookingID)
	case errors.Is(err, bookingserrors.ErrStoreUnavailable):
		return apperrors.Unavailable("Room inventory").WithCause(err)
	}
	return apperrors.Internal("Failed to process booking", err)
}
