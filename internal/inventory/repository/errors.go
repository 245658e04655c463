package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	bookingserrors "lakeside/internal/bookings/errors"

	"go.mongodb.org/mongo-driver/mongo"
)

const duplicateKeyCode = 11000

// storeError wraps a driver error with op context. Timeouts, network
// failures and cancelled contexts become ErrStoreUnavailable.
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	if unavailable(err) {
		return errors.Join(bookingserrors.ErrStoreUnavailable, fmt.Errorf("failed to %s: %w", op, err))
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

func unavailable(err error) bool {
	return mongo.IsTimeout(err) ||
		mongo.IsNetworkError(err) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, mongo.ErrClientDisconnected)
}

// codeCollision reports whether err is a unique index violation on the
// confirmation code.
func codeCollision(err error) bool {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == duplicateKeyCode && indexMatches(e.Message, ConfirmationCodeIndex) {
				return true
			}
		}
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		return ce.Code == duplicateKeyCode && indexMatches(ce.Message, ConfirmationCodeIndex)
	}
	return false
}

func indexMatches(message, index string) bool {
	return strings.Contains(message, index)
}
