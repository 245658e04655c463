package repository

import (
	"errors"
	"time"

	bookingserrors "lakeside/internal/bookings/errors"
	"lakeside/pkg/logger"

	"github.com/sony/gobreaker"
)

// newBreaker trips after maxFailures consecutive store outages. Domain
// outcomes such as a taken slot or a missing room count as successes.
func newBreaker(name string, maxFailures int, openTimeout time.Duration, log *logger.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(maxFailures)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("Circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, bookingserrors.ErrStoreUnavailable)
		},
	})
}

// guarded runs op through cb. A rejected call surfaces as ErrStoreUnavailable.
func guarded[T any](cb *gobreaker.CircuitBreaker, op func() (T, error)) (T, error) {
	v, err := cb.Execute(func() (interface{}, error) {
		return op()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		var zero T
		return zero, errors.Join(bookingserrors.ErrStoreUnavailable, err)
	}
	result, _ := v.(T)
	return result, err
}
