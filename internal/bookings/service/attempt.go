package service

import (
	"lakeside/pkg/logger"

	"github.com/google/uuid"
)

type attemptState string

const (
	stateRequested  attemptState = "requested"
	stateAuthorized attemptState = "authorized"
	stateValidated  attemptState = "validated"
	stateCommitted  attemptState = "committed"
	stateRejected   attemptState = "rejected"
)

// attempt tracks one booking request through its lifecycle. It moves
// forward one state at a time and stops at the first rejection.
type attempt struct {
	id    string
	state attemptState
	err   error
	log   *logger.Logger
}

func newAttempt(log *logger.Logger) *attempt {
	a := &attempt{id: uuid.New().String(), state: stateRequested}
	a.log = log.With("attempt_id", a.id)
	a.log.Debug("Booking attempt requested")
	return a
}

var nextState = map[attemptState]attemptState{
	stateRequested:  stateAuthorized,
	stateAuthorized: stateValidated,
	stateValidated:  stateCommitted,
}

func (a *attempt) advance(to attemptState) {
	if a.state == stateRejected || nextState[a.state] != to {
		a.log.Error("Invalid booking attempt transition", "from", a.state, "to", to)
		return
	}
	a.log.Debug("Booking attempt transition", "from", a.state, "to", to)
	a.state = to
}

// reject records err and returns it. Only the first failure is kept.
func (a *attempt) reject(err error) error {
	if a.state == stateRejected {
		return a.err
	}
	a.log.Debug("Booking attempt rejected", "from", a.state, "error", err)
	a.state = stateRejected
	a.err = err
	return err
}
