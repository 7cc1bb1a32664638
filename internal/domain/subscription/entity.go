package subscription

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidTransition = errors.New("invalid subscription status transition")

type Status string

const (
	StatusIncomplete Status = "incomplete"
	StatusActive     Status = "active"
	StatusPaused     Status = "paused"
	StatusCanceled   Status = "canceled"
)

var allowed = map[Status][]Status{
	StatusIncomplete: {StatusActive, StatusCanceled},
	StatusActive:     {StatusPaused, StatusCanceled},
	StatusPaused:     {StatusActive, StatusCanceled},
}

func (s Status) CanTransitionTo(to Status) bool {
	for _, a := range allowed[s] {
		if a == to {
			return true
		}
	}
	return false
}

// Subscription mirrors a recurring agreement held by the payment processor.
type Subscription struct {
	ID                     uuid.UUID
	ProviderSubscriptionID string
	UserID                 *uuid.UUID
	PlanID                 *uuid.UUID
	Status                 Status
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

func New(providerID string, userID, planID *uuid.UUID, now time.Time) *Subscription {
	return &Subscription{
		ID:                     uuid.New(),
		ProviderSubscriptionID: providerID,
		UserID:                 userID,
		PlanID:                 planID,
		Status:                 StatusIncomplete,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
}

func (s *Subscription) TransitionTo(to Status, now time.Time) error {
	if s.Status == to {
		return nil
	}
	if !s.Status.CanTransitionTo(to) {
		return ErrInvalidTransition
	}
	s.Status = to
	s.UpdatedAt = now
	return nil
}
