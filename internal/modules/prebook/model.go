// README: Pre-booking record and its status flow.
package prebook

import (
	"time"

	"campusride/internal/types"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// AllowedTransitions is the closed status set for pre-bookings. Terminal
// states have no outgoing edges.
var AllowedTransitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

type PreBooking struct {
	ID          types.ID
	RiderID     types.ID
	Pickup      string
	Dropoff     string
	ScheduledAt time.Time
	Fare        types.Money
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
