// README: Ride aggregate, status machine, and campus location list.
package ride

import (
	"time"

	"campusride/internal/types"
)

type Status string

const (
	StatusNone        Status = "none"
	StatusRequested   Status = "requested"
	StatusAccepted    Status = "accepted"
	StatusOTPVerified Status = "otp_verified"
	StatusInProgress  Status = "in_progress"
	StatusCompleted   Status = "completed"
	StatusCancelled   Status = "cancelled"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

// AllowedTransitions represents the ride state flow as code. Terminal states
// have no outgoing edges.
var AllowedTransitions = map[Status][]Status{
	StatusRequested:   {StatusAccepted, StatusCancelled},
	StatusAccepted:    {StatusOTPVerified, StatusCancelled},
	StatusOTPVerified: {StatusInProgress},
	StatusInProgress:  {StatusCompleted},
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

type Ride struct {
	ID          types.ID
	RiderID     types.ID
	DriverID    *types.ID
	Status      Status
	Pickup      string
	Dropoff     string
	Fare        types.Money
	RiderGender types.Gender
	DriverPref  types.Preference
	// OTP is the 4-digit pairing code, assigned once at acceptance and never
	// regenerated. It doubles as the payment-confirmation signal.
	OTP         string
	Payment     PaymentStatus
	Prebooked   bool
	ScheduledAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	PickedUpAt  *time.Time
	DroppedAt   *time.Time
}

// OpenRequest is a requested ride still inside the driver acceptance window.
type OpenRequest struct {
	Ride *Ride
	// TimeRemaining is seconds until the request expires, floored at zero.
	TimeRemaining int
}

type EventKind string

const (
	EventStatusChange     EventKind = "status_change"
	EventPaymentConfirmed EventKind = "payment_confirmed"
)

type Event struct {
	ID         int64
	RideID     types.ID
	Kind       EventKind
	FromStatus Status
	ToStatus   Status
	ActorType  string
	ActorID    *types.ID
	CreatedAt  time.Time
}

// Locations is the fixed campus pickup/drop list. Rides name locations, they
// do not carry coordinates.
var Locations = []string{
	"Gate 1",
	"Gate 2",
	"Gate 3",
	"Library",
	"Main Block",
	"Hostel Block A",
	"Hostel Block B",
	"Girls Hostel",
	"Sports Complex",
	"Canteen",
}

func ValidLocation(name string) bool {
	for _, l := range Locations {
		if l == name {
			return true
		}
	}
	return false
}
