// README: Driver (Hero) aggregate and approval status definitions.
package driver

import (
	"time"

	"campusride/internal/types"
)

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

type Driver struct {
	ID            types.ID
	UserID        types.ID
	Name          string
	Phone         string
	Gender        types.Gender
	VehicleType   string
	VehicleNumber string
	Approval      ApprovalStatus
	// Online is resolved from the presence set on reads; the drivers table
	// keeps a durable mirror for admin queries.
	Online        bool
	TotalRides    int
	TotalEarnings int64
	// ActiveRideID is the driver's single in-flight ride, set when a ride is
	// accepted and cleared on completion or cancellation.
	ActiveRideID *types.ID
	LastRideAt   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Stats struct {
	TotalRides     int   `json:"totalRides"`
	TotalEarnings  int64 `json:"totalEarnings"`
	CompletedRides int   `json:"completedRides"`
}
