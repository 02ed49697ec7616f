// README: Hero application: the pending-review artifact, distinct from an
// activated driver record.
package application

import (
	"time"

	"campusride/internal/types"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

type Application struct {
	ID            types.ID
	Name          string
	Phone         string
	Gender        types.Gender
	VehicleType   string
	VehicleNumber string
	LicenseNo     string
	// IDProofRef points at the uploaded document in whatever object store the
	// onboarding UI used; this service only retains the reference.
	IDProofRef  string
	Agreed      bool
	Status      Status
	SubmittedAt time.Time
	ReviewedAt  *time.Time
}
