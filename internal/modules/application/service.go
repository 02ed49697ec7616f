// README: Hero onboarding: submission and one-way admin decisions.
package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"campusride/internal/types"
)

var (
	ErrValidation = errors.New("invalid application")
	ErrNotFound   = errors.New("application not found")
	// ErrDecided rejects a second decision: approvals and rejections are
	// one-way, there is no un-approving.
	ErrDecided = errors.New("application already decided")
)

type Store interface {
	Create(ctx context.Context, a *Application) error
	Get(ctx context.Context, id types.ID) (*Application, error)
	List(ctx context.Context, status Status) ([]*Application, error)
	Decide(ctx context.Context, id types.ID, to Status, now time.Time) (bool, error)
	CountPending(ctx context.Context) (int, error)
}

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

type SubmitCommand struct {
	Name          string
	Phone         string
	Gender        types.Gender
	VehicleType   string
	VehicleNumber string
	LicenseNo     string
	IDProofRef    string
	Agreed        bool
}

func (s *Service) Submit(ctx context.Context, cmd SubmitCommand) (*Application, error) {
	if cmd.Name == "" || cmd.Phone == "" || cmd.VehicleNumber == "" {
		return nil, ErrValidation
	}
	if !cmd.Gender.Valid() {
		return nil, ErrValidation
	}
	if !cmd.Agreed {
		return nil, ErrValidation
	}
	a := &Application{
		ID:            types.ID(uuid.NewString()),
		Name:          cmd.Name,
		Phone:         cmd.Phone,
		Gender:        cmd.Gender,
		VehicleType:   cmd.VehicleType,
		VehicleNumber: cmd.VehicleNumber,
		LicenseNo:     cmd.LicenseNo,
		IDProofRef:    cmd.IDProofRef,
		Agreed:        true,
		Status:        StatusPending,
		SubmittedAt:   s.now(),
	}
	if err := s.store.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) List(ctx context.Context, status Status) ([]*Application, error) {
	return s.store.List(ctx, status)
}

// Decide approves or rejects a pending application. Approval activates the
// driver record used by matching.
func (s *Service) Decide(ctx context.Context, id types.ID, to Status) error {
	if to != StatusApproved && to != StatusRejected {
		return ErrValidation
	}
	a, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if a.Status != StatusPending {
		return ErrDecided
	}
	ok, err := s.store.Decide(ctx, id, to, s.now())
	if err != nil {
		return err
	}
	if !ok {
		return ErrDecided
	}
	return nil
}

func (s *Service) CountPending(ctx context.Context) (int, error) {
	return s.store.CountPending(ctx)
}
