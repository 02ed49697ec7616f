// README: Pre-booking service: scheduled rides at a discounted fare.
package prebook

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"campusride/internal/modules/ride"
	"campusride/internal/types"
)

var (
	ErrValidation = errors.New("invalid pre-booking")
	ErrNotFound   = errors.New("pre-booking not found")
	ErrConflict   = errors.New("pre-booking already handled")
)

// MinLead is the shortest notice a pre-booking may give. Anything closer to
// departure is an on-demand ride, not a pre-booking.
const MinLead = 30 * time.Minute

type Store interface {
	Create(ctx context.Context, p *PreBooking) error
	Get(ctx context.Context, id types.ID) (*PreBooking, error)
	List(ctx context.Context) ([]*PreBooking, error)
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, now time.Time) (bool, error)
}

// Pricing resolves the pre-booking fare, including the lead-time discount.
type Pricing interface {
	Quote(ctx context.Context, prebooked bool, scheduledAt *time.Time, now time.Time) (types.Money, error)
}

type Service struct {
	store   Store
	pricing Pricing
	now     func() time.Time
}

func NewService(store Store, pricing Pricing) *Service {
	return &Service{store: store, pricing: pricing, now: time.Now}
}

type CreateCommand struct {
	RiderID     types.ID
	Pickup      string
	Dropoff     string
	ScheduledAt time.Time
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*PreBooking, error) {
	if cmd.RiderID == "" || cmd.Pickup == "" || cmd.Dropoff == "" {
		return nil, ErrValidation
	}
	if !ride.ValidLocation(cmd.Pickup) || !ride.ValidLocation(cmd.Dropoff) {
		return nil, ErrValidation
	}
	if cmd.Pickup == cmd.Dropoff {
		return nil, ErrValidation
	}
	now := s.now()
	if cmd.ScheduledAt.Sub(now) < MinLead {
		return nil, ErrValidation
	}

	fare, err := s.pricing.Quote(ctx, true, &cmd.ScheduledAt, now)
	if err != nil {
		return nil, err
	}
	p := &PreBooking{
		ID:          types.ID(uuid.NewString()),
		RiderID:     cmd.RiderID,
		Pickup:      cmd.Pickup,
		Dropoff:     cmd.Dropoff,
		ScheduledAt: cmd.ScheduledAt,
		Fare:        fare,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) List(ctx context.Context) ([]*PreBooking, error) {
	return s.store.List(ctx)
}

func (s *Service) Get(ctx context.Context, id types.ID) (*PreBooking, error) {
	return s.store.Get(ctx, id)
}

// UpdateStatus applies a guarded transition within the closed status set.
func (s *Service) UpdateStatus(ctx context.Context, id types.ID, to Status) error {
	if !ValidStatus(to) {
		return ErrValidation
	}
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if !CanTransition(p.Status, to) {
		return ErrConflict
	}
	ok, err := s.store.UpdateStatus(ctx, id, p.Status, to, s.now())
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	return nil
}
