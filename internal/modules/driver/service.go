// README: Driver registry service: availability toggle, listing, stats.
package driver

import (
	"context"
	"errors"
	"fmt"

	"campusride/internal/observability"
	"campusride/internal/types"
)

var (
	ErrNotFound    = errors.New("driver not found")
	ErrNotApproved = errors.New("driver not approved")
	// ErrRideActive rejects going offline while a ride is in flight.
	ErrRideActive = errors.New("driver has an active ride")
)

type Registry interface {
	Get(ctx context.Context, id types.ID) (*Driver, error)
	ListApproved(ctx context.Context) ([]*Driver, error)
	SetOnline(ctx context.Context, id types.ID, online bool) (bool, error)
	Stats(ctx context.Context, id types.ID) (Stats, error)
}

type Presence interface {
	SetOnline(ctx context.Context, id types.ID, online bool) error
	OnlineIDs(ctx context.Context) ([]types.ID, error)
	IsOnline(ctx context.Context, id types.ID) (bool, error)
}

type Service struct {
	store    Registry
	presence Presence
}

func NewService(store Registry, presence Presence) *Service {
	return &Service{store: store, presence: presence}
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Driver, error) {
	return s.store.Get(ctx, id)
}

// SetOnline toggles availability. Only approved drivers may go online, and a
// driver with an active ride may not go offline.
func (s *Service) SetOnline(ctx context.Context, id types.ID, online bool) error {
	d, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if online && d.Approval != ApprovalApproved {
		return ErrNotApproved
	}
	if !online && d.ActiveRideID != nil {
		return ErrRideActive
	}
	was, err := s.presence.IsOnline(ctx, id)
	if err != nil {
		return fmt.Errorf("presence query: %w", err)
	}
	ok, err := s.store.SetOnline(ctx, id, online)
	if err != nil {
		return err
	}
	if !ok {
		// The guard lost to a concurrent accept.
		return ErrRideActive
	}
	if err := s.presence.SetOnline(ctx, id, online); err != nil {
		return fmt.Errorf("presence update: %w", err)
	}
	// The gauge tracks membership of the presence set, so a repeated toggle
	// in the same direction must not move it.
	if online != was {
		if online {
			observability.DriversOnline.Inc()
		} else {
			observability.DriversOnline.Dec()
		}
	}
	return nil
}

// ListApproved returns approved drivers with their online flag resolved from
// the presence set. Consumed by the rider booking screen on each poll.
func (s *Service) ListApproved(ctx context.Context) ([]*Driver, error) {
	drivers, err := s.store.ListApproved(ctx)
	if err != nil {
		return nil, err
	}
	ids, err := s.presence.OnlineIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("presence query: %w", err)
	}
	online := make(map[types.ID]bool, len(ids))
	for _, id := range ids {
		online[id] = true
	}
	for _, d := range drivers {
		d.Online = online[d.ID]
	}
	return drivers, nil
}

func (s *Service) Stats(ctx context.Context, id types.ID) (Stats, error) {
	return s.store.Stats(ctx, id)
}

func (s *Service) OnlineCount(ctx context.Context) (int, error) {
	ids, err := s.presence.OnlineIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("presence query: %w", err)
	}
	return len(ids), nil
}
