// README: Matching query: online ∩ approved ∩ gender preference.
package matching

import (
	"context"
	"fmt"

	"campusride/internal/modules/driver"
	"campusride/internal/types"
)

type PresenceSource interface {
	OnlineIDs(ctx context.Context) ([]types.ID, error)
}

type DriverSource interface {
	ListApproved(ctx context.Context) ([]*driver.Driver, error)
}

type Service struct {
	presence PresenceSource
	drivers  DriverSource
}

func NewService(presence PresenceSource, drivers DriverSource) *Service {
	return &Service{presence: presence, drivers: drivers}
}

// Eligible returns the drivers a ride with the given preference could be
// offered to. There is no fallback relaxation: a preference of "F" with no
// online female drivers yields an empty result, reported truthfully.
// Store failures surface as errors; zero eligible drivers is a nil error
// with an empty set, and callers must not conflate the two.
func (s *Service) Eligible(ctx context.Context, pref types.Preference) (Eligibility, error) {
	ids, err := s.presence.OnlineIDs(ctx)
	if err != nil {
		return Eligibility{}, fmt.Errorf("presence query: %w", err)
	}
	if len(ids) == 0 {
		return Eligibility{}, nil
	}
	online := make(map[types.ID]bool, len(ids))
	for _, id := range ids {
		online[id] = true
	}

	approved, err := s.drivers.ListApproved(ctx)
	if err != nil {
		return Eligibility{}, fmt.Errorf("driver query: %w", err)
	}

	var el Eligibility
	for _, d := range approved {
		if !online[d.ID] {
			continue
		}
		if !pref.Matches(d.Gender) {
			continue
		}
		d.Online = true
		el.Drivers = append(el.Drivers, d)
	}
	el.Count = len(el.Drivers)
	return el, nil
}

func (s *Service) EligibleCount(ctx context.Context, pref types.Preference) (int, error) {
	el, err := s.Eligible(ctx, pref)
	if err != nil {
		return 0, err
	}
	return el.Count, nil
}
