// README: In-memory ride store fake; a mutex stands in for the database's
// atomic row updates so guarded-transition semantics hold under -race.
package ride

import (
	"context"
	"sort"
	"sync"
	"time"

	"campusride/internal/types"
)

type memDriver struct {
	approved      bool
	activeRide    *types.ID
	totalRides    int
	totalEarnings int64
	lastRideAt    *time.Time
}

type memStore struct {
	mu      sync.Mutex
	rides   map[types.ID]*Ride
	drivers map[types.ID]*memDriver
	events  []*Event
}

func newMemStore() *memStore {
	return &memStore{
		rides:   make(map[types.ID]*Ride),
		drivers: make(map[types.ID]*memDriver),
	}
}

func (m *memStore) addDriver(id types.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[id] = &memDriver{approved: true}
}

func (m *memStore) driverState(id types.ID) memDriver {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.drivers[id]
}

func (m *memStore) eventKinds(rideID types.ID) []EventKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []EventKind
	for _, e := range m.events {
		if e.RideID == rideID {
			out = append(out, e.Kind)
		}
	}
	return out
}

func (m *memStore) Create(_ context.Context, r *Ride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.rides[r.ID] = &cp
	return nil
}

func (m *memStore) Get(_ context.Context, id types.ID) (*Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rides[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memStore) ListOpenSince(_ context.Context, cutoff time.Time) ([]*Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Ride
	for _, r := range m.rides {
		if r.Status == StatusRequested && r.DriverID == nil && r.CreatedAt.After(cutoff) {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) Accept(_ context.Context, rideID, driverID types.ID, otp string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rides[rideID]
	if !ok || r.Status != StatusRequested || r.DriverID != nil {
		return false, nil
	}
	d, ok := m.drivers[driverID]
	if !ok || !d.approved || d.activeRide != nil {
		return false, ErrDriverUnavailable
	}
	did := driverID
	r.DriverID = &did
	r.Status = StatusAccepted
	r.OTP = otp
	r.UpdatedAt = now
	rid := rideID
	d.activeRide = &rid
	return true, nil
}

func (m *memStore) UpdateStatus(_ context.Context, id types.ID, from, to Status, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rides[id]
	if !ok || r.Status != from {
		return false, nil
	}
	r.Status = to
	r.UpdatedAt = now
	if to == StatusOTPVerified {
		r.Payment = PaymentPaid
	}
	if to == StatusInProgress {
		t := now
		r.PickedUpAt = &t
	}
	return true, nil
}

func (m *memStore) Cancel(_ context.Context, id types.ID, from Status, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rides[id]
	if !ok || r.Status != from {
		return false, nil
	}
	r.Status = StatusCancelled
	r.UpdatedAt = now
	if r.DriverID != nil {
		if d, ok := m.drivers[*r.DriverID]; ok && d.activeRide != nil && *d.activeRide == id {
			d.activeRide = nil
		}
	}
	return true, nil
}

func (m *memStore) Complete(_ context.Context, id types.ID, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rides[id]
	if !ok || r.Status != StatusInProgress {
		return false, nil
	}
	r.Status = StatusCompleted
	t := now
	r.DroppedAt = &t
	r.UpdatedAt = now
	if r.DriverID != nil {
		if d, ok := m.drivers[*r.DriverID]; ok {
			d.totalRides++
			d.totalEarnings += r.Fare.Amount
			d.activeRide = nil
			d.lastRideAt = &t
		}
	}
	return true, nil
}

func (m *memStore) CurrentForDriver(_ context.Context, driverID types.ID) (*Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drivers[driverID]
	if !ok || d.activeRide == nil {
		return nil, ErrNotFound
	}
	cp := *m.rides[*d.activeRide]
	return &cp, nil
}

func (m *memStore) ListStaleAccepted(_ context.Context, cutoff time.Time) ([]*Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Ride
	for _, r := range m.rides {
		if r.Status == StatusAccepted && r.UpdatedAt.Before(cutoff) {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) CountsByStatus(_ context.Context) (map[Status]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[Status]int)
	for _, r := range m.rides {
		out[r.Status]++
	}
	return out, nil
}

func (m *memStore) AppendEvent(_ context.Context, e *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	m.events = append(m.events, &cp)
	return nil
}
