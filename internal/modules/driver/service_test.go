// README: Driver service tests over in-memory registry and presence fakes.
package driver

import (
	"context"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"campusride/internal/observability"
	"campusride/internal/types"
)

type memRegistry struct {
	mu      sync.Mutex
	drivers map[types.ID]*Driver
}

func newMemRegistry(drivers ...*Driver) *memRegistry {
	m := &memRegistry{drivers: make(map[types.ID]*Driver)}
	for _, d := range drivers {
		cp := *d
		m.drivers[d.ID] = &cp
	}
	return m
}

func (m *memRegistry) Get(_ context.Context, id types.ID) (*Driver, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drivers[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *memRegistry) ListApproved(_ context.Context) ([]*Driver, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Driver
	for _, d := range m.drivers {
		if d.Approval == ApprovalApproved {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memRegistry) SetOnline(_ context.Context, id types.ID, online bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drivers[id]
	if !ok {
		return false, nil
	}
	if !online && d.ActiveRideID != nil {
		return false, nil
	}
	d.Online = online
	return true, nil
}

func (m *memRegistry) Stats(_ context.Context, id types.ID) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drivers[id]
	if !ok {
		return Stats{}, ErrNotFound
	}
	return Stats{TotalRides: d.TotalRides, TotalEarnings: d.TotalEarnings, CompletedRides: d.TotalRides}, nil
}

type memPresence struct {
	mu     sync.Mutex
	online map[types.ID]bool
}

func newMemPresence() *memPresence {
	return &memPresence{online: make(map[types.ID]bool)}
}

func (m *memPresence) SetOnline(_ context.Context, id types.ID, online bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if online {
		m.online[id] = true
	} else {
		delete(m.online, id)
	}
	return nil
}

func (m *memPresence) OnlineIDs(_ context.Context) ([]types.ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []types.ID
	for id := range m.online {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *memPresence) IsOnline(_ context.Context, id types.ID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online[id], nil
}

func approvedDriver(id types.ID, g types.Gender) *Driver {
	return &Driver{ID: id, Name: string(id), Gender: g, Approval: ApprovalApproved}
}

func TestSetOnlineApprovedDriver(t *testing.T) {
	ctx := context.Background()
	reg := newMemRegistry(approvedDriver("d1", types.GenderMale))
	pres := newMemPresence()
	svc := NewService(reg, pres)

	if err := svc.SetOnline(ctx, "d1", true); err != nil {
		t.Fatalf("set online: %v", err)
	}
	on, _ := pres.IsOnline(ctx, "d1")
	if !on {
		t.Fatal("expected driver present in online set")
	}

	if err := svc.SetOnline(ctx, "d1", false); err != nil {
		t.Fatalf("set offline: %v", err)
	}
	on, _ = pres.IsOnline(ctx, "d1")
	if on {
		t.Fatal("expected driver removed from online set")
	}
}

func TestSetOnlineGaugeMovesOnlyOnStateChange(t *testing.T) {
	ctx := context.Background()
	reg := newMemRegistry(approvedDriver("d_repeat", types.GenderMale))
	pres := newMemPresence()
	svc := NewService(reg, pres)

	base := testutil.ToFloat64(observability.DriversOnline)

	for i := 0; i < 3; i++ {
		if err := svc.SetOnline(ctx, "d_repeat", true); err != nil {
			t.Fatalf("set online #%d: %v", i+1, err)
		}
	}
	if got := testutil.ToFloat64(observability.DriversOnline); got != base+1 {
		t.Fatalf("gauge after repeated online = %v, want %v", got, base+1)
	}

	for i := 0; i < 3; i++ {
		if err := svc.SetOnline(ctx, "d_repeat", false); err != nil {
			t.Fatalf("set offline #%d: %v", i+1, err)
		}
	}
	if got := testutil.ToFloat64(observability.DriversOnline); got != base {
		t.Fatalf("gauge after repeated offline = %v, want %v", got, base)
	}
}

func TestSetOnlineRejectsPendingDriver(t *testing.T) {
	ctx := context.Background()
	d := approvedDriver("d_pending", types.GenderFemale)
	d.Approval = ApprovalPending
	svc := NewService(newMemRegistry(d), newMemPresence())

	if err := svc.SetOnline(ctx, "d_pending", true); err != ErrNotApproved {
		t.Fatalf("expected ErrNotApproved, got %v", err)
	}
}

func TestSetOfflineRejectedWhileRideActive(t *testing.T) {
	ctx := context.Background()
	d := approvedDriver("d_busy", types.GenderMale)
	rid := types.ID("ride-1")
	d.ActiveRideID = &rid
	svc := NewService(newMemRegistry(d), newMemPresence())

	if err := svc.SetOnline(ctx, "d_busy", false); err != ErrRideActive {
		t.Fatalf("expected ErrRideActive, got %v", err)
	}
}

func TestSetOnlineUnknownDriver(t *testing.T) {
	svc := NewService(newMemRegistry(), newMemPresence())
	if err := svc.SetOnline(context.Background(), "ghost", true); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListApprovedResolvesOnlineFlag(t *testing.T) {
	ctx := context.Background()
	reg := newMemRegistry(
		approvedDriver("d1", types.GenderMale),
		approvedDriver("d2", types.GenderFemale),
	)
	pres := newMemPresence()
	svc := NewService(reg, pres)

	if err := svc.SetOnline(ctx, "d2", true); err != nil {
		t.Fatalf("set online: %v", err)
	}
	drivers, err := svc.ListApproved(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, d := range drivers {
		want := d.ID == "d2"
		if d.Online != want {
			t.Errorf("driver %s online = %v, want %v", d.ID, d.Online, want)
		}
	}
}
