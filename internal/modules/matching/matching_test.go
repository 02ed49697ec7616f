// README: Matching query tests: gender filtering, empty pool, store failure.
package matching

import (
	"context"
	"errors"
	"testing"

	"campusride/internal/modules/driver"
	"campusride/internal/types"
)

type fakePresence struct {
	ids []types.ID
	err error
}

func (f *fakePresence) OnlineIDs(context.Context) ([]types.ID, error) {
	return f.ids, f.err
}

type fakeDrivers struct {
	drivers []*driver.Driver
	err     error
}

func (f *fakeDrivers) ListApproved(context.Context) ([]*driver.Driver, error) {
	return f.drivers, f.err
}

func approved(id types.ID, g types.Gender) *driver.Driver {
	return &driver.Driver{ID: id, Gender: g, Approval: driver.ApprovalApproved}
}

// Fixture from the product's canonical filtering example: driver 3 is female
// but offline and must never match.
func fixture() (*fakePresence, *fakeDrivers) {
	presence := &fakePresence{ids: []types.ID{"1", "2"}}
	drivers := &fakeDrivers{drivers: []*driver.Driver{
		approved("1", types.GenderMale),
		approved("2", types.GenderFemale),
		approved("3", types.GenderFemale),
	}}
	return presence, drivers
}

func ids(el Eligibility) []types.ID {
	out := make([]types.ID, 0, len(el.Drivers))
	for _, d := range el.Drivers {
		out = append(out, d.ID)
	}
	return out
}

func TestEligibleGenderFiltering(t *testing.T) {
	presence, drivers := fixture()
	svc := NewService(presence, drivers)
	ctx := context.Background()

	cases := []struct {
		pref types.Preference
		want []types.ID
	}{
		{types.PreferFemale, []types.ID{"2"}},
		{types.PreferMale, []types.ID{"1"}},
		{types.PreferAny, []types.ID{"1", "2"}},
	}
	for _, tc := range cases {
		el, err := svc.Eligible(ctx, tc.pref)
		if err != nil {
			t.Fatalf("eligible(%s): %v", tc.pref, err)
		}
		got := ids(el)
		if len(got) != len(tc.want) {
			t.Fatalf("eligible(%s) = %v, want %v", tc.pref, got, tc.want)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("eligible(%s) = %v, want %v", tc.pref, got, tc.want)
			}
		}
		if el.Count != len(tc.want) {
			t.Fatalf("count(%s) = %d, want %d", tc.pref, el.Count, len(tc.want))
		}
	}
}

func TestEligibleEmptyPoolIsNotAnError(t *testing.T) {
	svc := NewService(&fakePresence{}, &fakeDrivers{})
	el, err := svc.Eligible(context.Background(), types.PreferAny)
	if err != nil {
		t.Fatalf("expected nil error for empty pool, got %v", err)
	}
	if el.Count != 0 || len(el.Drivers) != 0 {
		t.Fatalf("expected empty eligibility, got %+v", el)
	}
}

func TestEligibleNoFallbackRelaxation(t *testing.T) {
	// Only male drivers online: a female preference must return zero, never
	// silently widen to "Any".
	presence := &fakePresence{ids: []types.ID{"1"}}
	drivers := &fakeDrivers{drivers: []*driver.Driver{approved("1", types.GenderMale)}}
	svc := NewService(presence, drivers)

	el, err := svc.Eligible(context.Background(), types.PreferFemale)
	if err != nil {
		t.Fatalf("eligible: %v", err)
	}
	if el.Count != 0 {
		t.Fatalf("expected 0 eligible, got %d", el.Count)
	}
}

func TestEligibleStoreFailureIsAnError(t *testing.T) {
	svc := NewService(&fakePresence{err: errors.New("redis down")}, &fakeDrivers{})
	if _, err := svc.Eligible(context.Background(), types.PreferAny); err == nil {
		t.Fatal("expected error when presence store fails")
	}

	svc = NewService(&fakePresence{ids: []types.ID{"1"}}, &fakeDrivers{err: errors.New("pg down")})
	if _, err := svc.Eligible(context.Background(), types.PreferAny); err == nil {
		t.Fatal("expected error when driver store fails")
	}
}

func TestEligibleIgnoresUnapprovedOnlineDrivers(t *testing.T) {
	// A driver can hold presence from before a revocation; matching must still
	// require the approved status from the registry.
	presence := &fakePresence{ids: []types.ID{"9"}}
	drivers := &fakeDrivers{drivers: []*driver.Driver{}}
	svc := NewService(presence, drivers)

	el, err := svc.Eligible(context.Background(), types.PreferAny)
	if err != nil {
		t.Fatalf("eligible: %v", err)
	}
	if el.Count != 0 {
		t.Fatalf("expected 0 eligible, got %d", el.Count)
	}
}
