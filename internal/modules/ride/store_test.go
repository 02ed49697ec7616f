// README: DB-backed ride store tests; skipped unless CAMPUSRIDE_TEST_DSN is set.
package ride

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"campusride/internal/types"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("CAMPUSRIDE_TEST_DSN")
	if dsn == "" {
		t.Skip("CAMPUSRIDE_TEST_DSN not set; skipping DB-backed tests")
	}

	ctx := context.Background()
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := applyMigrations(ctx, db); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := db.Exec(ctx, "TRUNCATE TABLE ride_events, rides, drivers CASCADE"); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return db
}

func insertTestDriver(t *testing.T, db *pgxpool.Pool, id types.ID, gender types.Gender) {
	t.Helper()
	_, err := db.Exec(context.Background(), `
		INSERT INTO drivers (id, name, phone, gender, vehicle_type, vehicle_number, approval_status, is_online)
		VALUES ($1, $2, '9999999999', $3, 'bike', 'KA-01-0000', 'approved', TRUE)`,
		string(id), string(id), string(gender),
	)
	if err != nil {
		t.Fatalf("insert driver: %v", err)
	}
}

func insertTestRide(t *testing.T, store *PGStore, rider types.ID) *Ride {
	t.Helper()
	now := time.Now().UTC()
	r := &Ride{
		ID:          types.ID(fmt.Sprintf("550e8400-e29b-41d4-a716-%012d", time.Now().UnixNano()%1e12)),
		RiderID:     rider,
		Status:      StatusRequested,
		Pickup:      "Gate 1",
		Dropoff:     "Library",
		Fare:        types.Money{Amount: 30, Currency: "INR"},
		RiderGender: types.GenderFemale,
		DriverPref:  types.PreferAny,
		Payment:     PaymentPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := store.Create(context.Background(), r); err != nil {
		t.Fatalf("create ride: %v", err)
	}
	return r
}

func TestPGStoreLifecycle(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	insertTestDriver(t, db, "d_pg_happy", types.GenderMale)
	r := insertTestRide(t, store, "u_pg_happy")

	ok, err := store.Accept(ctx, r.ID, "d_pg_happy", "1234", time.Now().UTC())
	if err != nil || !ok {
		t.Fatalf("accept: ok=%v err=%v", ok, err)
	}

	got, err := store.Get(ctx, r.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusAccepted || got.OTP != "1234" || got.DriverID == nil {
		t.Fatalf("unexpected ride after accept: %+v", got)
	}

	cur, err := store.CurrentForDriver(ctx, "d_pg_happy")
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if cur.ID != r.ID {
		t.Fatalf("current ride = %s, want %s", cur.ID, r.ID)
	}

	now := time.Now().UTC()
	if ok, err := store.UpdateStatus(ctx, r.ID, StatusAccepted, StatusOTPVerified, now); err != nil || !ok {
		t.Fatalf("verify update: ok=%v err=%v", ok, err)
	}
	if ok, err := store.UpdateStatus(ctx, r.ID, StatusOTPVerified, StatusInProgress, now); err != nil || !ok {
		t.Fatalf("start update: ok=%v err=%v", ok, err)
	}
	if ok, err := store.Complete(ctx, r.ID, now); err != nil || !ok {
		t.Fatalf("complete: ok=%v err=%v", ok, err)
	}
	// Completion is exactly-once.
	if ok, err := store.Complete(ctx, r.ID, now); err != nil || ok {
		t.Fatalf("second complete must lose the guard: ok=%v err=%v", ok, err)
	}

	var totalRides int
	var totalEarnings int64
	row := db.QueryRow(ctx, `SELECT total_rides, total_earnings FROM drivers WHERE id = 'd_pg_happy'`)
	if err := row.Scan(&totalRides, &totalEarnings); err != nil {
		t.Fatalf("scan driver: %v", err)
	}
	if totalRides != 1 || totalEarnings != 30 {
		t.Fatalf("driver stats = %d/%d, want 1/30", totalRides, totalEarnings)
	}
}

func TestPGStoreConcurrentAccept(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	const attempts = 6
	for i := 0; i < attempts; i++ {
		insertTestDriver(t, db, types.ID(fmt.Sprintf("d_pg_race_%d", i)), types.GenderMale)
	}
	r := insertTestRide(t, store, "u_pg_race")

	var wg sync.WaitGroup
	wins := make(chan bool, attempts)
	for i := 0; i < attempts; i++ {
		driverID := types.ID(fmt.Sprintf("d_pg_race_%d", i))
		wg.Add(1)
		go func(did types.ID) {
			defer wg.Done()
			ok, err := store.Accept(ctx, r.ID, did, "4321", time.Now().UTC())
			if err != nil && err != ErrDriverUnavailable {
				t.Errorf("accept: %v", err)
			}
			wins <- ok
		}(driverID)
	}
	wg.Wait()
	close(wins)

	success := 0
	for ok := range wins {
		if ok {
			success++
		}
	}
	if success != 1 {
		t.Fatalf("expected exactly 1 winning accept, got %d", success)
	}
}

func TestPGStoreOpenRequestsWindow(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	fresh := insertTestRide(t, store, "u_pg_fresh")

	// Backdate one ride past the window.
	stale := insertTestRide(t, store, "u_pg_stale")
	if _, err := db.Exec(ctx, `UPDATE rides SET created_at = NOW() - INTERVAL '4 minutes' WHERE id = $1`, string(stale.ID)); err != nil {
		t.Fatalf("backdate: %v", err)
	}

	open, err := store.ListOpenSince(ctx, time.Now().UTC().Add(-3*time.Minute))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, r := range open {
		if r.ID == stale.ID {
			t.Fatal("stale request must be excluded from the open list")
		}
	}
	found := false
	for _, r := range open {
		if r.ID == fresh.ID {
			found = true
		}
	}
	if !found {
		t.Fatal("fresh request missing from the open list")
	}
}

func applyMigrations(ctx context.Context, db *pgxpool.Pool) error {
	root, err := repoRoot()
	if err != nil {
		return err
	}
	path := filepath.Join(root, "migrations", "0001_init.sql")
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	for _, stmt := range splitSQL(stripSQLComments(string(content))) {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for i := 0; i < 6; i++ {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

func stripSQLComments(input string) string {
	var b strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(input))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		b.WriteString(scanner.Text())
		b.WriteString("\n")
	}
	return b.String()
}

func splitSQL(input string) []string {
	parts := strings.Split(input, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		stmt := strings.TrimSpace(p)
		if stmt == "" {
			continue
		}
		out = append(out, stmt)
	}
	return out
}
