// README: Ride lifecycle engine: guarded state transitions from request to completion.
package ride

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"campusride/internal/config"
	"campusride/internal/observability"
	"campusride/internal/types"
)

var (
	ErrValidation = errors.New("invalid ride request")
	// ErrNoDriversAvailable is a normal, reportable outcome of the
	// eligibility check, not a system fault.
	ErrNoDriversAvailable = errors.New("no drivers available")
	ErrNotFound           = errors.New("ride not found")
	// ErrConflict signals a guarded transition whose precondition no longer
	// holds: the ride was already taken, cancelled, or has moved on.
	ErrConflict     = errors.New("ride already handled")
	ErrInvalidState = errors.New("invalid state transition")
	ErrInvalidOTP   = errors.New("otp mismatch")
	// ErrDriverUnavailable rejects an accept from a driver who already has an
	// active ride or lost approval.
	ErrDriverUnavailable = errors.New("driver unavailable")
)

// Store is the ride system of record. Every status-changing method expresses
// its precondition in the update predicate and reports success by whether the
// guarded row matched; the store's atomic single-row update is the only
// concurrency primitive the engine relies on.
type Store interface {
	Create(ctx context.Context, r *Ride) error
	Get(ctx context.Context, id types.ID) (*Ride, error)
	// ListOpenSince returns requested, unassigned rides created after cutoff,
	// newest first.
	ListOpenSince(ctx context.Context, cutoff time.Time) ([]*Ride, error)
	// Accept assigns the driver and OTP under the guard
	// status='requested' AND driver_id IS NULL, and claims the driver's
	// active-ride slot in the same transaction. Returns ErrDriverUnavailable
	// when the driver side of the guard fails.
	Accept(ctx context.Context, rideID, driverID types.ID, otp string, now time.Time) (bool, error)
	// UpdateStatus performs the guarded transition from→to and records the
	// timestamps and payment flag implied by the target status.
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, now time.Time) (bool, error)
	// Cancel is a guarded transition to cancelled that also releases the
	// assigned driver's active-ride slot, if any.
	Cancel(ctx context.Context, id types.ID, from Status, now time.Time) (bool, error)
	// Complete finishes an in-progress ride and applies the driver stats
	// increment (rides +1, earnings += fare) in the same transaction.
	Complete(ctx context.Context, id types.ID, now time.Time) (bool, error)
	CurrentForDriver(ctx context.Context, driverID types.ID) (*Ride, error)
	// ListStaleAccepted returns rides sitting in accepted since before cutoff.
	ListStaleAccepted(ctx context.Context, cutoff time.Time) ([]*Ride, error)
	CountsByStatus(ctx context.Context) (map[Status]int, error)
	AppendEvent(ctx context.Context, e *Event) error
}

// Eligibility is the matching query consulted before a ride is created.
type Eligibility interface {
	EligibleCount(ctx context.Context, pref types.Preference) (int, error)
}

// Pricing resolves the fare at creation time.
type Pricing interface {
	Quote(ctx context.Context, prebooked bool, scheduledAt *time.Time, now time.Time) (types.Money, error)
}

type Service struct {
	store    Store
	matching Eligibility
	pricing  Pricing
	cfg      config.RideConfig
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(store Store, matching Eligibility, pricing Pricing, cfg config.RideConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		matching: matching,
		pricing:  pricing,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

type CreateCommand struct {
	RiderID     types.ID
	Pickup      string
	Dropoff     string
	RiderGender types.Gender
	DriverPref  types.Preference
	Prebooked   bool
	ScheduledAt *time.Time
}

type AcceptCommand struct {
	RideID   types.ID
	DriverID types.ID
}

type DeclineCommand struct {
	RideID    types.ID
	ActorType string
}

type VerifyOTPCommand struct {
	RideID types.ID
	OTP    string
}

type StartCommand struct {
	RideID types.ID
}

type EndCommand struct {
	RideID types.ID
}

// Create validates the request, requires at least one eligible driver for
// on-demand rides, prices the trip, and inserts it in requested state.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Ride, error) {
	if cmd.RiderID == "" || cmd.Pickup == "" || cmd.Dropoff == "" {
		return nil, ErrValidation
	}
	if !ValidLocation(cmd.Pickup) || !ValidLocation(cmd.Dropoff) {
		return nil, ErrValidation
	}
	if cmd.Pickup == cmd.Dropoff {
		return nil, ErrValidation
	}
	// Rider gender is informational for the driver's request card; empty is
	// allowed, anything else must be a real gender value.
	if cmd.RiderGender != "" && !cmd.RiderGender.Valid() {
		return nil, ErrValidation
	}
	if cmd.DriverPref == "" {
		cmd.DriverPref = types.PreferAny
	}
	if !cmd.DriverPref.Valid() {
		return nil, ErrValidation
	}
	if cmd.Prebooked && cmd.ScheduledAt == nil {
		return nil, ErrValidation
	}

	// Pre-bookings are matched closer to their scheduled time, so only
	// on-demand rides require eligible drivers right now.
	if !cmd.Prebooked {
		count, err := s.matching.EligibleCount(ctx, cmd.DriverPref)
		if err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, ErrNoDriversAvailable
		}
	}

	now := s.now()
	fare, err := s.pricing.Quote(ctx, cmd.Prebooked, cmd.ScheduledAt, now)
	if err != nil {
		return nil, err
	}

	r := &Ride{
		ID:          types.ID(uuid.NewString()),
		RiderID:     cmd.RiderID,
		Status:      StatusRequested,
		Pickup:      cmd.Pickup,
		Dropoff:     cmd.Dropoff,
		Fare:        fare,
		RiderGender: cmd.RiderGender,
		DriverPref:  cmd.DriverPref,
		Payment:     PaymentPending,
		Prebooked:   cmd.Prebooked,
		ScheduledAt: cmd.ScheduledAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Create(ctx, r); err != nil {
		return nil, err
	}
	s.appendEvent(ctx, &Event{
		RideID:     r.ID,
		Kind:       EventStatusChange,
		FromStatus: StatusNone,
		ToStatus:   StatusRequested,
		ActorType:  "rider",
		ActorID:    &cmd.RiderID,
		CreatedAt:  now,
	})
	observability.RidesCreated.Inc()
	return r, nil
}

// ListOpenRequests returns requested rides still inside the acceptance
// window, newest first, each with its remaining seconds. Rides older than the
// window stay in the store but are no longer offered.
func (s *Service) ListOpenRequests(ctx context.Context) ([]OpenRequest, error) {
	now := s.now()
	rides, err := s.store.ListOpenSince(ctx, now.Add(-s.cfg.RequestWindow))
	if err != nil {
		return nil, err
	}
	out := make([]OpenRequest, 0, len(rides))
	for _, r := range rides {
		remaining := int((s.cfg.RequestWindow - now.Sub(r.CreatedAt)) / time.Second)
		if remaining < 0 {
			remaining = 0
		}
		out = append(out, OpenRequest{Ride: r, TimeRemaining: remaining})
	}
	return out, nil
}

// Accept is the contended transition: the first driver whose guarded update
// lands wins the ride and is issued the OTP; everyone else gets ErrConflict.
func (s *Service) Accept(ctx context.Context, cmd AcceptCommand) (*Ride, error) {
	if cmd.RideID == "" || cmd.DriverID == "" {
		return nil, ErrValidation
	}
	r, err := s.store.Get(ctx, cmd.RideID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(r.Status, StatusAccepted) {
		return nil, ErrConflict
	}
	if s.now().Sub(r.CreatedAt) >= s.cfg.RequestWindow {
		// Stale request: excluded from matching, so accepting it is a
		// conflict, same as losing the guard.
		return nil, ErrConflict
	}

	otp := newOTP()
	ok, err := s.store.Accept(ctx, cmd.RideID, cmd.DriverID, otp, s.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		observability.AcceptConflicts.Inc()
		return nil, ErrConflict
	}
	s.appendEvent(ctx, &Event{
		RideID:     cmd.RideID,
		Kind:       EventStatusChange,
		FromStatus: StatusRequested,
		ToStatus:   StatusAccepted,
		ActorType:  "driver",
		ActorID:    &cmd.DriverID,
		CreatedAt:  s.now(),
	})
	return s.store.Get(ctx, cmd.RideID)
}

// Decline cancels a ride from requested or accepted only. Declining a ride
// that has progressed past OTP verification, or already ended, is a conflict.
func (s *Service) Decline(ctx context.Context, cmd DeclineCommand) error {
	r, err := s.store.Get(ctx, cmd.RideID)
	if err != nil {
		return err
	}
	if !CanTransition(r.Status, StatusCancelled) {
		return ErrConflict
	}
	ok, err := s.store.Cancel(ctx, cmd.RideID, r.Status, s.now())
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	actor := cmd.ActorType
	if actor == "" {
		actor = "driver"
	}
	s.appendEvent(ctx, &Event{
		RideID:     cmd.RideID,
		Kind:       EventStatusChange,
		FromStatus: r.Status,
		ToStatus:   StatusCancelled,
		ActorType:  actor,
		ActorID:    r.DriverID,
		CreatedAt:  s.now(),
	})
	return nil
}

// VerifyOTP gates payment confirmation on the pairing code. A mismatch leaves
// the ride untouched; on success the ride is marked paid and a
// payment_confirmed event is recorded alongside the status change.
func (s *Service) VerifyOTP(ctx context.Context, cmd VerifyOTPCommand) error {
	r, err := s.store.Get(ctx, cmd.RideID)
	if err != nil {
		return err
	}
	if !CanTransition(r.Status, StatusOTPVerified) {
		return ErrConflict
	}
	if r.OTP == "" || r.OTP != cmd.OTP {
		observability.OTPFailures.Inc()
		return ErrInvalidOTP
	}
	now := s.now()
	ok, err := s.store.UpdateStatus(ctx, cmd.RideID, StatusAccepted, StatusOTPVerified, now)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	s.appendEvent(ctx, &Event{
		RideID:     cmd.RideID,
		Kind:       EventStatusChange,
		FromStatus: StatusAccepted,
		ToStatus:   StatusOTPVerified,
		ActorType:  "driver",
		ActorID:    r.DriverID,
		CreatedAt:  now,
	})
	s.appendEvent(ctx, &Event{
		RideID:    cmd.RideID,
		Kind:      EventPaymentConfirmed,
		ActorType: "system",
		CreatedAt: now,
	})
	return nil
}

// Start moves a verified ride into progress and records the pickup time.
func (s *Service) Start(ctx context.Context, cmd StartCommand) error {
	r, err := s.store.Get(ctx, cmd.RideID)
	if err != nil {
		return err
	}
	if !CanTransition(r.Status, StatusInProgress) {
		return ErrConflict
	}
	now := s.now()
	ok, err := s.store.UpdateStatus(ctx, cmd.RideID, StatusOTPVerified, StatusInProgress, now)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	s.appendEvent(ctx, &Event{
		RideID:     cmd.RideID,
		Kind:       EventStatusChange,
		FromStatus: StatusOTPVerified,
		ToStatus:   StatusInProgress,
		ActorType:  "driver",
		ActorID:    r.DriverID,
		CreatedAt:  now,
	})
	return nil
}

// End completes the ride, records the drop time, and credits the driver's
// lifetime stats exactly once; a second End loses the guard and is a
// no-op ErrConflict.
func (s *Service) End(ctx context.Context, cmd EndCommand) error {
	r, err := s.store.Get(ctx, cmd.RideID)
	if err != nil {
		return err
	}
	if !CanTransition(r.Status, StatusCompleted) {
		return ErrConflict
	}
	now := s.now()
	ok, err := s.store.Complete(ctx, cmd.RideID, now)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	s.appendEvent(ctx, &Event{
		RideID:     cmd.RideID,
		Kind:       EventStatusChange,
		FromStatus: StatusInProgress,
		ToStatus:   StatusCompleted,
		ActorType:  "driver",
		ActorID:    r.DriverID,
		CreatedAt:  now,
	})
	observability.RidesCompleted.Inc()
	return nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Ride, error) {
	return s.store.Get(ctx, id)
}

// CurrentForDriver resolves the driver's single active ride through the
// registry's explicit active-ride reference. Nil means no active ride.
func (s *Service) CurrentForDriver(ctx context.Context, driverID types.ID) (*Ride, error) {
	r, err := s.store.CurrentForDriver(ctx, driverID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return r, err
}

func (s *Service) CountsByStatus(ctx context.Context) (map[Status]int, error) {
	return s.store.CountsByStatus(ctx)
}

// RunExpirySweep is the server-side authority for abandoned assignments:
// rides stuck in accepted past the OTP window are cancelled so stale client
// timers cannot leave drivers pinned to dead rides.
func (s *Service) RunExpirySweep(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.expireStaleAccepted(ctx); err != nil {
				s.logger.Error("expiry sweep", "error", err)
			}
		}
	}
}

func (s *Service) expireStaleAccepted(ctx context.Context) error {
	now := s.now()
	stale, err := s.store.ListStaleAccepted(ctx, now.Add(-s.cfg.AcceptWindow))
	if err != nil {
		return err
	}
	for _, r := range stale {
		ok, err := s.store.Cancel(ctx, r.ID, StatusAccepted, now)
		if err != nil {
			return err
		}
		if !ok {
			// Moved on under us; nothing to do.
			continue
		}
		s.appendEvent(ctx, &Event{
			RideID:     r.ID,
			Kind:       EventStatusChange,
			FromStatus: StatusAccepted,
			ToStatus:   StatusCancelled,
			ActorType:  "system",
			CreatedAt:  now,
		})
		s.logger.Info("expired stale accepted ride", "ride_id", string(r.ID))
	}
	return nil
}

// Event appends are best-effort: the audit trail must never fail a
// transition that already landed.
func (s *Service) appendEvent(ctx context.Context, e *Event) {
	if err := s.store.AppendEvent(ctx, e); err != nil {
		s.logger.Warn("append ride event", "ride_id", string(e.RideID), "error", err)
	}
}
