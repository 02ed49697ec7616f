// README: Ride lifecycle handlers: request, open list, accept, decline, status updates.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"campusride/internal/http/middleware"
	"campusride/internal/modules/matching"
	"campusride/internal/modules/ride"
	"campusride/internal/types"
)

type RideHandler struct {
	ride     *ride.Service
	matching *matching.Service
}

func NewRideHandler(rideSvc *ride.Service, matchingSvc *matching.Service) *RideHandler {
	return &RideHandler{ride: rideSvc, matching: matchingSvc}
}

type createRideReq struct {
	Pickup      string  `json:"pickup"`
	Dropoff     string  `json:"dropoff"`
	Gender      string  `json:"gender"`
	Preference  string  `json:"preference"`
	Prebooked   bool    `json:"prebooked"`
	ScheduledAt *string `json:"scheduled_at,omitempty"`
}

type rideResp struct {
	RideID      types.ID    `json:"ride_id"`
	RiderID     types.ID    `json:"rider_id"`
	DriverID    *types.ID   `json:"driver_id,omitempty"`
	Status      ride.Status `json:"status"`
	Pickup      string      `json:"pickup"`
	Dropoff     string      `json:"dropoff"`
	Fare        int64       `json:"fare"`
	Currency    string      `json:"currency"`
	// OTP is only ever populated for the ride's own rider; see Get.
	OTP         *string     `json:"otp,omitempty"`
	Payment     string      `json:"payment_status"`
	Prebooked   bool        `json:"prebooked"`
	ScheduledAt *string     `json:"scheduled_at,omitempty"`
	CreatedAt   string      `json:"created_at"`
	PickedUpAt  *string     `json:"picked_up_at,omitempty"`
	DroppedAt   *string     `json:"dropped_at,omitempty"`
}

func toRideResp(r *ride.Ride) rideResp {
	return rideResp{
		RideID:      r.ID,
		RiderID:     r.RiderID,
		DriverID:    r.DriverID,
		Status:      r.Status,
		Pickup:      r.Pickup,
		Dropoff:     r.Dropoff,
		Fare:        r.Fare.Amount,
		Currency:    r.Fare.Currency,
		Payment:     string(r.Payment),
		Prebooked:   r.Prebooked,
		ScheduledAt: timeString(r.ScheduledAt),
		CreatedAt:   r.CreatedAt.UTC().Format(time.RFC3339),
		PickedUpAt:  timeString(r.PickedUpAt),
		DroppedAt:   timeString(r.DroppedAt),
	}
}

func (h *RideHandler) Create(c *gin.Context) {
	riderID, ok := middleware.UserFrom(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "not authenticated")
		return
	}
	var req createRideReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	cmd := ride.CreateCommand{
		RiderID:     riderID,
		Pickup:      req.Pickup,
		Dropoff:     req.Dropoff,
		RiderGender: types.Gender(req.Gender),
		DriverPref:  types.Preference(req.Preference),
		Prebooked:   req.Prebooked,
	}
	if req.ScheduledAt != nil {
		at, err := time.Parse(time.RFC3339, *req.ScheduledAt)
		if err != nil {
			writeError(c, http.StatusBadRequest, "invalid scheduled_at")
			return
		}
		cmd.ScheduledAt = &at
	}
	r, err := h.ride.Create(c.Request.Context(), cmd)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, toRideResp(r))
}

// Eligible backs the booking screen: it reports whether any driver matching
// the preference is online right now, without creating anything.
func (h *RideHandler) Eligible(c *gin.Context) {
	pref := types.Preference(c.DefaultQuery("preference", string(types.PreferAny)))
	if pref != "" && !pref.Valid() {
		writeError(c, http.StatusBadRequest, "invalid preference")
		return
	}
	n, err := h.matching.EligibleCount(c.Request.Context(), pref)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"available": n > 0, "count": n})
}

type openRequestResp struct {
	rideResp
	Gender        string `json:"gender"`
	Preference    string `json:"preference"`
	TimeRemaining int    `json:"time_remaining"`
}

// ListRequests is the hero polling endpoint: requested rides still inside the
// acceptance window, newest first.
func (h *RideHandler) ListRequests(c *gin.Context) {
	open, err := h.ride.ListOpenRequests(c.Request.Context())
	if err != nil {
		writeDomainError(c, err)
		return
	}
	out := make([]openRequestResp, 0, len(open))
	for _, o := range open {
		out = append(out, openRequestResp{
			rideResp:      toRideResp(o.Ride),
			Gender:        string(o.Ride.RiderGender),
			Preference:    string(o.Ride.DriverPref),
			TimeRemaining: o.TimeRemaining,
		})
	}
	writeJSON(c, http.StatusOK, gin.H{"requests": out, "count": len(out)})
}

type acceptReq struct {
	RideID   string `json:"ride_id"`
	DriverID string `json:"driver_id"`
}

func (h *RideHandler) Accept(c *gin.Context) {
	var req acceptReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.RideID == "" || req.DriverID == "" {
		writeError(c, http.StatusBadRequest, "missing fields")
		return
	}
	r, err := h.ride.Accept(c.Request.Context(), ride.AcceptCommand{
		RideID:   types.ID(req.RideID),
		DriverID: types.ID(req.DriverID),
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	// The OTP is withheld here: the accepting driver must receive it from the
	// rider in person. The rider's own ride view is the only place it appears.
	writeJSON(c, http.StatusOK, gin.H{"ride": toRideResp(r)})
}

type declineReq struct {
	RideID string `json:"ride_id"`
}

func (h *RideHandler) Decline(c *gin.Context) {
	var req declineReq
	if err := c.ShouldBindJSON(&req); err != nil || req.RideID == "" {
		writeError(c, http.StatusBadRequest, "missing ride_id")
		return
	}
	actor := "rider"
	if role, ok := middleware.RoleFrom(c); ok {
		actor = string(role)
	}
	err := h.ride.Decline(c.Request.Context(), ride.DeclineCommand{
		RideID:    types.ID(req.RideID),
		ActorType: actor,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": ride.StatusCancelled})
}

type updateStatusReq struct {
	Status string `json:"status"`
	OTP    string `json:"otp"`
}

// UpdateStatus is the single transition endpoint: the target status selects
// the operation, and otp_verified additionally requires the code.
func (h *RideHandler) UpdateStatus(c *gin.Context) {
	id := types.ID(c.Param("id"))
	var req updateStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	ctx := c.Request.Context()
	var err error
	switch ride.Status(req.Status) {
	case ride.StatusOTPVerified:
		err = h.ride.VerifyOTP(ctx, ride.VerifyOTPCommand{RideID: id, OTP: req.OTP})
	case ride.StatusInProgress:
		err = h.ride.Start(ctx, ride.StartCommand{RideID: id})
	case ride.StatusCompleted:
		err = h.ride.End(ctx, ride.EndCommand{RideID: id})
	case ride.StatusCancelled:
		actor := "rider"
		if role, ok := middleware.RoleFrom(c); ok {
			actor = string(role)
		}
		err = h.ride.Decline(ctx, ride.DeclineCommand{RideID: id, ActorType: actor})
	default:
		writeError(c, http.StatusBadRequest, "unsupported status")
		return
	}
	if err != nil {
		writeDomainError(c, err)
		return
	}
	r, err := h.ride.Get(ctx, id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toRideResp(r))
}

// Get is the rider's polling view of a ride. The pairing code is disclosed
// only to the ride's own rider, who hands it to the driver in person.
func (h *RideHandler) Get(c *gin.Context) {
	r, err := h.ride.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	resp := toRideResp(r)
	if uid, ok := middleware.UserFrom(c); ok && uid == r.RiderID && r.OTP != "" {
		resp.OTP = &r.OTP
	}
	writeJSON(c, http.StatusOK, resp)
}

// Current returns the driver's in-flight ride, or 200 with ride=null when idle.
func (h *RideHandler) Current(c *gin.Context) {
	r, err := h.ride.CurrentForDriver(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	if r == nil {
		writeJSON(c, http.StatusOK, gin.H{"ride": nil})
		return
	}
	resp := toRideResp(r)
	writeJSON(c, http.StatusOK, gin.H{"ride": resp})
}

func (h *RideHandler) Locations(c *gin.Context) {
	writeJSON(c, http.StatusOK, gin.H{"locations": ride.Locations})
}
