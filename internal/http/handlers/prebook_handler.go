// README: Pre-booking handlers: schedule ahead, list, and move through the lifecycle.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"campusride/internal/http/middleware"
	"campusride/internal/modules/prebook"
	"campusride/internal/types"
)

type PreBookHandler struct {
	prebook *prebook.Service
}

func NewPreBookHandler(svc *prebook.Service) *PreBookHandler {
	return &PreBookHandler{prebook: svc}
}

type createPreBookReq struct {
	Pickup      string `json:"pickup"`
	Dropoff     string `json:"dropoff"`
	ScheduledAt string `json:"scheduled_at"`
}

type preBookResp struct {
	PreBookID   types.ID       `json:"prebook_id"`
	RiderID     types.ID       `json:"rider_id"`
	Pickup      string         `json:"pickup"`
	Dropoff     string         `json:"dropoff"`
	ScheduledAt string         `json:"scheduled_at"`
	Fare        int64          `json:"fare"`
	Currency    string         `json:"currency"`
	Status      prebook.Status `json:"status"`
	CreatedAt   string         `json:"created_at"`
}

func toPreBookResp(b *prebook.PreBooking) preBookResp {
	return preBookResp{
		PreBookID:   b.ID,
		RiderID:     b.RiderID,
		Pickup:      b.Pickup,
		Dropoff:     b.Dropoff,
		ScheduledAt: b.ScheduledAt.UTC().Format(time.RFC3339),
		Fare:        b.Fare.Amount,
		Currency:    b.Fare.Currency,
		Status:      b.Status,
		CreatedAt:   b.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *PreBookHandler) Create(c *gin.Context) {
	riderID, ok := middleware.UserFrom(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "not authenticated")
		return
	}
	var req createPreBookReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	at, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid scheduled_at")
		return
	}
	b, err := h.prebook.Create(c.Request.Context(), prebook.CreateCommand{
		RiderID:     riderID,
		Pickup:      req.Pickup,
		Dropoff:     req.Dropoff,
		ScheduledAt: at,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, toPreBookResp(b))
}

func (h *PreBookHandler) List(c *gin.Context) {
	bookings, err := h.prebook.List(c.Request.Context())
	if err != nil {
		writeDomainError(c, err)
		return
	}
	out := make([]preBookResp, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toPreBookResp(b))
	}
	writeJSON(c, http.StatusOK, gin.H{"prebookings": out, "count": len(out)})
}

type preBookStatusReq struct {
	Status string `json:"status"`
}

func (h *PreBookHandler) UpdateStatus(c *gin.Context) {
	var req preBookStatusReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == "" {
		writeError(c, http.StatusBadRequest, "missing status")
		return
	}
	id := types.ID(c.Param("id"))
	if err := h.prebook.UpdateStatus(c.Request.Context(), id, prebook.Status(req.Status)); err != nil {
		writeDomainError(c, err)
		return
	}
	b, err := h.prebook.Get(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toPreBookResp(b))
}
