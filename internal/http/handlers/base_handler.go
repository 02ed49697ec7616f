// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"campusride/internal/modules/application"
	"campusride/internal/modules/auth"
	"campusride/internal/modules/driver"
	"campusride/internal/modules/prebook"
	"campusride/internal/modules/ride"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

// writeDomainError maps module sentinel errors onto HTTP status codes. Every
// handler funnels service failures through here so the mapping stays in one
// place.
func writeDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ride.ErrValidation),
		errors.Is(err, prebook.ErrValidation),
		errors.Is(err, application.ErrValidation),
		errors.Is(err, auth.ErrValidation):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, ride.ErrNotFound),
		errors.Is(err, driver.ErrNotFound),
		errors.Is(err, prebook.ErrNotFound),
		errors.Is(err, application.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ride.ErrConflict),
		errors.Is(err, ride.ErrInvalidState),
		errors.Is(err, ride.ErrNoDriversAvailable),
		errors.Is(err, ride.ErrDriverUnavailable),
		errors.Is(err, driver.ErrRideActive),
		errors.Is(err, driver.ErrNotApproved),
		errors.Is(err, prebook.ErrConflict),
		errors.Is(err, application.ErrDecided),
		errors.Is(err, auth.ErrEmailTaken):
		writeError(c, http.StatusConflict, err.Error())
	case errors.Is(err, ride.ErrInvalidOTP):
		writeError(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(c, http.StatusUnauthorized, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func timeString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
