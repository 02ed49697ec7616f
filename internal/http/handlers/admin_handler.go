// README: Admin overview: live counts across rides, drivers, and applications.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campusride/internal/modules/application"
	"campusride/internal/modules/driver"
	"campusride/internal/modules/ride"
)

type AdminHandler struct {
	ride         *ride.Service
	driver       *driver.Service
	applications *application.Service
}

func NewAdminHandler(rideSvc *ride.Service, driverSvc *driver.Service, appSvc *application.Service) *AdminHandler {
	return &AdminHandler{ride: rideSvc, driver: driverSvc, applications: appSvc}
}

func (h *AdminHandler) Overview(c *gin.Context) {
	ctx := c.Request.Context()
	counts, err := h.ride.CountsByStatus(ctx)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	online, err := h.driver.OnlineCount(ctx)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	pending, err := h.applications.CountPending(ctx)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	rides := make(map[string]int, len(counts))
	for status, n := range counts {
		rides[string(status)] = n
	}
	writeJSON(c, http.StatusOK, gin.H{
		"rides_by_status":      rides,
		"drivers_online":       online,
		"pending_applications": pending,
	})
}
