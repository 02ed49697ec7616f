// README: Driver presence, listing, and stats handlers.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campusride/internal/modules/driver"
	"campusride/internal/types"
)

type DriverHandler struct {
	driver *driver.Service
}

func NewDriverHandler(svc *driver.Service) *DriverHandler {
	return &DriverHandler{driver: svc}
}

type driverResp struct {
	DriverID      types.ID `json:"driver_id"`
	Name          string   `json:"name"`
	Gender        string   `json:"gender"`
	VehicleType   string   `json:"vehicle_type"`
	VehicleNumber string   `json:"vehicle_number"`
	Online        bool     `json:"is_online"`
}

func toDriverResp(d *driver.Driver) driverResp {
	return driverResp{
		DriverID:      d.ID,
		Name:          d.Name,
		Gender:        string(d.Gender),
		VehicleType:   d.VehicleType,
		VehicleNumber: d.VehicleNumber,
		Online:        d.Online,
	}
}

func (h *DriverHandler) List(c *gin.Context) {
	drivers, err := h.driver.ListApproved(c.Request.Context())
	if err != nil {
		writeDomainError(c, err)
		return
	}
	out := make([]driverResp, 0, len(drivers))
	for _, d := range drivers {
		out = append(out, toDriverResp(d))
	}
	writeJSON(c, http.StatusOK, gin.H{"drivers": out, "count": len(out)})
}

type setOnlineReq struct {
	Online *bool `json:"is_online"`
}

func (h *DriverHandler) SetOnline(c *gin.Context) {
	var req setOnlineReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Online == nil {
		writeError(c, http.StatusBadRequest, "missing is_online")
		return
	}
	id := types.ID(c.Param("id"))
	if err := h.driver.SetOnline(c.Request.Context(), id, *req.Online); err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"driver_id": id, "is_online": *req.Online})
}

func (h *DriverHandler) Stats(c *gin.Context) {
	stats, err := h.driver.Stats(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, stats)
}
