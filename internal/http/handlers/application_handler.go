// README: Hero application submission and admin review handlers.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"campusride/internal/modules/application"
	"campusride/internal/types"
)

type ApplicationHandler struct {
	applications *application.Service
}

func NewApplicationHandler(svc *application.Service) *ApplicationHandler {
	return &ApplicationHandler{applications: svc}
}

type submitApplicationReq struct {
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	Gender        string `json:"gender"`
	VehicleType   string `json:"vehicle_type"`
	VehicleNumber string `json:"vehicle_number"`
	LicenseNo     string `json:"license_no"`
	IDProofRef    string `json:"id_proof_ref"`
	Agreed        bool   `json:"agreed"`
}

type applicationResp struct {
	ApplicationID types.ID           `json:"application_id"`
	Name          string             `json:"name"`
	Phone         string             `json:"phone"`
	Gender        string             `json:"gender"`
	VehicleType   string             `json:"vehicle_type"`
	VehicleNumber string             `json:"vehicle_number"`
	Status        application.Status `json:"status"`
	SubmittedAt   string             `json:"submitted_at"`
	ReviewedAt    *string            `json:"reviewed_at,omitempty"`
}

func toApplicationResp(a *application.Application) applicationResp {
	return applicationResp{
		ApplicationID: a.ID,
		Name:          a.Name,
		Phone:         a.Phone,
		Gender:        string(a.Gender),
		VehicleType:   a.VehicleType,
		VehicleNumber: a.VehicleNumber,
		Status:        a.Status,
		SubmittedAt:   a.SubmittedAt.UTC().Format(time.RFC3339),
		ReviewedAt:    timeString(a.ReviewedAt),
	}
}

func (h *ApplicationHandler) Submit(c *gin.Context) {
	var req submitApplicationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	a, err := h.applications.Submit(c.Request.Context(), application.SubmitCommand{
		Name:          req.Name,
		Phone:         req.Phone,
		Gender:        types.Gender(req.Gender),
		VehicleType:   req.VehicleType,
		VehicleNumber: req.VehicleNumber,
		LicenseNo:     req.LicenseNo,
		IDProofRef:    req.IDProofRef,
		Agreed:        req.Agreed,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, toApplicationResp(a))
}

func (h *ApplicationHandler) List(c *gin.Context) {
	status := application.Status(c.DefaultQuery("status", string(application.StatusPending)))
	apps, err := h.applications.List(c.Request.Context(), status)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	out := make([]applicationResp, 0, len(apps))
	for _, a := range apps {
		out = append(out, toApplicationResp(a))
	}
	writeJSON(c, http.StatusOK, gin.H{"applications": out, "count": len(out)})
}

type decisionReq struct {
	Decision string `json:"decision"`
}

func (h *ApplicationHandler) Decide(c *gin.Context) {
	var req decisionReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Decision == "" {
		writeError(c, http.StatusBadRequest, "missing decision")
		return
	}
	id := types.ID(c.Param("id"))
	err := h.applications.Decide(c.Request.Context(), id, application.Status(req.Decision))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"application_id": id, "status": req.Decision})
}
