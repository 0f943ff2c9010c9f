package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-track-api/internal/models"
	"github.com/noah-isme/school-track-api/internal/service"
	appErrors "github.com/noah-isme/school-track-api/pkg/errors"
	"github.com/noah-isme/school-track-api/pkg/response"
)

type complaintService interface {
	List(ctx context.Context, institutionID string) ([]models.Complaint, error)
	File(ctx context.Context, req service.FileComplaintRequest) (*models.Complaint, error)
}

// ComplaintHandler exposes complaint management.
type ComplaintHandler struct {
	complaints complaintService
}

// NewComplaintHandler constructs the handler.
func NewComplaintHandler(complaints complaintService) *ComplaintHandler {
	return &ComplaintHandler{complaints: complaints}
}

// List godoc
// @Summary List complaints for the caller's institution
// @Tags Complaints
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /complaints [get]
func (h *ComplaintHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	complaints, err := h.complaints.List(c.Request.Context(), claims.InstitutionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, complaints)
}

// File godoc
// @Summary File a complaint as the calling student
// @Tags Complaints
// @Accept json
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /complaints [post]
func (h *ComplaintHandler) File(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.FileComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid complaint payload"))
		return
	}
	req.InstitutionID = claims.InstitutionID
	req.StudentID = claims.ActorID
	complaint, err := h.complaints.File(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, complaint)
}
