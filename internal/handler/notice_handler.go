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

type noticeService interface {
	List(ctx context.Context, institutionID string) ([]models.Notice, error)
	Create(ctx context.Context, req service.CreateNoticeRequest) (*models.Notice, error)
	Delete(ctx context.Context, institutionID, id string) error
}

// NoticeHandler exposes notice management.
type NoticeHandler struct {
	notices noticeService
}

// NewNoticeHandler constructs the handler.
func NewNoticeHandler(notices noticeService) *NoticeHandler {
	return &NoticeHandler{notices: notices}
}

// List godoc
// @Summary List notices for the caller's institution
// @Tags Notices
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /notices [get]
func (h *NoticeHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	notices, err := h.notices.List(c.Request.Context(), claims.InstitutionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notices)
}

// Create godoc
// @Summary Post a notice
// @Tags Notices
// @Accept json
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /notices [post]
func (h *NoticeHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateNoticeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid notice payload"))
		return
	}
	req.InstitutionID = claims.InstitutionID
	notice, err := h.notices.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, notice)
}

// Delete godoc
// @Summary Remove a notice
// @Tags Notices
// @Param id path string true "Notice ID"
// @Success 204
// @Router /notices/{id} [delete]
func (h *NoticeHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.notices.Delete(c.Request.Context(), claims.InstitutionID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
