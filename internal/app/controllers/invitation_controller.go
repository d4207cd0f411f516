package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkontaxis/thesisdesk/internal/app/models"
	"github.com/pkontaxis/thesisdesk/internal/app/models/dto"
	"github.com/pkontaxis/thesisdesk/internal/app/services"
	"github.com/pkontaxis/thesisdesk/internal/middleware"
	"github.com/rs/zerolog"
)

// InvitationController handles committee formation operations
type InvitationController struct {
	invitationService services.InvitationService
	logger            zerolog.Logger
}

// NewInvitationController creates a new InvitationController
func NewInvitationController(invitationService services.InvitationService, logger zerolog.Logger) *InvitationController {
	return &InvitationController{
		invitationService: invitationService,
		logger:            logger,
	}
}

// ListMine lists the caller's invitations
// @Summary List own invitations
// @Description Lists the calling instructor's committee invitations, newest first
// @Tags invitations
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status (PENDING, ACCEPTED, REJECTED)"
// @Success 200 {object} dto.StructuredResponse{data=[]dto.InvitationResponse} "Invitations"
// @Failure 403 {object} dto.ErrorResponse "Not an instructor"
// @Router /invitations [get]
func (c *InvitationController) ListMine(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)

	var status *models.InvitationStatus
	if v := ctx.Query("status"); v != "" {
		s := models.InvitationStatus(v)
		if s != models.InvitationPending && s != models.InvitationAccepted && s != models.InvitationRejected {
			detail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Unknown invitation status").WithField("status")
			ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(detail))
			return
		}
		status = &s
	}

	resp, err := c.invitationService.ListMine(ctx.Request.Context(), user, status)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewStructuredResponse(resp, "Invitations retrieved"))
}

// Invite sends a committee invitation
// @Summary Invite an instructor to a committee
// @Tags invitations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Thesis ID"
// @Param request body dto.InviteRequest true "Instructor to invite"
// @Success 201 {object} dto.StructuredResponse{data=dto.InvitationResponse} "Invitation sent"
// @Failure 400 {object} dto.ErrorResponse "Target is not an instructor"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 409 {object} dto.ErrorResponse "Already a member or already invited"
// @Router /invitations/theses/{id}/invite [post]
func (c *InvitationController) Invite(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)
	thesisID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.InviteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(ctx, err)
		return
	}

	resp, err := c.invitationService.Invite(ctx.Request.Context(), user, thesisID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewStructuredResponse(resp, "Invitation sent"))
}

// Respond accepts or rejects an invitation
// @Summary Respond to an invitation
// @Description Accepts or rejects a committee invitation. The response reports whether the acceptance completed the committee and activated the thesis.
// @Tags invitations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Invitation ID"
// @Param request body dto.RespondRequest true "Response"
// @Success 200 {object} dto.StructuredResponse{data=dto.RespondResult} "Response recorded"
// @Failure 403 {object} dto.ErrorResponse "Not the invited instructor"
// @Failure 409 {object} dto.ErrorResponse "Already responded or thesis closed"
// @Router /invitations/{id}/respond [post]
func (c *InvitationController) Respond(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)
	invitationID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.RespondRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(ctx, err)
		return
	}

	resp, err := c.invitationService.Respond(ctx.Request.Context(), user, invitationID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	message := "Invitation rejected"
	if req.Accept {
		message = "Invitation accepted"
	}
	if resp.Activated {
		message = "Invitation accepted, thesis activated"
	}
	ctx.JSON(http.StatusOK, dto.NewStructuredResponse(resp, message))
}

// Committee lists the committee of a thesis
// @Summary Get a thesis committee
// @Tags invitations
// @Produce json
// @Security BearerAuth
// @Param id path int true "Thesis ID"
// @Success 200 {object} dto.StructuredResponse{data=dto.CommitteeResponse} "Committee"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Thesis not found"
// @Router /invitations/theses/{id}/committee [get]
func (c *InvitationController) Committee(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)
	thesisID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	resp, err := c.invitationService.Committee(ctx.Request.Context(), user, thesisID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewStructuredResponse(resp, "Committee retrieved"))
}

// AvailableInstructors lists the instructors that can still be invited
// @Summary List invitable instructors
// @Tags invitations
// @Produce json
// @Security BearerAuth
// @Param id path int true "Thesis ID"
// @Success 200 {object} dto.StructuredResponse{data=[]dto.UserResponse} "Instructors"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Router /invitations/theses/{id}/available-instructors [get]
func (c *InvitationController) AvailableInstructors(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)
	thesisID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	resp, err := c.invitationService.AvailableInstructors(ctx.Request.Context(), user, thesisID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewStructuredResponse(resp, "Available instructors retrieved"))
}
