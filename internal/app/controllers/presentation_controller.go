package controllers

import (
	"encoding/xml"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkontaxis/thesisdesk/internal/app/models/dto"
	"github.com/pkontaxis/thesisdesk/internal/app/services"
	"github.com/pkontaxis/thesisdesk/internal/middleware"
	"github.com/rs/zerolog"
)

// PresentationController handles defense scheduling operations
type PresentationController struct {
	presentationService services.PresentationService
	logger              zerolog.Logger
}

// NewPresentationController creates a new PresentationController
func NewPresentationController(presentationService services.PresentationService, logger zerolog.Logger) *PresentationController {
	return &PresentationController{
		presentationService: presentationService,
		logger:              logger,
	}
}

func parseTimeQuery(ctx *gin.Context, name string) (*time.Time, bool) {
	v := ctx.Query(name)
	if v == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		detail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Timestamps must be RFC 3339").WithField(name)
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(detail))
		return nil, false
	}
	return &t, true
}

// Create schedules a defense
// @Summary Schedule a defense
// @Description Schedules the defense of a thesis that is active or under review. Room is required in person, onlineLink online.
// @Tags presentations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreatePresentationRequest true "Schedule"
// @Success 201 {object} dto.StructuredResponse{data=dto.PresentationResponse} "Defense scheduled"
// @Failure 400 {object} dto.ErrorResponse "Past date or missing room/link"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 409 {object} dto.ErrorResponse "Already scheduled or thesis not ready"
// @Router /presentations [post]
func (c *PresentationController) Create(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)

	var req dto.CreatePresentationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(ctx, err)
		return
	}

	resp, err := c.presentationService.Create(ctx.Request.Context(), user, &req)
	if err != nil {
		c.logger.Error().Err(err).Int64("thesisID", req.ThesisID).Int64("userID", user.ID).Msg("Failed to schedule defense")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewStructuredResponse(resp, "Defense scheduled"))
}

// List lists the defenses visible to the caller
// @Summary List defenses
// @Tags presentations
// @Produce json
// @Security BearerAuth
// @Param from query string false "Window start (RFC 3339)"
// @Param to query string false "Window end (RFC 3339)"
// @Success 200 {object} dto.StructuredResponse{data=[]dto.PresentationResponse} "Defenses"
// @Router /presentations [get]
func (c *PresentationController) List(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)

	from, ok := parseTimeQuery(ctx, "from")
	if !ok {
		return
	}
	to, ok := parseTimeQuery(ctx, "to")
	if !ok {
		return
	}

	resp, err := c.presentationService.List(ctx.Request.Context(), user, from, to)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewStructuredResponse(resp, "Defenses retrieved"))
}

// Get retrieves a defense with the accepted committee
// @Summary Get a defense
// @Tags presentations
// @Produce json
// @Security BearerAuth
// @Param id path int true "Presentation ID"
// @Success 200 {object} dto.StructuredResponse{data=dto.PresentationDetailResponse} "Defense"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Presentation not found"
// @Router /presentations/{id} [get]
func (c *PresentationController) Get(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	resp, err := c.presentationService.Get(ctx.Request.Context(), user, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewStructuredResponse(resp, "Defense retrieved"))
}

// Update reschedules a defense
// @Summary Update a defense
// @Tags presentations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Presentation ID"
// @Param request body dto.UpdatePresentationRequest true "Fields to update"
// @Success 200 {object} dto.StructuredResponse{data=dto.PresentationResponse} "Defense updated"
// @Failure 400 {object} dto.ErrorResponse "Past date or missing room/link"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Router /presentations/{id} [put]
func (c *PresentationController) Update(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.UpdatePresentationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(ctx, err)
		return
	}

	resp, err := c.presentationService.Update(ctx.Request.Context(), user, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewStructuredResponse(resp, "Defense updated"))
}

// Delete removes a scheduled defense
// @Summary Delete a defense
// @Tags presentations
// @Produce json
// @Security BearerAuth
// @Param id path int true "Presentation ID"
// @Success 200 {object} dto.StructuredResponse "Defense cancelled"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Router /presentations/{id} [delete]
func (c *PresentationController) Delete(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.presentationService.Delete(ctx.Request.Context(), user, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewStructuredResponse(nil, "Defense cancelled"))
}

// PublicFeed serves the unauthenticated defense announcement feed
// @Summary Public defense feed
// @Description Lists scheduled defenses of theses under review or completed. Returns XML when requested via format=xml or the Accept header, JSON otherwise.
// @Tags presentations
// @Produce json
// @Produce xml
// @Param format query string false "Response format (json or xml)"
// @Success 200 {object} dto.PublicPresentationFeed "Feed"
// @Router /presentations/public [get]
func (c *PresentationController) PublicFeed(ctx *gin.Context) {
	feed, err := c.presentationService.PublicFeed(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	wantsXML := ctx.Query("format") == "xml" ||
		strings.Contains(ctx.GetHeader("Accept"), "application/xml")
	if wantsXML {
		ctx.Header("Content-Type", "application/xml; charset=utf-8")
		ctx.Writer.WriteHeader(http.StatusOK)
		_, _ = ctx.Writer.WriteString(xml.Header)
		_ = xml.NewEncoder(ctx.Writer).Encode(feed)
		return
	}

	ctx.JSON(http.StatusOK, feed)
}
