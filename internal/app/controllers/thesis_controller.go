package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pkontaxis/thesisdesk/internal/app/models"
	"github.com/pkontaxis/thesisdesk/internal/app/models/dto"
	"github.com/pkontaxis/thesisdesk/internal/app/services"
	"github.com/pkontaxis/thesisdesk/internal/middleware"
	"github.com/pkontaxis/thesisdesk/internal/pkg/helpers"
	"github.com/rs/zerolog"
)

// ThesisController handles thesis lifecycle operations
type ThesisController struct {
	thesisService services.ThesisService
	logger        zerolog.Logger
}

// NewThesisController creates a new ThesisController
func NewThesisController(thesisService services.ThesisService, logger zerolog.Logger) *ThesisController {
	return &ThesisController{
		thesisService: thesisService,
		logger:        logger,
	}
}

// Create handles thesis assignment
// @Summary Assign a topic to a student
// @Description Creates a thesis in UNDER_ASSIGNMENT. Instructors become supervisor themselves; the secretary names one via supervisorId.
// @Tags theses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateThesisRequest true "Assignment"
// @Success 201 {object} dto.StructuredResponse{data=dto.ThesisResponse} "Thesis created"
// @Failure 400 {object} dto.ErrorResponse "Invalid request"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 409 {object} dto.ErrorResponse "Student or topic already taken"
// @Router /theses [post]
func (c *ThesisController) Create(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)

	var req dto.CreateThesisRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(ctx, err)
		return
	}

	resp, err := c.thesisService.Create(ctx.Request.Context(), user, &req)
	if err != nil {
		c.logger.Error().Err(err).Int64("userID", user.ID).Int64("topicID", req.TopicID).Msg("Failed to create thesis")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewStructuredResponse(resp, "Thesis created"))
}

// List handles thesis listing
// @Summary List theses
// @Description Lists theses visible to the caller. Students see their own, instructors those they take part in, the secretary everything.
// @Tags theses
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Param state query string false "Filter by state"
// @Param studentId query int false "Filter by student (secretary)"
// @Param supervisorId query int false "Filter by supervisor (secretary)"
// @Success 200 {object} dto.StructuredResponse{data=dto.ThesisListResponse} "Theses"
// @Router /theses [get]
func (c *ThesisController) List(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)
	page, pageSize := helpers.ParsePaginationParams(ctx)

	var filter dto.ThesisFilter
	if v := ctx.Query("state"); v != "" {
		state := models.ThesisState(v)
		if !state.Valid() {
			detail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Unknown thesis state").WithField("state")
			ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(detail))
			return
		}
		filter.State = &state
	}
	if v := ctx.Query("studentId"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.StudentID = &id
		}
	}
	if v := ctx.Query("supervisorId"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.SupervisorID = &id
		}
	}

	resp, err := c.thesisService.List(ctx.Request.Context(), user, filter, page, pageSize)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewStructuredResponse(resp, "Theses retrieved"))
}

// Get handles thesis retrieval
// @Summary Get a thesis
// @Description Retrieves a thesis with its committee, attachments and presentation
// @Tags theses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Thesis ID"
// @Success 200 {object} dto.StructuredResponse{data=dto.ThesisDetailResponse} "Thesis"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Thesis not found"
// @Router /theses/{id} [get]
func (c *ThesisController) Get(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	resp, err := c.thesisService.Get(ctx.Request.Context(), user, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewStructuredResponse(resp, "Thesis retrieved"))
}

// UpdateState handles lifecycle transitions
// @Summary Change a thesis state
// @Description Moves the thesis through its lifecycle. Cancelling requires a cancellationReason; completing accepts an optional apNumber.
// @Tags theses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Thesis ID"
// @Param request body dto.UpdateThesisStateRequest true "Target state"
// @Success 200 {object} dto.StructuredResponse{data=dto.ThesisResponse} "State changed"
// @Failure 400 {object} dto.ErrorResponse "Missing reason or invalid payload"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 409 {object} dto.ErrorResponse "Invalid transition"
// @Router /theses/{id}/state [put]
func (c *ThesisController) UpdateState(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.UpdateThesisStateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(ctx, err)
		return
	}

	resp, err := c.thesisService.UpdateState(ctx.Request.Context(), user, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewStructuredResponse(resp, "Thesis state changed"))
}

// Stats handles thesis statistics
// @Summary Thesis statistics
// @Description Thesis counts per state. Instructors see their supervised theses, the secretary the whole system.
// @Tags theses
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.StructuredResponse{data=dto.ThesisStatsResponse} "Statistics"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Router /theses/stats [get]
func (c *ThesisController) Stats(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)

	resp, err := c.thesisService.Stats(ctx.Request.Context(), user)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewStructuredResponse(resp, "Statistics retrieved"))
}
