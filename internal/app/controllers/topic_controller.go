package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pkontaxis/thesisdesk/internal/app/models/dto"
	"github.com/pkontaxis/thesisdesk/internal/app/repositories"
	"github.com/pkontaxis/thesisdesk/internal/app/services"
	"github.com/pkontaxis/thesisdesk/internal/middleware"
	"github.com/pkontaxis/thesisdesk/internal/pkg/helpers"
	"github.com/rs/zerolog"
)

// TopicController handles thesis topic operations
type TopicController struct {
	topicService services.TopicService
	logger       zerolog.Logger
}

// NewTopicController creates a new TopicController
func NewTopicController(topicService services.TopicService, logger zerolog.Logger) *TopicController {
	return &TopicController{
		topicService: topicService,
		logger:       logger,
	}
}

// parseIDParam reads a positive int64 path parameter
func parseIDParam(ctx *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		detail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid id parameter").WithField(name)
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(detail))
		return 0, false
	}
	return id, true
}

// Create handles topic creation
// @Summary Create a topic
// @Description Creates a thesis topic owned by the calling instructor. An optional PDF description can be attached as multipart field "description".
// @Tags topics
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param title formData string true "Topic title"
// @Param summary formData string true "Topic summary"
// @Param description formData file false "PDF description"
// @Success 201 {object} dto.StructuredResponse{data=dto.TopicResponse} "Topic created"
// @Failure 400 {object} dto.ErrorResponse "Invalid request"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Router /topics [post]
func (c *TopicController) Create(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)

	var req dto.CreateTopicRequest
	if err := ctx.ShouldBind(&req); err != nil {
		middleware.HandleValidationError(ctx, err)
		return
	}

	// Optional PDF attachment
	description, err := ctx.FormFile("description")
	if err != nil {
		description = nil
	}

	resp, err := c.topicService.Create(ctx.Request.Context(), user, &req, description)
	if err != nil {
		c.logger.Error().Err(err).Int64("userID", user.ID).Msg("Failed to create topic")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewStructuredResponse(resp, "Topic created"))
}

// List handles topic listing
// @Summary List topics
// @Description Lists topics with optional filters. available=true keeps only topics without an open thesis.
// @Tags topics
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Param available query bool false "Only topics without an open thesis"
// @Param creatorId query int false "Filter by creator"
// @Param search query string false "Title search"
// @Success 200 {object} dto.StructuredResponse{data=dto.TopicListResponse} "Topics"
// @Router /topics [get]
func (c *TopicController) List(ctx *gin.Context) {
	page, pageSize := helpers.ParsePaginationParams(ctx)

	var filter repositories.TopicFilter
	filter.AvailableOnly = ctx.Query("available") == "true"
	if v := ctx.Query("creatorId"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.CreatorID = &id
		}
	}
	if v := ctx.Query("search"); v != "" {
		filter.Search = &v
	}

	resp, err := c.topicService.List(ctx.Request.Context(), filter, page, pageSize)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewStructuredResponse(resp, "Topics retrieved"))
}

// Get handles topic retrieval
// @Summary Get a topic
// @Tags topics
// @Produce json
// @Security BearerAuth
// @Param id path int true "Topic ID"
// @Success 200 {object} dto.StructuredResponse{data=dto.TopicDetailResponse} "Topic"
// @Failure 404 {object} dto.ErrorResponse "Topic not found"
// @Router /topics/{id} [get]
func (c *TopicController) Get(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	resp, err := c.topicService.Get(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewStructuredResponse(resp, "Topic retrieved"))
}

// Update handles topic updates
// @Summary Update a topic
// @Description Updates the title or summary of a topic. Only the creator or the secretary may update.
// @Tags topics
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Topic ID"
// @Param request body dto.UpdateTopicRequest true "Fields to update"
// @Success 200 {object} dto.StructuredResponse{data=dto.TopicResponse} "Topic updated"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Topic not found"
// @Router /topics/{id} [put]
func (c *TopicController) Update(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.UpdateTopicRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(ctx, err)
		return
	}

	resp, err := c.topicService.Update(ctx.Request.Context(), user, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewStructuredResponse(resp, "Topic updated"))
}

// UploadDescription replaces the PDF description of a topic
// @Summary Upload a topic description
// @Tags topics
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param id path int true "Topic ID"
// @Param description formData file true "PDF description"
// @Success 200 {object} dto.StructuredResponse{data=dto.TopicResponse} "Description stored"
// @Failure 400 {object} dto.ErrorResponse "No file or wrong type"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Router /topics/{id}/description [put]
func (c *TopicController) UploadDescription(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	file, err := ctx.FormFile("description")
	if err != nil {
		detail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "A description file is required").WithField("description")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(detail))
		return
	}

	resp, err := c.topicService.UploadDescription(ctx.Request.Context(), user, id, file)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewStructuredResponse(resp, "Description stored"))
}

// Delete handles topic deletion
// @Summary Delete a topic
// @Description Deletes a topic. Fails while theses still reference it.
// @Tags topics
// @Produce json
// @Security BearerAuth
// @Param id path int true "Topic ID"
// @Success 200 {object} dto.StructuredResponse "Topic deleted"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Topic not found"
// @Failure 409 {object} dto.ErrorResponse "Topic has active theses"
// @Router /topics/{id} [delete]
func (c *TopicController) Delete(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.topicService.Delete(ctx.Request.Context(), user, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("topicID", id).Int64("userID", user.ID).Msg("Topic deleted")
	ctx.JSON(http.StatusOK, dto.NewStructuredResponse(nil, "Topic deleted"))
}
