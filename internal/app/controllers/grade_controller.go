package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkontaxis/thesisdesk/internal/app/models/dto"
	"github.com/pkontaxis/thesisdesk/internal/app/services"
	"github.com/pkontaxis/thesisdesk/internal/middleware"
	"github.com/rs/zerolog"
)

// GradeController handles thesis grading operations
type GradeController struct {
	gradeService services.GradeService
	logger       zerolog.Logger
}

// NewGradeController creates a new GradeController
func NewGradeController(gradeService services.GradeService, logger zerolog.Logger) *GradeController {
	return &GradeController{
		gradeService: gradeService,
		logger:       logger,
	}
}

// Create submits a grade
// @Summary Submit a grade
// @Description Submits a grade (0-10) for a thesis under review or completed. Only accepted committee members may grade, once per thesis.
// @Tags grades
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateGradeRequest true "Grade"
// @Success 201 {object} dto.StructuredResponse{data=dto.GradeResponse} "Grade submitted"
// @Failure 400 {object} dto.ErrorResponse "Grade out of range"
// @Failure 403 {object} dto.ErrorResponse "Not an accepted committee member"
// @Failure 409 {object} dto.ErrorResponse "Duplicate grade or thesis not gradeable"
// @Router /grades [post]
func (c *GradeController) Create(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)

	var req dto.CreateGradeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(ctx, err)
		return
	}

	resp, err := c.gradeService.Create(ctx.Request.Context(), user, &req)
	if err != nil {
		c.logger.Warn().Err(err).Int64("thesisID", req.ThesisID).Int64("userID", user.ID).Msg("Grade submission failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewStructuredResponse(resp, "Grade submitted"))
}

// ListByThesis retrieves the grades of a thesis
// @Summary List thesis grades
// @Description Lists the grades of a thesis together with count, average, min and max
// @Tags grades
// @Produce json
// @Security BearerAuth
// @Param id path int true "Thesis ID"
// @Success 200 {object} dto.StructuredResponse{data=dto.ThesisGradesResponse} "Grades"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Router /grades/theses/{id} [get]
func (c *GradeController) ListByThesis(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)
	thesisID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	resp, err := c.gradeService.ListByThesis(ctx.Request.Context(), user, thesisID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewStructuredResponse(resp, "Grades retrieved"))
}

// Update corrects a grade
// @Summary Update a grade
// @Tags grades
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Grade ID"
// @Param request body dto.UpdateGradeRequest true "Fields to update"
// @Success 200 {object} dto.StructuredResponse{data=dto.GradeResponse} "Grade updated"
// @Failure 400 {object} dto.ErrorResponse "Grade out of range"
// @Failure 403 {object} dto.ErrorResponse "Not your grade"
// @Router /grades/{id} [put]
func (c *GradeController) Update(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.UpdateGradeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(ctx, err)
		return
	}

	resp, err := c.gradeService.Update(ctx.Request.Context(), user, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewStructuredResponse(resp, "Grade updated"))
}

// Delete withdraws a grade
// @Summary Delete a grade
// @Tags grades
// @Produce json
// @Security BearerAuth
// @Param id path int true "Grade ID"
// @Success 200 {object} dto.StructuredResponse "Grade withdrawn"
// @Failure 403 {object} dto.ErrorResponse "Not your grade"
// @Router /grades/{id} [delete]
func (c *GradeController) Delete(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.gradeService.Delete(ctx.Request.Context(), user, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewStructuredResponse(nil, "Grade withdrawn"))
}

// InstructorSummary retrieves the caller's grading worklist
// @Summary Instructor grading summary
// @Description Lists theses awaiting the caller's grade and the grades already submitted
// @Tags grades
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.StructuredResponse{data=dto.InstructorGradeSummary} "Summary"
// @Failure 403 {object} dto.ErrorResponse "Not an instructor"
// @Router /grades/instructor/summary [get]
func (c *GradeController) InstructorSummary(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)

	resp, err := c.gradeService.InstructorSummary(ctx.Request.Context(), user)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewStructuredResponse(resp, "Summary retrieved"))
}

// Statistics retrieves the system-wide grading overview
// @Summary Grading statistics
// @Description Grade distribution, most active graders and recent grades across the system. Secretary only.
// @Tags grades
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.StructuredResponse{data=dto.GradeStatisticsResponse} "Statistics"
// @Failure 403 {object} dto.ErrorResponse "Secretary only"
// @Router /grades/statistics [get]
func (c *GradeController) Statistics(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)

	resp, err := c.gradeService.Statistics(ctx.Request.Context(), user)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewStructuredResponse(resp, "Statistics retrieved"))
}
