package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkontaxis/thesisdesk/internal/app/models/dto"
	"github.com/pkontaxis/thesisdesk/internal/app/services"
	"github.com/pkontaxis/thesisdesk/internal/middleware"
	"github.com/rs/zerolog"
)

// SecretaryController handles secretary reporting operations
type SecretaryController struct {
	secretaryService services.SecretaryService
	logger           zerolog.Logger
}

// NewSecretaryController creates a new SecretaryController
func NewSecretaryController(secretaryService services.SecretaryService, logger zerolog.Logger) *SecretaryController {
	return &SecretaryController{
		secretaryService: secretaryService,
		logger:           logger,
	}
}

// ExportTheses exports every thesis as a flat record set
// @Summary Export theses
// @Tags secretary
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.StructuredResponse{data=dto.ThesisExportResponse} "Export"
// @Failure 403 {object} dto.ErrorResponse "Secretary only"
// @Router /secretary/export/theses [get]
func (c *SecretaryController) ExportTheses(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)

	resp, err := c.secretaryService.ExportTheses(ctx.Request.Context(), user)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewStructuredResponse(resp, "Export generated"))
}

// ComprehensiveReport aggregates system-wide workflow figures
// @Summary Comprehensive report
// @Description Thesis statistics, supervisor load and grading overview in a single report
// @Tags secretary
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.StructuredResponse{data=dto.ComprehensiveReport} "Report"
// @Failure 403 {object} dto.ErrorResponse "Secretary only"
// @Router /secretary/reports/comprehensive [get]
func (c *SecretaryController) ComprehensiveReport(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)

	resp, err := c.secretaryService.ComprehensiveReport(ctx.Request.Context(), user)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewStructuredResponse(resp, "Report generated"))
}

// SystemHealth reports database reachability and entity counts
// @Summary System health
// @Tags secretary
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.StructuredResponse{data=dto.SystemHealthResponse} "Health"
// @Failure 403 {object} dto.ErrorResponse "Secretary only"
// @Router /secretary/system/health [get]
func (c *SecretaryController) SystemHealth(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)

	resp, err := c.secretaryService.SystemHealth(ctx.Request.Context(), user)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewStructuredResponse(resp, "Health checked"))
}
