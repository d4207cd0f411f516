package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkontaxis/thesisdesk/internal/app/models/dto"
	"github.com/pkontaxis/thesisdesk/internal/app/services"
	"github.com/pkontaxis/thesisdesk/internal/middleware"
	"github.com/rs/zerolog"
)

// AttachmentController handles thesis file operations
type AttachmentController struct {
	attachmentService services.AttachmentService
	logger            zerolog.Logger
}

// NewAttachmentController creates a new AttachmentController
func NewAttachmentController(attachmentService services.AttachmentService, logger zerolog.Logger) *AttachmentController {
	return &AttachmentController{
		attachmentService: attachmentService,
		logger:            logger,
	}
}

// Upload handles file uploads for a thesis
// @Summary Upload thesis files
// @Description Uploads one or more files as multipart field "files". Files failing validation are listed under rejected; the rest are stored.
// @Tags attachments
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param id path int true "Thesis ID"
// @Param files formData file true "Files to upload"
// @Param isDraft formData bool false "Mark uploads as drafts"
// @Success 201 {object} dto.StructuredResponse{data=dto.UploadResult} "Upload result"
// @Failure 400 {object} dto.ErrorResponse "No files or too many files"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 409 {object} dto.ErrorResponse "Thesis closed"
// @Router /attachments/theses/{id} [post]
func (c *AttachmentController) Upload(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)
	thesisID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	form, err := ctx.MultipartForm()
	if err != nil {
		middleware.HandleValidationError(ctx, err)
		return
	}
	files := form.File["files"]
	isDraft := ctx.PostForm("isDraft") == "true"

	resp, err := c.attachmentService.Upload(ctx.Request.Context(), user, thesisID, files, isDraft)
	if err != nil {
		c.logger.Error().Err(err).Int64("thesisID", thesisID).Int64("userID", user.ID).Msg("Upload failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewStructuredResponse(resp, "Files processed"))
}

// List lists the attachments of a thesis
// @Summary List thesis attachments
// @Tags attachments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Thesis ID"
// @Param isDraft query bool false "Filter by draft flag"
// @Success 200 {object} dto.StructuredResponse{data=[]dto.AttachmentResponse} "Attachments"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Router /attachments/theses/{id} [get]
func (c *AttachmentController) List(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)
	thesisID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var isDraft *bool
	if v := ctx.Query("isDraft"); v != "" {
		b := v == "true"
		isDraft = &b
	}

	resp, err := c.attachmentService.List(ctx.Request.Context(), user, thesisID, isDraft)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewStructuredResponse(resp, "Attachments retrieved"))
}

// Download streams an attachment
// @Summary Download an attachment
// @Tags attachments
// @Produce octet-stream
// @Security BearerAuth
// @Param id path int true "Attachment ID"
// @Success 200 {file} binary "File content"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Attachment not found"
// @Router /attachments/{id}/download [get]
func (c *AttachmentController) Download(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	att, fullPath, err := c.attachmentService.Download(ctx.Request.Context(), user, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.Header("Content-Type", att.MimeType)
	ctx.FileAttachment(fullPath, att.Filename)
}

// Update toggles the draft flag of an attachment
// @Summary Update an attachment
// @Tags attachments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Attachment ID"
// @Param request body dto.UpdateAttachmentRequest true "Draft flag"
// @Success 200 {object} dto.StructuredResponse{data=dto.AttachmentResponse} "Attachment updated"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Router /attachments/{id} [put]
func (c *AttachmentController) Update(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.UpdateAttachmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(ctx, err)
		return
	}

	resp, err := c.attachmentService.Update(ctx.Request.Context(), user, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewStructuredResponse(resp, "Attachment updated"))
}

// Delete removes an attachment
// @Summary Delete an attachment
// @Tags attachments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Attachment ID"
// @Success 200 {object} dto.StructuredResponse "Attachment deleted"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 409 {object} dto.ErrorResponse "Thesis completed"
// @Router /attachments/{id} [delete]
func (c *AttachmentController) Delete(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.attachmentService.Delete(ctx.Request.Context(), user, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewStructuredResponse(nil, "Attachment deleted"))
}
