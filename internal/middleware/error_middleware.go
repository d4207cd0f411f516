package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkontaxis/thesisdesk/internal/app/models/dto"
	"github.com/pkontaxis/thesisdesk/internal/pkg/apperrors"
	"github.com/pkontaxis/thesisdesk/internal/pkg/logger"
)

// errorMapping binds an application error to its HTTP status and code
type errorMapping struct {
	err    error
	status int
	code   dto.ErrorCode
}

var errorMappings = []errorMapping{
	// Authentication
	{apperrors.ErrInvalidCredentials, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials},
	{apperrors.ErrTokenExpired, http.StatusUnauthorized, dto.ErrorCodeExpiredToken},
	{apperrors.ErrTokenInvalid, http.StatusUnauthorized, dto.ErrorCodeInvalidToken},
	{apperrors.ErrTokenNotFound, http.StatusUnauthorized, dto.ErrorCodeUnauthorized},

	// Authorization
	{apperrors.ErrPermissionDenied, http.StatusForbidden, dto.ErrorCodeForbidden},
	{apperrors.ErrNotCommittee, http.StatusForbidden, dto.ErrorCodeForbidden},

	// Not found
	{apperrors.ErrUserNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
	{apperrors.ErrTopicNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
	{apperrors.ErrThesisNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
	{apperrors.ErrInvitationNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
	{apperrors.ErrAttachmentNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
	{apperrors.ErrPresentationNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
	{apperrors.ErrGradeNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
	{apperrors.ErrResourceNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},

	// Validation
	{apperrors.ErrMissingReason, http.StatusBadRequest, dto.ErrorCodeMissingReason},
	{apperrors.ErrGradeOutOfRange, http.StatusBadRequest, dto.ErrorCodeGradeOutOfRange},
	{apperrors.ErrNotInstructor, http.StatusBadRequest, dto.ErrorCodeValidationFailed},
	{apperrors.ErrNoFilesUploaded, http.StatusBadRequest, dto.ErrorCodeValidationFailed},
	{apperrors.ErrTooManyFiles, http.StatusBadRequest, dto.ErrorCodeValidationFailed},
	{apperrors.ErrFileTooLarge, http.StatusBadRequest, dto.ErrorCodeValidationFailed},
	{apperrors.ErrInvalidFileType, http.StatusBadRequest, dto.ErrorCodeValidationFailed},
	{apperrors.ErrScheduleNotFuture, http.StatusBadRequest, dto.ErrorCodeValidationFailed},
	{apperrors.ErrRoomRequired, http.StatusBadRequest, dto.ErrorCodeValidationFailed},
	{apperrors.ErrLinkRequired, http.StatusBadRequest, dto.ErrorCodeValidationFailed},
	{apperrors.ErrSelfInvite, http.StatusBadRequest, dto.ErrorCodeValidationFailed},
	{apperrors.ErrValidationFailed, http.StatusBadRequest, dto.ErrorCodeValidationFailed},
	{apperrors.ErrBadRequest, http.StatusBadRequest, dto.ErrorCodeValidationFailed},

	// Lifecycle
	{apperrors.ErrInvalidTransition, http.StatusConflict, dto.ErrorCodeInvalidTransition},
	{apperrors.ErrThesisClosed, http.StatusConflict, dto.ErrorCodeThesisClosed},
	{apperrors.ErrPresentationState, http.StatusConflict, dto.ErrorCodeThesisClosed},
	{apperrors.ErrNotGradeable, http.StatusConflict, dto.ErrorCodeThesisClosed},

	// Conflicts
	{apperrors.ErrEmailAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
	{apperrors.ErrStudentHasActiveThesis, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
	{apperrors.ErrTopicAlreadyAssigned, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
	{apperrors.ErrTopicHasActiveTheses, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
	{apperrors.ErrAlreadyMember, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
	{apperrors.ErrDuplicateInvite, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
	{apperrors.ErrAlreadyResponded, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
	{apperrors.ErrAlreadyScheduled, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
	{apperrors.ErrDuplicateGrade, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
	{apperrors.ErrResourceAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
	{apperrors.ErrConflict, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
}

// HandleAPIError maps an application error to its HTTP response
func HandleAPIError(c *gin.Context, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			c.JSON(m.status, dto.NewErrorResponse(dto.NewErrorDetail(m.code, err.Error())))
			return
		}
	}

	logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Unhandled error")
	detail := dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error")
	c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(detail))
}

// HandleValidationError maps a request-binding failure to a 400 response
func HandleValidationError(c *gin.Context, err error) {
	detail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid request body").WithDetails(err.Error())
	c.JSON(http.StatusBadRequest, dto.NewErrorResponse(detail))
}
