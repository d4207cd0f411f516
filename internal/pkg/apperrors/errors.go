package apperrors

import "errors"

// Common errors
var (
	// Resource errors
	ErrResourceNotFound      = errors.New("resource not found")
	ErrResourceAlreadyExists = errors.New("resource already exists")
	ErrConflict              = errors.New("conflict")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenNotFound      = errors.New("token not found")

	// Authorization errors
	ErrPermissionDenied = errors.New("permission denied")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")

	// User errors
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
)

// Topic errors
var (
	ErrTopicNotFound        = errors.New("topic not found")
	ErrTopicHasActiveTheses = errors.New("topic has active thesis assignments and cannot be deleted")
)

// Thesis errors
var (
	ErrThesisNotFound         = errors.New("thesis not found")
	ErrStudentHasActiveThesis = errors.New("student already has an active thesis assignment")
	ErrTopicAlreadyAssigned   = errors.New("topic is already assigned to another student")
	ErrInvalidTransition      = errors.New("invalid state transition")
	ErrMissingReason          = errors.New("cancellation reason is required")
	ErrThesisClosed           = errors.New("thesis is completed or cancelled")
)

// Committee and invitation errors
var (
	ErrInvitationNotFound = errors.New("invitation not found")
	ErrAlreadyMember      = errors.New("instructor is already on the committee")
	ErrDuplicateInvite    = errors.New("invitation already pending for this instructor")
	ErrSelfInvite         = errors.New("supervisor is already on the committee")
	ErrAlreadyResponded   = errors.New("invitation has already been responded to")
	ErrNotInstructor      = errors.New("target user is not an instructor")
)

// Attachment errors
var (
	ErrAttachmentNotFound = errors.New("attachment not found")
	ErrNoFilesUploaded    = errors.New("no files uploaded")
	ErrTooManyFiles       = errors.New("too many files in request")
	ErrFileTooLarge       = errors.New("file exceeds maximum size")
	ErrInvalidFileType    = errors.New("file type is not allowed")
)

// Presentation errors
var (
	ErrPresentationNotFound = errors.New("presentation not found")
	ErrAlreadyScheduled     = errors.New("presentation already scheduled for this thesis")
	ErrScheduleNotFuture    = errors.New("presentation must be scheduled for a future date")
	ErrRoomRequired         = errors.New("room is required for in-person presentations")
	ErrLinkRequired         = errors.New("online link is required for online presentations")
	ErrPresentationState    = errors.New("thesis is not in a schedulable state")
)

// Grade errors
var (
	ErrGradeNotFound   = errors.New("grade not found")
	ErrGradeOutOfRange = errors.New("grade must be between 0 and 10")
	ErrDuplicateGrade  = errors.New("a grade has already been submitted for this thesis")
	ErrNotCommittee    = errors.New("only accepted committee members can grade this thesis")
	ErrNotGradeable    = errors.New("thesis is not in a gradeable state")
)

// NewResourceNotFoundError creates a new custom error for resource not found with a message
func NewResourceNotFoundError(message string) error {
	return &CustomError{
		Err:     ErrResourceNotFound,
		Message: message,
	}
}

// NewConflictError creates a new custom error for conflict situations with a message
func NewConflictError(message string) error {
	return &CustomError{
		Err:     ErrConflict,
		Message: message,
	}
}

// NewForbiddenError creates a new custom error for permission denied with a message
func NewForbiddenError(message string) error {
	return &CustomError{
		Err:     ErrPermissionDenied,
		Message: message,
	}
}

// NewBadRequestError creates a new custom error for bad request with a message
func NewBadRequestError(message string) error {
	return &CustomError{
		Err:     ErrBadRequest,
		Message: message,
	}
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Details map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}
