package dto

import "github.com/pkontaxis/thesisdesk/internal/app/models"

// CreateThesisRequest represents a request to assign a topic to a student
type CreateThesisRequest struct {
	TopicID   int64 `json:"topicId" binding:"required,min=1"`
	StudentID int64 `json:"studentId" binding:"required,min=1"`
	// SupervisorID is honored for the secretary only; instructors always
	// supervise theses they create.
	SupervisorID *int64 `json:"supervisorId,omitempty" binding:"omitempty,min=1"`
}

// UpdateThesisStateRequest represents a lifecycle transition request
type UpdateThesisStateRequest struct {
	State              models.ThesisState `json:"state" binding:"required"`
	CancellationReason *string            `json:"cancellationReason,omitempty"`
	APNumber           *string            `json:"apNumber,omitempty"`
}

// ThesisFilter carries optional listing filters
type ThesisFilter struct {
	State        *models.ThesisState
	StudentID    *int64
	SupervisorID *int64
}

// ThesisResponse represents a thesis in API responses
type ThesisResponse struct {
	ID                 int64          `json:"id"`
	State              string         `json:"state"`
	Topic              *TopicResponse `json:"topic,omitempty"`
	Student            *UserResponse  `json:"student,omitempty"`
	Supervisor         *UserResponse  `json:"supervisor,omitempty"`
	AssignedAt         string         `json:"assignedAt"`
	StartedAt          *string        `json:"startedAt,omitempty"`
	FinalizedAt        *string        `json:"finalizedAt,omitempty"`
	CancellationReason *string        `json:"cancellationReason,omitempty"`
	APNumber           *string        `json:"apNumber,omitempty"`
}

// ThesisDetailResponse is a thesis with its committee, attachments and
// presentation
type ThesisDetailResponse struct {
	ThesisResponse
	Committee    []CommitteeMemberResponse `json:"committee"`
	Attachments  []AttachmentResponse      `json:"attachments"`
	Presentation *PresentationResponse     `json:"presentation,omitempty"`
}

// ThesisListResponse represents a paginated thesis listing
type ThesisListResponse struct {
	Theses     []ThesisResponse `json:"theses"`
	Pagination PaginationInfo   `json:"pagination"`
}

// ThesisStatsResponse summarizes thesis counts per state
type ThesisStatsResponse struct {
	Total                int64            `json:"total"`
	ByState              map[string]int64 `json:"byState"`
	AvgDaysToCompletion  *float64         `json:"avgDaysToCompletion,omitempty"`
	CompletedLast12Month int64            `json:"completedLast12Months"`
}

// FromThesis converts a thesis model to its response form
func FromThesis(t *models.Thesis) ThesisResponse {
	if t == nil {
		return ThesisResponse{}
	}
	resp := ThesisResponse{
		ID:                 t.ID,
		State:              string(t.State),
		AssignedAt:         t.AssignedAt.Format(timeFormat),
		CancellationReason: t.CancellationReason,
		APNumber:           t.APNumber,
	}
	if t.StartedAt != nil {
		s := t.StartedAt.Format(timeFormat)
		resp.StartedAt = &s
	}
	if t.FinalizedAt != nil {
		s := t.FinalizedAt.Format(timeFormat)
		resp.FinalizedAt = &s
	}
	if t.Topic != nil {
		topic := FromTopic(t.Topic)
		resp.Topic = &topic
	}
	if t.Student != nil {
		u := FromUser(t.Student)
		resp.Student = &u
	}
	if t.Supervisor != nil {
		u := FromUser(t.Supervisor)
		resp.Supervisor = &u
	}
	return resp
}
