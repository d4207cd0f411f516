package dto

import "github.com/pkontaxis/thesisdesk/internal/app/models"

// CreateTopicRequest represents a request to create a topic
type CreateTopicRequest struct {
	Title   string `json:"title" form:"title" binding:"required,min=3,max=255"`
	Summary string `json:"summary" form:"summary" binding:"required,min=10"`
}

// UpdateTopicRequest represents a request to update a topic
type UpdateTopicRequest struct {
	Title   *string `json:"title,omitempty" binding:"omitempty,min=3,max=255"`
	Summary *string `json:"summary,omitempty" binding:"omitempty,min=10"`
}

// TopicResponse represents a topic in API responses
type TopicResponse struct {
	ID              int64         `json:"id"`
	Title           string        `json:"title"`
	Summary         string        `json:"summary"`
	DescriptionURL  *string       `json:"descriptionUrl,omitempty"`
	Creator         *UserResponse `json:"creator,omitempty"`
	AssignmentCount int           `json:"assignmentCount"`
	CreatedAt       string        `json:"createdAt"`
}

// TopicDetailResponse is a topic together with its non-cancelled theses
type TopicDetailResponse struct {
	TopicResponse
	Theses []ThesisResponse `json:"theses"`
}

// TopicListResponse represents a paginated topic listing
type TopicListResponse struct {
	Topics     []TopicResponse `json:"topics"`
	Pagination PaginationInfo  `json:"pagination"`
}

// FromTopic converts a topic model to its response form
func FromTopic(t *models.Topic) TopicResponse {
	if t == nil {
		return TopicResponse{}
	}
	resp := TopicResponse{
		ID:              t.ID,
		Title:           t.Title,
		Summary:         t.Summary,
		DescriptionURL:  t.DescriptionURL,
		AssignmentCount: t.AssignmentCount,
		CreatedAt:       t.CreatedAt.Format(timeFormat),
	}
	if t.Creator != nil {
		u := FromUser(t.Creator)
		resp.Creator = &u
	}
	return resp
}
