package dto

import (
	"encoding/xml"

	"github.com/pkontaxis/thesisdesk/internal/app/models"
)

// CreatePresentationRequest represents a request to schedule a defense
type CreatePresentationRequest struct {
	ThesisID    int64                   `json:"thesisId" binding:"required,min=1"`
	ScheduledAt string                  `json:"scheduledAt" binding:"required"`
	Mode        models.PresentationMode `json:"mode" binding:"required,oneof=IN_PERSON ONLINE"`
	Room        *string                 `json:"room,omitempty"`
	OnlineLink  *string                 `json:"onlineLink,omitempty"`
}

// UpdatePresentationRequest represents a reschedule request
type UpdatePresentationRequest struct {
	ScheduledAt *string                  `json:"scheduledAt,omitempty"`
	Mode        *models.PresentationMode `json:"mode,omitempty" binding:"omitempty,oneof=IN_PERSON ONLINE"`
	Room        *string                  `json:"room,omitempty"`
	OnlineLink  *string                  `json:"onlineLink,omitempty"`
}

// PresentationResponse represents a scheduled defense in API responses
type PresentationResponse struct {
	ID          int64           `json:"id"`
	ThesisID    int64           `json:"thesisId"`
	ScheduledAt string          `json:"scheduledAt"`
	Mode        string          `json:"mode"`
	Room        *string         `json:"room,omitempty"`
	OnlineLink  *string         `json:"onlineLink,omitempty"`
	Thesis      *ThesisResponse `json:"thesis,omitempty"`
	CreatedAt   string          `json:"createdAt"`
}

// PresentationDetailResponse is a presentation with the accepted committee
type PresentationDetailResponse struct {
	PresentationResponse
	Committee []CommitteeMemberResponse `json:"committee"`
}

// PublicPresentationEntry is one announcement in the public defense feed
type PublicPresentationEntry struct {
	XMLName     xml.Name `json:"-" xml:"presentation"`
	ThesisTitle string   `json:"thesisTitle" xml:"thesisTitle"`
	StudentName string   `json:"studentName" xml:"studentName"`
	Supervisor  string   `json:"supervisor" xml:"supervisor"`
	ScheduledAt string   `json:"scheduledAt" xml:"scheduledAt"`
	Mode        string   `json:"mode" xml:"mode"`
	Room        string   `json:"room,omitempty" xml:"room,omitempty"`
	OnlineLink  string   `json:"onlineLink,omitempty" xml:"onlineLink,omitempty"`
}

// PublicPresentationFeed is the unauthenticated defense announcement feed
type PublicPresentationFeed struct {
	XMLName       xml.Name                  `json:"-" xml:"presentations"`
	GeneratedAt   string                    `json:"generatedAt" xml:"generatedAt,attr"`
	Presentations []PublicPresentationEntry `json:"presentations" xml:"presentation"`
}

// FromPresentation converts a presentation model to its response form
func FromPresentation(p *models.Presentation) PresentationResponse {
	if p == nil {
		return PresentationResponse{}
	}
	resp := PresentationResponse{
		ID:          p.ID,
		ThesisID:    p.ThesisID,
		ScheduledAt: p.ScheduledAt.Format(timeFormat),
		Mode:        string(p.Mode),
		Room:        p.Room,
		OnlineLink:  p.OnlineLink,
		CreatedAt:   p.CreatedAt.Format(timeFormat),
	}
	if p.Thesis != nil {
		t := FromThesis(p.Thesis)
		resp.Thesis = &t
	}
	return resp
}
