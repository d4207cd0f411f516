package dto

import "github.com/pkontaxis/thesisdesk/internal/app/models"

// InviteRequest represents a request to invite an instructor to a committee
type InviteRequest struct {
	InstructorID int64 `json:"instructorId" binding:"required,min=1"`
}

// RespondRequest represents an invitation response
type RespondRequest struct {
	Accept bool `json:"accept"`
}

// InvitationResponse represents an invitation in API responses
type InvitationResponse struct {
	ID          int64           `json:"id"`
	Status      string          `json:"status"`
	Thesis      *ThesisResponse `json:"thesis,omitempty"`
	Instructor  *UserResponse   `json:"instructor,omitempty"`
	InvitedAt   string          `json:"invitedAt"`
	RespondedAt *string         `json:"respondedAt,omitempty"`
}

// RespondResult reports the outcome of an invitation response. Activated
// is set when the acceptance completed the committee and triggered the
// thesis activation.
type RespondResult struct {
	Invitation InvitationResponse `json:"invitation"`
	Activated  bool               `json:"activated"`
}

// CommitteeMemberResponse represents a committee seat in API responses
type CommitteeMemberResponse struct {
	ID         int64         `json:"id"`
	Role       string        `json:"role"`
	Instructor *UserResponse `json:"instructor,omitempty"`
	InvitedAt  string        `json:"invitedAt"`
	AcceptedAt *string       `json:"acceptedAt,omitempty"`
	RejectedAt *string       `json:"rejectedAt,omitempty"`
}

// CommitteeResponse represents the committee of a thesis, optionally with
// outstanding invitations
type CommitteeResponse struct {
	ThesisID           int64                     `json:"thesisId"`
	Members            []CommitteeMemberResponse `json:"members"`
	PendingInvitations []InvitationResponse      `json:"pendingInvitations,omitempty"`
}

// FromInvitation converts an invitation model to its response form
func FromInvitation(inv *models.Invitation) InvitationResponse {
	if inv == nil {
		return InvitationResponse{}
	}
	resp := InvitationResponse{
		ID:        inv.ID,
		Status:    string(inv.Status),
		InvitedAt: inv.InvitedAt.Format(timeFormat),
	}
	if inv.RespondedAt != nil {
		s := inv.RespondedAt.Format(timeFormat)
		resp.RespondedAt = &s
	}
	if inv.Thesis != nil {
		t := FromThesis(inv.Thesis)
		resp.Thesis = &t
	}
	if inv.Instructor != nil {
		u := FromUser(inv.Instructor)
		resp.Instructor = &u
	}
	return resp
}

// FromCommitteeMember converts a committee seat model to its response form
func FromCommitteeMember(m *models.CommitteeMember) CommitteeMemberResponse {
	if m == nil {
		return CommitteeMemberResponse{}
	}
	resp := CommitteeMemberResponse{
		ID:        m.ID,
		Role:      string(m.Role),
		InvitedAt: m.InvitedAt.Format(timeFormat),
	}
	if m.AcceptedAt != nil {
		s := m.AcceptedAt.Format(timeFormat)
		resp.AcceptedAt = &s
	}
	if m.RejectedAt != nil {
		s := m.RejectedAt.Format(timeFormat)
		resp.RejectedAt = &s
	}
	if m.Instructor != nil {
		u := FromUser(m.Instructor)
		resp.Instructor = &u
	}
	return resp
}
