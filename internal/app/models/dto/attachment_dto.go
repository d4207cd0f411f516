package dto

import "github.com/pkontaxis/thesisdesk/internal/app/models"

// UpdateAttachmentRequest represents a draft-flag toggle
type UpdateAttachmentRequest struct {
	IsDraft bool `json:"isDraft"`
}

// AttachmentResponse represents a thesis attachment in API responses
type AttachmentResponse struct {
	ID         int64         `json:"id"`
	ThesisID   int64         `json:"thesisId"`
	Filename   string        `json:"filename"`
	FileURL    string        `json:"fileUrl"`
	MimeType   string        `json:"mimeType"`
	IsDraft    bool          `json:"isDraft"`
	Uploader   *UserResponse `json:"uploader,omitempty"`
	UploadedAt string        `json:"uploadedAt"`
}

// UploadResult reports which files were stored and which were rejected
type UploadResult struct {
	Uploaded []AttachmentResponse `json:"uploaded"`
	Rejected []RejectedFile       `json:"rejected,omitempty"`
}

// RejectedFile names a file that failed validation during upload
type RejectedFile struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

// FromAttachment converts an attachment model to its response form
func FromAttachment(a *models.Attachment) AttachmentResponse {
	if a == nil {
		return AttachmentResponse{}
	}
	resp := AttachmentResponse{
		ID:         a.ID,
		ThesisID:   a.ThesisID,
		Filename:   a.Filename,
		FileURL:    a.FileURL,
		MimeType:   a.MimeType,
		IsDraft:    a.IsDraft,
		UploadedAt: a.UploadedAt.Format(timeFormat),
	}
	if a.Uploader != nil {
		u := FromUser(a.Uploader)
		resp.Uploader = &u
	}
	return resp
}
