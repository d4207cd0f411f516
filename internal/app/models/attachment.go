package models

import (
	"time"
)

// Attachment defines an uploaded thesis file based on the 'attachments' table
type Attachment struct {
	ID         int64     `json:"id" db:"id"`
	ThesisID   int64     `json:"thesisId" db:"thesis_id"`
	UploadedBy int64     `json:"uploadedBy" db:"uploaded_by"`
	Filename   string    `json:"filename" db:"filename"`
	FileURL    string    `json:"fileUrl" db:"file_url"`
	MimeType   string    `json:"mimeType" db:"mime_type"`
	IsDraft    bool      `json:"isDraft" db:"is_draft"`
	UploadedAt time.Time `json:"uploadedAt" db:"uploaded_at"`

	Uploader *User `json:"uploader,omitempty"` // Relation, no db tag
}
