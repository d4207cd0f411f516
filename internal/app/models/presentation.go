package models

import (
	"time"
)

// Presentation defines a scheduled thesis defense based on the
// 'presentations' table. Each thesis has at most one.
type Presentation struct {
	ID          int64            `json:"id" db:"id"`
	ThesisID    int64            `json:"thesisId" db:"thesis_id"`
	ScheduledAt time.Time        `json:"scheduledAt" db:"scheduled_at"`
	Mode        PresentationMode `json:"mode" db:"mode"`
	Room        *string          `json:"room,omitempty" db:"room"`
	OnlineLink  *string          `json:"onlineLink,omitempty" db:"online_link"`
	CreatedBy   int64            `json:"createdBy" db:"created_by"`
	CreatedAt   time.Time        `json:"createdAt" db:"created_at"`

	Thesis *Thesis `json:"thesis,omitempty"` // Relation, no db tag
}
