package models

import (
	"time"
)

// Topic defines a proposed thesis topic based on the 'topics' table
type Topic struct {
	ID             int64     `json:"id" db:"id"`
	Title          string    `json:"title" db:"title"`
	Summary        string    `json:"summary" db:"summary"`
	DescriptionURL *string   `json:"descriptionUrl,omitempty" db:"description_url"` // Stored PDF description (nullable)
	CreatorID      int64     `json:"creatorId" db:"creator_id"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`

	Creator *User `json:"creator,omitempty"` // Relation, no db tag

	// AssignmentCount is the number of non-cancelled theses on this topic,
	// populated by listing queries.
	AssignmentCount int `json:"assignmentCount" db:"-"`
}
