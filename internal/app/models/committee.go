package models

import (
	"time"
)

// CommitteeMember defines a seat on a thesis committee based on the
// 'committee_members' table. The supervisor's seat is created together
// with the thesis and carries an accepted_at timestamp from the start.
type CommitteeMember struct {
	ID           int64         `json:"id" db:"id"`
	ThesisID     int64         `json:"thesisId" db:"thesis_id"`
	InstructorID int64         `json:"instructorId" db:"instructor_id"`
	Role         CommitteeRole `json:"role" db:"role"`
	InvitedAt    time.Time     `json:"invitedAt" db:"invited_at"`
	AcceptedAt   *time.Time    `json:"acceptedAt,omitempty" db:"accepted_at"`
	RejectedAt   *time.Time    `json:"rejectedAt,omitempty" db:"rejected_at"`

	Instructor *User `json:"instructor,omitempty"` // Relation, no db tag
}

// Invitation defines a pending committee invitation based on the
// 'invitations' table
type Invitation struct {
	ID           int64            `json:"id" db:"id"`
	ThesisID     int64            `json:"thesisId" db:"thesis_id"`
	InstructorID int64            `json:"instructorId" db:"instructor_id"`
	Status       InvitationStatus `json:"status" db:"status"`
	InvitedAt    time.Time        `json:"invitedAt" db:"invited_at"`
	RespondedAt  *time.Time       `json:"respondedAt,omitempty" db:"responded_at"`

	// Relations, no db tags
	Thesis     *Thesis `json:"thesis,omitempty"`
	Instructor *User   `json:"instructor,omitempty"`
}
