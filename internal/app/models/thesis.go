package models

import (
	"time"
)

// ThesisState defines the lifecycle state of a thesis assignment
type ThesisState string

const (
	StateUnderAssignment ThesisState = "UNDER_ASSIGNMENT"
	StateActive          ThesisState = "ACTIVE"
	StateUnderReview     ThesisState = "UNDER_REVIEW"
	StateCompleted       ThesisState = "COMPLETED"
	StateCancelled       ThesisState = "CANCELLED"
)

// transitions is the full state machine. Reactivation from CANCELLED back
// to UNDER_ASSIGNMENT exists but is restricted to the secretary at the
// authorization layer.
var transitions = map[ThesisState][]ThesisState{
	StateUnderAssignment: {StateActive, StateCancelled},
	StateActive:          {StateUnderReview, StateCancelled},
	StateUnderReview:     {StateCompleted, StateActive, StateCancelled},
	StateCompleted:       {},
	StateCancelled:       {StateUnderAssignment},
}

// Valid reports whether the state is one of the known states
func (s ThesisState) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransitionTo reports whether the state machine allows moving to target
func (s ThesisState) CanTransitionTo(target ThesisState) bool {
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// Terminal reports whether the thesis can no longer be worked on
func (s ThesisState) Terminal() bool {
	return s == StateCompleted || s == StateCancelled
}

// Thesis defines a thesis assignment based on the 'theses' table
type Thesis struct {
	ID                 int64       `json:"id" db:"id"`
	TopicID            int64       `json:"topicId" db:"topic_id"`
	StudentID          int64       `json:"studentId" db:"student_id"`
	SupervisorID       int64       `json:"supervisorId" db:"supervisor_id"`
	State              ThesisState `json:"state" db:"state"`
	AssignedAt         time.Time   `json:"assignedAt" db:"assigned_at"`
	StartedAt          *time.Time  `json:"startedAt,omitempty" db:"started_at"`
	FinalizedAt        *time.Time  `json:"finalizedAt,omitempty" db:"finalized_at"`
	CancellationReason *string     `json:"cancellationReason,omitempty" db:"cancellation_reason"`
	APNumber           *string     `json:"apNumber,omitempty" db:"ap_number"` // General assembly approval number, set on completion
	CreatedAt          time.Time   `json:"createdAt" db:"created_at"`

	// Relations, no db tags
	Topic      *Topic            `json:"topic,omitempty"`
	Student    *User             `json:"student,omitempty"`
	Supervisor *User             `json:"supervisor,omitempty"`
	Committee  []CommitteeMember `json:"committee,omitempty"`
}

// IsCommitteeMember reports whether the instructor has a committee row on
// the thesis, regardless of acceptance state.
func (t *Thesis) IsCommitteeMember(instructorID int64) bool {
	for _, m := range t.Committee {
		if m.InstructorID == instructorID {
			return true
		}
	}
	return false
}

// IsAcceptedCommitteeMember reports whether the instructor has accepted a
// seat on the committee (the supervisor's seat counts as accepted).
func (t *Thesis) IsAcceptedCommitteeMember(instructorID int64) bool {
	for _, m := range t.Committee {
		if m.InstructorID == instructorID && m.AcceptedAt != nil {
			return true
		}
	}
	return false
}
