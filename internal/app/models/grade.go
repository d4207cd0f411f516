package models

import (
	"time"
)

// Grade defines a committee member's grade for a thesis based on the
// 'grades' table. One row per (thesis, grader).
type Grade struct {
	ID           int64     `json:"id" db:"id"`
	ThesisID     int64     `json:"thesisId" db:"thesis_id"`
	GraderID     int64     `json:"graderId" db:"grader_id"`
	GradeNumeric float64   `json:"gradeNumeric" db:"grade_numeric"`
	Comments     *string   `json:"comments,omitempty" db:"comments"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`

	// Relations, no db tags
	Grader *User   `json:"grader,omitempty"`
	Thesis *Thesis `json:"thesis,omitempty"`
}

// GradeStats summarizes the grades recorded on a thesis
type GradeStats struct {
	Count   int      `json:"count"`
	Average *float64 `json:"average,omitempty"`
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
}
