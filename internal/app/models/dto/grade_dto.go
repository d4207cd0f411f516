package dto

import "github.com/pkontaxis/thesisdesk/internal/app/models"

// CreateGradeRequest represents a grade submission
type CreateGradeRequest struct {
	ThesisID     int64    `json:"thesisId" binding:"required,min=1"`
	GradeNumeric *float64 `json:"gradeNumeric" binding:"required"`
	Comments     *string  `json:"comments,omitempty"`
}

// UpdateGradeRequest represents a grade correction
type UpdateGradeRequest struct {
	GradeNumeric *float64 `json:"gradeNumeric,omitempty"`
	Comments     *string  `json:"comments,omitempty"`
}

// GradeResponse represents a grade in API responses
type GradeResponse struct {
	ID           int64           `json:"id"`
	ThesisID     int64           `json:"thesisId"`
	GradeNumeric float64         `json:"gradeNumeric"`
	Comments     *string         `json:"comments,omitempty"`
	Grader       *UserResponse   `json:"grader,omitempty"`
	Thesis       *ThesisResponse `json:"thesis,omitempty"`
	CreatedAt    string          `json:"createdAt"`
}

// ThesisGradesResponse is the grades of a thesis with summary statistics
type ThesisGradesResponse struct {
	ThesisID int64             `json:"thesisId"`
	Grades   []GradeResponse   `json:"grades"`
	Stats    models.GradeStats `json:"stats"`
}

// InstructorGradeSummary is an instructor's personal grading worklist
type InstructorGradeSummary struct {
	PendingTheses []ThesisResponse  `json:"pendingTheses"`
	Submitted     []GradeResponse   `json:"submitted"`
	Stats         models.GradeStats `json:"stats"`
}

// GradeDistributionBucket counts grades falling into one integer bucket
type GradeDistributionBucket struct {
	Bucket string `json:"bucket" example:"8-9"`
	Count  int64  `json:"count"`
}

// GraderActivity summarizes one grader's output
type GraderActivity struct {
	Grader  UserResponse `json:"grader"`
	Count   int64        `json:"count"`
	Average float64      `json:"average"`
}

// GradeStatisticsResponse is the secretary-wide grading overview
type GradeStatisticsResponse struct {
	Overall      models.GradeStats         `json:"overall"`
	Distribution []GradeDistributionBucket `json:"distribution"`
	TopGraders   []GraderActivity          `json:"topGraders"`
	Recent       []GradeResponse           `json:"recent"`
}

// FromGrade converts a grade model to its response form
func FromGrade(g *models.Grade) GradeResponse {
	if g == nil {
		return GradeResponse{}
	}
	resp := GradeResponse{
		ID:           g.ID,
		ThesisID:     g.ThesisID,
		GradeNumeric: g.GradeNumeric,
		Comments:     g.Comments,
		CreatedAt:    g.CreatedAt.Format(timeFormat),
	}
	if g.Grader != nil {
		u := FromUser(g.Grader)
		resp.Grader = &u
	}
	if g.Thesis != nil {
		t := FromThesis(g.Thesis)
		resp.Thesis = &t
	}
	return resp
}
