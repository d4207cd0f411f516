package dto

// ThesisExportRow is a flattened thesis record for the secretary export
type ThesisExportRow struct {
	ThesisID           int64    `json:"thesisId"`
	TopicTitle         string   `json:"topicTitle"`
	StudentName        string   `json:"studentName"`
	StudentAcademicID  *string  `json:"studentAcademicId,omitempty"`
	SupervisorName     string   `json:"supervisorName"`
	State              string   `json:"state"`
	AssignedAt         string   `json:"assignedAt"`
	StartedAt          *string  `json:"startedAt,omitempty"`
	FinalizedAt        *string  `json:"finalizedAt,omitempty"`
	APNumber           *string  `json:"apNumber,omitempty"`
	CancellationReason *string  `json:"cancellationReason,omitempty"`
	AverageGrade       *float64 `json:"averageGrade,omitempty"`
}

// ThesisExportResponse is the secretary's flat thesis export
type ThesisExportResponse struct {
	ExportDate string            `json:"exportDate"`
	Total      int               `json:"total"`
	Theses     []ThesisExportRow `json:"theses"`
}

// SupervisorLoad counts the theses supervised by one instructor
type SupervisorLoad struct {
	Supervisor UserResponse     `json:"supervisor"`
	Total      int64            `json:"total"`
	ByState    map[string]int64 `json:"byState"`
}

// ComprehensiveReport aggregates system-wide workflow figures
type ComprehensiveReport struct {
	GeneratedAt string                  `json:"generatedAt"`
	Theses      ThesisStatsResponse     `json:"theses"`
	Supervisors []SupervisorLoad        `json:"supervisors"`
	Grading     GradeStatisticsResponse `json:"grading"`
}

// SystemHealthResponse reports entity counts and database reachability
type SystemHealthResponse struct {
	Status      string           `json:"status" example:"ok"`
	Database    string           `json:"database" example:"up"`
	Users       int64            `json:"users"`
	UsersByRole map[string]int64 `json:"usersByRole"`
	Topics      int64            `json:"topics"`
	Theses      int64            `json:"theses"`
	CheckedAt   string           `json:"checkedAt"`
}
