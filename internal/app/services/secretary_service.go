package services

import (
	"context"
	"time"

	"github.com/pkontaxis/thesisdesk/internal/app/models"
	"github.com/pkontaxis/thesisdesk/internal/app/models/dto"
	"github.com/pkontaxis/thesisdesk/internal/app/repositories"
	"github.com/pkontaxis/thesisdesk/internal/pkg/apperrors"
	"github.com/pkontaxis/thesisdesk/internal/pkg/logger"
)

// Pinger reports database reachability
type Pinger interface {
	Ping(ctx context.Context) error
}

// SecretaryService defines the interface for secretary reporting
type SecretaryService interface {
	ExportTheses(ctx context.Context, actor *models.User) (*dto.ThesisExportResponse, error)
	ComprehensiveReport(ctx context.Context, actor *models.User) (*dto.ComprehensiveReport, error)
	SystemHealth(ctx context.Context, actor *models.User) (*dto.SystemHealthResponse, error)
}

// secretaryServiceImpl implements SecretaryService
type secretaryServiceImpl struct {
	pinger     Pinger
	thesisRepo repositories.ThesisRepository
	topicRepo  repositories.TopicRepository
	userRepo   repositories.UserRepository
	grades     GradeService
}

// NewSecretaryService creates a new SecretaryService
func NewSecretaryService(
	pinger Pinger,
	thesisRepo repositories.ThesisRepository,
	topicRepo repositories.TopicRepository,
	userRepo repositories.UserRepository,
	grades GradeService,
) SecretaryService {
	return &secretaryServiceImpl{
		pinger:     pinger,
		thesisRepo: thesisRepo,
		topicRepo:  topicRepo,
		userRepo:   userRepo,
		grades:     grades,
	}
}

func requireSecretary(actor *models.User) error {
	if actor.Role != models.RoleSecretary {
		return apperrors.NewForbiddenError("this operation is reserved for the secretary")
	}
	return nil
}

// ExportTheses builds a flat export of every thesis in the system
func (s *secretaryServiceImpl) ExportTheses(ctx context.Context, actor *models.User) (*dto.ThesisExportResponse, error) {
	if err := requireSecretary(actor); err != nil {
		return nil, err
	}

	records, err := s.thesisRepo.ExportRecords(ctx)
	if err != nil {
		return nil, err
	}

	resp := &dto.ThesisExportResponse{
		ExportDate: time.Now().Format(time.RFC3339),
		Total:      len(records),
		Theses:     make([]dto.ThesisExportRow, 0, len(records)),
	}
	for i := range records {
		th := &records[i].Thesis
		row := dto.ThesisExportRow{
			ThesisID:           th.ID,
			State:              string(th.State),
			AssignedAt:         th.AssignedAt.Format(time.RFC3339),
			APNumber:           th.APNumber,
			CancellationReason: th.CancellationReason,
			AverageGrade:       records[i].AverageGrade,
		}
		if th.Topic != nil {
			row.TopicTitle = th.Topic.Title
		}
		if th.Student != nil {
			row.StudentName = th.Student.FullName
			row.StudentAcademicID = th.Student.AcademicID
		}
		if th.Supervisor != nil {
			row.SupervisorName = th.Supervisor.FullName
		}
		if th.StartedAt != nil {
			v := th.StartedAt.Format(time.RFC3339)
			row.StartedAt = &v
		}
		if th.FinalizedAt != nil {
			v := th.FinalizedAt.Format(time.RFC3339)
			row.FinalizedAt = &v
		}
		resp.Theses = append(resp.Theses, row)
	}

	logger.Info().Int("theses", resp.Total).Msg("Thesis export generated")
	return resp, nil
}

// ComprehensiveReport aggregates thesis, supervisor and grading figures
func (s *secretaryServiceImpl) ComprehensiveReport(ctx context.Context, actor *models.User) (*dto.ComprehensiveReport, error) {
	if err := requireSecretary(actor); err != nil {
		return nil, err
	}

	stats, err := s.thesisRepo.Stats(ctx, nil)
	if err != nil {
		return nil, err
	}
	loads, err := s.thesisRepo.SupervisorLoads(ctx)
	if err != nil {
		return nil, err
	}
	grading, err := s.grades.Statistics(ctx, actor)
	if err != nil {
		return nil, err
	}

	report := &dto.ComprehensiveReport{
		GeneratedAt: time.Now().Format(time.RFC3339),
		Theses: dto.ThesisStatsResponse{
			Total:                stats.Total,
			ByState:              stats.ByState,
			AvgDaysToCompletion:  stats.AvgDaysToCompletion,
			CompletedLast12Month: stats.CompletedLast12Month,
		},
		Supervisors: make([]dto.SupervisorLoad, 0, len(loads)),
		Grading:     *grading,
	}
	for i := range loads {
		report.Supervisors = append(report.Supervisors, dto.SupervisorLoad{
			Supervisor: dto.FromUser(&loads[i].Supervisor),
			Total:      loads[i].Total,
			ByState:    loads[i].ByState,
		})
	}

	return report, nil
}

// SystemHealth checks database reachability and reports entity counts
func (s *secretaryServiceImpl) SystemHealth(ctx context.Context, actor *models.User) (*dto.SystemHealthResponse, error) {
	if err := requireSecretary(actor); err != nil {
		return nil, err
	}

	resp := &dto.SystemHealthResponse{
		Status:    "ok",
		Database:  "up",
		CheckedAt: time.Now().Format(time.RFC3339),
	}

	if err := s.pinger.Ping(ctx); err != nil {
		logger.Error().Err(err).Msg("Database health check failed")
		resp.Status = "degraded"
		resp.Database = "down"
		return resp, nil
	}

	usersByRole, err := s.userRepo.CountByRole(ctx)
	if err != nil {
		return nil, err
	}
	resp.UsersByRole = usersByRole
	for _, n := range usersByRole {
		resp.Users += n
	}

	if resp.Topics, err = s.topicRepo.Count(ctx); err != nil {
		return nil, err
	}
	if resp.Theses, err = s.thesisRepo.Count(ctx); err != nil {
		return nil, err
	}

	return resp, nil
}
