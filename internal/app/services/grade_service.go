package services

import (
	"context"

	"github.com/pkontaxis/thesisdesk/internal/app/auth"
	"github.com/pkontaxis/thesisdesk/internal/app/models"
	"github.com/pkontaxis/thesisdesk/internal/app/models/dto"
	"github.com/pkontaxis/thesisdesk/internal/app/repositories"
	"github.com/pkontaxis/thesisdesk/internal/pkg/apperrors"
	"github.com/pkontaxis/thesisdesk/internal/pkg/logger"
)

const recentGradeLimit = 10

// GradeService defines the interface for thesis grading
type GradeService interface {
	Create(ctx context.Context, actor *models.User, req *dto.CreateGradeRequest) (*dto.GradeResponse, error)
	ListByThesis(ctx context.Context, actor *models.User, thesisID int64) (*dto.ThesisGradesResponse, error)
	Update(ctx context.Context, actor *models.User, id int64, req *dto.UpdateGradeRequest) (*dto.GradeResponse, error)
	Delete(ctx context.Context, actor *models.User, id int64) error
	InstructorSummary(ctx context.Context, actor *models.User) (*dto.InstructorGradeSummary, error)
	Statistics(ctx context.Context, actor *models.User) (*dto.GradeStatisticsResponse, error)
}

// gradeServiceImpl implements GradeService
type gradeServiceImpl struct {
	gradeRepo     repositories.GradeRepository
	thesisRepo    repositories.ThesisRepository
	committeeRepo repositories.CommitteeRepository
}

// NewGradeService creates a new GradeService
func NewGradeService(
	gradeRepo repositories.GradeRepository,
	thesisRepo repositories.ThesisRepository,
	committeeRepo repositories.CommitteeRepository,
) GradeService {
	return &gradeServiceImpl{
		gradeRepo:     gradeRepo,
		thesisRepo:    thesisRepo,
		committeeRepo: committeeRepo,
	}
}

func gradeableState(state models.ThesisState) bool {
	return state == models.StateUnderReview || state == models.StateCompleted
}

// Create submits a grade for a thesis
func (s *gradeServiceImpl) Create(ctx context.Context, actor *models.User, req *dto.CreateGradeRequest) (*dto.GradeResponse, error) {
	if req.GradeNumeric == nil {
		return nil, apperrors.NewCustomError(apperrors.ErrValidationFailed, "gradeNumeric is required")
	}
	if *req.GradeNumeric < 0 || *req.GradeNumeric > 10 {
		return nil, apperrors.ErrGradeOutOfRange
	}

	thesis, err := loadThesisWithCommittee(ctx, s.thesisRepo, s.committeeRepo, req.ThesisID)
	if err != nil {
		return nil, err
	}

	if !auth.CanGrade(actor, thesis) {
		return nil, apperrors.ErrNotCommittee
	}
	if !gradeableState(thesis.State) {
		return nil, apperrors.ErrNotGradeable
	}

	exists, err := s.gradeRepo.Exists(ctx, req.ThesisID, actor.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.ErrDuplicateGrade
	}

	grade := &models.Grade{
		ThesisID:     req.ThesisID,
		GraderID:     actor.ID,
		GradeNumeric: *req.GradeNumeric,
		Comments:     req.Comments,
	}
	grade.ID, err = s.gradeRepo.Create(ctx, grade)
	if err != nil {
		return nil, err
	}
	grade.Grader = actor

	logger.Info().Int64("thesisID", req.ThesisID).Int64("graderID", actor.ID).Float64("grade", grade.GradeNumeric).Msg("Grade submitted")

	resp := dto.FromGrade(grade)
	return &resp, nil
}

// ListByThesis retrieves the grades of a thesis with summary statistics
func (s *gradeServiceImpl) ListByThesis(ctx context.Context, actor *models.User, thesisID int64) (*dto.ThesisGradesResponse, error) {
	thesis, err := loadThesisWithCommittee(ctx, s.thesisRepo, s.committeeRepo, thesisID)
	if err != nil {
		return nil, err
	}
	if !auth.HasThesisAccess(actor, thesis) {
		return nil, apperrors.NewForbiddenError("you don't have access to this thesis")
	}

	grades, err := s.gradeRepo.ListByThesis(ctx, thesisID)
	if err != nil {
		return nil, err
	}
	stats, err := s.gradeRepo.StatsByThesis(ctx, thesisID)
	if err != nil {
		return nil, err
	}

	resp := &dto.ThesisGradesResponse{
		ThesisID: thesisID,
		Grades:   make([]dto.GradeResponse, 0, len(grades)),
		Stats:    *stats,
	}
	for i := range grades {
		resp.Grades = append(resp.Grades, dto.FromGrade(&grades[i]))
	}
	return resp, nil
}

// Update corrects a previously submitted grade
func (s *gradeServiceImpl) Update(ctx context.Context, actor *models.User, id int64, req *dto.UpdateGradeRequest) (*dto.GradeResponse, error) {
	grade, err := s.gradeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if grade.GraderID != actor.ID && actor.Role != models.RoleSecretary {
		return nil, apperrors.NewForbiddenError("you can only change your own grade")
	}

	thesis, err := s.thesisRepo.GetByID(ctx, grade.ThesisID)
	if err != nil {
		return nil, err
	}
	if thesis.State == models.StateCompleted && actor.Role != models.RoleSecretary {
		return nil, apperrors.ErrThesisClosed
	}

	if req.GradeNumeric != nil {
		if *req.GradeNumeric < 0 || *req.GradeNumeric > 10 {
			return nil, apperrors.ErrGradeOutOfRange
		}
		grade.GradeNumeric = *req.GradeNumeric
	}
	if req.Comments != nil {
		grade.Comments = req.Comments
	}

	if err := s.gradeRepo.Update(ctx, grade); err != nil {
		return nil, err
	}

	logger.Info().Int64("gradeID", id).Int64("actorID", actor.ID).Msg("Grade updated")

	resp := dto.FromGrade(grade)
	return &resp, nil
}

// Delete withdraws a grade
func (s *gradeServiceImpl) Delete(ctx context.Context, actor *models.User, id int64) error {
	grade, err := s.gradeRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if grade.GraderID != actor.ID && actor.Role != models.RoleSecretary {
		return apperrors.NewForbiddenError("you can only withdraw your own grade")
	}

	thesis, err := s.thesisRepo.GetByID(ctx, grade.ThesisID)
	if err != nil {
		return err
	}
	if thesis.State == models.StateCompleted && actor.Role != models.RoleSecretary {
		return apperrors.ErrThesisClosed
	}

	if err := s.gradeRepo.Delete(ctx, id); err != nil {
		return err
	}

	logger.Info().Int64("gradeID", id).Int64("actorID", actor.ID).Msg("Grade withdrawn")
	return nil
}

// InstructorSummary builds the actor's personal grading worklist
func (s *gradeServiceImpl) InstructorSummary(ctx context.Context, actor *models.User) (*dto.InstructorGradeSummary, error) {
	if actor.Role != models.RoleInstructor {
		return nil, apperrors.NewForbiddenError("only instructors have a grading worklist")
	}

	pending, err := s.thesisRepo.ListPendingGrading(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	submitted, err := s.gradeRepo.ListByGrader(ctx, actor.ID, 0)
	if err != nil {
		return nil, err
	}

	summary := &dto.InstructorGradeSummary{
		PendingTheses: make([]dto.ThesisResponse, 0, len(pending)),
		Submitted:     make([]dto.GradeResponse, 0, len(submitted)),
	}
	for i := range pending {
		summary.PendingTheses = append(summary.PendingTheses, dto.FromThesis(&pending[i]))
	}
	for i := range submitted {
		summary.Submitted = append(summary.Submitted, dto.FromGrade(&submitted[i]))
	}
	summary.Stats = gradeStats(submitted)

	return summary, nil
}

// gradeStats aggregates a slice of grades in memory
func gradeStats(grades []models.Grade) models.GradeStats {
	stats := models.GradeStats{Count: len(grades)}
	if stats.Count == 0 {
		return stats
	}

	min, max, sum := grades[0].GradeNumeric, grades[0].GradeNumeric, 0.0
	for i := range grades {
		g := grades[i].GradeNumeric
		if g < min {
			min = g
		}
		if g > max {
			max = g
		}
		sum += g
	}
	avg := sum / float64(stats.Count)
	stats.Average, stats.Min, stats.Max = &avg, &min, &max
	return stats
}

// Statistics builds the system-wide grading overview for the secretary
func (s *gradeServiceImpl) Statistics(ctx context.Context, actor *models.User) (*dto.GradeStatisticsResponse, error) {
	if actor.Role != models.RoleSecretary {
		return nil, apperrors.NewForbiddenError("only the secretary can view grading statistics")
	}

	overall, err := s.gradeRepo.GlobalStats(ctx)
	if err != nil {
		return nil, err
	}
	distribution, err := s.gradeRepo.Distribution(ctx)
	if err != nil {
		return nil, err
	}
	topGraders, err := s.gradeRepo.TopGraders(ctx, 5)
	if err != nil {
		return nil, err
	}
	recent, err := s.gradeRepo.Recent(ctx, recentGradeLimit)
	if err != nil {
		return nil, err
	}

	resp := &dto.GradeStatisticsResponse{
		Overall:      *overall,
		Distribution: make([]dto.GradeDistributionBucket, 0, len(distribution)),
		TopGraders:   make([]dto.GraderActivity, 0, len(topGraders)),
		Recent:       make([]dto.GradeResponse, 0, len(recent)),
	}
	for _, b := range distribution {
		resp.Distribution = append(resp.Distribution, dto.GradeDistributionBucket{Bucket: b.Bucket, Count: b.Count})
	}
	for i := range topGraders {
		resp.TopGraders = append(resp.TopGraders, dto.GraderActivity{
			Grader:  dto.FromUser(&topGraders[i].Grader),
			Count:   topGraders[i].Count,
			Average: topGraders[i].Average,
		})
	}
	for i := range recent {
		resp.Recent = append(resp.Recent, dto.FromGrade(&recent[i]))
	}

	return resp, nil
}
