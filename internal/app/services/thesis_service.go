package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pkontaxis/thesisdesk/internal/app/auth"
	"github.com/pkontaxis/thesisdesk/internal/app/models"
	"github.com/pkontaxis/thesisdesk/internal/app/models/dto"
	"github.com/pkontaxis/thesisdesk/internal/app/repositories"
	"github.com/pkontaxis/thesisdesk/internal/db"
	"github.com/pkontaxis/thesisdesk/internal/pkg/apperrors"
	"github.com/pkontaxis/thesisdesk/internal/pkg/helpers"
	"github.com/pkontaxis/thesisdesk/internal/pkg/logger"
)

// ThesisService defines the interface for thesis lifecycle operations
type ThesisService interface {
	Create(ctx context.Context, actor *models.User, req *dto.CreateThesisRequest) (*dto.ThesisResponse, error)
	Get(ctx context.Context, actor *models.User, id int64) (*dto.ThesisDetailResponse, error)
	List(ctx context.Context, actor *models.User, filter dto.ThesisFilter, page, pageSize int) (*dto.ThesisListResponse, error)
	UpdateState(ctx context.Context, actor *models.User, id int64, req *dto.UpdateThesisStateRequest) (*dto.ThesisResponse, error)
	Stats(ctx context.Context, actor *models.User) (*dto.ThesisStatsResponse, error)
}

// thesisServiceImpl implements ThesisService
type thesisServiceImpl struct {
	tx               db.TxRunner
	thesisRepo       repositories.ThesisRepository
	topicRepo        repositories.TopicRepository
	userRepo         repositories.UserRepository
	committeeRepo    repositories.CommitteeRepository
	attachmentRepo   repositories.AttachmentRepository
	presentationRepo repositories.PresentationRepository
}

// NewThesisService creates a new ThesisService
func NewThesisService(
	tx db.TxRunner,
	thesisRepo repositories.ThesisRepository,
	topicRepo repositories.TopicRepository,
	userRepo repositories.UserRepository,
	committeeRepo repositories.CommitteeRepository,
	attachmentRepo repositories.AttachmentRepository,
	presentationRepo repositories.PresentationRepository,
) ThesisService {
	return &thesisServiceImpl{
		tx:               tx,
		thesisRepo:       thesisRepo,
		topicRepo:        topicRepo,
		userRepo:         userRepo,
		committeeRepo:    committeeRepo,
		attachmentRepo:   attachmentRepo,
		presentationRepo: presentationRepo,
	}
}

// applyTransition moves the thesis to the target state and stamps the
// lifecycle columns. It is the single transition path, shared by manual
// state updates and committee auto-activation.
func applyTransition(thesis *models.Thesis, target models.ThesisState, reason, apNumber *string, now time.Time) error {
	if !thesis.State.CanTransitionTo(target) {
		return apperrors.ErrInvalidTransition
	}

	switch target {
	case models.StateActive:
		if thesis.State == models.StateUnderAssignment && thesis.StartedAt == nil {
			thesis.StartedAt = &now
		}
	case models.StateCompleted:
		thesis.FinalizedAt = &now
		if apNumber != nil && strings.TrimSpace(*apNumber) != "" {
			thesis.APNumber = apNumber
		}
	case models.StateCancelled:
		if reason == nil || strings.TrimSpace(*reason) == "" {
			return apperrors.ErrMissingReason
		}
		thesis.CancellationReason = reason
	case models.StateUnderAssignment:
		// Reactivation restarts the assignment phase from scratch
		thesis.CancellationReason = nil
		thesis.StartedAt = nil
	}

	thesis.State = target
	return nil
}

// Create assigns a topic to a student. The creating instructor becomes the
// supervisor; the secretary names one explicitly.
func (s *thesisServiceImpl) Create(ctx context.Context, actor *models.User, req *dto.CreateThesisRequest) (*dto.ThesisResponse, error) {
	var supervisorID int64
	switch actor.Role {
	case models.RoleInstructor:
		supervisorID = actor.ID
	case models.RoleSecretary:
		if req.SupervisorID == nil {
			return nil, apperrors.NewCustomError(apperrors.ErrValidationFailed, "supervisor id is required")
		}
		supervisorID = *req.SupervisorID
	default:
		return nil, apperrors.NewForbiddenError("only instructors and the secretary can assign topics")
	}

	if _, err := s.topicRepo.GetByID(ctx, req.TopicID); err != nil {
		return nil, err
	}

	student, err := s.userRepo.GetByID(ctx, req.StudentID)
	if err != nil {
		return nil, err
	}
	if student.Role != models.RoleStudent {
		return nil, apperrors.NewCustomError(apperrors.ErrValidationFailed, "assignee is not a student")
	}

	supervisor, err := s.userRepo.GetByID(ctx, supervisorID)
	if err != nil {
		return nil, err
	}
	if supervisor.Role != models.RoleInstructor {
		return nil, apperrors.NewCustomError(apperrors.ErrValidationFailed, "supervisor is not an instructor")
	}

	var thesisID int64
	now := time.Now()

	err = s.tx.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		open, err := s.thesisRepo.StudentHasOpenThesis(ctx, tx, req.StudentID)
		if err != nil {
			return err
		}
		if open {
			return apperrors.ErrStudentHasActiveThesis
		}

		open, err = s.thesisRepo.TopicHasOpenThesis(ctx, tx, req.TopicID)
		if err != nil {
			return err
		}
		if open {
			return apperrors.ErrTopicAlreadyAssigned
		}

		thesis := &models.Thesis{
			TopicID:      req.TopicID,
			StudentID:    req.StudentID,
			SupervisorID: supervisorID,
			State:        models.StateUnderAssignment,
			AssignedAt:   now,
		}
		thesisID, err = s.thesisRepo.Create(ctx, tx, thesis)
		if err != nil {
			return err
		}

		// The supervisor holds the first committee seat, pre-accepted
		accepted := now
		_, err = s.committeeRepo.Insert(ctx, tx, &models.CommitteeMember{
			ThesisID:     thesisID,
			InstructorID: supervisorID,
			Role:         models.CommitteeSupervisor,
			InvitedAt:    now,
			AcceptedAt:   &accepted,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info().Int64("thesisID", thesisID).Int64("studentID", req.StudentID).Int64("supervisorID", supervisorID).Msg("Thesis assigned")

	created, err := s.thesisRepo.GetByID(ctx, thesisID)
	if err != nil {
		return nil, err
	}

	resp := dto.FromThesis(created)
	return &resp, nil
}

// Get retrieves a thesis with committee, attachments and presentation
func (s *thesisServiceImpl) Get(ctx context.Context, actor *models.User, id int64) (*dto.ThesisDetailResponse, error) {
	thesis, err := loadThesisWithCommittee(ctx, s.thesisRepo, s.committeeRepo, id)
	if err != nil {
		return nil, err
	}

	if !auth.HasThesisAccess(actor, thesis) {
		return nil, apperrors.NewForbiddenError("you don't have access to this thesis")
	}

	detail := &dto.ThesisDetailResponse{
		ThesisResponse: dto.FromThesis(thesis),
		Committee:      make([]dto.CommitteeMemberResponse, 0, len(thesis.Committee)),
		Attachments:    []dto.AttachmentResponse{},
	}
	for i := range thesis.Committee {
		detail.Committee = append(detail.Committee, dto.FromCommitteeMember(&thesis.Committee[i]))
	}

	attachments, err := s.attachmentRepo.ListByThesis(ctx, id, nil)
	if err != nil {
		return nil, err
	}
	for i := range attachments {
		detail.Attachments = append(detail.Attachments, dto.FromAttachment(&attachments[i]))
	}

	presentation, err := s.presentationRepo.GetByThesis(ctx, id)
	if err == nil {
		p := dto.FromPresentation(presentation)
		p.Thesis = nil
		detail.Presentation = &p
	} else if err != apperrors.ErrPresentationNotFound {
		return nil, err
	}

	return detail, nil
}

// List retrieves theses visible to the actor
func (s *thesisServiceImpl) List(ctx context.Context, actor *models.User, filter dto.ThesisFilter, page, pageSize int) (*dto.ThesisListResponse, error) {
	repoFilter := repositories.ThesisFilter{
		State:        filter.State,
		StudentID:    filter.StudentID,
		SupervisorID: filter.SupervisorID,
	}

	// Role scoping: students see their own, instructors what they take
	// part in, the secretary everything
	switch actor.Role {
	case models.RoleStudent:
		repoFilter.StudentID = &actor.ID
	case models.RoleInstructor:
		repoFilter.ParticipantID = &actor.ID
	}

	theses, total, err := s.thesisRepo.List(ctx, repoFilter, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("error listing theses: %w", err)
	}

	resp := &dto.ThesisListResponse{
		Theses:     make([]dto.ThesisResponse, 0, len(theses)),
		Pagination: helpers.NewPaginationInfo(total, page, pageSize),
	}
	for i := range theses {
		resp.Theses = append(resp.Theses, dto.FromThesis(&theses[i]))
	}

	return resp, nil
}

// UpdateState moves a thesis through its lifecycle
func (s *thesisServiceImpl) UpdateState(ctx context.Context, actor *models.User, id int64, req *dto.UpdateThesisStateRequest) (*dto.ThesisResponse, error) {
	if !req.State.Valid() {
		return nil, apperrors.NewCustomError(apperrors.ErrValidationFailed, "unknown thesis state")
	}

	thesis, err := loadThesisWithCommittee(ctx, s.thesisRepo, s.committeeRepo, id)
	if err != nil {
		return nil, err
	}

	if !auth.HasThesisAccess(actor, thesis) {
		return nil, apperrors.NewForbiddenError("you don't have access to this thesis")
	}
	if !auth.CanTransition(actor, thesis, req.State) {
		if !thesis.State.CanTransitionTo(req.State) {
			return nil, apperrors.ErrInvalidTransition
		}
		return nil, apperrors.NewForbiddenError("you cannot perform this transition")
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		// Re-read under lock: a concurrent transition may have moved the
		// thesis since the permission check
		state, err := s.thesisRepo.GetStateForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		thesis.State = state

		if err := applyTransition(thesis, req.State, req.CancellationReason, req.APNumber, time.Now()); err != nil {
			return err
		}

		return s.thesisRepo.UpdateState(ctx, tx, thesis)
	})
	if err != nil {
		return nil, err
	}

	logger.Info().Int64("thesisID", id).Str("state", string(req.State)).Int64("actorID", actor.ID).Msg("Thesis state changed")

	updated, err := s.thesisRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := dto.FromThesis(updated)
	return &resp, nil
}

// Stats summarizes thesis counts. Instructors see their supervised theses,
// the secretary the whole system.
func (s *thesisServiceImpl) Stats(ctx context.Context, actor *models.User) (*dto.ThesisStatsResponse, error) {
	var supervisorID *int64
	switch actor.Role {
	case models.RoleSecretary:
		// Global view
	case models.RoleInstructor:
		supervisorID = &actor.ID
	default:
		return nil, apperrors.NewForbiddenError("students cannot view thesis statistics")
	}

	stats, err := s.thesisRepo.Stats(ctx, supervisorID)
	if err != nil {
		return nil, err
	}

	return &dto.ThesisStatsResponse{
		Total:                stats.Total,
		ByState:              stats.ByState,
		AvgDaysToCompletion:  stats.AvgDaysToCompletion,
		CompletedLast12Month: stats.CompletedLast12Month,
	}, nil
}
