package services

import (
	"context"
	"strings"
	"time"

	"github.com/pkontaxis/thesisdesk/internal/app/auth"
	"github.com/pkontaxis/thesisdesk/internal/app/models"
	"github.com/pkontaxis/thesisdesk/internal/app/models/dto"
	"github.com/pkontaxis/thesisdesk/internal/app/repositories"
	"github.com/pkontaxis/thesisdesk/internal/pkg/apperrors"
	"github.com/pkontaxis/thesisdesk/internal/pkg/logger"
)

// PresentationService defines the interface for defense scheduling
type PresentationService interface {
	Create(ctx context.Context, actor *models.User, req *dto.CreatePresentationRequest) (*dto.PresentationResponse, error)
	Get(ctx context.Context, actor *models.User, id int64) (*dto.PresentationDetailResponse, error)
	List(ctx context.Context, actor *models.User, from, to *time.Time) ([]dto.PresentationResponse, error)
	Update(ctx context.Context, actor *models.User, id int64, req *dto.UpdatePresentationRequest) (*dto.PresentationResponse, error)
	Delete(ctx context.Context, actor *models.User, id int64) error
	PublicFeed(ctx context.Context) (*dto.PublicPresentationFeed, error)
}

// presentationServiceImpl implements PresentationService
type presentationServiceImpl struct {
	presentationRepo repositories.PresentationRepository
	thesisRepo       repositories.ThesisRepository
	committeeRepo    repositories.CommitteeRepository
}

// NewPresentationService creates a new PresentationService
func NewPresentationService(
	presentationRepo repositories.PresentationRepository,
	thesisRepo repositories.ThesisRepository,
	committeeRepo repositories.CommitteeRepository,
) PresentationService {
	return &presentationServiceImpl{
		presentationRepo: presentationRepo,
		thesisRepo:       thesisRepo,
		committeeRepo:    committeeRepo,
	}
}

// validateSchedule checks the mode-dependent fields of a presentation
func validateSchedule(scheduledAt time.Time, mode models.PresentationMode, room, onlineLink *string, now time.Time) error {
	if !scheduledAt.After(now) {
		return apperrors.ErrScheduleNotFuture
	}
	switch mode {
	case models.ModeInPerson:
		if room == nil || strings.TrimSpace(*room) == "" {
			return apperrors.ErrRoomRequired
		}
	case models.ModeOnline:
		if onlineLink == nil || strings.TrimSpace(*onlineLink) == "" {
			return apperrors.ErrLinkRequired
		}
	default:
		return apperrors.NewCustomError(apperrors.ErrValidationFailed, "unknown presentation mode")
	}
	return nil
}

// Create schedules the defense of a thesis
func (s *presentationServiceImpl) Create(ctx context.Context, actor *models.User, req *dto.CreatePresentationRequest) (*dto.PresentationResponse, error) {
	thesis, err := s.thesisRepo.GetByID(ctx, req.ThesisID)
	if err != nil {
		return nil, err
	}

	if !auth.CanSchedulePresentation(actor, thesis) {
		return nil, apperrors.NewForbiddenError("you cannot schedule a defense for this thesis")
	}
	if thesis.State != models.StateActive && thesis.State != models.StateUnderReview {
		return nil, apperrors.ErrPresentationState
	}

	scheduledAt, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		return nil, apperrors.NewCustomError(apperrors.ErrValidationFailed, "scheduledAt must be an RFC 3339 timestamp")
	}
	if err := validateSchedule(scheduledAt, req.Mode, req.Room, req.OnlineLink, time.Now()); err != nil {
		return nil, err
	}

	presentation := &models.Presentation{
		ThesisID:    req.ThesisID,
		ScheduledAt: scheduledAt,
		Mode:        req.Mode,
		Room:        req.Room,
		OnlineLink:  req.OnlineLink,
		CreatedBy:   actor.ID,
	}
	presentation.ID, err = s.presentationRepo.Create(ctx, presentation)
	if err != nil {
		return nil, err
	}
	presentation.Thesis = thesis

	logger.Info().Int64("thesisID", req.ThesisID).Int64("presentationID", presentation.ID).Time("scheduledAt", scheduledAt).Msg("Defense scheduled")

	resp := dto.FromPresentation(presentation)
	return &resp, nil
}

// Get retrieves a presentation with the accepted committee of its thesis
func (s *presentationServiceImpl) Get(ctx context.Context, actor *models.User, id int64) (*dto.PresentationDetailResponse, error) {
	presentation, err := s.presentationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	thesis, err := loadThesisWithCommittee(ctx, s.thesisRepo, s.committeeRepo, presentation.ThesisID)
	if err != nil {
		return nil, err
	}
	if !auth.HasThesisAccess(actor, thesis) {
		return nil, apperrors.NewForbiddenError("you don't have access to this thesis")
	}
	presentation.Thesis = thesis

	detail := &dto.PresentationDetailResponse{
		PresentationResponse: dto.FromPresentation(presentation),
		Committee:            []dto.CommitteeMemberResponse{},
	}
	for i := range thesis.Committee {
		if thesis.Committee[i].AcceptedAt == nil {
			continue
		}
		detail.Committee = append(detail.Committee, dto.FromCommitteeMember(&thesis.Committee[i]))
	}

	return detail, nil
}

// List retrieves the presentations visible to the actor within an optional
// time window
func (s *presentationServiceImpl) List(ctx context.Context, actor *models.User, from, to *time.Time) ([]dto.PresentationResponse, error) {
	filter := repositories.PresentationFilter{From: from, To: to}
	if actor.Role != models.RoleSecretary {
		filter.ParticipantID = &actor.ID
	}

	presentations, err := s.presentationRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	resp := make([]dto.PresentationResponse, 0, len(presentations))
	for i := range presentations {
		resp = append(resp, dto.FromPresentation(&presentations[i]))
	}
	return resp, nil
}

// Update reschedules or amends a defense
func (s *presentationServiceImpl) Update(ctx context.Context, actor *models.User, id int64, req *dto.UpdatePresentationRequest) (*dto.PresentationResponse, error) {
	presentation, err := s.presentationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	thesis, err := s.thesisRepo.GetByID(ctx, presentation.ThesisID)
	if err != nil {
		return nil, err
	}
	if !auth.CanManagePresentation(actor, thesis) {
		return nil, apperrors.NewForbiddenError("you cannot modify this defense")
	}

	now := time.Now()
	if presentation.ScheduledAt.Before(now) && actor.Role != models.RoleSecretary {
		return nil, apperrors.NewForbiddenError("past defenses can only be changed by the secretary")
	}

	if req.ScheduledAt != nil {
		scheduledAt, err := time.Parse(time.RFC3339, *req.ScheduledAt)
		if err != nil {
			return nil, apperrors.NewCustomError(apperrors.ErrValidationFailed, "scheduledAt must be an RFC 3339 timestamp")
		}
		presentation.ScheduledAt = scheduledAt
	}
	if req.Mode != nil {
		presentation.Mode = *req.Mode
	}
	if req.Room != nil {
		presentation.Room = req.Room
	}
	if req.OnlineLink != nil {
		presentation.OnlineLink = req.OnlineLink
	}

	if err := validateSchedule(presentation.ScheduledAt, presentation.Mode, presentation.Room, presentation.OnlineLink, now); err != nil {
		return nil, err
	}

	if err := s.presentationRepo.Update(ctx, presentation); err != nil {
		return nil, err
	}
	presentation.Thesis = thesis

	logger.Info().Int64("presentationID", id).Int64("actorID", actor.ID).Msg("Defense rescheduled")

	resp := dto.FromPresentation(presentation)
	return &resp, nil
}

// Delete removes a scheduled defense
func (s *presentationServiceImpl) Delete(ctx context.Context, actor *models.User, id int64) error {
	presentation, err := s.presentationRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	thesis, err := s.thesisRepo.GetByID(ctx, presentation.ThesisID)
	if err != nil {
		return err
	}
	if !auth.CanManagePresentation(actor, thesis) {
		return apperrors.NewForbiddenError("you cannot delete this defense")
	}
	if presentation.ScheduledAt.Before(time.Now()) && actor.Role != models.RoleSecretary {
		return apperrors.NewForbiddenError("past defenses can only be removed by the secretary")
	}

	if err := s.presentationRepo.Delete(ctx, id); err != nil {
		return err
	}

	logger.Info().Int64("presentationID", id).Int64("actorID", actor.ID).Msg("Defense cancelled")
	return nil
}

// PublicFeed builds the unauthenticated defense announcement feed. Only
// theses under review or completed are announced.
func (s *presentationServiceImpl) PublicFeed(ctx context.Context) (*dto.PublicPresentationFeed, error) {
	presentations, err := s.presentationRepo.ListPublic(ctx)
	if err != nil {
		return nil, err
	}

	feed := &dto.PublicPresentationFeed{
		GeneratedAt:   time.Now().Format(time.RFC3339),
		Presentations: make([]dto.PublicPresentationEntry, 0, len(presentations)),
	}
	for i := range presentations {
		p := &presentations[i]
		entry := dto.PublicPresentationEntry{
			ScheduledAt: p.ScheduledAt.Format(time.RFC3339),
			Mode:        string(p.Mode),
		}
		if p.Room != nil {
			entry.Room = *p.Room
		}
		if p.OnlineLink != nil {
			entry.OnlineLink = *p.OnlineLink
		}
		if t := p.Thesis; t != nil {
			if t.Topic != nil {
				entry.ThesisTitle = t.Topic.Title
			}
			if t.Student != nil {
				entry.StudentName = t.Student.FullName
			}
			if t.Supervisor != nil {
				entry.Supervisor = t.Supervisor.FullName
			}
		}
		feed.Presentations = append(feed.Presentations, entry)
	}

	return feed, nil
}
