package services

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pkontaxis/thesisdesk/internal/app/auth"
	"github.com/pkontaxis/thesisdesk/internal/app/models"
	"github.com/pkontaxis/thesisdesk/internal/app/models/dto"
	"github.com/pkontaxis/thesisdesk/internal/app/repositories"
	"github.com/pkontaxis/thesisdesk/internal/db"
	"github.com/pkontaxis/thesisdesk/internal/pkg/apperrors"
	"github.com/pkontaxis/thesisdesk/internal/pkg/logger"
)

// InvitationService defines the interface for committee formation
type InvitationService interface {
	Invite(ctx context.Context, actor *models.User, thesisID int64, req *dto.InviteRequest) (*dto.InvitationResponse, error)
	ListMine(ctx context.Context, actor *models.User, status *models.InvitationStatus) ([]dto.InvitationResponse, error)
	Respond(ctx context.Context, actor *models.User, invitationID int64, req *dto.RespondRequest) (*dto.RespondResult, error)
	Committee(ctx context.Context, actor *models.User, thesisID int64) (*dto.CommitteeResponse, error)
	AvailableInstructors(ctx context.Context, actor *models.User, thesisID int64) ([]dto.UserResponse, error)
}

// invitationServiceImpl implements InvitationService
type invitationServiceImpl struct {
	tx             db.TxRunner
	invitationRepo repositories.InvitationRepository
	committeeRepo  repositories.CommitteeRepository
	thesisRepo     repositories.ThesisRepository
	userRepo       repositories.UserRepository
}

// NewInvitationService creates a new InvitationService
func NewInvitationService(
	tx db.TxRunner,
	invitationRepo repositories.InvitationRepository,
	committeeRepo repositories.CommitteeRepository,
	thesisRepo repositories.ThesisRepository,
	userRepo repositories.UserRepository,
) InvitationService {
	return &invitationServiceImpl{
		tx:             tx,
		invitationRepo: invitationRepo,
		committeeRepo:  committeeRepo,
		thesisRepo:     thesisRepo,
		userRepo:       userRepo,
	}
}

// Invite sends a committee invitation to an instructor
func (s *invitationServiceImpl) Invite(ctx context.Context, actor *models.User, thesisID int64, req *dto.InviteRequest) (*dto.InvitationResponse, error) {
	thesis, err := s.thesisRepo.GetByID(ctx, thesisID)
	if err != nil {
		return nil, err
	}

	if !auth.CanInvite(actor, thesis) {
		return nil, apperrors.NewForbiddenError("you cannot invite members to this committee")
	}
	// A supervisor may activate before the quorum is reached, so invitations
	// stay open until the thesis hits a terminal state.
	if thesis.State.Terminal() {
		return nil, apperrors.ErrThesisClosed
	}

	instructor, err := s.userRepo.GetByID(ctx, req.InstructorID)
	if err != nil {
		return nil, err
	}
	if instructor.Role != models.RoleInstructor {
		return nil, apperrors.ErrNotInstructor
	}
	if instructor.ID == thesis.SupervisorID {
		return nil, apperrors.ErrSelfInvite
	}

	member, err := s.committeeRepo.IsMember(ctx, thesisID, instructor.ID)
	if err != nil {
		return nil, err
	}
	if member {
		return nil, apperrors.ErrAlreadyMember
	}

	pending, err := s.invitationRepo.HasPending(ctx, thesisID, instructor.ID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, apperrors.ErrDuplicateInvite
	}

	inv := &models.Invitation{
		ThesisID:     thesisID,
		InstructorID: instructor.ID,
		Status:       models.InvitationPending,
		InvitedAt:    time.Now(),
	}
	inv.ID, err = s.invitationRepo.Create(ctx, inv)
	if err != nil {
		return nil, err
	}
	inv.Instructor = instructor

	logger.Info().Int64("thesisID", thesisID).Int64("instructorID", instructor.ID).Int64("actorID", actor.ID).Msg("Committee invitation sent")

	resp := dto.FromInvitation(inv)
	return &resp, nil
}

// ListMine retrieves the actor's own invitations, newest first
func (s *invitationServiceImpl) ListMine(ctx context.Context, actor *models.User, status *models.InvitationStatus) ([]dto.InvitationResponse, error) {
	if actor.Role != models.RoleInstructor {
		return nil, apperrors.NewForbiddenError("only instructors receive committee invitations")
	}

	invitations, err := s.invitationRepo.ListByInstructor(ctx, actor.ID, status)
	if err != nil {
		return nil, err
	}

	resp := make([]dto.InvitationResponse, 0, len(invitations))
	for i := range invitations {
		resp = append(resp, dto.FromInvitation(&invitations[i]))
	}
	return resp, nil
}

// Respond accepts or rejects an invitation. Accepting the invitation that
// completes the committee activates the thesis in the same transaction;
// the result reports whether that happened.
func (s *invitationServiceImpl) Respond(ctx context.Context, actor *models.User, invitationID int64, req *dto.RespondRequest) (*dto.RespondResult, error) {
	inv, err := s.invitationRepo.GetByID(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	if inv.InstructorID != actor.ID {
		return nil, apperrors.NewForbiddenError("this invitation was not addressed to you")
	}
	if inv.Status != models.InvitationPending {
		return nil, apperrors.ErrAlreadyResponded
	}

	thesis, err := s.thesisRepo.GetByID(ctx, inv.ThesisID)
	if err != nil {
		return nil, err
	}
	if thesis.State.Terminal() {
		return nil, apperrors.ErrThesisClosed
	}

	now := time.Now()
	activated := false

	if !req.Accept {
		if err := s.invitationRepo.UpdateStatus(ctx, nil, invitationID, models.InvitationRejected, now); err != nil {
			return nil, err
		}
		inv.Status = models.InvitationRejected
		inv.RespondedAt = &now

		logger.Info().Int64("invitationID", invitationID).Int64("instructorID", actor.ID).Msg("Committee invitation rejected")

		resp := dto.FromInvitation(inv)
		return &dto.RespondResult{Invitation: resp}, nil
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := s.invitationRepo.UpdateStatus(ctx, tx, invitationID, models.InvitationAccepted, now); err != nil {
			return err
		}

		if _, err := s.committeeRepo.Insert(ctx, tx, &models.CommitteeMember{
			ThesisID:     inv.ThesisID,
			InstructorID: actor.ID,
			Role:         models.CommitteeMemberRole,
			InvitedAt:    inv.InvitedAt,
			AcceptedAt:   &now,
		}); err != nil {
			return err
		}

		// Auto-activation: re-check the state under lock so concurrent
		// acceptances cannot both fire, then count accepted seats
		state, err := s.thesisRepo.GetStateForUpdate(ctx, tx, inv.ThesisID)
		if err != nil {
			return err
		}
		if state != models.StateUnderAssignment {
			return nil
		}

		accepted, err := s.committeeRepo.CountAccepted(ctx, tx, inv.ThesisID)
		if err != nil {
			return err
		}
		if accepted < models.CommitteeQuorum {
			return nil
		}

		thesis.State = state
		if err := applyTransition(thesis, models.StateActive, nil, nil, now); err != nil {
			return err
		}
		if err := s.thesisRepo.UpdateState(ctx, tx, thesis); err != nil {
			return err
		}
		activated = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	inv.Status = models.InvitationAccepted
	inv.RespondedAt = &now

	event := logger.Info().Int64("invitationID", invitationID).Int64("instructorID", actor.ID)
	if activated {
		event = event.Int64("thesisID", inv.ThesisID).Bool("activated", true)
	}
	event.Msg("Committee invitation accepted")

	resp := dto.FromInvitation(inv)
	return &dto.RespondResult{Invitation: resp, Activated: activated}, nil
}

// Committee retrieves the committee of a thesis. Outstanding invitations are
// included for the actors allowed to manage the committee.
func (s *invitationServiceImpl) Committee(ctx context.Context, actor *models.User, thesisID int64) (*dto.CommitteeResponse, error) {
	thesis, err := loadThesisWithCommittee(ctx, s.thesisRepo, s.committeeRepo, thesisID)
	if err != nil {
		return nil, err
	}

	if !auth.HasThesisAccess(actor, thesis) {
		return nil, apperrors.NewForbiddenError("you don't have access to this thesis")
	}

	resp := &dto.CommitteeResponse{
		ThesisID: thesisID,
		Members:  make([]dto.CommitteeMemberResponse, 0, len(thesis.Committee)),
	}
	for i := range thesis.Committee {
		resp.Members = append(resp.Members, dto.FromCommitteeMember(&thesis.Committee[i]))
	}

	if auth.CanManageCommittee(actor, thesis) {
		pending, err := s.invitationRepo.ListPendingByThesis(ctx, thesisID)
		if err != nil {
			return nil, err
		}
		for i := range pending {
			resp.PendingInvitations = append(resp.PendingInvitations, dto.FromInvitation(&pending[i]))
		}
	}

	return resp, nil
}

// AvailableInstructors lists the instructors who can still be invited to the
// committee of a thesis
func (s *invitationServiceImpl) AvailableInstructors(ctx context.Context, actor *models.User, thesisID int64) ([]dto.UserResponse, error) {
	thesis, err := loadThesisWithCommittee(ctx, s.thesisRepo, s.committeeRepo, thesisID)
	if err != nil {
		return nil, err
	}

	if !auth.CanInvite(actor, thesis) {
		return nil, apperrors.NewForbiddenError("you cannot invite members to this committee")
	}

	taken := make(map[int64]bool, len(thesis.Committee))
	for i := range thesis.Committee {
		taken[thesis.Committee[i].InstructorID] = true
	}
	pending, err := s.invitationRepo.ListPendingByThesis(ctx, thesisID)
	if err != nil {
		return nil, err
	}
	for i := range pending {
		taken[pending[i].InstructorID] = true
	}

	instructors, err := s.userRepo.ListByRole(ctx, models.RoleInstructor)
	if err != nil {
		return nil, err
	}

	available := make([]dto.UserResponse, 0, len(instructors))
	for i := range instructors {
		if taken[instructors[i].ID] {
			continue
		}
		available = append(available, dto.FromUser(&instructors[i]))
	}

	return available, nil
}
