package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkontaxis/thesisdesk/internal/app/models"
	"github.com/pkontaxis/thesisdesk/internal/pkg/apperrors"
)

// InvitationRepository handles database operations for committee invitations
type InvitationRepository interface {
	Create(ctx context.Context, inv *models.Invitation) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Invitation, error)
	ListByInstructor(ctx context.Context, instructorID int64, status *models.InvitationStatus) ([]models.Invitation, error)
	ListPendingByThesis(ctx context.Context, thesisID int64) ([]models.Invitation, error)
	HasPending(ctx context.Context, thesisID, instructorID int64) (bool, error)
	UpdateStatus(ctx context.Context, q Querier, id int64, status models.InvitationStatus, respondedAt time.Time) error
}

type invitationRepository struct {
	db *pgxpool.Pool
}

// NewInvitationRepository creates a new InvitationRepository
func NewInvitationRepository(db *pgxpool.Pool) InvitationRepository {
	return &invitationRepository{db: db}
}

func (r *invitationRepository) querier(q Querier) Querier {
	if q != nil {
		return q
	}
	return r.db
}

// Create inserts a new pending invitation and returns its id
func (r *invitationRepository) Create(ctx context.Context, inv *models.Invitation) (int64, error) {
	query := squirrel.Insert("invitations").
		Columns("thesis_id", "instructor_id", "status", "invited_at").
		Values(inv.ThesisID, inv.InstructorID, inv.Status, inv.InvitedAt).
		Suffix("RETURNING id").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building SQL: %w", err)
	}

	var id int64
	err = r.db.QueryRow(ctx, sql, args...).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("error executing query: %w", err)
	}

	return id, nil
}

// GetByID retrieves an invitation together with its instructor
func (r *invitationRepository) GetByID(ctx context.Context, id int64) (*models.Invitation, error) {
	query := squirrel.Select(
		"i.id", "i.thesis_id", "i.instructor_id", "i.status", "i.invited_at", "i.responded_at",
		"u.role", "u.full_name", "u.email",
	).
		From("invitations i").
		Join("users u ON u.id = i.instructor_id").
		Where("i.id = ?", id).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	var inv models.Invitation
	var u models.User
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&inv.ID, &inv.ThesisID, &inv.InstructorID, &inv.Status, &inv.InvitedAt, &inv.RespondedAt,
		&u.Role, &u.FullName, &u.Email,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrInvitationNotFound
		}
		return nil, fmt.Errorf("error executing query: %w", err)
	}

	u.ID = inv.InstructorID
	inv.Instructor = &u
	return &inv, nil
}

// ListByInstructor retrieves an instructor's invitations, newest first
func (r *invitationRepository) ListByInstructor(ctx context.Context, instructorID int64, status *models.InvitationStatus) ([]models.Invitation, error) {
	query := squirrel.Select(
		"i.id", "i.thesis_id", "i.instructor_id", "i.status", "i.invited_at", "i.responded_at",
		"th.state", "th.student_id", "th.supervisor_id",
		"t.title",
		"s.full_name",
		"sup.full_name",
	).
		From("invitations i").
		Join("theses th ON th.id = i.thesis_id").
		Join("topics t ON t.id = th.topic_id").
		Join("users s ON s.id = th.student_id").
		Join("users sup ON sup.id = th.supervisor_id").
		Where("i.instructor_id = ?", instructorID).
		OrderBy("i.invited_at DESC").
		PlaceholderFormat(squirrel.Dollar)

	if status != nil {
		query = query.Where("i.status = ?", *status)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var invitations []models.Invitation
	for rows.Next() {
		var inv models.Invitation
		var th models.Thesis
		var topic models.Topic
		var student, supervisor models.User
		err := rows.Scan(
			&inv.ID, &inv.ThesisID, &inv.InstructorID, &inv.Status, &inv.InvitedAt, &inv.RespondedAt,
			&th.State, &th.StudentID, &th.SupervisorID,
			&topic.Title,
			&student.FullName,
			&supervisor.FullName,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		th.ID = inv.ThesisID
		student.ID = th.StudentID
		supervisor.ID = th.SupervisorID
		th.Topic = &topic
		th.Student = &student
		th.Supervisor = &supervisor
		inv.Thesis = &th
		invitations = append(invitations, inv)
	}

	return invitations, rows.Err()
}

// ListPendingByThesis retrieves the outstanding invitations of a thesis
func (r *invitationRepository) ListPendingByThesis(ctx context.Context, thesisID int64) ([]models.Invitation, error) {
	query := squirrel.Select(
		"i.id", "i.thesis_id", "i.instructor_id", "i.status", "i.invited_at", "i.responded_at",
		"u.role", "u.full_name", "u.email",
	).
		From("invitations i").
		Join("users u ON u.id = i.instructor_id").
		Where("i.thesis_id = ?", thesisID).
		Where("i.status = ?", models.InvitationPending).
		OrderBy("i.invited_at ASC").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var invitations []models.Invitation
	for rows.Next() {
		var inv models.Invitation
		var u models.User
		err := rows.Scan(
			&inv.ID, &inv.ThesisID, &inv.InstructorID, &inv.Status, &inv.InvitedAt, &inv.RespondedAt,
			&u.Role, &u.FullName, &u.Email,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		u.ID = inv.InstructorID
		inv.Instructor = &u
		invitations = append(invitations, inv)
	}

	return invitations, rows.Err()
}

// HasPending reports whether a pending invitation exists for the pair
func (r *invitationRepository) HasPending(ctx context.Context, thesisID, instructorID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM invitations WHERE thesis_id = $1 AND instructor_id = $2 AND status = $3)",
		thesisID, instructorID, models.InvitationPending,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error executing query: %w", err)
	}
	return exists, nil
}

// UpdateStatus marks an invitation as responded
func (r *invitationRepository) UpdateStatus(ctx context.Context, q Querier, id int64, status models.InvitationStatus, respondedAt time.Time) error {
	query := squirrel.Update("invitations").
		Set("status", status).
		Set("responded_at", respondedAt).
		Where("id = ?", id).
		Where("status = ?", models.InvitationPending).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	tag, err := r.querier(q).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error executing query: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrAlreadyResponded
	}

	return nil
}
