package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkontaxis/thesisdesk/internal/app/models"
	"github.com/pkontaxis/thesisdesk/internal/pkg/apperrors"
	"github.com/pkontaxis/thesisdesk/internal/pkg/dberrors"
)

// CommitteeRepository handles database operations for committee seats
type CommitteeRepository interface {
	Insert(ctx context.Context, q Querier, member *models.CommitteeMember) (int64, error)
	ListByThesis(ctx context.Context, thesisID int64) ([]models.CommitteeMember, error)
	CountAccepted(ctx context.Context, q Querier, thesisID int64) (int, error)
	IsMember(ctx context.Context, thesisID, instructorID int64) (bool, error)
}

type committeeRepository struct {
	db *pgxpool.Pool
}

// NewCommitteeRepository creates a new CommitteeRepository
func NewCommitteeRepository(db *pgxpool.Pool) CommitteeRepository {
	return &committeeRepository{db: db}
}

func (r *committeeRepository) querier(q Querier) Querier {
	if q != nil {
		return q
	}
	return r.db
}

// Insert adds a committee seat and returns its id
func (r *committeeRepository) Insert(ctx context.Context, q Querier, member *models.CommitteeMember) (int64, error) {
	query := squirrel.Insert("committee_members").
		Columns("thesis_id", "instructor_id", "role", "invited_at", "accepted_at", "rejected_at").
		Values(member.ThesisID, member.InstructorID, member.Role, member.InvitedAt, member.AcceptedAt, member.RejectedAt).
		Suffix("RETURNING id").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building SQL: %w", err)
	}

	var id int64
	err = r.querier(q).QueryRow(ctx, sql, args...).Scan(&id)
	if err != nil {
		if dberrors.IsUniqueViolation(err) {
			return 0, apperrors.ErrAlreadyMember
		}
		return 0, fmt.Errorf("error executing query: %w", err)
	}

	return id, nil
}

// ListByThesis retrieves the committee of a thesis ordered by invitation time
func (r *committeeRepository) ListByThesis(ctx context.Context, thesisID int64) ([]models.CommitteeMember, error) {
	query := squirrel.Select(
		"cm.id", "cm.thesis_id", "cm.instructor_id", "cm.role", "cm.invited_at", "cm.accepted_at", "cm.rejected_at",
		"u.role", "u.full_name", "u.email",
	).
		From("committee_members cm").
		Join("users u ON u.id = cm.instructor_id").
		Where("cm.thesis_id = ?", thesisID).
		OrderBy("cm.invited_at ASC").
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

	var members []models.CommitteeMember
	for rows.Next() {
		var m models.CommitteeMember
		var u models.User
		err := rows.Scan(
			&m.ID, &m.ThesisID, &m.InstructorID, &m.Role, &m.InvitedAt, &m.AcceptedAt, &m.RejectedAt,
			&u.Role, &u.FullName, &u.Email,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		u.ID = m.InstructorID
		m.Instructor = &u
		members = append(members, m)
	}

	return members, rows.Err()
}

// CountAccepted returns the number of accepted seats on a thesis committee
func (r *committeeRepository) CountAccepted(ctx context.Context, q Querier, thesisID int64) (int, error) {
	var count int
	err := r.querier(q).QueryRow(ctx,
		"SELECT COUNT(*) FROM committee_members WHERE thesis_id = $1 AND accepted_at IS NOT NULL",
		thesisID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error executing query: %w", err)
	}
	return count, nil
}

// IsMember reports whether the instructor has a seat on the committee
func (r *committeeRepository) IsMember(ctx context.Context, thesisID, instructorID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM committee_members WHERE thesis_id = $1 AND instructor_id = $2)",
		thesisID, instructorID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error executing query: %w", err)
	}
	return exists, nil
}
