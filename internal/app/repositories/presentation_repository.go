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
	"github.com/pkontaxis/thesisdesk/internal/pkg/dberrors"
)

// PresentationFilter carries optional presentation listing filters
type PresentationFilter struct {
	ThesisID *int64
	From     *time.Time
	To       *time.Time
	// ParticipantID keeps presentations of theses the user takes part in
	ParticipantID *int64
}

// PresentationRepository handles database operations for scheduled defenses
type PresentationRepository interface {
	Create(ctx context.Context, p *models.Presentation) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Presentation, error)
	GetByThesis(ctx context.Context, thesisID int64) (*models.Presentation, error)
	List(ctx context.Context, filter PresentationFilter) ([]models.Presentation, error)
	ListPublic(ctx context.Context) ([]models.Presentation, error)
	Update(ctx context.Context, p *models.Presentation) error
	Delete(ctx context.Context, id int64) error
}

type presentationRepository struct {
	db *pgxpool.Pool
}

// NewPresentationRepository creates a new PresentationRepository
func NewPresentationRepository(db *pgxpool.Pool) PresentationRepository {
	return &presentationRepository{db: db}
}

func presentationSelect() squirrel.SelectBuilder {
	return squirrel.Select(
		"p.id", "p.thesis_id", "p.scheduled_at", "p.mode", "p.room", "p.online_link", "p.created_by", "p.created_at",
		"th.state", "th.student_id", "th.supervisor_id",
		"t.title", "t.creator_id",
		"s.full_name",
		"sup.full_name",
	).
		From("presentations p").
		Join("theses th ON th.id = p.thesis_id").
		Join("topics t ON t.id = th.topic_id").
		Join("users s ON s.id = th.student_id").
		Join("users sup ON sup.id = th.supervisor_id").
		PlaceholderFormat(squirrel.Dollar)
}

func scanPresentation(row pgx.Row) (*models.Presentation, error) {
	var p models.Presentation
	var th models.Thesis
	var topic models.Topic
	var student, supervisor models.User

	err := row.Scan(
		&p.ID, &p.ThesisID, &p.ScheduledAt, &p.Mode, &p.Room, &p.OnlineLink, &p.CreatedBy, &p.CreatedAt,
		&th.State, &th.StudentID, &th.SupervisorID,
		&topic.Title, &topic.CreatorID,
		&student.FullName,
		&supervisor.FullName,
	)
	if err != nil {
		return nil, err
	}

	th.ID = p.ThesisID
	student.ID = th.StudentID
	supervisor.ID = th.SupervisorID
	th.Topic = &topic
	th.Student = &student
	th.Supervisor = &supervisor
	p.Thesis = &th
	return &p, nil
}

// Create inserts a presentation and returns its id
func (r *presentationRepository) Create(ctx context.Context, p *models.Presentation) (int64, error) {
	query := squirrel.Insert("presentations").
		Columns("thesis_id", "scheduled_at", "mode", "room", "online_link", "created_by").
		Values(p.ThesisID, p.ScheduledAt, p.Mode, p.Room, p.OnlineLink, p.CreatedBy).
		Suffix("RETURNING id, created_at").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building SQL: %w", err)
	}

	var id int64
	err = r.db.QueryRow(ctx, sql, args...).Scan(&id, &p.CreatedAt)
	if err != nil {
		if dberrors.IsUniqueViolation(err) {
			return 0, apperrors.ErrAlreadyScheduled
		}
		return 0, fmt.Errorf("error executing query: %w", err)
	}

	return id, nil
}

// GetByID retrieves a presentation with its thesis
func (r *presentationRepository) GetByID(ctx context.Context, id int64) (*models.Presentation, error) {
	query := presentationSelect().Where("p.id = ?", id)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	p, err := scanPresentation(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrPresentationNotFound
		}
		return nil, fmt.Errorf("error executing query: %w", err)
	}

	return p, nil
}

// GetByThesis retrieves the presentation scheduled for a thesis, if any
func (r *presentationRepository) GetByThesis(ctx context.Context, thesisID int64) (*models.Presentation, error) {
	query := presentationSelect().Where("p.thesis_id = ?", thesisID)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	p, err := scanPresentation(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrPresentationNotFound
		}
		return nil, fmt.Errorf("error executing query: %w", err)
	}

	return p, nil
}

// List retrieves presentations with filtering, earliest first
func (r *presentationRepository) List(ctx context.Context, filter PresentationFilter) ([]models.Presentation, error) {
	query := presentationSelect().OrderBy("p.scheduled_at ASC")

	if filter.ThesisID != nil {
		query = query.Where("p.thesis_id = ?", *filter.ThesisID)
	}
	if filter.From != nil {
		query = query.Where("p.scheduled_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("p.scheduled_at <= ?", *filter.To)
	}
	if filter.ParticipantID != nil {
		id := *filter.ParticipantID
		query = query.Where(
			"(th.student_id = ? OR th.supervisor_id = ? OR t.creator_id = ? OR EXISTS (SELECT 1 FROM committee_members cm WHERE cm.thesis_id = th.id AND cm.instructor_id = ?))",
			id, id, id, id,
		)
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

	var presentations []models.Presentation
	for rows.Next() {
		p, err := scanPresentation(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		presentations = append(presentations, *p)
	}

	return presentations, rows.Err()
}

// ListPublic retrieves the announcements for the unauthenticated feed:
// defenses of theses under review or completed
func (r *presentationRepository) ListPublic(ctx context.Context) ([]models.Presentation, error) {
	query := presentationSelect().
		Where(squirrel.Eq{"th.state": []models.ThesisState{models.StateUnderReview, models.StateCompleted}}).
		OrderBy("p.scheduled_at ASC")

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var presentations []models.Presentation
	for rows.Next() {
		p, err := scanPresentation(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		presentations = append(presentations, *p)
	}

	return presentations, rows.Err()
}

// Update rewrites the schedule fields of a presentation
func (r *presentationRepository) Update(ctx context.Context, p *models.Presentation) error {
	query := squirrel.Update("presentations").
		Set("scheduled_at", p.ScheduledAt).
		Set("mode", p.Mode).
		Set("room", p.Room).
		Set("online_link", p.OnlineLink).
		Where("id = ?", p.ID).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error executing query: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrPresentationNotFound
	}

	return nil
}

// Delete removes a presentation
func (r *presentationRepository) Delete(ctx context.Context, id int64) error {
	query := squirrel.Delete("presentations").
		Where("id = ?", id).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error executing query: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrPresentationNotFound
	}

	return nil
}
