package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkontaxis/thesisdesk/internal/app/models"
	"github.com/pkontaxis/thesisdesk/internal/pkg/apperrors"
	"github.com/pkontaxis/thesisdesk/internal/pkg/dberrors"
)

// ThesisFilter carries optional thesis listing filters
type ThesisFilter struct {
	State        *models.ThesisState
	StudentID    *int64
	SupervisorID *int64
	// ParticipantID keeps theses the user supervises, sits on the committee
	// of, proposed the topic for, or writes
	ParticipantID *int64
}

// ThesisStats aggregates thesis counts for the stats endpoints
type ThesisStats struct {
	Total                int64
	ByState              map[string]int64
	AvgDaysToCompletion  *float64
	CompletedLast12Month int64
}

// ThesisExportRecord is one row of the secretary export
type ThesisExportRecord struct {
	Thesis       models.Thesis
	AverageGrade *float64
}

// SupervisorLoadRecord counts one supervisor's theses per state
type SupervisorLoadRecord struct {
	Supervisor models.User
	Total      int64
	ByState    map[string]int64
}

// ThesisRepository handles database operations for thesis assignments
type ThesisRepository interface {
	Create(ctx context.Context, q Querier, thesis *models.Thesis) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Thesis, error)
	GetStateForUpdate(ctx context.Context, tx pgx.Tx, id int64) (models.ThesisState, error)
	List(ctx context.Context, filter ThesisFilter, page, pageSize int) ([]models.Thesis, int64, error)
	ListByTopic(ctx context.Context, topicID int64) ([]models.Thesis, error)
	UpdateState(ctx context.Context, q Querier, thesis *models.Thesis) error
	StudentHasOpenThesis(ctx context.Context, q Querier, studentID int64) (bool, error)
	TopicHasOpenThesis(ctx context.Context, q Querier, topicID int64) (bool, error)
	Stats(ctx context.Context, supervisorID *int64) (*ThesisStats, error)
	ExportRecords(ctx context.Context) ([]ThesisExportRecord, error)
	SupervisorLoads(ctx context.Context) ([]SupervisorLoadRecord, error)
	Count(ctx context.Context) (int64, error)
	ListPendingGrading(ctx context.Context, instructorID int64) ([]models.Thesis, error)
}

type thesisRepository struct {
	db *pgxpool.Pool
}

// NewThesisRepository creates a new ThesisRepository
func NewThesisRepository(db *pgxpool.Pool) ThesisRepository {
	return &thesisRepository{db: db}
}

func (r *thesisRepository) querier(q Querier) Querier {
	if q != nil {
		return q
	}
	return r.db
}

// thesisSelect builds the joined select used by every thesis read
func thesisSelect() squirrel.SelectBuilder {
	return squirrel.Select(
		"th.id", "th.topic_id", "th.student_id", "th.supervisor_id", "th.state",
		"th.assigned_at", "th.started_at", "th.finalized_at", "th.cancellation_reason", "th.ap_number", "th.created_at",
		"t.title", "t.summary", "t.description_url", "t.creator_id", "t.created_at",
		"s.role", "s.academic_id", "s.full_name", "s.email",
		"sup.role", "sup.academic_id", "sup.full_name", "sup.email",
	).
		From("theses th").
		Join("topics t ON t.id = th.topic_id").
		Join("users s ON s.id = th.student_id").
		Join("users sup ON sup.id = th.supervisor_id").
		PlaceholderFormat(squirrel.Dollar)
}

func scanThesis(row pgx.Row) (*models.Thesis, error) {
	var th models.Thesis
	var topic models.Topic
	var student, supervisor models.User

	err := row.Scan(
		&th.ID, &th.TopicID, &th.StudentID, &th.SupervisorID, &th.State,
		&th.AssignedAt, &th.StartedAt, &th.FinalizedAt, &th.CancellationReason, &th.APNumber, &th.CreatedAt,
		&topic.Title, &topic.Summary, &topic.DescriptionURL, &topic.CreatorID, &topic.CreatedAt,
		&student.Role, &student.AcademicID, &student.FullName, &student.Email,
		&supervisor.Role, &supervisor.AcademicID, &supervisor.FullName, &supervisor.Email,
	)
	if err != nil {
		return nil, err
	}

	topic.ID = th.TopicID
	student.ID = th.StudentID
	supervisor.ID = th.SupervisorID
	th.Topic = &topic
	th.Student = &student
	th.Supervisor = &supervisor
	return &th, nil
}

// Create inserts a new thesis and returns its id
func (r *thesisRepository) Create(ctx context.Context, q Querier, thesis *models.Thesis) (int64, error) {
	query := squirrel.Insert("theses").
		Columns("topic_id", "student_id", "supervisor_id", "state", "assigned_at").
		Values(thesis.TopicID, thesis.StudentID, thesis.SupervisorID, thesis.State, thesis.AssignedAt).
		Suffix("RETURNING id").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building SQL: %w", err)
	}

	var id int64
	err = r.querier(q).QueryRow(ctx, sql, args...).Scan(&id)
	if err != nil {
		if mapped := mapOpenThesisConflict(err); mapped != nil {
			return 0, mapped
		}
		return 0, fmt.Errorf("error executing query: %w", err)
	}

	return id, nil
}

// mapOpenThesisConflict translates violations of the one-open-thesis partial
// unique indexes into their domain sentinels.
func mapOpenThesisConflict(err error) error {
	if dberrors.IsDuplicateConstraintError(err, "idx_theses_open_per_student") {
		return apperrors.ErrStudentHasActiveThesis
	}
	if dberrors.IsDuplicateConstraintError(err, "idx_theses_open_per_topic") {
		return apperrors.ErrTopicAlreadyAssigned
	}
	return nil
}

// GetByID retrieves a thesis with its topic, student and supervisor
func (r *thesisRepository) GetByID(ctx context.Context, id int64) (*models.Thesis, error) {
	query := thesisSelect().Where("th.id = ?", id)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	thesis, err := scanThesis(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrThesisNotFound
		}
		return nil, fmt.Errorf("error executing query: %w", err)
	}

	return thesis, nil
}

// GetStateForUpdate reads the current state with a row lock, so concurrent
// transitions serialize on the thesis row
func (r *thesisRepository) GetStateForUpdate(ctx context.Context, tx pgx.Tx, id int64) (models.ThesisState, error) {
	var state models.ThesisState
	err := tx.QueryRow(ctx, "SELECT state FROM theses WHERE id = $1 FOR UPDATE", id).Scan(&state)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", apperrors.ErrThesisNotFound
		}
		return "", fmt.Errorf("error executing query: %w", err)
	}
	return state, nil
}

// List retrieves theses with filtering and pagination, newest first
func (r *thesisRepository) List(ctx context.Context, filter ThesisFilter, page, pageSize int) ([]models.Thesis, int64, error) {
	query := thesisSelect().OrderBy("th.created_at DESC")

	if filter.State != nil {
		query = query.Where("th.state = ?", *filter.State)
	}
	if filter.StudentID != nil {
		query = query.Where("th.student_id = ?", *filter.StudentID)
	}
	if filter.SupervisorID != nil {
		query = query.Where("th.supervisor_id = ?", *filter.SupervisorID)
	}
	if filter.ParticipantID != nil {
		id := *filter.ParticipantID
		query = query.Where(
			"(th.student_id = ? OR th.supervisor_id = ? OR t.creator_id = ? OR EXISTS (SELECT 1 FROM committee_members cm WHERE cm.thesis_id = th.id AND cm.instructor_id = ?))",
			id, id, id, id,
		)
	}

	offset := (page - 1) * pageSize
	query = query.Limit(uint64(pageSize)).Offset(uint64(offset))

	countQuery := query.Column("COUNT(*) OVER()")
	sql, args, err := countQuery.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var theses []models.Thesis
	var total int64

	for rows.Next() {
		var th models.Thesis
		var topic models.Topic
		var student, supervisor models.User
		err := rows.Scan(
			&th.ID, &th.TopicID, &th.StudentID, &th.SupervisorID, &th.State,
			&th.AssignedAt, &th.StartedAt, &th.FinalizedAt, &th.CancellationReason, &th.APNumber, &th.CreatedAt,
			&topic.Title, &topic.Summary, &topic.DescriptionURL, &topic.CreatorID, &topic.CreatedAt,
			&student.Role, &student.AcademicID, &student.FullName, &student.Email,
			&supervisor.Role, &supervisor.AcademicID, &supervisor.FullName, &supervisor.Email,
			&total,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning row: %w", err)
		}
		topic.ID = th.TopicID
		student.ID = th.StudentID
		supervisor.ID = th.SupervisorID
		th.Topic = &topic
		th.Student = &student
		th.Supervisor = &supervisor
		theses = append(theses, th)
	}

	return theses, total, rows.Err()
}

// ListByTopic retrieves the non-cancelled theses on a topic
func (r *thesisRepository) ListByTopic(ctx context.Context, topicID int64) ([]models.Thesis, error) {
	query := thesisSelect().
		Where("th.topic_id = ?", topicID).
		Where("th.state <> ?", models.StateCancelled).
		OrderBy("th.created_at DESC")

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var theses []models.Thesis
	for rows.Next() {
		th, err := scanThesis(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		theses = append(theses, *th)
	}

	return theses, rows.Err()
}

// UpdateState rewrites the lifecycle columns of a thesis
func (r *thesisRepository) UpdateState(ctx context.Context, q Querier, thesis *models.Thesis) error {
	query := squirrel.Update("theses").
		Set("state", thesis.State).
		Set("started_at", thesis.StartedAt).
		Set("finalized_at", thesis.FinalizedAt).
		Set("cancellation_reason", thesis.CancellationReason).
		Set("ap_number", thesis.APNumber).
		Where("id = ?", thesis.ID).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	tag, err := r.querier(q).Exec(ctx, sql, args...)
	if err != nil {
		// Reactivating a cancelled thesis re-enters the partial unique
		// indexes, so the student or topic may conflict with a newer
		// open thesis.
		if mapped := mapOpenThesisConflict(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("error executing query: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrThesisNotFound
	}

	return nil
}

// StudentHasOpenThesis reports whether the student has a non-terminal thesis
func (r *thesisRepository) StudentHasOpenThesis(ctx context.Context, q Querier, studentID int64) (bool, error) {
	var exists bool
	err := r.querier(q).QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM theses WHERE student_id = $1 AND state NOT IN ($2, $3))",
		studentID, models.StateCompleted, models.StateCancelled,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error executing query: %w", err)
	}
	return exists, nil
}

// TopicHasOpenThesis reports whether the topic has a non-terminal thesis
func (r *thesisRepository) TopicHasOpenThesis(ctx context.Context, q Querier, topicID int64) (bool, error) {
	var exists bool
	err := r.querier(q).QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM theses WHERE topic_id = $1 AND state NOT IN ($2, $3))",
		topicID, models.StateCompleted, models.StateCancelled,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error executing query: %w", err)
	}
	return exists, nil
}

// Stats aggregates thesis counts, optionally scoped to one supervisor
func (r *thesisRepository) Stats(ctx context.Context, supervisorID *int64) (*ThesisStats, error) {
	query := squirrel.Select("state", "COUNT(*)").
		From("theses").
		GroupBy("state").
		PlaceholderFormat(squirrel.Dollar)
	if supervisorID != nil {
		query = query.Where("supervisor_id = ?", *supervisorID)
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

	stats := &ThesisStats{ByState: make(map[string]int64)}
	for rows.Next() {
		var state string
		var count int64
		if err := rows.Scan(&state, &count); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		stats.ByState[state] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	avgQuery := squirrel.Select(
		"AVG(EXTRACT(EPOCH FROM (finalized_at - started_at)) / 86400.0)",
		"COUNT(*) FILTER (WHERE finalized_at > NOW() - INTERVAL '12 months')",
	).
		From("theses").
		Where("state = ?", models.StateCompleted).
		Where("started_at IS NOT NULL").
		Where("finalized_at IS NOT NULL").
		PlaceholderFormat(squirrel.Dollar)
	if supervisorID != nil {
		avgQuery = avgQuery.Where("supervisor_id = ?", *supervisorID)
	}

	sql, args, err = avgQuery.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	err = r.db.QueryRow(ctx, sql, args...).Scan(&stats.AvgDaysToCompletion, &stats.CompletedLast12Month)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}

	return stats, nil
}

// ExportRecords retrieves every thesis with relations and average grade
func (r *thesisRepository) ExportRecords(ctx context.Context) ([]ThesisExportRecord, error) {
	query := thesisSelect().
		Column("(SELECT AVG(g.grade_numeric) FROM grades g WHERE g.thesis_id = th.id)").
		OrderBy("th.id ASC")

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var records []ThesisExportRecord
	for rows.Next() {
		var th models.Thesis
		var topic models.Topic
		var student, supervisor models.User
		var avg *float64
		err := rows.Scan(
			&th.ID, &th.TopicID, &th.StudentID, &th.SupervisorID, &th.State,
			&th.AssignedAt, &th.StartedAt, &th.FinalizedAt, &th.CancellationReason, &th.APNumber, &th.CreatedAt,
			&topic.Title, &topic.Summary, &topic.DescriptionURL, &topic.CreatorID, &topic.CreatedAt,
			&student.Role, &student.AcademicID, &student.FullName, &student.Email,
			&supervisor.Role, &supervisor.AcademicID, &supervisor.FullName, &supervisor.Email,
			&avg,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		topic.ID = th.TopicID
		student.ID = th.StudentID
		supervisor.ID = th.SupervisorID
		th.Topic = &topic
		th.Student = &student
		th.Supervisor = &supervisor
		records = append(records, ThesisExportRecord{Thesis: th, AverageGrade: avg})
	}

	return records, rows.Err()
}

// SupervisorLoads aggregates thesis counts per supervisor and state
func (r *thesisRepository) SupervisorLoads(ctx context.Context) ([]SupervisorLoadRecord, error) {
	query := squirrel.Select("u.id", "u.full_name", "u.email", "th.state", "COUNT(*)").
		From("theses th").
		Join("users u ON u.id = th.supervisor_id").
		GroupBy("u.id", "u.full_name", "u.email", "th.state").
		OrderBy("u.full_name ASC").
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

	var loads []SupervisorLoadRecord
	index := make(map[int64]int)

	for rows.Next() {
		var u models.User
		var state string
		var count int64
		if err := rows.Scan(&u.ID, &u.FullName, &u.Email, &state, &count); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		u.Role = models.RoleInstructor

		i, ok := index[u.ID]
		if !ok {
			loads = append(loads, SupervisorLoadRecord{Supervisor: u, ByState: make(map[string]int64)})
			i = len(loads) - 1
			index[u.ID] = i
		}
		loads[i].ByState[state] += count
		loads[i].Total += count
	}

	return loads, rows.Err()
}

// Count returns the total number of theses
func (r *thesisRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM theses").Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("error executing query: %w", err)
	}
	return total, nil
}

// ListPendingGrading retrieves theses under review where the instructor has
// an accepted committee seat and no grade yet
func (r *thesisRepository) ListPendingGrading(ctx context.Context, instructorID int64) ([]models.Thesis, error) {
	query := thesisSelect().
		Where("th.state = ?", models.StateUnderReview).
		Where("EXISTS (SELECT 1 FROM committee_members cm WHERE cm.thesis_id = th.id AND cm.instructor_id = ? AND cm.accepted_at IS NOT NULL)", instructorID).
		Where("NOT EXISTS (SELECT 1 FROM grades g WHERE g.thesis_id = th.id AND g.grader_id = ?)", instructorID).
		OrderBy("th.created_at ASC")

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var theses []models.Thesis
	for rows.Next() {
		th, err := scanThesis(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		theses = append(theses, *th)
	}

	return theses, rows.Err()
}
