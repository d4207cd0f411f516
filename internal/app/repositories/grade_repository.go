package repositories

import (
	"context"
	"fmt"
	"math"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkontaxis/thesisdesk/internal/app/models"
	"github.com/pkontaxis/thesisdesk/internal/pkg/apperrors"
	"github.com/pkontaxis/thesisdesk/internal/pkg/dberrors"
)

// DistributionBucket counts grades in one integer interval
type DistributionBucket struct {
	Bucket string
	Count  int64
}

// GraderActivityRecord summarizes one grader's output
type GraderActivityRecord struct {
	Grader  models.User
	Count   int64
	Average float64
}

// GradeRepository handles database operations for thesis grades
type GradeRepository interface {
	Create(ctx context.Context, grade *models.Grade) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Grade, error)
	Exists(ctx context.Context, thesisID, graderID int64) (bool, error)
	ListByThesis(ctx context.Context, thesisID int64) ([]models.Grade, error)
	StatsByThesis(ctx context.Context, thesisID int64) (*models.GradeStats, error)
	ListByGrader(ctx context.Context, graderID int64, limit int) ([]models.Grade, error)
	Update(ctx context.Context, grade *models.Grade) error
	Delete(ctx context.Context, id int64) error
	GlobalStats(ctx context.Context) (*models.GradeStats, error)
	Distribution(ctx context.Context) ([]DistributionBucket, error)
	TopGraders(ctx context.Context, limit int) ([]GraderActivityRecord, error)
	Recent(ctx context.Context, limit int) ([]models.Grade, error)
}

type gradeRepository struct {
	db *pgxpool.Pool
}

// NewGradeRepository creates a new GradeRepository
func NewGradeRepository(db *pgxpool.Pool) GradeRepository {
	return &gradeRepository{db: db}
}

// Create inserts a grade and returns its id
func (r *gradeRepository) Create(ctx context.Context, grade *models.Grade) (int64, error) {
	query := squirrel.Insert("grades").
		Columns("thesis_id", "grader_id", "grade_numeric", "comments").
		Values(grade.ThesisID, grade.GraderID, grade.GradeNumeric, grade.Comments).
		Suffix("RETURNING id, created_at").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building SQL: %w", err)
	}

	var id int64
	err = r.db.QueryRow(ctx, sql, args...).Scan(&id, &grade.CreatedAt)
	if err != nil {
		if dberrors.IsUniqueViolation(err) {
			return 0, apperrors.ErrDuplicateGrade
		}
		return 0, fmt.Errorf("error executing query: %w", err)
	}

	return id, nil
}

// GetByID retrieves a grade with its grader
func (r *gradeRepository) GetByID(ctx context.Context, id int64) (*models.Grade, error) {
	query := squirrel.Select(
		"g.id", "g.thesis_id", "g.grader_id", "g.grade_numeric", "g.comments", "g.created_at",
		"u.role", "u.full_name", "u.email",
	).
		From("grades g").
		Join("users u ON u.id = g.grader_id").
		Where("g.id = ?", id).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	var g models.Grade
	var u models.User
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&g.ID, &g.ThesisID, &g.GraderID, &g.GradeNumeric, &g.Comments, &g.CreatedAt,
		&u.Role, &u.FullName, &u.Email,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrGradeNotFound
		}
		return nil, fmt.Errorf("error executing query: %w", err)
	}

	u.ID = g.GraderID
	g.Grader = &u
	return &g, nil
}

// Exists reports whether the grader already graded the thesis
func (r *gradeRepository) Exists(ctx context.Context, thesisID, graderID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM grades WHERE thesis_id = $1 AND grader_id = $2)",
		thesisID, graderID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error executing query: %w", err)
	}
	return exists, nil
}

// ListByThesis retrieves the grades of a thesis, oldest first
func (r *gradeRepository) ListByThesis(ctx context.Context, thesisID int64) ([]models.Grade, error) {
	query := squirrel.Select(
		"g.id", "g.thesis_id", "g.grader_id", "g.grade_numeric", "g.comments", "g.created_at",
		"u.role", "u.full_name", "u.email",
	).
		From("grades g").
		Join("users u ON u.id = g.grader_id").
		Where("g.thesis_id = ?", thesisID).
		OrderBy("g.created_at ASC").
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

	var grades []models.Grade
	for rows.Next() {
		var g models.Grade
		var u models.User
		err := rows.Scan(
			&g.ID, &g.ThesisID, &g.GraderID, &g.GradeNumeric, &g.Comments, &g.CreatedAt,
			&u.Role, &u.FullName, &u.Email,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		u.ID = g.GraderID
		g.Grader = &u
		grades = append(grades, g)
	}

	return grades, rows.Err()
}

// StatsByThesis aggregates the grades of one thesis
func (r *gradeRepository) StatsByThesis(ctx context.Context, thesisID int64) (*models.GradeStats, error) {
	var stats models.GradeStats
	err := r.db.QueryRow(ctx,
		"SELECT COUNT(*), AVG(grade_numeric), MIN(grade_numeric), MAX(grade_numeric) FROM grades WHERE thesis_id = $1",
		thesisID,
	).Scan(&stats.Count, &stats.Average, &stats.Min, &stats.Max)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	return &stats, nil
}

// ListByGrader retrieves an instructor's submitted grades, newest first
func (r *gradeRepository) ListByGrader(ctx context.Context, graderID int64, limit int) ([]models.Grade, error) {
	query := squirrel.Select(
		"g.id", "g.thesis_id", "g.grader_id", "g.grade_numeric", "g.comments", "g.created_at",
		"t.title", "s.full_name",
	).
		From("grades g").
		Join("theses th ON th.id = g.thesis_id").
		Join("topics t ON t.id = th.topic_id").
		Join("users s ON s.id = th.student_id").
		Where("g.grader_id = ?", graderID).
		OrderBy("g.created_at DESC").
		PlaceholderFormat(squirrel.Dollar)

	if limit > 0 {
		query = query.Limit(uint64(limit))
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

	var grades []models.Grade
	for rows.Next() {
		var g models.Grade
		var topic models.Topic
		var student models.User
		err := rows.Scan(
			&g.ID, &g.ThesisID, &g.GraderID, &g.GradeNumeric, &g.Comments, &g.CreatedAt,
			&topic.Title, &student.FullName,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		g.Thesis = &models.Thesis{ID: g.ThesisID, Topic: &topic, Student: &student}
		grades = append(grades, g)
	}

	return grades, rows.Err()
}

// Update rewrites the numeric grade and comments
func (r *gradeRepository) Update(ctx context.Context, grade *models.Grade) error {
	query := squirrel.Update("grades").
		Set("grade_numeric", grade.GradeNumeric).
		Set("comments", grade.Comments).
		Where("id = ?", grade.ID).
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
		return apperrors.ErrGradeNotFound
	}

	return nil
}

// Delete removes a grade
func (r *gradeRepository) Delete(ctx context.Context, id int64) error {
	query := squirrel.Delete("grades").
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
		return apperrors.ErrGradeNotFound
	}

	return nil
}

// GlobalStats aggregates every grade in the system
func (r *gradeRepository) GlobalStats(ctx context.Context) (*models.GradeStats, error) {
	var stats models.GradeStats
	err := r.db.QueryRow(ctx,
		"SELECT COUNT(*), AVG(grade_numeric), MIN(grade_numeric), MAX(grade_numeric) FROM grades",
	).Scan(&stats.Count, &stats.Average, &stats.Min, &stats.Max)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	return &stats, nil
}

// Distribution buckets grades into unit intervals 0-1 .. 9-10
func (r *gradeRepository) Distribution(ctx context.Context) ([]DistributionBucket, error) {
	rows, err := r.db.Query(ctx,
		"SELECT LEAST(FLOOR(grade_numeric), 9)::int AS bucket, COUNT(*) FROM grades GROUP BY bucket ORDER BY bucket",
	)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	counts := make(map[int]int64)
	for rows.Next() {
		var bucket int
		var count int64
		if err := rows.Scan(&bucket, &count); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		counts[bucket] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	buckets := make([]DistributionBucket, 0, 10)
	for i := 0; i < 10; i++ {
		buckets = append(buckets, DistributionBucket{
			Bucket: fmt.Sprintf("%d-%d", i, i+1),
			Count:  counts[i],
		})
	}

	return buckets, nil
}

// TopGraders lists the most active graders
func (r *gradeRepository) TopGraders(ctx context.Context, limit int) ([]GraderActivityRecord, error) {
	query := squirrel.Select("u.id", "u.full_name", "u.email", "COUNT(*)", "AVG(g.grade_numeric)").
		From("grades g").
		Join("users u ON u.id = g.grader_id").
		GroupBy("u.id", "u.full_name", "u.email").
		OrderBy("COUNT(*) DESC").
		Limit(uint64(limit)).
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

	var records []GraderActivityRecord
	for rows.Next() {
		var rec GraderActivityRecord
		if err := rows.Scan(&rec.Grader.ID, &rec.Grader.FullName, &rec.Grader.Email, &rec.Count, &rec.Average); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		rec.Grader.Role = models.RoleInstructor
		rec.Average = math.Round(rec.Average*100) / 100
		records = append(records, rec)
	}

	return records, rows.Err()
}

// Recent retrieves the latest grades across all theses
func (r *gradeRepository) Recent(ctx context.Context, limit int) ([]models.Grade, error) {
	query := squirrel.Select(
		"g.id", "g.thesis_id", "g.grader_id", "g.grade_numeric", "g.comments", "g.created_at",
		"u.full_name", "t.title",
	).
		From("grades g").
		Join("users u ON u.id = g.grader_id").
		Join("theses th ON th.id = g.thesis_id").
		Join("topics t ON t.id = th.topic_id").
		OrderBy("g.created_at DESC").
		Limit(uint64(limit)).
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

	var grades []models.Grade
	for rows.Next() {
		var g models.Grade
		var grader models.User
		var topic models.Topic
		err := rows.Scan(
			&g.ID, &g.ThesisID, &g.GraderID, &g.GradeNumeric, &g.Comments, &g.CreatedAt,
			&grader.FullName, &topic.Title,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		grader.ID = g.GraderID
		grader.Role = models.RoleInstructor
		g.Grader = &grader
		g.Thesis = &models.Thesis{ID: g.ThesisID, Topic: &topic}
		grades = append(grades, g)
	}

	return grades, rows.Err()
}
