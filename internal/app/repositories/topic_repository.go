package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkontaxis/thesisdesk/internal/app/models"
	"github.com/pkontaxis/thesisdesk/internal/pkg/apperrors"
)

// TopicFilter carries optional topic listing filters
type TopicFilter struct {
	// AvailableOnly keeps topics with no non-cancelled thesis
	AvailableOnly bool
	// CreatorID keeps topics proposed by one instructor
	CreatorID *int64
	// Search matches title or summary, case-insensitive
	Search *string
}

// TopicRepository handles database operations for thesis topics
type TopicRepository interface {
	Create(ctx context.Context, topic *models.Topic) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Topic, error)
	List(ctx context.Context, filter TopicFilter, page, pageSize int) ([]models.Topic, int64, error)
	Update(ctx context.Context, topic *models.Topic) error
	SetDescriptionURL(ctx context.Context, id int64, url *string) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}

type topicRepository struct {
	db *pgxpool.Pool
}

// NewTopicRepository creates a new TopicRepository
func NewTopicRepository(db *pgxpool.Pool) TopicRepository {
	return &topicRepository{db: db}
}

// Create inserts a new topic and returns its id
func (r *topicRepository) Create(ctx context.Context, topic *models.Topic) (int64, error) {
	query := squirrel.Insert("topics").
		Columns("title", "summary", "description_url", "creator_id").
		Values(topic.Title, topic.Summary, topic.DescriptionURL, topic.CreatorID).
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

// GetByID retrieves a topic with its creator and assignment count
func (r *topicRepository) GetByID(ctx context.Context, id int64) (*models.Topic, error) {
	query := squirrel.Select(
		"t.id", "t.title", "t.summary", "t.description_url", "t.creator_id", "t.created_at",
		"u.id", "u.role", "u.academic_id", "u.full_name", "u.email", "u.password_hash", "u.phone", "u.address", "u.created_at",
		"(SELECT COUNT(*) FROM theses th WHERE th.topic_id = t.id AND th.state <> 'CANCELLED')",
	).
		From("topics t").
		Join("users u ON u.id = t.creator_id").
		Where("t.id = ?", id).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	var topic models.Topic
	var creator models.User
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&topic.ID, &topic.Title, &topic.Summary, &topic.DescriptionURL, &topic.CreatorID, &topic.CreatedAt,
		&creator.ID, &creator.Role, &creator.AcademicID, &creator.FullName, &creator.Email, &creator.PasswordHash, &creator.Phone, &creator.Address, &creator.CreatedAt,
		&topic.AssignmentCount,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrTopicNotFound
		}
		return nil, fmt.Errorf("error executing query: %w", err)
	}

	topic.Creator = &creator
	return &topic, nil
}

// List retrieves topics with filtering and pagination, newest first
func (r *topicRepository) List(ctx context.Context, filter TopicFilter, page, pageSize int) ([]models.Topic, int64, error) {
	query := squirrel.Select(
		"t.id", "t.title", "t.summary", "t.description_url", "t.creator_id", "t.created_at",
		"u.full_name", "u.email", "u.role",
		"(SELECT COUNT(*) FROM theses th WHERE th.topic_id = t.id AND th.state <> 'CANCELLED')",
	).
		From("topics t").
		Join("users u ON u.id = t.creator_id").
		OrderBy("t.created_at DESC").
		PlaceholderFormat(squirrel.Dollar)

	if filter.AvailableOnly {
		query = query.Where("NOT EXISTS (SELECT 1 FROM theses th WHERE th.topic_id = t.id AND th.state <> 'CANCELLED')")
	}
	if filter.CreatorID != nil {
		query = query.Where("t.creator_id = ?", *filter.CreatorID)
	}
	if filter.Search != nil {
		pattern := "%" + *filter.Search + "%"
		query = query.Where("(t.title ILIKE ? OR t.summary ILIKE ?)", pattern, pattern)
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

	var topics []models.Topic
	var total int64

	for rows.Next() {
		var topic models.Topic
		var creator models.User
		err := rows.Scan(
			&topic.ID, &topic.Title, &topic.Summary, &topic.DescriptionURL, &topic.CreatorID, &topic.CreatedAt,
			&creator.FullName, &creator.Email, &creator.Role,
			&topic.AssignmentCount,
			&total,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning row: %w", err)
		}
		creator.ID = topic.CreatorID
		topic.Creator = &creator
		topics = append(topics, topic)
	}

	return topics, total, rows.Err()
}

// Update rewrites the title and summary of a topic
func (r *topicRepository) Update(ctx context.Context, topic *models.Topic) error {
	query := squirrel.Update("topics").
		Set("title", topic.Title).
		Set("summary", topic.Summary).
		Where("id = ?", topic.ID).
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
		return apperrors.ErrTopicNotFound
	}

	return nil
}

// SetDescriptionURL stores or clears the topic's description PDF location
func (r *topicRepository) SetDescriptionURL(ctx context.Context, id int64, url *string) error {
	query := squirrel.Update("topics").
		Set("description_url", url).
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
		return apperrors.ErrTopicNotFound
	}

	return nil
}

// Delete removes a topic
func (r *topicRepository) Delete(ctx context.Context, id int64) error {
	query := squirrel.Delete("topics").
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
		return apperrors.ErrTopicNotFound
	}

	return nil
}

// Count returns the total number of topics
func (r *topicRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM topics").Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("error executing query: %w", err)
	}
	return total, nil
}
