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

// AttachmentRepository handles database operations for thesis attachments
type AttachmentRepository interface {
	Create(ctx context.Context, att *models.Attachment) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Attachment, error)
	ListByThesis(ctx context.Context, thesisID int64, isDraft *bool) ([]models.Attachment, error)
	SetDraft(ctx context.Context, id int64, isDraft bool) error
	Delete(ctx context.Context, id int64) error
}

type attachmentRepository struct {
	db *pgxpool.Pool
}

// NewAttachmentRepository creates a new AttachmentRepository
func NewAttachmentRepository(db *pgxpool.Pool) AttachmentRepository {
	return &attachmentRepository{db: db}
}

// Create inserts an attachment record and returns its id
func (r *attachmentRepository) Create(ctx context.Context, att *models.Attachment) (int64, error) {
	query := squirrel.Insert("attachments").
		Columns("thesis_id", "uploaded_by", "filename", "file_url", "mime_type", "is_draft").
		Values(att.ThesisID, att.UploadedBy, att.Filename, att.FileURL, att.MimeType, att.IsDraft).
		Suffix("RETURNING id, uploaded_at").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building SQL: %w", err)
	}

	var id int64
	err = r.db.QueryRow(ctx, sql, args...).Scan(&id, &att.UploadedAt)
	if err != nil {
		return 0, fmt.Errorf("error executing query: %w", err)
	}

	return id, nil
}

// GetByID retrieves an attachment with its uploader
func (r *attachmentRepository) GetByID(ctx context.Context, id int64) (*models.Attachment, error) {
	query := squirrel.Select(
		"a.id", "a.thesis_id", "a.uploaded_by", "a.filename", "a.file_url", "a.mime_type", "a.is_draft", "a.uploaded_at",
		"u.role", "u.full_name", "u.email",
	).
		From("attachments a").
		Join("users u ON u.id = a.uploaded_by").
		Where("a.id = ?", id).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	var att models.Attachment
	var u models.User
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&att.ID, &att.ThesisID, &att.UploadedBy, &att.Filename, &att.FileURL, &att.MimeType, &att.IsDraft, &att.UploadedAt,
		&u.Role, &u.FullName, &u.Email,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrAttachmentNotFound
		}
		return nil, fmt.Errorf("error executing query: %w", err)
	}

	u.ID = att.UploadedBy
	att.Uploader = &u
	return &att, nil
}

// ListByThesis retrieves a thesis's attachments, newest first
func (r *attachmentRepository) ListByThesis(ctx context.Context, thesisID int64, isDraft *bool) ([]models.Attachment, error) {
	query := squirrel.Select(
		"a.id", "a.thesis_id", "a.uploaded_by", "a.filename", "a.file_url", "a.mime_type", "a.is_draft", "a.uploaded_at",
		"u.role", "u.full_name", "u.email",
	).
		From("attachments a").
		Join("users u ON u.id = a.uploaded_by").
		Where("a.thesis_id = ?", thesisID).
		OrderBy("a.uploaded_at DESC").
		PlaceholderFormat(squirrel.Dollar)

	if isDraft != nil {
		query = query.Where("a.is_draft = ?", *isDraft)
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

	var attachments []models.Attachment
	for rows.Next() {
		var att models.Attachment
		var u models.User
		err := rows.Scan(
			&att.ID, &att.ThesisID, &att.UploadedBy, &att.Filename, &att.FileURL, &att.MimeType, &att.IsDraft, &att.UploadedAt,
			&u.Role, &u.FullName, &u.Email,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		u.ID = att.UploadedBy
		att.Uploader = &u
		attachments = append(attachments, att)
	}

	return attachments, rows.Err()
}

// SetDraft toggles the draft flag of an attachment
func (r *attachmentRepository) SetDraft(ctx context.Context, id int64, isDraft bool) error {
	query := squirrel.Update("attachments").
		Set("is_draft", isDraft).
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
		return apperrors.ErrAttachmentNotFound
	}

	return nil
}

// Delete removes an attachment record
func (r *attachmentRepository) Delete(ctx context.Context, id int64) error {
	query := squirrel.Delete("attachments").
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
		return apperrors.ErrAttachmentNotFound
	}

	return nil
}
