package services

import (
	"context"
	"fmt"
	"mime"
	"mime/multipart"
	"path/filepath"

	"github.com/pkontaxis/thesisdesk/internal/app/auth"
	"github.com/pkontaxis/thesisdesk/internal/app/models"
	"github.com/pkontaxis/thesisdesk/internal/app/models/dto"
	"github.com/pkontaxis/thesisdesk/internal/app/repositories"
	"github.com/pkontaxis/thesisdesk/internal/config"
	"github.com/pkontaxis/thesisdesk/internal/pkg/apperrors"
	"github.com/pkontaxis/thesisdesk/internal/pkg/filestorage"
	"github.com/pkontaxis/thesisdesk/internal/pkg/logger"
)

// allowedMimeTypes lists the content types accepted for thesis uploads
var allowedMimeTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"text/plain":      true,
	"application/zip": true,
	"image/png":       true,
	"image/jpeg":      true,
}

// AttachmentService defines the interface for thesis file management
type AttachmentService interface {
	Upload(ctx context.Context, actor *models.User, thesisID int64, files []*multipart.FileHeader, isDraft bool) (*dto.UploadResult, error)
	List(ctx context.Context, actor *models.User, thesisID int64, isDraft *bool) ([]dto.AttachmentResponse, error)
	Download(ctx context.Context, actor *models.User, id int64) (*models.Attachment, string, error)
	Update(ctx context.Context, actor *models.User, id int64, req *dto.UpdateAttachmentRequest) (*dto.AttachmentResponse, error)
	Delete(ctx context.Context, actor *models.User, id int64) error
}

// attachmentServiceImpl implements AttachmentService
type attachmentServiceImpl struct {
	attachmentRepo repositories.AttachmentRepository
	thesisRepo     repositories.ThesisRepository
	committeeRepo  repositories.CommitteeRepository
	storage        filestorage.BlobStore
	maxFileSize    int64
	maxFiles       int
}

// NewAttachmentService creates a new AttachmentService
func NewAttachmentService(
	attachmentRepo repositories.AttachmentRepository,
	thesisRepo repositories.ThesisRepository,
	committeeRepo repositories.CommitteeRepository,
	storage filestorage.BlobStore,
	cfg *config.Config,
) AttachmentService {
	return &attachmentServiceImpl{
		attachmentRepo: attachmentRepo,
		thesisRepo:     thesisRepo,
		committeeRepo:  committeeRepo,
		storage:        storage,
		maxFileSize:    cfg.MaxFileSizeBytes(),
		maxFiles:       cfg.Storage.MaxFilesPerRequest,
	}
}

func contentType(fh *multipart.FileHeader) string {
	ct := fh.Header.Get("Content-Type")
	if ct == "" {
		ct = mime.TypeByExtension(filepath.Ext(fh.Filename))
	}
	if mediaType, _, err := mime.ParseMediaType(ct); err == nil {
		return mediaType
	}
	return ct
}

// Upload stores a batch of files against a thesis. Files failing validation
// are reported back individually; a storage or database failure removes
// every blob stored for this request.
func (s *attachmentServiceImpl) Upload(ctx context.Context, actor *models.User, thesisID int64, files []*multipart.FileHeader, isDraft bool) (*dto.UploadResult, error) {
	thesis, err := loadThesisWithCommittee(ctx, s.thesisRepo, s.committeeRepo, thesisID)
	if err != nil {
		return nil, err
	}

	if !auth.CanUploadAttachment(actor, thesis) {
		return nil, apperrors.NewForbiddenError("you cannot upload files to this thesis")
	}
	if thesis.State.Terminal() && actor.Role != models.RoleSecretary {
		return nil, apperrors.ErrThesisClosed
	}

	if len(files) == 0 {
		return nil, apperrors.ErrNoFilesUploaded
	}
	if len(files) > s.maxFiles {
		return nil, apperrors.ErrTooManyFiles
	}

	result := &dto.UploadResult{Uploaded: []dto.AttachmentResponse{}}
	var accepted []*multipart.FileHeader
	for _, fh := range files {
		if fh.Size > s.maxFileSize {
			result.Rejected = append(result.Rejected, dto.RejectedFile{Filename: fh.Filename, Reason: "file exceeds the size limit"})
			continue
		}
		if !allowedMimeTypes[contentType(fh)] {
			result.Rejected = append(result.Rejected, dto.RejectedFile{Filename: fh.Filename, Reason: "file type is not allowed"})
			continue
		}
		accepted = append(accepted, fh)
	}

	subPath := fmt.Sprintf("theses/%d", thesisID)
	var storedURLs []string
	var createdIDs []int64

	cleanup := func() {
		for _, url := range storedURLs {
			if err := s.storage.DeleteFile(url); err != nil {
				logger.Warn().Err(err).Str("fileURL", url).Msg("Failed to remove blob during upload rollback")
			}
		}
		for _, id := range createdIDs {
			if err := s.attachmentRepo.Delete(ctx, id); err != nil {
				logger.Warn().Err(err).Int64("attachmentID", id).Msg("Failed to remove attachment row during upload rollback")
			}
		}
	}

	for _, fh := range accepted {
		fileURL, err := s.storage.SaveFileWithPath(fh, subPath)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("error storing file: %w", err)
		}
		storedURLs = append(storedURLs, fileURL)

		att := &models.Attachment{
			ThesisID:   thesisID,
			UploadedBy: actor.ID,
			Filename:   fh.Filename,
			FileURL:    fileURL,
			MimeType:   contentType(fh),
			IsDraft:    isDraft,
		}
		att.ID, err = s.attachmentRepo.Create(ctx, att)
		if err != nil {
			cleanup()
			return nil, err
		}
		createdIDs = append(createdIDs, att.ID)
		att.Uploader = actor

		result.Uploaded = append(result.Uploaded, dto.FromAttachment(att))
	}

	logger.Info().Int64("thesisID", thesisID).Int64("actorID", actor.ID).Int("uploaded", len(result.Uploaded)).Int("rejected", len(result.Rejected)).Msg("Attachments uploaded")

	return result, nil
}

// List retrieves the attachments of a thesis, optionally filtered by the
// draft flag
func (s *attachmentServiceImpl) List(ctx context.Context, actor *models.User, thesisID int64, isDraft *bool) ([]dto.AttachmentResponse, error) {
	thesis, err := loadThesisWithCommittee(ctx, s.thesisRepo, s.committeeRepo, thesisID)
	if err != nil {
		return nil, err
	}
	if !auth.HasThesisAccess(actor, thesis) {
		return nil, apperrors.NewForbiddenError("you don't have access to this thesis")
	}

	attachments, err := s.attachmentRepo.ListByThesis(ctx, thesisID, isDraft)
	if err != nil {
		return nil, err
	}

	resp := make([]dto.AttachmentResponse, 0, len(attachments))
	for i := range attachments {
		resp = append(resp, dto.FromAttachment(&attachments[i]))
	}
	return resp, nil
}

// Download resolves an attachment to its filesystem path
func (s *attachmentServiceImpl) Download(ctx context.Context, actor *models.User, id int64) (*models.Attachment, string, error) {
	att, err := s.attachmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}

	thesis, err := loadThesisWithCommittee(ctx, s.thesisRepo, s.committeeRepo, att.ThesisID)
	if err != nil {
		return nil, "", err
	}
	if !auth.HasThesisAccess(actor, thesis) {
		return nil, "", apperrors.NewForbiddenError("you don't have access to this thesis")
	}

	fullPath := s.storage.GetFullPath(att.FileURL)
	if fullPath == "" {
		return nil, "", apperrors.ErrAttachmentNotFound
	}
	return att, fullPath, nil
}

// Update toggles the draft flag of an attachment
func (s *attachmentServiceImpl) Update(ctx context.Context, actor *models.User, id int64, req *dto.UpdateAttachmentRequest) (*dto.AttachmentResponse, error) {
	att, err := s.attachmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	thesis, err := s.thesisRepo.GetByID(ctx, att.ThesisID)
	if err != nil {
		return nil, err
	}
	if !auth.CanManageAttachment(actor, thesis, att) {
		return nil, apperrors.NewForbiddenError("you cannot modify this attachment")
	}

	if err := s.attachmentRepo.SetDraft(ctx, id, req.IsDraft); err != nil {
		return nil, err
	}
	att.IsDraft = req.IsDraft

	resp := dto.FromAttachment(att)
	return &resp, nil
}

// Delete removes an attachment record and then its blob. A blob removal
// failure is logged only; the metadata is authoritative.
func (s *attachmentServiceImpl) Delete(ctx context.Context, actor *models.User, id int64) error {
	att, err := s.attachmentRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	thesis, err := s.thesisRepo.GetByID(ctx, att.ThesisID)
	if err != nil {
		return err
	}
	if !auth.CanManageAttachment(actor, thesis, att) {
		return apperrors.NewForbiddenError("you cannot delete this attachment")
	}
	if thesis.State == models.StateCompleted && actor.Role != models.RoleSecretary {
		return apperrors.ErrThesisClosed
	}

	if err := s.attachmentRepo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.storage.DeleteFile(att.FileURL); err != nil {
		logger.Warn().Err(err).Int64("attachmentID", id).Str("fileURL", att.FileURL).Msg("Failed to remove attachment blob")
	}

	logger.Info().Int64("attachmentID", id).Int64("actorID", actor.ID).Msg("Attachment deleted")
	return nil
}
