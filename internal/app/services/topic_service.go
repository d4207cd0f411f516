package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/pkontaxis/thesisdesk/internal/app/models"
	"github.com/pkontaxis/thesisdesk/internal/app/models/dto"
	"github.com/pkontaxis/thesisdesk/internal/app/repositories"
	"github.com/pkontaxis/thesisdesk/internal/pkg/apperrors"
	"github.com/pkontaxis/thesisdesk/internal/pkg/filestorage"
	"github.com/pkontaxis/thesisdesk/internal/pkg/helpers"
	"github.com/pkontaxis/thesisdesk/internal/pkg/logger"
)

// TopicService defines the interface for topic registry operations
type TopicService interface {
	Create(ctx context.Context, actor *models.User, req *dto.CreateTopicRequest, description *multipart.FileHeader) (*dto.TopicResponse, error)
	Get(ctx context.Context, id int64) (*dto.TopicDetailResponse, error)
	List(ctx context.Context, filter repositories.TopicFilter, page, pageSize int) (*dto.TopicListResponse, error)
	Update(ctx context.Context, actor *models.User, id int64, req *dto.UpdateTopicRequest) (*dto.TopicResponse, error)
	UploadDescription(ctx context.Context, actor *models.User, id int64, file *multipart.FileHeader) (*dto.TopicResponse, error)
	Delete(ctx context.Context, actor *models.User, id int64) error
}

// topicServiceImpl implements TopicService
type topicServiceImpl struct {
	topicRepo  repositories.TopicRepository
	thesisRepo repositories.ThesisRepository
	storage    filestorage.BlobStore
}

// NewTopicService creates a new TopicService
func NewTopicService(topicRepo repositories.TopicRepository, thesisRepo repositories.ThesisRepository, storage filestorage.BlobStore) TopicService {
	return &topicServiceImpl{
		topicRepo:  topicRepo,
		thesisRepo: thesisRepo,
		storage:    storage,
	}
}

// canEditTopic: the creator or the secretary may change a topic
func canEditTopic(actor *models.User, topic *models.Topic) bool {
	if actor.Role == models.RoleSecretary {
		return true
	}
	return topic.CreatorID == actor.ID
}

// Create registers a new topic proposed by an instructor
func (s *topicServiceImpl) Create(ctx context.Context, actor *models.User, req *dto.CreateTopicRequest, description *multipart.FileHeader) (*dto.TopicResponse, error) {
	topic := &models.Topic{
		Title:     strings.TrimSpace(req.Title),
		Summary:   strings.TrimSpace(req.Summary),
		CreatorID: actor.ID,
	}

	if description != nil {
		url, err := s.storage.SaveFileWithPath(description, "topics")
		if err != nil {
			return nil, fmt.Errorf("error storing topic description: %w", err)
		}
		topic.DescriptionURL = &url
	}

	id, err := s.topicRepo.Create(ctx, topic)
	if err != nil {
		// The DB row failed; don't leave the blob behind
		if topic.DescriptionURL != nil {
			_ = s.storage.DeleteFile(*topic.DescriptionURL)
		}
		return nil, err
	}

	logger.Info().Int64("topicID", id).Int64("creatorID", actor.ID).Msg("Topic created")

	created, err := s.topicRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := dto.FromTopic(created)
	return &resp, nil
}

// Get retrieves a topic with its non-cancelled theses
func (s *topicServiceImpl) Get(ctx context.Context, id int64) (*dto.TopicDetailResponse, error) {
	topic, err := s.topicRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	theses, err := s.thesisRepo.ListByTopic(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &dto.TopicDetailResponse{
		TopicResponse: dto.FromTopic(topic),
		Theses:        make([]dto.ThesisResponse, 0, len(theses)),
	}
	for i := range theses {
		detail.Theses = append(detail.Theses, dto.FromThesis(&theses[i]))
	}

	return detail, nil
}

// List retrieves topics with filtering and pagination
func (s *topicServiceImpl) List(ctx context.Context, filter repositories.TopicFilter, page, pageSize int) (*dto.TopicListResponse, error) {
	topics, total, err := s.topicRepo.List(ctx, filter, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("error listing topics: %w", err)
	}

	resp := &dto.TopicListResponse{
		Topics:     make([]dto.TopicResponse, 0, len(topics)),
		Pagination: helpers.NewPaginationInfo(total, page, pageSize),
	}
	for i := range topics {
		resp.Topics = append(resp.Topics, dto.FromTopic(&topics[i]))
	}

	return resp, nil
}

// Update rewrites the title and summary of a topic
func (s *topicServiceImpl) Update(ctx context.Context, actor *models.User, id int64, req *dto.UpdateTopicRequest) (*dto.TopicResponse, error) {
	topic, err := s.topicRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !canEditTopic(actor, topic) {
		return nil, apperrors.NewForbiddenError("only the topic creator or the secretary can edit a topic")
	}

	if req.Title != nil {
		topic.Title = strings.TrimSpace(*req.Title)
	}
	if req.Summary != nil {
		topic.Summary = strings.TrimSpace(*req.Summary)
	}

	if err := s.topicRepo.Update(ctx, topic); err != nil {
		return nil, err
	}

	updated, err := s.topicRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := dto.FromTopic(updated)
	return &resp, nil
}

// UploadDescription replaces the topic's description PDF
func (s *topicServiceImpl) UploadDescription(ctx context.Context, actor *models.User, id int64, file *multipart.FileHeader) (*dto.TopicResponse, error) {
	topic, err := s.topicRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !canEditTopic(actor, topic) {
		return nil, apperrors.NewForbiddenError("only the topic creator or the secretary can edit a topic")
	}

	url, err := s.storage.SaveFileWithPath(file, "topics")
	if err != nil {
		return nil, fmt.Errorf("error storing topic description: %w", err)
	}

	if err := s.topicRepo.SetDescriptionURL(ctx, id, &url); err != nil {
		_ = s.storage.DeleteFile(url)
		return nil, err
	}

	// A replaced description leaves its blob behind otherwise
	if topic.DescriptionURL != nil {
		_ = s.storage.DeleteFile(*topic.DescriptionURL)
	}

	updated, err := s.topicRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := dto.FromTopic(updated)
	return &resp, nil
}

// Delete removes a topic. Topics referenced by a non-terminal thesis are
// protected.
func (s *topicServiceImpl) Delete(ctx context.Context, actor *models.User, id int64) error {
	topic, err := s.topicRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !canEditTopic(actor, topic) {
		return apperrors.NewForbiddenError("only the topic creator or the secretary can delete a topic")
	}

	open, err := s.thesisRepo.TopicHasOpenThesis(ctx, nil, id)
	if err != nil {
		return err
	}
	if open {
		return apperrors.ErrTopicHasActiveTheses
	}

	if err := s.topicRepo.Delete(ctx, id); err != nil {
		return err
	}

	if topic.DescriptionURL != nil {
		_ = s.storage.DeleteFile(*topic.DescriptionURL)
	}

	logger.Info().Int64("topicID", id).Int64("actorID", actor.ID).Msg("Topic deleted")
	return nil
}
