package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pkontaxis/thesisdesk/internal/app/models"
	"github.com/pkontaxis/thesisdesk/internal/app/models/dto"
	"github.com/pkontaxis/thesisdesk/internal/app/repositories"
	"github.com/pkontaxis/thesisdesk/internal/pkg/apperrors"
)

type topicFixture struct {
	svc     TopicService
	topics  *mockTopicRepo
	theses  *mockThesisRepo
	storage *mockBlobStore

	creator   *models.User
	secretary *models.User
}

func setupTopic(t *testing.T) *topicFixture {
	t.Helper()

	f := &topicFixture{
		topics:  newMockTopicRepo(),
		theses:  newMockThesisRepo(),
		storage: &mockBlobStore{},
	}
	f.svc = NewTopicService(f.topics, f.theses, f.storage)

	f.creator = &models.User{ID: 2, Role: models.RoleInstructor, FullName: "Nikos Ioannou"}
	f.secretary = &models.User{ID: 9, Role: models.RoleSecretary, FullName: "Department Secretary"}
	return f
}

func (f *topicFixture) seedTopic() *models.Topic {
	return f.topics.add(models.Topic{
		Title:     "Stream processing on the edge",
		Summary:   "A study of windowed aggregation on constrained devices",
		CreatorID: f.creator.ID,
	})
}

func TestTopicService_Create(t *testing.T) {
	ctx := context.Background()
	f := setupTopic(t)

	resp, err := f.svc.Create(ctx, f.creator, &dto.CreateTopicRequest{
		Title:   "  Stream processing on the edge  ",
		Summary: "A study of windowed aggregation on constrained devices",
	}, nil)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if resp.Title != "Stream processing on the edge" {
		t.Errorf("title = %q, want trimmed title", resp.Title)
	}
	stored, err := f.topics.GetByID(ctx, resp.ID)
	if err != nil {
		t.Fatalf("created topic not stored: %v", err)
	}
	if stored.CreatorID != f.creator.ID {
		t.Errorf("creatorId = %d, want %d", stored.CreatorID, f.creator.ID)
	}
}

func TestTopicService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("creator edits", func(t *testing.T) {
		f := setupTopic(t)
		topic := f.seedTopic()
		title := "Windowed aggregation revisited"

		resp, err := f.svc.Update(ctx, f.creator, topic.ID, &dto.UpdateTopicRequest{Title: &title})
		if err != nil {
			t.Fatalf("Update returned error: %v", err)
		}
		if resp.Title != title {
			t.Errorf("title = %q, want %q", resp.Title, title)
		}
	})

	t.Run("secretary edits any topic", func(t *testing.T) {
		f := setupTopic(t)
		topic := f.seedTopic()
		summary := "A broader survey of aggregation semantics in streams"

		if _, err := f.svc.Update(ctx, f.secretary, topic.ID, &dto.UpdateTopicRequest{Summary: &summary}); err != nil {
			t.Fatalf("Update returned error: %v", err)
		}
	})

	t.Run("other instructors are denied", func(t *testing.T) {
		f := setupTopic(t)
		topic := f.seedTopic()
		other := &models.User{ID: 3, Role: models.RoleInstructor, FullName: "Eleni"}
		title := "Hijacked title here"

		_, err := f.svc.Update(ctx, other, topic.ID, &dto.UpdateTopicRequest{Title: &title})
		if !errors.Is(err, apperrors.ErrPermissionDenied) {
			t.Errorf("Update error = %v, want ErrPermissionDenied", err)
		}
	})

	t.Run("unknown topic", func(t *testing.T) {
		f := setupTopic(t)
		title := "Anything"

		_, err := f.svc.Update(ctx, f.secretary, 999, &dto.UpdateTopicRequest{Title: &title})
		if !errors.Is(err, apperrors.ErrTopicNotFound) {
			t.Errorf("Update error = %v, want ErrTopicNotFound", err)
		}
	})
}

func TestTopicService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("creator deletes an unassigned topic", func(t *testing.T) {
		f := setupTopic(t)
		topic := f.seedTopic()

		if err := f.svc.Delete(ctx, f.creator, topic.ID); err != nil {
			t.Fatalf("Delete returned error: %v", err)
		}
		if _, err := f.topics.GetByID(ctx, topic.ID); !errors.Is(err, apperrors.ErrTopicNotFound) {
			t.Error("topic still present after delete")
		}
	})

	t.Run("open thesis protects the topic", func(t *testing.T) {
		f := setupTopic(t)
		topic := f.seedTopic()
		f.theses.add(models.Thesis{TopicID: topic.ID, StudentID: 1, SupervisorID: f.creator.ID, State: models.StateActive, AssignedAt: time.Now()})

		err := f.svc.Delete(ctx, f.creator, topic.ID)
		if !errors.Is(err, apperrors.ErrTopicHasActiveTheses) {
			t.Errorf("Delete error = %v, want ErrTopicHasActiveTheses", err)
		}
	})

	t.Run("terminal theses do not protect the topic", func(t *testing.T) {
		f := setupTopic(t)
		topic := f.seedTopic()
		f.theses.add(models.Thesis{TopicID: topic.ID, StudentID: 1, SupervisorID: f.creator.ID, State: models.StateCancelled, AssignedAt: time.Now()})

		if err := f.svc.Delete(ctx, f.creator, topic.ID); err != nil {
			t.Fatalf("Delete returned error: %v", err)
		}
	})

	t.Run("stored description blob is removed with the topic", func(t *testing.T) {
		f := setupTopic(t)
		topic := f.seedTopic()
		url := "uploads/topics/description.pdf"
		if err := f.topics.SetDescriptionURL(ctx, topic.ID, &url); err != nil {
			t.Fatalf("seeding description: %v", err)
		}

		if err := f.svc.Delete(ctx, f.creator, topic.ID); err != nil {
			t.Fatalf("Delete returned error: %v", err)
		}
		if len(f.storage.deleted) != 1 || f.storage.deleted[0] != url {
			t.Errorf("deleted blobs = %v, want [%s]", f.storage.deleted, url)
		}
	})

	t.Run("other instructors are denied", func(t *testing.T) {
		f := setupTopic(t)
		topic := f.seedTopic()
		other := &models.User{ID: 3, Role: models.RoleInstructor, FullName: "Eleni"}

		if err := f.svc.Delete(ctx, other, topic.ID); !errors.Is(err, apperrors.ErrPermissionDenied) {
			t.Errorf("Delete error = %v, want ErrPermissionDenied", err)
		}
	})
}

func TestTopicService_Get(t *testing.T) {
	ctx := context.Background()
	f := setupTopic(t)
	topic := f.seedTopic()
	f.theses.add(models.Thesis{TopicID: topic.ID, StudentID: 1, SupervisorID: f.creator.ID, State: models.StateActive, AssignedAt: time.Now()})
	f.theses.add(models.Thesis{TopicID: topic.ID, StudentID: 4, SupervisorID: f.creator.ID, State: models.StateCancelled, AssignedAt: time.Now()})

	detail, err := f.svc.Get(ctx, topic.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if detail.Title != topic.Title {
		t.Errorf("title = %q, want %q", detail.Title, topic.Title)
	}
	if len(detail.Theses) != 1 {
		t.Errorf("got %d theses, want 1 (cancelled assignments are hidden)", len(detail.Theses))
	}
}

func TestTopicService_List(t *testing.T) {
	ctx := context.Background()
	f := setupTopic(t)
	f.seedTopic()
	f.topics.add(models.Topic{Title: "A second topic", Summary: "Long enough summary here", CreatorID: 3})

	t.Run("all topics", func(t *testing.T) {
		resp, err := f.svc.List(ctx, repositories.TopicFilter{}, 1, 20)
		if err != nil {
			t.Fatalf("List returned error: %v", err)
		}
		if len(resp.Topics) != 2 {
			t.Fatalf("got %d topics, want 2", len(resp.Topics))
		}
	})

	t.Run("creator filter", func(t *testing.T) {
		resp, err := f.svc.List(ctx, repositories.TopicFilter{CreatorID: &f.creator.ID}, 1, 20)
		if err != nil {
			t.Fatalf("List returned error: %v", err)
		}
		if len(resp.Topics) != 1 {
			t.Fatalf("got %d topics, want 1", len(resp.Topics))
		}
	})
}
