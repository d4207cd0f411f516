package services

import (
	"context"
	"errors"
	"mime/multipart"
	"net/textproto"
	"testing"
	"time"

	"github.com/pkontaxis/thesisdesk/internal/app/models"
	"github.com/pkontaxis/thesisdesk/internal/app/models/dto"
	"github.com/pkontaxis/thesisdesk/internal/config"
	"github.com/pkontaxis/thesisdesk/internal/pkg/apperrors"
)

type attachmentFixture struct {
	svc         AttachmentService
	attachments *mockAttachmentRepo
	theses      *mockThesisRepo
	committees  *mockCommitteeRepo
	storage     *mockBlobStore

	student       *models.User
	supervisor    *models.User
	pendingMember *models.User
	secretary     *models.User
	thesis        *models.Thesis
}

func setupAttachment(t *testing.T, state models.ThesisState) *attachmentFixture {
	t.Helper()

	f := &attachmentFixture{
		attachments: newMockAttachmentRepo(),
		theses:      newMockThesisRepo(),
		committees:  newMockCommitteeRepo(),
		storage:     &mockBlobStore{},
	}
	cfg := &config.Config{}
	cfg.Storage.MaxFileSizeMB = 1
	cfg.Storage.MaxFilesPerRequest = 3
	f.svc = NewAttachmentService(f.attachments, f.theses, f.committees, f.storage, cfg)

	f.student = &models.User{ID: 1, Role: models.RoleStudent, FullName: "Maria Papadaki"}
	f.supervisor = &models.User{ID: 2, Role: models.RoleInstructor, FullName: "Nikos Ioannou"}
	f.pendingMember = &models.User{ID: 3, Role: models.RoleInstructor, FullName: "Eleni Georgiou"}
	f.secretary = &models.User{ID: 9, Role: models.RoleSecretary, FullName: "Department Secretary"}

	now := time.Now()
	f.thesis = f.theses.add(models.Thesis{
		TopicID:      1,
		StudentID:    f.student.ID,
		SupervisorID: f.supervisor.ID,
		State:        state,
		AssignedAt:   now,
	})
	ctx := context.Background()
	if _, err := f.committees.Insert(ctx, nil, &models.CommitteeMember{
		ThesisID:     f.thesis.ID,
		InstructorID: f.supervisor.ID,
		Role:         models.CommitteeSupervisor,
		InvitedAt:    now,
		AcceptedAt:   &now,
	}); err != nil {
		t.Fatalf("seeding supervisor seat: %v", err)
	}
	if _, err := f.committees.Insert(ctx, nil, &models.CommitteeMember{
		ThesisID:     f.thesis.ID,
		InstructorID: f.pendingMember.ID,
		Role:         models.CommitteeMemberRole,
		InvitedAt:    now,
	}); err != nil {
		t.Fatalf("seeding pending seat: %v", err)
	}
	return f
}

// fileHeader fabricates an upload header; the mock blob store never opens it
func fileHeader(name, contentType string, size int64) *multipart.FileHeader {
	fh := &multipart.FileHeader{
		Filename: name,
		Size:     size,
		Header:   textproto.MIMEHeader{},
	}
	if contentType != "" {
		fh.Header.Set("Content-Type", contentType)
	}
	return fh
}

func TestAttachmentService_Upload(t *testing.T) {
	ctx := context.Background()

	t.Run("student uploads a draft", func(t *testing.T) {
		f := setupAttachment(t, models.StateActive)

		result, err := f.svc.Upload(ctx, f.student, f.thesis.ID, []*multipart.FileHeader{
			fileHeader("draft.pdf", "application/pdf", 1024),
		}, true)
		if err != nil {
			t.Fatalf("Upload returned error: %v", err)
		}
		if len(result.Uploaded) != 1 {
			t.Fatalf("got %d uploaded files, want 1", len(result.Uploaded))
		}
		if !result.Uploaded[0].IsDraft {
			t.Error("uploaded file must carry the draft flag")
		}
	})

	t.Run("pending committee seat cannot upload", func(t *testing.T) {
		f := setupAttachment(t, models.StateActive)

		_, err := f.svc.Upload(ctx, f.pendingMember, f.thesis.ID, []*multipart.FileHeader{
			fileHeader("notes.pdf", "application/pdf", 1024),
		}, false)
		if !errors.Is(err, apperrors.ErrPermissionDenied) {
			t.Errorf("Upload error = %v, want ErrPermissionDenied", err)
		}
	})

	t.Run("terminal thesis accepts files from the secretary only", func(t *testing.T) {
		f := setupAttachment(t, models.StateCompleted)

		_, err := f.svc.Upload(ctx, f.student, f.thesis.ID, []*multipart.FileHeader{
			fileHeader("late.pdf", "application/pdf", 1024),
		}, false)
		if !errors.Is(err, apperrors.ErrThesisClosed) {
			t.Errorf("student Upload error = %v, want ErrThesisClosed", err)
		}

		result, err := f.svc.Upload(ctx, f.secretary, f.thesis.ID, []*multipart.FileHeader{
			fileHeader("minutes.pdf", "application/pdf", 1024),
		}, false)
		if err != nil {
			t.Fatalf("secretary Upload returned error: %v", err)
		}
		if len(result.Uploaded) != 1 {
			t.Errorf("got %d uploaded files, want 1", len(result.Uploaded))
		}
	})

	t.Run("empty batch", func(t *testing.T) {
		f := setupAttachment(t, models.StateActive)

		_, err := f.svc.Upload(ctx, f.student, f.thesis.ID, nil, false)
		if !errors.Is(err, apperrors.ErrNoFilesUploaded) {
			t.Errorf("Upload error = %v, want ErrNoFilesUploaded", err)
		}
	})

	t.Run("batch size limit", func(t *testing.T) {
		f := setupAttachment(t, models.StateActive)

		var files []*multipart.FileHeader
		for i := 0; i < 4; i++ {
			files = append(files, fileHeader("part.pdf", "application/pdf", 1024))
		}
		_, err := f.svc.Upload(ctx, f.student, f.thesis.ID, files, false)
		if !errors.Is(err, apperrors.ErrTooManyFiles) {
			t.Errorf("Upload error = %v, want ErrTooManyFiles", err)
		}
	})

	t.Run("oversized and unsupported files are rejected individually", func(t *testing.T) {
		f := setupAttachment(t, models.StateActive)

		result, err := f.svc.Upload(ctx, f.student, f.thesis.ID, []*multipart.FileHeader{
			fileHeader("thesis.pdf", "application/pdf", 1024),
			fileHeader("huge.pdf", "application/pdf", 2*1024*1024),
			fileHeader("script.sh", "application/x-sh", 1024),
		}, false)
		if err != nil {
			t.Fatalf("Upload returned error: %v", err)
		}
		if len(result.Uploaded) != 1 {
			t.Errorf("got %d uploaded files, want 1", len(result.Uploaded))
		}
		if len(result.Rejected) != 2 {
			t.Errorf("got %d rejected files, want 2", len(result.Rejected))
		}
	})

	t.Run("content type from the filename extension", func(t *testing.T) {
		f := setupAttachment(t, models.StateActive)

		result, err := f.svc.Upload(ctx, f.student, f.thesis.ID, []*multipart.FileHeader{
			fileHeader("report.pdf", "", 1024),
		}, false)
		if err != nil {
			t.Fatalf("Upload returned error: %v", err)
		}
		if len(result.Uploaded) != 1 {
			t.Errorf("got %d uploaded files, want 1", len(result.Uploaded))
		}
	})
}

func TestAttachmentService_List(t *testing.T) {
	ctx := context.Background()
	f := setupAttachment(t, models.StateActive)
	if _, err := f.svc.Upload(ctx, f.student, f.thesis.ID, []*multipart.FileHeader{
		fileHeader("draft.pdf", "application/pdf", 1024),
	}, true); err != nil {
		t.Fatalf("seeding upload: %v", err)
	}
	if _, err := f.svc.Upload(ctx, f.supervisor, f.thesis.ID, []*multipart.FileHeader{
		fileHeader("review.pdf", "application/pdf", 1024),
	}, false); err != nil {
		t.Fatalf("seeding upload: %v", err)
	}

	t.Run("pending member may read", func(t *testing.T) {
		attachments, err := f.svc.List(ctx, f.pendingMember, f.thesis.ID, nil)
		if err != nil {
			t.Fatalf("List returned error: %v", err)
		}
		if len(attachments) != 2 {
			t.Fatalf("got %d attachments, want 2", len(attachments))
		}
	})

	t.Run("draft filter", func(t *testing.T) {
		draft := true
		attachments, err := f.svc.List(ctx, f.student, f.thesis.ID, &draft)
		if err != nil {
			t.Fatalf("List returned error: %v", err)
		}
		if len(attachments) != 1 {
			t.Fatalf("got %d draft attachments, want 1", len(attachments))
		}
	})

	t.Run("outsider is denied", func(t *testing.T) {
		outsider := &models.User{ID: 7, Role: models.RoleStudent, FullName: "Outsider"}
		_, err := f.svc.List(ctx, outsider, f.thesis.ID, nil)
		if !errors.Is(err, apperrors.ErrPermissionDenied) {
			t.Errorf("List error = %v, want ErrPermissionDenied", err)
		}
	})
}

func TestAttachmentService_Update(t *testing.T) {
	ctx := context.Background()
	f := setupAttachment(t, models.StateActive)
	result, err := f.svc.Upload(ctx, f.student, f.thesis.ID, []*multipart.FileHeader{
		fileHeader("draft.pdf", "application/pdf", 1024),
	}, true)
	if err != nil {
		t.Fatalf("seeding upload: %v", err)
	}
	attID := result.Uploaded[0].ID

	t.Run("uploader clears the draft flag", func(t *testing.T) {
		resp, err := f.svc.Update(ctx, f.student, attID, &dto.UpdateAttachmentRequest{IsDraft: false})
		if err != nil {
			t.Fatalf("Update returned error: %v", err)
		}
		if resp.IsDraft {
			t.Error("draft flag still set after update")
		}
	})

	t.Run("supervisor manages the student's upload", func(t *testing.T) {
		if _, err := f.svc.Update(ctx, f.supervisor, attID, &dto.UpdateAttachmentRequest{IsDraft: true}); err != nil {
			t.Fatalf("Update returned error: %v", err)
		}
	})

	t.Run("unrelated instructor is denied", func(t *testing.T) {
		_, err := f.svc.Update(ctx, f.pendingMember, attID, &dto.UpdateAttachmentRequest{IsDraft: false})
		if !errors.Is(err, apperrors.ErrPermissionDenied) {
			t.Errorf("Update error = %v, want ErrPermissionDenied", err)
		}
	})
}

func TestAttachmentService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("uploader deletes and the blob goes with it", func(t *testing.T) {
		f := setupAttachment(t, models.StateActive)
		result, err := f.svc.Upload(ctx, f.student, f.thesis.ID, []*multipart.FileHeader{
			fileHeader("draft.pdf", "application/pdf", 1024),
		}, true)
		if err != nil {
			t.Fatalf("seeding upload: %v", err)
		}
		attID := result.Uploaded[0].ID

		if err := f.svc.Delete(ctx, f.student, attID); err != nil {
			t.Fatalf("Delete returned error: %v", err)
		}
		if _, err := f.attachments.GetByID(ctx, attID); !errors.Is(err, apperrors.ErrAttachmentNotFound) {
			t.Error("attachment still present after delete")
		}
		if len(f.storage.deleted) != 1 {
			t.Errorf("deleted blobs = %v, want one entry", f.storage.deleted)
		}
	})

	t.Run("completed thesis locks files against non-secretaries", func(t *testing.T) {
		f := setupAttachment(t, models.StateActive)
		result, err := f.svc.Upload(ctx, f.student, f.thesis.ID, []*multipart.FileHeader{
			fileHeader("final.pdf", "application/pdf", 1024),
		}, false)
		if err != nil {
			t.Fatalf("seeding upload: %v", err)
		}
		stored, _ := f.theses.GetByID(ctx, f.thesis.ID)
		stored.State = models.StateCompleted
		if err := f.theses.UpdateState(ctx, nil, stored); err != nil {
			t.Fatalf("completing thesis: %v", err)
		}

		if err := f.svc.Delete(ctx, f.student, result.Uploaded[0].ID); !errors.Is(err, apperrors.ErrThesisClosed) {
			t.Errorf("Delete error = %v, want ErrThesisClosed", err)
		}
		if err := f.svc.Delete(ctx, f.secretary, result.Uploaded[0].ID); err != nil {
			t.Errorf("secretary Delete returned error: %v", err)
		}
	})
}

func TestAttachmentService_Download(t *testing.T) {
	ctx := context.Background()
	f := setupAttachment(t, models.StateActive)
	result, err := f.svc.Upload(ctx, f.student, f.thesis.ID, []*multipart.FileHeader{
		fileHeader("draft.pdf", "application/pdf", 1024),
	}, true)
	if err != nil {
		t.Fatalf("seeding upload: %v", err)
	}

	att, path, err := f.svc.Download(ctx, f.supervisor, result.Uploaded[0].ID)
	if err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	if att.Filename != "draft.pdf" {
		t.Errorf("filename = %q, want draft.pdf", att.Filename)
	}
	if path == "" {
		t.Error("download path is empty")
	}

	outsider := &models.User{ID: 7, Role: models.RoleStudent, FullName: "Outsider"}
	if _, _, err := f.svc.Download(ctx, outsider, result.Uploaded[0].ID); !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Errorf("outsider Download error = %v, want ErrPermissionDenied", err)
	}
}
