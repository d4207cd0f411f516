package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pkontaxis/thesisdesk/internal/app/models"
	"github.com/pkontaxis/thesisdesk/internal/app/models/dto"
	"github.com/pkontaxis/thesisdesk/internal/pkg/apperrors"
)

type gradeFixture struct {
	svc        GradeService
	grades     *mockGradeRepo
	theses     *mockThesisRepo
	committees *mockCommitteeRepo

	student    *models.User
	supervisor *models.User
	member     *models.User
	secretary  *models.User
	thesis     *models.Thesis
}

// setupGrade builds a thesis in the given state with two accepted committee
// seats: the supervisor's and one member's.
func setupGrade(t *testing.T, state models.ThesisState) *gradeFixture {
	t.Helper()

	f := &gradeFixture{
		grades:     newMockGradeRepo(),
		theses:     newMockThesisRepo(),
		committees: newMockCommitteeRepo(),
	}
	f.svc = NewGradeService(f.grades, f.theses, f.committees)

	f.student = &models.User{ID: 1, Role: models.RoleStudent, FullName: "Maria Papadaki"}
	f.supervisor = &models.User{ID: 2, Role: models.RoleInstructor, FullName: "Nikos Ioannou"}
	f.member = &models.User{ID: 3, Role: models.RoleInstructor, FullName: "Eleni Georgiou"}
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
	for _, seat := range []struct {
		id   int64
		role models.CommitteeRole
	}{
		{f.supervisor.ID, models.CommitteeSupervisor},
		{f.member.ID, models.CommitteeMemberRole},
	} {
		if _, err := f.committees.Insert(ctx, nil, &models.CommitteeMember{
			ThesisID:     f.thesis.ID,
			InstructorID: seat.id,
			Role:         seat.role,
			InvitedAt:    now,
			AcceptedAt:   &now,
		}); err != nil {
			t.Fatalf("seeding committee: %v", err)
		}
	}

	return f
}

func ptrFloat(v float64) *float64 { return &v }

func TestGradeService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("committee member grades a thesis under review", func(t *testing.T) {
		f := setupGrade(t, models.StateUnderReview)

		resp, err := f.svc.Create(ctx, f.member, &dto.CreateGradeRequest{ThesisID: f.thesis.ID, GradeNumeric: ptrFloat(8.5)})
		if err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
		if resp.GradeNumeric != 8.5 {
			t.Errorf("gradeNumeric = %v, want 8.5", resp.GradeNumeric)
		}
	})

	t.Run("boundary grades are accepted", func(t *testing.T) {
		f := setupGrade(t, models.StateUnderReview)

		if _, err := f.svc.Create(ctx, f.member, &dto.CreateGradeRequest{ThesisID: f.thesis.ID, GradeNumeric: ptrFloat(0)}); err != nil {
			t.Errorf("grade 0 rejected: %v", err)
		}
		if _, err := f.svc.Create(ctx, f.supervisor, &dto.CreateGradeRequest{ThesisID: f.thesis.ID, GradeNumeric: ptrFloat(10)}); err != nil {
			t.Errorf("grade 10 rejected: %v", err)
		}
	})

	t.Run("out of range grades are rejected", func(t *testing.T) {
		f := setupGrade(t, models.StateUnderReview)

		for _, v := range []float64{-0.01, 10.01} {
			_, err := f.svc.Create(ctx, f.member, &dto.CreateGradeRequest{ThesisID: f.thesis.ID, GradeNumeric: ptrFloat(v)})
			if !errors.Is(err, apperrors.ErrGradeOutOfRange) {
				t.Errorf("grade %v: error = %v, want ErrGradeOutOfRange", v, err)
			}
		}
	})

	t.Run("non-committee instructor cannot grade", func(t *testing.T) {
		f := setupGrade(t, models.StateUnderReview)
		outsider := &models.User{ID: 7, Role: models.RoleInstructor, FullName: "Outsider"}

		_, err := f.svc.Create(ctx, outsider, &dto.CreateGradeRequest{ThesisID: f.thesis.ID, GradeNumeric: ptrFloat(7)})
		if !errors.Is(err, apperrors.ErrNotCommittee) {
			t.Errorf("Create error = %v, want ErrNotCommittee", err)
		}
	})

	t.Run("secretary cannot grade", func(t *testing.T) {
		f := setupGrade(t, models.StateUnderReview)

		_, err := f.svc.Create(ctx, f.secretary, &dto.CreateGradeRequest{ThesisID: f.thesis.ID, GradeNumeric: ptrFloat(7)})
		if !errors.Is(err, apperrors.ErrNotCommittee) {
			t.Errorf("Create error = %v, want ErrNotCommittee", err)
		}
	})

	t.Run("active thesis is not gradeable", func(t *testing.T) {
		f := setupGrade(t, models.StateActive)

		_, err := f.svc.Create(ctx, f.member, &dto.CreateGradeRequest{ThesisID: f.thesis.ID, GradeNumeric: ptrFloat(7)})
		if !errors.Is(err, apperrors.ErrNotGradeable) {
			t.Errorf("Create error = %v, want ErrNotGradeable", err)
		}
	})

	t.Run("one grade per grader", func(t *testing.T) {
		f := setupGrade(t, models.StateUnderReview)

		if _, err := f.svc.Create(ctx, f.member, &dto.CreateGradeRequest{ThesisID: f.thesis.ID, GradeNumeric: ptrFloat(6)}); err != nil {
			t.Fatalf("first grade returned error: %v", err)
		}
		_, err := f.svc.Create(ctx, f.member, &dto.CreateGradeRequest{ThesisID: f.thesis.ID, GradeNumeric: ptrFloat(7)})
		if !errors.Is(err, apperrors.ErrDuplicateGrade) {
			t.Errorf("second grade error = %v, want ErrDuplicateGrade", err)
		}
	})
}

func TestGradeService_ListByThesis(t *testing.T) {
	ctx := context.Background()
	f := setupGrade(t, models.StateUnderReview)
	if _, err := f.svc.Create(ctx, f.member, &dto.CreateGradeRequest{ThesisID: f.thesis.ID, GradeNumeric: ptrFloat(6)}); err != nil {
		t.Fatalf("seeding grade: %v", err)
	}
	if _, err := f.svc.Create(ctx, f.supervisor, &dto.CreateGradeRequest{ThesisID: f.thesis.ID, GradeNumeric: ptrFloat(8)}); err != nil {
		t.Fatalf("seeding grade: %v", err)
	}

	t.Run("student sees grades with statistics", func(t *testing.T) {
		resp, err := f.svc.ListByThesis(ctx, f.student, f.thesis.ID)
		if err != nil {
			t.Fatalf("ListByThesis returned error: %v", err)
		}
		if len(resp.Grades) != 2 {
			t.Fatalf("got %d grades, want 2", len(resp.Grades))
		}
		if resp.Stats.Count != 2 {
			t.Errorf("stats count = %d, want 2", resp.Stats.Count)
		}
		if resp.Stats.Average == nil || *resp.Stats.Average != 7 {
			t.Errorf("stats average = %v, want 7", resp.Stats.Average)
		}
	})

	t.Run("outsider is denied", func(t *testing.T) {
		outsider := &models.User{ID: 7, Role: models.RoleStudent, FullName: "Outsider"}
		_, err := f.svc.ListByThesis(ctx, outsider, f.thesis.ID)
		if !errors.Is(err, apperrors.ErrPermissionDenied) {
			t.Errorf("ListByThesis error = %v, want ErrPermissionDenied", err)
		}
	})
}

func TestGradeService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("grader corrects own grade", func(t *testing.T) {
		f := setupGrade(t, models.StateUnderReview)
		created, err := f.svc.Create(ctx, f.member, &dto.CreateGradeRequest{ThesisID: f.thesis.ID, GradeNumeric: ptrFloat(6)})
		if err != nil {
			t.Fatalf("seeding grade: %v", err)
		}

		resp, err := f.svc.Update(ctx, f.member, created.ID, &dto.UpdateGradeRequest{GradeNumeric: ptrFloat(7.5)})
		if err != nil {
			t.Fatalf("Update returned error: %v", err)
		}
		if resp.GradeNumeric != 7.5 {
			t.Errorf("gradeNumeric = %v, want 7.5", resp.GradeNumeric)
		}
	})

	t.Run("only the grader or the secretary may change it", func(t *testing.T) {
		f := setupGrade(t, models.StateUnderReview)
		created, err := f.svc.Create(ctx, f.member, &dto.CreateGradeRequest{ThesisID: f.thesis.ID, GradeNumeric: ptrFloat(6)})
		if err != nil {
			t.Fatalf("seeding grade: %v", err)
		}

		_, err = f.svc.Update(ctx, f.supervisor, created.ID, &dto.UpdateGradeRequest{GradeNumeric: ptrFloat(9)})
		if !errors.Is(err, apperrors.ErrPermissionDenied) {
			t.Errorf("Update error = %v, want ErrPermissionDenied", err)
		}
	})

	t.Run("completed thesis locks grades against the grader", func(t *testing.T) {
		f := setupGrade(t, models.StateUnderReview)
		created, err := f.svc.Create(ctx, f.member, &dto.CreateGradeRequest{ThesisID: f.thesis.ID, GradeNumeric: ptrFloat(6)})
		if err != nil {
			t.Fatalf("seeding grade: %v", err)
		}
		stored, _ := f.theses.GetByID(ctx, f.thesis.ID)
		stored.State = models.StateCompleted
		if err := f.theses.UpdateState(ctx, nil, stored); err != nil {
			t.Fatalf("completing thesis: %v", err)
		}

		_, err = f.svc.Update(ctx, f.member, created.ID, &dto.UpdateGradeRequest{GradeNumeric: ptrFloat(9)})
		if !errors.Is(err, apperrors.ErrThesisClosed) {
			t.Errorf("Update error = %v, want ErrThesisClosed", err)
		}

		// The secretary may still correct clerical errors
		if _, err := f.svc.Update(ctx, f.secretary, created.ID, &dto.UpdateGradeRequest{GradeNumeric: ptrFloat(9)}); err != nil {
			t.Errorf("secretary correction returned error: %v", err)
		}
	})

	t.Run("out of range correction is rejected", func(t *testing.T) {
		f := setupGrade(t, models.StateUnderReview)
		created, err := f.svc.Create(ctx, f.member, &dto.CreateGradeRequest{ThesisID: f.thesis.ID, GradeNumeric: ptrFloat(6)})
		if err != nil {
			t.Fatalf("seeding grade: %v", err)
		}

		_, err = f.svc.Update(ctx, f.member, created.ID, &dto.UpdateGradeRequest{GradeNumeric: ptrFloat(11)})
		if !errors.Is(err, apperrors.ErrGradeOutOfRange) {
			t.Errorf("Update error = %v, want ErrGradeOutOfRange", err)
		}
	})
}

func TestGradeService_Delete(t *testing.T) {
	ctx := context.Background()
	f := setupGrade(t, models.StateUnderReview)
	created, err := f.svc.Create(ctx, f.member, &dto.CreateGradeRequest{ThesisID: f.thesis.ID, GradeNumeric: ptrFloat(6)})
	if err != nil {
		t.Fatalf("seeding grade: %v", err)
	}

	t.Run("another member cannot withdraw it", func(t *testing.T) {
		if err := f.svc.Delete(ctx, f.supervisor, created.ID); !errors.Is(err, apperrors.ErrPermissionDenied) {
			t.Errorf("Delete error = %v, want ErrPermissionDenied", err)
		}
	})

	t.Run("grader withdraws own grade", func(t *testing.T) {
		if err := f.svc.Delete(ctx, f.member, created.ID); err != nil {
			t.Fatalf("Delete returned error: %v", err)
		}
		if _, err := f.grades.GetByID(ctx, created.ID); !errors.Is(err, apperrors.ErrGradeNotFound) {
			t.Errorf("grade still present after withdrawal")
		}
	})
}

func TestGradeService_InstructorSummary(t *testing.T) {
	ctx := context.Background()
	f := setupGrade(t, models.StateUnderReview)
	if _, err := f.svc.Create(ctx, f.member, &dto.CreateGradeRequest{ThesisID: f.thesis.ID, GradeNumeric: ptrFloat(6)}); err != nil {
		t.Fatalf("seeding grade: %v", err)
	}

	t.Run("students have no worklist", func(t *testing.T) {
		_, err := f.svc.InstructorSummary(ctx, f.student)
		if !errors.Is(err, apperrors.ErrPermissionDenied) {
			t.Errorf("InstructorSummary error = %v, want ErrPermissionDenied", err)
		}
	})

	t.Run("instructor summary carries submitted grades", func(t *testing.T) {
		summary, err := f.svc.InstructorSummary(ctx, f.member)
		if err != nil {
			t.Fatalf("InstructorSummary returned error: %v", err)
		}
		if len(summary.Submitted) != 1 {
			t.Errorf("got %d submitted grades, want 1", len(summary.Submitted))
		}
		if summary.Stats.Count != 1 {
			t.Errorf("stats count = %d, want 1", summary.Stats.Count)
		}
	})
}

func TestGradeService_Statistics(t *testing.T) {
	ctx := context.Background()
	f := setupGrade(t, models.StateUnderReview)
	if _, err := f.svc.Create(ctx, f.member, &dto.CreateGradeRequest{ThesisID: f.thesis.ID, GradeNumeric: ptrFloat(6)}); err != nil {
		t.Fatalf("seeding grade: %v", err)
	}

	t.Run("instructors are denied", func(t *testing.T) {
		_, err := f.svc.Statistics(ctx, f.member)
		if !errors.Is(err, apperrors.ErrPermissionDenied) {
			t.Errorf("Statistics error = %v, want ErrPermissionDenied", err)
		}
	})

	t.Run("secretary gets the overview", func(t *testing.T) {
		resp, err := f.svc.Statistics(ctx, f.secretary)
		if err != nil {
			t.Fatalf("Statistics returned error: %v", err)
		}
		if resp.Overall.Count != 1 {
			t.Errorf("overall count = %d, want 1", resp.Overall.Count)
		}
		if len(resp.Recent) != 1 {
			t.Errorf("got %d recent grades, want 1", len(resp.Recent))
		}
	})
}

func TestGradeStats(t *testing.T) {
	t.Run("empty slice", func(t *testing.T) {
		stats := gradeStats(nil)
		if stats.Count != 0 || stats.Average != nil {
			t.Errorf("empty stats = %+v, want zero", stats)
		}
	})

	t.Run("min max average", func(t *testing.T) {
		stats := gradeStats([]models.Grade{
			{GradeNumeric: 5},
			{GradeNumeric: 9},
			{GradeNumeric: 7},
		})
		if stats.Count != 3 {
			t.Errorf("count = %d, want 3", stats.Count)
		}
		if stats.Min == nil || *stats.Min != 5 {
			t.Errorf("min = %v, want 5", stats.Min)
		}
		if stats.Max == nil || *stats.Max != 9 {
			t.Errorf("max = %v, want 9", stats.Max)
		}
		if stats.Average == nil || *stats.Average != 7 {
			t.Errorf("average = %v, want 7", stats.Average)
		}
	})
}
