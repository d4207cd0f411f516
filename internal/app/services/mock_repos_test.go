package services

import (
	"context"
	"mime/multipart"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pkontaxis/thesisdesk/internal/app/models"
	"github.com/pkontaxis/thesisdesk/internal/app/repositories"
	"github.com/pkontaxis/thesisdesk/internal/db"
	"github.com/pkontaxis/thesisdesk/internal/pkg/apperrors"
)

// mockTxRunner satisfies db.TxRunner without a database. The mocks ignore
// the pgx.Tx argument, so running the function with a nil transaction is
// enough to exercise transactional flows.
type mockTxRunner struct{}

func (mockTxRunner) WithTransaction(ctx context.Context, fn db.TransactionFn) error {
	return fn(ctx, nil)
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	users  map[int64]*models.User
	nextID int64
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[int64]*models.User), nextID: 1}
}

func (m *mockUserRepo) add(u models.User) *models.User {
	if u.ID == 0 {
		u.ID = m.nextID
	}
	if u.ID >= m.nextID {
		m.nextID = u.ID + 1
	}
	m.users[u.ID] = &u
	return &u
}

func (m *mockUserRepo) Create(_ context.Context, user *models.User) (int64, error) {
	for _, u := range m.users {
		if u.Email == user.Email {
			return 0, apperrors.ErrEmailAlreadyExists
		}
	}
	created := m.add(*user)
	return created.ID, nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, apperrors.ErrUserNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (m *mockUserRepo) UpdateProfile(_ context.Context, id int64, phone, address *string) error {
	u, ok := m.users[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	u.Phone = phone
	u.Address = address
	return nil
}

func (m *mockUserRepo) ListByRole(_ context.Context, role models.Role) ([]models.User, error) {
	var result []models.User
	for _, u := range m.users {
		if u.Role == role {
			result = append(result, *u)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockUserRepo) CountByRole(_ context.Context) (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, u := range m.users {
		counts[string(u.Role)]++
	}
	return counts, nil
}

// ── Mock TopicRepository ──

type mockTopicRepo struct {
	topics  map[int64]*models.Topic
	nextID  int64
	deleted []int64
}

func newMockTopicRepo() *mockTopicRepo {
	return &mockTopicRepo{topics: make(map[int64]*models.Topic), nextID: 1}
}

func (m *mockTopicRepo) add(t models.Topic) *models.Topic {
	if t.ID == 0 {
		t.ID = m.nextID
	}
	if t.ID >= m.nextID {
		m.nextID = t.ID + 1
	}
	m.topics[t.ID] = &t
	return &t
}

func (m *mockTopicRepo) Create(_ context.Context, topic *models.Topic) (int64, error) {
	created := m.add(*topic)
	return created.ID, nil
}

func (m *mockTopicRepo) GetByID(_ context.Context, id int64) (*models.Topic, error) {
	if t, ok := m.topics[id]; ok {
		return t, nil
	}
	return nil, apperrors.ErrTopicNotFound
}

func (m *mockTopicRepo) List(_ context.Context, filter repositories.TopicFilter, page, pageSize int) ([]models.Topic, int64, error) {
	var result []models.Topic
	for _, t := range m.topics {
		if filter.CreatorID != nil && t.CreatorID != *filter.CreatorID {
			continue
		}
		result = append(result, *t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, int64(len(result)), nil
}

func (m *mockTopicRepo) Update(_ context.Context, topic *models.Topic) error {
	if _, ok := m.topics[topic.ID]; !ok {
		return apperrors.ErrTopicNotFound
	}
	stored := *topic
	m.topics[topic.ID] = &stored
	return nil
}

func (m *mockTopicRepo) SetDescriptionURL(_ context.Context, id int64, url *string) error {
	t, ok := m.topics[id]
	if !ok {
		return apperrors.ErrTopicNotFound
	}
	t.DescriptionURL = url
	return nil
}

func (m *mockTopicRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.topics[id]; !ok {
		return apperrors.ErrTopicNotFound
	}
	delete(m.topics, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockTopicRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.topics)), nil
}

// ── Mock ThesisRepository ──

type mockThesisRepo struct {
	theses map[int64]*models.Thesis
	nextID int64
}

func newMockThesisRepo() *mockThesisRepo {
	return &mockThesisRepo{theses: make(map[int64]*models.Thesis), nextID: 1}
}

func (m *mockThesisRepo) add(th models.Thesis) *models.Thesis {
	if th.ID == 0 {
		th.ID = m.nextID
	}
	if th.ID >= m.nextID {
		m.nextID = th.ID + 1
	}
	m.theses[th.ID] = &th
	return &th
}

func (m *mockThesisRepo) Create(_ context.Context, _ repositories.Querier, thesis *models.Thesis) (int64, error) {
	created := m.add(*thesis)
	return created.ID, nil
}

func (m *mockThesisRepo) GetByID(_ context.Context, id int64) (*models.Thesis, error) {
	th, ok := m.theses[id]
	if !ok {
		return nil, apperrors.ErrThesisNotFound
	}
	copy := *th
	return &copy, nil
}

func (m *mockThesisRepo) GetStateForUpdate(_ context.Context, _ pgx.Tx, id int64) (models.ThesisState, error) {
	th, ok := m.theses[id]
	if !ok {
		return "", apperrors.ErrThesisNotFound
	}
	return th.State, nil
}

func (m *mockThesisRepo) List(_ context.Context, filter repositories.ThesisFilter, page, pageSize int) ([]models.Thesis, int64, error) {
	var result []models.Thesis
	for _, th := range m.theses {
		if filter.State != nil && th.State != *filter.State {
			continue
		}
		if filter.StudentID != nil && th.StudentID != *filter.StudentID {
			continue
		}
		if filter.SupervisorID != nil && th.SupervisorID != *filter.SupervisorID {
			continue
		}
		if filter.ParticipantID != nil && !m.participates(th, *filter.ParticipantID) {
			continue
		}
		result = append(result, *th)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, int64(len(result)), nil
}

func (m *mockThesisRepo) participates(th *models.Thesis, userID int64) bool {
	if th.StudentID == userID || th.SupervisorID == userID {
		return true
	}
	if th.Topic != nil && th.Topic.CreatorID == userID {
		return true
	}
	return th.IsCommitteeMember(userID)
}

func (m *mockThesisRepo) ListByTopic(_ context.Context, topicID int64) ([]models.Thesis, error) {
	var result []models.Thesis
	for _, th := range m.theses {
		if th.TopicID == topicID && th.State != models.StateCancelled {
			result = append(result, *th)
		}
	}
	return result, nil
}

func (m *mockThesisRepo) UpdateState(_ context.Context, _ repositories.Querier, thesis *models.Thesis) error {
	stored, ok := m.theses[thesis.ID]
	if !ok {
		return apperrors.ErrThesisNotFound
	}
	// Mirrors the partial unique indexes on open theses.
	if !thesis.State.Terminal() {
		for _, other := range m.theses {
			if other.ID == thesis.ID || other.State.Terminal() {
				continue
			}
			if other.StudentID == stored.StudentID {
				return apperrors.ErrStudentHasActiveThesis
			}
			if other.TopicID == stored.TopicID {
				return apperrors.ErrTopicAlreadyAssigned
			}
		}
	}
	stored.State = thesis.State
	stored.StartedAt = thesis.StartedAt
	stored.FinalizedAt = thesis.FinalizedAt
	stored.CancellationReason = thesis.CancellationReason
	stored.APNumber = thesis.APNumber
	return nil
}

func (m *mockThesisRepo) StudentHasOpenThesis(_ context.Context, _ repositories.Querier, studentID int64) (bool, error) {
	for _, th := range m.theses {
		if th.StudentID == studentID && !th.State.Terminal() {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockThesisRepo) TopicHasOpenThesis(_ context.Context, _ repositories.Querier, topicID int64) (bool, error) {
	for _, th := range m.theses {
		if th.TopicID == topicID && !th.State.Terminal() {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockThesisRepo) Stats(_ context.Context, supervisorID *int64) (*repositories.ThesisStats, error) {
	stats := &repositories.ThesisStats{ByState: make(map[string]int64)}
	for _, th := range m.theses {
		if supervisorID != nil && th.SupervisorID != *supervisorID {
			continue
		}
		stats.Total++
		stats.ByState[string(th.State)]++
	}
	return stats, nil
}

func (m *mockThesisRepo) ExportRecords(_ context.Context) ([]repositories.ThesisExportRecord, error) {
	var records []repositories.ThesisExportRecord
	for _, th := range m.theses {
		records = append(records, repositories.ThesisExportRecord{Thesis: *th})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Thesis.ID < records[j].Thesis.ID })
	return records, nil
}

func (m *mockThesisRepo) SupervisorLoads(_ context.Context) ([]repositories.SupervisorLoadRecord, error) {
	return nil, nil
}

func (m *mockThesisRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.theses)), nil
}

func (m *mockThesisRepo) ListPendingGrading(_ context.Context, instructorID int64) ([]models.Thesis, error) {
	return nil, nil
}

// ── Mock CommitteeRepository ──

type mockCommitteeRepo struct {
	members []models.CommitteeMember
	nextID  int64
}

func newMockCommitteeRepo() *mockCommitteeRepo {
	return &mockCommitteeRepo{nextID: 1}
}

func (m *mockCommitteeRepo) Insert(_ context.Context, _ repositories.Querier, member *models.CommitteeMember) (int64, error) {
	for _, existing := range m.members {
		if existing.ThesisID == member.ThesisID && existing.InstructorID == member.InstructorID {
			return 0, apperrors.ErrAlreadyMember
		}
	}
	stored := *member
	stored.ID = m.nextID
	m.nextID++
	m.members = append(m.members, stored)
	return stored.ID, nil
}

func (m *mockCommitteeRepo) ListByThesis(_ context.Context, thesisID int64) ([]models.CommitteeMember, error) {
	var result []models.CommitteeMember
	for _, member := range m.members {
		if member.ThesisID == thesisID {
			result = append(result, member)
		}
	}
	return result, nil
}

func (m *mockCommitteeRepo) CountAccepted(_ context.Context, _ repositories.Querier, thesisID int64) (int, error) {
	count := 0
	for _, member := range m.members {
		if member.ThesisID == thesisID && member.AcceptedAt != nil {
			count++
		}
	}
	return count, nil
}

func (m *mockCommitteeRepo) IsMember(_ context.Context, thesisID, instructorID int64) (bool, error) {
	for _, member := range m.members {
		if member.ThesisID == thesisID && member.InstructorID == instructorID {
			return true, nil
		}
	}
	return false, nil
}

// ── Mock InvitationRepository ──

type mockInvitationRepo struct {
	invitations map[int64]*models.Invitation
	nextID      int64
}

func newMockInvitationRepo() *mockInvitationRepo {
	return &mockInvitationRepo{invitations: make(map[int64]*models.Invitation), nextID: 1}
}

func (m *mockInvitationRepo) Create(_ context.Context, inv *models.Invitation) (int64, error) {
	stored := *inv
	stored.ID = m.nextID
	m.nextID++
	m.invitations[stored.ID] = &stored
	return stored.ID, nil
}

func (m *mockInvitationRepo) GetByID(_ context.Context, id int64) (*models.Invitation, error) {
	if inv, ok := m.invitations[id]; ok {
		copy := *inv
		return &copy, nil
	}
	return nil, apperrors.ErrInvitationNotFound
}

func (m *mockInvitationRepo) ListByInstructor(_ context.Context, instructorID int64, status *models.InvitationStatus) ([]models.Invitation, error) {
	var result []models.Invitation
	for _, inv := range m.invitations {
		if inv.InstructorID != instructorID {
			continue
		}
		if status != nil && inv.Status != *status {
			continue
		}
		result = append(result, *inv)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, nil
}

func (m *mockInvitationRepo) ListPendingByThesis(_ context.Context, thesisID int64) ([]models.Invitation, error) {
	var result []models.Invitation
	for _, inv := range m.invitations {
		if inv.ThesisID == thesisID && inv.Status == models.InvitationPending {
			result = append(result, *inv)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockInvitationRepo) HasPending(_ context.Context, thesisID, instructorID int64) (bool, error) {
	for _, inv := range m.invitations {
		if inv.ThesisID == thesisID && inv.InstructorID == instructorID && inv.Status == models.InvitationPending {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockInvitationRepo) UpdateStatus(_ context.Context, _ repositories.Querier, id int64, status models.InvitationStatus, respondedAt time.Time) error {
	inv, ok := m.invitations[id]
	if !ok {
		return apperrors.ErrInvitationNotFound
	}
	inv.Status = status
	inv.RespondedAt = &respondedAt
	return nil
}

// ── Mock AttachmentRepository ──

type mockAttachmentRepo struct {
	attachments map[int64]*models.Attachment
	nextID      int64
}

func newMockAttachmentRepo() *mockAttachmentRepo {
	return &mockAttachmentRepo{attachments: make(map[int64]*models.Attachment), nextID: 1}
}

func (m *mockAttachmentRepo) Create(_ context.Context, att *models.Attachment) (int64, error) {
	stored := *att
	stored.ID = m.nextID
	m.nextID++
	m.attachments[stored.ID] = &stored
	return stored.ID, nil
}

func (m *mockAttachmentRepo) GetByID(_ context.Context, id int64) (*models.Attachment, error) {
	if att, ok := m.attachments[id]; ok {
		copy := *att
		return &copy, nil
	}
	return nil, apperrors.ErrAttachmentNotFound
}

func (m *mockAttachmentRepo) ListByThesis(_ context.Context, thesisID int64, isDraft *bool) ([]models.Attachment, error) {
	var result []models.Attachment
	for _, att := range m.attachments {
		if att.ThesisID != thesisID {
			continue
		}
		if isDraft != nil && att.IsDraft != *isDraft {
			continue
		}
		result = append(result, *att)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockAttachmentRepo) SetDraft(_ context.Context, id int64, isDraft bool) error {
	att, ok := m.attachments[id]
	if !ok {
		return apperrors.ErrAttachmentNotFound
	}
	att.IsDraft = isDraft
	return nil
}

func (m *mockAttachmentRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.attachments[id]; !ok {
		return apperrors.ErrAttachmentNotFound
	}
	delete(m.attachments, id)
	return nil
}

// ── Mock PresentationRepository ──

type mockPresentationRepo struct {
	presentations map[int64]*models.Presentation
	nextID        int64
}

func newMockPresentationRepo() *mockPresentationRepo {
	return &mockPresentationRepo{presentations: make(map[int64]*models.Presentation), nextID: 1}
}

func (m *mockPresentationRepo) Create(_ context.Context, p *models.Presentation) (int64, error) {
	for _, existing := range m.presentations {
		if existing.ThesisID == p.ThesisID {
			return 0, apperrors.ErrAlreadyScheduled
		}
	}
	stored := *p
	stored.ID = m.nextID
	stored.Thesis = nil
	m.nextID++
	m.presentations[stored.ID] = &stored
	return stored.ID, nil
}

func (m *mockPresentationRepo) GetByID(_ context.Context, id int64) (*models.Presentation, error) {
	if p, ok := m.presentations[id]; ok {
		copy := *p
		return &copy, nil
	}
	return nil, apperrors.ErrPresentationNotFound
}

func (m *mockPresentationRepo) GetByThesis(_ context.Context, thesisID int64) (*models.Presentation, error) {
	for _, p := range m.presentations {
		if p.ThesisID == thesisID {
			copy := *p
			return &copy, nil
		}
	}
	return nil, apperrors.ErrPresentationNotFound
}

func (m *mockPresentationRepo) List(_ context.Context, filter repositories.PresentationFilter) ([]models.Presentation, error) {
	var result []models.Presentation
	for _, p := range m.presentations {
		if filter.ThesisID != nil && p.ThesisID != *filter.ThesisID {
			continue
		}
		if filter.From != nil && p.ScheduledAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && p.ScheduledAt.After(*filter.To) {
			continue
		}
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ScheduledAt.Before(result[j].ScheduledAt) })
	return result, nil
}

func (m *mockPresentationRepo) ListPublic(_ context.Context) ([]models.Presentation, error) {
	// The public view is state-filtered in SQL; the mock carries preloaded
	// relations instead, so tests set Thesis on stored rows directly.
	var result []models.Presentation
	for _, p := range m.presentations {
		if p.Thesis != nil && (p.Thesis.State == models.StateUnderReview || p.Thesis.State == models.StateCompleted) {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (m *mockPresentationRepo) Update(_ context.Context, p *models.Presentation) error {
	if _, ok := m.presentations[p.ID]; !ok {
		return apperrors.ErrPresentationNotFound
	}
	stored := *p
	stored.Thesis = nil
	m.presentations[p.ID] = &stored
	return nil
}

func (m *mockPresentationRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.presentations[id]; !ok {
		return apperrors.ErrPresentationNotFound
	}
	delete(m.presentations, id)
	return nil
}

// ── Mock GradeRepository ──

type mockGradeRepo struct {
	grades map[int64]*models.Grade
	nextID int64
}

func newMockGradeRepo() *mockGradeRepo {
	return &mockGradeRepo{grades: make(map[int64]*models.Grade), nextID: 1}
}

func (m *mockGradeRepo) Create(_ context.Context, grade *models.Grade) (int64, error) {
	for _, g := range m.grades {
		if g.ThesisID == grade.ThesisID && g.GraderID == grade.GraderID {
			return 0, apperrors.ErrDuplicateGrade
		}
	}
	stored := *grade
	stored.ID = m.nextID
	stored.Grader = nil
	m.nextID++
	m.grades[stored.ID] = &stored
	return stored.ID, nil
}

func (m *mockGradeRepo) GetByID(_ context.Context, id int64) (*models.Grade, error) {
	if g, ok := m.grades[id]; ok {
		copy := *g
		return &copy, nil
	}
	return nil, apperrors.ErrGradeNotFound
}

func (m *mockGradeRepo) Exists(_ context.Context, thesisID, graderID int64) (bool, error) {
	for _, g := range m.grades {
		if g.ThesisID == thesisID && g.GraderID == graderID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockGradeRepo) ListByThesis(_ context.Context, thesisID int64) ([]models.Grade, error) {
	var result []models.Grade
	for _, g := range m.grades {
		if g.ThesisID == thesisID {
			result = append(result, *g)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockGradeRepo) StatsByThesis(_ context.Context, thesisID int64) (*models.GradeStats, error) {
	grades, _ := m.ListByThesis(nil, thesisID)
	stats := gradeStats(grades)
	return &stats, nil
}

func (m *mockGradeRepo) ListByGrader(_ context.Context, graderID int64, limit int) ([]models.Grade, error) {
	var result []models.Grade
	for _, g := range m.grades {
		if g.GraderID == graderID {
			result = append(result, *g)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *mockGradeRepo) Update(_ context.Context, grade *models.Grade) error {
	if _, ok := m.grades[grade.ID]; !ok {
		return apperrors.ErrGradeNotFound
	}
	stored := *grade
	stored.Grader = nil
	m.grades[grade.ID] = &stored
	return nil
}

func (m *mockGradeRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.grades[id]; !ok {
		return apperrors.ErrGradeNotFound
	}
	delete(m.grades, id)
	return nil
}

func (m *mockGradeRepo) GlobalStats(_ context.Context) (*models.GradeStats, error) {
	var all []models.Grade
	for _, g := range m.grades {
		all = append(all, *g)
	}
	stats := gradeStats(all)
	return &stats, nil
}

func (m *mockGradeRepo) Distribution(_ context.Context) ([]repositories.DistributionBucket, error) {
	return nil, nil
}

func (m *mockGradeRepo) TopGraders(_ context.Context, limit int) ([]repositories.GraderActivityRecord, error) {
	return nil, nil
}

func (m *mockGradeRepo) Recent(_ context.Context, limit int) ([]models.Grade, error) {
	var all []models.Grade
	for _, g := range m.grades {
		all = append(all, *g)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// ── Mock BlobStore ──

type mockBlobStore struct {
	saved   []string
	deleted []string
	nextID  int
}

func (m *mockBlobStore) SaveFile(fh *multipart.FileHeader) (string, error) {
	return m.SaveFileWithPath(fh, "misc")
}

func (m *mockBlobStore) SaveFileWithPath(fh *multipart.FileHeader, path string) (string, error) {
	m.nextID++
	url := "uploads/" + path + "/file-" + string(rune('a'+m.nextID-1))
	m.saved = append(m.saved, url)
	return url, nil
}

func (m *mockBlobStore) DeleteFile(filePath string) error {
	m.deleted = append(m.deleted, filePath)
	return nil
}

func (m *mockBlobStore) GetFullPath(fileURL string) string {
	return "/tmp/storage/" + fileURL
}
