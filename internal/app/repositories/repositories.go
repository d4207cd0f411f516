package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of pgx operations shared by the pool and an open
// transaction. Repository methods that may run inside a transaction route
// through it.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repositories holds all the repository instances
type Repositories struct {
	User         UserRepository
	Topic        TopicRepository
	Thesis       ThesisRepository
	Committee    CommitteeRepository
	Invitation   InvitationRepository
	Attachment   AttachmentRepository
	Presentation PresentationRepository
	Grade        GradeRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Topic:        NewTopicRepository(db),
		Thesis:       NewThesisRepository(db),
		Committee:    NewCommitteeRepository(db),
		Invitation:   NewInvitationRepository(db),
		Attachment:   NewAttachmentRepository(db),
		Presentation: NewPresentationRepository(db),
		Grade:        NewGradeRepository(db),
	}
}
