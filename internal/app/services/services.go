package services

import (
	"context"

	"github.com/pkontaxis/thesisdesk/internal/app/models"
	"github.com/pkontaxis/thesisdesk/internal/app/repositories"
)

// Services defined in this package:
// - AuthService: login, registration and self-service profile
// - TopicService: topic registry CRUD
// - ThesisService: thesis lifecycle and listings
// - InvitationService: committee invitations and responses
// - AttachmentService: thesis file uploads
// - PresentationService: defense scheduling and the public feed
// - GradeService: grading and grade statistics
// - SecretaryService: exports, reports and system health

// loadThesisWithCommittee reads a thesis together with its committee seats,
// which every authorization predicate needs.
func loadThesisWithCommittee(ctx context.Context, thesisRepo repositories.ThesisRepository, committeeRepo repositories.CommitteeRepository, id int64) (*models.Thesis, error) {
	thesis, err := thesisRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	committee, err := committeeRepo.ListByThesis(ctx, id)
	if err != nil {
		return nil, err
	}
	thesis.Committee = committee

	return thesis, nil
}
