// Package auth holds the pure authorization predicates for the thesis
// workflow. They operate on loaded aggregates so services can check access
// without further queries and tests can cover the full role matrix.
package auth

import (
	"github.com/pkontaxis/thesisdesk/internal/app/models"
)

// HasThesisAccess reports whether the user may read a thesis and its
// sub-resources. Committee membership counts in any acceptance state.
func HasThesisAccess(user *models.User, thesis *models.Thesis) bool {
	if user == nil || thesis == nil {
		return false
	}
	if user.Role == models.RoleSecretary {
		return true
	}
	if thesis.StudentID == user.ID || thesis.SupervisorID == user.ID {
		return true
	}
	if thesis.Topic != nil && thesis.Topic.CreatorID == user.ID {
		return true
	}
	return thesis.IsCommitteeMember(user.ID)
}

// CanTransition reports whether the user may move the thesis to the target
// state. The state machine itself is checked first; role restrictions are
// layered on top:
//   - secretary: every transition the machine allows, including
//     reactivating a cancelled thesis
//   - supervisor: everything except reactivation
//   - student: only while the thesis is UNDER_ASSIGNMENT or ACTIVE
func CanTransition(user *models.User, thesis *models.Thesis, target models.ThesisState) bool {
	if user == nil || thesis == nil {
		return false
	}
	if !thesis.State.CanTransitionTo(target) {
		return false
	}

	switch user.Role {
	case models.RoleSecretary:
		return true
	case models.RoleInstructor:
		if thesis.SupervisorID != user.ID {
			return false
		}
		// Reactivation is a secretarial act
		return thesis.State != models.StateCancelled
	case models.RoleStudent:
		if thesis.StudentID != user.ID {
			return false
		}
		return thesis.State == models.StateUnderAssignment || thesis.State == models.StateActive
	}
	return false
}

// CanInvite reports whether the user may invite instructors to the thesis
// committee. The student, the supervisor and the topic creator may build
// the committee; the secretary may always.
func CanInvite(user *models.User, thesis *models.Thesis) bool {
	if user == nil || thesis == nil {
		return false
	}
	if user.Role == models.RoleSecretary {
		return true
	}
	if thesis.StudentID == user.ID || thesis.SupervisorID == user.ID {
		return true
	}
	return thesis.Topic != nil && thesis.Topic.CreatorID == user.ID
}

// CanManageCommittee reports whether the user oversees committee formation
// for the thesis: the secretary, the supervisor, or the topic creator.
// Unlike CanInvite, the student is excluded; outstanding invitations are
// between the inviter and the instructor.
func CanManageCommittee(user *models.User, thesis *models.Thesis) bool {
	if user == nil || thesis == nil {
		return false
	}
	if user.Role == models.RoleSecretary {
		return true
	}
	if thesis.SupervisorID == user.ID {
		return true
	}
	return thesis.Topic != nil && thesis.Topic.CreatorID == user.ID
}

// CanUploadAttachment reports whether the user may add files to a thesis.
// Unlike read access, a committee seat counts only once accepted.
func CanUploadAttachment(user *models.User, thesis *models.Thesis) bool {
	if user == nil || thesis == nil {
		return false
	}
	if user.Role == models.RoleSecretary {
		return true
	}
	if thesis.StudentID == user.ID || thesis.SupervisorID == user.ID {
		return true
	}
	if thesis.Topic != nil && thesis.Topic.CreatorID == user.ID {
		return true
	}
	return thesis.IsAcceptedCommitteeMember(user.ID)
}

// CanManageAttachment reports whether the user may toggle or delete an
// existing attachment. The supervisor may manage files their student
// uploaded.
func CanManageAttachment(user *models.User, thesis *models.Thesis, att *models.Attachment) bool {
	if user == nil || thesis == nil || att == nil {
		return false
	}
	if user.Role == models.RoleSecretary {
		return true
	}
	if att.UploadedBy == user.ID {
		return true
	}
	return thesis.SupervisorID == user.ID && att.UploadedBy == thesis.StudentID
}

// CanSchedulePresentation reports whether the user may schedule a defense
// for the thesis.
func CanSchedulePresentation(user *models.User, thesis *models.Thesis) bool {
	if user == nil || thesis == nil {
		return false
	}
	if user.Role == models.RoleSecretary {
		return true
	}
	if thesis.SupervisorID == user.ID || thesis.StudentID == user.ID {
		return true
	}
	return thesis.Topic != nil && thesis.Topic.CreatorID == user.ID
}

// CanManagePresentation reports whether the user may update or delete a
// scheduled defense. Students cannot.
func CanManagePresentation(user *models.User, thesis *models.Thesis) bool {
	if user == nil || thesis == nil {
		return false
	}
	if user.Role == models.RoleSecretary {
		return true
	}
	if user.Role != models.RoleInstructor {
		return false
	}
	if thesis.SupervisorID == user.ID {
		return true
	}
	return thesis.Topic != nil && thesis.Topic.CreatorID == user.ID
}

// CanGrade reports whether the user may submit a grade for the thesis.
func CanGrade(user *models.User, thesis *models.Thesis) bool {
	if user == nil || thesis == nil {
		return false
	}
	if user.Role != models.RoleInstructor {
		return false
	}
	return thesis.IsAcceptedCommitteeMember(user.ID)
}
