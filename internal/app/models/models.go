package models

// Role defines the user role type
type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleSecretary  Role = "secretary"
)

// Valid reports whether the role is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleInstructor, RoleSecretary:
		return true
	}
	return false
}

// CommitteeRole defines the role of a committee member on a thesis
type CommitteeRole string

const (
	CommitteeSupervisor CommitteeRole = "supervisor"
	CommitteeMemberRole CommitteeRole = "member"
)

// InvitationStatus defines the lifecycle of a committee invitation
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "PENDING"
	InvitationAccepted InvitationStatus = "ACCEPTED"
	InvitationRejected InvitationStatus = "REJECTED"
)

// PresentationMode defines how a presentation is held
type PresentationMode string

const (
	ModeInPerson PresentationMode = "IN_PERSON"
	ModeOnline   PresentationMode = "ONLINE"
)

// CommitteeQuorum is the number of accepted members (supervisor included)
// required before a thesis under assignment activates automatically.
const CommitteeQuorum = 3
