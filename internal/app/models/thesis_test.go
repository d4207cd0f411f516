package models

import (
	"testing"
	"time"
)

func TestThesisState_CanTransitionTo(t *testing.T) {
	allowed := []struct {
		from, to ThesisState
	}{
		{StateUnderAssignment, StateActive},
		{StateUnderAssignment, StateCancelled},
		{StateActive, StateUnderReview},
		{StateActive, StateCancelled},
		{StateUnderReview, StateCompleted},
		{StateUnderReview, StateActive},
		{StateUnderReview, StateCancelled},
		{StateCancelled, StateUnderAssignment},
	}

	allowedSet := make(map[[2]ThesisState]bool, len(allowed))
	for _, tr := range allowed {
		allowedSet[[2]ThesisState{tr.from, tr.to}] = true
	}

	states := []ThesisState{StateUnderAssignment, StateActive, StateUnderReview, StateCompleted, StateCancelled}
	for _, from := range states {
		for _, to := range states {
			want := allowedSet[[2]ThesisState{from, to}]
			if got := from.CanTransitionTo(to); got != want {
				t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestThesisState_CompletedIsFinal(t *testing.T) {
	states := []ThesisState{StateUnderAssignment, StateActive, StateUnderReview, StateCompleted, StateCancelled}
	for _, to := range states {
		if StateCompleted.CanTransitionTo(to) {
			t.Errorf("COMPLETED must not transition to %s", to)
		}
	}
}

func TestThesisState_Terminal(t *testing.T) {
	cases := map[ThesisState]bool{
		StateUnderAssignment: false,
		StateActive:          false,
		StateUnderReview:     false,
		StateCompleted:       true,
		StateCancelled:       true,
	}
	for state, want := range cases {
		if got := state.Terminal(); got != want {
			t.Errorf("Terminal(%s) = %v, want %v", state, got, want)
		}
	}
}

func TestThesisState_Valid(t *testing.T) {
	if !StateActive.Valid() {
		t.Error("ACTIVE should be valid")
	}
	if ThesisState("PAUSED").Valid() {
		t.Error("unknown state should not be valid")
	}
	if ThesisState("").Valid() {
		t.Error("empty state should not be valid")
	}
}

func TestThesis_CommitteeMembership(t *testing.T) {
	now := time.Now()
	thesis := &Thesis{
		Committee: []CommitteeMember{
			{InstructorID: 10, Role: CommitteeSupervisor, AcceptedAt: &now},
			{InstructorID: 20, Role: CommitteeMemberRole, AcceptedAt: &now},
			{InstructorID: 30, Role: CommitteeMemberRole}, // invited, not accepted
		},
	}

	if !thesis.IsCommitteeMember(30) {
		t.Error("pending member should still count as a committee member")
	}
	if thesis.IsAcceptedCommitteeMember(30) {
		t.Error("pending member must not count as accepted")
	}
	if !thesis.IsAcceptedCommitteeMember(20) {
		t.Error("accepted member should count as accepted")
	}
	if thesis.IsCommitteeMember(99) {
		t.Error("stranger must not count as a committee member")
	}
}

func TestRole_Valid(t *testing.T) {
	for _, r := range []Role{RoleStudent, RoleInstructor, RoleSecretary} {
		if !r.Valid() {
			t.Errorf("role %s should be valid", r)
		}
	}
	if Role("admin").Valid() {
		t.Error("unknown role should not be valid")
	}
}
