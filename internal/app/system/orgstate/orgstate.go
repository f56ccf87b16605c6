// Package orgstate holds the pure decision logic that maps an observed
// organization-membership event onto a roster student's OrgStatus.
//
// Transitions are unconditional overwrites: later events always win, with no
// ordering or versioning check against event timestamps. Reprocessing the
// same event is therefore safe (the sender's retries are idempotent here).
package orgstate

import "github.com/dalemusser/rosterhub/internal/domain/models"

// Action is an organization-membership webhook action.
type Action string

const (
	MemberAdded   Action = "member_added"
	MemberInvited Action = "member_invited"
	MemberRemoved Action = "member_removed"
)

// IsKnown reports whether a is one of the actions that can ever
// produce a transition.
func (a Action) IsKnown() bool {
	switch a {
	case MemberAdded, MemberInvited, MemberRemoved:
		return true
	}
	return false
}

// Confirms reports whether a confirms an organization membership,
// as opposed to opening or revoking one.
func (a Action) Confirms() bool {
	return a == MemberAdded
}

// Transition returns the status a roster student should hold after observing
// action, given its current status. ok is false when the action is not
// recognized, in which case next equals current and no transition applies.
func Transition(current models.OrgStatus, action Action) (next models.OrgStatus, ok bool) {
	switch action {
	case MemberAdded:
		return models.OrgStatusMember, true
	case MemberInvited:
		return models.OrgStatusInvited, true
	case MemberRemoved:
		return models.OrgStatusNone, true
	}
	return current, false
}
