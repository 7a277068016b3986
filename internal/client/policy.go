package client

import "github.com/peopledesk/directory-system/internal/core/domain"

// Action enumerates everything a viewer can attempt against the
// directory.
type Action int

const (
	ActionViewRoster Action = iota
	ActionCreate
	ActionEditProfile
	ActionDelete
	ActionPromote
	ActionDemote
	ActionChangePassword
)

// CanPerform decides whether session may perform action against target.
// Pure and total over the Action enum. Target may be nil for actions
// that have no target (ViewRoster, Create).
//
// This policy shapes the UI and pre-validates gateway calls; it is
// advisory only. The backing store re-enforces every rule and remains
// the sole real gate.
func CanPerform(session Session, target *domain.User, action Action) bool {
	if session.SubjectID == "" {
		return false
	}

	switch action {
	case ActionViewRoster:
		return true
	case ActionCreate:
		return session.IsAdmin
	case ActionEditProfile, ActionDelete:
		return session.IsAdmin || (target != nil && session.SubjectID == target.ID)
	case ActionPromote:
		return session.IsAdmin && target != nil && target.Role != domain.RoleAdmin
	case ActionDemote:
		// An admin may never demote themselves through this path.
		return session.IsAdmin && target != nil &&
			target.Role == domain.RoleAdmin && target.ID != session.SubjectID
	case ActionChangePassword:
		if target == nil {
			return false
		}
		if target.ID == session.SubjectID {
			return true
		}
		return session.IsAdmin
	default:
		return false
	}
}
