// Package permissions decides what a group member may do to another member
// or to the group's memos, given only their roles.
package permissions

import "github.com/anonto42/memomap/backend/internal/models"

// rank orders roles by privilege. Unknown roles rank below VIEWER.
func rank(r models.Role) int {
	switch r {
	case models.RoleOwner:
		return 4
	case models.RoleAdmin:
		return 3
	case models.RoleEditor:
		return 2
	case models.RoleViewer:
		return 1
	}
	return 0
}

// Outranks reports whether a is strictly more privileged than b.
func Outranks(a, b models.Role) bool {
	return rank(a) > rank(b)
}

// CanChangeRole reports whether the actor may change the target's role at all.
// Nobody edits their own role, and only OWNER and ADMIN edit roles, and only
// of members they outrank.
func CanChangeRole(actorRole, targetRole models.Role, actorID, targetID uint) bool {
	if actorID == targetID || !CanManageMembers(actorRole) {
		return false
	}
	return Outranks(actorRole, targetRole)
}

// CanAssignRole reports whether the actor may hand out newRole.
// OWNER is never assignable: there is no ownership transfer.
func CanAssignRole(actorRole, newRole models.Role) bool {
	if !CanManageMembers(actorRole) || !newRole.Valid() {
		return false
	}
	return Outranks(actorRole, newRole)
}

// CanRemoveMember reports whether the actor may remove the target from the
// group. Leaving is always allowed; an OWNER leaving deletes the group.
func CanRemoveMember(actorRole, targetRole models.Role, actorID, targetID uint) bool {
	if actorID == targetID {
		return true
	}
	switch actorRole {
	case models.RoleOwner:
		return targetRole != models.RoleOwner
	case models.RoleAdmin:
		return targetRole == models.RoleEditor || targetRole == models.RoleViewer
	}
	return false
}

// CanManageMembers covers inviting members and renaming the group.
func CanManageMembers(r models.Role) bool {
	return r == models.RoleOwner || r == models.RoleAdmin
}

// CanWriteMemos covers creating, editing and completing group memos.
func CanWriteMemos(r models.Role) bool {
	return rank(r) >= rank(models.RoleEditor)
}

// CanModerateMemos covers deleting memos created by someone else.
func CanModerateMemos(r models.Role) bool {
	return r == models.RoleOwner || r == models.RoleAdmin
}
