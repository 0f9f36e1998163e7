package permissions

import api "github.com/OvyFlash/telegram-bot-api"

// Derived role ids, usable in ignored_roles next to the raw member status.
const (
	RoleManager   = "manager"
	RoleModerator = "moderator"
)

// IsManager reports whether the member runs the chat: its creator, or an admin able to manage it
// or promote others.
func IsManager(member *api.ChatMember) bool {
	if member == nil {
		return false
	}
	if member.IsCreator() {
		return true
	}
	return member.IsAdministrator() && (member.CanManageChat || member.CanPromoteMembers)
}

// CanRemoveMembers reports whether the member may ban and unban others.
func CanRemoveMembers(member *api.ChatMember) bool {
	if member == nil {
		return false
	}
	if member.IsCreator() {
		return true
	}
	return member.IsAdministrator() && member.CanRestrictMembers
}

// DerivedRoles lists the derived role ids the member holds.
func DerivedRoles(member *api.ChatMember) []string {
	var roles []string
	if IsManager(member) {
		roles = append(roles, RoleManager)
	}
	if CanRemoveMembers(member) {
		roles = append(roles, RoleModerator)
	}
	return roles
}
