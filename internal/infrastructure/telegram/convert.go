package telegram

import (
	"strconv"
	"strings"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"

	"github.com/iamwavecut/spamguard/internal/monitor"
	"github.com/iamwavecut/spamguard/internal/policy/permissions"
)

const (
	chatTypePrivate = "private"

	statusCreator       = "creator"
	statusAdministrator = "administrator"
	statusMember        = "member"
)

// ConvertMessage builds the monitor message from a Telegram message and the chat administrators.
// selfID is the bot's own user id, used to decide whether the author can be removed.
func ConvertMessage(msg *api.Message, admins []api.ChatMember, selfID int64) *monitor.Message {
	if msg == nil || msg.From == nil {
		return nil
	}
	chatID := strconv.FormatInt(msg.Chat.ID, 10)
	author := userFrom(msg.From)
	out := &monitor.Message{
		ID:        strconv.Itoa(msg.MessageID),
		Author:    author,
		Content:   ExtractContent(msg),
		CreatedAt: time.Unix(int64(msg.Date), 0),
		Channel: monitor.Channel{
			ID:     chatID,
			Name:   chatName(msg),
			Direct: msg.Chat.Type == chatTypePrivate,
		},
	}
	if out.Channel.Direct {
		return out
	}

	out.Guild = &monitor.Guild{ID: chatID, Name: msg.Chat.Title}
	var authorAdmin, selfAdmin *api.ChatMember
	for i := range admins {
		admin := &admins[i]
		if admin.User == nil {
			continue
		}
		if admin.IsCreator() {
			out.Guild.OwnerID = strconv.FormatInt(admin.User.ID, 10)
		}
		switch admin.User.ID {
		case msg.From.ID:
			authorAdmin = admin
		case selfID:
			selfAdmin = admin
		}
	}

	member := &monitor.Member{User: author}
	if authorAdmin != nil {
		member.Roles = rolesOf(authorAdmin)
		member.Permissions = permissionsOf(authorAdmin)
	} else {
		member.Roles = []monitor.Role{{ID: statusMember, Name: statusMember}}
	}
	removable := permissions.CanRemoveMembers(selfAdmin) && authorAdmin == nil
	member.Kickable = removable
	member.Bannable = removable
	out.Member = member
	return out
}

func userFrom(u *api.User) monitor.User {
	if u == nil {
		return monitor.User{}
	}
	tag := GetUN(u)
	mention := tag
	if u.UserName != "" {
		mention = "@" + u.UserName
	}
	return monitor.User{
		ID:      strconv.FormatInt(u.ID, 10),
		Tag:     tag,
		Mention: mention,
		Bot:     u.IsBot,
	}
}

func rolesOf(admin *api.ChatMember) []monitor.Role {
	roles := []monitor.Role{{ID: admin.Status, Name: admin.Status}}
	if admin.CustomTitle != "" {
		roles = append(roles, monitor.Role{ID: "title:" + admin.CustomTitle, Name: admin.CustomTitle})
	}
	for _, id := range permissions.DerivedRoles(admin) {
		roles = append(roles, monitor.Role{ID: id, Name: id})
	}
	return roles
}

// permissionsOf lists the granted admin rights by their Bot API names.
func permissionsOf(admin *api.ChatMember) []string {
	var perms []string
	if admin.IsCreator() {
		perms = append(perms, statusCreator)
	}
	if admin.IsCreator() || admin.IsAdministrator() {
		perms = append(perms, statusAdministrator)
	}
	rights := []struct {
		name    string
		granted bool
	}{
		{"can_manage_chat", admin.CanManageChat},
		{"can_delete_messages", admin.CanDeleteMessages},
		{"can_restrict_members", admin.CanRestrictMembers},
		{"can_promote_members", admin.CanPromoteMembers},
		{"can_change_info", admin.CanChangeInfo},
		{"can_invite_users", admin.CanInviteUsers},
		{"can_pin_messages", admin.CanPinMessages},
	}
	for _, r := range rights {
		if r.granted || admin.IsCreator() {
			perms = append(perms, r.name)
		}
	}
	return perms
}

func chatName(msg *api.Message) string {
	if msg.Chat.Title != "" {
		return msg.Chat.Title
	}
	return msg.Chat.UserName
}

func GetUN(user *api.User) string {
	if user == nil {
		return ""
	}
	userName := user.UserName
	if len(userName) == 0 {
		userName = strings.TrimSpace(user.FirstName + " " + user.LastName)
	}
	return userName
}
