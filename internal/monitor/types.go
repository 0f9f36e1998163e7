package monitor

import (
	"time"

	"github.com/iamwavecut/tool"
)

type (
	// User is the author of a message as seen by the platform.
	User struct {
		ID      string
		Tag     string
		Mention string
		Bot     bool
	}

	Role struct {
		ID   string
		Name string
	}

	// Member is the author's membership in the guild the message was posted to.
	// Kickable and Bannable tell whether the acting identity may remove this member.
	Member struct {
		User        User
		Roles       []Role
		Permissions []string
		Kickable    bool
		Bannable    bool
	}

	Guild struct {
		ID      string
		Name    string
		OwnerID string
	}

	Channel struct {
		ID     string
		Name   string
		Direct bool
	}

	Message struct {
		ID        string
		Author    User
		Member    *Member
		Guild     *Guild
		Channel   Channel
		Content   string
		CreatedAt time.Time
	}
)

func (m *Member) HasPermission(permission string) bool {
	if m == nil {
		return false
	}
	return tool.In(permission, m.Permissions...)
}

func (m *Member) roleKeys() []string {
	if m == nil {
		return nil
	}
	keys := make([]string, 0, len(m.Roles)*2)
	for _, r := range m.Roles {
		if r.ID != "" {
			keys = append(keys, r.ID)
		}
		if r.Name != "" {
			keys = append(keys, r.Name)
		}
	}
	return keys
}

// member returns the message member, falling back to a bare member built from the author.
func (msg *Message) member() *Member {
	if msg.Member != nil {
		return msg.Member
	}
	return &Member{User: msg.Author}
}

func (msg *Message) guildName() string {
	if msg.Guild == nil {
		return ""
	}
	return msg.Guild.Name
}
