package monitor

// exempt reports whether the message is skipped entirely, and why.
func (m *Monitor) exempt(msg *Message) (string, bool) {
	cfg := m.cfg
	switch {
	case msg.Channel.Direct:
		return "direct message", true
	case msg.Author.ID == m.moderator.Self().ID:
		return "own message", true
	case msg.Guild.OwnerID == msg.Author.ID && !cfg.Debug:
		return "guild owner", true
	case cfg.IgnoreBots && msg.Author.Bot:
		return "bot", true
	}

	member := msg.member()
	for _, permission := range cfg.IgnoredPermissions {
		if member.HasPermission(permission) {
			return "exempt permission", true
		}
	}
	switch {
	case cfg.IgnoredRoles.Match(member.Roles, member.roleKeys()...):
		return "ignored role", true
	case cfg.IgnoredUsers.Match(member, msg.Author.ID):
		return "ignored user", true
	case cfg.IgnoredGuilds.Match(msg.Guild, msg.Guild.ID):
		return "ignored guild", true
	case cfg.IgnoredChannels.Match(msg.Channel, msg.Channel.ID):
		return "ignored channel", true
	case m.ledger.Marked(TierBan, msg.Author.ID):
		return "removed permanently", true
	}
	return "", false
}
