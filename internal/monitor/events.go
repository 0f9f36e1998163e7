package monitor

import (
	"github.com/iamwavecut/spamguard/internal/event"
)

const (
	EventMemberWarned             = "member_warned"
	EventMemberRemovedTemporarily = "member_removed_temporarily"
	EventMemberRemovedPermanently = "member_removed_permanently"
	EventTierWarnReached          = "tier_warn_reached"
	EventTierKickReached          = "tier_kick_reached"
	EventTierBanReached           = "tier_ban_reached"
	EventDispatchError            = "dispatch_error"
)

// EventTypes lists every notification the monitor publishes.
var EventTypes = []string{
	EventMemberWarned,
	EventMemberRemovedTemporarily,
	EventMemberRemovedPermanently,
	EventTierWarnReached,
	EventTierKickReached,
	EventTierBanReached,
	EventDispatchError,
}

type (
	// MemberEvent is published after an action was carried out against a member.
	MemberEvent struct {
		*event.Base
		Message *Message
		Member  *Member
	}

	// TierEvent is published whenever a tier is reached, whether or not its action is enabled.
	TierEvent struct {
		*event.Base
		Tier      Tier
		Message   *Message
		Member    *Member
		Duplicate bool
	}

	// DispatchErrorEvent is published when the platform rejected a removal.
	// A subscriber that calls Process takes over reporting.
	DispatchErrorEvent struct {
		*event.Base
		Message *Message
		Err     error
		Action  Tier
	}
)

func tierEventType(t Tier) string {
	switch t {
	case TierWarn:
		return EventTierWarnReached
	case TierKick:
		return EventTierKickReached
	default:
		return EventTierBanReached
	}
}

func (m *Monitor) emitMember(eventType string, msg *Message, member *Member) {
	m.bus.Publish(&MemberEvent{
		Base:    event.CreateBase(eventType),
		Message: msg,
		Member:  member,
	})
}

func (m *Monitor) emitTier(t trigger, msg *Message, member *Member) {
	m.bus.Publish(&TierEvent{
		Base:      event.CreateBase(tierEventType(t.tier)),
		Tier:      t.tier,
		Message:   msg,
		Member:    member,
		Duplicate: t.duplicate,
	})
}

// emitDispatchError reports whether a subscriber handled the error.
func (m *Monitor) emitDispatchError(msg *Message, err error, action Tier) bool {
	return m.bus.Publish(&DispatchErrorEvent{
		Base:    event.CreateBase(EventDispatchError),
		Message: msg,
		Err:     err,
		Action:  action,
	})
}
