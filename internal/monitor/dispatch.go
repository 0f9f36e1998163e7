package monitor

import (
	"context"

	"github.com/iamwavecut/spamguard/internal/observability"
)

const removalReason = "Spamming!"

const (
	actionPerformed    = "performed"
	actionDisabled     = "disabled"
	actionNotPermitted = "not_permitted"
	actionFailed       = "failed"
)

func (m *Monitor) dispatch(ctx context.Context, t trigger, msg *Message, member *Member) {
	if !m.enabled(t.tier) {
		observability.RecordAction(t.tier.String(), actionDisabled)
		return
	}

	switch t.tier {
	case TierWarn:
		m.warn(ctx, msg, member)
	case TierKick:
		m.kick(ctx, msg, member)
	case TierBan:
		m.ban(ctx, msg, member)
	}
}

func (m *Monitor) warn(ctx context.Context, msg *Message, member *Member) {
	m.emitMember(EventMemberWarned, msg, member)
	m.notify(ctx, msg, m.cfg.WarnMessage)
	observability.RecordAction(TierWarn.String(), actionPerformed)
}

func (m *Monitor) kick(ctx context.Context, msg *Message, member *Member) {
	if !member.Kickable {
		m.denied(ctx, msg, TierKick, m.cfg.KickErrorMessage)
		return
	}
	if err := m.moderator.RemoveMember(ctx, msg.Guild, member, removalReason); err != nil {
		m.failed(ctx, msg, err, TierKick, m.cfg.KickErrorMessage)
		return
	}
	m.notify(ctx, msg, m.cfg.KickMessage)
	m.emitMember(EventMemberRemovedTemporarily, msg, member)
	observability.RecordAction(TierKick.String(), actionPerformed)
}

func (m *Monitor) ban(ctx context.Context, msg *Message, member *Member) {
	if !member.Bannable {
		m.denied(ctx, msg, TierBan, m.cfg.BanErrorMessage)
		return
	}
	days := min(max(m.cfg.DeleteMessagesAfterBanForPastDays, 1), 7)
	if err := m.moderator.BanMember(ctx, msg.Guild, member, days, removalReason); err != nil {
		m.failed(ctx, msg, err, TierBan, m.cfg.BanErrorMessage)
		return
	}
	m.notify(ctx, msg, m.cfg.BanMessage)
	m.emitMember(EventMemberRemovedPermanently, msg, member)
	observability.RecordAction(TierBan.String(), actionPerformed)
}

func (m *Monitor) denied(ctx context.Context, msg *Message, action Tier, notice Template) {
	if m.cfg.Verbose {
		m.getLogEntry(msg).WithField("action", action.String()).Warn("insufficient permissions to remove member")
	}
	if m.cfg.ErrorMessages {
		m.notify(ctx, msg, notice)
	}
	observability.RecordAction(action.String(), actionNotPermitted)
}

func (m *Monitor) failed(ctx context.Context, msg *Message, err error, action Tier, notice Template) {
	observability.RecordAction(action.String(), actionFailed)
	if m.emitDispatchError(msg, err, action) {
		return
	}
	m.getLogEntry(msg).WithError(err).WithField("action", action.String()).Error("moderation action failed")
	if m.cfg.ErrorMessages {
		m.notify(ctx, msg, notice)
	}
}

// notify sends a formatted notice to the message channel. Delivery errors never propagate.
func (m *Monitor) notify(ctx context.Context, msg *Message, notice Template) {
	if notice.IsZero() {
		return
	}
	if err := m.moderator.Send(ctx, msg.Channel, notice.Format(placeholdersFor(msg))); err != nil && m.cfg.Verbose {
		m.getLogEntry(msg).WithError(err).Warn("failed to send notice")
	}
}
