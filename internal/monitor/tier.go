package monitor

// Tier is an escalation step. Higher tiers are more severe.
type Tier int

const (
	TierWarn Tier = iota + 1
	TierKick
	TierBan
)

func (t Tier) String() string {
	switch t {
	case TierWarn:
		return "warn"
	case TierKick:
		return "kick"
	case TierBan:
		return "ban"
	default:
		return "unknown"
	}
}

type trigger struct {
	tier      Tier
	duplicate bool
}

// crossed reports whether a count moved from below the threshold to at or above it.
func crossed(prev, cur, threshold int) bool {
	return prev < threshold && cur >= threshold
}

// decide picks the single tier to act on, checked in warn, kick, ban order.
// Ban has no prior-state guard.
func (m *Monitor) decide(authorID string, c Counts) (trigger, bool) {
	cfg := m.cfg

	spam := crossed(c.PrevSpam, c.Spam, cfg.WarnThreshold)
	dup := crossed(c.PrevDuplicate, c.Duplicate, cfg.MaxDuplicatesWarning)
	if !m.passed(TierWarn, authorID) && (spam || dup) {
		return trigger{tier: TierWarn, duplicate: dup}, true
	}

	spam = crossed(c.PrevSpam, c.Spam, cfg.KickThreshold)
	dup = crossed(c.PrevDuplicate, c.Duplicate, cfg.MaxDuplicatesKick)
	if !m.passed(TierKick, authorID) && (spam || dup) {
		return trigger{tier: TierKick, duplicate: dup}, true
	}

	spam = crossed(c.PrevSpam, c.Spam, cfg.BanThreshold)
	dup = crossed(c.PrevDuplicate, c.Duplicate, cfg.MaxDuplicatesBan)
	if spam || dup {
		return trigger{tier: TierBan, duplicate: dup}, true
	}
	return trigger{}, false
}

// passed reports whether the author already went through the tier in this episode, acted on or not.
func (m *Monitor) passed(tier Tier, authorID string) bool {
	return m.ledger.Marked(tier, authorID) || m.ledger.Reached(tier, authorID)
}

func (m *Monitor) enabled(tier Tier) bool {
	switch tier {
	case TierWarn:
		return m.cfg.WarnEnabled
	case TierKick:
		return m.cfg.KickEnabled
	case TierBan:
		return m.cfg.BanEnabled
	}
	return false
}
