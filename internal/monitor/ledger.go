package monitor

import (
	"sort"
	"sync"
	"time"
)

type (
	ActivityRecord struct {
		At       time.Time
		AuthorID string
	}

	MessageRecord struct {
		Content  string
		AuthorID string
	}

	// State is a point-in-time copy of the ledger.
	State struct {
		Activity           []ActivityRecord
		Messages           []MessageRecord
		Warned             []string
		RemovedTemporarily []string
		RemovedPermanently []string
	}

	// Counts are an author's frequency and duplicate counts right before and right after a message was recorded.
	Counts struct {
		PrevSpam      int
		Spam          int
		PrevDuplicate int
		Duplicate     int
	}
)

// Ledger holds the process-wide activity and message logs and the escalation sets.
// Records are only removed by Purge, Reset or the optional size limit.
type Ledger struct {
	mu          sync.RWMutex
	activity    []ActivityRecord
	messages    []MessageRecord
	escalations map[Tier]map[string]struct{}
	// reached holds tiers an author hit while their action was disabled. It gates the tier
	// like an escalation mark but never exempts the author.
	reached map[Tier]map[string]struct{}
	limit   int
}

func NewLedger(limit int) *Ledger {
	return &Ledger{
		activity:    []ActivityRecord{},
		messages:    []MessageRecord{},
		escalations: newEscalations(),
		reached:     newEscalations(),
		limit:       limit,
	}
}

func newEscalations() map[Tier]map[string]struct{} {
	return map[Tier]map[string]struct{}{
		TierWarn: {},
		TierKick: {},
		TierBan:  {},
	}
}

// Record appends one activity and one message record for the author and returns the counts around the append.
func (l *Ledger) Record(authorID, content string, at time.Time, window time.Duration) Counts {
	l.mu.Lock()
	defer l.mu.Unlock()

	since := at.Add(-window)
	c := Counts{
		PrevSpam:      l.countActivity(authorID, since, at),
		PrevDuplicate: l.countDuplicates(authorID, content),
	}

	l.activity = append(l.activity, ActivityRecord{At: at, AuthorID: authorID})
	l.messages = append(l.messages, MessageRecord{Content: content, AuthorID: authorID})
	l.trim()

	c.Spam = l.countActivity(authorID, since, at)
	c.Duplicate = l.countDuplicates(authorID, content)
	return c
}

func (l *Ledger) countActivity(authorID string, since, until time.Time) int {
	n := 0
	for _, r := range l.activity {
		if r.AuthorID != authorID || r.At.Before(since) || r.At.After(until) {
			continue
		}
		n++
	}
	return n
}

func (l *Ledger) countDuplicates(authorID, content string) int {
	n := 0
	for _, r := range l.messages {
		if r.AuthorID == authorID && r.Content == content {
			n++
		}
	}
	return n
}

func (l *Ledger) trim() {
	if l.limit <= 0 {
		return
	}
	if over := len(l.activity) - l.limit; over > 0 {
		l.activity = append([]ActivityRecord(nil), l.activity[over:]...)
	}
	if over := len(l.messages) - l.limit; over > 0 {
		l.messages = append([]MessageRecord(nil), l.messages[over:]...)
	}
}

// Purge drops every record of the author. Escalation marks are kept.
func (l *Ledger) Purge(authorID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	activity := l.activity[:0]
	for _, r := range l.activity {
		if r.AuthorID != authorID {
			activity = append(activity, r)
		}
	}
	l.activity = activity

	messages := l.messages[:0]
	for _, r := range l.messages {
		if r.AuthorID != authorID {
			messages = append(messages, r)
		}
	}
	l.messages = messages
}

// Mark adds the author to the tier's escalation set and reports whether it was not there yet.
func (l *Ledger) Mark(tier Tier, authorID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return addTo(l.escalations, tier, authorID)
}

func (l *Ledger) Marked(tier Tier, authorID string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.escalations[tier][authorID]
	return ok
}

// Reach records that the author hit a tier whose action is disabled.
func (l *Ledger) Reach(tier Tier, authorID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return addTo(l.reached, tier, authorID)
}

func (l *Ledger) Reached(tier Tier, authorID string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.reached[tier][authorID]
	return ok
}

func addTo(sets map[Tier]map[string]struct{}, tier Tier, authorID string) bool {
	set, ok := sets[tier]
	if !ok {
		return false
	}
	if _, found := set[authorID]; found {
		return false
	}
	set[authorID] = struct{}{}
	return true
}

func (l *Ledger) Snapshot() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshot()
}

// Reset clears both logs and all escalation sets at once and returns what was cleared.
func (l *Ledger) Reset() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	state := l.snapshot()
	l.activity = []ActivityRecord{}
	l.messages = []MessageRecord{}
	l.escalations = newEscalations()
	l.reached = newEscalations()
	return state
}

func (l *Ledger) snapshot() State {
	return State{
		Activity:           append([]ActivityRecord{}, l.activity...),
		Messages:           append([]MessageRecord{}, l.messages...),
		Warned:             setKeys(l.escalations[TierWarn]),
		RemovedTemporarily: setKeys(l.escalations[TierKick]),
		RemovedPermanently: setKeys(l.escalations[TierBan]),
	}
}

func setKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
