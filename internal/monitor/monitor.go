package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/iamwavecut/spamguard/internal/event"
	"github.com/iamwavecut/spamguard/internal/observability"
)

const tracerName = "spamguard/monitor"

var ErrInvalidMessage = errors.New("invalid message")

// Moderator is the chat platform as seen by the monitor.
type Moderator interface {
	// Self is the identity the moderator acts as.
	Self() User
	Send(ctx context.Context, channel Channel, notice Template) error
	RemoveMember(ctx context.Context, guild *Guild, member *Member, reason string) error
	BanMember(ctx context.Context, guild *Guild, member *Member, deleteMessageDays int, reason string) error
}

// Monitor tracks per-author message rate and duplicate content and escalates warn, kick, ban.
type Monitor struct {
	cfg         Config
	moderator   Moderator
	ledger      *Ledger
	bus         *event.Bus
	authorLocks *xsync.Map[string, *sync.Mutex]
	now         func() time.Time
	logger      *log.Entry
}

type Option func(*Monitor)

func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		m.now = now
	}
}

// WithBus publishes notifications on an existing bus instead of a private one.
func WithBus(bus *event.Bus) Option {
	return func(m *Monitor) {
		m.bus = bus
	}
}

func WithLogger(entry *log.Entry) Option {
	return func(m *Monitor) {
		m.logger = entry
	}
}

func New(cfg Config, moderator Moderator, opts ...Option) *Monitor {
	m := &Monitor{
		cfg:         cfg,
		moderator:   moderator,
		ledger:      NewLedger(cfg.LedgerLimit),
		bus:         event.NewBus(),
		authorLocks: xsync.NewMap[string, *sync.Mutex](),
		now:         time.Now,
		logger:      log.WithField("object", "SpamMonitor"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Monitor) Config() Config {
	return m.cfg
}

// Events is the bus notifications are published on.
func (m *Monitor) Events() *event.Bus {
	return m.bus
}

// Evaluate records a message and acts on the first tier it reaches.
// It reports whether a tier was reached, regardless of whether the action is enabled or succeeded.
func (m *Monitor) Evaluate(ctx context.Context, msg *Message) (bool, error) {
	if err := validateMessage(msg); err != nil {
		return false, err
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "evaluate")
	defer span.End()
	done := observability.StartEvaluation()

	if reason, ok := m.exempt(msg); ok {
		if m.cfg.Debug {
			m.getLogEntry(msg).WithField("reason", reason).Debug("message exempt")
		}
		span.SetAttributes(attribute.String("spamguard.exempt", reason))
		observability.RecordMessage("exempt")
		done("exempt")
		return false, nil
	}

	t, ok := m.track(msg)
	if !ok {
		observability.RecordMessage("tracked")
		done("tracked")
		return false, nil
	}
	span.SetAttributes(
		attribute.String("spamguard.tier", t.tier.String()),
		attribute.Bool("spamguard.duplicate", t.duplicate),
	)

	member := msg.member()
	m.emitTier(t, msg, member)
	observability.RecordTier(t.tier.String(), t.duplicate)
	m.dispatch(ctx, t, msg, member)

	observability.RecordMessage("triggered")
	done("triggered")
	return true, nil
}

// track updates the ledger and decides under the author lock. The chosen tier is marked, or
// only recorded as reached when its action is disabled, before the lock is released, so
// concurrent messages of one author cannot fire it twice. Removals purge the author's records.
func (m *Monitor) track(msg *Message) (trigger, bool) {
	authorID := msg.Author.ID
	unlock := m.lockAuthor(authorID)
	defer unlock()

	if m.ledger.Marked(TierBan, authorID) {
		return trigger{}, false
	}

	counts := m.ledger.Record(authorID, msg.Content, m.now(), m.cfg.MaxInterval)
	t, ok := m.decide(authorID, counts)
	if m.cfg.Debug {
		m.getLogEntry(msg).WithFields(log.Fields{
			"spam_matches": counts.Spam,
			"dup_matches":  counts.Duplicate,
			"tier":         t.tier.String(),
		}).Debug("counted message")
	}
	if !ok {
		return t, false
	}

	if !m.enabled(t.tier) {
		m.ledger.Reach(t.tier, authorID)
		return t, true
	}
	m.ledger.Mark(t.tier, authorID)
	if t.tier != TierWarn {
		// a removed author starts over if they come back
		m.ledger.Purge(authorID)
	}
	return t, true
}

func (m *Monitor) lockAuthor(authorID string) func() {
	mu, _ := m.authorLocks.LoadOrStore(authorID, &sync.Mutex{})
	mu.Lock()
	return mu.Unlock
}

// Reset clears the ledger and every escalation set and returns the cleared state.
func (m *Monitor) Reset() State {
	state := m.ledger.Reset()
	m.logger.WithFields(log.Fields{
		"activity": len(state.Activity),
		"messages": len(state.Messages),
		"warned":   len(state.Warned),
		"kicked":   len(state.RemovedTemporarily),
		"banned":   len(state.RemovedPermanently),
	}).Info("monitor state reset")
	return state
}

func (m *Monitor) Snapshot() State {
	return m.ledger.Snapshot()
}

func validateMessage(msg *Message) error {
	switch {
	case msg == nil:
		return ErrInvalidMessage
	case msg.Author.ID == "":
		return errors.Join(ErrInvalidMessage, errors.New("missing author"))
	case !msg.Channel.Direct && msg.Guild == nil:
		return errors.Join(ErrInvalidMessage, errors.New("missing guild context"))
	}
	return nil
}

func (m *Monitor) getLogEntry(msg *Message) *log.Entry {
	entry := m.logger.WithFields(log.Fields{
		"user_id":    msg.Author.ID,
		"user_tag":   msg.Author.Tag,
		"channel_id": msg.Channel.ID,
	})
	if msg.Guild != nil {
		entry = entry.WithField("guild_id", msg.Guild.ID)
	}
	return entry
}
