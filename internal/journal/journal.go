package journal

import (
	"context"
	"time"

	"github.com/pborman/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/spamguard/internal/db"
	"github.com/iamwavecut/spamguard/internal/event"
	"github.com/iamwavecut/spamguard/internal/monitor"
)

type Store interface {
	InsertModerationEvent(ctx context.Context, ev *db.ModerationEvent) error
}

// Journal persists every monitor notification off the evaluation path.
type Journal struct {
	store  Store
	worker *event.Worker
	now    func() time.Time
}

func New(store Store, queueSize int) *Journal {
	j := &Journal{
		store: store,
		now:   time.Now,
	}
	j.worker = event.NewWorker("journal", queueSize, j.handle)
	return j
}

// Attach subscribes the journal to every monitor notification on the bus.
func (j *Journal) Attach(bus *event.Bus) {
	j.worker.Attach(bus, monitor.EventTypes...)
}

func (j *Journal) Start(ctx context.Context) error {
	return j.worker.Start(ctx)
}

func (j *Journal) Stop(ctx context.Context) error {
	return j.worker.Stop(ctx)
}

func (j *Journal) handle(ctx context.Context, ev event.Queueable) {
	entry := Entry(ev, j.now())
	if entry == nil {
		return
	}
	if err := j.store.InsertModerationEvent(ctx, entry); err != nil {
		getLogEntry().WithError(err).WithField("kind", entry.Kind).Error("cant journal event")
	}
}

// Entry converts a monitor notification into a journal row. Unknown events yield nil.
func Entry(ev event.Queueable, at time.Time) *db.ModerationEvent {
	var (
		msg   *monitor.Message
		entry = &db.ModerationEvent{
			ID:        uuid.New(),
			Kind:      ev.Type(),
			CreatedAt: at.UTC(),
		}
	)
	switch e := ev.(type) {
	case *monitor.TierEvent:
		msg = e.Message
		entry.Action = e.Tier.String()
		entry.Duplicate = e.Duplicate
	case *monitor.MemberEvent:
		msg = e.Message
		entry.Action = memberAction(e.Type())
	case *monitor.DispatchErrorEvent:
		msg = e.Message
		entry.Action = e.Action.String()
		if e.Err != nil {
			entry.Error = e.Err.Error()
		}
	default:
		return nil
	}
	if msg == nil {
		return nil
	}
	entry.UserID = msg.Author.ID
	entry.UserTag = msg.Author.Tag
	entry.ChannelID = msg.Channel.ID
	if msg.Guild != nil {
		entry.GuildID = msg.Guild.ID
	}
	return entry
}

func memberAction(kind string) string {
	switch kind {
	case monitor.EventMemberWarned:
		return monitor.TierWarn.String()
	case monitor.EventMemberRemovedTemporarily:
		return monitor.TierKick.String()
	case monitor.EventMemberRemovedPermanently:
		return monitor.TierBan.String()
	}
	return ""
}

func getLogEntry() *log.Entry {
	return log.WithField("object", "Journal")
}
