package bot

import (
	"context"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/spamguard/internal/monitor"
)

const (
	UpdateTimeout = 5 * time.Minute
)

type (
	Evaluator interface {
		Evaluate(ctx context.Context, msg *monitor.Message) (bool, error)
	}

	// Converter turns Telegram messages into monitor messages and tracks chat admin changes.
	Converter interface {
		Message(ctx context.Context, msg *api.Message) (*monitor.Message, error)
		Forget(chatID int64)
	}

	UpdateProcessor struct {
		converter Converter
		evaluator Evaluator
		now       func() time.Time
	}
)

func NewUpdateProcessor(converter Converter, evaluator Evaluator) *UpdateProcessor {
	return &UpdateProcessor{
		converter: converter,
		evaluator: evaluator,
		now:       time.Now,
	}
}

// Process feeds new group messages to the monitor. Edits, outdated updates and everything
// without a human sender are skipped.
func (up *UpdateProcessor) Process(ctx context.Context, u *api.Update) error {
	if u == nil {
		return errors.New("update is nil")
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	switch {
	case u.MyChatMember != nil:
		up.converter.Forget(u.MyChatMember.Chat.ID)
		return nil
	case u.ChatMember != nil:
		up.converter.Forget(u.ChatMember.Chat.ID)
		return nil
	case u.Message == nil:
		return nil
	}

	updateTime := time.Unix(int64(u.Message.Date), 0)
	if age := up.now().Sub(updateTime); age > UpdateTimeout {
		getLogEntry().WithFields(log.Fields{
			"update_time": updateTime,
			"age":         age,
		}).Debug("Skipping outdated update")
		return nil
	}

	msg, err := up.converter.Message(ctx, u.Message)
	if err != nil {
		return errors.WithMessage(err, "cant convert message")
	}
	if msg == nil {
		log.Trace("not proceeding")
		return nil
	}
	triggered, err := up.evaluator.Evaluate(ctx, msg)
	if err != nil {
		return errors.WithMessage(err, "evaluation error")
	}
	if triggered {
		getLogEntry().WithFields(log.Fields{
			"chat_id": msg.Channel.ID,
			"user_id": msg.Author.ID,
		}).Debug("spam tier reached")
	}
	return nil
}

func getLogEntry() *log.Entry {
	return log.WithField("object", "UpdateProcessor")
}
