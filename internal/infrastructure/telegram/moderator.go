package telegram

import (
	"context"
	"strconv"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/iamwavecut/spamguard/internal/monitor"
)

const adminCacheSize = 1024

// BotAPI is the part of the Telegram client the moderator needs.
type BotAPI interface {
	Send(c api.Chattable) (api.Message, error)
	Request(c api.Chattable) (*api.APIResponse, error)
	GetChatAdministrators(config api.ChatAdministratorsConfig) ([]api.ChatMember, error)
}

type Options struct {
	SendRate      float64
	SendBurst     int
	AdminCacheTTL time.Duration
}

// Moderator carries out monitor actions in Telegram group chats.
type Moderator struct {
	bot     BotAPI
	self    api.User
	limiter *rate.Limiter
	admins  *expirable.LRU[int64, []api.ChatMember]
}

var _ monitor.Moderator = (*Moderator)(nil)

func NewModerator(bot BotAPI, self api.User, opts Options) *Moderator {
	limit := rate.Inf
	if opts.SendRate > 0 {
		limit = rate.Limit(opts.SendRate)
	}
	burst := opts.SendBurst
	if burst < 1 {
		burst = 1
	}
	ttl := opts.AdminCacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Moderator{
		bot:     bot,
		self:    self,
		limiter: rate.NewLimiter(limit, burst),
		admins:  expirable.NewLRU[int64, []api.ChatMember](adminCacheSize, nil, ttl),
	}
}

func (m *Moderator) Self() monitor.User {
	return userFrom(&m.self)
}

// Send renders the notice to HTML and posts it silently, waiting for the send limiter first.
func (m *Moderator) Send(ctx context.Context, channel monitor.Channel, notice monitor.Template) error {
	chatID, err := parseID(channel.ID)
	if err != nil {
		return err
	}
	text := RenderHTML(notice)
	if text == "" {
		return nil
	}
	if err := m.limiter.Wait(ctx); err != nil {
		return errors.WithMessage(err, "send limiter")
	}
	msg := api.NewMessage(chatID, text)
	msg.ParseMode = api.ModeHTML
	msg.DisableNotification = true
	if _, err := m.bot.Send(msg); err != nil {
		return errors.WithMessage(err, "cant send notice")
	}
	return nil
}

// RemoveMember kicks the member: a ban immediately lifted, so they may rejoin.
func (m *Moderator) RemoveMember(ctx context.Context, guild *monitor.Guild, member *monitor.Member, reason string) error {
	chatID, userID, err := target(guild, member)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := m.bot.Request(api.BanChatMemberConfig{
		ChatMemberConfig: api.ChatMemberConfig{
			ChatConfig: api.ChatConfig{ChatID: chatID},
			UserID:     userID,
		},
	}); err != nil {
		return errors.WithMessage(err, "cant kick")
	}
	if _, err := m.bot.Request(api.UnbanChatMemberConfig{
		ChatMemberConfig: api.ChatMemberConfig{
			ChatConfig: api.ChatConfig{ChatID: chatID},
			UserID:     userID,
		},
		OnlyIfBanned: true,
	}); err != nil {
		return errors.WithMessage(err, "cant lift kick")
	}
	getLogEntry().WithFields(log.Fields{
		"chat_id": chatID,
		"user_id": userID,
		"reason":  reason,
	}).Info("member kicked")
	return nil
}

// BanMember bans for good. Telegram can only revoke all of a member's messages, so any positive
// number of days revokes them.
func (m *Moderator) BanMember(ctx context.Context, guild *monitor.Guild, member *monitor.Member, deleteMessageDays int, reason string) error {
	chatID, userID, err := target(guild, member)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := m.bot.Request(api.BanChatMemberConfig{
		ChatMemberConfig: api.ChatMemberConfig{
			ChatConfig: api.ChatConfig{ChatID: chatID},
			UserID:     userID,
		},
		RevokeMessages: deleteMessageDays > 0,
	}); err != nil {
		return errors.WithMessage(err, "cant ban")
	}
	getLogEntry().WithFields(log.Fields{
		"chat_id": chatID,
		"user_id": userID,
		"reason":  reason,
	}).Info("member banned")
	return nil
}

// Admins returns the chat administrators, cached per chat.
func (m *Moderator) Admins(ctx context.Context, chatID int64) ([]api.ChatMember, error) {
	if admins, ok := m.admins.Get(chatID); ok {
		return admins, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	admins, err := m.bot.GetChatAdministrators(api.ChatAdministratorsConfig{
		ChatConfig: api.ChatConfig{ChatID: chatID},
	})
	if err != nil {
		return nil, errors.WithMessage(err, "cant get chat administrators")
	}
	m.admins.Add(chatID, admins)
	return admins, nil
}

// Forget drops the cached administrators of a chat, e.g. after a membership change.
func (m *Moderator) Forget(chatID int64) {
	m.admins.Remove(chatID)
}

// Message converts a Telegram message into the monitor's view. It returns nil for messages
// without a human sender, such as channel posts and anonymous admins.
func (m *Moderator) Message(ctx context.Context, msg *api.Message) (*monitor.Message, error) {
	if msg == nil || msg.From == nil || msg.SenderChat != nil {
		return nil, nil
	}
	var admins []api.ChatMember
	if msg.Chat.Type != chatTypePrivate {
		var err error
		if admins, err = m.Admins(ctx, msg.Chat.ID); err != nil {
			return nil, err
		}
	}
	return ConvertMessage(msg, admins, m.self.ID), nil
}

func target(guild *monitor.Guild, member *monitor.Member) (int64, int64, error) {
	if guild == nil || member == nil {
		return 0, 0, errors.New("missing guild or member")
	}
	chatID, err := parseID(guild.ID)
	if err != nil {
		return 0, 0, err
	}
	userID, err := parseID(member.User.ID)
	if err != nil {
		return 0, 0, err
	}
	return chatID, userID, nil
}

func parseID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid telegram id %q", id)
	}
	return n, nil
}

func getLogEntry() *log.Entry {
	return log.WithField("object", "TelegramModerator")
}
