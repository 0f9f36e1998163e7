package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamwavecut/spamguard/internal/monitor"
)

const (
	testChatID int64 = -1001
	testSelfID int64 = 99
)

type botStub struct {
	mu         sync.Mutex
	sent       []api.Chattable
	requests   []api.Chattable
	admins     []api.ChatMember
	adminCalls int
	sendErr    error
	requestErr error
}

func (b *botStub) Send(c api.Chattable) (api.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, c)
	return api.Message{}, b.sendErr
}

func (b *botStub) Request(c api.Chattable) (*api.APIResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, c)
	if b.requestErr != nil {
		return nil, b.requestErr
	}
	return &api.APIResponse{Ok: true}, nil
}

func (b *botStub) GetChatAdministrators(api.ChatAdministratorsConfig) ([]api.ChatMember, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.adminCalls++
	return b.admins, nil
}

func decode[T any](t *testing.T, raw string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v
}

func testAdmins(t *testing.T) []api.ChatMember {
	return decode[[]api.ChatMember](t, `[
		{"user": {"id": 1, "is_bot": false, "first_name": "Olga", "username": "owner"}, "status": "creator"},
		{"user": {"id": 7, "is_bot": false, "first_name": "Max"}, "status": "administrator", "custom_title": "janitor", "can_delete_messages": true},
		{"user": {"id": 99, "is_bot": true, "first_name": "Guard", "username": "guard_bot"}, "status": "administrator", "can_restrict_members": true}
	]`)
}

func testGroupMessage(t *testing.T, fromID int64) *api.Message {
	msg := decode[api.Message](t, `{
		"message_id": 5,
		"from": {"id": 42, "is_bot": false, "first_name": "Spam", "last_name": "Bot"},
		"chat": {"id": -1001, "type": "supergroup", "title": "Gophers"},
		"date": 1714564800,
		"text": "buy now"
	}`)
	msg.From.ID = fromID
	return &msg
}

func TestConvertMessage(t *testing.T) {
	t.Parallel()
	admins := testAdmins(t)

	t.Run("regular-member", func(t *testing.T) {
		t.Parallel()
		got := ConvertMessage(testGroupMessage(t, 42), admins, testSelfID)
		require.NotNil(t, got)
		assert.Equal(t, "5", got.ID)
		assert.Equal(t, monitor.User{ID: "42", Tag: "Spam Bot", Mention: "Spam Bot"}, got.Author)
		assert.Equal(t, "buy now", got.Content)
		assert.Equal(t, time.Unix(1714564800, 0), got.CreatedAt)
		assert.Equal(t, monitor.Channel{ID: "-1001", Name: "Gophers"}, got.Channel)
		assert.Equal(t, &monitor.Guild{ID: "-1001", Name: "Gophers", OwnerID: "1"}, got.Guild)
		require.NotNil(t, got.Member)
		assert.True(t, got.Member.Kickable)
		assert.True(t, got.Member.Bannable)
		assert.Equal(t, []monitor.Role{{ID: "member", Name: "member"}}, got.Member.Roles)
		assert.Empty(t, got.Member.Permissions)
	})

	t.Run("administrator", func(t *testing.T) {
		t.Parallel()
		got := ConvertMessage(testGroupMessage(t, 7), admins, testSelfID)
		require.NotNil(t, got.Member)
		assert.False(t, got.Member.Kickable)
		assert.Equal(t, []monitor.Role{
			{ID: "administrator", Name: "administrator"},
			{ID: "title:janitor", Name: "janitor"},
		}, got.Member.Roles)
		assert.Equal(t, []string{"administrator", "can_delete_messages"}, got.Member.Permissions)
	})

	t.Run("owner", func(t *testing.T) {
		t.Parallel()
		got := ConvertMessage(testGroupMessage(t, 1), admins, testSelfID)
		assert.Equal(t, got.Author.ID, got.Guild.OwnerID)
		assert.True(t, got.Member.HasPermission("can_restrict_members"))
		assert.True(t, got.Member.HasPermission("creator"))
		assert.Contains(t, got.Member.Roles, monitor.Role{ID: "manager", Name: "manager"})
		assert.Contains(t, got.Member.Roles, monitor.Role{ID: "moderator", Name: "moderator"})
	})

	t.Run("bot-without-rights", func(t *testing.T) {
		t.Parallel()
		got := ConvertMessage(testGroupMessage(t, 42), admins[:2], testSelfID)
		assert.False(t, got.Member.Kickable)
		assert.False(t, got.Member.Bannable)
	})

	t.Run("private-chat", func(t *testing.T) {
		t.Parallel()
		msg := decode[api.Message](t, `{
			"message_id": 1,
			"from": {"id": 42, "is_bot": false, "first_name": "Spam", "username": "spammer"},
			"chat": {"id": 42, "type": "private", "username": "spammer"},
			"date": 1714564800,
			"text": "hi"
		}`)
		got := ConvertMessage(&msg, nil, testSelfID)
		assert.True(t, got.Channel.Direct)
		assert.Nil(t, got.Guild)
		assert.Equal(t, "@spammer", got.Author.Mention)
		assert.Equal(t, "spammer", got.Author.Tag)
	})
}

func TestExtractContent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "text",
			raw:  `{"text": "  hello  "}`,
			want: "hello",
		},
		{
			name: "sticker",
			raw:  `{"sticker": {"file_id": "f1", "file_unique_id": "AgADs", "width": 512, "height": 512}}`,
			want: "[sticker] AgADs",
		},
		{
			name: "captioned-photo",
			raw:  `{"caption": "look", "photo": [{"file_id": "a", "file_unique_id": "small"}, {"file_id": "b", "file_unique_id": "large"}]}`,
			want: "look [photo] large",
		},
		{
			name: "venue",
			raw:  `{"location": {"latitude": 1, "longitude": 2}, "venue": {"location": {"latitude": 1, "longitude": 2}, "title": "Cafe", "address": "Main st"}}`,
			want: "[venue] Cafe Main st",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			msg := decode[api.Message](t, tt.raw)
			assert.Equal(t, tt.want, ExtractContent(&msg))
		})
	}
}

func TestRenderHTML(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "<b>a&lt;b&gt;</b> has been kicked for spamming.",
		RenderHTML(monitor.Text("**a<b>** has been kicked for spamming.")))

	assert.Equal(t, "top\n<i>author</i>\n<a href=\"https://x.test/?a=1&amp;b=2\"><b>Title</b></a>\ndesc\n<b>who</b>: <b>me</b>\n<i>foot</i>",
		RenderHTML(monitor.Template{
			Text: "top",
			Embed: &monitor.Embed{
				Title:       "Title",
				URL:         "https://x.test/?a=1&b=2",
				Description: "desc",
				Author:      &monitor.EmbedAuthor{Name: "author"},
				Fields:      []monitor.EmbedField{{Name: "who", Value: "**me**"}},
				Footer:      &monitor.EmbedFooter{Text: "foot"},
			},
		}))

	assert.Empty(t, RenderHTML(monitor.Template{}))
}

func TestModeratorSend(t *testing.T) {
	t.Parallel()
	bot := &botStub{}
	mod := NewModerator(bot, api.User{ID: testSelfID, IsBot: true, UserName: "guard_bot"}, Options{})

	require.NoError(t, mod.Send(context.Background(), monitor.Channel{ID: "-1001"}, monitor.Text("**x** banned")))
	require.Len(t, bot.sent, 1)
	msg, ok := bot.sent[0].(api.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, testChatID, msg.ChatID)
	assert.Equal(t, "<b>x</b> banned", msg.Text)
	assert.Equal(t, api.ModeHTML, msg.ParseMode)
	assert.True(t, msg.DisableNotification)

	bot.sendErr = errors.New("chat not found")
	assert.Error(t, mod.Send(context.Background(), monitor.Channel{ID: "-1001"}, monitor.Text("x")))
	assert.Error(t, mod.Send(context.Background(), monitor.Channel{ID: "general"}, monitor.Text("x")))

	assert.Equal(t, monitor.User{ID: "99", Tag: "guard_bot", Mention: "@guard_bot", Bot: true}, mod.Self())
}

func TestModeratorRemoveAndBan(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	bot := &botStub{}
	mod := NewModerator(bot, api.User{ID: testSelfID}, Options{})
	guild := &monitor.Guild{ID: "-1001"}
	member := &monitor.Member{User: monitor.User{ID: "42"}}

	require.NoError(t, mod.RemoveMember(ctx, guild, member, "Spamming!"))
	require.Len(t, bot.requests, 2)
	ban, ok := bot.requests[0].(api.BanChatMemberConfig)
	require.True(t, ok)
	assert.Equal(t, testChatID, ban.ChatID)
	assert.Equal(t, int64(42), ban.UserID)
	assert.False(t, ban.RevokeMessages)
	unban, ok := bot.requests[1].(api.UnbanChatMemberConfig)
	require.True(t, ok)
	assert.True(t, unban.OnlyIfBanned)

	require.NoError(t, mod.BanMember(ctx, guild, member, 1, "Spamming!"))
	require.Len(t, bot.requests, 3)
	ban, ok = bot.requests[2].(api.BanChatMemberConfig)
	require.True(t, ok)
	assert.True(t, ban.RevokeMessages)

	bot.requestErr = errors.New("not enough rights")
	assert.Error(t, mod.BanMember(ctx, guild, member, 1, "Spamming!"))
	assert.Error(t, mod.RemoveMember(ctx, nil, member, "Spamming!"))
}

func TestModeratorCachesAdmins(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	bot := &botStub{admins: testAdmins(t)}
	mod := NewModerator(bot, api.User{ID: testSelfID}, Options{AdminCacheTTL: time.Hour})

	first, err := mod.Message(ctx, testGroupMessage(t, 42))
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.True(t, first.Member.Kickable)

	_, err = mod.Message(ctx, testGroupMessage(t, 7))
	require.NoError(t, err)
	assert.Equal(t, 1, bot.adminCalls)

	mod.Forget(testChatID)
	_, err = mod.Admins(ctx, testChatID)
	require.NoError(t, err)
	assert.Equal(t, 2, bot.adminCalls)
}

func TestModeratorSkipsChannelPosts(t *testing.T) {
	t.Parallel()
	bot := &botStub{}
	mod := NewModerator(bot, api.User{ID: testSelfID}, Options{})

	msg := testGroupMessage(t, 42)
	msg.SenderChat = &api.Chat{ID: -1002, Type: "channel"}
	got, err := mod.Message(context.Background(), msg)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Zero(t, bot.adminCalls)
}
