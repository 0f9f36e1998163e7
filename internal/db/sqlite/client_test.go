package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamwavecut/spamguard/internal/db"
)

func newTestClient(t *testing.T) *sqliteClient {
	t.Helper()
	client, err := NewSQLiteClient(context.Background(), filepath.Join(t.TempDir(), "nested", "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestModerationEventsIndexesExistAfterMigrations(t *testing.T) {
	t.Parallel()
	client := newTestClient(t)

	var names []string
	require.NoError(t, client.db.Select(&names, "SELECT name FROM sqlite_master WHERE type = 'index' AND tbl_name = 'moderation_events'"))
	assert.Contains(t, names, "idx_moderation_events_created_at")
	assert.Contains(t, names, "idx_moderation_events_user")
}

func TestModerationEventsRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	client := newTestClient(t)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	events := []*db.ModerationEvent{
		{ID: "1", Kind: "tier_warn_reached", Action: "warn", GuildID: "g1", UserID: "u1", CreatedAt: base},
		{ID: "2", Kind: "member_warned", Action: "warn", GuildID: "g1", UserID: "u1", CreatedAt: base.Add(time.Second)},
		{ID: "3", Kind: "tier_kick_reached", Action: "kick", GuildID: "g1", UserID: "u2", Duplicate: true, CreatedAt: base.Add(2 * time.Second)},
		{ID: "4", Kind: "dispatch_error", Action: "kick", GuildID: "g2", UserID: "u2", Error: "forbidden", CreatedAt: base.Add(3 * time.Second)},
	}
	for _, ev := range events {
		require.NoError(t, client.InsertModerationEvent(ctx, ev))
	}

	all, err := client.ListModerationEvents(ctx, db.EventFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "4", all[0].ID, "newest first")
	assert.Equal(t, "forbidden", all[0].Error)
	assert.True(t, all[1].Duplicate)
	assert.True(t, all[3].CreatedAt.Equal(base))

	byUser, err := client.ListModerationEvents(ctx, db.EventFilter{GuildID: "g1", UserID: "u2"})
	require.NoError(t, err)
	require.Len(t, byUser, 1)
	assert.Equal(t, "3", byUser[0].ID)

	limited, err := client.ListModerationEvents(ctx, db.EventFilter{Limit: 2, Since: base.Add(time.Second)})
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, []string{"4", "3"}, []string{limited[0].ID, limited[1].ID})

	counts, err := client.CountModerationEvents(ctx, db.EventFilter{GuildID: "g1"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{
		"tier_warn_reached": 1,
		"member_warned":     1,
		"tier_kick_reached": 1,
	}, counts)
}

func TestInsertDuplicateIDFails(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	client := newTestClient(t)

	ev := &db.ModerationEvent{ID: "same", Kind: "member_warned", UserID: "u1", CreatedAt: time.Now()}
	require.NoError(t, client.InsertModerationEvent(ctx, ev))
	assert.Error(t, client.InsertModerationEvent(ctx, ev))
}
