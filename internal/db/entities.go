package db

import (
	"time"
)

// ModerationEvent is one journaled monitor notification.
type ModerationEvent struct {
	ID        string    `db:"id"`
	Kind      string    `db:"kind"`
	Action    string    `db:"action"`
	GuildID   string    `db:"guild_id"`
	ChannelID string    `db:"channel_id"`
	UserID    string    `db:"user_id"`
	UserTag   string    `db:"user_tag"`
	Duplicate bool      `db:"duplicate"`
	Error     string    `db:"error"`
	CreatedAt time.Time `db:"created_at"`
}

// EventFilter narrows ListModerationEvents. Zero fields do not filter.
type EventFilter struct {
	GuildID string
	UserID  string
	Kind    string
	Since   time.Time
	Limit   int
}
