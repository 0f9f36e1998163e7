package db

import (
	"context"
)

type Client interface {
	Close() error
	InsertModerationEvent(ctx context.Context, ev *ModerationEvent) error
	ListModerationEvents(ctx context.Context, filter EventFilter) ([]*ModerationEvent, error)
	CountModerationEvents(ctx context.Context, filter EventFilter) (map[string]int, error)
}
