package sqlite

import (
	"context"
	"strings"
	"sync"

	"github.com/iamwavecut/tool"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	migrate "github.com/rubenv/sql-migrate"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/iamwavecut/spamguard/internal/db"
	"github.com/iamwavecut/spamguard/internal/infra"
	"github.com/iamwavecut/spamguard/resources"
)

const defaultListLimit = 100

type sqliteClient struct {
	db    *sqlx.DB
	mutex sync.RWMutex
}

var _ db.Client = (*sqliteClient)(nil)

// NewSQLiteClient opens the journal database at path, creating its directory, and applies
// the embedded migrations.
func NewSQLiteClient(ctx context.Context, path string) (*sqliteClient, error) {
	path, err := infra.EnsureParent(path)
	if err != nil {
		return nil, err
	}
	dbx, err := sqlx.ConnectContext(ctx, "sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.WithMessage(err, "open journal db")
	}
	dbx.SetMaxOpenConns(1)

	migrationsSource := &migrate.EmbedFileSystemMigrationSource{
		FileSystem: resources.FS,
		Root:       "migrations",
	}
	n, err := migrate.Exec(dbx.DB, "sqlite3", migrationsSource, migrate.Up)
	if err != nil {
		_ = dbx.Close()
		return nil, errors.WithMessage(err, "migrate up")
	}
	if n > 0 {
		log.WithField("object", "sqlite").Infof("applied %d migrations", n)
	}
	return &sqliteClient{db: dbx}, nil
}

func (c *sqliteClient) Close() error {
	return c.db.Close()
}

func (c *sqliteClient) InsertModerationEvent(ctx context.Context, ev *db.ModerationEvent) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	query := `
		INSERT INTO moderation_events
		(id, kind, action, guild_id, channel_id, user_id, user_tag, duplicate, error, created_at)
		VALUES (:id, :kind, :action, :guild_id, :channel_id, :user_id, :user_tag, :duplicate, :error, :created_at)
	`
	return tool.Err(c.db.NamedExecContext(ctx, query, ev))
}

// ListModerationEvents returns matching events, newest first.
func (c *sqliteClient) ListModerationEvents(ctx context.Context, filter db.EventFilter) ([]*db.ModerationEvent, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	where, args := filterClause(filter)
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	args = append(args, limit)

	var events []*db.ModerationEvent
	query := `
		SELECT id, kind, action, guild_id, channel_id, user_id, user_tag, duplicate, error, created_at
		FROM moderation_events` + where + `
		ORDER BY created_at DESC, id
		LIMIT ?
	`
	if err := c.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, errors.WithMessage(err, "list moderation events")
	}
	return events, nil
}

// CountModerationEvents groups matching events by kind. The filter limit is ignored.
func (c *sqliteClient) CountModerationEvents(ctx context.Context, filter db.EventFilter) (map[string]int, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	where, args := filterClause(filter)
	rows, err := c.db.QueryxContext(ctx, `SELECT kind, COUNT(*) FROM moderation_events`+where+` GROUP BY kind`, args...)
	if err != nil {
		return nil, errors.WithMessage(err, "count moderation events")
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var (
			kind string
			n    int
		)
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, errors.WithMessage(err, "scan count")
		}
		counts[kind] = n
	}
	return counts, rows.Err()
}

func filterClause(filter db.EventFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.GuildID != "" {
		conds = append(conds, "guild_id = ?")
		args = append(args, filter.GuildID)
	}
	if filter.UserID != "" {
		conds = append(conds, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.Kind != "" {
		conds = append(conds, "kind = ?")
		args = append(args, filter.Kind)
	}
	if !filter.Since.IsZero() {
		conds = append(conds, "created_at >= ?")
		args = append(args, filter.Since)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
