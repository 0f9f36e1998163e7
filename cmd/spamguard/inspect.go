package main

import (
	"fmt"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v2"

	"github.com/iamwavecut/spamguard/internal/db"
	"github.com/iamwavecut/spamguard/internal/db/sqlite"
	"github.com/iamwavecut/spamguard/internal/monitor"
)

func runJournal(cctx *cli.Context) error {
	cfg, err := loadConfig(cctx)
	if err != nil {
		return err
	}
	store, err := sqlite.NewSQLiteClient(cctx.Context, cfg.Journal.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	filter := db.EventFilter{
		GuildID: cctx.String("guild"),
		UserID:  cctx.String("user"),
		Kind:    cctx.String("kind"),
		Limit:   cctx.Int("limit"),
	}
	if since := cctx.Duration("since"); since > 0 {
		filter.Since = time.Now().Add(-since).UTC()
	}

	w := tabwriter.NewWriter(cctx.App.Writer, 0, 4, 2, ' ', 0)
	defer w.Flush()

	if cctx.Bool("summary") {
		counts, err := store.CountModerationEvents(cctx.Context, filter)
		if err != nil {
			return err
		}
		kinds := make([]string, 0, len(counts))
		for kind := range counts {
			kinds = append(kinds, kind)
		}
		sort.Strings(kinds)
		fmt.Fprintln(w, "KIND\tCOUNT")
		for _, kind := range kinds {
			fmt.Fprintf(w, "%s\t%d\n", kind, counts[kind])
		}
		return nil
	}

	events, err := store.ListModerationEvents(cctx.Context, filter)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "TIME\tKIND\tACTION\tCHAT\tUSER\tDUP\tERROR")
	for _, ev := range events {
		user := ev.UserID
		if ev.UserTag != "" {
			user = fmt.Sprintf("%s (%s)", ev.UserTag, ev.UserID)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%t\t%s\n",
			ev.CreatedAt.Local().Format(time.DateTime), ev.Kind, ev.Action, ev.GuildID, user, ev.Duplicate, ev.Error)
	}
	return nil
}

func runConfig(cctx *cli.Context) error {
	cfg, err := loadConfig(cctx)
	if err != nil {
		return err
	}
	monCfg, err := cfg.MonitorConfig()
	if err != nil {
		return err
	}
	out, err := yaml.Marshal(describeConfig(monCfg))
	if err != nil {
		return err
	}
	fmt.Fprintf(cctx.App.Writer, "# %s\n%s", cfg.MonitorFile(), out)
	return nil
}

// describeConfig lays the resolved configuration out with the option file keys.
func describeConfig(c monitor.Config) yaml.MapSlice {
	return yaml.MapSlice{
		{Key: "warn_threshold", Value: c.WarnThreshold},
		{Key: "kick_threshold", Value: c.KickThreshold},
		{Key: "ban_threshold", Value: c.BanThreshold},
		{Key: "max_interval", Value: c.MaxInterval.Milliseconds()},
		{Key: "max_duplicates_warning", Value: c.MaxDuplicatesWarning},
		{Key: "max_duplicates_kick", Value: c.MaxDuplicatesKick},
		{Key: "max_duplicates_ban", Value: c.MaxDuplicatesBan},
		{Key: "warn_message", Value: c.WarnMessage},
		{Key: "kick_message", Value: c.KickMessage},
		{Key: "ban_message", Value: c.BanMessage},
		{Key: "kick_error_message", Value: c.KickErrorMessage},
		{Key: "ban_error_message", Value: c.BanErrorMessage},
		{Key: "error_messages", Value: c.ErrorMessages},
		{Key: "ignored_permissions", Value: c.IgnoredPermissions},
		{Key: "ignored_roles", Value: describeMatcher(c.IgnoredRoles.IsPredicate(), c.IgnoredRoles.IDs())},
		{Key: "ignored_users", Value: describeMatcher(c.IgnoredUsers.IsPredicate(), c.IgnoredUsers.IDs())},
		{Key: "ignored_guilds", Value: describeMatcher(c.IgnoredGuilds.IsPredicate(), c.IgnoredGuilds.IDs())},
		{Key: "ignored_channels", Value: describeMatcher(c.IgnoredChannels.IsPredicate(), c.IgnoredChannels.IDs())},
		{Key: "ignore_bots", Value: c.IgnoreBots},
		{Key: "warn_enabled", Value: c.WarnEnabled},
		{Key: "kick_enabled", Value: c.KickEnabled},
		{Key: "ban_enabled", Value: c.BanEnabled},
		{Key: "verbose", Value: c.Verbose},
		{Key: "debug", Value: c.Debug},
		{Key: "delete_messages_after_ban_for_past_days", Value: c.DeleteMessagesAfterBanForPastDays},
		{Key: "ledger_limit", Value: c.LedgerLimit},
	}
}

func describeMatcher(predicate bool, ids []string) interface{} {
	if predicate {
		return "<predicate>"
	}
	sort.Strings(ids)
	return ids
}
