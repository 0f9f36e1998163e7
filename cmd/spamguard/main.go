package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/iamwavecut/spamguard/internal/config"
)

func main() {
	app := cli.App{
		Name:  "spamguard",
		Usage: "per-member message rate and duplicate content monitor for Telegram groups",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "monitor-config",
				Usage:   "path to the monitor options YAML file",
				EnvVars: []string{"SG_MONITOR_CONFIG"},
			},
		},
		Before: setupLogging,
	}
	app.Commands = []*cli.Command{
		{
			Name:   "run",
			Usage:  "poll Telegram and moderate group chats",
			Action: runBot,
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:    "exit-on-rebuild",
					Usage:   "exit once the executable is replaced on disk",
					EnvVars: []string{"SG_EXIT_ON_REBUILD"},
				},
				&cli.DurationFlag{
					Name:  "shutdown-timeout",
					Usage: "how long to wait for components to stop",
					Value: 10 * time.Second,
				},
			},
		},
		{
			Name:   "journal",
			Usage:  "list journaled moderation events",
			Action: runJournal,
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "guild", Usage: "only events of this chat id"},
				&cli.StringFlag{Name: "user", Usage: "only events of this user id"},
				&cli.StringFlag{Name: "kind", Usage: "only events of this kind, e.g. member_warned"},
				&cli.DurationFlag{Name: "since", Usage: "only events newer than this"},
				&cli.IntFlag{Name: "limit", Usage: "maximum number of events", Value: 50},
				&cli.BoolFlag{Name: "summary", Usage: "print counts per kind instead of events"},
			},
		},
		{
			Name:   "config",
			Usage:  "print the resolved monitor configuration",
			Action: runConfig,
		},
	}
	app.RunAndExitOnError()
}

func setupLogging(cctx *cli.Context) error {
	cfg, err := loadConfig(cctx)
	if err != nil {
		return err
	}
	log.SetFormatter(&config.NbFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.Level(cfg.LogLevel))
	return nil
}

func loadConfig(cctx *cli.Context) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, fmt.Errorf("cant load config: %w", err)
	}
	if path := cctx.String("monitor-config"); path != "" {
		cfg.MonitorConfigPath = path
	}
	return cfg, nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
