package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	api "github.com/OvyFlash/telegram-bot-api"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/iamwavecut/spamguard/internal/bot"
	"github.com/iamwavecut/spamguard/internal/db/sqlite"
	"github.com/iamwavecut/spamguard/internal/event"
	"github.com/iamwavecut/spamguard/internal/infra"
	"github.com/iamwavecut/spamguard/internal/infrastructure/telegram"
	"github.com/iamwavecut/spamguard/internal/journal"
	"github.com/iamwavecut/spamguard/internal/lifecycle"
	"github.com/iamwavecut/spamguard/internal/monitor"
	"github.com/iamwavecut/spamguard/internal/observability"
)

var errExecutableReplaced = errors.New("executable file was modified")

func runBot(cctx *cli.Context) error {
	cfg, err := loadConfig(cctx)
	if err != nil {
		return err
	}
	if cfg.TelegramAPIToken == "" {
		return errors.New("SG_TOKEN is required")
	}
	monCfg, err := cfg.MonitorConfig()
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cctx.Context)
	defer stop()
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	obs, err := observability.Init(cfg.MetricsAddr)
	if err != nil {
		return err
	}

	botAPI, err := api.NewBotAPI(cfg.TelegramAPIToken)
	if err != nil {
		return err
	}
	botAPI.Debug = log.Level(cfg.LogLevel) == log.TraceLevel
	log.WithField("bot", botAPI.Self.UserName).Info("authorized")

	moderator := telegram.NewModerator(botAPI, botAPI.Self, telegram.Options{
		SendRate:      cfg.Telegram.SendRate,
		SendBurst:     cfg.Telegram.SendBurst,
		AdminCacheTTL: cfg.Telegram.AdminCacheTTL,
	})
	bus := event.NewBus()
	mon := monitor.New(monCfg, moderator, monitor.WithBus(bus))

	rt := lifecycle.NewRuntime()
	rt.Register("observability", obs)
	if cfg.Journal.Enabled {
		store, err := sqlite.NewSQLiteClient(ctx, cfg.Journal.Path)
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.WithError(err).Warn("cant close journal")
			}
		}()
		j := journal.New(store, cfg.Journal.QueueSize)
		j.Attach(bus)
		rt.Register("journal", j)
	}
	processor := bot.NewUpdateProcessor(moderator, mon)
	rt.Register("poller", bot.NewPoller(botAPI, processor, cfg.Telegram.PollTimeout, cancel))

	if err := rt.Start(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)
		defer signal.Stop(hup)
		for {
			select {
			case <-hup:
				state := mon.Reset()
				log.WithFields(log.Fields{
					"activity": len(state.Activity),
					"messages": len(state.Messages),
					"warned":   len(state.Warned),
					"kicked":   len(state.RemovedTemporarily),
					"banned":   len(state.RemovedPermanently),
				}).Info("activity ledger reset")
			case <-gctx.Done():
				return nil
			}
		}
	})
	if cctx.Bool("exit-on-rebuild") {
		g.Go(func() error {
			select {
			case <-infra.WatchExecutable(gctx):
				cancel(errExecutableReplaced)
			case <-gctx.Done():
			}
			return nil
		})
	}
	_ = g.Wait()

	cause := context.Cause(ctx)
	log.WithField("cause", cause.Error()).Info("shutting down")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), cctx.Duration("shutdown-timeout"))
	defer stopCancel()
	stopErr := rt.Stop(stopCtx)

	switch {
	case errors.Is(cause, context.Canceled), errors.Is(cause, errExecutableReplaced):
		return stopErr
	default:
		return errors.Join(cause, stopErr)
	}
}
