package bot

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	api "github.com/OvyFlash/telegram-bot-api"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/spamguard/internal/infra"
)

const maxPollerPanics = 5

var errPanics = errors.New("update processing panicked too often")

type UpdatesSource interface {
	GetUpdates(config api.UpdateConfig) ([]api.Update, error)
}

// Poller long-polls Telegram and hands every update to the processor.
type Poller struct {
	source    UpdatesSource
	processor *UpdateProcessor
	timeout   int
	fatal     func(error)

	// offset is the next update id to ask for, kept across restarts.
	offset atomic.Int64

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPoller builds a poller. fatal is called when polling cannot continue.
func NewPoller(source UpdatesSource, processor *UpdateProcessor, timeout int, fatal func(error)) *Poller {
	return &Poller{
		source:    source,
		processor: processor,
		timeout:   timeout,
		fatal:     fatal,
	}
}

func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done

	updateConfig := api.NewUpdate(int(p.offset.Load()))
	updateConfig.Timeout = p.timeout
	updates, errs := GetUpdatesChans(runCtx, p.source, updateConfig)

	go infra.GoRecoverable(maxPollerPanics, "process_updates", func() {
		p.run(runCtx, updates, errs)
		close(done)
	}, func() {
		cancel()
		close(done)
		p.fail(errPanics)
	})
	return nil
}

func (p *Poller) Stop(ctx context.Context) error {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel = nil
	p.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run processes updates until ctx is done or polling fails. The channels outlive a panic in
// processing, so a restarted run picks up the updates already fetched.
func (p *Poller) run(ctx context.Context, updates <-chan api.Update, errs <-chan error) {
	l := log.WithField("context", "poller")

	for {
		select {
		case err, ok := <-errs:
			if !ok || ctx.Err() != nil {
				return
			}
			p.fail(err)
			return
		case update, ok := <-updates:
			if !ok {
				if err, ok := <-errs; ok && ctx.Err() == nil {
					p.fail(err)
				}
				return
			}
			p.offset.Store(int64(update.UpdateID) + 1)
			if err := p.processor.Process(ctx, &update); err != nil {
				l.WithError(err).Errorln("cant process update")
			}
		}
	}
}

func (p *Poller) fail(err error) {
	log.WithField("context", "poller").WithError(err).Error("bot api get updates error")
	if p.fatal != nil {
		p.fatal(err)
	}
}

// GetUpdatesChans polls for updates until ctx is done or the API fails, advancing the offset past
// every delivered update.
func GetUpdatesChans(ctx context.Context, source UpdatesSource, config api.UpdateConfig) (<-chan api.Update, <-chan error) {
	ch := make(chan api.Update, 100)
	chErr := make(chan error, 1)

	go func() {
		defer close(ch)
		defer close(chErr)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			updates, err := source.GetUpdates(config)
			if err != nil {
				if ctx.Err() == nil {
					chErr <- err
				}
				return
			}
			for _, update := range updates {
				if update.UpdateID < config.Offset {
					continue
				}
				config.Offset = update.UpdateID + 1
				select {
				case ch <- update:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, chErr
}
