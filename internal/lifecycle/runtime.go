package lifecycle

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

type Component interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

type named struct {
	name string
	Component
}

// Runtime starts components in registration order and stops them in reverse.
type Runtime struct {
	components []named
	started    []named
}

func NewRuntime() *Runtime {
	return &Runtime{}
}

// Register adds a component under a name used in logs and errors. Nil components are skipped.
func (r *Runtime) Register(name string, component Component) {
	if component == nil {
		return
	}
	r.components = append(r.components, named{name: name, Component: component})
}

func (r *Runtime) Start(ctx context.Context) error {
	r.started = make([]named, 0, len(r.components))
	for _, c := range r.components {
		if err := c.Start(ctx); err != nil {
			_ = stopComponents(ctx, r.started)
			r.started = nil
			return fmt.Errorf("start %s: %w", c.name, err)
		}
		getLogEntry().WithField("component", c.name).Debug("started")
		r.started = append(r.started, c)
	}
	return nil
}

// Stop stops whatever Start brought up, collecting every error.
func (r *Runtime) Stop(ctx context.Context) error {
	err := stopComponents(ctx, r.started)
	r.started = nil
	return err
}

func stopComponents(ctx context.Context, components []named) error {
	var stopErr error
	for i := len(components) - 1; i >= 0; i-- {
		c := components[i]
		if err := c.Stop(ctx); err != nil {
			getLogEntry().WithField("component", c.name).WithError(err).Warn("stop failed")
			stopErr = errors.Join(stopErr, fmt.Errorf("stop %s: %w", c.name, err))
			continue
		}
		getLogEntry().WithField("component", c.name).Debug("stopped")
	}
	return stopErr
}

// Func adapts a pair of functions into a Component. Either may be nil.
type Func struct {
	OnStart func(ctx context.Context) error
	OnStop  func(ctx context.Context) error
}

func (f Func) Start(ctx context.Context) error {
	if f.OnStart == nil {
		return nil
	}
	return f.OnStart(ctx)
}

func (f Func) Stop(ctx context.Context) error {
	if f.OnStop == nil {
		return nil
	}
	return f.OnStop(ctx)
}

func getLogEntry() *log.Entry {
	return log.WithField("context", "lifecycle")
}
