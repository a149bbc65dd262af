package saga

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	pkgerrors "github.com/makao-africa/makao-backend/pkg/errors"
	"github.com/makao-africa/makao-backend/pkg/logger"
)

// Step is one unit of a multi-step workflow. Do applies the step's effect;
// Undo reverses it. Undo may be nil for steps with no durable effect.
type Step struct {
	Name string
	Do   func(ctx context.Context) error
	Undo func(ctx context.Context) error
}

// Coordinator runs ordered steps and compensates completed ones, in reverse
// order, when a later step fails.
type Coordinator struct {
	logg    *logger.Logger
	observe func(name, outcome string)
}

// Option customizes a Coordinator.
type Option func(*Coordinator)

// WithObserver registers a callback invoked once per run with the saga name
// and terminal outcome ("completed", "compensated", "partial_failure").
func WithObserver(fn func(name, outcome string)) Option {
	return func(c *Coordinator) {
		c.observe = fn
	}
}

func New(logg *logger.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{logg: logg}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run executes the steps in order. On the first Do failure it invokes the
// Undo of every previously completed step, last first, and returns the
// original failure. If any Undo also fails the system is left in a mixed
// state and the typed error carries code PARTIAL_FAILURE with both causes.
func (c *Coordinator) Run(ctx context.Context, name string, steps []Step) error {
	var done []Step
	for _, step := range steps {
		if step.Do == nil {
			continue
		}
		if err := step.Do(ctx); err != nil {
			c.logg.Warn(ctx, fmt.Sprintf("saga %s: step %s failed, compensating %d step(s)", name, step.Name, len(done)))
			if undoErr := c.compensate(ctx, name, done); undoErr != nil {
				c.emit(name, "partial_failure")
				return pkgerrors.Wrap(
					pkgerrors.CodePartialFailure,
					multierr.Append(err, undoErr),
					fmt.Sprintf("saga %s left in a mixed state: step %s failed and compensation did not fully roll back", name, step.Name),
				)
			}
			c.emit(name, "compensated")
			return err
		}
		done = append(done, step)
	}
	c.emit(name, "completed")
	return nil
}

func (c *Coordinator) compensate(ctx context.Context, name string, done []Step) error {
	var undoErr error
	for i := len(done) - 1; i >= 0; i-- {
		step := done[i]
		if step.Undo == nil {
			continue
		}
		if err := step.Undo(ctx); err != nil {
			c.logg.Error(ctx, fmt.Sprintf("saga %s: undo of step %s failed", name, step.Name), err)
			undoErr = multierr.Append(undoErr, fmt.Errorf("undo %s: %w", step.Name, err))
		}
	}
	return undoErr
}

func (c *Coordinator) emit(name, outcome string) {
	if c.observe != nil {
		c.observe(name, outcome)
	}
}
