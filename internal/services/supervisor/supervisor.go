// Package supervisor drives the evaluation loop on a fixed cadence and
// absorbs whatever a cycle throws at it.
package supervisor

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Cycler runs one full market evaluation.
type Cycler interface {
	EvaluateCycle(ctx context.Context) error
}

// Supervisor reruns the cycler forever: a short interval in the steady
// state, a long backoff after a failed cycle. A cycle error is logged here
// exactly once and never propagates further.
type Supervisor struct {
	cycler   Cycler
	interval time.Duration
	backoff  time.Duration
	l        *zap.Logger
}

// New returns a Supervisor with the given steady interval and failure backoff.
func New(l *zap.Logger, cycler Cycler, interval, backoff time.Duration) *Supervisor {
	return &Supervisor{
		cycler:   cycler,
		interval: interval,
		backoff:  backoff,
		l:        l,
	}
}

// Run loops until the context is cancelled. Returns the context error.
func (s *Supervisor) Run(ctx context.Context) error {
	for {
		wait := s.interval

		if err := s.runCycle(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.l.Error("unexpected error in evaluation cycle",
				zap.Error(err),
				zap.Duration("backoff", s.backoff))
			wait = s.backoff
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// runCycle converts a cycle panic into an error so one bad cycle cannot
// take the loop down.
func (s *Supervisor) runCycle(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("evaluation cycle panic: %v", r)
		}
	}()

	return s.cycler.EvaluateCycle(ctx)
}
