package invoicing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// State is a stage of the invoice creation state machine.
type State string

const (
	StateValidating          State = "validating"
	StatePricing             State = "pricing"
	StateNumbering           State = "numbering"
	StatePersistingInvoice   State = "persisting_invoice"
	StatePersistingLineItems State = "persisting_line_items"
	StateDeductingInventory  State = "deducting_inventory"
	StateCommitted           State = "committed"
	StateRollingBack         State = "rolling_back"
	StateFailed              State = "failed"
)

// step is one forward action of the saga and the action that undoes it.
// compensate may be nil when the forward action leaves nothing behind. It
// must be a no-op when the forward action never took effect.
type step struct {
	state      State
	name       string
	forward    func(ctx context.Context) error
	compensate func(ctx context.Context) error
}

type saga struct {
	steps       []step
	enter       func(State)
	log         *zap.Logger
	undoTimeout time.Duration
}

func (s *saga) add(st step) {
	s.steps = append(s.steps, st)
}

// sagaFailure describes why run stopped.
type sagaFailure struct {
	state   State
	step    string
	cause   error
	residue []error
	unwound bool
}

// run executes the forward actions in order. When one fails, the completed
// steps are compensated in reverse order. A step that failed because ctx ended
// may still have been applied by the server, so it is compensated as well.
// Compensation runs on a fresh context bounded by undoTimeout and is best
// effort: every compensating action runs even if an earlier one failed.
func (s *saga) run(ctx context.Context) *sagaFailure {
	current := State("")
	done := make([]step, 0, len(s.steps))
	for _, st := range s.steps {
		if st.state != current {
			current = st.state
			s.enter(current)
		}
		if err := st.forward(ctx); err != nil {
			f := &sagaFailure{state: st.state, step: st.name, cause: err}
			if interrupted(ctx, err) {
				done = append(done, st)
			}
			if len(done) == 0 {
				return f
			}
			s.enter(StateRollingBack)
			f.unwound = true
			f.residue = s.compensate(ctx, done)
			return f
		}
		done = append(done, st)
	}
	return nil
}

func interrupted(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

func (s *saga) compensate(ctx context.Context, done []step) []error {
	timeout := s.undoTimeout
	if timeout <= 0 {
		timeout = DefaultCommitTimeout
	}
	uctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	return s.unwind(uctx, done)
}

func (s *saga) unwind(ctx context.Context, done []step) []error {
	var failures []error
	for i := len(done) - 1; i >= 0; i-- {
		st := done[i]
		if st.compensate == nil {
			continue
		}
		if err := st.compensate(ctx); err != nil {
			s.log.Error("compensation failed", zap.String("step", st.name), zap.Error(err))
			failures = append(failures, fmt.Errorf("undo %s: %w", st.name, err))
			continue
		}
		s.log.Debug("compensated", zap.String("step", st.name))
	}
	return failures
}
