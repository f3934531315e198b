// Package pipeline orchestrates the six components — Process
// Supervisor, Block-Device Query, Partition Planner, Storage Layer
// Composer, System Configurator, Bootloader Generator — as a strictly
// sequential Workflow of named steps, grounded on the teacher's
// pkg/workflow.go Run loop: report the step, run it, stop on the first
// error. Step bodies now call into pkg/partition, pkg/storage, and
// friends instead of the teacher's bootc-specific container-extraction
// helpers, but the call-site shape (report → run → check ctx → next)
// is carried over unchanged.
package pipeline

import (
	"context"
	"fmt"

	"github.com/cachyos/instcore/pkg/errs"
	"github.com/cachyos/instcore/pkg/reporter"
	"github.com/cachyos/instcore/pkg/session"
)

// StepFunc is one pipeline stage. It mutates st in place (each stage
// owns the fields it fills in) and reports progress through rep.
type StepFunc func(ctx context.Context, st *session.State, rep reporter.Reporter) error

// Step names one StepFunc for progress reporting.
type Step struct {
	Name string
	Run  StepFunc
}

// Workflow is an ordered sequence of steps run to completion or until
// the first fatal error, per spec.md §5's "pipeline stages are
// strictly sequential within a single install run."
type Workflow struct {
	Steps []Step
}

// New builds a Workflow from the given steps, run in order.
func New(steps ...Step) *Workflow {
	return &Workflow{Steps: steps}
}

// Run executes every step in order. A CancelledByUser or any error not
// classified as a warning-only BootloaderError stops the workflow
// immediately; BootloaderError is recorded on st.Warnings and the
// workflow continues, matching spec.md §7's propagation policy (a
// system with no bootloader installed is still usable from a live
// medium).
func (w *Workflow) Run(ctx context.Context, st *session.State, rep reporter.Reporter) error {
	total := len(w.Steps)
	for i, step := range w.Steps {
		if err := ctx.Err(); err != nil {
			return &errs.CancelledByUser{Stage: step.Name}
		}

		rep.Step(i+1, total, step.Name)
		err := step.Run(ctx, st, rep)
		if err == nil {
			continue
		}

		var bootErr *errs.BootloaderError
		if asBootloaderError(err, &bootErr) {
			rep.Warning("%s: %v", step.Name, err)
			st.AddWarning("%s: %v", step.Name, err)
			continue
		}

		return fmt.Errorf("%s: %w", step.Name, err)
	}
	return nil
}

func asBootloaderError(err error, target **errs.BootloaderError) bool {
	for err != nil {
		if be, ok := err.(*errs.BootloaderError); ok {
			*target = be
			return true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}
