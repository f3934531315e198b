package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cachyos/instcore/pkg/errs"
	"github.com/cachyos/instcore/pkg/reporter"
	"github.com/cachyos/instcore/pkg/session"
)

func TestWorkflow_RunsStepsInOrder(t *testing.T) {
	var order []string
	wf := New(
		Step{Name: "first", Run: func(ctx context.Context, st *session.State, rep reporter.Reporter) error {
			order = append(order, "first")
			return nil
		}},
		Step{Name: "second", Run: func(ctx context.Context, st *session.State, rep reporter.Reporter) error {
			order = append(order, "second")
			return nil
		}},
	)

	st := session.New(nil, false)
	if err := wf.Run(context.Background(), st, reporter.NoopReporter{}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("order = %v, want [first second]", order)
	}
}

func TestWorkflow_StopsOnFatalError(t *testing.T) {
	ran := false
	wf := New(
		Step{Name: "boom", Run: func(ctx context.Context, st *session.State, rep reporter.Reporter) error {
			return errors.New("boom")
		}},
		Step{Name: "never", Run: func(ctx context.Context, st *session.State, rep reporter.Reporter) error {
			ran = true
			return nil
		}},
	)

	st := session.New(nil, false)
	if err := wf.Run(context.Background(), st, reporter.NoopReporter{}); err == nil {
		t.Fatal("expected error")
	}
	if ran {
		t.Error("expected step after a fatal error to be skipped")
	}
}

func TestWorkflow_BootloaderErrorIsWarningOnly(t *testing.T) {
	ran := false
	wf := New(
		Step{Name: "bootloader", Run: func(ctx context.Context, st *session.State, rep reporter.Reporter) error {
			return fmt.Errorf("install: %w", &errs.BootloaderError{Type: "grub", Err: errors.New("no efi partition")})
		}},
		Step{Name: "finalize", Run: func(ctx context.Context, st *session.State, rep reporter.Reporter) error {
			ran = true
			return nil
		}},
	)

	st := session.New(nil, false)
	if err := wf.Run(context.Background(), st, reporter.NoopReporter{}); err != nil {
		t.Fatalf("Run() error = %v, want nil (bootloader errors are warnings)", err)
	}
	if !ran {
		t.Error("expected workflow to continue past a BootloaderError")
	}
	if len(st.Warnings) != 1 {
		t.Fatalf("len(Warnings) = %d, want 1", len(st.Warnings))
	}
}

func TestWorkflow_CancelledContextStopsBeforeNextStep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := false
	wf := New(Step{Name: "any", Run: func(ctx context.Context, st *session.State, rep reporter.Reporter) error {
		ran = true
		return nil
	}})

	st := session.New(nil, false)
	err := wf.Run(ctx, st, reporter.NoopReporter{})
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	var cancelled *errs.CancelledByUser
	if !errors.As(err, &cancelled) {
		t.Errorf("expected *errs.CancelledByUser, got %T: %v", err, err)
	}
	if ran {
		t.Error("expected no steps to run once context is already cancelled")
	}
}
