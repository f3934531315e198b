// Package errs defines the eight conceptual error kinds instcore's
// pipeline stages raise, each a concrete type so callers can branch on
// kind with errors.As instead of string matching.
package errs

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// ConfigError signals a malformed or incomplete settings.json, caught
// before any destructive action is taken.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config: %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("config: %v", e.Err)
}
func (e *ConfigError) Unwrap() error { return e.Err }

// ProbeError wraps a failure enumerating or inspecting block devices.
type ProbeError struct {
	Device string
	Err    error
}

func (e *ProbeError) Error() string { return fmt.Sprintf("probe %s: %v", e.Device, e.Err) }
func (e *ProbeError) Unwrap() error { return e.Err }

// ValidationError aggregates every partition-scheme invariant violation
// found, rather than stopping at the first one, per spec.md §3/§7.
type ValidationError struct {
	Violations *multierror.Error
}

// NewValidationError creates an empty aggregator. Add violations with
// Add, then call AsError to get a nil error if nothing was added.
func NewValidationError() *ValidationError {
	return &ValidationError{Violations: &multierror.Error{}}
}

// Add appends a violation if err is non-nil.
func (e *ValidationError) Add(err error) {
	if err == nil {
		return
	}
	e.Violations = multierror.Append(e.Violations, err)
}

// AsError returns nil if no violations were added, otherwise itself.
func (e *ValidationError) AsError() error {
	if e.Violations == nil || e.Violations.Len() == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string { return e.Violations.Error() }
func (e *ValidationError) Unwrap() error { return e.Violations.ErrorOrNil() }

// PartitioningError wraps a failure creating or writing a partition
// table. The pipeline attempts best-effort cleanup (closing any opened
// LUKS devices) before propagating this.
type PartitioningError struct {
	Device string
	Err    error
}

func (e *PartitioningError) Error() string { return fmt.Sprintf("partitioning %s: %v", e.Device, e.Err) }
func (e *PartitioningError) Unwrap() error { return e.Err }

// ComposerError wraps a failure in the storage layer composer (LUKS,
// LVM, ZFS, Btrfs, mount ordering).
type ComposerError struct {
	Layer string
	Err   error
}

func (e *ComposerError) Error() string { return fmt.Sprintf("storage composer (%s): %v", e.Layer, e.Err) }
func (e *ComposerError) Unwrap() error { return e.Err }

// ConfigWriteError wraps a failure writing an in-target configuration
// file (fstab, crypttab, mkinitcpio.conf, locale.conf, ...).
type ConfigWriteError struct {
	Path string
	Err  error
}

func (e *ConfigWriteError) Error() string { return fmt.Sprintf("write %s: %v", e.Path, e.Err) }
func (e *ConfigWriteError) Unwrap() error { return e.Err }

// BootloaderError wraps a failure installing or configuring a
// bootloader. The pipeline treats this as a warning, not a fatal error:
// a system with no bootloader installed can still be repaired from a
// live medium.
type BootloaderError struct {
	Type string
	Err  error
}

func (e *BootloaderError) Error() string { return fmt.Sprintf("bootloader (%s): %v", e.Type, e.Err) }
func (e *BootloaderError) Unwrap() error { return e.Err }

// CancelledByUser wraps context.Canceled for the SIGTERM/cooperative
// cancellation path described in spec.md §5/§9.
type CancelledByUser struct {
	Stage string
}

func (e *CancelledByUser) Error() string {
	return fmt.Sprintf("cancelled during %s", e.Stage)
}
func (e *CancelledByUser) Unwrap() error { return context.Canceled }
