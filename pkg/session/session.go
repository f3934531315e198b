// Package session holds the install run's shared state: the settings
// an operator chose, the scheme that was planned for them, and the
// devices every later stage needs to agree on. spec.md §9's redesign
// note replaces the teacher's process-wide WorkflowState singleton
// with State: a plain struct built once by cmd/install.go and passed
// by pointer into every component call. There is no package-level
// instance and no mutex guarding the whole struct — each field is
// owned by the one pipeline stage that writes it (the Shared-resource
// policy in SPEC_FULL.md §5), so tests can construct a *State by hand
// instead of reaching through a singleton accessor.
package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cachyos/instcore/pkg/config"
	"github.com/cachyos/instcore/pkg/partition"
	"github.com/cachyos/instcore/pkg/storage"
)

// State is constructed once per run and threaded by pointer through
// every pipeline stage. Fields are filled in as the pipeline
// progresses; a stage that runs before Scheme is planned, for
// instance, simply finds it at its zero value.
type State struct {
	// ID identifies this run, used for scratch filenames (temporary
	// LUKS keyfiles) that must not collide across concurrent runs on
	// the same rescue medium.
	ID string

	StartedAt time.Time

	// Settings is the parsed settings.json (or its interactively-built
	// equivalent) driving this run.
	Settings *config.Settings

	// Scheme is the partition layout planned or loaded for Device,
	// filled in by the Partition Planner stage.
	Scheme partition.PartitionScheme

	// LuksDevices records every LUKS container opened during this run
	// so the System Configurator can emit crypttab and the pipeline
	// can close them again on cancellation or failure.
	LuksDevices []storage.LuksDevice

	// TargetDir is where Scheme is mounted, e.g. "/mnt".
	TargetDir string

	// ZFSPool and ZFSDataset record the pool and root dataset the
	// Storage Layer Composer provisioned for a zfs root, so the
	// Bootloader Generator can populate bootloader.Config.ZFSDataset
	// and the root= token it needs. Both are empty for a non-ZFS root.
	ZFSPool    string
	ZFSDataset string

	// Warnings accumulates non-fatal messages surfaced at the end of
	// the run (BootloaderError and similar), independent of whatever
	// a Reporter already printed live.
	Warnings []string

	DryRun bool
}

// New constructs a State for a fresh run, stamping a random ID used
// for scratch filenames — never a filesystem UUID, those always come
// from probing the created device.
func New(settings *config.Settings, dryRun bool) *State {
	return &State{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		Settings:  settings,
		DryRun:    dryRun,
	}
}

// AddWarning appends a warning to the run's summary, used by stages
// whose failures spec.md §7 classifies as non-fatal (BootloaderError).
func (s *State) AddWarning(format string, args ...any) {
	s.Warnings = append(s.Warnings, fmt.Sprintf(format, args...))
}

// RecordLuksDevice appends an opened LUKS container to the run so it
// can be closed on cleanup and described in crypttab.
func (s *State) RecordLuksDevice(d storage.LuksDevice) {
	s.LuksDevices = append(s.LuksDevices, d)
}
